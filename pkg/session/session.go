// Package session ties the label editing operations to one label image and
// its undo history, the way an interactive segmentation tool uses them.
package session

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"segtools/pkg/contour"
	"segtools/pkg/corrector"
	"segtools/pkg/grower"
	"segtools/pkg/leakcut"
	"segtools/pkg/raster"
	"segtools/pkg/regionops"
	"segtools/pkg/undo"
)

// ErrNoSeed is returned by leak removal before a seed was set.
var ErrNoSeed = errors.New("no seed set")

// Session edits one label image. Every edit is one undo step.
type Session struct {
	label     *raster.Label
	stack     *undo.Stack
	corrector *corrector.Corrector
	fillValue uint8
	seed      int
	log       zerolog.Logger
}

// Option configures a Session.
type Option func(*sessionOptions)

type sessionOptions struct {
	fillValue uint8
	log       zerolog.Logger
}

// WithFillValue sets the label value written by corrections.
func WithFillValue(v uint8) Option {
	return func(o *sessionOptions) { o.fillValue = v }
}

// WithLogger sets the logger handed to the session and its operations.
func WithLogger(l zerolog.Logger) Option {
	return func(o *sessionOptions) { o.log = l }
}

// New starts a session on label keeping levels undo steps.
func New(label *raster.Label, levels int, opts ...Option) *Session {
	o := sessionOptions{fillValue: 1, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	stack := undo.New(levels)
	return &Session{
		label:     label,
		stack:     stack,
		corrector: corrector.New(
			corrector.WithFillValue(o.fillValue),
			corrector.WithSnapshotter(stack),
			corrector.WithLogger(o.log),
		),
		fillValue: o.fillValue,
		seed:      -1,
		log:       o.log,
	}
}

// Label returns the edited image.
func (s *Session) Label() *raster.Label {
	return s.label
}

// SetSeed records the pixel the segmentation was grown from. Leak removal
// walks back towards it.
func (s *Session) SetSeed(x, y int) error {
	if !s.label.Contains(x, y) {
		return fmt.Errorf("seed (%d,%d): %w", x, y, raster.ErrInvalidSeed)
	}
	s.seed = s.label.Offset(x, y)
	return nil
}

// Replace relabels the 4-connected region at (x, y).
func (s *Session) Replace(x, y int, value uint8) (int, error) {
	if !s.label.Contains(x, y) {
		return 0, fmt.Errorf("pixel (%d,%d): %w", x, y, raster.ErrInvalidSeed)
	}
	s.stack.Begin()
	defer s.stack.End()
	return regionops.ReplaceRegion4N(s.label, s.label.Offset(x, y), value, s.stack)
}

// Combine applies op with value inside a corner-space polygon.
func (s *Session) Combine(polygon []raster.Point, op regionops.Op, value uint8) (int, error) {
	s.stack.Begin()
	defer s.stack.End()
	return regionops.CombineRegion(s.label, polygon, nil, op, value, s.stack)
}

// Correct applies a center-space correction line.
func (s *Session) Correct(line []raster.Point) (corrector.Result, error) {
	s.stack.Begin()
	defer s.stack.End()
	return s.corrector.Apply(s.label, line)
}

// RemoveLeak rebuilds the growth history from the seed, looks for a leak
// behind the clicked pixel and erases the part beyond the cut. A result with
// CutIt false leaves the label untouched.
func (s *Session) RemoveLeak(x, y int) (leakcut.CutResult, int, error) {
	if s.seed < 0 {
		return leakcut.CutResult{}, 0, ErrNoSeed
	}
	if !s.label.Contains(x, y) {
		return leakcut.CutResult{}, 0, fmt.Errorf("click (%d,%d): %w", x, y, raster.ErrInvalidSeed)
	}

	hist, err := grower.History(s.label, s.seed, nil)
	if err != nil {
		return leakcut.CutResult{}, 0, err
	}

	res, err := leakcut.FindCut(s.label, hist, s.label.Offset(x, y), leakcut.WithLogger(s.log))
	if err != nil || !res.CutIt {
		return res, 0, err
	}

	n, err := s.Combine(res.DeleteCurve, regionops.OpAnd, 0)
	if err != nil {
		return res, 0, err
	}
	s.log.Debug().Int("removed", n).Msg("leak removed")
	return res, n, nil
}

// Contour traces the boundary of the first region in raster order.
func (s *Session) Contour(conn contour.Connectivity) (contour.Contour, error) {
	start, ok := contour.FirstNonZero(s.label)
	if !ok {
		return nil, contour.ErrEmptyContour
	}
	return contour.Trace(s.label, start, conn)
}

// Undo reverts the last edit.
func (s *Session) Undo() error {
	return s.stack.Undo(s.label)
}

// CanUndo reports whether an edit can be reverted.
func (s *Session) CanUndo() bool {
	return s.stack.Available()
}
