package session

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"segtools/pkg/raster"
	"segtools/pkg/regionops"
)

// Script is a recorded sequence of edits, usually read from YAML:
//
//	seed: [4, 14]
//	steps:
//	  - op: cut
//	    at: [45, 14]
//	  - op: correct
//	    line: [[5, 13], [35, 13]]
//	  - op: undo
type Script struct {
	// Seed is the pixel the segmentation was grown from
	Seed []int `yaml:"seed,omitempty"`

	Steps []Step `yaml:"steps"`
}

// Step is one edit. Points are in center space.
type Step struct {
	// Op is replace, erase, fill, correct, cut or undo
	Op string `yaml:"op"`

	// At is the pixel for replace and cut
	At []int `yaml:"at,omitempty"`

	// Value is the new label for replace and fill. Fill defaults to the
	// session fill value.
	Value uint8 `yaml:"value,omitempty"`

	// Line is the polyline for correct and the polygon for erase and fill
	Line [][2]float64 `yaml:"line,omitempty"`
}

// StepResult reports what a step did.
type StepResult struct {
	Op      string
	Changed int
	Message string
}

// LoadScript reads a YAML script file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading script: %w", err)
	}
	var sc Script
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("error parsing script: %w", err)
	}
	return &sc, nil
}

func (st Step) point() (int, int, error) {
	if len(st.At) != 2 {
		return 0, 0, fmt.Errorf("%s: expected at: [x, y], got %v", st.Op, st.At)
	}
	return st.At[0], st.At[1], nil
}

func (st Step) line() []raster.Point {
	pts := make([]raster.Point, len(st.Line))
	for i, p := range st.Line {
		pts[i] = raster.Point{X: p[0], Y: p[1]}
	}
	return pts
}

// polygon converts the center-space step line to a corner-space polygon.
func (st Step) polygon() []raster.Point {
	pts := st.line()
	for i, p := range pts {
		pts[i] = raster.CenterToCorner(p)
	}
	return pts
}

// Run executes every step in order and stops at the first error.
func (s *Session) Run(sc *Script) ([]StepResult, error) {
	if len(sc.Seed) == 2 {
		if err := s.SetSeed(sc.Seed[0], sc.Seed[1]); err != nil {
			return nil, err
		}
	}

	results := make([]StepResult, 0, len(sc.Steps))
	for i, st := range sc.Steps {
		res, err := s.step(st)
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i+1, st.Op, err)
		}
		s.log.Info().Int("step", i+1).Str("op", st.Op).Int("changed", res.Changed).Msg(res.Message)
		results = append(results, res)
	}
	return results, nil
}

func (s *Session) step(st Step) (StepResult, error) {
	res := StepResult{Op: st.Op}

	switch st.Op {
	case "replace":
		x, y, err := st.point()
		if err != nil {
			return res, err
		}
		n, err := s.Replace(x, y, st.Value)
		if err != nil {
			return res, err
		}
		res.Changed, res.Message = n, "region relabeled"

	case "erase", "fill":
		op, value, msg := regionops.OpAnd, uint8(0), "polygon erased"
		if st.Op == "fill" {
			op, value, msg = regionops.OpOr, st.Value, "polygon filled"
			if value == 0 {
				value = s.fillValue
			}
		}
		n, err := s.Combine(st.polygon(), op, value)
		if err != nil {
			return res, err
		}
		res.Changed, res.Message = n, msg

	case "correct":
		r, err := s.Correct(st.line())
		if err != nil {
			return res, err
		}
		res.Changed, res.Message = r.PixelsChanged, fmt.Sprintf("%d segments", len(r.Segments))

	case "cut":
		x, y, err := st.point()
		if err != nil {
			return res, err
		}
		cut, n, err := s.RemoveLeak(x, y)
		if err != nil {
			return res, err
		}
		res.Changed = n
		if cut.CutIt {
			res.Message = "leak removed"
		} else {
			res.Message = "no safe cut: " + cut.Reason
		}

	case "undo":
		if err := s.Undo(); err != nil {
			return res, err
		}
		res.Message = "undone"

	default:
		return res, fmt.Errorf("unknown operation %q", st.Op)
	}

	return res, nil
}
