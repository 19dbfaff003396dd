// Package corrector edits a segmentation with a freehand line.
//
// The line is split into runs that cross foreground or background. A run
// that lies between two other runs separates an area on one side of the line
// from an area on the other; the smaller of the two is flipped when the size
// difference makes the decision clear. A line that never changes state is
// treated as a polygon and filled or erased.
package corrector

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"segtools/pkg/contour"
	"segtools/pkg/raster"
	"segtools/pkg/regionops"
)

// ConfidenceFactor scales the segment length to give the minimum size
// difference between the two sides of a segment before one is flipped.
const ConfidenceFactor = 2

// values used in the working copy of the label
const (
	background = 0
	foreground = 1
	barrier    = 2
	filled     = 3
)

// Result describes a finished correction.
type Result struct {
	// Line holds the rasterized pixel offsets of the drawn line
	Line []int

	// Segments are the runs of Line with constant label state
	Segments []SegmentData

	// Contour is the 8-connected boundary of the first region in raster
	// order after the edit (corner space), empty when the label is empty
	Contour contour.Contour

	// Changed is 1 where the edit modified the label
	Changed *raster.Label

	// PixelsChanged counts the nonzero pixels of Changed
	PixelsChanged int
}

// Corrector applies line corrections to label images.
type Corrector struct {
	fillValue uint8
	snap      regionops.Snapshotter
	log       zerolog.Logger
}

// Option configures a Corrector.
type Option func(*Corrector)

// WithFillValue sets the label value written for added pixels (default 1).
func WithFillValue(v uint8) Option {
	return func(c *Corrector) { c.fillValue = v }
}

// WithSnapshotter sets the hook that receives the label before the first
// write of every Apply call.
func WithSnapshotter(s regionops.Snapshotter) Option {
	return func(c *Corrector) { c.snap = s }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Corrector) { c.log = l }
}

// New creates a Corrector.
func New(opts ...Option) *Corrector {
	c := &Corrector{fillValue: 1, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	if c.fillValue == 0 {
		c.fillValue = 1
	}
	return c
}

// Apply corrects label in place with the center-space polyline line.
func (c *Corrector) Apply(label *raster.Label, line []raster.Point) (Result, error) {
	if label == nil {
		return Result{}, fmt.Errorf("nil label image: %w", raster.ErrDimensionMismatch)
	}

	before := label.Clone()
	snap := &onceSnapshotter{next: c.snap}

	res := Result{Line: Rasterize(label, line)}
	res.Segments = Segments(label, res.Line)

	switch {
	case len(res.Line) <= 1:
		c.log.Debug().Msg("single pixel line, nothing to correct")
	case len(res.Segments) == 1:
		if err := c.fillPolygon(label, res.Line, res.Segments[0].Inside, snap); err != nil {
			return res, err
		}
		res.Segments[0].Modified = true
	case len(res.Segments) == 2:
		c.log.Debug().Msg("line has no interior segment")
	default:
		for i := 1; i < len(res.Segments)-1; i++ {
			c.correctSegment(label, res.Line, &res.Segments[i], snap)
		}
	}

	res.Changed = raster.NewLabel(label.Width, label.Height)
	res.Changed.Geometry = label.Geometry
	for i, v := range label.Pix {
		if v != before.Pix[i] {
			res.Changed.Pix[i] = 1
			res.PixelsChanged++
		}
	}

	if start, ok := contour.FirstNonZero(label); ok {
		ring, err := contour.Trace(label, start, contour.EightConnected)
		if err != nil {
			return res, err
		}
		res.Contour = ring
	}

	c.log.Debug().
		Int("linePixels", len(res.Line)).
		Int("segments", len(res.Segments)).
		Int("changed", res.PixelsChanged).
		Msg("correction applied")

	return res, nil
}

// fillPolygon treats the line as a closed polygon through the centers of its
// pixels. It adds the polygon when the line runs outside the segmentation and
// erases it when the line runs inside.
func (c *Corrector) fillPolygon(label *raster.Label, line []int, inside bool, snap regionops.Snapshotter) error {
	polygon := make([]raster.Point, len(line))
	for i, ofs := range line {
		x, y := label.XY(ofs)
		polygon[i] = raster.PixelCenter(x, y)
	}

	op, value := regionops.OpOr, c.fillValue
	if inside {
		op, value = regionops.OpAnd, 0
	}
	n, err := regionops.CombineRegion(label, polygon, nil, op, value, snap)
	if err != nil {
		return err
	}
	c.log.Debug().Stringer("op", op).Int("pixels", n).Msg("polygon correction")
	return nil
}

// correctSegment flood fills both sides of an interior segment on a working
// copy where the whole line acts as a barrier, and flips the smaller side
// together with the segment when the two sizes differ clearly.
func (c *Corrector) correctSegment(label *raster.Label, line []int, seg *SegmentData, snap regionops.Snapshotter) {
	if (label.Pix[line[seg.Start]] != 0) != seg.Inside {
		c.log.Debug().Int("start", seg.Start).Msg("segment already changed by an earlier edit")
		return
	}

	work := raster.NewLabel(label.Width, label.Height)
	for i, v := range label.Pix {
		if v != 0 {
			work.Pix[i] = foreground
		}
	}
	for _, ofs := range line {
		work.Pix[ofs] = barrier
	}

	state := uint8(background)
	if seg.Inside {
		state = foreground
	}
	left, right := sideSeeds(work, line, *seg, state)
	if left < 0 || right < 0 {
		c.log.Debug().Int("start", seg.Start).Msg("no seed on one side of the segment")
		return
	}

	sides := [2]*raster.Label{work, work.Clone()}
	seeds := [2]int{left, right}
	var sizes [2]int

	var wg sync.WaitGroup
	for i := range sides {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// The seeds have the segment's state, so the fills cannot fail.
			sizes[i], _ = regionops.ReplaceRegion4N(sides[i], seeds[i], filled, nil)
		}(i)
	}
	wg.Wait()

	diff := sizes[0] - sizes[1]
	if diff < 0 {
		diff = -diff
	}
	if diff <= ConfidenceFactor*seg.Len() {
		c.log.Debug().
			Int("left", sizes[0]).
			Int("right", sizes[1]).
			Int("length", seg.Len()).
			Msg("segment sides too similar")
		return
	}

	smaller := sides[0]
	if sizes[1] < sizes[0] {
		smaller = sides[1]
	}

	target := c.fillValue
	if seg.Inside {
		target = 0
	}

	snap.Save(label)
	for i, v := range smaller.Pix {
		if v == filled {
			label.Pix[i] = target
		}
	}
	for _, ofs := range line[seg.Start : seg.End+1] {
		label.Pix[ofs] = target
	}
	seg.Modified = true
}

// sideSeeds finds one pixel on each side of the segment that has the given
// state in work. The search starts at the middle of the segment and moves
// outward; -1 means no such pixel exists on that side.
func sideSeeds(work *raster.Label, line []int, seg SegmentData, state uint8) (int, int) {
	left, right := -1, -1
	mid := (seg.Start + seg.End) / 2

	for d := 0; d <= seg.Len() && (left < 0 || right < 0); d++ {
		for _, k := range []int{mid - d, mid + d} {
			if k < seg.Start || k > seg.End {
				continue
			}
			x, y := work.XY(line[k])
			px, py := work.XY(line[max(k-1, 0)])
			nx, ny := work.XY(line[min(k+1, len(line)-1)])
			dx, dy := sign(nx-px), sign(ny-py)
			if dx == 0 && dy == 0 {
				continue
			}

			// Image rows grow downwards, so (dy, -dx) is on the left.
			if left < 0 {
				left = seedAt(work, x+dy, y-dx, state)
			}
			if right < 0 {
				right = seedAt(work, x-dy, y+dx, state)
			}
		}
	}
	return left, right
}

func seedAt(work *raster.Label, x, y int, state uint8) int {
	if !work.Contains(x, y) {
		return -1
	}
	ofs := work.Offset(x, y)
	if work.Pix[ofs] != state {
		return -1
	}
	return ofs
}

// onceSnapshotter forwards only the first Save of an Apply call.
type onceSnapshotter struct {
	next regionops.Snapshotter
	done bool
}

func (o *onceSnapshotter) Save(label *raster.Label) {
	if o.done || o.next == nil {
		return
	}
	o.done = true
	o.next.Save(label)
}
