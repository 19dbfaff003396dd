package corrector

import (
	"math"

	"segtools/pkg/raster"
)

// SegmentData describes one maximal run of the rasterized line over which the
// label state does not change.
type SegmentData struct {
	// Start and End are inclusive indices into the rasterized line
	Start, End int

	// Inside is true when the run lies on foreground pixels
	Inside bool

	// Modified is set when the correction flipped the area next to the run
	Modified bool
}

// Len returns the number of line pixels in the segment.
func (s SegmentData) Len() int {
	return s.End - s.Start + 1
}

// Rasterize converts a center-space polyline into the sequence of pixel
// offsets it passes through. Every polyline edge is clipped to the image and
// walked in unit steps along its major axis; pixels outside the image are
// dropped and consecutive duplicates are collapsed. Points with NaN or
// infinite coordinates are ignored.
func Rasterize(label *raster.Label, line []raster.Point) []int {
	if label == nil || label.Len() == 0 {
		return nil
	}

	var offsets []int
	add := func(x, y int) {
		if !label.Contains(x, y) {
			return
		}
		ofs := label.Offset(x, y)
		if n := len(offsets); n > 0 && offsets[n-1] == ofs {
			return
		}
		offsets = append(offsets, ofs)
	}

	// Clip window in snapped pixel coordinates, one pixel wider than the image
	xmin, ymin := -1.0, -1.0
	xmax, ymax := float64(label.Width), float64(label.Height)

	var prev raster.Point
	started := false
	for _, p := range line {
		if !finite(p) {
			continue
		}
		q := p.Snapped()
		if !started {
			started = true
			prev = q
			if q.X >= xmin && q.X <= xmax && q.Y >= ymin && q.Y <= ymax {
				add(int(q.X), int(q.Y))
			}
			continue
		}

		a, b, ok := clip(prev, q, xmin, ymin, xmax, ymax)
		prev = q
		if !ok {
			continue
		}

		x0, y0 := int(math.Round(a.X)), int(math.Round(a.Y))
		x1, y1 := int(math.Round(b.X)), int(math.Round(b.Y))
		add(x0, y0)
		dx, dy := x1-x0, y1-y0
		steps := max(abs(dx), abs(dy))
		for i := 1; i <= steps; i++ {
			t := float64(i) / float64(steps)
			add(x0+int(math.Round(t*float64(dx))), y0+int(math.Round(t*float64(dy))))
		}
	}
	return offsets
}

func finite(p raster.Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// clip cuts the segment a-b to the rectangle with the Liang-Barsky method.
// It reports false when the segment misses the rectangle.
func clip(a, b raster.Point, xmin, ymin, xmax, ymax float64) (raster.Point, raster.Point, bool) {
	t0, t1 := 0.0, 1.0
	dx, dy := b.X-a.X, b.Y-a.Y

	edges := [4][2]float64{
		{-dx, a.X - xmin},
		{dx, xmax - a.X},
		{-dy, a.Y - ymin},
		{dy, ymax - a.Y},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return a, b, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return a, b, false
			}
			t0 = math.Max(t0, r)
		} else {
			if r < t0 {
				return a, b, false
			}
			t1 = math.Min(t1, r)
		}
	}

	ca, cb := a, b
	if t0 > 0 {
		ca = raster.Point{X: a.X + t0*dx, Y: a.Y + t0*dy}
	}
	if t1 < 1 {
		cb = raster.Point{X: a.X + t1*dx, Y: a.Y + t1*dy}
	}
	return ca, cb, true
}

// Segments partitions the rasterized line into runs of equal label state.
func Segments(label *raster.Label, offsets []int) []SegmentData {
	var segs []SegmentData
	for i, ofs := range offsets {
		inside := label.Pix[ofs] != 0
		if n := len(segs); n > 0 && segs[n-1].Inside == inside {
			segs[n-1].End = i
			continue
		}
		segs = append(segs, SegmentData{Start: i, End: i, Inside: inside})
	}
	return segs
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}
