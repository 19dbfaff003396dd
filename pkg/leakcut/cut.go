// Package leakcut finds where to sever a "leak": a thin connection through
// which region growing escaped from the intended structure into neighbouring
// tissue.
//
// Starting from a point the user clicked inside the unwanted part, the solver
// walks back along the growth history towards the seed, preferring the most
// central path, and looks for the place where the region is narrowest. The
// narrow place is turned into two boundary points; cutting the contour there
// yields the polygon to delete.
package leakcut

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"segtools/pkg/contour"
	"segtools/pkg/raster"
)

// Tuning constants. Their values decide where cuts land.
const (
	// GradientThreshold is the boundary-distance gradient below which the
	// trace follows the skeleton instead of the most central neighbour.
	GradientThreshold = 0.5

	// WeightDamping controls how quickly older minima lose their advantage:
	// weight = max(MinWeight, WeightDamping/(WeightDamping+steps)).
	WeightDamping = 20.0

	// MinWeight bounds the damping weight from below.
	MinWeight = 0.5

	// MinTailSteps is how many trace steps must follow the narrowest point
	// for it to be trusted.
	MinTailSteps = 10

	// MinContourSeparation is the minimum ring distance between the two cut
	// points.
	MinContourSeparation = 50
)

// CutResult is the outcome of FindCut.
type CutResult struct {
	// Trace holds the visited pixel centers (corner space), click first
	Trace []raster.Point

	// OnGradient tells per trace point whether the step into it followed the
	// skeleton (true) or the maximum boundary distance (false)
	OnGradient []bool

	// AbsMin is the index in Trace of the weighted narrowest point
	AbsMin int

	// CutPoints are the two contour vertices defining the cut
	CutPoints [2]raster.Point

	// CutIt reports whether a safe cut was found
	CutIt bool

	// Reason explains a negative result
	Reason string

	// DeleteCurve is the closed contour enclosing the region to delete
	DeleteCurve contour.Contour

	// Contour is the full 8-connected boundary the cut was computed on
	Contour contour.Contour
}

// Option configures FindCut.
type Option func(*solver)

// WithLogger sets the logger used for debug output.
func WithLogger(l zerolog.Logger) Option {
	return func(s *solver) { s.log = l }
}

// WithMaxSteps overrides the trace step guard. The default is the number of
// pixels in the image.
func WithMaxSteps(n int) Option {
	return func(s *solver) { s.maxSteps = n }
}

type solver struct {
	label    *raster.Label
	value    uint8
	hist     *raster.History
	index    *boundaryIndex
	dist     []float64
	log      zerolog.Logger
	maxSteps int
}

// FindCut traces from click back towards the seed recorded in hist and
// derives a cut that separates the clicked part of the region.
//
// Negative outcomes (no history at the click, click on background, no narrow
// point or no two distinct cut points) return CutIt == false and a nil error.
// Mismatched image sizes and clicks outside the image are errors.
func FindCut(label *raster.Label, hist *raster.History, click int, opts ...Option) (CutResult, error) {
	if label == nil || hist == nil {
		return CutResult{Reason: "no history"}, nil
	}
	if !raster.SameSize(label, hist) {
		return CutResult{}, fmt.Errorf("history %dx%d for %dx%d label: %w", hist.Width, hist.Height, label.Width, label.Height, raster.ErrDimensionMismatch)
	}
	if !label.ValidOffset(click) {
		return CutResult{}, fmt.Errorf("click offset %d: %w", click, raster.ErrInvalidSeed)
	}

	s := &solver{
		label:    label,
		hist:     hist,
		log:      zerolog.Nop(),
		maxSteps: label.Len(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if label.Pix[click] == 0 {
		return CutResult{Reason: "click outside segmentation"}, nil
	}
	if hist.Pix[click] == 0 {
		return CutResult{Reason: "no history at click"}, nil
	}

	ring, err := contour.Trace(label, click, contour.EightConnected)
	if err != nil || len(ring) == 0 {
		return CutResult{Reason: "no contour"}, nil
	}
	s.value = label.Pix[click]
	s.index = newBoundaryIndex(ring)
	s.dist = make([]float64, label.Len())
	for i := range s.dist {
		s.dist[i] = -1
	}

	res := s.trace(click)
	res.Contour = ring
	if res.Reason != "" {
		return res, nil
	}

	s.log.Debug().
		Int("points", len(res.Trace)).
		Int("absMin", res.AbsMin).
		Msg("leak trace finished")

	if len(res.Trace)-1-res.AbsMin <= MinTailSteps {
		res.Reason = "narrowest point too close to the seed"
		return res, nil
	}

	s.cut(&res, ring, click)
	return res, nil
}

// trace walks from click towards the seed and records the weighted minimum.
func (s *solver) trace(click int) CutResult {
	var res CutResult

	prev, cur := -1, click
	best := math.Inf(1)
	sinceMin := 0
	onGradient := false

	for steps := 0; ; steps++ {
		if steps > s.maxSteps {
			res.Reason = "trace did not terminate"
			return res
		}

		x, y := s.label.XY(cur)
		res.Trace = append(res.Trace, raster.PixelCenter(x, y))
		res.OnGradient = append(res.OnGradient, onGradient)

		d := s.offsetDistance(cur)
		weight := math.Max(MinWeight, WeightDamping/(WeightDamping+float64(sinceMin)))
		if d*weight < best {
			best = d * weight
			res.AbsMin = len(res.Trace) - 1
			sinceMin = 0
		}
		sinceMin++

		next, grad := s.nextStep(cur, prev)
		if next < 0 || next == cur {
			break
		}
		prev, cur = cur, next
		onGradient = grad
	}

	return res
}

// nextStep picks the 8-neighbour of cur to move to. Candidates carry the
// clicked label value, are not younger than cur in growth time and not the previous pixel.
// It returns -1 when there is no candidate.
func (s *solver) nextStep(cur, prev int) (int, bool) {
	curHist := s.hist.Pix[cur]

	bestGrad, gradCand := math.Inf(1), -1
	bestDist, distCand := math.Inf(-1), -1

	for _, n := range s.label.Neighbors8(cur) {
		if n < 0 || n == prev || s.label.Pix[n] != s.value {
			continue
		}
		h := s.hist.Pix[n]
		if h == 0 || h > curHist {
			continue
		}

		if g := s.gradient(n); g < bestGrad {
			bestGrad, gradCand = g, n
		}
		if d := s.offsetDistance(n); d > bestDist {
			bestDist, distCand = d, n
		}
	}

	if gradCand < 0 {
		return -1, false
	}
	if bestGrad < GradientThreshold {
		return gradCand, true
	}
	return distCand, false
}

// gradient estimates the magnitude of the boundary-distance gradient at a
// pixel with central differences. It is close to 1 away from the skeleton and
// drops on it, where the distances to opposite sides balance out.
func (s *solver) gradient(ofs int) float64 {
	x, y := s.label.XY(ofs)
	dx := (s.pixelDistance(x+1, y) - s.pixelDistance(x-1, y)) / 2
	dy := (s.pixelDistance(x, y+1) - s.pixelDistance(x, y-1)) / 2
	return math.Hypot(dx, dy)
}

// offsetDistance is the cached boundary distance of a pixel center.
func (s *solver) offsetDistance(ofs int) float64 {
	if d := s.dist[ofs]; d >= 0 {
		return d
	}
	x, y := s.label.XY(ofs)
	d := s.index.distance(raster.PixelCenter(x, y))
	s.dist[ofs] = d
	return d
}

// pixelDistance is the boundary distance of any pixel center, including
// centers outside the image.
func (s *solver) pixelDistance(x, y int) float64 {
	if s.label.Contains(x, y) {
		return s.offsetDistance(y*s.label.Width + x)
	}
	return s.index.distance(raster.PixelCenter(x, y))
}

// cut turns the narrowest trace point into two contour points, splits the
// ring and picks the part containing the click.
func (s *solver) cut(res *CutResult, ring contour.Contour, click int) {
	p := res.Trace[res.AbsMin]

	i1, _ := s.index.nearest(p)
	if i1 < 0 {
		res.Reason = "no nearest contour point"
		return
	}

	n := len(ring)
	i2, bestDist := -1, math.Inf(1)
	for j := range ring {
		sep := j - i1
		if sep < 0 {
			sep = -sep
		}
		if n-sep < sep {
			sep = n - sep
		}
		if sep <= MinContourSeparation {
			continue
		}
		if d := ring[j].Dist(p); d < bestDist {
			bestDist, i2 = d, j
		}
	}
	if i2 < 0 {
		res.Reason = "contour too short for a cut"
		return
	}

	a, b := ring[i1], ring[i2]
	if a == b {
		res.Reason = "cut points coincide"
		return
	}

	part1, part2, err := contour.Split(ring, a, b)
	if err != nil {
		res.Reason = err.Error()
		return
	}

	cx, cy := s.label.XY(click)
	del, ok := deletePart(part1, part2, cx, cy)
	if !ok {
		res.Reason = "click is on neither side of the cut"
		return
	}
	res.CutPoints = [2]raster.Point{a, b}
	res.CutIt = true
	res.DeleteCurve = del

	s.log.Debug().
		Float64("x1", a.X).Float64("y1", a.Y).
		Float64("x2", b.X).Float64("y2", b.Y).
		Int("deletePoints", len(res.DeleteCurve)).
		Msg("leak cut found")
}

// deletePart returns the part of a split contour that contains pixel (x, y).
func deletePart(part1, part2 contour.Contour, x, y int) (contour.Contour, bool) {
	switch {
	case part1.ContainsPixel(x, y):
		return part1, true
	case part2.ContainsPixel(x, y):
		return part2, true
	}
	return nil, false
}
