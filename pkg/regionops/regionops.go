// Package regionops implements the label-mutating region operations used by
// the interactive segmentation tools. Every operation hands the image to a
// Snapshotter right before its first write so that callers can keep an undo
// history.
package regionops

import (
	"fmt"
	"sort"

	"segtools/pkg/raster"
)

// Snapshotter receives the label image right before an operation modifies it.
// undo.Stack implements it.
type Snapshotter interface {
	Save(label *raster.Label)
}

// Op is the pixel operation CombineRegion applies inside a polygon.
type Op int

const (
	// OpCopy overwrites pixels with the value
	OpCopy Op = iota
	// OpAnd keeps the bits set in the value (And 0 erases)
	OpAnd
	// OpOr sets the bits of the value
	OpOr
	// OpXor toggles the bits of the value
	OpXor
)

func (op Op) String() string {
	switch op {
	case OpCopy:
		return "copy"
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	case OpXor:
		return "xor"
	default:
		return fmt.Sprintf("Op(%d)", int(op))
	}
}

func (op Op) apply(p, v uint8) uint8 {
	switch op {
	case OpAnd:
		return p & v
	case OpOr:
		return p | v
	case OpXor:
		return p ^ v
	default:
		return v
	}
}

// ReplaceRegion4N relabels the 4-connected region of pixels sharing the seed's
// value with value and returns the number of pixels changed. Nothing changes
// when value equals the seed's current value.
func ReplaceRegion4N(label *raster.Label, seed int, value uint8, snap Snapshotter) (int, error) {
	if label == nil || !label.ValidOffset(seed) {
		return 0, fmt.Errorf("seed offset %d: %w", seed, raster.ErrInvalidSeed)
	}

	old := label.Pix[seed]
	if old == value {
		return 0, nil
	}
	if snap != nil {
		snap.Save(label)
	}

	label.Pix[seed] = value
	changed := 1
	stack := []int{seed}
	for len(stack) > 0 {
		ofs := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, n := range label.Neighbors4(ofs) {
			if n < 0 || label.Pix[n] != old {
				continue
			}
			label.Pix[n] = value
			changed++
			stack = append(stack, n)
		}
	}
	return changed, nil
}

// CombineRegion applies op with value to every pixel whose center lies inside
// the closed polygon (corner space; the last point connects to the first).
// When mask is non-nil only pixels where the mask is nonzero are written. It
// returns the number of pixels whose value changed.
//
// Inside-ness matches contour.PointInPolygon evaluated at pixel centers.
func CombineRegion(label *raster.Label, polygon []raster.Point, mask *raster.Label, op Op, value uint8, snap Snapshotter) (int, error) {
	if label == nil {
		return 0, fmt.Errorf("nil label image: %w", raster.ErrDimensionMismatch)
	}
	if mask != nil && !raster.SameSize(label, mask) {
		return 0, fmt.Errorf("mask %dx%d for %dx%d image: %w", mask.Width, mask.Height, label.Width, label.Height, raster.ErrDimensionMismatch)
	}
	if len(polygon) < 3 {
		return 0, nil
	}

	minY, maxY := polygon[0].Y, polygon[0].Y
	for _, p := range polygon[1:] {
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	y0 := clamp(int(minY)-1, 0, label.Height)
	y1 := clamp(int(maxY)+1, 0, label.Height-1)

	saved := false
	changed := 0
	crossings := make([]float64, 0, 16)
	n := len(polygon)

	for y := y0; y <= y1; y++ {
		yc := raster.PixelCenter(0, y).Y
		crossings = crossings[:0]
		for i, j := 0, n-1; i < n; j, i = i, i+1 {
			pi, pj := polygon[i], polygon[j]
			if (pi.Y > yc) != (pj.Y > yc) {
				crossings = append(crossings, (pj.X-pi.X)*(yc-pi.Y)/(pj.Y-pi.Y)+pi.X)
			}
		}
		sort.Float64s(crossings)

		// A pixel is inside when its center lies in [c[2k], c[2k+1]).
		for k := 0; k+1 < len(crossings); k += 2 {
			xs := raster.FirstCenterAtOrAfter(crossings[k])
			for x := max(xs, 0); x < label.Width && raster.PixelCenter(x, y).X < crossings[k+1]; x++ {
				ofs := y*label.Width + x
				if mask != nil && mask.Pix[ofs] == 0 {
					continue
				}
				nv := op.apply(label.Pix[ofs], value)
				if nv == label.Pix[ofs] {
					continue
				}
				if !saved && snap != nil {
					snap.Save(label)
				}
				saved = true
				label.Pix[ofs] = nv
				changed++
			}
		}
	}

	return changed, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
