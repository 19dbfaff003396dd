// Package interpolation generates intermediate label slices between two
// segmented slices with shape-based interpolation: both masks are turned into
// signed distance maps, the maps are blended linearly and the blend is
// thresholded at zero.
package interpolation

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"segtools/pkg/raster"
)

// ErrDegenerateInterpolationRatio is returned when the requested slice does not
// lie strictly between the two given slices.
var ErrDegenerateInterpolationRatio = errors.New("interpolation ratio outside (0,1)")

// Morph blends the shapes of a and b. A ratio of 0 reproduces a, 1 reproduces
// b, and Morph(a, b, r) equals Morph(b, a, 1-r). The result is a new label
// with value 1 inside and a's geometry.
func Morph(a, b *raster.Label, ratio float64) (*raster.Label, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("missing slice: %w", raster.ErrDimensionMismatch)
	}
	if !raster.SameSize(a, b) {
		return nil, fmt.Errorf("slices %dx%d and %dx%d: %w", a.Width, a.Height, b.Width, b.Height, raster.ErrDimensionMismatch)
	}
	if ratio < 0 || ratio > 1 {
		return nil, fmt.Errorf("ratio %g: %w", ratio, ErrDegenerateInterpolationRatio)
	}

	out := raster.NewLabel(a.Width, a.Height)
	out.Geometry = a.Geometry
	if out.Len() == 0 {
		return out, nil
	}

	var blend, tmp mat.Dense
	blend.Scale(1-ratio, SignedDistance(a))
	tmp.Scale(ratio, SignedDistance(b))
	blend.Add(&blend, &tmp)

	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			if blend.At(y, x) > 0 {
				out.Pix[y*out.Width+x] = 1
			}
		}
	}
	return out, nil
}

// Interpolate builds the slice at index req between lower (at index li) and
// upper (at index ui). The requested index must lie strictly between the two;
// callers handle req == li and req == ui themselves.
//
// A nil slice or a size mismatch yields raster.ErrDimensionMismatch and a nil
// label. The result keeps lower's geometry.
func Interpolate(lower *raster.Label, li int, upper *raster.Label, ui, req int) (*raster.Label, error) {
	if lower == nil || upper == nil {
		return nil, fmt.Errorf("missing slice: %w", raster.ErrDimensionMismatch)
	}
	if li == ui {
		return nil, fmt.Errorf("slices share index %d: %w", li, ErrDegenerateInterpolationRatio)
	}

	ratio := float64(req-li) / float64(ui-li)
	if ratio <= 0 || ratio >= 1 {
		return nil, fmt.Errorf("index %d between %d and %d: %w", req, li, ui, ErrDegenerateInterpolationRatio)
	}
	return Morph(lower, upper, ratio)
}
