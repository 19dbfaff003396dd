// Package grower implements seeded region growing on 2D intensity slices and
// the reconstruction of growth histories from existing label images.
package grower

import (
	"fmt"

	"segtools/pkg/raster"
)

// Params controls the acceptance window and extent of a region growing run.
type Params struct {
	// RelativeBounds makes Lower and Upper offsets from the mean of the
	// seed's 3x3 neighbourhood instead of absolute intensities.
	RelativeBounds bool

	// Lower and Upper bound the accepted intensity interval (inclusive).
	Lower float64
	Upper float64

	// MaxIterations limits the number of breadth-first waves, the seed being
	// wave 0. Zero means unbounded.
	MaxIterations int
}

// Result describes a finished growing run.
type Result struct {
	// Label holds 1 for every accepted pixel and 0 elsewhere
	Label *raster.Label

	// ContourOffset is the largest linear offset accepted. It is the
	// bottom-most, then right-most pixel of the region; callers that need a
	// boundary pixel must still search for one before tracing.
	ContourOffset int

	// BaseValue is the mean intensity of the seed's clipped 3x3 neighbourhood
	BaseValue float64

	// Waves is the number of breadth-first waves processed
	Waves int

	// Count is the number of accepted pixels
	Count int
}

// Grow floods a 4-connected region from seed over in, accepting pixels whose
// intensity lies in the window described by p.
//
// The result is written to label, which is allocated when nil and resized
// when its dimensions differ from in; it is always zeroed first. When hist is
// non-nil every pixel accepted in wave k is stamped k+1.
//
// A nil intensity image is a no-op. A seed outside the image yields
// raster.ErrInvalidSeed.
func Grow[T raster.Sample](in *raster.Image[T], seed int, p Params, label *raster.Label, hist *raster.History) (Result, error) {
	if in == nil {
		return Result{}, nil
	}
	if !in.ValidOffset(seed) {
		return Result{}, fmt.Errorf("seed offset %d in %dx%d image: %w", seed, in.Width, in.Height, raster.ErrInvalidSeed)
	}

	if label == nil {
		label = raster.NewLabel(in.Width, in.Height)
	} else {
		label.Resize(in.Width, in.Height)
	}
	label.Geometry = in.Geometry
	if hist != nil {
		hist.Resize(in.Width, in.Height)
		hist.Geometry = in.Geometry
	}

	base := seedAverage(in, seed)
	lower, upper := p.Lower, p.Upper
	if p.RelativeBounds {
		lower = base - p.Lower
		upper = base + p.Upper
	}
	accept := func(ofs int) bool {
		v := float64(in.Pix[ofs])
		return v >= lower && v <= upper
	}

	res := Result{Label: label, ContourOffset: seed, BaseValue: base}

	label.Pix[seed] = 1
	wave := []int{seed}
	next := make([]int, 0, 64)

	for len(wave) > 0 {
		if p.MaxIterations > 0 && res.Waves >= p.MaxIterations {
			break
		}
		stamp := historyStamp(res.Waves)

		next = next[:0]
		for _, ofs := range wave {
			res.Count++
			if ofs > res.ContourOffset {
				res.ContourOffset = ofs
			}
			if hist != nil {
				hist.Pix[ofs] = stamp
			}

			for _, n := range in.Neighbors4(ofs) {
				if n < 0 || label.Pix[n] != 0 || !accept(n) {
					continue
				}
				label.Pix[n] = 1
				next = append(next, n)
			}
		}
		res.Waves++
		wave, next = next, wave
	}

	// Pixels queued for a wave that was never processed are not part of the
	// region.
	for _, ofs := range wave {
		label.Pix[ofs] = 0
	}

	return res, nil
}

// seedAverage returns the mean intensity of the seed's 3x3 neighbourhood,
// clipped to the image.
func seedAverage[T raster.Sample](in *raster.Image[T], seed int) float64 {
	sx, sy := in.XY(seed)
	sum, n := 0.0, 0
	for y := sy - 1; y <= sy+1; y++ {
		for x := sx - 1; x <= sx+1; x++ {
			if in.Contains(x, y) {
				sum += float64(in.Pix[y*in.Width+x])
				n++
			}
		}
	}
	return sum / float64(n)
}

// historyStamp converts a wave index to its history value, saturating at the
// top of the 16-bit range.
func historyStamp(wave int) uint16 {
	if wave >= 0xFFFF {
		return 0xFFFF
	}
	return uint16(wave + 1)
}
