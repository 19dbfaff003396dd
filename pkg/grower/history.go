package grower

import (
	"fmt"

	"segtools/pkg/raster"
)

// History rebuilds the growth history of an existing segmentation by running
// a 4-connected breadth-first search from seed over its nonzero pixels. This
// gives leak cutting a history to work with when the segmentation was not
// produced by Grow.
//
// hist is allocated when nil and resized when its dimensions differ. The seed
// must lie inside the image on a foreground pixel.
func History(label *raster.Label, seed int, hist *raster.History) (*raster.History, error) {
	if label == nil {
		return nil, fmt.Errorf("nil label image: %w", raster.ErrInvalidSeed)
	}
	if !label.ValidOffset(seed) {
		return nil, fmt.Errorf("seed offset %d in %dx%d image: %w", seed, label.Width, label.Height, raster.ErrInvalidSeed)
	}
	if label.Pix[seed] == 0 {
		return nil, fmt.Errorf("seed offset %d is background: %w", seed, raster.ErrInvalidSeed)
	}

	if hist == nil {
		hist = raster.NewHistory(label.Width, label.Height)
	} else {
		hist.Resize(label.Width, label.Height)
	}
	hist.Geometry = label.Geometry

	hist.Pix[seed] = 1
	wave := []int{seed}
	var next []int
	for k := 1; len(wave) > 0; k++ {
		stamp := historyStamp(k)
		next = next[:0]
		for _, ofs := range wave {
			for _, n := range label.Neighbors4(ofs) {
				if n < 0 || label.Pix[n] == 0 || hist.Pix[n] != 0 {
					continue
				}
				hist.Pix[n] = stamp
				next = append(next, n)
			}
		}
		wave, next = next, wave
	}

	return hist, nil
}
