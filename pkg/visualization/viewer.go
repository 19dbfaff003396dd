package visualization

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"segtools/pkg/raster"
)

// Viewer shows a stack of label slices along any of the three axes.
type Viewer struct {
	// slices holds the labels ordered by stack index; nil entries are
	// slices without a segmentation and render empty
	slices []*raster.Label

	// dimensions of the stack
	width  int
	height int
	depth  int

	// sliceGap is the physical distance between consecutive slices in mm
	sliceGap float64
}

// NewViewer creates a viewer over slices. All non-nil slices must share the
// same dimensions.
func NewViewer(slices []*raster.Label, sliceGap float64) (*Viewer, error) {
	v := &Viewer{slices: slices, depth: len(slices), sliceGap: sliceGap}
	for i, s := range slices {
		if s == nil {
			continue
		}
		if v.width == 0 && v.height == 0 {
			v.width, v.height = s.Width, s.Height
			continue
		}
		if s.Width != v.width || s.Height != v.height {
			return nil, fmt.Errorf("slice %d is %dx%d, expected %dx%d: %w", i, s.Width, s.Height, v.width, v.height, raster.ErrDimensionMismatch)
		}
	}
	return v, nil
}

func (v *Viewer) at(x, y, z int) bool {
	s := v.slices[z]
	return s != nil && s.Pix[y*v.width+x] != 0
}

// ExtractSlice renders one plane of the stack. Axis z gives the slice itself,
// x and y give reformatted views with one column per stack slice.
func (v *Viewer) ExtractSlice(axis string, position int) (image.Image, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}

	var label *raster.Label

	switch axis {
	case "x", "X":
		// YZ plane
		if position >= v.width {
			return nil, fmt.Errorf("position %d exceeds width %d", position, v.width)
		}
		label = raster.NewLabel(v.depth, v.height)
		for y := 0; y < v.height; y++ {
			for z := 0; z < v.depth; z++ {
				if v.at(position, y, z) {
					label.Set(z, y, 1)
				}
			}
		}

	case "y", "Y":
		// XZ plane
		if position >= v.height {
			return nil, fmt.Errorf("position %d exceeds height %d", position, v.height)
		}
		label = raster.NewLabel(v.width, v.depth)
		for z := 0; z < v.depth; z++ {
			for x := 0; x < v.width; x++ {
				if v.at(x, position, z) {
					label.Set(x, z, 1)
				}
			}
		}

	case "z", "Z":
		if position >= v.depth {
			return nil, fmt.Errorf("position %d exceeds depth %d", position, v.depth)
		}
		label = raster.NewLabel(v.width, v.height)
		if s := v.slices[position]; s != nil {
			copy(label.Pix, s.Pix)
		}

	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	return LabelToImage(label), nil
}

// Volume returns the segmented volume in mm³ given the in-plane pixel
// spacing of the first labeled slice.
func (v *Viewer) Volume() float64 {
	count := 0
	spacing := [2]float64{1, 1}
	found := false
	for _, s := range v.slices {
		if s == nil {
			continue
		}
		if !found {
			spacing = s.Geometry.Spacing
			found = true
		}
		count += s.CountNonZero()
	}
	return float64(count) * spacing[0] * spacing[1] * v.sliceGap
}

// SaveSliceSequence renders every plane along axis into outputDir.
func (v *Viewer) SaveSliceSequence(axis string, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	var maxPos int
	switch axis {
	case "x", "X":
		maxPos = v.width
	case "y", "Y":
		maxPos = v.height
	case "z", "Z":
		maxPos = v.depth
	default:
		return fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	for pos := 0; pos < maxPos; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.png", axis, pos))
		if err := SavePNG(img, filename); err != nil {
			return err
		}
	}

	return nil
}
