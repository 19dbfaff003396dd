// Package visualization converts label, history and contour data to images,
// reads slices from image files and writes them back as PNG.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"math"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"segtools/pkg/contour"
	"segtools/pkg/raster"
)

// Overlay colors
var (
	ContourColor = color.RGBA{R: 255, G: 64, B: 64, A: 255}
	CutColor     = color.RGBA{R: 64, G: 160, B: 255, A: 255}
	LabelColor   = color.RGBA{R: 64, G: 200, B: 64, A: 255}
)

// LabelToImage renders a label as black background and white foreground.
func LabelToImage(label *raster.Label) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, label.Width, label.Height))
	for i, v := range label.Pix {
		if v != 0 {
			img.Pix[i] = 255
		}
	}
	return img
}

// HistoryToImage renders a growth history with the earliest wave brightest.
// Unvisited pixels are black.
func HistoryToImage(hist *raster.History) *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, hist.Width, hist.Height))

	var maxStamp uint16
	for _, v := range hist.Pix {
		maxStamp = max(maxStamp, v)
	}
	if maxStamp == 0 {
		return img
	}

	for i, v := range hist.Pix {
		if v == 0 {
			continue
		}
		value := 65535 - uint16(math.Round(float64(v-1)/float64(maxStamp)*60000))
		x, y := hist.XY(i)
		img.SetGray16(x, y, color.Gray16{Y: value})
	}
	return img
}

// Overlay draws a label tinted over its gray rendering and the contours on
// top. Contours are in corner space; every vertex marks the pixel whose
// top-left corner it is, clipped to the image.
func Overlay(label *raster.Label, contours ...contour.Contour) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, label.Width, label.Height))
	draw.Draw(img, img.Bounds(), image.Black, image.Point{}, draw.Src)

	for i, v := range label.Pix {
		if v != 0 {
			x, y := label.XY(i)
			img.SetRGBA(x, y, LabelColor)
		}
	}

	for k, c := range contours {
		col := ContourColor
		if k > 0 {
			col = CutColor
		}
		for _, p := range c {
			x := min(int(p.X), label.Width-1)
			y := min(int(p.Y), label.Height-1)
			if x >= 0 && y >= 0 {
				img.SetRGBA(x, y, col)
			}
		}
	}
	return img
}

// SavePNG writes img to filename.
func SavePNG(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("failed to encode %s: %w", filename, err)
	}
	return nil
}

// SaveLabel writes a label as a black and white PNG.
func SaveLabel(label *raster.Label, filename string) error {
	return SavePNG(LabelToImage(label), filename)
}

// loadImage decodes any registered format (PNG, JPEG, TIFF, BMP).
func loadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

// LoadIntensity reads an image file as 16-bit gray intensities.
func LoadIntensity(path string) (*raster.Image[uint16], error) {
	img, err := loadImage(path)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	out := raster.New[uint16](b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			g := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
			out.Pix[y*out.Width+x] = g.Y
		}
	}
	return out, nil
}

// LoadLabel reads an image file as a label: every pixel brighter than half
// intensity is foreground.
func LoadLabel(path string) (*raster.Label, error) {
	in, err := LoadIntensity(path)
	if err != nil {
		return nil, err
	}

	label := raster.NewLabel(in.Width, in.Height)
	for i, v := range in.Pix {
		if v >= 0x8000 {
			label.Pix[i] = 1
		}
	}
	return label, nil
}
