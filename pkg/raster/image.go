// Package raster provides the 2D pixel buffers every segmentation algorithm
// in this module operates on. Buffers are row-major and bounds-checked; the
// linear offset of pixel (x, y) is y*Width + x.
package raster

import (
	"errors"
	"fmt"

	"golang.org/x/exp/constraints"
)

var (
	// ErrInvalidSeed is returned when a seed offset lies outside the image or
	// on a pixel from which the requested operation is undefined.
	ErrInvalidSeed = errors.New("invalid seed")

	// ErrDimensionMismatch is returned when two buffers that must share the
	// same geometry do not.
	ErrDimensionMismatch = errors.New("dimension mismatch")
)

// Sample is the set of pixel types an Image can hold. Label images use uint8,
// history images uint16; intensity images may use any integer or float type.
type Sample interface {
	constraints.Integer | constraints.Float
}

// Geometry describes where a slice sits in world space. Algorithms never read
// it; it is carried along so results keep the geometry of their inputs.
type Geometry struct {
	Origin  [2]float64
	Spacing [2]float64
}

// DefaultGeometry returns a geometry with origin zero and unit spacing.
func DefaultGeometry() Geometry {
	return Geometry{Spacing: [2]float64{1, 1}}
}

// Image is a 2D raster of samples of type T.
type Image[T Sample] struct {
	// Width and Height are the dimensions in pixels
	Width  int
	Height int

	// Pix holds Width*Height samples in row-major order
	Pix []T

	// Geometry is the world placement of the slice
	Geometry Geometry
}

// Label is a binary or small-integer segmentation slice. Nonzero pixels are
// foreground.
type Label = Image[uint8]

// History records the breadth-first wave in which a flood fill reached each
// pixel: 0 means never visited, k means reached during wave k-1.
type History = Image[uint16]

// New allocates a zeroed image of the given size.
func New[T Sample](width, height int) *Image[T] {
	if width < 0 || height < 0 {
		panic(fmt.Sprintf("raster: negative dimensions %dx%d", width, height))
	}
	return &Image[T]{
		Width:    width,
		Height:   height,
		Pix:      make([]T, width*height),
		Geometry: DefaultGeometry(),
	}
}

// NewLabel allocates a zeroed label image.
func NewLabel(width, height int) *Label {
	return New[uint8](width, height)
}

// NewHistory allocates a zeroed history image.
func NewHistory(width, height int) *History {
	return New[uint16](width, height)
}

// FromSlice wraps pix as an image. The slice is used directly, not copied.
func FromSlice[T Sample](width, height int, pix []T) (*Image[T], error) {
	if len(pix) != width*height {
		return nil, fmt.Errorf("buffer of %d samples for %dx%d image: %w", len(pix), width, height, ErrDimensionMismatch)
	}
	return &Image[T]{Width: width, Height: height, Pix: pix, Geometry: DefaultGeometry()}, nil
}

// Len returns the number of pixels.
func (im *Image[T]) Len() int {
	return im.Width * im.Height
}

// Contains reports whether (x, y) lies inside the image.
func (im *Image[T]) Contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < im.Width && y < im.Height
}

// ValidOffset reports whether ofs addresses a pixel of the image.
func (im *Image[T]) ValidOffset(ofs int) bool {
	return ofs >= 0 && ofs < im.Width*im.Height
}

// Offset returns the linear offset of (x, y). It does not check bounds.
func (im *Image[T]) Offset(x, y int) int {
	return y*im.Width + x
}

// XY splits a linear offset into its coordinates.
func (im *Image[T]) XY(ofs int) (int, int) {
	return ofs % im.Width, ofs / im.Width
}

// At returns the sample at (x, y) and panics when the pixel is outside the
// image.
func (im *Image[T]) At(x, y int) T {
	if !im.Contains(x, y) {
		panic(fmt.Sprintf("raster: pixel (%d,%d) outside %dx%d image", x, y, im.Width, im.Height))
	}
	return im.Pix[y*im.Width+x]
}

// Value returns the sample at (x, y), or zero when the pixel is outside the
// image. Outside pixels therefore read as background.
func (im *Image[T]) Value(x, y int) T {
	if !im.Contains(x, y) {
		var zero T
		return zero
	}
	return im.Pix[y*im.Width+x]
}

// Set stores v at (x, y) and panics when the pixel is outside the image.
func (im *Image[T]) Set(x, y int, v T) {
	if !im.Contains(x, y) {
		panic(fmt.Sprintf("raster: pixel (%d,%d) outside %dx%d image", x, y, im.Width, im.Height))
	}
	im.Pix[y*im.Width+x] = v
}

// AtOffset returns the sample at a linear offset.
func (im *Image[T]) AtOffset(ofs int) T {
	if !im.ValidOffset(ofs) {
		panic(fmt.Sprintf("raster: offset %d outside %dx%d image", ofs, im.Width, im.Height))
	}
	return im.Pix[ofs]
}

// SetOffset stores v at a linear offset.
func (im *Image[T]) SetOffset(ofs int, v T) {
	if !im.ValidOffset(ofs) {
		panic(fmt.Sprintf("raster: offset %d outside %dx%d image", ofs, im.Width, im.Height))
	}
	im.Pix[ofs] = v
}

// Fill sets every pixel to v.
func (im *Image[T]) Fill(v T) {
	for i := range im.Pix {
		im.Pix[i] = v
	}
}

// Clone returns a deep copy of the image.
func (im *Image[T]) Clone() *Image[T] {
	pix := make([]T, len(im.Pix))
	copy(pix, im.Pix)
	return &Image[T]{Width: im.Width, Height: im.Height, Pix: pix, Geometry: im.Geometry}
}

// CopyFrom overwrites the pixels of im with those of src.
func (im *Image[T]) CopyFrom(src *Image[T]) error {
	if im.Width != src.Width || im.Height != src.Height {
		return fmt.Errorf("copy %dx%d into %dx%d: %w", src.Width, src.Height, im.Width, im.Height, ErrDimensionMismatch)
	}
	copy(im.Pix, src.Pix)
	return nil
}

// Resize reallocates the buffer when the dimensions differ and leaves it
// zeroed either way.
func (im *Image[T]) Resize(width, height int) {
	if im.Width != width || im.Height != height || len(im.Pix) != width*height {
		im.Width = width
		im.Height = height
		im.Pix = make([]T, width*height)
		return
	}
	var zero T
	im.Fill(zero)
}

// CountNonZero returns the number of nonzero pixels.
func (im *Image[T]) CountNonZero() int {
	n := 0
	for _, v := range im.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// SameSize reports whether two images of possibly different sample types have
// identical dimensions.
func SameSize[A, B Sample](a *Image[A], b *Image[B]) bool {
	return a.Width == b.Width && a.Height == b.Height
}
