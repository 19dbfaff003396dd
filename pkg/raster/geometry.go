package raster

import "math"

// Point is a 2D position in either corner space or center space.
//
// Corner space is used by every raster algorithm in this module: pixel (x, y)
// covers the square [x, x+1) × [y, y+1), so contour vertices fall on integer
// coordinates. Center space is the index space callers use, where pixel
// centers sit on integer coordinates.
type Point struct {
	X, Y float64
}

// centerShift is the distance between the two coordinate conventions.
const centerShift = 0.5

// CenterToCorner converts a center-space point to corner space.
func CenterToCorner(p Point) Point {
	return Point{X: p.X + centerShift, Y: p.Y + centerShift}
}

// CornerToCenter converts a corner-space point to center space.
func CornerToCenter(p Point) Point {
	return Point{X: p.X - centerShift, Y: p.Y - centerShift}
}

// PixelCenter returns the corner-space center of pixel (x, y).
func PixelCenter(x, y int) Point {
	return CenterToCorner(Point{X: float64(x), Y: float64(y)})
}

// Dist returns the Euclidean distance between two points.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Pixel returns the pixel a center-space point falls into.
func (p Point) Pixel() (int, int) {
	q := p.Snapped()
	return int(q.X), int(q.Y)
}

// Snapped returns the center-space coordinates of the pixel p falls into,
// without converting to int.
func (p Point) Snapped() Point {
	return Point{X: math.Floor(p.X + centerShift), Y: math.Floor(p.Y + centerShift)}
}

// FirstCenterAtOrAfter returns the smallest pixel index along one axis whose
// corner-space center is at or after c.
func FirstCenterAtOrAfter(c float64) int {
	x := int(math.Ceil(c - centerShift))
	for float64(x)+centerShift < c {
		x++
	}
	return x
}

// Neighbors4 returns the offsets of the north, east, south and west
// neighbours of ofs; neighbours outside the image are -1.
func (im *Image[T]) Neighbors4(ofs int) [4]int {
	x, y := im.XY(ofs)
	n := [4]int{-1, -1, -1, -1}
	if y > 0 {
		n[0] = ofs - im.Width
	}
	if x+1 < im.Width {
		n[1] = ofs + 1
	}
	if y+1 < im.Height {
		n[2] = ofs + im.Width
	}
	if x > 0 {
		n[3] = ofs - 1
	}
	return n
}

// Neighbors8 returns the offsets of the eight neighbours of ofs, clockwise
// starting north; neighbours outside the image are -1.
func (im *Image[T]) Neighbors8(ofs int) [8]int {
	x, y := im.XY(ofs)
	n := [8]int{}
	for i, d := range ring8 {
		nx, ny := x+d[0], y+d[1]
		if im.Contains(nx, ny) {
			n[i] = ny*im.Width + nx
		} else {
			n[i] = -1
		}
	}
	return n
}

var ring8 = [8][2]int{{0, -1}, {1, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}}
