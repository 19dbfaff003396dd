// Package contour extracts region boundaries from label images as closed
// polygons and provides the polygon queries the editing algorithms need.
//
// All contours are in corner space (see raster.Point): vertices sit on pixel
// corners, so every coordinate is an exact integer and can be compared with ==.
package contour

import (
	"errors"
	"fmt"

	"segtools/pkg/raster"
)

var (
	// ErrEmptyContour is returned when no boundary could be traced.
	ErrEmptyContour = errors.New("empty contour")

	// ErrCutPointNotFound is returned when a contour is split at a point
	// that is not one of its vertices.
	ErrCutPointNotFound = errors.New("cut point not found in contour")
)

// Connectivity selects which pixels count as neighbours while tracing.
type Connectivity int

const (
	// FourConnected joins pixels sharing an edge
	FourConnected Connectivity = iota

	// EightConnected also joins pixels sharing only a corner
	EightConnected
)

func (c Connectivity) String() string {
	if c == EightConnected {
		return "8N"
	}
	return "4N"
}

// Contour is a closed ring of corner-space vertices. The last vertex connects
// back to the first; the first vertex is not repeated.
type Contour []raster.Point

// Closed returns a copy of the ring with the first vertex repeated at the end.
func (c Contour) Closed() []raster.Point {
	if len(c) == 0 {
		return nil
	}
	out := make([]raster.Point, len(c)+1)
	copy(out, c)
	out[len(c)] = c[0]
	return out
}

// IndexOf returns the index of the first vertex equal to p, or -1.
func (c Contour) IndexOf(p raster.Point) int {
	for i, q := range c {
		if q == p {
			return i
		}
	}
	return -1
}

// ToCenter returns the contour converted to center space.
func (c Contour) ToCenter() []raster.Point {
	out := make([]raster.Point, len(c))
	for i, p := range c {
		out[i] = raster.CornerToCenter(p)
	}
	return out
}

// Crack directions in image coordinates (y grows downwards). Turning right
// is +1, turning left is +3 (mod 4).
const (
	east = iota
	south
	west
	north
)

var step = [4][2]int{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}

// ahead lists, per direction, the pixel offsets relative to the current
// corner of the pixel in front on the left and the pixel in front on the
// right.
var ahead = [4][2][2]int{
	east:  {{0, -1}, {0, 0}},
	south: {{0, 0}, {-1, 0}},
	west:  {{-1, 0}, {-1, -1}},
	north: {{-1, -1}, {0, -1}},
}

// FindStart moves right from start along its row while the next pixel has the
// same value, returning the last such pixel. Its right edge is a boundary of
// the region containing start.
func FindStart(label *raster.Label, start int) int {
	x, y := label.XY(start)
	v := label.Pix[start]
	for x+1 < label.Width && label.Pix[y*label.Width+x+1] == v {
		x++
	}
	return y*label.Width + x
}

// FirstNonZero returns the first foreground pixel in raster order.
func FirstNonZero(label *raster.Label) (int, bool) {
	for ofs, v := range label.Pix {
		if v != 0 {
			return ofs, true
		}
	}
	return -1, false
}

// Trace follows the boundary of the region of pixels that share the value at
// start, keeping the region on the left of the walk. If start is not on a
// boundary the search first moves right along the row. Every boundary edge
// contributes one vertex, so a w x h rectangle yields 2w+2h vertices.
//
// Holes are not discovered: each disjoint boundary needs its own start.
func Trace(label *raster.Label, start int, conn Connectivity) (Contour, error) {
	if label == nil || !label.ValidOffset(start) {
		return nil, fmt.Errorf("start offset %d: %w", start, ErrEmptyContour)
	}

	start = FindStart(label, start)
	v := label.Pix[start]
	inside := func(x, y int) bool {
		return label.Contains(x, y) && label.Pix[y*label.Width+x] == v
	}

	sx, sy := label.XY(start)
	// Walk north along the right edge of the start pixel.
	x0, y0 := sx+1, sy+1
	cx, cy, dir := x0, y0, north

	maxSteps := 4*label.Len() + 4
	points := make(Contour, 0, 64)
	for steps := 0; ; steps++ {
		if steps > maxSteps {
			return nil, fmt.Errorf("boundary walk from offset %d did not close: %w", start, ErrEmptyContour)
		}

		points = append(points, raster.Point{X: float64(cx), Y: float64(cy)})
		cx += step[dir][0]
		cy += step[dir][1]
		dir = turn(inside, cx, cy, dir, conn)

		if cx == x0 && cy == y0 && dir == north {
			break
		}
	}

	return points, nil
}

// turn applies the crack-following turn table at corner (cx, cy).
func turn(inside func(x, y int) bool, cx, cy, dir int, conn Connectivity) int {
	fl := ahead[dir][0]
	fr := ahead[dir][1]
	left := inside(cx+fl[0], cy+fl[1])
	right := inside(cx+fr[0], cy+fr[1])

	switch {
	case left && right:
		return (dir + 1) % 4
	case left:
		return dir
	case right && conn == EightConnected:
		// diagonal neighbour joins the region
		return (dir + 1) % 4
	default:
		return (dir + 3) % 4
	}
}
