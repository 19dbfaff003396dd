package contour

import (
	"fmt"

	"segtools/pkg/raster"
)

// PointInPolygon reports whether (x, y) lies inside the closed polygon c using
// the crossing-parity rule. An edge counts as crossing the ray when y lies in
// the half-open interval between its end points, so vertices shared by two
// edges are never counted twice and points on edges get a stable answer.
// A repeated closing vertex is harmless.
func PointInPolygon(c []raster.Point, x, y float64) bool {
	in := false
	n := len(c)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := c[i], c[j]
		if (pi.Y > y) != (pj.Y > y) && x < (pj.X-pi.X)*(y-pi.Y)/(pj.Y-pi.Y)+pi.X {
			in = !in
		}
	}
	return in
}

// ContainsPixel reports whether the center of pixel (px, py) lies inside c.
func (c Contour) ContainsPixel(px, py int) bool {
	p := raster.PixelCenter(px, py)
	return PointInPolygon(c, p.X, p.Y)
}

// Split cuts the ring at the first occurrences of a and b. The first part
// runs from the start of the ring to the earlier cut point and resumes at the
// later one; the second part is the stretch between the cut points. Both
// parts keep the two cut points, so each closes along the cut.
func Split(c Contour, a, b raster.Point) (Contour, Contour, error) {
	i1, i2 := -1, -1
	for i, p := range c {
		if i1 < 0 && p == a {
			i1 = i
		}
		if i2 < 0 && p == b {
			i2 = i
		}
		if i1 >= 0 && i2 >= 0 {
			break
		}
	}
	if i1 < 0 {
		return nil, nil, fmt.Errorf("point (%g,%g): %w", a.X, a.Y, ErrCutPointNotFound)
	}
	if i2 < 0 {
		return nil, nil, fmt.Errorf("point (%g,%g): %w", b.X, b.Y, ErrCutPointNotFound)
	}
	if i1 > i2 {
		i1, i2 = i2, i1
	}

	part1 := make(Contour, 0, i1+1+len(c)-i2)
	part1 = append(part1, c[:i1+1]...)
	part1 = append(part1, c[i2:]...)

	part2 := make(Contour, i2-i1+1)
	copy(part2, c[i1:i2+1])

	return part1, part2, nil
}

// Join undoes Split: it reinserts the second part between the cut points of
// the first, dropping the duplicated cut vertices.
func Join(part1, part2 Contour) (Contour, error) {
	if len(part2) < 1 {
		return append(Contour(nil), part1...), nil
	}
	a, b := part2[0], part2[len(part2)-1]
	i := part1.IndexOf(a)
	if i < 0 {
		return nil, fmt.Errorf("point (%g,%g): %w", a.X, a.Y, ErrCutPointNotFound)
	}
	if i+1 >= len(part1) || part1[i+1] != b {
		return nil, fmt.Errorf("point (%g,%g) does not follow the first cut point: %w", b.X, b.Y, ErrCutPointNotFound)
	}

	out := make(Contour, 0, len(part1)+len(part2)-2)
	out = append(out, part1[:i]...)
	out = append(out, part2...)
	out = append(out, part1[i+2:]...)
	return out, nil
}

// Area returns the absolute area enclosed by the ring (shoelace formula).
func (c Contour) Area() float64 {
	sum := 0.0
	n := len(c)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		sum += c[j].X*c[i].Y - c[i].X*c[j].Y
	}
	if sum < 0 {
		sum = -sum
	}
	return sum / 2
}
