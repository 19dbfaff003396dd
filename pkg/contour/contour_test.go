package contour

import (
	"errors"
	"sort"
	"testing"

	"segtools/pkg/raster"
)

// createRect returns a label image with a filled rectangle
func createRect(width, height, x0, y0, w, h int) *raster.Label {
	label := raster.NewLabel(width, height)
	for y := y0; y < y0+h; y++ {
		for x := x0; x < x0+w; x++ {
			label.Set(x, y, 1)
		}
	}
	return label
}

// countEnclosed counts the pixels whose centers lie inside c
func countEnclosed(c Contour, width, height int) int {
	n := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if c.ContainsPixel(x, y) {
				n++
			}
		}
	}
	return n
}

// TestTraceRectangles verifies vertex counts and enclosed areas for rectangles
func TestTraceRectangles(t *testing.T) {
	sizes := [][2]int{{1, 1}, {1, 5}, {5, 1}, {3, 4}, {10, 10}}

	for _, s := range sizes {
		w, h := s[0], s[1]
		label := createRect(16, 16, 2, 3, w, h)

		for _, conn := range []Connectivity{FourConnected, EightConnected} {
			c, err := Trace(label, label.Offset(2, 3), conn)
			if err != nil {
				t.Fatalf("%dx%d %v: Trace failed: %v", w, h, conn, err)
			}

			if len(c) != 2*w+2*h {
				t.Errorf("%dx%d %v: expected %d vertices, got %d", w, h, conn, 2*w+2*h, len(c))
			}

			if n := countEnclosed(c, 16, 16); n != w*h {
				t.Errorf("%dx%d %v: contour encloses %d pixels, expected %d", w, h, conn, n, w*h)
			}

			if c.Area() != float64(w*h) {
				t.Errorf("%dx%d %v: area %f, expected %d", w, h, conn, c.Area(), w*h)
			}
		}
	}
}

// TestTraceFromInterior verifies the rightward search for a boundary pixel
func TestTraceFromInterior(t *testing.T) {
	label := createRect(12, 12, 0, 0, 12, 12)

	c, err := Trace(label, label.Offset(4, 6), FourConnected)
	if err != nil {
		t.Fatalf("Trace failed: %v", err)
	}
	if len(c) != 48 {
		t.Errorf("Expected 48 vertices for the whole image, got %d", len(c))
	}

	// The walk starts at the lower right corner of the start row's last pixel
	if c[0] != (raster.Point{X: 12, Y: 7}) {
		t.Errorf("Expected first vertex (12,7), got %v", c[0])
	}
}

// TestTraceDiagonalConnectivity verifies that only 8N tracing joins diagonal
// pixels
func TestTraceDiagonalConnectivity(t *testing.T) {
	label := raster.NewLabel(6, 6)
	label.Set(2, 2, 1)
	label.Set(3, 3, 1)

	c4, err := Trace(label, label.Offset(2, 2), FourConnected)
	if err != nil {
		t.Fatalf("4N trace failed: %v", err)
	}
	if len(c4) != 4 {
		t.Errorf("4N should trace a single pixel, got %d vertices", len(c4))
	}

	c8, err := Trace(label, label.Offset(2, 2), EightConnected)
	if err != nil {
		t.Fatalf("8N trace failed: %v", err)
	}
	if len(c8) != 8 {
		t.Errorf("8N should trace both pixels (8 vertices), got %d", len(c8))
	}

	// The shared corner is visited twice
	shared := 0
	for _, p := range c8 {
		if p == (raster.Point{X: 3, Y: 3}) {
			shared++
		}
	}
	if shared != 2 {
		t.Errorf("Expected the pinch corner twice, found it %d times", shared)
	}
}

// TestTraceInvalidStart verifies the empty-contour error
func TestTraceInvalidStart(t *testing.T) {
	label := raster.NewLabel(3, 3)
	c, err := Trace(label, 42, FourConnected)
	if !errors.Is(err, ErrEmptyContour) || len(c) != 0 {
		t.Errorf("Expected empty contour and ErrEmptyContour, got %v, %v", c, err)
	}
}

// TestFirstNonZero verifies the raster-order scan
func TestFirstNonZero(t *testing.T) {
	label := raster.NewLabel(4, 4)
	if _, ok := FirstNonZero(label); ok {
		t.Errorf("Empty image should have no foreground pixel")
	}
	label.Set(3, 2, 1)
	label.Set(1, 3, 1)
	if ofs, ok := FirstNonZero(label); !ok || ofs != label.Offset(3, 2) {
		t.Errorf("Expected offset %d, got %d (%v)", label.Offset(3, 2), ofs, ok)
	}
}

// TestPointInPolygon verifies the parity rule on a unit square
func TestPointInPolygon(t *testing.T) {
	square := []raster.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}

	if !PointInPolygon(square, 0.5, 0.5) {
		t.Errorf("(0.5,0.5) should be inside")
	}
	if PointInPolygon(square, 1.5, 0.5) {
		t.Errorf("(1.5,0.5) should be outside")
	}

	// Edge points are resolved the same way every time
	edge := []raster.Point{{X: 0, Y: 0.5}, {X: 1, Y: 0.5}, {X: 0.5, Y: 0}, {X: 0.5, Y: 1}, {X: 0, Y: 0}}
	for _, p := range edge {
		first := PointInPolygon(square, p.X, p.Y)
		for i := 0; i < 10; i++ {
			if PointInPolygon(square, p.X, p.Y) != first {
				t.Errorf("Result for %v is not deterministic", p)
			}
		}
	}

	// Half-open rule: left and top edges are inside, right and bottom are not
	if !PointInPolygon(square, 0, 0.5) || PointInPolygon(square, 1, 0.5) {
		t.Errorf("Unexpected classification of vertical edges")
	}
	if !PointInPolygon(square, 0.5, 0) || PointInPolygon(square, 0.5, 1) {
		t.Errorf("Unexpected classification of horizontal edges")
	}

	// A repeated closing vertex does not change the answer
	closed := Contour(square).Closed()
	if !PointInPolygon(closed, 0.5, 0.5) || PointInPolygon(closed, 1.5, 0.5) {
		t.Errorf("Closed ring classification differs")
	}
}

// sortedPoints returns the points ordered for multiset comparison
func sortedPoints(c Contour) []raster.Point {
	out := append([]raster.Point(nil), c...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}

// TestSplitAndJoin verifies that splitting and rejoining restores the ring
func TestSplitAndJoin(t *testing.T) {
	label := createRect(10, 10, 1, 1, 6, 4)
	c, err := Trace(label, label.Offset(1, 1), FourConnected)
	if err != nil {
		t.Fatalf("Trace failed: %v", err)
	}

	a := raster.Point{X: 4, Y: 1}
	b := raster.Point{X: 4, Y: 5}

	for _, order := range [][2]raster.Point{{a, b}, {b, a}} {
		p1, p2, err := Split(c, order[0], order[1])
		if err != nil {
			t.Fatalf("Split failed: %v", err)
		}

		if len(p1)+len(p2) != len(c)+2 {
			t.Errorf("Parts should share the two cut points: %d + %d vs %d", len(p1), len(p2), len(c))
		}

		if p1.Area()+p2.Area() != c.Area() {
			t.Errorf("Part areas %f + %f do not add up to %f", p1.Area(), p2.Area(), c.Area())
		}

		joined, err := Join(p1, p2)
		if err != nil {
			t.Fatalf("Join failed: %v", err)
		}
		got, want := sortedPoints(joined), sortedPoints(c)
		if len(got) != len(want) {
			t.Fatalf("Joined ring has %d vertices, expected %d", len(got), len(want))
		}
		for i := range got {
			if got[i] != want[i] {
				t.Errorf("Joined ring differs at %d: %v vs %v", i, got[i], want[i])
			}
		}
	}
}

// TestSplitMissingPoint verifies that absent cut points fail instead of looping
func TestSplitMissingPoint(t *testing.T) {
	c := Contour{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}

	_, _, err := Split(c, raster.Point{X: 0, Y: 0}, raster.Point{X: 0.5, Y: 0.5})
	if !errors.Is(err, ErrCutPointNotFound) {
		t.Errorf("Expected ErrCutPointNotFound, got %v", err)
	}
}

// BenchmarkTrace measures tracing a large disk
func BenchmarkTrace(b *testing.B) {
	size := 512
	label := raster.NewLabel(size, size)
	r := size / 3
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := x-size/2, y-size/2
			if dx*dx+dy*dy < r*r {
				label.Set(x, y, 1)
			}
		}
	}
	start, _ := FirstNonZero(label)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Trace(label, start, EightConnected); err != nil {
			b.Fatal(err)
		}
	}
}
