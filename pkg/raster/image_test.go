package raster

import (
	"errors"
	"testing"
)

// TestNewImage verifies allocation and row-major addressing
func TestNewImage(t *testing.T) {
	im := NewLabel(5, 3)

	if im.Len() != 15 || len(im.Pix) != 15 {
		t.Fatalf("Expected 15 pixels, got Len=%d len(Pix)=%d", im.Len(), len(im.Pix))
	}

	im.Set(4, 2, 7)
	if im.Pix[2*5+4] != 7 {
		t.Errorf("Set(4,2) did not write offset 14")
	}

	x, y := im.XY(im.Offset(3, 1))
	if x != 3 || y != 1 {
		t.Errorf("XY(Offset(3,1)) = (%d,%d)", x, y)
	}

	if im.Geometry.Spacing != [2]float64{1, 1} {
		t.Errorf("Expected unit spacing, got %v", im.Geometry.Spacing)
	}
}

// TestValueOutside verifies that pixels outside the image read as background
func TestValueOutside(t *testing.T) {
	im := NewLabel(2, 2)
	im.Fill(1)

	cases := [][2]int{{-1, 0}, {0, -1}, {2, 0}, {0, 2}}
	for _, c := range cases {
		if v := im.Value(c[0], c[1]); v != 0 {
			t.Errorf("Value(%d,%d) = %d, expected 0", c[0], c[1], v)
		}
	}

	if im.Value(1, 1) != 1 {
		t.Errorf("Value(1,1) should be 1")
	}
}

// TestAtPanicsOutside verifies the bounds assertion on checked access
func TestAtPanicsOutside(t *testing.T) {
	im := NewLabel(2, 2)
	defer func() {
		if recover() == nil {
			t.Errorf("At outside the image should panic")
		}
	}()
	im.At(2, 0)
}

// TestCloneAndResize verifies that clones are independent and Resize zeroes
func TestCloneAndResize(t *testing.T) {
	im := NewLabel(3, 3)
	im.Fill(2)

	c := im.Clone()
	c.Set(0, 0, 9)
	if im.At(0, 0) != 2 {
		t.Errorf("Clone shares its buffer with the original")
	}

	c.Resize(3, 3)
	if c.CountNonZero() != 0 {
		t.Errorf("Resize to the same size should zero the buffer")
	}

	c.Resize(4, 2)
	if c.Width != 4 || c.Height != 2 || len(c.Pix) != 8 {
		t.Errorf("Resize(4,2) produced %dx%d with %d samples", c.Width, c.Height, len(c.Pix))
	}

	if err := c.CopyFrom(im); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("CopyFrom between sizes should fail with ErrDimensionMismatch, got %v", err)
	}
}

// TestFromSlice verifies wrapping of existing buffers
func TestFromSlice(t *testing.T) {
	if _, err := FromSlice(2, 2, []float32{1, 2, 3}); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Expected ErrDimensionMismatch for short buffer, got %v", err)
	}

	im, err := FromSlice(2, 2, []int16{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	if im.At(1, 1) != 4 {
		t.Errorf("Expected 4 at (1,1), got %d", im.At(1, 1))
	}
}

// TestNeighbors verifies neighbourhood offsets at the image border
func TestNeighbors(t *testing.T) {
	im := NewLabel(3, 3)

	n4 := im.Neighbors4(0)
	expected := [4]int{-1, 1, 3, -1}
	if n4 != expected {
		t.Errorf("Neighbors4(0) = %v, expected %v", n4, expected)
	}

	n8 := im.Neighbors8(4)
	for i, ofs := range n8 {
		if ofs < 0 {
			t.Errorf("Center pixel neighbour %d should be inside", i)
		}
	}

	n8 = im.Neighbors8(8)
	inside := 0
	for _, ofs := range n8 {
		if ofs >= 0 {
			inside++
		}
	}
	if inside != 3 {
		t.Errorf("Corner pixel should have 3 neighbours, got %d", inside)
	}
}

// TestCoordinateConversion verifies the corner/center conventions
func TestCoordinateConversion(t *testing.T) {
	p := Point{X: 3, Y: 4}

	c := CenterToCorner(p)
	if c.X != 3.5 || c.Y != 4.5 {
		t.Errorf("CenterToCorner(%v) = %v", p, c)
	}

	if back := CornerToCenter(c); back != p {
		t.Errorf("CornerToCenter(CenterToCorner(p)) = %v, expected %v", back, p)
	}

	if PixelCenter(3, 4) != c {
		t.Errorf("PixelCenter(3,4) should equal the corner-space center")
	}

	x, y := Point{X: 2.49, Y: -0.2}.Pixel()
	if x != 2 || y != 0 {
		t.Errorf("Pixel() = (%d,%d), expected (2,0)", x, y)
	}
}

// TestSnapping verifies pixel snapping without int conversion and the first
// pixel center at or after a corner-space coordinate
func TestSnapping(t *testing.T) {
	if q := (Point{X: 2e9 + 0.2, Y: -3.6}).Snapped(); q.X != 2e9 || q.Y != -4 {
		t.Errorf("Snapped() = %v", q)
	}

	testCases := []struct {
		c        float64
		expected int
	}{
		{2.5, 2},
		{2.6, 3},
		{0, 0},
		{-0.7, -1},
		{10.5, 10},
	}
	for _, tc := range testCases {
		if got := FirstCenterAtOrAfter(tc.c); got != tc.expected {
			t.Errorf("FirstCenterAtOrAfter(%g) = %d, expected %d", tc.c, got, tc.expected)
		}
	}
}
