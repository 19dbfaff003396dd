package interpolation

import (
	"errors"
	"math"
	"testing"

	"segtools/pkg/raster"
)

// createDisk returns a size x size label holding a disk of radius r around
// (cx, cy)
func createDisk(size int, cx, cy, r float64) *raster.Label {
	label := raster.NewLabel(size, size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if math.Hypot(float64(x)-cx, float64(y)-cy) <= r {
				label.Set(x, y, 1)
			}
		}
	}
	return label
}

func equalLabels(a, b *raster.Label) bool {
	if !raster.SameSize(a, b) {
		return false
	}
	for i := range a.Pix {
		if (a.Pix[i] != 0) != (b.Pix[i] != 0) {
			return false
		}
	}
	return true
}

// TestSignedDistance verifies signs and distances on a small square
func TestSignedDistance(t *testing.T) {
	label := raster.NewLabel(9, 9)
	for y := 2; y < 7; y++ {
		for x := 2; x < 7; x++ {
			label.Set(x, y, 1)
		}
	}

	d := SignedDistance(label)
	testCases := []struct {
		x, y     int
		expected float64
	}{
		{4, 4, 2.5},  // center, three pixels from the background
		{2, 4, 0.5},  // edge pixel
		{1, 4, -0.5}, // just outside
		{0, 0, -(math.Sqrt(8) - 0.5)},
	}
	for _, tc := range testCases {
		if got := d.At(tc.y, tc.x); math.Abs(got-tc.expected) > 1e-9 {
			t.Errorf("Distance at (%d,%d): expected %f, got %f", tc.x, tc.y, tc.expected, got)
		}
	}

	// An empty label has no foreground to measure against
	empty := SignedDistance(raster.NewLabel(4, 3))
	if got := empty.At(1, 1); got != -(7 - 0.5) {
		t.Errorf("Expected capped distance -6.5, got %f", got)
	}
}

// TestMorphEndpoints verifies exactness at ratios 0 and 1
func TestMorphEndpoints(t *testing.T) {
	a := createDisk(32, 10, 10, 5)
	b := createDisk(32, 20, 18, 8)

	m0, err := Morph(a, b, 0)
	if err != nil {
		t.Fatalf("Morph failed: %v", err)
	}
	if !equalLabels(m0, a) {
		t.Errorf("Morph at 0 should reproduce the first mask")
	}

	m1, err := Morph(a, b, 1)
	if err != nil {
		t.Fatalf("Morph failed: %v", err)
	}
	if !equalLabels(m1, b) {
		t.Errorf("Morph at 1 should reproduce the second mask")
	}
}

// TestMorphSymmetry verifies Morph(a, b, r) == Morph(b, a, 1-r)
func TestMorphSymmetry(t *testing.T) {
	a := createDisk(40, 12, 14, 6)
	b := createDisk(40, 25, 22, 10)

	for _, r := range []float64{0.25, 0.5, 0.75} {
		ab, err := Morph(a, b, r)
		if err != nil {
			t.Fatalf("Morph failed: %v", err)
		}
		ba, err := Morph(b, a, 1-r)
		if err != nil {
			t.Fatalf("Morph failed: %v", err)
		}
		if !equalLabels(ab, ba) {
			t.Errorf("Morph is not symmetric at ratio %.2f", r)
		}
	}
}

// TestInterpolateNested verifies that the intermediate slice of two nested
// shapes lies between them
func TestInterpolateNested(t *testing.T) {
	small := createDisk(40, 20, 20, 5)
	large := createDisk(40, 20, 20, 15)
	large.Geometry = raster.Geometry{Origin: [2]float64{1, 2}, Spacing: [2]float64{0.5, 0.5}}

	mid, err := Interpolate(small, 0, large, 4, 2)
	if err != nil {
		t.Fatalf("Interpolate failed: %v", err)
	}

	for i := range mid.Pix {
		if small.Pix[i] != 0 && mid.Pix[i] == 0 {
			t.Fatalf("Pixel %d of the small shape is missing", i)
		}
		if mid.Pix[i] != 0 && large.Pix[i] == 0 {
			t.Fatalf("Pixel %d lies outside the large shape", i)
		}
	}

	n := mid.CountNonZero()
	if n <= small.CountNonZero() || n >= large.CountNonZero() {
		t.Errorf("Expected a strictly intermediate area, got %d", n)
	}

	// Radius 10 disk area is roughly 314 pixels
	if n < 280 || n > 350 {
		t.Errorf("Expected about 314 pixels, got %d", n)
	}

	if mid.Geometry != small.Geometry {
		t.Errorf("Result should keep the lower slice geometry")
	}
}

// TestInterpolateIdentical verifies that identical slices interpolate to
// themselves
func TestInterpolateIdentical(t *testing.T) {
	a := createDisk(24, 11, 12, 7)
	got, err := Interpolate(a, 0, a.Clone(), 10, 5)
	if err != nil {
		t.Fatalf("Interpolate failed: %v", err)
	}
	if !equalLabels(got, a) {
		t.Errorf("Interpolating identical masks should return the same mask")
	}
}

// TestInterpolateErrors verifies the rejected inputs
func TestInterpolateErrors(t *testing.T) {
	a := createDisk(16, 8, 8, 4)

	testCases := []struct {
		name    string
		lower   *raster.Label
		upper   *raster.Label
		li, ui  int
		req     int
		wantErr error
	}{
		{"lower endpoint", a, a, 0, 10, 0, ErrDegenerateInterpolationRatio},
		{"upper endpoint", a, a, 0, 10, 10, ErrDegenerateInterpolationRatio},
		{"outside", a, a, 0, 10, 12, ErrDegenerateInterpolationRatio},
		{"same index", a, a, 3, 3, 3, ErrDegenerateInterpolationRatio},
		{"nil slice", nil, a, 0, 10, 5, raster.ErrDimensionMismatch},
		{"size mismatch", a, raster.NewLabel(8, 8), 0, 10, 5, raster.ErrDimensionMismatch},
	}

	for _, tc := range testCases {
		got, err := Interpolate(tc.lower, tc.li, tc.upper, tc.ui, tc.req)
		if !errors.Is(err, tc.wantErr) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.wantErr, err)
		}
		if got != nil {
			t.Errorf("%s: expected no result", tc.name)
		}
	}
}

// BenchmarkMorph measures a 256x256 blend
func BenchmarkMorph(b *testing.B) {
	lower := createDisk(256, 100, 100, 40)
	upper := createDisk(256, 150, 140, 70)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Morph(lower, upper, 0.5); err != nil {
			b.Fatal(err)
		}
	}
}
