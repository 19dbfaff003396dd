package regionops

import (
	"errors"
	"testing"

	"segtools/pkg/contour"
	"segtools/pkg/raster"
	"segtools/pkg/undo"
)

// countingSnapshotter records how often it was asked to save
type countingSnapshotter struct {
	calls int
}

func (c *countingSnapshotter) Save(label *raster.Label) {
	c.calls++
}

// TestReplaceRegion4N verifies the flood fill relabel
func TestReplaceRegion4N(t *testing.T) {
	label := raster.NewLabel(6, 6)
	// Two regions of value 1 touching only diagonally
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			label.Set(x, y, 1)
			label.Set(x+3, y+3, 1)
		}
	}

	snap := &countingSnapshotter{}
	n, err := ReplaceRegion4N(label, label.Offset(1, 1), 5, snap)
	if err != nil {
		t.Fatalf("ReplaceRegion4N failed: %v", err)
	}
	if n != 9 {
		t.Errorf("Expected 9 pixels changed, got %d", n)
	}
	if label.At(4, 4) != 1 {
		t.Errorf("Diagonal region must not be relabeled")
	}
	if snap.calls != 1 {
		t.Errorf("Expected one snapshot, got %d", snap.calls)
	}

	// Same value: nothing to do
	n, err = ReplaceRegion4N(label, label.Offset(1, 1), 5, snap)
	if err != nil || n != 0 {
		t.Errorf("Relabeling with the current value should change nothing, got %d, %v", n, err)
	}
	if snap.calls != 1 {
		t.Errorf("No-op must not take a snapshot")
	}

	if _, err := ReplaceRegion4N(label, -3, 1, nil); !errors.Is(err, raster.ErrInvalidSeed) {
		t.Errorf("Expected ErrInvalidSeed, got %v", err)
	}
}

// TestCombineRegionOps verifies the four pixel operations
func TestCombineRegionOps(t *testing.T) {
	square := []raster.Point{{X: 2, Y: 2}, {X: 6, Y: 2}, {X: 6, Y: 6}, {X: 2, Y: 6}}

	testCases := []struct {
		op       Op
		initial  uint8
		value    uint8
		expected uint8
	}{
		{OpCopy, 3, 1, 1},
		{OpAnd, 3, 0, 0},
		{OpOr, 2, 1, 3},
		{OpXor, 3, 1, 2},
	}

	for _, tc := range testCases {
		label := raster.NewLabel(8, 8)
		label.Fill(tc.initial)

		n, err := CombineRegion(label, square, nil, tc.op, tc.value, nil)
		if err != nil {
			t.Fatalf("%v: CombineRegion failed: %v", tc.op, err)
		}
		if n != 16 {
			t.Errorf("%v: expected 16 pixels changed, got %d", tc.op, n)
		}
		if label.At(3, 3) != tc.expected {
			t.Errorf("%v: inside pixel is %d, expected %d", tc.op, label.At(3, 3), tc.expected)
		}
		if label.At(1, 3) != tc.initial || label.At(6, 3) != tc.initial {
			t.Errorf("%v: pixels outside the polygon were modified", tc.op)
		}
	}
}

// TestCombineRegionMatchesPointInPolygon verifies the scanline fill against
// the parity test on an irregular polygon
func TestCombineRegionMatchesPointInPolygon(t *testing.T) {
	polygon := []raster.Point{
		{X: 1.5, Y: 1.5}, {X: 14.5, Y: 3.5}, {X: 8.5, Y: 7.5},
		{X: 15.5, Y: 14.5}, {X: 2.5, Y: 12.5}, {X: 6.5, Y: 6.5},
	}
	label := raster.NewLabel(17, 17)

	if _, err := CombineRegion(label, polygon, nil, OpOr, 1, nil); err != nil {
		t.Fatalf("CombineRegion failed: %v", err)
	}

	for y := 0; y < 17; y++ {
		for x := 0; x < 17; x++ {
			p := raster.PixelCenter(x, y)
			inside := contour.PointInPolygon(polygon, p.X, p.Y)
			if inside != (label.At(x, y) == 1) {
				t.Errorf("Pixel (%d,%d): fill=%d, point-in-polygon=%v", x, y, label.At(x, y), inside)
			}
		}
	}
}

// TestCombineRegionMask verifies that writes are restricted to the mask
func TestCombineRegionMask(t *testing.T) {
	square := []raster.Point{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 4}, {X: 0, Y: 4}}
	label := raster.NewLabel(4, 4)
	mask := raster.NewLabel(4, 4)
	for x := 0; x < 4; x++ {
		mask.Set(x, 0, 1)
	}

	n, err := CombineRegion(label, square, mask, OpCopy, 7, nil)
	if err != nil {
		t.Fatalf("CombineRegion failed: %v", err)
	}
	if n != 4 || label.At(2, 0) != 7 || label.At(2, 1) != 0 {
		t.Errorf("Mask was not honored: changed=%d", n)
	}

	if _, err := CombineRegion(label, square, raster.NewLabel(3, 3), OpCopy, 1, nil); !errors.Is(err, raster.ErrDimensionMismatch) {
		t.Errorf("Expected ErrDimensionMismatch for a mismatched mask, got %v", err)
	}
}

// TestRegionOpsUndo verifies the undo hook in a batch
func TestRegionOpsUndo(t *testing.T) {
	label := raster.NewLabel(10, 10)
	for y := 2; y < 8; y++ {
		for x := 2; x < 8; x++ {
			label.Set(x, y, 1)
		}
	}
	before := label.Clone()

	stack := undo.New(3)
	stack.Begin()
	if _, err := ReplaceRegion4N(label, label.Offset(4, 4), 2, stack); err != nil {
		t.Fatalf("ReplaceRegion4N failed: %v", err)
	}
	square := []raster.Point{{X: 0, Y: 0}, {X: 3, Y: 0}, {X: 3, Y: 3}, {X: 0, Y: 3}}
	if _, err := CombineRegion(label, square, nil, OpOr, 4, stack); err != nil {
		t.Fatalf("CombineRegion failed: %v", err)
	}
	stack.End()

	if stack.Len() != 1 {
		t.Fatalf("A batch should store one snapshot, got %d", stack.Len())
	}

	if err := stack.Undo(label); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	for i := range label.Pix {
		if label.Pix[i] != before.Pix[i] {
			t.Fatalf("Undo did not restore offset %d: %d vs %d", i, label.Pix[i], before.Pix[i])
		}
	}
}

// TestEndToEndGrowTraceReplace follows a 10x10 uniform image from growing to
// erasing
func TestEndToEndGrowTraceReplace(t *testing.T) {
	label := raster.NewLabel(10, 10)
	label.Fill(1)

	c, err := contour.Trace(label, label.Offset(5, 5), contour.FourConnected)
	if err != nil {
		t.Fatalf("Trace failed: %v", err)
	}
	if len(c) != 40 {
		t.Errorf("Expected 40 contour points, got %d", len(c))
	}

	n, err := ReplaceRegion4N(label, label.Offset(5, 5), 0, nil)
	if err != nil {
		t.Fatalf("ReplaceRegion4N failed: %v", err)
	}
	if n != 100 {
		t.Errorf("Expected 100 pixels changed, got %d", n)
	}
}
