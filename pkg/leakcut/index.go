package leakcut

import (
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"

	"segtools/pkg/contour"
	"segtools/pkg/raster"
)

// contourPoint is a contour vertex that remembers its position in the ring
type contourPoint struct {
	X, Y  float64
	Index int
}

// Compare implements the kdtree.Comparable interface
func (p contourPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(contourPoint)
	switch d {
	case 0:
		return p.X - q.X
	case 1:
		return p.Y - q.Y
	default:
		panic("illegal dimension")
	}
}

// Dims returns the number of dimensions for the KD-tree
func (p contourPoint) Dims() int { return 2 }

// Distance returns the squared Euclidean distance between two points
func (p contourPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(contourPoint)
	dx := p.X - q.X
	dy := p.Y - q.Y
	return dx*dx + dy*dy
}

// contourPoints is a collection of contourPoint that satisfies kdtree.Interface
type contourPoints []contourPoint

func (p contourPoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p contourPoints) Len() int                              { return len(p) }
func (p contourPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// Pivot implements the kdtree.Interface method
func (p contourPoints) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(pointPlane{contourPoints: p, Dim: d}, kdtree.MedianOfRandoms(pointPlane{contourPoints: p, Dim: d}, 100))
}

// pointPlane implements sort.Interface and kdtree.SortSlicer for contourPoints
type pointPlane struct {
	contourPoints
	kdtree.Dim
}

func (p pointPlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.contourPoints[i].X < p.contourPoints[j].X
	case 1:
		return p.contourPoints[i].Y < p.contourPoints[j].Y
	default:
		panic("illegal dimension")
	}
}

func (p pointPlane) Slice(start, end int) kdtree.SortSlicer {
	return pointPlane{contourPoints: p.contourPoints[start:end], Dim: p.Dim}
}

func (p pointPlane) Swap(i, j int) {
	p.contourPoints[i], p.contourPoints[j] = p.contourPoints[j], p.contourPoints[i]
}

// boundaryIndex answers nearest-boundary queries for one contour. It is built
// per call and never shared.
type boundaryIndex struct {
	tree *kdtree.Tree
}

// newBoundaryIndex builds a KD-tree over the contour's vertices.
func newBoundaryIndex(c contour.Contour) *boundaryIndex {
	// kdtree.New reorders its input, so the tree gets its own copy.
	pts := make(contourPoints, len(c))
	for i, p := range c {
		pts[i] = contourPoint{X: p.X, Y: p.Y, Index: i}
	}
	return &boundaryIndex{tree: kdtree.New(pts, false)}
}

// nearest returns the ring index of the vertex closest to p and its
// Euclidean distance.
func (b *boundaryIndex) nearest(p raster.Point) (int, float64) {
	got, d2 := b.tree.Nearest(contourPoint{X: p.X, Y: p.Y})
	if got == nil {
		return -1, math.Inf(1)
	}
	return got.(contourPoint).Index, math.Sqrt(d2)
}

// distance returns the distance from p to the closest boundary vertex.
func (b *boundaryIndex) distance(p raster.Point) float64 {
	_, d := b.nearest(p)
	return d
}
