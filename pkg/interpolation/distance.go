package interpolation

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"segtools/pkg/raster"
)

// far marks pixels without a feature in the distance transform. It is finite
// so that the lower envelope arithmetic never produces NaN.
const far = 1e20

// SignedDistance returns the signed Euclidean distance map of a binary label
// as a Height x Width matrix. Foreground pixels get the distance to the
// nearest background pixel minus one half, background pixels the negated
// distance to the nearest foreground pixel minus one half, so the zero level
// runs along pixel edges and the sign of every entry is the pixel's state.
//
// Distances to a missing feature (an empty or full label) are capped at
// Width+Height.
func SignedDistance(label *raster.Label) *mat.Dense {
	w, h := label.Width, label.Height
	inside := func(i int) bool { return label.Pix[i] != 0 }

	toBackground := squaredDistance(w, h, func(i int) bool { return !inside(i) })
	toForeground := squaredDistance(w, h, inside)

	limit := float64(w + h)
	data := make([]float64, w*h)
	for i := range data {
		if inside(i) {
			data[i] = capped(toBackground[i], limit) - 0.5
		} else {
			data[i] = -(capped(toForeground[i], limit) - 0.5)
		}
	}
	return mat.NewDense(h, w, data)
}

func capped(sq, limit float64) float64 {
	if sq >= far {
		return limit
	}
	return math.Min(math.Sqrt(sq), limit)
}

// squaredDistance computes the exact squared Euclidean distance from every
// pixel to the nearest feature pixel with two separable passes of the lower
// envelope of parabolas (Felzenszwalb and Huttenlocher).
func squaredDistance(w, h int, feature func(i int) bool) []float64 {
	out := make([]float64, w*h)
	for i := range out {
		if !feature(i) {
			out[i] = far
		}
	}

	n := max(w, h)
	f := make([]float64, n)
	d := make([]float64, n)
	v := make([]int, n)
	z := make([]float64, n+1)

	// columns
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			f[y] = out[y*w+x]
		}
		envelope(f[:h], d[:h], v, z)
		for y := 0; y < h; y++ {
			out[y*w+x] = d[y]
		}
	}

	// rows
	for y := 0; y < h; y++ {
		row := out[y*w : (y+1)*w]
		copy(f, row)
		envelope(f[:w], d[:w], v, z)
		copy(row, d[:w])
	}

	return out
}

// envelope is the one dimensional squared distance transform of f.
func envelope(f, d []float64, v []int, z []float64) {
	n := len(f)
	if n == 0 {
		return
	}

	k := 0
	v[0] = 0
	z[0] = math.Inf(-1)
	z[1] = math.Inf(1)

	intersect := func(q, p int) float64 {
		fq, fp := f[q]+float64(q*q), f[p]+float64(p*p)
		return (fq - fp) / float64(2*q-2*p)
	}

	for q := 1; q < n; q++ {
		s := intersect(q, v[k])
		for s <= z[k] {
			k--
			s = intersect(q, v[k])
		}
		k++
		v[k] = q
		z[k] = s
		z[k+1] = math.Inf(1)
	}

	k = 0
	for q := 0; q < n; q++ {
		for z[k+1] < float64(q) {
			k++
		}
		dq := float64(q - v[k])
		d[q] = dq*dq + f[v[k]]
	}
}
