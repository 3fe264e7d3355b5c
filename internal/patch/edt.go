// internal/patch/edt.go
package patch

import (
	"math"

	"github.com/SpeciesConservationLandscapes/task-scl-eff-pot-hab/internal/raster"
)

// Exact Euclidean distance transform (Felzenszwalb & Huttenlocher), the
// fastDistanceTransform().sqrt() analogue. Distances are in pixels from the
// nearest foreground (valid, nonzero) pixel of mask.

const inf = math.MaxFloat64 / 4

// DistancePx returns the per-pixel Euclidean distance (in pixels) to the
// nearest foreground pixel of mask. Foreground pixels get 0. If mask has no
// foreground at all, every pixel gets +Inf.
func DistancePx(mask *raster.Grid) []float64 {
	w, h := mask.W, mask.H
	f := make([]float64, w*h)
	for i := range f {
		if mask.Valid[i] && mask.Data[i] != 0 {
			f[i] = 0
		} else {
			f[i] = inf
		}
	}

	// columns
	col := make([]float64, h)
	out := make([]float64, h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			col[y] = f[y*w+x]
		}
		edt1d(col, out)
		for y := 0; y < h; y++ {
			f[y*w+x] = out[y]
		}
	}
	// rows
	row := make([]float64, w)
	rout := make([]float64, w)
	for y := 0; y < h; y++ {
		copy(row, f[y*w:(y+1)*w])
		edt1d(row, rout)
		for x := 0; x < w; x++ {
			d := rout[x]
			if d >= inf {
				f[y*w+x] = math.Inf(1)
			} else {
				f[y*w+x] = math.Sqrt(d)
			}
		}
	}
	return f
}

// edt1d computes the 1-D squared distance transform of f into out.
func edt1d(f, out []float64) {
	n := len(f)
	v := make([]int, n)
	z := make([]float64, n+1)
	k := 0
	v[0] = 0
	z[0] = math.Inf(-1)
	z[1] = math.Inf(1)
	for q := 1; q < n; q++ {
		var s float64
		for {
			s = ((f[q] + float64(q*q)) - (f[v[k]] + float64(v[k]*v[k]))) / float64(2*q-2*v[k])
			if s > z[k] {
				break
			}
			k--
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
		d := float64(q - v[k])
		out[q] = d*d + f[v[k]]
	}
}

// Dilate grows the foreground of mask by radiusPx pixels (Euclidean), the
// upstream dilate() helper. The result is a 1/nodata mask.
func Dilate(mask *raster.Grid, radiusPx float64) *raster.Grid {
	out := raster.NewMasked(mask)
	if radiusPx < 0 {
		return out
	}
	dist := DistancePx(mask)
	for i, d := range dist {
		if d <= radiusPx {
			out.Data[i] = 1
			out.Valid[i] = true
		}
	}
	return out
}
