// internal/raster/ops.go
package raster

import "fmt"

// The comparison ops return 1/nodata masks: pixels passing the predicate get
// value 1, everything else (including input nodata) becomes nodata. This is
// the masked-algebra convention the rest of the pipeline is written against.

func (g *Grid) compare(pred func(float64) bool) *Grid {
	out := NewMasked(g)
	for i, v := range g.Data {
		if g.Valid[i] && pred(v) {
			out.Data[i] = 1
			out.Valid[i] = true
		}
	}
	return out
}

// Gte returns a 1/nodata mask of pixels >= t.
func (g *Grid) Gte(t float64) *Grid { return g.compare(func(v float64) bool { return v >= t }) }

// Gt returns a 1/nodata mask of pixels > t.
func (g *Grid) Gt(t float64) *Grid { return g.compare(func(v float64) bool { return v > t }) }

// Lte returns a 1/nodata mask of pixels <= t.
func (g *Grid) Lte(t float64) *Grid { return g.compare(func(v float64) bool { return v <= t }) }

// Lt returns a 1/nodata mask of pixels < t.
func (g *Grid) Lt(t float64) *Grid { return g.compare(func(v float64) bool { return v < t }) }

// Eq returns a 1/nodata mask of pixels == t.
func (g *Grid) Eq(t float64) *Grid { return g.compare(func(v float64) bool { return v == t }) }

// UpdateMask returns a copy of g with pixels invalidated wherever mask is
// nodata or zero.
func (g *Grid) UpdateMask(mask *Grid) (*Grid, error) {
	if !g.SameShape(mask) {
		return nil, g.shapeErr(mask, "UpdateMask")
	}
	out := g.Clone()
	for i := range out.Valid {
		if !mask.Valid[i] || mask.Data[i] == 0 {
			out.Valid[i] = false
			out.Data[i] = 0
		}
	}
	return out, nil
}

// SelfMask invalidates zero-valued pixels.
func (g *Grid) SelfMask() *Grid {
	out := g.Clone()
	for i := range out.Valid {
		if out.Valid[i] && out.Data[i] == 0 {
			out.Valid[i] = false
		}
	}
	return out
}

// Unmask replaces nodata pixels with fill, making the grid fully valid.
func (g *Grid) Unmask(fill float64) *Grid {
	out := g.Clone()
	for i := range out.Valid {
		if !out.Valid[i] {
			out.Data[i] = fill
			out.Valid[i] = true
		}
	}
	return out
}

// MultiplyScalar scales all valid pixels.
func (g *Grid) MultiplyScalar(f float64) *Grid {
	out := g.Clone()
	for i := range out.Data {
		if out.Valid[i] {
			out.Data[i] *= f
		}
	}
	return out
}

// Add returns the element-wise sum; a pixel is valid only where both inputs are.
func (g *Grid) Add(o *Grid) (*Grid, error) {
	if !g.SameShape(o) {
		return nil, g.shapeErr(o, "Add")
	}
	out := NewMasked(g)
	for i := range g.Data {
		if g.Valid[i] && o.Valid[i] {
			out.Data[i] = g.Data[i] + o.Data[i]
			out.Valid[i] = true
		}
	}
	return out, nil
}

// Where returns a copy with valid pixels of cond (nonzero) set to v.
func (g *Grid) Where(cond *Grid, v float64) (*Grid, error) {
	if !g.SameShape(cond) {
		return nil, g.shapeErr(cond, "Where")
	}
	out := g.Clone()
	for i := range out.Data {
		if cond.Valid[i] && cond.Data[i] != 0 {
			out.Data[i] = v
			out.Valid[i] = true
		}
	}
	return out, nil
}

// Remap substitutes values via parallel from/to tables. Unlisted valid
// values become nodata when strict, and pass through unchanged otherwise.
func (g *Grid) Remap(from, to []float64, strict bool) (*Grid, error) {
	if len(from) != len(to) {
		return nil, fmt.Errorf("raster: Remap: table length mismatch %d vs %d", len(from), len(to))
	}
	table := make(map[float64]float64, len(from))
	for i := range from {
		table[from[i]] = to[i]
	}
	out := g.Clone()
	for i, v := range out.Data {
		if !out.Valid[i] {
			continue
		}
		if nv, ok := table[v]; ok {
			out.Data[i] = nv
		} else if strict {
			out.Valid[i] = false
			out.Data[i] = 0
		}
	}
	return out, nil
}

// AggregateMean block-averages the grid by an integer factor, treating
// nodata inputs as absent (mean over valid contributors only). A coarse
// pixel with no valid contributors is nodata. Partial blocks at the right
// and bottom edges aggregate whatever pixels they cover.
func (g *Grid) AggregateMean(factor int) (*Grid, error) {
	if factor < 1 {
		return nil, fmt.Errorf("raster: AggregateMean: factor must be >= 1, got %d", factor)
	}
	if factor == 1 {
		return g.Clone(), nil
	}
	w := (g.W + factor - 1) / factor
	h := (g.H + factor - 1) / factor
	gt := g.GT
	gt[1] *= float64(factor)
	gt[2] *= float64(factor)
	gt[4] *= float64(factor)
	gt[5] *= float64(factor)
	out := &Grid{W: w, H: h, GT: gt, Proj: g.Proj,
		Data:  make([]float64, w*h),
		Valid: make([]bool, w*h),
	}
	for by := 0; by < h; by++ {
		for bx := 0; bx < w; bx++ {
			sum, n := 0.0, 0
			for y := by * factor; y < (by+1)*factor && y < g.H; y++ {
				for x := bx * factor; x < (bx+1)*factor && x < g.W; x++ {
					if i := g.idx(x, y); g.Valid[i] {
						sum += g.Data[i]
						n++
					}
				}
			}
			if n > 0 {
				out.Data[by*w+bx] = sum / float64(n)
				out.Valid[by*w+bx] = true
			}
		}
	}
	return out, nil
}
