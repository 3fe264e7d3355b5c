// internal/raster/grid.go
package raster

import (
	"fmt"
	"math"
)

// Grid is an in-memory single-band raster. Data is stored row-major; Valid
// tracks the nodata mask (false = nodata). All pipeline stages operate on
// Grids so the algorithms stay testable without a GDAL install.
type Grid struct {
	W, H int
	// GT is the GDAL-style geotransform:
	// x = GT[0] + col*GT[1] + row*GT[2]
	// y = GT[3] + col*GT[4] + row*GT[5]
	GT   [6]float64
	Proj string

	Data  []float64
	Valid []bool
}

// New allocates a fully-valid zero grid with the given shape and georeferencing.
func New(w, h int, gt [6]float64, proj string) *Grid {
	g := &Grid{
		W: w, H: h, GT: gt, Proj: proj,
		Data:  make([]float64, w*h),
		Valid: make([]bool, w*h),
	}
	for i := range g.Valid {
		g.Valid[i] = true
	}
	return g
}

// NewMasked allocates an all-nodata grid with the same shape as template.
func NewMasked(template *Grid) *Grid {
	return &Grid{
		W: template.W, H: template.H, GT: template.GT, Proj: template.Proj,
		Data:  make([]float64, template.W*template.H),
		Valid: make([]bool, template.W*template.H),
	}
}

// Clone deep-copies the grid.
func (g *Grid) Clone() *Grid {
	out := &Grid{W: g.W, H: g.H, GT: g.GT, Proj: g.Proj,
		Data:  append([]float64(nil), g.Data...),
		Valid: append([]bool(nil), g.Valid...),
	}
	return out
}

func (g *Grid) idx(x, y int) int { return y*g.W + x }

// At returns the value at (x,y) and whether it is valid.
func (g *Grid) At(x, y int) (float64, bool) {
	i := g.idx(x, y)
	return g.Data[i], g.Valid[i]
}

// Set writes a valid value at (x,y).
func (g *Grid) Set(x, y int, v float64) {
	i := g.idx(x, y)
	g.Data[i] = v
	g.Valid[i] = true
}

// SetNoData marks (x,y) as nodata.
func (g *Grid) SetNoData(x, y int) {
	i := g.idx(x, y)
	g.Data[i] = 0
	g.Valid[i] = false
}

// SameShape reports whether two grids can participate in the same expression.
func (g *Grid) SameShape(o *Grid) bool { return g.W == o.W && g.H == o.H }

func (g *Grid) shapeErr(o *Grid, op string) error {
	return fmt.Errorf("raster: %s: shape mismatch %dx%d vs %dx%d", op, g.W, g.H, o.W, o.H)
}

// CountValid returns the number of non-nodata pixels.
func (g *Grid) CountValid() int {
	n := 0
	for _, v := range g.Valid {
		if v {
			n++
		}
	}
	return n
}

// CellSize returns the absolute pixel size in geotransform units.
func (g *Grid) CellSize() (dx, dy float64) {
	return math.Abs(g.GT[1]), math.Abs(g.GT[5])
}

// PixelCenter returns the georeferenced center of pixel (x,y).
func (g *Grid) PixelCenter(x, y int) (float64, float64) {
	fx := float64(x) + 0.5
	fy := float64(y) + 0.5
	return g.GT[0] + fx*g.GT[1] + fy*g.GT[2], g.GT[3] + fx*g.GT[4] + fy*g.GT[5]
}

// PixelCorner returns the georeferenced upper-left corner of pixel (x,y).
// Passing x == W or y == H yields the right/bottom edge of the grid.
func (g *Grid) PixelCorner(x, y int) (float64, float64) {
	fx := float64(x)
	fy := float64(y)
	return g.GT[0] + fx*g.GT[1] + fy*g.GT[2], g.GT[3] + fx*g.GT[4] + fy*g.GT[5]
}
