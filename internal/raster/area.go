// internal/raster/area.go
package raster

import (
	"math"
	"strings"
)

const earthRadiusKm = 6371.0088

// PixelAreaKm2 returns a grid whose valid pixels hold the pixel footprint in
// km². Geographic grids (degree units) get a cos-latitude weighting per row;
// projected grids use the constant cell area. Mirrors the upstream
// pixel-area band used for polygon area sums.
func (g *Grid) PixelAreaKm2() *Grid {
	out := New(g.W, g.H, g.GT, g.Proj)
	dx, dy := g.CellSize()
	if g.IsGeographic() {
		kmPerDeg := earthRadiusKm * math.Pi / 180
		for y := 0; y < g.H; y++ {
			_, lat := g.PixelCenter(0, y)
			rowArea := dx * kmPerDeg * math.Cos(lat*math.Pi/180) * dy * kmPerDeg
			for x := 0; x < g.W; x++ {
				out.Data[out.idx(x, y)] = rowArea
			}
		}
		return out
	}
	// projected: geotransform units are meters
	cell := dx * dy / 1e6
	for i := range out.Data {
		out.Data[i] = cell
	}
	return out
}

// IsGeographic reports whether the grid CRS looks like a lat/lon system.
// A missing projection string is treated as geographic, matching the
// upstream default of EPSG:4326.
func (g *Grid) IsGeographic() bool {
	if g.Proj == "" {
		return true
	}
	p := strings.ToUpper(g.Proj)
	if strings.HasPrefix(p, "PROJCS") {
		return false
	}
	return strings.HasPrefix(p, "GEOGCS") || strings.Contains(p, "EPSG:4326") || strings.Contains(p, "WGS 84")
}

// NominalScaleM returns the approximate pixel size in meters at the grid
// center, the analogue of a projection's nominal scale.
func (g *Grid) NominalScaleM() float64 {
	dx, _ := g.CellSize()
	if !g.IsGeographic() {
		return dx
	}
	_, lat := g.PixelCenter(g.W/2, g.H/2)
	return dx * earthRadiusKm * 1000 * math.Pi / 180 * math.Cos(lat*math.Pi/180)
}
