// internal/vector/rasterize.go
package vector

import (
	"context"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/SpeciesConservationLandscapes/task-scl-eff-pot-hab/internal/pipeline"
	"github.com/SpeciesConservationLandscapes/task-scl-eff-pot-hab/internal/raster"
)

// Rasterize burns geometries into a 1/nodata mask on the template grid: a
// pixel is set when its center falls inside any geometry. This is the
// costliest per-pixel stage, so rows are tiled across the worker pool;
// tiles touch disjoint rows of the output.
func Rasterize(ctx context.Context, cfg pipeline.Config, geoms []orb.Geometry, template *raster.Grid) (*raster.Grid, error) {
	out := raster.NewMasked(template)
	err := pipeline.ForEachTile(ctx, cfg, template.H, func(t pipeline.Tile) error {
		for _, geom := range geoms {
			bound := geom.Bound()
			for y := t.Y0; y < t.Y1; y++ {
				for x := 0; x < template.W; x++ {
					px, py := template.PixelCenter(x, y)
					pt := orb.Point{px, py}
					if !bound.Contains(pt) {
						continue
					}
					if containsPoint(geom, pt) {
						out.Set(x, y, 1)
					}
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func containsPoint(geom orb.Geometry, pt orb.Point) bool {
	switch g := geom.(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, pt)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, pt)
	case orb.Collection:
		for _, sub := range g {
			if containsPoint(sub, pt) {
				return true
			}
		}
	}
	return false
}
