// internal/scl/compose.go
package scl

import (
	"fmt"

	"github.com/paulmach/orb/geojson"

	"github.com/SpeciesConservationLandscapes/task-scl-eff-pot-hab/internal/raster"
	"github.com/SpeciesConservationLandscapes/task-scl-eff-pot-hab/internal/vector"
)

// Band names of the SCL classification image, in export order.
var BandNames = []string{
	"scl_poly",
	"range",
	"country",
	"ecoregion",
	"biome",
	"min_patch_size",
	"min_stepping_stone_size",
	"polygon_area",
	"eff_pot_hab_area",
	"connected_eff_pot_hab_area",
	"pa_area",
}

var modeBands = map[string]bool{
	"range": true, "country": true, "ecoregion": true, "biome": true,
	"min_patch_size": true, "min_stepping_stone_size": true,
}

// Inputs are the working-scale grids composed into the SCL image.
type Inputs struct {
	AllPotential *raster.Grid // dispersal-grown class grid; masks everything
	RangeClass   *raster.Grid
	Country      *raster.Grid
	Ecoregion    *raster.Grid
	Biome        *raster.Grid
	MinPatch     *raster.Grid
	MinStep      *raster.Grid

	EffPotHab      *raster.Grid // habitat band (pre patch filter)
	Connected      *raster.Grid // patch-filtered habitat
	ProtectedAreas *raster.Grid // optional
	Water          *raster.Grid // optional
}

// Image is the multi-band SCL composite keyed by BandNames.
type Image struct {
	Names []string
	Grids []*raster.Grid
}

// Band returns a band grid by name.
func (im *Image) Band(name string) (*raster.Grid, error) {
	for i, n := range im.Names {
		if n == name {
			return im.Grids[i], nil
		}
	}
	return nil, fmt.Errorf("scl: no band %q", name)
}

// Compose builds the SCL image: the scl_poly band is the eco-country code
// (country*1000 + ecoregion) masked to dispersal-grown potential habitat;
// class bands ride along for the polygon mode reducers and area bands (km²)
// for the sum reducers.
func Compose(in Inputs) (*Image, error) {
	if in.AllPotential == nil || in.Country == nil || in.Ecoregion == nil {
		return nil, fmt.Errorf("scl: allpotential, country and ecoregion grids are required")
	}
	ecoCountry, err := in.Country.MultiplyScalar(1000).Add(in.Ecoregion)
	if err != nil {
		return nil, err
	}
	sclPoly, err := ecoCountry.UpdateMask(in.AllPotential)
	if err != nil {
		return nil, err
	}

	area := in.AllPotential.PixelAreaKm2()
	if in.Water != nil {
		if area, err = area.UpdateMask(in.Water); err != nil {
			return nil, err
		}
	}
	maskedArea := func(layer *raster.Grid) (*raster.Grid, error) {
		if layer == nil {
			return raster.NewMasked(area), nil
		}
		return area.UpdateMask(layer)
	}
	effArea, err := maskedArea(in.EffPotHab)
	if err != nil {
		return nil, err
	}
	connArea, err := maskedArea(in.Connected)
	if err != nil {
		return nil, err
	}
	paArea, err := maskedArea(in.ProtectedAreas)
	if err != nil {
		return nil, err
	}

	grids := []*raster.Grid{
		sclPoly,
		in.RangeClass,
		in.Country,
		in.Ecoregion,
		in.Biome,
		in.MinPatch,
		in.MinStep,
		area,
		effArea,
		connArea,
		paArea,
	}
	for i, g := range grids {
		if g == nil {
			grids[i] = raster.NewMasked(sclPoly)
		}
	}
	return &Image{Names: append([]string(nil), BandNames...), Grids: grids}, nil
}

// VectorBands maps the image bands onto vectorizer reducers: mode for class
// bands, sum for area bands. The scl_poly band itself is the region mask,
// not a property.
func (im *Image) VectorBands() []vector.Band {
	var out []vector.Band
	for i, n := range im.Names {
		if n == "scl_poly" {
			continue
		}
		r := vector.Sum
		if modeBands[n] {
			r = vector.Mode
		}
		out = append(out, vector.Band{Name: n, Grid: im.Grids[i], Reduce: r})
	}
	return out
}

// AttributePolygons applies the post-vectorization contract: drop polygons
// with no effective habitat, assign sequential poly_id, convert pa_area to
// pa_proportion.
func AttributePolygons(fc *geojson.FeatureCollection) *geojson.FeatureCollection {
	out := geojson.NewFeatureCollection()
	id := 0
	for _, f := range fc.Features {
		if num(f, "eff_pot_hab_area") <= 0 {
			continue
		}
		id++
		f.Properties["poly_id"] = id
		if polyArea := num(f, "polygon_area"); polyArea > 0 {
			f.Properties["pa_proportion"] = num(f, "pa_area") / polyArea
		} else {
			f.Properties["pa_proportion"] = 0.0
		}
		delete(f.Properties, "pa_area")
		out.Append(f)
	}
	return out
}

func num(f *geojson.Feature, key string) float64 {
	if v, ok := f.Properties[key].(float64); ok {
		return v
	}
	return 0
}
