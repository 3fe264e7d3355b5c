// internal/habitat/engine.go
package habitat

import (
	"fmt"

	"github.com/SpeciesConservationLandscapes/task-scl-eff-pot-hab/internal/patch"
	"github.com/SpeciesConservationLandscapes/task-scl-eff-pot-hab/internal/raster"
)

// Config holds the masking thresholds. HIIByZone keys are zone-raster ids.
type Config struct {
	StructuralHabitat  float64             // suitability cutoff on the structural raster
	ReduceResolution   float64             // fraction of fine pixels required per coarse pixel
	StructuralPatchKm2 float64             // minimum structural patch size before HII masking
	HIIByZone          map[float64]float64 // per-zone impact cutoff (0-50 scale)
	Connectivity       patch.Connectivity
}

// Engine applies the threshold masks that turn structural habitat into
// effective potential habitat.
type Engine struct {
	cfg Config
}

// New creates an Engine.
func New(c Config) *Engine {
	if c.Connectivity == 0 {
		c.Connectivity = patch.Conn8
	}
	return &Engine{cfg: c}
}

// Inputs are the per-task rasters, all on the structural-habitat grid.
type Inputs struct {
	StructuralHabitat *raster.Grid
	HII               *raster.Grid // stored x100, divided here
	Zones             *raster.Grid
	Water             *raster.Grid // 1 = keep (optional)
}

// Result carries the habitat and excluded-habitat bands at the working
// scale, plus the connected structural habitat used for the raster export.
type Result struct {
	EffPotHab *raster.Grid // habitat passing the HII mask
	ExclHab   *raster.Grid // structural habitat excluded by the HII mask
	Connected *raster.Grid // patch-filtered variant of EffPotHab
}

// HIIThresholdGrid remaps the zone raster into a per-pixel HII cutoff.
func (e *Engine) HIIThresholdGrid(zones *raster.Grid) (*raster.Grid, error) {
	from := make([]float64, 0, len(e.cfg.HIIByZone))
	to := make([]float64, 0, len(e.cfg.HIIByZone))
	for z, t := range e.cfg.HIIByZone {
		from = append(from, z)
		to = append(to, t)
	}
	if len(from) == 0 {
		return nil, fmt.Errorf("habitat: no HII zone thresholds configured")
	}
	return zones.Remap(from, to, true)
}

// Calc produces the effective potential habitat bands. reduceFactor is the
// integer ratio between the working scale and the input resolution; 1 keeps
// the input grid.
func (e *Engine) Calc(in Inputs, reduceFactor int) (*Result, error) {
	if in.StructuralHabitat == nil || in.HII == nil || in.Zones == nil {
		return nil, fmt.Errorf("habitat: structural habitat, hii and zones are all required")
	}

	structural := in.StructuralHabitat.Gte(e.cfg.StructuralHabitat)
	if in.Water != nil {
		var err error
		if structural, err = structural.UpdateMask(in.Water); err != nil {
			return nil, err
		}
	}

	threshold, err := e.HIIThresholdGrid(in.Zones)
	if err != nil {
		return nil, err
	}
	hii := in.HII.MultiplyScalar(1.0 / 100)
	lowHII, err := hiiBelow(hii, threshold)
	if err != nil {
		return nil, err
	}
	highHII, err := hiiAbove(hii, threshold)
	if err != nil {
		return nil, err
	}

	eff, err := e.reduce(structural, lowHII, reduceFactor)
	if err != nil {
		return nil, err
	}
	excl, err := e.reduce(structural, highHII, reduceFactor)
	if err != nil {
		return nil, err
	}

	connected, err := e.connectedStructural(structural)
	if err != nil {
		return nil, err
	}
	connected, err = e.reduce(connected, lowHII, reduceFactor)
	if err != nil {
		return nil, err
	}

	return &Result{EffPotHab: eff, ExclHab: excl, Connected: connected}, nil
}

// connectedStructural drops structural patches below the patch-size cutoff.
func (e *Engine) connectedStructural(structural *raster.Grid) (*raster.Grid, error) {
	labels, err := patch.Label(structural, e.cfg.Connectivity)
	if err != nil {
		return nil, err
	}
	area := labels.AreaKm2(structural.PixelAreaKm2())
	out := raster.NewMasked(structural)
	for i, id := range labels.ID {
		if id != 0 && area[id] >= e.cfg.StructuralPatchKm2 {
			out.Data[i] = 1
			out.Valid[i] = true
		}
	}
	return out, nil
}

// reduce masks habitat by hiiMask, fills nodata with 0, block-averages to
// the working scale, and keeps coarse pixels meeting the occupancy fraction.
func (e *Engine) reduce(habitat, hiiMask *raster.Grid, factor int) (*raster.Grid, error) {
	masked, err := habitat.UpdateMask(hiiMask)
	if err != nil {
		return nil, err
	}
	coarse, err := masked.Unmask(0).AggregateMean(factor)
	if err != nil {
		return nil, err
	}
	return coarse.Gte(e.cfg.ReduceResolution), nil
}

func hiiBelow(hii, threshold *raster.Grid) (*raster.Grid, error) {
	return hiiCompare(hii, threshold, true)
}

func hiiAbove(hii, threshold *raster.Grid) (*raster.Grid, error) {
	return hiiCompare(hii, threshold, false)
}

// hiiCompare builds a 1/nodata mask of pixels at or below (or strictly
// above) their per-pixel threshold. Pixels outside any zone are nodata.
func hiiCompare(hii, threshold *raster.Grid, below bool) (*raster.Grid, error) {
	if !hii.SameShape(threshold) {
		return nil, fmt.Errorf("habitat: hii %dx%d vs zones %dx%d", hii.W, hii.H, threshold.W, threshold.H)
	}
	out := raster.NewMasked(hii)
	for i, v := range hii.Data {
		if !hii.Valid[i] || !threshold.Valid[i] {
			continue
		}
		if (below && v <= threshold.Data[i]) || (!below && v > threshold.Data[i]) {
			out.Data[i] = 1
			out.Valid[i] = true
		}
	}
	return out, nil
}

// RangeClass builds the 0/1/2 range reclass: 2 where the historical range is
// present, overridden to 1 where the range is extirpated on the task date.
// Pixels in neither are nodata.
func RangeClass(historical, extirpated *raster.Grid) (*raster.Grid, error) {
	base := raster.NewMasked(historical)
	out, err := base.Unmask(0).Where(historical.Eq(1), 2)
	if err != nil {
		return nil, err
	}
	if extirpated != nil {
		if out, err = out.Where(extirpated.Eq(1), 1); err != nil {
			return nil, err
		}
	}
	return out.SelfMask(), nil
}
