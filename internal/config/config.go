// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/SpeciesConservationLandscapes/task-scl-eff-pot-hab/internal/patch"
)

// Thresholds are the masking cutoffs applied by the habitat engine.
type Thresholds struct {
	StructuralHabitat  float64            `yaml:"structural_habitat"`
	ReduceResolution   float64            `yaml:"reduce_resolution"`
	StructuralPatchKm2 float64            `yaml:"structural_patch_km2"`
	HII                map[string]float64 `yaml:"hii"` // zone_1..zone_4
	DispersalKm        float64            `yaml:"dispersal_km"`
}

// Params is the species parameter file.
type Params struct {
	Thresholds Thresholds          `yaml:"thresholds"`
	Density    patch.DensityParams `yaml:"density"`
	ScaleM     float64             `yaml:"scale_m"`
}

// Default returns the canonical parameter set used when no file is given.
// Values follow the published SCL task constants.
func Default() Params {
	return Params{
		Thresholds: Thresholds{
			StructuralHabitat:  0.5,
			ReduceResolution:   0.5,
			StructuralPatchKm2: 5,
			HII: map[string]float64{
				"zone_1": 14.4,
				"zone_2": 7.2,
				"zone_3": 4.9,
				"zone_4": 4.9,
			},
			DispersalKm: 4,
		},
		Density: patch.DensityParams{
			NCoreAnimals:    5,
			CoreToStepRatio: 0.1,
			Core:            patch.SizeLimits{MinKm2: 30, MaxKm2: 625},
			Step:            patch.SizeLimits{MinKm2: 3, MaxKm2: 63},
		},
		ScaleM: 1000,
	}
}

// Load reads a parameter file, layering it over Default and applying
// environment overrides. path == "" loads Default plus env overrides.
func Load(path string) (Params, error) {
	p := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return p, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &p); err != nil {
			return p, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	applyEnv(&p)
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// applyEnv mirrors the flag/env contract: selected numeric knobs can be
// overridden without a parameter file.
func applyEnv(p *Params) {
	if v, ok := envFloat("SCL_SCALE_M"); ok {
		p.ScaleM = v
	}
	if v, ok := envFloat("SCL_DISPERSAL_KM"); ok {
		p.Thresholds.DispersalKm = v
	}
	if v, ok := envFloat("SCL_STRUCTURAL_THRESHOLD"); ok {
		p.Thresholds.StructuralHabitat = v
	}
}

func envFloat(key string) (float64, bool) {
	s := os.Getenv(key)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// HIIByZone converts the zone_N keys to zone-raster ids.
func (p Params) HIIByZone() (map[float64]float64, error) {
	out := make(map[float64]float64, len(p.Thresholds.HII))
	for k, v := range p.Thresholds.HII {
		var id int
		if _, err := fmt.Sscanf(k, "zone_%d", &id); err != nil {
			return nil, fmt.Errorf("config: bad hii zone key %q", k)
		}
		out[float64(id)] = v
	}
	return out, nil
}

// Validate rejects parameter sets the pipeline cannot run with.
func (p Params) Validate() error {
	t := p.Thresholds
	switch {
	case p.ScaleM <= 0:
		return fmt.Errorf("config: scale_m must be positive, got %v", p.ScaleM)
	case t.DispersalKm < 0:
		return fmt.Errorf("config: dispersal_km must be >= 0, got %v", t.DispersalKm)
	case t.ReduceResolution < 0 || t.ReduceResolution > 1:
		return fmt.Errorf("config: reduce_resolution must be in [0,1], got %v", t.ReduceResolution)
	case t.StructuralPatchKm2 < 0:
		return fmt.Errorf("config: structural_patch_km2 must be >= 0, got %v", t.StructuralPatchKm2)
	case len(t.HII) == 0:
		return fmt.Errorf("config: at least one hii zone threshold is required")
	}
	if _, err := p.HIIByZone(); err != nil {
		return err
	}
	d := p.Density
	switch {
	case d.NCoreAnimals <= 0:
		return fmt.Errorf("config: density.n_core_animals must be positive, got %v", d.NCoreAnimals)
	case d.CoreToStepRatio <= 0 || d.CoreToStepRatio > 1:
		return fmt.Errorf("config: density.core_to_step_ratio must be in (0,1], got %v", d.CoreToStepRatio)
	case d.Core.MinKm2 > d.Core.MaxKm2:
		return fmt.Errorf("config: density.core_km2 min %v exceeds max %v", d.Core.MinKm2, d.Core.MaxKm2)
	case d.Step.MinKm2 > d.Step.MaxKm2:
		return fmt.Errorf("config: density.step_km2 min %v exceeds max %v", d.Step.MinKm2, d.Step.MaxKm2)
	}
	return nil
}
