// internal/catalog/features.go
package catalog

import (
	"fmt"
	"os"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// DensityRecord is one per-ecoregion density estimate.
type DensityRecord struct {
	EcoID           float64
	MedDensityEco   float64
	MedDensityBiome float64
}

// LoadDensity parses the density FeatureCollection. Geometry is ignored;
// only the ECO_ID / MED_DENSITY_* attributes drive patch sizing.
func LoadDensity(path string) ([]DensityRecord, error) {
	fc, err := readFC(path)
	if err != nil {
		return nil, err
	}
	out := make([]DensityRecord, 0, len(fc.Features))
	for i, f := range fc.Features {
		eco, ok := numProp(f, "ECO_ID")
		if !ok {
			return nil, fmt.Errorf("catalog: %s: feature %d has no ECO_ID", path, i)
		}
		de, _ := numProp(f, "MED_DENSITY_ECO")
		db, _ := numProp(f, "MED_DENSITY_BIOME")
		out = append(out, DensityRecord{EcoID: eco, MedDensityEco: de, MedDensityBiome: db})
	}
	return out, nil
}

// ExtirpatedGeometries returns the geometries of range units extirpated on
// the task date: ext_year <= year < ext_revert. A missing ext_revert means
// the extirpation never reverts.
func ExtirpatedGeometries(path string, taskdate time.Time) ([]orb.Geometry, error) {
	fc, err := readFC(path)
	if err != nil {
		return nil, err
	}
	year := float64(taskdate.Year())
	var out []orb.Geometry
	for _, f := range fc.Features {
		extYear, ok := numProp(f, "ext_year")
		if !ok || extYear > year {
			continue
		}
		if revert, ok := numProp(f, "ext_revert"); ok && revert <= year {
			continue
		}
		if f.Geometry != nil {
			out = append(out, f.Geometry)
		}
	}
	return out, nil
}

func readFC(path string) (*geojson.FeatureCollection, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	return fc, nil
}

func numProp(f *geojson.Feature, key string) (float64, bool) {
	v, ok := f.Properties[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
