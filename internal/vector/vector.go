// internal/vector/vector.go
package vector

import (
	"fmt"

	"github.com/paulmach/orb/geojson"

	"github.com/SpeciesConservationLandscapes/task-scl-eff-pot-hab/internal/patch"
	"github.com/SpeciesConservationLandscapes/task-scl-eff-pot-hab/internal/raster"
)

// Reducer aggregates a band over a vectorized region.
type Reducer int

const (
	// Mode keeps the most frequent valid value (ties break low).
	Mode Reducer = iota
	// Sum totals the valid values.
	Sum
)

// Band pairs a property name with the grid and reducer producing it.
type Band struct {
	Name   string
	Grid   *raster.Grid
	Reduce Reducer
}

// Vectorize converts the homogeneous regions of mask into GeoJSON features:
// connected runs of valid, nonzero pixels sharing the same value. Adjacent
// regions with different values stay separate features even when they touch.
// Each feature's geometry covers one region; its properties are the reduced
// band values. Features appear in label order, which is scan order, so output
// is deterministic.
func Vectorize(mask *raster.Grid, conn patch.Connectivity, bands []Band) (*geojson.FeatureCollection, error) {
	for _, b := range bands {
		if !mask.SameShape(b.Grid) {
			return nil, fmt.Errorf("vector: band %q shape %dx%d vs mask %dx%d",
				b.Name, b.Grid.W, b.Grid.H, mask.W, mask.H)
		}
	}
	labels, err := patch.LabelValues(mask, conn)
	if err != nil {
		return nil, err
	}

	fc := geojson.NewFeatureCollection()
	for id := int32(1); id <= int32(labels.NLabels()); id++ {
		geom := TraceLabel(labels, id, mask)
		f := geojson.NewFeature(geom)
		for _, b := range bands {
			f.Properties[b.Name] = reduceRegion(labels, id, b)
		}
		fc.Append(f)
	}
	return fc, nil
}

func reduceRegion(l *patch.Labels, id int32, b Band) float64 {
	switch b.Reduce {
	case Sum:
		s := 0.0
		for i, lid := range l.ID {
			if lid == id && b.Grid.Valid[i] {
				s += b.Grid.Data[i]
			}
		}
		return s
	default: // Mode
		counts := map[float64]int{}
		for i, lid := range l.ID {
			if lid == id && b.Grid.Valid[i] {
				counts[b.Grid.Data[i]]++
			}
		}
		best, bestN := 0.0, 0
		for v, n := range counts {
			if n > bestN || (n == bestN && v < best) {
				best, bestN = v, n
			}
		}
		return best
	}
}
