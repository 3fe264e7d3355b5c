// internal/patch/patch.go
package patch

import (
	"github.com/SpeciesConservationLandscapes/task-scl-eff-pot-hab/internal/raster"
	"github.com/SpeciesConservationLandscapes/task-scl-eff-pot-hab/internal/runutil"
)

// SizeLimits clamps a computed patch-size requirement, in km².
type SizeLimits struct {
	MinKm2 float64 `yaml:"min"`
	MaxKm2 float64 `yaml:"max"`
}

// DensityParams converts species density estimates into minimum core and
// stepping-stone patch sizes.
type DensityParams struct {
	NCoreAnimals    float64    `yaml:"n_core_animals"`
	CoreToStepRatio float64    `yaml:"core_to_step_ratio"`
	Core            SizeLimits `yaml:"core_km2"`
	Step            SizeLimits `yaml:"step_km2"`
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// MinCoreKm2 returns the km² a patch must cover to hold NCoreAnimals at the
// given density. Ecoregion density wins over biome density; with neither,
// density defaults to 1 animal per 100 km².
func MinCoreKm2(ecoDensity, biomeDensity float64, p DensityParams) float64 {
	d := 1.0
	switch {
	case ecoDensity > 0:
		d = ecoDensity
	case biomeDensity > 0:
		d = biomeDensity
	}
	return clamp(p.NCoreAnimals/d*100, p.Core.MinKm2, p.Core.MaxKm2)
}

// MinStepKm2 derives the stepping-stone minimum from a core minimum.
func MinStepKm2(minCoreKm2 float64, p DensityParams) float64 {
	return clamp(minCoreKm2*p.CoreToStepRatio, p.Step.MinKm2, p.Step.MaxKm2)
}

// SizeGrids rasterizes per-ecoregion minimum core and stepping-stone sizes.
// coreByEco maps ECO_ID to min core km²; ecoregions absent from the map get
// the clamped default density of 1.
func SizeGrids(eco *raster.Grid, coreByEco map[float64]float64, p DensityParams) (minCore, minStep *raster.Grid) {
	fallback := MinCoreKm2(0, 0, p)
	minCore = raster.NewMasked(eco)
	minStep = raster.NewMasked(eco)
	for i, v := range eco.Data {
		if !eco.Valid[i] {
			continue
		}
		core := fallback
		if c, ok := coreByEco[v]; ok {
			core = clamp(c, p.Core.MinKm2, p.Core.MaxKm2)
		}
		minCore.Data[i] = core
		minCore.Valid[i] = true
		minStep.Data[i] = MinStepKm2(core, p)
		minStep.Valid[i] = true
	}
	return minCore, minStep
}

// Classes produced by Classify / GrowDispersal.
const (
	ClassStep        = 1.0
	ClassCore        = 3.0
	ClassCoreAndStep = 4.0
)

// Classification is the patch-size split of potential habitat.
type Classification struct {
	Labels   *Labels
	AreaKm2  []float64    // per label, index 0 unused
	CoreMask *raster.Grid // 1/nodata
	StepMask *raster.Grid // 1/nodata
}

// Classify splits potential habitat into core patches (component area >= the
// pixel's minimum core size) and stepping stones (minStep <= area < minCore),
// mirroring the upstream per-pixel where() comparisons. Pixels whose
// component is below the stepping-stone minimum are dropped.
func Classify(habitat *raster.Grid, conn Connectivity, minCore, minStep *raster.Grid) (*Classification, error) {
	labels, err := Label(habitat, conn)
	if err != nil {
		return nil, err
	}
	area := labels.AreaKm2(habitat.PixelAreaKm2())

	coreMask := raster.NewMasked(habitat)
	stepMask := raster.NewMasked(habitat)
	for i, id := range labels.ID {
		if id == 0 || !minCore.Valid[i] {
			continue
		}
		a := area[id]
		switch {
		case a >= minCore.Data[i]:
			coreMask.Data[i] = 1
			coreMask.Valid[i] = true
		case a >= minStep.Data[i]:
			stepMask.Data[i] = 1
			stepMask.Valid[i] = true
		}
	}
	return &Classification{Labels: labels, AreaKm2: area, CoreMask: coreMask, StepMask: stepMask}, nil
}

// GrowDispersal dilates cores and stepping stones by half the dispersal
// distance and sums them (core weighted 3) into the allpotential class grid:
// 1 = stepping stone reach only, 3 = core reach only, 4 = both. The radius
// truncates to whole pixels. A non-nil water grid is a land mask: the result
// keeps only its valid nonzero pixels.
func GrowDispersal(c *Classification, dispersalKm float64, scaleM float64, water *raster.Grid) (*raster.Grid, error) {
	radiusPx := float64(runutil.DistanceKmToPixels(dispersalKm/2, scaleM))
	core := Dilate(c.CoreMask, radiusPx).MultiplyScalar(ClassCore).Unmask(0)
	step := Dilate(c.StepMask, radiusPx).Unmask(0)
	all, err := core.Add(step)
	if err != nil {
		return nil, err
	}
	all = all.SelfMask()
	if water != nil {
		return all.UpdateMask(water)
	}
	return all, nil
}
