// internal/appcore/core.go
package appcore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/SpeciesConservationLandscapes/task-scl-eff-pot-hab/internal/catalog"
	"github.com/SpeciesConservationLandscapes/task-scl-eff-pot-hab/internal/config"
	"github.com/SpeciesConservationLandscapes/task-scl-eff-pot-hab/internal/habitat"
	"github.com/SpeciesConservationLandscapes/task-scl-eff-pot-hab/internal/patch"
	"github.com/SpeciesConservationLandscapes/task-scl-eff-pot-hab/internal/pipeline"
	"github.com/SpeciesConservationLandscapes/task-scl-eff-pot-hab/internal/raster"
	"github.com/SpeciesConservationLandscapes/task-scl-eff-pot-hab/internal/runutil"
	"github.com/SpeciesConservationLandscapes/task-scl-eff-pot-hab/internal/scl"
	"github.com/SpeciesConservationLandscapes/task-scl-eff-pot-hab/internal/vector"
	"github.com/SpeciesConservationLandscapes/task-scl-eff-pot-hab/internal/writers"
)

// RasterIO abstracts GeoTIFF access so the task wiring stays testable
// without a GDAL install; geotiff.IO is the production implementation.
type RasterIO interface {
	ReadGrid(path string) (*raster.Grid, error)
	WriteGrid(path string, g *raster.Grid) error
	WriteBands(path string, grids []*raster.Grid, names []string) error
}

// Input collection max ages, in years.
const (
	maxAgeStructural = 1
	maxAgeHII        = 1
)

// Options carries everything Run needs besides the parameter file.
type Options struct {
	Taskdate  time.Time
	Species   string
	Scenario  string
	Overwrite bool

	DataRoot   string
	OutputRoot string

	Threads  int
	TileRows int

	Format    string
	Quiet     bool
	NoSummary bool
}

// inputs are the loaded per-task grids and feature tables.
type inputs struct {
	structural     *raster.Grid
	structuralDate time.Time
	hii            *raster.Grid
	hiiDate        time.Time
	zones          *raster.Grid
	water          *raster.Grid // optional, fine scale
	ecoregions     *raster.Grid // working scale
	countries      *raster.Grid
	biomes         *raster.Grid
	historical     *raster.Grid
	pas            *raster.Grid // optional
	density        []catalog.DensityRecord
	extirpated     *raster.Grid // rasterized onto the working grid
}

// Run executes the whole task and returns a process exit code: 0 success,
// 2 input/validation error, 3 runtime error, 130 canceled.
func Run(ctx context.Context, stdout, stderr io.Writer, o Options, params config.Params, rio RasterIO, log *zap.Logger) int {
	tileRows, warns := runutil.ValidateTiling(o.TileRows)
	for _, w := range warns {
		fmt.Fprintln(stderr, w)
	}
	pcfg := pipeline.Config{Threads: o.Threads, TileRows: tileRows}

	in, code := loadInputs(ctx, o, rio, pcfg, stderr, log)
	if code != 0 {
		return code
	}

	sum, err := calc(ctx, o, params, rio, in, log)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return 130
		}
		fmt.Fprintln(stderr, err)
		return 3
	}

	if !o.NoSummary {
		if err := writers.WriteSummary(stdout, *sum); writers.IsBrokenPipe(err) {
			return 0
		} else if err != nil {
			fmt.Fprintln(stderr, err)
			return 3
		}
	}
	return 0
}

// loadInputs resolves and reads every task input, fetching independent
// files concurrently. Validation failures exit 2, read failures 3.
func loadInputs(ctx context.Context, o Options, rio RasterIO, pcfg pipeline.Config, stderr io.Writer, log *zap.Logger) (*inputs, int) {
	cat := catalog.Catalog{DataRoot: o.DataRoot, Species: o.Species}
	in := &inputs{}

	structuralPath, structuralDate, err := cat.ResolveCollection(catalog.StructuralHabitat, o.Taskdate, maxAgeStructural)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return nil, 2
	}
	hiiPath, hiiDate, err := cat.ResolveCollection(catalog.HII, o.Taskdate, maxAgeHII)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return nil, 2
	}
	in.structuralDate = structuralDate
	in.hiiDate = hiiDate
	log.Info("resolved inputs",
		zap.String("structural_habitat", structuralPath),
		zap.String("hii", hiiPath))

	statics := []struct {
		name string
		dst  **raster.Grid
	}{
		{catalog.Zones, &in.zones},
		{catalog.Ecoregions, &in.ecoregions},
		{catalog.Countries, &in.countries},
		{catalog.Biomes, &in.biomes},
		{catalog.HistoricalRange, &in.historical},
	}

	stages := []pipeline.Stage{
		{Name: "structural_habitat", Fn: func(context.Context) error {
			g, err := rio.ReadGrid(structuralPath)
			in.structural = g
			return err
		}},
		{Name: "hii", Fn: func(context.Context) error {
			g, err := rio.ReadGrid(hiiPath)
			in.hii = g
			return err
		}},
		{Name: "density", Fn: func(context.Context) error {
			p, err := cat.Static(catalog.DensityFC)
			if err != nil {
				return err
			}
			in.density, err = catalog.LoadDensity(p)
			return err
		}},
	}
	for _, s := range statics {
		s := s
		path, err := cat.Static(s.name)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return nil, 2
		}
		stages = append(stages, pipeline.Stage{Name: s.name, Fn: func(context.Context) error {
			g, err := rio.ReadGrid(path)
			*s.dst = g
			return err
		}})
	}
	for _, opt := range []struct {
		name string
		dst  **raster.Grid
	}{
		{catalog.WaterMask, &in.water},
		{catalog.ProtectedAreas, &in.pas},
	} {
		opt := opt
		p := cat.StaticOptional(opt.name)
		if p == "" {
			log.Info("optional input absent", zap.String("input", opt.name))
			continue
		}
		stages = append(stages, pipeline.Stage{Name: opt.name, Fn: func(context.Context) error {
			g, err := rio.ReadGrid(p)
			*opt.dst = g
			return err
		}})
	}
	if err := pipeline.Run(ctx, stages...); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, 130
		}
		fmt.Fprintln(stderr, err)
		return nil, 3
	}

	// the extirpated layer is a dated feature collection, rasterized onto
	// the working grid once the statics are in
	extPath, err := cat.Static(catalog.ExtirpatedFC)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return nil, 2
	}
	geoms, err := catalog.ExtirpatedGeometries(extPath, o.Taskdate)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return nil, 2
	}
	in.extirpated, err = vector.Rasterize(ctx, pcfg, geoms, in.ecoregions)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, 130
		}
		fmt.Fprintln(stderr, err)
		return nil, 3
	}
	return in, 0
}

// calc is the task body: mask, patch-filter, grow, compose, vectorize,
// export.
func calc(ctx context.Context, o Options, params config.Params, rio RasterIO, in *inputs, log *zap.Logger) (*writers.Summary, error) {
	byZone, err := params.HIIByZone()
	if err != nil {
		return nil, err
	}
	factor, warns := runutil.ReduceFactor(in.structural.NominalScaleM(), params.ScaleM)
	for _, w := range warns {
		log.Warn(w)
	}

	eng := habitat.New(habitat.Config{
		StructuralHabitat:  params.Thresholds.StructuralHabitat,
		ReduceResolution:   params.Thresholds.ReduceResolution,
		StructuralPatchKm2: params.Thresholds.StructuralPatchKm2,
		HIIByZone:          byZone,
	})
	res, err := eng.Calc(habitat.Inputs{
		StructuralHabitat: in.structural,
		HII:               in.hii,
		Zones:             in.zones,
		Water:             in.water,
	}, factor)
	if err != nil {
		return nil, err
	}
	if !res.EffPotHab.SameShape(in.ecoregions) {
		return nil, fmt.Errorf(
			"appcore: working grid %dx%d does not match static rasters %dx%d; check scale_m",
			res.EffPotHab.W, res.EffPotHab.H, in.ecoregions.W, in.ecoregions.H)
	}
	log.Info("habitat masked",
		zap.Int("habitat_pixels", res.EffPotHab.CountValid()),
		zap.Int("excluded_pixels", res.ExclHab.CountValid()))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// patch sizing and stepping-stone classification
	coreByEco := make(map[float64]float64, len(in.density))
	for _, d := range in.density {
		coreByEco[d.EcoID] = patch.MinCoreKm2(d.MedDensityEco, d.MedDensityBiome, params.Density)
	}
	minCore, minStep := patch.SizeGrids(in.ecoregions, coreByEco, params.Density)
	cls, err := patch.Classify(res.EffPotHab, patch.Conn8, minCore, minStep)
	if err != nil {
		return nil, err
	}
	log.Info("patches classified",
		zap.Int("patches", cls.Labels.NLabels()),
		zap.Int("core_pixels", cls.CoreMask.CountValid()),
		zap.Int("step_pixels", cls.StepMask.CountValid()))

	var coarseWater *raster.Grid
	if in.water != nil {
		cw, err := in.water.Unmask(0).AggregateMean(factor)
		if err != nil {
			return nil, err
		}
		coarseWater = cw.Gte(0.5)
	}
	allPotential, err := patch.GrowDispersal(cls, params.Thresholds.DispersalKm, params.ScaleM, coarseWater)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rangeClass, err := habitat.RangeClass(in.historical, in.extirpated)
	if err != nil {
		return nil, err
	}

	image, err := scl.Compose(scl.Inputs{
		AllPotential:   allPotential,
		RangeClass:     rangeClass,
		Country:        in.countries,
		Ecoregion:      in.ecoregions,
		Biome:          in.biomes,
		MinPatch:       minCore,
		MinStep:        minStep,
		EffPotHab:      res.EffPotHab,
		Connected:      res.Connected,
		ProtectedAreas: in.pas,
		Water:          coarseWater,
	})
	if err != nil {
		return nil, err
	}

	sclPoly, err := image.Band("scl_poly")
	if err != nil {
		return nil, err
	}
	fc, err := vector.Vectorize(sclPoly, patch.Conn8, image.VectorBands())
	if err != nil {
		return nil, err
	}
	polys := scl.AttributePolygons(fc)
	log.Info("vectorized", zap.Int("polygons", len(polys.Features)))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// exports
	outs := catalog.Outputs{
		Root: o.OutputRoot, Species: o.Species, Scenario: o.Scenario,
		Taskdate: o.Taskdate, Overwrite: o.Overwrite,
	}
	habitatPath, err := outs.Path("potential_habitat.tif")
	if err != nil {
		return nil, err
	}
	imagePath, err := outs.Path("scl_image.tif")
	if err != nil {
		return nil, err
	}
	polysPath, err := outs.Path("scl_polys." + polygonExt(o.Format))
	if err != nil {
		return nil, err
	}

	err = pipeline.Run(ctx,
		pipeline.Stage{Name: "potential_habitat", Fn: func(context.Context) error {
			return rio.WriteGrid(habitatPath, res.Connected)
		}},
		pipeline.Stage{Name: "scl_image", Fn: func(context.Context) error {
			return rio.WriteBands(imagePath, image.Grids, image.Names)
		}},
		pipeline.Stage{Name: "scl_polys", Fn: func(context.Context) error {
			return writePolygons(polysPath, o.Format, polys)
		}},
	)
	if err != nil {
		return nil, err
	}
	log.Info("exported",
		zap.String("potential_habitat", habitatPath),
		zap.String("scl_image", imagePath),
		zap.String("scl_polys", polysPath))

	habitatArea := 0.0
	area := res.EffPotHab.PixelAreaKm2()
	for i, ok := range res.EffPotHab.Valid {
		if ok {
			habitatArea += area.Data[i]
		}
	}
	return &writers.Summary{
		Taskdate:       o.Taskdate.Format(catalog.DateFormat),
		Species:        o.Species,
		Scenario:       o.Scenario,
		StructuralDate: in.structuralDate.Format(catalog.DateFormat),
		HIIDate:        in.hiiDate.Format(catalog.DateFormat),
		Patches:        cls.Labels.NLabels(),
		CorePixels:     cls.CoreMask.CountValid(),
		StepPixels:     cls.StepMask.CountValid(),
		Polygons:       len(polys.Features),
		HabitatAreaKm2: habitatArea,
		HabitatPath:    habitatPath,
		ImagePath:      imagePath,
		PolysPath:      polysPath,
	}, nil
}

func polygonExt(format string) string {
	if format == "ndjson" {
		return "ndjson"
	}
	return "geojson"
}

func writePolygons(path, format string, fc *geojson.FeatureCollection) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("appcore: create %s: %w", path, err)
	}
	in, werr := writers.StartPolygonWriter(f, format, len(fc.Features))
	for _, feat := range fc.Features {
		in <- feat
	}
	close(in)
	err = <-werr
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
