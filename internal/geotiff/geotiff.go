// internal/geotiff/geotiff.go
package geotiff

import (
	"fmt"
	"math"
	"sync"

	"github.com/airbusgeo/godal"

	"github.com/SpeciesConservationLandscapes/task-scl-eff-pot-hab/internal/raster"
)

// The pipeline's nodata sentinel for written rasters.
const noDataValue = -9999

var registerOnce sync.Once

func register() { registerOnce.Do(godal.RegisterAll) }

// IO implements the raster store on GeoTIFF files via GDAL. It satisfies
// appcore.RasterIO.
type IO struct{}

// ReadGrid loads band 1 of a GeoTIFF into a Grid, translating the file's
// nodata value (and NaN) into mask entries.
func (IO) ReadGrid(path string) (*raster.Grid, error) {
	register()
	ds, err := godal.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geotiff: open %s: %w", path, err)
	}
	defer ds.Close()

	st := ds.Structure()
	if st.NBands < 1 {
		return nil, fmt.Errorf("geotiff: %s has no bands", path)
	}
	gt, err := ds.GeoTransform()
	if err != nil {
		return nil, fmt.Errorf("geotiff: %s: no geotransform: %w", path, err)
	}
	g := raster.New(st.SizeX, st.SizeY, gt, ds.Projection())

	band := ds.Bands()[0]
	if err := band.Read(0, 0, g.Data, st.SizeX, st.SizeY); err != nil {
		return nil, fmt.Errorf("geotiff: read %s: %w", path, err)
	}
	nodata, hasNodata := band.NoData()
	for i, v := range g.Data {
		if math.IsNaN(v) || (hasNodata && v == nodata) {
			g.Data[i] = 0
			g.Valid[i] = false
		}
	}
	return g, nil
}

// WriteGrid writes a single-band Float64 GeoTIFF.
func (IO) WriteGrid(path string, g *raster.Grid) error {
	return writeBands(path, []*raster.Grid{g}, nil)
}

// WriteBands writes a multi-band Float64 GeoTIFF; names, when given, are
// recorded as band descriptions.
func (IO) WriteBands(path string, grids []*raster.Grid, names []string) error {
	return writeBands(path, grids, names)
}

func writeBands(path string, grids []*raster.Grid, names []string) error {
	register()
	if len(grids) == 0 {
		return fmt.Errorf("geotiff: nothing to write to %s", path)
	}
	w, h := grids[0].W, grids[0].H
	for i, g := range grids {
		if g.W != w || g.H != h {
			return fmt.Errorf("geotiff: band %d shape %dx%d vs %dx%d", i+1, g.W, g.H, w, h)
		}
	}

	ds, err := godal.Create(godal.GTiff, path, len(grids), godal.Float64, w, h,
		godal.CreationOption("COMPRESS=DEFLATE", "TILED=YES"))
	if err != nil {
		return fmt.Errorf("geotiff: create %s: %w", path, err)
	}
	defer ds.Close()

	if err := ds.SetGeoTransform(grids[0].GT); err != nil {
		return fmt.Errorf("geotiff: %s: set geotransform: %w", path, err)
	}
	if grids[0].Proj != "" {
		if err := ds.SetProjection(grids[0].Proj); err != nil {
			return fmt.Errorf("geotiff: %s: set projection: %w", path, err)
		}
	}
	if err := ds.SetNoData(noDataValue); err != nil {
		return fmt.Errorf("geotiff: %s: set nodata: %w", path, err)
	}

	buf := make([]float64, w*h)
	for bi, g := range grids {
		for i, v := range g.Data {
			if g.Valid[i] {
				buf[i] = v
			} else {
				buf[i] = noDataValue
			}
		}
		band := ds.Bands()[bi]
		if err := band.Write(0, 0, buf, w, h); err != nil {
			return fmt.Errorf("geotiff: write %s band %d: %w", path, bi+1, err)
		}
		if names != nil && bi < len(names) {
			if err := band.SetMetadata("DESCRIPTION", names[bi]); err != nil {
				return fmt.Errorf("geotiff: %s: band %d name: %w", path, bi+1, err)
			}
		}
	}
	return nil
}
