// internal/vector/vector_test.go
package vector

import (
	"context"
	"testing"

	"github.com/paulmach/orb"

	"github.com/SpeciesConservationLandscapes/task-scl-eff-pot-hab/internal/patch"
	"github.com/SpeciesConservationLandscapes/task-scl-eff-pot-hab/internal/pipeline"
	"github.com/SpeciesConservationLandscapes/task-scl-eff-pot-hab/internal/raster"
)

func TestVectorize(t *testing.T) {
	mask := maskFromRows([][]float64{
		{1, 1, 0, 1},
		{1, 1, 0, 0},
	})
	country := maskFromRows([][]float64{
		{5, 5, 0, 7},
		{5, 9, 0, 0},
	})
	area := maskFromRows([][]float64{
		{1, 1, 0, 1},
		{1, 1, 0, 0},
	})

	fc, err := Vectorize(mask, patch.Conn8, []Band{
		{Name: "country", Grid: country, Reduce: Mode},
		{Name: "area_km2", Grid: area, Reduce: Sum},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(fc.Features) != 2 {
		t.Fatalf("features = %d, want 2", len(fc.Features))
	}

	// scan order: the 4-pixel block first, the single pixel second
	f0 := fc.Features[0]
	if got := f0.Properties["country"]; got != 5.0 {
		t.Errorf("block country mode = %v, want 5", got)
	}
	if got := f0.Properties["area_km2"]; got != 4.0 {
		t.Errorf("block area sum = %v, want 4", got)
	}
	f1 := fc.Features[1]
	if got := f1.Properties["country"]; got != 7.0 {
		t.Errorf("pixel country = %v, want 7", got)
	}
	if got := f1.Properties["area_km2"]; got != 1.0 {
		t.Errorf("pixel area = %v, want 1", got)
	}
}

func TestVectorizeSplitsTouchingValues(t *testing.T) {
	// adjacent pixels with different eco-country codes are separate regions
	mask := maskFromRows([][]float64{{64101, 64102}})
	fc, err := Vectorize(mask, patch.Conn8, []Band{{Name: "sclpoly", Grid: mask, Reduce: Mode}})
	if err != nil {
		t.Fatal(err)
	}
	if len(fc.Features) != 2 {
		t.Fatalf("features = %d, want 2", len(fc.Features))
	}
	if got := fc.Features[0].Properties["sclpoly"]; got != 64101.0 {
		t.Errorf("first region code = %v, want 64101", got)
	}
	if got := fc.Features[1].Properties["sclpoly"]; got != 64102.0 {
		t.Errorf("second region code = %v, want 64102", got)
	}
}

func TestVectorizeModeTieBreaksLow(t *testing.T) {
	mask := maskFromRows([][]float64{{1, 1}})
	vals := maskFromRows([][]float64{{9, 4}})
	fc, err := Vectorize(mask, patch.Conn8, []Band{{Name: "v", Grid: vals, Reduce: Mode}})
	if err != nil {
		t.Fatal(err)
	}
	if got := fc.Features[0].Properties["v"]; got != 4.0 {
		t.Errorf("mode tie = %v, want 4", got)
	}
}

func TestVectorizeShapeMismatch(t *testing.T) {
	mask := maskFromRows([][]float64{{1, 1}})
	bad := maskFromRows([][]float64{{1}})
	if _, err := Vectorize(mask, patch.Conn8, []Band{{Name: "v", Grid: bad}}); err == nil {
		t.Error("mismatched band shape should error")
	}
}

func TestVectorizeSumSkipsNodata(t *testing.T) {
	mask := maskFromRows([][]float64{{1, 1, 1}})
	vals := maskFromRows([][]float64{{2, 0, 3}}) // middle pixel nodata
	fc, err := Vectorize(mask, patch.Conn8, []Band{{Name: "v", Grid: vals, Reduce: Sum}})
	if err != nil {
		t.Fatal(err)
	}
	if got := fc.Features[0].Properties["v"]; got != 5.0 {
		t.Errorf("sum = %v, want 5", got)
	}
}

func TestRasterize(t *testing.T) {
	template := raster.New(4, 4, [6]float64{0, 1, 0, 0, 0, -1}, "")
	// covers pixel centers in the 2x2 upper-left block
	poly := orb.Polygon{{{0, 0}, {2, 0}, {2, -2}, {0, -2}, {0, 0}}}

	got, err := Rasterize(context.Background(), pipeline.Config{Threads: 2, TileRows: 2},
		[]orb.Geometry{poly}, template)
	if err != nil {
		t.Fatal(err)
	}
	if got.CountValid() != 4 {
		t.Fatalf("burned pixels = %d, want 4", got.CountValid())
	}
	for _, px := range []struct{ x, y int }{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
		if _, ok := got.At(px.x, px.y); !ok {
			t.Errorf("pixel (%d,%d) should be burned", px.x, px.y)
		}
	}
	if _, ok := got.At(2, 2); ok {
		t.Error("pixel outside the polygon should stay nodata")
	}
}

func TestRasterizeEmpty(t *testing.T) {
	template := raster.New(2, 2, [6]float64{0, 1, 0, 0, 0, -1}, "")
	got, err := Rasterize(context.Background(), pipeline.Config{}, nil, template)
	if err != nil {
		t.Fatal(err)
	}
	if got.CountValid() != 0 {
		t.Errorf("burned pixels = %d, want 0", got.CountValid())
	}
}
