// internal/raster/ops_test.go
package raster

import (
	"math"
	"testing"
)

func wgs84Grid(w, h int, vals []float64) *Grid {
	g := New(w, h, [6]float64{100, 0.01, 0, 0, 0, -0.01}, "")
	copy(g.Data, vals)
	return g
}

func TestThresholdMasks(t *testing.T) {
	g := wgs84Grid(2, 2, []float64{0.2, 0.5, 0.7, 0.9})

	m := g.Gte(0.5)
	wantValid := []bool{false, true, true, true}
	for i, want := range wantValid {
		if m.Valid[i] != want {
			t.Errorf("Gte mask pixel %d: valid=%v want %v", i, m.Valid[i], want)
		}
		if m.Valid[i] && m.Data[i] != 1 {
			t.Errorf("Gte mask pixel %d: value %v want 1", i, m.Data[i])
		}
	}

	lt := g.Lt(0.5)
	if lt.CountValid() != 1 {
		t.Errorf("Lt mask: %d valid pixels, want 1", lt.CountValid())
	}
}

func TestThresholdIgnoresNodata(t *testing.T) {
	g := wgs84Grid(2, 1, []float64{5, 5})
	g.SetNoData(1, 0)
	m := g.Gt(0)
	if m.CountValid() != 1 {
		t.Errorf("mask counted nodata input: %d valid, want 1", m.CountValid())
	}
}

func TestUpdateMaskAndSelfMask(t *testing.T) {
	g := wgs84Grid(3, 1, []float64{1, 2, 0})
	mask := wgs84Grid(3, 1, []float64{1, 0, 1})

	got, err := g.UpdateMask(mask)
	if err != nil {
		t.Fatal(err)
	}
	if got.CountValid() != 2 {
		t.Fatalf("UpdateMask: %d valid, want 2 (zero mask pixels drop)", got.CountValid())
	}
	if _, ok := got.At(1, 0); ok {
		t.Error("pixel under zero-valued mask should be nodata")
	}

	sm := got.SelfMask()
	if sm.CountValid() != 1 {
		t.Errorf("SelfMask: %d valid, want 1 (zero value drops)", sm.CountValid())
	}
}

func TestUpdateMaskShapeMismatch(t *testing.T) {
	g := wgs84Grid(2, 1, []float64{1, 1})
	o := wgs84Grid(3, 1, []float64{1, 1, 1})
	if _, err := g.UpdateMask(o); err == nil {
		t.Fatal("expected shape mismatch error")
	}
}

func TestUnmaskAndAdd(t *testing.T) {
	a := wgs84Grid(2, 1, []float64{1, 2})
	a.SetNoData(1, 0)
	b := wgs84Grid(2, 1, []float64{10, 20})

	sum, err := a.Unmask(0).Add(b)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := sum.At(0, 0); v != 11 {
		t.Errorf("sum(0,0) = %v, want 11", v)
	}
	if v, _ := sum.At(1, 0); v != 20 {
		t.Errorf("sum(1,0) = %v, want 20 (nodata unmasked to 0)", v)
	}
}

func TestRemap(t *testing.T) {
	g := wgs84Grid(4, 1, []float64{1, 2, 3, 9})

	strict, err := g.Remap([]float64{1, 2, 3}, []float64{10, 20, 30}, true)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := strict.At(1, 0); v != 20 {
		t.Errorf("strict remap value: %v want 20", v)
	}
	if _, ok := strict.At(3, 0); ok {
		t.Error("strict remap should drop unlisted value 9")
	}

	loose, err := g.Remap([]float64{1}, []float64{10}, false)
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := loose.At(3, 0); !ok || v != 9 {
		t.Errorf("loose remap should pass through 9, got %v ok=%v", v, ok)
	}

	if _, err := g.Remap([]float64{1}, []float64{}, true); err == nil {
		t.Error("expected table length mismatch error")
	}
}

func TestWhere(t *testing.T) {
	g := wgs84Grid(2, 1, []float64{0, 0})
	cond := wgs84Grid(2, 1, []float64{1, 0})
	got, err := g.Where(cond, 7)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := got.At(0, 0); v != 7 {
		t.Errorf("Where hit: %v want 7", v)
	}
	if v, _ := got.At(1, 0); v != 0 {
		t.Errorf("Where miss: %v want 0", v)
	}
}

func TestAggregateMean(t *testing.T) {
	// 4x4 → 2x2 with factor 2
	g := wgs84Grid(4, 4, []float64{
		1, 1, 0, 0,
		1, 1, 0, 2,
		5, 5, 1, 1,
		5, 5, 1, 1,
	})
	got, err := g.AggregateMean(2)
	if err != nil {
		t.Fatal(err)
	}
	if got.W != 2 || got.H != 2 {
		t.Fatalf("aggregated shape %dx%d, want 2x2", got.W, got.H)
	}
	cases := []struct {
		x, y int
		want float64
	}{
		{0, 0, 1}, {1, 0, 0.5}, {0, 1, 5}, {1, 1, 1},
	}
	for _, c := range cases {
		if v, _ := got.At(c.x, c.y); v != c.want {
			t.Errorf("block (%d,%d) = %v, want %v", c.x, c.y, v, c.want)
		}
	}
	// geotransform scales with the factor
	if math.Abs(got.GT[1]-0.02) > 1e-12 {
		t.Errorf("aggregated pixel width %v, want 0.02", got.GT[1])
	}
}

func TestAggregateMeanSkipsNodata(t *testing.T) {
	g := wgs84Grid(2, 2, []float64{4, 0, 0, 0})
	g.SetNoData(0, 1)
	g.SetNoData(1, 0)
	g.SetNoData(1, 1)
	got, err := g.AggregateMean(2)
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := got.At(0, 0); !ok || v != 4 {
		t.Errorf("mean over single valid pixel = %v ok=%v, want 4", v, ok)
	}

	all := New(2, 2, g.GT, "")
	for i := range all.Valid {
		all.Valid[i] = false
	}
	got, err = all.AggregateMean(2)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got.At(0, 0); ok {
		t.Error("block with no valid contributors should be nodata")
	}
}

func TestAggregateMeanBadFactor(t *testing.T) {
	g := wgs84Grid(2, 1, []float64{1, 1})
	if _, err := g.AggregateMean(0); err == nil {
		t.Fatal("expected error for factor 0")
	}
}
