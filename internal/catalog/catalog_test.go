// internal/catalog/catalog_test.go
package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(DateFormat, s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestStatic(t *testing.T) {
	root := t.TempDir()
	c := Catalog{DataRoot: root, Species: "Panthera_tigris"}
	touch(t, filepath.Join(root, "Panthera_tigris", Zones))

	p, err := c.Static(Zones)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(p) != Zones {
		t.Errorf("Static path = %s", p)
	}
	if _, err := c.Static(Biomes); err == nil {
		t.Error("missing static input should error")
	}

	if got := c.StaticOptional(Zones); got == "" {
		t.Error("StaticOptional should find zones.tif")
	}
	if got := c.StaticOptional(WaterMask); got != "" {
		t.Errorf("StaticOptional for absent file = %q, want empty", got)
	}
}

func TestResolveCollection(t *testing.T) {
	root := t.TempDir()
	c := Catalog{DataRoot: root, Species: "Panthera_tigris"}
	dir := filepath.Join(root, "Panthera_tigris", StructuralHabitat)
	for _, d := range []string{"2019-06-01", "2020-01-01", "2020-06-01", "2021-01-01"} {
		touch(t, filepath.Join(dir, d+".tif"))
	}
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, "invalid-date.tif"))

	cases := []struct {
		name     string
		taskdate string
		wantDate string
		wantErr  bool
	}{
		{"exact match", "2020-06-01", "2020-06-01", false},
		{"most recent before", "2020-09-15", "2020-06-01", false},
		{"future entries skipped", "2020-03-01", "2020-01-01", false},
		{"too old", "2022-06-02", "", true},
		{"before all entries", "2019-01-01", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, d, err := c.ResolveCollection(StructuralHabitat, mustDate(t, tc.taskdate), 1)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("got %s, want error", p)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if d.Format(DateFormat) != tc.wantDate {
				t.Errorf("resolved %s, want %s", d.Format(DateFormat), tc.wantDate)
			}
			if filepath.Base(p) != tc.wantDate+".tif" {
				t.Errorf("path = %s", p)
			}
		})
	}

	if _, _, err := c.ResolveCollection(HII, mustDate(t, "2020-06-01"), 1); err == nil {
		t.Error("missing collection dir should error")
	}
}

func TestOutputsVersioning(t *testing.T) {
	o := Outputs{
		Root:     t.TempDir(),
		Species:  "Panthera_tigris",
		Scenario: "canonical",
		Taskdate: mustDate(t, "2020-06-01"),
	}

	p1, err := o.Path("scl_polys.geojson")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(p1) != "scl_polys.geojson" {
		t.Fatalf("first path = %s", p1)
	}
	touch(t, p1)

	p2, err := o.Path("scl_polys.geojson")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(p2) != "scl_polys_1.geojson" {
		t.Errorf("second path = %s, want scl_polys_1.geojson", p2)
	}
	touch(t, p2)

	p3, err := o.Path("scl_polys.geojson")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(p3) != "scl_polys_2.geojson" {
		t.Errorf("third path = %s, want scl_polys_2.geojson", p3)
	}
}

func TestOutputsOverwrite(t *testing.T) {
	o := Outputs{
		Root:      t.TempDir(),
		Species:   "Panthera_tigris",
		Scenario:  "canonical",
		Taskdate:  mustDate(t, "2020-06-01"),
		Overwrite: true,
	}
	p1, err := o.Path("potential_habitat.tif")
	if err != nil {
		t.Fatal(err)
	}
	touch(t, p1)
	p2, err := o.Path("potential_habitat.tif")
	if err != nil {
		t.Fatal(err)
	}
	if p1 != p2 {
		t.Errorf("overwrite paths differ: %s vs %s", p1, p2)
	}
}
