// internal/writers/summary.go
package writers

import (
	"fmt"
	"io"
)

// Summary is the run report printed after a successful task.
type Summary struct {
	Taskdate string
	Species  string
	Scenario string

	StructuralDate string
	HIIDate        string

	Patches        int
	CorePixels     int
	StepPixels     int
	Polygons       int
	HabitatAreaKm2 float64

	HabitatPath string
	ImagePath   string
	PolysPath   string
}

// WriteSummary prints the run report as aligned key/value text.
func WriteSummary(w io.Writer, s Summary) error {
	rows := []struct {
		k string
		v interface{}
	}{
		{"taskdate", s.Taskdate},
		{"species", s.Species},
		{"scenario", s.Scenario},
		{"structural_habitat", s.StructuralDate},
		{"hii", s.HIIDate},
		{"habitat_patches", s.Patches},
		{"core_pixels", s.CorePixels},
		{"stepping_stone_pixels", s.StepPixels},
		{"polygons", s.Polygons},
		{"habitat_area_km2", fmt.Sprintf("%.1f", s.HabitatAreaKm2)},
		{"potential_habitat", s.HabitatPath},
		{"scl_image", s.ImagePath},
		{"scl_polys", s.PolysPath},
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%-22s %v\n", r.k, r.v); err != nil {
			return err
		}
	}
	return nil
}
