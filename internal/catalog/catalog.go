// internal/catalog/catalog.go
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DateFormat is the collection timestamp layout, shared with the CLI.
const DateFormat = "2006-01-02"

// Catalog resolves task inputs under <DataRoot>/<Species>/.
type Catalog struct {
	DataRoot string
	Species  string
}

// Collection input names.
const (
	StructuralHabitat = "structural_habitat"
	HII               = "hii"
)

// Static input names.
const (
	Zones           = "zones.tif"
	Ecoregions      = "ecoregions.tif"
	Countries       = "countries.tif"
	Biomes          = "biomes.tif"
	HistoricalRange = "historical_range.tif"
	WaterMask       = "water_mask.tif"
	ProtectedAreas  = "protected_areas.tif"
	DensityFC       = "density.geojson"
	ExtirpatedFC    = "extirpated_range.geojson"
)

func (c Catalog) speciesDir() string { return filepath.Join(c.DataRoot, c.Species) }

// Static returns the path of a static input, erroring if it is absent.
func (c Catalog) Static(name string) (string, error) {
	p := filepath.Join(c.speciesDir(), name)
	if _, err := os.Stat(p); err != nil {
		return "", fmt.Errorf("catalog: missing input %s: %w", p, err)
	}
	return p, nil
}

// StaticOptional returns the path of a static input, or "" if absent.
func (c Catalog) StaticOptional(name string) string {
	p := filepath.Join(c.speciesDir(), name)
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

// ResolveCollection finds the most recent dated image of a collection at or
// before taskdate and within maxAgeYears of it. Collection entries are files
// named YYYY-MM-DD.tif under <species>/<name>/.
func (c Catalog) ResolveCollection(name string, taskdate time.Time, maxAgeYears int) (string, time.Time, error) {
	dir := filepath.Join(c.speciesDir(), name)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("catalog: read collection %s: %w", dir, err)
	}
	var dates []time.Time
	byDate := map[time.Time]string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".tif") {
			continue
		}
		d, err := time.Parse(DateFormat, strings.TrimSuffix(e.Name(), ".tif"))
		if err != nil {
			continue
		}
		dates = append(dates, d)
		byDate[d] = filepath.Join(dir, e.Name())
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })

	oldest := taskdate.AddDate(-maxAgeYears, 0, 0)
	for _, d := range dates {
		if d.After(taskdate) {
			continue
		}
		if d.Before(oldest) {
			break
		}
		return byDate[d], d, nil
	}
	return "", time.Time{}, fmt.Errorf(
		"catalog: no %s image within %d year(s) before %s under %s",
		name, maxAgeYears, taskdate.Format(DateFormat), dir)
}

// Outputs builds target paths under <Root>/<Species>/<Scenario>/<taskdate>/.
// Without Overwrite, an existing target gets an incrementing _N suffix so
// prior runs are never clobbered.
type Outputs struct {
	Root      string
	Species   string
	Scenario  string
	Taskdate  time.Time
	Overwrite bool
}

// Dir returns the dated output directory, creating it.
func (o Outputs) Dir() (string, error) {
	d := filepath.Join(o.Root, o.Species, o.Scenario, o.Taskdate.Format(DateFormat))
	if err := os.MkdirAll(d, 0o755); err != nil {
		return "", fmt.Errorf("catalog: create output dir: %w", err)
	}
	return d, nil
}

// Path returns the path to write artifact name (with extension) to,
// applying the overwrite/versioning contract.
func (o Outputs) Path(name string) (string, error) {
	dir, err := o.Dir()
	if err != nil {
		return "", err
	}
	target := filepath.Join(dir, name)
	if o.Overwrite {
		return target, nil
	}
	if _, err := os.Stat(target); os.IsNotExist(err) {
		return target, nil
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for v := 1; ; v++ {
		p := filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, v, ext))
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return p, nil
		}
	}
}
