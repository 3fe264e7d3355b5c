// internal/cli/options.go
package cli

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"time"

	"github.com/SpeciesConservationLandscapes/task-scl-eff-pot-hab/internal/catalog"
	"github.com/SpeciesConservationLandscapes/task-scl-eff-pot-hab/internal/version"
)

// Defaults shared with the usage text.
const (
	DefaultSpecies  = "Panthera_tigris"
	DefaultScenario = "canonical"
	DefaultFormat   = "geojson"
)

// Options holds all CLI flags and arguments. Every flag may also come from
// the environment (flag wins); see the env names in ParseArgs.
type Options struct {
	TaskdateRaw string
	Taskdate    time.Time
	Species     string
	Scenario    string
	Overwrite   bool

	ConfigFile string
	DataRoot   string
	OutputRoot string

	Threads  int
	TileRows int

	Format    string
	Quiet     bool
	NoSummary bool

	Version bool
}

// NewFlagSet returns a configured FlagSet with custom usage/help.
func NewFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(),
			`%s: species effective potential habitat

Masks structural habitat by per-zone human-impact thresholds, filters
patches with a dispersal-aware stepping-stone rule, and emits the habitat
raster, the multi-band SCL classification raster, and the SCL polygons.

All flags may also be supplied as environment variables.

Version: %s

Usage of %s:
`, name, version.Version, name)
		fs.PrintDefaults()
	}
	return fs
}

// ParseArgs registers and parses all flags, applying getenv fallback for
// unset flags, and returns an Options struct.
func ParseArgs(fs *flag.FlagSet, argv []string, getenv func(string) string) (Options, error) {
	var opt Options
	var help bool
	if getenv == nil {
		getenv = func(string) string { return "" }
	}

	// Task identity
	fs.StringVar(&opt.TaskdateRaw, "d", "", "")
	fs.StringVar(&opt.TaskdateRaw, "taskdate", "", "task date YYYY-MM-DD (env TASKDATE) [today]")
	fs.StringVar(&opt.Species, "s", "", "")
	fs.StringVar(&opt.Species, "species", "", "species directory name (env SPECIES) ["+DefaultSpecies+"]")
	fs.StringVar(&opt.Scenario, "scenario", "", "scenario name for the output path (env SCENARIO) ["+DefaultScenario+"]")
	fs.BoolVar(&opt.Overwrite, "overwrite", false, "overwrite existing outputs instead of incrementing versions (env OVERWRITE) [false]")

	// Locations
	fs.StringVar(&opt.ConfigFile, "config", "", "species parameter YAML (env SCL_CONFIG) [built-in defaults]")
	fs.StringVar(&opt.DataRoot, "data-root", "", "input root directory (env SCL_DATA_ROOT) [./data]")
	fs.StringVar(&opt.OutputRoot, "output-root", "", "output root directory (env SCL_OUTPUT_ROOT) [./output]")

	// Performance
	fs.IntVar(&opt.Threads, "threads", 0, "worker threads (0 = all CPUs) (env SCL_THREADS) [0]")
	fs.IntVar(&opt.TileRows, "tile-rows", 0, "rows per tile for pixel-local stages (0 = auto) (env SCL_TILE_ROWS) [0]")

	// Output
	fs.StringVar(&opt.Format, "format", "", "polygon layer format: geojson | ndjson (env SCL_FORMAT) ["+DefaultFormat+"]")
	fs.BoolVar(&opt.Quiet, "quiet", false, "log warnings and errors only [false]")
	fs.BoolVar(&opt.NoSummary, "no-summary", false, "suppress the run summary on stdout [false]")

	fs.BoolVar(&opt.Version, "v", false, "print version and exit (shorthand) [false]")
	fs.BoolVar(&opt.Version, "version", false, "print version and exit [false]")
	fs.BoolVar(&help, "h", false, "show this help message (shorthand) [false]")

	if err := fs.Parse(argv); err != nil {
		return opt, err
	}
	if help {
		fs.Usage()
		return opt, flag.ErrHelp
	}
	if opt.Version {
		return opt, nil
	}

	// Environment fallback: a flag left at its zero value takes the env
	// value; explicit flags always win.
	fallback := func(dst *string, env, def string) {
		if *dst == "" {
			if v := getenv(env); v != "" {
				*dst = v
			} else {
				*dst = def
			}
		}
	}
	fallback(&opt.TaskdateRaw, "TASKDATE", time.Now().UTC().Format(catalog.DateFormat))
	fallback(&opt.Species, "SPECIES", DefaultSpecies)
	fallback(&opt.Scenario, "SCENARIO", DefaultScenario)
	fallback(&opt.ConfigFile, "SCL_CONFIG", "")
	fallback(&opt.DataRoot, "SCL_DATA_ROOT", "./data")
	fallback(&opt.OutputRoot, "SCL_OUTPUT_ROOT", "./output")
	fallback(&opt.Format, "SCL_FORMAT", DefaultFormat)
	if !opt.Overwrite {
		opt.Overwrite = envBool(getenv("OVERWRITE"))
	}
	if opt.Threads == 0 {
		if n, err := strconv.Atoi(getenv("SCL_THREADS")); err == nil {
			opt.Threads = n
		}
	}
	if opt.TileRows == 0 {
		if n, err := strconv.Atoi(getenv("SCL_TILE_ROWS")); err == nil {
			opt.TileRows = n
		}
	}

	// Validation
	d, err := time.Parse(catalog.DateFormat, opt.TaskdateRaw)
	if err != nil {
		return opt, fmt.Errorf("invalid --taskdate %q (want YYYY-MM-DD)", opt.TaskdateRaw)
	}
	opt.Taskdate = d
	if opt.Species == "" {
		return opt, errors.New("--species must not be empty")
	}
	if opt.Threads < 0 {
		return opt, errors.New("--threads must be >= 0")
	}
	if opt.TileRows < 0 {
		return opt, errors.New("--tile-rows must be >= 0")
	}
	if opt.Format != "geojson" && opt.Format != "ndjson" {
		return opt, fmt.Errorf("invalid --format %q", opt.Format)
	}
	return opt, nil
}

func envBool(s string) bool {
	switch s {
	case "1", "true", "TRUE", "True", "yes", "YES":
		return true
	}
	return false
}
