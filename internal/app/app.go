// internal/app/app.go
package app

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/SpeciesConservationLandscapes/task-scl-eff-pot-hab/internal/appcore"
	"github.com/SpeciesConservationLandscapes/task-scl-eff-pot-hab/internal/cli"
	"github.com/SpeciesConservationLandscapes/task-scl-eff-pot-hab/internal/config"
	"github.com/SpeciesConservationLandscapes/task-scl-eff-pot-hab/internal/logutil"
	"github.com/SpeciesConservationLandscapes/task-scl-eff-pot-hab/internal/version"
	"github.com/SpeciesConservationLandscapes/task-scl-eff-pot-hab/internal/writers"
)

// RunContext parses argv, loads parameters, and runs the task with the
// given raster store. Returns the process exit code.
func RunContext(parent context.Context, argv []string, getenv func(string) string, rio appcore.RasterIO, stdout, stderr io.Writer) int {
	outw := bufio.NewWriter(stdout)
	defer func() { _ = outw.Flush() }()

	fs := cli.NewFlagSet("scl-eff-pot-hab")
	fs.SetOutput(io.Discard)

	opts, err := cli.ParseArgs(fs, argv, getenv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fs.SetOutput(outw)
			fs.Usage()
			if e := outw.Flush(); writers.IsBrokenPipe(e) {
				return 0
			} else if e != nil {
				_, _ = fmt.Fprintln(stderr, e)
				return 3
			}
			return 0
		}
		_, _ = fmt.Fprintln(stderr, err)
		fs.SetOutput(outw)
		fs.Usage()
		if e := outw.Flush(); writers.IsBrokenPipe(e) {
			return 0
		} else if e != nil {
			_, _ = fmt.Fprintln(stderr, e)
			return 3
		}
		return 2
	}

	if opts.Version {
		_, _ = fmt.Fprintf(outw, "scl-eff-pot-hab version %s\n", version.Version)
		if e := outw.Flush(); writers.IsBrokenPipe(e) {
			return 0
		} else if e != nil {
			_, _ = fmt.Fprintln(stderr, e)
			return 3
		}
		return 0
	}

	params, err := config.Load(opts.ConfigFile)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}

	log := logutil.New(stderr, opts.Quiet)
	defer func() { _ = log.Sync() }()

	coreOpts := appcore.Options{
		Taskdate: opts.Taskdate, Species: opts.Species, Scenario: opts.Scenario,
		Overwrite: opts.Overwrite,
		DataRoot:  opts.DataRoot, OutputRoot: opts.OutputRoot,
		Threads: opts.Threads, TileRows: opts.TileRows,
		Format: opts.Format, Quiet: opts.Quiet, NoSummary: opts.NoSummary,
	}
	return appcore.Run(parent, outw, stderr, coreOpts, params, rio, log)
}
