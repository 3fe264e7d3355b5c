// cmd/scl-eff-pot-hab/main.go
package main

import (
	"context"
	"io"

	"github.com/SpeciesConservationLandscapes/task-scl-eff-pot-hab/internal/app"
	"github.com/SpeciesConservationLandscapes/task-scl-eff-pot-hab/internal/appshell"
	"github.com/SpeciesConservationLandscapes/task-scl-eff-pot-hab/internal/geotiff"
)

func main() {
	appshell.Main(func(ctx context.Context, argv []string, getenv func(string) string, stdout, stderr io.Writer) int {
		return app.RunContext(ctx, argv, getenv, geotiff.IO{}, stdout, stderr)
	})
}
