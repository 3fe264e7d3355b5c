// internal/writers/registry.go
package writers

import (
	"fmt"
	"io"

	"github.com/paulmach/orb/geojson"
)

// Polygon writer registry (format → handler). Formats register from init()
// in their own files.
var polygonWriters = map[string]func(w io.Writer, fc *geojson.FeatureCollection) error{}

// RegisterPolygon installs a polygon-layer writer (last wins).
func RegisterPolygon(format string, fn func(io.Writer, *geojson.FeatureCollection) error) {
	polygonWriters[format] = fn
}

// PolygonFormats lists registered formats.
func PolygonFormats() []string {
	out := make([]string, 0, len(polygonWriters))
	for f := range polygonWriters {
		out = append(out, f)
	}
	return out
}

// WritePolygons dispatches the feature collection to the named format.
func WritePolygons(format string, w io.Writer, fc *geojson.FeatureCollection) error {
	fn, ok := polygonWriters[format]
	if !ok {
		return fmt.Errorf("unknown polygon format %q (no writer registered)", format)
	}
	return fn(w, fc)
}
