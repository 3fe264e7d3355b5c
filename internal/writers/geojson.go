// internal/writers/geojson.go
package writers

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/paulmach/orb/geojson"

	"github.com/SpeciesConservationLandscapes/task-scl-eff-pot-hab/internal/jsonutil"
)

func init() {
	RegisterPolygon("geojson", writeGeoJSON)
	RegisterPolygon("ndjson", writeNDJSON)
}

// writeGeoJSON emits the whole FeatureCollection as indented GeoJSON.
func writeGeoJSON(w io.Writer, fc *geojson.FeatureCollection) error {
	return jsonutil.EncodePretty(w, fc)
}

// writeNDJSON emits one feature per line, for piping into stream tooling.
func writeNDJSON(w io.Writer, fc *geojson.FeatureCollection) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, f := range fc.Features {
		if err := enc.Encode(f); err != nil {
			return err
		}
	}
	return bw.Flush()
}
