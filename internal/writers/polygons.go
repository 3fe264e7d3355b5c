// internal/writers/polygons.go
package writers

import (
	"io"

	"github.com/paulmach/orb/geojson"
)

// StartPolygonWriter spins up a writer goroutine consuming attributed
// features. Output is written when the channel closes so the layer is always
// a complete, valid document even if upstream stages stream features in.
func StartPolygonWriter(out io.Writer, format string, bufSize int) (chan<- *geojson.Feature, <-chan error) {
	if bufSize <= 0 {
		bufSize = 64
	}
	in := make(chan *geojson.Feature, bufSize)
	errCh := make(chan error, 1)

	go func() {
		fc := geojson.NewFeatureCollection()
		for f := range in {
			fc.Append(f)
		}
		errCh <- WritePolygons(format, out, fc)
	}()

	return in, errCh
}
