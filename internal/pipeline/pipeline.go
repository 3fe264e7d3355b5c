// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Config controls tiled execution of pixel-local stages.
type Config struct {
	Threads  int // worker goroutines; 0 = all CPUs
	TileRows int // rows per tile; 0 = one tile per worker
}

// Tile is a half-open row band [Y0,Y1).
type Tile struct {
	Index  int
	Y0, Y1 int
}

// Tiles splits h rows according to cfg.
func Tiles(cfg Config, h int) []Tile {
	rows := cfg.TileRows
	if rows <= 0 {
		thr := cfg.Threads
		if thr <= 0 {
			thr = runtime.NumCPU()
		}
		rows = (h + thr - 1) / thr
		if rows < 1 {
			rows = 1
		}
	}
	var out []Tile
	for i, y := 0, 0; y < h; i, y = i+1, y+rows {
		y1 := y + rows
		if y1 > h {
			y1 = h
		}
		out = append(out, Tile{Index: i, Y0: y, Y1: y1})
	}
	return out
}

// ForEachTile runs fn over the row bands of an h-row grid on a worker pool,
// honoring ctx cancellation and returning the first error. Tiles write to
// disjoint rows, so no merge step is needed and results are deterministic
// regardless of worker count.
func ForEachTile(ctx context.Context, cfg Config, h int, fn func(Tile) error) error {
	thr := cfg.Threads
	if thr <= 0 {
		thr = runtime.NumCPU()
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(thr)
	for _, t := range Tiles(cfg, h) {
		t := t
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			return fn(t)
		})
	}
	return g.Wait()
}

// Stage is a named unit of concurrent work for Run.
type Stage struct {
	Name string
	Fn   func(context.Context) error
}

// Run executes independent stages concurrently (input loads, exports) and
// returns the first error.
func Run(ctx context.Context, stages ...Stage) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, s := range stages {
		s := s
		g.Go(func() error { return s.Fn(ctx) })
	}
	return g.Wait()
}
