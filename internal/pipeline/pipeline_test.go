// internal/pipeline/pipeline_test.go
package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestTiles(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		h    int
		want []Tile
	}{
		{"even split", Config{TileRows: 2}, 6, []Tile{{0, 0, 2}, {1, 2, 4}, {2, 4, 6}}},
		{"ragged last tile", Config{TileRows: 4}, 6, []Tile{{0, 0, 4}, {1, 4, 6}}},
		{"one tile per worker", Config{Threads: 2}, 10, []Tile{{0, 0, 5}, {1, 5, 10}}},
		{"single row", Config{TileRows: 64}, 1, []Tile{{0, 0, 1}}},
		{"empty grid", Config{TileRows: 2}, 0, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Tiles(tc.cfg, tc.h)
			if len(got) != len(tc.want) {
				t.Fatalf("tiles = %v, want %v", got, tc.want)
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Errorf("tile %d = %v, want %v", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestForEachTileCoversAllRows(t *testing.T) {
	const h = 37
	var mu sync.Mutex
	seen := make([]int, h)

	err := ForEachTile(context.Background(), Config{Threads: 4, TileRows: 5}, h, func(tile Tile) error {
		mu.Lock()
		defer mu.Unlock()
		for y := tile.Y0; y < tile.Y1; y++ {
			seen[y]++
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	for y, n := range seen {
		if n != 1 {
			t.Errorf("row %d visited %d times", y, n)
		}
	}
}

func TestForEachTileFirstError(t *testing.T) {
	boom := errors.New("boom")
	err := ForEachTile(context.Background(), Config{Threads: 2, TileRows: 1}, 8, func(tile Tile) error {
		if tile.Index == 3 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}

func TestForEachTileCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ForEachTile(ctx, Config{Threads: 1, TileRows: 1}, 4, func(Tile) error {
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRun(t *testing.T) {
	var mu sync.Mutex
	ran := map[string]bool{}
	err := Run(context.Background(),
		Stage{Name: "a", Fn: func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			ran["a"] = true
			return nil
		}},
		Stage{Name: "b", Fn: func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			ran["b"] = true
			return nil
		}},
	)
	if err != nil {
		t.Fatal(err)
	}
	if !ran["a"] || !ran["b"] {
		t.Errorf("stages ran = %v", ran)
	}
}

func TestRunFirstError(t *testing.T) {
	boom := errors.New("boom")
	err := Run(context.Background(),
		Stage{Name: "ok", Fn: func(context.Context) error { return nil }},
		Stage{Name: "fail", Fn: func(context.Context) error { return boom }},
	)
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}
