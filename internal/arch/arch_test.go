// internal/arch/arch_test.go
package arch

import (
	"bytes"
	"encoding/json"
	"io"
	"os/exec"
	"strings"
	"testing"
)

type pkg struct {
	ImportPath string
	Imports    []string
	Standard   bool
}

const mod = "github.com/SpeciesConservationLandscapes/task-scl-eff-pot-hab"

// TestImportBoundaries keeps the layering honest: algorithm packages stay
// free of task wiring and I/O, and the GDAL edge stays confined to geotiff.
func TestImportBoundaries(t *testing.T) {
	cmd := exec.Command("go", "list", "-json", "./...")
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		t.Fatalf("go list: %v", err)
	}
	dec := json.NewDecoder(&out)

	wiring := []string{
		mod + "/internal/appcore", mod + "/internal/app",
		mod + "/internal/cli", mod + "/internal/appshell", mod + "/cmd/",
	}
	bans := map[string][]string{
		mod + "/internal/raster":   append([]string{mod + "/internal/geotiff", mod + "/internal/patch", mod + "/internal/writers", mod + "/internal/pipeline"}, wiring...),
		mod + "/internal/patch":    append([]string{mod + "/internal/geotiff", mod + "/internal/writers", mod + "/internal/pipeline"}, wiring...),
		mod + "/internal/habitat":  append([]string{mod + "/internal/geotiff", mod + "/internal/writers"}, wiring...),
		mod + "/internal/vector":   append([]string{mod + "/internal/geotiff", mod + "/internal/writers"}, wiring...),
		mod + "/internal/scl":      append([]string{mod + "/internal/geotiff", mod + "/internal/writers"}, wiring...),
		mod + "/internal/catalog":  append([]string{mod + "/internal/geotiff", mod + "/internal/writers"}, wiring...),
		mod + "/internal/config":   append([]string{mod + "/internal/geotiff", mod + "/internal/writers"}, wiring...),
		mod + "/internal/pipeline": append([]string{mod + "/internal/geotiff", mod + "/internal/writers"}, wiring...),
		mod + "/internal/writers":  wiring,
		mod + "/internal/runutil":  wiring,
		// GDAL stays behind the RasterIO seam
		mod + "/internal/geotiff": {
			mod + "/internal/habitat", mod + "/internal/patch", mod + "/internal/scl",
			mod + "/internal/vector", mod + "/internal/writers",
		},
	}

	for {
		var p pkg
		if err := dec.Decode(&p); err != nil {
			if err == io.EOF {
				break
			}
			t.Fatalf("decode: %v", err)
		}
		if p.Standard {
			continue
		}
		banned, ok := bans[p.ImportPath]
		if !ok {
			continue
		}
		for _, imp := range p.Imports {
			for _, b := range banned {
				if imp == b || (strings.HasSuffix(b, "/") && strings.HasPrefix(imp, b)) {
					t.Errorf("%s must not import %s", p.ImportPath, imp)
				}
			}
		}
	}
}

// TestOnlyGeotiffImportsGodal pins the CGo dependency to one package.
func TestOnlyGeotiffImportsGodal(t *testing.T) {
	cmd := exec.Command("go", "list", "-json", "./...")
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		t.Fatalf("go list: %v", err)
	}
	dec := json.NewDecoder(&out)
	for {
		var p pkg
		if err := dec.Decode(&p); err != nil {
			if err == io.EOF {
				break
			}
			t.Fatalf("decode: %v", err)
		}
		if p.ImportPath == mod+"/internal/geotiff" {
			continue
		}
		for _, imp := range p.Imports {
			if strings.Contains(imp, "airbusgeo/godal") {
				t.Errorf("%s imports godal; only internal/geotiff may", p.ImportPath)
			}
		}
	}
}
