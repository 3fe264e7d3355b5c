// internal/patch/label.go
package patch

import (
	"fmt"

	"github.com/SpeciesConservationLandscapes/task-scl-eff-pot-hab/internal/raster"
)

// Connectivity selects the pixel neighborhood used when labeling.
type Connectivity int

const (
	Conn4 Connectivity = 4
	Conn8 Connectivity = 8
)

// Labels holds a connected-component labeling of a mask grid. Label ids are
// 1-based in scan order of each component's first pixel, so a given mask
// always labels identically regardless of worker count.
type Labels struct {
	W, H   int
	ID     []int32 // 0 = background / nodata
	Count  []int   // pixel count per label, index 0 unused
	nlabel int
}

// NLabels returns the number of components found.
func (l *Labels) NLabels() int { return l.nlabel }

// Label runs connected-component labeling over the valid, nonzero pixels of
// mask. Flood fill with an explicit stack; recursion would overflow on
// continent-scale rasters.
func Label(mask *raster.Grid, conn Connectivity) (*Labels, error) {
	return label(mask, conn, false)
}

// LabelValues labels like Label but additionally splits components wherever
// the pixel value changes: a component is a connected run of equal-valued
// foreground pixels. Vectorizing class rasters uses this so polygon
// boundaries fall on value boundaries, not just on nodata.
func LabelValues(mask *raster.Grid, conn Connectivity) (*Labels, error) {
	return label(mask, conn, true)
}

func label(mask *raster.Grid, conn Connectivity, byValue bool) (*Labels, error) {
	if conn != Conn4 && conn != Conn8 {
		return nil, fmt.Errorf("patch: unsupported connectivity %d", conn)
	}
	w, h := mask.W, mask.H
	l := &Labels{W: w, H: h, ID: make([]int32, w*h), Count: []int{0}}

	fg := func(i int) bool { return mask.Valid[i] && mask.Data[i] != 0 }

	var stack []int32
	next := int32(0)
	for start := 0; start < w*h; start++ {
		if !fg(start) || l.ID[start] != 0 {
			continue
		}
		next++
		count := 0
		v := mask.Data[start]
		stack = append(stack[:0], int32(start))
		l.ID[start] = next
		for len(stack) > 0 {
			i := int(stack[len(stack)-1])
			stack = stack[:len(stack)-1]
			count++
			x, y := i%w, i/w
			visit := func(nx, ny int) {
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					return
				}
				j := ny*w + nx
				if fg(j) && l.ID[j] == 0 && (!byValue || mask.Data[j] == v) {
					l.ID[j] = next
					stack = append(stack, int32(j))
				}
			}
			visit(x-1, y)
			visit(x+1, y)
			visit(x, y-1)
			visit(x, y+1)
			if conn == Conn8 {
				visit(x-1, y-1)
				visit(x+1, y-1)
				visit(x-1, y+1)
				visit(x+1, y+1)
			}
		}
		l.Count = append(l.Count, count)
	}
	l.nlabel = int(next)
	return l, nil
}

// CountGrid returns a grid whose foreground pixels hold the pixel count of
// their component, the connectedPixelCount analogue. Background is nodata.
func (l *Labels) CountGrid(template *raster.Grid) *raster.Grid {
	out := raster.NewMasked(template)
	for i, id := range l.ID {
		if id != 0 {
			out.Data[i] = float64(l.Count[id])
			out.Valid[i] = true
		}
	}
	return out
}

// AreaKm2 sums the per-pixel area of each component. Index 0 is unused.
func (l *Labels) AreaKm2(area *raster.Grid) []float64 {
	sums := make([]float64, l.nlabel+1)
	for i, id := range l.ID {
		if id != 0 {
			sums[id] += area.Data[i]
		}
	}
	return sums
}

// FilterMinCount returns a 1/nodata mask of components with at least
// minPixels pixels.
func (l *Labels) FilterMinCount(template *raster.Grid, minPixels int) *raster.Grid {
	out := raster.NewMasked(template)
	for i, id := range l.ID {
		if id != 0 && l.Count[id] >= minPixels {
			out.Data[i] = 1
			out.Valid[i] = true
		}
	}
	return out
}
