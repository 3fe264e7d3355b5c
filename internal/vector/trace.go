// internal/vector/trace.go
package vector

import (
	"math"
	"sort"

	"github.com/paulmach/orb"

	"github.com/SpeciesConservationLandscapes/task-scl-eff-pot-hab/internal/patch"
	"github.com/SpeciesConservationLandscapes/task-scl-eff-pot-hab/internal/raster"
)

// Boundary tracing of labeled regions into polygons. Edges between a
// labeled cell and any differently-labeled neighbor are collected directed
// so the region lies to the left, then stitched into closed rings. Rings
// whose signed (pixel-space) area is positive are shells; the rest are
// holes assigned to the shell containing them.

type vertex struct{ X, Y int } // pixel-corner coordinates

type edge struct{ from, to vertex }

// TraceLabel returns the polygons (possibly with holes) covering every cell
// of the given label, in georeferenced coordinates of g.
func TraceLabel(l *patch.Labels, label int32, g *raster.Grid) orb.MultiPolygon {
	edges := collectEdges(l, label)
	rings := stitch(edges)
	return assemble(rings, g)
}

func collectEdges(l *patch.Labels, label int32) []edge {
	var out []edge
	at := func(x, y int) int32 {
		if x < 0 || y < 0 || x >= l.W || y >= l.H {
			return 0
		}
		return l.ID[y*l.W+x]
	}
	for y := 0; y < l.H; y++ {
		for x := 0; x < l.W; x++ {
			if at(x, y) != label {
				continue
			}
			if at(x, y-1) != label { // top, left-to-right
				out = append(out, edge{vertex{x, y}, vertex{x + 1, y}})
			}
			if at(x+1, y) != label { // right, downward
				out = append(out, edge{vertex{x + 1, y}, vertex{x + 1, y + 1}})
			}
			if at(x, y+1) != label { // bottom, right-to-left
				out = append(out, edge{vertex{x + 1, y + 1}, vertex{x, y + 1}})
			}
			if at(x-1, y) != label { // left, upward
				out = append(out, edge{vertex{x, y + 1}, vertex{x, y}})
			}
		}
	}
	return out
}

// stitch links directed edges into closed rings. At saddle vertices two
// outgoing edges exist; taking the sharpest left turn relative to the
// incoming direction closes the smaller loop first, so rings stay simple
// (diagonally-touching cells become two shells meeting at a point).
func stitch(edges []edge) [][]vertex {
	bystart := map[vertex][]int{}
	for i, e := range edges {
		bystart[e.from] = append(bystart[e.from], i)
	}
	// deterministic pop order
	for _, idxs := range bystart {
		sort.Ints(idxs)
	}
	used := make([]bool, len(edges))

	takeFrom := func(v vertex, incoming vertex) (edge, bool) {
		idxs := bystart[v]
		best := -1
		bestTurn := math.Inf(-1)
		for _, i := range idxs {
			if used[i] {
				continue
			}
			if best == -1 {
				best = i
				continue
			}
			// more than one candidate: rank by left-turn angle
			if bestTurn == math.Inf(-1) {
				bestTurn = turn(incoming, v, edges[best].to)
			}
			if t := turn(incoming, v, edges[i].to); t > bestTurn {
				best, bestTurn = i, t
			}
		}
		if best == -1 {
			return edge{}, false
		}
		used[best] = true
		return edges[best], true
	}

	var rings [][]vertex
	for i := range edges {
		if used[i] {
			continue
		}
		used[i] = true
		start := edges[i].from
		ring := []vertex{start}
		prev := edges[i].from
		cur := edges[i].to
		for cur != start {
			ring = append(ring, cur)
			e, ok := takeFrom(cur, prev)
			if !ok {
				break // malformed input; drop the open chain
			}
			prev = cur
			cur = e.to
		}
		if cur == start {
			rings = append(rings, simplifyCollinear(ring))
		}
	}
	return rings
}

// turn ranks the left-turn sharpness of a->b->c via the cross product.
func turn(a, b, c vertex) float64 {
	return float64((b.X-a.X)*(c.Y-b.Y) - (b.Y-a.Y)*(c.X-b.X))
}

// simplifyCollinear removes interior vertices on straight runs.
func simplifyCollinear(ring []vertex) []vertex {
	if len(ring) < 4 {
		return ring
	}
	out := ring[:0:0]
	n := len(ring)
	for i := 0; i < n; i++ {
		a := ring[(i+n-1)%n]
		b := ring[i]
		c := ring[(i+1)%n]
		if turn(a, b, c) != 0 {
			out = append(out, b)
		}
	}
	return out
}

func signedArea(ring []vertex) float64 {
	s := 0.0
	n := len(ring)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		s += float64(ring[i].X*ring[j].Y - ring[j].X*ring[i].Y)
	}
	return s / 2
}

func toOrbRing(ring []vertex, g *raster.Grid) orb.Ring {
	out := make(orb.Ring, 0, len(ring)+1)
	for _, v := range ring {
		x, y := g.PixelCorner(v.X, v.Y)
		out = append(out, orb.Point{x, y})
	}
	out = append(out, out[0]) // close
	return out
}

// assemble splits rings into shells and holes and nests holes inside the
// shell containing them.
func assemble(rings [][]vertex, g *raster.Grid) orb.MultiPolygon {
	type shell struct {
		ring  []vertex
		holes [][]vertex
	}
	var shells []shell
	var holes [][]vertex
	for _, r := range rings {
		// interior-left edge direction makes shells wind positive in
		// pixel space (y down)
		if signedArea(r) > 0 {
			shells = append(shells, shell{ring: r})
		} else {
			holes = append(holes, r)
		}
	}
	// smallest containing shell owns the hole (handles nested islands)
	sort.Slice(shells, func(i, j int) bool {
		return signedArea(shells[i].ring) < signedArea(shells[j].ring)
	})
	for _, h := range holes {
		px, py := interiorProbe(h)
		for i := range shells {
			if pixelRingContains(shells[i].ring, px, py) {
				shells[i].holes = append(shells[i].holes, h)
				break
			}
		}
	}
	out := make(orb.MultiPolygon, 0, len(shells))
	for _, s := range shells {
		poly := orb.Polygon{toOrbRing(s.ring, g)}
		for _, h := range s.holes {
			poly = append(poly, toOrbRing(h, g))
		}
		out = append(out, poly)
	}
	return out
}

// interiorProbe returns a point just left of a hole ring's first edge.
// Region edges keep the region to their left, so the probe lands strictly
// inside whichever shell owns the hole.
func interiorProbe(ring []vertex) (float64, float64) {
	a, b := ring[0], ring[1]
	mx := (float64(a.X) + float64(b.X)) / 2
	my := (float64(a.Y) + float64(b.Y)) / 2
	dx := float64(b.X - a.X)
	dy := float64(b.Y - a.Y)
	// left normal in y-down pixel space
	return mx - dy*0.25, my + dx*0.25
}

// pixelRingContains is an even-odd point-in-ring test in pixel space.
func pixelRingContains(ring []vertex, px, py float64) bool {
	inside := false
	n := len(ring)
	for i := 0; i < n; i++ {
		a, b := ring[i], ring[(i+1)%n]
		ay, by := float64(a.Y), float64(b.Y)
		if (ay > py) == (by > py) {
			continue
		}
		ax, bx := float64(a.X), float64(b.X)
		xint := ax + (py-ay)/(by-ay)*(bx-ax)
		if px < xint {
			inside = !inside
		}
	}
	return inside
}
