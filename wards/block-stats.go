package wards

import (
	"fmt"
	"sort"
	"strings"

	"github.com/golang/geo/s2"
	geom "github.com/twpayne/go-geom"
)

// Mean earth radius in kilometres, used to scale unit-sphere measures.
const earthRadiusKm = 6371.01

// WardMeasure holds the geodesic measures of a single ward. Area and
// perimeter are computed on the sphere, so the geometry must be in
// lon/lat degrees.
type WardMeasure struct {
	WardID        int
	Population    float64
	HasPopulation bool
	AreaKm2       float64
	PerimeterKm   float64
}

// BlockStats is the per-ward measure set of one block, sorted by ward id.
type BlockStats struct {
	Measures []WardMeasure
}

// MeasureBlock computes area, perimeter and population for every ward in
// the collection. Measures run in parallel over the batch pool; workers
// <= 0 picks one worker per CPU.
func MeasureBlock(c *Collection, idField, popField string, workers int) BlockStats {
	items := make([]interface{}, c.Len())
	for i := range c.Features {
		items[i] = c.Features[i]
	}

	bp := NewBatchProcessor(workers)
	results := bp.Process(items, func(item interface{}) interface{} {
		f := item.(Feature)
		area, perim := measureGeometry(f.Geometry)
		m := WardMeasure{AreaKm2: area, PerimeterKm: perim}
		if id, ok := f.Int(idField); ok {
			m.WardID = id
		}
		if pop, ok := f.Number(popField); ok {
			m.Population = pop
			m.HasPopulation = true
		}
		return m
	}, "measuring wards")

	stats := BlockStats{Measures: make([]WardMeasure, 0, len(results))}
	for _, r := range results {
		stats.Measures = append(stats.Measures, r.(WardMeasure))
	}
	sort.Slice(stats.Measures, func(i, j int) bool {
		return stats.Measures[i].WardID < stats.Measures[j].WardID
	})
	return stats
}

// TotalAreaKm2 sums the ward areas.
func (s BlockStats) TotalAreaKm2() float64 {
	var sum float64
	for _, m := range s.Measures {
		sum += m.AreaKm2
	}
	return sum
}

// TotalPopulation sums the known populations and reports how many wards
// carried a value.
func (s BlockStats) TotalPopulation() (float64, int) {
	var sum float64
	var n int
	for _, m := range s.Measures {
		if m.HasPopulation {
			sum += m.Population
			n++
		}
	}
	return sum, n
}

// Table renders the measures as a fixed-width console table.
func (s BlockStats) Table(blockName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s ward measures:\n", blockName)
	fmt.Fprintf(&b, "%8s %14s %12s %14s\n", "ward", "population", "area km2", "perimeter km")
	for _, m := range s.Measures {
		pop := "n/a"
		if m.HasPopulation {
			pop = fmt.Sprintf("%.0f", m.Population)
		}
		fmt.Fprintf(&b, "%8d %14s %12.3f %14.3f\n", m.WardID, pop, m.AreaKm2, m.PerimeterKm)
	}
	popSum, popCount := s.TotalPopulation()
	pop := "n/a"
	if popCount > 0 {
		pop = fmt.Sprintf("%.0f", popSum)
	}
	fmt.Fprintf(&b, "%8s %14s %12.3f\n", "total", pop, s.TotalAreaKm2())
	return b.String()
}

// measureGeometry returns geodesic area (holes subtracted) and total ring
// perimeter of a polygonal geometry, both in kilometres.
func measureGeometry(g geom.T) (areaKm2, perimeterKm float64) {
	switch t := g.(type) {
	case *geom.Polygon:
		return measurePolygon(t)
	case *geom.MultiPolygon:
		for i := 0; i < t.NumPolygons(); i++ {
			a, p := measurePolygon(t.Polygon(i))
			areaKm2 += a
			perimeterKm += p
		}
	}
	return areaKm2, perimeterKm
}

func measurePolygon(p *geom.Polygon) (areaKm2, perimeterKm float64) {
	for i := 0; i < p.NumLinearRings(); i++ {
		pts := ringPoints(p.LinearRing(i).Coords())
		a := ringAreaKm2(pts)
		if i == 0 {
			areaKm2 += a
		} else {
			areaKm2 -= a
		}
		perimeterKm += ringPerimeterKm(pts)
	}
	return areaKm2, perimeterKm
}

// ringPoints converts a lon/lat ring to unit-sphere points, dropping the
// closing duplicate vertex.
func ringPoints(ring []geom.Coord) []s2.Point {
	pts := make([]s2.Point, 0, len(ring))
	for _, c := range ring {
		pts = append(pts, s2.PointFromLatLng(s2.LatLngFromDegrees(c[1], c[0])))
	}
	if len(pts) > 1 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	return pts
}

func ringAreaKm2(pts []s2.Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	loop := s2.LoopFromPoints(pts)
	// ward rings are tiny, normalize so the loop encloses the small side
	loop.Normalize()
	return loop.Area() * earthRadiusKm * earthRadiusKm
}

func ringPerimeterKm(pts []s2.Point) float64 {
	if len(pts) < 2 {
		return 0
	}
	var km float64
	for i := range pts {
		next := pts[(i+1)%len(pts)]
		km += pts[i].Distance(next).Radians() * earthRadiusKm
	}
	return km
}
