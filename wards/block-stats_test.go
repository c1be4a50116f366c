package wards

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	geom "github.com/twpayne/go-geom"
)

// 0.01 degrees of arc on the mean-radius sphere is about 1.11195 km, so
// a 0.01 degree square at the equator measures about 1.2364 km2.
func TestMeasureGeometry_EquatorSquare(t *testing.T) {
	sq := testSquare(0, 0, 0.01)

	area, perim := measureGeometry(sq)

	require.InDelta(t, 1.2364, area, 0.001)
	require.InDelta(t, 4.4478, perim, 0.002)
}

func TestMeasureGeometry_HoleSubtracts(t *testing.T) {
	p := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{
		{{0, 0}, {0.02, 0}, {0.02, 0.02}, {0, 0.02}, {0, 0}},
		{{0.005, 0.005}, {0.015, 0.005}, {0.015, 0.015}, {0.005, 0.015}, {0.005, 0.005}},
	})

	area, perim := measureGeometry(p)

	// 0.02 degree square minus 0.01 degree hole
	require.InDelta(t, 3.7093, area, 0.002)
	// perimeter counts both rings
	require.InDelta(t, 13.3434, perim, 0.005)
}

func TestMeasureGeometry_MultiPolygon(t *testing.T) {
	mp := geom.NewMultiPolygon(geom.XY).MustSetCoords([][][]geom.Coord{
		{{{0, 0}, {0.01, 0}, {0.01, 0.01}, {0, 0.01}, {0, 0}}},
		{{{1, 1}, {1.01, 1}, {1.01, 1.01}, {1, 1.01}, {1, 1}}},
	})

	area, perim := measureGeometry(mp)

	require.InDelta(t, 2.4729, area, 0.002)
	require.InDelta(t, 8.8956, perim, 0.005)
}

func measureTestWard(id int, pop interface{}, x float64) Feature {
	return Feature{
		Geometry: testSquare(x, 0, 0.01),
		Props:    map[string]interface{}{"Ward_No": id, "Population": pop},
	}
}

func TestMeasureBlock(t *testing.T) {
	c := &Collection{
		Fields: []string{"Ward_No", "Population"},
		CRS:    CRS{EPSG: GeographicEPSG},
		Features: []Feature{
			measureTestWard(431, nil, 0),
			measureTestWard(429, 41000.0, 0.05),
			measureTestWard(430, 38500.0, 0.10),
		},
	}

	stats := MeasureBlock(c, "Ward_No", "Population", 2)
	require.Len(t, stats.Measures, 3)

	// sorted by ward id regardless of source order
	assert.Equal(t, 429, stats.Measures[0].WardID)
	assert.Equal(t, 430, stats.Measures[1].WardID)
	assert.Equal(t, 431, stats.Measures[2].WardID)

	assert.True(t, stats.Measures[0].HasPopulation)
	assert.False(t, stats.Measures[2].HasPopulation)

	for _, m := range stats.Measures {
		assert.InDelta(t, 1.2364, m.AreaKm2, 0.001, "ward %d", m.WardID)
	}

	sum, n := stats.TotalPopulation()
	assert.Equal(t, 79500.0, sum)
	assert.Equal(t, 2, n)
	assert.InDelta(t, 3.7093, stats.TotalAreaKm2(), 0.002)
}

func TestBlockStats_Table(t *testing.T) {
	stats := BlockStats{Measures: []WardMeasure{
		{WardID: 429, Population: 41000, HasPopulation: true, AreaKm2: 1.5, PerimeterKm: 5.2},
		{WardID: 430, AreaKm2: 2.5, PerimeterKm: 6.8},
	}}

	table := stats.Table("Block 6")

	assert.True(t, strings.HasPrefix(table, "Block 6 ward measures:"))
	assert.Contains(t, table, "429")
	assert.Contains(t, table, "41000")
	assert.Contains(t, table, "n/a")
	assert.Contains(t, table, "total")

	lines := strings.Split(strings.TrimRight(table, "\n"), "\n")
	// header, column row, two wards, total
	assert.Len(t, lines, 5)
}
