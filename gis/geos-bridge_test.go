package gis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	geom "github.com/twpayne/go-geom"

	"github.com/gisworks/go-ward-mapper/wards"
)

func unitSquareFeature(x float64) wards.Feature {
	p := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{x, 0}, {x + 1, 0}, {x + 1, 1}, {x, 1}, {x, 0},
	}})
	return wards.Feature{Geometry: p, Props: map[string]interface{}{"Ward_No": int(x)}}
}

func TestCentroid_UnitSquare(t *testing.T) {
	lon, lat, err := Centroid(unitSquareFeature(0).Geometry)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, lon, 1e-9)
	assert.InDelta(t, 0.5, lat, 1e-9)
}

func TestUnionCentroid_AdjacentSquares(t *testing.T) {
	// two unit squares sharing an edge dissolve into a 2x1 rectangle
	c := &wards.Collection{
		Fields:   []string{"Ward_No"},
		Features: []wards.Feature{unitSquareFeature(0), unitSquareFeature(1)},
	}

	lon, lat, err := UnionCentroid(c)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, lon, 1e-9)
	assert.InDelta(t, 0.5, lat, 1e-9)
}

func TestUnionCentroid_SingleFeature(t *testing.T) {
	c := &wards.Collection{
		Fields:   []string{"Ward_No"},
		Features: []wards.Feature{unitSquareFeature(4)},
	}

	lon, lat, err := UnionCentroid(c)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, lon, 1e-9)
	assert.InDelta(t, 0.5, lat, 1e-9)
}

func TestUnionCentroid_EmptyCollection(t *testing.T) {
	_, _, err := UnionCentroid(&wards.Collection{Fields: []string{"Ward_No"}})
	require.Error(t, err)
}

func TestCheckGeometries(t *testing.T) {
	// bowtie ring crossing itself at (0.5, 0.5)
	bowtie := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{0, 0}, {1, 1}, {1, 0}, {0, 1}, {0, 0},
	}})
	c := &wards.Collection{
		Fields: []string{"Ward_No"},
		Features: []wards.Feature{
			unitSquareFeature(0),
			{Geometry: bowtie, Props: map[string]interface{}{"Ward_No": 2}},
		},
	}

	issues, err := CheckGeometries(c)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, 1, issues[0].Index)
	assert.NotEmpty(t, issues[0].Reason)
}

func TestCheckGeometries_AllValid(t *testing.T) {
	c := &wards.Collection{
		Fields:   []string{"Ward_No"},
		Features: []wards.Feature{unitSquareFeature(0), unitSquareFeature(2)},
	}

	issues, err := CheckGeometries(c)
	require.NoError(t, err)
	assert.Empty(t, issues)
}
