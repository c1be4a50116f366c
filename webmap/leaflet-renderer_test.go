package webmap

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	geom "github.com/twpayne/go-geom"

	"github.com/gisworks/go-ward-mapper/wards"
)

func wardFeature(id int, pop interface{}, x float64) wards.Feature {
	p := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{x, 23.8}, {x + 0.01, 23.8}, {x + 0.01, 23.81}, {x, 23.81}, {x, 23.8},
	}})
	return wards.Feature{
		Geometry: p,
		Props:    map[string]interface{}{"Ward_No": id, "Population": pop},
	}
}

func testMapSpec() MapSpec {
	crs := wards.CRS{EPSG: wards.GeographicEPSG}
	return MapSpec{
		Title:         "Block 6 Ward Boundaries",
		CenterLat:     23.8,
		CenterLon:     90.36,
		Zoom:          14,
		ContextName:   "Other Wards",
		HighlightName: "Block 6 (Wards 429–434)",
		ContextStyle: LayerStyle{
			FillColor: "#dddddd", Color: "#888888", Weight: 0.8, FillOpacity: 0.4,
		},
		HighlightStyle: LayerStyle{
			FillColor: "#ffcc00", Color: "#ff6600", Weight: 2.5, FillOpacity: 0.7,
		},
		Hover:           HoverStyle{Weight: 3, Color: "red"},
		IDField:         "Ward_No",
		PopulationField: "Population",
		Labels:          []Label{{Lat: 23.805, Lon: 90.365, Text: "429"}},
		Context: &wards.Collection{
			Fields: []string{"Ward_No", "Population"},
			CRS:    crs,
			Features: []wards.Feature{
				wardFeature(10, 12000.0, 90.30),
			},
		},
		Highlighted: &wards.Collection{
			Fields: []string{"Ward_No", "Population"},
			CRS:    crs,
			Features: []wards.Feature{
				wardFeature(429, 41000.0, 90.36),
				wardFeature(430, nil, 90.37),
			},
		},
	}
}

func TestRender_PageStructure(t *testing.T) {
	page, err := Render(testMapSpec())
	require.NoError(t, err)
	html := string(page)

	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	assert.Contains(t, html, "<title>Block 6 Ward Boundaries</title>")
	assert.Contains(t, html, "leaflet@1.9.4")
	// view center is [lat, lon], the Leaflet order
	assert.Contains(t, html, `"center":[23.8,90.36]`)
	assert.Contains(t, html, `"zoom":14`)
	assert.Contains(t, html, "tile.openstreetmap.org")
}

func TestRender_LayersAndStyles(t *testing.T) {
	page, err := Render(testMapSpec())
	require.NoError(t, err)
	html := string(page)

	// both overlays registered in the layer control under their names
	assert.Contains(t, html, `overlays["Other Wards"]`)
	assert.Contains(t, html, "L.control.layers")

	assert.Contains(t, html, `"fillColor":"#dddddd"`)
	assert.Contains(t, html, `"fillColor":"#ffcc00"`)
	assert.Contains(t, html, `"weight":2.5`)
	assert.Contains(t, html, `"color":"red"`)
}

func TestRender_TooltipsAndHover(t *testing.T) {
	page, err := Render(testMapSpec())
	require.NoError(t, err)
	html := string(page)

	assert.Contains(t, html, `feature.properties["Ward_No"]`)
	assert.Contains(t, html, `feature.properties["Population"]`)
	assert.Contains(t, html, "Ward: ")
	assert.Contains(t, html, "Population: ")
	assert.Contains(t, html, "mouseover")
	assert.Contains(t, html, "resetStyle")
}

func TestRender_EmbedsGeoJSON(t *testing.T) {
	page, err := Render(testMapSpec())
	require.NoError(t, err)
	html := string(page)

	assert.Contains(t, html, `"type":"FeatureCollection"`)
	assert.Contains(t, html, `"Ward_No":429`)
	assert.Contains(t, html, `"Ward_No":10`)
	// null population must reach the page as null, not 0
	assert.Contains(t, html, `"Population":null`)
}

func TestRender_CentroidLabels(t *testing.T) {
	page, err := Render(testMapSpec())
	require.NoError(t, err)
	html := string(page)

	assert.Contains(t, html, "ward-label")
	assert.Contains(t, html, "L.divIcon")
	assert.Contains(t, html, `"text":"429"`)
}

func TestRender_NoLabels(t *testing.T) {
	spec := testMapSpec()
	spec.Labels = nil

	page, err := Render(spec)
	require.NoError(t, err)
	assert.Contains(t, string(page), "var labels = [];")
}

func TestRender_MissingLayer(t *testing.T) {
	spec := testMapSpec()
	spec.Highlighted = nil

	_, err := Render(spec)
	require.Error(t, err)
}

func TestWriteHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "block6_boundary_map.html")
	require.NoError(t, WriteHTML(path, testMapSpec()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<div id=\"map\"></div>")
}
