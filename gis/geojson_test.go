package gis

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureCollectionJSON(t *testing.T) {
	data, err := FeatureCollectionJSON(wardCollection())
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "FeatureCollection", doc["type"])

	features, ok := doc["features"].([]interface{})
	require.True(t, ok)
	assert.Len(t, features, 2)

	first := features[0].(map[string]interface{})
	props := first["properties"].(map[string]interface{})
	assert.Equal(t, 429.0, props["Ward_No"])

	geometry := first["geometry"].(map[string]interface{})
	assert.Equal(t, "Polygon", geometry["type"])
}

func TestGeoJSON_RoundTripKeepsIDsAndPopulations(t *testing.T) {
	src := wardCollection()
	path := filepath.Join(t.TempDir(), "block6_wards.geojson")
	require.NoError(t, WriteGeoJSON(path, src))

	got, err := ReadGeoJSON(path)
	require.NoError(t, err)
	require.Equal(t, src.Len(), got.Len())
	assert.True(t, got.CRS.Geographic())

	for i := range src.Features {
		wantID, _ := src.Features[i].Int("Ward_No")
		gotID, ok := got.Features[i].Int("Ward_No")
		require.True(t, ok, "feature %d lost its id", i)
		assert.Equal(t, wantID, gotID)

		wantPop, wantOK := src.Features[i].Number("Population")
		gotPop, gotOK := got.Features[i].Number("Population")
		assert.Equal(t, wantOK, gotOK, "feature %d population presence", i)
		if wantOK {
			assert.InDelta(t, wantPop, gotPop, 0.0001)
		}
	}

	// schema comes back as the sorted union of property keys
	assert.Equal(t, []string{"Name", "Population", "Ward_No"}, got.Fields)
}

func TestReadGeoJSON_MissingFile(t *testing.T) {
	_, err := ReadGeoJSON(filepath.Join(t.TempDir(), "absent.geojson"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading geojson")
}

func TestReadGeoJSON_BadDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.geojson")
	require.NoError(t, os.WriteFile(path, []byte(`{"type": "FeatureCollection", "features": [{}`), 0644))

	_, err := ReadGeoJSON(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding geojson")
}
