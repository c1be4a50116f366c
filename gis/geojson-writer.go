package gis

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/gisworks/go-ward-mapper/wards"
)

// FeatureCollectionJSON encodes a collection as a GeoJSON
// FeatureCollection document.
func FeatureCollectionJSON(c *wards.Collection) ([]byte, error) {
	fc := &geojson.FeatureCollection{Features: []*geojson.Feature{}}
	for i := range c.Features {
		f := &c.Features[i]
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry:   f.Geometry,
			Properties: f.Props,
		})
	}
	data, err := json.Marshal(fc)
	if err != nil {
		return nil, fmt.Errorf("encoding feature collection: %w", err)
	}
	return data, nil
}

// WriteGeoJSON writes the collection to path as GeoJSON. RFC 7946 fixes
// the CRS to geographic WGS 84, so callers reproject first.
func WriteGeoJSON(path string, c *wards.Collection) error {
	data, err := FeatureCollectionJSON(c)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing geojson: %w", err)
	}
	return nil
}

// ReadGeoJSON loads a GeoJSON FeatureCollection back into a collection.
// Column order is not part of the format, so the schema comes back as
// the sorted union of property keys.
func ReadGeoJSON(path string) (*wards.Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading geojson: %w", err)
	}
	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("decoding geojson: %w", err)
	}

	c := &wards.Collection{CRS: wards.CRS{EPSG: wards.GeographicEPSG, WKT: WGS84PrjWKT}}
	keys := make(map[string]bool)
	for _, f := range fc.Features {
		props := f.Properties
		if props == nil {
			props = map[string]interface{}{}
		}
		for k := range props {
			keys[k] = true
		}
		c.Features = append(c.Features, wards.Feature{Geometry: f.Geometry, Props: props})
	}
	for k := range keys {
		c.Fields = append(c.Fields, k)
	}
	sort.Strings(c.Fields)
	return c, nil
}
