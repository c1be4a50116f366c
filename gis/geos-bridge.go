package gis

import (
	"fmt"

	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geos"

	"github.com/gisworks/go-ward-mapper/wards"
)

// toGeosGeom converts a go-geom geometry to a GEOS one through its
// GeoJSON form. The caller owns the result and must Destroy it.
func toGeosGeom(g geom.T) (*geos.Geom, error) {
	data, err := geojson.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("encoding geometry: %w", err)
	}
	gg, err := geos.NewGeomFromGeoJSON(string(data))
	if err != nil {
		return nil, fmt.Errorf("building geos geometry: %w", err)
	}
	return gg, nil
}

// UnionCentroid dissolves every feature into one geometry and returns
// the centroid of the union as lon, lat. The map view centers on it.
func UnionCentroid(c *wards.Collection) (lon, lat float64, err error) {
	if c.Len() == 0 {
		return 0, 0, fmt.Errorf("no features to dissolve")
	}

	geoms := make([]*geos.Geom, 0, c.Len())
	for i := range c.Features {
		g, err := toGeosGeom(c.Features[i].Geometry)
		if err != nil {
			for _, old := range geoms {
				old.Destroy()
			}
			return 0, 0, fmt.Errorf("feature %d: %w", i, err)
		}
		geoms = append(geoms, g)
	}

	union := unionAll(geoms)
	defer union.Destroy()

	centroid := union.Centroid()
	defer centroid.Destroy()
	return centroid.X(), centroid.Y(), nil
}

// unionAll dissolves the geometries divide-and-conquer so intermediate
// unions stay balanced. It consumes every input geometry and hands
// ownership of the result to the caller.
func unionAll(geoms []*geos.Geom) *geos.Geom {
	if len(geoms) == 1 {
		return geoms[0]
	}

	mid := len(geoms) / 2
	left := unionAll(geoms[:mid])
	right := unionAll(geoms[mid:])

	result := left.Union(right)

	left.Destroy()
	right.Destroy()
	return result
}

// Centroid returns the centroid of a single geometry as lon, lat.
// Tooltip badges anchor here.
func Centroid(g geom.T) (lon, lat float64, err error) {
	gg, err := toGeosGeom(g)
	if err != nil {
		return 0, 0, err
	}
	defer gg.Destroy()

	ct := gg.Centroid()
	defer ct.Destroy()
	return ct.X(), ct.Y(), nil
}

// GeometryIssue flags one invalid feature geometry.
type GeometryIssue struct {
	Index  int
	Reason string
}

// CheckGeometries validates every feature geometry and reports the
// invalid ones with the GEOS validity reason. Invalid rings do not stop
// the pipeline but they do get surfaced.
func CheckGeometries(c *wards.Collection) ([]GeometryIssue, error) {
	var issues []GeometryIssue
	for i := range c.Features {
		g, err := toGeosGeom(c.Features[i].Geometry)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		if !g.IsValid() {
			issues = append(issues, GeometryIssue{Index: i, Reason: g.IsValidReason()})
		}
		g.Destroy()
	}
	return issues, nil
}
