package wards

import (
	"fmt"
	"strconv"
	"strings"

	geom "github.com/twpayne/go-geom"
)

// GeographicEPSG is the EPSG code of the geographic lon/lat CRS every
// collection must be in before rendering or export.
const GeographicEPSG = 4326

// CRS identifies the coordinate reference system of a collection.
// EPSG 0 with an empty WKT means the source carried no projection
// information at all.
type CRS struct {
	EPSG int
	WKT  string
}

// Defined reports whether the CRS carries enough information to build a
// transform from it.
func (c CRS) Defined() bool {
	return c.EPSG != 0 || c.WKT != ""
}

// Geographic reports whether the CRS already is the lon/lat target.
func (c CRS) Geographic() bool {
	return c.EPSG == GeographicEPSG
}

func (c CRS) String() string {
	if c.EPSG != 0 {
		return fmt.Sprintf("EPSG:%d", c.EPSG)
	}
	if name := wktName(c.WKT); name != "" {
		return name + " (WKT)"
	}
	return "undefined"
}

// wktName extracts the CRS name from the head of a WKT definition,
// e.g. PROJCS["OSGB 1936 / British National Grid",...] -> the quoted part.
func wktName(wkt string) string {
	start := strings.Index(wkt, `["`)
	if start < 0 {
		return ""
	}
	rest := wkt[start+2:]
	end := strings.Index(rest, `"`)
	if end < 0 {
		return ""
	}
	return rest[:end]
}

// Feature is one ward polygon together with its attribute values. Props
// values are string, int, float64 or nil, keyed by column name.
type Feature struct {
	Geometry geom.T
	Props    map[string]interface{}
}

// Int returns the value of an attribute as int. The second return is
// false when the attribute is missing or not an integer value.
func (f Feature) Int(field string) (int, bool) {
	switch v := f.Props[field].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v == float64(int(v)) {
			return int(v), true
		}
	}
	return 0, false
}

// Number returns the value of an attribute as float64, accepting int and
// numeric string values.
func (f Feature) Number(field string) (float64, bool) {
	switch v := f.Props[field].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err == nil {
			return n, true
		}
	}
	return 0, false
}

// Collection is an ordered set of ward features plus the attribute schema
// (column names in source order) and the CRS tag read from the source file.
type Collection struct {
	Fields   []string
	CRS      CRS
	Features []Feature
}

func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Features)
}

// FieldIndex returns the position of a column in the schema, or -1.
func (c *Collection) FieldIndex(name string) int {
	for i, f := range c.Fields {
		if f == name {
			return i
		}
	}
	return -1
}

func (c *Collection) HasField(name string) bool {
	return c.FieldIndex(name) >= 0
}

// Copy returns a deep copy: schema, CRS, attribute maps and geometry
// coordinates share no storage with the receiver, so the copy can be
// reprojected independently.
func (c *Collection) Copy() *Collection {
	out := &Collection{
		Fields:   append([]string(nil), c.Fields...),
		CRS:      c.CRS,
		Features: make([]Feature, 0, len(c.Features)),
	}
	for _, f := range c.Features {
		out.Features = append(out.Features, copyFeature(f))
	}
	return out
}

func copyFeature(f Feature) Feature {
	props := make(map[string]interface{}, len(f.Props))
	for k, v := range f.Props {
		props[k] = v
	}
	return Feature{Geometry: cloneGeometry(f.Geometry), Props: props}
}

// cloneGeometry deep-copies the coordinate storage of a polygonal
// geometry. Reprojection mutates flat coordinates in place, so features
// held by two collections must never share them.
func cloneGeometry(g geom.T) geom.T {
	switch t := g.(type) {
	case *geom.Polygon:
		flat := append([]float64(nil), t.FlatCoords()...)
		ends := append([]int(nil), t.Ends()...)
		return geom.NewPolygonFlat(t.Layout(), flat, ends)
	case *geom.MultiPolygon:
		flat := append([]float64(nil), t.FlatCoords()...)
		endss := make([][]int, len(t.Endss()))
		for i, ends := range t.Endss() {
			endss[i] = append([]int(nil), ends...)
		}
		return geom.NewMultiPolygonFlat(t.Layout(), flat, endss)
	}
	return g
}
