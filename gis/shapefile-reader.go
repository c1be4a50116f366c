package gis

import (
	"fmt"
	"strconv"
	"strings"

	shp "github.com/jonas-p/go-shp"
	geom "github.com/twpayne/go-geom"

	"github.com/gisworks/go-ward-mapper/wards"
)

// ReadShapefile loads a polygon shapefile plus its DBF attribute table
// and .prj sidecar into a collection. Attribute columns keep their DBF
// order; numeric columns come back as float64 (or int when the column
// precision is zero), empty cells as nil.
func ReadShapefile(path string) (*wards.Collection, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening shapefile: %w", err)
	}
	defer r.Close()

	fields := r.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.String()
	}

	crs, err := ReadPrj(path)
	if err != nil {
		return nil, err
	}

	c := &wards.Collection{Fields: names, CRS: crs}
	for r.Next() {
		row, shape := r.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			return nil, fmt.Errorf("record %d: expected polygon, got %T", row, shape)
		}

		g, err := polygonToGeom(poly)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", row, err)
		}

		props := make(map[string]interface{}, len(fields))
		for col, f := range fields {
			props[names[col]] = parseAttribute(r.ReadAttribute(row, col), f)
		}
		c.Features = append(c.Features, wards.Feature{Geometry: g, Props: props})
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("reading shapefile records: %w", err)
	}
	return c, nil
}

// parseAttribute converts a raw DBF cell to its Go value. DBF stores
// everything as text: numeric columns ('N', 'F') parse to int or float64
// depending on the column precision, blanks mean null.
func parseAttribute(raw string, field shp.Field) interface{} {
	s := strings.TrimSpace(strings.Trim(raw, "\x00"))
	if s == "" || strings.Trim(s, "*") == "" {
		return nil
	}
	switch field.Fieldtype {
	case 'N':
		if field.Precision == 0 {
			if n, err := strconv.Atoi(s); err == nil {
				return n
			}
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
		return nil
	case 'F':
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
		return nil
	}
	return s
}

// polygonToGeom regroups a shapefile polygon record into a go-geom
// geometry. Shapefile records store all rings of all parts in one flat
// list: clockwise rings open a new polygon, counter-clockwise rings are
// holes attached to the most recent outer ring, which is the order
// writers emit them in.
func polygonToGeom(p *shp.Polygon) (geom.T, error) {
	rings := splitRings(p)
	if len(rings) == 0 {
		return nil, fmt.Errorf("polygon record has no rings")
	}

	var polys [][][]geom.Coord
	for _, ring := range rings {
		if signedRingArea(ring) < 0 || len(polys) == 0 {
			polys = append(polys, [][]geom.Coord{ring})
		} else {
			last := len(polys) - 1
			polys[last] = append(polys[last], ring)
		}
	}

	if len(polys) == 1 {
		return geom.NewPolygon(geom.XY).SetCoords(polys[0])
	}
	return geom.NewMultiPolygon(geom.XY).SetCoords(polys)
}

// splitRings cuts the flat point list at the part offsets, closing any
// ring whose last vertex does not repeat the first.
func splitRings(p *shp.Polygon) [][]geom.Coord {
	var rings [][]geom.Coord
	for i, start := range p.Parts {
		end := len(p.Points)
		if i+1 < len(p.Parts) {
			end = int(p.Parts[i+1])
		}
		if int(start) >= end {
			continue
		}
		ring := make([]geom.Coord, 0, end-int(start)+1)
		for _, pt := range p.Points[start:end] {
			ring = append(ring, geom.Coord{pt.X, pt.Y})
		}
		if len(ring) > 0 && !ring[0].Equal(geom.XY, ring[len(ring)-1]) {
			ring = append(ring, geom.Coord{ring[0][0], ring[0][1]})
		}
		rings = append(rings, ring)
	}
	return rings
}

// signedRingArea is the shoelace sum of a closed ring: negative for
// clockwise rings, which is the shapefile convention for outer rings.
func signedRingArea(ring []geom.Coord) float64 {
	var sum float64
	for i := 0; i+1 < len(ring); i++ {
		sum += ring[i][0]*ring[i+1][1] - ring[i+1][0]*ring[i][1]
	}
	return sum / 2
}
