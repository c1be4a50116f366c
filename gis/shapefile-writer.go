package gis

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	shp "github.com/jonas-p/go-shp"
	geom "github.com/twpayne/go-geom"

	"github.com/gisworks/go-ward-mapper/wards"
)

// WriteShapefile writes a collection as an Esri shapefile set (.shp,
// .shx, .dbf and .prj) named <name>.* inside dir, creating dir first.
// Outer rings are written clockwise and holes counter-clockwise as the
// shapefile format requires, whatever winding the geometries carry.
func WriteShapefile(dir, name string, c *wards.Collection) error {
	if c.Len() == 0 {
		return fmt.Errorf("no features to write to shapefile")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating shapefile directory: %w", err)
	}

	path := filepath.Join(dir, name+".shp")
	w, err := shp.Create(path, shp.POLYGON)
	if err != nil {
		return fmt.Errorf("creating shapefile: %w", err)
	}
	defer w.Close()

	fields := fieldsFromSchema(c)
	w.SetFields(fields)

	for i, f := range c.Features {
		poly, err := geomToShpPolygon(f.Geometry)
		if err != nil {
			return fmt.Errorf("feature %d: %w", i, err)
		}
		w.Write(poly)

		if err := writeAttributes(w, f.Props, c.Fields, fields, i); err != nil {
			return fmt.Errorf("feature %d: %w", i, err)
		}
	}

	return writePrjSidecar(path, c.CRS)
}

// fieldsFromSchema builds the DBF field descriptors for the collection
// schema. The field type comes from the first non-null value of each
// column; DBF caps names at 10 characters.
func fieldsFromSchema(c *wards.Collection) []shp.Field {
	fields := make([]shp.Field, 0, len(c.Fields))
	for _, col := range c.Fields {
		fieldName := col
		if len(fieldName) > 10 {
			fieldName = fieldName[:10]
		}

		switch v := firstValue(c, col).(type) {
		case string:
			length := len(v)
			if length < 50 {
				length = 50
			}
			if length > 254 {
				length = 254
			}
			fields = append(fields, shp.StringField(fieldName, uint8(length)))
		case int, int32, int64:
			fields = append(fields, shp.NumberField(fieldName, 15))
		case float64, nil:
			// all-null columns stay numeric so blanks read back as null
			fields = append(fields, shp.FloatField(fieldName, 15, 5))
		default:
			fields = append(fields, shp.StringField(fieldName, 100))
		}
	}
	return fields
}

func firstValue(c *wards.Collection, col string) interface{} {
	for _, f := range c.Features {
		if v := f.Props[col]; v != nil {
			return v
		}
	}
	return nil
}

// writeAttributes fills one DBF row. Null values write as blanks, which
// DBF readers treat as null.
func writeAttributes(w *shp.Writer, props map[string]interface{}, cols []string, fields []shp.Field, row int) error {
	for i, col := range cols {
		value := props[col]
		if value == nil {
			if err := w.WriteAttribute(row, i, ""); err != nil {
				return fmt.Errorf("column %s: %w", col, err)
			}
			continue
		}

		var err error
		switch fields[i].Fieldtype {
		case 'N':
			err = w.WriteAttribute(row, i, toInt(value))
		case 'F':
			err = w.WriteAttribute(row, i, toFloat(value))
		default:
			err = w.WriteAttribute(row, i, fmt.Sprintf("%v", value))
		}
		if err != nil {
			return fmt.Errorf("column %s: %w", col, err)
		}
	}
	return nil
}

func toInt(value interface{}) int {
	switch v := value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return 0
}

func toFloat(value interface{}) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return 0
}

// geomToShpPolygon flattens a polygonal geometry into one shapefile
// polygon record with corrected ring winding.
func geomToShpPolygon(g geom.T) (*shp.Polygon, error) {
	var rings [][]geom.Coord
	switch t := g.(type) {
	case *geom.Polygon:
		rings = windRings(t.Coords())
	case *geom.MultiPolygon:
		for i := 0; i < t.NumPolygons(); i++ {
			rings = append(rings, windRings(t.Polygon(i).Coords())...)
		}
	default:
		return nil, fmt.Errorf("unsupported geometry type %T", g)
	}
	if len(rings) == 0 {
		return nil, fmt.Errorf("geometry has no rings")
	}

	poly := &shp.Polygon{}
	for _, ring := range rings {
		poly.Parts = append(poly.Parts, int32(len(poly.Points)))
		for _, c := range ring {
			poly.Points = append(poly.Points, shp.Point{X: c[0], Y: c[1]})
		}
	}
	poly.NumParts = int32(len(poly.Parts))
	poly.NumPoints = int32(len(poly.Points))
	poly.Box = poly.BBox()
	return poly, nil
}

// windRings forces ring 0 clockwise and every hole counter-clockwise.
// Coords() hands back fresh slices, so reversing in place is safe.
func windRings(rings [][]geom.Coord) [][]geom.Coord {
	for i, ring := range rings {
		outer := i == 0
		clockwise := signedRingArea(ring) < 0
		if clockwise != outer {
			reverseRing(ring)
		}
	}
	return rings
}

func reverseRing(ring []geom.Coord) {
	for i, j := 0, len(ring)-1; i < j; i, j = i+1, j-1 {
		ring[i], ring[j] = ring[j], ring[i]
	}
}

func writePrjSidecar(shpPath string, crs wards.CRS) error {
	wkt := crs.WKT
	if wkt == "" && crs.Geographic() {
		wkt = WGS84PrjWKT
	}
	if wkt == "" {
		return nil
	}
	prjPath := strings.TrimSuffix(shpPath, ".shp") + ".prj"
	if err := os.WriteFile(prjPath, []byte(wkt), 0644); err != nil {
		return fmt.Errorf("writing prj sidecar: %w", err)
	}
	return nil
}
