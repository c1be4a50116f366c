package gis

import (
	"fmt"

	"github.com/everystreet/go-proj/v8/proj"
	geom "github.com/twpayne/go-geom"

	"github.com/gisworks/go-ward-mapper/wards"
)

// geographicTarget pins the transform target to lon/lat axis order.
// Naming "EPSG:4326" instead hands PROJ the authority definition, whose
// axis order is lat/lon, and every coordinate would come out swapped.
const geographicTarget = "+proj=longlat +datum=WGS84 +no_defs"

// ProjectToGeographic reprojects collections to geographic WGS 84 in
// place. Collections already in EPSG:4326 pass through untouched. A
// collection with no CRS at all is an error, since no transform can be
// derived for it.
func ProjectToGeographic(cols ...*wards.Collection) error {
	for _, c := range cols {
		if err := projectCollection(c); err != nil {
			return err
		}
	}
	return nil
}

func projectCollection(c *wards.Collection) error {
	if c.CRS.Geographic() {
		return nil
	}
	if !c.CRS.Defined() {
		return fmt.Errorf("source CRS is undefined, cannot reproject to EPSG:%d", wards.GeographicEPSG)
	}

	// the .prj text is the authoritative definition when present
	source := c.CRS.WKT
	if source == "" {
		source = fmt.Sprintf("EPSG:%d", c.CRS.EPSG)
	}

	var terr error
	err := proj.CRSToCRS(source, geographicTarget, func(pj proj.Projection) {
		for i := range c.Features {
			if terr = transformGeometry(pj, c.Features[i].Geometry); terr != nil {
				return
			}
		}
	})
	if err != nil {
		return fmt.Errorf("building transform from %s: %w", c.CRS, err)
	}
	if terr != nil {
		return terr
	}

	c.CRS = wards.CRS{EPSG: wards.GeographicEPSG, WKT: WGS84PrjWKT}
	return nil
}

// transformGeometry rewrites the flat coordinate storage of a geometry
// in place, one x/y pair per stride.
func transformGeometry(pj proj.Projection, g geom.T) error {
	flat := g.FlatCoords()
	stride := g.Stride()
	for i := 0; i+1 < len(flat); i += stride {
		xy := proj.XY{X: flat[i], Y: flat[i+1]}
		if err := proj.TransformForward(pj, &xy); err != nil {
			return fmt.Errorf("transforming coordinate %d: %w", i/stride, err)
		}
		flat[i] = xy.X
		flat[i+1] = xy.Y
	}
	return nil
}
