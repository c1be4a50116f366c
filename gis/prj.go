package gis

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/gisworks/go-ward-mapper/wards"
)

// WGS84PrjWKT is the ESRI well-known text for geographic WGS 84. It is
// written as the .prj sidecar of every exported shapefile.
const WGS84PrjWKT = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`

var authorityRe = regexp.MustCompile(`AUTHORITY\["EPSG",\s*"(\d+)"\]`)

// ParseCRSWKT reads the EPSG code out of a WKT definition. The last
// AUTHORITY clause names the CRS as a whole; ESRI-flavoured WKT often
// carries no AUTHORITY at all, so plain geographic WGS 84 is recognized
// by name. Anything else keeps the WKT and leaves the code at 0.
func ParseCRSWKT(wkt string) wards.CRS {
	wkt = strings.TrimSpace(wkt)
	if wkt == "" {
		return wards.CRS{}
	}
	if ms := authorityRe.FindAllStringSubmatch(wkt, -1); len(ms) > 0 {
		if code, err := strconv.Atoi(ms[len(ms)-1][1]); err == nil {
			return wards.CRS{EPSG: code, WKT: wkt}
		}
	}
	if strings.HasPrefix(wkt, "GEOGCS") &&
		(strings.Contains(wkt, "WGS_1984") || strings.Contains(wkt, "WGS 84")) {
		return wards.CRS{EPSG: wards.GeographicEPSG, WKT: wkt}
	}
	return wards.CRS{WKT: wkt}
}

// ReadPrj loads the .prj sidecar next to a shapefile. A missing sidecar
// is not an error, it means the source CRS is undefined.
func ReadPrj(shpPath string) (wards.CRS, error) {
	prjPath := strings.TrimSuffix(shpPath, filepath.Ext(shpPath)) + ".prj"
	data, err := os.ReadFile(prjPath)
	if os.IsNotExist(err) {
		return wards.CRS{}, nil
	}
	if err != nil {
		return wards.CRS{}, fmt.Errorf("reading %s: %w", prjPath, err)
	}
	return ParseCRSWKT(string(data)), nil
}
