package georef

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// WKT returns c as OGC WKT1 with a TOWGS84 clause.
func (c *CRSDefinition) WKT() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `PROJCS[%q,`, c.Name)
	fmt.Fprintf(&sb, `GEOGCS[%q,`, c.GeogCSName)
	fmt.Fprintf(&sb, `DATUM[%q,`, c.Datum)
	fmt.Fprintf(&sb, `SPHEROID[%q,%s,%s,AUTHORITY["EPSG","%d"]],`,
		c.Ellipsoid.Name, formatFloat(c.Ellipsoid.A), formatFloat(c.Ellipsoid.InvFlattening), c.Ellipsoid.EPSG)
	if params := c.DatumShift.towgs84(); params != nil {
		values := make([]string, 7)
		for i := range values {
			if i < len(params) {
				values[i] = formatFloat(params[i])
			} else {
				values[i] = "0"
			}
		}
		sb.WriteString("TOWGS84[" + strings.Join(values, ",") + "],")
	}
	fmt.Fprintf(&sb, `AUTHORITY["EPSG","%d"]],`, c.DatumEPSG)
	sb.WriteString(`PRIMEM["Greenwich",0,AUTHORITY["EPSG","8901"]],`)
	sb.WriteString(`UNIT["degree",0.0174532925199433,AUTHORITY["EPSG","9122"]],`)
	fmt.Fprintf(&sb, `AUTHORITY["EPSG","%d"]],`, c.GeogCSEPSG)
	fmt.Fprintf(&sb, `PROJECTION[%q],`, c.Family.String())
	writeParameter := func(name string, value float64) {
		fmt.Fprintf(&sb, `PARAMETER[%q,%s],`, name, formatFloat(value))
	}
	writeParameter("latitude_of_origin", c.LatOrigin)
	writeParameter("central_meridian", c.CentralMeridian)
	if c.Family == TransverseMercator {
		writeParameter("scale_factor", c.ScaleFactor)
	}
	writeParameter("false_easting", c.FalseEasting)
	writeParameter("false_northing", c.FalseNorthing)
	sb.WriteString(`UNIT["metre",1,AUTHORITY["EPSG","9001"]],`)
	sb.WriteString(`AXIS["Easting",EAST],AXIS["Northing",NORTH],`)
	sb.WriteString(`AUTHORITY["EPSG","` + strconv.Itoa(c.EPSG) + `"]]`)
	return sb.String()
}

// WriteProjection writes the .prj contents for crs to w.
func WriteProjection(w io.Writer, crs *CRSDefinition) error {
	if crs == nil {
		return &InvalidCRSError{}
	}
	switch crs.Family {
	case TransverseMercator, CassiniSoldner:
	default:
		return &InvalidCRSError{Key: crs.Key}
	}
	_, err := io.WriteString(w, crs.WKT())
	return err
}
