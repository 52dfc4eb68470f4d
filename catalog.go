package georef

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// An Ellipsoid is a reference ellipsoid.
type Ellipsoid struct {
	Name          string
	EPSG          int
	A             float64
	InvFlattening float64
}

// F returns the flattening of e.
func (e Ellipsoid) F() float64 {
	return 1 / e.InvFlattening
}

// E2 returns the first eccentricity squared of e.
func (e Ellipsoid) E2() float64 {
	f := e.F()
	return f * (2 - f)
}

// EP2 returns the second eccentricity squared of e.
func (e Ellipsoid) EP2() float64 {
	e2 := e.E2()
	return e2 / (1 - e2)
}

// B returns the semi-minor axis of e.
func (e Ellipsoid) B() float64 {
	return e.A * (1 - e.F())
}

// A Helmert is a seven parameter position vector transformation from a local
// datum to WGS84. Translations are in metres, rotations in arc-seconds, and
// the scale difference in parts per million.
type Helmert struct {
	TX, TY, TZ float64
	RX, RY, RZ float64
	DS         float64
}

// A DatumShift holds the known shifts from a local datum to WGS84. Helmert is
// preferred; Translation is a geocentric translation only fallback.
type DatumShift struct {
	Helmert     *Helmert
	Translation *[3]float64
}

// A ProjectionFamily is a map projection method.
type ProjectionFamily int

const (
	TransverseMercator ProjectionFamily = iota
	CassiniSoldner
)

func (f ProjectionFamily) String() string {
	switch f {
	case TransverseMercator:
		return "Transverse_Mercator"
	case CassiniSoldner:
		return "Cassini_Soldner"
	default:
		return "ProjectionFamily(" + strconv.Itoa(int(f)) + ")"
	}
}

// A CRSDefinition is a projected coordinate reference system on a local
// datum. Angles are in degrees and distances in metres.
type CRSDefinition struct {
	Key               string
	Aliases           []string
	Name              string
	EPSG              int
	Family            ProjectionFamily
	Ellipsoid         Ellipsoid
	Datum             string
	DatumEPSG         int
	GeogCSName        string
	GeogCSEPSG        int
	LatOrigin         float64
	CentralMeridian   float64
	ScaleFactor       float64
	FalseEasting      float64
	FalseNorthing     float64
	DatumShift        DatumShift
	Region            orb.Bound
	MaxMeridianOffset float64
}

var (
	GRS80 = Ellipsoid{
		Name:          "GRS 1980",
		EPSG:          7019,
		A:             6378137,
		InvFlattening: 298.257222101,
	}

	WGS84Ellipsoid = Ellipsoid{
		Name:          "WGS 84",
		EPSG:          7030,
		A:             6378137,
		InvFlattening: 298.257223563,
	}

	Clarke1880Benoit = Ellipsoid{
		Name:          "Clarke 1880 (Benoit)",
		EPSG:          7010,
		A:             6378300.789,
		InvFlattening: 293.466307656,
	}
)

// israelRegion is the area of use of the Israeli grids, onshore and offshore.
var israelRegion = orb.Bound{
	Min: orb.Point{32.99, 29.45},
	Max: orb.Point{35.94, 33.53},
}

// ITM is Israel 1993 / Israeli TM Grid.
var ITM = &CRSDefinition{
	Key:             "itm",
	Aliases:         []string{"new", "israeli-tm"},
	Name:            "Israel 1993 / Israeli TM Grid",
	EPSG:            2039,
	Family:          TransverseMercator,
	Ellipsoid:       GRS80,
	Datum:           "Israel 1993",
	DatumEPSG:       6141,
	GeogCSName:      "Israel 1993",
	GeogCSEPSG:      4141,
	LatOrigin:       dms(31, 44, 3.817),
	CentralMeridian: dms(35, 12, 16.261),
	ScaleFactor:     1.0000067,
	FalseEasting:    219529.584,
	FalseNorthing:   626907.39,
	DatumShift: DatumShift{
		Helmert: &Helmert{
			TX: -24.0024, TY: -17.1032, TZ: -17.8444,
			RX: -0.33077, RY: -1.85269, RZ: 1.66969,
			DS: 5.4248,
		},
		Translation: &[3]float64{-48, 55, 52},
	},
	Region:            israelRegion,
	MaxMeridianOffset: 3,
}

// ICS is Palestine 1923 / Israeli Cassini-Soldner Grid, the old Israeli grid.
var ICS = &CRSDefinition{
	Key:             "ics",
	Aliases:         []string{"old", "israeli-cassini"},
	Name:            "Palestine 1923 / Israeli CS Grid",
	EPSG:            28193,
	Family:          CassiniSoldner,
	Ellipsoid:       Clarke1880Benoit,
	Datum:           "Palestine 1923",
	DatumEPSG:       6281,
	GeogCSName:      "Palestine 1923",
	GeogCSEPSG:      4281,
	LatOrigin:       dms(31, 44, 2.749),
	CentralMeridian: dms(35, 12, 43.490),
	ScaleFactor:     1,
	FalseEasting:    170251.555,
	FalseNorthing:   1126867.909,
	DatumShift: DatumShift{
		Helmert: &Helmert{
			TX: -275.7224, TY: 94.7824, TZ: 340.8944,
			RX: -8.001, RY: -4.42, RZ: -11.821,
			DS: 1,
		},
		Translation: &[3]float64{-235, -85, 264},
	},
	Region:            israelRegion,
	MaxMeridianOffset: 3,
}

var definitions = []*CRSDefinition{ITM, ICS}

func dms(degrees, minutes, seconds float64) float64 {
	return degrees + minutes/60 + seconds/3600
}

// Definitions returns all catalog definitions in a stable order.
func Definitions() []*CRSDefinition {
	return slices.Clone(definitions)
}

// Lookup returns the definition for key, which may be a catalog key, an
// alias, or EPSG:nnnn. Matching is case insensitive.
func Lookup(key string) (*CRSDefinition, error) {
	normalizedKey := strings.ToLower(strings.TrimSpace(key))
	if code, ok := strings.CutPrefix(normalizedKey, "epsg:"); ok {
		if epsg, err := strconv.Atoi(code); err == nil {
			if crs, err := LookupEPSG(epsg); err == nil {
				return crs, nil
			}
		}
		return nil, &InvalidCRSError{Key: key}
	}
	for _, crs := range definitions {
		if crs.Key == normalizedKey || slices.Contains(crs.Aliases, normalizedKey) {
			return crs, nil
		}
	}
	return nil, &InvalidCRSError{Key: key}
}

// LookupEPSG returns the definition with the given EPSG code.
func LookupEPSG(code int) (*CRSDefinition, error) {
	for _, crs := range definitions {
		if crs.EPSG == code {
			return crs, nil
		}
	}
	return nil, &InvalidCRSError{Key: "EPSG:" + strconv.Itoa(code)}
}

// InDomain returns whether lon, lat lies where c's projection series and
// datum shift are accurate.
func (c *CRSDefinition) InDomain(lon, lat float64) bool {
	if !c.Region.Contains(orb.Point{lon, lat}) {
		return false
	}
	return c.MaxMeridianOffset <= 0 || math.Abs(lon-c.CentralMeridian) <= c.MaxMeridianOffset
}

// Proj4 returns c as a PROJ string.
func (c *CRSDefinition) Proj4() string {
	var sb strings.Builder
	switch c.Family {
	case TransverseMercator:
		sb.WriteString("+proj=tmerc")
	case CassiniSoldner:
		sb.WriteString("+proj=cass")
	}
	writeParam := func(name string, value float64) {
		sb.WriteString(" +" + name + "=" + formatFloat(value))
	}
	writeParam("lat_0", c.LatOrigin)
	writeParam("lon_0", c.CentralMeridian)
	if c.Family == TransverseMercator {
		writeParam("k", c.ScaleFactor)
	}
	writeParam("x_0", c.FalseEasting)
	writeParam("y_0", c.FalseNorthing)
	writeParam("a", c.Ellipsoid.A)
	writeParam("rf", c.Ellipsoid.InvFlattening)
	if params := c.DatumShift.towgs84(); params != nil {
		values := make([]string, 0, len(params))
		for _, param := range params {
			values = append(values, formatFloat(param))
		}
		sb.WriteString(" +towgs84=" + strings.Join(values, ","))
	}
	sb.WriteString(" +units=m +no_defs +type=crs")
	return sb.String()
}

func (c *CRSDefinition) String() string {
	return c.Key
}

// towgs84 returns s in TOWGS84 parameter order, or nil if s is empty.
func (s DatumShift) towgs84() []float64 {
	switch {
	case s.Helmert != nil:
		h := s.Helmert
		return []float64{h.TX, h.TY, h.TZ, h.RX, h.RY, h.RZ, h.DS}
	case s.Translation != nil:
		return []float64{s.Translation[0], s.Translation[1], s.Translation[2]}
	default:
		return nil
	}
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
