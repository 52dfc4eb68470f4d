package georef

import (
	"fmt"
	"math"
)

const (
	degreesToRadians = math.Pi / 180
	radiansToDegrees = 180 / math.Pi
)

// A Result is a converted coordinate. For Forward, X and Y are easting and
// northing; for Inverse, longitude and latitude in degrees.
type Result struct {
	X, Y        float64
	Tier        AccuracyTier
	OutOfDomain bool

	warning *OutOfDomainWarning
}

// Warning returns an *OutOfDomainWarning if r was computed outside the
// projection's domain, or nil.
func (r Result) Warning() error {
	if !r.OutOfDomain || r.warning == nil {
		return nil
	}
	return r.warning
}

func (r *Result) checkDomain(crs *CRSDefinition, lon, lat float64) {
	if crs.InDomain(lon, lat) {
		return
	}
	r.OutOfDomain = true
	r.warning = &OutOfDomainWarning{
		CRS: crs.Key,
		Lon: lon,
		Lat: lat,
	}
}

// Forward converts the WGS84 coordinate lon, lat to easting and northing in
// crs.
func Forward(crs *CRSDefinition, lon, lat float64) (Result, error) {
	if crs == nil {
		return Result{}, &InvalidCRSError{}
	}
	if !isFinite(lon, lat) {
		return Result{}, fmt.Errorf("%s: lon %g lat %g: %w", crs.Key, lon, lat, ErrNonFinite)
	}
	shifted, err := ShiftDatum(crs, lon, lat, FromWGS84)
	if err != nil {
		return Result{}, err
	}
	easting, northing, err := Project(crs, shifted.Lon, shifted.Lat)
	if err != nil {
		return Result{}, err
	}
	result := Result{
		X:    easting,
		Y:    northing,
		Tier: shifted.Tier,
	}
	result.checkDomain(crs, lon, lat)
	return result, nil
}

// Inverse converts easting, northing in crs to a WGS84 longitude and
// latitude.
func Inverse(crs *CRSDefinition, easting, northing float64) (Result, error) {
	if crs == nil {
		return Result{}, &InvalidCRSError{}
	}
	lon, lat, err := Unproject(crs, easting, northing)
	if err != nil {
		return Result{}, err
	}
	shifted, err := ShiftDatum(crs, lon, lat, ToWGS84)
	if err != nil {
		return Result{}, err
	}
	result := Result{
		X:    shifted.Lon,
		Y:    shifted.Lat,
		Tier: shifted.Tier,
	}
	result.checkDomain(crs, shifted.Lon, shifted.Lat)
	return result, nil
}

// Project converts lon, lat on crs's own datum to easting and northing.
func Project(crs *CRSDefinition, lon, lat float64) (easting, northing float64, err error) {
	if crs == nil {
		return 0, 0, &InvalidCRSError{}
	}
	if !isFinite(lon, lat) {
		return 0, 0, fmt.Errorf("%s: lon %g lat %g: %w", crs.Key, lon, lat, ErrNonFinite)
	}
	s := newSeries(crs)
	var x, y float64
	switch crs.Family {
	case TransverseMercator:
		x, y = s.tmForward(lon, lat)
	case CassiniSoldner:
		x, y = s.cassiniForward(lon, lat)
	default:
		return 0, 0, &InvalidCRSError{Key: crs.Key}
	}
	easting, northing = crs.FalseEasting+x, crs.FalseNorthing+y
	if !isFinite(easting, northing) {
		return 0, 0, fmt.Errorf("%s: lon %g lat %g: %w", crs.Key, lon, lat, ErrNonFinite)
	}
	return easting, northing, nil
}

// Unproject converts easting, northing in crs to lon, lat on crs's own
// datum.
func Unproject(crs *CRSDefinition, easting, northing float64) (lon, lat float64, err error) {
	if crs == nil {
		return 0, 0, &InvalidCRSError{}
	}
	if !isFinite(easting, northing) {
		return 0, 0, fmt.Errorf("%s: easting %g northing %g: %w", crs.Key, easting, northing, ErrNonFinite)
	}
	s := newSeries(crs)
	x, y := easting-crs.FalseEasting, northing-crs.FalseNorthing
	switch crs.Family {
	case TransverseMercator:
		lon, lat = s.tmInverse(x, y)
	case CassiniSoldner:
		lon, lat = s.cassiniInverse(x, y)
	default:
		return 0, 0, &InvalidCRSError{Key: crs.Key}
	}
	if !isFinite(lon, lat) {
		return 0, 0, fmt.Errorf("%s: easting %g northing %g: %w", crs.Key, easting, northing, ErrNonFinite)
	}
	return lon, lat, nil
}

// A series holds the ellipsoid constants of the Snyder projection series.
type series struct {
	a, e2, ep2 float64
	k0         float64
	phi0       float64
	lambda0    float64
	m0         float64
}

func newSeries(crs *CRSDefinition) *series {
	s := &series{
		a:       crs.Ellipsoid.A,
		e2:      crs.Ellipsoid.E2(),
		ep2:     crs.Ellipsoid.EP2(),
		k0:      crs.ScaleFactor,
		phi0:    crs.LatOrigin * degreesToRadians,
		lambda0: crs.CentralMeridian * degreesToRadians,
	}
	if crs.Family == CassiniSoldner || s.k0 == 0 {
		s.k0 = 1
	}
	s.m0 = s.meridianArc(s.phi0)
	return s
}

// meridianArc returns the distance along the meridian from the equator to
// latitude phi.
func (s *series) meridianArc(phi float64) float64 {
	e2 := s.e2
	e4 := e2 * e2
	e6 := e4 * e2
	return s.a * ((1-e2/4-3*e4/64-5*e6/256)*phi -
		(3*e2/8+3*e4/32+45*e6/1024)*math.Sin(2*phi) +
		(15*e4/256+45*e6/1024)*math.Sin(4*phi) -
		(35*e6/3072)*math.Sin(6*phi))
}

// footpointLatitude returns the latitude whose meridian arc is m.
func (s *series) footpointLatitude(m float64) float64 {
	e2 := s.e2
	e4 := e2 * e2
	e6 := e4 * e2
	mu := m / (s.a * (1 - e2/4 - 3*e4/64 - 5*e6/256))
	sqrt := math.Sqrt(1 - e2)
	e1 := (1 - sqrt) / (1 + sqrt)
	e12 := e1 * e1
	e13 := e12 * e1
	e14 := e13 * e1
	return mu +
		(3*e1/2-27*e13/32)*math.Sin(2*mu) +
		(21*e12/16-55*e14/32)*math.Sin(4*mu) +
		(151*e13/96)*math.Sin(6*mu) +
		(1097*e14/512)*math.Sin(8*mu)
}

func (s *series) tmForward(lon, lat float64) (x, y float64) {
	phi := lat * degreesToRadians
	sinPhi, cosPhi := math.Sincos(phi)
	tanPhi := sinPhi / cosPhi
	n := s.a / math.Sqrt(1-s.e2*sinPhi*sinPhi)
	t := tanPhi * tanPhi
	c := s.ep2 * cosPhi * cosPhi
	a := (lon*degreesToRadians - s.lambda0) * cosPhi
	a2 := a * a
	a3 := a2 * a
	a4 := a3 * a
	a5 := a4 * a
	a6 := a5 * a
	m := s.meridianArc(phi)
	x = s.k0 * n * (a +
		(1-t+c)*a3/6 +
		(5-18*t+t*t+72*c-58*s.ep2)*a5/120)
	y = s.k0 * (m - s.m0 + n*tanPhi*(a2/2+
		(5-t+9*c+4*c*c)*a4/24+
		(61-58*t+t*t+600*c-330*s.ep2)*a6/720))
	return x, y
}

func (s *series) tmInverse(x, y float64) (lon, lat float64) {
	phi1 := s.footpointLatitude(s.m0 + y/s.k0)
	sinPhi1, cosPhi1 := math.Sincos(phi1)
	tanPhi1 := sinPhi1 / cosPhi1
	c1 := s.ep2 * cosPhi1 * cosPhi1
	t1 := tanPhi1 * tanPhi1
	w := 1 - s.e2*sinPhi1*sinPhi1
	n1 := s.a / math.Sqrt(w)
	r1 := s.a * (1 - s.e2) / (w * math.Sqrt(w))
	d := x / (n1 * s.k0)
	d2 := d * d
	d3 := d2 * d
	d4 := d3 * d
	d5 := d4 * d
	d6 := d5 * d
	phi := phi1 - (n1*tanPhi1/r1)*(d2/2-
		(5+3*t1+10*c1-4*c1*c1-9*s.ep2)*d4/24+
		(61+90*t1+298*c1+45*t1*t1-252*s.ep2-3*c1*c1)*d6/720)
	lambda := s.lambda0 + (d-
		(1+2*t1+c1)*d3/6+
		(5-2*c1+28*t1-3*c1*c1+8*s.ep2+24*t1*t1)*d5/120)/cosPhi1
	return lambda * radiansToDegrees, phi * radiansToDegrees
}

func (s *series) cassiniForward(lon, lat float64) (x, y float64) {
	phi := lat * degreesToRadians
	sinPhi, cosPhi := math.Sincos(phi)
	tanPhi := sinPhi / cosPhi
	n := s.a / math.Sqrt(1-s.e2*sinPhi*sinPhi)
	t := tanPhi * tanPhi
	c := s.ep2 * cosPhi * cosPhi
	a := (lon*degreesToRadians - s.lambda0) * cosPhi
	a2 := a * a
	a3 := a2 * a
	a4 := a3 * a
	a5 := a4 * a
	x = n * (a - t*a3/6 - (8-t+8*c)*t*a5/120)
	y = s.meridianArc(phi) - s.m0 + n*tanPhi*(a2/2+(5-t+6*c)*a4/24)
	return x, y
}

func (s *series) cassiniInverse(x, y float64) (lon, lat float64) {
	phi1 := s.footpointLatitude(s.m0 + y)
	sinPhi1, cosPhi1 := math.Sincos(phi1)
	tanPhi1 := sinPhi1 / cosPhi1
	t1 := tanPhi1 * tanPhi1
	w := 1 - s.e2*sinPhi1*sinPhi1
	n1 := s.a / math.Sqrt(w)
	r1 := s.a * (1 - s.e2) / (w * math.Sqrt(w))
	d := x / n1
	d2 := d * d
	d3 := d2 * d
	d4 := d3 * d
	d5 := d4 * d
	phi := phi1 - (n1*tanPhi1/r1)*(d2/2-(1+3*t1)*d4/24)
	lambda := s.lambda0 + (d-t1*d3/3+(1+3*t1)*t1*d5/15)/cosPhi1
	return lambda * radiansToDegrees, phi * radiansToDegrees
}
