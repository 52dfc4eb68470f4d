package georef

import (
	"fmt"
	"math"
)

const (
	arcSecondsToRadians = math.Pi / (180 * 3600)
	ecefMaxIterations   = 16
	ecefTolerance       = 1e-14
)

// A Direction is the direction of a datum shift.
type Direction int

const (
	ToWGS84 Direction = iota
	FromWGS84
)

func (d Direction) String() string {
	switch d {
	case ToWGS84:
		return "to WGS84"
	case FromWGS84:
		return "from WGS84"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// An AccuracyTier is the class of datum shift used for a conversion.
type AccuracyTier int

const (
	AccuracyHelmert7 AccuracyTier = iota + 1
	AccuracyTranslation3
)

func (t AccuracyTier) String() string {
	switch t {
	case AccuracyHelmert7:
		return "helmert7"
	case AccuracyTranslation3:
		return "translation3"
	default:
		return fmt.Sprintf("AccuracyTier(%d)", int(t))
	}
}

// NominalErrorMetres returns the typical horizontal error of t.
func (t AccuracyTier) NominalErrorMetres() float64 {
	switch t {
	case AccuracyHelmert7:
		return 1
	case AccuracyTranslation3:
		return 50
	default:
		return math.Inf(1)
	}
}

// A Shifted is a geodetic coordinate after a datum shift. Height is the
// ellipsoidal height on the target datum of a point at zero height on the
// source datum.
type Shifted struct {
	Lon, Lat, Height float64
	Tier             AccuracyTier
}

// ShiftDatum converts the geodetic coordinate lon, lat between crs's local
// datum and WGS84. The seven parameter Helmert is used when crs has one,
// otherwise the three parameter translation.
func ShiftDatum(crs *CRSDefinition, lon, lat float64, dir Direction) (Shifted, error) {
	if crs == nil {
		return Shifted{}, &InvalidCRSError{}
	}
	if !isFinite(lon, lat) {
		return Shifted{}, fmt.Errorf("%s: lon %g lat %g: %w", crs.Key, lon, lat, ErrNonFinite)
	}

	shift, tier, err := crs.DatumShift.helmert()
	if err != nil {
		return Shifted{}, fmt.Errorf("%s: %w", crs.Key, err)
	}

	var source, target Ellipsoid
	switch dir {
	case ToWGS84:
		source, target = crs.Ellipsoid, WGS84Ellipsoid
	case FromWGS84:
		source, target = WGS84Ellipsoid, crs.Ellipsoid
	default:
		return Shifted{}, fmt.Errorf("%s: invalid direction %d", crs.Key, dir)
	}

	x, y, z := geodeticToECEF(source, lon, lat, 0)
	if dir == ToWGS84 {
		x, y, z = shift.apply(x, y, z)
	} else {
		x, y, z = shift.applyInverse(x, y, z)
	}
	shiftedLon, shiftedLat, height := ecefToGeodetic(target, x, y, z)
	if !isFinite(shiftedLon, shiftedLat, height) {
		return Shifted{}, fmt.Errorf("%s: lon %g lat %g: %w", crs.Key, lon, lat, ErrNonFinite)
	}
	return Shifted{
		Lon:    shiftedLon,
		Lat:    shiftedLat,
		Height: height,
		Tier:   tier,
	}, nil
}

// helmert returns s as a full Helmert transformation, promoting a
// translation to a Helmert with no rotation or scale.
func (s DatumShift) helmert() (Helmert, AccuracyTier, error) {
	switch {
	case s.Helmert != nil:
		return *s.Helmert, AccuracyHelmert7, nil
	case s.Translation != nil:
		return Helmert{TX: s.Translation[0], TY: s.Translation[1], TZ: s.Translation[2]}, AccuracyTranslation3, nil
	default:
		return Helmert{}, 0, fmt.Errorf("no datum shift: %w", ErrInvalidCRS)
	}
}

// matrix returns the rotation and scale matrix of h.
func (h Helmert) matrix() [3][3]float64 {
	rx := h.RX * arcSecondsToRadians
	ry := h.RY * arcSecondsToRadians
	rz := h.RZ * arcSecondsToRadians
	m := 1 + h.DS*1e-6
	return [3][3]float64{
		{m, -rz * m, ry * m},
		{rz * m, m, -rx * m},
		{-ry * m, rx * m, m},
	}
}

func (h Helmert) apply(x, y, z float64) (float64, float64, float64) {
	r := h.matrix()
	return h.TX + r[0][0]*x + r[0][1]*y + r[0][2]*z,
		h.TY + r[1][0]*x + r[1][1]*y + r[1][2]*z,
		h.TZ + r[2][0]*x + r[2][1]*y + r[2][2]*z
}

// applyInverse inverts apply exactly rather than negating the parameters.
func (h Helmert) applyInverse(x, y, z float64) (float64, float64, float64) {
	r := h.matrix()
	x, y, z = x-h.TX, y-h.TY, z-h.TZ
	det := r[0][0]*(r[1][1]*r[2][2]-r[1][2]*r[2][1]) -
		r[0][1]*(r[1][0]*r[2][2]-r[1][2]*r[2][0]) +
		r[0][2]*(r[1][0]*r[2][1]-r[1][1]*r[2][0])
	inv := [3][3]float64{
		{
			(r[1][1]*r[2][2] - r[1][2]*r[2][1]) / det,
			(r[0][2]*r[2][1] - r[0][1]*r[2][2]) / det,
			(r[0][1]*r[1][2] - r[0][2]*r[1][1]) / det,
		},
		{
			(r[1][2]*r[2][0] - r[1][0]*r[2][2]) / det,
			(r[0][0]*r[2][2] - r[0][2]*r[2][0]) / det,
			(r[0][2]*r[1][0] - r[0][0]*r[1][2]) / det,
		},
		{
			(r[1][0]*r[2][1] - r[1][1]*r[2][0]) / det,
			(r[0][1]*r[2][0] - r[0][0]*r[2][1]) / det,
			(r[0][0]*r[1][1] - r[0][1]*r[1][0]) / det,
		},
	}
	return inv[0][0]*x + inv[0][1]*y + inv[0][2]*z,
		inv[1][0]*x + inv[1][1]*y + inv[1][2]*z,
		inv[2][0]*x + inv[2][1]*y + inv[2][2]*z
}

func geodeticToECEF(e Ellipsoid, lon, lat, height float64) (x, y, z float64) {
	e2 := e.E2()
	phi := lat * math.Pi / 180
	lambda := lon * math.Pi / 180
	sinPhi, cosPhi := math.Sincos(phi)
	sinLambda, cosLambda := math.Sincos(lambda)
	n := e.A / math.Sqrt(1-e2*sinPhi*sinPhi)
	x = (n + height) * cosPhi * cosLambda
	y = (n + height) * cosPhi * sinLambda
	z = (n*(1-e2) + height) * sinPhi
	return x, y, z
}

func ecefToGeodetic(e Ellipsoid, x, y, z float64) (lon, lat, height float64) {
	e2 := e.E2()
	p := math.Hypot(x, y)
	lambda := math.Atan2(y, x)
	phi := math.Atan2(z, p*(1-e2))
	for range ecefMaxIterations {
		sinPhi := math.Sin(phi)
		n := e.A / math.Sqrt(1-e2*sinPhi*sinPhi)
		height = p/math.Cos(phi) - n
		next := math.Atan2(z, p*(1-e2*n/(n+height)))
		converged := math.Abs(next-phi) < ecefTolerance
		phi = next
		if converged {
			break
		}
	}
	sinPhi := math.Sin(phi)
	n := e.A / math.Sqrt(1-e2*sinPhi*sinPhi)
	height = p/math.Cos(phi) - n
	return lambda * 180 / math.Pi, phi * 180 / math.Pi, height
}
