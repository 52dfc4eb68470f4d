package georef

import (
	"errors"
	"fmt"
)

var errParse = errors.New("parse error")

type GeoKey uint16

const (
	GeoKeyGTModelType  GeoKey = 1024
	GeoKeyGTRasterType GeoKey = 1025
	GeoKeyGTCitation   GeoKey = 1026

	GeoKeyGeodeticCRS            GeoKey = 2048
	GeoKeyGeogCitation           GeoKey = 2049
	GeoKeyGeodeticDatum          GeoKey = 2050
	GeoKeyPrimeMeridian          GeoKey = 2051
	GeoKeyAngularUnits           GeoKey = 2054
	GeoKeyGeogAngularUnitSize    GeoKey = 2055
	GeoKeyEllipsoid              GeoKey = 2056
	GeoKeyEllipsoidSemiMajorAxis GeoKey = 2057
	GeoKeyEllipsoidInvFlattening GeoKey = 2059
	GeoKeyPrimeMeridianLongitude GeoKey = 2061

	GeoKeyProjectedCRS             GeoKey = 3072
	GeoKeyPCSCitation              GeoKey = 3073
	GeoKeyProjection               GeoKey = 3074
	GeoKeyProjMethod               GeoKey = 3075
	GeoKeyProjLinearUnits          GeoKey = 3076
	GeoKeyProjNatOriginLong        GeoKey = 3080
	GeoKeyProjNatOriginLat         GeoKey = 3081
	GeoKeyProjFalseEasting         GeoKey = 3082
	GeoKeyProjFalseNorthing        GeoKey = 3083
	GeoKeyProjCenterLongitude      GeoKey = 3088
	GeoKeyProjCenterLatitude       GeoKey = 3089
	GeoKeyProjectionCenterEasting  GeoKey = 3090
	GeoKeyProjectionCenterNorthing GeoKey = 3091
	GeoKeyProjScaleAtNatOrigin     GeoKey = 3092
)

const (
	geoKeyUserDefined            = 32767
	geoDoubleParamsTag           = 34736
	geoASCIIParamsTag            = 34737
	modelTypeProjected           = 1
	rasterTypePixelIsPoint       = 2
	projMethodTransverseMercator = 1
	projMethodCassiniSoldner     = 18
	linearUnitsMetre             = 9001
)

// ParsedGeoKeys holds the values of a GeoKey directory, keyed by where the
// GeoTIFF stores them.
type ParsedGeoKeys struct {
	Params       map[GeoKey]int
	DoubleParams map[GeoKey]float64
	ASCIIParams  map[GeoKey]string
}

// ParseGeoKeys parses a GeoKeyDirectoryTag and its GeoDoubleParamsTag and
// GeoASCIIParamsTag companions.
func ParseGeoKeys(directory []uint16, doubleParams []float64, asciiParams []byte) (*ParsedGeoKeys, error) {
	if len(directory) < 4 {
		return nil, fmt.Errorf("GeoKey directory: %w: header too short", errParse)
	}

	if keyDirectoryVersion := int(directory[0]); keyDirectoryVersion != 1 {
		return nil, fmt.Errorf("GeoKey directory: %w: version %d", errParse, keyDirectoryVersion)
	}
	if keyRevision := int(directory[1]); keyRevision != 1 {
		return nil, fmt.Errorf("GeoKey directory: %w: revision %d", errParse, keyRevision)
	}
	if minorRevision := int(directory[2]); minorRevision != 0 && minorRevision != 1 {
		return nil, fmt.Errorf("GeoKey directory: %w: minor revision %d", errParse, minorRevision)
	}
	numberOfKeys := int(directory[3])
	if len(directory) != 4+4*numberOfKeys {
		return nil, fmt.Errorf("GeoKey directory: %w: %d keys in %d values", errParse, numberOfKeys, len(directory))
	}

	parsedGeoKeys := &ParsedGeoKeys{
		Params:       make(map[GeoKey]int),
		DoubleParams: make(map[GeoKey]float64),
		ASCIIParams:  make(map[GeoKey]string),
	}
	for i := range numberOfKeys {
		keyValues := directory[4+4*i : 4+4*(i+1)]
		key := GeoKey(keyValues[0])
		tiffTagLocation := int(keyValues[1])
		numberOfValues := int(keyValues[2])
		index := int(keyValues[3])
		switch tiffTagLocation {
		case 0:
			if numberOfValues != 1 {
				return nil, fmt.Errorf("GeoKey %d: %w: %d inline values", key, errParse, numberOfValues)
			}
			parsedGeoKeys.Params[key] = index
		case geoDoubleParamsTag:
			if numberOfValues != 1 {
				return nil, fmt.Errorf("GeoKey %d: %d double values: %w", key, numberOfValues, errors.ErrUnsupported)
			}
			if index >= len(doubleParams) {
				return nil, fmt.Errorf("GeoKey %d: %w: double index %d out of range", key, errParse, index)
			}
			parsedGeoKeys.DoubleParams[key] = doubleParams[index]
		case geoASCIIParamsTag:
			if index+numberOfValues > len(asciiParams) {
				return nil, fmt.Errorf("GeoKey %d: %w: ASCII range out of range", key, errParse)
			}
			parsedGeoKeys.ASCIIParams[key] = string(asciiParams[index : index+numberOfValues])
		default:
			return nil, fmt.Errorf("GeoKey %d: tag location %d: %w", key, tiffTagLocation, errors.ErrUnsupported)
		}
	}
	return parsedGeoKeys, nil
}

// CRS returns the catalog CRS described by k. A user defined projected CRS
// is matched against the catalog by method, origin, and false origin.
func (k *ParsedGeoKeys) CRS() (*CRSDefinition, error) {
	if modelType, ok := k.Params[GeoKeyGTModelType]; ok && modelType != modelTypeProjected {
		return nil, fmt.Errorf("model type %d: %w", modelType, ErrInvalidCRS)
	}
	code, ok := k.Params[GeoKeyProjectedCRS]
	if !ok {
		return nil, fmt.Errorf("no projected CRS: %w", ErrInvalidCRS)
	}
	if code != geoKeyUserDefined {
		return LookupEPSG(code)
	}

	var family ProjectionFamily
	switch method := k.Params[GeoKeyProjMethod]; method {
	case projMethodTransverseMercator:
		family = TransverseMercator
	case projMethodCassiniSoldner:
		family = CassiniSoldner
	default:
		return nil, &InvalidCRSError{Key: fmt.Sprintf("user defined projection method %d", method)}
	}
	if units, ok := k.Params[GeoKeyProjLinearUnits]; ok && units != linearUnitsMetre {
		return nil, &InvalidCRSError{Key: fmt.Sprintf("linear units %d", units)}
	}
	for _, crs := range definitions {
		if crs.Family == family &&
			nearlyEqual(k.DoubleParams[GeoKeyProjFalseEasting], crs.FalseEasting, 1e-3) &&
			nearlyEqual(k.DoubleParams[GeoKeyProjFalseNorthing], crs.FalseNorthing, 1e-3) &&
			nearlyEqual(k.DoubleParams[GeoKeyProjNatOriginLong], crs.CentralMeridian, 1e-6) &&
			nearlyEqual(k.DoubleParams[GeoKeyProjNatOriginLat], crs.LatOrigin, 1e-6) {
			return crs, nil
		}
	}
	return nil, &InvalidCRSError{Key: "user defined"}
}

// PixelIsPoint returns whether the raster's tie points refer to pixel
// centers.
func (k *ParsedGeoKeys) PixelIsPoint() bool {
	return k.Params[GeoKeyGTRasterType] == rasterTypePixelIsPoint
}

func nearlyEqual(a, b, tolerance float64) bool {
	return a-b <= tolerance && b-a <= tolerance
}
