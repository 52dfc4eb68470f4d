package georef

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestParseGeoKeys(t *testing.T) {
	directory := []uint16{
		1, 1, 0, 14,
		1024, 0, 1, 1,
		1025, 0, 1, 1,
		1026, 34737, 30, 0,
		2048, 0, 1, 4141,
		2050, 0, 1, 6141,
		2056, 0, 1, 7019,
		3072, 0, 1, 32767,
		3073, 34737, 22, 30,
		3075, 0, 1, 1,
		3076, 0, 1, 9001,
		3080, 34736, 1, 0,
		3081, 34736, 1, 1,
		3082, 34736, 1, 2,
		3083, 34736, 1, 3,
	}
	doubleParams := []float64{
		35.204516944444,
		31.734393611111,
		219529.584,
		626907.39,
	}
	asciiParams := []byte("" +
		"Israel 1993 / Israeli TM Grid|" +
		"ITM user defined grid|",
	)

	actual, err := ParseGeoKeys(directory, doubleParams, asciiParams)
	assert.NoError(t, err)

	assert.Equal(t, &ParsedGeoKeys{
		Params: map[GeoKey]int{
			GeoKeyGTModelType:     1,
			GeoKeyGTRasterType:    1,
			GeoKeyGeodeticCRS:     4141,
			GeoKeyGeodeticDatum:   6141,
			GeoKeyEllipsoid:       7019,
			GeoKeyProjectedCRS:    32767,
			GeoKeyProjMethod:      1,
			GeoKeyProjLinearUnits: 9001,
		},
		DoubleParams: map[GeoKey]float64{
			GeoKeyProjNatOriginLong: 35.204516944444,
			GeoKeyProjNatOriginLat:  31.734393611111,
			GeoKeyProjFalseEasting:  219529.584,
			GeoKeyProjFalseNorthing: 626907.39,
		},
		ASCIIParams: map[GeoKey]string{
			GeoKeyGTCitation:  "Israel 1993 / Israeli TM Grid|",
			GeoKeyPCSCitation: "ITM user defined grid|",
		},
	}, actual)

	crs, err := actual.CRS()
	assert.NoError(t, err)
	assert.True(t, crs == ITM)
	assert.False(t, actual.PixelIsPoint())
}

func TestParseGeoKeysErrors(t *testing.T) {
	for _, tc := range []struct {
		name         string
		directory    []uint16
		doubleParams []float64
		asciiParams  []byte
		expected     error
	}{
		{
			name:      "short_header",
			directory: []uint16{1, 1, 0},
			expected:  errParse,
		},
		{
			name:      "version",
			directory: []uint16{2, 1, 0, 0},
			expected:  errParse,
		},
		{
			name:      "key_count",
			directory: []uint16{1, 1, 0, 2, 1024, 0, 1, 1},
			expected:  errParse,
		},
		{
			name:      "double_index",
			directory: []uint16{1, 1, 0, 1, 3082, 34736, 1, 1},
			expected:  errParse,
		},
		{
			name:        "ascii_range",
			directory:   []uint16{1, 1, 0, 1, 1026, 34737, 10, 0},
			asciiParams: []byte("short|"),
			expected:    errParse,
		},
		{
			name:      "tag_location",
			directory: []uint16{1, 1, 0, 1, 1024, 33550, 1, 0},
			expected:  errors.ErrUnsupported,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseGeoKeys(tc.directory, tc.doubleParams, tc.asciiParams)
			assert.IsError(t, err, tc.expected)
		})
	}
}

func TestGeoKeysCRS(t *testing.T) {
	for _, tc := range []struct {
		name     string
		geoKeys  *ParsedGeoKeys
		expected *CRSDefinition
	}{
		{
			name: "epsg_2039",
			geoKeys: &ParsedGeoKeys{
				Params: map[GeoKey]int{
					GeoKeyGTModelType:  1,
					GeoKeyProjectedCRS: 2039,
				},
			},
			expected: ITM,
		},
		{
			name: "epsg_28193",
			geoKeys: &ParsedGeoKeys{
				Params: map[GeoKey]int{
					GeoKeyProjectedCRS: 28193,
				},
			},
			expected: ICS,
		},
		{
			name: "user_defined_cassini",
			geoKeys: &ParsedGeoKeys{
				Params: map[GeoKey]int{
					GeoKeyGTModelType:  1,
					GeoKeyProjectedCRS: 32767,
					GeoKeyProjMethod:   18,
				},
				DoubleParams: map[GeoKey]float64{
					GeoKeyProjNatOriginLong: ICS.CentralMeridian,
					GeoKeyProjNatOriginLat:  ICS.LatOrigin,
					GeoKeyProjFalseEasting:  170251.555,
					GeoKeyProjFalseNorthing: 1126867.909,
				},
			},
			expected: ICS,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			actual, err := tc.geoKeys.CRS()
			assert.NoError(t, err)
			assert.True(t, tc.expected == actual)
		})
	}

	for _, tc := range []struct {
		name    string
		geoKeys *ParsedGeoKeys
	}{
		{
			name: "geographic",
			geoKeys: &ParsedGeoKeys{
				Params: map[GeoKey]int{
					GeoKeyGTModelType:   2,
					GeoKeyGeodeticCRS:   4326,
					GeoKeyProjectedCRS:  2039,
					GeoKeyGTRasterType:  1,
					GeoKeyGeodeticDatum: 6326,
				},
			},
		},
		{
			name: "no_projected_crs",
			geoKeys: &ParsedGeoKeys{
				Params: map[GeoKey]int{
					GeoKeyGTModelType: 1,
				},
			},
		},
		{
			name: "unknown_epsg",
			geoKeys: &ParsedGeoKeys{
				Params: map[GeoKey]int{
					GeoKeyProjectedCRS: 32636,
				},
			},
		},
		{
			name: "user_defined_method",
			geoKeys: &ParsedGeoKeys{
				Params: map[GeoKey]int{
					GeoKeyProjectedCRS: 32767,
					GeoKeyProjMethod:   10,
				},
			},
		},
		{
			name: "user_defined_feet",
			geoKeys: &ParsedGeoKeys{
				Params: map[GeoKey]int{
					GeoKeyProjectedCRS:    32767,
					GeoKeyProjMethod:      1,
					GeoKeyProjLinearUnits: 9002,
				},
			},
		},
		{
			name: "user_defined_mismatch",
			geoKeys: &ParsedGeoKeys{
				Params: map[GeoKey]int{
					GeoKeyProjectedCRS: 32767,
					GeoKeyProjMethod:   1,
				},
				DoubleParams: map[GeoKey]float64{
					GeoKeyProjNatOriginLong: 33,
					GeoKeyProjFalseEasting:  500000,
				},
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.geoKeys.CRS()
			assert.IsError(t, err, ErrInvalidCRS)
		})
	}
}
