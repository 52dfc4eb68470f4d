package georef

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestMarshalWorldFile(t *testing.T) {
	transform := Affine{A: 1, C: 185500, E: -1, F: 655000}

	data, err := MarshalWorldFile(transform)
	assert.NoError(t, err)
	assert.Equal(t, ""+
		"1.000000\n"+
		"0.000000\n"+
		"0.000000\n"+
		"-1.000000\n"+
		"185500.500000\n"+
		"654999.500000\n",
		string(data))

	data, err = MarshalWorldFile(transform, WithPrecision(9))
	assert.NoError(t, err)
	assert.Equal(t, "1.000000000", strings.Split(string(data), "\n")[0])

	data, err = MarshalWorldFile(transform, WithPrecision(2))
	assert.NoError(t, err)
	assert.Equal(t, "1.000000", strings.Split(string(data), "\n")[0])

	var buffer bytes.Buffer
	assert.NoError(t, WriteWorldFile(&buffer, Affine{A: 0.56, E: -0.56}))
	assert.Equal(t, ""+
		"0.560000\n"+
		"0.000000\n"+
		"0.000000\n"+
		"-0.560000\n"+
		"0.280000\n"+
		"-0.280000\n",
		buffer.String())
}

func TestMarshalWorldFileNonFinite(t *testing.T) {
	for _, transform := range []Affine{
		{A: math.NaN(), E: -1},
		{A: 1, E: -1, C: math.Inf(1)},
		{A: 1, E: math.Inf(-1)},
	} {
		_, err := MarshalWorldFile(transform)
		assert.IsError(t, err, ErrNonFinite)
		assert.IsError(t, WriteWorldFile(&bytes.Buffer{}, transform), ErrNonFinite)
	}
}

func TestParseWorldFile(t *testing.T) {
	transform := Affine{A: 0.56, B: 0.003, C: 185432.123, D: -0.002, E: -0.56, F: 655987.654}
	data, err := MarshalWorldFile(transform, WithPrecision(12))
	assert.NoError(t, err)

	actual, err := ParseWorldFile(bytes.NewReader(data))
	assert.NoError(t, err)
	assertNear(t, transform.A, actual.A, 1e-12)
	assertNear(t, transform.B, actual.B, 1e-12)
	assertNear(t, transform.C, actual.C, 1e-6)
	assertNear(t, transform.D, actual.D, 1e-12)
	assertNear(t, transform.E, actual.E, 1e-12)
	assertNear(t, transform.F, actual.F, 1e-6)

	actual, err = ParseWorldFile(strings.NewReader("1\n0\n0\n-1\n185500.5\n654999.5\n\n"))
	assert.NoError(t, err)
	assert.Equal(t, Affine{A: 1, C: 185500, E: -1, F: 655000}, actual)

	for _, s := range []string{
		"",
		"1\n0\n0\n-1\n185500.5\n",
		"1\n0\n0\n-1\n185500.5\n654999.5\n7\n",
		"1\n0\nzero\n-1\n185500.5\n654999.5\n",
		"1\n0\n0\n-1\nNaN\n654999.5\n",
	} {
		_, err := ParseWorldFile(strings.NewReader(s))
		assert.Error(t, err)
	}
}

func TestWorldFileExtension(t *testing.T) {
	for _, tc := range []struct {
		imagePath string
		expected  string
	}{
		{imagePath: "plan.jpg", expected: ".jgw"},
		{imagePath: "plan.JPEG", expected: ".jgw"},
		{imagePath: "maps/plan.png", expected: ".pgw"},
		{imagePath: "mosaic.tif", expected: ".tfw"},
		{imagePath: "mosaic.TIFF", expected: ".tfw"},
		{imagePath: "plan.webp", expected: ".wld"},
		{imagePath: "plan", expected: ".wld"},
	} {
		t.Run(tc.imagePath, func(t *testing.T) {
			assert.Equal(t, tc.expected, WorldFileExtension(tc.imagePath))
		})
	}
}

func TestWKT(t *testing.T) {
	itmWKT := ITM.WKT()
	assert.True(t, strings.HasPrefix(itmWKT, `PROJCS["Israel 1993 / Israeli TM Grid",GEOGCS["Israel 1993",`))
	assert.Contains(t, itmWKT, `SPHEROID["GRS 1980",6378137,298.257222101,AUTHORITY["EPSG","7019"]]`)
	assert.Contains(t, itmWKT, `TOWGS84[-24.0024,-17.1032,-17.8444,-0.33077,-1.85269,1.66969,5.4248]`)
	assert.Contains(t, itmWKT, `PROJECTION["Transverse_Mercator"]`)
	assert.Contains(t, itmWKT, `PARAMETER["scale_factor",1.0000067]`)
	assert.Contains(t, itmWKT, `PARAMETER["false_easting",219529.584]`)
	assert.Contains(t, itmWKT, `PARAMETER["false_northing",626907.39]`)
	assert.True(t, strings.HasSuffix(itmWKT, `AUTHORITY["EPSG","2039"]]`))
	assert.Equal(t, strings.Count(itmWKT, "["), strings.Count(itmWKT, "]"))

	icsWKT := ICS.WKT()
	assert.Contains(t, icsWKT, `PROJECTION["Cassini_Soldner"]`)
	assert.Contains(t, icsWKT, `TOWGS84[-275.7224,94.7824,340.8944,-8.001,-4.42,-11.821,1]`)
	assert.NotContains(t, icsWKT, "scale_factor")
	assert.True(t, strings.HasSuffix(icsWKT, `AUTHORITY["EPSG","28193"]]`))
	assert.Equal(t, strings.Count(icsWKT, "["), strings.Count(icsWKT, "]"))

	translationOnly := *ITM
	translationOnly.DatumShift = DatumShift{Translation: &[3]float64{-48, 55, 52}}
	assert.Contains(t, translationOnly.WKT(), `TOWGS84[-48,55,52,0,0,0,0]`)

	var buffer bytes.Buffer
	assert.NoError(t, WriteProjection(&buffer, ITM))
	assert.Equal(t, itmWKT, buffer.String())
	assert.IsError(t, WriteProjection(&buffer, nil), ErrInvalidCRS)
}

func TestNewSidecars(t *testing.T) {
	fit, err := FitFromBBox(1000, 1000, BoundingBox{MinX: 185500, MinY: 654000, MaxX: 186500, MaxY: 655000}, 0)
	assert.NoError(t, err)
	img := &GeoreferencedImage{
		Width:     1000,
		Height:    1000,
		Transform: fit.Transform,
		CRS:       ITM,
	}

	sidecars, err := NewSidecars(img, "maps/plan.jpg")
	assert.NoError(t, err)
	assert.Equal(t, ".jgw", sidecars.WorldFileExt)
	assert.Equal(t, "1.000000", strings.Split(string(sidecars.WorldFile), "\n")[0])
	assert.Equal(t, ITM.WKT(), string(sidecars.Projection))

	worldFilePath, projectionPath := sidecars.Paths("maps/plan.jpg")
	assert.Equal(t, "maps/plan.jgw", worldFilePath)
	assert.Equal(t, "maps/plan.prj", projectionPath)

	_, err = NewSidecars(nil, "plan.jpg")
	assert.IsError(t, err, ErrDegenerateInput)

	_, err = NewSidecars(&GeoreferencedImage{Transform: fit.Transform}, "plan.jpg")
	assert.IsError(t, err, ErrInvalidCRS)

	_, err = NewSidecars(&GeoreferencedImage{Transform: Affine{A: math.NaN()}, CRS: ITM}, "plan.jpg")
	assert.IsError(t, err, ErrNonFinite)
}
