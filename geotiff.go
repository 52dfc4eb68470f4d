package georef

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/google/tiff"
	_ "github.com/google/tiff/bigtiff"
	_ "github.com/google/tiff/geotiff"
)

// A geoTIFFIFD is a struct into which github.com/google/tiff can unmarshal
// the georeferencing fields of an IFD.
type geoTIFFIFD struct {
	ImageWidth             uint16    `tiff:"field,tag=256"`
	ImageLength            uint16    `tiff:"field,tag=257"`
	ModelPixelScaleTag     []float64 `tiff:"field,tag=33550"`
	ModelTiepointTag       []float64 `tiff:"field,tag=33922"`
	ModelTransformationTag []float64 `tiff:"field,tag=34264"`
	GeoKeyDirectoryTag     []uint16  `tiff:"field,tag=34735"`
	GeoDoubleParamsTag     []float64 `tiff:"field,tag=34736"`
	GeoASCIIParamsTag      string    `tiff:"field,tag=34737"`
}

// ReadGeoTIFF reads the georeferencing of the GeoTIFF name in fsys.
func ReadGeoTIFF(fsys fs.FS, name string) (*GeoreferencedImage, error) {
	file, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r, ok := file.(tiff.ReadAtReadSeeker)
	if !ok {
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(data)
	}

	tiffTIFF, err := tiff.Parse(r, tiff.GetTagSpace("GeoTIFF"), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	ifds := tiffTIFF.IFDs()
	if len(ifds) == 0 {
		return nil, fmt.Errorf("%s: %w: no IFDs", name, errParse)
	}

	// Later IFDs are overviews or masks.
	var ifd geoTIFFIFD
	if err := tiff.UnmarshalIFD(ifds[0], &ifd); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	img, err := ifd.georeference()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return img, nil
}

func (ifd *geoTIFFIFD) georeference() (*GeoreferencedImage, error) {
	if len(ifd.GeoKeyDirectoryTag) == 0 {
		return nil, fmt.Errorf("no GeoKey directory: %w", ErrInvalidCRS)
	}
	geoKeys, err := ParseGeoKeys(ifd.GeoKeyDirectoryTag, ifd.GeoDoubleParamsTag, []byte(ifd.GeoASCIIParamsTag))
	if err != nil {
		return nil, err
	}
	crs, err := geoKeys.CRS()
	if err != nil {
		return nil, err
	}

	transform, err := ifd.transform()
	if err != nil {
		return nil, err
	}
	if geoKeys.PixelIsPoint() {
		transform.C -= 0.5*transform.A + 0.5*transform.B
		transform.F -= 0.5*transform.D + 0.5*transform.E
	}
	if err := transform.CheckFinite(); err != nil {
		return nil, err
	}
	if !transform.IsInvertible() {
		return nil, &DegenerateInputError{Reason: "GeoTIFF transform is not invertible"}
	}

	return &GeoreferencedImage{
		Width:     int(ifd.ImageWidth),
		Height:    int(ifd.ImageLength),
		Transform: transform,
		CRS:       crs,
	}, nil
}

// transform returns the pixel to model transform described by ifd's
// ModelTransformationTag, by a single tie point and ModelPixelScaleTag, or by
// fitting multiple tie points.
func (ifd *geoTIFFIFD) transform() (Affine, error) {
	switch tiepoints := ifd.ModelTiepointTag; {
	case len(ifd.ModelTransformationTag) == 16:
		m := ifd.ModelTransformationTag
		if m[2] != 0 || m[6] != 0 {
			return Affine{}, fmt.Errorf("three dimensional model transformation: %w", errors.ErrUnsupported)
		}
		return Affine{A: m[0], B: m[1], C: m[3], D: m[4], E: m[5], F: m[7]}, nil
	case len(ifd.ModelPixelScaleTag) >= 2 && len(tiepoints) >= 6:
		scaleX, scaleY := ifd.ModelPixelScaleTag[0], ifd.ModelPixelScaleTag[1]
		i, j, x, y := tiepoints[0], tiepoints[1], tiepoints[3], tiepoints[4]
		return Affine{
			A: scaleX,
			C: x - i*scaleX,
			E: -scaleY,
			F: y + j*scaleY,
		}, nil
	case len(tiepoints) >= 18 && len(tiepoints)%6 == 0:
		points := make([]ControlPoint, 0, len(tiepoints)/6)
		for k := 0; k < len(tiepoints); k += 6 {
			points = append(points, ControlPoint{
				PX: tiepoints[k],
				PY: tiepoints[k+1],
				GX: tiepoints[k+3],
				GY: tiepoints[k+4],
			})
		}
		fit, err := FitFromPoints(points)
		if err != nil {
			return Affine{}, err
		}
		return fit.Transform, nil
	default:
		return Affine{}, fmt.Errorf("%w: no model transformation or tie points", errParse)
	}
}
