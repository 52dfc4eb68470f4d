package georef

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
)

const minWorldFilePrecision = 6

type worldFileOptions struct {
	precision int
}

// A WorldFileOption sets an option on world file serialization.
type WorldFileOption func(*worldFileOptions)

// WithPrecision sets the number of decimal places written. Values below six
// are raised to six.
func WithPrecision(precision int) WorldFileOption {
	return func(o *worldFileOptions) {
		o.precision = max(precision, minWorldFilePrecision)
	}
}

// MarshalWorldFile returns t as an ESRI world file. The world file refers to
// the center of the top-left pixel, so the translation terms are shifted by
// half a pixel.
func MarshalWorldFile(t Affine, options ...WorldFileOption) ([]byte, error) {
	o := worldFileOptions{
		precision: minWorldFilePrecision,
	}
	for _, option := range options {
		option(&o)
	}

	if err := t.CheckFinite(); err != nil {
		return nil, err
	}
	centerX, centerY := t.Apply(0.5, 0.5)
	values := []float64{t.A, t.D, t.B, t.E, centerX, centerY}
	if !isFinite(values...) {
		return nil, fmt.Errorf("world file: %w", ErrNonFinite)
	}

	var buffer bytes.Buffer
	for _, value := range values {
		if value == 0 {
			value = 0 // Avoid writing -0.
		}
		buffer.WriteString(strconv.FormatFloat(value, 'f', o.precision, 64))
		buffer.WriteByte('\n')
	}
	return buffer.Bytes(), nil
}

// WriteWorldFile writes t to w as an ESRI world file.
func WriteWorldFile(w io.Writer, t Affine, options ...WorldFileOption) error {
	data, err := MarshalWorldFile(t, options...)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// ParseWorldFile reads an ESRI world file from r and returns the transform
// referred to the outer corner of the top-left pixel.
func ParseWorldFile(r io.Reader) (Affine, error) {
	var values []float64
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if len(values) == 6 {
			return Affine{}, fmt.Errorf("world file: %w: more than 6 values", errParse)
		}
		value, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return Affine{}, fmt.Errorf("world file: line %d: %w", len(values)+1, err)
		}
		values = append(values, value)
	}
	if err := scanner.Err(); err != nil {
		return Affine{}, err
	}
	if len(values) != 6 {
		return Affine{}, fmt.Errorf("world file: %w: found %d values, expected 6", errParse, len(values))
	}
	if !isFinite(values...) {
		return Affine{}, fmt.Errorf("world file: %w", ErrNonFinite)
	}

	a, d, b, e := values[0], values[1], values[2], values[3]
	return Affine{
		A: a,
		B: b,
		C: values[4] - 0.5*a - 0.5*b,
		D: d,
		E: e,
		F: values[5] - 0.5*d - 0.5*e,
	}, nil
}

// WorldFileExtension returns the conventional world file extension for the
// image at imagePath.
func WorldFileExtension(imagePath string) string {
	switch strings.ToLower(filepath.Ext(imagePath)) {
	case ".jpg", ".jpeg":
		return ".jgw"
	case ".png":
		return ".pgw"
	case ".tif", ".tiff":
		return ".tfw"
	default:
		return ".wld"
	}
}

// Sidecars holds the contents of the files that georeference an image.
type Sidecars struct {
	WorldFileExt string
	WorldFile    []byte
	Projection   []byte
}

// NewSidecars returns the sidecar files for img stored at imagePath.
func NewSidecars(img *GeoreferencedImage, imagePath string, options ...WorldFileOption) (*Sidecars, error) {
	if img == nil {
		return nil, &DegenerateInputError{Reason: "no image"}
	}
	if img.CRS == nil {
		return nil, &InvalidCRSError{}
	}
	worldFile, err := MarshalWorldFile(img.Transform, options...)
	if err != nil {
		return nil, err
	}
	var projection bytes.Buffer
	if err := WriteProjection(&projection, img.CRS); err != nil {
		return nil, err
	}
	return &Sidecars{
		WorldFileExt: WorldFileExtension(imagePath),
		WorldFile:    worldFile,
		Projection:   projection.Bytes(),
	}, nil
}

// Paths returns the paths of the world file and projection file that
// accompany imagePath.
func (s *Sidecars) Paths(imagePath string) (worldFilePath, projectionPath string) {
	base := strings.TrimSuffix(imagePath, filepath.Ext(imagePath))
	return base + s.WorldFileExt, base + ".prj"
}
