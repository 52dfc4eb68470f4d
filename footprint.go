package georef

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// A Footprint is the WGS84 outline of a georeferenced image.
type Footprint struct {
	Ring        orb.Ring
	Tier        AccuracyTier
	OutOfDomain bool
}

// NewFootprint returns the footprint of img, with its corners converted to
// WGS84.
func NewFootprint(img *GeoreferencedImage) (*Footprint, error) {
	if img == nil {
		return nil, &DegenerateInputError{Reason: "no image"}
	}
	if img.CRS == nil {
		return nil, &InvalidCRSError{}
	}
	if img.Width <= 0 || img.Height <= 0 {
		return nil, &DegenerateInputError{Reason: fmt.Sprintf("invalid image size %dx%d", img.Width, img.Height)}
	}
	if err := img.Transform.CheckFinite(); err != nil {
		return nil, err
	}

	footprint := &Footprint{
		Ring: make(orb.Ring, 0, 5),
	}
	for _, corner := range img.Corners() {
		result, err := Inverse(img.CRS, corner.X(), corner.Y())
		if err != nil {
			return nil, err
		}
		footprint.Ring = append(footprint.Ring, orb.Point{result.X, result.Y})
		footprint.Tier = max(footprint.Tier, result.Tier)
		footprint.OutOfDomain = footprint.OutOfDomain || result.OutOfDomain
	}
	footprint.Ring = append(footprint.Ring, footprint.Ring[0])

	// GeoJSON exterior rings are counter-clockwise.
	if footprint.Ring.Orientation() == orb.CW {
		footprint.Ring.Reverse()
	}
	return footprint, nil
}

// Polygon returns f as a polygon.
func (f *Footprint) Polygon() orb.Polygon {
	return orb.Polygon{f.Ring}
}

// Bound returns the WGS84 extent of f.
func (f *Footprint) Bound() orb.Bound {
	return f.Ring.Bound()
}

// Feature returns f as a GeoJSON feature describing img.
func (f *Footprint) Feature(img *GeoreferencedImage) *geojson.Feature {
	feature := geojson.NewFeature(f.Polygon())
	feature.Properties["crs"] = img.CRS.Key
	feature.Properties["epsg"] = img.CRS.EPSG
	feature.Properties["width"] = img.Width
	feature.Properties["height"] = img.Height
	feature.Properties["accuracy"] = f.Tier.String()
	feature.Properties["accuracy_m"] = f.Tier.NominalErrorMetres()
	if f.OutOfDomain {
		feature.Properties["out_of_domain"] = true
	}
	return feature
}

// FootprintFeature returns the footprint of img as a GeoJSON feature.
func FootprintFeature(img *GeoreferencedImage) (*geojson.Feature, error) {
	footprint, err := NewFootprint(img)
	if err != nil {
		return nil, err
	}
	return footprint.Feature(img), nil
}
