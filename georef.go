// Package georef reconstructs georeferencing for rasters that lack embedded
// spatial metadata and converts coordinates between the Israeli grids and
// WGS84.
package georef

import (
	"fmt"

	"github.com/paulmach/orb"
)

// A ControlPoint pairs a pixel coordinate with a ground coordinate in the
// target CRS. Pixel y increases downwards.
type ControlPoint struct {
	PX, PY float64
	GX, GY float64
}

// A BoundingBox is an axis-aligned extent in ground units.
type BoundingBox struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// BoundingBoxFromBound returns bound as a BoundingBox.
func BoundingBoxFromBound(bound orb.Bound) BoundingBox {
	return BoundingBox{
		MinX: bound.Min.X(),
		MinY: bound.Min.Y(),
		MaxX: bound.Max.X(),
		MaxY: bound.Max.Y(),
	}
}

// Bound returns b as an orb.Bound.
func (b BoundingBox) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinX, b.MinY},
		Max: orb.Point{b.MaxX, b.MaxY},
	}
}

// Valid returns whether b is finite and has a positive area.
func (b BoundingBox) Valid() bool {
	return isFinite(b.MinX, b.MinY, b.MaxX, b.MaxY) && b.MinX < b.MaxX && b.MinY < b.MaxY
}

func (b BoundingBox) Width() float64 {
	return b.MaxX - b.MinX
}

func (b BoundingBox) Height() float64 {
	return b.MaxY - b.MinY
}

// Union returns the smallest BoundingBox containing b and other.
func (b BoundingBox) Union(other BoundingBox) BoundingBox {
	return BoundingBoxFromBound(b.Bound().Union(other.Bound()))
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("[%f %f %f %f]", b.MinX, b.MinY, b.MaxX, b.MaxY)
}

// A GeoreferencedImage is an image with a pixel to ground transform in a
// catalog CRS.
type GeoreferencedImage struct {
	Width     int
	Height    int
	Transform Affine
	CRS       *CRSDefinition
}

// Corners returns the ground coordinates of the outer corners of img's
// pixel grid, clockwise from the top left.
func (img *GeoreferencedImage) Corners() [4]orb.Point {
	w, h := float64(img.Width), float64(img.Height)
	var corners [4]orb.Point
	for i, pixel := range [4][2]float64{{0, 0}, {w, 0}, {w, h}, {0, h}} {
		x, y := img.Transform.Apply(pixel[0], pixel[1])
		corners[i] = orb.Point{x, y}
	}
	return corners
}

// Bounds returns the ground extent of img.
func (img *GeoreferencedImage) Bounds() BoundingBox {
	corners := img.Corners()
	return BoundingBoxFromBound(orb.MultiPoint(corners[:]).Bound())
}
