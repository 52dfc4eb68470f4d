package georef

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// colinearityTolerance is the smallest accepted value of 1-ρ², where ρ is the
// correlation between the pixel x and y coordinates of the control points.
const colinearityTolerance = 1e-10

// An Affine is a pixel to ground transform:
//
//	gx = A*px + B*py + C
//	gy = D*px + E*py + F
//
// where pixel (0, 0) is the outer top-left corner of the top-left pixel.
type Affine struct {
	A, B, C float64
	D, E, F float64
}

// Apply returns the ground coordinate of the pixel coordinate px, py.
func (t Affine) Apply(px, py float64) (gx, gy float64) {
	return t.A*px + t.B*py + t.C, t.D*px + t.E*py + t.F
}

// Det returns the determinant of the linear part of t.
func (t Affine) Det() float64 {
	return t.A*t.E - t.B*t.D
}

// IsInvertible returns whether t has a finite non-zero determinant.
func (t Affine) IsInvertible() bool {
	det := t.Det()
	return det != 0 && isFinite(det)
}

// Invert returns the ground to pixel transform.
func (t Affine) Invert() (Affine, error) {
	if err := t.CheckFinite(); err != nil {
		return Affine{}, err
	}
	if !t.IsInvertible() {
		return Affine{}, &DegenerateInputError{Reason: "transform is not invertible"}
	}
	det := t.Det()
	a := t.E / det
	b := -t.B / det
	d := -t.D / det
	e := t.A / det
	return Affine{
		A: a,
		B: b,
		C: -a*t.C - b*t.F,
		D: d,
		E: e,
		F: -d*t.C - e*t.F,
	}, nil
}

// PixelSize returns the ground length of one pixel step along each pixel
// axis.
func (t Affine) PixelSize() (x, y float64) {
	return math.Hypot(t.A, t.D), math.Hypot(t.B, t.E)
}

// CheckFinite returns ErrNonFinite if any coefficient of t is NaN or
// infinite.
func (t Affine) CheckFinite() error {
	if !isFinite(t.A, t.B, t.C, t.D, t.E, t.F) {
		return fmt.Errorf("affine transform %v: %w", t, ErrNonFinite)
	}
	return nil
}

func (t Affine) String() string {
	return fmt.Sprintf("[%g %g %g %g %g %g]", t.A, t.B, t.C, t.D, t.E, t.F)
}

// A Fit is the result of fitting an Affine.
type Fit struct {
	Transform   Affine
	Residuals   []float64
	RMS         float64
	MaxResidual float64
}

// A FitMode identifies how a transform is derived.
type FitMode string

const (
	FitModePoints FitMode = "points"
	FitModeBBox   FitMode = "bbox"
)

// A FitSpec describes how to derive a transform. It is implemented by
// PointsFit and BBoxFit.
type FitSpec interface {
	Mode() FitMode
	solve() (*Fit, error)
}

// A PointsFit derives a transform from control points by least squares.
type PointsFit struct {
	Points []ControlPoint
}

func (s PointsFit) Mode() FitMode { return FitModePoints }

func (s PointsFit) solve() (*Fit, error) {
	return FitFromPoints(s.Points)
}

// A BBoxFit derives a north-up transform from a known ground extent. The
// image content is inset by MarginPct percent of each dimension on each side.
type BBoxFit struct {
	Width     int
	Height    int
	BBox      BoundingBox
	MarginPct float64
}

func (s BBoxFit) Mode() FitMode { return FitModeBBox }

func (s BBoxFit) solve() (*Fit, error) {
	return FitFromBBox(s.Width, s.Height, s.BBox, s.MarginPct)
}

// Solve derives a transform from spec.
func Solve(spec FitSpec) (*Fit, error) {
	if spec == nil {
		return nil, &DegenerateInputError{Reason: "no fit specified"}
	}
	return spec.solve()
}

// FitFromPoints returns the least squares affine transform mapping the pixel
// coordinates of points to their ground coordinates, with per-point
// residuals in ground units.
func FitFromPoints(points []ControlPoint) (*Fit, error) {
	if len(points) < 3 {
		return nil, &DegenerateInputError{
			Reason: fmt.Sprintf("%d control points, need at least 3", len(points)),
		}
	}

	seen := make(map[[2]float64]int, len(points))
	for i, point := range points {
		if !isFinite(point.PX, point.PY, point.GX, point.GY) {
			return nil, fmt.Errorf("control point %d: %w", i, ErrNonFinite)
		}
		pixel := [2]float64{point.PX, point.PY}
		if j, ok := seen[pixel]; ok {
			return nil, &DegenerateInputError{
				Reason: fmt.Sprintf("control points %d and %d share pixel coordinate (%g, %g)", j, i, point.PX, point.PY),
			}
		}
		seen[pixel] = i
	}

	// Center both coordinate sets so that large ground offsets do not swamp
	// the normal equations.
	n := float64(len(points))
	var meanPX, meanPY, meanGX, meanGY float64
	for _, point := range points {
		meanPX += point.PX / n
		meanPY += point.PY / n
		meanGX += point.GX / n
		meanGY += point.GY / n
	}

	design := mat.NewDense(len(points), 3, nil)
	observed := mat.NewDense(len(points), 2, nil)
	var sxx, syy, sxy float64
	for i, point := range points {
		dx, dy := point.PX-meanPX, point.PY-meanPY
		design.SetRow(i, []float64{dx, dy, 1})
		observed.SetRow(i, []float64{point.GX - meanGX, point.GY - meanGY})
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}
	if sxx == 0 || syy == 0 || sxx*syy-sxy*sxy <= colinearityTolerance*sxx*syy {
		return nil, &DegenerateInputError{Reason: "control points are colinear"}
	}

	var qr mat.QR
	qr.Factorize(design)
	var solution mat.Dense
	if err := qr.SolveTo(&solution, false, observed); err != nil {
		return nil, &DegenerateInputError{Reason: fmt.Sprintf("singular system: %v", err)}
	}

	a, b, c0 := solution.At(0, 0), solution.At(1, 0), solution.At(2, 0)
	d, e, f0 := solution.At(0, 1), solution.At(1, 1), solution.At(2, 1)
	transform := Affine{
		A: a,
		B: b,
		C: meanGX + c0 - a*meanPX - b*meanPY,
		D: d,
		E: e,
		F: meanGY + f0 - d*meanPX - e*meanPY,
	}
	if err := transform.CheckFinite(); err != nil {
		return nil, err
	}
	det := transform.Det()
	if det == 0 || math.Abs(det) <= 1e-12*math.Hypot(a, d)*math.Hypot(b, e) {
		return nil, &DegenerateInputError{Reason: "ground coordinates are colinear"}
	}

	fit := &Fit{
		Transform: transform,
		Residuals: make([]float64, len(points)),
	}
	var sumSquares float64
	for i, point := range points {
		gx, gy := transform.Apply(point.PX, point.PY)
		residual := math.Hypot(gx-point.GX, gy-point.GY)
		fit.Residuals[i] = residual
		sumSquares += residual * residual
		fit.MaxResidual = max(fit.MaxResidual, residual)
	}
	fit.RMS = math.Sqrt(sumSquares / n)
	return fit, nil
}

// FitFromBBox returns the north-up transform that maps the pixel rectangle of
// a width by height image, inset by marginPct percent on each side, onto
// bbox. Pixel row 0 maps to bbox.MaxY.
func FitFromBBox(width, height int, bbox BoundingBox, marginPct float64) (*Fit, error) {
	switch {
	case width <= 0 || height <= 0:
		return nil, &DegenerateInputError{Reason: fmt.Sprintf("invalid image size %dx%d", width, height)}
	case !isFinite(marginPct):
		return nil, fmt.Errorf("margin: %w", ErrNonFinite)
	case !isFinite(bbox.MinX, bbox.MinY, bbox.MaxX, bbox.MaxY):
		return nil, fmt.Errorf("bounding box: %w", ErrNonFinite)
	case !bbox.Valid():
		return nil, &DegenerateInputError{Reason: fmt.Sprintf("invalid bounding box %v", bbox)}
	case marginPct < 0 || marginPct >= 50:
		return nil, &DegenerateInputError{Reason: fmt.Sprintf("margin %g%% out of range", marginPct)}
	}

	marginX := float64(width) * marginPct / 100
	marginY := float64(height) * marginPct / 100
	scaleX := bbox.Width() / (float64(width) - 2*marginX)
	scaleY := bbox.Height() / (float64(height) - 2*marginY)
	transform := Affine{
		A: scaleX,
		C: bbox.MinX - marginX*scaleX,
		E: -scaleY,
		F: bbox.MaxY + marginY*scaleY,
	}
	if err := transform.CheckFinite(); err != nil {
		return nil, err
	}
	return &Fit{
		Transform: transform,
	}, nil
}
