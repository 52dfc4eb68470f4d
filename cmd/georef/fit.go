package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/twpayne/go-georef"
)

type fitOptions struct {
	crs       string
	bbox      []float64
	marginPct float64
	points    []string
	width     int
	height    int
	precision int
	footprint string
	dryRun    bool
}

func newFitCmd() *cobra.Command {
	var o fitOptions

	fitCmd := &cobra.Command{
		Use:   "fit [flags] <image>",
		Short: "Write world and projection files for an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFit(cmd, args[0], &o)
		},
	}
	fitCmd.Flags().StringVar(&o.crs, "crs", "itm", "CRS key, alias, or EPSG code")
	fitCmd.Flags().Float64SliceVar(&o.bbox, "bbox", nil, "ground extent minx,miny,maxx,maxy")
	fitCmd.Flags().Float64Var(&o.marginPct, "margin-pct", 0, "margin around the map content in percent of each dimension")
	fitCmd.Flags().StringArrayVar(&o.points, "point", nil, "control point px,py,gx,gy (repeatable)")
	fitCmd.Flags().IntVar(&o.width, "width", 0, "image width in pixels (default: read from image)")
	fitCmd.Flags().IntVar(&o.height, "height", 0, "image height in pixels (default: read from image)")
	fitCmd.Flags().IntVar(&o.precision, "precision", 6, "world file decimal places")
	fitCmd.Flags().StringVar(&o.footprint, "footprint", "", "write the WGS84 footprint as GeoJSON to this file")
	fitCmd.Flags().BoolVar(&o.dryRun, "dry-run", false, "print the world file instead of writing sidecars")
	fitCmd.MarkFlagsMutuallyExclusive("bbox", "point")
	fitCmd.MarkFlagsOneRequired("bbox", "point")
	return fitCmd
}

func runFit(cmd *cobra.Command, imagePath string, o *fitOptions) error {
	crs, err := georef.Lookup(o.crs)
	if err != nil {
		return err
	}

	width, height := o.width, o.height
	if width == 0 || height == 0 {
		width, height, err = imageSize(imagePath)
		if err != nil {
			return err
		}
	}

	var spec georef.FitSpec
	if len(o.points) > 0 {
		points := make([]georef.ControlPoint, 0, len(o.points))
		for _, s := range o.points {
			point, err := parseControlPoint(s)
			if err != nil {
				return err
			}
			points = append(points, point)
		}
		spec = georef.PointsFit{Points: points}
	} else {
		bbox, err := bboxFromSlice(o.bbox)
		if err != nil {
			return err
		}
		spec = georef.BBoxFit{Width: width, Height: height, BBox: bbox, MarginPct: o.marginPct}
	}

	fit, err := georef.Solve(spec)
	if err != nil {
		return err
	}
	if len(fit.Residuals) > 0 {
		for i, residual := range fit.Residuals {
			slog.Debug("residual", "point", i, "metres", residual)
		}
		slog.Info("fitted", "rms", fit.RMS, "max_residual", fit.MaxResidual)
	}

	img := &georef.GeoreferencedImage{
		Width:     width,
		Height:    height,
		Transform: fit.Transform,
		CRS:       crs,
	}
	sidecars, err := georef.NewSidecars(img, imagePath, georef.WithPrecision(o.precision))
	if err != nil {
		return err
	}

	if o.dryRun {
		_, err := cmd.OutOrStdout().Write(sidecars.WorldFile)
		return err
	}
	if err := georef.WriteSidecarFiles(imagePath, sidecars); err != nil {
		return err
	}
	worldFilePath, projectionPath := sidecars.Paths(imagePath)
	slog.Info("wrote sidecars", "world_file", worldFilePath, "projection", projectionPath)

	if o.footprint != "" {
		return writeFootprint(o.footprint, img)
	}
	return nil
}

func writeFootprint(path string, img *georef.GeoreferencedImage) error {
	footprint, err := georef.NewFootprint(img)
	if err != nil {
		return err
	}
	if footprint.OutOfDomain {
		slog.Warn("footprint outside projection domain", "crs", img.CRS.Key)
	}
	data, err := footprint.Feature(img).MarshalJSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o666); err != nil {
		return fmt.Errorf("footprint: %w", err)
	}
	return nil
}
