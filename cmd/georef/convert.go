package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/twpayne/go-georef"
)

func newConvertCmd() *cobra.Command {
	var (
		crsKey    string
		inverse   bool
		crossPROJ bool
	)

	convertCmd := &cobra.Command{
		Use:   "convert [flags] <x> <y>",
		Short: "Convert a WGS84 longitude and latitude to grid coordinates, or back with --inverse",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			crs, err := georef.Lookup(crsKey)
			if err != nil {
				return err
			}
			x, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return err
			}
			y, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return err
			}

			var result georef.Result
			if inverse {
				result, err = georef.Inverse(crs, x, y)
			} else {
				result, err = georef.Forward(crs, x, y)
			}
			if err != nil {
				return err
			}
			if warning := result.Warning(); warning != nil {
				slog.Warn("best effort result", "err", warning)
			}
			if inverse {
				fmt.Fprintf(cmd.OutOrStdout(), "%.8f %.8f %s\n", result.X, result.Y, result.Tier)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%.3f %.3f %s\n", result.X, result.Y, result.Tier)
			}

			if !crossPROJ {
				return nil
			}
			lon, lat := x, y
			if inverse {
				lon, lat = result.X, result.Y
			}
			return crossCheckPROJ(cmd.OutOrStdout(), crs, lon, lat)
		},
	}
	convertCmd.Flags().StringVar(&crsKey, "crs", "itm", "CRS key, alias, or EPSG code")
	convertCmd.Flags().BoolVar(&inverse, "inverse", false, "convert grid easting and northing to WGS84")
	convertCmd.Flags().BoolVar(&crossPROJ, "proj", false, "cross-check against PROJ (requires building with -tags proj)")
	return convertCmd
}
