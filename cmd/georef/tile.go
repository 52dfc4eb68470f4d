package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/twpayne/go-georef"
)

func newTileCmd() *cobra.Command {
	var level int
	var point []float64

	tileCmd := &cobra.Command{
		Use:   "tile [flags] [<row> <col>]",
		Short: "Print the ground extent of a tile, or the tile containing a point",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			grid, err := georef.NewTileGrid(georef.MAPIAerial)
			if err != nil {
				return err
			}
			var row, col int
			switch {
			case len(point) == 2 && len(args) == 0:
				row, col, err = grid.PointToTile(level, point[0], point[1])
				if err != nil {
					return err
				}
			case len(point) == 0 && len(args) == 2:
				if row, err = strconv.Atoi(args[0]); err != nil {
					return err
				}
				if col, err = strconv.Atoi(args[1]); err != nil {
					return err
				}
			default:
				return errors.New("syntax: georef tile --level <level> (<row> <col> | --point x,y)")
			}
			bbox, err := grid.TileToBBox(level, row, col)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d %d %d %s\n", level, row, col, bbox)
			return nil
		},
	}
	tileCmd.Flags().IntVar(&level, "level", 7, "tile matrix level")
	tileCmd.Flags().Float64SliceVar(&point, "point", nil, "ground point x,y")
	return tileCmd
}

func newMosaicCmd() *cobra.Command {
	var (
		level     int
		rows      string
		cols      string
		bbox      []float64
		precision int
	)

	mosaicCmd := &cobra.Command{
		Use:   "mosaic [flags] <output image>",
		Short: "Write world and projection files for a stitched tile range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			grid, err := georef.NewTileGrid(georef.MAPIAerial)
			if err != nil {
				return err
			}
			var tileRange georef.TileRange
			if len(bbox) > 0 {
				b, err := bboxFromSlice(bbox)
				if err != nil {
					return err
				}
				if tileRange, err = grid.TilesInBBox(level, b); err != nil {
					return err
				}
			} else {
				if tileRange.MinRow, tileRange.MaxRow, err = parseRange(rows); err != nil {
					return err
				}
				if tileRange.MinCol, tileRange.MaxCol, err = parseRange(cols); err != nil {
					return err
				}
			}

			fit, err := grid.MosaicTransform(level, tileRange)
			if err != nil {
				return err
			}
			tileSize := grid.TileMatrixSet().TileSize
			img := &georef.GeoreferencedImage{
				Width:     tileRange.Cols() * tileSize,
				Height:    tileRange.Rows() * tileSize,
				Transform: fit.Transform,
				CRS:       grid.CRS(),
			}
			sidecars, err := georef.NewSidecars(img, args[0], georef.WithPrecision(precision))
			if err != nil {
				return err
			}
			if err := georef.WriteSidecarFiles(args[0], sidecars); err != nil {
				return err
			}
			slog.Info("wrote mosaic sidecars",
				"level", level,
				"rows", fmt.Sprintf("%d-%d", tileRange.MinRow, tileRange.MaxRow),
				"cols", fmt.Sprintf("%d-%d", tileRange.MinCol, tileRange.MaxCol),
				"width", img.Width,
				"height", img.Height,
			)
			return nil
		},
	}
	mosaicCmd.Flags().IntVar(&level, "level", 7, "tile matrix level")
	mosaicCmd.Flags().StringVar(&rows, "rows", "", "tile rows min-max")
	mosaicCmd.Flags().StringVar(&cols, "cols", "", "tile columns min-max")
	mosaicCmd.Flags().Float64SliceVar(&bbox, "bbox", nil, "cover the ground extent minx,miny,maxx,maxy")
	mosaicCmd.Flags().IntVar(&precision, "precision", 6, "world file decimal places")
	mosaicCmd.MarkFlagsMutuallyExclusive("bbox", "rows")
	mosaicCmd.MarkFlagsMutuallyExclusive("bbox", "cols")
	mosaicCmd.MarkFlagsRequiredTogether("rows", "cols")
	mosaicCmd.MarkFlagsOneRequired("bbox", "rows")
	return mosaicCmd
}
