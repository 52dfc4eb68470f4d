package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/twpayne/go-georef"
)

func newInspectCmd() *cobra.Command {
	var crsKey string

	inspectCmd := &cobra.Command{
		Use:   "inspect [flags] <geotiff|world file>",
		Short: "Print the georeferencing of a GeoTIFF or world file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			var img *georef.GeoreferencedImage
			switch strings.ToLower(filepath.Ext(path)) {
			case ".tif", ".tiff":
				var err error
				img, err = georef.ReadGeoTIFF(os.DirFS(filepath.Dir(path)), filepath.Base(path))
				if err != nil {
					return err
				}
			default:
				crs, err := georef.Lookup(crsKey)
				if err != nil {
					return err
				}
				file, err := os.Open(path)
				if err != nil {
					return err
				}
				defer file.Close()
				transform, err := georef.ParseWorldFile(file)
				if err != nil {
					return err
				}
				img = &georef.GeoreferencedImage{Transform: transform, CRS: crs}
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "crs: %s (EPSG:%d)\n", img.CRS.Name, img.CRS.EPSG)
			fmt.Fprintf(w, "transform: %s\n", img.Transform)
			pixelSizeX, pixelSizeY := img.Transform.PixelSize()
			fmt.Fprintf(w, "pixel size: %g %g\n", pixelSizeX, pixelSizeY)
			if img.Width == 0 || img.Height == 0 {
				return nil
			}
			fmt.Fprintf(w, "size: %dx%d\n", img.Width, img.Height)
			fmt.Fprintf(w, "bounds: %s\n", img.Bounds())
			footprint, err := georef.NewFootprint(img)
			if err != nil {
				return err
			}
			bound := footprint.Bound()
			fmt.Fprintf(w, "wgs84: [%.6f %.6f %.6f %.6f] %s\n",
				bound.Min.X(), bound.Min.Y(), bound.Max.X(), bound.Max.Y(), footprint.Tier)
			if footprint.OutOfDomain {
				fmt.Fprintln(w, "warning: outside projection domain")
			}
			return nil
		},
	}
	inspectCmd.Flags().StringVar(&crsKey, "crs", "itm", "CRS of a world file")
	return inspectCmd
}
