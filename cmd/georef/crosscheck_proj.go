//go:build proj

package main

import (
	"fmt"
	"io"

	"github.com/twpayne/go-georef"
	"github.com/twpayne/go-georef/georefproj"
)

func crossCheckPROJ(w io.Writer, crs *georef.CRSDefinition, lon, lat float64) error {
	transformer, err := georefproj.NewTransformer()
	if err != nil {
		return err
	}
	defer transformer.Close()
	discrepancy, err := transformer.Compare(crs, lon, lat)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "proj %.3f %.3f discrepancy %.4f m %.2e deg\n",
		discrepancy.PROJEasting, discrepancy.PROJNorthing, discrepancy.Metres, discrepancy.InverseDegrees)
	return err
}
