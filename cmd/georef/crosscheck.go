//go:build !proj

package main

import (
	"errors"
	"io"

	"github.com/twpayne/go-georef"
)

var errNoPROJ = errors.New("built without PROJ support, rebuild with -tags proj")

func crossCheckPROJ(io.Writer, *georef.CRSDefinition, float64, float64) error {
	return errNoPROJ
}
