package main

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/twpayne/go-georef"
)

func runConvert(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout bytes.Buffer
	convertCmd := newConvertCmd()
	convertCmd.SilenceUsage = true
	convertCmd.SilenceErrors = true
	convertCmd.SetOut(&stdout)
	convertCmd.SetErr(&bytes.Buffer{})
	convertCmd.SetArgs(args)
	err := convertCmd.Execute()
	return stdout.String(), err
}

func TestConvertCmd(t *testing.T) {
	output, err := runConvert(t, "34.8536", "31.9604")
	assert.NoError(t, err)
	assert.Equal(t, "186290.472 651980.583 helmert7\n", output)

	output, err = runConvert(t, "--crs", "EPSG:28193", "34.8536", "31.9604")
	assert.NoError(t, err)
	assert.True(t, strings.HasSuffix(output, " helmert7\n"))

	output, err = runConvert(t, "--inverse", "186290.4717", "651980.5834")
	assert.NoError(t, err)
	fields := strings.Fields(output)
	assert.Equal(t, 3, len(fields))
	lon, err := strconv.ParseFloat(fields[0], 64)
	assert.NoError(t, err)
	lat, err := strconv.ParseFloat(fields[1], 64)
	assert.NoError(t, err)
	assert.True(t, lon > 34.853599 && lon < 34.853601)
	assert.True(t, lat > 31.960399 && lat < 31.960401)

	_, err = runConvert(t, "--crs", "EPSG:6991", "34.8536", "31.9604")
	assert.IsError(t, err, georef.ErrInvalidCRS)

	_, err = runConvert(t, "34.8536")
	assert.Error(t, err)

	_, err = runConvert(t, "x", "31.9604")
	assert.Error(t, err)
}
