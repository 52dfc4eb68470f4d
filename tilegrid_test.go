package georef

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func newMAPIAerialGrid(t *testing.T) *TileGrid {
	t.Helper()
	grid, err := NewTileGrid(MAPIAerial)
	assert.NoError(t, err)
	return grid
}

func TestTileGridPixelSize(t *testing.T) {
	grid := newMAPIAerialGrid(t)

	pixelSize, err := grid.PixelSize(7)
	assert.NoError(t, err)
	assert.Equal(t, 0.56, pixelSize)

	tileSpan, err := grid.TileSpan(7)
	assert.NoError(t, err)
	assert.Equal(t, 143.36, tileSpan)

	pixelSize, err = grid.PixelSize(0)
	assert.NoError(t, err)
	assert.Equal(t, 71.68, pixelSize)

	_, err = grid.PixelSize(13)
	assert.IsError(t, err, ErrUnknownLevel)
	_, err = grid.TileToBBox(-1, 0, 0)
	assert.IsError(t, err, ErrUnknownLevel)

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, grid.Levels())
	assert.Equal(t, ITM, grid.CRS())
}

func TestTileGridAdjacency(t *testing.T) {
	grid := newMAPIAerialGrid(t)
	for _, level := range grid.Levels() {
		for _, row := range []int{0, 1, 37, 41234} {
			for _, col := range []int{0, 1, 38, 37734} {
				bbox, err := grid.TileToBBox(level, row, col)
				assert.NoError(t, err)
				east, err := grid.TileToBBox(level, row, col+1)
				assert.NoError(t, err)
				south, err := grid.TileToBBox(level, row+1, col)
				assert.NoError(t, err)
				assert.Equal(t, bbox.MaxX, east.MinX)
				assert.Equal(t, bbox.MinY, south.MaxY)
				assert.Equal(t, bbox.MinY, east.MinY)
				assert.Equal(t, bbox.MinX, south.MinX)
			}
		}
	}
}

func TestTileGridTileToBBox(t *testing.T) {
	grid := newMAPIAerialGrid(t)
	bbox, err := grid.TileToBBox(7, 0, 0)
	assert.NoError(t, err)
	assert.Equal(t, BoundingBox{
		MinX: -5403700,
		MinY: 7116700 - 143.36,
		MaxX: -5403700 + 143.36,
		MaxY: 7116700,
	}, bbox)
}

func TestTileGridMosaicBBox(t *testing.T) {
	grid := newMAPIAerialGrid(t)
	tileRange := TileRange{MinRow: 45000, MaxRow: 45003, MinCol: 38000, MaxCol: 38005}

	bbox, err := grid.MosaicBBox(7, tileRange)
	assert.NoError(t, err)
	topLeft, err := grid.TileToBBox(7, tileRange.MinRow, tileRange.MinCol)
	assert.NoError(t, err)
	bottomRight, err := grid.TileToBBox(7, tileRange.MaxRow, tileRange.MaxCol)
	assert.NoError(t, err)
	assert.Equal(t, topLeft.Union(bottomRight), bbox)

	single, err := grid.MosaicBBox(7, TileRange{MinRow: 45000, MaxRow: 45000, MinCol: 38000, MaxCol: 38000})
	assert.NoError(t, err)
	assert.Equal(t, topLeft, single)

	_, err = grid.MosaicBBox(7, TileRange{MinRow: 1, MaxRow: 0})
	assert.IsError(t, err, ErrDegenerateInput)
}

func TestTileGridPointToTile(t *testing.T) {
	grid := newMAPIAerialGrid(t)
	for _, tc := range []struct {
		row, col int
	}{
		{row: 0, col: 0},
		{row: 45000, col: 38000},
		{row: 44123, col: 37650},
	} {
		bbox, err := grid.TileToBBox(7, tc.row, tc.col)
		assert.NoError(t, err)

		row, col, err := grid.PointToTile(7, (bbox.MinX+bbox.MaxX)/2, (bbox.MinY+bbox.MaxY)/2)
		assert.NoError(t, err)
		assert.Equal(t, tc.row, row)
		assert.Equal(t, tc.col, col)

		row, col, err = grid.PointToTile(7, bbox.MinX, bbox.MaxY)
		assert.NoError(t, err)
		assert.Equal(t, tc.row, row)
		assert.Equal(t, tc.col, col)

		row, col, err = grid.PointToTile(7, bbox.MaxX, bbox.MinY)
		assert.NoError(t, err)
		assert.Equal(t, tc.row+1, row)
		assert.Equal(t, tc.col+1, col)
	}
}

func TestTileGridTilesInBBox(t *testing.T) {
	grid := newMAPIAerialGrid(t)
	tileRange := TileRange{MinRow: 45000, MaxRow: 45003, MinCol: 38000, MaxCol: 38005}
	bbox, err := grid.MosaicBBox(7, tileRange)
	assert.NoError(t, err)

	actual, err := grid.TilesInBBox(7, bbox)
	assert.NoError(t, err)
	assert.Equal(t, tileRange, actual)

	inset := BoundingBox{MinX: bbox.MinX + 1, MinY: bbox.MinY + 1, MaxX: bbox.MaxX - 1, MaxY: bbox.MaxY - 1}
	actual, err = grid.TilesInBBox(7, inset)
	assert.NoError(t, err)
	assert.Equal(t, tileRange, actual)
}

func TestTileGridMosaicTransform(t *testing.T) {
	grid := newMAPIAerialGrid(t)
	tileRange := TileRange{MinRow: 45000, MaxRow: 45001, MinCol: 38000, MaxCol: 38002}
	bbox, err := grid.MosaicBBox(7, tileRange)
	assert.NoError(t, err)

	fit, err := grid.MosaicTransform(7, tileRange)
	assert.NoError(t, err)

	gx, gy := fit.Transform.Apply(0, 0)
	assert.Equal(t, bbox.MinX, gx)
	assert.Equal(t, bbox.MaxY, gy)
	gx, gy = fit.Transform.Apply(3*256, 2*256)
	assertNear(t, bbox.MaxX, gx, 1e-6)
	assertNear(t, bbox.MinY, gy, 1e-6)
	pixelSizeX, pixelSizeY := fit.Transform.PixelSize()
	assertNear(t, 0.56, pixelSizeX, 1e-9)
	assertNear(t, 0.56, pixelSizeY, 1e-9)
}

func TestNewTileGridInvalid(t *testing.T) {
	tms := MAPIAerial
	tms.CRSKey = "EPSG:6991"
	_, err := NewTileGrid(tms)
	assert.IsError(t, err, ErrInvalidCRS)

	tms = MAPIAerial
	tms.TileSize = 0
	_, err = NewTileGrid(tms)
	assert.Error(t, err)
}
