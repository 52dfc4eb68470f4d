package georef

import (
	"fmt"
	"maps"
	"math"
	"slices"
)

// Standardized rendering pixel size of 0.28 mm, expressed as a ratio so that
// round scale denominators give exact pixel sizes.
const (
	renderingPixelSizeNumerator   = 28
	renderingPixelSizeDenominator = 100000
)

const DefaultTileSize = 256

// A TileMatrixSet defines a WMTS-style tile pyramid in a projected CRS. Rows
// increase southwards from OriginY, columns eastwards from OriginX.
type TileMatrixSet struct {
	Identifier string
	CRSKey     string
	OriginX    float64
	OriginY    float64
	TileSize   int
	Scales     map[int]float64
}

// A TileRange is an inclusive range of tile rows and columns.
type TileRange struct {
	MinRow, MaxRow int
	MinCol, MaxCol int
}

func (r TileRange) Rows() int { return r.MaxRow - r.MinRow + 1 }
func (r TileRange) Cols() int { return r.MaxCol - r.MinCol + 1 }

// Valid returns whether r contains at least one tile.
func (r TileRange) Valid() bool {
	return r.MinRow <= r.MaxRow && r.MinCol <= r.MaxCol
}

// MAPIAerial is the aerial imagery tile matrix set of the Survey of Israel
// (MAPI) in ITM.
var MAPIAerial = TileMatrixSet{
	Identifier: "mapi-aerial",
	CRSKey:     "itm",
	OriginX:    -5403700,
	OriginY:    7116700,
	TileSize:   DefaultTileSize,
	Scales:     mapiAerialScales(),
}

func mapiAerialScales() map[int]float64 {
	scales := make(map[int]float64)
	for level := range 13 {
		scales[level] = 256000 / math.Exp2(float64(level))
	}
	return scales
}

// A TileGrid converts between tile indices and ground coordinates.
type TileGrid struct {
	tms    TileMatrixSet
	crs    *CRSDefinition
	levels []int
}

// NewTileGrid returns a new TileGrid for tms.
func NewTileGrid(tms TileMatrixSet) (*TileGrid, error) {
	crs, err := Lookup(tms.CRSKey)
	if err != nil {
		return nil, err
	}
	if tms.TileSize <= 0 {
		return nil, fmt.Errorf("%s: invalid tile size %d", tms.Identifier, tms.TileSize)
	}
	if !isFinite(tms.OriginX, tms.OriginY) {
		return nil, fmt.Errorf("%s: origin: %w", tms.Identifier, ErrNonFinite)
	}
	for level, scale := range tms.Scales {
		if !isFinite(scale) || scale <= 0 {
			return nil, fmt.Errorf("%s: level %d: invalid scale %g", tms.Identifier, level, scale)
		}
	}
	return &TileGrid{
		tms:    tms,
		crs:    crs,
		levels: slices.Sorted(maps.Keys(tms.Scales)),
	}, nil
}

// CRS returns the CRS of g.
func (g *TileGrid) CRS() *CRSDefinition {
	return g.crs
}

// TileMatrixSet returns the definition of g.
func (g *TileGrid) TileMatrixSet() TileMatrixSet {
	return g.tms
}

// Levels returns the levels of g in increasing order.
func (g *TileGrid) Levels() []int {
	return slices.Clone(g.levels)
}

// PixelSize returns the ground size of a pixel at level, scale × 0.00028.
func (g *TileGrid) PixelSize(level int) (float64, error) {
	scale, ok := g.tms.Scales[level]
	if !ok {
		return 0, fmt.Errorf("%s: level %d: %w", g.tms.Identifier, level, ErrUnknownLevel)
	}
	return scale * renderingPixelSizeNumerator / renderingPixelSizeDenominator, nil
}

// TileSpan returns the ground size of a tile at level.
func (g *TileGrid) TileSpan(level int) (float64, error) {
	pixelSize, err := g.PixelSize(level)
	if err != nil {
		return 0, err
	}
	return pixelSize * float64(g.tms.TileSize), nil
}

// TileToBBox returns the ground extent of the tile at row, col.
func (g *TileGrid) TileToBBox(level, row, col int) (BoundingBox, error) {
	return g.MosaicBBox(level, TileRange{MinRow: row, MaxRow: row, MinCol: col, MaxCol: col})
}

// MosaicBBox returns the ground extent of the tiles in r.
func (g *TileGrid) MosaicBBox(level int, r TileRange) (BoundingBox, error) {
	span, err := g.TileSpan(level)
	if err != nil {
		return BoundingBox{}, err
	}
	if !r.Valid() {
		return BoundingBox{}, &DegenerateInputError{Reason: fmt.Sprintf("empty tile range %+v", r)}
	}
	return BoundingBox{
		MinX: g.colEdge(span, r.MinCol),
		MinY: g.rowEdge(span, r.MaxRow+1),
		MaxX: g.colEdge(span, r.MaxCol+1),
		MaxY: g.rowEdge(span, r.MinRow),
	}, nil
}

// PointToTile returns the row and column of the tile containing x, y. Points
// on a shared edge belong to the tile to the east or south.
func (g *TileGrid) PointToTile(level int, x, y float64) (row, col int, err error) {
	span, err := g.TileSpan(level)
	if err != nil {
		return 0, 0, err
	}
	if !isFinite(x, y) {
		return 0, 0, fmt.Errorf("point (%g, %g): %w", x, y, ErrNonFinite)
	}
	col = int(math.Floor((x - g.tms.OriginX) / span))
	row = int(math.Floor((g.tms.OriginY - y) / span))
	// The division may round across an edge, so settle against the edges
	// that TileToBBox reports.
	switch {
	case x < g.colEdge(span, col):
		col--
	case x >= g.colEdge(span, col+1):
		col++
	}
	switch {
	case y > g.rowEdge(span, row):
		row--
	case y <= g.rowEdge(span, row+1):
		row++
	}
	return row, col, nil
}

// TilesInBBox returns the range of tiles that intersect bbox. Tiles that only
// touch bbox along an edge are excluded.
func (g *TileGrid) TilesInBBox(level int, bbox BoundingBox) (TileRange, error) {
	if !bbox.Valid() {
		return TileRange{}, &DegenerateInputError{Reason: fmt.Sprintf("invalid bounding box %v", bbox)}
	}
	span, err := g.TileSpan(level)
	if err != nil {
		return TileRange{}, err
	}
	minRow, minCol, err := g.PointToTile(level, bbox.MinX, bbox.MaxY)
	if err != nil {
		return TileRange{}, err
	}
	maxRow, maxCol, err := g.PointToTile(level, bbox.MaxX, bbox.MinY)
	if err != nil {
		return TileRange{}, err
	}
	if g.colEdge(span, maxCol) == bbox.MaxX {
		maxCol--
	}
	if g.rowEdge(span, maxRow) == bbox.MinY {
		maxRow--
	}
	return TileRange{
		MinRow: minRow,
		MaxRow: maxRow,
		MinCol: minCol,
		MaxCol: maxCol,
	}, nil
}

// MosaicTransform returns the transform of the raster formed by stitching
// the tiles in r edge to edge.
func (g *TileGrid) MosaicTransform(level int, r TileRange) (*Fit, error) {
	bbox, err := g.MosaicBBox(level, r)
	if err != nil {
		return nil, err
	}
	return FitFromBBox(r.Cols()*g.tms.TileSize, r.Rows()*g.tms.TileSize, bbox, 0)
}

// colEdge returns the x coordinate of the western edge of col.
func (g *TileGrid) colEdge(span float64, col int) float64 {
	return g.tms.OriginX + float64(col)*span
}

// rowEdge returns the y coordinate of the northern edge of row.
func (g *TileGrid) rowEdge(span float64, row int) float64 {
	return g.tms.OriginY - float64(row)*span
}
