// Package georefproj cross-checks the analytic conversions of
// github.com/twpayne/go-georef against PROJ.
package georefproj

import (
	"fmt"
	"math"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/twpayne/go-proj/v10"

	"github.com/twpayne/go-georef"
)

// wgs84LonLat is WGS84 geographic with longitude first, unlike EPSG:4326.
const wgs84LonLat = "+proj=longlat +datum=WGS84 +no_defs +type=crs"

var (
	pjCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "georef_proj_cache_hits_total",
		Help: "The total number of hits on the PROJ transformation cache",
	})
	pjCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "georef_proj_cache_misses_total",
		Help: "The total number of misses on the PROJ transformation cache",
	})
)

// A Transformer converts between WGS84 and catalog CRSs with PROJ. PROJ
// objects are not safe for concurrent use, so all access is serialized.
type Transformer struct {
	mutex     sync.Mutex
	cacheSize int
	pjCache   *lru.Cache[string, *proj.PJ]
}

// An Option sets an option on a Transformer.
type Option func(*Transformer)

func WithCacheSize(cacheSize int) Option {
	return func(t *Transformer) {
		t.cacheSize = cacheSize
	}
}

// NewTransformer returns a new Transformer with the given options.
func NewTransformer(options ...Option) (*Transformer, error) {
	t := &Transformer{
		cacheSize: 8,
	}
	for _, option := range options {
		option(t)
	}

	var err error
	t.pjCache, err = lru.NewWithEvict(t.cacheSize, func(key string, value *proj.PJ) {
		value.Destroy()
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Close releases all PROJ objects held by t.
func (t *Transformer) Close() {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.pjCache.Purge()
}

// Forward converts the WGS84 coordinate lon, lat to easting and northing in
// crs.
func (t *Transformer) Forward(crs *georef.CRSDefinition, lon, lat float64) (easting, northing float64, err error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	pj, err := t.getPJCached(crs)
	if err != nil {
		return 0, 0, err
	}
	coord, err := pj.Forward(proj.NewCoord(lon, lat, 0, 0))
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", crs.Key, err)
	}
	return coord.X(), coord.Y(), nil
}

// Inverse converts easting, northing in crs to a WGS84 longitude and
// latitude.
func (t *Transformer) Inverse(crs *georef.CRSDefinition, easting, northing float64) (lon, lat float64, err error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	pj, err := t.getPJCached(crs)
	if err != nil {
		return 0, 0, err
	}
	coord, err := pj.Inverse(proj.NewCoord(easting, northing, 0, 0))
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", crs.Key, err)
	}
	return coord.X(), coord.Y(), nil
}

// ForwardPoints converts points, each a WGS84 longitude and latitude, to crs
// in place.
func (t *Transformer) ForwardPoints(crs *georef.CRSDefinition, points [][]float64) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	pj, err := t.getPJCached(crs)
	if err != nil {
		return err
	}
	return pj.ForwardFloat64Slices(points)
}

// A Discrepancy is the difference between the analytic engine and PROJ at a
// point.
type Discrepancy struct {
	CRS              string
	Lon, Lat         float64
	AnalyticEasting  float64
	AnalyticNorthing float64
	PROJEasting      float64
	PROJNorthing     float64
	Metres           float64
	InverseDegrees   float64
}

// Compare converts lon, lat with both engines and reports how far apart
// they are, forwards in metres and back again in degrees.
func (t *Transformer) Compare(crs *georef.CRSDefinition, lon, lat float64) (*Discrepancy, error) {
	result, err := georef.Forward(crs, lon, lat)
	if err != nil {
		return nil, err
	}
	easting, northing, err := t.Forward(crs, lon, lat)
	if err != nil {
		return nil, err
	}
	inverse, err := georef.Inverse(crs, easting, northing)
	if err != nil {
		return nil, err
	}
	return &Discrepancy{
		CRS:              crs.Key,
		Lon:              lon,
		Lat:              lat,
		AnalyticEasting:  result.X,
		AnalyticNorthing: result.Y,
		PROJEasting:      easting,
		PROJNorthing:     northing,
		Metres:           math.Hypot(result.X-easting, result.Y-northing),
		InverseDegrees:   max(math.Abs(inverse.X-lon), math.Abs(inverse.Y-lat)),
	}, nil
}

// getPJCached returns the WGS84 to crs transformation. t.mutex must be held.
func (t *Transformer) getPJCached(crs *georef.CRSDefinition) (*proj.PJ, error) {
	if crs == nil {
		return nil, &georef.InvalidCRSError{}
	}
	if pj, ok := t.pjCache.Get(crs.Key); ok {
		pjCacheHits.Inc()
		return pj, nil
	}
	pjCacheMisses.Inc()
	pj, err := proj.NewCRSToCRS(wgs84LonLat, crs.Proj4(), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", crs.Key, err)
	}
	t.pjCache.Add(crs.Key, pj)
	return pj, nil
}
