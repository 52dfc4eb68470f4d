package georef

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "georef_fits_total",
		Help: "The total number of successful fits",
	}, []string{"mode"})
	fitFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "georef_fit_failures_total",
		Help: "The total number of failed batch jobs",
	}, []string{"reason"})
	fitRMSMetres = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "georef_fit_rms_metres",
		Help:    "The RMS residual of control point fits",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
	})
	sidecarsWrittenTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "georef_sidecars_written_total",
		Help: "The total number of sidecar file sets written",
	})
)
