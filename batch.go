package georef

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// A Job is a single image to georeference.
type Job struct {
	Name      string
	ImagePath string
	Width     int
	Height    int
	CRS       string
	Fit       FitSpec
}

// An Outcome is the result of a Job. Err is set when the job was skipped.
type Outcome struct {
	Job      Job
	Image    *GeoreferencedImage
	Fit      *Fit
	Sidecars *Sidecars
	Err      error
}

// A SidecarWriter stores the sidecars of the image at imagePath.
type SidecarWriter func(imagePath string, sidecars *Sidecars) error

// A Batch georeferences many images concurrently.
type Batch struct {
	concurrency      int
	logger           *slog.Logger
	maxRMS           float64
	worldFileOptions []WorldFileOption
	sidecarWriter    SidecarWriter
}

// A BatchOption sets an option on a Batch.
type BatchOption func(*Batch)

// NewBatch returns a new Batch with the given options.
func NewBatch(options ...BatchOption) *Batch {
	b := &Batch{
		concurrency: runtime.GOMAXPROCS(0),
		logger:      slog.Default(),
	}
	for _, option := range options {
		option(b)
	}
	return b
}

func WithConcurrency(concurrency int) BatchOption {
	return func(b *Batch) {
		b.concurrency = max(concurrency, 1)
	}
}

func WithLogger(logger *slog.Logger) BatchOption {
	return func(b *Batch) {
		b.logger = logger
	}
}

// WithMaxRMS sets the RMS residual above which a fit is logged as a warning.
// The fit is still used.
func WithMaxRMS(maxRMS float64) BatchOption {
	return func(b *Batch) {
		b.maxRMS = maxRMS
	}
}

func WithWorldFileOptions(worldFileOptions ...WorldFileOption) BatchOption {
	return func(b *Batch) {
		b.worldFileOptions = worldFileOptions
	}
}

func WithSidecarWriter(sidecarWriter SidecarWriter) BatchOption {
	return func(b *Batch) {
		b.sidecarWriter = sidecarWriter
	}
}

// WriteSidecarFiles writes sidecars next to imagePath.
func WriteSidecarFiles(imagePath string, sidecars *Sidecars) error {
	worldFilePath, projectionPath := sidecars.Paths(imagePath)
	if err := os.WriteFile(worldFilePath, sidecars.WorldFile, 0o666); err != nil {
		return err
	}
	return os.WriteFile(projectionPath, sidecars.Projection, 0o666)
}

// Run georeferences jobs. Every job's CRS is resolved before any work starts
// and an unknown CRS aborts the run. Jobs with degenerate or non-finite input
// are logged and skipped with their error recorded in their Outcome. Any
// other error, such as a failure to write sidecars, cancels the remaining
// jobs and is returned.
func (b *Batch) Run(ctx context.Context, jobs []Job) ([]Outcome, error) {
	crss := make([]*CRSDefinition, len(jobs))
	for i, job := range jobs {
		crs, err := Lookup(job.CRS)
		if err != nil {
			return nil, fmt.Errorf("job %s: %w", job.Name, err)
		}
		crss[i] = crs
	}

	outcomes := make([]Outcome, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for i, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			outcomes[i] = b.runJob(job, crss[i])
			switch err := outcomes[i].Err; {
			case err == nil:
				return nil
			case errors.Is(err, ErrDegenerateInput) || errors.Is(err, ErrNonFinite):
				return nil
			default:
				return fmt.Errorf("job %s: %w", job.Name, err)
			}
		})
	}
	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

func (b *Batch) runJob(job Job, crs *CRSDefinition) Outcome {
	logger := b.logger.With("job", job.Name, "crs", crs.Key)
	outcome := Outcome{
		Job: job,
	}

	fit, err := Solve(job.Fit)
	if err != nil {
		fitFailuresTotal.WithLabelValues(failureReason(err)).Inc()
		logger.Warn("fit failed", "err", err)
		outcome.Err = err
		return outcome
	}
	fitsTotal.WithLabelValues(string(job.Fit.Mode())).Inc()
	outcome.Fit = fit
	if len(fit.Residuals) > 0 {
		fitRMSMetres.Observe(fit.RMS)
		if b.maxRMS > 0 && fit.RMS > b.maxRMS {
			logger.Warn("high residual", "rms", fit.RMS, "max_residual", fit.MaxResidual)
		}
	}

	width, height := job.Width, job.Height
	if bboxFit, ok := job.Fit.(BBoxFit); ok {
		width, height = bboxFit.Width, bboxFit.Height
	}
	outcome.Image = &GeoreferencedImage{
		Width:     width,
		Height:    height,
		Transform: fit.Transform,
		CRS:       crs,
	}

	sidecars, err := NewSidecars(outcome.Image, job.ImagePath, b.worldFileOptions...)
	if err != nil {
		fitFailuresTotal.WithLabelValues(failureReason(err)).Inc()
		logger.Warn("serialization failed", "err", err)
		outcome.Err = err
		return outcome
	}
	outcome.Sidecars = sidecars

	if b.sidecarWriter != nil {
		if err := b.sidecarWriter(job.ImagePath, sidecars); err != nil {
			logger.Error("write failed", "err", err)
			outcome.Err = err
			return outcome
		}
		sidecarsWrittenTotal.Inc()
	}

	logger.Info("georeferenced", "mode", job.Fit.Mode(), "rms", fit.RMS)
	return outcome
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrDegenerateInput):
		return "degenerate_input"
	case errors.Is(err, ErrNonFinite):
		return "non_finite"
	default:
		return "other"
	}
}
