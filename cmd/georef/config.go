package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/twpayne/go-georef"
)

// A BatchConfig is a batch job file.
type BatchConfig struct {
	Concurrency int         `mapstructure:"concurrency"`
	MaxRMS      float64     `mapstructure:"max_rms"`
	Precision   int         `mapstructure:"precision"`
	Write       bool        `mapstructure:"write"`
	Jobs        []JobConfig `mapstructure:"jobs"`
}

type JobConfig struct {
	Name      string        `mapstructure:"name"`
	Image     string        `mapstructure:"image"`
	CRS       string        `mapstructure:"crs"`
	Width     int           `mapstructure:"width"`
	Height    int           `mapstructure:"height"`
	BBox      []float64     `mapstructure:"bbox"`
	MarginPct float64       `mapstructure:"margin_pct"`
	Points    []PointConfig `mapstructure:"points"`
}

type PointConfig struct {
	PX float64 `mapstructure:"px"`
	PY float64 `mapstructure:"py"`
	GX float64 `mapstructure:"gx"`
	GY float64 `mapstructure:"gy"`
}

// loadBatchConfig reads the batch job file at path. Top level settings may
// be overridden by GEOREF_ environment variables.
func loadBatchConfig(path string) (*BatchConfig, error) {
	v := viper.New()

	v.SetDefault("concurrency", 4)
	v.SetDefault("max_rms", 0)
	v.SetDefault("precision", 6)
	v.SetDefault("write", true)

	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// GEOREF_MAX_RMS → max_rms
	v.SetEnvPrefix("GEOREF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg BatchConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Relative image paths are relative to the job file.
	dir := filepath.Dir(path)
	for i := range cfg.Jobs {
		if image := cfg.Jobs[i].Image; image != "" && !filepath.IsAbs(image) {
			cfg.Jobs[i].Image = filepath.Join(dir, image)
		}
	}

	return &cfg, nil
}

// Validate checks the structure of c. Geometric problems such as colinear
// control points are reported per job when the batch runs.
func (c *BatchConfig) Validate() error {
	var errs []string

	if c.Concurrency <= 0 {
		errs = append(errs, fmt.Sprintf("concurrency must be positive, got %d", c.Concurrency))
	}
	if c.MaxRMS < 0 {
		errs = append(errs, "max_rms must not be negative")
	}
	if len(c.Jobs) == 0 {
		errs = append(errs, "jobs is required")
	}
	names := make(map[string]struct{}, len(c.Jobs))
	for i, job := range c.Jobs {
		switch {
		case job.Name == "":
			errs = append(errs, fmt.Sprintf("jobs[%d].name is required", i))
		default:
			if _, ok := names[job.Name]; ok {
				errs = append(errs, fmt.Sprintf("jobs[%d].name %q is duplicated", i, job.Name))
			}
			names[job.Name] = struct{}{}
		}
		if job.Image == "" {
			errs = append(errs, fmt.Sprintf("jobs[%d].image is required", i))
		}
		if job.CRS == "" {
			errs = append(errs, fmt.Sprintf("jobs[%d].crs is required", i))
		}
		switch {
		case len(job.BBox) == 0 && len(job.Points) == 0:
			errs = append(errs, fmt.Sprintf("jobs[%d] needs bbox or points", i))
		case len(job.BBox) != 0 && len(job.Points) != 0:
			errs = append(errs, fmt.Sprintf("jobs[%d] has both bbox and points", i))
		case len(job.BBox) != 0 && len(job.BBox) != 4:
			errs = append(errs, fmt.Sprintf("jobs[%d].bbox must have 4 values, got %d", i, len(job.BBox)))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Job returns j as a georef.Job. sizeFunc is called for images whose size is
// not given.
func (j JobConfig) Job(sizeFunc func(string) (int, int, error)) (georef.Job, error) {
	width, height := j.Width, j.Height
	if width == 0 || height == 0 {
		var err error
		width, height, err = sizeFunc(j.Image)
		if err != nil {
			return georef.Job{}, fmt.Errorf("job %s: %w", j.Name, err)
		}
	}

	job := georef.Job{
		Name:      j.Name,
		ImagePath: j.Image,
		Width:     width,
		Height:    height,
		CRS:       j.CRS,
	}
	if len(j.Points) > 0 {
		points := make([]georef.ControlPoint, 0, len(j.Points))
		for _, p := range j.Points {
			points = append(points, georef.ControlPoint{PX: p.PX, PY: p.PY, GX: p.GX, GY: p.GY})
		}
		job.Fit = georef.PointsFit{Points: points}
	} else {
		bbox, err := bboxFromSlice(j.BBox)
		if err != nil {
			return georef.Job{}, fmt.Errorf("job %s: %w", j.Name, err)
		}
		job.Fit = georef.BBoxFit{Width: width, Height: height, BBox: bbox, MarginPct: j.MarginPct}
	}
	return job, nil
}
