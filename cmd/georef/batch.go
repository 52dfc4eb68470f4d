package main

import (
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/twpayne/go-georef"
)

func newBatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "batch <jobs.yaml>",
		Short: "Georeference the images listed in a job file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, args[0])
		},
	}
}

func runBatch(cmd *cobra.Command, configPath string) error {
	cfg, err := loadBatchConfig(configPath)
	if err != nil {
		return err
	}

	jobs := make([]georef.Job, 0, len(cfg.Jobs))
	for _, jobConfig := range cfg.Jobs {
		job, err := jobConfig.Job(imageSize)
		if err != nil {
			return err
		}
		jobs = append(jobs, job)
	}

	options := []georef.BatchOption{
		georef.WithConcurrency(cfg.Concurrency),
		georef.WithLogger(slog.Default()),
		georef.WithMaxRMS(cfg.MaxRMS),
		georef.WithWorldFileOptions(georef.WithPrecision(cfg.Precision)),
	}
	if cfg.Write {
		options = append(options, georef.WithSidecarWriter(georef.WriteSidecarFiles))
	}
	outcomes, err := georef.NewBatch(options...).Run(cmd.Context(), jobs)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "JOB\tMODE\tRMS\tSTATUS")
	skipped := 0
	for _, outcome := range outcomes {
		status, rms := "ok", "-"
		if outcome.Err != nil {
			status = outcome.Err.Error()
			skipped++
		}
		if outcome.Fit != nil && len(outcome.Fit.Residuals) > 0 {
			rms = fmt.Sprintf("%.3f", outcome.Fit.RMS)
		}
		mode := "-"
		if outcome.Job.Fit != nil {
			mode = string(outcome.Job.Fit.Mode())
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", outcome.Job.Name, mode, rms, status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	slog.Info("batch complete", "jobs", len(outcomes), "skipped", skipped)
	return nil
}
