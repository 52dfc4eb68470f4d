package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/twpayne/go-georef"
)

func main() {
	cobra.CheckErr(newRootCmd().ExecuteContext(context.Background()))
}

func newRootCmd() *cobra.Command {
	var logLevel, logFormat string

	rootCmd := &cobra.Command{
		Use:           "georef",
		Short:         "Georeference scanned maps and tile mosaics in the Israeli grids",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(logLevel, logFormat)
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	rootCmd.AddCommand(
		newFitCmd(),
		newBatchCmd(),
		newTileCmd(),
		newMosaicCmd(),
		newConvertCmd(),
		newInspectCmd(),
	)
	return rootCmd
}

// setupLogging sets the default slog logger. Logs go to stderr so that
// command output on stdout stays machine readable.
func setupLogging(level, format string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// parseControlPoint parses px,py,gx,gy.
func parseControlPoint(s string) (georef.ControlPoint, error) {
	values, err := parseFloats(s, 4)
	if err != nil {
		return georef.ControlPoint{}, fmt.Errorf("control point %q: %w", s, err)
	}
	return georef.ControlPoint{PX: values[0], PY: values[1], GX: values[2], GY: values[3]}, nil
}

func parseFloats(s string, n int) ([]float64, error) {
	fields := strings.Split(s, ",")
	if len(fields) != n {
		return nil, fmt.Errorf("found %d values, expected %d", len(fields), n)
	}
	values := make([]float64, 0, n)
	for _, field := range fields {
		value, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, nil
}

// parseRange parses min-max or a single index.
func parseRange(s string) (int, int, error) {
	minStr, maxStr, ok := strings.Cut(s, "-")
	if !ok {
		maxStr = minStr
	}
	minValue, err := strconv.Atoi(strings.TrimSpace(minStr))
	if err != nil {
		return 0, 0, fmt.Errorf("range %q: %w", s, err)
	}
	maxValue, err := strconv.Atoi(strings.TrimSpace(maxStr))
	if err != nil {
		return 0, 0, fmt.Errorf("range %q: %w", s, err)
	}
	if maxValue < minValue {
		return 0, 0, fmt.Errorf("range %q: empty", s)
	}
	return minValue, maxValue, nil
}

func bboxFromSlice(values []float64) (georef.BoundingBox, error) {
	if len(values) != 4 {
		return georef.BoundingBox{}, fmt.Errorf("bbox: found %d values, expected 4", len(values))
	}
	return georef.BoundingBox{MinX: values[0], MinY: values[1], MaxX: values[2], MaxY: values[3]}, nil
}
