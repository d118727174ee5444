// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/hashicorp/go-archivenav"
	"github.com/hashicorp/go-archivenav/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// CLI are the cli parameters for the archivenav binary
type CLI struct {
	MaxExtractionSize int64            `optional:"" default:"1073741824" help:"Maximum size of extracted entries (in bytes). (disable check: -1)"`
	MaxInputSize      int64            `optional:"" default:"1073741824" help:"Maximum size of a loaded container (in bytes). (disable check: -1)"`
	Metrics           bool             `short:"M" optional:"" default:"false" help:"Print telemetry to log after each operation."`
	MetricsFile       string           `optional:"" type:"path" help:"Write Prometheus metrics to this textfile on exit."`
	Pattern           []string         `short:"p" optional:"" help:"Only list files matching these doublestar patterns."`
	Scratch           string           `optional:"" type:"path" help:"Directory for temporary extractions. (default: system temp dir)"`
	Verbose           bool             `short:"v" optional:"" help:"Verbose logging."`
	Version           kong.VersionFlag `short:"V" optional:"" help:"Print release version information."`

	Ls     LsCmd     `cmd:"" help:"List a directory or archive, optionally descending into inner entries."`
	Browse BrowseCmd `cmd:"" help:"Browse a directory or archive interactively."`
	Pack   PackCmd   `cmd:"" help:"Pack files and directories into a new archive."`
}

// environment is passed to the commands
type environment struct {
	ctx    context.Context
	engine *archivenav.Engine
	logger *slog.Logger
	in     io.Reader
	out    io.Writer
}

// Run the entrypoint into archivenav as a cli tool
func Run(version, commit, date string) {
	ctx := context.Background()
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Description("Browse nested archives like directories"),
		kong.UsageOnError(),
		kong.Vars{
			"version": fmt.Sprintf("%s (%s), commit %s, built at %s", filepath.Base(os.Args[0]), version, commit, date),
		},
	)

	// Check for verbose output
	logLevel := slog.LevelError
	if cli.Verbose {
		logLevel = slog.LevelDebug
	}

	// setup logger
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	// setup telemetry hooks
	registry := prometheus.NewRegistry()
	collector := metrics.New(registry)
	telemetryToLog := func(ctx context.Context, td *archivenav.TelemetryData) {
		if cli.Metrics {
			logger.Info("operation finished", "telemetry", td)
		}
	}

	// process cli params
	engine := archivenav.New(
		archivenav.WithLogger(logger),
		archivenav.WithMaxExtractionSize(cli.MaxExtractionSize),
		archivenav.WithMaxInputSize(cli.MaxInputSize),
		archivenav.WithPatterns(cli.Pattern...),
		archivenav.WithScratchRoot(cli.Scratch),
		archivenav.WithTelemetryHook(metrics.Chain(telemetryToLog, collector.Hook())),
	)

	env := &environment{
		ctx:    ctx,
		engine: engine,
		logger: logger,
		in:     os.Stdin,
		out:    os.Stdout,
	}
	err := kctx.Run(env)

	// remove temporary extractions
	if failed, cerr := engine.Close(ctx); cerr != nil {
		logger.Error("cleanup incomplete", "failed", failed, "err", cerr)
	}

	// export metrics
	if len(cli.MetricsFile) > 0 {
		if merr := metrics.WriteTextfile(registry, cli.MetricsFile); merr != nil {
			logger.Error("writing metrics failed", "err", merr)
		}
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("error: %w", err))
		os.Exit(-1)
	}
}
