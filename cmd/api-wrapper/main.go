package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/accelara/batchdl/internal/batch"
	"github.com/accelara/batchdl/internal/config"
	"github.com/accelara/batchdl/internal/downloader"
	"github.com/accelara/batchdl/internal/logging"
	"github.com/accelara/batchdl/internal/manifest"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:           "api-wrapper [suffix...]",
		Short:         "Run a batch and stream its status as JSON lines",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.New(), cmd.Flags(), configFile)
			if err != nil {
				return err
			}
			cfg.AddSuffixes(args)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd, cfg)
		},
	}

	fs := cmd.Flags()
	config.RegisterFlags(fs)
	fs.String(config.KeyDownloadID, "", "ID attached to every status line (generated when empty)")
	fs.Bool(config.KeyInspect, false, "Print the matching candidates as JSON and exit")
	fs.StringVar(&configFile, "config", "", "Config file (yaml, json or toml)")

	return cmd
}

func run(cmd *cobra.Command, cfg config.Config) error {
	// stdout carries the status stream, so logs always go to stderr as JSON
	log, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, logging.FormatJSON)
	if err != nil {
		return err
	}
	log = log.With().Str("download_id", cfg.DownloadID).Logger()

	dl := downloader.NewHTTPDownloader(cfg.DownloaderOptions(log))

	if cfg.Inspect {
		var prober manifest.SizeProber
		if cfg.ProbeSizes {
			prober = dl
		}
		return inspectManifest(cmd.Context(), cmd.OutOrStdout(), cfg.DownloadID, cfg.InputFile, cfg.Suffixes, prober)
	}

	reporter := NewStatusReporter(cmd.OutOrStdout(), cfg.DownloadID)

	outputDir, err := filepath.Abs(cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("resolving output dir: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			log.Warn().Str("signal", sig.String()).Msg("shutting down, remaining downloads will fail")
			reporter.Emit(map[string]interface{}{
				"type":    "info",
				"status":  "stopping",
				"message": "Shutdown signal received, cancelling remaining downloads...",
			})
			cancel()
		case <-ctx.Done():
		}
	}()

	parseOpts := []manifest.Option{manifest.WithLogger(log)}
	if cfg.ProbeSizes {
		parseOpts = append(parseOpts, manifest.WithSizeProber(dl))
	}
	candidates, err := manifest.Parse(ctx, cfg.InputFile, cfg.Suffixes, parseOpts...)
	if err != nil {
		reporter.Emit(map[string]interface{}{
			"type":    "error",
			"status":  "error",
			"message": err.Error(),
		})
		return err
	}

	orch := batch.New(dl,
		batch.WithWorkers(cfg.Workers),
		batch.WithReporter(reporter),
		batch.WithLogger(log),
	)
	st := orch.Run(ctx, candidates, outputDir)

	if cfg.FailOnError && st.Failed > 0 {
		return fmt.Errorf("%d of %d downloads failed", st.Failed, st.TotalCandidates)
	}
	return nil
}
