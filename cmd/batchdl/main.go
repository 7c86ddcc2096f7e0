package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/accelara/batchdl/internal/batch"
	"github.com/accelara/batchdl/internal/config"
	"github.com/accelara/batchdl/internal/downloader"
	"github.com/accelara/batchdl/internal/logging"
	"github.com/accelara/batchdl/internal/manifest"
	"github.com/accelara/batchdl/internal/ui"
)

// ErrPartialFailure is returned under --fail-on-error when any download failed.
var ErrPartialFailure = errors.New("some downloads failed")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "batchdl [suffix...]",
		Short: "Download every manifest link that ends with one of the given suffixes",
		Long: "batchdl reads a tab-separated manifest of <link>\\t<name> lines and downloads\n" +
			"each link ending with a requested suffix to <output-dir>/<name><suffix>.",
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

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, stop, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	config.RegisterFlags(cmd.Flags())
	cmd.Flags().StringVar(&configFile, "config", "", "Config file (yaml, json or toml)")

	return cmd
}

func run(ctx context.Context, cancel context.CancelFunc, cfg config.Config, stdout, stderr io.Writer) error {
	mode := uiMode(cfg.UI, stdout)

	logLevel := cfg.LogLevel
	if mode == config.UITUI && !isQuiet(logLevel) {
		// log lines would tear the TUI apart
		logLevel = zerolog.LevelErrorValue
	}
	log, err := logging.New(stderr, logLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	log = log.With().Str("run_id", cfg.DownloadID).Logger()

	outputDir, err := filepath.Abs(cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("resolving output dir: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	dl := downloader.NewHTTPDownloader(cfg.DownloaderOptions(log))

	parseOpts := []manifest.Option{manifest.WithLogger(log)}
	if cfg.ProbeSizes {
		parseOpts = append(parseOpts, manifest.WithSizeProber(dl))
	}

	// Parsing runs under the chosen display so probing shows up in the TUI.
	runBatch := func(r batch.Reporter) (batch.State, error) {
		candidates, err := manifest.Parse(ctx, cfg.InputFile, cfg.Suffixes, parseOpts...)
		if err != nil {
			return batch.State{}, err
		}
		orch := batch.New(dl,
			batch.WithWorkers(cfg.Workers),
			batch.WithReporter(r),
			batch.WithLogger(log),
		)
		return orch.Run(ctx, candidates, outputDir), nil
	}

	var st batch.State
	switch mode {
	case config.UITUI:
		st, err = ui.RunTUI(stdout, cancel, runBatch)
	case config.UIBar:
		st, err = runBatch(ui.NewBarReporter(stdout))
	default:
		st, err = runBatch(ui.NewTextReporter(stdout))
	}
	if err != nil {
		return err
	}

	if cfg.FailOnError && st.Failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrPartialFailure, st.Failed, st.TotalCandidates)
	}
	return nil
}

// uiMode resolves "auto" to the TUI on a terminal and plain lines elsewhere.
func uiMode(mode string, stdout io.Writer) string {
	if mode != config.UIAuto {
		return mode
	}
	if f, ok := stdout.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return config.UITUI
	}
	return config.UINone
}

func isQuiet(level string) bool {
	lvl, err := zerolog.ParseLevel(level)
	return err == nil && lvl >= zerolog.ErrorLevel
}
