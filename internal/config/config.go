// Package config loads batchdl settings from flags, BATCHDL_* environment
// variables and an optional config file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/accelara/batchdl/internal/downloader"
	"github.com/accelara/batchdl/internal/logging"
	"github.com/accelara/batchdl/internal/utils"
)

// EnvPrefix is prepended to every environment variable, so --input-file
// becomes BATCHDL_INPUT_FILE.
const EnvPrefix = "BATCHDL"

// Flag and config keys.
const (
	KeyInputFile      = "input-file"
	KeyOutputDir      = "output-dir"
	KeySuffixes       = "suffixes"
	KeyProbeSizes     = "probe-sizes"
	KeyWorkers        = "workers"
	KeyLimit          = "limit"
	KeyProxy          = "proxy"
	KeyConnectTimeout = "connect-timeout"
	KeyReadTimeout    = "read-timeout"
	KeyAtomic         = "atomic"
	KeyFailOnError    = "fail-on-error"
	KeyUI             = "ui"
	KeyLogLevel       = "log-level"
	KeyLogFormat      = "log-format"
	KeyDownloadID     = "download-id"
	KeyInspect        = "inspect"
)

// UI modes.
const (
	UIAuto = "auto"
	UITUI  = "tui"
	UIBar  = "bar"
	UINone = "none"
)

// Config is the resolved configuration of one invocation.
type Config struct {
	InputFile      string
	OutputDir      string
	Suffixes       []string
	ProbeSizes     bool
	Workers        int
	Limit          string
	RateLimit      int64 // Limit in bytes per second
	Proxy          string
	ConnectTimeout int
	ReadTimeout    int
	Atomic         bool
	FailOnError    bool
	UI             string
	LogLevel       string
	LogFormat      string

	// Only bound by the api-wrapper.
	DownloadID string
	Inspect    bool
}

// RegisterFlags adds the flags shared by both binaries to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	def := downloader.DefaultOptions()

	fs.String(KeyInputFile, "", "Tab-separated manifest of <link>\\t<name> lines (required)")
	fs.String(KeyOutputDir, "", "Directory downloads are written to, created if missing (required)")
	fs.StringSlice(KeySuffixes, nil, "File suffixes to download; repeatable, comma separated, or followed by more suffixes (required)")
	fs.Bool(KeyProbeSizes, false, "Probe remote sizes first and weight progress by bytes")
	fs.Int(KeyWorkers, 1, "Number of downloads in flight")
	fs.String(KeyLimit, "", "Download rate limit, e.g. 2MB")
	fs.String(KeyProxy, "", "HTTP/HTTPS proxy URL")
	fs.Int(KeyConnectTimeout, def.ConnectTimeout, "Connection timeout in seconds")
	fs.Int(KeyReadTimeout, def.ReadTimeout, "Seconds to wait for response headers")
	fs.Bool(KeyAtomic, def.AtomicWrite, "Write into a temp file and rename on success")
	fs.Bool(KeyFailOnError, false, "Exit non-zero when any download fails")
	fs.String(KeyUI, UIAuto, "Progress display: auto, tui, bar or none")
	fs.String(KeyLogLevel, "info", "Log level: debug, info, warn, error")
	fs.String(KeyLogFormat, logging.FormatConsole, "Log format: console or json")
}

// Load resolves the configuration from v after binding it to fs. A non-empty
// configFile is read first; a missing one is an error.
func Load(v *viper.Viper, fs *pflag.FlagSet, configFile string) (Config, error) {
	if err := v.BindPFlags(fs); err != nil {
		return Config{}, fmt.Errorf("binding flags: %w", err)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := Config{
		InputFile:      strings.TrimSpace(v.GetString(KeyInputFile)),
		OutputDir:      strings.TrimSpace(v.GetString(KeyOutputDir)),
		Suffixes:       SplitList(v.GetStringSlice(KeySuffixes)),
		ProbeSizes:     v.GetBool(KeyProbeSizes),
		Workers:        v.GetInt(KeyWorkers),
		Limit:          v.GetString(KeyLimit),
		Proxy:          v.GetString(KeyProxy),
		ConnectTimeout: v.GetInt(KeyConnectTimeout),
		ReadTimeout:    v.GetInt(KeyReadTimeout),
		Atomic:         v.GetBool(KeyAtomic),
		FailOnError:    v.GetBool(KeyFailOnError),
		UI:             strings.ToLower(v.GetString(KeyUI)),
		LogLevel:       v.GetString(KeyLogLevel),
		LogFormat:      strings.ToLower(v.GetString(KeyLogFormat)),
		DownloadID:     v.GetString(KeyDownloadID),
		Inspect:        v.GetBool(KeyInspect),
	}

	limit, err := utils.ParseBytes(cfg.Limit)
	if err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", KeyLimit, err)
	}
	cfg.RateLimit = limit

	if cfg.DownloadID == "" {
		cfg.DownloadID = uuid.NewString()
	}

	return cfg, nil
}

// SplitList flattens comma separated items, which is how a suffix list
// arrives from the environment or a scalar config value.
func SplitList(items []string) []string {
	var out []string
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// AddSuffixes appends suffixes given as positional arguments, so that
// "--suffixes pdf txt" selects both.
func (c *Config) AddSuffixes(args []string) {
	c.Suffixes = append(c.Suffixes, SplitList(args)...)
}

// Validate reports every problem with c at once.
func (c Config) Validate() error {
	var errs []error

	if c.InputFile == "" {
		errs = append(errs, fmt.Errorf("--%s is required", KeyInputFile))
	}
	if c.OutputDir == "" && !c.Inspect {
		errs = append(errs, fmt.Errorf("--%s is required", KeyOutputDir))
	}
	if len(c.Suffixes) == 0 {
		errs = append(errs, fmt.Errorf("--%s requires at least one suffix", KeySuffixes))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("--%s must be at least 1, got %d", KeyWorkers, c.Workers))
	}
	if c.ConnectTimeout < 0 || c.ReadTimeout < 0 {
		errs = append(errs, errors.New("timeouts must not be negative"))
	}
	switch c.UI {
	case UIAuto, UITUI, UIBar, UINone:
	default:
		errs = append(errs, fmt.Errorf("--%s must be one of auto, tui, bar, none, got %q", KeyUI, c.UI))
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		errs = append(errs, fmt.Errorf("--%s: %w", KeyLogLevel, err))
	}
	switch c.LogFormat {
	case logging.FormatConsole, logging.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("--%s must be console or json, got %q", KeyLogFormat, c.LogFormat))
	}

	return errors.Join(errs...)
}

// DownloaderOptions maps c onto the executor options.
func (c Config) DownloaderOptions(log zerolog.Logger) downloader.Options {
	opts := downloader.DefaultOptions()
	opts.RateLimit = c.RateLimit
	opts.Proxy = c.Proxy
	opts.ConnectTimeout = c.ConnectTimeout
	opts.ReadTimeout = c.ReadTimeout
	opts.AtomicWrite = c.Atomic
	opts.Logger = log
	return opts
}
