package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nixlim/keyprint/internal/config"
	"github.com/nixlim/keyprint/internal/logging"
	"github.com/nixlim/keyprint/internal/submit"
)

var version = "dev"

type rootOptions struct {
	configPath string
	debugPath  string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "keyprint",
		Short: "Capture keystroke timing and identify the typist",
		Long: `keyprint records key press and release timings while you type a sentence,
then sends them to a keystroke-dynamics service that logs the sample and
predicts who typed it.

Run without a subcommand to open the capture screen.`,
		Version:      version,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/.config/keyprint/config.toml)")
	cmd.PersistentFlags().StringVar(&opts.debugPath, "debug", "", "write submitted payloads and outcomes as JSONL to this file")

	cmd.AddCommand(newSubmitCommand(opts))
	cmd.AddCommand(newFeaturesCommand())
	cmd.AddCommand(newHistoryCommand(opts))
	cmd.AddCommand(newInitCommand(opts))

	return cmd
}

func execute() error {
	return newRootCommand().Execute()
}

// loadConfig reads the config file, then KEYPRINT_* variables from the
// environment or a .env file in the working directory, and prints any
// warnings. An explicit path must exist; the default path may be absent.
func loadConfig(path string, stderr io.Writer) (config.Config, error) {
	var (
		res *config.LoadResult
		err error
	)
	if path == "" {
		res, err = config.Load()
	} else {
		if _, statErr := os.Stat(path); statErr != nil {
			return config.Config{}, fmt.Errorf("config file: %w", statErr)
		}
		res, err = config.LoadFrom(path)
	}
	if err != nil {
		return config.Config{}, err
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(stderr, "keyprint: config warning: %s\n", w)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(stderr, "keyprint: ignoring .env: %v\n", err)
	}
	cfg := res.Config
	if _, err := config.ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return config.Config{}, fmt.Errorf("environment: %w", err)
	}
	return cfg, nil
}

// setupCLILogging installs the default logger for non-interactive commands.
// Without a log file they log to stderr.
func setupCLILogging(cfg config.LogConfig, stderr io.Writer) (func() error, error) {
	if cfg.Path != "" {
		_, closer, err := logging.Setup(cfg)
		return closer, err
	}
	logger, err := logging.New(logging.Options{Level: cfg.Level, Format: "text", Output: stderr})
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return func() error { return nil }, nil
}

// openDebugLog returns the JSONL submission logger for --debug, or a no-op
// logger when the flag is unset.
func openDebugLog(path string) (submit.Logger, func() error, error) {
	if path == "" {
		return submit.NopLogger{}, func() error { return nil }, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening debug log %q: %w", path, err)
	}
	return submit.NewFileLogger(f), f.Close, nil
}
