package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"SalesScanner/internal/app"
	"SalesScanner/internal/config"
	"SalesScanner/internal/logging"
	"SalesScanner/internal/usecase"
)

const configPathEnv = "SALES_SCANNER_CONFIG"

// exitError carries a non-zero process status that was already logged.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

type rootFlags struct {
	configPath    string
	logLevel      string
	output        string
	concurrency   int
	resolveQuota  int
	metadataQuota int
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "salesscanner",
		Short:         "Collect sold events from a listing sitemap into CSV",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "YAML config file (overrides $"+configPathEnv+")")
	pf.StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVarP(&flags.output, "output", "o", "", "CSV output path")
	pf.IntVarP(&flags.concurrency, "concurrency", "c", 0, "maximum in-flight requests per stage")
	pf.IntVar(&flags.resolveQuota, "resolve-quota", -1, "keep at most this many listing ids (0 keeps all)")
	pf.IntVar(&flags.metadataQuota, "metadata-quota", -1, "keep at most this many metadata records (0 keeps all)")

	cmd.AddCommand(newRunCommand(flags), newScheduleCommand(flags))
	return cmd
}

// loadConfig applies flags on top of file and environment settings.
func (f *rootFlags) loadConfig() (config.Config, error) {
	if f.configPath != "" {
		if err := os.Setenv(configPathEnv, f.configPath); err != nil {
			return config.Config{}, fmt.Errorf("set %s: %w", configPathEnv, err)
		}
	}
	cfg := config.Load()

	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}
	if f.output != "" {
		cfg.Output.CSVPath = f.output
	}
	if f.concurrency > 0 {
		cfg.Pipeline.Concurrency = f.concurrency
	}
	if f.resolveQuota >= 0 {
		cfg.Pipeline.ResolveQuota = f.resolveQuota
	}
	if f.metadataQuota >= 0 {
		cfg.Pipeline.MetadataQuota = f.metadataQuota
	}
	return cfg, nil
}

func (f *rootFlags) newApplication(cmd *cobra.Command) (*app.Application, *zap.Logger, error) {
	cfg, err := f.loadConfig()
	if err != nil {
		return nil, nil, err
	}

	logger := logging.New(cfg.Logging.Level)
	application, err := app.New(cmd.Context(), cfg, logger, app.WithOutput(cmd.OutOrStdout()))
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}
	return application, logger, nil
}

func withExitCode(err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: usecase.ExitCode(err), err: err}
}
