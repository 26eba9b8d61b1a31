package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SalesScanner/internal/usecase"
)

func TestLoadConfigFlagPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pipeline:\n  concurrency: 3\n  resolveQuota: 7\noutput:\n  csvPath: file.csv\n"), 0o644))
	t.Setenv(configPathEnv, "")

	flags := &rootFlags{
		configPath:    path,
		output:        "flag.csv",
		concurrency:   9,
		resolveQuota:  -1,
		metadataQuota: 0,
	}

	cfg, err := flags.loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "flag.csv", cfg.Output.CSVPath)
	assert.Equal(t, 9, cfg.Pipeline.Concurrency)
	assert.Equal(t, 7, cfg.Pipeline.ResolveQuota)
	assert.Equal(t, 0, cfg.Pipeline.MetadataQuota)
}

func TestWithExitCode(t *testing.T) {
	t.Parallel()

	assert.NoError(t, withExitCode(nil))

	err := withExitCode(fmt.Errorf("run: %w", usecase.ErrNoMetadata))
	var exit *exitError
	require.True(t, errors.As(err, &exit))
	assert.Equal(t, 4, exit.code)
	assert.ErrorIs(t, err, usecase.ErrNoMetadata)
}

func TestExecuteUnknownCommand(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, execute(context.Background(), []string{"bogus"}))
}

func TestExecuteInvalidConfig(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv("SALES_SCANNER_CONCURRENCY", "0")

	code := execute(context.Background(), []string{"run", "--output", filepath.Join(t.TempDir(), "out.csv")})
	assert.Equal(t, 1, code)
}
