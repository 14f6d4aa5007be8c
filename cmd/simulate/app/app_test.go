package app

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/gait-radar/internal/render"
	"github.com/roman-kulish/gait-radar/internal/storage"
)

const testConfig = `
fs: 100
simulator:
  forward_motion: true
  duration: 2
  height: [1.6, 1.9]
  rv: [0.5, 1.2]
  radarloc: [0, 10, 1]
  lambda_: 0.0125
  rangeres: 0.02
  body_parts: complete_human
dataset:
  seed: 99
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o644))
	return path
}

func TestParseFlags(t *testing.T) {
	testCases := []struct {
		name     string
		args     []string
		wantSeed *uint64
		wantErr  bool
	}{
		{"defaults", []string{"-c", "a.yaml", "-o", "out"}, nil, false},
		{"seed", []string{"-c", "a.yaml", "-o", "out", "-seed", "5"}, ptr(uint64(5)), false},
		{"zero seed is explicit", []string{"-c", "a.yaml", "-o", "out", "-seed", "0"}, ptr(uint64(0)), false},
		{"missing config", []string{"-o", "out"}, nil, true},
		{"missing output", []string{"-c", "a.yaml"}, nil, true},
		{"bad theme", []string{"-c", "a.yaml", "-o", "out", "-theme", "rainbow"}, nil, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
			fs.SetOutput(io.Discard)

			c, err := parseFlags(fs, tc.args)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantSeed, c.Seed)
			assert.Equal(t, render.DefaultTheme, c.Theme)
		})
	}
}

func ptr[T any](v T) *T {
	return &v
}

func TestRun(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	c := &Config{ConfigPath: writeConfig(t), OutputDir: out, Theme: render.ThermalTheme, Velocity: true}

	require.NoError(t, Run(context.Background(), c, slog.New(slog.NewTextHandler(io.Discard, nil))))

	for _, name := range []string{TraceFile, RangeTimeFile, SpectrogramFile, ChartFile, RangesFile, SkeletonFile} {
		assert.FileExists(t, filepath.Join(out, name))
	}

	f, err := os.Open(filepath.Join(out, TraceFile))
	require.NoError(t, err)
	defer f.Close()

	shape, values, err := storage.ReadNPY(f)
	require.NoError(t, err)
	require.Len(t, shape, 2)
	assert.Equal(t, 200, shape[1])
	assert.Len(t, values, shape[0]*shape[1])
}

func TestRun_Reproducible(t *testing.T) {
	cfgPath := writeConfig(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	read := func(seed uint64) []byte {
		out := t.TempDir()
		require.NoError(t, Run(context.Background(), &Config{ConfigPath: cfgPath, OutputDir: out, Seed: &seed}, logger))
		b, err := os.ReadFile(filepath.Join(out, TraceFile))
		require.NoError(t, err)
		return b
	}

	assert.Equal(t, read(3), read(3))
	assert.NotEqual(t, read(3), read(4))
}

func TestRun_Errors(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	err := Run(context.Background(), &Config{ConfigPath: "missing.yaml", OutputDir: t.TempDir()}, logger)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = Run(ctx, &Config{ConfigPath: writeConfig(t), OutputDir: t.TempDir()}, logger)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSnapshots(t *testing.T) {
	assert.Equal(t, []int{0, 25, 50, 75}, snapshots(100, 4))
	assert.Equal(t, []int{0, 1}, snapshots(2, 4))
	assert.Equal(t, []int{0}, snapshots(10, 0))
}
