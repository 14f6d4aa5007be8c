package dataset

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/gait-radar/internal/body"
	"github.com/roman-kulish/gait-radar/internal/config"
	"github.com/roman-kulish/gait-radar/internal/gait"
	"github.com/roman-kulish/gait-radar/internal/storage"
)

const testConfig = `
fs: 50
simulator:
  forward_motion: true
  duration: 1
  height: [1.2, 1.8]
  rv: [0.2, 1.0]
  radarloc: [0, 10, 0]
  lambda_: 0.0125
  rangeres: 0.05
  body_parts: complete_human
dataset:
  seed: 1234
  maxBatchSize: 3
`

func loadConfig(t *testing.T, extra string) *config.Config {
	t.Helper()

	doc := testConfig
	if extra != "" {
		doc = strings.Replace(doc, "dataset:\n", "dataset:\n"+extra, 1)
	}
	c, err := config.Decode(strings.NewReader(doc))
	require.NoError(t, err)
	return c
}

type memStore struct {
	mu      sync.Mutex
	runs    []*storage.Run
	config  any
	batches [][]*storage.Sample
	err     error
	closed  bool
}

func (m *memStore) CreateRun(_ context.Context, run *storage.Run, config any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	m.config = config
	return nil
}

func (m *memStore) StoreSamples(_ context.Context, samples []*storage.Sample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.batches = append(m.batches, samples)
	return nil
}

func (m *memStore) Close() error {
	m.closed = true
	return nil
}

func (m *memStore) samples() []*storage.Sample {
	var all []*storage.Sample
	for _, b := range m.batches {
		all = append(all, b...)
	}
	return all
}

// pickyModel rejects every figure taller than maxHeight.
type pickyModel struct {
	gait.Model
	maxHeight float64
}

func (p pickyModel) Generate(params gait.Params) (*gait.Trajectory, body.Lengths, error) {
	if params.Height > p.maxHeight {
		return nil, nil, body.NewParameterError("height", params.Height, "too tall for this test")
	}
	return p.Model.Generate(params)
}

type brokenModel struct{}

func (brokenModel) Generate(gait.Params) (*gait.Trajectory, body.Lengths, error) {
	return nil, nil, errors.New("model exploded")
}

func TestGeneratorRun(t *testing.T) {
	t.Parallel()

	cfg := loadConfig(t, "")
	store := &memStore{}

	summary, err := NewGenerator(cfg, store, WithWorkers(3)).Run(context.Background(), 8)
	require.NoError(t, err)

	assert.Equal(t, 8, summary.Requested)
	assert.Equal(t, 8, summary.Stored)
	assert.Zero(t, summary.Skipped)
	assert.Positive(t, summary.Bytes)

	require.Len(t, store.runs, 1)
	assert.Equal(t, summary.RunID, store.runs[0].ID)
	assert.Equal(t, uint64(1234), store.runs[0].Seed)
	assert.Same(t, cfg, store.config)

	for _, b := range store.batches {
		assert.LessOrEqual(t, len(b), 3)
	}

	samples := store.samples()
	require.Len(t, samples, 8)
	for i, s := range samples {
		assert.Equal(t, i, s.Index)
		assert.Equal(t, summary.RunID, s.RunID)
		assert.False(t, s.Squeezed)
		assert.Equal(t, 50, s.TimeSamples)
		assert.Len(t, s.Data, s.Bins*s.TimeSamples)
		assert.GreaterOrEqual(t, s.Height, 1.2)
		assert.LessOrEqual(t, s.Height, 1.8)
		assert.GreaterOrEqual(t, s.RelativeVelocity, 0.2)
		assert.LessOrEqual(t, s.RelativeVelocity, 1.0)
		assert.Contains(t, []string{"slow", "normal"}, s.Style)
	}
}

func TestGeneratorIsIndependentOfWorkers(t *testing.T) {
	t.Parallel()

	cfg := loadConfig(t, "")

	run := func(workers int) []*storage.Sample {
		store := &memStore{}
		_, err := NewGenerator(cfg, store, WithWorkers(workers)).Run(context.Background(), 6)
		require.NoError(t, err)
		return store.samples()
	}

	serial := run(1)
	parallel := run(4)

	ignore := cmpopts.IgnoreFields(storage.Sample{}, "ID", "RunID")
	if diff := cmp.Diff(serial, parallel, ignore); diff != "" {
		t.Errorf("samples differ between worker counts (-serial +parallel):\n%s", diff)
	}
}

func TestGeneratorSqueezeRange(t *testing.T) {
	t.Parallel()

	cfg := loadConfig(t, "  squeezeRange: true\n")
	store := &memStore{}

	_, err := NewGenerator(cfg, store).Run(context.Background(), 2)
	require.NoError(t, err)
	assert.True(t, store.runs[0].SqueezeRange)

	for _, s := range store.samples() {
		assert.True(t, s.Squeezed)
		assert.Equal(t, 1, s.Bins)
		assert.Equal(t, []int{50}, s.Shape())
		assert.Len(t, s.Data, 50)
	}
}

func TestGeneratorSkipsRejectedDraws(t *testing.T) {
	t.Parallel()

	cfg := loadConfig(t, "  maxRedraws: 0\n")
	model := pickyModel{Model: gait.NewBoulic(), maxHeight: 1.5}
	store := &memStore{}

	summary, err := NewGenerator(cfg, store, WithModel(model), WithWorkers(2)).
		Run(context.Background(), 20)
	require.NoError(t, err)

	samples := store.samples()
	assert.Equal(t, 20, summary.Stored+summary.Skipped)
	assert.Len(t, samples, summary.Stored)
	assert.Equal(t, summary.Skipped, summary.Redraws)

	last := -1
	for _, s := range samples {
		assert.LessOrEqual(t, s.Height, 1.5)
		assert.Greater(t, s.Index, last)
		last = s.Index
	}
}

func TestGeneratorRedrawsRejectedDraws(t *testing.T) {
	t.Parallel()

	cfg := loadConfig(t, "")
	model := pickyModel{Model: gait.NewBoulic(), maxHeight: 1.5}
	store := &memStore{}

	summary, err := NewGenerator(cfg, store, WithModel(model), WithMaxRedraws(60)).
		Run(context.Background(), 20)
	require.NoError(t, err)

	assert.Equal(t, 20, summary.Stored)
	assert.Zero(t, summary.Skipped)
	assert.Positive(t, summary.Redraws)
	for _, s := range store.samples() {
		assert.LessOrEqual(t, s.Height, 1.5)
	}
}

func TestGeneratorFatalErrors(t *testing.T) {
	t.Parallel()

	t.Run("model", func(t *testing.T) {
		_, err := NewGenerator(loadConfig(t, ""), &memStore{}, WithModel(brokenModel{})).
			Run(context.Background(), 4)
		assert.ErrorContains(t, err, "model exploded")
	})

	t.Run("store", func(t *testing.T) {
		boom := errors.New("disk full")
		_, err := NewGenerator(loadConfig(t, ""), &memStore{err: boom}).Run(context.Background(), 4)
		assert.ErrorIs(t, err, boom)
	})
}

func TestGeneratorLogsRejectedInserts(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	store := &memStore{}
	g := NewGenerator(loadConfig(t, ""), store, WithLogger(logger))

	buffer, err := NewSampleBuffer(0, 9, 3)
	require.NoError(t, err)

	results := make(chan result, 1)
	results <- result{index: 1, sample: &Sample{Index: 2}}
	close(results)

	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)

	summary := &Summary{}
	require.NoError(t, g.handleResults(ctx, "run", results, buffer, summary, cancel))

	assert.Contains(t, logs.String(), "buffering sample")
	assert.Contains(t, logs.String(), "index=1")
	assert.Zero(t, summary.Stored)
	assert.Empty(t, store.samples())
}

func TestGeneratorCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := &memStore{}
	summary, err := NewGenerator(loadConfig(t, ""), store, WithWorkers(2)).Run(ctx, 50)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)
	assert.Less(t, summary.Stored, 50)
	assert.Len(t, store.samples(), summary.Stored)
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "sample_dataset")
	summary, err := Generate(context.Background(), loadConfig(t, "  squeezeRange: true\n"), 3, dir)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Stored)

	assert.FileExists(t, filepath.Join(dir, storage.ConfigurationFile))
	for _, name := range []string{"sample1.npy", "sample2.npy", "sample3.npy"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	c, err := config.LoadConfig(filepath.Join(dir, storage.ConfigurationFile))
	require.NoError(t, err)
	assert.Equal(t, uint64(1234), c.Dataset.Seed)
}
