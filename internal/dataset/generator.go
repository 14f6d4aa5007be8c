package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/roman-kulish/gait-radar/internal/body"
	"github.com/roman-kulish/gait-radar/internal/config"
	"github.com/roman-kulish/gait-radar/internal/gait"
	"github.com/roman-kulish/gait-radar/internal/radar"
	"github.com/roman-kulish/gait-radar/internal/spectrum"
	"github.com/roman-kulish/gait-radar/internal/storage"
)

const (
	maxBatchSize = 100

	// bufferBatches is the re-order buffer capacity in batches.
	bufferBatches = 4
)

// ErrSkipped is reported for a sample whose draws were all rejected.
var ErrSkipped = errors.New("sample skipped")

// WithMaxBatchSize sets the maximum batch size of generated samples to store
// within a single call to the store.
func WithMaxBatchSize(size int) func(*Generator) {
	return func(g *Generator) {
		g.maxBatchSize = size
	}
}

// WithWorkers sets the number of samples simulated concurrently.
func WithWorkers(n int) func(*Generator) {
	return func(g *Generator) {
		g.workers = n
	}
}

// WithMaxRedraws sets how many times a rejected draw is replaced before the
// sample is skipped.
func WithMaxRedraws(n int) func(*Generator) {
	return func(g *Generator) {
		g.maxRedraws = n
	}
}

// WithModel sets the gait model used to animate every figure.
func WithModel(m gait.Model) func(*Generator) {
	return func(g *Generator) {
		g.model = m
	}
}

// WithLogger sets the logger to use for the generator
func WithLogger(logger *slog.Logger) func(*Generator) {
	return func(g *Generator) {
		g.logger = logger
	}
}

// Summary reports the outcome of a run.
type Summary struct {
	RunID     string
	Requested int
	Stored    int
	Skipped   int
	Redraws   int
	Bytes     uint64 // Sample payload handed to the store
	Elapsed   time.Duration
}

// Generator draws figures from the configuration, simulates their radar
// return on a pool of workers and stores the samples in index order.
type Generator struct {
	cfg   *config.Config
	store storage.Store

	model       gait.Model
	synthesizer *radar.Synthesizer
	logger      *slog.Logger

	maxBatchSize int
	workers      int
	maxRedraws   int
}

// NewGenerator creates a new Generator. Worker count, batch size and redraw
// limit default to the dataset section of cfg.
func NewGenerator(cfg *config.Config, store storage.Store, options ...func(*Generator)) *Generator {
	g := Generator{
		cfg:          cfg,
		store:        store,
		model:        gait.NewBoulic(),
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxBatchSize: cfg.Dataset.MaxBatchSize,
		workers:      cfg.Dataset.Workers,
		maxRedraws:   cfg.Dataset.Redraws(),
	}

	for _, option := range options {
		option(&g)
	}

	if g.maxBatchSize <= 0 {
		g.maxBatchSize = maxBatchSize
	}
	g.workers = max(g.workers, 1)
	g.maxRedraws = max(g.maxRedraws, 0)
	g.synthesizer = radar.NewSynthesizer(radar.WithLogger(g.logger))

	return &g
}

type result struct {
	index  int
	sample *Sample
	err    error
}

// Run generates n samples, or the configured number when n is not positive.
// Cancelling ctx stops new samples from being started; every sample already
// simulated is still stored.
func (g *Generator) Run(ctx context.Context, n int) (*Summary, error) {
	if n <= 0 {
		n = g.cfg.Dataset.Samples
	}
	if n <= 0 {
		return nil, fmt.Errorf("no samples to generate")
	}

	started := time.Now()
	run := &storage.Run{
		ID:           uuid.NewString(),
		StartTime:    started.UTC(),
		Seed:         g.cfg.Dataset.Seed,
		Samples:      n,
		SqueezeRange: g.cfg.Dataset.SqueezeRange,
	}
	if err := g.store.CreateRun(ctx, run, g.cfg); err != nil {
		return nil, fmt.Errorf("creating run: %w", err)
	}

	buffer, err := NewSampleBuffer(0, g.maxBatchSize*bufferBatches, g.maxBatchSize)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	jobs := make(chan int)
	results := make(chan result, g.workers)

	go func() {
		defer close(jobs)
		for i := 0; i < n; i++ {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for w := 0; w < g.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				s, err := g.generate(i)
				results <- result{index: i, sample: s, err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	summary := &Summary{RunID: run.ID, Requested: n}
	storeErr := g.handleResults(context.WithoutCancel(ctx), run.ID, results, buffer, summary, cancel)

	summary.Elapsed = time.Since(started)
	g.logger.Info("dataset run finished",
		slog.String("run", run.ID),
		slog.String("stored", humanize.Comma(int64(summary.Stored))),
		slog.String("skipped", humanize.Comma(int64(summary.Skipped))),
		slog.Int("redraws", summary.Redraws),
		slog.String("size", humanize.Bytes(summary.Bytes)),
		slog.Duration("elapsed", summary.Elapsed))

	if storeErr != nil {
		return summary, storeErr
	}
	if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
		return summary, cause
	}
	return summary, ctx.Err()
}

// handleResults re-orders results and stores them in batches. It returns the
// first store error; fatal simulation errors cancel the run through cancel.
func (g *Generator) handleResults(ctx context.Context, runID string, results <-chan result, buffer *SampleBuffer,
	summary *Summary, cancel context.CancelCauseFunc) error {
	var storeErr error

	store := func(samples []*Sample) {
		if storeErr != nil || len(samples) == 0 {
			return
		}
		if err := g.storeSamples(ctx, runID, samples, summary); err != nil {
			storeErr = err
			cancel(err)
		}
	}

	insert := func(index int, s *Sample) {
		if err := buffer.Insert(index, s); err != nil {
			g.logger.Error("buffering sample", slog.Int("index", index), slog.String("error", err.Error()))
			return
		}
		g.logger.Debug("buffered sample", slog.Int("index", index), slog.Int("buffered", buffer.Size()))
	}

	for r := range results {
		switch {
		case r.err == nil:
			summary.Redraws += r.sample.Redraws
			insert(r.index, r.sample)

		case errors.Is(r.err, ErrSkipped):
			summary.Skipped++
			summary.Redraws += g.maxRedraws + 1
			g.logger.Warn("sample skipped", slog.Int("index", r.index), slog.String("reason", r.err.Error()))
			insert(r.index, nil)

		default:
			g.logger.Error(r.err.Error(), slog.Int("index", r.index))
			cancel(r.err) // signal to other goroutines about fatal
			continue
		}

		for buffer.Ready() >= g.maxBatchSize || buffer.IsFull() {
			batch := buffer.Flush()
			if batch == nil {
				break
			}
			store(batch)
		}
	}

	for batch := buffer.Flush(); batch != nil; batch = buffer.Flush() {
		store(batch)
	}
	store(buffer.DrainAll())

	return storeErr
}

func (g *Generator) storeSamples(ctx context.Context, runID string, samples []*Sample, summary *Summary) error {
	data := make([]*storage.Sample, len(samples))
	for i, s := range samples {
		data[i] = toStorageSample(runID, s)
		summary.Bytes += uint64(len(data[i].Data) * 16)
	}

	for chunk := range slices.Chunk(data, g.maxBatchSize) {
		if err := g.store.StoreSamples(ctx, chunk); err != nil {
			return fmt.Errorf("storing samples: %w", err)
		}
		summary.Stored += len(chunk)
		g.logger.Debug("stored samples",
			slog.Int("first", chunk[0].Index),
			slog.Int("count", len(chunk)))
	}
	return nil
}

// generate simulates sample i. Every index owns a random stream derived from
// the run seed, so the output does not depend on scheduling. Draws the model
// rejects are replaced up to the redraw limit.
func (g *Generator) generate(i int) (*Sample, error) {
	src := rand.NewPCG(g.cfg.Dataset.Seed, uint64(i))
	radarCfg := g.cfg.Radar()

	var lastErr error
	for attempt := 0; attempt <= g.maxRedraws; attempt++ {
		params := g.cfg.Draw(src)

		s, err := g.simulate(params, radarCfg)
		if err == nil {
			s.Index = i
			s.Redraws = attempt
			return s, nil
		}
		if !errors.Is(err, body.ErrInvalidParameter) && !errors.Is(err, radar.ErrInvalidGeometry) {
			return nil, fmt.Errorf("simulating sample %d: %w", i, err)
		}

		g.logger.Debug("redrawing sample",
			slog.Int("index", i),
			slog.Int("attempt", attempt),
			slog.Float64("height", params.Height),
			slog.Float64("rv", params.RelativeVelocity),
			slog.String("reason", err.Error()))
		lastErr = err
	}

	return nil, fmt.Errorf("%w: index %d after %d draws: %w", ErrSkipped, i, g.maxRedraws+1, lastErr)
}

func (g *Generator) simulate(params gait.Params, radarCfg radar.Config) (*Sample, error) {
	traj, lengths, err := g.model.Generate(params)
	if err != nil {
		return nil, err
	}

	m, err := g.synthesizer.Simulate(traj, lengths, radarCfg)
	if err != nil {
		return nil, err
	}

	style := params.Style
	if style == gait.StyleAuto {
		if style, err = gait.StyleFor(params.RelativeVelocity); err != nil {
			return nil, err
		}
	}

	s := &Sample{
		ID:     uuid.New(),
		Params: params,
		Style:  style,
		Matrix: m,
	}

	if g.cfg.Dataset.SqueezeRange {
		if s.Profile, err = spectrum.Normalize(spectrum.Profile(m)); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Generate writes n samples drawn from cfg as NumPy files into dir.
func Generate(ctx context.Context, cfg *config.Config, n int, dir string, options ...func(*Generator)) (summary *Summary, err error) {
	store := storage.NewDirectoryStore(dir)
	defer func() {
		err = errors.Join(err, store.Close())
	}()

	return NewGenerator(cfg, store, options...).Run(ctx, n)
}
