package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/roman-kulish/gait-radar/internal/config"
	"github.com/roman-kulish/gait-radar/internal/gait"
	"github.com/roman-kulish/gait-radar/internal/radar"
	"github.com/roman-kulish/gait-radar/internal/render"
	"github.com/roman-kulish/gait-radar/internal/spectrum"
	"github.com/roman-kulish/gait-radar/internal/storage"
)

const (
	TraceFile       = "trace.npy"
	RangeTimeFile   = "range_time.png"
	SpectrogramFile = "spectrogram.png"
	ChartFile       = "spectrogram.html"
	RangesFile      = "ranges.png"
	SkeletonFile    = "skeleton.png"

	skeletonSnapshots = 4
)

// trace is one simulated walk.
type trace struct {
	params   gait.Params
	skeleton *gait.Skeleton
	traj     *gait.Trajectory
	matrix   *radar.ReturnMatrix
}

// Run simulates a single walk drawn from the configuration and writes the
// return matrix and its figures into the output directory.
func Run(ctx context.Context, c *Config, logger *slog.Logger) error {
	cfg, err := config.LoadConfig(c.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration file '%s': %w", c.ConfigPath, err)
	}

	seed := cfg.Dataset.Seed
	if c.Seed != nil {
		seed = *c.Seed
	}

	tr, err := simulate(cfg, seed, logger)
	if err != nil {
		return err
	}

	logger.Info("simulated walk",
		slog.Group("figure",
			slog.Float64("height", tr.params.Height),
			slog.Float64("rv", tr.params.RelativeVelocity),
			slog.String("style", string(tr.skeleton.Cycle.Style)),
		),
		slog.Group("matrix",
			slog.Int("bins", tr.matrix.Bins()),
			slog.Int("samples", tr.matrix.Samples()),
			slog.Float64("rangeMin", tr.matrix.RangeMin),
		))

	if err = os.MkdirAll(c.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	steps := []struct {
		msg  string
		file string
		fn   func(path string) error
	}{
		{"writing trace", TraceFile, tr.writeTrace},
		{"rendering range-time map", RangeTimeFile, func(path string) error {
			return render.RenderFile(path, render.FromReturnMatrix(tr.matrix), render.ImagePNG, render.RenderConfig{ColorTheme: c.Theme})
		}},
		{"rendering spectrogram", SpectrogramFile, func(path string) error {
			hm, err := tr.spectrogram(c.Velocity)
			if err != nil {
				return err
			}
			return render.RenderFile(path, hm, render.ImagePNG, render.RenderConfig{ColorTheme: c.Theme})
		}},
		{"writing spectrogram chart", ChartFile, func(path string) error {
			hm, err := tr.spectrogram(c.Velocity)
			if err != nil {
				return err
			}
			return writeChart(path, hm, c.Theme)
		}},
		{"plotting ranges", RangesFile, func(path string) error {
			p, err := render.RangePlot(tr.traj, cfg.Simulator.BodyParts.Weights.Included())
			if err != nil {
				return err
			}
			return render.SavePlot(p, path)
		}},
		{"plotting skeleton", SkeletonFile, func(path string) error {
			p, err := render.SkeletonPlot(tr.skeleton, snapshots(tr.skeleton.Samples(), skeletonSnapshots)...)
			if err != nil {
				return err
			}
			return render.SavePlot(p, path)
		}},
	}

	for _, step := range steps {
		if err = ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(c.OutputDir, step.file)
		if err = step.fn(path); err != nil {
			return fmt.Errorf("%s: %w", step.msg, err)
		}
		logger.Info(step.msg, slog.String("path", path))
	}

	return nil
}

func simulate(cfg *config.Config, seed uint64, logger *slog.Logger) (*trace, error) {
	params := cfg.Draw(rand.NewPCG(seed, 0))

	skeleton, lengths, err := gait.NewBoulic().Skeleton(params)
	if err != nil {
		return nil, fmt.Errorf("generating walk: %w", err)
	}
	traj := skeleton.Segments()

	m, err := radar.NewSynthesizer(radar.WithLogger(logger)).Simulate(traj, lengths, cfg.Radar())
	if err != nil {
		return nil, fmt.Errorf("simulating radar return: %w", err)
	}

	return &trace{params: params, skeleton: skeleton, traj: traj, matrix: m}, nil
}

func (tr *trace) writeTrace(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return storage.WriteNPY(f, []int{tr.matrix.Bins(), tr.matrix.Samples()}, tr.matrix.Data())
}

func (tr *trace) spectrogram(velocity bool) (*render.Heatmap, error) {
	profile := spectrum.Profile(tr.matrix)
	s, err := spectrum.NewTransform().Fit(len(profile)).Compute(profile, tr.matrix.SamplingRate)
	if err != nil {
		return nil, err
	}
	if velocity {
		return render.FromVelocitySpectrogram(s, tr.matrix.Wavelength), nil
	}
	return render.FromSpectrogram(s), nil
}

func writeChart(path string, hm *render.Heatmap, theme render.ColorTheme) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return render.WriteChart(f, hm, render.ChartConfig{ColorTheme: theme})
}

// snapshots spreads n sample indexes evenly over a walk of the given length.
func snapshots(samples, n int) []int {
	n = max(1, min(n, samples))
	out := make([]int, n)
	for i := range out {
		out[i] = i * samples / n
	}
	return out
}
