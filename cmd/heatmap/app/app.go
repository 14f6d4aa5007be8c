package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/roman-kulish/gait-radar/internal/radar"
	"github.com/roman-kulish/gait-radar/internal/render"
	"github.com/roman-kulish/gait-radar/internal/spectrum"
	"github.com/roman-kulish/gait-radar/internal/storage"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	if _, err := os.Stat(config.DBPath); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("database file '%s' does not exist: %w", config.DBPath, err)
	}

	store := storage.NewSqliteStore(config.DBPath)
	defer store.Close()

	sample, err := readSample(ctx, store, config, logger)
	if err != nil {
		return err
	}

	hm, err := heatmap(sample, config)
	if err != nil {
		return fmt.Errorf("preparing heatmap: %w", err)
	}

	bounds := hm.Bounds()
	logger.Info("rendering heatmap",
		slog.Group("image",
			slog.String("destination", config.OutputFile),
			slog.String("format", string(config.Format)),
			slog.String("theme", string(config.Theme)),
			slog.Int("width", hm.Width()),
			slog.Int("height", hm.Height()),
			slog.String("minPower", fmt.Sprintf("%0.2fdB", bounds.Min)),
			slog.String("maxPower", fmt.Sprintf("%0.2fdB", bounds.Max)),
		))

	err = render.RenderFile(config.OutputFile, hm, config.Format, render.RenderConfig{
		ColorTheme:    config.Theme,
		NoAnnotations: config.NoAnnotations,
	})
	if err != nil {
		return err
	}

	if config.HTML {
		if err = writeChart(config.ChartFile(), hm, config.Theme); err != nil {
			return fmt.Errorf("writing chart: %w", err)
		}
		logger.Info("wrote chart", slog.String("destination", config.ChartFile()))
	}
	return nil
}

func readSample(ctx context.Context, store *storage.SqliteStore, config *Config, logger *slog.Logger) (*storage.Sample, error) {
	runID := config.RunID
	if runID == "" {
		runs, err := store.Runs(ctx)
		if err != nil {
			return nil, err
		}
		if len(runs) == 0 {
			return nil, errors.New("database holds no runs")
		}
		runID = runs[len(runs)-1].ID
	}

	iter, err := store.ReadSamples(ctx, runID, storage.WithIndexRange(config.Index, config.Index))
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	if !iter.Next(ctx) {
		if err = iter.Error(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("run %s has no sample %d", runID, config.Index)
	}
	s := iter.Current()

	logger.Info("read sample",
		slog.String("run", runID),
		slog.Int("index", s.Index),
		slog.Float64("height", s.Height),
		slog.Float64("rv", s.RelativeVelocity),
		slog.String("style", s.Style),
		slog.Bool("squeezed", s.Squeezed))

	return s, nil
}

// heatmap lays out a stored sample. Squeezed samples only carry the slow-time
// profile, so they are always shown as a spectrogram.
func heatmap(s *storage.Sample, config *Config) (*render.Heatmap, error) {
	var profile []complex128
	if s.Squeezed {
		profile = s.Data
	} else {
		m, err := radar.NewReturnMatrix(s.Bins, s.TimeSamples, s.Data, s.RangeMin, s.RangeResolution, s.SamplingRate, s.Wavelength)
		if err != nil {
			return nil, err
		}
		if !config.Doppler {
			hm := render.FromReturnMatrix(m)
			hm.Title = fmt.Sprintf("%s, sample %d", hm.Title, s.Index)
			return hm, nil
		}
		profile = spectrum.Profile(m)
	}

	sg, err := spectrum.NewTransform().Fit(len(profile)).Compute(profile, s.SamplingRate)
	if err != nil {
		return nil, err
	}

	var hm *render.Heatmap
	if config.Velocity {
		hm = render.FromVelocitySpectrogram(sg, s.Wavelength)
	} else {
		hm = render.FromSpectrogram(sg)
	}
	hm.Title = fmt.Sprintf("%s, sample %d", hm.Title, s.Index)
	return hm, nil
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
