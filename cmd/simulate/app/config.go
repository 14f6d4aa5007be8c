package app

import (
	"errors"
	"flag"
	"os"

	"github.com/roman-kulish/gait-radar/internal/render"
)

// Config holds the command line options.
type Config struct {
	ConfigPath string
	OutputDir  string
	Seed       *uint64 // Overrides dataset.seed when set
	Theme      render.ColorTheme
	Velocity   bool // Label the spectrogram with radial velocity instead of Doppler
}

func NewConfigFromCLI() (*Config, error) {
	return parseFlags(flag.CommandLine, os.Args[1:])
}

func parseFlags(fs *flag.FlagSet, args []string) (*Config, error) {
	c := &Config{}

	var seed uint64
	var theme string
	fs.StringVar(&c.ConfigPath, "c", "", "Path to the configuration file")
	fs.StringVar(&c.OutputDir, "o", "", "Directory to write the trace and figures into")
	fs.Uint64Var(&seed, "seed", 0, "Seed of the height and velocity draw (defaults to dataset.seed)")
	fs.StringVar(&theme, "theme", string(render.DefaultTheme), "Heatmap color theme")
	fs.BoolVar(&c.Velocity, "velocity", false, "Label the spectrogram with radial velocity")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			c.Seed = &seed
		}
	})

	var err error
	if c.ConfigPath == "" {
		err = errors.New("configuration file is required")
	} else if c.OutputDir == "" {
		err = errors.New("output directory is required")
	} else {
		c.Theme, err = render.ParseColorTheme(theme)
	}

	if err != nil {
		fs.Usage()
		return nil, err
	}
	return c, nil
}
