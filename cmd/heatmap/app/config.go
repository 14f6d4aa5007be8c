package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roman-kulish/gait-radar/internal/render"
)

type Config struct {
	DBPath        string
	RunID         string // Empty selects the most recent run
	Index         int
	OutputFile    string
	Format        render.ImageFormat
	Theme         render.ColorTheme
	Doppler       bool
	Velocity      bool
	HTML          bool
	NoAnnotations bool
}

// ChartFile returns the path of the interactive chart next to the image.
func (c *Config) ChartFile() string {
	return strings.TrimSuffix(c.OutputFile, filepath.Ext(c.OutputFile)) + ".html"
}

func NewConfigFromCLI() (*Config, error) {
	return parseFlags(flag.CommandLine, os.Args[1:])
}

func parseFlags(fs *flag.FlagSet, args []string) (*Config, error) {
	c := &Config{}

	var imageFormat, theme string
	fs.StringVar(&c.DBPath, "db", "", "Path to the database file")
	fs.StringVar(&c.RunID, "r", "", "Run ID (defaults to the most recent run)")
	fs.IntVar(&c.Index, "i", 0, "Sample index within the run")
	fs.StringVar(&c.OutputFile, "o", "", "Path to the output file, without extension")
	fs.StringVar(&imageFormat, "f", string(render.ImagePNG), "Output image format. [png, jpeg]")
	fs.StringVar(&theme, "theme", string(render.DefaultTheme), "Color theme")
	fs.BoolVar(&c.Doppler, "doppler", false, "Render the micro-Doppler spectrogram instead of the range-time map")
	fs.BoolVar(&c.Velocity, "velocity", false, "Label the spectrogram with radial velocity")
	fs.BoolVar(&c.HTML, "html", false, "Also write an interactive HTML chart")
	fs.BoolVar(&c.NoAnnotations, "no-annotations", false, "Disable annotations such as scales and the info bar")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	var err error
	if c.DBPath == "" {
		err = errors.New("db path is required")
	} else if c.Index < 0 {
		err = fmt.Errorf("sample index must not be negative: %d", c.Index)
	} else if c.OutputFile == "" {
		err = errors.New("output file is required")
	} else if c.Format, err = render.ParseImageFormat(imageFormat); err == nil {
		c.Theme, err = render.ParseColorTheme(theme)
	}

	if err != nil {
		fs.Usage()
		return nil, err
	}

	c.OutputFile = fmt.Sprintf("%s.%s", c.OutputFile, c.Format)
	return c, nil
}
