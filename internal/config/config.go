// Package config loads the simulator and dataset configuration file.
package config

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"runtime"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/gait-radar/internal/gait"
	"github.com/roman-kulish/gait-radar/internal/radar"
)

const (
	defaultSamples      = 64
	defaultMaxBatchSize = 100
	defaultMaxRedraws   = 10
)

// Config represents the main application configuration
type Config struct {
	SamplingRate float64   `yaml:"fs" json:"fs"`
	Simulator    Simulator `yaml:"simulator" json:"simulator"`
	Dataset      Dataset   `yaml:"dataset" json:"dataset"`
	Storage      Storage   `yaml:"storage" json:"storage"`
	Settings     Settings  `yaml:"settings" json:"settings"`
}

// Simulator describes the walking figure and the radar observing it.
type Simulator struct {
	ForwardMotion    bool                 `yaml:"forward_motion" json:"forwardMotion"`
	Duration         float64              `yaml:"duration" json:"duration"`                            // Seconds
	Height           Value                `yaml:"height" json:"height"`                                // Meters, scalar or [min, max]
	RelativeVelocity Value                `yaml:"rv" json:"rv"`                                        // Leg heights per second, scalar or [min, max]
	RadarLocation    []float64            `yaml:"radarloc" json:"radarloc"`                            // x, y, z in meters
	Wavelength       float64              `yaml:"lambda_" json:"lambda"`                               // Meters
	RangeResolution  float64              `yaml:"rangeres" json:"rangeres"`                            // Meters
	BodyParts        BodyParts            `yaml:"body_parts" json:"bodyParts"`                         // Preset name or part weights
	Amplitude        radar.AmplitudeModel `yaml:"amplitude,omitempty" json:"amplitude"`                // unit or ellipsoid
	RangeAttenuation bool                 `yaml:"range_attenuation,omitempty" json:"rangeAttenuation"` // Divide amplitude by range squared
	Gait             gait.Style           `yaml:"gait,omitempty" json:"gait,omitempty"`                // Empty selects from rv
}

// Dataset represents batch generation settings
type Dataset struct {
	Samples      int    `yaml:"samples" json:"samples"`
	Seed         uint64 `yaml:"seed" json:"seed"`
	Workers      int    `yaml:"workers" json:"workers"`
	SqueezeRange bool   `yaml:"squeezeRange" json:"squeezeRange"`
	MaxBatchSize int    `yaml:"maxBatchSize" json:"maxBatchSize"`
	MaxRedraws   *int   `yaml:"maxRedraws" json:"maxRedraws"` // Zero skips a rejected draw outright
}

// Storage represents storage settings
type Storage struct {
	DataDirectory string `yaml:"dataDirectory,omitempty" json:"dataDirectory,omitempty"`
	Database      string `yaml:"database,omitempty" json:"database,omitempty"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel string `yaml:"logLevel,omitempty" json:"logLevel,omitempty"`
}

// LoadConfig reads, completes and validates the configuration file at path.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening configuration file: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode reads a configuration document from r. Unknown keys are rejected.
func Decode(r io.Reader) (*Config, error) {
	var c Config

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("config.Config: empty document")
		}
		return nil, fmt.Errorf("config.Config: %w", err)
	}

	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Simulator.BodyParts.IsZero() {
		c.Simulator.BodyParts, _ = Preset(PresetCompleteHuman)
	}
	if c.Simulator.Amplitude == "" {
		c.Simulator.Amplitude = radar.AmplitudeUnit
	}
	if c.Dataset.Samples == 0 {
		c.Dataset.Samples = defaultSamples
	}
	if c.Dataset.Workers == 0 {
		c.Dataset.Workers = runtime.NumCPU()
	}
	if c.Dataset.MaxBatchSize == 0 {
		c.Dataset.MaxBatchSize = defaultMaxBatchSize
	}
	if c.Dataset.MaxRedraws == nil {
		redraws := defaultMaxRedraws
		c.Dataset.MaxRedraws = &redraws
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = "info"
	}
}

// Validate checks the configuration. Both ends of every range must describe
// a figure the gait model accepts.
func (c *Config) Validate() error {
	s := &c.Simulator

	if len(s.RadarLocation) != 3 {
		return fmt.Errorf("config.Config: radarloc needs 3 coordinates, %d given", len(s.RadarLocation))
	}
	if err := s.Height.Validate(); err != nil {
		return fmt.Errorf("config.Config: height: %w", err)
	}
	if err := s.RelativeVelocity.Validate(); err != nil {
		return fmt.Errorf("config.Config: rv: %w", err)
	}
	for _, corner := range [][2]float64{
		{s.Height.Min, s.RelativeVelocity.Min},
		{s.Height.Max, s.RelativeVelocity.Max},
	} {
		if err := c.Params(corner[0], corner[1]).Validate(); err != nil {
			return fmt.Errorf("config.Config: %w", err)
		}
	}
	if err := c.Radar().Validate(); err != nil {
		return fmt.Errorf("config.Config: %w", err)
	}

	d := &c.Dataset
	switch {
	case d.Samples < 0:
		return fmt.Errorf("config.Config: dataset samples must not be negative: %d", d.Samples)
	case d.Workers < 0:
		return fmt.Errorf("config.Config: dataset workers must not be negative: %d", d.Workers)
	case d.MaxBatchSize < 0:
		return fmt.Errorf("config.Config: dataset max batch size must not be negative: %d", d.MaxBatchSize)
	case d.MaxRedraws != nil && *d.MaxRedraws < 0:
		return fmt.Errorf("config.Config: dataset max redraws must not be negative: %d", *d.MaxRedraws)
	}
	return nil
}

// Redraws returns how many times a rejected draw is replaced.
func (d Dataset) Redraws() int {
	if d.MaxRedraws == nil {
		return defaultMaxRedraws
	}
	return *d.MaxRedraws
}

// RadarLocation returns the configured radar position.
func (c *Config) RadarLocation() r3.Vec {
	if len(c.Simulator.RadarLocation) != 3 {
		return r3.Vec{}
	}
	loc := c.Simulator.RadarLocation
	return r3.Vec{X: loc[0], Y: loc[1], Z: loc[2]}
}

// Params returns the gait parameters for a figure of the given height and
// relative velocity.
func (c *Config) Params(height, rv float64) gait.Params {
	return gait.Params{
		Height:           height,
		RelativeVelocity: rv,
		ForwardMotion:    c.Simulator.ForwardMotion,
		SamplingRate:     c.SamplingRate,
		Duration:         c.Simulator.Duration,
		RadarLocation:    c.RadarLocation(),
		Style:            c.Simulator.Gait,
	}
}

// Draw draws a height and then a relative velocity from src.
func (c *Config) Draw(src rand.Source) gait.Params {
	height := c.Simulator.Height.Draw(src)
	rv := c.Simulator.RelativeVelocity.Draw(src)
	return c.Params(height, rv)
}

// Radar returns the radar configuration.
func (c *Config) Radar() radar.Config {
	return radar.Config{
		Wavelength:       c.Simulator.Wavelength,
		RangeResolution:  c.Simulator.RangeResolution,
		Location:         c.RadarLocation(),
		BodyParts:        c.Simulator.BodyParts.Weights.Clone(),
		Amplitude:        c.Simulator.Amplitude,
		RangeAttenuation: c.Simulator.RangeAttenuation,
	}
}

