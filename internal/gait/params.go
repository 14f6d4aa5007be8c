package gait

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roman-kulish/gait-radar/internal/body"
)

const (
	// MaxRelativeVelocity is the fastest walk the model is calibrated for,
	// in leg heights per second.
	MaxRelativeVelocity = 3.0

	// StyleAuto selects the style from the relative velocity.
	StyleAuto   Style = ""
	StyleSlow   Style = "slow"
	StyleNormal Style = "normal"
	StyleFast   Style = "fast"
)

var validStyles = map[Style]struct{}{
	StyleAuto:   {},
	StyleSlow:   {},
	StyleNormal: {},
	StyleFast:   {},
}

// Style selects the family of joint curves. Boulic calibrates three of them
// against relative velocity: slow below 0.5, normal below 1.3, fast above.
type Style string

func (s Style) String() string {
	if s == StyleAuto {
		return "auto"
	}
	return string(s)
}

// StyleFor returns the gait style matching the relative velocity rv.
func StyleFor(rv float64) (Style, error) {
	switch {
	case rv <= 0 || math.IsNaN(rv):
		return "", body.NewParameterError("rv", rv, "must be positive")
	case rv < 0.5:
		return StyleSlow, nil
	case rv < 1.3:
		return StyleNormal, nil
	case rv <= MaxRelativeVelocity:
		return StyleFast, nil
	default:
		return "", body.NewParameterError("rv", rv, fmt.Sprintf("must not exceed %g", MaxRelativeVelocity))
	}
}

// Params describes a single walking figure and how it is sampled.
type Params struct {
	Height           float64 `json:"height" yaml:"height"`                   // Body height in meters
	RelativeVelocity float64 `json:"rv" yaml:"rv"`                           // Walking speed in leg heights per second
	ForwardMotion    bool    `json:"forwardMotion" yaml:"forward_motion"`    // Advance along +x, otherwise walk in place
	SamplingRate     float64 `json:"fs" yaml:"fs"`                           // Samples per second
	Duration         float64 `json:"duration" yaml:"duration"`               // Seconds
	RadarLocation    r3.Vec  `json:"radarLocation" yaml:"radarloc"`          // Carried with the trajectory, never applied
	Style            Style   `json:"style,omitempty" yaml:"style,omitempty"` // Empty selects from rv
}

// SampleCount is the number of trajectory samples, round(fs*duration).
func (p Params) SampleCount() int {
	return int(math.Round(p.SamplingRate * p.Duration))
}

// Validate checks every parameter against the domain the model supports.
func (p Params) Validate() error {
	checks := []struct {
		name  string
		value float64
	}{
		{"height", p.Height},
		{"rv", p.RelativeVelocity},
		{"fs", p.SamplingRate},
		{"duration", p.Duration},
	}
	for _, c := range checks {
		if c.value <= 0 || math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return body.NewParameterError(c.name, c.value, "must be positive")
		}
	}
	if p.RelativeVelocity > MaxRelativeVelocity {
		return body.NewParameterError("rv", p.RelativeVelocity, fmt.Sprintf("must not exceed %g", MaxRelativeVelocity))
	}
	if p.SampleCount() < 1 {
		return body.NewParameterError("duration", p.Duration, "yields no samples at the given sampling rate")
	}
	for _, v := range []float64{p.RadarLocation.X, p.RadarLocation.Y, p.RadarLocation.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return body.NewParameterError("radarloc", v, "must be finite")
		}
	}
	if _, ok := validStyles[p.Style]; !ok {
		return fmt.Errorf("%w: unknown gait style %q", body.ErrInvalidParameter, p.Style)
	}
	return nil
}

// Cycle holds the spatial and temporal characteristics of one gait cycle.
type Cycle struct {
	Style        Style
	Length       float64 // Stride length in meters
	Period       float64 // Cycle duration in seconds
	SupportRatio float64 // Fraction of the cycle a foot is on the ground
	Speed        float64 // Meters per second
}

// NewCycle derives the gait cycle for relative velocity rv and a leg of
// height legHeight. An empty style is selected from rv.
func NewCycle(rv, legHeight float64, style Style) (Cycle, error) {
	auto, err := StyleFor(rv)
	if err != nil {
		return Cycle{}, err
	}
	if legHeight <= 0 {
		return Cycle{}, body.NewParameterError("legHeight", legHeight, "must be positive")
	}
	if style == StyleAuto {
		style = auto
	}

	length := 1.346 * math.Sqrt(rv)
	relDuration := length / rv
	support := 0.752*relDuration - 0.143

	return Cycle{
		Style:        style,
		Length:       length,
		Period:       length / (rv * legHeight),
		SupportRatio: support / relDuration,
		Speed:        rv * legHeight,
	}, nil
}

// Phase returns the position within the cycle, in [0, 1), at time t.
func (c Cycle) Phase(t float64) float64 {
	return wrapPhase(t / c.Period)
}
