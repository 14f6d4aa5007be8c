// Package radar synthesizes the coherent range-time return of a walking
// figure seen by a monostatic radar.
package radar

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roman-kulish/gait-radar/internal/body"
	"github.com/roman-kulish/gait-radar/internal/gait"
	"github.com/roman-kulish/gait-radar/internal/scatterer"
)

// ErrInvalidGeometry is returned when a scatterer coincides with the radar.
var ErrInvalidGeometry = errors.New("invalid geometry")

// WithLogger sets the logger to use for the synthesizer
func WithLogger(logger *slog.Logger) func(*Synthesizer) {
	return func(s *Synthesizer) {
		s.logger = logger
	}
}

// Synthesizer sums the phase-delayed returns of every scatterer into range
// bins, one column per trajectory sample.
type Synthesizer struct {
	logger *slog.Logger
}

// NewSynthesizer creates a new Synthesizer
func NewSynthesizer(options ...func(*Synthesizer)) *Synthesizer {
	s := Synthesizer{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, option := range options {
		option(&s)
	}
	return &s
}

// Simulate synthesizes the return of traj with the default synthesizer.
func Simulate(traj *gait.Trajectory, lengths body.Lengths, cfg Config) (*ReturnMatrix, error) {
	return NewSynthesizer().Simulate(traj, lengths, cfg)
}

// Simulate assembles the configured scatterers from traj and synthesizes
// their return. The range axis spans every part of the trajectory, so
// switching a part off never moves the bins of the others.
func (s *Synthesizer) Simulate(traj *gait.Trajectory, lengths body.Lengths, cfg Config) (*ReturnMatrix, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	set, err := scatterer.Assemble(traj, lengths, cfg.BodyParts)
	if err != nil {
		return nil, err
	}

	rMin, rMax := rangeEnvelope(traj, cfg.Location)
	if math.IsInf(rMin, 0) || math.IsNaN(rMin) || math.IsInf(rMax, 0) || math.IsNaN(rMax) {
		return nil, fmt.Errorf("%w: range envelope [%g, %g] is not finite", ErrInvalidGeometry, rMin, rMax)
	}

	bins := int(math.Ceil((rMax-rMin)/cfg.RangeResolution)) + 1
	samples := set.Samples()
	data := make([]complex128, bins*samples)

	amplitude := amplitudeFunc(cfg.Amplitude)
	for i := range set.Scatterers {
		sc := &set.Scatterers[i]
		for k := 0; k < samples; k++ {
			pos := sc.Position(k)
			r := r3.Norm(r3.Sub(pos, cfg.Location))
			if r == 0 {
				return nil, fmt.Errorf("%w: %s coincides with the radar at sample %d", ErrInvalidGeometry, sc.Part, k)
			}

			amp := sc.Weight * amplitude(sc, pos, sc.Axis(k), cfg.Location)
			if cfg.RangeAttenuation {
				amp /= r * r
			}

			bin := int(math.Floor((r - rMin) / cfg.RangeResolution))
			if bin < 0 || bin >= bins {
				return nil, fmt.Errorf("%w: %s at range %g falls outside bins [0, %d] at sample %d",
					ErrInvalidGeometry, sc.Part, r, bins-1, k)
			}
			data[bin*samples+k] += cmplx.Rect(amp, -4*math.Pi*r/cfg.Wavelength)
		}
	}

	s.logger.Debug("synthesized radar return",
		slog.Int("bins", bins),
		slog.Int("samples", samples),
		slog.Int("scatterers", len(set.Scatterers)),
		slog.Float64("rangeMin", rMin),
		slog.Float64("rangeMax", rMax))

	return NewReturnMatrix(bins, samples, data, rMin, cfg.RangeResolution, traj.SamplingRate, cfg.Wavelength)
}

// rangeEnvelope returns the nearest and farthest range of any part over the
// whole trajectory.
func rangeEnvelope(traj *gait.Trajectory, radar r3.Vec) (rMin, rMax float64) {
	rMin, rMax = math.Inf(1), math.Inf(-1)
	for _, p := range traj.Parts() {
		for k := 0; k < traj.Samples(); k++ {
			r := r3.Norm(r3.Sub(traj.Position(p, k), radar))
			rMin = min(rMin, r)
			rMax = max(rMax, r)
		}
	}
	return rMin, rMax
}

type amplitudeFn func(sc *scatterer.Scatterer, pos, axis, radar r3.Vec) float64

func amplitudeFunc(m AmplitudeModel) amplitudeFn {
	switch m {
	case AmplitudeEllipsoid:
		return ellipsoidAmplitude
	default:
		return func(*scatterer.Scatterer, r3.Vec, r3.Vec, r3.Vec) float64 { return 1 }
	}
}

// ellipsoidAmplitude is the square root of the monostatic cross-section of a
// prolate ellipsoid with semi-axes (girth, girth, length/2) aligned with the
// segment axis. Parts without a known girth or orientation keep unit
// amplitude.
func ellipsoidAmplitude(sc *scatterer.Scatterer, pos, axis, radar r3.Vec) float64 {
	if sc.Girth == 0 || sc.Length == 0 {
		return 1
	}

	los := r3.Sub(radar, pos)
	var theta float64
	if n := r3.Norm(los) * r3.Norm(axis); n > 0 {
		theta = math.Acos(math.Max(-1, math.Min(1, r3.Dot(los, axis)/n)))
	}

	var phi float64
	if h := math.Hypot(los.X, los.Y); h > 0 {
		phi = math.Asin(los.Y / h)
	}

	return math.Sqrt(ellipsoidRCS(sc.Girth, sc.Girth, sc.Length/2, phi, theta))
}

func ellipsoidRCS(a, b, c, phi, theta float64) float64 {
	st, ct := math.Sincos(theta)
	sp, cp := math.Sincos(phi)

	den := a*a*st*st*cp*cp + b*b*st*st*sp*sp + c*c*ct*ct
	return math.Pi * a * a * b * b * c * c / (den * den)
}
