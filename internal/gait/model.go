package gait

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roman-kulish/gait-radar/internal/body"
)

// Model produces the trajectory of every body part of a walking figure.
type Model interface {
	Generate(p Params) (*Trajectory, body.Lengths, error)
}

// WithProportions replaces the anthropometric table used to size the figure.
func WithProportions(p body.Proportions) func(*Boulic) {
	return func(b *Boulic) {
		b.proportions = p
	}
}

// Boulic is the global human walking model of Boulic, Magnenat-Thalmann and
// Thalmann (1990): trunk oscillations and joint flexions are periodic
// functions of the gait cycle, normalised by leg height and relative velocity,
// applied to the skeleton root outward.
type Boulic struct {
	proportions body.Proportions
}

var _ Model = (*Boulic)(nil)

// NewBoulic creates a Boulic model with the standard proportions.
func NewBoulic(options ...func(*Boulic)) *Boulic {
	b := Boulic{proportions: body.StandardProportions()}
	for _, option := range options {
		option(&b)
	}
	return &b
}

// Skeleton samples every joint of the figure at t_k = k/fs.
func (b *Boulic) Skeleton(p Params) (*Skeleton, body.Lengths, error) {
	if err := p.Validate(); err != nil {
		return nil, nil, err
	}

	lengths, err := b.proportions.Derive(p.Height)
	if err != nil {
		return nil, nil, err
	}

	cycle, err := NewCycle(p.RelativeVelocity, lengths.LegHeight(), p.Style)
	if err != nil {
		return nil, nil, err
	}

	c, err := newCurves(p.RelativeVelocity, cycle)
	if err != nil {
		return nil, nil, fmt.Errorf("building %s gait curves: %w", cycle.Style, err)
	}

	s := &Skeleton{
		SamplingRate:  p.SamplingRate,
		RadarLocation: p.RadarLocation,
		Cycle:         cycle,
		poses:         make([]Pose, p.SampleCount()),
	}
	for k := range s.poses {
		t := float64(k) / p.SamplingRate
		pose := c.pose(lengths, cycle.Phase(t))
		if p.ForwardMotion {
			advance := r3.Vec{X: cycle.Speed * t}
			for j := range pose {
				pose[j] = r3.Add(pose[j], advance)
			}
		}
		s.poses[k] = pose
	}
	return s, lengths, nil
}

// Generate samples the figure and reduces it to one scatterer per body part.
func (b *Boulic) Generate(p Params) (*Trajectory, body.Lengths, error) {
	s, lengths, err := b.Skeleton(p)
	if err != nil {
		return nil, nil, err
	}
	return s.Segments(), lengths, nil
}

// GenerateSegments runs the Boulic model with the standard proportions.
func GenerateSegments(forwardMotion bool, height, rv, fs, duration float64, radarloc r3.Vec) (*Trajectory, body.Lengths, error) {
	return NewBoulic().Generate(Params{
		Height:           height,
		RelativeVelocity: rv,
		ForwardMotion:    forwardMotion,
		SamplingRate:     fs,
		Duration:         duration,
		RadarLocation:    radarloc,
	})
}

// GenerateSkeleton runs the Boulic model with the standard proportions and
// returns the joint trajectories.
func GenerateSkeleton(p Params) (*Skeleton, body.Lengths, error) {
	return NewBoulic().Skeleton(p)
}
