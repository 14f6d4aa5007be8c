package gait

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roman-kulish/gait-radar/internal/body"
)

// Trajectory holds the position of every body part scatterer, and the
// direction of its long axis, for each sample of a walk. It is not modified
// after construction.
type Trajectory struct {
	SamplingRate  float64
	RadarLocation r3.Vec

	samples   int
	positions map[body.Part][]r3.Vec
	axes      map[body.Part][]r3.Vec
}

// NewTrajectory builds a trajectory from explicit per-part samples. Every part
// must have the same number of positions; axes are optional per part and,
// when given, must match the positions in length. The input is copied.
func NewTrajectory(fs float64, radarloc r3.Vec, positions, axes map[body.Part][]r3.Vec) (*Trajectory, error) {
	if fs <= 0 || math.IsNaN(fs) || math.IsInf(fs, 0) {
		return nil, body.NewParameterError("fs", fs, "must be positive")
	}
	if len(positions) == 0 {
		return nil, fmt.Errorf("%w: trajectory has no parts", body.ErrMissingBodyPart)
	}

	t := &Trajectory{
		SamplingRate:  fs,
		RadarLocation: radarloc,
		samples:       -1,
		positions:     make(map[body.Part][]r3.Vec, len(positions)),
		axes:          make(map[body.Part][]r3.Vec, len(positions)),
	}
	for part, pos := range positions {
		if t.samples == -1 {
			t.samples = len(pos)
		}
		if len(pos) != t.samples {
			return nil, fmt.Errorf("%w: part %s has %d samples, expected %d", body.ErrInvalidParameter, part, len(pos), t.samples)
		}
		t.positions[part] = slices.Clone(pos)

		ax, ok := axes[part]
		if !ok {
			continue
		}
		if len(ax) != len(pos) {
			return nil, fmt.Errorf("%w: part %s has %d axis samples, expected %d", body.ErrInvalidParameter, part, len(ax), len(pos))
		}
		t.axes[part] = slices.Clone(ax)
	}
	if t.samples == 0 {
		return nil, fmt.Errorf("%w: trajectory has no samples", body.ErrInvalidParameter)
	}
	return t, nil
}

// Samples returns the number of samples shared by every part.
func (t *Trajectory) Samples() int {
	return t.samples
}

// Time returns the instant of sample k in seconds.
func (t *Trajectory) Time(k int) float64 {
	return float64(k) / t.SamplingRate
}

// Has reports whether the trajectory carries part p.
func (t *Trajectory) Has(p body.Part) bool {
	_, ok := t.positions[p]
	return ok
}

// Parts returns the parts present, canonical parts first in canonical order.
func (t *Trajectory) Parts() []body.Part {
	parts := make([]body.Part, 0, len(t.positions))
	for _, p := range body.Parts {
		if t.Has(p) {
			parts = append(parts, p)
		}
	}
	var extra []body.Part
	for p := range t.positions {
		if !p.Valid() {
			extra = append(extra, p)
		}
	}
	slices.Sort(extra)
	return append(parts, extra...)
}

// Position returns the location of part p at sample k.
func (t *Trajectory) Position(p body.Part, k int) r3.Vec {
	return t.positions[p][k]
}

// Positions returns a copy of the trajectory of part p.
func (t *Trajectory) Positions(p body.Part) ([]r3.Vec, bool) {
	pos, ok := t.positions[p]
	return slices.Clone(pos), ok
}

// Axis returns the long axis of part p at sample k, or the zero vector if the
// trajectory does not carry orientation for p.
func (t *Trajectory) Axis(p body.Part, k int) r3.Vec {
	ax, ok := t.axes[p]
	if !ok {
		return r3.Vec{}
	}
	return ax[k]
}

// segment locates a part scatterer and its axis within a pose.
type segment struct {
	part     body.Part
	position func(*Pose) r3.Vec
	axis     func(*Pose) r3.Vec
}

var segments = []segment{
	{body.Head, joint(Head), between(Neck, Head)},
	{body.Torso, midpoint(Neck, Base), between(Base, Neck)},
	{body.LeftShoulder, joint(LeftShoulder), between(Neck, LeftShoulder)},
	{body.RightShoulder, joint(RightShoulder), between(Neck, RightShoulder)},
	{body.LeftUpperArm, midpoint(LeftShoulder, LeftElbow), between(LeftElbow, LeftShoulder)},
	{body.RightUpperArm, midpoint(RightShoulder, RightElbow), between(RightElbow, RightShoulder)},
	{body.LeftLowerArm, joint(LeftHand), between(LeftHand, LeftElbow)},
	{body.RightLowerArm, joint(RightHand), between(RightHand, RightElbow)},
	{body.LeftHip, joint(LeftHip), between(Base, LeftHip)},
	{body.RightHip, joint(RightHip), between(Base, RightHip)},
	{body.LeftUpperLeg, midpoint(LeftHip, LeftKnee), between(LeftHip, LeftKnee)},
	{body.RightUpperLeg, midpoint(RightHip, RightKnee), between(RightHip, RightKnee)},
	{body.LeftLowerLeg, midpoint(LeftKnee, LeftAnkle), between(LeftKnee, LeftAnkle)},
	{body.RightLowerLeg, midpoint(RightKnee, RightAnkle), between(RightKnee, RightAnkle)},
	{body.LeftFoot, joint(LeftToe), between(LeftToe, LeftAnkle)},
	{body.RightFoot, joint(RightToe), between(RightToe, RightAnkle)},
}

func joint(j Joint) func(*Pose) r3.Vec {
	return func(p *Pose) r3.Vec { return p[j] }
}

func midpoint(a, b Joint) func(*Pose) r3.Vec {
	return func(p *Pose) r3.Vec { return r3.Scale(0.5, r3.Add(p[a], p[b])) }
}

// between points from joint a to joint b.
func between(a, b Joint) func(*Pose) r3.Vec {
	return func(p *Pose) r3.Vec { return r3.Sub(p[b], p[a]) }
}

// Segments reduces the skeleton to one scatterer per body part.
func (s *Skeleton) Segments() *Trajectory {
	t := &Trajectory{
		SamplingRate:  s.SamplingRate,
		RadarLocation: s.RadarLocation,
		samples:       len(s.poses),
		positions:     make(map[body.Part][]r3.Vec, len(segments)),
		axes:          make(map[body.Part][]r3.Vec, len(segments)),
	}
	for _, seg := range segments {
		pos := make([]r3.Vec, len(s.poses))
		ax := make([]r3.Vec, len(s.poses))
		for k := range s.poses {
			pos[k] = seg.position(&s.poses[k])
			ax[k] = seg.axis(&s.poses[k])
		}
		t.positions[seg.part] = pos
		t.axes[seg.part] = ax
	}
	return t
}
