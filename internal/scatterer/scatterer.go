// Package scatterer turns a body trajectory into the set of weighted point
// scatterers seen by the radar.
package scatterer

import (
	"fmt"
	"maps"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roman-kulish/gait-radar/internal/body"
	"github.com/roman-kulish/gait-radar/internal/gait"
)

// Weights maps a body part to its contribution weight. Parts that are absent
// or weighted zero produce no scatterer.
type Weights map[body.Part]float64

// Uniform weights every canonical part with w.
func Uniform(w float64) Weights {
	weights := make(Weights, len(body.Parts))
	for _, p := range body.Parts {
		weights[p] = w
	}
	return weights
}

// Only weights the given parts with 1.
func Only(parts ...body.Part) Weights {
	weights := make(Weights, len(parts))
	for _, p := range parts {
		weights[p] = 1
	}
	return weights
}

// Clone returns an independent copy of w.
func (w Weights) Clone() Weights {
	return maps.Clone(w)
}

// Included returns the parts with a non-zero weight in canonical order.
func (w Weights) Included() []body.Part {
	var parts []body.Part
	for _, p := range body.Parts {
		if w[p] != 0 {
			parts = append(parts, p)
		}
	}
	return parts
}

// Validate rejects negative or non-finite weights.
func (w Weights) Validate() error {
	for p, v := range w {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return body.NewParameterError(fmt.Sprintf("weight[%s]", p), v, "must be finite and not negative")
		}
	}
	return nil
}

// Scatterer is one body part reduced to a weighted point target.
type Scatterer struct {
	Part   body.Part
	Weight float64
	Length float64 // Segment length in meters
	Girth  float64 // Equatorial radius in meters, zero if unknown

	traj *gait.Trajectory
}

// Position returns the scatterer location at sample k.
func (s *Scatterer) Position(k int) r3.Vec {
	return s.traj.Position(s.Part, k)
}

// Axis returns the segment's long axis at sample k.
func (s *Scatterer) Axis(k int) r3.Vec {
	return s.traj.Axis(s.Part, k)
}

// Set is the collection of scatterers included in a simulation, in canonical
// part order.
type Set struct {
	Scatterers []Scatterer

	traj *gait.Trajectory
}

// Samples returns the number of time samples.
func (s *Set) Samples() int {
	return s.traj.Samples()
}

// Trajectory returns the full trajectory the set was assembled from.
func (s *Set) Trajectory() *gait.Trajectory {
	return s.traj
}

// Parts returns the included parts.
func (s *Set) Parts() []body.Part {
	parts := make([]body.Part, len(s.Scatterers))
	for i, sc := range s.Scatterers {
		parts[i] = sc.Part
	}
	return parts
}

// Assemble selects the scatterers to simulate. Every part named in weights
// must exist in both the trajectory and the lengths table, even when its
// weight is zero.
func Assemble(traj *gait.Trajectory, lengths body.Lengths, weights Weights) (*Set, error) {
	if traj == nil {
		return nil, fmt.Errorf("%w: no trajectory", body.ErrInvalidParameter)
	}
	if err := weights.Validate(); err != nil {
		return nil, err
	}

	for p := range weights {
		if !traj.Has(p) {
			return nil, fmt.Errorf("%w: %s not in trajectory", body.ErrMissingBodyPart, p)
		}
		if _, ok := lengths[p]; !ok {
			return nil, fmt.Errorf("%w: %s has no length", body.ErrMissingBodyPart, p)
		}
	}

	set := &Set{traj: traj}
	for _, p := range traj.Parts() {
		w := weights[p]
		if w == 0 {
			continue
		}
		g, _ := body.Girth(p)
		set.Scatterers = append(set.Scatterers, Scatterer{
			Part:   p,
			Weight: w,
			Length: lengths[p],
			Girth:  g,
			traj:   traj,
		})
	}
	return set, nil
}
