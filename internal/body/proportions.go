package body

import (
	"fmt"
	"maps"
	"math"
)

// standardProportions are the segment lengths as fractions of body height,
// after Winter's anthropometric tables as used by the Boulic walking model.
// Shoulder and hip are half of the bi-acromial and bi-iliac widths.
var standardProportions = Proportions{
	Head:          0.130,
	Torso:         0.288,
	LeftShoulder:  0.259 / 2,
	RightShoulder: 0.259 / 2,
	LeftUpperArm:  0.188,
	RightUpperArm: 0.188,
	LeftLowerArm:  0.152,
	RightLowerArm: 0.152,
	LeftHip:       0.191 / 2,
	RightHip:      0.191 / 2,
	LeftUpperLeg:  0.245,
	RightUpperLeg: 0.245,
	LeftLowerLeg:  0.246,
	RightLowerLeg: 0.246,
	LeftFoot:      0.143,
	RightFoot:     0.143,
}

// girth is the equatorial radius, in meters, of the ellipsoid approximating
// each segment.
var girth = map[Part]float64{
	Head:          0.10,
	Torso:         0.15,
	LeftShoulder:  0.06,
	RightShoulder: 0.06,
	LeftUpperArm:  0.06,
	RightUpperArm: 0.06,
	LeftLowerArm:  0.05,
	RightLowerArm: 0.05,
	LeftHip:       0.07,
	RightHip:      0.07,
	LeftUpperLeg:  0.07,
	RightUpperLeg: 0.07,
	LeftLowerLeg:  0.06,
	RightLowerLeg: 0.06,
	LeftFoot:      0.05,
	RightFoot:     0.05,
}

// Proportions maps every part to its length as a fraction of body height.
type Proportions map[Part]float64

// Lengths maps every part to its length in meters.
type Lengths map[Part]float64

// StandardProportions returns a copy of the built-in proportion table.
func StandardProportions() Proportions {
	return maps.Clone(standardProportions)
}

// Girth returns the equatorial radius of the ellipsoid modelling p.
func Girth(p Part) (float64, bool) {
	g, ok := girth[p]
	return g, ok
}

// Validate checks the table covers every canonical part with a positive ratio.
func (p Proportions) Validate() error {
	for _, part := range Parts {
		ratio, ok := p[part]
		if !ok {
			return fmt.Errorf("body.Proportions: %w: %s", ErrMissingBodyPart, part)
		}
		if ratio <= 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
			return fmt.Errorf("body.Proportions: %w", NewParameterError(string(part), ratio, "must be positive"))
		}
	}
	return nil
}

// Derive scales the proportions by height.
func (p Proportions) Derive(height float64) (Lengths, error) {
	if height <= 0 || math.IsNaN(height) || math.IsInf(height, 0) {
		return nil, NewParameterError("height", height, "must be positive")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	lengths := make(Lengths, len(p))
	for part, ratio := range p {
		lengths[part] = ratio * height
	}
	return lengths, nil
}

// DeriveLengths returns segment lengths for a figure of the given height using
// the standard proportions.
func DeriveLengths(height float64) (Lengths, error) {
	return standardProportions.Derive(height)
}

// LegHeight is the hip-to-ankle length of the right leg, used by the gait
// model to normalise walking speed.
func (l Lengths) LegHeight() float64 {
	return l[RightUpperLeg] + l[RightLowerLeg]
}
