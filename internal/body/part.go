package body

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	Head          Part = "Head"
	Torso         Part = "Torso"
	LeftShoulder  Part = "Left Shoulder"
	RightShoulder Part = "Right Shoulder"
	LeftUpperArm  Part = "Left Upper Arm"
	RightUpperArm Part = "Right Upper Arm"
	LeftLowerArm  Part = "Left Lower Arm"
	RightLowerArm Part = "Right Lower Arm"
	LeftHip       Part = "Left Hip"
	RightHip      Part = "Right Hip"
	LeftUpperLeg  Part = "Left Upper Leg"
	RightUpperLeg Part = "Right Upper Leg"
	LeftLowerLeg  Part = "Left Lower Leg"
	RightLowerLeg Part = "Right Lower Leg"
	LeftFoot      Part = "Left Foot"
	RightFoot     Part = "Right Foot"
)

// Parts lists the canonical body parts in the order every stage iterates them.
var Parts = []Part{
	Head,
	Torso,
	LeftShoulder,
	RightShoulder,
	LeftUpperArm,
	RightUpperArm,
	LeftLowerArm,
	RightLowerArm,
	LeftHip,
	RightHip,
	LeftUpperLeg,
	RightUpperLeg,
	LeftLowerLeg,
	RightLowerLeg,
	LeftFoot,
	RightFoot,
}

var partsByKey = func() map[string]Part {
	m := make(map[string]Part, len(Parts))
	for _, p := range Parts {
		m[partKey(string(p))] = p
	}
	return m
}()

// Part is one of the rigid body segments the walking figure is made of.
type Part string

func (p Part) String() string {
	return string(p)
}

// Valid reports whether p is one of the canonical parts.
func (p Part) Valid() bool {
	q, ok := partsByKey[partKey(string(p))]
	return ok && q == p
}

func (p *Part) UnmarshalYAML(value *yaml.Node) error {
	part, err := ParsePart(value.Value)
	if err != nil {
		return fmt.Errorf("body.Part: %w", err)
	}

	*p = part
	return nil
}

func (p Part) MarshalYAML() (interface{}, error) {
	return string(p), nil
}

// ParsePart resolves a part name. Matching ignores case, spaces, dashes and
// underscores, so "left_upper_arm" and "LeftUpperArm" both name Left Upper Arm.
func ParsePart(name string) (Part, error) {
	if p, ok := partsByKey[partKey(name)]; ok {
		return p, nil
	}
	return "", fmt.Errorf("%w: unknown part %q", ErrMissingBodyPart, name)
}

func partKey(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(name)))
}
