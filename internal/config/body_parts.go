package config

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/gait-radar/internal/body"
	"github.com/roman-kulish/gait-radar/internal/scatterer"
)

const (
	PresetCompleteHuman = "complete_human"
	PresetLegsOnly      = "legs_only"
	PresetArmsOnly      = "arms_only"
	PresetTorsoOnly     = "torso_only"
)

var presets = map[string]func() scatterer.Weights{
	PresetCompleteHuman: func() scatterer.Weights { return scatterer.Uniform(1) },
	PresetLegsOnly:      func() scatterer.Weights { return scatterer.Only(body.LeftFoot, body.RightFoot) },
	PresetArmsOnly: func() scatterer.Weights {
		return scatterer.Only(body.LeftUpperArm, body.RightUpperArm, body.LeftLowerArm, body.RightLowerArm)
	},
	PresetTorsoOnly: func() scatterer.Weights { return scatterer.Only(body.Torso) },
}

// Presets returns the names of the built-in body part selections.
func Presets() []string {
	return slices.Sorted(maps.Keys(presets))
}

// BodyParts selects the scatterers the radar sees, either by preset name or
// by an explicit part to weight mapping.
type BodyParts struct {
	Preset  string
	Weights scatterer.Weights
}

// Preset returns the named built-in selection.
func Preset(name string) (BodyParts, error) {
	weights, ok := presets[name]
	if !ok {
		return BodyParts{}, fmt.Errorf("config.BodyParts: %w: unknown preset %q", body.ErrMissingBodyPart, name)
	}
	return BodyParts{Preset: name, Weights: weights()}, nil
}

// IsZero reports whether nothing was configured.
func (b BodyParts) IsZero() bool {
	return b.Preset == "" && b.Weights == nil
}

func (b *BodyParts) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		p, err := Preset(value.Value)
		if err != nil {
			return err
		}
		*b = p

	case yaml.MappingNode:
		weights := make(scatterer.Weights, len(value.Content)/2)
		for i := 0; i+1 < len(value.Content); i += 2 {
			part, err := body.ParsePart(value.Content[i].Value)
			if err != nil {
				return fmt.Errorf("config.BodyParts: %w", err)
			}
			w, err := decodeWeight(value.Content[i+1])
			if err != nil {
				return fmt.Errorf("config.BodyParts: %s: %w", part, err)
			}
			weights[part] = w
		}
		*b = BodyParts{Weights: weights}

	default:
		return fmt.Errorf("config.BodyParts: expected a preset name or a mapping at line %d", value.Line)
	}
	return nil
}

func decodeWeight(node *yaml.Node) (float64, error) {
	if node.Tag == "!!bool" {
		var on bool
		if err := node.Decode(&on); err != nil {
			return 0, err
		}
		if on {
			return 1, nil
		}
		return 0, nil
	}

	var w float64
	if err := node.Decode(&w); err != nil {
		return 0, err
	}
	return w, nil
}

func (b BodyParts) MarshalYAML() (interface{}, error) {
	if b.Preset != "" {
		return b.Preset, nil
	}
	return b.named(), nil
}

func (b BodyParts) MarshalJSON() ([]byte, error) {
	if b.Preset != "" {
		return json.Marshal(b.Preset)
	}
	return json.Marshal(b.named())
}

func (b BodyParts) named() map[string]float64 {
	named := make(map[string]float64, len(b.Weights))
	for p, w := range b.Weights {
		named[p.String()] = w
	}
	return named
}
