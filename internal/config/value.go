package config

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
	"gopkg.in/yaml.v3"
)

// Value is a scalar or a closed [Min, Max] range drawn uniformly per sample.
type Value struct {
	Min float64
	Max float64
}

// Scalar returns a Value fixed at v.
func Scalar(v float64) Value {
	return Value{Min: v, Max: v}
}

// Range returns a Value drawn uniformly from [lo, hi].
func Range(lo, hi float64) Value {
	return Value{Min: lo, Max: hi}
}

// IsRange reports whether draws vary.
func (v Value) IsRange() bool {
	return v.Min != v.Max
}

// Draw returns a uniform draw from the range using src, or the scalar value
// without consuming randomness.
func (v Value) Draw(src rand.Source) float64 {
	if !v.IsRange() {
		return v.Min
	}
	return distuv.Uniform{Min: v.Min, Max: v.Max, Src: src}.Rand()
}

// Validate checks that the bounds are finite and ordered.
func (v Value) Validate() error {
	if math.IsNaN(v.Min) || math.IsNaN(v.Max) || math.IsInf(v.Min, 0) || math.IsInf(v.Max, 0) {
		return fmt.Errorf("config.Value: bounds must be finite: [%g, %g]", v.Min, v.Max)
	}
	if v.Min > v.Max {
		return fmt.Errorf("config.Value: min must not exceed max: [%g, %g]", v.Min, v.Max)
	}
	return nil
}

func (v *Value) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var f float64
		if err := value.Decode(&f); err != nil {
			return fmt.Errorf("config.Value: failed to parse: %s", err)
		}
		*v = Scalar(f)

	case yaml.SequenceNode:
		var bounds []float64
		if err := value.Decode(&bounds); err != nil {
			return fmt.Errorf("config.Value: failed to parse: %s", err)
		}
		if len(bounds) != 2 {
			return fmt.Errorf("config.Value: range needs exactly 2 bounds, %d given", len(bounds))
		}
		*v = Range(bounds[0], bounds[1])

	default:
		return fmt.Errorf("config.Value: expected a number or [min, max] at line %d", value.Line)
	}
	return nil
}

func (v Value) MarshalYAML() (interface{}, error) {
	if !v.IsRange() {
		return v.Min, nil
	}
	return []float64{v.Min, v.Max}, nil
}

func (v *Value) UnmarshalJSON(bytes []byte) error {
	var f float64
	if err := json.Unmarshal(bytes, &f); err == nil {
		*v = Scalar(f)
		return nil
	}

	var bounds []float64
	if err := json.Unmarshal(bytes, &bounds); err != nil {
		return fmt.Errorf("config.Value: failed to parse: %s", err)
	}
	if len(bounds) != 2 {
		return fmt.Errorf("config.Value: range needs exactly 2 bounds, %d given", len(bounds))
	}
	*v = Range(bounds[0], bounds[1])
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.IsRange() {
		return json.Marshal(v.Min)
	}
	return json.Marshal([]float64{v.Min, v.Max})
}

func (v Value) String() string {
	if !v.IsRange() {
		return fmt.Sprintf("%g", v.Min)
	}
	return fmt.Sprintf("[%g, %g]", v.Min, v.Max)
}
