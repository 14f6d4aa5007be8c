package config

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/gait-radar/internal/body"
	"github.com/roman-kulish/gait-radar/internal/radar"
	"github.com/roman-kulish/gait-radar/internal/scatterer"
)

const minimal = `
fs: 100
simulator:
  duration: 4
  height: 1.8
  rv: 2.5
  radarloc: [0, 10, 0]
  lambda_: 0.001
  rangeres: 0.01
`

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	c, err := LoadConfig(filepath.Join("testdata", "example.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 100.0, c.SamplingRate)
	assert.False(t, c.Simulator.ForwardMotion)
	assert.Equal(t, Range(1.2, 1.8), c.Simulator.Height)
	assert.Equal(t, Range(0.2, 1.0), c.Simulator.RelativeVelocity)
	assert.Equal(t, r3.Vec{Y: 10}, c.RadarLocation())
	assert.Equal(t, PresetCompleteHuman, c.Simulator.BodyParts.Preset)
	assert.Equal(t, scatterer.Uniform(1), c.Simulator.BodyParts.Weights)
	assert.Equal(t, radar.AmplitudeUnit, c.Simulator.Amplitude)

	assert.Equal(t, 16, c.Dataset.Samples)
	assert.Equal(t, uint64(42), c.Dataset.Seed)
	assert.True(t, c.Dataset.SqueezeRange)
	assert.Equal(t, defaultMaxBatchSize, c.Dataset.MaxBatchSize)
	require.NotNil(t, c.Dataset.MaxRedraws)
	assert.Equal(t, defaultMaxRedraws, *c.Dataset.MaxRedraws)
	assert.Equal(t, defaultMaxRedraws, c.Dataset.Redraws())
	assert.Equal(t, "sample_dataset", c.Storage.DataDirectory)
	assert.Equal(t, "debug", c.Settings.LogLevel)
}

func TestDecodeMaxRedraws(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		section string
		want    int
		wantErr bool
	}{
		{"default", "", defaultMaxRedraws, false},
		{"disabled", "dataset:\n  maxRedraws: 0\n", 0, false},
		{"explicit", "dataset:\n  maxRedraws: 3\n", 3, false},
		{"negative", "dataset:\n  maxRedraws: -1\n", 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := Decode(strings.NewReader(minimal + tc.section))
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, c.Dataset.Redraws())
		})
	}

	assert.Equal(t, defaultMaxRedraws, Dataset{}.Redraws())
}

func TestRadarDoesNotShareWeights(t *testing.T) {
	t.Parallel()

	c, err := Decode(strings.NewReader(minimal))
	require.NoError(t, err)

	r := c.Radar()
	r.BodyParts[body.Head] = 0
	assert.Equal(t, 1.0, c.Simulator.BodyParts.Weights[body.Head])
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDecodeDefaults(t *testing.T) {
	t.Parallel()

	c, err := Decode(strings.NewReader(minimal))
	require.NoError(t, err)

	assert.Equal(t, Scalar(1.8), c.Simulator.Height)
	assert.Equal(t, PresetCompleteHuman, c.Simulator.BodyParts.Preset)
	assert.Equal(t, defaultSamples, c.Dataset.Samples)
	assert.Positive(t, c.Dataset.Workers)
	assert.Equal(t, "info", c.Settings.LogLevel)

	p := c.Params(1.8, 2.5)
	require.NoError(t, p.Validate())
	assert.Equal(t, 400, p.SampleCount())
}

func TestDecodeBodyParts(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		section string
		want    scatterer.Weights
		err     error
	}{
		{
			name:    "legs only preset",
			section: "body_parts: legs_only",
			want:    scatterer.Only(body.LeftFoot, body.RightFoot),
		},
		{
			name:    "arms only preset",
			section: "body_parts: arms_only",
			want:    scatterer.Only(body.LeftUpperArm, body.RightUpperArm, body.LeftLowerArm, body.RightLowerArm),
		},
		{
			name: "mapping with numbers and booleans",
			section: `body_parts:
    Head: 0.5
    Torso: true
    Left Foot: false
    right_foot: 1`,
			want: scatterer.Weights{body.Head: 0.5, body.Torso: 1, body.LeftFoot: 0, body.RightFoot: 1},
		},
		{
			name:    "unknown preset",
			section: "body_parts: tail_only",
			err:     body.ErrMissingBodyPart,
		},
		{
			name: "unknown part",
			section: `body_parts:
    Tail: 1`,
			err: body.ErrMissingBodyPart,
		},
		{
			name: "negative weight",
			section: `body_parts:
    Head: -1`,
			err: body.ErrInvalidParameter,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := Decode(strings.NewReader(minimal + "  " + tc.section + "\n"))
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, c.Simulator.BodyParts.Weights)
		})
	}
}

func TestDecodeInvalid(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		replace [2]string
		err     error
	}{
		{"unknown key", [2]string{"rangeres:", "range_resolution:"}, nil},
		{"zero sampling rate", [2]string{"fs: 100", "fs: 0"}, body.ErrInvalidParameter},
		{"rv too fast", [2]string{"rv: 2.5", "rv: [1, 4]"}, body.ErrInvalidParameter},
		{"inverted range", [2]string{"height: 1.8", "height: [1.8, 1.2]"}, nil},
		{"short radar location", [2]string{"radarloc: [0, 10, 0]", "radarloc: [0, 10]"}, nil},
		{"range with three bounds", [2]string{"height: 1.8", "height: [1, 2, 3]"}, nil},
		{"zero wavelength", [2]string{"lambda_: 0.001", "lambda_: 0"}, body.ErrInvalidParameter},
		{"unknown amplitude", [2]string{"rangeres: 0.01", "rangeres: 0.01\n  amplitude: lambertian"}, body.ErrInvalidParameter},
		{"unknown gait", [2]string{"rangeres: 0.01", "rangeres: 0.01\n  gait: sprint"}, body.ErrInvalidParameter},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			doc := strings.Replace(minimal, tc.replace[0], tc.replace[1], 1)
			require.NotEqual(t, minimal, doc)

			c, err := Decode(strings.NewReader(doc))
			assert.Nil(t, c)
			require.Error(t, err)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
			}
		})
	}
}

func TestDrawIsSeeded(t *testing.T) {
	t.Parallel()

	c, err := LoadConfig(filepath.Join("testdata", "example.yaml"))
	require.NoError(t, err)

	a := c.Draw(rand.NewPCG(7, 1))
	b := c.Draw(rand.NewPCG(7, 1))
	assert.Equal(t, a, b)

	for i := uint64(0); i < 100; i++ {
		p := c.Draw(rand.NewPCG(7, i))
		assert.GreaterOrEqual(t, p.Height, 1.2)
		assert.LessOrEqual(t, p.Height, 1.8)
		assert.GreaterOrEqual(t, p.RelativeVelocity, 0.2)
		assert.LessOrEqual(t, p.RelativeVelocity, 1.0)
		require.NoError(t, p.Validate())
	}
}

func TestValueScalarDoesNotConsumeRandomness(t *testing.T) {
	t.Parallel()

	src := rand.NewPCG(1, 2)
	assert.Equal(t, 1.5, Scalar(1.5).Draw(src))

	fresh := rand.NewPCG(1, 2)
	assert.Equal(t, fresh.Uint64(), src.Uint64())
}

func TestMarshalRoundTripsThroughDecode(t *testing.T) {
	t.Parallel()

	c, err := LoadConfig(filepath.Join("testdata", "example.yaml"))
	require.NoError(t, err)
	c.Simulator.BodyParts = BodyParts{Weights: scatterer.Weights{body.Head: 1, body.LeftFoot: 0.25}}

	out, err := yaml.Marshal(c)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, yaml.Unmarshal(out, &raw))
	assert.Equal(t, []any{1.2, 1.8}, raw["simulator"].(map[string]any)["height"])

	back, err := Decode(strings.NewReader(string(out)))
	require.NoError(t, err)
	assert.Equal(t, c, back)
}

func TestValueJSON(t *testing.T) {
	t.Parallel()

	var v Value
	require.NoError(t, v.UnmarshalJSON([]byte(`[0.2, 1]`)))
	assert.Equal(t, Range(0.2, 1), v)

	b, err := v.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `[0.2, 1]`, string(b))

	require.NoError(t, v.UnmarshalJSON([]byte(`3`)))
	assert.Equal(t, "3", v.String())
}
