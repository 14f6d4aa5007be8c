package radar

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roman-kulish/gait-radar/internal/body"
	"github.com/roman-kulish/gait-radar/internal/gait"
	"github.com/roman-kulish/gait-radar/internal/scatterer"
)

var radarAt = r3.Vec{X: 0, Y: 10, Z: 0}

func walk(t *testing.T, forward bool) (*gait.Trajectory, body.Lengths) {
	t.Helper()

	traj, lengths, err := gait.GenerateSegments(forward, 1.8, 2.5, 100, 4, radarAt)
	require.NoError(t, err)
	return traj, lengths
}

func config(weights scatterer.Weights) Config {
	return Config{
		Wavelength:      0.001,
		RangeResolution: 0.01,
		Location:        radarAt,
		BodyParts:       weights,
	}
}

func TestSimulateShape(t *testing.T) {
	t.Parallel()

	traj, lengths := walk(t, true)

	rMin, rMax := math.Inf(1), math.Inf(-1)
	for _, p := range traj.Parts() {
		for k := 0; k < traj.Samples(); k++ {
			r := r3.Norm(r3.Sub(traj.Position(p, k), radarAt))
			rMin, rMax = min(rMin, r), max(rMax, r)
		}
	}

	m, err := Simulate(traj, lengths, config(scatterer.Uniform(1)))
	require.NoError(t, err)

	assert.Equal(t, 400, m.Samples())
	assert.Equal(t, int(math.Ceil((rMax-rMin)/0.01))+1, m.Bins())
	assert.InDelta(t, rMin, m.RangeMin, 1e-12)
	assert.Equal(t, 100.0, m.SamplingRate)
	assert.InDelta(t, 0.04, m.Time(4), 1e-12)
}

func TestSimulateCompleteHumanFillsEveryColumn(t *testing.T) {
	t.Parallel()

	traj, lengths := walk(t, false)
	m, err := Simulate(traj, lengths, config(scatterer.Uniform(1)))
	require.NoError(t, err)
	require.False(t, m.IsZero())

	for k := 0; k < m.Samples(); k++ {
		var energy float64
		for _, v := range m.Column(k) {
			energy += cmplx.Abs(v)
		}
		assert.Positive(t, energy, "sample %d", k)
	}
}

func TestSimulateSuperposition(t *testing.T) {
	t.Parallel()

	traj, lengths := walk(t, true)

	upper := scatterer.Only(body.Head, body.Torso, body.LeftShoulder, body.RightShoulder,
		body.LeftUpperArm, body.RightUpperArm, body.LeftLowerArm, body.RightLowerArm)
	lower := scatterer.Only(body.LeftHip, body.RightHip, body.LeftUpperLeg, body.RightUpperLeg,
		body.LeftLowerLeg, body.RightLowerLeg, body.LeftFoot, body.RightFoot)

	all, err := Simulate(traj, lengths, config(scatterer.Uniform(1)))
	require.NoError(t, err)
	a, err := Simulate(traj, lengths, config(upper))
	require.NoError(t, err)
	b, err := Simulate(traj, lengths, config(lower))
	require.NoError(t, err)

	require.Equal(t, all.Bins(), a.Bins())
	require.Equal(t, all.Bins(), b.Bins())
	for bin := 0; bin < all.Bins(); bin++ {
		for k := 0; k < all.Samples(); k++ {
			assert.InDelta(t, 0, cmplx.Abs(all.At(bin, k)-a.At(bin, k)-b.At(bin, k)), 1e-9)
		}
	}
}

func TestSimulateZeroWeightOnlyTouchesItsOwnBins(t *testing.T) {
	t.Parallel()

	traj, lengths := walk(t, false)

	all, err := Simulate(traj, lengths, config(scatterer.Uniform(1)))
	require.NoError(t, err)

	w := scatterer.Uniform(1)
	w[body.Head] = 0
	noHead, err := Simulate(traj, lengths, config(w))
	require.NoError(t, err)
	require.Equal(t, all.Bins(), noHead.Bins())

	headBins := make(map[[2]int]struct{})
	for k := 0; k < traj.Samples(); k++ {
		r := r3.Norm(r3.Sub(traj.Position(body.Head, k), radarAt))
		headBins[[2]int{int(math.Floor((r - all.RangeMin) / all.RangeResolution)), k}] = struct{}{}
	}

	for bin := 0; bin < all.Bins(); bin++ {
		for k := 0; k < all.Samples(); k++ {
			if _, ok := headBins[[2]int{bin, k}]; ok {
				continue
			}
			assert.Equal(t, all.At(bin, k), noHead.At(bin, k), "bin %d sample %d", bin, k)
		}
	}
}

func TestSimulateStaticPointScatterer(t *testing.T) {
	t.Parallel()

	const (
		samples = 8
		lambda  = 0.0125
	)
	pos := make([]r3.Vec, samples)
	for k := range pos {
		pos[k] = r3.Vec{X: 3, Y: 4}
	}
	traj, err := gait.NewTrajectory(100, r3.Vec{}, map[body.Part][]r3.Vec{body.Head: pos}, nil)
	require.NoError(t, err)

	m, err := Simulate(traj, body.Lengths{body.Head: 0.2}, Config{
		Wavelength:      lambda,
		RangeResolution: 0.05,
		BodyParts:       scatterer.Weights{body.Head: 2},
	})
	require.NoError(t, err)

	require.Equal(t, 1, m.Bins())
	want := cmplx.Rect(2, -4*math.Pi*5/lambda)
	for k := 0; k < samples; k++ {
		assert.InDelta(t, real(want), real(m.At(0, k)), 1e-9)
		assert.InDelta(t, imag(want), imag(m.At(0, k)), 1e-9)
	}
	assert.InDelta(t, 5.0, m.Range(0), 1e-12)
}

func TestSimulateAmplitudeModels(t *testing.T) {
	t.Parallel()

	traj, lengths := walk(t, false)

	cfg := config(scatterer.Only(body.Torso))
	unit, err := Simulate(traj, lengths, cfg)
	require.NoError(t, err)

	cfg.Amplitude = AmplitudeEllipsoid
	ellipsoid, err := Simulate(traj, lengths, cfg)
	require.NoError(t, err)

	cfg.Amplitude = AmplitudeUnit
	cfg.RangeAttenuation = true
	attenuated, err := Simulate(traj, lengths, cfg)
	require.NoError(t, err)

	for k := 0; k < unit.Samples(); k++ {
		var u, e, a float64
		for bin := 0; bin < unit.Bins(); bin++ {
			u += cmplx.Abs(unit.At(bin, k))
			e += cmplx.Abs(ellipsoid.At(bin, k))
			a += cmplx.Abs(attenuated.At(bin, k))
		}
		require.InDelta(t, 1, u, 1e-9)
		assert.Positive(t, e)
		assert.False(t, math.IsNaN(e) || math.IsInf(e, 0))

		r := r3.Norm(r3.Sub(traj.Position(body.Torso, k), radarAt))
		assert.InDelta(t, 1/(r*r), a, 1e-9)
	}
}

func TestEllipsoidRCS(t *testing.T) {
	t.Parallel()

	// A sphere has the same cross-section from every direction.
	for _, theta := range []float64{0, 0.4, math.Pi / 2} {
		assert.InDelta(t, math.Pi*0.01, ellipsoidRCS(0.1, 0.1, 0.1, 0.3, theta), 1e-12)
	}

	// Broadside to a long segment is brighter than end-on.
	broadside := ellipsoidRCS(0.06, 0.06, 0.2, 0, math.Pi/2)
	endOn := ellipsoidRCS(0.06, 0.06, 0.2, 0, 0)
	assert.Greater(t, broadside, endOn)
}

func TestSimulateErrors(t *testing.T) {
	t.Parallel()

	traj, lengths := walk(t, false)

	testCases := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"zero wavelength", func(c *Config) { c.Wavelength = 0 }, body.ErrInvalidParameter},
		{"negative resolution", func(c *Config) { c.RangeResolution = -0.01 }, body.ErrInvalidParameter},
		{"infinite radar", func(c *Config) { c.Location.Z = math.Inf(1) }, body.ErrInvalidParameter},
		{"unknown amplitude", func(c *Config) { c.Amplitude = "lambertian" }, body.ErrInvalidParameter},
		{"negative weight", func(c *Config) { c.BodyParts = scatterer.Weights{body.Head: -1} }, body.ErrInvalidParameter},
		{"unknown part", func(c *Config) { c.BodyParts = scatterer.Weights{"Tail": 1} }, body.ErrMissingBodyPart},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config(scatterer.Uniform(1))
			tc.mutate(&cfg)

			m, err := Simulate(traj, lengths, cfg)
			assert.Nil(t, m)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestSimulateRadarInsideBody(t *testing.T) {
	t.Parallel()

	pos := []r3.Vec{{X: 1}, {}, {X: -1}}
	traj, err := gait.NewTrajectory(10, r3.Vec{}, map[body.Part][]r3.Vec{body.LeftFoot: pos}, nil)
	require.NoError(t, err)

	m, err := Simulate(traj, body.Lengths{body.LeftFoot: 0.25}, Config{
		Wavelength:      0.01,
		RangeResolution: 0.01,
		BodyParts:       scatterer.Only(body.LeftFoot),
	})
	assert.Nil(t, m)
	assert.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestSimulateRangeBinsWithinMatrix(t *testing.T) {
	t.Parallel()

	for _, forward := range []bool{true, false} {
		traj, lengths := walk(t, forward)
		m, err := Simulate(traj, lengths, config(scatterer.Uniform(1)))
		require.NoError(t, err)

		for _, p := range traj.Parts() {
			for k := 0; k < traj.Samples(); k++ {
				r := r3.Norm(r3.Sub(traj.Position(p, k), radarAt))
				bin := int(math.Floor((r - m.RangeMin) / m.RangeResolution))
				if bin < 0 || bin > m.Bins()-1 {
					t.Fatalf("forward=%v: %s at sample %d lands in bin %d of %d", forward, p, k, bin, m.Bins())
				}
			}
		}
	}
}

func TestReturnMatrixAccessors(t *testing.T) {
	t.Parallel()

	m, err := NewReturnMatrix(2, 3, []complex128{1, 2, 3, 4, 5, 6}, 1.5, 0.5, 10, 0.01)
	require.NoError(t, err)

	assert.Equal(t, []complex128{4, 5, 6}, m.Row(1))
	assert.Equal(t, []complex128{2, 5}, m.Column(1))
	assert.Equal(t, []complex128{1, 2, 3, 4, 5, 6}, m.Data())
	assert.InDelta(t, 2.0, m.Range(1), 1e-12)
	assert.False(t, m.IsZero())

	row, data := m.Row(0), m.Data()
	row[0], data[0] = 99, 99
	m.Column(0)[0] = 99
	assert.Equal(t, complex(1, 0), m.At(0, 0))

	_, err = NewReturnMatrix(2, 2, []complex128{1}, 0, 1, 1, 1)
	assert.ErrorIs(t, err, body.ErrInvalidParameter)
}
