package spectrum

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/roman-kulish/gait-radar/internal/body"
	"github.com/roman-kulish/gait-radar/internal/radar"
)

func tone(n int, freq, fs float64) []complex128 {
	x := make([]complex128, n)
	for k := range x {
		x[k] = cmplx.Rect(1, 2*math.Pi*freq*float64(k)/fs)
	}
	return x
}

func TestProfile(t *testing.T) {
	t.Parallel()

	m, err := radar.NewReturnMatrix(3, 2, []complex128{1, 2i, 3, 4, 0, -1i}, 0, 0.1, 10, 0.01)
	require.NoError(t, err)

	assert.Equal(t, []complex128{4, 4 + 1i}, Profile(m))
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	out, err := Normalize([]complex128{1, 3, 5})
	require.NoError(t, err)

	std := math.Sqrt(8.0 / 9)
	assert.InDelta(t, -2/std, real(out[0]), 1e-12)
	assert.InDelta(t, 0, real(out[1]), 1e-12)
	assert.InDelta(t, 2/std, real(out[2]), 1e-12)

	testCases := []struct {
		name string
		x    []complex128
	}{
		{"empty", nil},
		{"constant", []complex128{2, 2, 2}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Normalize(tc.x)
			assert.ErrorIs(t, err, body.ErrInvalidParameter)
		})
	}
}

func TestComputeLocatesTone(t *testing.T) {
	t.Parallel()

	const fs = 100.0

	testCases := []struct {
		name string
		freq float64
		bin  int
	}{
		{"approaching", 12.5, 80},
		{"receding", -12.5, 48},
		{"static", 0, 64},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := Compute(tone(400, tc.freq, fs), fs)
			require.NoError(t, err)

			require.Equal(t, 18, s.Frames())
			require.Equal(t, 128, s.Bins())
			assert.InDelta(t, tc.freq, s.Frequencies[tc.bin], 1e-9)
			for _, span := range s.Spans {
				assert.Equal(t, tc.bin, floats.MaxIdx(span.Power))
			}
		})
	}
}

func TestComputeLayout(t *testing.T) {
	t.Parallel()

	s, err := Compute(tone(64, 5, 50), 50, WithWindowSize(16), WithHop(8), WithFFTSize(32))
	require.NoError(t, err)

	assert.Equal(t, 7, s.Frames())
	assert.Equal(t, 32, s.Bins())
	assert.InDelta(t, -25, s.Frequencies[0], 1e-12)
	assert.InDelta(t, 0, s.Frequencies[16], 1e-12)
	assert.InDelta(t, 8.0/50, s.Spans[0].Time, 1e-12)
	assert.InDelta(t, 16.0/50, s.Spans[1].Time, 1e-12)

	lo, hi := s.PowerRange()
	assert.Less(t, lo, hi)
	assert.False(t, math.IsInf(lo, 0))
}

func TestComputeErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		n       int
		fs      float64
		options []func(*Transform)
	}{
		{"signal shorter than window", 100, 100, nil},
		{"zero sampling rate", 400, 0, nil},
		{"zero hop", 400, 100, []func(*Transform){WithHop(0)}},
		{"fft smaller than window", 400, 100, []func(*Transform){WithFFTSize(64)}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := Compute(tone(tc.n, 1, 100), tc.fs, tc.options...)
			assert.Nil(t, s)
			assert.ErrorIs(t, err, body.ErrInvalidParameter)
		})
	}
}

func TestDopplerToVelocity(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.0, DopplerToVelocity(160, 0.0125), 1e-12)
}

func TestTransformFit(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		samples int
		window  int
		wantErr bool
	}{
		{"long signal keeps the window", 400, 128, false},
		{"short signal shrinks the window", 100, 64, false},
		{"exact power of two", 32, 32, false},
		{"single sample", 1, 128, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tr := NewTransform().Fit(tc.samples)
			assert.Equal(t, tc.window, tr.WindowSize())

			s, err := tr.Compute(tone(tc.samples, 1, 100), 100)
			if tc.wantErr {
				assert.ErrorIs(t, err, body.ErrInvalidParameter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.window, s.Bins())
		})
	}
}
