// Package spectrum reduces a radar return to a slow-time profile and computes
// its micro-Doppler spectrogram.
package spectrum

import (
	"fmt"
	"math"
	"math/bits"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/roman-kulish/gait-radar/internal/body"
	"github.com/roman-kulish/gait-radar/internal/radar"
)

const (
	defaultWindowSize = 128
	defaultHop        = 16

	// powerFloor keeps empty FFT bins finite on the dB scale.
	powerFloor = 1e-20
)

// Profile sums the return over range bins, one value per time sample.
func Profile(m *radar.ReturnMatrix) []complex128 {
	profile := make([]complex128, m.Samples())
	for b := 0; b < m.Bins(); b++ {
		for k, v := range m.Row(b) {
			profile[k] += v
		}
	}
	return profile
}

// Normalize subtracts the mean magnitude of x and divides the result by the
// population standard deviation of its magnitude.
func Normalize(x []complex128) ([]complex128, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("%w: empty profile", body.ErrInvalidParameter)
	}

	mag := make([]float64, len(x))
	for i, v := range x {
		mag[i] = cmplx.Abs(v)
	}
	mean := stat.Mean(mag, nil)

	out := make([]complex128, len(x))
	for i, v := range x {
		out[i] = v - complex(mean, 0)
		mag[i] = cmplx.Abs(out[i])
	}

	_, std := stat.PopMeanStdDev(mag, nil)
	if std == 0 || math.IsNaN(std) {
		return nil, body.NewParameterError("profile std", std, "must be positive")
	}
	for i := range out {
		out[i] /= complex(std, 0)
	}
	return out, nil
}

// WithWindowSize sets the number of samples in each STFT frame.
func WithWindowSize(n int) func(*Transform) {
	return func(t *Transform) {
		t.windowSize = n
	}
}

// WithHop sets the number of samples between consecutive frames.
func WithHop(n int) func(*Transform) {
	return func(t *Transform) {
		t.hop = n
	}
}

// WithFFTSize zero-pads every frame to n points. It must not be smaller than
// the window.
func WithFFTSize(n int) func(*Transform) {
	return func(t *Transform) {
		t.fftSize = n
	}
}

// Transform is a short-time Fourier transform with a Hann window.
type Transform struct {
	windowSize int
	hop        int
	fftSize    int
}

// NewTransform creates a new Transform
func NewTransform(options ...func(*Transform)) *Transform {
	t := Transform{
		windowSize: defaultWindowSize,
		hop:        defaultHop,
	}
	for _, option := range options {
		option(&t)
	}
	if t.fftSize == 0 {
		t.fftSize = t.windowSize
	}
	return &t
}

// Fit returns a transform whose window is the largest power of two that fits
// a signal of the given length, or t itself when its window already fits. The
// hop and FFT size keep their ratio to the window.
func (t *Transform) Fit(samples int) *Transform {
	if samples >= t.windowSize || samples < 2 {
		return t
	}
	w := 1 << (bits.Len(uint(samples)) - 1)
	return &Transform{
		windowSize: w,
		hop:        max(1, t.hop*w/t.windowSize),
		fftSize:    max(w, t.fftSize*w/t.windowSize),
	}
}

// WindowSize returns the number of samples in each frame.
func (t *Transform) WindowSize() int {
	return t.windowSize
}

func (t *Transform) validate(samples int, fs float64) error {
	switch {
	case fs <= 0 || math.IsNaN(fs) || math.IsInf(fs, 0):
		return body.NewParameterError("fs", fs, "must be positive")
	case t.windowSize <= 0:
		return body.NewParameterError("window", float64(t.windowSize), "must be positive")
	case t.hop <= 0:
		return body.NewParameterError("hop", float64(t.hop), "must be positive")
	case t.fftSize < t.windowSize:
		return body.NewParameterError("fft size", float64(t.fftSize), "must not be smaller than the window")
	case samples < t.windowSize:
		return body.NewParameterError("window", float64(t.windowSize),
			fmt.Sprintf("exceeds the %d samples of the signal", samples))
	}
	return nil
}

// Compute returns the spectrogram of x sampled at fs, with zero Doppler in
// the middle of every frame.
func (t *Transform) Compute(x []complex128, fs float64) (*Spectrogram, error) {
	if err := t.validate(len(x), fs); err != nil {
		return nil, err
	}

	taper := make([]float64, t.windowSize)
	for i := range taper {
		taper[i] = 1
	}
	taper = window.Hann(taper)

	fft := fourier.NewCmplxFFT(t.fftSize)
	frame := make([]complex128, t.fftSize)
	coeff := make([]complex128, t.fftSize)

	frames := 1 + (len(x)-t.windowSize)/t.hop
	s := &Spectrogram{
		SamplingRate: fs,
		Frequencies:  shiftedFrequencies(t.fftSize, fs),
		Spans:        make([]SpectralSpan, 0, frames),
	}

	half := t.fftSize / 2
	for f := 0; f < frames; f++ {
		start := f * t.hop
		clear(frame)
		for i, w := range taper {
			frame[i] = x[start+i] * complex(w, 0)
		}
		coeff = fft.Coefficients(coeff, frame)

		power := make([]float64, t.fftSize)
		for i := range power {
			v := coeff[(i-half+t.fftSize)%t.fftSize]
			power[i] = 10 * math.Log10(math.Max(real(v)*real(v)+imag(v)*imag(v), powerFloor))
		}

		s.Spans = append(s.Spans, SpectralSpan{
			Time:  (float64(start) + float64(t.windowSize)/2) / fs,
			Power: power,
		})
	}

	return s, nil
}

// Compute returns the spectrogram of x with the given transform options.
func Compute(x []complex128, fs float64, options ...func(*Transform)) (*Spectrogram, error) {
	return NewTransform(options...).Compute(x, fs)
}

func shiftedFrequencies(n int, fs float64) []float64 {
	freqs := make([]float64, n)
	for i := range freqs {
		freqs[i] = float64(i-n/2) * fs / float64(n)
	}
	return freqs
}

// SpectralSpan is the power spectrum of one STFT frame.
type SpectralSpan struct {
	Time  float64   `json:"time"`  // Frame centre in seconds
	Power []float64 `json:"power"` // Power in dB, ordered as Spectrogram.Frequencies
}

// Spectrogram is a sequence of Doppler spectra over time.
type Spectrogram struct {
	SamplingRate float64        `json:"samplingRate"`
	Frequencies  []float64      `json:"frequencies"` // Doppler frequency of every bin in Hz
	Spans        []SpectralSpan `json:"spans"`
}

// Frames returns the number of time frames.
func (s *Spectrogram) Frames() int {
	return len(s.Spans)
}

// Bins returns the number of Doppler bins per frame.
func (s *Spectrogram) Bins() int {
	return len(s.Frequencies)
}

// PowerRange returns the lowest and highest power over every frame.
func (s *Spectrogram) PowerRange() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, span := range s.Spans {
		lo = math.Min(lo, floats.Min(span.Power))
		hi = math.Max(hi, floats.Max(span.Power))
	}
	return lo, hi
}

// DopplerToVelocity converts a Doppler shift to radial velocity for a
// monostatic radar of the given wavelength.
func DopplerToVelocity(freq, wavelength float64) float64 {
	return freq * wavelength / 2
}
