package radar

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/roman-kulish/gait-radar/internal/body"
)

// ReturnMatrix is the complex baseband return of a walk, indexed by range bin
// and time sample. Bin b covers ranges [RangeMin+b*RangeResolution,
// RangeMin+(b+1)*RangeResolution).
type ReturnMatrix struct {
	RangeMin        float64 // Range of the first bin in meters
	RangeResolution float64 // Bin width in meters
	SamplingRate    float64 // Time samples per second
	Wavelength      float64 // Carrier wavelength in meters

	data *mat.CDense
}

// NewReturnMatrix wraps row-major data of bins rows and samples columns. The
// slice is copied.
func NewReturnMatrix(bins, samples int, data []complex128, rangeMin, rangeRes, fs, wavelength float64) (*ReturnMatrix, error) {
	if bins <= 0 || samples <= 0 {
		return nil, fmt.Errorf("%w: matrix shape %dx%d", body.ErrInvalidParameter, bins, samples)
	}
	if len(data) != bins*samples {
		return nil, fmt.Errorf("%w: %d values for a %dx%d matrix", body.ErrInvalidParameter, len(data), bins, samples)
	}
	return &ReturnMatrix{
		RangeMin:        rangeMin,
		RangeResolution: rangeRes,
		SamplingRate:    fs,
		Wavelength:      wavelength,
		data:            mat.NewCDense(bins, samples, append([]complex128(nil), data...)),
	}, nil
}

// Bins returns the number of range bins.
func (m *ReturnMatrix) Bins() int {
	r, _ := m.data.Dims()
	return r
}

// Samples returns the number of time samples.
func (m *ReturnMatrix) Samples() int {
	_, c := m.data.Dims()
	return c
}

// At returns the return in range bin b at sample k.
func (m *ReturnMatrix) At(b, k int) complex128 {
	return m.data.At(b, k)
}

// Range returns the lower edge of bin b in meters.
func (m *ReturnMatrix) Range(b int) float64 {
	return m.RangeMin + float64(b)*m.RangeResolution
}

// Time returns the instant of sample k in seconds.
func (m *ReturnMatrix) Time(k int) float64 {
	return float64(k) / m.SamplingRate
}

// Row returns a copy of range bin b over time.
func (m *ReturnMatrix) Row(b int) []complex128 {
	row := make([]complex128, m.Samples())
	for k := range row {
		row[k] = m.data.At(b, k)
	}
	return row
}

// Column returns a copy of every range bin at sample k.
func (m *ReturnMatrix) Column(k int) []complex128 {
	col := make([]complex128, m.Bins())
	for b := range col {
		col[b] = m.data.At(b, k)
	}
	return col
}

// Data returns a row-major copy of the matrix.
func (m *ReturnMatrix) Data() []complex128 {
	bins, samples := m.data.Dims()
	out := make([]complex128, 0, bins*samples)
	for b := 0; b < bins; b++ {
		for k := 0; k < samples; k++ {
			out = append(out, m.data.At(b, k))
		}
	}
	return out
}

// IsZero reports whether every entry is zero.
func (m *ReturnMatrix) IsZero() bool {
	bins, samples := m.data.Dims()
	for b := 0; b < bins; b++ {
		for k := 0; k < samples; k++ {
			if m.data.At(b, k) != 0 {
				return false
			}
		}
	}
	return true
}
