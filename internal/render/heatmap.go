package render

import (
	"math"
	"math/cmplx"

	"github.com/roman-kulish/gait-radar/internal/radar"
	"github.com/roman-kulish/gait-radar/internal/spectrum"
)

const defaultSmoothing = 0.3

// Axis describes one dimension of a heatmap.
type Axis struct {
	Label string  // Quantity name, e.g. "Range"
	Unit  string  // SI unit without prefix, e.g. "m"
	Min   float64 // Value at the first cell
	Max   float64 // Value at the last cell
}

// Span returns Max - Min.
func (a Axis) Span() float64 {
	return a.Max - a.Min
}

// Value returns the axis value at cell i of n.
func (a Axis) Value(i, n int) float64 {
	if n <= 1 {
		return a.Min
	}
	return a.Min + a.Span()*float64(i)/float64(n-1)
}

// Heatmap is a grid of power values in dB. Rows run along Y (time, top to
// bottom) and columns along X. A nil cell has no return.
type Heatmap struct {
	Title         string
	X, Y          Axis
	BoundsTracker *SmoothBounds
	Rows          [][]*float64
}

// NewHeatmap creates an empty heatmap; a nil tracker uses the default
// smoothing.
func NewHeatmap(title string, x, y Axis, bounds *SmoothBounds) *Heatmap {
	if bounds == nil {
		bounds = NewSmoothBounds(defaultSmoothing)
	}
	return &Heatmap{
		Title:         title,
		X:             x,
		Y:             y,
		BoundsTracker: bounds,
		Rows:          make([][]*float64, 0),
	}
}

// Width returns the number of columns.
func (h *Heatmap) Width() int {
	var w int
	for _, row := range h.Rows {
		w = max(w, len(row))
	}
	return w
}

// Height returns the number of rows.
func (h *Heatmap) Height() int {
	return len(h.Rows)
}

// Update appends a row and feeds its values to the bounds tracker.
func (h *Heatmap) Update(powers []*float64) {
	for _, p := range powers {
		h.BoundsTracker.Update(p)
	}
	h.Rows = append(h.Rows, powers)
}

// Bounds returns the current power bounds.
func (h *Heatmap) Bounds() PowerBounds {
	return h.BoundsTracker.Current()
}

// Decibels converts a complex amplitude into power in dB. Zero gives nil.
func Decibels(v complex128) *float64 {
	a := cmplx.Abs(v)
	if a == 0 || math.IsNaN(a) {
		return nil
	}
	db := 20 * math.Log10(a)
	return &db
}

// FromReturnMatrix lays out |m| in dB with range along X and time along Y.
func FromReturnMatrix(m *radar.ReturnMatrix) *Heatmap {
	bins, samples := m.Bins(), m.Samples()
	h := NewHeatmap("Range-time map",
		Axis{Label: "Range", Unit: "m", Min: m.Range(0), Max: m.Range(bins - 1)},
		Axis{Label: "Time", Unit: "s", Min: m.Time(0), Max: m.Time(samples - 1)},
		nil)

	for k := 0; k < samples; k++ {
		row := make([]*float64, bins)
		for b := range row {
			row[b] = Decibels(m.At(b, k))
		}
		h.Update(row)
	}
	return h
}

// FromSpectrogram lays out a spectrogram with Doppler frequency along X and
// time along Y.
func FromSpectrogram(s *spectrum.Spectrogram) *Heatmap {
	var tMin, tMax float64
	if n := s.Frames(); n > 0 {
		tMin, tMax = s.Spans[0].Time, s.Spans[n-1].Time
	}
	var fMin, fMax float64
	if n := s.Bins(); n > 0 {
		fMin, fMax = s.Frequencies[0], s.Frequencies[n-1]
	}

	h := NewHeatmap("Micro-Doppler spectrogram",
		Axis{Label: "Doppler", Unit: "Hz", Min: fMin, Max: fMax},
		Axis{Label: "Time", Unit: "s", Min: tMin, Max: tMax},
		nil)

	for _, span := range s.Spans {
		row := make([]*float64, len(span.Power))
		for i := range span.Power {
			p := span.Power[i]
			row[i] = &p
		}
		h.Update(row)
	}
	return h
}

// FromVelocitySpectrogram is FromSpectrogram with the Doppler axis converted
// to radial velocity for the given wavelength.
func FromVelocitySpectrogram(s *spectrum.Spectrogram, wavelength float64) *Heatmap {
	h := FromSpectrogram(s)
	h.X = Axis{
		Label: "Velocity",
		Unit:  "m/s",
		Min:   spectrum.DopplerToVelocity(h.X.Min, wavelength),
		Max:   spectrum.DopplerToVelocity(h.X.Max, wavelength),
	}
	return h
}
