// Package dataset generates batches of randomized walking-figure radar
// returns and hands them to storage.
package dataset

import (
	"github.com/google/uuid"

	"github.com/roman-kulish/gait-radar/internal/gait"
	"github.com/roman-kulish/gait-radar/internal/radar"
	"github.com/roman-kulish/gait-radar/internal/storage"
)

// Sample is one generated figure and its simulated return.
type Sample struct {
	Index   int
	ID      uuid.UUID
	Params  gait.Params
	Style   gait.Style // Style the figure walked with
	Matrix  *radar.ReturnMatrix
	Profile []complex128 // Normalized range-summed return, nil unless squeezed
	Redraws int          // Rejected draws before this one
}

// Squeezed reports whether the sample carries a range-summed profile.
func (s *Sample) Squeezed() bool {
	return s.Profile != nil
}

func toStorageSample(runID string, s *Sample) *storage.Sample {
	out := &storage.Sample{
		ID:               s.ID.String(),
		RunID:            runID,
		Index:            s.Index,
		Height:           s.Params.Height,
		RelativeVelocity: s.Params.RelativeVelocity,
		Style:            s.Style.String(),
		RangeMin:         s.Matrix.RangeMin,
		RangeResolution:  s.Matrix.RangeResolution,
		SamplingRate:     s.Matrix.SamplingRate,
		Wavelength:       s.Matrix.Wavelength,
		Bins:             s.Matrix.Bins(),
		TimeSamples:      s.Matrix.Samples(),
	}

	if s.Squeezed() {
		out.Squeezed = true
		out.Bins = 1
		out.Data = s.Profile
	} else {
		out.Data = s.Matrix.Data()
	}
	return out
}
