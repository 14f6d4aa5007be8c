package storage

import (
	"time"
)

// Run describes one dataset generation run.
type Run struct {
	ID           string    `json:"id"`                      // UUID shared by every store of the run
	StartTime    time.Time `json:"startTime"`               // When the run was created
	Seed         uint64    `json:"seed"`                    // Seed of the per-sample random streams
	Samples      int       `json:"samples"`                 // Number of samples requested
	SqueezeRange bool      `json:"squeezeRange"`            // Samples hold the range-summed profile
	Config       *string   `json:"config,string,omitempty"` // Configuration the run was generated with
}

// Sample is a single simulated return and the figure that produced it.
type Sample struct {
	ID               string  `json:"id"`
	RunID            string  `json:"runID"`
	Index            int     `json:"index"`
	Height           float64 `json:"height"`          // Meters
	RelativeVelocity float64 `json:"rv"`              // Leg heights per second
	Style            string  `json:"style"`           // Gait style used
	RangeMin         float64 `json:"rangeMin"`        // Range of the first bin in meters
	RangeResolution  float64 `json:"rangeResolution"` // Meters
	SamplingRate     float64 `json:"samplingRate"`    // Hz
	Wavelength       float64 `json:"wavelength"`      // Meters
	Bins             int     `json:"bins"`            // 1 when squeezed
	TimeSamples      int     `json:"timeSamples"`
	Squeezed         bool    `json:"squeezed"`

	// Data is row-major, Bins rows of TimeSamples values.
	Data []complex128 `json:"-"`
}

// Shape returns the array shape the sample is written with.
func (s *Sample) Shape() []int {
	if s.Squeezed {
		return []int{s.TimeSamples}
	}
	return []int{s.Bins, s.TimeSamples}
}
