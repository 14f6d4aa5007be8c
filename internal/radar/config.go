package radar

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roman-kulish/gait-radar/internal/body"
	"github.com/roman-kulish/gait-radar/internal/scatterer"
)

const (
	// AmplitudeUnit gives every scatterer unit amplitude scaled by its weight.
	AmplitudeUnit AmplitudeModel = "unit"

	// AmplitudeEllipsoid scales every scatterer by the square root of the
	// radar cross-section of an ellipsoid fitted to the segment.
	AmplitudeEllipsoid AmplitudeModel = "ellipsoid"
)

var validAmplitudeModels = map[AmplitudeModel]struct{}{
	AmplitudeUnit:      {},
	AmplitudeEllipsoid: {},
}

// AmplitudeModel selects how the magnitude of each scatterer return is computed.
type AmplitudeModel string

func (m AmplitudeModel) String() string {
	return string(m)
}

// Config describes the radar and which body parts it sees.
type Config struct {
	Wavelength       float64           `json:"wavelength"`       // Carrier wavelength in meters
	RangeResolution  float64           `json:"rangeResolution"`  // Range bin width in meters
	Location         r3.Vec            `json:"location"`         // Receiver position
	BodyParts        scatterer.Weights `json:"bodyParts"`        // Contribution weight per part
	Amplitude        AmplitudeModel    `json:"amplitude"`        // Empty means AmplitudeUnit
	RangeAttenuation bool              `json:"rangeAttenuation"` // Divide amplitude by range squared
}

// Validate checks the radar parameters.
func (c Config) Validate() error {
	if c.Wavelength <= 0 || math.IsNaN(c.Wavelength) || math.IsInf(c.Wavelength, 0) {
		return body.NewParameterError("lambda", c.Wavelength, "must be positive")
	}
	if c.RangeResolution <= 0 || math.IsNaN(c.RangeResolution) || math.IsInf(c.RangeResolution, 0) {
		return body.NewParameterError("rangeres", c.RangeResolution, "must be positive")
	}
	for _, v := range []float64{c.Location.X, c.Location.Y, c.Location.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return body.NewParameterError("radarloc", v, "must be finite")
		}
	}
	if c.Amplitude != "" {
		if _, ok := validAmplitudeModels[c.Amplitude]; !ok {
			return fmt.Errorf("%w: unknown amplitude model %q", body.ErrInvalidParameter, c.Amplitude)
		}
	}
	return c.BodyParts.Validate()
}
