package gait

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/interp"
)

// knotTolerance merges control points that coincide once replicated into the
// neighbouring cycles.
const knotTolerance = 1e-9

type knot struct {
	x, y float64
}

// periodicCurve is a monotone piecewise cubic through control points given
// over one cycle and repeated into the previous and next cycles, so the curve
// and its slope join smoothly at the cycle boundary.
type periodicCurve struct {
	fb interp.FritschButland
}

func newPeriodicCurve(xs, ys []float64) (*periodicCurve, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("control points mismatch: %d x, %d y", len(xs), len(ys))
	}

	knots := make([]knot, 0, 3*len(xs))
	for shift := -1.0; shift <= 1; shift++ {
		for i := range xs {
			knots = append(knots, knot{x: xs[i] + shift, y: ys[i]})
		}
	}
	slices.SortStableFunc(knots, func(a, b knot) int {
		switch {
		case a.x < b.x:
			return -1
		case a.x > b.x:
			return 1
		}
		return 0
	})

	kx := make([]float64, 0, len(knots))
	ky := make([]float64, 0, len(knots))
	for _, k := range knots {
		if n := len(kx); n > 0 && k.x-kx[n-1] < knotTolerance {
			continue
		}
		kx = append(kx, k.x)
		ky = append(ky, k.y)
	}

	var c periodicCurve
	if err := c.fb.Fit(kx, ky); err != nil {
		return nil, fmt.Errorf("fitting curve: %w", err)
	}
	return &c, nil
}

func (c *periodicCurve) at(phase float64) float64 {
	return c.fb.Predict(phase)
}

// curves evaluates the trunk motion and joint flexion of one walking style
// at any phase of the cycle. Translations are in meters, angles in degrees.
type curves struct {
	style Style

	vertAmp   float64
	latAmp    float64
	foreAmp   float64
	forePhase float64
	pitchAmp  float64
	rollAmp   float64
	yawAmp    float64
	swingAmp  float64

	hip, knee, ankle, thorax, elbow *periodicCurve
}

func newCurves(rv float64, cycle Cycle) (*curves, error) {
	c := curves{
		style:     cycle.Style,
		vertAmp:   0.015 * rv,
		latAmp:    -0.032,
		foreAmp:   -0.021,
		forePhase: 0.625 - cycle.SupportRatio,
		pitchAmp:  2,
		rollAmp:   0.01 * rv,
		yawAmp:    4 * rv,
		swingAmp:  9.88 * rv,
	}
	if cycle.Style == StyleSlow {
		c.latAmp = -0.128*rv*rv + 0.128*rv
		c.foreAmp = -0.084*rv*rv + 0.084*rv
		c.pitchAmp = -8*rv*rv + 8*rv
	}

	pts := controlPointsFor(cycle.Style, rv, cycle.SupportRatio)
	fits := []struct {
		name string
		dst  **periodicCurve
		pts  controlPoints
	}{
		{"hip", &c.hip, pts.hip},
		{"knee", &c.knee, pts.knee},
		{"ankle", &c.ankle, pts.ankle},
		{"thorax", &c.thorax, pts.thorax},
		{"elbow", &c.elbow, pts.elbow},
	}
	for _, f := range fits {
		curve, err := newPeriodicCurve(f.pts.x, f.pts.y)
		if err != nil {
			return nil, fmt.Errorf("%s flexion: %w", f.name, err)
		}
		*f.dst = curve
	}
	return &c, nil
}

// verticalTranslation is the offset of the spine origin from standing height.
func (c *curves) verticalTranslation(ph float64) float64 {
	return -c.vertAmp + c.vertAmp*math.Sin(2*math.Pi*(2*ph-0.35))
}

// lateralTranslation moves the spine origin over the supporting leg.
func (c *curves) lateralTranslation(ph float64) float64 {
	return c.latAmp * math.Sin(2*math.Pi*(ph-0.1))
}

// forwardTranslation is the acceleration and deceleration around the mean
// walking speed.
func (c *curves) forwardTranslation(ph float64) float64 {
	return c.foreAmp * math.Sin(2*math.Pi*(2*ph+2*c.forePhase))
}

// pelvisPitch is the forward/backward rotation of the pelvis.
func (c *curves) pelvisPitch(ph float64) float64 {
	return -c.pitchAmp + c.pitchAmp*math.Sin(2*math.Pi*(2*ph-0.1))
}

// pelvisRoll drops the pelvis on the side of the swinging leg.
func (c *curves) pelvisRoll(ph float64) float64 {
	a := c.rollAmp
	switch {
	case ph < 0.15:
		return -a + a*math.Cos(2*math.Pi*10*ph/3)
	case ph < 0.5:
		return -a - a*math.Cos(2*math.Pi*10*(ph-0.15)/7)
	case ph < 0.65:
		return a - a*math.Cos(2*math.Pi*10*(ph-0.5)/3)
	default:
		return a + a*math.Cos(2*math.Pi*10*(ph-0.65)/7)
	}
}

// pelvisYaw is the torsion of the pelvis relative to the spine.
func (c *curves) pelvisYaw(ph float64) float64 {
	return -c.yawAmp * math.Cos(2*math.Pi*ph)
}

func (c *curves) shoulderFlexion(ph float64) float64 {
	return 3 - c.swingAmp/2 - c.swingAmp*math.Cos(2*math.Pi*ph)
}

func (c *curves) hipFlexion(ph float64) float64    { return c.hip.at(ph) }
func (c *curves) kneeFlexion(ph float64) float64   { return c.knee.at(ph) }
func (c *curves) ankleFlexion(ph float64) float64  { return c.ankle.at(ph) }
func (c *curves) thoraxTorsion(ph float64) float64 { return c.thorax.at(ph) }
func (c *curves) elbowFlexion(ph float64) float64  { return c.elbow.at(ph) }
