package gait

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roman-kulish/gait-radar/internal/body"
)

// rotation is a roll-pitch-yaw rotation, Rz(yaw)·Ry(pitch)·Rx(roll), in the
// body frame: x forward, y to the left, z up.
type rotation struct {
	m *mat.Dense
}

// newRotation builds the rotation from angles in degrees.
func newRotation(roll, pitch, yaw float64) rotation {
	sr, cr := math.Sincos(roll * math.Pi / 180)
	sp, cp := math.Sincos(pitch * math.Pi / 180)
	sy, cy := math.Sincos(yaw * math.Pi / 180)

	return rotation{m: mat.NewDense(3, 3, []float64{
		cp * cy, sr*sp*cy + cr*sy, -cr*sp*cy + sr*sy,
		-cp * sy, -sr*sp*sy + cr*cy, cr*sp*sy + sr*cy,
		sp, -sr * cp, cr * cp,
	})}
}

func pitchRotation(deg float64) rotation {
	return newRotation(0, deg, 0)
}

func (r rotation) apply(v r3.Vec) r3.Vec {
	var out mat.VecDense
	out.MulVec(r.m, mat.NewVecDense(3, []float64{v.X, v.Y, v.Z}))
	return r3.Vec{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}
}

// side selects the limb lengths and lateral offset of one body side.
type side struct {
	sign                         float64
	hip, upperLeg, lowerLeg      body.Part
	foot                         body.Part
	shoulder, upperArm, lowerArm body.Part
	phaseShift                   float64
}

var (
	rightSide = side{
		sign:       -1,
		hip:        body.RightHip,
		upperLeg:   body.RightUpperLeg,
		lowerLeg:   body.RightLowerLeg,
		foot:       body.RightFoot,
		shoulder:   body.RightShoulder,
		upperArm:   body.RightUpperArm,
		lowerArm:   body.RightLowerArm,
		phaseShift: 0,
	}
	leftSide = side{
		sign:       1,
		hip:        body.LeftHip,
		upperLeg:   body.LeftUpperLeg,
		lowerLeg:   body.LeftLowerLeg,
		foot:       body.LeftFoot,
		shoulder:   body.LeftShoulder,
		upperArm:   body.LeftUpperArm,
		lowerArm:   body.LeftLowerArm,
		phaseShift: 0.5,
	}
)

type legPose struct {
	knee, ankle, toe r3.Vec
}

type armPose struct {
	elbow, hand r3.Vec
}

// leg flexes the ankle, knee and hip of one leg, in that order, so each
// joint rotation carries the segments below it. Positions are relative to
// the spine origin before pelvis rotation.
func (c *curves) leg(l body.Lengths, s side, ph float64) legPose {
	ph = wrapPhase(ph + s.phaseShift)

	y := s.sign * l[s.hip]
	upper, lower := l[s.upperLeg], l[s.lowerLeg]

	toe := pitchRotation(c.ankleFlexion(ph)).apply(r3.Vec{X: l[s.foot]})
	toe.Y += y
	toe.Z -= upper + lower

	knee := pitchRotation(-c.kneeFlexion(ph))
	ankle := r3.Add(knee.apply(r3.Vec{Z: -lower}), r3.Vec{Y: y, Z: -upper})
	toe = r3.Add(knee.apply(r3.Vec{X: toe.X, Z: toe.Z + upper}), r3.Vec{Y: y, Z: -upper})

	hip := pitchRotation(c.hipFlexion(ph))
	offset := r3.Vec{Y: y}
	return legPose{
		knee:  r3.Add(hip.apply(r3.Vec{Z: -upper}), offset),
		ankle: r3.Add(hip.apply(r3.Vec{X: ankle.X, Z: ankle.Z}), offset),
		toe:   r3.Add(hip.apply(r3.Vec{X: toe.X, Z: toe.Z}), offset),
	}
}

// arm flexes the elbow then the shoulder of one arm. Positions are relative
// to the spine origin before the upper body rotation.
func (c *curves) arm(l body.Lengths, s side, ph float64) armPose {
	ph = wrapPhase(ph + s.phaseShift)

	y := s.sign * l[s.shoulder]
	torso := l[body.Torso]
	upper, lower := l[s.upperArm], l[s.lowerArm]

	hand := pitchRotation(c.elbowFlexion(ph)).apply(r3.Vec{Z: -lower})
	hand.Y += y
	hand.Z += torso - upper

	shoulder := pitchRotation(c.shoulderFlexion(ph))
	offset := r3.Vec{Y: y, Z: torso}
	return armPose{
		elbow: r3.Add(shoulder.apply(r3.Vec{Z: -upper}), offset),
		hand:  r3.Add(shoulder.apply(r3.Vec{X: hand.X, Z: hand.Z - torso}), offset),
	}
}

// pose places all joints at phase ph, before any forward advance.
func (c *curves) pose(l body.Lengths, ph float64) Pose {
	var p Pose

	right, left := c.leg(l, rightSide, ph), c.leg(l, leftSide, ph)

	pelvis := newRotation(-c.pelvisRoll(ph), 0, c.pelvisYaw(ph))
	p[LeftHip] = pelvis.apply(r3.Vec{Y: l[body.LeftHip]})
	p[RightHip] = pelvis.apply(r3.Vec{Y: -l[body.RightHip]})
	p[LeftKnee] = pelvis.apply(left.knee)
	p[RightKnee] = pelvis.apply(right.knee)
	p[LeftAnkle] = pelvis.apply(left.ankle)
	p[RightAnkle] = pelvis.apply(right.ankle)
	p[LeftToe] = pelvis.apply(left.toe)
	p[RightToe] = pelvis.apply(right.toe)

	rightArm, leftArm := c.arm(l, rightSide, ph), c.arm(l, leftSide, ph)

	torso := l[body.Torso]
	upper := newRotation(0, c.pelvisPitch(ph), c.thoraxTorsion(ph))
	p[Head] = upper.apply(r3.Vec{Z: torso + l[body.Head]})
	p[Neck] = upper.apply(r3.Vec{Z: torso})
	p[LeftShoulder] = upper.apply(r3.Vec{Y: l[body.LeftShoulder], Z: torso})
	p[RightShoulder] = upper.apply(r3.Vec{Y: -l[body.RightShoulder], Z: torso})
	p[LeftElbow] = upper.apply(leftArm.elbow)
	p[RightElbow] = upper.apply(rightArm.elbow)
	p[LeftHand] = upper.apply(leftArm.hand)
	p[RightHand] = upper.apply(rightArm.hand)

	shift := r3.Vec{
		X: c.forwardTranslation(ph),
		Y: c.lateralTranslation(ph),
		Z: c.verticalTranslation(ph),
	}
	for j := range p {
		p[j] = r3.Add(p[j], shift)
	}
	return p
}

func wrapPhase(ph float64) float64 {
	_, frac := math.Modf(ph)
	if frac < 0 {
		frac++
	}
	return frac
}
