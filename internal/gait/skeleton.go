package gait

import (
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	Base Joint = iota
	Neck
	Head
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftHand
	RightHand
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle
	LeftToe
	RightToe

	numJoints
)

var jointNames = [numJoints]string{
	Base:          "Base",
	Neck:          "Neck",
	Head:          "Head",
	LeftShoulder:  "Left Shoulder",
	RightShoulder: "Right Shoulder",
	LeftElbow:     "Left Elbow",
	RightElbow:    "Right Elbow",
	LeftHand:      "Left Hand",
	RightHand:     "Right Hand",
	LeftHip:       "Left Hip",
	RightHip:      "Right Hip",
	LeftKnee:      "Left Knee",
	RightKnee:     "Right Knee",
	LeftAnkle:     "Left Ankle",
	RightAnkle:    "Right Ankle",
	LeftToe:       "Left Toe",
	RightToe:      "Right Toe",
}

// Bones connects the joints into a stick figure.
var Bones = [][2]Joint{
	{Base, Neck},
	{Neck, Head},
	{Neck, LeftShoulder},
	{Neck, RightShoulder},
	{LeftShoulder, LeftElbow},
	{RightShoulder, RightElbow},
	{LeftElbow, LeftHand},
	{RightElbow, RightHand},
	{Base, LeftHip},
	{Base, RightHip},
	{LeftHip, LeftKnee},
	{RightHip, RightKnee},
	{LeftKnee, LeftAnkle},
	{RightKnee, RightAnkle},
	{LeftAnkle, LeftToe},
	{RightAnkle, RightToe},
}

// Joint is an articulation point of the walking figure. Base is the origin
// of the spine.
type Joint int

func (j Joint) String() string {
	if j < 0 || j >= numJoints {
		return "Unknown"
	}
	return jointNames[j]
}

// Joints returns all joints in index order.
func Joints() []Joint {
	joints := make([]Joint, numJoints)
	for j := range joints {
		joints[j] = Joint(j)
	}
	return joints
}

// Pose is the position of every joint at one instant.
type Pose [numJoints]r3.Vec

// Skeleton holds joint positions for every sample of a walk.
type Skeleton struct {
	SamplingRate  float64
	RadarLocation r3.Vec
	Cycle         Cycle

	poses []Pose
}

// Samples returns the number of samples.
func (s *Skeleton) Samples() int {
	return len(s.poses)
}

// Pose returns the joint positions at sample k.
func (s *Skeleton) Pose(k int) Pose {
	return s.poses[k]
}

// Joint returns the trajectory of a single joint.
func (s *Skeleton) Joint(j Joint) []r3.Vec {
	out := make([]r3.Vec, len(s.poses))
	for k := range s.poses {
		out[k] = s.poses[k][j]
	}
	return out
}

// Time returns the instant of sample k in seconds.
func (s *Skeleton) Time(k int) float64 {
	return float64(k) / s.SamplingRate
}
