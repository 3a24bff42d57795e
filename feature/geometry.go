// Package feature turns a tracked body pose into the distance features the
// strike classifier is trained on.
package feature

import "math"

// KeypointCount is the number of landmarks in one tracked pose.
const KeypointCount = 34

// Landmark indices used by the M-FC v1 encoding.
const (
	LeftHand      = 9
	RightHand     = 10
	LeftFoot      = 15
	RightFoot     = 16
	LeftShoulder  = 22
	RightShoulder = 23
	LeftHip       = 28
	RightHip      = 29
)

// Keypoint is a landmark in pixel coordinates.
type Keypoint struct {
	X, Y int
}

// Pose is the ordered set of landmarks of one sample.
type Pose [KeypointCount]Keypoint

// Point is a position in pixel space that may fall between pixels.
type Point struct {
	X, Y float64
}

// At returns keypoint n as a Point.
func (p *Pose) At(n int) Point {
	return Point{X: float64(p[n].X), Y: float64(p[n].Y)}
}

// Scaled returns a copy of p with every coordinate multiplied by k.
func (p *Pose) Scaled(k int) Pose {
	q := *p
	for i := range q {
		q[i].X *= k
		q[i].Y *= k
	}
	return q
}

// ShoulderMidpoint is the midpoint of the two shoulder landmarks.
func ShoulderMidpoint(p *Pose) Point {
	return Point{
		X: float64(p[LeftShoulder].X+p[RightShoulder].X) / 2,
		Y: float64(p[LeftShoulder].Y+p[RightShoulder].Y) / 2,
	}
}

// TorsoMidpoint approximates the lower torso: both shoulders with weight 1
// and both hips with weight 2.
func TorsoMidpoint(p *Pose) Point {
	return Point{
		X: float64(p[LeftShoulder].X+p[RightShoulder].X+(p[LeftHip].X+p[RightHip].X)*2) / 6,
		Y: float64(p[LeftShoulder].Y+p[RightShoulder].Y+(p[LeftHip].Y+p[RightHip].Y)*2) / 6,
	}
}

// Distance is the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return math.Sqrt(dx*dx + dy*dy)
}
