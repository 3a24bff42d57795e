package feature

import (
	"gonum.org/v1/gonum/mat"

	"github.com/belltscience/samurai/parallel"
)

// Dim is the length of an M-FC v1 feature vector.
const Dim = 8

// Version identifies the encoding in exported model metadata.
const Version = "M-FC v1"

// Vector holds the encoded distances of one pose.
type Vector [Dim]float64

// Names are human readable labels of the vector entries, in order.
var Names = [Dim]string{
	"left hand to shoulder",
	"right hand to shoulder",
	"left hand to lower torso",
	"right hand to lower torso",
	"left foot to shoulder",
	"right foot to shoulder",
	"left foot to lower torso",
	"right foot to lower torso",
}

// Encode computes the distance features of a pose.
func Encode(p *Pose) (v Vector) {
	shoulder := ShoulderMidpoint(p)
	torso := TorsoMidpoint(p)

	v[0] = Distance(shoulder, p.At(LeftHand))
	v[1] = Distance(shoulder, p.At(RightHand))
	v[2] = Distance(torso, p.At(LeftHand))
	// index 3 used to be documented as the left hand, the keypoint has always been the right one
	v[3] = Distance(torso, p.At(RightHand))
	v[4] = Distance(shoulder, p.At(LeftFoot))
	v[5] = Distance(shoulder, p.At(RightFoot))
	v[6] = Distance(torso, p.At(LeftFoot))
	v[7] = Distance(torso, p.At(RightFoot))
	return
}

// EncodeAll encodes every pose into one row of a len(poses)×Dim matrix,
// using up to threads goroutines. It returns nil for an empty input.
func EncodeAll(poses []Pose, threads int) *mat.Dense {
	if len(poses) == 0 {
		return nil
	}
	data := make([]float64, len(poses)*Dim)
	parallel.ForEach(len(poses), threads, func(i int) {
		v := Encode(&poses[i])
		copy(data[i*Dim:(i+1)*Dim], v[:])
	})
	return mat.NewDense(len(poses), Dim, data)
}
