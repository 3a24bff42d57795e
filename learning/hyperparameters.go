// Package learning implements the optimizer used to fit the dense network.
package learning

// HyperParameters configure a training run.
type HyperParameters struct {
	LearningRate float64 // Adam step size
	Beta1        float64 // decay of the first moment estimate
	Beta2        float64 // decay of the second moment estimate
	Epsilon      float64 // added to the denominator of every update

	Epochs    int // passes over the training partition
	BatchSize int // samples per gradient step

	Seed int64 // seeds the split, the weight init and the batch order

	Threads int // goroutines for data parallel work, 0 means one
}

// Default returns the hyper-parameters of the reference training recipe.
func Default() HyperParameters {
	return HyperParameters{
		LearningRate: 0.001,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      1e-7,
		Epochs:       150,
		BatchSize:    32,
	}
}
