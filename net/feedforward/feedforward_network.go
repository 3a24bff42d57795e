// Package feedforward implements a fully connected feedforward network type
package feedforward

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Activation is the nonlinearity applied to a layer output.
type Activation string

const (
	Linear  Activation = "linear"
	ReLU    Activation = "relu"
	Softmax Activation = "softmax"
)

// Dense is a fully connected layer. Kernel is inputs×Units, in the same
// layout as a Keras Dense kernel.
type Dense struct {
	Units      int
	Activation Activation
	Kernel     *mat.Dense
	Bias       []float64
}

// FeedforwardNetwork is the feedforward network
type FeedforwardNetwork struct {
	inputs int
	layers []Dense
}

// NewLayer adds a dense layer with units outputs to the end of network.
// Weights are allocated by Init.
func (f *FeedforwardNetwork) NewLayer(units int, activation Activation) {
	f.layers = append(f.layers, Dense{Units: units, Activation: activation})
}

// Len returns the number of layers.
func (f FeedforwardNetwork) Len() int {
	return len(f.layers)
}

// Inputs returns the width of the network input, 0 before Init.
func (f FeedforwardNetwork) Inputs() int {
	return f.inputs
}

// GetLayer gets the n-th layer pointer in the network, nil when out of range.
func (f FeedforwardNetwork) GetLayer(n int) *Dense {
	if n < 0 || n >= len(f.layers) {
		return nil
	}
	return &f.layers[n]
}

// GetClasses returns the width of the final layer.
func (f FeedforwardNetwork) GetClasses() int {
	if len(f.layers) == 0 {
		return 0
	}
	return f.layers[len(f.layers)-1].Units
}

// Validate checks that the layer stack can be trained with a softmax cross
// entropy objective.
func (f FeedforwardNetwork) Validate() error {
	if len(f.layers) == 0 {
		return errors.New("network has no layers")
	}
	for i, l := range f.layers {
		if l.Units <= 0 {
			return errors.Errorf("layer %d has %d units", i, l.Units)
		}
		switch l.Activation {
		case Linear, ReLU:
			if i == len(f.layers)-1 {
				return errors.Errorf("final layer activation is %s, want %s", l.Activation, Softmax)
			}
		case Softmax:
			if i != len(f.layers)-1 {
				return errors.Errorf("layer %d: %s is only supported on the final layer", i, Softmax)
			}
		default:
			return errors.Errorf("layer %d: unsupported activation %q", i, l.Activation)
		}
	}
	return nil
}

// Init allocates the weights for inputs input features. Kernels are drawn
// from the Glorot uniform distribution and biases start at zero.
func (f *FeedforwardNetwork) Init(inputs int, rng *rand.Rand) error {
	if inputs <= 0 {
		return errors.Errorf("network needs at least one input, got %d", inputs)
	}
	if err := f.Validate(); err != nil {
		return err
	}
	f.inputs = inputs
	in := inputs
	for i := range f.layers {
		l := &f.layers[i]
		limit := math.Sqrt(6 / float64(in+l.Units))
		data := make([]float64, in*l.Units)
		for j := range data {
			data[j] = (2*rng.Float64() - 1) * limit
		}
		l.Kernel = mat.NewDense(in, l.Units, data)
		l.Bias = make([]float64, l.Units)
		in = l.Units
	}
	return nil
}

// Params returns the trainable parameter slices in a fixed order: kernel and
// bias of every layer, first layer first. The slices alias the network.
func (f FeedforwardNetwork) Params() [][]float64 {
	out := make([][]float64, 0, 2*len(f.layers))
	for i := range f.layers {
		out = append(out, f.layers[i].Kernel.RawMatrix().Data, f.layers[i].Bias)
	}
	return out
}

// CopyWeights overwrites the weights of f with those of src. Both networks
// must have the same topology.
func (f *FeedforwardNetwork) CopyWeights(src *FeedforwardNetwork) error {
	if f.inputs != src.inputs || len(f.layers) != len(src.layers) {
		return errors.Wrapf(ErrBadModel, "topology mismatch: %d inputs %d layers vs %d inputs %d layers",
			f.inputs, len(f.layers), src.inputs, len(src.layers))
	}
	for i := range f.layers {
		d, s := &f.layers[i], &src.layers[i]
		if d.Units != s.Units || d.Activation != s.Activation {
			return errors.Wrapf(ErrBadModel, "layer %d: %d %s vs %d %s", i, d.Units, d.Activation, s.Units, s.Activation)
		}
		d.Kernel.Copy(s.Kernel)
		copy(d.Bias, s.Bias)
	}
	return nil
}

// forward computes the layer outputs of the batch x, one row per sample.
// acts[0] is x and acts[i+1] is the output of layer i.
func (f FeedforwardNetwork) forward(x mat.Matrix) []mat.Matrix {
	acts := make([]mat.Matrix, len(f.layers)+1)
	acts[0] = x
	for i := range f.layers {
		l := &f.layers[i]
		var z mat.Dense
		z.Mul(acts[i], l.Kernel)
		r, _ := z.Dims()
		for n := 0; n < r; n++ {
			row := z.RawRowView(n)
			for j := range row {
				row[j] += l.Bias[j]
			}
			activate(l.Activation, row)
		}
		acts[i+1] = &z
	}
	return acts
}

// Forward returns the network output for the batch x.
func (f FeedforwardNetwork) Forward(x mat.Matrix) *mat.Dense {
	acts := f.forward(x)
	return acts[len(acts)-1].(*mat.Dense)
}

// Infer returns the class probabilities of one input vector.
func (f FeedforwardNetwork) Infer(input []float64) []float64 {
	out := f.Forward(mat.NewDense(1, len(input), append([]float64(nil), input...)))
	return append([]float64(nil), out.RawRowView(0)...)
}

// Predict returns the most probable class of one input vector.
func (f FeedforwardNetwork) Predict(input []float64) int {
	return argmax(f.Infer(input))
}

func activate(a Activation, row []float64) {
	switch a {
	case ReLU:
		for j, v := range row {
			if v < 0 {
				row[j] = 0
			}
		}
	case Softmax:
		hi := math.Inf(-1)
		for _, v := range row {
			if v > hi {
				hi = v
			}
		}
		var sum float64
		for j, v := range row {
			row[j] = math.Exp(v - hi)
			sum += row[j]
		}
		for j := range row {
			row[j] /= sum
		}
	}
}

func argmax(row []float64) int {
	best := 0
	for j, v := range row {
		if v > row[best] {
			best = j
		}
	}
	return best
}
