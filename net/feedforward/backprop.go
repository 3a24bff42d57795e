package feedforward

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// epsilon bounds predicted probabilities away from 0 and 1 in the loss.
const epsilon = 1e-7

// Gradients holds one gradient buffer per trainable parameter slice.
type Gradients struct {
	kernels []*mat.Dense
	biases  [][]float64
}

// NewGradients allocates gradient buffers matching the network weights.
func (f FeedforwardNetwork) NewGradients() *Gradients {
	g := &Gradients{
		kernels: make([]*mat.Dense, len(f.layers)),
		biases:  make([][]float64, len(f.layers)),
	}
	for i := range f.layers {
		r, c := f.layers[i].Kernel.Dims()
		g.kernels[i] = mat.NewDense(r, c, nil)
		g.biases[i] = make([]float64, c)
	}
	return g
}

// Slices returns the buffers in the order of FeedforwardNetwork.Params.
func (g *Gradients) Slices() [][]float64 {
	out := make([][]float64, 0, 2*len(g.kernels))
	for i := range g.kernels {
		out = append(out, g.kernels[i].RawMatrix().Data, g.biases[i])
	}
	return out
}

// CrossEntropy returns the summed categorical cross entropy of the predicted
// probabilities p against the one-hot targets y, and the number of rows whose
// most probable class matches the target.
func CrossEntropy(p, y mat.Matrix) (loss float64, correct int) {
	r, c := p.Dims()
	for i := 0; i < r; i++ {
		best, want := 0, 0
		for j := 0; j < c; j++ {
			pv, yv := p.At(i, j), y.At(i, j)
			if yv != 0 {
				loss -= yv * math.Log(math.Min(math.Max(pv, epsilon), 1-epsilon))
			}
			if pv > p.At(i, best) {
				best = j
			}
			if yv > y.At(i, want) {
				want = j
			}
		}
		if best == want {
			correct++
		}
	}
	return
}

// Backward runs the batch x with one-hot targets y through the network and
// stores the gradient of the mean cross entropy loss in g. It returns the
// summed loss and the number of correctly classified rows of the batch.
func (f FeedforwardNetwork) Backward(x, y mat.Matrix, g *Gradients) (loss float64, correct int) {
	acts := f.forward(x)
	out := acts[len(acts)-1]
	loss, correct = CrossEntropy(out, y)

	b, _ := x.Dims()
	delta := new(mat.Dense)
	delta.Sub(out, y)
	delta.Scale(1/float64(b), delta)

	for i := len(f.layers) - 1; i >= 0; i-- {
		g.kernels[i].Mul(acts[i].T(), delta)
		bias := g.biases[i]
		for j := range bias {
			bias[j] = 0
		}
		for n := 0; n < b; n++ {
			for j, v := range delta.RawRowView(n) {
				bias[j] += v
			}
		}
		if i == 0 {
			break
		}

		prev := new(mat.Dense)
		prev.Mul(delta, f.layers[i].Kernel.T())
		if f.layers[i-1].Activation == ReLU {
			a := acts[i].(*mat.Dense)
			for n := 0; n < b; n++ {
				ar, pr := a.RawRowView(n), prev.RawRowView(n)
				for j := range pr {
					if ar[j] <= 0 {
						pr[j] = 0
					}
				}
			}
		}
		delta = prev
	}
	return
}
