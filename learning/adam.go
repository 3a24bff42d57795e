package learning

import "math"

// Adam keeps the moment estimates of every parameter slice it updates. Slices
// are identified by the order in which they are passed to Step, which must be
// the same on every call.
type Adam struct {
	h HyperParameters
	t int
	m [][]float64
	v [][]float64
}

// NewAdam creates an optimizer with the step size and decay rates of h.
func (h *HyperParameters) NewAdam() *Adam {
	return &Adam{h: *h}
}

// Iterations returns the number of steps taken so far.
func (a *Adam) Iterations() int {
	return a.t
}

// Step applies one update to params given their gradients. params[i] and
// grads[i] must have the same length.
func (a *Adam) Step(params, grads [][]float64) {
	if a.m == nil {
		a.m = make([][]float64, len(params))
		a.v = make([][]float64, len(params))
		for i := range params {
			a.m[i] = make([]float64, len(params[i]))
			a.v[i] = make([]float64, len(params[i]))
		}
	}
	a.t++
	b1, b2 := a.h.Beta1, a.h.Beta2
	lr := a.h.LearningRate * math.Sqrt(1-math.Pow(b2, float64(a.t))) / (1 - math.Pow(b1, float64(a.t)))
	eps := a.h.Epsilon

	for i, p := range params {
		g, m, v := grads[i], a.m[i], a.v[i]
		for j := range p {
			m[j] = b1*m[j] + (1-b1)*g[j]
			v[j] = b2*v[j] + (1-b2)*g[j]*g[j]
			p[j] -= lr * m[j] / (math.Sqrt(v[j]) + eps)
		}
	}
}
