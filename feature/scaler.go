package feature

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Scaler standardizes feature columns to zero mean and unit variance.
type Scaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// FitScaler computes per-column mean and population standard deviation of m.
// A column with zero variance gets a std of 1 so that transforming it yields
// zeros instead of dividing by zero.
func FitScaler(m mat.Matrix) *Scaler {
	_, c := m.Dims()
	s := &Scaler{
		Mean: make([]float64, c),
		Std:  make([]float64, c),
	}
	for j := 0; j < c; j++ {
		col := mat.Col(nil, j, m)
		if constant(col) {
			s.Mean[j], s.Std[j] = col[0], 1
			continue
		}
		mean, variance := stat.PopMeanVariance(col, nil)
		std := math.Sqrt(variance)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		s.Mean[j] = mean
		s.Std[j] = std
	}
	return s
}

// constant reports whether every value equals the first one. The mean of such
// a column may not round back to the value itself, so it is special-cased.
func constant(col []float64) bool {
	for _, v := range col[1:] {
		if v != col[0] {
			return false
		}
	}
	return true
}

// Transform standardizes m in place.
func (s *Scaler) Transform(m *mat.Dense) {
	m.Apply(func(_, j int, v float64) float64 {
		return (v - s.Mean[j]) / s.Std[j]
	}, m)
}

// TransformVector standardizes a single feature vector in place.
func (s *Scaler) TransformVector(v []float64) {
	for j := range v {
		v[j] = (v[j] - s.Mean[j]) / s.Std[j]
	}
}
