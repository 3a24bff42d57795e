package feature

import (
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Summary describes the distribution of one feature column.
type Summary struct {
	Name   string  `csv:"feature"`
	Min    float64 `csv:"min"`
	Max    float64 `csv:"max"`
	Mean   float64 `csv:"mean"`
	Median float64 `csv:"median"`
	Std    float64 `csv:"std"`
}

// Describe summarizes every column of m. Columns beyond the named features
// are reported without a name.
func Describe(m mat.Matrix) ([]Summary, error) {
	_, c := m.Dims()
	out := make([]Summary, c)
	for j := 0; j < c; j++ {
		col := stats.Float64Data(mat.Col(nil, j, m))
		var s Summary
		if j < len(Names) {
			s.Name = Names[j]
		}
		var err error
		if s.Min, err = col.Min(); err != nil {
			return nil, errors.Wrapf(err, "column %d min", j)
		}
		if s.Max, err = col.Max(); err != nil {
			return nil, errors.Wrapf(err, "column %d max", j)
		}
		if s.Mean, err = col.Mean(); err != nil {
			return nil, errors.Wrapf(err, "column %d mean", j)
		}
		if s.Median, err = col.Median(); err != nil {
			return nil, errors.Wrapf(err, "column %d median", j)
		}
		if s.Std, err = col.StandardDeviationPopulation(); err != nil {
			return nil, errors.Wrapf(err, "column %d std", j)
		}
		out[j] = s
	}
	return out, nil
}
