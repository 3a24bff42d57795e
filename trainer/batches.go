package trainer

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Data is a feature matrix with its one-hot targets, one row per sample.
type Data struct {
	X *mat.Dense
	Y *mat.Dense
}

// Len returns the number of samples, 0 for empty data.
func (d Data) Len() int {
	if d.X == nil {
		return 0
	}
	r, _ := d.X.Dims()
	return r
}

// Rows gathers the samples at idx into a new Data, in order.
func (d Data) Rows(idx []int) Data {
	_, xc := d.X.Dims()
	_, yc := d.Y.Dims()
	x := mat.NewDense(len(idx), xc, nil)
	y := mat.NewDense(len(idx), yc, nil)
	for i, j := range idx {
		x.SetRow(i, d.X.RawRowView(j))
		y.SetRow(i, d.Y.RawRowView(j))
	}
	return Data{X: x, Y: y}
}

// Batches shuffles the indices [0, n) with rng and cuts them into batches of
// size samples. The last batch holds the remainder and may be shorter.
func Batches(n, size int, rng *rand.Rand) [][]int {
	if n <= 0 {
		return nil
	}
	if size <= 0 || size > n {
		size = n
	}
	perm := rng.Perm(n)
	out := make([][]int, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		out = append(out, perm[start:end])
	}
	return out
}
