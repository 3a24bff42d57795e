package trainer

import (
	"github.com/belltscience/samurai/net/feedforward"
	"github.com/belltscience/samurai/parallel"
	"gonum.org/v1/gonum/mat"
)

// evaluateChunk is the number of rows one goroutine runs through the network
// at once.
const evaluateChunk = 256

// Evaluation is the mean loss and the accuracy of a network on some data.
type Evaluation struct {
	Loss     float64
	Accuracy float64
	Correct  int
	Total    int
}

// NewEvaluateFunc returns a function that evaluates net on data. The rows are
// split into fixed chunks evaluated on up to threads goroutines; the chunk
// results are summed in chunk order so the outcome doesn't depend on threads.
func NewEvaluateFunc(net *feedforward.FeedforwardNetwork, data Data, threads int) func() Evaluation {
	n := data.Len()
	chunks := (n + evaluateChunk - 1) / evaluateChunk

	return func() Evaluation {
		if n == 0 {
			return Evaluation{}
		}
		losses := make([]float64, chunks)
		correct := make([]int, chunks)
		parallel.ForEach(chunks, threads, func(c int) {
			start, end := c*evaluateChunk, (c+1)*evaluateChunk
			if end > n {
				end = n
			}
			x := data.X.Slice(start, end, 0, data.X.RawMatrix().Cols).(*mat.Dense)
			y := data.Y.Slice(start, end, 0, data.Y.RawMatrix().Cols).(*mat.Dense)
			losses[c], correct[c] = feedforward.CrossEntropy(net.Forward(x), y)
		})

		var e Evaluation
		for c := range losses {
			e.Loss += losses[c]
			e.Correct += correct[c]
		}
		e.Total = n
		e.Loss /= float64(n)
		e.Accuracy = float64(e.Correct) / float64(n)
		return e
	}
}
