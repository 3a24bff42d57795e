package trainer

import (
	"fmt"
	"io"

	"github.com/cheggaaa/pb/v3"
)

const progressTemplate = `{{ string . "prefix" }} {{counters . "%s/%s" "%s/?"}} {{bar . }} {{percent . "%.01f%%" "?"}} {{etime . "%s elapsed"}} {{rtime . "%s remain" "%s total" "???"}}`

// progress is a per-epoch batch counter. The zero value discards updates.
type progress struct {
	bar *pb.ProgressBar
}

func newProgress(w io.Writer, batches, epoch, epochs int) progress {
	if w == nil {
		return progress{}
	}
	bar := pb.ProgressBarTemplate(progressTemplate).New(batches)
	bar.SetWriter(w)
	bar.Set("prefix", fmt.Sprintf("epoch %d/%d", epoch, epochs))
	return progress{bar: bar.Start()}
}

func (p progress) Increment() {
	if p.bar != nil {
		p.bar.Increment()
	}
}

func (p progress) Finish() {
	if p.bar != nil {
		p.bar.Finish()
	}
}
