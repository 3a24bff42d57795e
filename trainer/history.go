package trainer

import (
	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// HistoryFile is the name of the per-epoch metrics table in an export directory.
const HistoryFile = "history.csv"

// EpochMetrics are the metrics of one finished epoch.
type EpochMetrics struct {
	Epoch   int     `csv:"epoch"`
	Loss    float64 `csv:"loss"`
	Acc     float64 `csv:"acc"`
	ValLoss float64 `csv:"val_loss"`
	ValAcc  float64 `csv:"val_acc"`
	Seconds float64 `csv:"seconds"`
}

// History collects the metrics of a training run, one entry per epoch.
type History []EpochMetrics

// Last returns the metrics of the final epoch, zero when empty.
func (h History) Last() EpochMetrics {
	if len(h) == 0 {
		return EpochMetrics{}
	}
	return h[len(h)-1]
}

// WriteCSV writes the history as a CSV table with a header row.
func (h History) WriteCSV(fs afero.Fs, path string) error {
	f, err := fs.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer f.Close()

	rows := []EpochMetrics(h)
	if err := gocsv.Marshal(&rows, f); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return f.Close()
}

// ReadHistory reads a table written by WriteCSV.
func ReadHistory(fs afero.Fs, path string) (History, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	var rows []EpochMetrics
	if err := gocsv.Unmarshal(f, &rows); err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return History(rows), nil
}
