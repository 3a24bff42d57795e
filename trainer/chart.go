package trainer

import (
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// ChartFile is the name of the rendered history in an export directory.
const ChartFile = "history.html"

func (h History) lineChart(title string, train, val func(EpochMetrics) float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  "900px",
			Height: "400px",
		}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	epochs := make([]string, len(h))
	trainData := make([]opts.LineData, len(h))
	valData := make([]opts.LineData, len(h))
	for i, m := range h {
		epochs[i] = strconv.Itoa(m.Epoch)
		trainData[i] = opts.LineData{Value: train(m)}
		valData[i] = opts.LineData{Value: val(m)}
	}
	line.SetXAxis(epochs).
		AddSeries("train", trainData).
		AddSeries("validation", valData).
		SetSeriesOptions(charts.WithLabelOpts(opts.Label{Show: opts.Bool(false)}))
	return line
}

// RenderHTML writes loss and accuracy curves of the history as an HTML page.
func (h History) RenderHTML(w io.Writer) error {
	page := components.NewPage()
	page.PageTitle = "training history"
	page.AddCharts(
		h.lineChart("loss",
			func(m EpochMetrics) float64 { return m.Loss },
			func(m EpochMetrics) float64 { return m.ValLoss }),
		h.lineChart("accuracy",
			func(m EpochMetrics) float64 { return m.Acc },
			func(m EpochMetrics) float64 { return m.ValAcc }),
	)
	return page.Render(w)
}

// WriteHTML renders the history to path.
func (h History) WriteHTML(fs afero.Fs, path string) error {
	f, err := fs.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer f.Close()
	if err := h.RenderHTML(f); err != nil {
		return errors.Wrapf(err, "rendering %s", path)
	}
	return f.Close()
}
