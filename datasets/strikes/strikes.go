package strikes

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/belltscience/samurai/feature"
	"github.com/belltscience/samurai/logging"
)

// MetaCount is the number of auxiliary integer columns before the label.
const MetaCount = 5

// Columns is the number of columns of every data row: the meta integers, the
// label and an x,y pair for each keypoint.
const Columns = MetaCount + 1 + 2*feature.KeypointCount

const labelColumn = MetaCount

var (
	// ErrMalformedRow is returned for a row that doesn't follow the column layout.
	ErrMalformedRow = errors.New("malformed row")

	// ErrEmptyDataset is returned for a table without data rows.
	ErrEmptyDataset = errors.New("no samples")
)

// Sample is one recorded pose with its annotations.
type Sample struct {
	Keypoints feature.Pose
	Meta      [MetaCount]int
	Label     string
}

// Dataset is the parsed content of one table.
type Dataset struct {
	Samples []Sample
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.Samples)
}

// Poses returns the keypoints of every sample, in order.
func (d *Dataset) Poses() []feature.Pose {
	out := make([]feature.Pose, len(d.Samples))
	for i := range d.Samples {
		out[i] = d.Samples[i].Keypoints
	}
	return out
}

// Encode returns the len×feature.Dim feature matrix of the dataset.
func (d *Dataset) Encode(threads int) *mat.Dense {
	return feature.EncodeAll(d.Poses(), threads)
}

// Targets one-hot encodes the sample labels against classes. It also returns
// the class index of every sample.
func (d *Dataset) Targets(classes Vocabulary) (*mat.Dense, []int, error) {
	if len(d.Samples) == 0 {
		return nil, nil, ErrEmptyDataset
	}
	y := mat.NewDense(len(d.Samples), len(classes), nil)
	idx := make([]int, len(d.Samples))
	for i := range d.Samples {
		c, err := classes.Index(d.Samples[i].Label)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "sample %d", i)
		}
		y.Set(i, c, 1)
		idx[i] = c
	}
	return y, idx, nil
}

// Loader reads strike tables.
type Loader struct {
	Fs     afero.Fs
	Logger *zap.SugaredLogger
}

// Load reads the table at path.
func (l Loader) Load(path string) (*Dataset, error) {
	fs := l.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	f, err := fs.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	d, err := l.Read(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return d, nil
}

// Read parses a table from r. The first row is a header and is skipped. Any
// malformed data row fails the whole read.
func (l Loader) Read(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	// checked per row to report ErrMalformedRow with the line
	cr.FieldsPerRecord = -1

	var d Dataset
	for header := true; ; header = false {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// *csv.ParseError carries the file line
			return nil, errors.Wrap(ErrMalformedRow, err.Error())
		}
		if header {
			continue
		}
		s, err := parseSample(rec)
		if err != nil {
			line, _ := cr.FieldPos(0)
			return nil, errors.Wrapf(err, "line %d", line)
		}
		d.Samples = append(d.Samples, s)
	}
	if len(d.Samples) == 0 {
		return nil, ErrEmptyDataset
	}

	log := logging.OrNop(l.Logger)
	log.Infow("loaded training data",
		"samples", humanize.Comma(int64(len(d.Samples))),
		"features", feature.Dim)
	return &d, nil
}

func parseSample(rec []string) (s Sample, err error) {
	if len(rec) != Columns {
		return s, errors.Wrapf(ErrMalformedRow, "%d columns, want %d", len(rec), Columns)
	}
	for i := 0; i < MetaCount; i++ {
		if s.Meta[i], err = atoi(rec, i); err != nil {
			return s, err
		}
	}
	s.Label = rec[labelColumn]
	for k := 0; k < feature.KeypointCount; k++ {
		col := labelColumn + 1 + 2*k
		if s.Keypoints[k].X, err = atoi(rec, col); err != nil {
			return s, err
		}
		if s.Keypoints[k].Y, err = atoi(rec, col+1); err != nil {
			return s, err
		}
	}
	return s, nil
}

func atoi(rec []string, col int) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(rec[col]))
	if err != nil {
		return 0, errors.Wrapf(ErrMalformedRow, "column %d: %q is not an integer", col, rec[col])
	}
	return v, nil
}

// Header returns column names for a table in the layout Read expects.
func Header() []string {
	cols := make([]string, 0, Columns)
	for i := 0; i < MetaCount; i++ {
		cols = append(cols, "meta"+strconv.Itoa(i))
	}
	cols = append(cols, "label")
	for k := 0; k < feature.KeypointCount; k++ {
		n := strconv.Itoa(k)
		cols = append(cols, "x"+n, "y"+n)
	}
	return cols
}

// WriteCSV writes the dataset as a table that Read parses back.
func (d *Dataset) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return err
	}
	rec := make([]string, Columns)
	for _, s := range d.Samples {
		for i, m := range s.Meta {
			rec[i] = strconv.Itoa(m)
		}
		rec[labelColumn] = s.Label
		for k, p := range s.Keypoints {
			col := labelColumn + 1 + 2*k
			rec[col] = strconv.Itoa(p.X)
			rec[col+1] = strconv.Itoa(p.Y)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
