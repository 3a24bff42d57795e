package strikes

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/belltscience/samurai/feature"
)

func header() string {
	cols := []string{"m0", "m1", "m2", "m3", "m4", "label"}
	for k := 0; k < feature.KeypointCount; k++ {
		cols = append(cols, fmt.Sprintf("x%d", k), fmt.Sprintf("y%d", k))
	}
	return strings.Join(cols, ",")
}

func row(meta [MetaCount]int, label string, p feature.Pose) string {
	var cols []string
	for _, m := range meta {
		cols = append(cols, fmt.Sprint(m))
	}
	cols = append(cols, label)
	for _, k := range p {
		cols = append(cols, fmt.Sprint(k.X), fmt.Sprint(k.Y))
	}
	return strings.Join(cols, ",")
}

func scenarioPose() (p feature.Pose) {
	p[feature.LeftHand] = feature.Keypoint{X: 0, Y: 0}
	p[feature.RightHand] = feature.Keypoint{X: 10, Y: 0}
	p[feature.LeftFoot] = feature.Keypoint{X: 0, Y: 10}
	p[feature.RightFoot] = feature.Keypoint{X: 10, Y: 10}
	p[feature.LeftShoulder] = feature.Keypoint{X: 4, Y: 0}
	p[feature.RightShoulder] = feature.Keypoint{X: 6, Y: 0}
	p[feature.LeftHip] = feature.Keypoint{X: 4, Y: 10}
	p[feature.RightHip] = feature.Keypoint{X: 6, Y: 10}
	return
}

func TestLoadSingleRow(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := header() + "\n" + row([MetaCount]int{}, "突き", scenarioPose()) + "\n"
	require.NoError(t, afero.WriteFile(fs, "/data/strikes.csv", []byte(content), 0644))

	d, err := Loader{Fs: fs}.Load("/data/strikes.csv")
	require.NoError(t, err)
	require.Equal(t, 1, d.Len())

	s := d.Samples[0]
	assert.Equal(t, "突き", s.Label)
	assert.Equal(t, [MetaCount]int{}, s.Meta)
	assert.Equal(t, scenarioPose(), s.Keypoints)

	m := d.Encode(2)
	r, c := m.Dims()
	require.Equal(t, 1, r)
	require.Equal(t, feature.Dim, c)

	// shoulder midpoint (5, 0), lower torso ((4+6+2*(4+6))/6, (0+0+2*(10+10))/6)
	sx, sy := 5.0, 0.0
	tx, ty := 30.0/6, 40.0/6
	d2 := func(ax, ay, bx, by float64) float64 {
		return math.Sqrt((ax-bx)*(ax-bx) + (ay-by)*(ay-by))
	}
	want := []float64{
		d2(sx, sy, 0, 0),
		d2(sx, sy, 10, 0),
		d2(tx, ty, 0, 0),
		d2(tx, ty, 10, 0),
		d2(sx, sy, 0, 10),
		d2(sx, sy, 10, 10),
		d2(tx, ty, 0, 10),
		d2(tx, ty, 10, 10),
	}
	for j, w := range want {
		assert.InDelta(t, w, m.At(0, j), 1e-12, "feature %d", j)
	}

	y, idx, err := d.Targets(Categories)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, idx)
	assert.Equal(t, 1.0, y.At(0, 0))
}

func TestReadMeta(t *testing.T) {
	content := header() + "\n" + row([MetaCount]int{1, 0, 1, 0, 3}, "正蹴り", scenarioPose())
	d, err := Loader{}.Read(strings.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, [MetaCount]int{1, 0, 1, 0, 3}, d.Samples[0].Meta)
	assert.Equal(t, "正蹴り", d.Samples[0].Label)
}

func TestReadShortRow(t *testing.T) {
	good := row([MetaCount]int{}, "突き", scenarioPose())
	short := good[:strings.LastIndex(good, ",")]
	content := header() + "\n" + good + "\n" + short + "\n"

	_, err := Loader{}.Read(strings.NewReader(content))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedRow), err.Error())
	assert.Contains(t, err.Error(), "line 3")
}

func TestReadShortRowAfterBlankLines(t *testing.T) {
	good := row([MetaCount]int{}, "突き", scenarioPose())
	short := good[:strings.LastIndex(good, ",")]
	content := header() + "\n\n" + good + "\n\n" + short + "\n"

	_, err := Loader{}.Read(strings.NewReader(content))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedRow), err.Error())
	assert.Contains(t, err.Error(), "line 5")
}

func TestReadSpacedNumbers(t *testing.T) {
	p := scenarioPose()
	var coords []string
	for _, k := range p {
		coords = append(coords, fmt.Sprintf(" %d", k.X), fmt.Sprintf("%d ", k.Y))
	}
	spaced := " 1, 0 ,1, 0,3,正蹴り," + strings.Join(coords, ",")

	d, err := Loader{}.Read(strings.NewReader(header() + "\n" + spaced + "\n"))
	require.NoError(t, err)
	require.Equal(t, 1, d.Len())
	assert.Equal(t, [MetaCount]int{1, 0, 1, 0, 3}, d.Samples[0].Meta)
	assert.Equal(t, "正蹴り", d.Samples[0].Label)
	assert.Equal(t, p, d.Samples[0].Keypoints)
}

func TestReadNonNumeric(t *testing.T) {
	good := row([MetaCount]int{}, "突き", scenarioPose())
	for _, bad := range []string{
		"x" + good[1:],
		good[:len(good)-2] + ",y",
		strings.Replace(good, ",突き,0,", ",突き,1.5,", 1),
	} {
		_, err := Loader{}.Read(strings.NewReader(header() + "\n" + bad))
		assert.True(t, errors.Is(err, ErrMalformedRow), "%q: %v", bad, err)
	}
}

func TestReadHeaderOnly(t *testing.T) {
	_, err := Loader{}.Read(strings.NewReader(header() + "\n"))
	assert.True(t, errors.Is(err, ErrEmptyDataset))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Loader{Fs: afero.NewMemMapFs()}.Load("/nope.csv")
	assert.Error(t, err)
}

func TestTargetsUnknownLabel(t *testing.T) {
	content := header() + "\n" + row([MetaCount]int{}, "頭突き", scenarioPose())
	d, err := Loader{}.Read(strings.NewReader(content))
	require.NoError(t, err)
	_, _, err = d.Targets(Categories)
	assert.True(t, errors.Is(err, ErrUnknownLabel))
}

func TestVocabularies(t *testing.T) {
	assert.Len(t, Categories, 5)
	assert.Len(t, Positions, 2)
	assert.Len(t, Arrows, 2)
	assert.Len(t, Statuses, 2)

	i, err := Categories.Index("裏回し蹴り")
	require.NoError(t, err)
	assert.Equal(t, 2, i)
	assert.Equal(t, "裏回し蹴り", Categories.Name(2))
	assert.Equal(t, "", Categories.Name(5))
	assert.Equal(t, "", Statuses.Name(-1))
}

func TestWriteCSVRoundTrip(t *testing.T) {
	p := scenarioPose()
	d := &Dataset{Samples: []Sample{
		{Keypoints: p, Meta: [MetaCount]int{1, 2, 3, 4, 5}, Label: "正蹴り"},
		{Keypoints: p.Scaled(2), Label: "なし"},
	}}
	var buf strings.Builder
	require.NoError(t, d.WriteCSV(&buf))
	assert.True(t, strings.HasPrefix(buf.String(), "meta0,meta1,meta2,meta3,meta4,label,x0,y0,"))
	assert.Len(t, Header(), Columns)

	back, err := Loader{}.Read(strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, d.Samples, back.Samples)
}
