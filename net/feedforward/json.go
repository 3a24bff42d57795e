package feedforward

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gonum.org/v1/gonum/mat"
)

// ModelFile is the name of the topology and manifest file of an exported model.
const ModelFile = "model.json"

// DefaultShardBytes is the weight shard size used by the TensorFlow.js converter.
const DefaultShardBytes = 4 << 20

// ErrBadModel is returned when an exported model can't be mapped back onto a network.
var ErrBadModel = errors.New("bad model")

// ModelJSON is the layers-model format understood by tf.loadLayersModel.
type ModelJSON struct {
	Format              string          `json:"format"`
	GeneratedBy         string          `json:"generatedBy"`
	ConvertedBy         *string         `json:"convertedBy"`
	ModelTopology       Topology        `json:"modelTopology"`
	WeightsManifest     []WeightGroup   `json:"weightsManifest"`
	UserDefinedMetadata json.RawMessage `json:"userDefinedMetadata,omitempty"`
}

// Topology is a Keras Sequential model description.
type Topology struct {
	ClassName    string         `json:"class_name"`
	Config       SequentialSpec `json:"config"`
	KerasVersion string         `json:"keras_version"`
	Backend      string         `json:"backend"`
}

// SequentialSpec lists the layers of a Sequential model.
type SequentialSpec struct {
	Name   string      `json:"name"`
	Layers []LayerSpec `json:"layers"`
}

// LayerSpec is one Keras layer.
type LayerSpec struct {
	ClassName string    `json:"class_name"`
	Config    DenseSpec `json:"config"`
}

// Initializer names a Keras weight initializer.
type Initializer struct {
	ClassName string                 `json:"class_name"`
	Config    map[string]interface{} `json:"config"`
}

// DenseSpec is the config of a Keras Dense layer.
type DenseSpec struct {
	Name                string      `json:"name"`
	Trainable           bool        `json:"trainable"`
	BatchInputShape     []*int      `json:"batch_input_shape,omitempty"`
	Dtype               string      `json:"dtype"`
	Units               int         `json:"units"`
	Activation          string      `json:"activation"`
	UseBias             bool        `json:"use_bias"`
	KernelInitializer   Initializer `json:"kernel_initializer"`
	BiasInitializer     Initializer `json:"bias_initializer"`
	KernelRegularizer   interface{} `json:"kernel_regularizer"`
	BiasRegularizer     interface{} `json:"bias_regularizer"`
	ActivityRegularizer interface{} `json:"activity_regularizer"`
	KernelConstraint    interface{} `json:"kernel_constraint"`
	BiasConstraint      interface{} `json:"bias_constraint"`
}

// WeightGroup is one entry of the weights manifest: the shard files and the
// tensors packed into them, in order.
type WeightGroup struct {
	Paths   []string     `json:"paths"`
	Weights []WeightSpec `json:"weights"`
}

// WeightSpec describes one packed tensor.
type WeightSpec struct {
	Name  string `json:"name"`
	Shape []int  `json:"shape"`
	Dtype string `json:"dtype"`
}

// ExportOptions tune WriteLayersModelToDir.
type ExportOptions struct {
	ShardBytes  int         // maximum size of one weight shard, DefaultShardBytes when 0
	GeneratedBy string      // free form producer string
	Metadata    interface{} // stored as userDefinedMetadata when not nil
}

func layerName(i int) string {
	if i == 0 {
		return "dense"
	}
	return fmt.Sprintf("dense_%d", i)
}

// Topology returns the Keras description of the network.
func (f FeedforwardNetwork) Topology() Topology {
	t := Topology{
		ClassName:    "Sequential",
		Config:       SequentialSpec{Name: "sequential"},
		KerasVersion: "2.4.0",
		Backend:      "tensorflow",
	}
	for i, l := range f.layers {
		spec := DenseSpec{
			Name:              layerName(i),
			Trainable:         true,
			Dtype:             "float32",
			Units:             l.Units,
			Activation:        string(l.Activation),
			UseBias:           true,
			KernelInitializer: Initializer{ClassName: "GlorotUniform", Config: map[string]interface{}{"seed": nil}},
			BiasInitializer:   Initializer{ClassName: "Zeros", Config: map[string]interface{}{}},
		}
		if i == 0 {
			in := f.inputs
			spec.BatchInputShape = []*int{nil, &in}
		}
		t.Config.Layers = append(t.Config.Layers, LayerSpec{ClassName: "Dense", Config: spec})
	}
	return t
}

// WeightSpecs lists the packed tensors in the order WriteWeights emits them.
func (f FeedforwardNetwork) WeightSpecs() []WeightSpec {
	var out []WeightSpec
	in := f.inputs
	for i, l := range f.layers {
		out = append(out,
			WeightSpec{Name: layerName(i) + "/kernel", Shape: []int{in, l.Units}, Dtype: "float32"},
			WeightSpec{Name: layerName(i) + "/bias", Shape: []int{l.Units}, Dtype: "float32"},
		)
		in = l.Units
	}
	return out
}

// weightBytes returns the size of the packed float32 weights.
func (f FeedforwardNetwork) weightBytes() int64 {
	var n int64
	for _, p := range f.Params() {
		n += 4 * int64(len(p))
	}
	return n
}

// WriteWeights writes model weights to a writer as little-endian float32,
// kernel (row-major) then bias of every layer.
func (f FeedforwardNetwork) WriteWeights(w io.Writer) error {
	bw := bufio.NewWriter(w)
	var buf [4]byte
	for _, p := range f.Params() {
		for _, v := range p {
			binary.LittleEndian.PutUint32(buf[:], math.Float32bits(float32(v)))
			if _, err := bw.Write(buf[:]); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// shardWriter spreads writes over consecutive files of at most size bytes.
type shardWriter struct {
	fs    afero.Fs
	dir   string
	names []string
	size  int64
	n     int64
	cur   afero.File
	next  int
}

func (s *shardWriter) Write(p []byte) (written int, err error) {
	for len(p) > 0 {
		if s.cur == nil || s.n == s.size {
			if err := s.rotate(); err != nil {
				return written, err
			}
		}
		chunk := p
		if room := s.size - s.n; int64(len(chunk)) > room {
			chunk = chunk[:room]
		}
		k, err := s.cur.Write(chunk)
		written += k
		s.n += int64(k)
		if err != nil {
			return written, err
		}
		p = p[k:]
	}
	return written, nil
}

func (s *shardWriter) rotate() error {
	if err := s.Close(); err != nil {
		return err
	}
	if s.next >= len(s.names) {
		return errors.New("weights exceed the planned shards")
	}
	f, err := s.fs.Create(filepath.Join(s.dir, s.names[s.next]))
	if err != nil {
		return err
	}
	s.cur, s.n = f, 0
	s.next++
	return nil
}

func (s *shardWriter) Close() error {
	if s.cur == nil {
		return nil
	}
	err := s.cur.Close()
	s.cur = nil
	return err
}

// WriteLayersModelToDir writes the network as a TensorFlow.js layers-model
// into dir: model.json plus group1-shard*of*.bin weight files. It returns the
// total number of weight bytes written.
func (f FeedforwardNetwork) WriteLayersModelToDir(fs afero.Fs, dir string, opts ExportOptions) (int64, error) {
	if f.inputs == 0 {
		return 0, errors.New("network is not initialised")
	}
	shard := int64(opts.ShardBytes)
	if shard <= 0 {
		shard = DefaultShardBytes
	}
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return 0, errors.Wrapf(err, "creating %s", dir)
	}

	total := f.weightBytes()
	count := int((total + shard - 1) / shard)
	names := make([]string, count)
	for i := range names {
		names[i] = fmt.Sprintf("group1-shard%dof%d.bin", i+1, count)
	}

	sw := &shardWriter{fs: fs, dir: dir, names: names, size: shard}
	if err := f.WriteWeights(sw); err != nil {
		sw.Close()
		return 0, errors.Wrap(err, "writing weights")
	}
	if err := sw.Close(); err != nil {
		return 0, errors.Wrap(err, "closing weight shard")
	}

	m := ModelJSON{
		Format:        "layers-model",
		GeneratedBy:   opts.GeneratedBy,
		ModelTopology: f.Topology(),
		WeightsManifest: []WeightGroup{{
			Paths:   names,
			Weights: f.WeightSpecs(),
		}},
	}
	if opts.Metadata != nil {
		raw, err := json.Marshal(opts.Metadata)
		if err != nil {
			return 0, errors.Wrap(err, "encoding metadata")
		}
		m.UserDefinedMetadata = raw
	}
	data, err := json.Marshal(&m)
	if err != nil {
		return 0, errors.Wrap(err, "encoding model.json")
	}
	if err := afero.WriteFile(fs, filepath.Join(dir, ModelFile), data, 0644); err != nil {
		return 0, errors.Wrap(err, "writing model.json")
	}
	return total, nil
}

// ReadLayersModelFromDir loads a layers-model written by WriteLayersModelToDir
// (or any Sequential stack of Dense layers exported the same way). When
// metadata is not nil, userDefinedMetadata is decoded into it.
func ReadLayersModelFromDir(fs afero.Fs, dir string, metadata interface{}) (*FeedforwardNetwork, error) {
	data, err := afero.ReadFile(fs, filepath.Join(dir, ModelFile))
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", ModelFile)
	}
	var m ModelJSON
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(ErrBadModel, "decoding %s: %v", ModelFile, err)
	}
	if metadata != nil && len(m.UserDefinedMetadata) > 0 {
		if err := json.Unmarshal(m.UserDefinedMetadata, metadata); err != nil {
			return nil, errors.Wrapf(ErrBadModel, "decoding metadata: %v", err)
		}
	}

	f, err := networkFromTopology(m.ModelTopology)
	if err != nil {
		return nil, err
	}

	var specs []WeightSpec
	var weights []byte
	for _, g := range m.WeightsManifest {
		specs = append(specs, g.Weights...)
		for _, p := range g.Paths {
			b, err := afero.ReadFile(fs, filepath.Join(dir, p))
			if err != nil {
				return nil, errors.Wrapf(err, "reading shard %s", p)
			}
			weights = append(weights, b...)
		}
	}
	if err := f.unpack(specs, weights); err != nil {
		return nil, err
	}
	return f, nil
}

func networkFromTopology(t Topology) (*FeedforwardNetwork, error) {
	if t.ClassName != "Sequential" || len(t.Config.Layers) == 0 {
		return nil, errors.Wrapf(ErrBadModel, "unsupported topology %q with %d layers", t.ClassName, len(t.Config.Layers))
	}
	var f FeedforwardNetwork
	for i, l := range t.Config.Layers {
		if l.ClassName != "Dense" {
			return nil, errors.Wrapf(ErrBadModel, "layer %d: unsupported class %q", i, l.ClassName)
		}
		if i == 0 {
			s := l.Config.BatchInputShape
			if len(s) != 2 || s[1] == nil {
				return nil, errors.Wrapf(ErrBadModel, "first layer has no input shape")
			}
			if *s[1] <= 0 {
				return nil, errors.Wrapf(ErrBadModel, "input width %d", *s[1])
			}
			f.inputs = *s[1]
		}
		act := Activation(l.Config.Activation)
		if act == "" {
			act = Linear
		}
		f.NewLayer(l.Config.Units, act)
	}
	if err := f.Validate(); err != nil {
		return nil, errors.Wrap(ErrBadModel, err.Error())
	}
	return &f, nil
}

// unpack fills the layer weights from the concatenated shard data.
func (f *FeedforwardNetwork) unpack(specs []WeightSpec, data []byte) error {
	want := f.WeightSpecs()
	if len(specs) != len(want) {
		return errors.Wrapf(ErrBadModel, "%d weight tensors, want %d", len(specs), len(want))
	}
	values := make([][]float64, len(specs))
	off := 0
	for i, s := range specs {
		if s.Dtype != "float32" {
			return errors.Wrapf(ErrBadModel, "%s: dtype %s", s.Name, s.Dtype)
		}
		if !sameShape(s.Shape, want[i].Shape) {
			return errors.Wrapf(ErrBadModel, "%s: shape %v, want %v", s.Name, s.Shape, want[i].Shape)
		}
		n := 1
		for _, d := range s.Shape {
			n *= d
		}
		if off+4*n > len(data) {
			return errors.Wrapf(ErrBadModel, "%s: weight data truncated", s.Name)
		}
		v := make([]float64, n)
		for j := range v {
			v[j] = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[off+4*j:])))
		}
		values[i] = v
		off += 4 * n
	}
	if off != len(data) {
		return errors.Wrapf(ErrBadModel, "%d trailing weight bytes", len(data)-off)
	}

	in := f.inputs
	for i := range f.layers {
		l := &f.layers[i]
		l.Kernel = mat.NewDense(in, l.Units, values[2*i])
		l.Bias = values[2*i+1]
		in = l.Units
	}
	return nil
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
