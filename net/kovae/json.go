package kovae

import "compress/lzw"
import "encoding/json"
import "io"
import "os"

import "github.com/pkg/errors"

import "github.com/neurlang/kovae/datasets"
import "github.com/neurlang/kovae/layer"

// checkpoint is the on-disk form of a model.
type checkpoint struct {
	Config  Config           `json:"config"`
	Weights []layer.Weight   `json:"weights"`
	Scaler  *datasets.MinMax `json:"scaler,omitempty"`
}

// WriteCompressedWeightsToFile writes model weights to a lzw file
func (m *Model) WriteCompressedWeightsToFile(name string) error {
	file, err := os.Create(name)
	if err != nil {
		return err
	}
	err = m.WriteCompressedWeights(file)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	return err
}

// WriteCompressedWeights writes model weights to a writer
func (m *Model) WriteCompressedWeights(w io.Writer) error {
	lw := lzw.NewWriter(w, lzw.LSB, 8)
	err := json.NewEncoder(lw).Encode(checkpoint{
		Config:  m.cfg,
		Weights: m.params.Snapshot(),
		Scaler:  m.scaler,
	})
	if err != nil {
		lw.Close()
		return err
	}
	return lw.Close()
}

// ReadCompressedWeightsFromFile reads model weights from a lzw file
func (m *Model) ReadCompressedWeightsFromFile(name string) error {
	file, err := os.Open(name)
	if err != nil {
		return err
	}
	defer file.Close()
	return m.ReadCompressedWeights(file)
}

// ReadCompressedWeights reads model weights from a reader. The checkpoint
// must come from a model of the same shape; batch size may differ.
func (m *Model) ReadCompressedWeights(r io.Reader) error {
	lr := lzw.NewReader(r, lzw.LSB, 8)
	defer lr.Close()

	var c checkpoint
	if err := json.NewDecoder(lr).Decode(&c); err != nil {
		return errors.Wrap(err, "kovae: decoding checkpoint")
	}
	want, got := m.cfg, c.Config
	if want.InpDim != got.InpDim || want.HiddenDim != got.HiddenDim || want.ZDim != got.ZDim ||
		want.NumLayers != got.NumLayers || want.BatchNorm != got.BatchNorm {
		return errors.Errorf("kovae: checkpoint shape %+v does not match model %+v", got, want)
	}
	if err := m.params.Restore(c.Weights); err != nil {
		return err
	}
	m.scaler = c.Scaler
	return nil
}

// ReadConfig reads only the model configuration of a checkpoint file.
func ReadConfig(name string) (Config, error) {
	file, err := os.Open(name)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()
	lr := lzw.NewReader(file, lzw.LSB, 8)
	defer lr.Close()

	var c checkpoint
	if err := json.NewDecoder(lr).Decode(&c); err != nil {
		return Config{}, errors.Wrap(err, "kovae: decoding checkpoint")
	}
	return c.Config, nil
}
