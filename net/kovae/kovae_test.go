package kovae

import (
	"bytes"
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurlang/kovae/config"
	"github.com/neurlang/kovae/datasets"
	"github.com/neurlang/kovae/datasets/sine"
	"github.com/neurlang/kovae/layer"
)

func tiny() Config {
	return Config{
		InpDim:     2,
		SeqLen:     5,
		BatchSize:  4,
		HiddenDim:  3,
		ZDim:       2,
		NumLayers:  1,
		NumSteps:   2,
		BatchNorm:  true,
		WRec:       1,
		WKL:        .007,
		WPredPrior: .005,
		LR:         1e-2,
	}
}

func newModel(t *testing.T, cfg Config, seed int64) *Model {
	t.Helper()
	m, err := New(cfg, rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func batches(cfg Config, n int) []datasets.Batch {
	d := sine.Generate(rand.New(rand.NewSource(99)), cfg.BatchSize*n, cfg.SeqLen, cfg.InpDim)
	l := datasets.NewLoader(rand.New(rand.NewSource(1)), d, nil, cfg.BatchSize)
	return l.Epoch()
}

func TestNewValidates(t *testing.T) {
	cfg := tiny()
	cfg.ZDim = 0
	_, err := New(cfg, rand.New(rand.NewSource(1)))
	assert.Error(t, err)

	cfg = tiny()
	cfg.NumSteps = cfg.SeqLen
	_, err = New(cfg, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

func TestFromArgs(t *testing.T) {
	a := config.Default()
	cfg := FromArgs(a, 5)
	assert.Equal(t, 5, cfg.InpDim)
	assert.Equal(t, a.BatchSize, cfg.BatchSize)
	assert.Equal(t, a.WKL, cfg.WKL)
	assert.NoError(t, cfg.validate())
}

func TestNamesAndParams(t *testing.T) {
	m := newModel(t, tiny(), 1)
	assert.Equal(t, []string{"loss", "rec", "kl", "pred_prior"}, m.Names())
	assert.Greater(t, m.NumParams(), 0)

	cfg := tiny()
	cfg.BatchNorm = false
	assert.Equal(t, m.NumParams()-2*cfg.HiddenDim, newModel(t, cfg, 1).NumParams())
}

func TestTrainStepRejectsBatch(t *testing.T) {
	m := newModel(t, tiny(), 1)
	b := batches(tiny(), 1)[0]
	b.Index = b.Index[:2]
	_, err := m.TrainStep(b)
	assert.True(t, errors.Is(err, ErrBatchSize), "%v", err)
}

func TestTrainStepReproducible(t *testing.T) {
	cfg := tiny()
	run := func() [][]float64 {
		m := newModel(t, cfg, 10)
		var out [][]float64
		for _, b := range batches(cfg, 3) {
			losses, err := m.TrainStep(b)
			require.NoError(t, err)
			out = append(out, losses)
		}
		return out
	}
	a, b := run(), run()
	assert.Equal(t, a, b)
	for _, losses := range a {
		require.Len(t, losses, 4)
		for _, v := range losses {
			assert.False(t, math.IsNaN(v))
		}
		assert.InDelta(t, cfg.WRec*losses[1]+cfg.WKL*losses[2]+cfg.WPredPrior*losses[3], losses[0], 1e-9)
	}
}

func TestTrainingReducesLoss(t *testing.T) {
	cfg := tiny()
	m := newModel(t, cfg, 3)
	bs := batches(cfg, 4)

	mean := func(epochs int) float64 {
		var sum float64
		var n int
		for e := 0; e < epochs; e++ {
			for _, b := range bs {
				losses, err := m.TrainStep(b)
				require.NoError(t, err)
				sum += losses[1]
				n++
			}
		}
		return sum / float64(n)
	}
	first := mean(2)
	mean(40)
	last := mean(2)
	assert.Less(t, last, first)
}

func TestMaskedLoss(t *testing.T) {
	cfg := tiny()
	b := batches(cfg, 1)[0]

	plain, err := newModel(t, cfg, 4).TrainStep(b)
	require.NoError(t, err)

	ones := make([][]float64, len(b.X))
	for i := range ones {
		ones[i] = make([]float64, len(b.X[i]))
		for j := range ones[i] {
			ones[i][j] = 1
		}
	}
	b.Mask = ones
	masked, err := newModel(t, cfg, 4).TrainStep(b)
	require.NoError(t, err)
	assert.Equal(t, plain, masked)

	for i := range ones {
		for j := range ones[i] {
			ones[i][j] = 0
		}
	}
	none, err := newModel(t, cfg, 4).TrainStep(b)
	require.NoError(t, err)
	assert.Zero(t, none[1])
}

func TestSampleData(t *testing.T) {
	cfg := tiny()
	m := newModel(t, cfg, 5)
	for _, n := range []int{1, 4, 9} {
		d, err := m.SampleData(n)
		require.NoError(t, err)
		require.NoError(t, d.Check())
		assert.Equal(t, n, d.Len())
		assert.Equal(t, cfg.SeqLen, d.SeqLen())
		assert.Equal(t, cfg.InpDim, d.Dim())
		for _, s := range d {
			for _, row := range s {
				for _, v := range row {
					assert.True(t, v > 0 && v < 1)
				}
			}
		}
	}
}

func TestSamplerSeesTrainedWeights(t *testing.T) {
	cfg := tiny()
	a := newModel(t, cfg, 6)
	b := newModel(t, cfg, 6)
	for _, batch := range batches(cfg, 2) {
		_, err := a.TrainStep(batch)
		require.NoError(t, err)
	}
	da, err := a.SampleData(4)
	require.NoError(t, err)

	for _, batch := range batches(cfg, 2) {
		_, err := b.TrainStep(batch)
		require.NoError(t, err)
	}
	db, err := b.SampleData(4)
	require.NoError(t, err)
	assert.Equal(t, datasets.Fingerprint(da), datasets.Fingerprint(db))

	untrained := newModel(t, cfg, 6)
	du, err := untrained.SampleData(4)
	require.NoError(t, err)
	assert.NotEqual(t, datasets.Fingerprint(da), datasets.Fingerprint(du))
}

func TestCheckpointRoundTrip(t *testing.T) {
	cfg := tiny()
	a := newModel(t, cfg, 7)
	for _, batch := range batches(cfg, 2) {
		_, err := a.TrainStep(batch)
		require.NoError(t, err)
	}

	scaler := &datasets.MinMax{Min: []float64{1, 2}, Max: []float64{3, 5}}
	a.SetScaler(scaler)

	var buf bytes.Buffer
	require.NoError(t, a.WriteCompressedWeights(&buf))

	other := cfg
	other.BatchSize = 2
	b := newModel(t, other, 8)
	require.NoError(t, b.ReadCompressedWeights(bytes.NewReader(buf.Bytes())))
	assert.Equal(t, a.params.Snapshot(), b.params.Snapshot())
	assert.Equal(t, scaler, b.Scaler())
	assert.Equal(t, other, b.Config())

	path := filepath.Join(t.TempDir(), "model.json.lzw")
	require.NoError(t, a.WriteCompressedWeightsToFile(path))
	got, err := ReadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)

	wrong := cfg
	wrong.ZDim = 3
	c := newModel(t, wrong, 8)
	assert.Error(t, c.ReadCompressedWeightsFromFile(path))
}

func TestRefitKoopman(t *testing.T) {
	cfg := tiny()
	m := newModel(t, cfg, 9)
	before := append([]float64(nil), layer.Data(m.w.koopman)...)

	fit, err := m.RefitKoopman()
	require.NoError(t, err)
	assert.False(t, fit.Applied)
	assert.GreaterOrEqual(t, fit.Residual, 0.0)
	assert.InDelta(t, 1, fit.LearnedRadius, 1e-9)
	assert.Equal(t, before, layer.Data(m.w.koopman))

	cfg.PinvSolver = true
	p := newModel(t, cfg, 9)
	fit, err = p.RefitKoopman()
	require.NoError(t, err)
	assert.True(t, fit.Applied)
	assert.NotEqual(t, before, layer.Data(p.w.koopman))

	again, err := p.RefitKoopman()
	require.NoError(t, err)
	assert.InDelta(t, fit.SpectralRadius, again.LearnedRadius, 1e-9)
}
