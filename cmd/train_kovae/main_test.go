package main

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurlang/kovae/config"
	"github.com/neurlang/kovae/datasets"
	"github.com/neurlang/kovae/datasets/sine"
	"github.com/neurlang/kovae/device"
)

func tinyArgs(t *testing.T) config.Args {
	a := config.Default()
	a.Epochs = 1
	a.BatchSize = 8
	a.SeqLen = 5
	a.HiddenDim = 3
	a.ZDim = 2
	a.NumLayers = 1
	a.Workers = 2
	a.MetricIteration = 1
	a.DiscIterations = 2
	a.PredIterations = 2
	a.LogDir = t.TempDir()
	return a
}

func zeros(d datasets.Dataset) (n int) {
	for _, s := range d {
		for _, row := range s {
			for _, v := range row {
				if v == 0 {
					n++
				}
			}
		}
	}
	return
}

func TestPipelineEvaluatesCompleteSeries(t *testing.T) {
	args := tinyArgs(t)
	args.MissingValue = 0.5
	data := sine.Generate(rand.New(rand.NewSource(1)), 40, args.SeqLen, 2)
	require.Zero(t, zeros(data))
	before := datasets.Fingerprint(data)

	// the training copy does have holes
	dropped, _ := datasets.DropMissing(device.SetSeedDevice(args.Seed, nil).Rand("missing"), data, args.MissingValue)
	require.Greater(t, zeros(dropped), 0)

	log, _ := test.NewNullLogger()
	out, err := pipeline(context.Background(), device.SetSeedDevice(args.Seed, nil), args, data, nil, log)
	require.NoError(t, err)

	assert.Equal(t, before, datasets.Fingerprint(data))
	assert.Equal(t, 40, out.ori.Len())
	assert.Equal(t, out.ori.Len(), out.gen.Len())
	assert.Zero(t, zeros(out.ori))
	assert.Len(t, out.report.DiscScores, 1)

	dir := args.RunDir()
	for _, name := range []string{"args.yaml", "tsne.png", "pca.png", "model.json.lzw"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestPipelineRejectsShortData(t *testing.T) {
	args := tinyArgs(t)
	data := sine.Generate(rand.New(rand.NewSource(1)), 5, args.SeqLen, 2)
	log, _ := test.NewNullLogger()
	_, err := pipeline(context.Background(), device.SetSeedDevice(args.Seed, nil), args, data, nil, log)
	assert.Error(t, err)
}
