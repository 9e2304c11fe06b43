package tracking

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/common/expfmt"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/neurlang/kovae/config"
)

func TestDebugRecordsNothing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	log, _ := test.NewNullLogger()
	r, err := New(config.TrackDebug, dir, "sine", nil, log)
	require.NoError(t, err)
	assert.False(t, r.Enabled())
	r.Log("train/loss", 0, 1)
	require.NoError(t, r.Close())
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestUnknownMode(t *testing.T) {
	log, _ := test.NewNullLogger()
	_, err := New("offline", t.TempDir(), "sine", nil, log)
	assert.Error(t, err)
}

func TestRecording(t *testing.T) {
	for _, mode := range []string{config.TrackSync, config.TrackAsync} {
		t.Run(mode, func(t *testing.T) {
			dir := t.TempDir()
			log, _ := test.NewNullLogger()
			args := config.Default()
			r, err := New(mode, dir, "sine", args, log)
			require.NoError(t, err)
			_, err = uuid.Parse(r.ID())
			require.NoError(t, err)

			for step := 0; step < 5; step++ {
				r.Log("train/loss", step, float64(10-step))
			}
			r.Log("test/disc_mean", 0, 0.125)
			require.NoError(t, r.Close())

			f, err := os.Open(filepath.Join(dir, HistoryFile))
			require.NoError(t, err)
			defer f.Close()
			var points []Point
			sc := bufio.NewScanner(f)
			for sc.Scan() {
				var p Point
				require.NoError(t, json.Unmarshal(sc.Bytes(), &p))
				points = append(points, p)
			}
			require.Len(t, points, 6)
			assert.Equal(t, 4, points[4].Step)
			assert.Equal(t, 6.0, points[4].Value)

			raw, err := os.ReadFile(filepath.Join(dir, SummaryFile))
			require.NoError(t, err)
			var s struct {
				ID    string             `yaml:"id"`
				Mode  string             `yaml:"mode"`
				Final map[string]float64 `yaml:"final"`
			}
			require.NoError(t, yaml.Unmarshal(raw, &s))
			assert.Equal(t, r.ID(), s.ID)
			assert.Equal(t, mode, s.Mode)
			assert.Equal(t, map[string]float64{"train/loss": 6, "test/disc_mean": 0.125}, s.Final)

			pf, err := os.Open(filepath.Join(dir, PromFile))
			require.NoError(t, err)
			defer pf.Close()
			var parser expfmt.TextParser
			mfs, err := parser.TextToMetricFamilies(pf)
			require.NoError(t, err)
			mf, ok := mfs["kovae_test_disc_mean"]
			require.True(t, ok)
			assert.Equal(t, 0.125, mf.GetMetric()[0].GetGauge().GetValue())
			assert.Contains(t, mfs, "kovae_train_loss")
		})
	}
}

func TestMetricName(t *testing.T) {
	assert.Equal(t, "kovae_test_pred_std", MetricName("test/pred_std"))
	assert.Equal(t, "kovae_train_koopman_radius", MetricName("train/koopman.radius"))
}
