package source

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSine(t *testing.T) {
	d, mm, err := Load(rand.New(rand.NewSource(1)), "sine", "", 6)
	require.NoError(t, err)
	assert.Nil(t, mm)
	assert.Equal(t, 10000, d.Len())
	assert.Equal(t, 6, d.SeqLen())
	assert.Equal(t, 5, d.Dim())
}

func TestLoadNamedAndPath(t *testing.T) {
	dir := t.TempDir()
	body := []byte("a,b,c\n1,2,3\n2,3,4\n3,4,5\n4,5,6\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "energy_data.csv"), body, 0644))

	d, mm, err := Load(rand.New(rand.NewSource(1)), "energy", dir, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, d.Len())
	assert.Equal(t, 3, d.Dim())
	require.NotNil(t, mm)
	assert.Equal(t, []float64{1, 2, 3}, mm.Min)
	assert.Equal(t, []float64{4, 5, 6}, mm.Max)

	d, _, err = Load(rand.New(rand.NewSource(1)), filepath.Join(dir, "energy_data.csv"), "", 3)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Len())
}

func TestLoadUnknown(t *testing.T) {
	_, _, err := Load(rand.New(rand.NewSource(1)), "mujoco", t.TempDir(), 24)
	assert.True(t, errors.Is(err, ErrUnknownDataset), "%v", err)
}
