// Package source resolves a dataset name to its generator or loader.
package source

import "math/rand"
import "os"
import "path/filepath"
import "strings"

import "github.com/pkg/errors"

import "github.com/neurlang/kovae/datasets"
import "github.com/neurlang/kovae/datasets/csvdata"
import "github.com/neurlang/kovae/datasets/sine"

// ErrUnknownDataset is returned when name is neither built in nor a readable file.
var ErrUnknownDataset = errors.New("unknown dataset")

// Load returns the dataset called name. "sine" is generated, any other name
// is read from <dataDir>/<name>_data.csv, or from name itself when it is a
// path to a CSV file. CSV data comes with the scaler that mapped it to
// [0, 1]; generated data is already in range and has none.
func Load(rng *rand.Rand, name, dataDir string, seqLen int) (datasets.Dataset, *datasets.MinMax, error) {
	if name == "sine" {
		return sine.Generate(rng, sine.Samples, seqLen, sine.Dim), nil, nil
	}

	path := filepath.Join(dataDir, name+"_data.csv")
	if strings.HasSuffix(strings.ToLower(name), ".csv") {
		path = name
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.Wrapf(ErrUnknownDataset, "%s (no %s)", name, path)
		}
		return nil, nil, err
	}
	return csvdata.LoadFile(rng, path, seqLen)
}
