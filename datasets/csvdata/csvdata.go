package csvdata

import "encoding/csv"
import "io"
import "math/rand"
import "os"
import "strconv"
import "strings"

import "github.com/pkg/errors"

import "github.com/neurlang/kovae/datasets"

// ErrTooShort is returned when the table has no more rows than seqLen.
var ErrTooShort = errors.New("not enough rows for one window")

// LoadFile reads the CSV at path, see Load.
func LoadFile(rng *rand.Rand, path string, seqLen int) (datasets.Dataset, *datasets.MinMax, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	d, mm, err := Load(rng, f, seqLen)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "loading %s", path)
	}
	return d, mm, nil
}

// Load reads the table from r, reverses it into chronological order, scales
// each column to [0, 1] and cuts every window of seqLen consecutive rows.
// The windows are returned in random order together with the fitted scaler.
func Load(rng *rand.Rand, r io.Reader, seqLen int) (datasets.Dataset, *datasets.MinMax, error) {
	rows, err := readRows(r)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) <= seqLen {
		return nil, nil, errors.Wrapf(ErrTooShort, "%d rows, seq_len %d", len(rows), seqLen)
	}

	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}

	var mm datasets.MinMax
	mm.Fit(rows)
	mm.Transform(rows)

	windows := make(datasets.Dataset, 0, len(rows)-seqLen)
	for i := 0; i < len(rows)-seqLen; i++ {
		w := make(datasets.Series, seqLen)
		for t := range w {
			w[t] = append([]float64(nil), rows[i+t]...)
		}
		windows = append(windows, w)
	}

	out := make(datasets.Dataset, len(windows))
	for i, j := range rng.Perm(len(windows)) {
		out[i] = windows[j]
	}
	return out, &mm, nil
}

func readRows(r io.Reader) ([][]float64, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	if _, err := cr.Read(); err != nil {
		if err == io.EOF {
			return nil, errors.Wrap(ErrTooShort, "empty table")
		}
		return nil, errors.Wrap(err, "reading header")
	}

	var rows [][]float64
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		row := make([]float64, len(rec))
		for k, field := range rec {
			row[k], err = strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d column %d", line, k+1)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
