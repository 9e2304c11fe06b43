package main

import "encoding/csv"
import "io"
import "math/rand"
import "os"
import "strconv"

import "github.com/pkg/errors"
import "github.com/sirupsen/logrus"
import "github.com/spf13/cobra"

import "github.com/neurlang/kovae/datasets"
import "github.com/neurlang/kovae/net/kovae"

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	var (
		model string
		out   string
		n     int
		seed  int64
		raw   bool
	)
	cmd := &cobra.Command{
		Use:          "sample_kovae",
		Short:        "Generate synthetic series from a KoVAE checkpoint",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if n <= 0 {
				return errors.Errorf("--n must be positive, got %d", n)
			}
			gen, err := sample(model, n, seed, raw, log)
			if err != nil {
				return err
			}
			if err := writeOut(out, gen); err != nil {
				return err
			}
			log.Infof("wrote %d series", gen.Len())
			return nil
		},
	}
	cmd.Flags().StringVar(&model, "dstmodel", "model.json.lzw", "model .json.lzw file")
	cmd.Flags().StringVar(&out, "out", "", "output CSV file, stdout when empty")
	cmd.Flags().IntVar(&n, "n", 1000, "number of series")
	cmd.Flags().Int64Var(&seed, "seed", 10, "random seed")
	cmd.Flags().BoolVar(&raw, "raw", false, "keep the [0, 1] model scale instead of the original units")

	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func sample(path string, n int, seed int64, raw bool, log logrus.FieldLogger) (datasets.Dataset, error) {
	cfg, err := kovae.ReadConfig(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	m, err := kovae.New(cfg, rand.New(rand.NewSource(seed)))
	if err != nil {
		return nil, err
	}
	defer m.Close()
	if err := m.ReadCompressedWeightsFromFile(path); err != nil {
		return nil, err
	}
	c := m.Config()
	log.Infof("loaded %s: %d parameters, %d features, %d steps", path, m.NumParams(), c.InpDim, c.SeqLen)

	gen, err := m.SampleData(n)
	if err != nil {
		return nil, err
	}
	if s := m.Scaler(); s != nil && !raw {
		for _, series := range gen {
			s.Inverse(series)
		}
	}
	return gen, nil
}

// writeOut writes d as CSV to path, or to stdout when path is empty.
func writeOut(path string, d datasets.Dataset) error {
	if path == "" {
		return WriteCSV(os.Stdout, d)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, d); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteCSV writes one row per time step with a blank line between series.
func WriteCSV(w io.Writer, d datasets.Dataset) error {
	cw := csv.NewWriter(w)
	for i, s := range d {
		if i > 0 {
			cw.Flush()
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		for _, row := range s {
			rec := make([]string, len(row))
			for j, v := range row {
				rec[j] = strconv.FormatFloat(v, 'g', -1, 64)
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
