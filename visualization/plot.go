package visualization

import "image/color"
import "math/rand"
import "path/filepath"

import "github.com/pkg/errors"
import "github.com/sirupsen/logrus"
import "gonum.org/v1/plot"
import "gonum.org/v1/plot/plotter"
import "gonum.org/v1/plot/vg"

import "github.com/neurlang/kovae/datasets"

var (
	red  = color.RGBA{R: 255, A: 80}
	blue = color.RGBA{B: 255, A: 80}
)

// Plot writes a scatter plot of the two point sets to path. The image
// format follows the file extension.
func Plot(path, title string, ori2d, gen2d [][]float64) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x-" + title
	p.Y.Label.Text = "y-" + title

	for _, set := range []struct {
		name string
		pts  [][]float64
		c    color.Color
	}{
		{"Original", ori2d, red},
		{"Synthetic", gen2d, blue},
	} {
		xys := make(plotter.XYs, len(set.pts))
		for i, pt := range set.pts {
			xys[i].X, xys[i].Y = pt[0], pt[1]
		}
		s, err := plotter.NewScatter(xys)
		if err != nil {
			return errors.Wrap(err, set.name)
		}
		s.GlyphStyle.Color = set.c
		s.GlyphStyle.Radius = vg.Points(2)
		p.Add(s)
		p.Legend.Add(set.name, s)
	}
	return p.Save(6*vg.Inch, 6*vg.Inch, path)
}

// Visualize projects ori and gen with analysis, "pca" or "tsne", and saves
// the plot as <dir>/<analysis>.png.
func Visualize(rng *rand.Rand, dir, analysis string, ori, gen datasets.Dataset, log logrus.FieldLogger) (string, error) {
	oriPts, genPts := Prepare(rng, ori, gen, MaxSamples)

	var ori2d, gen2d [][]float64
	var title string
	switch analysis {
	case "pca":
		var err error
		if ori2d, gen2d, err = PCA(oriPts, genPts); err != nil {
			return "", err
		}
		title = "PCA plot"
	case "tsne":
		y, err := TSNE(rng, append(append([][]float64(nil), oriPts...), genPts...), DefaultTSNE())
		if err != nil {
			return "", err
		}
		ori2d, gen2d = y[:len(oriPts)], y[len(oriPts):]
		title = "t-SNE plot"
	default:
		return "", errors.Errorf("unknown analysis %q", analysis)
	}

	path := filepath.Join(dir, analysis+".png")
	if err := Plot(path, title, ori2d, gen2d); err != nil {
		return "", errors.Wrapf(err, "saving %s", path)
	}
	log.WithField("path", path).Infof("%s saved", title)
	return path, nil
}
