package visualization

import "github.com/pkg/errors"
import "gonum.org/v1/gonum/mat"
import "gonum.org/v1/gonum/stat"

// ErrTooFewPoints is returned when a projection has nothing to fit.
var ErrTooFewPoints = errors.New("too few points to project")

// PCA fits two principal components on ori and projects both sets on them.
func PCA(ori, gen [][]float64) (ori2d, gen2d [][]float64, err error) {
	if len(ori) < 2 || len(ori[0]) < 2 {
		return nil, nil, errors.Wrapf(ErrTooFewPoints, "pca on %d points", len(ori))
	}
	cols := len(ori[0])
	x := toDense(ori)

	var pc stat.PC
	if !pc.PrincipalComponents(x, nil) {
		return nil, nil, errors.New("pca: decomposition failed")
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	basis := vecs.Slice(0, cols, 0, 2)

	mean := make([]float64, cols)
	for j := range mean {
		mean[j] = stat.Mean(mat.Col(nil, j, x), nil)
	}
	project := func(pts [][]float64) [][]float64 {
		c := toDense(pts)
		r, _ := c.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < cols; j++ {
				c.Set(i, j, c.At(i, j)-mean[j])
			}
		}
		var out mat.Dense
		out.Mul(c, basis)
		return fromDense(&out)
	}
	return project(ori), project(gen), nil
}

func toDense(pts [][]float64) *mat.Dense {
	d := mat.NewDense(len(pts), len(pts[0]), nil)
	for i, p := range pts {
		d.SetRow(i, p)
	}
	return d
}

func fromDense(d *mat.Dense) [][]float64 {
	r, _ := d.Dims()
	o := make([][]float64, r)
	for i := range o {
		o[i] = mat.Row(nil, i, d)
	}
	return o
}
