package kovae

import "math"
import "math/cmplx"

import "github.com/pkg/errors"
import "gonum.org/v1/gonum/mat"

import "github.com/neurlang/kovae/layer"

// KoopmanFit describes how linear the prior dynamics are.
type KoopmanFit struct {
	// Residual is the mean squared one step error of the least squares
	// operator on fresh prior trajectories.
	Residual float64
	// SpectralRadius is the largest eigenvalue modulus of the least squares
	// operator, LearnedRadius that of the learned A.
	SpectralRadius float64
	LearnedRadius  float64
	// Applied is set when the fit replaced the learned A.
	Applied bool
}

// RefitKoopman fits A to prior trajectories by least squares, minimising
// ‖Z₀A − Z₁‖ over consecutive steps. When the model was configured with
// PinvSolver the fit replaces the learned operator.
func (m *Model) RefitKoopman() (KoopmanFit, error) {
	traj, err := m.priorTrajectories(1)
	if err != nil {
		return KoopmanFit{}, err
	}
	zd := m.cfg.ZDim
	rows := len(traj) * (m.cfg.SeqLen - 1)
	x := mat.NewDense(rows, zd, nil)
	y := mat.NewDense(rows, zd, nil)
	r := 0
	for _, s := range traj {
		for t := 0; t+1 < len(s); t++ {
			x.SetRow(r, s[t])
			y.SetRow(r, s[t+1])
			r++
		}
	}

	var a mat.Dense
	if err := a.Solve(x, y); err != nil {
		// an ill conditioned fit is still usable
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return KoopmanFit{}, errors.Wrap(err, "kovae: least squares Koopman fit")
		}
	}

	var pred, diff mat.Dense
	pred.Mul(x, &a)
	diff.Sub(&pred, y)
	fn := mat.Norm(&diff, 2)

	learned := mat.NewDense(zd, zd, append([]float64(nil), layer.Data(m.w.koopman)...))
	fit := KoopmanFit{
		Residual:       fn * fn / float64(rows*zd),
		SpectralRadius: spectralRadius(&a),
		LearnedRadius:  spectralRadius(learned),
	}
	if m.cfg.PinvSolver {
		dst := layer.Data(m.w.koopman)
		for i := 0; i < zd; i++ {
			for j := 0; j < zd; j++ {
				dst[i*zd+j] = a.At(i, j)
			}
		}
		fit.Applied = true
	}
	return fit, nil
}

func spectralRadius(a mat.Matrix) float64 {
	var eig mat.Eigen
	if !eig.Factorize(a, mat.EigenNone) {
		return math.NaN()
	}
	var radius float64
	for _, v := range eig.Values(nil) {
		radius = math.Max(radius, cmplx.Abs(v))
	}
	return radius
}
