package pika

import (
	"os"

	kitlog "github.com/go-kit/kit/log"
	"github.com/gonum/matrix/mat64"
)

// ConvergenceError reports a corrections process that exhausted its iteration
// budget without satisfying the constraint tolerance.
type ConvergenceError struct {
	Iterations int
	Norm       float64
}

func (e ConvergenceError) Error() string {
	return "corrections did not converge"
}

// Shooter drives a corrections problem to convergence with Newton updates.
// Square systems solve J·dx = -F directly; underdetermined ones take the
// minimum-norm update dx = Jᵀ(JJᵀ)⁻¹(-F); overdetermined ones the least
// squares solution.
type Shooter struct {
	MaxIters int
	Tol      float64 // convergence tolerance on the constraint vector 2-norm
	logger   kitlog.Logger
}

// NewShooter returns a shooter with default settings.
func NewShooter() *Shooter {
	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stdout))
	logger = kitlog.With(logger, "pika", "Shooter")
	return &Shooter{MaxIters: 20, Tol: 1e-10, logger: logger}
}

// Solve iterates Newton updates on the problem's free variables until the
// constraint vector norm drops below Tol, mutating the registered variables
// in place. It returns the number of iterations performed; running out of
// iterations is a ConvergenceError, with the variables left at their last
// update.
func (sh *Shooter) Solve(prob *CorrectionsProblem) (int, error) {
	if prob.NumFreeVars() == 0 {
		return 0, configErrorf("problem has no free variables")
	}
	if prob.NumConstraints() == 0 {
		return 0, configErrorf("problem has no constraints")
	}
	fNorm := 0.0
	for it := 0; it < sh.MaxIters; it++ {
		prob.ResetProp()
		F, err := prob.ConstraintVec()
		if err != nil {
			return it, err
		}
		fNorm = norm(F)
		sh.logger.Log("iter", it, "norm", fNorm)
		if fNorm < sh.Tol {
			return it, nil
		}

		J, err := prob.Jacobian()
		if err != nil {
			return it, err
		}
		negF := mat64.NewVector(len(F), nil)
		for i, f := range F {
			negF.SetVec(i, -f)
		}
		dx, err := newtonStep(J, negF)
		if err != nil {
			return it, err
		}

		vec := prob.FreeVarVec()
		for i := range vec {
			vec[i] += dx.At(i, 0)
		}
		if err := prob.ApplyFreeVarVec(vec); err != nil {
			return it, err
		}
	}
	return sh.MaxIters, ConvergenceError{Iterations: sh.MaxIters, Norm: fNorm}
}

// newtonStep solves J·dx = b for the update that suits the system shape.
func newtonStep(J *mat64.Dense, b *mat64.Vector) (*mat64.Vector, error) {
	nR, nC := J.Dims()
	dx := mat64.NewVector(nC, nil)
	if nR < nC {
		// minimum norm: dx = Jᵀ(JJᵀ)⁻¹b
		JJt := mat64.NewDense(nR, nR, nil)
		JJt.Mul(J, J.T())
		w := mat64.NewVector(nR, nil)
		if err := w.SolveVec(JJt, b); err != nil {
			return nil, err
		}
		dx.MulVec(J.T(), w)
		return dx, nil
	}
	if err := dx.SolveVec(J, b); err != nil {
		return nil, err
	}
	return dx, nil
}
