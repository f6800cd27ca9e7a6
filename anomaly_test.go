package traj

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestSolveKeplerElliptic(t *testing.T) {
	for _, e := range []float64{0, 0.01, 0.3, 0.7, 0.85, 0.99} {
		for M := 0.0; M < twoπ; M += 0.1 {
			E, err := SolveKeplerElliptic(M, e, DefaultMaxIterations)
			if err != nil {
				t.Fatalf("e=%f M=%f: %s", e, M, err)
			}
			if !anglesEqual(E-e*math.Sin(E), M, 1e-9) {
				t.Fatalf("e=%f M=%f: E=%f does not solve Kepler's equation", e, M, E)
			}
		}
	}
	_, err := SolveKeplerElliptic(0.1, 0.9, 1)
	var cErr *ConvergenceError
	if !errors.Is(err, ErrNotConverged) || !errors.As(err, &cErr) || cErr.Iterations != 1 {
		t.Fatalf("expected a convergence error after one iteration, got %v", err)
	}
}

func TestSolveKeplerHyperbolic(t *testing.T) {
	for _, e := range []float64{1.01, 1.5, 3, 10} {
		for _, M := range []float64{-50, -3, -0.2, 0, 0.2, 3, 50} {
			H, err := SolveKeplerHyperbolic(M, e, DefaultMaxIterations)
			if err != nil {
				t.Fatalf("e=%f M=%f: %s", e, M, err)
			}
			if !scalar.EqualWithinAbs(e*math.Sinh(H)-H, M, 1e-6*math.Max(1, math.Abs(M))) {
				t.Fatalf("e=%f M=%f: H=%f does not solve Kepler's equation", e, M, H)
			}
		}
	}
}

func TestSolveBarker(t *testing.T) {
	for _, M := range []float64{-20, -1, -0.1, 0, 0.5, 2, 30} {
		D, err := SolveBarker(M, DefaultMaxIterations)
		if err != nil {
			t.Fatalf("M=%f: %s", M, err)
		}
		if !scalar.EqualWithinAbs(D+D*D*D/3, M, 1e-6*math.Max(1, math.Abs(M))) {
			t.Fatalf("M=%f: D=%f does not solve Barker's equation", M, D)
		}
	}
}

func TestAnomalyConversions(t *testing.T) {
	for _, e := range []float64{0, 0.2, 0.9, 1, 1.3, 4} {
		for _, ν := range []float64{-1.2, -0.3, 0, 0.4, 1.1} {
			if e < 1 {
				ν = wrap2π(ν)
			}
			M := meanFromTrue(ν, e)
			got, err := trueAnomalyFromMean(M, e, DefaultMaxIterations)
			if err != nil {
				t.Fatalf("e=%f ν=%f: %s", e, ν, err)
			}
			if !anglesEqual(got, ν, 1e-6) {
				t.Fatalf("e=%f: ν=%f became %f", e, ν, got)
			}
		}
	}
}
