package traj

import (
	"math"
)

const (
	// DefaultMaxIterations caps every anomaly solver.
	DefaultMaxIterations = 100
	ellipticTolerance    = 1e-9
	hyperbolicTolerance  = 1e-6
	parabolicTolerance   = 1e-6
)

// SolveKeplerElliptic returns the eccentric anomaly E such that M = E - e sin E.
// Newton-Raphson on Kepler's equation, stops when the update is below 1e-9 rad.
func SolveKeplerElliptic(M, e float64, maxIterations int) (float64, error) {
	M = wrap2π(M)
	if e == 0 {
		return M, nil
	}
	E := M + e*math.Sin(M)
	if e > 0.8 {
		E = math.Pi
	}
	for i := 0; i < maxIterations; i++ {
		sE, cE := math.Sincos(E)
		ΔE := (E - e*sE - M) / (1 - e*cE)
		E -= ΔE
		if math.Abs(ΔE) < ellipticTolerance {
			return E, nil
		}
	}
	return E, &ConvergenceError{Solver: "elliptic Kepler equation", Iterations: maxIterations, Last: E}
}

// SolveKeplerHyperbolic returns the hyperbolic anomaly H such that M = e sinh H - H.
func SolveKeplerHyperbolic(M, e float64, maxIterations int) (float64, error) {
	H := math.Asinh(M / e)
	if math.Abs(M) > 6 {
		H = sign(M) * math.Log(2*math.Abs(M)/e+1.8)
	}
	for i := 0; i < maxIterations; i++ {
		ΔH := (e*math.Sinh(H) - H - M) / (e*math.Cosh(H) - 1)
		H -= ΔH
		if math.Abs(ΔH) < hyperbolicTolerance {
			return H, nil
		}
	}
	return H, &ConvergenceError{Solver: "hyperbolic Kepler equation", Iterations: maxIterations, Last: H}
}

// SolveBarker returns D = tan(ν/2) such that M = D + D³/3.
func SolveBarker(M float64, maxIterations int) (float64, error) {
	D := M
	if math.Abs(M) > 1 {
		D = math.Cbrt(3 * M)
	}
	for i := 0; i < maxIterations; i++ {
		ΔD := (D + D*D*D/3 - M) / (1 + D*D)
		D -= ΔD
		if math.Abs(ΔD) < parabolicTolerance {
			return D, nil
		}
	}
	return D, &ConvergenceError{Solver: "Barker equation", Iterations: maxIterations, Last: D}
}

// trueAnomalyFromMean solves for the true anomaly by shape.
func trueAnomalyFromMean(M, e float64, maxIterations int) (float64, error) {
	switch shapeOf(e) {
	case Parabolic:
		D, err := SolveBarker(M, maxIterations)
		if err != nil {
			return math.NaN(), err
		}
		return 2 * math.Atan(D), nil
	case Hyperbolic:
		H, err := SolveKeplerHyperbolic(M, e, maxIterations)
		if err != nil {
			return math.NaN(), err
		}
		return 2 * math.Atan(math.Sqrt((e+1)/(e-1))*math.Tanh(H/2)), nil
	default:
		E, err := SolveKeplerElliptic(M, e, maxIterations)
		if err != nil {
			return math.NaN(), err
		}
		return wrap2π(eccentricToTrue(E, e)), nil
	}
}

func eccentricToTrue(E, e float64) float64 {
	sE, cE := math.Sincos(E / 2)
	return 2 * math.Atan2(math.Sqrt(1+e)*sE, math.Sqrt(1-e)*cE)
}

// trueToEccentric returns the eccentric (elliptic) or hyperbolic anomaly. Undefined for parabolas.
func trueToEccentric(ν, e float64) float64 {
	if isHyperbolic(e) && !isParabolic(e) {
		return 2 * math.Atanh(math.Sqrt((e-1)/(e+1))*math.Tan(ν/2))
	}
	sν, cν := math.Sincos(ν / 2)
	return wrap2π(2 * math.Atan2(math.Sqrt(1-e)*sν, math.Sqrt(1+e)*cν))
}

// meanFromTrue returns the mean anomaly by shape.
// Elliptic mean anomalies are in [0, 2π), the others are signed.
func meanFromTrue(ν, e float64) float64 {
	switch shapeOf(e) {
	case Parabolic:
		D := math.Tan(ν / 2)
		return D + D*D*D/3
	case Hyperbolic:
		H := trueToEccentric(ν, e)
		return e*math.Sinh(H) - H
	default:
		E := trueToEccentric(ν, e)
		return wrap2π(E - e*math.Sin(E))
	}
}
