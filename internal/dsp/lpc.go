package dsp

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrIllConditioned is returned when a linear-prediction fit cannot be
// computed for a frame.
var ErrIllConditioned = errors.New("ill-conditioned frame")

// LPC estimates linear prediction coefficients of the given order using
// Burg's method. The result has order+1 entries with a leading 1.
func LPC(x []float64, order int) ([]float64, error) {
	if order < 1 {
		return nil, fmt.Errorf("lpc order must be positive, got %d", order)
	}
	if len(x) <= order {
		return nil, fmt.Errorf("lpc: %d samples for order %d: %w", len(x), order, ErrIllConditioned)
	}
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("lpc: non-finite sample: %w", ErrIllConditioned)
		}
	}

	ar := make([]float64, order+1)
	ar[0] = 1
	prev := make([]float64, order+1)

	fwd := append([]float64(nil), x[1:]...)
	bwd := append([]float64(nil), x[:len(x)-1]...)
	den := floats.Dot(fwd, fwd) + floats.Dot(bwd, bwd)
	if den == 0 {
		return nil, fmt.Errorf("lpc: silent frame: %w", ErrIllConditioned)
	}

	const tiny = 2.2250738585072014e-308
	for i := range order {
		k := -2 * floats.Dot(bwd, fwd) / (den + tiny)

		copy(prev, ar)
		for j := 1; j <= i+1; j++ {
			ar[j] = prev[j] + k*prev[i-j+1]
		}

		for n := range fwd {
			f := fwd[n]
			fwd[n] = f + k*bwd[n]
			bwd[n] = bwd[n] + k*f
		}

		q := 1 - k*k
		den = q*den - bwd[len(bwd)-1]*bwd[len(bwd)-1] - fwd[0]*fwd[0]

		fwd = fwd[1:]
		bwd = bwd[:len(bwd)-1]
		if len(fwd) == 0 && i < order-1 {
			return nil, fmt.Errorf("lpc: frame exhausted at order %d: %w", i+1, ErrIllConditioned)
		}
	}

	for _, v := range ar {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("lpc: non-finite coefficient: %w", ErrIllConditioned)
		}
	}
	return ar, nil
}

// Roots returns the roots of the polynomial with coefficients c, highest
// power first, as the eigenvalues of its companion matrix.
func Roots(c []float64) ([]complex128, error) {
	// Leading zeros do not change the roots; trailing zeros are roots at 0.
	start := 0
	for start < len(c) && c[start] == 0 {
		start++
	}
	end := len(c)
	for end > start && c[end-1] == 0 {
		end--
	}
	trailing := len(c) - end
	c = c[start:end]

	var roots []complex128
	if deg := len(c) - 1; deg >= 1 {
		comp := mat.NewDense(deg, deg, nil)
		for j := range deg {
			comp.Set(0, j, -c[j+1]/c[0])
		}
		for i := 1; i < deg; i++ {
			comp.Set(i, i-1, 1)
		}
		var eig mat.Eigen
		if ok := eig.Factorize(comp, mat.EigenNone); !ok {
			return nil, fmt.Errorf("companion eigen decomposition failed: %w", ErrIllConditioned)
		}
		roots = eig.Values(nil)
	}
	for range trailing {
		roots = append(roots, 0)
	}
	return roots, nil
}
