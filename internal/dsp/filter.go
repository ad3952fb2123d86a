package dsp

import (
	"fmt"
	"math"
	"math/cmplx"
)

// ButterBandpass designs a digital Butterworth band-pass filter of the
// given order with cutoffs low and high in Hz, returning transfer function
// coefficients (b, a). The analog prototype is mapped through the
// bilinear transform with pre-warped band edges.
func ButterBandpass(order int, low, high, fs float64) (b, a []float64, err error) {
	nyq := fs / 2
	if order < 1 || low <= 0 || high <= low || high >= nyq {
		return nil, nil, fmt.Errorf("invalid band-pass design: order=%d low=%g high=%g fs=%g", order, low, high, fs)
	}

	fs2 := 2 * fs
	w1 := fs2 * math.Tan(math.Pi*low/fs)
	w2 := fs2 * math.Tan(math.Pi*high/fs)
	bw := w2 - w1
	w0 := math.Sqrt(w1 * w2)

	// Analog low-pass prototype poles, unit gain.
	proto := make([]complex128, 0, order)
	for m := -order + 1; m < order; m += 2 {
		proto = append(proto, -cmplx.Exp(complex(0, math.Pi*float64(m)/float64(2*order))))
	}

	// Low-pass to band-pass: every pole splits in two, order zeros at s=0.
	poles := make([]complex128, 0, 2*order)
	for _, p := range proto {
		pl := p * complex(bw/2, 0)
		root := cmplx.Sqrt(pl*pl - complex(w0*w0, 0))
		poles = append(poles, pl+root)
	}
	for _, p := range proto {
		pl := p * complex(bw/2, 0)
		root := cmplx.Sqrt(pl*pl - complex(w0*w0, 0))
		poles = append(poles, pl-root)
	}
	zeros := make([]complex128, order)
	gain := math.Pow(bw, float64(order))

	// Bilinear transform.
	zz := make([]complex128, 0, 2*order)
	num := complex(1, 0)
	for _, z := range zeros {
		zz = append(zz, (complex(fs2, 0)+z)/(complex(fs2, 0)-z))
		num *= complex(fs2, 0) - z
	}
	for range len(poles) - len(zeros) {
		zz = append(zz, -1)
	}
	pz := make([]complex128, len(poles))
	den := complex(1, 0)
	for i, p := range poles {
		pz[i] = (complex(fs2, 0) + p) / (complex(fs2, 0) - p)
		den *= complex(fs2, 0) - p
	}
	k := gain * real(num/den)

	b = realPoly(zz)
	for i := range b {
		b[i] *= k
	}
	a = realPoly(pz)
	return b, a, nil
}

// realPoly expands prod(x - r) and returns the real parts of its
// coefficients, highest power first.
func realPoly(roots []complex128) []float64 {
	c := []complex128{1}
	for _, r := range roots {
		next := make([]complex128, len(c)+1)
		for i, v := range c {
			next[i] += v
			next[i+1] -= v * r
		}
		c = next
	}
	out := make([]float64, len(c))
	for i, v := range c {
		out[i] = real(v)
	}
	return out
}

// LFilter applies the IIR filter (b, a) to x with zero initial state
// (direct form II transposed).
func LFilter(b, a, x []float64) []float64 {
	n := max(len(a), len(b))
	bn := make([]float64, n)
	an := make([]float64, n)
	copy(bn, b)
	copy(an, a)
	a0 := an[0]
	for i := range n {
		bn[i] /= a0
		an[i] /= a0
	}

	y := make([]float64, len(x))
	z := make([]float64, n)
	for i, xi := range x {
		yi := bn[0]*xi + z[0]
		for j := 1; j < n; j++ {
			next := 0.0
			if j < n-1 {
				next = z[j]
			}
			z[j-1] = bn[j]*xi + next - an[j]*yi
		}
		y[i] = yi
	}
	return y
}
