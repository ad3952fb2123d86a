package dsp

import "math"

// resampleZeros is the number of sinc zero crossings kept on each side of
// the interpolation kernel.
const resampleZeros = 16

// Resample converts x from rate from to rate to with a Hann-windowed sinc
// interpolator. When downsampling the kernel cutoff follows the target
// Nyquist frequency.
func Resample(x []float64, from, to int) []float64 {
	if from == to || len(x) == 0 {
		out := make([]float64, len(x))
		copy(out, x)
		return out
	}
	ratio := float64(to) / float64(from)
	n := (len(x)*to + from - 1) / from
	fc := math.Min(1, ratio)
	half := float64(resampleZeros) / fc

	out := make([]float64, n)
	for i := range out {
		t := float64(i) / ratio
		lo := max(int(math.Ceil(t-half)), 0)
		hi := min(int(math.Floor(t+half)), len(x)-1)
		var acc float64
		for k := lo; k <= hi; k++ {
			d := t - float64(k)
			acc += x[k] * fc * sinc(fc*d) * hannTaper(d/half)
		}
		out[i] = acc
	}
	return out
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}

// hannTaper is a symmetric Hann window on [-1, 1].
func hannTaper(u float64) float64 {
	if u <= -1 || u >= 1 {
		return 0
	}
	return 0.5 * (1 + math.Cos(math.Pi*u))
}
