package dsp

import (
	"math"
	"slices"
)

// RMS returns the root-mean-square energy of centered frames.
func RMS(x []float64, frameLen, hop int) []float64 {
	frames := Frames(PadCenter(x, frameLen/2), frameLen, hop)
	out := make([]float64, len(frames))
	for i, f := range frames {
		var acc float64
		for _, v := range f {
			acc += v * v
		}
		out[i] = math.Sqrt(acc / float64(frameLen))
	}
	return out
}

// AmplitudeToDB converts magnitudes to decibels relative to the largest
// value, flooring magnitudes at amin and the result at topDB below the
// peak.
func AmplitudeToDB(x []float64, amin, topDB float64) []float64 {
	if len(x) == 0 {
		return nil
	}
	ref := amin
	for _, v := range x {
		ref = math.Max(ref, math.Abs(v))
	}
	refDB := 20 * math.Log10(ref)

	out := make([]float64, len(x))
	peak := math.Inf(-1)
	for i, v := range x {
		out[i] = 20*math.Log10(math.Max(amin, math.Abs(v))) - refDB
		peak = math.Max(peak, out[i])
	}
	floor := peak - topDB
	for i := range out {
		out[i] = math.Max(out[i], floor)
	}
	return out
}

// median returns the median of buf, reordering it.
func median(buf []float64) float64 {
	slices.Sort(buf)
	n := len(buf)
	if n%2 == 1 {
		return buf[n/2]
	}
	return (buf[n/2-1] + buf[n/2]) / 2
}

// reflectIndex maps i into [0, n) by mirroring about the edges with the
// edge sample repeated (d c b a | a b c d | d c b a).
func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - 1 - i
	}
	return i
}

// MedianFilterTime applies a median filter of odd width k along the frame
// axis of a [frame][bin] matrix, independently per bin.
func MedianFilterTime(m [][]float64, k int) [][]float64 {
	frames := len(m)
	if frames == 0 {
		return nil
	}
	bins := len(m[0])
	out := make([][]float64, frames)
	for t := range out {
		out[t] = make([]float64, bins)
	}
	buf := make([]float64, k)
	half := k / 2
	for f := range bins {
		for t := range frames {
			for j := range k {
				buf[j] = m[reflectIndex(t+j-half, frames)][f]
			}
			out[t][f] = median(buf)
		}
	}
	return out
}

// MedianFilterFreq applies a median filter of odd width k along the bin
// axis of a [frame][bin] matrix, independently per frame.
func MedianFilterFreq(m [][]float64, k int) [][]float64 {
	out := make([][]float64, len(m))
	buf := make([]float64, k)
	half := k / 2
	for t, row := range m {
		bins := len(row)
		res := make([]float64, bins)
		for f := range bins {
			for j := range k {
				buf[j] = row[reflectIndex(f+j-half, bins)]
			}
			res[f] = median(buf)
		}
		out[t] = res
	}
	return out
}

// softMask returns (x/z)^p / ((x/z)^p + (ref/z)^p) with z = max(x, ref).
// Cells where both inputs vanish split evenly.
func softMask(x, ref [][]float64, power float64) [][]float64 {
	const tiny = 1.1754943508222875e-38
	out := make([][]float64, len(x))
	for t := range x {
		row := make([]float64, len(x[t]))
		for f := range row {
			z := math.Max(x[t][f], ref[t][f])
			if z < tiny {
				row[f] = 0.5
				continue
			}
			m := math.Pow(x[t][f]/z, power)
			r := math.Pow(ref[t][f]/z, power)
			row[f] = m / (m + r)
		}
		out[t] = row
	}
	return out
}

// HPSS splits x into harmonic and percussive components with median
// filtering of the magnitude spectrogram and soft masking.
func HPSS(x []float64, nFFT, hop, kernel int, power float64) (harmonic, percussive []float64) {
	spec := STFT(x, nFFT, hop)
	mag := spec.Magnitude()
	harm := MedianFilterTime(mag, kernel)
	perc := MedianFilterFreq(mag, kernel)

	harmonic = ISTFT(spec.Scale(softMask(harm, perc, power)), len(x))
	percussive = ISTFT(spec.Scale(softMask(perc, harm, power)), len(x))
	return harmonic, percussive
}

// GateConfig parameterizes stationary spectral gating.
type GateConfig struct {
	NFFT         int
	Hop          int
	NStdThresh   float64
	FreqSmoothHz float64
	TimeSmoothMs float64
	PropDecrease float64
	SampleRate   int
	TopDB        float64
}

// DefaultGate returns the stationary noise-gate settings used for speech.
func DefaultGate(sampleRate int) GateConfig {
	return GateConfig{
		NFFT:         1024,
		Hop:          256,
		NStdThresh:   1.5,
		FreqSmoothHz: 500,
		TimeSmoothMs: 50,
		PropDecrease: 0.9,
		SampleRate:   sampleRate,
		TopDB:        80,
	}
}

// SpectralGate attenuates stationary noise. The noise profile is estimated
// from the clip itself: a per-frequency threshold of mean + NStdThresh
// standard deviations in dB. The binary mask is smoothed with a triangular
// kernel and blended by PropDecrease.
func SpectralGate(x []float64, cfg GateConfig) []float64 {
	if len(x) == 0 {
		return nil
	}
	spec := STFT(x, cfg.NFFT, cfg.Hop)
	db := gateDB(spec.Magnitude(), cfg.TopDB)

	frames, bins := spec.Frames, spec.Bins
	thresh := make([]float64, bins)
	for f := range bins {
		var sum, sq float64
		for t := range frames {
			sum += db[t][f]
		}
		mean := sum / float64(frames)
		for t := range frames {
			d := db[t][f] - mean
			sq += d * d
		}
		thresh[f] = mean + math.Sqrt(sq/float64(frames))*cfg.NStdThresh
	}

	mask := make([][]float64, frames)
	for t := range frames {
		row := make([]float64, bins)
		for f := range bins {
			if db[t][f] > thresh[f] {
				row[f] = 1
			}
		}
		mask[t] = row
	}

	nFreq := int(cfg.FreqSmoothHz / (float64(cfg.SampleRate) / float64(cfg.NFFT/2)))
	nTime := int(cfg.TimeSmoothMs / (float64(cfg.Hop) / float64(cfg.SampleRate) * 1000))
	mask = convolveSame(mask, smoothingKernel(nTime, nFreq))

	for t := range mask {
		for f := range mask[t] {
			mask[t][f] = mask[t][f]*cfg.PropDecrease + (1 - cfg.PropDecrease)
		}
	}
	return ISTFT(spec.Scale(mask), len(x))
}

// gateDB converts magnitudes to dB, clipping each bin's values at topDB
// below that bin's peak.
func gateDB(mag [][]float64, topDB float64) [][]float64 {
	const amin = 1e-10
	out := make([][]float64, len(mag))
	for t, row := range mag {
		r := make([]float64, len(row))
		for f, v := range row {
			r[f] = 20 * math.Log10(math.Max(amin, v))
		}
		out[t] = r
	}
	if len(out) == 0 {
		return out
	}
	for f := range out[0] {
		peak := math.Inf(-1)
		for t := range out {
			peak = math.Max(peak, out[t][f])
		}
		for t := range out {
			out[t][f] = math.Max(out[t][f], peak-topDB)
		}
	}
	return out
}

// triangle returns the interior of a rising then falling ramp of width
// 2n+1, peaking at 1.
func triangle(n int) []float64 {
	var ramp []float64
	for i := range n + 1 {
		ramp = append(ramp, float64(i)/float64(n+1))
	}
	for i := range n + 2 {
		ramp = append(ramp, 1-float64(i)/float64(n+1))
	}
	return ramp[1 : len(ramp)-1]
}

// smoothingKernel returns a normalized [time][freq] triangular kernel.
func smoothingKernel(nTime, nFreq int) [][]float64 {
	tw := triangle(nTime)
	fw := triangle(nFreq)
	k := make([][]float64, len(tw))
	var sum float64
	for i, a := range tw {
		k[i] = make([]float64, len(fw))
		for j, b := range fw {
			k[i][j] = a * b
			sum += a * b
		}
	}
	for i := range k {
		for j := range k[i] {
			k[i][j] /= sum
		}
	}
	return k
}

// convolveSame is a zero-padded 2-D convolution returning the centered
// part with the shape of m.
func convolveSame(m, k [][]float64) [][]float64 {
	rows := len(m)
	if rows == 0 {
		return nil
	}
	cols := len(m[0])
	kr, kc := len(k), len(k[0])
	or, oc := (kr-1)/2, (kc-1)/2

	out := make([][]float64, rows)
	for i := range rows {
		row := make([]float64, cols)
		for j := range cols {
			var acc float64
			for a := range kr {
				mi := i + or - a
				if mi < 0 || mi >= rows {
					continue
				}
				for b := range kc {
					mj := j + oc - b
					if mj < 0 || mj >= cols {
						continue
					}
					acc += m[mi][mj] * k[a][b]
				}
			}
			row[j] = acc
		}
		out[i] = row
	}
	return out
}
