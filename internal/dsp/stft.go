// Package dsp implements the signal-processing building blocks used by the
// speech analyzer: framing, short-time Fourier transforms, filters,
// resampling, pitch tracking, linear prediction and harmonic/percussive
// separation.
package dsp

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Spectrogram is a complex STFT with Bins rows and Frames columns.
type Spectrogram struct {
	Bins   int
	Frames int
	NFFT   int
	Hop    int
	Data   [][]complex128 // Data[frame][bin]
}

// Magnitude returns |X| as [frame][bin].
func (s *Spectrogram) Magnitude() [][]float64 {
	out := make([][]float64, s.Frames)
	for t, frame := range s.Data {
		row := make([]float64, s.Bins)
		for f, c := range frame {
			row[f] = cmplx.Abs(c)
		}
		out[t] = row
	}
	return out
}

// Scale multiplies each cell by mask[frame][bin] and returns a new
// spectrogram.
func (s *Spectrogram) Scale(mask [][]float64) *Spectrogram {
	out := &Spectrogram{Bins: s.Bins, Frames: s.Frames, NFFT: s.NFFT, Hop: s.Hop}
	out.Data = make([][]complex128, s.Frames)
	for t, frame := range s.Data {
		row := make([]complex128, s.Bins)
		for f, c := range frame {
			row[f] = c * complex(mask[t][f], 0)
		}
		out.Data[t] = row
	}
	return out
}

// Hann returns a periodic Hann window of length n.
func Hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

// PadCenter zero-pads x by pad samples on both sides.
func PadCenter(x []float64, pad int) []float64 {
	out := make([]float64, len(x)+2*pad)
	copy(out[pad:], x)
	return out
}

// Frames slices x into frames of frameLen samples every hop samples. Only
// full frames are returned. The frames alias x.
func Frames(x []float64, frameLen, hop int) [][]float64 {
	if len(x) < frameLen || hop <= 0 {
		return nil
	}
	n := 1 + (len(x)-frameLen)/hop
	out := make([][]float64, n)
	for i := range out {
		out[i] = x[i*hop : i*hop+frameLen]
	}
	return out
}

// STFT computes a centered, Hann-windowed short-time Fourier transform.
func STFT(x []float64, nFFT, hop int) *Spectrogram {
	padded := PadCenter(x, nFFT/2)
	frames := Frames(padded, nFFT, hop)
	win := Hann(nFFT)
	fft := fourier.NewFFT(nFFT)

	s := &Spectrogram{Bins: nFFT/2 + 1, Frames: len(frames), NFFT: nFFT, Hop: hop}
	s.Data = make([][]complex128, len(frames))
	buf := make([]float64, nFFT)
	for t, frame := range frames {
		for i, v := range frame {
			buf[i] = v * win[i]
		}
		s.Data[t] = fft.Coefficients(nil, buf)
	}
	return s
}

// ISTFT inverts STFT by weighted overlap-add and returns length samples.
func ISTFT(s *Spectrogram, length int) []float64 {
	nFFT, hop := s.NFFT, s.Hop
	win := Hann(nFFT)
	fft := fourier.NewFFT(nFFT)

	total := nFFT + hop*(s.Frames-1)
	if s.Frames == 0 {
		total = nFFT
	}
	y := make([]float64, total)
	wss := make([]float64, total)
	frame := make([]float64, nFFT)
	norm := 1 / float64(nFFT)
	for t, coeffs := range s.Data {
		fft.Sequence(frame, coeffs)
		off := t * hop
		for i := range frame {
			y[off+i] += frame[i] * norm * win[i]
			wss[off+i] += win[i] * win[i]
		}
	}

	const tiny = 1e-10
	for i := range y {
		if wss[i] > tiny {
			y[i] /= wss[i]
		}
	}

	start := nFFT / 2
	out := make([]float64, length)
	if start < len(y) {
		copy(out, y[start:])
	}
	return out
}
