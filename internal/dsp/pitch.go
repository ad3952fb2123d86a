package dsp

import "math"

// YINConfig parameterizes the YIN fundamental-frequency estimator.
type YINConfig struct {
	FMin, FMax      float64
	SampleRate      int
	FrameLength     int
	WinLength       int // 0 means FrameLength/2
	Hop             int // 0 means FrameLength/4
	TroughThreshold float64
}

// YIN estimates one fundamental frequency per frame. The signal is
// zero-padded by FrameLength/2 on both sides so frames are centered.
func YIN(x []float64, cfg YINConfig) []float64 {
	win := cfg.WinLength
	if win == 0 {
		win = cfg.FrameLength / 2
	}
	hop := cfg.Hop
	if hop == 0 {
		hop = cfg.FrameLength / 4
	}
	sr := float64(cfg.SampleRate)
	minPeriod := int(math.Floor(sr / cfg.FMax))
	maxPeriod := min(int(math.Ceil(sr/cfg.FMin)), cfg.FrameLength-win-1)
	if minPeriod < 1 || maxPeriod <= minPeriod+1 {
		return nil
	}

	frames := Frames(PadCenter(x, cfg.FrameLength/2), cfg.FrameLength, hop)
	out := make([]float64, len(frames))
	diff := make([]float64, maxPeriod+1)
	cmnd := make([]float64, maxPeriod+1)
	for i, frame := range frames {
		differenceFunction(frame, win, diff)
		cumulativeMeanNormalize(diff, cmnd)
		out[i] = sr / pickPeriod(cmnd[minPeriod:], minPeriod, cfg.TroughThreshold)
	}
	return out
}

// differenceFunction fills d[tau] = sum_j (x[j] - x[j+tau])^2 over a
// window of win samples.
func differenceFunction(x []float64, win int, d []float64) {
	for tau := range d {
		var acc float64
		for j := range win {
			v := x[j] - x[j+tau]
			acc += v * v
		}
		d[tau] = acc
	}
}

func cumulativeMeanNormalize(d, out []float64) {
	out[0] = 1
	var cum float64
	for tau := 1; tau < len(d); tau++ {
		cum += d[tau]
		if cum == 0 {
			out[tau] = 1
			continue
		}
		out[tau] = d[tau] * float64(tau) / cum
	}
}

// pickPeriod returns the refined period for one frame of the normalized
// difference, starting at lag offset.
func pickPeriod(y []float64, offset int, threshold float64) float64 {
	shifts := parabolicShifts(y)

	best := -1
	for i := range y {
		trough := false
		switch {
		case i == 0:
			trough = len(y) > 1 && y[0] < y[1]
		case i == len(y)-1:
			trough = y[i] < y[i-1]
		default:
			trough = y[i] < y[i-1] && y[i] <= y[i+1]
		}
		if trough && y[i] < threshold {
			best = i
			break
		}
	}
	if best < 0 {
		best = 0
		for i, v := range y {
			if v < y[best] {
				best = i
			}
		}
	}
	return float64(offset+best) + shifts[best]
}

func parabolicShifts(y []float64) []float64 {
	shifts := make([]float64, len(y))
	for i := 1; i < len(y)-1; i++ {
		a := y[i+1] + y[i-1] - 2*y[i]
		b := (y[i+1] - y[i-1]) / 2
		if math.Abs(b) < math.Abs(a) {
			shifts[i] = -b / a
		}
	}
	return shifts
}
