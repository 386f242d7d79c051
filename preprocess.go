package talkie

import (
	"math"
	"sort"
)

// Preprocessor stages. Each stage is a pure samples -> samples function;
// only resample changes the buffer length. The encoder chains them in a
// fixed order before segmentation.

// removeDC subtracts the mean of the buffer.
func removeDC(samples []float64) []float64 {
	out := make([]float64, len(samples))
	if len(samples) == 0 {
		return out
	}
	mean := 0.0
	for _, v := range samples {
		mean += v
	}
	mean /= float64(len(samples))
	for i, v := range samples {
		out[i] = v - mean
	}
	return out
}

// peakNormalize scales the buffer so the largest magnitude becomes 1.0.
// A silent buffer is returned unchanged.
func peakNormalize(samples []float64) []float64 {
	out := make([]float64, len(samples))
	peak := 0.0
	for _, v := range samples {
		if math.Abs(v) > peak {
			peak = math.Abs(v)
		}
	}
	if peak == 0 {
		copy(out, samples)
		return out
	}
	for i, v := range samples {
		out[i] = v / peak
	}
	return out
}

// medianFilter replaces each sample with the median of a centered window.
// Windows of 0 or 1 are a no-op; even windows are widened by one.
func medianFilter(samples []float64, window int) []float64 {
	if window < 2 {
		out := make([]float64, len(samples))
		copy(out, samples)
		return out
	}
	if window%2 == 0 {
		window++
	}
	half := window / 2
	out := make([]float64, len(samples))
	buf := make([]float64, 0, window)
	for i := range samples {
		buf = buf[:0]
		for j := i - half; j <= i+half; j++ {
			if j >= 0 && j < len(samples) {
				buf = append(buf, samples[j])
			}
		}
		sort.Float64s(buf)
		out[i] = buf[len(buf)/2]
	}
	return out
}

// noiseGate attenuates stretches whose short-term RMS envelope falls below
// the threshold. Knee controls how sharply gain falls off below the
// threshold (1 = proportional, larger = harder gate).
func noiseGate(samples []float64, rate int, cfg NoiseGateConfig) []float64 {
	out := make([]float64, len(samples))
	if !cfg.Enable || cfg.Threshold <= 0 || len(samples) == 0 {
		copy(out, samples)
		return out
	}
	knee := cfg.Knee
	if knee <= 0 {
		knee = 1
	}
	win := rate / 100 // 10 ms envelope window
	if win < 1 {
		win = 1
	}
	// Running sum of squares over a centered window.
	prefix := make([]float64, len(samples)+1)
	for i, v := range samples {
		prefix[i+1] = prefix[i] + v*v
	}
	for i := range samples {
		lo := i - win/2
		hi := i + win/2 + 1
		if lo < 0 {
			lo = 0
		}
		if hi > len(samples) {
			hi = len(samples)
		}
		env := math.Sqrt((prefix[hi] - prefix[lo]) / float64(hi-lo))
		gain := 1.0
		if env < cfg.Threshold {
			gain = math.Pow(env/cfg.Threshold, knee)
		}
		out[i] = samples[i] * gain
	}
	return out
}

// biquad is a direct-form-1 second-order section with carried state, the
// same filter shape the SILK codebase runs its prefilters through.
type biquad struct {
	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     float64
}

func (f *biquad) process(samples []float64) []float64 {
	out := make([]float64, len(samples))
	for i, x := range samples {
		y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
		f.x2, f.x1 = f.x1, x
		f.y2, f.y1 = f.y1, y
		out[i] = y
	}
	return out
}

// butterworth builds a 2nd-order Butterworth section (Q = 1/sqrt(2)) at
// the given cutoff. highpass selects the high-pass form.
func butterworth(cutoff float64, rate int, highpass bool) *biquad {
	w0 := 2 * math.Pi * cutoff / float64(rate)
	cw, sw := math.Cos(w0), math.Sin(w0)
	alpha := sw / math.Sqrt2
	a0 := 1 + alpha
	f := &biquad{}
	if highpass {
		f.b0 = (1 + cw) / 2 / a0
		f.b1 = -(1 + cw) / a0
		f.b2 = (1 + cw) / 2 / a0
	} else {
		f.b0 = (1 - cw) / 2 / a0
		f.b1 = (1 - cw) / a0
		f.b2 = (1 - cw) / 2 / a0
	}
	f.a1 = -2 * cw / a0
	f.a2 = (1 - alpha) / a0
	return f
}

// lowpassFilter runs a Butterworth low-pass over the buffer.
func lowpassFilter(samples []float64, rate int, cutoff float64) []float64 {
	if cutoff <= 0 || cutoff >= float64(rate)/2 {
		out := make([]float64, len(samples))
		copy(out, samples)
		return out
	}
	return butterworth(cutoff, rate, false).process(samples)
}

// highpassFilter runs a Butterworth high-pass over the buffer.
func highpassFilter(samples []float64, rate int, cutoff float64) []float64 {
	if cutoff <= 0 || cutoff >= float64(rate)/2 {
		out := make([]float64, len(samples))
		copy(out, samples)
		return out
	}
	return butterworth(cutoff, rate, true).process(samples)
}

// resample converts the buffer from one rate to another by two-point
// interpolation. Identical rates return a copy.
func resample(samples []float64, from, to int) []float64 {
	if from == to || len(samples) == 0 {
		out := make([]float64, len(samples))
		copy(out, samples)
		return out
	}
	n := int(math.Round(float64(len(samples)) * float64(to) / float64(from)))
	if n < 1 {
		n = 1
	}
	out := make([]float64, n)
	step := float64(from) / float64(to)
	for i := 0; i < n; i++ {
		pos := float64(i) * step
		j := int(pos)
		if j >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := pos - float64(j)
		out[i] = samples[j]*(1-frac) + samples[j+1]*frac
	}
	return out
}

// preEmphasize applies y[i] = x[i] - alpha*x[i-1], boosting the high end
// before LPC analysis. The first sample passes through unchanged.
func preEmphasize(samples []float64, alpha float64) []float64 {
	out := make([]float64, len(samples))
	if len(samples) == 0 {
		return out
	}
	out[0] = samples[0]
	for i := 1; i < len(samples); i++ {
		out[i] = samples[i] - alpha*samples[i-1]
	}
	return out
}
