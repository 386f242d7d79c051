package talkie

import "math"

// pitchEstimator finds the pitch period of a frame, in samples, from the
// normalized autocorrelation over the configured period range. A result of
// zero period means no convincing periodicity was found.
type pitchEstimator struct {
	fft       FFT
	minPeriod int
	maxPeriod int
	subMult   float64 // sub-multiple acceptance threshold, 0..1
	quality   float64 // minimum peak coefficient to call a frame pitched
}

func newPitchEstimator(f FFT, cfg *EncoderConfig) *pitchEstimator {
	minP := int(SampleRate / cfg.MaxPitchHz)
	maxP := int(SampleRate / cfg.MinPitchHz)
	if minP < 2 {
		minP = 2
	}
	return &pitchEstimator{
		fft:       f,
		minPeriod: minP,
		maxPeriod: maxP,
		subMult:   cfg.SubMultipleThreshold,
		quality:   cfg.PitchQualityThreshold,
	}
}

// estimate returns the pitch period and the peak normalized
// autocorrelation for one frame. Period 0 means unvoiced.
func (p *pitchEstimator) estimate(samples []float64) (period, quality float64) {
	maxLag := p.maxPeriod
	if maxLag >= len(samples) {
		maxLag = len(samples) - 1
	}
	if maxLag < p.minPeriod {
		return 0, 0
	}
	c := normalizedCoefficients(p.fft, samples, p.minPeriod, maxLag)

	best := p.minPeriod
	for lag := p.minPeriod; lag <= maxLag; lag++ {
		if c[lag] > c[best] {
			best = lag
		}
	}
	quality = c[best]
	if quality < p.quality {
		return 0, quality
	}

	period = interpolatePeak(c, best, p.minPeriod, maxLag)
	period = p.correctOctave(c, period, c[best], maxLag)
	return period, quality
}

// interpolatePeak refines the integer peak with a parabola through the
// three surrounding coefficients. Degenerate fits fall back to the
// integer peak.
func interpolatePeak(c []float64, best, minLag, maxLag int) float64 {
	if best <= minLag || best >= maxLag {
		return float64(best)
	}
	den := c[best-1] - 2*c[best] + c[best+1]
	if den == 0 {
		return float64(best)
	}
	offset := 0.5 * (c[best-1] - c[best+1]) / den
	if math.IsNaN(offset) || math.IsInf(offset, 0) || math.Abs(offset) >= 1 {
		return float64(best)
	}
	return float64(best) + offset
}

// correctOctave guards against picking a harmonic multiple of the true
// pitch. For each candidate divisor, largest first, it accepts the divisor
// only if every sub-multiple position of the peak period also shows strong
// correlation; the accepted divisor scales the period down.
func (p *pitchEstimator) correctOctave(c []float64, period, peak float64, maxLag int) float64 {
	threshold := p.subMult * peak
	for divisor := int(period) / p.minPeriod; divisor >= 2; divisor-- {
		strong := true
		for i := 0; i < divisor; i++ {
			sub := period * float64(i+1) / float64(divisor)
			idx := int(sub + 0.5)
			if idx > maxLag {
				idx = maxLag
			}
			if c[idx] < threshold {
				strong = false
				break
			}
		}
		if strong {
			return period / float64(divisor)
		}
	}
	return period
}
