package talkie

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func harmonicSignal(period float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		t := float64(i)
		for h := 1; h <= 5; h++ {
			out[i] += math.Sin(2*math.Pi*float64(h)*t/period) / float64(h)
		}
	}
	return out
}

func TestEstimateHarmonicSignal(t *testing.T) {
	cfg := DefaultEncoderConfig()
	p := newPitchEstimator(NewFFT(), &cfg)

	period, quality := p.estimate(harmonicSignal(50, 400))
	assert.InDelta(t, 50, period, 0.5)
	assert.Greater(t, quality, 0.9)
}

func TestEstimatePureSine(t *testing.T) {
	cfg := DefaultEncoderConfig()
	p := newPitchEstimator(NewFFT(), &cfg)

	samples := make([]float64, 400)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * float64(i) / 63)
	}
	period, quality := p.estimate(samples)
	assert.InDelta(t, 63, period, 0.1)
	assert.Greater(t, quality, 0.95)
}

func TestEstimateAperiodicSignal(t *testing.T) {
	cfg := DefaultEncoderConfig()
	p := newPitchEstimator(NewFFT(), &cfg)

	// A lone impulse correlates with nothing at any lag.
	samples := make([]float64, 400)
	samples[10] = 1
	period, quality := p.estimate(samples)
	assert.Zero(t, period)
	assert.Less(t, quality, cfg.PitchQualityThreshold)
}

func TestEstimateQualityGate(t *testing.T) {
	cfg := DefaultEncoderConfig()
	cfg.PitchQualityThreshold = 1.1 // unreachable
	p := newPitchEstimator(NewFFT(), &cfg)

	samples := make([]float64, 400)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * float64(i) / 63)
	}
	period, quality := p.estimate(samples)
	assert.Zero(t, period, "quality below threshold must report unvoiced")
	assert.Greater(t, quality, 0.95, "the measured quality is still returned")
}

func TestEstimateShortBuffer(t *testing.T) {
	cfg := DefaultEncoderConfig()
	p := newPitchEstimator(NewFFT(), &cfg)

	period, quality := p.estimate(make([]float64, 8))
	assert.Zero(t, period)
	assert.Zero(t, quality)
}

func TestInterpolatePeak(t *testing.T) {
	c := []float64{0, 0, 0.8, 1.0, 0.9, 0}
	got := interpolatePeak(c, 3, 1, 5)
	assert.InDelta(t, 3.0+1.0/6.0, got, 1e-9)

	// Symmetric neighbors leave the peak where it is.
	c = []float64{0, 0, 0.9, 1.0, 0.9, 0}
	assert.Equal(t, 3.0, interpolatePeak(c, 3, 1, 5))

	// Peaks at the search boundary are not refined.
	assert.Equal(t, 1.0, interpolatePeak(c, 1, 1, 5))
	assert.Equal(t, 5.0, interpolatePeak(c, 5, 1, 5))
}

func TestCorrectOctave(t *testing.T) {
	cfg := DefaultEncoderConfig()
	p := newPitchEstimator(NewFFT(), &cfg)
	require.Equal(t, 16, p.minPeriod)

	// Strong correlation at every multiple of 25: the peak at 100 is an
	// octave error and must be divided down.
	c := make([]float64, 161)
	for i := range c {
		c[i] = 0.1
	}
	c[25], c[50], c[75] = 0.95, 0.95, 0.95
	c[100] = 1.0
	got := p.correctOctave(c, 100, 1.0, 160)
	assert.InDelta(t, 25, got, 1e-9)

	// Without support at the sub-multiples the peak stands.
	c[25], c[75] = 0.1, 0.1
	got = p.correctOctave(c, 100, 1.0, 160)
	assert.InDelta(t, 50, got, 1e-9, "half-period support alone halves the estimate")

	c[50] = 0.1
	got = p.correctOctave(c, 100, 1.0, 160)
	assert.InDelta(t, 100, got, 1e-9)
}
