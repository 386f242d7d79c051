package talkie

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoveDC(t *testing.T) {
	out := removeDC([]float64{1.5, 2.5, 3.5})
	assert.InDelta(t, -1, out[0], 1e-12)
	assert.InDelta(t, 0, out[1], 1e-12)
	assert.InDelta(t, 1, out[2], 1e-12)

	assert.Empty(t, removeDC(nil))
}

func TestPeakNormalize(t *testing.T) {
	out := peakNormalize([]float64{0.1, -0.5, 0.25})
	assert.InDelta(t, 0.2, out[0], 1e-12)
	assert.InDelta(t, -1.0, out[1], 1e-12)
	assert.InDelta(t, 0.5, out[2], 1e-12)

	silent := peakNormalize(make([]float64, 4))
	assert.Equal(t, make([]float64, 4), silent)
}

func TestMedianFilterRemovesSpike(t *testing.T) {
	in := []float64{1, 1, 1, 9, 1, 1, 1}
	out := medianFilter(in, 3)
	assert.InDelta(t, 1, out[3], 1e-12)

	// Width 0 and 1 are pass-throughs; even widths widen by one.
	assert.Equal(t, in, medianFilter(in, 0))
	assert.Equal(t, in, medianFilter(in, 1))
	assert.Equal(t, medianFilter(in, 5), medianFilter(in, 4))
}

func TestPreEmphasize(t *testing.T) {
	in := []float64{1, 2, 3, 4}
	out := preEmphasize(in, 0.9)
	assert.InDelta(t, 1, out[0], 1e-12)
	assert.InDelta(t, 2-0.9*1, out[1], 1e-12)
	assert.InDelta(t, 3-0.9*2, out[2], 1e-12)
	assert.InDelta(t, 4-0.9*3, out[3], 1e-12)
}

func TestPreEmphasizeGrowsNoiseEnergy(t *testing.T) {
	// Alternating-sign input is the worst case for the differencer; its
	// energy must grow, which is what the ratio classifier keys on.
	in := make([]float64, 200)
	for i := range in {
		if i%2 == 0 {
			in[i] = 1
		} else {
			in[i] = -1
		}
	}
	out := preEmphasize(in, 0.9373)
	assert.Greater(t, energy(out), energy(in))
}

func TestResample(t *testing.T) {
	in := make([]float64, 160)
	for i := range in {
		in[i] = math.Sin(2 * math.Pi * float64(i) / 32)
	}
	out := resample(in, 16000, 8000)
	assert.Len(t, out, 80)

	// Halving the rate doubles samples-per-cycle steps; every other input
	// sample survives exactly.
	for i := 0; i < 80; i++ {
		assert.InDelta(t, in[i*2], out[i], 1e-12)
	}

	same := resample(in, 8000, 8000)
	assert.Equal(t, in, same)

	up := resample(in, 8000, 16000)
	assert.Len(t, up, 320)
}

func TestLowpassAttenuatesHighFrequencies(t *testing.T) {
	n := 800
	low := make([]float64, n)
	high := make([]float64, n)
	for i := range low {
		low[i] = math.Sin(2 * math.Pi * 200 * float64(i) / SampleRate)
		high[i] = math.Sin(2 * math.Pi * 3500 * float64(i) / SampleRate)
	}
	outLow := lowpassFilter(low, SampleRate, 800)
	outHigh := lowpassFilter(high, SampleRate, 800)

	assert.Greater(t, energy(outLow), 0.5*energy(low))
	assert.Less(t, energy(outHigh), 0.05*energy(high))

	// Out-of-range cutoffs disable the filter.
	assert.Equal(t, high, lowpassFilter(high, SampleRate, 0))
	assert.Equal(t, high, lowpassFilter(high, SampleRate, SampleRate))
}

func TestHighpassAttenuatesLowFrequencies(t *testing.T) {
	n := 800
	low := make([]float64, n)
	high := make([]float64, n)
	for i := range low {
		low[i] = math.Sin(2 * math.Pi * 50 * float64(i) / SampleRate)
		high[i] = math.Sin(2 * math.Pi * 1000 * float64(i) / SampleRate)
	}
	outLow := highpassFilter(low, SampleRate, 300)
	outHigh := highpassFilter(high, SampleRate, 300)

	assert.Less(t, energy(outLow), 0.1*energy(low))
	assert.Greater(t, energy(outHigh), 0.5*energy(high))
}

func TestNoiseGate(t *testing.T) {
	n := 1600
	in := make([]float64, n)
	for i := range in {
		v := math.Sin(2 * math.Pi * float64(i) / 40)
		if i < n/2 {
			in[i] = v // loud half
		} else {
			in[i] = 0.01 * v // quiet half
		}
	}
	cfg := NoiseGateConfig{Enable: true, Threshold: 0.1, Knee: 2}
	out := noiseGate(in, SampleRate, cfg)

	loudIn, loudOut := energy(in[:n/2]), energy(out[:n/2])
	quietIn, quietOut := energy(in[n/2+100:]), energy(out[n/2+100:])
	require.Greater(t, loudIn, 0.0)
	assert.Greater(t, loudOut, 0.9*loudIn, "loud material passes")
	assert.Less(t, quietOut, 0.1*quietIn, "quiet material is attenuated")

	disabled := noiseGate(in, SampleRate, NoiseGateConfig{})
	assert.Equal(t, in, disabled)
}

func TestButterworthIsStable(t *testing.T) {
	f := butterworth(1000, SampleRate, false)
	in := make([]float64, 4000)
	in[0] = 1
	out := f.process(in)
	for i := 3000; i < 4000; i++ {
		assert.InDelta(t, 0, out[i], 1e-6, "impulse response must decay")
	}
}
