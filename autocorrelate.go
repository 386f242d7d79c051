package talkie

import "math"

// Autocorrelation comes in two flavors here. LPC analysis wants the raw
// energy-domain sums r[0..10]; the pitch search wants coefficients
// normalized into [-1, 1] over a period range of up to a couple hundred
// lags. The former is a trivial direct sum; the latter is worth doing via
// the power spectrum (Wiener-Khinchin) with a single FFT pair.

// rawCoefficients computes r[lag] = sum(x[i]*x[i+lag]) for lag 0..maxLag-1.
func rawCoefficients(samples []float64, maxLag int) []float64 {
	n := len(samples)
	r := make([]float64, maxLag)
	for lag := 0; lag < maxLag; lag++ {
		sum := 0.0
		for i := 0; i+lag < n; i++ {
			sum += samples[i] * samples[i+lag]
		}
		r[lag] = sum
	}
	return r
}

// normalizedCoefficients computes, for each lag up to maxLag inclusive,
//
//	c[lag] = sum(x[i]*x[i+lag]) / sqrt(sum(x[i]^2) * sum(x[i+lag]^2))
//
// over the valid overlap region, with c[lag] = 0 for lag < minLag. The
// numerator for all lags comes from one forward/inverse FFT of the
// zero-padded signal; the per-lag energy terms come from a prefix sum.
func normalizedCoefficients(f FFT, samples []float64, minLag, maxLag int) []float64 {
	n := len(samples)
	c := make([]float64, maxLag+1)
	if n == 0 || maxLag >= n {
		return c
	}

	// Linear (not circular) correlation needs padding to at least n+maxLag.
	size := 1
	for size < n+maxLag+1 {
		size <<= 1
	}
	padded := make([]float64, size)
	copy(padded, samples)
	spec := f.Forward(padded)
	for i, v := range spec {
		spec[i] = complex(real(v)*real(v)+imag(v)*imag(v), 0)
	}
	corr := f.Inverse(spec)

	// prefix[i] = sum of x[0..i-1]^2.
	prefix := make([]float64, n+1)
	for i, v := range samples {
		prefix[i+1] = prefix[i] + v*v
	}

	for lag := minLag; lag <= maxLag; lag++ {
		head := prefix[n-lag]            // energy of x[0 .. n-lag-1]
		tail := prefix[n] - prefix[lag]  // energy of x[lag .. n-1]
		den := math.Sqrt(head * tail)
		if den <= 0 || math.IsNaN(den) {
			continue
		}
		v := corr[lag] / den
		if math.IsInf(v, 0) || math.IsNaN(v) {
			continue
		}
		c[lag] = v
	}
	return c
}

// energy returns the sum of squares of the buffer.
func energy(samples []float64) float64 {
	sum := 0.0
	for _, v := range samples {
		sum += v * v
	}
	return sum
}
