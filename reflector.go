package talkie

import "math"

// kClamp keeps every reflection coefficient strictly inside the stable
// region of the lattice.
const kClamp = 0.999

// newReflector runs the Leroux-Gueguen recursion on one frame's raw
// autocorrelation r[0..10], producing reflection coefficients K[1..10] and
// the frame RMS in 16-bit units.
//
// The recursion is numerically touchy when a frame is nearly silent or
// nearly singular, and the guards here are load-bearing: a degenerate
// frame must come out as zero energy / zero coefficients so that it
// quantizes to a silence frame, never as NaN.
func newReflector(r []float64, numSamples int) Reflector {
	var refl Reflector
	if numSamples <= 0 || len(r) < LPCOrder+1 {
		return refl
	}
	if r[0] == 0 || math.IsNaN(r[0]) || math.IsInf(r[0], 0) {
		return refl
	}

	var (
		k [LPCOrder + 1]float64
		b [LPCOrder + 1]float64
		d [LPCOrder + 2]float64
	)

	// Order 1 seeds the recursion; orders 2..10 update the auxiliary
	// arrays in place.
	k[1] = -r[1] / r[0]
	d[1] = r[1]
	d[2] = r[0] + k[1]*r[1]

	residual := d[2]
	for i := 2; i <= LPCOrder; i++ {
		if d[i] <= 0 || math.IsNaN(d[i]) || math.IsInf(d[i], 0) {
			// Residual energy collapsed; zero the remaining
			// coefficients and stop.
			for j := i; j <= LPCOrder; j++ {
				k[j] = 0
			}
			break
		}
		y := r[i]
		b[1] = y
		for j := 1; j < i; j++ {
			b[j+1] = d[j] + k[j]*y
			y += k[j] * d[j]
			d[j] = b[j]
		}
		k[i] = -y / d[i]
		d[i+1] = d[i] + k[i]*y
		d[i] = b[i]
		residual = d[i+1]
	}

	for i := 1; i <= LPCOrder; i++ {
		v := k[i]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		refl.K[i] = math.Max(-kClamp, math.Min(kClamp, v))
	}
	refl.RMS = formatRMS(residual, numSamples)
	return refl
}

// formatRMS converts residual energy to an RMS value in 16-bit units.
func formatRMS(residual float64, numSamples int) float64 {
	if residual < 0 || math.IsNaN(residual) || math.IsInf(residual, 0) {
		residual = 0
	}
	return math.Sqrt(residual/float64(numSamples)) * (1 << 15)
}

// classify sets the Unvoiced flag. The default classifier declares a frame
// unvoiced when any of three criteria fires: the frame is too quiet to be
// a vowel, pre-emphasis grew the energy disproportionately (noise-like
// spectrum), or the pitch search found no convincing periodicity. The
// legacy single-criterion mode mirrors the oldest encoder behavior: a
// first reflection coefficient at or above the threshold means unvoiced.
func (r *Reflector) classify(cfg *EncoderConfig) {
	if cfg.LegacyClassifier {
		r.Unvoiced = r.K[1] >= cfg.UnvoicedThreshold
		return
	}
	switch {
	case r.Energy < cfg.MinFrameEnergy:
		r.Unvoiced = true
	case cfg.EnergyRatioThreshold > 0 && r.EmphasizedEnergy > 0 &&
		r.Energy/r.EmphasizedEnergy < cfg.EnergyRatioThreshold:
		r.Unvoiced = true
	case r.PitchQuality < cfg.PitchQualityThreshold:
		r.Unvoiced = true
	default:
		r.Unvoiced = false
	}
}
