package talkie

// Frame quantization: continuous Reflector parameters to coding-table
// indices. All lookups are nearest-value scans over an ascending table;
// ties resolve to the lower index, and out-of-range values clamp to the
// nearest end rather than failing.

// nearestIndex returns the index in table[lo..hi] whose value is closest
// to v. Values at or below table[lo] map to lo.
func nearestIndex(table []float64, v float64, lo, hi int) int {
	best := lo
	bestDist := abs(table[lo] - v)
	for i := lo + 1; i <= hi; i++ {
		d := abs(table[i] - v)
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// quantizeFrame maps one analyzed frame onto a FrameData. period is the
// estimated pitch period in samples (0 for unvoiced). gainLimit caps the
// energy index; it is always kept below the reserved stop index.
func quantizeFrame(refl *Reflector, period float64, t *CodingTable, gainLimit int) FrameData {
	var f FrameData

	if gainLimit <= 0 || gainLimit >= t.StopIndex() {
		gainLimit = t.StopIndex() - 1
	}
	f.Gain = nearestIndex(t.Energy, refl.RMS, 0, gainLimit)
	if f.Gain == 0 {
		// Silence frame: no further fields.
		return f
	}

	if !refl.Unvoiced && period > 0 {
		f.Pitch = nearestIndex(t.Pitch, period, 1, len(t.Pitch)-1)
	}

	f.K[1] = nearestIndex(t.K[1], refl.K[1], 0, len(t.K[1])-1)
	f.K[2] = nearestIndex(t.K[2], refl.K[2], 0, len(t.K[2])-1)
	f.K[3] = nearestIndex(t.K[3], refl.K[3], 0, len(t.K[3])-1)
	f.K[4] = nearestIndex(t.K[4], refl.K[4], 0, len(t.K[4])-1)
	if f.Pitch != 0 {
		for i := 5; i <= LPCOrder; i++ {
			f.K[i] = nearestIndex(t.K[i], refl.K[i], 0, len(t.K[i])-1)
		}
	}
	return f
}

// stopFrame returns the synthesized explicit stop frame for table t.
func stopFrame(t *CodingTable) FrameData {
	return FrameData{Gain: t.StopIndex()}
}

// normalizeRMS rescales frame energies so the loudest frame of each
// voicing class lands on the configured limit index's table value. Voiced
// and unvoiced frames are normalized independently because fricatives
// measure far quieter than vowels at equal perceived loudness.
func normalizeRMS(refls []Reflector, t *CodingTable, cfg *EncoderConfig) {
	normalizeClass := func(unvoiced bool, limit int) {
		if limit <= 0 || limit >= t.StopIndex() {
			limit = t.StopIndex() - 1
		}
		max := 0.0
		for i := range refls {
			if refls[i].Unvoiced == unvoiced && refls[i].RMS > max {
				max = refls[i].RMS
			}
		}
		if max <= 0 {
			return
		}
		scale := t.Energy[limit] / max
		for i := range refls {
			if refls[i].Unvoiced == unvoiced {
				refls[i].RMS *= scale
			}
		}
	}
	if cfg.NormalizeVoicedRMS {
		normalizeClass(false, cfg.VoicedRMSLimit)
	}
	if cfg.NormalizeUnvoicedRMS {
		normalizeClass(true, cfg.UnvoicedRMSLimit)
	}
}

// markRepeats flags frames whose quantized K coefficients and pitch index
// match the immediately preceding non-silent frame, letting the decoder
// reuse the prior frame's filter and the bitstream omit the K fields.
func markRepeats(frames []FrameData, t *CodingTable) {
	prev := -1
	for i := range frames {
		f := &frames[i]
		if f.IsSilence() || f.IsStop(t) {
			continue
		}
		if prev >= 0 && frames[prev].K == f.K && frames[prev].Pitch == f.Pitch {
			f.Repeat = true
		}
		prev = i
	}
}
