package talkie

import (
	"fmt"
	"strings"

	"github.com/mjibson/go-dsp/window"
)

// Encoder turns a mono sample buffer into a TMS speech bitstream. It is a
// batch transform: preprocess, segment, analyze each frame, quantize, and
// pack. One Encoder may be reused across inputs; it holds only immutable
// configuration and the shared coding table.
type Encoder struct {
	cfg     EncoderConfig
	table   *CodingTable
	fft     FFT
	pitch   *pitchEstimator
	hamming []float64 // analysis window, nil unless enabled
}

// NewEncoder validates the configuration and builds an encoder.
func NewEncoder(cfg EncoderConfig) (*Encoder, error) {
	if cfg.FrameRate <= 0 {
		return nil, fmt.Errorf("invalid frame rate %v", cfg.FrameRate)
	}
	if cfg.WindowWidth < 1 {
		return nil, fmt.Errorf("invalid window width %d", cfg.WindowWidth)
	}
	if cfg.Speed <= 0 {
		return nil, fmt.Errorf("invalid speed %v", cfg.Speed)
	}
	if cfg.MinPitchHz <= 0 || cfg.MaxPitchHz <= cfg.MinPitchHz {
		return nil, fmt.Errorf("invalid pitch range %v..%v Hz", cfg.MinPitchHz, cfg.MaxPitchHz)
	}
	if cfg.Gain <= 0 {
		return nil, fmt.Errorf("invalid gain %v", cfg.Gain)
	}

	e := &Encoder{
		cfg:   cfg,
		table: TableForDevice(cfg.Device),
		fft:   NewFFT(),
	}
	e.pitch = newPitchEstimator(e.fft, &e.cfg)
	if cfg.HammingWindow {
		e.hamming = window.Hamming(cfg.frameSize() * cfg.WindowWidth)
	}
	return e, nil
}

// Table returns the encoder's coding table.
func (e *Encoder) Table() *CodingTable { return e.table }

// Encode runs the full pipeline and returns the packed byte stream.
// samples is mono audio in [-1, 1] at the given rate.
func (e *Encoder) Encode(samples []float64, rate int) ([]byte, error) {
	frames, err := e.EncodeFrames(samples, rate)
	if err != nil {
		return nil, err
	}
	return PackFrames(frames, e.table), nil
}

// EncodeFrames runs the pipeline up to quantization and returns the frame
// sequence (including repeat marking and the explicit stop frame, when
// configured).
func (e *Encoder) EncodeFrames(samples []float64, rate int) ([]FrameData, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", rate)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("empty input")
	}

	plain := e.preprocess(samples, rate)
	emphasized := plain
	if e.cfg.PreEmphasis {
		emphasized = preEmphasize(plain, e.cfg.PreEmphasisAlpha)
	}

	refls, periods := e.analyze(plain, emphasized)
	normalizeRMS(refls, e.table, &e.cfg)

	frames := make([]FrameData, 0, len(refls)+1)
	for i := range refls {
		limit := e.cfg.VoicedRMSLimit
		if refls[i].Unvoiced {
			limit = e.cfg.UnvoicedRMSLimit
		}
		frames = append(frames, quantizeFrame(&refls[i], periods[i], e.table, limit))
	}

	if e.cfg.TrimSilence {
		frames = trimSilence(frames)
	}
	if e.cfg.DetectRepeats {
		markRepeats(frames, e.table)
	}
	if e.cfg.IncludeStopFrame {
		frames = append(frames, stopFrame(e.table))
	}
	return frames, nil
}

// preprocess runs the conditioning chain and resamples to the working
// rate.
func (e *Encoder) preprocess(samples []float64, rate int) []float64 {
	cfg := &e.cfg

	x := samples
	if cfg.StartSample > 0 || cfg.EndSample > 0 {
		start, end := cfg.StartSample, cfg.EndSample
		if end <= 0 || end > len(x) {
			end = len(x)
		}
		if start > end {
			start = end
		}
		x = x[start:end]
	}

	if cfg.RemoveDC {
		x = removeDC(x)
	}
	if cfg.HighpassCutoff > 0 {
		x = highpassFilter(x, rate, cfg.HighpassCutoff)
	}
	if cfg.LowpassCutoff > 0 {
		x = lowpassFilter(x, rate, cfg.LowpassCutoff)
	}
	if cfg.MedianFilterWindow > 1 {
		x = medianFilter(x, cfg.MedianFilterWindow)
	}
	if cfg.NoiseGate.Enable {
		x = noiseGate(x, rate, cfg.NoiseGate)
	}
	if cfg.PeakNormalize {
		x = peakNormalize(x)
	}
	return resample(x, rate, SampleRate)
}

// analyze segments the conditioned signal and produces one Reflector and
// pitch period per frame.
func (e *Encoder) analyze(plain, emphasized []float64) ([]Reflector, []float64) {
	cfg := &e.cfg
	windowLen := cfg.frameSize() * cfg.WindowWidth
	hop := cfg.hopSize()

	var refls []Reflector
	var periods []float64
	for start := 0; start < len(plain); start += hop {
		p := segment(plain, start, windowLen)
		m := segment(emphasized, start, windowLen)

		var period, quality float64
		if cfg.PitchOverride > 0 {
			period, quality = float64(cfg.PitchOverride), 1
		} else {
			period, quality = e.pitch.estimate(p)
		}

		buf := m
		if e.hamming != nil {
			buf = make([]float64, len(m))
			for i := range m {
				buf[i] = m[i] * e.hamming[i]
			}
		}
		refl := newReflector(rawCoefficients(buf, LPCOrder+1), windowLen)
		refl.Energy = energy(p)
		refl.EmphasizedEnergy = energy(m)
		refl.PitchQuality = quality
		refl.classify(cfg)
		if refl.Unvoiced {
			period = 0
		}

		refl.RMS *= cfg.Gain
		if refl.Unvoiced && cfg.UnvoicedGain > 0 {
			refl.RMS *= cfg.UnvoicedGain
		}

		refls = append(refls, refl)
		periods = append(periods, period)
	}
	return refls, periods
}

// segment returns a length-n window starting at `start`, zero-padded past
// the end of the signal.
func segment(x []float64, start, n int) []float64 {
	out := make([]float64, n)
	if start < len(x) {
		copy(out, x[start:])
	}
	return out
}

// trimSilence drops leading and trailing silence frames.
func trimSilence(frames []FrameData) []FrameData {
	lo := 0
	for lo < len(frames) && frames[lo].IsSilence() {
		lo++
	}
	hi := len(frames)
	for hi > lo && frames[hi-1].IsSilence() {
		hi--
	}
	return frames[lo:hi]
}

// FormatHex renders the byte stream as a comma-separated literal list
// (e.g. "0x09,0xD4,...") ready to paste into firmware source. prefix is
// prepended to every byte ("0x" if empty); perLine > 0 wraps the list.
func FormatHex(data []byte, prefix string, perLine int) string {
	if prefix == "" {
		prefix = "0x"
	}
	var b strings.Builder
	for i, v := range data {
		if i > 0 {
			b.WriteByte(',')
			if perLine > 0 && i%perLine == 0 {
				b.WriteByte('\n')
			}
		}
		fmt.Fprintf(&b, "%s%02X", prefix, v)
	}
	return b.String()
}

// ParseHex reads the list format FormatHex emits. Commas, whitespace and
// C array punctuation are separators; each token is a base-16 byte with
// an optional 0x prefix.
func ParseHex(text string) ([]byte, error) {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		switch r {
		case ',', '{', '}', ';', '\n', '\r', '\t', ' ':
			return true
		}
		return false
	})
	out := make([]byte, 0, len(fields))
	for _, tok := range fields {
		s := strings.TrimPrefix(strings.TrimPrefix(tok, "0x"), "0X")
		if s == "" {
			continue
		}
		var v uint64
		if _, err := fmt.Sscanf(s, "%x", &v); err != nil {
			return nil, fmt.Errorf("bad byte literal %q: %w", tok, err)
		}
		if v > 0xFF {
			return nil, fmt.Errorf("byte literal %q out of range", tok)
		}
		out = append(out, byte(v))
	}
	return out, nil
}
