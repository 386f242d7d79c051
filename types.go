package talkie

import "math"

// Basic constants.
const (
	// SampleRate is the codec's working rate. All analysis and synthesis
	// happens at 8 kHz; the preprocessor resamples whatever it is given.
	SampleRate = 8000

	// DefaultFrameRate yields the chips' native 25 ms frames.
	DefaultFrameRate = 40.0

	// LPCOrder is the number of lattice filter stages.
	LPCOrder = 10
)

// Reflector holds one analysis frame's LPC result: reflection coefficients
// K[1..10] (index 0 unused), the frame RMS in 16-bit units, and the
// auxiliary statistics the voicing classifier consumes. It is derived
// entirely from one frame's autocorrelation and discarded after
// quantization.
type Reflector struct {
	K   [LPCOrder + 1]float64
	RMS float64

	// Classification inputs.
	Energy           float64 // frame energy before pre-emphasis
	EmphasizedEnergy float64 // frame energy after pre-emphasis
	PitchQuality     float64 // peak normalized autocorrelation, 0..1

	Unvoiced bool
}

// FrameData is the quantized, encode-ready representation of one frame.
// All values are coding-table indices. Field presence follows the wire
// format: a silence or stop frame carries only Gain; a repeat frame
// carries Gain, Repeat and Pitch; K5-K10 exist only on voiced non-repeat
// frames.
type FrameData struct {
	Gain   int
	Repeat bool
	Pitch  int
	K      [LPCOrder + 1]int // K[1..10], index 0 unused
}

// IsSilence reports whether the frame is a silence (rest) frame.
func (f FrameData) IsSilence() bool { return f.Gain == 0 }

// IsStop reports whether the frame is an explicit stop frame for table t.
func (f FrameData) IsStop(t *CodingTable) bool { return f.Gain == t.StopIndex() }

// kCount returns how many coefficient fields the frame carries on the wire.
func (f FrameData) kCount(t *CodingTable) int {
	switch {
	case f.IsSilence() || f.IsStop(t) || f.Repeat:
		return 0
	case f.Pitch == 0:
		return 4
	default:
		return LPCOrder
	}
}

// NoiseGateConfig controls the optional preprocessor noise gate.
type NoiseGateConfig struct {
	Enable    bool
	Threshold float64 // envelope level below which attenuation starts, 0..1
	Knee      float64 // softness exponent; higher = harder gate
}

// EncoderConfig is the full encoder configuration surface. Zero values are
// not meaningful for most fields; start from DefaultEncoderConfig.
type EncoderConfig struct {
	Device Device

	// Framing.
	FrameRate   float64 // frames per second
	WindowWidth int     // analysis window width in frames
	Speed       float64 // frame-advance multiplier; >1 plays faster

	// Preprocessing.
	RemoveDC           bool
	PeakNormalize      bool
	MedianFilterWindow int     // 0 or 1 disables
	HighpassCutoff     float64 // Hz, 0 disables
	LowpassCutoff      float64 // Hz, 0 disables
	NoiseGate          NoiseGateConfig
	PreEmphasis        bool
	PreEmphasisAlpha   float64
	HammingWindow      bool // window the LPC analysis buffer

	// Pitch estimation.
	MinPitchHz           float64
	MaxPitchHz           float64
	SubMultipleThreshold float64 // octave-error rejection, 0..1
	PitchOverride        int     // fixed pitch period in samples; 0 = estimate

	// Voicing classification. The three-criterion classifier runs unless
	// LegacyClassifier is set, in which case K1 >= UnvoicedThreshold alone
	// decides.
	LegacyClassifier      bool
	UnvoicedThreshold     float64
	MinFrameEnergy        float64
	EnergyRatioThreshold  float64 // 0 disables the ratio criterion
	PitchQualityThreshold float64

	// Gain shaping.
	NormalizeVoicedRMS   bool
	NormalizeUnvoicedRMS bool
	VoicedRMSLimit       int     // highest gain index a voiced frame may use
	UnvoicedRMSLimit     int     // highest gain index an unvoiced frame may use
	Gain                 float64 // linear output gain multiplier
	UnvoicedGain         float64 // extra multiplier on unvoiced frames

	// Stream shaping.
	DetectRepeats    bool
	IncludeStopFrame bool
	TrimSilence      bool // drop leading/trailing silence frames
	StartSample      int  // discard input samples before this offset
	EndSample        int  // discard input samples at/after this offset; 0 = end
}

// DefaultEncoderConfig returns the encoder defaults: TMS5220 tables, 25 ms
// frames, pre-emphasis on, 50-500 Hz pitch search and the three-criterion
// classifier.
func DefaultEncoderConfig() EncoderConfig {
	return EncoderConfig{
		Device:      TMS5220,
		FrameRate:   DefaultFrameRate,
		WindowWidth: 2,
		Speed:       1.0,

		RemoveDC:         true,
		PeakNormalize:    true,
		PreEmphasis:      true,
		PreEmphasisAlpha: 0.9373,

		MinPitchHz:           50,
		MaxPitchHz:           500,
		SubMultipleThreshold: 0.9,

		UnvoicedThreshold:     0.3,
		MinFrameEnergy:        0.2,
		EnergyRatioThreshold:  0, // off by default
		PitchQualityThreshold: 0.3,

		VoicedRMSLimit:   14,
		UnvoicedRMSLimit: 14,
		Gain:             1.0,
		UnvoicedGain:     1.0,

		DetectRepeats:    true,
		IncludeStopFrame: true,
	}
}

// frameSize returns samples per frame at the working rate.
func (c *EncoderConfig) frameSize() int {
	return int(math.Round(SampleRate / c.FrameRate))
}

// hopSize returns the frame advance in samples after applying Speed.
func (c *EncoderConfig) hopSize() int {
	h := int(math.Round(float64(c.frameSize()) / c.Speed))
	if h < 1 {
		h = 1
	}
	return h
}
