// tmsenc encodes a WAV file into TMS5220/TMS5100 LPC speech data,
// emitted as a comma-separated hex byte list ready to embed in firmware
// source (or as raw bytes with -bin).
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mjibson/go-dsp/wav"
	"github.com/sirupsen/logrus"

	talkie "github.com/atomic14/ch32v003-audio-sub001"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [flags] input.wav [output]\n", os.Args[0])
	flag.PrintDefaults()
	os.Exit(1)
}

func main() {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	var (
		device   = flag.String("device", "tms5220", "target chip: tms5220 or tms5100")
		bin      = flag.Bool("bin", false, "write raw bytes instead of hex text")
		prefix   = flag.String("prefix", "0x", "per-byte prefix for hex output")
		perLine  = flag.Int("per-line", 12, "hex bytes per output line (0 = one line)")
		verbose  = flag.Bool("v", false, "verbose logging")
		cfgFlags = bindConfigFlags()
	)
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 || flag.NArg() > 2 {
		usage()
	}
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg := cfgFlags.apply()
	switch *device {
	case "tms5220":
		cfg.Device = talkie.TMS5220
	case "tms5100":
		cfg.Device = talkie.TMS5100
	default:
		log.Fatalf("unknown device %q", *device)
	}

	samples, rate, err := readWav(flag.Arg(0))
	if err != nil {
		log.WithError(err).Fatal("reading input")
	}
	log.WithFields(logrus.Fields{
		"file":    flag.Arg(0),
		"samples": len(samples),
		"rate":    rate,
	}).Debug("input loaded")

	enc, err := talkie.NewEncoder(cfg)
	if err != nil {
		log.WithError(err).Fatal("encoder configuration")
	}

	frames, err := enc.EncodeFrames(samples, rate)
	if err != nil {
		log.WithError(err).Fatal("encoding")
	}
	data := talkie.PackFrames(frames, enc.Table())
	log.WithFields(logrus.Fields{
		"frames": len(frames),
		"bytes":  len(data),
		"device": cfg.Device.String(),
	}).Info("encoded")

	var out io.Writer = os.Stdout
	if flag.NArg() == 2 && flag.Arg(1) != "-" {
		f, err := os.Create(flag.Arg(1))
		if err != nil {
			log.WithError(err).Fatal("creating output")
		}
		defer f.Close()
		out = f
	}

	if *bin {
		if _, err := out.Write(data); err != nil {
			log.WithError(err).Fatal("writing output")
		}
		return
	}
	if _, err := fmt.Fprintln(out, talkie.FormatHex(data, *prefix, *perLine)); err != nil {
		log.WithError(err).Fatal("writing output")
	}
}

// readWav loads a WAV file and downmixes it to mono floats in [-1, 1].
func readWav(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	w, err := wav.New(f)
	if err != nil {
		return nil, 0, fmt.Errorf("parsing %s: %w", path, err)
	}
	raw, err := w.ReadFloats(w.Samples)
	if err != nil {
		return nil, 0, fmt.Errorf("reading %s: %w", path, err)
	}

	channels := int(w.NumChannels)
	if channels < 1 {
		channels = 1
	}
	mono := make([]float64, len(raw)/channels)
	for i := range mono {
		sum := 0.0
		for c := 0; c < channels; c++ {
			sum += float64(raw[i*channels+c])
		}
		mono[i] = sum / float64(channels)
	}
	return mono, int(w.SampleRate), nil
}

// configFlags maps the encoder configuration surface onto CLI flags.
type configFlags struct {
	frameRate    *float64
	windowWidth  *int
	speed        *float64
	noDC         *bool
	noPeak       *bool
	median       *int
	highpass     *float64
	lowpass      *float64
	gateThresh   *float64
	gateKnee     *float64
	noEmphasis   *bool
	alpha        *float64
	hamming      *bool
	minPitch     *float64
	maxPitch     *float64
	subMult      *float64
	pitchFixed   *int
	legacy       *bool
	unvThresh    *float64
	minEnergy    *float64
	energyRatio  *float64
	pitchQual    *float64
	normVoiced   *bool
	normUnvoiced *bool
	voicedLimit  *int
	unvLimit     *int
	gain         *float64
	unvGain      *float64
	noRepeats    *bool
	noStop       *bool
	trim         *bool
	startSample  *int
	endSample    *int
}

func bindConfigFlags() *configFlags {
	d := talkie.DefaultEncoderConfig()
	return &configFlags{
		frameRate:    flag.Float64("frame-rate", d.FrameRate, "frames per second"),
		windowWidth:  flag.Int("window", d.WindowWidth, "analysis window width in frames"),
		speed:        flag.Float64("speed", d.Speed, "playback speed multiplier"),
		noDC:         flag.Bool("no-dc-removal", false, "disable DC removal"),
		noPeak:       flag.Bool("no-normalize", false, "disable peak normalization"),
		median:       flag.Int("median", d.MedianFilterWindow, "median filter window (0 = off)"),
		highpass:     flag.Float64("highpass", d.HighpassCutoff, "highpass cutoff Hz (0 = off)"),
		lowpass:      flag.Float64("lowpass", d.LowpassCutoff, "lowpass cutoff Hz (0 = off)"),
		gateThresh:   flag.Float64("gate", 0, "noise gate threshold (0 = off)"),
		gateKnee:     flag.Float64("gate-knee", 1, "noise gate knee"),
		noEmphasis:   flag.Bool("no-preemphasis", false, "disable pre-emphasis"),
		alpha:        flag.Float64("alpha", d.PreEmphasisAlpha, "pre-emphasis alpha"),
		hamming:      flag.Bool("hamming", false, "apply Hamming window to analysis frames"),
		minPitch:     flag.Float64("min-pitch", d.MinPitchHz, "minimum pitch in Hz"),
		maxPitch:     flag.Float64("max-pitch", d.MaxPitchHz, "maximum pitch in Hz"),
		subMult:      flag.Float64("sub-multiple", d.SubMultipleThreshold, "octave correction threshold"),
		pitchFixed:   flag.Int("pitch-override", 0, "fixed pitch period in samples (0 = estimate)"),
		legacy:       flag.Bool("legacy-classifier", false, "use the single-threshold voicing classifier"),
		unvThresh:    flag.Float64("unvoiced-threshold", d.UnvoicedThreshold, "legacy classifier K1 threshold"),
		minEnergy:    flag.Float64("min-energy", d.MinFrameEnergy, "minimum frame energy for voiced"),
		energyRatio:  flag.Float64("energy-ratio", d.EnergyRatioThreshold, "energy ratio threshold (0 = off)"),
		pitchQual:    flag.Float64("pitch-quality", d.PitchQualityThreshold, "pitch quality threshold"),
		normVoiced:   flag.Bool("normalize-voiced", false, "normalize voiced frame RMS"),
		normUnvoiced: flag.Bool("normalize-unvoiced", false, "normalize unvoiced frame RMS"),
		voicedLimit:  flag.Int("voiced-limit", d.VoicedRMSLimit, "max gain index for voiced frames"),
		unvLimit:     flag.Int("unvoiced-limit", d.UnvoicedRMSLimit, "max gain index for unvoiced frames"),
		gain:         flag.Float64("gain", d.Gain, "output gain multiplier"),
		unvGain:      flag.Float64("unvoiced-gain", d.UnvoicedGain, "unvoiced gain multiplier"),
		noRepeats:    flag.Bool("no-repeats", false, "disable repeat frame detection"),
		noStop:       flag.Bool("no-stop-frame", false, "omit the explicit stop frame"),
		trim:         flag.Bool("trim-silence", false, "trim leading/trailing silence frames"),
		startSample:  flag.Int("start", 0, "first input sample to use"),
		endSample:    flag.Int("end", 0, "input sample to stop at (0 = end)"),
	}
}

func (c *configFlags) apply() talkie.EncoderConfig {
	cfg := talkie.DefaultEncoderConfig()
	cfg.FrameRate = *c.frameRate
	cfg.WindowWidth = *c.windowWidth
	cfg.Speed = *c.speed
	cfg.RemoveDC = !*c.noDC
	cfg.PeakNormalize = !*c.noPeak
	cfg.MedianFilterWindow = *c.median
	cfg.HighpassCutoff = *c.highpass
	cfg.LowpassCutoff = *c.lowpass
	if *c.gateThresh > 0 {
		cfg.NoiseGate = talkie.NoiseGateConfig{Enable: true, Threshold: *c.gateThresh, Knee: *c.gateKnee}
	}
	cfg.PreEmphasis = !*c.noEmphasis
	cfg.PreEmphasisAlpha = *c.alpha
	cfg.HammingWindow = *c.hamming
	cfg.MinPitchHz = *c.minPitch
	cfg.MaxPitchHz = *c.maxPitch
	cfg.SubMultipleThreshold = *c.subMult
	cfg.PitchOverride = *c.pitchFixed
	cfg.LegacyClassifier = *c.legacy
	cfg.UnvoicedThreshold = *c.unvThresh
	cfg.MinFrameEnergy = *c.minEnergy
	cfg.EnergyRatioThreshold = *c.energyRatio
	cfg.PitchQualityThreshold = *c.pitchQual
	cfg.NormalizeVoicedRMS = *c.normVoiced
	cfg.NormalizeUnvoicedRMS = *c.normUnvoiced
	cfg.VoicedRMSLimit = *c.voicedLimit
	cfg.UnvoicedRMSLimit = *c.unvLimit
	cfg.Gain = *c.gain
	cfg.UnvoicedGain = *c.unvGain
	cfg.DetectRepeats = !*c.noRepeats
	cfg.IncludeStopFrame = !*c.noStop
	cfg.TrimSilence = *c.trim
	cfg.StartSample = *c.startSample
	cfg.EndSample = *c.endSample
	return cfg
}
