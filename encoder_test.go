package talkie

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEncoderValidation(t *testing.T) {
	ok := DefaultEncoderConfig()
	_, err := NewEncoder(ok)
	require.NoError(t, err)

	cases := []struct {
		name   string
		mutate func(*EncoderConfig)
	}{
		{"zero frame rate", func(c *EncoderConfig) { c.FrameRate = 0 }},
		{"zero window width", func(c *EncoderConfig) { c.WindowWidth = 0 }},
		{"negative speed", func(c *EncoderConfig) { c.Speed = -1 }},
		{"inverted pitch range", func(c *EncoderConfig) { c.MinPitchHz = 500; c.MaxPitchHz = 50 }},
		{"zero gain", func(c *EncoderConfig) { c.Gain = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultEncoderConfig()
			tc.mutate(&cfg)
			_, err := NewEncoder(cfg)
			assert.Error(t, err)
		})
	}
}

// parseFrames reads a packed stream back into frames, stopping after the
// stop frame. Repeat frames come back without K values, matching the wire.
func parseFrames(data []byte, table *CodingTable) []FrameData {
	r := bitReader{data: data}
	var out []FrameData
	for !r.exhausted() {
		var f FrameData
		f.Gain = r.read(energyBits)
		if f.Gain == table.StopIndex() {
			out = append(out, f)
			break
		}
		if f.Gain != 0 {
			f.Repeat = r.read(repeatBits) != 0
			f.Pitch = r.read(table.PitchBits)
			if !f.Repeat {
				n := f.kCount(table)
				for i := 1; i <= n; i++ {
					f.K[i] = r.read(table.KWidth(i))
				}
			}
		}
		out = append(out, f)
	}
	return out
}

func assertFramesSurviveWire(t *testing.T, frames []FrameData, table *CodingTable) {
	t.Helper()
	parsed := parseFrames(PackFrames(frames, table), table)
	require.Len(t, parsed, len(frames))
	for i, want := range frames {
		got := parsed[i]
		assert.Equal(t, want.Gain, got.Gain, "frame %d gain", i)
		assert.Equal(t, want.Repeat, got.Repeat, "frame %d repeat", i)
		if !want.IsSilence() && !want.IsStop(table) {
			assert.Equal(t, want.Pitch, got.Pitch, "frame %d pitch", i)
		}
		if !want.Repeat {
			assert.Equal(t, want.K, got.K, "frame %d coefficients", i)
		}
	}
}

func TestFixtureFramesSurviveWire(t *testing.T) {
	assertFramesSurviveWire(t, fixtureFrames, TableForDevice(TMS5220))
}

func TestEncodeVoicedSignal(t *testing.T) {
	cfg := DefaultEncoderConfig()
	enc, err := NewEncoder(cfg)
	require.NoError(t, err)

	samples := harmonicSignal(50, SampleRate) // one second at 160 Hz
	frames, err := enc.EncodeFrames(samples, SampleRate)
	require.NoError(t, err)
	require.NotEmpty(t, frames)

	assert.True(t, frames[len(frames)-1].IsStop(enc.Table()))

	voiced := 0
	for _, f := range frames[:len(frames)-1] {
		if f.Pitch != 0 {
			voiced++
			// Period 50 lands near table entries 0x31/0x33.
			p := enc.Table().Pitch[f.Pitch]
			assert.InDelta(t, 50, p, 3)
		}
	}
	assert.Greater(t, voiced, len(frames)/2, "a steady 160 Hz tone should be mostly voiced")

	assertFramesSurviveWire(t, frames, enc.Table())
}

func TestEncodeNoiseIsUnvoiced(t *testing.T) {
	cfg := DefaultEncoderConfig()
	enc, err := NewEncoder(cfg)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(11))
	samples := make([]float64, SampleRate)
	for i := range samples {
		samples[i] = rng.NormFloat64()
	}
	frames, err := enc.EncodeFrames(samples, SampleRate)
	require.NoError(t, err)

	for i, f := range frames[:len(frames)-1] {
		assert.Zero(t, f.Pitch, "frame %d: noise must never be voiced", i)
	}
	assertFramesSurviveWire(t, frames, enc.Table())
}

func TestEncodePitchOverride(t *testing.T) {
	cfg := DefaultEncoderConfig()
	cfg.PitchOverride = 57
	enc, err := NewEncoder(cfg)
	require.NoError(t, err)

	frames, err := enc.EncodeFrames(harmonicSignal(50, SampleRate), SampleRate)
	require.NoError(t, err)

	table := enc.Table()
	for i, f := range frames {
		if f.IsSilence() || f.IsStop(table) {
			continue
		}
		assert.Equal(t, 57.0, table.Pitch[f.Pitch], "frame %d", i)
	}
}

func TestEncodeSpeedDoublesFrameCount(t *testing.T) {
	samples := harmonicSignal(50, SampleRate)

	normal, err := NewEncoder(DefaultEncoderConfig())
	require.NoError(t, err)
	base, err := normal.EncodeFrames(samples, SampleRate)
	require.NoError(t, err)

	cfg := DefaultEncoderConfig()
	cfg.Speed = 2
	fast, err := NewEncoder(cfg)
	require.NoError(t, err)
	doubled, err := fast.EncodeFrames(samples, SampleRate)
	require.NoError(t, err)

	assert.InDelta(t, 2*len(base), len(doubled), 2)
}

func TestEncodeResamplesInput(t *testing.T) {
	cfg := DefaultEncoderConfig()
	enc, err := NewEncoder(cfg)
	require.NoError(t, err)

	// The same tone at 16 kHz must produce the same frame count and the
	// same pitch as its 8 kHz rendering.
	at16k := harmonicSignal(100, 2*SampleRate)
	frames16, err := enc.EncodeFrames(at16k, 2*SampleRate)
	require.NoError(t, err)

	frames8, err := enc.EncodeFrames(harmonicSignal(50, SampleRate), SampleRate)
	require.NoError(t, err)
	assert.Equal(t, len(frames8), len(frames16))
}

func TestEncodeWithoutStopFrame(t *testing.T) {
	cfg := DefaultEncoderConfig()
	cfg.IncludeStopFrame = false
	enc, err := NewEncoder(cfg)
	require.NoError(t, err)

	frames, err := enc.EncodeFrames(harmonicSignal(50, SampleRate), SampleRate)
	require.NoError(t, err)
	assert.False(t, frames[len(frames)-1].IsStop(enc.Table()))
}

func TestEncodeErrors(t *testing.T) {
	enc, err := NewEncoder(DefaultEncoderConfig())
	require.NoError(t, err)

	_, err = enc.EncodeFrames(nil, SampleRate)
	assert.Error(t, err)

	_, err = enc.EncodeFrames(make([]float64, 100), 0)
	assert.Error(t, err)
}

func TestTrimSilence(t *testing.T) {
	voiced := FrameData{Gain: 8, Pitch: 20}
	frames := []FrameData{
		{Gain: 0}, {Gain: 0},
		voiced, {Gain: 0}, voiced,
		{Gain: 0},
	}
	got := trimSilence(frames)
	require.Len(t, got, 3)
	assert.Equal(t, voiced, got[0])
	assert.True(t, got[1].IsSilence(), "interior silence survives")
	assert.Equal(t, voiced, got[2])

	assert.Empty(t, trimSilence([]FrameData{{Gain: 0}, {Gain: 0}}))
}

func TestFormatHex(t *testing.T) {
	assert.Equal(t, "0x09,0xD4", FormatHex([]byte{0x09, 0xD4}, "", 0))
	assert.Equal(t, "$09,$D4", FormatHex([]byte{0x09, 0xD4}, "$", 0))
	assert.Equal(t, "", FormatHex(nil, "0x", 4))
}

func TestFormatHexWrapping(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5}
	got := FormatHex(data, "0x", 2)
	assert.Equal(t, "0x01,0x02,\n0x03,0x04,\n0x05", got)
	assert.Equal(t, 2, strings.Count(got, "\n"))
}

func TestParseHex(t *testing.T) {
	data, err := ParseHex("0x09,0xD4, 0xff\n0X2d")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x09, 0xD4, 0xFF, 0x2D}, data)

	// C array punctuation is tolerated.
	data, err = ParseHex("{ 0x01, 0x02 };")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, data)

	_, err = ParseHex("0x123")
	assert.Error(t, err, "out of byte range")

	_, err = ParseHex("zz")
	assert.Error(t, err)
}

func TestHexRoundTrip(t *testing.T) {
	got, err := ParseHex(FormatHex(fixtureBytes, "0x", 8))
	require.NoError(t, err)
	assert.Equal(t, fixtureBytes, got)
}

func TestEncodeMatchesEncodeFramesPlusPack(t *testing.T) {
	enc, err := NewEncoder(DefaultEncoderConfig())
	require.NoError(t, err)

	samples := harmonicSignal(50, SampleRate/2)
	data, err := enc.Encode(samples, SampleRate)
	require.NoError(t, err)
	frames, err := enc.EncodeFrames(samples, SampleRate)
	require.NoError(t, err)
	assert.Equal(t, PackFrames(frames, enc.Table()), data)
}
