package talkie

// Coding tables for the TMS5220 and TMS5100 speech chips.
//
// The encoded bitstream carries table indices, not parameter values; these
// tables map between the two. Each table has one row per device. The raw
// values are the chips' fixed-point reflection coefficients (K1/K2 as
// signed Q15, K3-K10 as signed Q7), amplitude levels and pitch periods in
// samples. The continuous-domain quantization targets used by the encoder
// are derived from the same rows at init time, so encoder and decoder can
// never disagree about what an index means.

// Device selects which chip's coding tables and pitch field width apply.
type Device int

const (
	TMS5220 Device = iota // 6-bit pitch index (TI-99/4A and the original Talkie library)
	TMS5100               // 5-bit pitch index (Speak & Spell)
)

func (d Device) String() string {
	if d == TMS5100 {
		return "TMS5100"
	}
	return "TMS5220"
}

// Per-parameter bit-field widths, identical for both devices except the
// pitch index.
const (
	energyBits = 4
	repeatBits = 1
)

// kBits[i] is the field width of coefficient Ki (index 0 unused).
var kBits = [11]int{0, 5, 5, 4, 4, 4, 4, 4, 3, 3, 3}

// Energy levels (chip amplitude units). Index 0 is the silence frame,
// index 15 the stop frame; neither value is ever played as-is.
var tmsEnergy = [2][16]uint8{
	{0x00, 0x02, 0x03, 0x04, 0x05, 0x07, 0x0A, 0x0F,
		0x14, 0x20, 0x29, 0x39, 0x51, 0x72, 0xA1, 0xFF},
	{0x00, 0x00, 0x01, 0x01, 0x02, 0x03, 0x05, 0x07,
		0x0A, 0x0E, 0x15, 0x1E, 0x2B, 0x3D, 0x56, 0x00},
}

// Pitch periods in samples at 8 kHz. Index 0 means unvoiced. The TMS5100
// row only defines 32 entries; the tail is padding so both rows index the
// same way.
var tmsPeriod = [2][64]uint8{
	{0x00, 0x10, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16,
		0x17, 0x18, 0x19, 0x1A, 0x1B, 0x1C, 0x1D, 0x1E,
		0x1F, 0x20, 0x21, 0x22, 0x23, 0x24, 0x25, 0x26,
		0x27, 0x28, 0x29, 0x2A, 0x2B, 0x2D, 0x2F, 0x31,
		0x33, 0x35, 0x36, 0x39, 0x3B, 0x3D, 0x3F, 0x42,
		0x45, 0x47, 0x49, 0x4D, 0x4F, 0x51, 0x55, 0x57,
		0x5C, 0x5F, 0x63, 0x66, 0x6A, 0x6E, 0x73, 0x77,
		0x7B, 0x80, 0x85, 0x8A, 0x8F, 0x95, 0x9A, 0xA0},
	{0x00, 0x29, 0x2B, 0x2D, 0x2F, 0x31, 0x33, 0x35,
		0x37, 0x3A, 0x3C, 0x3F, 0x42, 0x46, 0x49, 0x4C,
		0x4F, 0x53, 0x57, 0x5A, 0x5E, 0x63, 0x67, 0x6B,
		0x70, 0x76, 0x7B, 0x81, 0x86, 0x8C, 0x93, 0x99},
}

// K1 and K2: signed Q15, 5-bit indices.
var tmsK1 = [2][32]uint16{
	{0x82C0, 0x8380, 0x83C0, 0x8440, 0x84C0, 0x8540, 0x8600, 0x8780,
		0x8880, 0x8980, 0x8AC0, 0x8C00, 0x8D40, 0x8F00, 0x90C0, 0x92C0,
		0x9900, 0xA140, 0xAB80, 0xB840, 0xC740, 0xD8C0, 0xEBC0, 0x0000,
		0x1440, 0x2740, 0x38C0, 0x47C0, 0x5480, 0x5EC0, 0x6700, 0x6D40},
	{0x82C0, 0x83C0, 0x84C0, 0x8600, 0x8800, 0x8A40, 0x8D00, 0x9080,
		0x9540, 0x9AC0, 0xA180, 0xAA00, 0xB3C0, 0xBF40, 0xCC80, 0xDB00,
		0xEA80, 0xFAC0, 0x0B40, 0x1B80, 0x2AC0, 0x38C0, 0x4540, 0x5000,
		0x5940, 0x6100, 0x6740, 0x6C80, 0x70C0, 0x7400, 0x7680, 0x7C80},
}

var tmsK2 = [2][32]uint16{
	{0xAE00, 0xB480, 0xBB80, 0xC340, 0xCB80, 0xD440, 0xDDC0, 0xE780,
		0xF180, 0xFBC0, 0x0600, 0x1040, 0x1A40, 0x2400, 0x2D40, 0x3600,
		0x3E40, 0x45C0, 0x4CC0, 0x5300, 0x5880, 0x5DC0, 0x6240, 0x6640,
		0x69C0, 0x6CC0, 0x6F80, 0x71C0, 0x73C0, 0x7580, 0x7700, 0x7E80},
	{0xA8C0, 0xAE00, 0xB3C0, 0xBA00, 0xC100, 0xC840, 0xD000, 0xD880,
		0xE100, 0xEA00, 0xF340, 0xFC80, 0x05C0, 0x0F00, 0x1840, 0x2140,
		0x29C0, 0x31C0, 0x3980, 0x40C0, 0x4780, 0x4D80, 0x5340, 0x5880,
		0x5D00, 0x6140, 0x6500, 0x6840, 0x6B40, 0x6DC0, 0x7040, 0x7E80},
}

// K3-K7: signed Q7, 4-bit indices.
var tmsK3 = [2][16]uint8{
	{0x92, 0x9F, 0xAD, 0xBA, 0xC8, 0xD5, 0xE3, 0xF0,
		0xFE, 0x0B, 0x19, 0x26, 0x34, 0x41, 0x4F, 0x5C},
	{0x9E, 0xA6, 0xAF, 0xBA, 0xC8, 0xD6, 0xE7, 0xF8,
		0x09, 0x1A, 0x2A, 0x39, 0x46, 0x52, 0x5B, 0x63},
}

var tmsK4 = [2][16]uint8{
	{0xAE, 0xBC, 0xCA, 0xD8, 0xE6, 0xF4, 0x01, 0x0F,
		0x1D, 0x2B, 0x39, 0x47, 0x55, 0x63, 0x71, 0x7E},
	{0xA5, 0xAD, 0xB8, 0xC4, 0xD1, 0xE0, 0xF0, 0x00,
		0x10, 0x20, 0x2F, 0x3D, 0x49, 0x53, 0x5C, 0x63},
}

var tmsK5 = [2][16]uint8{
	{0xAE, 0xBA, 0xC5, 0xD1, 0xDD, 0xE8, 0xF4, 0xFF,
		0x0B, 0x17, 0x22, 0x2E, 0x39, 0x45, 0x51, 0x5C},
	{0xB1, 0xB9, 0xC2, 0xCC, 0xD7, 0xE2, 0xEE, 0xFB,
		0x06, 0x12, 0x1E, 0x2A, 0x35, 0x3E, 0x47, 0x50},
}

var tmsK6 = [2][16]uint8{
	{0xC0, 0xCB, 0xD6, 0xE1, 0xEC, 0xF7, 0x03, 0x0E,
		0x19, 0x24, 0x2F, 0x3A, 0x45, 0x50, 0x5B, 0x66},
	{0xB8, 0xC2, 0xCD, 0xD8, 0xE4, 0xF1, 0xFF, 0x0B,
		0x18, 0x25, 0x31, 0x3C, 0x46, 0x4E, 0x56, 0x5D},
}

var tmsK7 = [2][16]uint8{
	{0xB3, 0xBF, 0xCB, 0xD7, 0xE3, 0xEF, 0xFB, 0x07,
		0x13, 0x1F, 0x2B, 0x37, 0x43, 0x4F, 0x5A, 0x66},
	{0xB8, 0xC1, 0xCB, 0xD5, 0xE1, 0xED, 0xF9, 0x05,
		0x11, 0x1D, 0x29, 0x34, 0x3E, 0x47, 0x4F, 0x56},
}

// K8-K10: signed Q7, 3-bit indices.
var tmsK8 = [2][8]uint8{
	{0xC0, 0xD8, 0xF0, 0x07, 0x1F, 0x37, 0x4F, 0x66},
	{0xCA, 0xE0, 0xF7, 0x0F, 0x26, 0x3B, 0x4C, 0x5A},
}

var tmsK9 = [2][8]uint8{
	{0xC0, 0xD4, 0xE8, 0xFC, 0x10, 0x25, 0x39, 0x4D},
	{0xC8, 0xDA, 0xEC, 0x00, 0x13, 0x26, 0x37, 0x46},
}

var tmsK10 = [2][8]uint8{
	{0xCD, 0xDF, 0xF1, 0x04, 0x16, 0x20, 0x3B, 0x4D},
	{0xD4, 0xE2, 0xF2, 0x00, 0x10, 0x1F, 0x2D, 0x3A},
}

// chirp is the single glottal-pulse excitation waveform replayed once per
// pitch period for voiced frames. Identical on both devices.
var chirp = [41]int8{
	0x00, 0x2A, -0x2C, 0x32, -0x4E, 0x12, 0x25, 0x14,
	0x02, -0x1F, -0x3B, 0x02, 0x5F, 0x5A, 0x05, 0x0F,
	0x26, -0x04, -0x5B, -0x5B, -0x2A, -0x23, -0x24, -0x04,
	0x25, 0x2B, 0x22, 0x21, 0x0F, -0x01, -0x08, -0x12,
	-0x13, -0x11, -0x09, -0x0A, -0x06, 0x00, 0x03, 0x02,
	0x01,
}

// noisePoly is the 15-bit Galois LFSR feedback polynomial used as the
// unvoiced excitation source.
const noisePoly = 0xB800

// rmsScale maps the chip's 8-bit amplitude levels onto the encoder's
// 16-bit-range RMS measurements (a plain left shift by 6, so both sides
// quantize against the same fixed-point row).
const rmsScale = 64.0

// CodingTable is the immutable per-device quantization table set. The two
// instances are built once at init and shared read-only; everything past
// table selection is device-agnostic.
type CodingTable struct {
	Device    Device
	PitchBits int // 6 for TMS5220, 5 for TMS5100

	// Continuous quantization targets (encoder side).
	Energy []float64     // 16 entries in RMS units; [0] silence, [15] stop
	Pitch  []float64     // period in samples; [0] = unvoiced
	K      [11][]float64 // K[1..10], each bounded in (-1, 1)

	// Chip fixed-point values (decoder side).
	energyLevels [16]int
	periods      []int
	kCoeff       [11][]int
}

// StopIndex returns the energy index reserved for the explicit stop frame.
func (t *CodingTable) StopIndex() int { return len(t.Energy) - 1 }

// KWidth returns the bit-field width of coefficient Ki.
func (t *CodingTable) KWidth(i int) int { return kBits[i] }

var codingTables [2]*CodingTable

// TableForDevice returns the shared coding table for the given device.
func TableForDevice(d Device) *CodingTable {
	if d == TMS5100 {
		return codingTables[1]
	}
	return codingTables[0]
}

func init() {
	pitchBits := [2]int{6, 5}
	for dev := 0; dev < 2; dev++ {
		t := &CodingTable{
			Device:    Device(dev),
			PitchBits: pitchBits[dev],
		}

		t.Energy = make([]float64, 16)
		for i, v := range tmsEnergy[dev] {
			t.energyLevels[i] = int(v)
			t.Energy[i] = float64(v) * rmsScale
		}

		n := 1 << t.PitchBits
		t.periods = make([]int, n)
		t.Pitch = make([]float64, n)
		for i := 0; i < n; i++ {
			t.periods[i] = int(tmsPeriod[dev][i])
			t.Pitch[i] = float64(t.periods[i])
		}

		q15 := func(raw []uint16) ([]int, []float64) {
			fixed := make([]int, len(raw))
			cont := make([]float64, len(raw))
			for i, v := range raw {
				fixed[i] = int(int16(v))
				cont[i] = float64(int16(v)) / 32768.0
			}
			return fixed, cont
		}
		q7 := func(raw []uint8) ([]int, []float64) {
			fixed := make([]int, len(raw))
			cont := make([]float64, len(raw))
			for i, v := range raw {
				fixed[i] = int(int8(v))
				cont[i] = float64(int8(v)) / 128.0
			}
			return fixed, cont
		}

		t.kCoeff[1], t.K[1] = q15(tmsK1[dev][:])
		t.kCoeff[2], t.K[2] = q15(tmsK2[dev][:])
		t.kCoeff[3], t.K[3] = q7(tmsK3[dev][:])
		t.kCoeff[4], t.K[4] = q7(tmsK4[dev][:])
		t.kCoeff[5], t.K[5] = q7(tmsK5[dev][:])
		t.kCoeff[6], t.K[6] = q7(tmsK6[dev][:])
		t.kCoeff[7], t.K[7] = q7(tmsK7[dev][:])
		t.kCoeff[8], t.K[8] = q7(tmsK8[dev][:])
		t.kCoeff[9], t.K[9] = q7(tmsK9[dev][:])
		t.kCoeff[10], t.K[10] = q7(tmsK10[dev][:])

		codingTables[dev] = t
	}
}
