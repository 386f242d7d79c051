package talkie

// Synthesizer decodes a TMS speech byte stream into 8 kHz samples. It is
// the software twin of the chips' synthesis loop: every frame boundary it
// decodes the next frame header and parameters, and every sample it runs
// excitation through the 10-stage lattice filter.
//
// One Synthesizer owns one phrase; it is not safe for concurrent use, and
// Reset rewinds it to the start of its data.
type Synthesizer struct {
	table *CodingTable
	data  []byte

	reader bitReader

	// Current frame parameters.
	period int
	energy int
	k      [LPCOrder + 1]int

	// Lattice filter state registers.
	x [LPCOrder + 1]int

	sampleCounter int
	periodCounter int
	noise         uint16
	finished      bool
}

const (
	outputMax   = 511  // signed 10-bit ceiling
	outputMin   = -512 // signed 10-bit floor
	energyShift = 8
	qShiftLow   = 7  // K3-K10 are Q7
	qShiftHigh  = 15 // K1-K2 are Q15
	outputScale = 6  // widen 10-bit samples to 16-bit range
)

// NewSynthesizer builds a decoder over the given byte stream. The caller
// must supply a stream terminated by a stop frame or bounded length.
func NewSynthesizer(data []byte, device Device) *Synthesizer {
	s := &Synthesizer{
		table: TableForDevice(device),
		data:  data,
	}
	s.Reset()
	return s
}

// Reset rewinds the decoder to the start of the phrase and clears all
// synthesis state. The first frame loads on the first NextSample call.
func (s *Synthesizer) Reset() {
	s.reader = bitReader{data: s.data}
	s.period = 0
	s.energy = 0
	s.k = [LPCOrder + 1]int{}
	s.x = [LPCOrder + 1]int{}
	s.periodCounter = 0
	s.noise = 1
	s.finished = false
	s.sampleCounter = s.samplesPerFrame()
}

func (s *Synthesizer) samplesPerFrame() int {
	return int(SampleRate / DefaultFrameRate)
}

// HasNext reports whether the phrase still has samples to emit.
func (s *Synthesizer) HasNext() bool { return !s.finished }

// processNextFrame decodes the next frame's parameters from the
// bitstream.
//
// Two deliberate oddities of the chips are preserved: a silence frame
// zeroes energy and pitch but leaves the K coefficients untouched, and a
// repeat frame that decodes a zero pitch clears only K5-K10, keeping
// K1-K4 from the prior frame. Voiced-to-unvoiced transitions lean on the
// retained spectral shape.
func (s *Synthesizer) processNextFrame() {
	t := s.table
	gain := s.reader.read(energyBits)

	switch gain {
	case 0:
		// Silence frame.
		s.energy = 0
		s.period = 0
	case t.StopIndex():
		s.energy = 0
		for i := 1; i <= LPCOrder; i++ {
			s.k[i] = 0
		}
		s.finished = true
	default:
		s.energy = t.energyLevels[gain]
		repeat := s.reader.read(repeatBits) != 0
		s.period = t.periods[s.reader.read(t.PitchBits)]

		if !repeat {
			s.k[1] = t.kCoeff[1][s.reader.read(t.KWidth(1))]
			s.k[2] = t.kCoeff[2][s.reader.read(t.KWidth(2))]
			s.k[3] = t.kCoeff[3][s.reader.read(t.KWidth(3))]
			s.k[4] = t.kCoeff[4][s.reader.read(t.KWidth(4))]
			if s.period != 0 {
				for i := 5; i <= LPCOrder; i++ {
					s.k[i] = t.kCoeff[i][s.reader.read(t.KWidth(i))]
				}
			} else {
				for i := 5; i <= LPCOrder; i++ {
					s.k[i] = 0
				}
			}
		} else if s.period == 0 {
			for i := 5; i <= LPCOrder; i++ {
				s.k[i] = 0
			}
		}
	}
}

// NextSample produces the next 16-bit sample. After a stop frame it
// returns 0 forever.
func (s *Synthesizer) NextSample() int16 {
	if s.sampleCounter >= s.samplesPerFrame() {
		s.processNextFrame()
		s.sampleCounter = 0
	}
	if s.finished {
		return 0
	}
	s.sampleCounter++

	// Excitation: periodic chirp when voiced, LFSR noise when unvoiced.
	var u10 int
	if s.period != 0 {
		idx := s.periodCounter
		s.periodCounter++
		if s.periodCounter >= s.period {
			s.periodCounter = 0
		}
		if idx < len(chirp) {
			u10 = (int(chirp[idx]) * s.energy) >> energyShift
		}
	} else {
		if s.noise&1 != 0 {
			s.noise = s.noise>>1 ^ noisePoly
		} else {
			s.noise = s.noise >> 1
		}
		if s.noise&1 != 0 {
			u10 = s.energy
		} else {
			u10 = -s.energy
		}
	}

	// Forward lattice pass: u9..u0 from the excitation.
	u9 := u10 - (s.k[10]*s.x[9])>>qShiftLow
	u8 := u9 - (s.k[9]*s.x[8])>>qShiftLow
	u7 := u8 - (s.k[8]*s.x[7])>>qShiftLow
	u6 := u7 - (s.k[7]*s.x[6])>>qShiftLow
	u5 := u6 - (s.k[6]*s.x[5])>>qShiftLow
	u4 := u5 - (s.k[5]*s.x[4])>>qShiftLow
	u3 := u4 - (s.k[4]*s.x[3])>>qShiftLow
	u2 := u3 - (s.k[3]*s.x[2])>>qShiftLow
	u1 := u2 - (s.k[2]*s.x[1])>>qShiftHigh
	u0 := u1 - (s.k[1]*s.x[0])>>qShiftHigh

	if u0 > outputMax {
		u0 = outputMax
	}
	if u0 < outputMin {
		u0 = outputMin
	}

	// Reverse pass updates the state registers for the next sample.
	s.x[9] = s.x[8] + (s.k[9]*u8)>>qShiftLow
	s.x[8] = s.x[7] + (s.k[8]*u7)>>qShiftLow
	s.x[7] = s.x[6] + (s.k[7]*u6)>>qShiftLow
	s.x[6] = s.x[5] + (s.k[6]*u5)>>qShiftLow
	s.x[5] = s.x[4] + (s.k[5]*u4)>>qShiftLow
	s.x[4] = s.x[3] + (s.k[4]*u3)>>qShiftLow
	s.x[3] = s.x[2] + (s.k[3]*u2)>>qShiftLow
	s.x[2] = s.x[1] + (s.k[2]*u1)>>qShiftHigh
	s.x[1] = s.x[0] + (s.k[1]*u0)>>qShiftHigh
	s.x[0] = u0

	return int16(u0 << outputScale)
}

// maxDecodeSamples bounds Decode for streams without a stop frame:
// the longest possible phrase is one frame per nibble pair plus ringdown.
const maxDecodeSamples = 1 << 22

// Decode drains the stream into a PCM buffer. It stops at the stop frame,
// or when the bitstream is exhausted at a frame boundary.
func (s *Synthesizer) Decode() []int16 {
	var out []int16
	for s.HasNext() && len(out) < maxDecodeSamples {
		if s.sampleCounter >= s.samplesPerFrame() && s.reader.exhausted() {
			break
		}
		out = append(out, s.NextSample())
	}
	return out
}
