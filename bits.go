package talkie

// Wire format. Each frame's fields are emitted MSB-first in canonical
// order (gain, repeat, pitch, K1..K10, each only when present), the whole
// stream is zero-padded to a nibble boundary, and bytes are built with the
// chips' serial ordering: bits reversed within each nibble, and the second
// nibble of every pair packed as the high half of the byte. The decoder's
// bit reader undoes the transform by re-reversing each byte on read.

// bitWriter accumulates fixed-width big-endian bit fields.
type bitWriter struct {
	bits []uint8
}

// write appends the low `width` bits of value, most significant first.
func (w *bitWriter) write(value, width int) {
	for i := width - 1; i >= 0; i-- {
		w.bits = append(w.bits, uint8((value>>i)&1))
	}
}

// nibbles returns the bit stream as 4-bit groups, zero-padded on the
// right.
func (w *bitWriter) nibbles() []uint8 {
	bits := w.bits
	for len(bits)%4 != 0 {
		bits = append(bits, 0)
	}
	out := make([]uint8, 0, len(bits)/4)
	for i := 0; i < len(bits); i += 4 {
		out = append(out, bits[i]<<3|bits[i+1]<<2|bits[i+2]<<1|bits[i+3])
	}
	return out
}

// writeFrame emits one frame's present fields.
func (w *bitWriter) writeFrame(f FrameData, t *CodingTable) {
	w.write(f.Gain, energyBits)
	if f.IsSilence() || f.IsStop(t) {
		return
	}
	if f.Repeat {
		w.write(1, repeatBits)
	} else {
		w.write(0, repeatBits)
	}
	w.write(f.Pitch, t.PitchBits)
	if f.Repeat {
		return
	}
	n := f.kCount(t)
	for i := 1; i <= n; i++ {
		w.write(f.K[i], t.KWidth(i))
	}
}

// rev4 reverses the bit order of a nibble.
func rev4(n uint8) uint8 {
	n = (n&0x3)<<2 | (n&0xC)>>2
	n = (n&0x5)<<1 | (n&0xA)>>1
	return n
}

// rev8 reverses the bit order of a byte.
func rev8(b uint8) uint8 {
	b = b>>4 | b<<4
	b = (b&0xCC)>>2 | (b&0x33)<<2
	b = (b&0xAA)>>1 | (b&0x55)<<1
	return b
}

// nibblesToBytes applies the chip's serial reordering: each nibble is bit
// reversed, then consecutive pairs are swapped into one byte with the
// second nibble in the high half. An odd stream gains a zero nibble.
func nibblesToBytes(nibbles []uint8) []byte {
	if len(nibbles)%2 != 0 {
		nibbles = append(nibbles, 0)
	}
	out := make([]byte, 0, len(nibbles)/2)
	for i := 0; i < len(nibbles); i += 2 {
		out = append(out, rev4(nibbles[i+1])<<4|rev4(nibbles[i]))
	}
	return out
}

// bytesToNibbles is the exact inverse of nibblesToBytes.
func bytesToNibbles(data []byte) []uint8 {
	out := make([]uint8, 0, len(data)*2)
	for _, b := range data {
		out = append(out, rev4(b&0x0F), rev4(b>>4))
	}
	return out
}

// PackFrames serializes quantized frames into the device byte stream.
func PackFrames(frames []FrameData, t *CodingTable) []byte {
	var w bitWriter
	for _, f := range frames {
		w.writeFrame(f, t)
	}
	return nibblesToBytes(w.nibbles())
}

// bitReader is the decoder-side cursor. It replays the chip's read
// behavior: reverse the current byte (and the next, when a read straddles
// a boundary) and extract the top bits. Reading past the end of the
// stream yields zero bits; a well-formed stream ends in a stop frame
// before that can matter.
type bitReader struct {
	data []byte
	pos  int
	bit  int // 0..7 within the current byte
}

func (r *bitReader) byteAt(i int) uint16 {
	if i < 0 || i >= len(r.data) {
		return 0
	}
	return uint16(rev8(r.data[i]))
}

// read extracts the next n bits (1..8) as an unsigned value.
func (r *bitReader) read(n int) int {
	data := r.byteAt(r.pos) << 8
	if r.bit+n > 8 {
		data |= r.byteAt(r.pos + 1)
	}
	data <<= r.bit
	value := data >> (16 - n)
	r.bit += n
	if r.bit >= 8 {
		r.bit -= 8
		r.pos++
	}
	return int(value)
}

// exhausted reports whether the cursor has run off the end of the data.
func (r *bitReader) exhausted() bool {
	return r.pos >= len(r.data)
}
