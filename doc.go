// Package talkie implements an LPC speech codec compatible with the
// TMS5220 and TMS5100 vocal-tract synthesis chips.
//
// The encoder analyzes 8 kHz mono audio into the chips' parametric
// bitstream: per 25 ms frame, a quantized energy level, a voiced/unvoiced
// decision with pitch period, and ten lattice reflection coefficients,
// packed with the chips' serial bit ordering. The decoder is a sample-rate
// replica of the chips' synthesis loop: chirp or noise excitation driving
// a 10-stage lattice filter.
//
// Encoding is a pure batch transform (samples in, bytes out); decoding is
// a pull-based generator (one sample per NextSample call). Coding tables
// are immutable and shared; every encode or decode operation otherwise
// owns its state exclusively.
package talkie
