package talkie

import "github.com/mjibson/go-dsp/fft"

// FFT is the transform interface the autocorrelator works against.
type FFT interface {
	Forward(in []float64) []complex128
	Inverse(in []complex128) []float64
}

// defaultFFT implements FFT using go-dsp/fft.
type defaultFFT struct{}

// NewFFT creates a new FFT instance.
func NewFFT() FFT {
	return &defaultFFT{}
}

// Forward returns the FFT of a real-valued input.
func (f *defaultFFT) Forward(in []float64) []complex128 {
	return fft.FFTReal(in)
}

// Inverse returns the real part of the inverse FFT, including the standard
// 1/N scaling, so Inverse(Forward(x)) == x.
func (f *defaultFFT) Inverse(in []complex128) []float64 {
	complexOut := fft.IFFT(in)
	realOut := make([]float64, len(complexOut))
	for i, v := range complexOut {
		realOut[i] = real(v)
	}
	return realOut
}
