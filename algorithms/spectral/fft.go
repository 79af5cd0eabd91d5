package spectral

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFT provides Fast Fourier Transform functionality
type FFT struct {
	// No state needed for now
}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute computes the Fast Fourier Transform of a real signal using mjibson/go-dsp.
// go-dsp handles non-power-of-2 sizes, which matters here: a one second
// chunk at 250 Hz is 250 samples long.
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}

	return fft.FFTReal(x)
}

// SquaredMagnitude computes |X[k]|² for the bins in bins
func (f *FFT) SquaredMagnitude(spectrum []complex128, bins []int, dst []float64) {
	for i, k := range bins {
		mag := cmplx.Abs(spectrum[k])
		dst[i] = mag * mag
	}
}
