package spectral

import (
	"fmt"

	"github.com/RyanBlaney/alpha-switch/eeg"
)

// PowerSpectrum converts FFT bins into a one-sided power spectral density.
// It knows the transform length and sample rate, and which bins fall in the
// analysis band.
type PowerSpectrum struct {
	nfft       int
	sampleRate float64
	freqs      []float64
}

// NewPowerSpectrum creates a one-sided density converter for an nfft-point transform
func NewPowerSpectrum(nfft int, sampleRate float64) *PowerSpectrum {
	nBins := nfft/2 + 1
	freqs := make([]float64, nBins)
	for k := range nBins {
		freqs[k] = float64(k) * sampleRate / float64(nfft)
	}
	return &PowerSpectrum{
		nfft:       nfft,
		sampleRate: sampleRate,
		freqs:      freqs,
	}
}

// Frequencies returns the frequency of every one-sided bin
func (ps *PowerSpectrum) Frequencies() []float64 {
	out := make([]float64, len(ps.freqs))
	copy(out, ps.freqs)
	return out
}

// Resolution returns the bin spacing in Hz
func (ps *PowerSpectrum) Resolution() float64 {
	return ps.sampleRate / float64(ps.nfft)
}

// BandBins returns the bin indices and frequencies inside band
func (ps *PowerSpectrum) BandBins(band eeg.FrequencyBand) ([]int, []float64, error) {
	var bins []int
	var freqs []float64
	for k, f := range ps.freqs {
		if band.Contains(f) {
			bins = append(bins, k)
			freqs = append(freqs, f)
		}
	}
	if len(bins) == 0 {
		return nil, nil, fmt.Errorf("%w: %s at %.3f Hz resolution",
			ErrEmptyBand, band, ps.Resolution())
	}
	return bins, freqs, nil
}

// DensityScale returns the factor turning |X[k]|² into a one-sided density.
// norm is fs·Σw² for a window w; every bin except DC and Nyquist is doubled
// to fold in the negative frequencies.
func (ps *PowerSpectrum) DensityScale(k int, windowPower float64) float64 {
	scale := 1.0 / (ps.sampleRate * windowPower)
	if k == 0 || (ps.nfft%2 == 0 && k == ps.nfft/2) {
		return scale
	}
	return 2 * scale
}
