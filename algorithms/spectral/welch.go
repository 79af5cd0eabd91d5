package spectral

import (
	"fmt"

	"github.com/RyanBlaney/alpha-switch/algorithms/filters"
	"github.com/RyanBlaney/alpha-switch/algorithms/windowing"
	"github.com/RyanBlaney/alpha-switch/eeg"
)

// Welch estimates PSD by averaging windowed periodograms of nfft-long segments
type Welch struct {
	sampleRate float64
	nSamples   int
	nfft       int
	step       int
	window     windowing.Window
	detrend    *filters.Detrender
	fft        *FFT
	power      *PowerSpectrum
}

// NewWelch configures a Welch estimator for chunks of nSamples samples.
// nfft must not exceed nSamples; noverlap must be smaller than nfft.
func NewWelch(sampleRate float64, nSamples, nfft, noverlap int, window string) (*Welch, error) {
	if nfft <= 0 {
		return nil, fmt.Errorf("n_fft must be positive, got %d", nfft)
	}
	if nfft > nSamples {
		return nil, fmt.Errorf("%w: n_fft %d > %d samples per chunk", ErrWindowTooLong, nfft, nSamples)
	}
	if noverlap < 0 || noverlap >= nfft {
		return nil, fmt.Errorf("n_overlap must be in [0, %d), got %d", nfft, noverlap)
	}

	win, err := windowing.New(window, nfft)
	if err != nil {
		return nil, fmt.Errorf("welch window: %w", err)
	}

	return &Welch{
		sampleRate: sampleRate,
		nSamples:   nSamples,
		nfft:       nfft,
		step:       nfft - noverlap,
		window:     win,
		detrend:    filters.NewDetrender(filters.DetrendNone),
		fft:        NewFFT(),
		power:      NewPowerSpectrum(nfft, sampleRate),
	}, nil
}

// Method implements Estimator
func (w *Welch) Method() Method {
	return MethodWelch
}

// SetDetrend sets the trend removed from each segment before windowing
func (w *Welch) SetDetrend(d filters.Detrend) {
	w.detrend = filters.NewDetrender(d)
}

// Segments returns how many segments a chunk of n samples is split into
func (w *Welch) Segments(n int) int {
	if n < w.nfft {
		return 0
	}
	return (n-w.nfft)/w.step + 1
}

// Estimate implements Estimator
func (w *Welch) Estimate(chunk *eeg.SampleChunk, band eeg.FrequencyBand) (*Estimate, error) {
	if err := checkChunk(chunk, w.sampleRate); err != nil {
		return nil, err
	}
	nSegments := w.Segments(chunk.Len())
	if nSegments == 0 {
		return nil, fmt.Errorf("chunk of %d samples is shorter than n_fft %d", chunk.Len(), w.nfft)
	}

	bins, freqs, err := w.power.BandBins(band)
	if err != nil {
		return nil, err
	}

	windowPower := w.window.SumSquares()
	scales := make([]float64, len(bins))
	for i, k := range bins {
		scales[i] = w.power.DensityScale(k, windowPower) / float64(nSegments)
	}

	segment := make([]float64, w.nfft)
	squared := make([]float64, len(bins))
	psd := make([][]float64, chunk.Channels())

	for ch, signal := range chunk.Data {
		acc := make([]float64, len(bins))
		for s := range nSegments {
			start := s * w.step
			copy(segment, signal[start:start+w.nfft])
			w.detrend.Apply(segment)
			if err := w.window.ApplyInPlace(segment); err != nil {
				return nil, err
			}

			w.fft.SquaredMagnitude(w.fft.Compute(segment), bins, squared)
			for i, p := range squared {
				acc[i] += p * scales[i]
			}
		}
		psd[ch] = acc
	}

	return &Estimate{
		PSD:    psd,
		Freqs:  freqs,
		Method: MethodWelch,
	}, nil
}
