package spectral

import (
	"fmt"

	"github.com/RyanBlaney/alpha-switch/algorithms/filters"
	"github.com/RyanBlaney/alpha-switch/algorithms/windowing"
	"github.com/RyanBlaney/alpha-switch/eeg"
	"gonum.org/v1/gonum/floats"
)

const (
	// lowBiasThreshold is the minimum concentration ratio of a kept taper
	lowBiasThreshold = 0.9
	// defaultHalfBandwidth is the NW used when no bandwidth is configured
	defaultHalfBandwidth = 4.0
)

// Multitaper estimates PSD as the eigenvalue-weighted mean of periodograms
// computed with orthogonal Slepian tapers over the whole chunk.
type Multitaper struct {
	sampleRate float64
	nSamples   int
	tapers     *windowing.DPSS
	weights    []float64 // concentration ratios, normalized to sum to 1
	detrend    *filters.Detrender
	fft        *FFT
	power      *PowerSpectrum
}

// NewMultitaper precomputes tapers for chunks of exactly nSamples samples.
// bandwidth is the full frequency-smoothing bandwidth in Hz; 0 selects a
// time-half-bandwidth product of 4. With lowBias only tapers concentrated
// above 90% are kept.
func NewMultitaper(sampleRate float64, nSamples int, bandwidth float64, lowBias bool) (*Multitaper, error) {
	if bandwidth < 0 {
		return nil, fmt.Errorf("multitaper bandwidth must not be negative, got %g", bandwidth)
	}
	if bandwidth == 0 {
		bandwidth = 2 * defaultHalfBandwidth * sampleRate / float64(nSamples)
	}

	nw := bandwidth * float64(nSamples) / (2 * sampleRate)
	if nw < 0.5 {
		return nil, fmt.Errorf("multitaper bandwidth %g Hz too narrow for %d samples (NW=%g)", bandwidth, nSamples, nw)
	}

	tapers, err := windowing.NewDPSS(nSamples, nw, 0)
	if err != nil {
		return nil, fmt.Errorf("multitaper: %w", err)
	}
	if lowBias {
		if tapers, err = tapers.LowBias(lowBiasThreshold); err != nil {
			return nil, fmt.Errorf("multitaper: %w", err)
		}
	}

	weights := tapers.Ratios()
	floats.Scale(1/floats.Sum(weights), weights)

	return &Multitaper{
		sampleRate: sampleRate,
		nSamples:   nSamples,
		tapers:     tapers,
		weights:    weights,
		detrend:    filters.NewDetrender(filters.DetrendNone),
		fft:        NewFFT(),
		power:      NewPowerSpectrum(nSamples, sampleRate),
	}, nil
}

// Method implements Estimator
func (m *Multitaper) Method() Method {
	return MethodMultitaper
}

// SetDetrend sets the trend removed from the chunk before tapering
func (m *Multitaper) SetDetrend(d filters.Detrend) {
	m.detrend = filters.NewDetrender(d)
}

// Tapers returns the number of tapers in use
func (m *Multitaper) Tapers() int {
	return m.tapers.Tapers()
}

// Estimate implements Estimator
func (m *Multitaper) Estimate(chunk *eeg.SampleChunk, band eeg.FrequencyBand) (*Estimate, error) {
	if err := checkChunk(chunk, m.sampleRate); err != nil {
		return nil, err
	}
	if chunk.Len() != m.nSamples {
		return nil, fmt.Errorf("multitaper configured for %d samples, chunk has %d", m.nSamples, chunk.Len())
	}

	bins, freqs, err := m.power.BandBins(band)
	if err != nil {
		return nil, err
	}

	// Tapers have unit energy, so the window power term is 1
	scales := make([]float64, len(bins))
	for i, k := range bins {
		scales[i] = m.power.DensityScale(k, 1)
	}

	detrended := make([]float64, m.nSamples)
	tapered := make([]float64, m.nSamples)
	squared := make([]float64, len(bins))
	psd := make([][]float64, chunk.Channels())

	for ch, signal := range chunk.Data {
		copy(detrended, signal)
		m.detrend.Apply(detrended)

		acc := make([]float64, len(bins))
		for k := range m.tapers.Tapers() {
			floats.MulTo(tapered, detrended, m.tapers.Taper(k))
			m.fft.SquaredMagnitude(m.fft.Compute(tapered), bins, squared)
			for i, p := range squared {
				acc[i] += m.weights[k] * p * scales[i]
			}
		}
		psd[ch] = acc
	}

	return &Estimate{
		PSD:    psd,
		Freqs:  freqs,
		Method: MethodMultitaper,
	}, nil
}
