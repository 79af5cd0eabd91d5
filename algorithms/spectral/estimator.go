package spectral

import (
	"errors"
	"fmt"
	"strings"

	"github.com/RyanBlaney/alpha-switch/algorithms/common"
	"github.com/RyanBlaney/alpha-switch/algorithms/filters"
	"github.com/RyanBlaney/alpha-switch/eeg"
)

var (
	// ErrUnknownMethod is returned for an unrecognized estimation method name
	ErrUnknownMethod = errors.New("unknown spectral method")
	// ErrWindowTooLong is returned when the FFT length exceeds the chunk length
	ErrWindowTooLong = errors.New("fft length exceeds chunk length")
	// ErrEmptyBand is returned when no frequency bin falls inside the band
	ErrEmptyBand = errors.New("band contains no frequency bin")
)

// Method selects the PSD estimator
type Method string

const (
	MethodWelch      Method = "welch"
	MethodMultitaper Method = "multitaper"
)

// ParseMethod maps a configuration string onto a Method
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case MethodWelch:
		return MethodWelch, nil
	case MethodMultitaper, "mt":
		return MethodMultitaper, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
	}
}

// Estimator computes band-limited power spectral density for every channel of a chunk
type Estimator interface {
	Method() Method
	Estimate(chunk *eeg.SampleChunk, band eeg.FrequencyBand) (*Estimate, error)
}

// Estimate is the per-channel PSD restricted to a band
type Estimate struct {
	PSD    [][]float64 `json:"psd"`   // channel x frequency
	Freqs  []float64   `json:"freqs"` // Hz
	Method Method      `json:"method"`
}

// Channels returns the number of channels in the estimate
func (e *Estimate) Channels() int {
	return len(e.PSD)
}

// ChannelPower averages channel i over the band
func (e *Estimate) ChannelPower(i int) float64 {
	return common.Mean(e.PSD[i])
}

// Powers returns the band-averaged power of every channel
func (e *Estimate) Powers() []float64 {
	out := make([]float64, len(e.PSD))
	for i := range e.PSD {
		out[i] = e.ChannelPower(i)
	}
	return out
}

// EstimatorConfig holds the parameters of both estimation methods
type EstimatorConfig struct {
	Method     Method  `json:"method"`
	SampleRate float64 `json:"sample_rate"`
	NSamples   int     `json:"n_samples"` // samples per chunk
	Detrend    string  `json:"detrend"`   // "none", "constant", "linear"

	// Welch
	NFFT     int    `json:"n_fft"`
	NOverlap int    `json:"n_overlap"`
	Window   string `json:"window"` // see windowing.New

	// Multitaper
	Bandwidth float64 `json:"bandwidth"` // full bandwidth in Hz, 0 for NW = 4
	LowBias   bool    `json:"low_bias"`
}

// DefaultEstimatorConfig returns the Welch setup used for one second chunks at 250 Hz
func DefaultEstimatorConfig() EstimatorConfig {
	return EstimatorConfig{
		Method:     MethodWelch,
		SampleRate: 250,
		NSamples:   250,
		NFFT:       128,
		NOverlap:   0,
		Detrend:    "none",
		Window:     "hamming",
		Bandwidth:  0,
		LowBias:    true,
	}
}

// NewEstimator builds the estimator selected by cfg.Method. Every parameter
// is checked here so a bad configuration fails before any chunk is processed.
func NewEstimator(cfg EstimatorConfig) (Estimator, error) {
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %g", cfg.SampleRate)
	}
	if cfg.NSamples <= 0 {
		return nil, fmt.Errorf("chunk length must be positive, got %d", cfg.NSamples)
	}

	detrend, err := filters.ParseDetrend(cfg.Detrend)
	if err != nil {
		return nil, err
	}

	switch cfg.Method {
	case MethodWelch:
		w, err := NewWelch(cfg.SampleRate, cfg.NSamples, cfg.NFFT, cfg.NOverlap, cfg.Window)
		if err != nil {
			return nil, err
		}
		w.SetDetrend(detrend)
		return w, nil
	case MethodMultitaper:
		m, err := NewMultitaper(cfg.SampleRate, cfg.NSamples, cfg.Bandwidth, cfg.LowBias)
		if err != nil {
			return nil, err
		}
		m.SetDetrend(detrend)
		return m, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, cfg.Method)
	}
}

func checkChunk(chunk *eeg.SampleChunk, sampleRate float64) error {
	if chunk == nil || chunk.Channels() == 0 {
		return fmt.Errorf("empty chunk")
	}
	if chunk.SampleRate != sampleRate {
		return fmt.Errorf("chunk sample rate %g Hz, estimator configured for %g Hz", chunk.SampleRate, sampleRate)
	}
	return chunk.Validate()
}
