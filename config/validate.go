package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/RyanBlaney/alpha-switch/algorithms/filters"
	"github.com/RyanBlaney/alpha-switch/algorithms/spectral"
	"github.com/RyanBlaney/alpha-switch/algorithms/windowing"
	"github.com/RyanBlaney/alpha-switch/decoder"
	"github.com/RyanBlaney/alpha-switch/display"
	"github.com/RyanBlaney/alpha-switch/eeg"
	"github.com/RyanBlaney/alpha-switch/logging"
	"github.com/RyanBlaney/alpha-switch/realtime"
	"github.com/RyanBlaney/alpha-switch/stream"
)

// Source kinds
const (
	SourceSynthetic = "synthetic"
	SourceReplay    = "replay"
)

// Validate fills unset values with defaults and rejects anything the
// loop could not run with
func Validate(cfg *Config) error {
	if err := validateStream(&cfg.Stream); err != nil {
		return fmt.Errorf("stream: %w", err)
	}

	if cfg.WindowSeconds == 0 {
		cfg.WindowSeconds = 1
	}
	if cfg.WindowSeconds < 0 {
		return fmt.Errorf("window_seconds must be positive, got %g", cfg.WindowSeconds)
	}
	if cfg.NSamples() < 1 {
		return fmt.Errorf("window of %g s holds no samples at %g Hz", cfg.WindowSeconds, cfg.Stream.SampleRate)
	}
	if err := cfg.Band.Validate(cfg.Stream.SampleRate); err != nil {
		return fmt.Errorf("band: %w", err)
	}

	if err := validateSpectral(cfg); err != nil {
		return fmt.Errorf("spectral: %w", err)
	}

	layout, err := cfg.Layout()
	if err != nil {
		return fmt.Errorf("stream: %w", err)
	}
	if _, err := cfg.Aggregator(layout); err != nil {
		return fmt.Errorf("groups: %w", err)
	}

	if _, err := cfg.PolicyConfig(); err != nil {
		return fmt.Errorf("policy: %w", err)
	}

	if err := validateDisplay(&cfg.Display); err != nil {
		return fmt.Errorf("display: %w", err)
	}

	if err := validateSource(&cfg.Source); err != nil {
		return fmt.Errorf("source: %w", err)
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if _, err := logging.ParseLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	switch strings.ToLower(cfg.Logging.Color) {
	case "":
		cfg.Logging.Color = "auto"
	case "auto", "always", "never":
	default:
		return fmt.Errorf("logging: color must be auto, always or never, got %q", cfg.Logging.Color)
	}

	return nil
}

func validateStream(s *StreamConfig) error {
	if s.Selector == "" {
		s.Selector = "EEG"
	}
	if s.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %g", s.SampleRate)
	}
	if len(s.Channels) == 0 {
		return errors.New("no eeg channels configured")
	}
	if s.TimeoutFactor == 0 {
		s.TimeoutFactor = realtime.DefaultTimeoutFactor
	}
	if s.TimeoutFactor < realtime.MinTimeoutFactor {
		return fmt.Errorf("timeout_factor must be at least %g, got %g", realtime.MinTimeoutFactor, s.TimeoutFactor)
	}
	if s.BufferSeconds == 0 {
		s.BufferSeconds = stream.DefaultBufferSeconds
	}
	if s.BufferSeconds < 0 {
		return fmt.Errorf("buffer_seconds must be positive, got %g", s.BufferSeconds)
	}
	return nil
}

func validateSpectral(cfg *Config) error {
	s := &cfg.Spectral
	if s.Method == "" {
		s.Method = string(spectral.MethodWelch)
	}
	if s.Window == "" {
		s.Window = "hamming"
	}
	if s.Detrend == "" {
		s.Detrend = string(filters.DetrendNone)
	}

	method, err := spectral.ParseMethod(s.Method)
	if err != nil {
		return err
	}
	if _, err := filters.ParseDetrend(s.Detrend); err != nil {
		return err
	}

	if method == spectral.MethodWelch {
		if s.NFFT == 0 {
			s.NFFT = min(128, cfg.NSamples())
		}
		if s.NFFT > cfg.NSamples() {
			return fmt.Errorf("%w: n_fft %d > %d samples per window", spectral.ErrWindowTooLong, s.NFFT, cfg.NSamples())
		}
		if _, err := windowing.New(s.Window, s.NFFT); err != nil {
			return err
		}
	}

	// Building the estimator runs every remaining parameter check and,
	// for multitaper, the taper computation itself.
	estCfg, err := cfg.EstimatorConfig()
	if err != nil {
		return err
	}
	est, err := spectral.NewEstimator(estCfg)
	if err != nil {
		return err
	}

	// A silent window checks that the band keeps at least one bin at
	// this resolution.
	silent := eeg.NewSampleChunk(1, cfg.NSamples(), cfg.Stream.SampleRate)
	if _, err := est.Estimate(silent, cfg.Band); err != nil {
		return err
	}
	return nil
}

func validateDisplay(d *DisplayConfig) error {
	if _, err := display.ParseKind(d.Kind); err != nil {
		return err
	}
	if d.Off == "" {
		d.Off = display.Red.Hex()
	}
	if d.On == "" {
		d.On = display.Blue.Hex()
	}
	if d.Min == 0 && d.Max == 0 {
		d.Min, d.Max = -1, 1
	}
	if _, err := colorMap(d); err != nil {
		return err
	}
	if d.Width < 0 || d.Height < 0 {
		return fmt.Errorf("terminal size must not be negative, got %dx%d", d.Width, d.Height)
	}
	return nil
}

func validateSource(s *SourceConfig) error {
	switch strings.ToLower(s.Kind) {
	case "", SourceSynthetic:
		s.Kind = SourceSynthetic
	case SourceReplay:
		s.Kind = SourceReplay
		if s.Replay.Path == "" {
			return errors.New("replay needs a path")
		}
	default:
		return fmt.Errorf("unknown source kind %q", s.Kind)
	}
	if s.Synthetic.NoiseStd < 0 {
		return fmt.Errorf("synthetic noise_std must not be negative, got %g", s.Synthetic.NoiseStd)
	}
	return nil
}

// PolicyConfig parses the policy section
func (c *Config) PolicyConfig() (decoder.PolicyConfig, error) {
	mode, err := decoder.ParseMode(c.Policy.Mode)
	if err != nil {
		return decoder.PolicyConfig{}, err
	}
	pc := decoder.PolicyConfig{Mode: mode, BoostFactor: c.Policy.BoostFactor}
	if _, err := decoder.NewPolicy(pc); err != nil {
		return decoder.PolicyConfig{}, err
	}
	return pc, nil
}
