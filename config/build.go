package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/RyanBlaney/alpha-switch/algorithms/spectral"
	"github.com/RyanBlaney/alpha-switch/decoder"
	"github.com/RyanBlaney/alpha-switch/display"
	"github.com/RyanBlaney/alpha-switch/eeg"
	"github.com/RyanBlaney/alpha-switch/logging"
	"github.com/RyanBlaney/alpha-switch/realtime"
	"github.com/RyanBlaney/alpha-switch/stream"
	"github.com/google/uuid"
)

// NSamples is the number of samples per analysis window
func (c *Config) NSamples() int {
	return int(math.Round(c.WindowSeconds * c.Stream.SampleRate))
}

// Layout is the full stream layout, eeg channels followed by misc channels
func (c *Config) Layout() (*eeg.ChannelLayout, error) {
	return eeg.NewEEGLayout(c.Stream.Channels, c.Stream.MiscChannels...)
}

// LoopConfig is the timing setup of the realtime loop
func (c *Config) LoopConfig() realtime.Config {
	return realtime.Config{
		SampleRate:    c.Stream.SampleRate,
		WindowSeconds: c.WindowSeconds,
		Band:          c.Band,
		TimeoutFactor: c.Stream.TimeoutFactor,
	}
}

// EstimatorConfig maps the spectral section onto the estimator parameters
func (c *Config) EstimatorConfig() (spectral.EstimatorConfig, error) {
	method, err := spectral.ParseMethod(c.Spectral.Method)
	if err != nil {
		return spectral.EstimatorConfig{}, err
	}
	return spectral.EstimatorConfig{
		Method:     method,
		SampleRate: c.Stream.SampleRate,
		NSamples:   c.NSamples(),
		Detrend:    c.Spectral.Detrend,
		NFFT:       c.Spectral.NFFT,
		NOverlap:   c.Spectral.NOverlap,
		Window:     c.Spectral.Window,
		Bandwidth:  c.Spectral.Bandwidth,
		LowBias:    c.Spectral.LowBias,
	}, nil
}

// Estimator builds the configured PSD estimator
func (c *Config) Estimator() (spectral.Estimator, error) {
	cfg, err := c.EstimatorConfig()
	if err != nil {
		return nil, err
	}
	return spectral.NewEstimator(cfg)
}

// Aggregator resolves both groups against the eeg channels of layout. The
// loop estimates eeg rows only, so indices refer to that restricted layout.
func (c *Config) Aggregator(layout *eeg.ChannelLayout) (*decoder.Aggregator, error) {
	_, eegLayout, err := layout.Pick(eeg.TypeEEG)
	if err != nil {
		return nil, err
	}
	posterior, err := eeg.ResolveGroup(eegLayout, "posterior", c.Groups.Posterior.Channels, c.Groups.Posterior.Scale)
	if err != nil {
		return nil, err
	}
	frontal, err := eeg.ResolveGroup(eegLayout, "frontal", c.Groups.Frontal.Channels, c.Groups.Frontal.Scale)
	if err != nil {
		return nil, err
	}
	return decoder.NewAggregator(posterior, frontal)
}

// SwitchPolicy builds the configured switch policy
func (c *Config) SwitchPolicy() (decoder.Policy, error) {
	pc, err := c.PolicyConfig()
	if err != nil {
		return nil, err
	}
	return decoder.NewPolicy(pc)
}

// ColorMap builds the display palette
func (c *Config) ColorMap() (display.ColorMap, error) {
	return colorMap(&c.Display)
}

func colorMap(d *DisplayConfig) (display.ColorMap, error) {
	off, err := display.ParseHex(d.Off)
	if err != nil {
		return display.ColorMap{}, fmt.Errorf("off: %w", err)
	}
	on, err := display.ParseHex(d.On)
	if err != nil {
		return display.ColorMap{}, fmt.Errorf("on: %w", err)
	}
	m := display.ColorMap{Off: off, On: on, Min: d.Min, Max: d.Max}
	return m, m.Validate()
}

// StreamInfo describes the stream the configured source publishes
func (c *Config) StreamInfo() (stream.Info, error) {
	layout, err := c.Layout()
	if err != nil {
		return stream.Info{}, err
	}
	return stream.Info{
		Name:       "alpha-switch-" + c.Source.Kind,
		Type:       c.Stream.Selector,
		SourceID:   uuid.NewString(),
		SampleRate: c.Stream.SampleRate,
		Layout:     layout,
	}, nil
}

// Outlet builds the configured stand-in for the amplifier
func (c *Config) Outlet() (stream.Outlet, error) {
	info, err := c.StreamInfo()
	if err != nil {
		return nil, err
	}
	switch c.Source.Kind {
	case SourceReplay:
		return stream.LoadReplay(c.Source.Replay.Path, info, c.Source.Replay.Loop)
	default:
		return stream.NewSineOutlet(info, c.Source.Synthetic)
	}
}

// Logger builds the configured logger
func (c *Config) Logger() (logging.Logger, error) {
	level, err := logging.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, err
	}

	var logger *logging.DefaultLogger
	switch strings.ToLower(c.Logging.Color) {
	case "never":
		logger = logging.NewDefaultLoggerNoColor()
	case "always":
		logger = logging.NewDefaultLogger()
		logger.SetColors(true)
	default:
		logger = logging.NewDefaultLogger()
	}
	logger.SetLevel(level)
	return logger, nil
}
