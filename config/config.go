// Package config loads the YAML configuration of the feedback loop and
// builds the runtime components from it. Everything is checked at load
// time; nothing is reconfigured once the loop runs.
package config

import (
	"fmt"
	"os"

	"github.com/RyanBlaney/alpha-switch/eeg"
	"github.com/RyanBlaney/alpha-switch/stream"
	"gopkg.in/yaml.v3"
)

// Config is the complete configuration
type Config struct {
	Stream        StreamConfig      `yaml:"stream"`
	WindowSeconds float64           `yaml:"window_seconds"` // analysis window, also the lag budget
	Band          eeg.FrequencyBand `yaml:"band"`
	Spectral      SpectralConfig    `yaml:"spectral"`
	Groups        GroupsConfig      `yaml:"groups"`
	Policy        PolicyConfig      `yaml:"policy"`
	Display       DisplayConfig     `yaml:"display"`
	Source        SourceConfig      `yaml:"source"`
	Logging       LoggingConfig     `yaml:"logging"`
}

// StreamConfig describes the expected acquisition stream
type StreamConfig struct {
	Selector      string   `yaml:"selector"`       // stream type to resolve, e.g. EEG
	SampleRate    float64  `yaml:"sample_rate"`    // Hz
	Channels      []string `yaml:"channels"`       // eeg channels in stream order
	MiscChannels  []string `yaml:"misc_channels"`  // trailing non-eeg channels, e.g. marker
	TimeoutFactor float64  `yaml:"timeout_factor"` // pull timeout in windows
	BufferSeconds float64  `yaml:"buffer_seconds"` // inlet capacity
}

// SpectralConfig selects and parameterizes the PSD estimator
type SpectralConfig struct {
	Method    string  `yaml:"method"` // welch, multitaper
	NFFT      int     `yaml:"n_fft"`
	NOverlap  int     `yaml:"n_overlap"`
	Window    string  `yaml:"window"`
	Detrend   string  `yaml:"detrend"`
	Bandwidth float64 `yaml:"bandwidth"` // multitaper, Hz
	LowBias   bool    `yaml:"low_bias"`
}

// GroupConfig is one electrode group
type GroupConfig struct {
	Channels []string `yaml:"channels"`
	Scale    float64  `yaml:"scale"`
}

// GroupsConfig holds the two compared groups
type GroupsConfig struct {
	Posterior GroupConfig `yaml:"posterior"`
	Frontal   GroupConfig `yaml:"frontal"`
}

// PolicyConfig selects the switch policy
type PolicyConfig struct {
	Mode        string  `yaml:"mode"` // sign, boost, continuous
	BoostFactor float64 `yaml:"boost_factor"`
}

// DisplayConfig selects and styles the colour sink
type DisplayConfig struct {
	Kind   string  `yaml:"kind"`   // terminal, websocket, none
	Listen string  `yaml:"listen"` // websocket address
	Off    string  `yaml:"off"`    // #rrggbb
	On     string  `yaml:"on"`
	Min    float64 `yaml:"min"` // continuous range mapped onto off..on
	Max    float64 `yaml:"max"`
	Width  int     `yaml:"width"` // terminal block size
	Height int     `yaml:"height"`
}

// ReplayConfig points at a recorded session
type ReplayConfig struct {
	Path string `yaml:"path"`
	Loop bool   `yaml:"loop"`
}

// SourceConfig selects what feeds the stream when no amplifier is attached
type SourceConfig struct {
	Kind      string          `yaml:"kind"` // synthetic, replay
	Synthetic stream.SineSpec `yaml:"synthetic"`
	Replay    ReplayConfig    `yaml:"replay"`
}

// LoggingConfig sets up the logger
type LoggingConfig struct {
	Level string `yaml:"level"`
	Color string `yaml:"color"` // auto, always, never
}

// Default is the 32-channel actiCHamp setup at 250 Hz with a trailing
// marker channel, one second windows over 8-12 Hz, Welch with n_fft 128
// and the sign policy on a red/blue display.
func Default() *Config {
	return &Config{
		Stream: StreamConfig{
			Selector:      "EEG",
			SampleRate:    250,
			Channels:      append([]string(nil), eeg.ActiCap32...),
			MiscChannels:  []string{eeg.MarkerChannel},
			TimeoutFactor: 5,
			BufferSeconds: stream.DefaultBufferSeconds,
		},
		WindowSeconds: 1,
		Band:          eeg.AlphaBand,
		Spectral: SpectralConfig{
			Method:   "welch",
			NFFT:     128,
			NOverlap: 0,
			Window:   "hamming",
			Detrend:  "none",
			LowBias:  true,
		},
		Groups: GroupsConfig{
			Posterior: GroupConfig{Channels: append([]string(nil), eeg.PosteriorChannels...), Scale: 1},
			Frontal:   GroupConfig{Channels: append([]string(nil), eeg.FrontalChannels...), Scale: 1},
		},
		Policy: PolicyConfig{
			Mode:        "sign",
			BoostFactor: 2,
		},
		Display: DisplayConfig{
			Kind:   "terminal",
			Listen: "127.0.0.1:8080",
			Off:    "#ff0000",
			On:     "#0000ff",
			Min:    -1,
			Max:    1,
			Width:  30,
			Height: 6,
		},
		Source: SourceConfig{
			Kind: "synthetic",
			Synthetic: stream.SineSpec{
				Default:  []stream.Component{{Frequency: 10, Amplitude: 10}},
				NoiseStd: 5,
				Block:    stream.DefaultBlockDuration,
			},
		},
		Logging: LoggingConfig{
			Level: "info",
			Color: "auto",
		},
	}
}

// Load reads path over Default and validates the result. An empty path
// returns the validated defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Marshal renders cfg as YAML
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
