package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/RyanBlaney/alpha-switch/algorithms/spectral"
	"github.com/RyanBlaney/alpha-switch/decoder"
	"github.com/RyanBlaney/alpha-switch/display"
	"github.com/RyanBlaney/alpha-switch/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 250, cfg.NSamples())
	layout, err := cfg.Layout()
	require.NoError(t, err)
	assert.Equal(t, 33, layout.Len())

	est, err := cfg.Estimator()
	require.NoError(t, err)
	assert.Equal(t, spectral.MethodWelch, est.Method())

	policy, err := cfg.SwitchPolicy()
	require.NoError(t, err)
	assert.Equal(t, decoder.ModeSign, policy.Mode())

	colors, err := cfg.ColorMap()
	require.NoError(t, err)
	assert.Equal(t, display.Red, colors.Off)
	assert.Equal(t, display.Blue, colors.On)
}

func TestExampleConfigLoads(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "configs", "alpha-switch.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "websocket", cfg.Display.Kind)
	assert.Equal(t, int64(1), cfg.Source.Synthetic.Seed)
	assert.Equal(t, stream.DefaultBlockDuration, cfg.Source.Synthetic.Block)
	assert.Len(t, cfg.Source.Synthetic.Channels, 3)

	outlet, err := cfg.Outlet()
	require.NoError(t, err)
	assert.Equal(t, "EEG", outlet.Info().Type)
	assert.Equal(t, 33, outlet.Info().Channels())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
policy:
  mode: boost
  boost_factor: 3
spectral:
  method: multitaper
logging:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	pc, err := cfg.PolicyConfig()
	require.NoError(t, err)
	assert.Equal(t, decoder.ModeBoost, pc.Mode)
	assert.Equal(t, 3.0, pc.BoostFactor)

	est, err := cfg.Estimator()
	require.NoError(t, err)
	assert.Equal(t, spectral.MethodMultitaper, est.Method())

	// untouched sections keep their defaults
	assert.Equal(t, 250.0, cfg.Stream.SampleRate)
	assert.Len(t, cfg.Stream.Channels, 32)
	assert.Equal(t, 8.0, cfg.Band.Min)

	logger, err := cfg.Logger()
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestValidateFillsDefaults(t *testing.T) {
	cfg := Default()
	cfg.Stream.Selector = ""
	cfg.Stream.TimeoutFactor = 0
	cfg.Spectral.NFFT = 0
	cfg.Display.Off = ""
	cfg.Source.Kind = ""
	cfg.Logging.Color = ""

	require.NoError(t, Validate(cfg))
	assert.Equal(t, "EEG", cfg.Stream.Selector)
	assert.Equal(t, 5.0, cfg.Stream.TimeoutFactor)
	assert.Equal(t, 128, cfg.Spectral.NFFT)
	assert.Equal(t, "#ff0000", cfg.Display.Off)
	assert.Equal(t, SourceSynthetic, cfg.Source.Kind)
	assert.Equal(t, "auto", cfg.Logging.Color)
}

func TestLoadRejectsInvalidConfigurations(t *testing.T) {
	cases := map[string]string{
		"unknown mode":        "policy: {mode: blink}",
		"unknown method":      "spectral: {method: burg}",
		"window too long":     "spectral: {n_fft: 512}",
		"overlap too large":   "spectral: {n_overlap: 128}",
		"unknown window":      "spectral: {window: gauss}",
		"unknown detrend":     "spectral: {detrend: cubic}",
		"band above nyquist":  "band: {fmin: 8, fmax: 130}",
		"inverted band":       "band: {fmin: 12, fmax: 8}",
		"band without bins":   "band: {fmin: 10.1, fmax: 10.2}",
		"missing channel":     "groups: {posterior: {channels: [P7, Q9]}}",
		"duplicate channel":   "groups: {frontal: {channels: [Fz, Fz]}}",
		"marker in group":     "groups: {frontal: {channels: [marker]}}",
		"boost factor":        "policy: {mode: boost, boost_factor: 0.5}",
		"timeout factor":      "stream: {timeout_factor: 1}",
		"no channels":         "stream: {channels: []}",
		"display kind":        "display: {kind: psychopy}",
		"bad colour":          "display: {on: blue}",
		"colour range":        "display: {min: 1, max: -1}",
		"replay without path": "source: {kind: replay}",
		"source kind":         "source: {kind: amplifier}",
		"log level":           "logging: {level: loud}",
		"log color":           "logging: {color: sometimes}",
		"not yaml":            "policy: [",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestWindowTooLongIsTyped(t *testing.T) {
	_, err := Load(writeConfig(t, "spectral: {n_fft: 512}"))
	assert.ErrorIs(t, err, spectral.ErrWindowTooLong)
}

func TestBandWithoutBinsFailsAtLoad(t *testing.T) {
	// 1.953 Hz bins at n_fft 128 skip straight over 10.1..10.2 Hz
	_, err := Load(writeConfig(t, "band: {fmin: 10.1, fmax: 10.2}"))
	assert.ErrorIs(t, err, spectral.ErrEmptyBand)

	// the same band resolves once a 250 point multitaper gives 1 Hz bins
	_, err = Load(writeConfig(t, "band: {fmin: 9.9, fmax: 10.1}\nspectral: {method: multitaper}"))
	assert.NoError(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestGroupsResolveAgainstEEGRows(t *testing.T) {
	cfg := Default()
	cfg.Stream.MiscChannels = []string{"marker", "trigger"}
	require.NoError(t, Validate(cfg))

	layout, err := cfg.Layout()
	require.NoError(t, err)
	_, err = cfg.Aggregator(layout)
	assert.NoError(t, err)
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	data, err := cfg.Marshal()
	require.NoError(t, err)

	var back Config
	require.NoError(t, yaml.Unmarshal(data, &back))
	require.NoError(t, Validate(&back))
	assert.Equal(t, cfg.Stream.Channels, back.Stream.Channels)
	assert.Equal(t, cfg.Source.Synthetic.Block, back.Source.Synthetic.Block)
}

func TestReplayOutletFromConfig(t *testing.T) {
	cfg := Default()
	cfg.Source.Kind = SourceReplay
	cfg.Source.Replay.Path = filepath.Join(t.TempDir(), "missing.edf")
	require.NoError(t, Validate(cfg))

	_, err := cfg.Outlet()
	assert.Error(t, err, "the recording is read when the outlet is built")
}
