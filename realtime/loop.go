// Package realtime runs the acquisition-and-decode loop: pull a window of
// samples, estimate band power, decide the switch value, present it and
// keep up with real time by flushing stale samples when an iteration overruns.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/RyanBlaney/alpha-switch/algorithms/spectral"
	"github.com/RyanBlaney/alpha-switch/decoder"
	"github.com/RyanBlaney/alpha-switch/display"
	"github.com/RyanBlaney/alpha-switch/eeg"
	"github.com/RyanBlaney/alpha-switch/logging"
	"github.com/RyanBlaney/alpha-switch/stream"
)

// ErrShortRead is returned when a pull times out with fewer samples than a window
var ErrShortRead = errors.New("short read")

const (
	// DefaultTimeoutFactor scales the window duration into the pull timeout
	DefaultTimeoutFactor = 5.0
	// MinTimeoutFactor keeps the timeout from firing on ordinary jitter
	MinTimeoutFactor = 2.0
)

// State is the lifecycle of a Loop
type State int

const (
	StateIdle State = iota
	StateRunning
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Config is the timing and band setup of the loop
type Config struct {
	SampleRate    float64           `json:"sample_rate"`
	WindowSeconds float64           `json:"window_seconds"`
	Band          eeg.FrequencyBand `json:"band"`
	TimeoutFactor float64           `json:"timeout_factor"`
}

// DefaultConfig is one second windows of 250 Hz data over the alpha band
func DefaultConfig() Config {
	return Config{
		SampleRate:    250,
		WindowSeconds: 1,
		Band:          eeg.AlphaBand,
		TimeoutFactor: DefaultTimeoutFactor,
	}
}

// NSamples is the number of samples per window
func (c Config) NSamples() int {
	return int(math.Round(c.WindowSeconds * c.SampleRate))
}

// Window is the real-time duration of one window
func (c Config) Window() time.Duration {
	return time.Duration(float64(c.NSamples()) / c.SampleRate * float64(time.Second))
}

// Timeout is how long a pull may block
func (c Config) Timeout() time.Duration {
	return time.Duration(float64(c.Window()) * c.TimeoutFactor)
}

// Deps are the collaborators of a Loop. Sink, Logger and Clock are optional.
type Deps struct {
	Source     stream.Source
	Estimator  spectral.Estimator
	Aggregator *decoder.Aggregator
	Policy     decoder.Policy
	Sink       display.Sink
	Colors     display.ColorMap
	Logger     logging.Logger
	Clock      func() time.Time
}

// Iteration records one pass of the loop
type Iteration struct {
	Start      time.Time
	Elapsed    time.Duration
	Samples    int
	Value      decoder.SwitchValue
	Centroid   float64
	Color      display.RGB
	Lagged     bool
	Dropped    int
	Terminated bool
}

// Loop is the single-threaded decode loop. It exclusively owns its source
// and sink and releases both when it terminates.
type Loop struct {
	cfg      Config
	nSamples int
	picks    []int

	source    stream.Source
	estimator spectral.Estimator
	agg       *decoder.Aggregator
	policy    decoder.Policy
	sink      display.Sink
	colors    display.ColorMap
	logger    logging.Logger
	clock     func() time.Time

	state State
	stats statsRecorder
}

// New validates the whole pipeline against a silent dry-run window so every
// configuration error surfaces before the first pull.
func New(cfg Config, deps Deps) (*Loop, error) {
	if cfg.TimeoutFactor == 0 {
		cfg.TimeoutFactor = DefaultTimeoutFactor
	}
	if cfg.TimeoutFactor < MinTimeoutFactor {
		return nil, fmt.Errorf("timeout factor must be at least %g, got %g", MinTimeoutFactor, cfg.TimeoutFactor)
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %g", cfg.SampleRate)
	}
	if cfg.WindowSeconds <= 0 || cfg.NSamples() < 1 {
		return nil, fmt.Errorf("window of %g s holds no samples at %g Hz", cfg.WindowSeconds, cfg.SampleRate)
	}
	if err := cfg.Band.Validate(cfg.SampleRate); err != nil {
		return nil, err
	}

	if deps.Source == nil || deps.Estimator == nil || deps.Aggregator == nil || deps.Policy == nil {
		return nil, errors.New("loop needs a source, an estimator, an aggregator and a policy")
	}
	if deps.Sink == nil {
		deps.Sink = display.NopSink{}
	}
	if deps.Colors == (display.ColorMap{}) {
		deps.Colors = display.DefaultColorMap()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}

	info := deps.Source.Info()
	if info.SampleRate != cfg.SampleRate {
		return nil, fmt.Errorf("stream %q runs at %g Hz, loop configured for %g Hz", info.Name, info.SampleRate, cfg.SampleRate)
	}
	if info.Layout == nil {
		return nil, fmt.Errorf("stream %q has no channel layout", info.Name)
	}
	picks, _, err := info.Layout.Pick(eeg.TypeEEG)
	if err != nil {
		return nil, err
	}

	l := &Loop{
		cfg:       cfg,
		nSamples:  cfg.NSamples(),
		picks:     picks,
		source:    deps.Source,
		estimator: deps.Estimator,
		agg:       deps.Aggregator,
		policy:    deps.Policy,
		sink:      deps.Sink,
		colors:    deps.Colors,
		logger: logging.OrGlobal(deps.Logger).WithFields(logging.Fields{
			"component": "realtime_loop",
		}),
		clock: deps.Clock,
		stats: newStatsRecorder(),
	}

	dry := eeg.NewSampleChunk(len(picks), l.nSamples, cfg.SampleRate)
	if _, _, err := l.decode(dry); err != nil {
		return nil, fmt.Errorf("pipeline rejected a %d sample window: %w", l.nSamples, err)
	}

	return l, nil
}

// State returns the lifecycle state
func (l *Loop) State() State {
	return l.state
}

// Stats returns the loop counters
func (l *Loop) Stats() Stats {
	return l.stats.snapshot()
}

// Run discards whatever is already buffered, then iterates until ctx is
// cancelled or an iteration fails. Cancellation is a clean stop.
func (l *Loop) Run(ctx context.Context) error {
	if l.state != StateIdle {
		return fmt.Errorf("loop is %s", l.state)
	}
	l.state = StateRunning

	dropped := l.source.Flush()
	l.logger.Info("loop started", logging.Fields{
		"window_samples": l.nSamples,
		"timeout":        l.cfg.Timeout().String(),
		"band":           l.cfg.Band.String(),
		"method":         string(l.estimator.Method()),
		"mode":           l.policy.Mode().String(),
		"flushed":        dropped,
	})

	for {
		it, err := l.Step(ctx)
		if err != nil {
			if closeErr := l.release(); closeErr != nil {
				l.logger.Error(closeErr, "failed to release loop resources")
			}
			l.logger.Error(err, "loop stopped", l.stats.snapshot().Fields())
			return err
		}
		if it.Terminated {
			l.logger.Info("loop terminated", l.stats.snapshot().Fields())
			return nil
		}
	}
}

// Step runs one iteration. On termination it releases the source and sink
// and reports Terminated; the lag check is skipped for that iteration.
func (l *Loop) Step(ctx context.Context) (Iteration, error) {
	start := l.clock()
	it := Iteration{Start: start}

	chunk, err := l.source.PullChunk(l.nSamples, l.cfg.Timeout())
	if err != nil {
		return it, fmt.Errorf("failed to pull chunk: %w", err)
	}
	it.Samples = chunk.Len()
	if it.Samples < l.nSamples {
		return it, fmt.Errorf("%w: received %d of %d samples within %s",
			ErrShortRead, it.Samples, l.nSamples, l.cfg.Timeout())
	}

	picked, err := chunk.Pick(l.picks)
	if err != nil {
		return it, err
	}

	value, centroid, err := l.decode(picked)
	if err != nil {
		return it, err
	}
	it.Value = value
	it.Centroid = centroid
	it.Color = l.colors.Color(value)

	if err := display.Emit(l.sink, it.Color); err != nil {
		return it, err
	}

	l.logger.Info("state of switch", logging.Fields{
		"switch":    value.Level,
		"posterior": value.Posterior,
		"frontal":   value.Frontal,
		"color":     it.Color.Hex(),
	})
	l.logger.Debug("band centroid", logging.Fields{"centroid_hz": centroid})

	select {
	case <-ctx.Done():
		it.Terminated = true
		l.stats.record(it)
		l.logger.Info("termination requested", logging.Fields{"reason": context.Cause(ctx).Error()})
		return it, l.release()
	default:
	}

	it.Elapsed = l.clock().Sub(start)
	if it.Elapsed > l.cfg.Window() {
		it.Lagged = true
		it.Dropped = l.source.Flush()
		l.logger.Warn("iteration took too long, clearing buffer", logging.Fields{
			"elapsed_s": it.Elapsed.Seconds(),
			"dropped":   it.Dropped,
		})
	}

	l.stats.record(it)
	return it, nil
}

// decode turns one window of eeg rows into a switch value and the
// centroid of the averaged in-band spectrum
func (l *Loop) decode(chunk *eeg.SampleChunk) (decoder.SwitchValue, float64, error) {
	est, err := l.estimator.Estimate(chunk, l.cfg.Band)
	if err != nil {
		return decoder.SwitchValue{}, 0, fmt.Errorf("failed to estimate psd: %w", err)
	}
	posterior, frontal, err := l.agg.Powers(est)
	if err != nil {
		return decoder.SwitchValue{}, 0, fmt.Errorf("failed to aggregate power: %w", err)
	}
	return l.policy.Decide(posterior, frontal), est.MeanCentroid(), nil
}

func (l *Loop) release() error {
	if l.state == StateTerminated {
		return nil
	}
	l.state = StateTerminated
	return errors.Join(l.source.Close(), l.sink.Close())
}
