package stream

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/RyanBlaney/alpha-switch/eeg"
)

// DefaultBlockDuration is how often paced outlets push a block of samples
const DefaultBlockDuration = 20 * time.Millisecond

// Component is one sinusoid of a synthetic channel
type Component struct {
	Frequency float64 `json:"frequency" yaml:"frequency"` // Hz
	Amplitude float64 `json:"amplitude" yaml:"amplitude"`
	Phase     float64 `json:"phase" yaml:"phase"` // radians
}

// SineSpec describes a synthetic stream. Channels listed in Channels use
// their own components, other eeg channels use Default. Misc channels are zero.
type SineSpec struct {
	Default  []Component            `json:"default" yaml:"default"`
	Channels map[string][]Component `json:"channels" yaml:"channels"`
	NoiseStd float64                `json:"noise_std" yaml:"noise_std"`
	Seed     int64                  `json:"seed" yaml:"seed"`
	Block    time.Duration          `json:"block" yaml:"block"`
}

// SineOutlet generates sums of sinusoids plus Gaussian noise in real time
type SineOutlet struct {
	info     Info
	comps    [][]Component
	noiseStd float64
	rng      *rand.Rand
	block    time.Duration
	produced int64
}

// NewSineOutlet builds a synthetic outlet for info.Layout
func NewSineOutlet(info Info, spec SineSpec) (*SineOutlet, error) {
	if info.Layout == nil || info.SampleRate <= 0 {
		return nil, fmt.Errorf("synthetic stream needs a layout and a sample rate")
	}
	if spec.NoiseStd < 0 {
		return nil, fmt.Errorf("noise standard deviation must not be negative, got %g", spec.NoiseStd)
	}

	nyquist := info.SampleRate / 2
	check := func(name string, comps []Component) error {
		for _, c := range comps {
			if c.Frequency < 0 || c.Frequency >= nyquist {
				return fmt.Errorf("channel %s: component at %g Hz outside [0, %g)", name, c.Frequency, nyquist)
			}
		}
		return nil
	}
	if err := check("default", spec.Default); err != nil {
		return nil, err
	}

	comps := make([][]Component, info.Layout.Len())
	for name, cs := range spec.Channels {
		idx, ok := info.Layout.Index(name)
		if !ok {
			return nil, fmt.Errorf("synthetic source names unknown channel %q", name)
		}
		if err := check(name, cs); err != nil {
			return nil, err
		}
		comps[idx] = cs
	}
	for i := range comps {
		ch := info.Layout.Channel(i)
		if ch.Type != eeg.TypeEEG {
			comps[i] = nil
			continue
		}
		if _, custom := spec.Channels[ch.Name]; !custom {
			comps[i] = spec.Default
		}
	}

	block := spec.Block
	if block <= 0 {
		block = DefaultBlockDuration
	}

	return &SineOutlet{
		info:     info,
		comps:    comps,
		noiseStd: spec.NoiseStd,
		rng:      rand.New(rand.NewSource(spec.Seed)),
		block:    block,
	}, nil
}

// Info implements Outlet
func (s *SineOutlet) Info() Info {
	return s.info
}

// Generate returns the next n samples, channel-major, with timestamps in seconds
func (s *SineOutlet) Generate(n int) ([][]float64, []float64) {
	data := make([][]float64, len(s.comps))
	for ch := range data {
		data[ch] = make([]float64, n)
	}
	timestamps := make([]float64, n)

	for i := range n {
		t := float64(s.produced+int64(i)) / s.info.SampleRate
		timestamps[i] = t
		for ch, comps := range s.comps {
			if s.info.Layout.Channel(ch).Type != eeg.TypeEEG {
				continue
			}
			v := 0.0
			for _, c := range comps {
				v += c.Amplitude * math.Sin(2*math.Pi*c.Frequency*t+c.Phase)
			}
			if s.noiseStd > 0 {
				v += s.rng.NormFloat64() * s.noiseStd
			}
			data[ch][i] = v
		}
	}

	s.produced += int64(n)
	return data, timestamps
}

// Fill pushes n samples immediately
func (s *SineOutlet) Fill(dst Pusher, n int) error {
	data, ts := s.Generate(n)
	return dst.Push(data, ts)
}

// Run implements Outlet, pushing samples at the nominal rate
func (s *SineOutlet) Run(ctx context.Context, dst Pusher) error {
	return pace(ctx, s.info.SampleRate, s.block, func(n int) error {
		return s.Fill(dst, n)
	})
}

// pace calls emit with the number of samples due since start, once per block
func pace(ctx context.Context, sampleRate float64, block time.Duration, emit func(n int) error) error {
	ticker := time.NewTicker(block)
	defer ticker.Stop()

	start := time.Now()
	var emitted int64

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			due := int64(time.Since(start).Seconds()*sampleRate) - emitted
			if due <= 0 {
				continue
			}
			if err := emit(int(due)); err != nil {
				return err
			}
			emitted += due
		}
	}
}
