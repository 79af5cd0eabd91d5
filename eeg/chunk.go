package eeg

import (
	"fmt"
)

// SampleChunk is a channels x samples block of raw signal pulled in one
// acquisition cycle. All rows share the sample count and the sample rate.
type SampleChunk struct {
	Data       [][]float64 `json:"-"`
	SampleRate float64     `json:"sample_rate"`
	Timestamps []float64   `json:"timestamps,omitempty"` // seconds, one per sample
}

// NewSampleChunk allocates a zeroed chunk
func NewSampleChunk(channels, samples int, sampleRate float64) *SampleChunk {
	data := make([][]float64, channels)
	for i := range data {
		data[i] = make([]float64, samples)
	}
	return &SampleChunk{Data: data, SampleRate: sampleRate}
}

// Channels returns the number of rows
func (c *SampleChunk) Channels() int {
	return len(c.Data)
}

// Len returns the number of samples per channel
func (c *SampleChunk) Len() int {
	if len(c.Data) == 0 {
		return 0
	}
	return len(c.Data[0])
}

// Duration returns the chunk length in seconds at the nominal rate
func (c *SampleChunk) Duration() float64 {
	if c.SampleRate <= 0 {
		return 0
	}
	return float64(c.Len()) / c.SampleRate
}

// Validate checks the rectangular shape and the sample rate
func (c *SampleChunk) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %g", c.SampleRate)
	}
	n := c.Len()
	for i, row := range c.Data {
		if len(row) != n {
			return fmt.Errorf("channel %d has %d samples, expected %d", i, len(row), n)
		}
	}
	if c.Timestamps != nil && len(c.Timestamps) != n {
		return fmt.Errorf("%d timestamps for %d samples", len(c.Timestamps), n)
	}
	return nil
}

// Pick returns a chunk holding only the given rows. Rows are shared, not copied.
func (c *SampleChunk) Pick(indices []int) (*SampleChunk, error) {
	data := make([][]float64, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= len(c.Data) {
			return nil, fmt.Errorf("channel index %d out of range [0,%d)", idx, len(c.Data))
		}
		data[i] = c.Data[idx]
	}
	return &SampleChunk{
		Data:       data,
		SampleRate: c.SampleRate,
		Timestamps: c.Timestamps,
	}, nil
}
