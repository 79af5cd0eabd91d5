// Package stream provides the acquisition side of the feedback loop: live
// multichannel sample streams, their discovery by type, and the outlets
// (synthetic generator, recording replay) that feed them.
package stream

import (
	"errors"
	"fmt"
	"time"

	"github.com/RyanBlaney/alpha-switch/eeg"
)

var (
	// ErrClosed is returned by operations on a closed stream
	ErrClosed = errors.New("stream closed")
	// ErrStreamEnded is returned once the producer has stopped and the buffer cannot satisfy a pull
	ErrStreamEnded = errors.New("stream ended")
	// ErrAmbiguousStream matches every AmbiguousStreamError
	ErrAmbiguousStream = errors.New("stream selector did not resolve to exactly one stream")
)

// AmbiguousStreamError reports how many streams matched a selector when the
// count was not exactly one. Zero and several matches share this type.
type AmbiguousStreamError struct {
	Selector string
	Count    int
}

func (e *AmbiguousStreamError) Error() string {
	return fmt.Sprintf("expected one stream of type %q, but found: %d", e.Selector, e.Count)
}

// Is lets errors.Is(err, ErrAmbiguousStream) match
func (e *AmbiguousStreamError) Is(target error) bool {
	return target == ErrAmbiguousStream
}

// Info describes a stream
type Info struct {
	Name       string             `json:"name"`
	Type       string             `json:"type"` // selector category, e.g. "EEG"
	SourceID   string             `json:"source_id"`
	SampleRate float64            `json:"sample_rate"` // nominal, Hz
	Layout     *eeg.ChannelLayout `json:"-"`
}

// Channels returns the channel count of the stream
func (i Info) Channels() int {
	if i.Layout == nil {
		return 0
	}
	return i.Layout.Len()
}

// Source is a live multichannel stream exclusively owned by one reader
type Source interface {
	Info() Info

	// PullChunk blocks until maxSamples samples are buffered or timeout
	// elapses, and returns what was collected. A short chunk is not an error
	// at this level.
	PullChunk(maxSamples int, timeout time.Duration) (*eeg.SampleChunk, error)

	// Flush discards every buffered, unread sample and reports how many were dropped
	Flush() int

	Close() error
}

// Pusher receives channel-major sample blocks from an outlet
type Pusher interface {
	Push(data [][]float64, timestamps []float64) error
}
