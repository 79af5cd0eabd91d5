package stream

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/RyanBlaney/alpha-switch/eeg"
	"github.com/RyanBlaney/alpha-switch/logging"
)

// DefaultBufferSeconds bounds how much unread signal an inlet keeps before
// it starts overwriting the oldest samples.
const DefaultBufferSeconds = 360

// InletStats counts samples through an inlet
type InletStats struct {
	Pushed      uint64 `json:"pushed"`
	Pulled      uint64 `json:"pulled"`
	Flushed     uint64 `json:"flushed"`
	Overwritten uint64 `json:"overwritten"` // lost to a full buffer
	Buffered    int    `json:"buffered"`
}

// Inlet is the receiving end of a stream: a bounded ring buffer filled by
// an outlet and drained by a single reader through PullChunk.
type Inlet struct {
	info   Info
	logger logging.Logger

	mu       sync.Mutex
	ring     *frameRing
	closed   bool
	finished bool
	endErr   error
	stats    InletStats

	notify  chan struct{}
	onClose func()
}

// NewInlet creates an inlet buffering up to bufferSeconds of signal
func NewInlet(info Info, bufferSeconds float64, logger logging.Logger) (*Inlet, error) {
	if info.Channels() == 0 {
		return nil, fmt.Errorf("stream %q has no channels", info.Name)
	}
	if info.SampleRate <= 0 {
		return nil, fmt.Errorf("stream %q has no nominal sample rate", info.Name)
	}
	if bufferSeconds <= 0 {
		bufferSeconds = DefaultBufferSeconds
	}

	capacity := int(bufferSeconds * info.SampleRate)
	if capacity < 1 {
		capacity = 1
	}

	return &Inlet{
		info: info,
		logger: logging.OrGlobal(logger).WithFields(logging.Fields{
			"component": "inlet",
			"stream":    info.Name,
		}),
		ring:   newFrameRing(info.Channels(), capacity),
		notify: make(chan struct{}, 1),
	}, nil
}

// Info implements Source
func (in *Inlet) Info() Info {
	return in.info
}

// Push implements Pusher. data is channels x n.
func (in *Inlet) Push(data [][]float64, timestamps []float64) error {
	if len(data) != in.info.Channels() {
		return fmt.Errorf("pushed %d channels into a %d channel stream", len(data), in.info.Channels())
	}
	n := len(timestamps)
	for ch, row := range data {
		if len(row) != n {
			return fmt.Errorf("channel %d has %d samples, %d timestamps", ch, len(row), n)
		}
	}

	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		return ErrClosed
	}
	overwritten := in.ring.write(data, timestamps, n)
	in.stats.Pushed += uint64(n)
	in.stats.Overwritten += uint64(overwritten)
	in.mu.Unlock()

	if overwritten > 0 {
		in.logger.Debug("inlet buffer full, oldest samples overwritten", logging.Fields{
			"overwritten": overwritten,
		})
	}

	in.wake()
	return nil
}

// PullChunk implements Source
func (in *Inlet) PullChunk(maxSamples int, timeout time.Duration) (*eeg.SampleChunk, error) {
	if maxSamples <= 0 {
		return nil, fmt.Errorf("max samples must be positive, got %d", maxSamples)
	}

	deadline := time.Now().Add(timeout)
	var timer *time.Timer

	for {
		in.mu.Lock()
		if in.closed {
			in.mu.Unlock()
			return nil, ErrClosed
		}

		available := in.ring.available()
		remaining := time.Until(deadline)
		if available >= maxSamples || remaining <= 0 || in.finished {
			chunk := in.take(min(available, maxSamples))
			finished, endErr := in.finished, in.endErr
			in.mu.Unlock()

			if finished && chunk.Len() < maxSamples {
				return chunk, fmt.Errorf("%w: %w", ErrStreamEnded, endErr)
			}
			return chunk, nil
		}
		in.mu.Unlock()

		if timer == nil {
			timer = time.NewTimer(remaining)
			defer timer.Stop()
		}

		select {
		case <-in.notify:
		case <-timer.C:
		}
	}
}

// take drains n frames into a fresh chunk; caller holds mu
func (in *Inlet) take(n int) *eeg.SampleChunk {
	chunk := eeg.NewSampleChunk(in.info.Channels(), n, in.info.SampleRate)
	chunk.Timestamps = make([]float64, n)
	read := in.ring.read(chunk.Data, chunk.Timestamps, n)
	in.stats.Pulled += uint64(read)
	return chunk
}

// Flush implements Source
func (in *Inlet) Flush() int {
	in.mu.Lock()
	defer in.mu.Unlock()

	dropped := in.ring.clear()
	in.stats.Flushed += uint64(dropped)
	return dropped
}

// Available returns the number of buffered samples
func (in *Inlet) Available() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.ring.available()
}

// Stats returns a snapshot of the inlet counters
func (in *Inlet) Stats() InletStats {
	in.mu.Lock()
	defer in.mu.Unlock()

	s := in.stats
	s.Buffered = in.ring.available()
	return s
}

// Finish marks the producer as stopped. Buffered samples stay readable; a
// pull that cannot be satisfied afterwards returns ErrStreamEnded.
func (in *Inlet) Finish(err error) {
	if err == nil {
		err = io.EOF
	}

	in.mu.Lock()
	if !in.finished {
		in.finished = true
		in.endErr = err
	}
	in.mu.Unlock()

	in.wake()
}

// Close implements Source. It stops the attached producer, if any.
func (in *Inlet) Close() error {
	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		return nil
	}
	in.closed = true
	onClose := in.onClose
	in.mu.Unlock()

	in.wake()
	if onClose != nil {
		onClose()
	}

	in.logger.Debug("inlet closed")
	return nil
}

func (in *Inlet) wake() {
	select {
	case in.notify <- struct{}{}:
	default:
	}
}
