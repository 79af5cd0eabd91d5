package stream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/RyanBlaney/alpha-switch/eeg"
	"github.com/RyanBlaney/alpha-switch/logging"
)

// Outlet produces samples for a stream. Run pushes into dst until ctx is
// cancelled or the outlet runs out of data.
type Outlet interface {
	Info() Info
	Run(ctx context.Context, dst Pusher) error
}

// Registry is the set of streams visible to resolution
type Registry struct {
	mu      sync.Mutex
	outlets []Outlet
	logger  logging.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(logger logging.Logger) *Registry {
	return &Registry{
		logger: logging.OrGlobal(logger).WithFields(logging.Fields{"component": "stream_registry"}),
	}
}

// Register makes an outlet discoverable
func (r *Registry) Register(o Outlet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outlets = append(r.outlets, o)
}

// Resolve lists the streams whose type matches selector, case-insensitively
func (r *Registry) Resolve(selector string) []Info {
	r.mu.Lock()
	defer r.mu.Unlock()

	var found []Info
	for _, o := range r.outlets {
		if strings.EqualFold(o.Info().Type, selector) {
			found = append(found, o.Info())
		}
	}
	return found
}

// Open resolves exactly one stream of type selector, connects an inlet to
// it and starts its outlet. Zero or several matches return an
// *AmbiguousStreamError. Closing the inlet stops the outlet.
func (r *Registry) Open(selector string, bufferSeconds float64) (*Inlet, error) {
	r.mu.Lock()
	var matches []Outlet
	for _, o := range r.outlets {
		if strings.EqualFold(o.Info().Type, selector) {
			matches = append(matches, o)
		}
	}
	r.mu.Unlock()

	if len(matches) != 1 {
		return nil, &AmbiguousStreamError{Selector: selector, Count: len(matches)}
	}
	outlet := matches[0]

	inlet, err := NewInlet(outlet.Info(), bufferSeconds, r.logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	inlet.onClose = func() {
		cancel()
		<-done
	}

	go func() {
		defer close(done)
		err := outlet.Run(ctx, inlet)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, ErrClosed) {
			r.logger.Error(err, "stream outlet stopped", logging.Fields{"stream": outlet.Info().Name})
		}
		inlet.Finish(err)
	}()

	r.logger.Info("stream resolved", logging.Fields{
		"stream":      outlet.Info().Name,
		"type":        outlet.Info().Type,
		"source_id":   outlet.Info().SourceID,
		"channels":    outlet.Info().Channels(),
		"sample_rate": outlet.Info().SampleRate,
	})

	return inlet, nil
}

// CheckCompatible verifies a resolved stream against the configured layout
// and sample rate. A mismatch means every channel index downstream would be wrong.
func CheckCompatible(info Info, layout *eeg.ChannelLayout, sampleRate float64) error {
	if info.Channels() != layout.Len() {
		return fmt.Errorf("stream %q has %d channels, configured layout has %d",
			info.Name, info.Channels(), layout.Len())
	}
	if info.SampleRate != sampleRate {
		return fmt.Errorf("stream %q runs at %g Hz, configured for %g Hz",
			info.Name, info.SampleRate, sampleRate)
	}
	return nil
}
