// Package display renders the switch value as a background colour. Sinks
// follow a set-then-flip protocol: SetColor stages the colour, Flip presents it.
package display

import (
	"fmt"
	"strings"
)

// Kind selects a sink implementation
type Kind string

const (
	KindTerminal  Kind = "terminal"
	KindWebSocket Kind = "websocket"
	KindNone      Kind = "none"
)

// ParseKind maps a configuration string onto a Kind
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindTerminal, KindWebSocket:
		return k, nil
	case KindNone, "", "nop", "headless":
		return KindNone, nil
	default:
		return "", fmt.Errorf("unknown display kind %q", s)
	}
}

// Sink is a colour surface
type Sink interface {
	SetColor(c RGB) error
	Flip() error
	Close() error
}

// Emit presents c on s. The surface is flipped twice: the first flip
// presents the new background, the second makes sure it is fully repainted.
func Emit(s Sink, c RGB) error {
	if err := s.SetColor(c); err != nil {
		return fmt.Errorf("failed to set display colour: %w", err)
	}
	for range 2 {
		if err := s.Flip(); err != nil {
			return fmt.Errorf("failed to flip display: %w", err)
		}
	}
	return nil
}

// NopSink discards everything, for headless runs
type NopSink struct{}

func (NopSink) SetColor(RGB) error { return nil }
func (NopSink) Flip() error        { return nil }
func (NopSink) Close() error       { return nil }
