// Package eeg holds the data model shared by the acquisition, estimation and
// decoding packages: channel layouts, sample chunks, frequency bands and
// channel groups.
package eeg

import (
	"fmt"
	"strings"
)

// ChannelType tags a channel in a layout
type ChannelType string

const (
	// TypeEEG marks a scalp electrode
	TypeEEG ChannelType = "eeg"
	// TypeMisc marks a non-signal channel, such as the marker channel an LSL
	// outlet appends after the electrodes
	TypeMisc ChannelType = "misc"
)

// ParseChannelType accepts "eeg", "misc" and "marker" (an alias for misc).
func ParseChannelType(s string) (ChannelType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "eeg":
		return TypeEEG, nil
	case "misc", "marker":
		return TypeMisc, nil
	default:
		return "", fmt.Errorf("unknown channel type %q", s)
	}
}

// Channel is one entry of a ChannelLayout
type Channel struct {
	Name string      `json:"name" yaml:"name"`
	Type ChannelType `json:"type" yaml:"type"`
}

// ChannelLayout is the ordered list of channels of a stream. Order must match
// the physical stream exactly; every index used downstream refers to it.
// A layout is immutable once built.
type ChannelLayout struct {
	channels []Channel
	index    map[string]int
}

// NewChannelLayout builds a layout. Names must be non-empty and unique.
func NewChannelLayout(channels []Channel) (*ChannelLayout, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("channel layout is empty")
	}

	l := &ChannelLayout{
		channels: make([]Channel, len(channels)),
		index:    make(map[string]int, len(channels)),
	}

	for i, ch := range channels {
		if ch.Name == "" {
			return nil, fmt.Errorf("channel %d has no name", i)
		}
		if _, dup := l.index[ch.Name]; dup {
			return nil, fmt.Errorf("duplicate channel name %q", ch.Name)
		}
		switch ch.Type {
		case TypeEEG, TypeMisc:
		case "":
			ch.Type = TypeEEG
		default:
			return nil, fmt.Errorf("channel %q: unknown type %q", ch.Name, ch.Type)
		}
		l.channels[i] = ch
		l.index[ch.Name] = i
	}

	return l, nil
}

// NewEEGLayout builds a layout of eeg channels followed by misc channels
func NewEEGLayout(eegNames []string, miscNames ...string) (*ChannelLayout, error) {
	channels := make([]Channel, 0, len(eegNames)+len(miscNames))
	for _, name := range eegNames {
		channels = append(channels, Channel{Name: name, Type: TypeEEG})
	}
	for _, name := range miscNames {
		channels = append(channels, Channel{Name: name, Type: TypeMisc})
	}
	return NewChannelLayout(channels)
}

// Len returns the number of channels
func (l *ChannelLayout) Len() int {
	return len(l.channels)
}

// Channel returns the i-th channel
func (l *ChannelLayout) Channel(i int) Channel {
	return l.channels[i]
}

// Names returns a copy of the channel names in stream order
func (l *ChannelLayout) Names() []string {
	names := make([]string, len(l.channels))
	for i, ch := range l.channels {
		names[i] = ch.Name
	}
	return names
}

// Index returns the position of the named channel
func (l *ChannelLayout) Index(name string) (int, bool) {
	i, ok := l.index[name]
	return i, ok
}

// Pick returns the indices of all channels whose type is in types, along
// with the layout restricted to those channels.
func (l *ChannelLayout) Pick(types ...ChannelType) ([]int, *ChannelLayout, error) {
	want := make(map[ChannelType]bool, len(types))
	for _, t := range types {
		want[t] = true
	}

	var picks []int
	var picked []Channel
	for i, ch := range l.channels {
		if want[ch.Type] {
			picks = append(picks, i)
			picked = append(picked, ch)
		}
	}

	if len(picks) == 0 {
		return nil, nil, fmt.Errorf("no channels of type %v in layout", types)
	}

	sub, err := NewChannelLayout(picked)
	if err != nil {
		return nil, nil, err
	}
	return picks, sub, nil
}
