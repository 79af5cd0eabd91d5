package eeg

import "fmt"

// ChannelGroup is a named subset of a layout, resolved to indices once at setup
type ChannelGroup struct {
	Name     string
	Channels []string
	Indices  []int
	Scale    float64
}

// ResolveGroup maps channel names onto layout indices. Every name must
// resolve and appear once, otherwise downstream averaging would silently
// cover the wrong electrodes. A zero scale becomes 1.
func ResolveGroup(layout *ChannelLayout, name string, channels []string, scale float64) (*ChannelGroup, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("group %q has no channels", name)
	}
	if scale < 0 {
		return nil, fmt.Errorf("group %q: scale must not be negative, got %g", name, scale)
	}
	if scale == 0 {
		scale = 1
	}

	seen := make(map[string]bool, len(channels))
	indices := make([]int, 0, len(channels))
	var missing []string
	for _, ch := range channels {
		if seen[ch] {
			return nil, fmt.Errorf("group %q lists channel %q twice", name, ch)
		}
		seen[ch] = true

		idx, ok := layout.Index(ch)
		if !ok {
			missing = append(missing, ch)
			continue
		}
		indices = append(indices, idx)
	}

	if len(indices) != len(channels) {
		return nil, fmt.Errorf("group %q: resolved %d of %d channels, missing %v",
			name, len(indices), len(channels), missing)
	}

	names := make([]string, len(channels))
	copy(names, channels)

	return &ChannelGroup{
		Name:     name,
		Channels: names,
		Indices:  indices,
		Scale:    scale,
	}, nil
}

// Len returns the number of channels in the group
func (g *ChannelGroup) Len() int {
	return len(g.Indices)
}
