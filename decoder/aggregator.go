// Package decoder turns per-channel spectral estimates into the scalar
// switch value that drives the feedback display.
package decoder

import (
	"fmt"

	"github.com/RyanBlaney/alpha-switch/algorithms/common"
	"github.com/RyanBlaney/alpha-switch/algorithms/spectral"
	"github.com/RyanBlaney/alpha-switch/eeg"
)

// Aggregator reduces a spectral estimate to the posterior and frontal group powers
type Aggregator struct {
	posterior *eeg.ChannelGroup
	frontal   *eeg.ChannelGroup
}

// NewAggregator pairs the two resolved groups
func NewAggregator(posterior, frontal *eeg.ChannelGroup) (*Aggregator, error) {
	if posterior == nil || frontal == nil {
		return nil, fmt.Errorf("aggregator needs both a posterior and a frontal group")
	}
	return &Aggregator{posterior: posterior, frontal: frontal}, nil
}

// Aggregate returns the scaled mean band power over the channels of group
func Aggregate(est *spectral.Estimate, group *eeg.ChannelGroup) (float64, error) {
	if group.Len() == 0 {
		return 0, fmt.Errorf("group %q is empty", group.Name)
	}
	for _, idx := range group.Indices {
		if idx < 0 || idx >= est.Channels() {
			return 0, fmt.Errorf("group %q: channel index %d outside estimate of %d channels",
				group.Name, idx, est.Channels())
		}
	}
	return group.Scale * common.MeanAt(est.Powers(), group.Indices), nil
}

// Powers computes (posterior, frontal)
func (a *Aggregator) Powers(est *spectral.Estimate) (posterior, frontal float64, err error) {
	if posterior, err = Aggregate(est, a.posterior); err != nil {
		return 0, 0, err
	}
	if frontal, err = Aggregate(est, a.frontal); err != nil {
		return 0, 0, err
	}
	return posterior, frontal, nil
}
