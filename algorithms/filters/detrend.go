package filters

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Detrend removes a slow trend from a segment before spectral estimation.
// Amplifier DC offsets otherwise leak through the window sidelobes into the
// low bins.
type Detrend string

const (
	DetrendNone     Detrend = "none"
	DetrendConstant Detrend = "constant" // subtract the mean
	DetrendLinear   Detrend = "linear"   // subtract the least-squares line
)

// ParseDetrend maps a configuration string onto a Detrend; "" is DetrendNone
func ParseDetrend(s string) (Detrend, error) {
	switch d := Detrend(strings.ToLower(strings.TrimSpace(s))); d {
	case "", DetrendNone:
		return DetrendNone, nil
	case DetrendConstant, DetrendLinear:
		return d, nil
	default:
		return "", fmt.Errorf("unknown detrend %q", s)
	}
}

// Detrender applies one Detrend in place, reusing the sample ramp between calls
type Detrender struct {
	mode Detrend
	ramp []float64
}

// NewDetrender creates a detrender for mode
func NewDetrender(mode Detrend) *Detrender {
	return &Detrender{mode: mode}
}

// Mode returns the detrend kind
func (d *Detrender) Mode() Detrend {
	return d.mode
}

// Apply removes the trend from x in place
func (d *Detrender) Apply(x []float64) {
	if len(x) == 0 {
		return
	}

	switch d.mode {
	case DetrendConstant:
		mean := stat.Mean(x, nil)
		for i := range x {
			x[i] -= mean
		}

	case DetrendLinear:
		if len(x) < 2 {
			x[0] = 0
			return
		}
		if len(d.ramp) != len(x) {
			d.ramp = make([]float64, len(x))
			for i := range d.ramp {
				d.ramp[i] = float64(i)
			}
		}
		alpha, beta := stat.LinearRegression(d.ramp, x, nil, false)
		for i := range x {
			x[i] -= alpha + beta*d.ramp[i]
		}
	}
}
