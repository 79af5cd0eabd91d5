package eeg

import "fmt"

// FrequencyBand is a closed frequency interval in Hz
type FrequencyBand struct {
	Min float64 `json:"fmin" yaml:"fmin"`
	Max float64 `json:"fmax" yaml:"fmax"`
}

// AlphaBand is the 8-12 Hz range associated with relaxed, eyes-closed states
var AlphaBand = FrequencyBand{Min: 8, Max: 12}

// Validate requires 0 <= Min < Max < Nyquist
func (b FrequencyBand) Validate(sampleRate float64) error {
	if b.Min < 0 {
		return fmt.Errorf("band minimum %g Hz is negative", b.Min)
	}
	if b.Min >= b.Max {
		return fmt.Errorf("band minimum %g Hz must be below maximum %g Hz", b.Min, b.Max)
	}
	if nyquist := sampleRate / 2; b.Max >= nyquist {
		return fmt.Errorf("band maximum %g Hz must be below the Nyquist frequency %g Hz", b.Max, nyquist)
	}
	return nil
}

// Contains reports whether f lies inside the band, edges included
func (b FrequencyBand) Contains(f float64) bool {
	return f >= b.Min && f <= b.Max
}

func (b FrequencyBand) String() string {
	return fmt.Sprintf("[%g, %g] Hz", b.Min, b.Max)
}
