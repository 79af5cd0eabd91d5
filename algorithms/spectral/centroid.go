package spectral

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Centroid returns the power-weighted mean frequency of psd over freqs.
// Inside the alpha band this tracks the individual alpha peak. It is NaN
// when the band carries no power.
func Centroid(psd, freqs []float64) float64 {
	total := floats.Sum(psd)
	if len(psd) == 0 || len(psd) != len(freqs) || total == 0 {
		return math.NaN()
	}
	return floats.Dot(freqs, psd) / total
}

// Centroid returns the band centroid of channel i
func (e *Estimate) Centroid(i int) float64 {
	return Centroid(e.PSD[i], e.Freqs)
}

// MeanCentroid returns the centroid of the channel-averaged spectrum
func (e *Estimate) MeanCentroid() float64 {
	if len(e.PSD) == 0 {
		return math.NaN()
	}
	mean := make([]float64, len(e.Freqs))
	for _, row := range e.PSD {
		floats.Add(mean, row)
	}
	floats.Scale(1/float64(len(e.PSD)), mean)
	return Centroid(mean, e.Freqs)
}
