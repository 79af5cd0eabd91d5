package common

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Basic statistical functions shared by estimation and aggregation, backed by gonum

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// MeanAt averages data over the given indices
func MeanAt(data []float64, indices []int) float64 {
	if len(indices) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, i := range indices {
		sum += data[i]
	}
	return sum / float64(len(indices))
}

// StandardDeviation calculates the sample standard deviation
func StandardDeviation(data []float64) float64 {
	if len(data) < 2 {
		return 0.0
	}
	return math.Sqrt(stat.Variance(data, nil))
}
