package windowing

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Window is the common surface of the segment windows used by the Welch estimator
type Window interface {
	Apply(signal []float64) []float64
	ApplyInPlace(signal []float64) error
	GetCoefficients() []float64
	GetSize() int
	GetType() string
	SumSquares() float64
}

// Cosine is a cosine-sum window, w[i] = Σ (-1)^k a[k] cos(2πki/D).
// Bartlett is tabulated through the same type.
type Cosine struct {
	name         string
	size         int
	symmetric    bool
	coefficients []float64
	sumSquares   float64
}

// NewHann creates a Hann window
func NewHann(size int, symmetric bool) *Cosine {
	return newCosine("hann", size, symmetric, 0.5, 0.5)
}

// NewHamming creates a Hamming window
func NewHamming(size int, symmetric bool) *Cosine {
	return newCosine("hamming", size, symmetric, 0.54, 0.46)
}

// NewBlackman creates a Blackman window
func NewBlackman(size int, symmetric bool) *Cosine {
	return newCosine("blackman", size, symmetric, 0.42, 0.5, 0.08)
}

// NewBlackmanHarris creates a four-term Blackman-Harris window
func NewBlackmanHarris(size int, symmetric bool) *Cosine {
	return newCosine("blackman-harris", size, symmetric, 0.35875, 0.48829, 0.14128, 0.01168)
}

// NewBoxcar creates a rectangular window (all ones)
func NewBoxcar(size int) *Cosine {
	return newCosine("boxcar", size, false, 1)
}

// NewBartlett creates a triangular window that reaches zero at both ends
// when symmetric
func NewBartlett(size int, symmetric bool) *Cosine {
	c := &Cosine{name: "bartlett", size: size, symmetric: symmetric}
	c.coefficients = make([]float64, size)

	half := c.denominator() / 2
	for i := range size {
		c.coefficients[i] = 1 - math.Abs(float64(i)-half)/half
	}
	c.sumSquares = floats.Dot(c.coefficients, c.coefficients)
	return c
}

// New builds a periodic window by name. Periodic windows are the ones used
// for spectral analysis, where the segment wraps around the FFT.
func New(name string, size int) (Window, error) {
	if size <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", size)
	}

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "hamming":
		return NewHamming(size, false), nil
	case "hann", "hanning":
		return NewHann(size, false), nil
	case "blackman":
		return NewBlackman(size, false), nil
	case "blackman-harris", "blackmanharris":
		return NewBlackmanHarris(size, false), nil
	case "bartlett", "triangular":
		return NewBartlett(size, false), nil
	case "boxcar", "rectangular", "none":
		return NewBoxcar(size), nil
	default:
		return nil, fmt.Errorf("unknown window %q", name)
	}
}

func newCosine(name string, size int, symmetric bool, terms ...float64) *Cosine {
	c := &Cosine{
		name:      name,
		size:      size,
		symmetric: symmetric,
	}
	c.coefficients = make([]float64, size)

	d := c.denominator()
	for i := range size {
		arg := 2 * math.Pi * float64(i) / d
		sign := 1.0
		for k, a := range terms {
			c.coefficients[i] += sign * a * math.Cos(float64(k)*arg)
			sign = -sign
		}
	}

	c.sumSquares = floats.Dot(c.coefficients, c.coefficients)
	return c
}

func (c *Cosine) denominator() float64 {
	if c.symmetric && c.size > 1 {
		return float64(c.size - 1)
	}
	return float64(c.size)
}

// Apply applies the window to a signal (creates new array)
func (c *Cosine) Apply(signal []float64) []float64 {
	if len(signal) != c.size {
		return nil
	}

	windowed := make([]float64, c.size)
	floats.MulTo(windowed, signal, c.coefficients)
	return windowed
}

// ApplyInPlace applies the window to a signal in-place
func (c *Cosine) ApplyInPlace(signal []float64) error {
	if len(signal) != c.size {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), c.size)
	}

	floats.Mul(signal, c.coefficients)
	return nil
}

// GetCoefficients returns a copy of the window coefficients
func (c *Cosine) GetCoefficients() []float64 {
	coeffs := make([]float64, len(c.coefficients))
	copy(coeffs, c.coefficients)
	return coeffs
}

// GetSize returns the window size
func (c *Cosine) GetSize() int {
	return c.size
}

// GetType returns the window type
func (c *Cosine) GetType() string {
	return c.name
}

// SumSquares returns Σw², the power normalization used for density scaling
func (c *Cosine) SumSquares() float64 {
	return c.sumSquares
}
