package windowing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DPSS holds discrete prolate spheroidal (Slepian) sequences for multitaper
// spectral estimation, with the spectral concentration ratio of each taper.
type DPSS struct {
	size   int
	nw     float64
	tapers [][]float64
	ratios []float64
}

// NewDPSS computes up to maxTapers Slepian tapers of length size with
// time-half-bandwidth product nw. maxTapers <= 0 selects floor(2*nw).
//
// The tapers are the leading eigenvectors of the tridiagonal matrix that
// commutes with the time-frequency concentration operator.
func NewDPSS(size int, nw float64, maxTapers int) (*DPSS, error) {
	if size < 2 {
		return nil, fmt.Errorf("dpss length must be at least 2, got %d", size)
	}
	if nw <= 0 || nw >= float64(size)/2 {
		return nil, fmt.Errorf("dpss half-bandwidth product must be in (0, %g), got %g", float64(size)/2, nw)
	}
	if maxTapers <= 0 {
		maxTapers = int(2 * nw)
	}
	if maxTapers < 1 {
		maxTapers = 1
	}
	if maxTapers > size {
		return nil, fmt.Errorf("requested %d tapers for length %d", maxTapers, size)
	}

	w := nw / float64(size)
	cos2piW := math.Cos(2 * math.Pi * w)

	tri := mat.NewSymDense(size, nil)
	for i := range size {
		half := (float64(size-1) - 2*float64(i)) / 2
		tri.SetSym(i, i, half*half*cos2piW)
		if i > 0 {
			tri.SetSym(i-1, i, float64(i)*float64(size-i)/2)
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(tri, true); !ok {
		return nil, fmt.Errorf("dpss eigen decomposition did not converge")
	}

	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	// Eigenvalues come out ascending; the best concentrated tapers are last.
	tapers := make([][]float64, maxTapers)
	for k := range maxTapers {
		col := size - 1 - k
		taper := make([]float64, size)
		mat.Col(taper, col, &vectors)
		floats.Scale(1/floats.Norm(taper, 2), taper)
		orientTaper(taper, k)
		tapers[k] = taper
	}

	ratios := concentrationRatios(tapers, w)

	return &DPSS{
		size:   size,
		nw:     nw,
		tapers: tapers,
		ratios: ratios,
	}, nil
}

// orientTaper fixes the eigenvector sign: even tapers sum positive,
// odd tapers start with a positive lobe.
func orientTaper(taper []float64, k int) {
	var s float64
	if k%2 == 0 {
		s = floats.Sum(taper)
	} else {
		mid := float64(len(taper)-1) / 2
		for i, v := range taper {
			s += (mid - float64(i)) * v
		}
	}
	if s < 0 {
		floats.Scale(-1, taper)
	}
}

// concentrationRatios computes λ = wᵀAw where A is the sinc kernel of bandwidth w
func concentrationRatios(tapers [][]float64, w float64) []float64 {
	size := len(tapers[0])
	kernel := mat.NewSymDense(size, nil)
	for i := range size {
		kernel.SetSym(i, i, 2*w)
		for j := i + 1; j < size; j++ {
			d := float64(j - i)
			kernel.SetSym(i, j, math.Sin(2*math.Pi*w*d)/(math.Pi*d))
		}
	}

	ratios := make([]float64, len(tapers))
	for k, taper := range tapers {
		v := mat.NewVecDense(size, taper)
		ratios[k] = mat.Inner(v, kernel, v)
	}
	return ratios
}

// LowBias returns a copy keeping only tapers whose concentration ratio
// exceeds threshold. It fails when no taper qualifies.
func (d *DPSS) LowBias(threshold float64) (*DPSS, error) {
	out := &DPSS{size: d.size, nw: d.nw}
	for k, r := range d.ratios {
		if r > threshold {
			out.tapers = append(out.tapers, d.tapers[k])
			out.ratios = append(out.ratios, r)
		}
	}
	if len(out.tapers) == 0 {
		return nil, fmt.Errorf("no dpss taper has concentration above %g (nw=%g)", threshold, d.nw)
	}
	return out, nil
}

// Tapers returns the taper count
func (d *DPSS) Tapers() int {
	return len(d.tapers)
}

// Taper returns the k-th taper. The slice is shared; callers must not modify it.
func (d *DPSS) Taper(k int) []float64 {
	return d.tapers[k]
}

// Ratios returns a copy of the concentration ratios
func (d *DPSS) Ratios() []float64 {
	out := make([]float64, len(d.ratios))
	copy(out, d.ratios)
	return out
}

// GetSize returns the taper length
func (d *DPSS) GetSize() int {
	return d.size
}
