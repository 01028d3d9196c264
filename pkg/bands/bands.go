// Package bands holds band-structure containers and energy-window selection.
package bands

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Eigenvalues stores Kohn-Sham band energies indexed by (k-point, band, spin).
// The band axis is assumed sorted ascending for every (k, spin) pair.
type Eigenvalues struct {
	NK    int
	NBand int
	NSpin int
	data  []float64
}

// NewEigenvalues allocates a zeroed eigenvalue container.
func NewEigenvalues(nk, nband, nspin int) *Eigenvalues {
	if nk < 1 || nband < 1 || nspin < 1 {
		panic(fmt.Sprintf("bands: invalid eigenvalue dimensions (%d, %d, %d)", nk, nband, nspin))
	}
	return &Eigenvalues{
		NK:    nk,
		NBand: nband,
		NSpin: nspin,
		data:  make([]float64, nk*nband*nspin),
	}
}

func (e *Eigenvalues) index(ik, ib, is int) int {
	return (ik*e.NBand+ib)*e.NSpin + is
}

// At returns the eigenvalue at (k-point ik, band ib, spin is).
func (e *Eigenvalues) At(ik, ib, is int) float64 {
	return e.data[e.index(ik, ib, is)]
}

// Set stores an eigenvalue at (k-point ik, band ib, spin is).
func (e *Eigenvalues) Set(ik, ib, is int, v float64) {
	e.data[e.index(ik, ib, is)] = v
}

// Min returns the smallest eigenvalue of the spectrum.
func (e *Eigenvalues) Min() float64 {
	return floats.Min(e.data)
}

// Max returns the largest eigenvalue of the spectrum.
func (e *Eigenvalues) Max() float64 {
	return floats.Max(e.data)
}

// Occupations stores band occupation numbers indexed by (spin, k-point, band).
type Occupations struct {
	NSpin int
	NK    int
	NBand int
	data  []float64
}

// NewOccupations allocates a zeroed occupation container.
func NewOccupations(nspin, nk, nband int) *Occupations {
	if nspin < 1 || nk < 1 || nband < 1 {
		panic(fmt.Sprintf("bands: invalid occupation dimensions (%d, %d, %d)", nspin, nk, nband))
	}
	return &Occupations{
		NSpin: nspin,
		NK:    nk,
		NBand: nband,
		data:  make([]float64, nspin*nk*nband),
	}
}

// At returns the occupation at (spin is, k-point ik, band ib).
func (o *Occupations) At(is, ik, ib int) float64 {
	return o.data[(is*o.NK+ik)*o.NBand+ib]
}

// Set stores an occupation at (spin is, k-point ik, band ib).
func (o *Occupations) Set(is, ik, ib int, v float64) {
	o.data[(is*o.NK+ik)*o.NBand+ib] = v
}

// IndexRange is a closed inclusive range [First, Last] of band indices.
type IndexRange struct {
	First int
	Last  int
}

// Len returns the number of bands in the range.
func (r IndexRange) Len() int {
	return r.Last - r.First + 1
}

// Window holds the per-(k, spin) band index ranges selected by an energy
// window, together with the global extremes across all pairs.
type Window struct {
	NK    int
	NSpin int

	// IBMin and IBMax are the global minimum of First and maximum of Last
	// over all (k, spin) pairs.
	IBMin int
	IBMax int

	ranges []IndexRange
}

// At returns the band index range for (k-point ik, spin is).
func (w *Window) At(ik, is int) IndexRange {
	return w.ranges[ik*w.NSpin+is]
}

// NBMax returns the padded band-block width used for uniform storage.
func (w *Window) NBMax() int {
	return w.IBMax - w.IBMin + 1
}

// SelectBands computes the inclusive band index range per (k, spin) for
// bands whose energy lies within [emin, emax].
//
// Per (k, spin) the first band with energy >= emin opens the range and the
// scan closes it at the last band with energy <= emax; a band exactly at
// emax is included, and if emax is never exceeded the range runs through the
// last band. The eigenvalue band axis must be sorted ascending.
func SelectBands(eig *Eigenvalues, emin, emax float64) (*Window, error) {
	if emin > eig.Max() || emax < eig.Min() {
		return nil, &WindowMismatchError{
			EMin:        emin,
			EMax:        emax,
			SpectrumMin: eig.Min(),
			SpectrumMax: eig.Max(),
		}
	}

	win := &Window{
		NK:     eig.NK,
		NSpin:  eig.NSpin,
		IBMin:  eig.NBand,
		IBMax:  0,
		ranges: make([]IndexRange, eig.NK*eig.NSpin),
	}

	for is := 0; is < eig.NSpin; is++ {
		for ik := 0; ik < eig.NK; ik++ {
			ib1 := eig.NBand - 1
			for ib := 0; ib < eig.NBand; ib++ {
				if eig.At(ik, ib, is) >= emin {
					ib1 = ib
					break
				}
			}

			ib2 := eig.NBand - 1
			for ib := ib1; ib < eig.NBand; ib++ {
				if eig.At(ik, ib, is) > emax {
					ib2 = ib - 1
					break
				}
			}

			if ib1 > ib2 {
				return nil, &EmptyWindowError{KPoint: ik, Spin: is}
			}

			win.ranges[ik*win.NSpin+is] = IndexRange{First: ib1, Last: ib2}

			if ib1 < win.IBMin {
				win.IBMin = ib1
			}
			if ib2 > win.IBMax {
				win.IBMax = ib2
			}
		}
	}

	return win, nil
}
