package bands

import "fmt"

// WindowMismatchError indicates that the configured energy window does not
// intersect the band spectrum at all.
type WindowMismatchError struct {
	EMin, EMax  float64
	SpectrumMin float64
	SpectrumMax float64
}

func (e *WindowMismatchError) Error() string {
	return fmt.Sprintf("energy window [%g, %g] does not overlap band spectrum [%g, %g]",
		e.EMin, e.EMax, e.SpectrumMin, e.SpectrumMax)
}

// EmptyWindowError indicates that a specific (k-point, spin) pair has no
// bands inside the energy window.
type EmptyWindowError struct {
	KPoint int
	Spin   int
}

func (e *EmptyWindowError) Error() string {
	return fmt.Sprintf("no bands inside the energy window for k-point %d, spin %d", e.KPoint, e.Spin)
}
