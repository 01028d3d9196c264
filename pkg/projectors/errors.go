package projectors

import "fmt"

// IllConditionedProjectorError indicates a non-positive eigenvalue of the
// overlap matrix: the projectors of the block are linearly dependent or the
// energy window is too narrow, and orthogonalization is ill-defined.
//
// KPoint, Spin and Block are filled in by group orchestration; a value of -1
// means the context is unknown (the error came from a bare matrix).
type IllConditionedProjectorError struct {
	KPoint     int
	Spin       int
	Block      int
	Eigenvalue float64
}

func (e *IllConditionedProjectorError) Error() string {
	if e.KPoint < 0 {
		return fmt.Sprintf("overlap matrix has non-positive eigenvalue %g: projectors are ill-defined", e.Eigenvalue)
	}
	return fmt.Sprintf("overlap matrix has non-positive eigenvalue %g at k-point %d, spin %d, block %d: projectors are ill-defined",
		e.Eigenvalue, e.KPoint, e.Spin, e.Block)
}
