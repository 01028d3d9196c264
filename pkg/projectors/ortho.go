package projectors

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/cblas128"
	"gonum.org/v1/gonum/mat"
)

// overlapEigFloor is the relative tolerance below which an overlap eigenvalue
// counts as non-positive. The embedding computes eigenvalues up to rounding
// error, so an exactly singular overlap can surface as a tiny value of either
// sign.
const overlapEigFloor = 1e-13

// OrthogonalizeProjectorMatrix applies Löwdin symmetric orthogonalization to
// a rectangular projector matrix p of shape Nm x Nb (orbitals x bands).
//
// The overlap O = P Pᴴ is eigendecomposed and O^{-1/2} = V diag(1/sqrt(λ)) Vᴴ
// is applied to P. All overlap eigenvalues must be strictly positive; a
// non-positive eigenvalue yields an IllConditionedProjectorError. No
// regularization is applied — failure is the correct outcome for singular
// projectors.
//
// Returns the orthogonalized matrix, the overlap matrix and its eigenvalues
// in ascending order.
func OrthogonalizeProjectorMatrix(p *mat.CDense) (*mat.CDense, *mat.CDense, []float64, error) {
	// Overlap matrix O_{m m'} = sum_v P_{m v} P*_{m' v}
	overlap := mulC(blas.NoTrans, blas.ConjTrans, p, p)

	shalf, eig, err := invSqrtHermitian(overlap)
	if err != nil {
		return nil, nil, nil, err
	}

	// P~_{m v} = sum_{m'} [O^{-1/2}]_{m m'} P_{m' v}
	pOrtho := mulC(blas.NoTrans, blas.NoTrans, shalf, p)

	return pOrtho, overlap, eig, nil
}

// mulC returns op(a) op(b) for complex dense matrices. mat.CDense carries no
// matrix product, so the multiply goes through cblas128 on the raw storage.
func mulC(tA, tB blas.Transpose, a, b *mat.CDense) *mat.CDense {
	ra, ca := a.Dims()
	rb, cb := b.Dims()
	if tA != blas.NoTrans {
		ra, ca = ca, ra
	}
	if tB != blas.NoTrans {
		rb, cb = cb, rb
	}
	if ca != rb {
		panic(fmt.Sprintf("projectors: dimension mismatch in %dx%d * %dx%d product", ra, ca, rb, cb))
	}

	out := mat.NewCDense(ra, cb, nil)
	cblas128.Gemm(tA, tB, 1, a.RawCMatrix(), b.RawCMatrix(), 0, out.RawCMatrix())
	return out
}

// invSqrtHermitian computes the inverse square root of a Hermitian positive
// definite matrix together with its eigenvalues in ascending order.
//
// gonum's mat package has no complex Hermitian eigensolver, so the matrix
// O = A + iB is embedded as the real symmetric 2n x 2n matrix [[A, -B], [B, A]]
// whose spectrum is that of O with every eigenvalue doubled. f(O) commutes
// with the embedding, so O^{-1/2} is read back from the embedded inverse
// square root: the top-left block carries the real part, the bottom-left the
// imaginary part.
func invSqrtHermitian(o *mat.CDense) (*mat.CDense, []float64, error) {
	n, _ := o.Dims()
	n2 := 2 * n

	// Symmetrize while embedding: o is Hermitian only up to rounding, and
	// NewSymDense requires exactly symmetric data.
	data := make([]float64, n2*n2)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			a := (real(o.At(i, j)) + real(o.At(j, i))) / 2
			b := (imag(o.At(i, j)) - imag(o.At(j, i))) / 2
			data[i*n2+j] = a
			data[(i+n)*n2+j+n] = a
			data[i*n2+j+n] = -b
			data[(i+n)*n2+j] = b
		}
	}
	sym := mat.NewSymDense(n2, data)

	var es mat.EigenSym
	if !es.Factorize(sym, true) {
		return nil, nil, fmt.Errorf("projectors: overlap eigendecomposition failed to converge")
	}
	vals := es.Values(nil)

	// Ascending with pairwise doubling: entries 0, 2, ... are the overlap
	// eigenvalues.
	eig := make([]float64, n)
	for i := range eig {
		eig[i] = vals[2*i]
	}
	floor := overlapEigFloor * math.Max(eig[n-1], 1)
	if eig[0] <= floor {
		return nil, nil, &IllConditionedProjectorError{
			KPoint:     -1,
			Spin:       -1,
			Block:      -1,
			Eigenvalue: eig[0],
		}
	}

	var vecs mat.Dense
	es.VectorsTo(&vecs)

	// V diag(1/sqrt(λ)) Vᵀ on the embedding
	scaled := mat.NewDense(n2, n2, nil)
	for j := 0; j < n2; j++ {
		s := 1 / math.Sqrt(vals[j])
		for i := 0; i < n2; i++ {
			scaled.Set(i, j, vecs.At(i, j)*s)
		}
	}
	var m12 mat.Dense
	m12.Mul(scaled, vecs.T())

	shalf := mat.NewCDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			shalf.Set(i, j, complex(m12.At(i, j), m12.At(i+n, j)))
		}
	}

	return shalf, eig, nil
}
