package projectors_test

import (
	"errors"
	"math"
	"math/cmplx"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/bandproj/bandproj/pkg/projectors"
)

const orthoTol = 1e-10

// randomProjector fills an nm x nb matrix with deterministic pseudo-random
// complex entries; such matrices are full rank for nm <= nb.
func randomProjector(nm, nb int, seed int64) *mat.CDense {
	rng := rand.New(rand.NewSource(seed))
	p := mat.NewCDense(nm, nb, nil)
	for i := 0; i < nm; i++ {
		for j := 0; j < nb; j++ {
			p.Set(i, j, complex(rng.NormFloat64(), rng.NormFloat64()))
		}
	}
	return p
}

// cprod multiplies two complex matrices entry by entry; the blocks in these
// tests are small enough that a plain triple loop is fine.
func cprod(a, b mat.CMatrix) *mat.CDense {
	ra, ca := a.Dims()
	rb, cb := b.Dims()
	if ca != rb {
		panic("cprod: dimension mismatch")
	}
	out := mat.NewCDense(ra, cb, nil)
	for i := 0; i < ra; i++ {
		for j := 0; j < cb; j++ {
			var acc complex128
			for k := 0; k < ca; k++ {
				acc += a.At(i, k) * b.At(k, j)
			}
			out.Set(i, j, acc)
		}
	}
	return out
}

// assertIdentity checks that a equals the identity within tolerance.
func assertIdentity(t *testing.T, a mat.CMatrix, tol float64) {
	t.Helper()

	r, c := a.Dims()
	if r != c {
		t.Fatalf("expected a square matrix, got %dx%d", r, c)
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			want := complex(0, 0)
			if i == j {
				want = complex(1, 0)
			}
			if d := cmplx.Abs(a.At(i, j) - want); d > tol {
				t.Errorf("entry (%d, %d) = %v deviates from identity by %g", i, j, a.At(i, j), d)
			}
		}
	}
}

func TestOrthogonalize_RoundTrip(t *testing.T) {
	p := randomProjector(3, 7, 1)

	pOrtho, overlap, eig, err := projectors.OrthogonalizeProjectorMatrix(p)
	if err != nil {
		t.Fatalf("orthogonalization failed: %v", err)
	}

	// P_ortho P_orthoᴴ must be the identity
	assertIdentity(t, cprod(pOrtho, pOrtho.H()), orthoTol)

	// Returned overlap is the overlap of the input
	want := cprod(p, p.H())
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if d := cmplx.Abs(overlap.At(i, j) - want.At(i, j)); d > orthoTol {
				t.Errorf("overlap entry (%d, %d) off by %g", i, j, d)
			}
		}
	}

	if len(eig) != 3 {
		t.Fatalf("expected 3 overlap eigenvalues, got %d", len(eig))
	}
	for i, ev := range eig {
		if ev <= 0 {
			t.Errorf("eigenvalue %d = %g is not positive", i, ev)
		}
		if i > 0 && eig[i-1] > ev {
			t.Errorf("eigenvalues not ascending at %d: %g > %g", i, eig[i-1], ev)
		}
	}
}

func TestOrthogonalize_SingleOrbital(t *testing.T) {
	p := mat.NewCDense(1, 4, []complex128{1 + 1i, 2, 0, -1i})

	pOrtho, _, _, err := projectors.OrthogonalizeProjectorMatrix(p)
	if err != nil {
		t.Fatalf("orthogonalization failed: %v", err)
	}

	norm := 0.0
	for j := 0; j < 4; j++ {
		norm += real(pOrtho.At(0, j) * cmplx.Conj(pOrtho.At(0, j)))
	}
	if math.Abs(norm-1) > orthoTol {
		t.Errorf("expected unit norm, got %g", norm)
	}
}

func TestOrthogonalize_PreservesRowSpan(t *testing.T) {
	// Löwdin orthogonalization is a basis transform within the row space:
	// the projection of each original row onto the orthonormal rows must
	// reconstruct it.
	p := randomProjector(2, 5, 7)

	pOrtho, _, _, err := projectors.OrthogonalizeProjectorMatrix(p)
	if err != nil {
		t.Fatalf("orthogonalization failed: %v", err)
	}

	// coeff = P P_orthoᴴ; residual = P - coeff P_ortho
	recon := cprod(cprod(p, pOrtho.H()), pOrtho)
	for i := 0; i < 2; i++ {
		for j := 0; j < 5; j++ {
			if d := cmplx.Abs(p.At(i, j) - recon.At(i, j)); d > 1e-9 {
				t.Errorf("row span not preserved at (%d, %d): residual %g", i, j, d)
			}
		}
	}
}

func TestOrthogonalize_ComplexOverlap(t *testing.T) {
	// Phased entries give the overlap a genuinely complex off-diagonal, so
	// the imaginary block of the symmetric embedding is exercised.
	p := mat.NewCDense(3, 5, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 5; j++ {
			r := 1 + float64(i+j)/4
			theta := float64(i*5+j) * 0.7
			p.Set(i, j, cmplx.Rect(r, theta))
		}
	}

	pOrtho, overlap, _, err := projectors.OrthogonalizeProjectorMatrix(p)
	if err != nil {
		t.Fatalf("orthogonalization failed: %v", err)
	}

	maxImag := 0.0
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if im := math.Abs(imag(overlap.At(i, j))); im > maxImag {
				maxImag = im
			}
		}
	}
	if maxImag < 0.1 {
		t.Fatalf("expected a complex overlap, largest imaginary part %g", maxImag)
	}

	assertIdentity(t, cprod(pOrtho, pOrtho.H()), orthoTol)
}

func TestOrthogonalize_DuplicateRowsIllConditioned(t *testing.T) {
	p := mat.NewCDense(2, 4, nil)
	for j := 0; j < 4; j++ {
		v := complex(float64(j+1), float64(-j))
		p.Set(0, j, v)
		p.Set(1, j, v) // identical row: singular overlap
	}

	_, _, _, err := projectors.OrthogonalizeProjectorMatrix(p)
	if err == nil {
		t.Fatal("expected an error for linearly dependent projectors")
	}

	var ill *projectors.IllConditionedProjectorError
	if !errors.As(err, &ill) {
		t.Fatalf("expected IllConditionedProjectorError, got %T: %v", err, err)
	}
	if ill.Eigenvalue > 1e-10 {
		t.Errorf("expected a non-positive reported eigenvalue, got %g", ill.Eigenvalue)
	}
}
