// Package projectors implements projector shells, block matrix mapping and
// Löwdin orthogonalization of projector groups.
package projectors

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/bandproj/bandproj/pkg/bands"
	"github.com/bandproj/bandproj/pkg/types"
)

// Shell owns the projector coefficients of a set of equivalent atomic sites.
//
// Raw coefficients are indexed (site, spin, k-point, orbital, band) and span
// the full band range. After SelectProjectors only the energy-window slice
// is retained, padded with zeros up to the window's uniform width.
type Shell struct {
	// Index is the position of the shell in the configuration.
	Index int
	// NOrb is the orbital count (nlm) of the shell.
	NOrb int
	// Sites lists the lattice site indices belonging to the shell.
	Sites []int

	NSpin int
	NK    int
	NBand int

	// raw[site][spin][k] is an NOrb x NBand coefficient matrix.
	raw [][][]*mat.CDense
	// win[site][spin][k] is an NOrb x NBMax windowed coefficient matrix,
	// populated by SelectProjectors.
	win [][][]*mat.CDense

	window *bands.Window
}

// NewShell allocates a shell with zeroed raw projector storage.
func NewShell(cfg types.ShellConfig, index, nspin, nk, nband int) *Shell {
	s := &Shell{
		Index: index,
		NOrb:  cfg.NOrb,
		Sites: append([]int(nil), cfg.Sites...),
		NSpin: nspin,
		NK:    nk,
		NBand: nband,
	}
	s.raw = allocMatrices(s.NSites(), nspin, nk, s.NOrb, nband)
	return s
}

func allocMatrices(nsites, nspin, nk, rows, cols int) [][][]*mat.CDense {
	out := make([][][]*mat.CDense, nsites)
	for ion := range out {
		out[ion] = make([][]*mat.CDense, nspin)
		for is := range out[ion] {
			out[ion][is] = make([]*mat.CDense, nk)
			for ik := range out[ion][is] {
				out[ion][is][ik] = mat.NewCDense(rows, cols, nil)
			}
		}
	}
	return out
}

// NSites returns the number of sites in the shell.
func (s *Shell) NSites() int {
	return len(s.Sites)
}

// SetRaw stores a raw projector coefficient for (site, spin, k, orbital, band).
func (s *Shell) SetRaw(site, is, ik, m, ib int, v complex128) {
	s.raw[site][is][ik].Set(m, ib, v)
}

// Raw returns the full-band coefficient matrix for (site, spin, k).
func (s *Shell) Raw(site, is, ik int) *mat.CDense {
	return s.raw[site][is][ik]
}

// Win returns the windowed coefficient matrix for (site, spin, k).
// SelectProjectors must have been called first.
func (s *Shell) Win(site, is, ik int) *mat.CDense {
	if s.win == nil {
		panic(fmt.Sprintf("projectors: shell %d windowed storage accessed before SelectProjectors", s.Index))
	}
	return s.win[site][is][ik]
}

// Window returns the band window the shell was restricted to, or nil.
func (s *Shell) Window() *bands.Window {
	return s.window
}

// SelectProjectors restricts the shell's storage to the band window.
//
// For every (site, spin, k) the bands [First, Last] of that pair are copied
// into columns [0, nb) of an NOrb x NBMax matrix; columns beyond the true
// band count stay zero.
func (s *Shell) SelectProjectors(win *bands.Window) {
	if win.NK != s.NK || win.NSpin != s.NSpin {
		panic(fmt.Sprintf("projectors: window dimensions (%d k-points, %d spins) do not match shell %d (%d, %d)",
			win.NK, win.NSpin, s.Index, s.NK, s.NSpin))
	}

	nbMax := win.NBMax()
	s.win = allocMatrices(s.NSites(), s.NSpin, s.NK, s.NOrb, nbMax)
	s.window = win

	for ion := 0; ion < s.NSites(); ion++ {
		for is := 0; is < s.NSpin; is++ {
			for ik := 0; ik < s.NK; ik++ {
				r := win.At(ik, is)
				src := s.raw[ion][is][ik]
				dst := s.win[ion][is][ik]
				for m := 0; m < s.NOrb; m++ {
					for j := 0; j < r.Len(); j++ {
						dst.Set(m, j, src.At(m, r.First+j))
					}
				}
			}
		}
	}
}
