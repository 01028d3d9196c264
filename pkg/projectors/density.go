package projectors

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/bandproj/bandproj/pkg/bands"
)

// DensityMatrix computes the k-summed local density matrix of a windowed
// shell, one NOrb x NOrb matrix per site:
//
//	D_{m m'} = sum_{s,k} w_k r_spin sum_b P_{m b} f_b P*_{m' b}
//
// with occupations f restricted to the group's band window. For orthonormal
// projectors and full occupation this reduces to a multiple of the identity,
// which makes it a useful sanity check on the orthogonalization. Pure
// reduction, no mutation.
func (g *Group) DensityMatrix(ish int, occ *bands.Occupations, kweights []float64) ([]*mat.CDense, error) {
	member := false
	for _, idx := range g.cfg.Shells {
		if idx == ish {
			member = true
			break
		}
	}
	if !member {
		return nil, fmt.Errorf("group %s: shell %d does not participate in the group", g.Name, ish)
	}
	if occ.NK != g.win.NK || occ.NSpin != g.win.NSpin {
		return nil, fmt.Errorf("group %s: occupation dimensions (%d k-points, %d spins) do not match window (%d, %d)",
			g.Name, occ.NK, occ.NSpin, g.win.NK, g.win.NSpin)
	}
	if len(kweights) != g.win.NK {
		return nil, fmt.Errorf("group %s: %d k-weights for %d k-points", g.Name, len(kweights), g.win.NK)
	}

	shell := g.shells[ish]
	rspin := 1.0
	if g.win.NSpin == 1 {
		rspin = 2.0
	}

	out := make([]*mat.CDense, shell.NSites())
	for ion := range out {
		dm := mat.NewCDense(shell.NOrb, shell.NOrb, nil)
		for is := 0; is < g.win.NSpin; is++ {
			for ik := 0; ik < g.win.NK; ik++ {
				r := g.win.At(ik, is)
				p := shell.Win(ion, is, ik)
				w := complex(kweights[ik]*rspin, 0)
				for m := 0; m < shell.NOrb; m++ {
					for mp := 0; mp < shell.NOrb; mp++ {
						acc := complex(0, 0)
						for j := 0; j < r.Len(); j++ {
							f := complex(occ.At(is, ik, r.First+j), 0)
							pc := p.At(mp, j)
							acc += p.At(m, j) * f * complex(real(pc), -imag(pc))
						}
						dm.Set(m, mp, dm.At(m, mp)+w*acc)
					}
				}
			}
		}
		out[ion] = dm
	}

	return out, nil
}
