package projectors

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/bandproj/bandproj/pkg/bands"
	"github.com/bandproj/bandproj/pkg/logger"
	"github.com/bandproj/bandproj/pkg/types"
)

// Group is a container of projectors defined within an energy window.
//
// Construction selects the band window, restricts the participating shells'
// storage to it, and records the window metadata. The group references the
// shells, it does not own them: orthogonalization writes results back into
// shell storage.
type Group struct {
	Name string

	cfg    types.GroupConfig
	shells []*Shell
	win    *bands.Window
	log    logger.Logger

	nelect     float64
	nelectDone bool
}

// NewGroup constructs a projector group from its configuration, the full
// shell set and the band eigenvalues. Band selection runs once here and
// every participating shell is restricted to the resulting window.
func NewGroup(cfg types.GroupConfig, name string, shells []*Shell, eig *bands.Eigenvalues, log logger.Logger) (*Group, error) {
	for _, ish := range cfg.Shells {
		if ish < 0 || ish >= len(shells) {
			return nil, fmt.Errorf("group %s: shell index %d out of range (%d shells)", name, ish, len(shells))
		}
		if shells[ish].NK != eig.NK || shells[ish].NSpin != eig.NSpin {
			return nil, fmt.Errorf("group %s: shell %d dimensions (%d k-points, %d spins) do not match eigenvalues (%d, %d)",
				name, ish, shells[ish].NK, shells[ish].NSpin, eig.NK, eig.NSpin)
		}
	}

	win, err := bands.SelectBands(eig, cfg.Window.EMin, cfg.Window.EMax)
	if err != nil {
		return nil, fmt.Errorf("group %s: %w", name, err)
	}

	g := &Group{
		Name:   name,
		cfg:    cfg,
		shells: shells,
		win:    win,
		log:    log.WithGroup(name),
	}

	for _, ish := range cfg.Shells {
		shells[ish].SelectProjectors(win)
	}

	g.log.Debug("band window selected",
		logger.WithField("ib_min", win.IBMin),
		logger.WithField("ib_max", win.IBMax),
		logger.WithField("nb_max", win.NBMax()))

	return g, nil
}

// Window returns the group's band index window.
func (g *Group) Window() *bands.Window {
	return g.win
}

// ShellIndices returns the indices of the shells participating in the group.
func (g *Group) ShellIndices() []int {
	return g.cfg.Shells
}

// Orthogonalize orthonormalizes the group's projectors in place.
//
// The strategy follows the block-map construction: per (spin, k-point) the
// (shell, site) sub-blocks of each map are gathered into a scratch block
// matrix, the filled sub-block is orthogonalized, and the result is
// scattered back into shell storage through the same map. The scratch matrix
// is re-zeroed before every map so no stale entries from a previous
// iteration survive.
//
// A no-op when normalization is disabled for the group.
func (g *Group) Orthogonalize() error {
	if !g.cfg.Normalize {
		return nil
	}

	blockMaps, ndim := BuildBlockMaps(g.shells, g.cfg.Shells, g.cfg.NormIon)
	nbMax := g.win.NBMax()
	scratch := mat.NewCDense(ndim, nbMax, nil)

	for is := 0; is < g.win.NSpin; is++ {
		for ik := 0; ik < g.win.NK; ik++ {
			nb := g.win.At(ik, is).Len()
			for ibl, blockMap := range blockMaps {
				scratch.Zero()
				iblMax := 0
				for _, block := range blockMap {
					shell := g.shells[block.Shell]
					src := shell.Win(block.Site, is, ik)
					for m := 0; m < block.NOrb(); m++ {
						for j := 0; j < nb; j++ {
							scratch.Set(block.RowStart+m, j, src.At(m, j))
						}
					}
					iblMax = block.RowEnd
				}

				sub := scratch.Slice(0, iblMax, 0, nb).(*mat.CDense)
				pOrtho, _, _, err := OrthogonalizeProjectorMatrix(sub)
				if err != nil {
					var ill *IllConditionedProjectorError
					if errors.As(err, &ill) {
						ill.KPoint = ik
						ill.Spin = is
						ill.Block = ibl
					}
					return fmt.Errorf("group %s: %w", g.Name, err)
				}

				for _, block := range blockMap {
					shell := g.shells[block.Shell]
					dst := shell.Win(block.Site, is, ik)
					for m := 0; m < block.NOrb(); m++ {
						for j := 0; j < nb; j++ {
							dst.Set(m, j, pOrtho.At(block.RowStart+m, j))
						}
					}
				}
			}
		}
	}

	g.log.Debug("projectors orthogonalized",
		logger.WithField("normion", g.cfg.NormIon),
		logger.WithField("blocks", len(blockMaps)))

	return nil
}

// NelectWindow computes the total number of electrons inside the group's
// band window: occupations restricted to each (k, spin) index range, weighted
// by the k-point weight and a spin degeneracy factor of 2 for
// spin-unpolarized data. The result is cached on the group.
func (g *Group) NelectWindow(occ *bands.Occupations, kweights []float64) (float64, error) {
	if g.nelectDone {
		return g.nelect, nil
	}
	if occ.NK != g.win.NK || occ.NSpin != g.win.NSpin {
		return 0, fmt.Errorf("group %s: occupation dimensions (%d k-points, %d spins) do not match window (%d, %d)",
			g.Name, occ.NK, occ.NSpin, g.win.NK, g.win.NSpin)
	}
	if len(kweights) != g.win.NK {
		return 0, fmt.Errorf("group %s: %d k-weights for %d k-points", g.Name, len(kweights), g.win.NK)
	}

	rspin := 1.0
	if g.win.NSpin == 1 {
		rspin = 2.0
	}

	nelect := 0.0
	for is := 0; is < g.win.NSpin; is++ {
		for ik := 0; ik < g.win.NK; ik++ {
			r := g.win.At(ik, is)
			for ib := r.First; ib <= r.Last; ib++ {
				nelect += occ.At(is, ik, ib) * kweights[ik] * rspin
			}
		}
	}

	g.nelect = nelect
	g.nelectDone = true
	return nelect, nil
}
