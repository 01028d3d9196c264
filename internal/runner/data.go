package runner

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/bandproj/bandproj/pkg/bands"
	"github.com/bandproj/bandproj/pkg/projectors"
	"github.com/bandproj/bandproj/pkg/types"
)

// BandData is the in-memory form of a band-structure data file: eigenvalues,
// occupations, k-point weights and raw projector shells.
type BandData struct {
	Eigenvalues *bands.Eigenvalues
	Occupations *bands.Occupations
	KWeights    []float64
	Shells      []*projectors.Shell
}

// dataFile is the on-disk layout. Arrays are flat row-major buffers with the
// axis order spelled out per field; complex coefficients interleave real and
// imaginary parts.
type dataFile struct {
	NK    int `json:"nk"`
	NBand int `json:"nband"`
	NSpin int `json:"nspin"`

	// Eigenvalues has axis order (k, band, spin).
	Eigenvalues []float64 `json:"eigenvalues"`
	// Occupations has axis order (spin, k, band).
	Occupations []float64 `json:"occupations"`
	KWeights    []float64 `json:"kweights"`

	// Projectors holds one buffer per configured shell with axis order
	// (site, spin, k, orbital, band) and interleaved re/im pairs.
	Projectors [][]float64 `json:"projectors"`
}

// LoadBandData reads a band-structure data file and builds the projector
// shells described by the configuration.
func LoadBandData(path string, shellCfgs []types.ShellConfig) (*BandData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}

	var df dataFile
	if err := json.Unmarshal(raw, &df); err != nil {
		return nil, fmt.Errorf("failed to parse data file: %w", err)
	}

	if df.NK < 1 || df.NBand < 1 || df.NSpin < 1 {
		return nil, fmt.Errorf("data file has invalid dimensions (nk=%d, nband=%d, nspin=%d)",
			df.NK, df.NBand, df.NSpin)
	}
	if want := df.NK * df.NBand * df.NSpin; len(df.Eigenvalues) != want {
		return nil, fmt.Errorf("eigenvalue buffer has %d entries, want %d", len(df.Eigenvalues), want)
	}
	if want := df.NSpin * df.NK * df.NBand; len(df.Occupations) != want {
		return nil, fmt.Errorf("occupation buffer has %d entries, want %d", len(df.Occupations), want)
	}
	if len(df.KWeights) != df.NK {
		return nil, fmt.Errorf("k-weight buffer has %d entries, want %d", len(df.KWeights), df.NK)
	}
	if len(df.Projectors) != len(shellCfgs) {
		return nil, fmt.Errorf("data file has %d projector buffers for %d configured shells",
			len(df.Projectors), len(shellCfgs))
	}

	data := &BandData{
		Eigenvalues: bands.NewEigenvalues(df.NK, df.NBand, df.NSpin),
		Occupations: bands.NewOccupations(df.NSpin, df.NK, df.NBand),
		KWeights:    append([]float64(nil), df.KWeights...),
	}

	pos := 0
	for ik := 0; ik < df.NK; ik++ {
		for ib := 0; ib < df.NBand; ib++ {
			for is := 0; is < df.NSpin; is++ {
				data.Eigenvalues.Set(ik, ib, is, df.Eigenvalues[pos])
				pos++
			}
		}
	}

	pos = 0
	for is := 0; is < df.NSpin; is++ {
		for ik := 0; ik < df.NK; ik++ {
			for ib := 0; ib < df.NBand; ib++ {
				data.Occupations.Set(is, ik, ib, df.Occupations[pos])
				pos++
			}
		}
	}

	for ish, cfg := range shellCfgs {
		shell := projectors.NewShell(cfg, ish, df.NSpin, df.NK, df.NBand)
		buf := df.Projectors[ish]
		want := cfg.NSites() * df.NSpin * df.NK * cfg.NOrb * df.NBand * 2
		if len(buf) != want {
			return nil, fmt.Errorf("shell %d projector buffer has %d entries, want %d", ish, len(buf), want)
		}

		pos = 0
		for ion := 0; ion < cfg.NSites(); ion++ {
			for is := 0; is < df.NSpin; is++ {
				for ik := 0; ik < df.NK; ik++ {
					for m := 0; m < cfg.NOrb; m++ {
						for ib := 0; ib < df.NBand; ib++ {
							shell.SetRaw(ion, is, ik, m, ib, complex(buf[pos], buf[pos+1]))
							pos += 2
						}
					}
				}
			}
		}
		data.Shells = append(data.Shells, shell)
	}

	return data, nil
}
