package projectors

// BlockDescriptor places one (shell, site) projector sub-block inside a
// block matrix. Rows [RowStart, RowEnd) of the block matrix belong to the
// sub-block; RowEnd - RowStart equals the owning shell's orbital count.
type BlockDescriptor struct {
	RowStart int
	RowEnd   int
	Shell    int
	Site     int
}

// NOrb returns the row count of the sub-block.
func (d BlockDescriptor) NOrb() int {
	return d.RowEnd - d.RowStart
}

// BlockMap is an ordered set of descriptors whose row ranges tile one block
// matrix: disjoint, contiguous, summing to the matrix dimension.
type BlockMap []BlockDescriptor

// BuildBlockMaps generates the mapping from the (shell, site) projector
// sub-blocks of a group onto block matrices, one of which is orthogonalized
// at a time.
//
// With normion set, every site gets its own single-descriptor map and ndim
// is the largest orbital count among the participating shells. Otherwise a
// single map concatenates all (shell, site) pairs in shell order, site order
// within shell, and ndim is the total row count.
func BuildBlockMaps(shells []*Shell, shellIndices []int, normion bool) ([]BlockMap, int) {
	var blockMaps []BlockMap
	ndim := 0

	if normion {
		// Projectors for each site are mapped onto a separate block matrix
		for _, ish := range shellIndices {
			shell := shells[ish]
			if shell.NOrb > ndim {
				ndim = shell.NOrb
			}
			for ion := 0; ion < shell.NSites(); ion++ {
				blockMaps = append(blockMaps, BlockMap{{
					RowStart: 0,
					RowEnd:   shell.NOrb,
					Shell:    ish,
					Site:     ion,
				}})
			}
		}
		return blockMaps, ndim
	}

	// All projectors within the group are combined into one block matrix
	var blockMap BlockMap
	offset := 0
	for _, ish := range shellIndices {
		shell := shells[ish]
		for ion := 0; ion < shell.NSites(); ion++ {
			blockMap = append(blockMap, BlockDescriptor{
				RowStart: offset,
				RowEnd:   offset + shell.NOrb,
				Shell:    ish,
				Site:     ion,
			})
			offset += shell.NOrb
		}
	}
	ndim = offset

	return []BlockMap{blockMap}, ndim
}
