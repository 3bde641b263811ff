package nav

import "podfleet/grid"

// MaxCandidates is the slot count of a fixed move buffer.
const MaxCandidates = 3

// Moves is the fixed-size form of a candidate list. Unused slots hold grid.Sentinel.
type Moves [MaxCandidates]grid.Pos

// Fixed packs a candidate list into a Moves buffer.
func Fixed(candidates []grid.Pos) Moves {
	var m Moves
	for i := range m {
		if i < len(candidates) {
			m[i] = candidates[i]
		} else {
			m[i] = grid.Sentinel
		}
	}
	return m
}
