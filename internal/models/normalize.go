// internal/models/normalize.go
package models

// NormalizePlayer repairs missing or malformed optional structures on a
// player in place. It is applied at every boundary where untrusted data
// enters (store load, HTTP/ws payloads) so the rest of the engine can assume
// the invariants hold. Normalizing twice is a no-op.
func NormalizePlayer(p *Player) {
	if p == nil {
		return
	}
	if len(p.FlagPalette) != len(DefaultFlagPalette) {
		p.FlagPalette = append([]int(nil), DefaultFlagPalette...)
	}
	if len(p.Tree) != len(DefaultTree) {
		p.Tree = cloneTree(DefaultTree)
	}
	if len(p.Bonuses) != NumRoundTypes {
		normalized := make([][]int, NumRoundTypes)
		for i := range normalized {
			if i < len(p.Bonuses) && p.Bonuses[i] != nil {
				normalized[i] = p.Bonuses[i]
			} else {
				normalized[i] = []int{}
			}
		}
		p.Bonuses = normalized
	} else {
		for i, b := range p.Bonuses {
			if b == nil {
				p.Bonuses[i] = []int{}
			}
		}
	}
	if p.Ready != 0 && p.Ready != 1 {
		p.Ready = 1
	}
}

// NormalizeDraft applies NormalizePlayer to every seat and repairs the deck
// shape. Used after loading a persisted draft.
func NormalizeDraft(d *Draft) {
	if d == nil {
		return
	}
	for _, p := range d.Players {
		NormalizePlayer(p)
	}
	if len(d.Gamestate.Deck) != NumRoundTypes {
		deck := make([][]int, NumRoundTypes)
		for i := range deck {
			if i < len(d.Gamestate.Deck) && d.Gamestate.Deck[i] != nil {
				deck[i] = d.Gamestate.Deck[i]
			} else {
				deck[i] = []int{}
			}
		}
		d.Gamestate.Deck = deck
	}
	if d.Gamestate.Cards == nil {
		d.Gamestate.Cards = []int{}
	}
	if d.Gamestate.Highlighted == nil {
		d.Gamestate.Highlighted = []int{}
	}
}

func cloneTree(tree [][]int) [][]int {
	out := make([][]int, len(tree))
	for i, row := range tree {
		out[i] = append([]int(nil), row...)
	}
	return out
}

// NewPlayer returns an empty seat with all defaults applied.
func NewPlayer() *Player {
	p := &Player{
		Architecture: 1,
		Bonuses:      make([][]int, NumRoundTypes),
	}
	for i := range p.Bonuses {
		p.Bonuses[i] = []int{}
	}
	p.FlagPalette = append([]int(nil), DefaultFlagPalette...)
	p.Tree = cloneTree(DefaultTree)
	return p
}
