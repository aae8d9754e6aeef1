// internal/draft/turn_order.go
package draft

import "github.com/civbuilder/civdraft/internal/models"

// RoundType returns the bonus category being drafted at the given turn.
// Category 0 (civ bonuses) runs preset.Rounds rounds; every category after
// that runs a single round, so the category advances once per Slots turns
// after the base offset is consumed.
func RoundType(preset models.Preset, turn int) int {
	rt := turn/preset.Slots - (preset.Rounds - 1)
	if rt < 0 {
		rt = 0
	}
	return rt
}

// CurrentSeat returns the seat index that picks at the given turn.
//
// Snake drafts reverse the seating direction every Slots turns regardless of
// category. The legacy policy instead reverses only the castle-tech and
// team-bonus categories.
func CurrentSeat(preset models.Preset, order []int, turn int) int {
	n := preset.Slots
	pos := turn % n
	if preset.SnakeDraft {
		if (turn/n)%2 == 1 {
			pos = n - 1 - pos
		}
	} else {
		rt := RoundType(preset, turn)
		if rt == models.RoundCastleTech || rt == models.RoundTeamBonus {
			pos = n - 1 - pos
		}
	}
	return order[pos]
}

// TotalTurns is the number of picks in a full draft: Rounds rounds of civ
// bonuses plus one round for each of the four remaining categories.
func TotalTurns(preset models.Preset) int {
	return (preset.Rounds + models.NumRoundTypes - 1) * preset.Slots
}

// LastTurnOfRound reports whether the given turn is the final seat of its
// round, i.e. the table should be redealt (or the draft ended) after it.
func LastTurnOfRound(preset models.Preset, turn int) bool {
	return turn%preset.Slots == preset.Slots-1
}
