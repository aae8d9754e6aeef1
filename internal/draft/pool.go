// internal/draft/pool.go
package draft

import (
	"math/rand"
	"slices"

	"github.com/civbuilder/civdraft/internal/cards"
	"github.com/civbuilder/civdraft/internal/models"
)

// minCardsOnTable is the threshold below which the table is automatically
// topped up after a pick.
const minCardsOnTable = 3

// HandSize returns how many cards the table holds for a category. The civ
// bonus round is dealt large enough to survive Rounds*Slots picks without a
// reshuffle; later categories are single-round and smaller. Presets may
// override both via their Cards field.
func HandSize(preset models.Preset, roundType int) int {
	if len(preset.Cards) == models.NumRoundTypes && preset.Cards[roundType] > 0 {
		return preset.Cards[roundType]
	}
	if roundType == models.RoundCivBonus {
		return (preset.Rounds-1)*preset.Slots + 30
	}
	return 2*preset.Slots + 20
}

// rarityAllowed reports whether the preset admits a card into the pool. A
// preset with no rarity configuration admits everything.
func rarityAllowed(preset models.Preset, catalog cards.Catalog, roundType, card int) bool {
	if len(preset.Rarities) == 0 {
		return true
	}
	r := catalog.Rarity(roundType, card)
	return r < len(preset.Rarities) && preset.Rarities[r]
}

// BuildDecks populates every category deck with the cards the preset's
// rarity configuration admits. Called once when picking begins.
func BuildDecks(d *models.Draft, catalog cards.Catalog) {
	d.Gamestate.Deck = make([][]int, models.NumRoundTypes)
	for rt := 0; rt < models.NumRoundTypes; rt++ {
		deck := []int{}
		for c := 0; c < catalog.Count(rt); c++ {
			if rarityAllowed(d.Preset, catalog, rt, c) {
				deck = append(deck, c)
			}
		}
		d.Gamestate.Deck[rt] = deck
	}
}

// rebuildDeck regenerates a category's deck from every admitted card that no
// player owns and that is not already on the table. This is the reshuffle
// path for when the deck runs dry mid-round.
func rebuildDeck(d *models.Draft, catalog cards.Catalog, roundType int) []int {
	deck := []int{}
	for c := 0; c < catalog.Count(roundType); c++ {
		if !rarityAllowed(d.Preset, catalog, roundType, c) {
			continue
		}
		owned := false
		for _, p := range d.Players {
			if slices.Contains(p.Bonuses[roundType], c) {
				owned = true
				break
			}
		}
		if owned || slices.Contains(d.Gamestate.Cards, c) {
			continue
		}
		deck = append(deck, c)
	}
	return deck
}

// Refill tops the table back up to the hand size for the current round type,
// drawing uniformly from the category deck and rebuilding it from undrafted
// cards when it runs dry. Refilled table indices are recorded in
// gamestate.highlighted. Already-drawn cards are never reintroduced.
func Refill(d *models.Draft, catalog cards.Catalog, rng *rand.Rand) {
	rt := RoundType(d.Preset, d.Gamestate.Turn)
	target := HandSize(d.Preset, rt)
	d.Gamestate.Highlighted = []int{}

	for len(d.Gamestate.Cards) < target {
		if len(d.Gamestate.Deck[rt]) == 0 {
			d.Gamestate.Deck[rt] = rebuildDeck(d, catalog, rt)
			if len(d.Gamestate.Deck[rt]) == 0 {
				break // category genuinely exhausted
			}
		}
		i := rng.Intn(len(d.Gamestate.Deck[rt]))
		card := d.Gamestate.Deck[rt][i]
		d.Gamestate.Deck[rt] = slices.Delete(d.Gamestate.Deck[rt], i, i+1)
		d.Gamestate.Highlighted = append(d.Gamestate.Highlighted, len(d.Gamestate.Cards))
		d.Gamestate.Cards = append(d.Gamestate.Cards, card)
	}
}

// Clear empties the table without touching the decks. The host pairs this
// with a refill to force a fresh offer.
func Clear(d *models.Draft) {
	d.Gamestate.Cards = []int{}
	d.Gamestate.Highlighted = []int{}
}
