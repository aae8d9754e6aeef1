// internal/cards/catalog.go
package cards

// Catalog describes the shape of the draftable card pool: how many cards
// exist per round type category and which rarity tier each card belongs to.
// The real card text, effects and icons live in the static reference tables
// owned by the mod builder; the draft engine only needs ids and rarities.
type Catalog interface {
	// Count returns the number of cards in a category.
	Count(roundType int) int
	// Rarity returns the rarity tier index of a card within a category.
	Rarity(roundType, card int) int
}

// NumRarities is the number of rarity tiers a preset can toggle.
const NumRarities = 4

// StaticCatalog is a Catalog backed by fixed tables.
type StaticCatalog struct {
	Counts   []int
	Rarities [][]int // Rarities[cat][card]
}

func (c *StaticCatalog) Count(roundType int) int {
	if roundType < 0 || roundType >= len(c.Counts) {
		return 0
	}
	return c.Counts[roundType]
}

func (c *StaticCatalog) Rarity(roundType, card int) int {
	if roundType < 0 || roundType >= len(c.Rarities) {
		return 0
	}
	row := c.Rarities[roundType]
	if card < 0 || card >= len(row) {
		return 0
	}
	return row[card]
}

// defaultCounts mirrors the per-category bonus counts of the reference
// tables: civ bonuses, unique units, castle techs, imperial techs, team
// bonuses.
var defaultCounts = []int{120, 48, 52, 52, 44}

// Default returns the stock catalog. Rarity tiers cycle through the card
// ids, which keeps every tier populated in every category; deployments with
// the real reference tables substitute their own catalog.
func Default() *StaticCatalog {
	rarities := make([][]int, len(defaultCounts))
	for cat, n := range defaultCounts {
		row := make([]int, n)
		for i := range row {
			row[i] = i % NumRarities
		}
		rarities[cat] = row
	}
	return &StaticCatalog{Counts: defaultCounts, Rarities: rarities}
}
