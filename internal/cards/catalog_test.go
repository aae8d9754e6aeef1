// internal/cards/catalog_test.go
package cards

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultCatalogShape(t *testing.T) {
	c := Default()
	for rt := 0; rt < 5; rt++ {
		n := c.Count(rt)
		assert.Positive(t, n, "category %d", rt)
		for i := 0; i < n; i++ {
			r := c.Rarity(rt, i)
			assert.GreaterOrEqual(t, r, 0)
			assert.Less(t, r, NumRarities)
		}
	}
}

func TestCatalogBoundsAreSafe(t *testing.T) {
	c := Default()
	assert.Zero(t, c.Count(-1))
	assert.Zero(t, c.Count(99))
	assert.Zero(t, c.Rarity(-1, 0))
	assert.Zero(t, c.Rarity(0, -1))
	assert.Zero(t, c.Rarity(0, 1<<20))
}
