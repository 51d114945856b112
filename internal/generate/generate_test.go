package generate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stsarena/arena/internal/catalog"
	"github.com/stsarena/arena/internal/models"
)

func TestLoadoutWithinBoundsAndValid(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		g := New(seed)
		for _, class := range models.AllClasses {
			l, err := g.Loadout(class)
			require.NoError(t, err)

			require.NoError(t, catalog.Validate(l), "seed %d class %s", seed, class)
			assert.GreaterOrEqual(t, len(l.Deck), catalog.MinDeckSize)
			assert.LessOrEqual(t, len(l.Deck), catalog.MaxDeckSize)
			assert.GreaterOrEqual(t, len(l.Relics), catalog.MinRelics)
			assert.LessOrEqual(t, len(l.Relics), catalog.MaxRelics)
			assert.Equal(t, catalog.BaseMaxHP(class), l.MaxHP)
			assert.Equal(t, l.MaxHP, l.CurrentHP)
		}
	}
}

func TestLoadoutRejectsUnknownClass(t *testing.T) {
	g := New(1)
	l, err := g.Loadout(models.CharacterClass("FOO"))
	require.Error(t, err)
	var cfgErr *catalog.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
	assert.Nil(t, l)
}

func TestLoadoutIncludesStarterRelicOnce(t *testing.T) {
	g := New(7)
	l, err := g.Loadout(models.ClassSilent)
	require.NoError(t, err)

	count := 0
	for _, r := range l.Relics {
		if r.ID == catalog.StarterRelic(models.ClassSilent) {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestLoadoutRelicsDistinct(t *testing.T) {
	g := New(42)
	l, err := g.Loadout(models.ClassDefect)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, r := range l.Relics {
		assert.False(t, seen[r.ID], "duplicate relic %s", r.ID)
		seen[r.ID] = true
	}
}

func TestDeterministicForEqualSeeds(t *testing.T) {
	a, err := New(99).Loadout(models.ClassWatcher)
	require.NoError(t, err)
	b, err := New(99).Loadout(models.ClassWatcher)
	require.NoError(t, err)
	assert.Equal(t, a.Deck, b.Deck)
	assert.Equal(t, a.Relics, b.Relics)
	assert.Equal(t, a.Potions, b.Potions)
}

func TestEncounterFilters(t *testing.T) {
	g := New(3)

	id, err := g.Encounter(1, catalog.KindBoss)
	require.NoError(t, err)
	e, ok := catalog.EncounterByID(id)
	require.True(t, ok)
	assert.Equal(t, 1, e.Act)
	assert.Equal(t, catalog.KindBoss, e.Kind)

	_, err = g.Encounter(9, "")
	assert.Error(t, err)
}

func TestEncounterAnyActAnyKind(t *testing.T) {
	g := New(5)
	id, err := g.Encounter(0, "")
	require.NoError(t, err)
	_, ok := catalog.EncounterByID(id)
	assert.True(t, ok)
}
