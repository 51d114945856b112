// Package generate produces random loadouts and encounter picks from the
// catalog pools. Generation is pure given a seed; the session controller
// never depends on it.
package generate

import (
	"fmt"
	"math/rand"

	"github.com/stsarena/arena/internal/catalog"
	"github.com/stsarena/arena/internal/models"
)

// Generator holds the seeded source. Not safe for concurrent use.
type Generator struct {
	rng *rand.Rand
}

// New creates a Generator from a seed. Equal seeds generate equal loadouts.
func New(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Loadout builds a random loadout for the class: 15-25 cards from the class
// pool with a 40% upgrade chance each, the starter relic plus 4-9 distinct
// extras, and up to a beltful of potions at full class HP. A class the
// catalog does not know is rejected with a ConfigurationError.
func (g *Generator) Loadout(class models.CharacterClass) (*models.Loadout, error) {
	pool := catalog.CardPool(class)
	if len(pool) == 0 {
		return nil, &catalog.ConfigurationError{UnknownClass: class}
	}

	deckSize := catalog.MinDeckSize + g.rng.Intn(catalog.MaxDeckSize-catalog.MinDeckSize+1)
	deck := make([]models.CardSpec, 0, deckSize)
	for i := 0; i < deckSize; i++ {
		card := models.CardSpec{ID: pool[g.rng.Intn(len(pool))]}
		if g.rng.Float64() < catalog.UpgradeChance {
			card.Upgrades = 1
		}
		deck = append(deck, card)
	}

	relicCount := catalog.MinRelics + g.rng.Intn(catalog.MaxRelics-catalog.MinRelics+1)
	relics := make([]models.RelicSpec, 0, relicCount)
	relics = append(relics, models.RelicSpec{ID: catalog.StarterRelic(class), Counter: -1})
	relicPool := append([]string(nil), catalog.RelicPool(class)...)
	g.rng.Shuffle(len(relicPool), func(i, j int) {
		relicPool[i], relicPool[j] = relicPool[j], relicPool[i]
	})
	for _, id := range relicPool[:relicCount-1] {
		relics = append(relics, models.RelicSpec{ID: id, Counter: -1})
	}

	const potionSlots = 3
	potionPool := catalog.PotionPool()
	potions := make([]string, 0, potionSlots)
	for i := 0; i < g.rng.Intn(potionSlots+1); i++ {
		potions = append(potions, potionPool[g.rng.Intn(len(potionPool))])
	}

	hp := catalog.BaseMaxHP(class)
	return &models.Loadout{
		Name:           fmt.Sprintf("Random %s %04d", class, g.rng.Intn(10000)),
		CharacterClass: class,
		MaxHP:          hp,
		CurrentHP:      hp,
		Deck:           deck,
		Relics:         relics,
		Potions:        potions,
		PotionSlots:    potionSlots,
	}, nil
}

// Class picks a random playable class.
func (g *Generator) Class() models.CharacterClass {
	return models.AllClasses[g.rng.Intn(len(models.AllClasses))]
}

// Encounter picks a random encounter. Act 0 means any act; an empty kind
// means any kind.
func (g *Generator) Encounter(act int, kind catalog.EncounterKind) (string, error) {
	var candidates []catalog.Encounter
	for _, e := range catalog.Encounters {
		if act != 0 && e.Act != act {
			continue
		}
		if kind != "" && e.Kind != kind {
			continue
		}
		candidates = append(candidates, e)
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("no encounters for act %d kind %q", act, kind)
	}
	return candidates[g.rng.Intn(len(candidates))].ID, nil
}
