package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stsarena/arena/internal/models"
)

func win(id string, damage int, potions ...string) *models.RunRecord {
	return &models.RunRecord{ID: id, Outcome: models.OutcomeWin, DamageTaken: damage, PotionsUsed: potions}
}

func loss(id string, damage int) *models.RunRecord {
	return &models.RunRecord{ID: id, Outcome: models.OutcomeLoss, DamageTaken: damage}
}

func ids(runs []*models.RunRecord) []string {
	out := make([]string, len(runs))
	for i, r := range runs {
		out[i] = r.ID
	}
	return out
}

func TestParetoVictoriesFrontier(t *testing.T) {
	runs := []*models.RunRecord{
		win("a", 10),                   // frontier: least damage, no potions
		win("b", 5, "Fire Potion", "Block Potion"), // frontier: less damage, more potions
		win("c", 12, "Fire Potion"),    // dominated by a (more damage, more potions)
		win("d", 10, "Fire Potion"),    // dominated by a
		loss("e", 0),                   // losses never appear
	}

	frontier := ParetoVictories(runs)
	assert.Equal(t, []string{"b", "a"}, ids(frontier))
}

func TestParetoKeepsEquivalentWins(t *testing.T) {
	runs := []*models.RunRecord{
		win("a", 8, "Fire Potion"),
		win("b", 8, "Block Potion"), // same cost on both axes: neither dominates
	}
	assert.Len(t, ParetoVictories(runs), 2)
}

func TestParetoNoWins(t *testing.T) {
	runs := []*models.RunRecord{loss("a", 3), loss("b", 0)}
	assert.Empty(t, ParetoVictories(runs))
	assert.Nil(t, BestVictory(runs))
}

func TestBestVictory(t *testing.T) {
	runs := []*models.RunRecord{
		win("a", 10),
		win("b", 0, "Fire Potion"),
	}
	best := BestVictory(runs)
	require.NotNil(t, best)
	assert.Equal(t, "b", best.ID)
}

func TestPerfectRate(t *testing.T) {
	runs := []*models.RunRecord{
		{Outcome: models.OutcomeWin, Perfect: true},
		{Outcome: models.OutcomeWin},
		{Outcome: models.OutcomeLoss},
	}
	assert.InDelta(t, 0.5, PerfectRate(runs), 1e-9)
	assert.Zero(t, PerfectRate(nil))
}
