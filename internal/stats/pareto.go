// Package stats computes aggregate views over run history that SQL does not
// express cleanly, chiefly the Pareto frontier of victories.
package stats

import (
	"sort"

	"github.com/samber/lo"

	"github.com/stsarena/arena/internal/models"
)

// ParetoVictories returns the wins not dominated by any other win, jointly
// minimizing damage taken and potions used. A win dominates another when it
// is no worse on both axes and strictly better on at least one. The result
// is sorted by damage taken, then potion count.
func ParetoVictories(runs []*models.RunRecord) []*models.RunRecord {
	wins := lo.Filter(runs, func(r *models.RunRecord, _ int) bool {
		return r.Outcome == models.OutcomeWin
	})

	frontier := lo.Filter(wins, func(r *models.RunRecord, _ int) bool {
		return !lo.SomeBy(wins, func(other *models.RunRecord) bool {
			return dominates(other, r)
		})
	})

	sort.Slice(frontier, func(i, j int) bool {
		if frontier[i].DamageTaken != frontier[j].DamageTaken {
			return frontier[i].DamageTaken < frontier[j].DamageTaken
		}
		return len(frontier[i].PotionsUsed) < len(frontier[j].PotionsUsed)
	})
	return frontier
}

func dominates(a, b *models.RunRecord) bool {
	if a == b {
		return false
	}
	if a.DamageTaken > b.DamageTaken || len(a.PotionsUsed) > len(b.PotionsUsed) {
		return false
	}
	return a.DamageTaken < b.DamageTaken || len(a.PotionsUsed) < len(b.PotionsUsed)
}

// BestVictory returns the single strongest win on the frontier: least
// damage taken, potions as tiebreaker. Nil when there are no wins.
func BestVictory(runs []*models.RunRecord) *models.RunRecord {
	frontier := ParetoVictories(runs)
	if len(frontier) == 0 {
		return nil
	}
	return frontier[0]
}

// PerfectRate returns the share of wins that were perfect, 0 when there are
// no wins.
func PerfectRate(runs []*models.RunRecord) float64 {
	wins := lo.Filter(runs, func(r *models.RunRecord, _ int) bool {
		return r.Outcome == models.OutcomeWin
	})
	if len(wins) == 0 {
		return 0
	}
	perfect := lo.CountBy(wins, func(r *models.RunRecord) bool { return r.Perfect })
	return float64(perfect) / float64(len(wins))
}
