package store

import (
	"context"

	"github.com/stsarena/arena/internal/models"
)

// LoadoutEncounterStats aggregates runs for one loadout+encounter pair.
type LoadoutEncounterStats struct {
	LoadoutID      string
	LoadoutName    string
	CharacterClass models.CharacterClass
	EncounterID    string
	TotalRuns      int
	Wins           int
	Losses         int
	PerfectWins    int
}

// WinRate returns wins over total runs, 0 when there are no runs.
func (s *LoadoutEncounterStats) WinRate() float64 {
	if s.TotalRuns == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.TotalRuns)
}

// SummaryStats is the all-time totals row.
type SummaryStats struct {
	TotalRuns   int
	Wins        int
	Losses      int
	PerfectWins int
}

// WinRate returns wins over total runs, 0 when there are no runs.
func (s *SummaryStats) WinRate() float64 {
	if s.TotalRuns == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.TotalRuns)
}

// Store defines the persistence interface for arena loadouts and run history.
type Store interface {
	// Loadouts
	SaveLoadout(ctx context.Context, l *models.Loadout) error
	GetLoadout(ctx context.Context, id string) (*models.Loadout, error)
	ListLoadouts(ctx context.Context, limit int) ([]*models.Loadout, error)
	UpdateLoadout(ctx context.Context, l *models.Loadout) error
	RenameLoadout(ctx context.Context, id, name string) (bool, error)
	ToggleFavorite(ctx context.Context, id string) (bool, error)
	DeleteLoadout(ctx context.Context, id string) (bool, error)

	// Runs
	SaveRun(ctx context.Context, r *models.RunRecord) error
	GetRun(ctx context.Context, id string) (*models.RunRecord, error)
	UpdateRunOutcome(ctx context.Context, id string, outcome models.RunOutcome, stats models.RunStats) error
	ListRunsForLoadout(ctx context.Context, loadoutID string, limit int) ([]*models.RunRecord, error)
	ListRecentRuns(ctx context.Context, limit int) ([]*models.RunRecord, error)
	PurgeUnfinishedRuns(ctx context.Context) (int64, error)

	// Aggregates
	EncounterOutcomes(ctx context.Context, loadoutID string) (map[string]models.RunOutcome, error)
	VictoriesFor(ctx context.Context, loadoutID, encounterID string) ([]*models.RunRecord, error)
	LoadoutEncounterStats(ctx context.Context) ([]*LoadoutEncounterStats, error)
	SummaryStats(ctx context.Context) (*SummaryStats, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
