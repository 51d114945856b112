package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stsarena/arena/internal/models"
	"github.com/stsarena/arena/internal/store"
)

// ---------------------------------------------------------------------------
// Mock store
// ---------------------------------------------------------------------------

type mockStore struct {
	loadouts []*models.Loadout
	runs     []*models.RunRecord

	listLoadoutsErr error
	listRunsErr     error
}

func (m *mockStore) SaveLoadout(_ context.Context, l *models.Loadout) error {
	if l.ID == "" {
		l.ID = fmt.Sprintf("LOADOUT-%d", len(m.loadouts)+1)
	}
	l.CreatedAt = time.Now()
	l.ContentHash = l.ComputeContentHash()
	m.loadouts = append(m.loadouts, l)
	return nil
}

func (m *mockStore) GetLoadout(_ context.Context, id string) (*models.Loadout, error) {
	for _, l := range m.loadouts {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, fmt.Errorf("loadout not found: %s", id)
}

func (m *mockStore) ListLoadouts(_ context.Context, limit int) ([]*models.Loadout, error) {
	if m.listLoadoutsErr != nil {
		return nil, m.listLoadoutsErr
	}
	if limit > 0 && len(m.loadouts) > limit {
		return m.loadouts[:limit], nil
	}
	return m.loadouts, nil
}

func (m *mockStore) UpdateLoadout(_ context.Context, _ *models.Loadout) error { return nil }
func (m *mockStore) RenameLoadout(_ context.Context, _, _ string) (bool, error) {
	return false, nil
}
func (m *mockStore) ToggleFavorite(_ context.Context, _ string) (bool, error) { return false, nil }
func (m *mockStore) DeleteLoadout(_ context.Context, _ string) (bool, error)  { return false, nil }

func (m *mockStore) SaveRun(_ context.Context, r *models.RunRecord) error {
	m.runs = append(m.runs, r)
	return nil
}

func (m *mockStore) GetRun(_ context.Context, id string) (*models.RunRecord, error) {
	for _, r := range m.runs {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, fmt.Errorf("run not found: %s", id)
}

func (m *mockStore) UpdateRunOutcome(_ context.Context, _ string, _ models.RunOutcome, _ models.RunStats) error {
	return nil
}

func (m *mockStore) ListRunsForLoadout(_ context.Context, loadoutID string, _ int) ([]*models.RunRecord, error) {
	if m.listRunsErr != nil {
		return nil, m.listRunsErr
	}
	var out []*models.RunRecord
	for _, r := range m.runs {
		if r.LoadoutID == loadoutID && r.Outcome != models.OutcomeInProgress {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockStore) ListRecentRuns(_ context.Context, _ int) ([]*models.RunRecord, error) {
	if m.listRunsErr != nil {
		return nil, m.listRunsErr
	}
	var out []*models.RunRecord
	for _, r := range m.runs {
		if r.Outcome != models.OutcomeInProgress {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockStore) PurgeUnfinishedRuns(_ context.Context) (int64, error) { return 0, nil }

func (m *mockStore) EncounterOutcomes(_ context.Context, _ string) (map[string]models.RunOutcome, error) {
	return nil, nil
}

func (m *mockStore) VictoriesFor(_ context.Context, loadoutID, encounterID string) ([]*models.RunRecord, error) {
	var out []*models.RunRecord
	for _, r := range m.runs {
		if r.LoadoutID == loadoutID && r.EncounterID == encounterID && r.Outcome == models.OutcomeWin {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockStore) LoadoutEncounterStats(_ context.Context) ([]*store.LoadoutEncounterStats, error) {
	return nil, nil
}

func (m *mockStore) SummaryStats(_ context.Context) (*store.SummaryStats, error) {
	s := &store.SummaryStats{}
	for _, r := range m.runs {
		switch r.Outcome {
		case models.OutcomeWin:
			s.TotalRuns++
			s.Wins++
			if r.Perfect {
				s.PerfectWins++
			}
		case models.OutcomeLoss:
			s.TotalRuns++
			s.Losses++
		}
	}
	return s, nil
}

func (m *mockStore) Migrate(_ context.Context) error { return nil }
func (m *mockStore) Close() error                    { return nil }

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newTestServer(t *testing.T) (*Server, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	srv := NewServer(ms)
	require.NotNil(t, srv)
	return srv, ms
}

// callToolReq builds a mcpgo.CallToolRequest with the given name and arguments.
func callToolReq(name string, args map[string]any) mcpgo.CallToolRequest {
	return mcpgo.CallToolRequest{
		Params: mcpgo.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// resultText extracts the concatenated text from a CallToolResult.
func resultText(t *testing.T, result *mcpgo.CallToolResult) string {
	t.Helper()
	var b strings.Builder
	for _, c := range result.Content {
		tc, ok := c.(mcpgo.TextContent)
		if ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

// resultJSON parses the text result as JSON into the provided target.
func resultJSON(t *testing.T, result *mcpgo.CallToolResult, target any) {
	t.Helper()
	text := resultText(t, result)
	err := json.Unmarshal([]byte(text), target)
	require.NoError(t, err, "failed to parse result JSON: %s", text)
}

func seedLoadout(t *testing.T, ms *mockStore, name string) *models.Loadout {
	t.Helper()
	l := &models.Loadout{
		Name:           name,
		CharacterClass: models.ClassIronclad,
		MaxHP:          80,
		CurrentHP:      80,
		Deck:           []models.CardSpec{{ID: "Strike_R"}, {ID: "Bash"}},
		Relics:         []models.RelicSpec{{ID: "Burning Blood", Counter: -1}},
		PotionSlots:    3,
	}
	require.NoError(t, ms.SaveLoadout(context.Background(), l))
	return l
}

func seedRun(ms *mockStore, loadoutID, encounterID string, outcome models.RunOutcome, damage int, potions ...string) *models.RunRecord {
	r := &models.RunRecord{
		ID:          fmt.Sprintf("RUN-%d", len(ms.runs)+1),
		LoadoutID:   loadoutID,
		EncounterID: encounterID,
		Outcome:     outcome,
		DamageTaken: damage,
		PotionsUsed: potions,
		StartedAt:   time.Now(),
	}
	ms.runs = append(ms.runs, r)
	return r
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestNewServerRegistersTools(t *testing.T) {
	srv, _ := newTestServer(t)
	mcpSrv := srv.MCPServer()
	require.NotNil(t, mcpSrv, "MCPServer() should return non-nil")
}

func TestHandleListLoadouts_Empty(t *testing.T) {
	srv, _ := newTestServer(t)

	result, err := srv.handleListLoadouts(context.Background(), callToolReq("arena_list_loadouts", nil))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsError)
	assert.NotEmpty(t, resultText(t, result))
}

func TestHandleListLoadouts_WithLoadouts(t *testing.T) {
	srv, ms := newTestServer(t)
	seedLoadout(t, ms, "alpha strike")
	seedLoadout(t, ms, "beta block")

	result, err := srv.handleListLoadouts(context.Background(), callToolReq("arena_list_loadouts", nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var out []loadoutOut
	resultJSON(t, result, &out)
	require.Len(t, out, 2)
	assert.Equal(t, "alpha strike", out[0].Name)
	assert.Equal(t, 2, out[0].DeckSize)
}

func TestHandleListLoadouts_StoreError(t *testing.T) {
	srv, ms := newTestServer(t)
	ms.listLoadoutsErr = fmt.Errorf("boom")

	result, err := srv.handleListLoadouts(context.Background(), callToolReq("arena_list_loadouts", nil))
	require.NoError(t, err, "handler should not return Go error; should wrap in result")
	assert.True(t, result.IsError)
}

func TestHandleGetLoadout_ByPrefixAndName(t *testing.T) {
	srv, ms := newTestServer(t)
	l := seedLoadout(t, ms, "alpha strike")

	result, err := srv.handleGetLoadout(context.Background(),
		callToolReq("arena_get_loadout", map[string]any{"loadout": l.ID[:6]}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Strike_R")

	result, err = srv.handleGetLoadout(context.Background(),
		callToolReq("arena_get_loadout", map[string]any{"loadout": "alpha strike"}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
}

func TestHandleGetLoadout_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	result, err := srv.handleGetLoadout(context.Background(),
		callToolReq("arena_get_loadout", map[string]any{"loadout": "nope"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleGetLoadout_MissingArg(t *testing.T) {
	srv, _ := newTestServer(t)
	result, err := srv.handleGetLoadout(context.Background(), callToolReq("arena_get_loadout", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleRunHistory_All(t *testing.T) {
	srv, ms := newTestServer(t)
	l := seedLoadout(t, ms, "alpha strike")
	seedRun(ms, l.ID, "3 Louse", models.OutcomeWin, 0)
	seedRun(ms, l.ID, "Cultist", models.OutcomeLoss, 20)
	seedRun(ms, l.ID, "Cultist", models.OutcomeInProgress, 0) // never shown

	result, err := srv.handleRunHistory(context.Background(), callToolReq("arena_run_history", nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var out []runOut
	resultJSON(t, result, &out)
	assert.Len(t, out, 2)
}

func TestHandleRunHistory_ForLoadout(t *testing.T) {
	srv, ms := newTestServer(t)
	a := seedLoadout(t, ms, "alpha strike")
	b := seedLoadout(t, ms, "beta block")
	seedRun(ms, a.ID, "3 Louse", models.OutcomeWin, 0)
	seedRun(ms, b.ID, "3 Louse", models.OutcomeLoss, 10)

	result, err := srv.handleRunHistory(context.Background(),
		callToolReq("arena_run_history", map[string]any{"loadout": "beta block"}))
	require.NoError(t, err)

	var out []runOut
	resultJSON(t, result, &out)
	require.Len(t, out, 1)
	assert.Equal(t, "LOSS", out[0].Outcome)
}

func TestHandleStats(t *testing.T) {
	srv, ms := newTestServer(t)
	l := seedLoadout(t, ms, "alpha strike")
	r := seedRun(ms, l.ID, "3 Louse", models.OutcomeWin, 0)
	r.Perfect = true
	seedRun(ms, l.ID, "3 Louse", models.OutcomeLoss, 15)

	result, err := srv.handleStats(context.Background(), callToolReq("arena_stats", nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var out struct {
		Summary struct {
			TotalRuns   int     `json:"total_runs"`
			Wins        int     `json:"wins"`
			PerfectWins int     `json:"perfect_wins"`
			WinRate     float64 `json:"win_rate"`
		} `json:"summary"`
	}
	resultJSON(t, result, &out)
	assert.Equal(t, 2, out.Summary.TotalRuns)
	assert.Equal(t, 1, out.Summary.Wins)
	assert.Equal(t, 1, out.Summary.PerfectWins)
	assert.InDelta(t, 0.5, out.Summary.WinRate, 1e-9)
}

func TestHandleBestVictories(t *testing.T) {
	srv, ms := newTestServer(t)
	l := seedLoadout(t, ms, "alpha strike")
	seedRun(ms, l.ID, "3 Louse", models.OutcomeWin, 10)
	seedRun(ms, l.ID, "3 Louse", models.OutcomeWin, 5, "Fire Potion")
	seedRun(ms, l.ID, "3 Louse", models.OutcomeWin, 12, "Fire Potion") // dominated
	seedRun(ms, l.ID, "3 Louse", models.OutcomeLoss, 0)

	result, err := srv.handleBestVictories(context.Background(),
		callToolReq("arena_best_victories", map[string]any{
			"loadout":   "alpha strike",
			"encounter": "3 Louse",
		}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var out []runOut
	resultJSON(t, result, &out)
	assert.Len(t, out, 2)
}

func TestHandleBestVictories_MissingArgs(t *testing.T) {
	srv, _ := newTestServer(t)
	result, err := srv.handleBestVictories(context.Background(),
		callToolReq("arena_best_victories", map[string]any{"loadout": "x"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleRandomLoadout(t *testing.T) {
	srv, ms := newTestServer(t)

	result, err := srv.handleRandomLoadout(context.Background(),
		callToolReq("arena_random_loadout", map[string]any{"class": "WATCHER"}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	require.Len(t, ms.loadouts, 1)
	assert.Equal(t, models.ClassWatcher, ms.loadouts[0].CharacterClass)
}

func TestHandleRandomLoadout_UnknownClass(t *testing.T) {
	srv, ms := newTestServer(t)

	result, err := srv.handleRandomLoadout(context.Background(),
		callToolReq("arena_random_loadout", map[string]any{"class": "FOO"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "unknown class")
	assert.Empty(t, ms.loadouts)
}
