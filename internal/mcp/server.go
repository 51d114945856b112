package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/stsarena/arena/internal/catalog"
	"github.com/stsarena/arena/internal/generate"
	"github.com/stsarena/arena/internal/models"
	"github.com/stsarena/arena/internal/stats"
	"github.com/stsarena/arena/internal/store"
)

// Server wraps the arena data layer and exposes it as MCP tools.
type Server struct {
	store store.Store
}

// NewServer creates the MCP server wrapper.
func NewServer(s store.Store) *Server {
	return &Server{store: s}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("arena", "1.0.0", server.WithToolCapabilities(true))

	srv.AddTool(s.listLoadoutsTool())
	srv.AddTool(s.getLoadoutTool())
	srv.AddTool(s.runHistoryTool())
	srv.AddTool(s.statsTool())
	srv.AddTool(s.bestVictoriesTool())
	srv.AddTool(s.randomLoadoutTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

type loadoutOut struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	CharacterClass string `json:"character_class"`
	AscensionLevel int    `json:"ascension_level"`
	MaxHP          int    `json:"max_hp"`
	CurrentHP      int    `json:"current_hp"`
	DeckSize       int    `json:"deck_size"`
	RelicCount     int    `json:"relic_count"`
	PotionCount    int    `json:"potion_count"`
	Favorite       bool   `json:"favorite"`
	ContentHash    string `json:"content_hash"`
	CreatedAt      string `json:"created_at"`
}

func loadoutToOut(l *models.Loadout) loadoutOut {
	return loadoutOut{
		ID:             l.ID,
		Name:           l.Name,
		CharacterClass: string(l.CharacterClass),
		AscensionLevel: l.AscensionLevel,
		MaxHP:          l.MaxHP,
		CurrentHP:      l.CurrentHP,
		DeckSize:       len(l.Deck),
		RelicCount:     len(l.Relics),
		PotionCount:    len(l.Potions),
		Favorite:       l.Favorite,
		ContentHash:    l.ContentHash,
		CreatedAt:      l.CreatedAt.Format(time.RFC3339),
	}
}

type runOut struct {
	ID          string   `json:"id"`
	LoadoutID   string   `json:"loadout_id"`
	EncounterID string   `json:"encounter_id"`
	Outcome     string   `json:"outcome"`
	Perfect     bool     `json:"perfect"`
	TurnsTaken  int      `json:"turns_taken"`
	DamageDealt int      `json:"damage_dealt"`
	DamageTaken int      `json:"damage_taken"`
	PotionsUsed []string `json:"potions_used"`
	StartedAt   string   `json:"started_at"`
}

func runToOut(r *models.RunRecord) runOut {
	return runOut{
		ID:          r.ID,
		LoadoutID:   r.LoadoutID,
		EncounterID: r.EncounterID,
		Outcome:     string(r.Outcome),
		Perfect:     r.Perfect,
		TurnsTaken:  r.TurnsTaken,
		DamageDealt: r.DamageDealt,
		DamageTaken: r.DamageTaken,
		PotionsUsed: r.PotionsUsed,
		StartedAt:   r.StartedAt.Format(time.RFC3339),
	}
}

// arena_list_loadouts
func (s *Server) listLoadoutsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("arena_list_loadouts",
		mcp.WithDescription("List saved arena loadouts, favorites first. Returns a JSON array with id, name, character class, deck/relic/potion counts, and HP."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of loadouts to return (default: all)")),
	)
	return tool, s.handleListLoadouts
}

func (s *Server) handleListLoadouts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", 0)
	loadouts, err := s.store.ListLoadouts(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list loadouts: %v", err)), nil
	}

	out := make([]loadoutOut, len(loadouts))
	for i, l := range loadouts {
		out[i] = loadoutToOut(l)
	}

	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal loadouts: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// arena_get_loadout
func (s *Server) getLoadoutTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("arena_get_loadout",
		mcp.WithDescription("Get a loadout with its full deck, relic, and potion lists. Resolves by id (full ULID or unique prefix) or exact name."),
		mcp.WithString("loadout", mcp.Required(), mcp.Description("Loadout id, id prefix, or name")),
	)
	return tool, s.handleGetLoadout
}

func (s *Server) handleGetLoadout(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := request.RequireString("loadout")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: loadout"), nil
	}

	l, err := s.resolveLoadout(ctx, ref)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loadout not found: %s", ref)), nil
	}

	result := map[string]any{
		"summary": loadoutToOut(l),
		"deck":    l.Deck,
		"relics":  l.Relics,
		"potions": l.Potions,
	}
	data, err := json.Marshal(result)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal loadout: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// arena_run_history
func (s *Server) runHistoryTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("arena_run_history",
		mcp.WithDescription("List completed arena runs, newest first. Each run has outcome (WIN/LOSS), a perfect-victory flag, turns, damage dealt/taken, and potions used. Unfinished runs from crashed or abandoned sessions are purged before reading."),
		mcp.WithString("loadout", mcp.Description("Restrict to one loadout (id, id prefix, or name)")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of runs to return (default: 20)")),
	)
	return tool, s.handleRunHistory
}

func (s *Server) handleRunHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", 20)

	var runs []*models.RunRecord
	if ref := request.GetString("loadout", ""); ref != "" {
		l, err := s.resolveLoadout(ctx, ref)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("loadout not found: %s", ref)), nil
		}
		runs, err = s.store.ListRunsForLoadout(ctx, l.ID, limit)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to list runs: %v", err)), nil
		}
	} else {
		var err error
		runs, err = s.store.ListRecentRuns(ctx, limit)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to list runs: %v", err)), nil
		}
	}

	out := make([]runOut, len(runs))
	for i, r := range runs {
		out[i] = runToOut(r)
	}
	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal runs: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// arena_stats
func (s *Server) statsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("arena_stats",
		mcp.WithDescription("Get aggregate arena statistics: all-time totals plus per-loadout, per-encounter win/loss/perfect counts and win rates."),
	)
	return tool, s.handleStats
}

func (s *Server) handleStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary, err := s.store.SummaryStats(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to compute summary: %v", err)), nil
	}
	perEncounter, err := s.store.LoadoutEncounterStats(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to compute stats: %v", err)), nil
	}

	type rowOut struct {
		LoadoutID      string  `json:"loadout_id"`
		LoadoutName    string  `json:"loadout_name"`
		CharacterClass string  `json:"character_class"`
		EncounterID    string  `json:"encounter_id"`
		TotalRuns      int     `json:"total_runs"`
		Wins           int     `json:"wins"`
		Losses         int     `json:"losses"`
		PerfectWins    int     `json:"perfect_wins"`
		WinRate        float64 `json:"win_rate"`
	}
	rows := make([]rowOut, len(perEncounter))
	for i, st := range perEncounter {
		rows[i] = rowOut{
			LoadoutID:      st.LoadoutID,
			LoadoutName:    st.LoadoutName,
			CharacterClass: string(st.CharacterClass),
			EncounterID:    st.EncounterID,
			TotalRuns:      st.TotalRuns,
			Wins:           st.Wins,
			Losses:         st.Losses,
			PerfectWins:    st.PerfectWins,
			WinRate:        st.WinRate(),
		}
	}

	result := map[string]any{
		"summary": map[string]any{
			"total_runs":   summary.TotalRuns,
			"wins":         summary.Wins,
			"losses":       summary.Losses,
			"perfect_wins": summary.PerfectWins,
			"win_rate":     summary.WinRate(),
		},
		"by_loadout_encounter": rows,
	}
	data, err := json.Marshal(result)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal stats: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// arena_best_victories
func (s *Server) bestVictoriesTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("arena_best_victories",
		mcp.WithDescription("Get the Pareto-optimal victories for a loadout against one encounter: the wins not beaten by any other win on both damage taken and potions used."),
		mcp.WithString("loadout", mcp.Required(), mcp.Description("Loadout id, id prefix, or name")),
		mcp.WithString("encounter", mcp.Required(), mcp.Description("Encounter id, e.g. \"3 Louse\" or \"Gremlin Nob\"")),
	)
	return tool, s.handleBestVictories
}

func (s *Server) handleBestVictories(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := request.RequireString("loadout")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: loadout"), nil
	}
	encounterID, err := request.RequireString("encounter")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: encounter"), nil
	}

	l, err := s.resolveLoadout(ctx, ref)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loadout not found: %s", ref)), nil
	}

	wins, err := s.store.VictoriesFor(ctx, l.ID, encounterID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load victories: %v", err)), nil
	}
	frontier := stats.ParetoVictories(wins)

	out := make([]runOut, len(frontier))
	for i, r := range frontier {
		out[i] = runToOut(r)
	}
	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal victories: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// arena_random_loadout
func (s *Server) randomLoadoutTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("arena_random_loadout",
		mcp.WithDescription("Generate a random loadout for a character class and save it. Deck of 15-25 class cards with random upgrades, starter relic plus random extras, random potions."),
		mcp.WithString("class", mcp.Description("Character class: IRONCLAD, THE_SILENT, DEFECT, WATCHER (default: random)")),
	)
	return tool, s.handleRandomLoadout
}

func (s *Server) handleRandomLoadout(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g := generate.New(time.Now().UnixNano())

	class := models.CharacterClass(strings.ToUpper(request.GetString("class", "")))
	if class == "" {
		class = g.Class()
	}

	l, err := g.Loadout(class)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot generate loadout: %v", err)), nil
	}
	if err := catalog.Validate(l); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("generated loadout failed validation: %v", err)), nil
	}
	if err := s.store.SaveLoadout(ctx, l); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to save loadout: %v", err)), nil
	}

	result := map[string]any{
		"summary": loadoutToOut(l),
		"deck":    l.Deck,
		"relics":  l.Relics,
		"potions": l.Potions,
	}
	data, err := json.Marshal(result)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal loadout: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// resolveLoadout finds a loadout by full id, unique id prefix, or exact name.
func (s *Server) resolveLoadout(ctx context.Context, ref string) (*models.Loadout, error) {
	if l, err := s.store.GetLoadout(ctx, ref); err == nil {
		return l, nil
	}

	loadouts, err := s.store.ListLoadouts(ctx, 0)
	if err != nil {
		return nil, err
	}

	upper := strings.ToUpper(ref)
	var matches []*models.Loadout
	for _, l := range loadouts {
		if l.Name == ref {
			return l, nil
		}
		if strings.HasPrefix(l.ID, upper) {
			matches = append(matches, l)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("loadout not found: %s", ref)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("ambiguous loadout id %s: matches %d loadouts", ref, len(matches))
	}
}
