package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/stsarena/arena/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no CGO).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one concurrent writer. Limiting to a single
	// connection serializes all DB access through Go's connection pool.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// boolToInt converts a bool to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// newULID generates a new ULID string.
func newULID() string {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(entropy, 0)).String()
}

// Migrate runs all embedded SQL migration files in order.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()

		var count int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Loadouts ---

const loadoutColumns = `id, name, character_class, ascension_level, max_hp, current_hp,
	deck_json, relics_json, potions_json, potion_slots, favorite, content_hash, created_at, updated_at`

func (s *SQLiteStore) SaveLoadout(ctx context.Context, l *models.Loadout) error {
	if l.ID == "" {
		l.ID = newULID()
	}
	now := time.Now().UTC()
	l.CreatedAt = now
	l.UpdatedAt = now
	l.ContentHash = l.ComputeContentHash()

	deckJSON, relicsJSON, potionsJSON, err := marshalLoadoutParts(l)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO loadouts (`+loadoutColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.Name, string(l.CharacterClass), l.AscensionLevel, l.MaxHP, l.CurrentHP,
		deckJSON, relicsJSON, potionsJSON, l.PotionSlots, boolToInt(l.Favorite),
		l.ContentHash, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save loadout: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetLoadout(ctx context.Context, id string) (*models.Loadout, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+loadoutColumns+` FROM loadouts WHERE id = ?`, id)
	l, err := scanLoadout(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("loadout not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get loadout: %w", err)
	}
	return l, nil
}

func (s *SQLiteStore) ListLoadouts(ctx context.Context, limit int) ([]*models.Loadout, error) {
	query := `SELECT ` + loadoutColumns + ` FROM loadouts ORDER BY favorite DESC, created_at DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list loadouts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var loadouts []*models.Loadout
	for rows.Next() {
		l, err := scanLoadout(rows)
		if err != nil {
			return nil, fmt.Errorf("scan loadout: %w", err)
		}
		loadouts = append(loadouts, l)
	}
	return loadouts, rows.Err()
}

func (s *SQLiteStore) UpdateLoadout(ctx context.Context, l *models.Loadout) error {
	l.UpdatedAt = time.Now().UTC()
	l.ContentHash = l.ComputeContentHash()

	deckJSON, relicsJSON, potionsJSON, err := marshalLoadoutParts(l)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE loadouts SET name=?, character_class=?, ascension_level=?, max_hp=?, current_hp=?,
		deck_json=?, relics_json=?, potions_json=?, potion_slots=?, favorite=?, content_hash=?, updated_at=?
		WHERE id=?`,
		l.Name, string(l.CharacterClass), l.AscensionLevel, l.MaxHP, l.CurrentHP,
		deckJSON, relicsJSON, potionsJSON, l.PotionSlots, boolToInt(l.Favorite),
		l.ContentHash, l.UpdatedAt, l.ID,
	)
	if err != nil {
		return fmt.Errorf("update loadout: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("loadout not found: %s", l.ID)
	}
	return nil
}

func (s *SQLiteStore) RenameLoadout(ctx context.Context, id, name string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		"UPDATE loadouts SET name=?, updated_at=? WHERE id=?",
		name, time.Now().UTC(), id)
	if err != nil {
		return false, fmt.Errorf("rename loadout: %w", err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

func (s *SQLiteStore) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	var favorite int
	err := s.db.QueryRowContext(ctx, "SELECT favorite FROM loadouts WHERE id=?", id).Scan(&favorite)
	if err == sql.ErrNoRows {
		return false, fmt.Errorf("loadout not found: %s", id)
	}
	if err != nil {
		return false, fmt.Errorf("get favorite: %w", err)
	}

	newStatus := favorite == 0
	_, err = s.db.ExecContext(ctx,
		"UPDATE loadouts SET favorite=?, updated_at=? WHERE id=?",
		boolToInt(newStatus), time.Now().UTC(), id)
	if err != nil {
		return false, fmt.Errorf("toggle favorite: %w", err)
	}
	return newStatus, nil
}

// DeleteLoadout removes a loadout and all of its run records.
func (s *SQLiteStore) DeleteLoadout(ctx context.Context, id string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Runs first (foreign key)
	if _, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE loadout_id = ?", id); err != nil {
		return false, fmt.Errorf("delete runs for loadout: %w", err)
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM loadouts WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete loadout: %w", err)
	}
	n, _ := result.RowsAffected()

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit tx: %w", err)
	}
	return n > 0, nil
}

func marshalLoadoutParts(l *models.Loadout) (deck, relics, potions string, err error) {
	deckBytes, err := json.Marshal(l.Deck)
	if err != nil {
		return "", "", "", fmt.Errorf("marshal deck: %w", err)
	}
	relicsBytes, err := json.Marshal(l.Relics)
	if err != nil {
		return "", "", "", fmt.Errorf("marshal relics: %w", err)
	}
	potionsBytes, err := json.Marshal(l.Potions)
	if err != nil {
		return "", "", "", fmt.Errorf("marshal potions: %w", err)
	}
	return string(deckBytes), string(relicsBytes), string(potionsBytes), nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanLoadout(row scanner) (*models.Loadout, error) {
	l := &models.Loadout{}
	var class, deckJSON, relicsJSON, potionsJSON string
	var favorite int

	err := row.Scan(&l.ID, &l.Name, &class, &l.AscensionLevel, &l.MaxHP, &l.CurrentHP,
		&deckJSON, &relicsJSON, &potionsJSON, &l.PotionSlots, &favorite,
		&l.ContentHash, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}

	l.CharacterClass = models.CharacterClass(class)
	l.Favorite = favorite == 1
	if err := json.Unmarshal([]byte(deckJSON), &l.Deck); err != nil {
		return nil, fmt.Errorf("unmarshal deck: %w", err)
	}
	if err := json.Unmarshal([]byte(relicsJSON), &l.Relics); err != nil {
		return nil, fmt.Errorf("unmarshal relics: %w", err)
	}
	if err := json.Unmarshal([]byte(potionsJSON), &l.Potions); err != nil {
		return nil, fmt.Errorf("unmarshal potions: %w", err)
	}
	return l, nil
}

// --- Runs ---

const runColumns = `id, loadout_id, session_id, encounter_id, encounter_name, outcome, perfect,
	turns_taken, damage_dealt, damage_taken, potions_used_json, content_hash, started_at, finished_at`

func (s *SQLiteStore) SaveRun(ctx context.Context, r *models.RunRecord) error {
	if r.ID == "" {
		r.ID = newULID()
	}
	if r.Outcome == "" {
		r.Outcome = models.OutcomeInProgress
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now().UTC()
	}

	potionsJSON, err := json.Marshal(r.PotionsUsed)
	if err != nil {
		return fmt.Errorf("marshal potions used: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.LoadoutID, r.SessionID, r.EncounterID, r.EncounterName,
		string(r.Outcome), boolToInt(r.Perfect),
		r.TurnsTaken, r.DamageDealt, r.DamageTaken, string(potionsJSON),
		r.ContentHash, r.StartedAt, r.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*models.RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

func (s *SQLiteStore) UpdateRunOutcome(ctx context.Context, id string, outcome models.RunOutcome, stats models.RunStats) error {
	potionsUsed := stats.PotionsUsed
	if potionsUsed == nil {
		potionsUsed = []string{}
	}
	potionsJSON, err := json.Marshal(potionsUsed)
	if err != nil {
		return fmt.Errorf("marshal potions used: %w", err)
	}

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		`UPDATE runs SET outcome=?, perfect=?, turns_taken=?, damage_dealt=?, damage_taken=?,
		potions_used_json=?, finished_at=? WHERE id=?`,
		string(outcome), boolToInt(stats.Perfect), stats.TurnsTaken,
		stats.DamageDealt, stats.DamageTaken, string(potionsJSON), now, id,
	)
	if err != nil {
		return fmt.Errorf("update run outcome: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return nil
}

func (s *SQLiteStore) ListRunsForLoadout(ctx context.Context, loadoutID string, limit int) ([]*models.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs
		WHERE loadout_id = ? AND outcome != 'IN_PROGRESS'
		ORDER BY started_at DESC`
	args := []any{loadoutID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return s.scanRuns(ctx, query, args...)
}

// ListRecentRuns purges unfinished records (crashed or abandoned sessions)
// and returns the most recent completed runs.
func (s *SQLiteStore) ListRecentRuns(ctx context.Context, limit int) ([]*models.RunRecord, error) {
	if _, err := s.PurgeUnfinishedRuns(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + runColumns + ` FROM runs
		WHERE outcome != 'IN_PROGRESS'
		ORDER BY started_at DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return s.scanRuns(ctx, query, args...)
}

func (s *SQLiteStore) PurgeUnfinishedRuns(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE outcome = 'IN_PROGRESS'")
	if err != nil {
		return 0, fmt.Errorf("purge unfinished runs: %w", err)
	}
	return result.RowsAffected()
}

func (s *SQLiteStore) scanRuns(ctx context.Context, query string, args ...any) ([]*models.RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*models.RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func scanRun(row scanner) (*models.RunRecord, error) {
	r := &models.RunRecord{}
	var outcome, potionsJSON string
	var perfect int
	var finishedAt sql.NullTime

	err := row.Scan(&r.ID, &r.LoadoutID, &r.SessionID, &r.EncounterID, &r.EncounterName,
		&outcome, &perfect, &r.TurnsTaken, &r.DamageDealt, &r.DamageTaken,
		&potionsJSON, &r.ContentHash, &r.StartedAt, &finishedAt)
	if err != nil {
		return nil, err
	}

	r.Outcome = models.RunOutcome(outcome)
	r.Perfect = perfect == 1
	if finishedAt.Valid {
		r.FinishedAt = &finishedAt.Time
	}
	if err := json.Unmarshal([]byte(potionsJSON), &r.PotionsUsed); err != nil {
		return nil, fmt.Errorf("unmarshal potions used: %w", err)
	}
	return r, nil
}

// --- Aggregates ---

// EncounterOutcomes returns the most recent completed outcome per encounter
// for a loadout.
func (s *SQLiteStore) EncounterOutcomes(ctx context.Context, loadoutID string) (map[string]models.RunOutcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT encounter_id, outcome FROM runs
		WHERE loadout_id = ? AND outcome != 'IN_PROGRESS'
		ORDER BY started_at DESC`, loadoutID)
	if err != nil {
		return nil, fmt.Errorf("encounter outcomes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	outcomes := make(map[string]models.RunOutcome)
	for rows.Next() {
		var encounterID, outcome string
		if err := rows.Scan(&encounterID, &outcome); err != nil {
			return nil, fmt.Errorf("scan encounter outcome: %w", err)
		}
		// Rows are newest-first; keep only the most recent per encounter.
		if _, ok := outcomes[encounterID]; !ok {
			outcomes[encounterID] = models.RunOutcome(outcome)
		}
	}
	return outcomes, rows.Err()
}

// VictoriesFor returns all wins for one loadout+encounter pair, newest first.
func (s *SQLiteStore) VictoriesFor(ctx context.Context, loadoutID, encounterID string) ([]*models.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs
		WHERE loadout_id = ? AND encounter_id = ? AND outcome = 'WIN'
		ORDER BY started_at DESC`
	return s.scanRuns(ctx, query, loadoutID, encounterID)
}

func (s *SQLiteStore) LoadoutEncounterStats(ctx context.Context) ([]*LoadoutEncounterStats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT l.id, l.name, l.character_class, r.encounter_id,
			COUNT(*) AS total_runs,
			SUM(CASE WHEN r.outcome = 'WIN' THEN 1 ELSE 0 END) AS wins,
			SUM(CASE WHEN r.outcome = 'LOSS' THEN 1 ELSE 0 END) AS losses,
			SUM(CASE WHEN r.outcome = 'WIN' AND r.perfect = 1 THEN 1 ELSE 0 END) AS perfect_wins
		FROM runs r
		JOIN loadouts l ON r.loadout_id = l.id
		WHERE r.outcome != 'IN_PROGRESS'
		GROUP BY l.id, r.encounter_id
		ORDER BY l.name, r.encounter_id`)
	if err != nil {
		return nil, fmt.Errorf("loadout encounter stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*LoadoutEncounterStats
	for rows.Next() {
		st := &LoadoutEncounterStats{}
		var class string
		if err := rows.Scan(&st.LoadoutID, &st.LoadoutName, &class, &st.EncounterID,
			&st.TotalRuns, &st.Wins, &st.Losses, &st.PerfectWins); err != nil {
			return nil, fmt.Errorf("scan loadout encounter stats: %w", err)
		}
		st.CharacterClass = models.CharacterClass(class)
		results = append(results, st)
	}
	return results, rows.Err()
}

func (s *SQLiteStore) SummaryStats(ctx context.Context) (*SummaryStats, error) {
	st := &SummaryStats{}
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN outcome = 'WIN' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN outcome = 'LOSS' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN outcome = 'WIN' AND perfect = 1 THEN 1 ELSE 0 END), 0)
		FROM runs WHERE outcome != 'IN_PROGRESS'`,
	).Scan(&st.TotalRuns, &st.Wins, &st.Losses, &st.PerfectWins)
	if err != nil {
		return nil, fmt.Errorf("summary stats: %w", err)
	}
	return st, nil
}
