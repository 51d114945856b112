package arena

import "github.com/stsarena/arena/internal/models"

// Phase is the lifecycle state of the one process-wide arena session.
type Phase string

const (
	// PhaseNone means no session exists; the real save is live.
	PhaseNone Phase = "NONE"
	// PhaseLoadoutPending means a session has been started and the engine
	// has been told to begin a run, but the run has not reached its first
	// room yet.
	PhaseLoadoutPending Phase = "LOADOUT_PENDING"
	// PhaseAwaitingEngineInit means the engine acknowledged the begin-run
	// command and is constructing the run.
	PhaseAwaitingEngineInit Phase = "AWAITING_ENGINE_INIT"
	// PhaseInCombat means the loadout has been applied and the forced
	// encounter is being fought.
	PhaseInCombat Phase = "IN_COMBAT"
	// PhaseResolved means combat ended and the outcome is recorded; the
	// session still holds the save until the player returns or retries.
	PhaseResolved Phase = "RESOLVED"
)

// Origin records where the player came from when the session started; it
// decides where RequestReturn routes them afterwards.
type Origin string

const (
	OriginMenu                 Origin = "MENU"
	OriginPauseDuringNormalRun Origin = "PAUSE_DURING_NORMAL_RUN"
	OriginPostDefeatRetry      Origin = "POST_DEFEAT_RETRY"
	OriginHistoryReplay        Origin = "HISTORY_REPLAY"
)

// Destination selects where RequestReturn sends the player.
type Destination string

const (
	// DestinationAuto routes by origin: back to the interrupted normal run
	// when the session started from a pause, otherwise to the main menu.
	DestinationAuto Destination = "AUTO"
	DestinationMenu Destination = "MENU"
	// DestinationResume returns to the interrupted normal run.
	DestinationResume Destination = "RESUME"
)

// SessionState is the single mutable record describing the active session.
// It is owned exclusively by the Controller; screens read it only through
// controller queries.
type SessionState struct {
	Phase       Phase
	Origin      Origin
	SessionID   string
	Loadout     *models.Loadout // private working copy, never the stored one
	EncounterID string
	RunID       string

	// Per-combat tracking, reset on every (re)entry into combat.
	TookDamageThisCombat bool
	RunInProgress        bool
	TurnsTaken           int
	DamageDealt          int
	DamageTaken          int
	PotionsUsed          []string

	// Outcome of the last resolved combat in this session.
	Victory bool
	Perfect bool
}

func newSessionState() SessionState {
	return SessionState{Phase: PhaseNone}
}

func (s *SessionState) resetCombatTracking() {
	s.TookDamageThisCombat = false
	s.TurnsTaken = 0
	s.DamageDealt = 0
	s.DamageTaken = 0
	s.PotionsUsed = nil
	s.Victory = false
	s.Perfect = false
}
