package engine

import "go.uber.org/zap"

// SessionCallbacks is the inbound surface the adapter drives. The session
// controller implements it; every method must tolerate being called in any
// phase (log and ignore, never panic) because hook ordering inside the host
// engine cannot be exhaustively verified.
type SessionCallbacks interface {
	OnEngineRunInitialized()
	OnEngineRoomEntered()
	OnCombatEnded(victory bool)
	RecordDamageTaken(amount int)
	RecordDamageDealt(amount int)
	RecordTurnEnded()
	RecordPotionUsed(id string)
	OnMainMenuShown()
}

// Events translates raw host-engine hook firings into semantic callbacks on
// the session controller. One Events value is installed per process; all of
// its methods run on the engine's update goroutine.
type Events struct {
	cb  SessionCallbacks
	log *zap.Logger
}

// NewEvents creates the event adapter.
func NewEvents(cb SessionCallbacks, log *zap.Logger) *Events {
	if log == nil {
		log = zap.NewNop()
	}
	return &Events{cb: cb, log: log}
}

// RunInitialized fires when the engine acknowledges a begin-run command and
// starts constructing the run.
func (e *Events) RunInitialized() {
	e.log.Debug("engine event", zap.String("event", "run_initialized"))
	e.cb.OnEngineRunInitialized()
}

// RoomEntered fires on every "player entered a room" hook, including rooms
// of normal (non-arena) runs.
func (e *Events) RoomEntered() {
	e.log.Debug("engine event", zap.String("event", "room_entered"))
	e.cb.OnEngineRoomEntered()
}

// BattleEnded fires when the engine's battle-end hook runs with the player
// alive.
func (e *Events) BattleEnded() {
	e.log.Debug("engine event", zap.String("event", "battle_ended"))
	e.cb.OnCombatEnded(true)
}

// DefeatScreenConstructed fires when the engine builds its death screen.
// This is the only reliable defeat signal; the battle-end hook does not run
// on a loss.
func (e *Events) DefeatScreenConstructed() {
	e.log.Debug("engine event", zap.String("event", "defeat_screen"))
	e.cb.OnCombatEnded(false)
}

// DamageApplied fires whenever the player takes unblocked damage.
func (e *Events) DamageApplied(amount int) {
	if amount <= 0 {
		return
	}
	e.cb.RecordDamageTaken(amount)
}

// DamageDealt fires whenever a monster takes damage from the player.
func (e *Events) DamageDealt(amount int) {
	if amount <= 0 {
		return
	}
	e.cb.RecordDamageDealt(amount)
}

// TurnEnded fires at the end of each player turn.
func (e *Events) TurnEnded() {
	e.cb.RecordTurnEnded()
}

// PotionUsed fires when the player drinks or throws a potion.
func (e *Events) PotionUsed(id string) {
	e.log.Debug("engine event", zap.String("event", "potion_used"), zap.String("potion", id))
	e.cb.RecordPotionUsed(id)
}

// MainMenuConstructed fires when the engine builds the title screen.
func (e *Events) MainMenuConstructed() {
	e.log.Debug("engine event", zap.String("event", "main_menu"))
	e.cb.OnMainMenuShown()
}
