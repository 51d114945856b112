// Package arena implements the session controller: the state machine that
// starts, tracks, and tears down isolated practice combats against the host
// engine, keeping the player's real save untouched throughout.
package arena

import (
	"context"
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/stsarena/arena/internal/catalog"
	"github.com/stsarena/arena/internal/engine"
	"github.com/stsarena/arena/internal/models"
	"github.com/stsarena/arena/internal/store"
)

// Isolator is the save-isolation surface the controller drives. Satisfied by
// *isolation.Manager.
type Isolator interface {
	Begin(sessionID string) error
	End() error
	WriteBlocked() bool
}

// LoadoutEditor lets the player tweak the working loadout between a defeat
// and a retry. Implementations show UI and return the edited copy.
type LoadoutEditor interface {
	Edit(l *models.Loadout) (*models.Loadout, error)
}

// Controller owns the single process-wide session. Every method runs on the
// host engine's update goroutine, so no locking is needed; the reentrancy
// guard exists because the engine can dispatch hooks synchronously from
// inside commands the controller itself issued.
type Controller struct {
	eng    engine.Engine
	iso    Isolator
	st     store.Store
	editor LoadoutEditor
	log    *zap.Logger
	clk    clock.Clock

	state    SessionState
	starting bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock injects the clock used for run timestamps.
func WithClock(clk clock.Clock) Option {
	return func(c *Controller) { c.clk = clk }
}

// WithEditor installs the loadout editor used by ModifyDeckAndRetry.
func WithEditor(e LoadoutEditor) Option {
	return func(c *Controller) { c.editor = e }
}

// NewController creates the session controller.
func NewController(eng engine.Engine, iso Isolator, st store.Store, log *zap.Logger, opts ...Option) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Controller{
		eng:   eng,
		iso:   iso,
		st:    st,
		log:   log,
		clk:   clock.New(),
		state: newSessionState(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartFight begins a new arena session. The loadout is deep-copied so
// later edits to the stored version cannot touch the in-flight session.
// Returns immediately; the engine finishes run construction over its own
// future ticks and reports progress through callbacks.
func (c *Controller) StartFight(l *models.Loadout, encounterID string, origin Origin) error {
	if c.state.Phase != PhaseNone && c.state.Phase != PhaseResolved {
		return &PhaseError{Op: "start fight", Phase: c.state.Phase}
	}
	if err := catalog.Validate(l); err != nil {
		return err
	}
	if err := catalog.ValidateEncounter(encounterID); err != nil {
		return err
	}

	// Hand-off from a resolved fight: the finished session still holds the
	// save, so release it before the new one begins. Validation above runs
	// first; a bad loadout must not cost the resolved session.
	if c.state.Phase == PhaseResolved {
		if err := c.eng.TeardownRun(); err != nil {
			c.log.Error("engine teardown failed on session hand-off", zap.Error(err))
		}
		if err := c.iso.End(); err != nil {
			return fmt.Errorf("start fight: %w", err)
		}
		c.state = newSessionState()
	}

	sessionID := ulid.Make().String()
	if err := c.iso.Begin(sessionID); err != nil {
		return fmt.Errorf("start fight: %w", err)
	}

	working := l.Clone()
	c.state = newSessionState()
	c.state.Phase = PhaseLoadoutPending
	c.state.Origin = origin
	c.state.SessionID = sessionID
	c.state.Loadout = working
	c.state.EncounterID = encounterID

	c.log.Info("arena session started",
		zap.String("session_id", sessionID),
		zap.String("loadout_id", working.ID),
		zap.String("encounter_id", encounterID),
		zap.String("origin", string(origin)))

	if err := c.beginEngineRun(); err != nil {
		return err
	}
	return nil
}

// beginEngineRun issues the begin-run command with the reentrancy guard up:
// any room-entered hook the engine fires synchronously from inside the
// command is ignored, and the loadout is applied on a later tick instead.
func (c *Controller) beginEngineRun() error {
	c.starting = true
	err := c.eng.BeginRun(c.state.Loadout)
	c.starting = false
	if err != nil {
		c.abortSession("engine refused to begin run", err)
		return fmt.Errorf("begin engine run: %w", err)
	}
	return nil
}

// abortSession forces the session back to NONE after a host-engine failure.
// Isolation teardown is never skipped, whatever else went wrong.
func (c *Controller) abortSession(reason string, cause error) {
	c.log.Error("aborting arena session",
		zap.String("reason", reason),
		zap.String("session_id", c.state.SessionID),
		zap.Error(cause))
	if err := c.iso.End(); err != nil {
		c.log.Error("isolation teardown failed during abort", zap.Error(err))
	}
	if err := c.eng.TeardownRun(); err != nil {
		c.log.Error("engine teardown failed during abort", zap.Error(err))
	}
	c.state = newSessionState()
}

// OnEngineRunInitialized marks the engine's acknowledgement of the begin-run
// command.
func (c *Controller) OnEngineRunInitialized() {
	if c.state.Phase != PhaseLoadoutPending {
		c.logUnexpected("run initialized")
		return
	}
	c.state.Phase = PhaseAwaitingEngineInit
}

// OnEngineRoomEntered fires on every room-entered hook, arena session or
// not. It applies the working loadout exactly once: the phase check makes a
// second firing a no-op, so cards and relics are never duplicated.
func (c *Controller) OnEngineRoomEntered() {
	if c.starting {
		// Synchronous dispatch from inside our own begin-run command; the
		// engine will fire again on a normal tick.
		c.log.Debug("room entered during begin-run dispatch, deferring")
		return
	}
	if c.state.Phase != PhaseLoadoutPending && c.state.Phase != PhaseAwaitingEngineInit {
		if c.state.Phase != PhaseNone {
			c.logUnexpected("room entered")
		}
		return
	}

	if err := c.eng.ApplyLoadout(c.state.Loadout); err != nil {
		c.abortSession("loadout application failed", err)
		return
	}
	if err := c.eng.ForceEncounter(c.state.EncounterID); err != nil {
		c.abortSession("encounter override failed", err)
		return
	}

	c.state.resetCombatTracking()
	c.state.RunInProgress = true
	c.state.Phase = PhaseInCombat
	c.persistRunStart()

	c.log.Info("arena combat started",
		zap.String("session_id", c.state.SessionID),
		zap.String("encounter_id", c.state.EncounterID))
}

// persistRunStart records the run as IN_PROGRESS. A repository failure is
// logged and the fight continues without history; gameplay never blocks on
// persistence.
func (c *Controller) persistRunStart() {
	rec := &models.RunRecord{
		LoadoutID:     c.state.Loadout.ID,
		SessionID:     c.state.SessionID,
		EncounterID:   c.state.EncounterID,
		EncounterName: c.state.EncounterID,
		Outcome:       models.OutcomeInProgress,
		ContentHash:   c.state.Loadout.ComputeContentHash(),
		StartedAt:     c.clk.Now().UTC(),
	}
	if err := c.st.SaveRun(context.Background(), rec); err != nil {
		c.log.Error("run record not persisted", zap.Error(err))
		c.state.RunID = ""
		return
	}
	c.state.RunID = rec.ID
}

// OnCombatEnded finalizes the fight. Perfection comes from the explicit
// damage flag, not an HP delta: end-of-combat healing can mask damage that
// was actually taken.
func (c *Controller) OnCombatEnded(victory bool) {
	if c.state.Phase != PhaseInCombat {
		c.logUnexpected("combat ended")
		return
	}

	c.state.Victory = victory
	c.state.Perfect = victory && !c.state.TookDamageThisCombat
	c.state.RunInProgress = false
	c.state.Phase = PhaseResolved

	outcome := models.OutcomeLoss
	if victory {
		outcome = models.OutcomeWin
	}
	if c.state.RunID != "" {
		stats := models.RunStats{
			Perfect:     c.state.Perfect,
			TurnsTaken:  c.state.TurnsTaken,
			DamageDealt: c.state.DamageDealt,
			DamageTaken: c.state.DamageTaken,
			PotionsUsed: c.state.PotionsUsed,
		}
		if err := c.st.UpdateRunOutcome(context.Background(), c.state.RunID, outcome, stats); err != nil {
			c.log.Error("run outcome not persisted", zap.Error(err))
		}
	}

	c.log.Info("arena combat resolved",
		zap.String("session_id", c.state.SessionID),
		zap.String("outcome", string(outcome)),
		zap.Bool("perfect", c.state.Perfect),
		zap.Int("damage_taken", c.state.DamageTaken))
}

// RecordDamageTaken tracks unblocked damage to the player; legal only in
// combat, a no-op otherwise.
func (c *Controller) RecordDamageTaken(amount int) {
	if c.state.Phase != PhaseInCombat || amount <= 0 {
		return
	}
	c.state.TookDamageThisCombat = true
	c.state.DamageTaken += amount
}

// RecordDamageDealt tracks damage to monsters; a no-op outside combat.
func (c *Controller) RecordDamageDealt(amount int) {
	if c.state.Phase != PhaseInCombat || amount <= 0 {
		return
	}
	c.state.DamageDealt += amount
}

// RecordTurnEnded tracks player turns; a no-op outside combat.
func (c *Controller) RecordTurnEnded() {
	if c.state.Phase != PhaseInCombat {
		return
	}
	c.state.TurnsTaken++
}

// RecordPotionUsed tracks potion use; a no-op outside combat since potion
// hooks also fire during normal (non-arena) play.
func (c *Controller) RecordPotionUsed(id string) {
	if c.state.Phase != PhaseInCombat {
		return
	}
	c.state.PotionsUsed = append(c.state.PotionsUsed, id)
}

// RequestReturn ends the session and routes the player out. Legal from
// RESOLVED, or from IN_COMBAT as a mid-fight abandon; an abandoned run stays
// IN_PROGRESS in the store and is purged before history reads.
func (c *Controller) RequestReturn(dest Destination) error {
	if c.state.Phase != PhaseResolved && c.state.Phase != PhaseInCombat {
		return &PhaseError{Op: "return", Phase: c.state.Phase}
	}

	screen := c.resolveScreen(dest)
	sessionID := c.state.SessionID

	isoErr := c.iso.End()
	c.state = newSessionState()
	if err := c.eng.TeardownRun(); err != nil {
		c.log.Error("engine teardown failed on return", zap.Error(err))
	}
	if err := c.eng.ShowScreen(screen, nil); err != nil {
		c.log.Error("screen navigation failed on return", zap.Error(err))
	}
	if isoErr != nil {
		return fmt.Errorf("return from session %s: %w", sessionID, isoErr)
	}

	c.log.Info("arena session ended",
		zap.String("session_id", sessionID),
		zap.String("screen", string(screen)))
	return nil
}

func (c *Controller) resolveScreen(dest Destination) engine.Screen {
	switch dest {
	case DestinationMenu:
		return engine.ScreenMainMenu
	case DestinationResume:
		return engine.ScreenResumeRun
	default:
		if c.state.Origin == OriginPauseDuringNormalRun {
			return engine.ScreenResumeRun
		}
		return engine.ScreenMainMenu
	}
}

// RestartCurrentFight tears the run down and immediately restarts with the
// same loadout and encounter. Isolation stays active and the phase goes
// straight back to LOADOUT_PENDING: no observer ever sees NONE in between,
// so there is no window where a save write could slip past the block.
func (c *Controller) RestartCurrentFight() error {
	if c.state.Phase != PhaseResolved && c.state.Phase != PhaseInCombat {
		return &PhaseError{Op: "restart", Phase: c.state.Phase}
	}

	if err := c.eng.TeardownRun(); err != nil {
		c.abortSession("engine teardown failed on restart", err)
		return fmt.Errorf("restart: %w", err)
	}

	c.state.resetCombatTracking()
	c.state.RunInProgress = false
	c.state.RunID = ""
	c.state.Phase = PhaseLoadoutPending

	c.log.Info("arena fight restarting",
		zap.String("session_id", c.state.SessionID),
		zap.String("encounter_id", c.state.EncounterID))

	return c.beginEngineRun()
}

// ModifyDeckAndRetry routes the working loadout through the configured
// editor, then restarts with the edited copy using the same atomic pattern
// as RestartCurrentFight.
func (c *Controller) ModifyDeckAndRetry() error {
	if c.state.Phase != PhaseResolved && c.state.Phase != PhaseInCombat {
		return &PhaseError{Op: "retry with edits", Phase: c.state.Phase}
	}
	if c.editor == nil {
		return ErrNoEditor
	}

	edited, err := c.editor.Edit(c.state.Loadout.Clone())
	if err != nil {
		return fmt.Errorf("edit loadout: %w", err)
	}
	if err := catalog.Validate(edited); err != nil {
		return err
	}
	c.state.Loadout = edited
	return c.RestartCurrentFight()
}

// OnMainMenuShown is the safety net: if the engine reached the title screen
// while a session is still active, something bypassed RequestReturn, and
// leaving isolation in place would strand the real save in the backup.
func (c *Controller) OnMainMenuShown() {
	if c.state.Phase == PhaseNone {
		return
	}
	c.log.Warn("main menu constructed with session still active, forcing cleanup",
		zap.String("session_id", c.state.SessionID),
		zap.String("phase", string(c.state.Phase)))
	if err := c.iso.End(); err != nil {
		c.log.Error("isolation teardown failed in cleanup", zap.Error(err))
	}
	c.state = newSessionState()
}

func (c *Controller) logUnexpected(event string) {
	c.log.Warn("callback ignored in current phase",
		zap.String("event", event),
		zap.String("phase", string(c.state.Phase)))
}

// IsSessionActive reports whether a session exists (phase is not NONE).
func (c *Controller) IsSessionActive() bool {
	return c.state.Phase != PhaseNone
}

// CurrentPhase returns the session phase.
func (c *Controller) CurrentPhase() Phase {
	return c.state.Phase
}

// CurrentEncounterID returns the target encounter of the active session, or
// "" when none is active.
func (c *Controller) CurrentEncounterID() string {
	return c.state.EncounterID
}

// CurrentLoadoutID returns the source loadout id of the active session, or
// "" when none is active.
func (c *Controller) CurrentLoadoutID() string {
	if c.state.Loadout == nil {
		return ""
	}
	return c.state.Loadout.ID
}

// OriginWasNormalRun reports whether the session interrupted a normal run.
func (c *Controller) OriginWasNormalRun() bool {
	return c.state.Origin == OriginPauseDuringNormalRun
}

// LastOutcome returns the victory and perfect flags of the last resolved
// combat; ok is false unless the phase is RESOLVED.
func (c *Controller) LastOutcome() (victory, perfect, ok bool) {
	if c.state.Phase != PhaseResolved {
		return false, false, false
	}
	return c.state.Victory, c.state.Perfect, true
}
