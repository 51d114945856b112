// Package engine defines the boundary to the host game engine: the commands
// the session controller issues, the inbound events the adapter translates,
// and the guarded writer that enforces the save write-block.
package engine

import "github.com/stsarena/arena/internal/models"

// Screen identifies a host-engine screen the controller can request.
type Screen string

const (
	// ScreenMainMenu returns the player to the title screen.
	ScreenMainMenu Screen = "MAIN_MENU"
	// ScreenResumeRun resumes the normal run that was paused to enter the
	// arena.
	ScreenResumeRun Screen = "RESUME_RUN"
	// ScreenDefeat shows the arena defeat screen with retry options.
	ScreenDefeat Screen = "ARENA_DEFEAT"
)

// Engine is the outbound command surface of the host game engine. All calls
// return immediately; the engine completes them over its own future update
// ticks, and progress is reported back through Events.
type Engine interface {
	// BeginRun asks the engine to start a fresh run for the loadout's
	// character class. The loadout itself is applied later, once the run
	// reaches its first room.
	BeginRun(l *models.Loadout) error

	// ApplyLoadout overwrites the live player state (HP, deck, relics,
	// potions) with the loadout's contents.
	ApplyLoadout(l *models.Loadout) error

	// ForceEncounter replaces the current room's encounter with the given
	// one.
	ForceEncounter(encounterID string) error

	// TeardownRun abandons the current run without recording it as a normal
	// game over.
	TeardownRun() error

	// ShowScreen navigates to the given screen.
	ShowScreen(s Screen, params map[string]string) error
}
