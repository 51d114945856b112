package models

import "time"

// RunOutcome is the recorded result of an arena run.
type RunOutcome string

const (
	OutcomeWin        RunOutcome = "WIN"
	OutcomeLoss       RunOutcome = "LOSS"
	OutcomeInProgress RunOutcome = "IN_PROGRESS"
)

// RunRecord is one arena fight. It is created when a session enters combat
// (outcome IN_PROGRESS) and finalized exactly once when combat ends. Records
// left IN_PROGRESS by a crash or an abandon are purged before history reads.
type RunRecord struct {
	ID            string
	LoadoutID     string
	SessionID     string
	EncounterID   string
	EncounterName string
	Outcome       RunOutcome
	Perfect       bool
	TurnsTaken    int
	DamageDealt   int
	DamageTaken   int
	PotionsUsed   []string
	ContentHash   string
	StartedAt     time.Time
	FinishedAt    *time.Time
}

// RunStats is the per-combat tally applied when a run is finalized.
type RunStats struct {
	Perfect     bool
	TurnsTaken  int
	DamageDealt int
	DamageTaken int
	PotionsUsed []string
}
