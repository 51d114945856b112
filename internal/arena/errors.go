package arena

import (
	"errors"
	"fmt"
)

// ErrNoEditor is returned by ModifyDeckAndRetry when no loadout editor was
// configured.
var ErrNoEditor = errors.New("no loadout editor configured")

// PhaseError reports a UI-invoked operation attempted in a phase that does
// not allow it. Host-engine callbacks never produce one; they log and
// ignore instead.
type PhaseError struct {
	Op    string
	Phase Phase
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s not allowed in phase %s", e.Op, e.Phase)
}
