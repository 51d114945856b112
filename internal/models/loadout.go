package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// CharacterClass identifies the playable archetype a loadout belongs to.
type CharacterClass string

const (
	ClassIronclad CharacterClass = "IRONCLAD"
	ClassSilent   CharacterClass = "THE_SILENT"
	ClassDefect   CharacterClass = "DEFECT"
	ClassWatcher  CharacterClass = "WATCHER"
)

// AllClasses lists every playable class, in select-screen order.
var AllClasses = []CharacterClass{ClassIronclad, ClassSilent, ClassDefect, ClassWatcher}

// CardSpec is one deck entry: a card id plus its upgrade count.
type CardSpec struct {
	ID       string `json:"id" yaml:"id"`
	Upgrades int    `json:"upgrades" yaml:"upgrades,omitempty"`
}

// RelicSpec is one relic entry. Counter is -1 when the relic has no counter,
// matching the game's convention (Pen Nib, Nunchaku etc. use >= 0).
type RelicSpec struct {
	ID      string `json:"id" yaml:"id"`
	Counter int    `json:"counter" yaml:"counter,omitempty"`
}

// Loadout is a named, persisted snapshot of deck + relics + potions + HP +
// ascension usable to start an arena fight. Sessions never hold a Loadout
// directly; they work on a Clone so later edits cannot mutate an in-flight
// session.
type Loadout struct {
	ID             string         `yaml:"id,omitempty"`
	Name           string         `yaml:"name"`
	CharacterClass CharacterClass `yaml:"character_class"`
	AscensionLevel int            `yaml:"ascension_level"`
	MaxHP          int            `yaml:"max_hp"`
	CurrentHP      int            `yaml:"current_hp"`
	Deck           []CardSpec     `yaml:"deck"`
	Relics         []RelicSpec    `yaml:"relics"`
	Potions        []string       `yaml:"potions"`
	PotionSlots    int            `yaml:"potion_slots"`
	Favorite       bool           `yaml:"favorite,omitempty"`
	ContentHash    string         `yaml:"-"`
	CreatedAt      time.Time      `yaml:"-"`
	UpdatedAt      time.Time      `yaml:"-"`
}

// Clone returns a deep copy. The controller forks a session's working loadout
// through this so a stored loadout and a live session can never share slices.
func (l *Loadout) Clone() *Loadout {
	c := *l
	c.Deck = make([]CardSpec, len(l.Deck))
	copy(c.Deck, l.Deck)
	c.Relics = make([]RelicSpec, len(l.Relics))
	copy(c.Relics, l.Relics)
	c.Potions = make([]string, len(l.Potions))
	copy(c.Potions, l.Potions)
	return &c
}

// ComputeContentHash returns a short hash over deck|relics|potions. Run
// records snapshot it so history can tell which revision of a loadout
// produced a result.
func (l *Loadout) ComputeContentHash() string {
	deck, _ := json.Marshal(l.Deck)
	relics, _ := json.Marshal(l.Relics)
	potions, _ := json.Marshal(l.Potions)

	h := sha256.New()
	h.Write(deck)
	h.Write([]byte("|"))
	h.Write(relics)
	h.Write([]byte("|"))
	h.Write(potions)
	return hex.EncodeToString(h.Sum(nil))[:16]
}
