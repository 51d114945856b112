package catalog

import (
	"fmt"
	"strings"

	"github.com/stsarena/arena/internal/models"
)

// Deck and relic bounds used by random generation.
const (
	MinDeckSize = 15
	MaxDeckSize = 25
	MinRelics   = 5
	MaxRelics   = 10

	UpgradeChance = 0.4
)

// EncounterKind classifies an encounter within its act.
type EncounterKind string

const (
	KindNormal EncounterKind = "normal"
	KindElite  EncounterKind = "elite"
	KindBoss   EncounterKind = "boss"
)

// Encounter is one fightable monster group.
type Encounter struct {
	ID   string
	Act  int
	Kind EncounterKind
}

// Encounters lists every fightable encounter, in act order. IDs are the
// engine's internal encounter keys and double as display names.
var Encounters = []Encounter{
	{"Cultist", 1, KindNormal},
	{"Jaw Worm", 1, KindNormal},
	{"2 Louse", 1, KindNormal},
	{"Small Slimes", 1, KindNormal},
	{"Blue Slaver", 1, KindNormal},
	{"Gremlin Gang", 1, KindNormal},
	{"Looter", 1, KindNormal},
	{"Large Slime", 1, KindNormal},
	{"Lots of Slimes", 1, KindNormal},
	{"Exordium Thugs", 1, KindNormal},
	{"Exordium Wildlife", 1, KindNormal},
	{"Red Slaver", 1, KindNormal},
	{"3 Louse", 1, KindNormal},
	{"2 Fungi Beasts", 1, KindNormal},
	{"Gremlin Nob", 1, KindElite},
	{"Lagavulin", 1, KindElite},
	{"3 Sentries", 1, KindElite},
	{"The Guardian", 1, KindBoss},
	{"Hexaghost", 1, KindBoss},
	{"Slime Boss", 1, KindBoss},
	{"Chosen", 2, KindNormal},
	{"Shell Parasite", 2, KindNormal},
	{"Spheric Guardian", 2, KindNormal},
	{"3 Byrds", 2, KindNormal},
	{"2 Thieves", 2, KindNormal},
	{"Chosen and Byrds", 2, KindNormal},
	{"Sentry and Sphere", 2, KindNormal},
	{"Snake Plant", 2, KindNormal},
	{"Snecko", 2, KindNormal},
	{"Centurion and Healer", 2, KindNormal},
	{"Cultist and Chosen", 2, KindNormal},
	{"3 Cultists", 2, KindNormal},
	{"Shelled Parasite and Fungi", 2, KindNormal},
	{"Gremlin Leader", 2, KindElite},
	{"Slavers", 2, KindElite},
	{"Book of Stabbing", 2, KindElite},
	{"Automaton", 2, KindBoss},
	{"Collector", 2, KindBoss},
	{"Champ", 2, KindBoss},
	{"3 Darklings", 3, KindNormal},
	{"Orb Walker", 3, KindNormal},
	{"3 Shapes", 3, KindNormal},
	{"Spire Growth", 3, KindNormal},
	{"Transient", 3, KindNormal},
	{"4 Shapes", 3, KindNormal},
	{"Maw", 3, KindNormal},
	{"Jaw Worm Horde", 3, KindNormal},
	{"Sphere and 2 Shapes", 3, KindNormal},
	{"Writhing Mass", 3, KindNormal},
	{"Giant Head", 3, KindElite},
	{"Nemesis", 3, KindElite},
	{"Reptomancer", 3, KindElite},
	{"Awakened One", 3, KindBoss},
	{"Time Eater", 3, KindBoss},
	{"Donu and Deca", 3, KindBoss},
	{"Shield and Spear", 4, KindElite},
	{"The Heart", 4, KindBoss},
}

var encounterIndex = func() map[string]Encounter {
	m := make(map[string]Encounter, len(Encounters))
	for _, e := range Encounters {
		m[e.ID] = e
	}
	return m
}()

// EncounterByID looks up an encounter by its engine key.
func EncounterByID(id string) (Encounter, bool) {
	e, ok := encounterIndex[id]
	return e, ok
}

// classCards maps each class to its obtainable card pool, starters included.
var classCards = map[models.CharacterClass][]string{
	models.ClassIronclad: {
		"Strike_R", "Defend_R", "Bash", "Anger", "Body Slam", "Clash", "Cleave",
		"Clothesline", "Headbutt", "Heavy Blade", "Iron Wave", "Perfected Strike",
		"Pommel Strike", "Sword Boomerang", "Thunderclap", "Twin Strike", "Wild Strike",
		"Armaments", "Flex", "Havoc", "Shrug It Off", "True Grit", "Warcry",
		"Battle Trance", "Blood for Blood", "Carnage", "Dropkick", "Hemokinesis",
		"Pummel", "Rampage", "Reckless Charge", "Searing Blow", "Uppercut", "Whirlwind",
		"Bloodletting", "Burning Pact", "Disarm", "Dual Wield", "Entrench", "Flame Barrier",
		"Ghostly Armor", "Infernal Blade", "Intimidate", "Power Through", "Rage",
		"Second Wind", "Seeing Red", "Sentinel", "Shockwave", "Spot Weakness",
		"Combust", "Dark Embrace", "Evolve", "Feel No Pain", "Fire Breathing",
		"Inflame", "Metallicize", "Rupture", "Bludgeon", "Feed", "Fiend Fire",
		"Immolate", "Impervious", "Limit Break", "Offering", "Reaper",
		"Barricade", "Berserk", "Brutality", "Corruption", "Demon Form", "Double Tap",
		"Exhume", "Juggernaut",
	},
	models.ClassSilent: {
		"Strike_G", "Defend_G", "Neutralize", "Survivor", "Bane", "Dagger Spray",
		"Dagger Throw", "Flying Knee", "Poisoned Stab", "Quick Slash", "Slice",
		"Sneaky Strike", "Sucker Punch", "Acrobatics", "Backflip", "Blade Dance",
		"Cloak and Dagger", "Deadly Poison", "Deflect", "Dodge and Roll", "Outmaneuver",
		"Piercing Wail", "Prepared", "All-Out Attack", "Backstab", "Choke", "Dash",
		"Endless Agony", "Eviscerate", "Finisher", "Flechettes", "Heel Hook",
		"Masterful Stab", "Predator", "Riddle with Holes", "Skewer", "Blur",
		"Bouncing Flask", "Calculated Gamble", "Catalyst", "Concentrate", "Crippling Cloud",
		"Distraction", "Escape Plan", "Expertise", "Leg Sweep", "Reflex", "Setup",
		"Tactician", "Terror", "Accuracy", "Caltrops", "Footwork", "Infinite Blades",
		"Noxious Fumes", "Well-Laid Plans", "Die Die Die", "Doppelganger", "Grand Finale",
		"Malaise", "Nightmare", "Phantasmal Killer", "Storm of Steel", "Unload",
		"A Thousand Cuts", "After Image", "Burst", "Corpse Explosion", "Envenom",
		"Tools of the Trade", "Wraith Form",
	},
	models.ClassDefect: {
		"Strike_B", "Defend_B", "Zap", "Dualcast", "Ball Lightning", "Barrage",
		"Beam Cell", "Claw", "Cold Snap", "Compile Driver", "Go for the Eyes",
		"Rebound", "Streamline", "Sweeping Beam", "Charge Battery", "Coolheaded",
		"Hologram", "Leap", "Recursion", "Stack", "Steam Barrier", "TURBO",
		"Blizzard", "Bullseye", "Doom and Gloom", "FTL", "Melter", "Rip and Tear",
		"Scrape", "Sunder", "Aggregate", "Auto-Shields", "Boot Sequence", "Chaos",
		"Chill", "Consume", "Darkness", "Double Energy", "Equilibrium", "Force Field",
		"Fusion", "Genetic Algorithm", "Glacier", "Overclock", "Recycle", "Reinforced Body",
		"Reprogram", "Skim", "Tempest", "White Noise", "Capacitor", "Defragment",
		"Heatsinks", "Hello World", "Loop", "Self Repair", "Static Discharge",
		"Storm", "All for One", "Amplify", "Core Surge", "Fission", "Hyperbeam",
		"Meteor Strike", "Multi-Cast", "Rainbow", "Reboot", "Seek", "Thunder Strike",
		"Biased Cognition", "Buffer", "Creative AI", "Echo Form", "Electrodynamics",
		"Machine Learning",
	},
	models.ClassWatcher: {
		"Strike_P", "Defend_P", "Eruption", "Vigilance", "Bowling Bash", "Consecrate",
		"Crush Joints", "Cut Through Fate", "Empty Fist", "Flurry of Blows",
		"Flying Sleeves", "Follow-Up", "Just Lucky", "Sash Whip", "Crescendo",
		"Empty Body", "Evaluate", "Halt", "Pressure Points", "Prostrate", "Protect",
		"Third Eye", "Tranquility", "Carve Reality", "Conclude", "Fear No Evil",
		"Reach Heaven", "Sands of Time", "Signature Move", "Talk to the Hand",
		"Tantrum", "Wallop", "Weave", "Wheel Kick", "Windmill Strike", "Collect",
		"Deceive Reality", "Empty Mind", "Foreign Influence", "Indignation",
		"Inner Peace", "Meditate", "Perseverance", "Pray", "Sanctity", "Simmering Fury",
		"Swivel", "Wave of the Hand", "Worship", "Wreath of Flame", "Battle Hymn",
		"Fasting", "Foresight", "Like Water", "Mental Fortress", "Nirvana", "Rushdown",
		"Study", "Brilliance", "Conjure Blade", "Deus Ex Machina", "Judgment",
		"Lesson Learned", "Ragnarok", "Scrawl", "Vault", "Alpha", "Blasphemy",
		"Deva Form", "Devotion", "Establishment", "Master Reality", "Omniscience",
		"Spirit Shield",
	},
}

// relics every class may carry.
var sharedRelics = []string{
	"Anchor", "Ancient Tea Set", "Art of War", "Bag of Marbles", "Bag of Preparation",
	"Blood Vial", "Bronze Scales", "Centennial Puzzle", "Ceramic Fish", "Dream Catcher",
	"Happy Flower", "Juzu Bracelet", "Lantern", "Maw Bank", "Meal Ticket", "Nunchaku",
	"Oddly Smooth Stone", "Omamori", "Orichalcum", "Pen Nib", "Potion Belt",
	"Preserved Insect", "Regal Pillow", "Smiling Mask", "Strawberry", "The Boot",
	"Tiny Chest", "Toy Ornithopter", "Vajra", "War Paint", "Whetstone", "Blue Candle",
	"Bottled Flame", "Bottled Lightning", "Bottled Tornado", "Darkstone Periapt",
	"Eternal Feather", "Frozen Egg 2", "Gremlin Horn", "Horn Cleat", "Ink Bottle",
	"Kunai", "Letter Opener", "Matryoshka", "Meat on the Bone", "Mercury Hourglass",
	"Molten Egg 2", "Mummified Hand", "Ornamental Fan", "Pantograph", "Pear",
	"Question Card", "Shuriken", "Singing Bowl", "Strike Dummy", "Sundial",
	"The Courier", "Toxic Egg 2", "Bird Faced Urn", "Calipers", "Captains Wheel",
	"Dead Branch", "Du-Vu Doll", "Fossilized Helix", "Gambling Chip", "Ginger",
	"Girya", "Ice Cream", "Incense Burner", "Lizard Tail", "Mango", "Old Coin",
	"Peace Pipe", "Pocketwatch", "Prayer Wheel", "Shovel", "StoneCalendar",
	"Thread and Needle", "Torii", "Tungsten Rod", "Turnip", "Unceasing Top",
	"WingedGreaves", "Prismatic Shard",
}

// starterRelics maps each class to its starting relic.
var starterRelics = map[models.CharacterClass]string{
	models.ClassIronclad: "Burning Blood",
	models.ClassSilent:   "Ring of the Snake",
	models.ClassDefect:   "Cracked Core",
	models.ClassWatcher:  "PureWater",
}

// classRelics maps each class to its class-specific relic pool.
var classRelics = map[models.CharacterClass][]string{
	models.ClassIronclad: {"Red Skull", "Self Forming Clay", "Paper Frog", "Champion Belt", "Charons Ashes", "Magic Flower", "Brimstone", "Mark of Pain", "Runic Cube"},
	models.ClassSilent:   {"Snake Skull", "Paper Crane", "The Specimen", "Tingsha", "Tough Bandages", "Twisted Funnel", "Wrist Blade", "Hovering Kite"},
	models.ClassDefect:   {"Data Disk", "Symbiotic Virus", "Gold-Plated Cables", "Emotion Chip", "Runic Capacitor", "Frozen Core", "Inserter", "Nuclear Battery"},
	models.ClassWatcher:  {"Damaru", "Teardrop Locket", "Cloak Clasp", "Golden Eye", "Melange", "Violet Lotus", "Duality"},
}

// potions available to every class.
var potions = []string{
	"Block Potion", "Dexterity Potion", "Energy Potion", "Explosive Potion",
	"Fire Potion", "Strength Potion", "Swift Potion", "Weak Potion", "FearPotion",
	"AttackPotion", "SkillPotion", "PowerPotion", "ColorlessPotion", "SteroidPotion",
	"SpeedPotion", "BlessingOfTheForge", "Poison Potion", "CultistPotion",
	"Ambrosia", "Regen Potion", "Ancient Potion", "LiquidBronze", "GamblersBrew",
	"EssenceOfSteel", "DuplicationPotion", "DistilledChaos", "LiquidMemories",
	"HeartOfIron", "GhostInAJar", "EssenceOfDarkness", "BottledMiracle",
	"FocusPotion", "SmokeBomb", "SneckoOil", "FairyPotion", "CunningPotion",
	"PotionOfCapacity", "StancePotion", "EntropicBrew", "Fruit Juice",
}

var cardIndex = func() map[models.CharacterClass]map[string]bool {
	m := make(map[models.CharacterClass]map[string]bool, len(classCards))
	for class, cards := range classCards {
		set := make(map[string]bool, len(cards))
		for _, id := range cards {
			set[id] = true
		}
		m[class] = set
	}
	return m
}()

var relicIndex = func() map[string]bool {
	set := make(map[string]bool, len(sharedRelics))
	for _, id := range sharedRelics {
		set[id] = true
	}
	for _, id := range starterRelics {
		set[id] = true
	}
	for _, pool := range classRelics {
		for _, id := range pool {
			set[id] = true
		}
	}
	return set
}()

var potionIndex = func() map[string]bool {
	set := make(map[string]bool, len(potions))
	for _, id := range potions {
		set[id] = true
	}
	return set
}()

// KnownCard reports whether id is in the given class's card pool.
func KnownCard(class models.CharacterClass, id string) bool {
	return cardIndex[class][id]
}

// KnownRelic reports whether id is a known relic.
func KnownRelic(id string) bool { return relicIndex[id] }

// KnownPotion reports whether id is a known potion.
func KnownPotion(id string) bool { return potionIndex[id] }

// StarterRelic returns the class's starting relic id.
func StarterRelic(class models.CharacterClass) string { return starterRelics[class] }

// BaseMaxHP returns the class's base maximum HP.
func BaseMaxHP(class models.CharacterClass) int {
	switch class {
	case models.ClassIronclad:
		return 80
	case models.ClassSilent:
		return 70
	case models.ClassDefect:
		return 75
	case models.ClassWatcher:
		return 72
	default:
		return 75
	}
}

// CardPool returns the card pool for a class.
func CardPool(class models.CharacterClass) []string { return classCards[class] }

// RelicPool returns the shared + class-specific relic pool for a class.
func RelicPool(class models.CharacterClass) []string {
	pool := make([]string, 0, len(sharedRelics)+len(classRelics[class]))
	pool = append(pool, sharedRelics...)
	pool = append(pool, classRelics[class]...)
	return pool
}

// PotionPool returns the potion pool.
func PotionPool() []string { return potions }

// ConfigurationError reports a loadout referencing ids the catalog does not
// know. A loadout carrying one must be rejected before a session starts.
type ConfigurationError struct {
	UnknownCards      []string
	UnknownRelics     []string
	UnknownPotions    []string
	UnknownEncounter  string
	UnknownClass      models.CharacterClass
	OutOfRangeReasons []string
}

func (e *ConfigurationError) Error() string {
	var parts []string
	if e.UnknownClass != "" {
		parts = append(parts, fmt.Sprintf("unknown class %q", e.UnknownClass))
	}
	if len(e.UnknownCards) > 0 {
		parts = append(parts, "unknown cards: "+strings.Join(e.UnknownCards, ", "))
	}
	if len(e.UnknownRelics) > 0 {
		parts = append(parts, "unknown relics: "+strings.Join(e.UnknownRelics, ", "))
	}
	if len(e.UnknownPotions) > 0 {
		parts = append(parts, "unknown potions: "+strings.Join(e.UnknownPotions, ", "))
	}
	if e.UnknownEncounter != "" {
		parts = append(parts, fmt.Sprintf("unknown encounter %q", e.UnknownEncounter))
	}
	parts = append(parts, e.OutOfRangeReasons...)
	return "invalid loadout: " + strings.Join(parts, "; ")
}

// Validate checks every id a loadout references against the catalog. A nil
// return means the loadout is safe to hand to the engine.
func Validate(l *models.Loadout) error {
	cfgErr := &ConfigurationError{}

	if _, ok := cardIndex[l.CharacterClass]; !ok {
		cfgErr.UnknownClass = l.CharacterClass
	} else {
		for _, c := range l.Deck {
			if !KnownCard(l.CharacterClass, c.ID) {
				cfgErr.UnknownCards = append(cfgErr.UnknownCards, c.ID)
			}
		}
	}
	for _, r := range l.Relics {
		if !KnownRelic(r.ID) {
			cfgErr.UnknownRelics = append(cfgErr.UnknownRelics, r.ID)
		}
	}
	for _, p := range l.Potions {
		if !KnownPotion(p) {
			cfgErr.UnknownPotions = append(cfgErr.UnknownPotions, p)
		}
	}
	if l.MaxHP <= 0 || l.CurrentHP <= 0 || l.CurrentHP > l.MaxHP {
		cfgErr.OutOfRangeReasons = append(cfgErr.OutOfRangeReasons,
			fmt.Sprintf("hp out of range (%d/%d)", l.CurrentHP, l.MaxHP))
	}
	if l.AscensionLevel < 0 || l.AscensionLevel > 20 {
		cfgErr.OutOfRangeReasons = append(cfgErr.OutOfRangeReasons,
			fmt.Sprintf("ascension level out of range (%d)", l.AscensionLevel))
	}

	if cfgErr.UnknownClass != "" || len(cfgErr.UnknownCards) > 0 || len(cfgErr.UnknownRelics) > 0 ||
		len(cfgErr.UnknownPotions) > 0 || len(cfgErr.OutOfRangeReasons) > 0 {
		return cfgErr
	}
	return nil
}

// ValidateEncounter checks that the encounter id exists.
func ValidateEncounter(id string) error {
	if _, ok := EncounterByID(id); !ok {
		return &ConfigurationError{UnknownEncounter: id}
	}
	return nil
}
