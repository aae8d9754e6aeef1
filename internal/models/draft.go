// internal/models/draft.go
package models

// Phase values for GameState.Phase. The draft moves strictly forward through
// these except for the custom-UU subphase, which is flagged on GameState
// rather than encoded as a phase of its own.
const (
	PhaseLobby             = 0
	PhaseFlagCustomization = 1
	PhasePicking           = 2
	PhaseTreeEditing       = 3
	PhaseComplete          = 4
)

// Round type categories, drafted in this order. Category 0 runs
// Preset.Rounds rounds; the rest run one round each.
const (
	RoundCivBonus = iota
	RoundUniqueUnit
	RoundCastleTech
	RoundImperialTech
	RoundTeamBonus
	NumRoundTypes
)

// DefaultFlagPalette is colors x5, division, overlay, symbol.
var DefaultFlagPalette = []int{3, 4, 5, 6, 7, 3, 3, 3}

// DefaultTree is the starting tech tree selection: units, buildings, techs.
var DefaultTree = [][]int{
	{13, 17, 21, 74, 545, 539, 331, 125, 83, 128, 440},
	{12, 45, 49, 50, 68, 70, 72, 79, 82, 84, 87, 101, 103, 104, 109, 199, 209, 276, 562, 584, 598, 621, 792},
	{22, 101, 102, 103, 408},
}

// Preset is the immutable configuration chosen at draft creation.
type Preset struct {
	Slots  int `json:"slots"`
	Rounds int `json:"rounds"`
	Points int `json:"points"`

	// Rarities gates pool membership: a card joins a category deck only if
	// its rarity index is enabled here.
	Rarities []bool `json:"rarities"`

	// Cards optionally overrides the per-category hand size. Ignored unless
	// it has exactly NumRoundTypes entries.
	Cards []int `json:"cards,omitempty"`

	SnakeDraft   bool `json:"snake_draft"`
	CustomUUMode bool `json:"custom_uu_mode"`

	TimerEnabled  bool `json:"timer_enabled"`
	TimerDuration int  `json:"timer_duration"` // seconds per pick
}

// Player is one seat in the draft. Seat 0 is the host.
type Player struct {
	Name        string `json:"name"`
	Alias       string `json:"alias"`
	Description string `json:"description"`
	Ready       int    `json:"ready"`

	FlagPalette  []int `json:"flag_palette"`
	Architecture int   `json:"architecture"`
	Language     int   `json:"language"`
	Wonder       int   `json:"wonder"`
	Castle       int   `json:"castle"`

	// Tree is the accumulating tech tree selection: units, buildings, techs.
	Tree [][]int `json:"tree"`

	// Bonuses holds the drafted card ids, one list per round type category.
	Bonuses [][]int `json:"bonuses"`

	CustomUU *CustomUnit `json:"custom_uu"`

	CustomFlag     bool   `json:"customFlag,omitempty"`
	CustomFlagData string `json:"customFlagData,omitempty"`
}

// CustomUnit is a player-designed unique unit, present only when the preset
// enables custom-UU mode. The field set mirrors what the downstream mod
// builder consumes.
type CustomUnit struct {
	Type        string       `json:"type"`
	UnitType    string       `json:"unitType"`
	BaseUnit    int          `json:"baseUnit"`
	Name        string       `json:"name"`
	Health      int          `json:"health"`
	Attack      int          `json:"attack"`
	MeleeArmor  int          `json:"meleeArmor"`
	PierceArmor int          `json:"pierceArmor"`
	AttackSpeed float64      `json:"attackSpeed"`
	Speed       float64      `json:"speed"`
	Range       int          `json:"range"`
	Cost        ResourceCost `json:"cost"`
	TrainTime   int          `json:"trainTime"`
	LineOfSight int          `json:"lineOfSight"`
	HeroMode    bool         `json:"heroMode"`
}

type ResourceCost struct {
	Food  int `json:"food"`
	Wood  int `json:"wood"`
	Stone int `json:"stone"`
	Gold  int `json:"gold"`
}

// GameState is the mutable session state of a draft.
type GameState struct {
	Phase int `json:"phase"`
	Turn  int `json:"turn"`

	// Order is the base seating order, a permutation of seat indices drawn
	// when picking begins. Empty until then.
	Order []int `json:"order"`

	// Cards is the hand currently offered on the table; Deck holds the
	// undrawn pool per round type category.
	Cards []int   `json:"cards"`
	Deck  [][]int `json:"deck"`

	// Highlighted marks table indices refreshed by the last refill/clear so
	// clients can call them out.
	Highlighted []int `json:"highlighted"`

	CustomUUPhase bool `json:"custom_uu_phase"`

	// Timer state. TimerDeadline is the authoritative absolute deadline
	// (unix ms, 0 when unarmed); TimerRemaining and TimerLastUpdate are
	// derived and refreshed when a snapshot is published. When paused,
	// TimerRemaining holds the frozen remainder.
	TimerDeadline   int64   `json:"timer_deadline,omitempty"`
	TimerPaused     bool    `json:"timer_paused"`
	TimerRemaining  float64 `json:"timer_remaining"`
	TimerLastUpdate int64   `json:"timer_last_update,omitempty"`
}

// Draft is the aggregate root, serialized as a self-contained JSON document.
type Draft struct {
	ID        string    `json:"id"`
	Timestamp int64     `json:"timestamp"`
	Preset    Preset    `json:"preset"`
	Players   []*Player `json:"players"`
	Gamestate GameState `json:"gamestate"`
}

// HostSeat returns the seat index that owns host-gated operations.
func (d *Draft) HostSeat() int { return 0 }
