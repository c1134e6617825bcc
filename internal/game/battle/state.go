// Package battle implements the turn-based battle engine: the battle state
// model, damage calculation, boss phase escalation, action resolution and
// the staged turn machine that sequences them.
package battle

import (
	"github.com/google/uuid"

	"github.com/cory-johannsen/ascent/internal/game/effect"
	"github.com/cory-johannsen/ascent/internal/game/opponent"
)

// Side identifies one of the two combatants.
type Side int

const (
	Player Side = iota
	Opponent
)

// String returns "player" or "opponent".
func (s Side) String() string {
	if s == Player {
		return "player"
	}
	return "opponent"
}

// Other returns the opposing side.
func (s Side) Other() Side {
	if s == Player {
		return Opponent
	}
	return Player
}

// Phase is a boss escalation level. It only ever increases within a battle.
type Phase int

const (
	PhaseNormal Phase = iota
	Phase50
	Phase20
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case Phase50:
		return "phase50"
	case Phase20:
		return "phase20"
	default:
		return "normal"
	}
}

// OpponentKind distinguishes plain NPCs from bosses.
type OpponentKind int

const (
	PlainNPC OpponentKind = iota
	Boss
)

// Combatant is one side's HP, effects and one-shot turn flags.
//
// Invariant: 0 <= HP <= MaxHP.
type Combatant struct {
	HP      int
	MaxHP   int
	Effects *effect.Set
	// SkipNext suppresses the holder's next turn (chaos skip, lightning, stun).
	SkipNext bool
	// TripleDice makes the holder's next roll use three dice.
	TripleDice bool
}

func newCombatant(maxHP int) Combatant {
	return Combatant{HP: maxHP, MaxHP: maxHP, Effects: effect.NewSet()}
}

// Damage lowers HP by n, floored at 0, and returns the HP actually lost.
func (c *Combatant) Damage(n int) int {
	if n < 0 {
		n = 0
	}
	if n > c.HP {
		n = c.HP
	}
	c.HP -= n
	return n
}

// Heal raises HP by n, capped at MaxHP, and returns the HP actually gained.
func (c *Combatant) Heal(n int) int {
	if n < 0 {
		n = 0
	}
	if c.HP+n > c.MaxHP {
		n = c.MaxHP - c.HP
	}
	c.HP += n
	return n
}

// SetHP sets HP clamped to [0, MaxHP].
func (c *Combatant) SetHP(n int) {
	switch {
	case n < 0:
		c.HP = 0
	case n > c.MaxHP:
		c.HP = c.MaxHP
	default:
		c.HP = n
	}
}

// State is the single live battle. It is owned by one Engine and is not safe
// for concurrent use.
type State struct {
	ID         uuid.UUID
	Descriptor *opponent.Descriptor
	Kind       OpponentKind
	Player     Combatant
	Opponent   Combatant
	Turn       Side
	Phase      Phase
	// ChaosDie and EventDie are 1 until used, then 0 for the rest of the battle.
	ChaosDie int
	EventDie int
	// Selected is the attack item chosen for the next attack, or "".
	Selected string
	// PlayerRound and OpponentRound count each side's turns, starting at 1.
	PlayerRound   int
	OpponentRound int
	Log           []string
}

func newState(desc *opponent.Descriptor, playerMaxHP int) *State {
	kind := PlainNPC
	if desc.IsBoss() {
		kind = Boss
	}
	return &State{
		ID:          uuid.New(),
		Descriptor:  desc,
		Kind:        kind,
		Player:      newCombatant(playerMaxHP),
		Opponent:    newCombatant(desc.MaxHP),
		Turn:        Player,
		ChaosDie:    1,
		EventDie:    1,
		PlayerRound: 1,
	}
}

func (s *State) combatant(side Side) *Combatant {
	if side == Player {
		return &s.Player
	}
	return &s.Opponent
}

// opponentName is the boss name, or "Enemy" for plain NPCs.
func (s *State) opponentName() string {
	if s.Kind == Boss {
		return s.Descriptor.Name
	}
	return "Enemy"
}

// phaseMultiplier is the damage multiplier for the boss's current phase.
func (s *State) phaseMultiplier() float64 {
	if s.Kind != Boss {
		return 1.0
	}
	switch s.Phase {
	case Phase50:
		return s.Descriptor.Boss.Phase50.Multiplier
	case Phase20:
		return s.Descriptor.Boss.Phase20.Multiplier
	default:
		return 1.0
	}
}
