// Package ai provides the decision policies that choose an opponent's action
// each turn.
package ai

import (
	"math"

	"github.com/cory-johannsen/ascent/internal/game/dice"
)

// Action is the move an opponent picks for its turn.
type Action string

const (
	ActionAttack    Action = "attack"
	ActionHeal      Action = "heal"
	ActionSignature Action = "signature"
)

// Situation is the read-only view of a battle handed to a policy.
type Situation struct {
	OpponentID  string
	HP          int
	MaxHP       int
	PlayerHP    int
	PlayerMaxHP int
	// Round is the opponent's turn number, starting at 1.
	Round int
	// Phase is 0 (normal), 1 (phase 50) or 2 (phase 20).
	Phase int
	// SignatureChance is the boss signature trigger probability; 0 for
	// opponents without a signature move.
	SignatureChance float64
}

// Policy chooses an opponent action.
type Policy interface {
	// Decide returns the action for this turn. Every random draw comes from src.
	Decide(s Situation, src dice.Source) Action
}

// HealRule is the shared heal-or-attack branch.
//
// The opponent wants to heal when HP is below ThresholdPercent of max, or
// on a HealChance percent roll. It heals only when HP < max - WasteMargin;
// otherwise it attacks. The chance roll is skipped when the threshold already
// applies.
type HealRule struct {
	ThresholdPercent int
	HealChance       int
	WasteMargin      int
}

// Decide applies the rule.
func (r HealRule) Decide(s Situation, src dice.Source) Action {
	wants := s.HP*100 < r.ThresholdPercent*s.MaxHP || dice.Chance(src, r.HealChance)
	if wants && s.HP < s.MaxHP-r.WasteMargin {
		return ActionHeal
	}
	return ActionAttack
}

// PlainPolicy drives regular floor NPCs.
type PlainPolicy struct {
	Rule HealRule
}

// NewPlainPolicy returns the standard NPC policy: 30% threshold, 30% heal
// chance, 10 HP waste margin.
func NewPlainPolicy() PlainPolicy {
	return PlainPolicy{Rule: HealRule{ThresholdPercent: 30, HealChance: 30, WasteMargin: 10}}
}

// Decide implements Policy.
func (p PlainPolicy) Decide(s Situation, src dice.Source) Action {
	return p.Rule.Decide(s, src)
}

// HealRule returns the rule the policy heals by.
func (p PlainPolicy) HealRule() HealRule { return p.Rule }

// BossPolicy rolls for the signature move first, then falls back to the
// heal-or-attack branch with a higher threshold.
type BossPolicy struct {
	Rule HealRule
}

// NewBossPolicy returns the standard boss policy: 50% threshold, 30% heal
// chance, 10 HP waste margin.
func NewBossPolicy() BossPolicy {
	return BossPolicy{Rule: HealRule{ThresholdPercent: 50, HealChance: 30, WasteMargin: 10}}
}

// Decide implements Policy.
func (p BossPolicy) Decide(s Situation, src dice.Source) Action {
	if s.SignatureChance > 0 && dice.Chance(src, chancePercent(s.SignatureChance)) {
		return ActionSignature
	}
	return p.Rule.Decide(s, src)
}

// HealRule returns the rule the policy heals by.
func (p BossPolicy) HealRule() HealRule { return p.Rule }

func chancePercent(p float64) int {
	return int(math.Round(p * 100))
}
