package ai

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/ascent/internal/game/dice"
)

// ScriptCaller invokes a named Lua hook with one table argument.
type ScriptCaller interface {
	CallHook(hook string, src dice.Source, fields map[string]lua.LValue) (lua.LValue, error)
}

// ScriptedPolicy asks a Lua hook for the action and falls back to Base when
// the script fails or answers with something it cannot do. The script picks
// when to heal, but a heal within Base's waste margin of full HP is turned
// into an attack.
type ScriptedPolicy struct {
	Scripts ScriptCaller
	Hook    string
	Base    Policy
	Logger  *zap.Logger
}

// Decide implements Policy.
//
// Postcondition: Returns ActionSignature only when s.SignatureChance > 0.
// Returns ActionHeal only when s.HP < s.MaxHP - WasteMargin.
func (p ScriptedPolicy) Decide(s Situation, src dice.Source) Action {
	ret, err := p.Scripts.CallHook(p.Hook, src, map[string]lua.LValue{
		"opponent_id":   lua.LString(s.OpponentID),
		"hp":            lua.LNumber(s.HP),
		"max_hp":        lua.LNumber(s.MaxHP),
		"player_hp":     lua.LNumber(s.PlayerHP),
		"player_max_hp": lua.LNumber(s.PlayerMaxHP),
		"round":         lua.LNumber(s.Round),
		"phase":         lua.LNumber(s.Phase),
		"boss":          lua.LBool(s.SignatureChance > 0),
	})
	if err != nil {
		p.Logger.Debug("scripted policy falling back",
			zap.String("hook", p.Hook),
			zap.Error(err),
		)
		return p.Base.Decide(s, src)
	}

	switch a := Action(lua.LVAsString(ret)); a {
	case ActionAttack:
		return a
	case ActionHeal:
		if margin := p.wasteMargin(); s.HP >= s.MaxHP-margin {
			p.Logger.Debug("scripted heal would be wasted, attacking",
				zap.String("hook", p.Hook),
				zap.Int("hp", s.HP),
				zap.Int("max_hp", s.MaxHP),
				zap.Int("waste_margin", margin),
			)
			return ActionAttack
		}
		return a
	case ActionSignature:
		if s.SignatureChance > 0 {
			return a
		}
	}
	p.Logger.Debug("scripted policy returned unusable action",
		zap.String("hook", p.Hook),
		zap.String("action", ret.String()),
	)
	return p.Base.Decide(s, src)
}

// wasteMargin is Base's heal waste margin, or the plain NPC margin when Base
// does not heal by a HealRule.
func (p ScriptedPolicy) wasteMargin() int {
	if h, ok := p.Base.(interface{ HealRule() HealRule }); ok {
		return h.HealRule().WasteMargin
	}
	return NewPlainPolicy().Rule.WasteMargin
}
