package battle

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/ascent/internal/game/dice"
	"github.com/cory-johannsen/ascent/internal/game/effect"
	"github.com/cory-johannsen/ascent/internal/game/item"
	"github.com/cory-johannsen/ascent/internal/game/opponent"
)

// ActionKind is a player action.
type ActionKind string

const (
	ActionAttack      ActionKind = "attack"
	ActionHeal        ActionKind = "heal"
	ActionChaos       ActionKind = "chaos"
	ActionRandomEvent ActionKind = "random_event"
	ActionUseItem     ActionKind = "use_item"
)

const (
	lightningStunChance  = 30
	signatureDOTTurns    = 3
	randomEventPoison    = 3
	chaosPlayerHeal      = 10
	chaosPlayerDamage    = 5
	chaosOpponentDamage  = 10
	chaosOpponentHeal    = 5
	meteorDamage         = 10
	curseMultiplier      = 0.75
	baseDice, triplePool = 2, 3
)

// resolution is one staged action. Every random draw happens when it is
// planned; apply commits the state change after the reveal.
type resolution struct {
	actor    Side
	roll     RollKind
	item     string
	dice     []int
	popups   []Event
	apply    func()
	revealed bool
}

// dicePool is the number of dice side rolls next: three with triple dice,
// one fewer while slowed, never below one.
func (e *Engine) dicePool(side Side) int {
	c := e.state.combatant(side)
	n := baseDice
	if c.TripleDice {
		n = triplePool
	}
	if c.Effects.Has(effect.Slow) && n > 1 {
		n--
	}
	return n
}

// spendPoolFlags consumes the flags dicePool read.
func (e *Engine) spendPoolFlags(side Side) {
	c := e.state.combatant(side)
	c.TripleDice = false
	c.Effects.Consume(effect.Slow)
}

func joinFaces(faces []int) string {
	parts := make([]string, len(faces))
	for i, f := range faces {
		parts[i] = fmt.Sprint(f)
	}
	return strings.Join(parts, ", ")
}

func popupEvent(target Side, amount int, kind PopupKind) Event {
	return Event{Kind: EventPopup, Target: target, Amount: amount, Popup: kind}
}

func (e *Engine) planPlayerAttack() *resolution {
	st := e.state
	faces := dice.RollD6(e.opts.Source, e.dicePool(Player))
	base := dice.Sum(faces)

	var it *item.Def
	if st.Selected != "" {
		it, _ = e.opts.Items.Get(st.Selected)
	}
	in := DamageInput{Base: base}
	stun := false
	if it != nil {
		in.Bonus = it.DamageBonus
		in.Element = it.Element
		stun = it.Element == item.Lightning && dice.Chance(e.opts.Source, lightningStunChance)
	}
	if st.Kind == Boss {
		in.Boss = st.Descriptor.Boss
	}
	// Acid corrodes before the blow lands, so the acid hit itself is inflated.
	if st.Opponent.Effects.Has(effect.ArmorBreak) || (it != nil && it.Element == item.Acid) {
		in.ArmorMultiplier = e.opts.Effects.MustGet(effect.ArmorBreak).Multiplier()
	}
	dmg := CalculateDamage(in)

	r := &resolution{
		actor:  Player,
		roll:   RollAttack,
		dice:   faces,
		popups: []Event{popupEvent(Opponent, min(dmg.Total, st.Opponent.HP), PopupDamage)},
	}
	if it != nil {
		r.item = it.ID
	}
	r.apply = func() {
		e.spendPoolFlags(Player)
		if it != nil {
			e.opts.Inventory.Consume(it.ID)
			st.Selected = ""
			e.applyElement(it, stun)
			switch dmg.Affinity {
			case AffinityWeak:
				e.log(fmt.Sprintf("%s is weak to %s! Critical hit!", st.Descriptor.Name, it.Element))
			case AffinityResist:
				e.log(fmt.Sprintf("%s resists %s! Reduced damage!", st.Descriptor.Name, it.Element))
			}
			e.log(fmt.Sprintf("You rolled %s + %d (item) = %d damage!", joinFaces(faces), it.DamageBonus, dmg.Total))
		} else {
			e.log(fmt.Sprintf("You rolled %s = %d damage!", joinFaces(faces), dmg.Total))
		}
		e.damageOpponent(dmg.Total)
	}
	return r
}

// applyElement inflicts an attack item's elemental effect on the opponent.
func (e *Engine) applyElement(it *item.Def, stun bool) {
	st := e.state
	fx := st.Opponent.Effects
	name := st.opponentName()
	switch it.Element {
	case item.Fire:
		_ = fx.Apply(e.opts.Effects.MustGet(effect.Burn), 0, it.Duration, st.OpponentRound)
		e.log(fmt.Sprintf("%s is burning!", name))
	case item.Poison:
		_ = fx.Apply(e.opts.Effects.MustGet(effect.Poison), 0, it.Duration, st.OpponentRound)
		e.log(fmt.Sprintf("%s is poisoned!", name))
	case item.Acid:
		_ = fx.Apply(e.opts.Effects.MustGet(effect.ArmorBreak), 0, it.Duration, st.OpponentRound)
		e.log(fmt.Sprintf("%s's armor corrodes!", name))
	case item.Ice:
		_ = fx.Apply(e.opts.Effects.MustGet(effect.Freeze), 0, 1, st.OpponentRound)
		e.log(fmt.Sprintf("%s is frozen!", name))
	case item.Lightning:
		if stun {
			st.Opponent.SkipNext = true
			e.log(fmt.Sprintf("Lightning stuns %s!", strings.ToLower(name)))
		}
	}
}

func (e *Engine) planHeal(side Side) *resolution {
	st := e.state
	c := st.combatant(side)
	faces := dice.RollD6(e.opts.Source, e.dicePool(side))
	amount := dice.Sum(faces)
	return &resolution{
		actor:  side,
		roll:   RollHeal,
		dice:   faces,
		popups: []Event{popupEvent(side, min(amount, c.MaxHP-c.HP), PopupHeal)},
		apply: func() {
			e.spendPoolFlags(side)
			c.Heal(amount)
			if side == Player {
				e.log(fmt.Sprintf("You rolled %s = %d HP healed!", joinFaces(faces), amount))
			} else {
				e.log(fmt.Sprintf("%s healed for %d HP", st.opponentName(), amount))
			}
		},
	}
}

// hpPopups emits a popup for every HP change fn makes.
func (e *Engine) hpPopups(fn func()) {
	st := e.state
	p0, o0 := st.Player.HP, st.Opponent.HP
	fn()
	for _, d := range []struct {
		side          Side
		before, after int
	}{{Player, p0, st.Player.HP}, {Opponent, o0, st.Opponent.HP}} {
		switch {
		case d.after > d.before:
			e.popup(d.side, d.after-d.before, PopupHeal)
		case d.after < d.before:
			e.popup(d.side, d.before-d.after, PopupDamage)
		}
	}
}

func (e *Engine) planChaos() *resolution {
	st := e.state
	face := dice.D6(e.opts.Source)
	outcome := ChaosOutcomeFor(face)
	return &resolution{
		actor: Player,
		roll:  RollChaos,
		dice:  []int{face},
		apply: func() {
			st.ChaosDie = 0
			e.hpPopups(func() {
				switch outcome {
				case ChaosPlayerBuff:
					st.Player.Heal(chaosPlayerHeal)
				case ChaosPlayerDebuff:
					st.Player.Damage(chaosPlayerDamage)
				case ChaosOpponentDebuff:
					e.damageOpponent(chaosOpponentDamage)
				case ChaosOpponentBuff:
					st.Opponent.Heal(chaosOpponentHeal)
				case ChaosSkipOpponent:
					st.Opponent.SkipNext = true
				}
			})
			e.log("Chaos dice: " + outcome.String())
		},
	}
}

func (e *Engine) planRandomEvent() *resolution {
	st := e.state
	face := dice.D6(e.opts.Source)
	outcome := EventOutcomeFor(face)
	return &resolution{
		actor: Player,
		roll:  RollRandomEvent,
		dice:  []int{face},
		apply: func() {
			st.EventDie = 0
			e.hpPopups(func() {
				switch outcome {
				case EventMeteor:
					st.Player.Damage(meteorDamage)
					e.damageOpponent(meteorDamage)
				case EventSwap:
					p, o := st.Player.HP, st.Opponent.HP
					st.Player.SetHP(o)
					e.setOpponentHP(p)
				case EventPoisonGas:
					poison := e.opts.Effects.MustGet(effect.Poison)
					_ = st.Player.Effects.Apply(poison, 0, randomEventPoison, st.PlayerRound)
					_ = st.Opponent.Effects.Apply(poison, 0, randomEventPoison, st.OpponentRound)
				case EventPowerSurge:
					st.Player.TripleDice = true
					st.Opponent.TripleDice = true
				case EventCurse:
					st.Player.SetHP(scale(st.Player.HP, curseMultiplier))
					e.setOpponentHP(scale(st.Opponent.HP, curseMultiplier))
				case EventBlessing:
					st.Player.SetHP(st.Player.MaxHP)
					st.Opponent.SetHP(st.Opponent.MaxHP)
				}
			})
			e.log("Random event: " + outcome.String())
		},
	}
}

func (e *Engine) planItemUse(def *item.Def) *resolution {
	st := e.state
	r := &resolution{actor: Player, roll: RollItem, item: def.ID}
	if def.Kind == item.KindHealing {
		r.popups = []Event{popupEvent(Player, min(def.HealAmount, st.Player.MaxHP-st.Player.HP), PopupHeal)}
	}
	r.apply = func() {
		e.opts.Inventory.Consume(def.ID)
		fx := st.Player.Effects
		round := st.PlayerRound
		switch def.Kind {
		case item.KindHealing:
			if def.CuresDebuffs {
				fx.ClearDebuffs()
				st.Player.SkipNext = false
				st.Player.Heal(def.HealAmount)
				e.log(fmt.Sprintf("Used %s! Cured all debuffs and healed %d HP", def.Name, def.HealAmount))
				return
			}
			st.Player.Heal(def.HealAmount)
			e.log(fmt.Sprintf("Used %s! Healed %d HP", def.Name, def.HealAmount))
		case item.KindUtility:
			switch def.Ward {
			case item.WardDodge:
				_ = fx.Apply(e.opts.Effects.MustGet(effect.Dodge), 0, 1, round)
				e.log(fmt.Sprintf("Used %s! Next attack will be dodged", def.Name))
			case item.WardShield:
				_ = fx.Apply(e.opts.Effects.MustGet(effect.Shield), def.ShieldPercent, 1, round)
				e.log(fmt.Sprintf("Used %s! Next damage reduced by %d%%", def.Name, def.ShieldPercent))
			case item.WardShieldReflect:
				_ = fx.Apply(e.opts.Effects.MustGet(effect.Shield), def.ShieldPercent, 1, round)
				_ = fx.Apply(e.opts.Effects.MustGet(effect.Reflect), def.ReflectPercent, def.Charges(), round)
				e.log(fmt.Sprintf("Used %s! Damage blocked and reflected", def.Name))
			case item.WardReflect:
				_ = fx.Apply(e.opts.Effects.MustGet(effect.Reflect), def.ReflectPercent, def.Charges(), round)
				e.log(fmt.Sprintf("Used %s! Reflecting %d%% damage", def.Name, def.ReflectPercent))
			}
		}
	}
	return r
}

// playerGuard reads the player's wards without consuming them.
func (e *Engine) playerGuard() Guard {
	fx := e.state.Player.Effects
	return Guard{
		Dodge:          fx.Has(effect.Dodge),
		ShieldPercent:  fx.Magnitude(effect.Shield),
		ReflectPercent: fx.Magnitude(effect.Reflect),
	}
}

// spendGuard consumes the wards a resolved hit used.
func (e *Engine) spendGuard(g GuardResult) {
	fx := e.state.Player.Effects
	if g.Dodged {
		fx.Consume(effect.Dodge)
		return
	}
	if g.Shielded {
		fx.Consume(effect.Shield)
	}
	if fx.Has(effect.Reflect) {
		fx.Consume(effect.Reflect)
	}
}

// guardPopups are the popups for a guarded hit on the player.
func (e *Engine) guardPopups(g GuardResult) []Event {
	st := e.state
	out := []Event{popupEvent(Player, min(g.Taken, st.Player.HP), PopupDamage)}
	if g.Reflected > 0 {
		out = append(out, popupEvent(Opponent, min(g.Reflected, st.Opponent.HP), PopupDamage))
	}
	return out
}

func (e *Engine) reflect(g GuardResult) {
	if g.Reflected > 0 {
		e.log(fmt.Sprintf("Reflected %d damage back!", g.Reflected))
		e.damageOpponent(g.Reflected)
	}
}

func (e *Engine) planOpponentAttack() *resolution {
	st := e.state
	faces := dice.RollD6(e.opts.Source, e.dicePool(Opponent))
	raw := scale(dice.Sum(faces), st.phaseMultiplier())
	g := e.playerGuard().Resolve(raw)
	name := st.opponentName()
	return &resolution{
		actor:  Opponent,
		roll:   RollAttack,
		dice:   faces,
		popups: e.guardPopups(g),
		apply: func() {
			e.spendPoolFlags(Opponent)
			e.spendGuard(g)
			switch {
			case g.Dodged:
				e.log(fmt.Sprintf("%s attacks! You dodged it!", name))
			case g.Shielded:
				e.log(fmt.Sprintf("%s attacks! Shield reduces %d to %d damage!", name, g.Raw, g.Taken))
			}
			st.Player.Damage(g.Taken)
			if g.Taken > 0 {
				e.log(fmt.Sprintf("%s attacks for %d damage!", name, g.Taken))
			}
			e.reflect(g)
		},
	}
}

func (e *Engine) planSignature() *resolution {
	st := e.state
	boss := st.Descriptor.Boss
	move := boss.Signature
	raw := scale(move.Damage, st.phaseMultiplier())
	g := e.playerGuard().Resolve(raw)
	name := st.Descriptor.Name
	return &resolution{
		actor:  Opponent,
		roll:   RollSignature,
		popups: e.guardPopups(g),
		apply: func() {
			e.spendGuard(g)
			switch {
			case g.Dodged:
				e.log(fmt.Sprintf("%s uses %s! You dodged it!", name, move.Name))
			case g.Shielded:
				e.log(fmt.Sprintf("%s uses %s! Shield reduces damage!", name, move.Name))
			default:
				e.log(fmt.Sprintf("%s uses %s!", name, move.Name))
			}
			st.Player.Damage(g.Taken)
			if g.Taken > 0 {
				e.log(fmt.Sprintf("You take %d damage!", g.Taken))
			}
			e.reflect(g)

			fx := st.Player.Effects
			switch move.Effect {
			case opponent.SignatureBurn:
				_ = fx.Apply(e.opts.Effects.MustGet(effect.Burn), 0, signatureDOTTurns, st.PlayerRound)
				e.log("You are burned!")
			case opponent.SignaturePoison:
				_ = fx.Apply(e.opts.Effects.MustGet(effect.Poison), 0, signatureDOTTurns, st.PlayerRound)
				e.log("You are poisoned!")
			case opponent.SignatureStun:
				st.Player.SkipNext = true
				e.log("You are stunned!")
			case opponent.SignatureSlow:
				_ = fx.Apply(e.opts.Effects.MustGet(effect.Slow), 0, 1, st.PlayerRound)
				e.log("You are slowed!")
			case opponent.SignatureDrain:
				drained := g.Taken / 2
				st.Opponent.Heal(drained)
				e.log(fmt.Sprintf("%s drains %d HP!", name, drained))
			}
		},
	}
}
