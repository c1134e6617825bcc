package battle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/cory-johannsen/ascent/internal/game/ai"
	"github.com/cory-johannsen/ascent/internal/game/dice"
	"github.com/cory-johannsen/ascent/internal/game/effect"
	"github.com/cory-johannsen/ascent/internal/game/item"
	"github.com/cory-johannsen/ascent/internal/game/opponent"
)

// Stage is a state of the turn machine.
type Stage string

const (
	StageAwaitingPlayerInput      Stage = "awaiting_player_input"
	StageResolvingPlayerAction    Stage = "resolving_player_action"
	StageEndOfPlayerTurn          Stage = "resolving_end_of_player_turn"
	StageAwaitingOpponentDecision Stage = "awaiting_opponent_decision"
	StageResolvingOpponentAction  Stage = "resolving_opponent_action"
	StageEndOfOpponentTurn        Stage = "resolving_end_of_opponent_turn"
	StageWon                      Stage = "battle_won"
	StageLost                     Stage = "battle_lost"
	StageForfeited                Stage = "forfeited"
)

// Terminal reports whether no further transition can leave s except the
// settle step of a won or lost battle.
func (s Stage) Terminal() bool {
	return s == StageWon || s == StageLost || s == StageForfeited
}

// Turn machine events.
const (
	evSubmit            = "submit"
	evPlayerSkipped     = "player_skipped"
	evPlayerCommitted   = "player_committed"
	evHandOff           = "hand_off"
	evOpponentDecided   = "opponent_decided"
	evOpponentSkipped   = "opponent_skipped"
	evOpponentCommitted = "opponent_committed"
	evReturn            = "return"
	evWin               = "win"
	evLose              = "lose"
	evForfeit           = "forfeit"
)

func newMachine(logger *zap.Logger, id uuid.UUID) *fsm.FSM {
	s := func(st ...Stage) []string {
		out := make([]string, len(st))
		for i, v := range st {
			out[i] = string(v)
		}
		return out
	}
	endOfTurn := s(StageEndOfPlayerTurn, StageEndOfOpponentTurn)
	live := s(StageAwaitingPlayerInput, StageResolvingPlayerAction, StageEndOfPlayerTurn,
		StageAwaitingOpponentDecision, StageResolvingOpponentAction, StageEndOfOpponentTurn)

	return fsm.NewFSM(
		string(StageAwaitingPlayerInput),
		fsm.Events{
			{Name: evSubmit, Src: s(StageAwaitingPlayerInput), Dst: string(StageResolvingPlayerAction)},
			{Name: evPlayerSkipped, Src: s(StageAwaitingPlayerInput), Dst: string(StageEndOfPlayerTurn)},
			{Name: evPlayerCommitted, Src: s(StageResolvingPlayerAction), Dst: string(StageEndOfPlayerTurn)},
			{Name: evHandOff, Src: s(StageEndOfPlayerTurn), Dst: string(StageAwaitingOpponentDecision)},
			{Name: evOpponentDecided, Src: s(StageAwaitingOpponentDecision), Dst: string(StageResolvingOpponentAction)},
			{Name: evOpponentSkipped, Src: s(StageAwaitingOpponentDecision), Dst: string(StageEndOfOpponentTurn)},
			{Name: evOpponentCommitted, Src: s(StageResolvingOpponentAction), Dst: string(StageEndOfOpponentTurn)},
			{Name: evReturn, Src: s(StageEndOfOpponentTurn), Dst: string(StageAwaitingPlayerInput)},
			{Name: evWin, Src: endOfTurn, Dst: string(StageWon)},
			{Name: evLose, Src: endOfTurn, Dst: string(StageLost)},
			{Name: evForfeit, Src: live, Dst: string(StageForfeited)},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				logger.Debug("battle stage",
					zap.String("battle", id.String()),
					zap.String("event", e.Event),
					zap.String("from", e.Src),
					zap.String("to", e.Dst),
				)
			},
		},
	)
}

// Timing holds the presentation delays between stages.
type Timing struct {
	// Reveal is the delay from rolling to revealing the dice.
	Reveal time.Duration
	// Commit is the delay from reveal to committing the effect.
	Commit time.Duration
	// OpponentDelay precedes every opponent decision.
	OpponentDelay time.Duration
	// Settle is the delay between victory or defeat and the battle ending.
	Settle time.Duration
}

// DefaultTiming returns the standard pacing: 1000ms, 1500ms, 1500ms, 2000ms.
func DefaultTiming() Timing {
	return Timing{
		Reveal:        1000 * time.Millisecond,
		Commit:        1500 * time.Millisecond,
		OpponentDelay: 1500 * time.Millisecond,
		Settle:        2000 * time.Millisecond,
	}
}

// DefaultPlayerMaxHP is the player's HP at the start of every battle.
const DefaultPlayerMaxHP = 100

// LogTail is the number of log lines included in a Snapshot.
const LogTail = 5

// Options are the collaborators and settings an Engine runs with.
type Options struct {
	Timing      Timing
	PlayerMaxHP int
	Effects     *effect.Registry
	Items       *item.Catalog
	Inventory   *item.Inventory
	Defeated    *opponent.DefeatedSet
	Policy      ai.Policy
	Source      dice.Source
	// Emit receives every event in order. It is called synchronously and must
	// not call back into the Engine.
	Emit   func(Event)
	Logger *zap.Logger
}

// Step tells the caller when to call Advance again.
type Step struct {
	// Delay to wait before the next Advance.
	Delay time.Duration
	// Next is true when another Advance is due after Delay.
	Next bool
	// Done is true once the battle has ended and emitted battle_ended.
	Done bool
}

// Engine runs one battle. Timing lives outside the engine: every method
// performs one transition and returns, and the caller schedules the next
// Advance according to the returned Step.
//
// Engine is not safe for concurrent use; the caller must serialise access.
type Engine struct {
	opts    Options
	state   *State
	machine *fsm.FSM
	pending *resolution
	outcome Outcome
	ended   bool
}

// New starts a battle against desc. The opening log line is emitted before
// New returns and the engine waits for player input.
//
// Precondition: desc must have passed Validate; Effects, Items, Inventory,
// Defeated, Policy, Source and Logger must be non-nil.
// Postcondition: Stage() == StageAwaitingPlayerInput.
func New(desc *opponent.Descriptor, opts Options) (*Engine, error) {
	if desc == nil {
		return nil, fmt.Errorf("battle.New: descriptor must not be nil")
	}
	if opts.Effects == nil || opts.Items == nil || opts.Inventory == nil || opts.Defeated == nil ||
		opts.Policy == nil || opts.Source == nil || opts.Logger == nil {
		return nil, fmt.Errorf("battle.New: missing collaborator")
	}
	for _, id := range []string{effect.Burn, effect.Poison, effect.ArmorBreak, effect.Freeze,
		effect.Slow, effect.Dodge, effect.Shield, effect.Reflect} {
		if _, ok := opts.Effects.Get(id); !ok {
			return nil, fmt.Errorf("battle.New: effect %q not registered", id)
		}
	}
	if opts.PlayerMaxHP <= 0 {
		opts.PlayerMaxHP = DefaultPlayerMaxHP
	}
	if opts.Emit == nil {
		opts.Emit = func(Event) {}
	}

	st := newState(desc, opts.PlayerMaxHP)
	e := &Engine{
		opts:    opts,
		state:   st,
		machine: newMachine(opts.Logger, st.ID),
	}
	if st.Kind == Boss {
		e.log(fmt.Sprintf("Boss Battle: %s!", desc.Name))
	} else {
		e.log("Battle started!")
	}
	return e, nil
}

// ID returns the battle's unique id.
func (e *Engine) ID() uuid.UUID {
	return e.state.ID
}

// Descriptor returns the opponent being fought.
func (e *Engine) Descriptor() *opponent.Descriptor {
	return e.state.Descriptor
}

// Stage returns the current turn machine state.
func (e *Engine) Stage() Stage {
	return Stage(e.machine.Current())
}

// Outcome returns how the battle ended, or OutcomeNone while it is live.
func (e *Engine) Outcome() Outcome {
	return e.outcome
}

// Log returns a copy of the full narration log.
func (e *Engine) Log() []string {
	return append([]string(nil), e.state.Log...)
}

// Submit starts resolving a player action. itemID is required for
// ActionUseItem and ignored otherwise.
//
// Postcondition: On success the stage is StageResolvingPlayerAction and the
// returned Step schedules the reveal. On error nothing changed.
func (e *Engine) Submit(kind ActionKind, itemID string) (Step, error) {
	if err := e.checkPlayerInput(); err != nil {
		return Step{}, err
	}
	st := e.state
	var plan func() *resolution
	switch kind {
	case ActionAttack:
		if st.Selected != "" && e.opts.Inventory.Count(st.Selected) <= 0 {
			return Step{}, ErrItemUnavailable
		}
		plan = e.planPlayerAttack
	case ActionHeal:
		plan = func() *resolution { return e.planHeal(Player) }
	case ActionChaos:
		if st.ChaosDie == 0 {
			return Step{}, ErrDieSpent
		}
		plan = e.planChaos
	case ActionRandomEvent:
		if st.EventDie == 0 {
			return Step{}, ErrDieSpent
		}
		plan = e.planRandomEvent
	case ActionUseItem:
		def, ok := e.opts.Items.Get(itemID)
		if !ok {
			return Step{}, ErrUnknownItem
		}
		if def.Kind != item.KindHealing && def.Kind != item.KindUtility {
			return Step{}, ErrItemKind
		}
		if e.opts.Inventory.Count(itemID) <= 0 {
			return Step{}, ErrItemUnavailable
		}
		plan = func() *resolution { return e.planItemUse(def) }
	default:
		return Step{}, ErrUnknownAction
	}

	e.fire(evSubmit)
	e.begin(plan())
	return Step{Delay: e.opts.Timing.Reveal, Next: true}, nil
}

// Select chooses the attack item for the next attack. An empty itemID clears
// the selection. Selecting consumes nothing.
//
// Postcondition: On error nothing changed.
func (e *Engine) Select(itemID string) error {
	if err := e.checkPlayerInput(); err != nil {
		return err
	}
	if itemID == "" {
		e.state.Selected = ""
		return nil
	}
	def, ok := e.opts.Items.Get(itemID)
	if !ok {
		return ErrUnknownItem
	}
	if def.Kind != item.KindAttack {
		return ErrItemKind
	}
	if e.opts.Inventory.Count(itemID) <= 0 {
		return ErrItemUnavailable
	}
	e.state.Selected = itemID
	return nil
}

func (e *Engine) checkPlayerInput() error {
	stage := e.Stage()
	switch {
	case stage.Terminal():
		return ErrBattleOver
	case e.state.Turn != Player:
		return ErrNotPlayerTurn
	case stage != StageAwaitingPlayerInput:
		return ErrActionInFlight
	}
	return nil
}

// Advance performs the next timed transition.
//
// Postcondition: Returns Step{} (no Next, not Done) only while waiting for
// player input.
func (e *Engine) Advance() Step {
	switch e.Stage() {
	case StageResolvingPlayerAction, StageResolvingOpponentAction:
		return e.advanceResolution()
	case StageEndOfPlayerTurn:
		return e.endPlayerTurn()
	case StageAwaitingOpponentDecision:
		return e.opponentTurn()
	case StageEndOfOpponentTurn:
		return e.endOpponentTurn()
	case StageWon, StageLost:
		return e.finish()
	case StageForfeited:
		return Step{Done: true}
	}
	return Step{}
}

// Forfeit cancels a live battle without declaring a winner and emits
// battle_ended once.
//
// Postcondition: Returns false, with no state change and no events, when the
// battle is already won, lost or forfeited.
func (e *Engine) Forfeit() bool {
	if e.Stage().Terminal() {
		return false
	}
	e.fire(evForfeit)
	e.pending = nil
	e.outcome = OutcomeForfeited
	e.ended = true
	e.emit(Event{Kind: EventBattleEnded, Outcome: OutcomeForfeited})
	return true
}

func (e *Engine) advanceResolution() Step {
	r := e.pending
	if !r.revealed {
		r.revealed = true
		if len(r.dice) > 0 {
			e.emit(Event{Kind: EventDiceRevealed, Actor: r.actor, Roll: r.roll, Item: r.item, Dice: r.dice})
		}
		for _, p := range r.popups {
			e.emit(p)
		}
		return Step{Delay: e.opts.Timing.Commit, Next: true}
	}
	e.pending = nil
	r.apply()
	if r.actor == Player {
		e.fire(evPlayerCommitted)
	} else {
		e.fire(evOpponentCommitted)
	}
	return Step{Next: true}
}

func (e *Engine) endPlayerTurn() Step {
	st := e.state
	for _, t := range st.Player.Effects.EndOfTurn(st.PlayerRound) {
		if t.Damage > 0 {
			lost := st.Player.Damage(t.Damage)
			e.log(fmt.Sprintf("You take %d %s damage", t.Damage, e.effectName(t.ID)))
			e.popup(Player, lost, PopupDamage)
		}
	}
	switch {
	case st.Opponent.HP <= 0:
		return e.win()
	case st.Player.HP <= 0:
		return e.lose()
	}
	st.Turn = Opponent
	st.OpponentRound++
	e.fire(evHandOff)
	e.emit(Event{Kind: EventTurnChanged, Owner: Opponent})
	return Step{Delay: e.opts.Timing.OpponentDelay, Next: true}
}

func (e *Engine) opponentTurn() Step {
	st := e.state
	if st.Opponent.SkipNext || st.Opponent.Effects.Has(effect.Freeze) {
		st.Opponent.SkipNext = false
		st.Opponent.Effects.Remove(effect.Freeze)
		if st.Kind == Boss {
			e.log("Boss is stunned!")
		} else {
			e.log("Enemy turn skipped!")
		}
		e.fire(evOpponentSkipped)
		return Step{Next: true}
	}

	action := e.opts.Policy.Decide(e.situation(), e.opts.Source)
	var r *resolution
	switch {
	case action == ai.ActionSignature && st.Kind == Boss:
		r = e.planSignature()
	case action == ai.ActionHeal:
		r = e.planHeal(Opponent)
	default:
		r = e.planOpponentAttack()
	}
	e.fire(evOpponentDecided)
	e.begin(r)
	return Step{Delay: e.opts.Timing.Reveal, Next: true}
}

func (e *Engine) endOpponentTurn() Step {
	st := e.state
	name := st.opponentName()
	for _, t := range st.Opponent.Effects.EndOfTurn(st.OpponentRound) {
		if t.Damage > 0 {
			lost := e.damageOpponent(t.Damage)
			e.log(fmt.Sprintf("%s takes %d %s damage", name, t.Damage, e.effectName(t.ID)))
			e.popup(Opponent, lost, PopupDamage)
		}
	}
	switch {
	case st.Player.HP <= 0:
		return e.lose()
	case st.Opponent.HP <= 0:
		return e.win()
	}
	st.Turn = Player
	st.PlayerRound++
	e.fire(evReturn)
	e.emit(Event{Kind: EventTurnChanged, Owner: Player})

	if st.Player.SkipNext {
		st.Player.SkipNext = false
		e.log("You are stunned! Turn skipped.")
		e.fire(evPlayerSkipped)
		return Step{Delay: e.opts.Timing.OpponentDelay, Next: true}
	}
	return Step{}
}

func (e *Engine) win() Step {
	e.fire(evWin)
	e.outcome = OutcomeWon
	if e.state.Kind == Boss {
		e.log("BOSS DEFEATED!")
	} else {
		e.log("Victory!")
	}
	e.opts.Defeated.Mark(e.state.Descriptor.ID)
	return Step{Delay: e.opts.Timing.Settle, Next: true}
}

func (e *Engine) lose() Step {
	e.fire(evLose)
	e.outcome = OutcomeLost
	e.log("Defeat... Try again!")
	return Step{Delay: e.opts.Timing.Settle, Next: true}
}

func (e *Engine) finish() Step {
	if !e.ended {
		e.ended = true
		e.emit(Event{Kind: EventBattleEnded, Outcome: e.outcome})
	}
	return Step{Done: true}
}

// Ended reports whether battle_ended has been emitted.
func (e *Engine) Ended() bool {
	return e.ended
}

func (e *Engine) situation() ai.Situation {
	st := e.state
	s := ai.Situation{
		OpponentID:  st.Descriptor.ID,
		HP:          st.Opponent.HP,
		MaxHP:       st.Opponent.MaxHP,
		PlayerHP:    st.Player.HP,
		PlayerMaxHP: st.Player.MaxHP,
		Round:       st.OpponentRound,
		Phase:       int(st.Phase),
	}
	if st.Kind == Boss {
		s.SignatureChance = st.Descriptor.Boss.Signature.TriggerChance()
	}
	return s
}

// fire runs a turn machine event. The engine only fires events that are
// legal from the current stage, so a failure is a programming error.
func (e *Engine) fire(event string) {
	if err := e.machine.Event(context.Background(), event); err != nil {
		panic(fmt.Sprintf("battle: event %q from %q: %v", event, e.machine.Current(), err))
	}
}

func (e *Engine) begin(r *resolution) {
	e.pending = r
	if len(r.dice) > 0 {
		e.emit(Event{Kind: EventDiceRolling, Actor: r.actor, Roll: r.roll, Item: r.item, Dice: r.dice})
	}
}

func (e *Engine) emit(ev Event) {
	ev.BattleID = e.state.ID
	e.opts.Emit(ev)
}

func (e *Engine) log(text string) {
	e.state.Log = append(e.state.Log, text)
	e.emit(Event{Kind: EventLog, Text: text})
}

func (e *Engine) popup(target Side, amount int, kind PopupKind) {
	e.emit(Event{Kind: EventPopup, Target: target, Amount: amount, Popup: kind})
}

func (e *Engine) effectName(id string) string {
	if d, ok := e.opts.Effects.Get(id); ok {
		return strings.ToLower(d.Name)
	}
	return id
}

// damageOpponent lowers the opponent's HP and runs the phase check.
func (e *Engine) damageOpponent(n int) int {
	lost := e.state.Opponent.Damage(n)
	e.checkPhase()
	return lost
}

// setOpponentHP sets the opponent's HP and runs the phase check.
func (e *Engine) setOpponentHP(n int) {
	e.state.Opponent.SetHP(n)
	e.checkPhase()
}

func (e *Engine) checkPhase() {
	st := e.state
	if st.Kind != Boss {
		return
	}
	next, changed := NextPhase(st.Opponent.HP, st.Opponent.MaxHP, st.Phase)
	if !changed {
		return
	}
	st.Phase = next
	if next == Phase20 {
		e.log(st.Descriptor.Boss.Phase20.Announcement)
	} else {
		e.log(st.Descriptor.Boss.Phase50.Announcement)
	}
}
