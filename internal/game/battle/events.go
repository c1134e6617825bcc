package battle

import "github.com/google/uuid"

// EventKind names an outbound presentation event.
type EventKind string

const (
	EventLog          EventKind = "log"
	EventDiceRolling  EventKind = "dice_rolling"
	EventDiceRevealed EventKind = "dice_revealed"
	EventPopup        EventKind = "popup"
	EventTurnChanged  EventKind = "turn_changed"
	EventBattleEnded  EventKind = "battle_ended"
)

// RollKind says what a dice roll was for.
type RollKind string

const (
	RollAttack      RollKind = "attack"
	RollHeal        RollKind = "heal"
	RollChaos       RollKind = "chaos"
	RollRandomEvent RollKind = "random_event"
	RollItem        RollKind = "item"
	RollSignature   RollKind = "signature"
)

// PopupKind distinguishes damage numbers from heal numbers.
type PopupKind string

const (
	PopupDamage PopupKind = "damage"
	PopupHeal   PopupKind = "heal"
)

// Outcome is how a battle ended.
type Outcome string

const (
	OutcomeNone      Outcome = ""
	OutcomeWon       Outcome = "won"
	OutcomeLost      Outcome = "lost"
	OutcomeForfeited Outcome = "forfeited"
)

// Event is one notification pushed to presentation collaborators. Only the
// fields relevant to Kind are set.
type Event struct {
	Kind     EventKind
	BattleID uuid.UUID

	// EventLog.
	Text string

	// EventDiceRolling and EventDiceRevealed. Item is the selected attack
	// item, if any.
	Actor Side
	Roll  RollKind
	Item  string
	Dice  []int

	// EventPopup.
	Target Side
	Amount int
	Popup  PopupKind

	// EventTurnChanged.
	Owner Side

	// EventBattleEnded.
	Outcome Outcome
}
