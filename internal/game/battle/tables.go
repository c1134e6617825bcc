package battle

import "fmt"

// ChaosOutcome is one arm of the chaos die table.
type ChaosOutcome int

const (
	ChaosPlayerBuff ChaosOutcome = iota
	ChaosPlayerDebuff
	ChaosOpponentDebuff
	ChaosOpponentBuff
	ChaosNothing
	ChaosSkipOpponent
)

// ChaosOutcomeFor maps a d6 face to its chaos outcome.
//
// Precondition: 1 <= roll <= 6.
func ChaosOutcomeFor(roll int) ChaosOutcome {
	switch roll {
	case 1:
		return ChaosPlayerBuff
	case 2:
		return ChaosPlayerDebuff
	case 3:
		return ChaosOpponentDebuff
	case 4:
		return ChaosOpponentBuff
	case 5:
		return ChaosNothing
	case 6:
		return ChaosSkipOpponent
	}
	panic(fmt.Sprintf("battle: chaos roll %d out of range", roll))
}

// String is the narration for the outcome.
func (c ChaosOutcome) String() string {
	switch c {
	case ChaosPlayerBuff:
		return "Player Buff: +10 HP"
	case ChaosPlayerDebuff:
		return "Player Debuff: -5 HP"
	case ChaosOpponentDebuff:
		return "NPC Debuff: -10 HP"
	case ChaosOpponentBuff:
		return "NPC Buff: +5 HP"
	case ChaosNothing:
		return "Nothing happens"
	case ChaosSkipOpponent:
		return "Skip next turn"
	}
	return "unknown"
}

// EventOutcome is one arm of the random event die table.
type EventOutcome int

const (
	EventMeteor EventOutcome = iota
	EventSwap
	EventPoisonGas
	EventPowerSurge
	EventCurse
	EventBlessing
)

// EventOutcomeFor maps a d6 face to its random event.
//
// Precondition: 1 <= roll <= 6.
func EventOutcomeFor(roll int) EventOutcome {
	switch roll {
	case 1:
		return EventMeteor
	case 2:
		return EventSwap
	case 3:
		return EventPoisonGas
	case 4:
		return EventPowerSurge
	case 5:
		return EventCurse
	case 6:
		return EventBlessing
	}
	panic(fmt.Sprintf("battle: random event roll %d out of range", roll))
}

// String is the narration for the event.
func (e EventOutcome) String() string {
	switch e {
	case EventMeteor:
		return "Meteor falls! Both -10 HP"
	case EventSwap:
		return "HP Swapped!"
	case EventPoisonGas:
		return "Poison gas! Both sides are poisoned"
	case EventPowerSurge:
		return "Power surge! Next turn 3 dice"
	case EventCurse:
		return "Curse! Both -25% HP"
	case EventBlessing:
		return "Divine blessing! Full heal"
	}
	return "unknown"
}
