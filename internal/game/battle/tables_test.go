package battle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cory-johannsen/ascent/internal/game/battle"
)

func TestChaosTable(t *testing.T) {
	want := []string{
		"Player Buff: +10 HP",
		"Player Debuff: -5 HP",
		"NPC Debuff: -10 HP",
		"NPC Buff: +5 HP",
		"Nothing happens",
		"Skip next turn",
	}
	for i, text := range want {
		assert.Equal(t, text, battle.ChaosOutcomeFor(i+1).String())
	}
	assert.Panics(t, func() { battle.ChaosOutcomeFor(0) })
	assert.Panics(t, func() { battle.ChaosOutcomeFor(7) })
}

func TestEventTable(t *testing.T) {
	want := []string{
		"Meteor falls! Both -10 HP",
		"HP Swapped!",
		"Poison gas! Both sides are poisoned",
		"Power surge! Next turn 3 dice",
		"Curse! Both -25% HP",
		"Divine blessing! Full heal",
	}
	for i, text := range want {
		assert.Equal(t, text, battle.EventOutcomeFor(i+1).String())
	}
	assert.Panics(t, func() { battle.EventOutcomeFor(0) })
}
