package opponent_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/ascent/internal/game/item"
	"github.com/cory-johannsen/ascent/internal/game/opponent"
)

const bossYAML = `
id: flame_titan
name: Flame Titan
floor: 2
max_hp: 150
behavior: boss
boss:
  weaknesses: [ice]
  resistances: [fire]
  signature:
    name: Firewave
    damage: 25
    effect: burn
  phase50:
    multiplier: 1.2
    announcement: "Flame Titan burns brighter!"
  phase20:
    multiplier: 1.5
    announcement: "Flame Titan enters rage mode!"
`

func TestLoadDescriptorFromBytes_Boss(t *testing.T) {
	d, err := opponent.LoadDescriptorFromBytes([]byte(bossYAML))
	require.NoError(t, err)
	require.True(t, d.IsBoss())
	assert.True(t, d.Boss.WeakTo(item.Ice))
	assert.True(t, d.Boss.Resists(item.Fire))
	assert.False(t, d.Boss.WeakTo(item.Acid))
	assert.Equal(t, opponent.DefaultSignatureChance, d.Boss.Signature.TriggerChance())
}

func TestLoadDescriptorFromBytes_UnknownField(t *testing.T) {
	_, err := opponent.LoadDescriptorFromBytes([]byte("id: a\nname: A\nmax_hp: 10\nbehavior: plain\nlevel: 3\n"))
	assert.Error(t, err)
}

func plain() opponent.Descriptor {
	return opponent.Descriptor{ID: "npc", Name: "Npc", MaxHP: 100, Behavior: opponent.BehaviorPlain}
}

func validBoss() *opponent.Boss {
	return &opponent.Boss{
		Weaknesses:  []item.Element{item.Ice},
		Resistances: []item.Element{item.Fire},
		Signature:   opponent.Signature{Name: "Firewave", Damage: 25, Effect: opponent.SignatureBurn},
		Phase50:     opponent.Phase{Multiplier: 1.2, Announcement: "a"},
		Phase20:     opponent.Phase{Multiplier: 1.5, Announcement: "b"},
	}
}

func TestDescriptor_Validate(t *testing.T) {
	ok := plain()
	require.NoError(t, ok.Validate())

	cases := map[string]func(d *opponent.Descriptor){
		"empty id":         func(d *opponent.Descriptor) { d.ID = "" },
		"empty name":       func(d *opponent.Descriptor) { d.Name = "" },
		"zero hp":          func(d *opponent.Descriptor) { d.MaxHP = 0 },
		"negative floor":   func(d *opponent.Descriptor) { d.Floor = -1 },
		"unknown behavior": func(d *opponent.Descriptor) { d.Behavior = "berserk" },
		"plain with boss":  func(d *opponent.Descriptor) { d.Boss = validBoss() },
		"boss without data": func(d *opponent.Descriptor) {
			d.Behavior = opponent.BehaviorBoss
		},
		"scripted without hook": func(d *opponent.Descriptor) {
			d.Behavior = opponent.BehaviorScripted
		},
		"overlapping affinity": func(d *opponent.Descriptor) {
			d.Behavior = opponent.BehaviorBoss
			d.Boss = validBoss()
			d.Boss.Resistances = append(d.Boss.Resistances, item.Ice)
		},
		"unknown element": func(d *opponent.Descriptor) {
			d.Behavior = opponent.BehaviorBoss
			d.Boss = validBoss()
			d.Boss.Weaknesses = []item.Element{"wind"}
		},
		"unknown signature effect": func(d *opponent.Descriptor) {
			d.Behavior = opponent.BehaviorBoss
			d.Boss = validBoss()
			d.Boss.Signature.Effect = "confuse"
		},
		"missing phase": func(d *opponent.Descriptor) {
			d.Behavior = opponent.BehaviorBoss
			d.Boss = validBoss()
			d.Boss.Phase20 = opponent.Phase{}
		},
		"chance out of range": func(d *opponent.Descriptor) {
			d.Behavior = opponent.BehaviorBoss
			d.Boss = validBoss()
			d.Boss.Signature.Chance = 1.5
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			d := plain()
			mutate(&d)
			assert.Error(t, d.Validate())
		})
	}
}

func TestDescriptor_Validate_ScriptedBoss(t *testing.T) {
	d := plain()
	d.Behavior = opponent.BehaviorScripted
	d.ScriptHook = "decide"
	d.Boss = validBoss()
	assert.NoError(t, d.Validate())
}

func TestContent_AllOpponentsLoad(t *testing.T) {
	descs, err := opponent.LoadDescriptors("../../../content/opponents")
	require.NoError(t, err)
	reg, err := opponent.NewRegistry(descs...)
	require.NoError(t, err)

	bosses := 0
	for _, d := range reg.All() {
		if d.IsBoss() {
			bosses++
			assert.Equal(t, 0, d.Floor%2, "boss %q must sit on an even floor", d.ID)
		} else {
			assert.Equal(t, 100, d.MaxHP, "plain opponent %q", d.ID)
		}
	}
	assert.Equal(t, 5, bosses)

	titan, ok := reg.Get("flame_titan")
	require.True(t, ok)
	assert.Equal(t, 150, titan.MaxHP)
	assert.Equal(t, "Flame Titan enters rage mode!", titan.Boss.Phase20.Announcement)
}

func TestRegistry_DuplicateID(t *testing.T) {
	a, b := plain(), plain()
	_, err := opponent.NewRegistry(&a, &b)
	assert.Error(t, err)
}

func TestRegistry_AllOrderedByFloor(t *testing.T) {
	a, b := plain(), plain()
	a.ID, a.Floor = "high", 9
	b.ID, b.Floor = "low", 1
	reg, err := opponent.NewRegistry(&a, &b)
	require.NoError(t, err)
	all := reg.All()
	assert.Equal(t, "low", all[0].ID)
	assert.Equal(t, "high", all[1].ID)
}

func TestDefeatedSet(t *testing.T) {
	s := opponent.NewDefeatedSet("b")
	assert.True(t, s.Has("b"))
	assert.True(t, s.Mark("a"))
	assert.False(t, s.Mark("a"))
	assert.Equal(t, []string{"a", "b"}, s.IDs())
}

// TestProperty_DefeatedSetNeverForgets verifies marks are permanent.
func TestProperty_DefeatedSetNeverForgets(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ids := rapid.SliceOf(rapid.StringMatching(`[a-z]{1,6}`)).Draw(rt, "ids")
		s := opponent.NewDefeatedSet()
		for _, id := range ids {
			s.Mark(id)
		}
		for _, id := range ids {
			assert.True(rt, s.Has(id))
		}
	})
}
