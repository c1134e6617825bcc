package effect_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/ascent/internal/game/effect"
)

func TestBuiltins_AllValid(t *testing.T) {
	defs := effect.Builtins().All()
	require.Len(t, defs, 8)
	for _, d := range defs {
		assert.NoError(t, d.Validate(), d.ID)
	}
}

func TestDef_Multiplier_DefaultsToOne(t *testing.T) {
	assert.Equal(t, 1.0, effect.Builtins().MustGet(effect.Burn).Multiplier())
	assert.Equal(t, 1.2, effect.Builtins().MustGet(effect.ArmorBreak).Multiplier())
}

func TestDef_Validate_Rejects(t *testing.T) {
	cases := map[string]effect.Def{
		"missing id":   {Name: "x", Polarity: effect.Buff, Decay: effect.DecayTick},
		"missing name": {ID: "x", Polarity: effect.Buff, Decay: effect.DecayTick},
		"polarity":     {ID: "x", Name: "x", Polarity: "neutral", Decay: effect.DecayTick},
		"decay":        {ID: "x", Name: "x", Polarity: effect.Buff, Decay: "forever"},
		"tick damage":  {ID: "x", Name: "x", Polarity: effect.Buff, Decay: effect.DecayTick, TickDamage: -1},
	}
	for name, d := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, d.Validate())
		})
	}
}

func TestMustGet_PanicsOnUnknown(t *testing.T) {
	assert.Panics(t, func() { effect.NewRegistry().MustGet("nope") })
}

func TestLoadDirectory_OverridesBuiltins(t *testing.T) {
	dir := t.TempDir()
	yaml := "id: burn\nname: Inferno\npolarity: debuff\ndecay: tick\ntick_damage: 8\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "burn.yaml"), []byte(yaml), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o644))

	reg, err := effect.LoadDirectory(dir, effect.Builtins())
	require.NoError(t, err)
	burn, ok := reg.Get(effect.Burn)
	require.True(t, ok)
	assert.Equal(t, 8, burn.TickDamage)
	_, ok = reg.Get(effect.Shield)
	assert.True(t, ok, "built-ins not overridden must survive")
}

func TestLoadDirectory_UnknownFieldFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("id: x\nname: X\npolarity: buff\ndecay: tick\ncolor: red\n"), 0o644))
	_, err := effect.LoadDirectory(dir, nil)
	assert.Error(t, err)
}

func TestLoadDirectory_InvalidFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("id: x\nname: X\npolarity: buff\ndecay: never\n"), 0o644))
	_, err := effect.LoadDirectory(dir, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml")
}

func TestLoadDirectory_MissingDir(t *testing.T) {
	_, err := effect.LoadDirectory(filepath.Join(t.TempDir(), "absent"), nil)
	assert.Error(t, err)
}
