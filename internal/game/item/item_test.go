package item_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/ascent/internal/game/item"
)

func TestDefaultCatalog_AllValid(t *testing.T) {
	defs := item.DefaultCatalog().All()
	require.Len(t, defs, 12)
	for _, d := range defs {
		assert.NoError(t, d.Validate(), d.ID)
	}
}

func TestDefaultCatalog_IceCharm(t *testing.T) {
	d, ok := item.DefaultCatalog().Get("iceCharm")
	require.True(t, ok)
	assert.Equal(t, item.KindAttack, d.Kind)
	assert.Equal(t, item.Ice, d.Element)
	assert.Equal(t, 10, d.DamageBonus)
}

func TestDef_Validate_Rejects(t *testing.T) {
	cases := map[string]item.Def{
		"no id":            {Name: "x", Kind: item.KindHealing, HealAmount: 5},
		"bad kind":         {ID: "x", Name: "x", Kind: "weapon"},
		"attack element":   {ID: "x", Name: "x", Kind: item.KindAttack, Element: "wind", Duration: 1},
		"attack duration":  {ID: "x", Name: "x", Kind: item.KindAttack, Element: item.Fire},
		"heal amount":      {ID: "x", Name: "x", Kind: item.KindHealing},
		"utility ward":     {ID: "x", Name: "x", Kind: item.KindUtility, Ward: "teleport"},
		"shield percent":   {ID: "x", Name: "x", Kind: item.KindUtility, Ward: item.WardShield, ShieldPercent: 150},
		"reflect percent":  {ID: "x", Name: "x", Kind: item.KindUtility, Ward: item.WardReflect},
		"combined percent": {ID: "x", Name: "x", Kind: item.KindUtility, Ward: item.WardShieldReflect, ShieldPercent: 100},
	}
	for name, d := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, d.Validate())
		})
	}
}

func TestDef_Charges(t *testing.T) {
	assert.Equal(t, 1, (&item.Def{}).Charges())
	assert.Equal(t, 2, (&item.Def{Duration: 2}).Charges())
}

func TestCatalog_Register_Duplicate(t *testing.T) {
	c := item.NewCatalog()
	require.NoError(t, c.Register(&item.Def{ID: "a"}))
	assert.Error(t, c.Register(&item.Def{ID: "a"}))
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "medkit.yaml"),
		[]byte("id: medkit\nname: Medkit\nkind: healing\nheal_amount: 30\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "oil.yml"),
		[]byte("id: fireOil\nname: Fire Oil\nkind: attack\nelement: fire\ndamage_bonus: 8\nduration: 3\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644))

	c, err := item.LoadDirectory(dir)
	require.NoError(t, err)
	assert.Len(t, c.All(), 2)
	oil, ok := c.Get("fireOil")
	require.True(t, ok)
	assert.Equal(t, item.Fire, oil.Element)
}

func TestLoadDirectory_Invalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("id: bad\nname: Bad\nkind: healing\n"), 0o644))
	_, err := item.LoadDirectory(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml")
}

func TestLoadDirectory_Duplicate(t *testing.T) {
	dir := t.TempDir()
	body := []byte("id: medkit\nname: Medkit\nkind: healing\nheal_amount: 30\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), body, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), body, 0o644))
	_, err := item.LoadDirectory(dir)
	assert.Error(t, err)
}
