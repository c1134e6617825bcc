package scripting

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/ascent/internal/game/dice"
)

// registerModules installs the ascent table into L.
//
//	ascent.d6()         -- one six-sided die from the caller's source
//	ascent.chance(pct)  -- true with probability pct/100
//
// Both read m.src, which CallHook sets for the duration of a call. Outside a
// call they raise a Lua error.
func (m *Manager) registerModules(L *lua.LState) {
	mod := L.NewTable()
	L.SetField(mod, "d6", L.NewFunction(func(L *lua.LState) int {
		src := m.src
		if src == nil {
			L.RaiseError("ascent.d6 called outside a hook")
			return 0
		}
		L.Push(lua.LNumber(dice.D6(src)))
		return 1
	}))
	L.SetField(mod, "chance", L.NewFunction(func(L *lua.LState) int {
		pct := L.CheckInt(1)
		src := m.src
		if src == nil {
			L.RaiseError("ascent.chance called outside a hook")
			return 0
		}
		L.Push(lua.LBool(dice.Chance(src, pct)))
		return 1
	}))
	L.SetGlobal("ascent", mod)
}
