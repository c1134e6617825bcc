package scripting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/ascent/internal/game/dice"
)

var (
	// ErrNotLoaded is returned by CallHook before Load has succeeded.
	ErrNotLoaded = errors.New("scripting: no scripts loaded")
	// ErrHookNotFound is returned when the named global is not a function.
	ErrHookNotFound = errors.New("scripting: hook not defined")
)

// Manager owns one sandboxed LState holding every AI script and dispatches
// hook calls to it.
//
// Manager is safe for concurrent use; calls are serialised because an
// LState is single-threaded.
type Manager struct {
	mu     sync.Mutex
	L      *lua.LState
	limit  int
	src    dice.Source
	logger *zap.Logger
}

// NewManager creates a Manager with no scripts loaded.
//
// Precondition: logger must be non-nil.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{logger: logger}
}

// Load creates a fresh sandboxed VM, installs the ascent module, then
// executes every *.lua file in scriptDir in lexicographic order. A previous VM
// is replaced only when the new one loads cleanly.
//
// Precondition: scriptDir must be a readable directory; instLimit >= 0.
// Postcondition: Returns an error naming the first file that fails to load.
func (m *Manager) Load(scriptDir string, instLimit int) error {
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q: %w", scriptDir, err)
	}
	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	L := NewSandboxedState()
	m.registerModules(L)
	for _, path := range luaFiles {
		if err := withInstructionLimit(L, instLimit, func() error { return L.DoFile(path) }); err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.L != nil {
		m.L.Close()
	}
	m.L = L
	m.limit = instLimit
	m.logger.Info("scripting: loaded AI scripts",
		zap.String("dir", scriptDir),
		zap.Int("files", len(luaFiles)),
	)
	return nil
}

// HasHook reports whether hook is a function in the loaded VM.
func (m *Manager) HasHook(hook string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.L == nil {
		return false
	}
	return m.L.GetGlobal(hook).Type() == lua.LTFunction
}

// CallHook calls the Lua global function hook with one table argument built
// from fields. src backs the ascent module for the duration of the call.
//
// Precondition: src must be non-nil.
// Postcondition: Returns the hook's first return value, or an error wrapping
// ErrNotLoaded, ErrHookNotFound, or the Lua runtime error. Runtime errors are
// also logged at warn level.
func (m *Manager) CallHook(hook string, src dice.Source, fields map[string]lua.LValue) (lua.LValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.L == nil {
		return lua.LNil, ErrNotLoaded
	}
	L := m.L
	fn := L.GetGlobal(hook)
	if fn.Type() != lua.LTFunction {
		return lua.LNil, fmt.Errorf("%w: %q", ErrHookNotFound, hook)
	}

	arg := L.NewTable()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		L.SetField(arg, k, fields[k])
	}

	m.src = src
	defer func() { m.src = nil }()

	err := withInstructionLimit(L, m.limit, func() error {
		return L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, arg)
	})
	if err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, fmt.Errorf("scripting: calling %q: %w", hook, err)
	}
	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

// Close releases the VM. CallHook returns ErrNotLoaded afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.L != nil {
		m.L.Close()
		m.L = nil
	}
}
