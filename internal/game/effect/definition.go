// Package effect holds the status effect table and the per-side active
// effect sets used by the battle engine.
package effect

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Polarity classifies an effect as harmful or helpful to its holder.
type Polarity string

const (
	Debuff Polarity = "debuff"
	Buff   Polarity = "buff"
)

// Decay names the rule that shortens an effect's life.
type Decay string

const (
	// DecayTick effects deal TickDamage at the end of the holder's turn and
	// lose one turn of duration.
	DecayTick Decay = "tick"
	// DecayCountdown effects lose one turn of duration at the end of the
	// holder's turn and do nothing else on their own.
	DecayCountdown Decay = "countdown"
	// DecayOnAct effects are consumed the next time the holder would act.
	DecayOnAct Decay = "on_act"
	// DecayOnRoll effects are consumed by the holder's next dice roll.
	DecayOnRoll Decay = "on_roll"
	// DecayOnHit effects are consumed when the holder is next attacked.
	DecayOnHit Decay = "on_hit"
)

// Well-known effect IDs referenced by the battle engine.
const (
	Burn       = "burn"
	Poison     = "poison"
	ArmorBreak = "armor_break"
	Freeze     = "freeze"
	Slow       = "slow"
	Dodge      = "dodge"
	Shield     = "shield"
	Reflect    = "reflect"
)

// Def is the static definition of one status effect.
type Def struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Polarity    Polarity `yaml:"polarity"`
	Decay       Decay    `yaml:"decay"`
	TickDamage  int      `yaml:"tick_damage"`
	// DamageMultiplier scales attack damage the holder receives; 0 means 1.0.
	DamageMultiplier float64 `yaml:"damage_multiplier"`
	// ExpiresUnused wards are dropped at the end of the holder's next turn
	// when nothing consumed them.
	ExpiresUnused bool `yaml:"expires_unused"`
}

// Validate checks the definition's invariants.
//
// Postcondition: Returns nil iff ID and Name are non-empty, Polarity and Decay
// are known values, TickDamage >= 0 and DamageMultiplier >= 0.
func (d *Def) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("effect: id must not be empty")
	}
	if d.Name == "" {
		return fmt.Errorf("effect %q: name must not be empty", d.ID)
	}
	switch d.Polarity {
	case Debuff, Buff:
	default:
		return fmt.Errorf("effect %q: unknown polarity %q", d.ID, d.Polarity)
	}
	switch d.Decay {
	case DecayTick, DecayCountdown, DecayOnAct, DecayOnRoll, DecayOnHit:
	default:
		return fmt.Errorf("effect %q: unknown decay %q", d.ID, d.Decay)
	}
	if d.TickDamage < 0 {
		return fmt.Errorf("effect %q: tick_damage must be >= 0", d.ID)
	}
	if d.DamageMultiplier < 0 {
		return fmt.Errorf("effect %q: damage_multiplier must be >= 0", d.ID)
	}
	return nil
}

// Multiplier returns DamageMultiplier, treating zero as 1.0.
func (d *Def) Multiplier() float64 {
	if d.DamageMultiplier == 0 {
		return 1.0
	}
	return d.DamageMultiplier
}

// Registry holds all known effect definitions keyed by ID.
type Registry struct {
	defs map[string]*Def
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Def)}
}

// Builtins returns a Registry populated with the standard effect table.
func Builtins() *Registry {
	r := NewRegistry()
	for _, d := range []*Def{
		{ID: Burn, Name: "Burn", Description: "Takes fire damage each turn.", Polarity: Debuff, Decay: DecayTick, TickDamage: 5},
		{ID: Poison, Name: "Poison", Description: "Takes poison damage each turn.", Polarity: Debuff, Decay: DecayTick, TickDamage: 3},
		{ID: ArmorBreak, Name: "Armor Break", Description: "Takes extra damage from attacks.", Polarity: Debuff, Decay: DecayCountdown, DamageMultiplier: 1.2},
		{ID: Freeze, Name: "Freeze", Description: "Loses the next action.", Polarity: Debuff, Decay: DecayOnAct},
		{ID: Slow, Name: "Slow", Description: "Rolls one fewer die next time.", Polarity: Debuff, Decay: DecayOnRoll},
		{ID: Dodge, Name: "Dodge", Description: "Evades the next attack.", Polarity: Buff, Decay: DecayOnHit, ExpiresUnused: true},
		{ID: Shield, Name: "Shield", Description: "Reduces the next hit by a percentage.", Polarity: Buff, Decay: DecayOnHit, ExpiresUnused: true},
		{ID: Reflect, Name: "Reflect", Description: "Returns a percentage of incoming damage.", Polarity: Buff, Decay: DecayOnHit},
	} {
		r.Register(d)
	}
	return r
}

// Register adds def, replacing any existing entry with the same ID.
//
// Precondition: def must not be nil and def.ID must not be empty.
func (r *Registry) Register(def *Def) {
	r.defs[def.ID] = def
}

// Get returns the definition for id, or (nil, false) if not found.
func (r *Registry) Get(id string) (*Def, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// MustGet returns the definition for id and panics if it is missing.
func (r *Registry) MustGet(id string) *Def {
	d, ok := r.defs[id]
	if !ok {
		panic("effect: no definition registered for " + id)
	}
	return d
}

// All returns every registered definition ordered by ID.
func (r *Registry) All() []*Def {
	out := make([]*Def, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LoadDirectory reads every *.yaml file in dir and registers each definition
// into a copy of base, overriding built-ins with the same ID.
//
// Precondition: dir must be a readable directory; base may be nil.
// Postcondition: Returns a non-nil Registry, or an error naming the first
// file that fails to parse or validate.
func LoadDirectory(dir string, base *Registry) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading effect dir %q: %w", dir, err)
	}
	reg := NewRegistry()
	if base != nil {
		for id, d := range base.defs {
			reg.defs[id] = d
		}
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var def Def
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("validating %q: %w", path, err)
		}
		reg.Register(&def)
	}
	return reg, nil
}
