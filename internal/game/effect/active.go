package effect

import (
	"fmt"
	"sort"
)

// Active tracks one applied effect on a combatant.
type Active struct {
	Def *Def
	// Magnitude carries the effect's strength: a shield or reflect percentage.
	Magnitude int
	// Remaining is turns left for tick and countdown effects and charges left
	// for event-consumed effects.
	Remaining int
	// Round is the holder's turn number on which the effect was applied.
	Round int
}

// Tick reports what EndOfTurn did to one effect.
type Tick struct {
	ID      string
	Damage  int
	Expired bool
}

// Set tracks the effects on one combatant.
// It is not safe for concurrent use; the caller must serialise access.
type Set struct {
	effects map[string]*Active
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{effects: make(map[string]*Active)}
}

// Apply adds def to the set or refreshes it. Re-applying an effect replaces
// its magnitude, remaining count and round.
//
// Precondition: def must not be nil; remaining >= 1.
// Postcondition: Has(def.ID) is true and Remaining(def.ID) == remaining.
func (s *Set) Apply(def *Def, magnitude, remaining, round int) error {
	if def == nil {
		return fmt.Errorf("Apply: def must not be nil")
	}
	if remaining < 1 {
		return fmt.Errorf("Apply %q: remaining must be >= 1, got %d", def.ID, remaining)
	}
	s.effects[def.ID] = &Active{Def: def, Magnitude: magnitude, Remaining: remaining, Round: round}
	return nil
}

// Has reports whether the effect id is active.
func (s *Set) Has(id string) bool {
	_, ok := s.effects[id]
	return ok
}

// Remaining returns the remaining turns or charges for id, or 0 if absent.
func (s *Set) Remaining(id string) int {
	if a, ok := s.effects[id]; ok {
		return a.Remaining
	}
	return 0
}

// Magnitude returns the magnitude for id, or 0 if absent.
func (s *Set) Magnitude(id string) int {
	if a, ok := s.effects[id]; ok {
		return a.Magnitude
	}
	return 0
}

// Consume uses one charge of id. The effect is removed when its last charge
// is used.
//
// Postcondition: Returns the effect as it was before the charge was used and
// true, or a zero Active and false if id was not active.
func (s *Set) Consume(id string) (Active, bool) {
	a, ok := s.effects[id]
	if !ok {
		return Active{}, false
	}
	before := *a
	a.Remaining--
	if a.Remaining <= 0 {
		delete(s.effects, id)
	}
	return before, true
}

// Remove deletes id from the set. Removing an absent effect is a no-op.
//
// Postcondition: Has(id) is false.
func (s *Set) Remove(id string) {
	delete(s.effects, id)
}

// ClearDebuffs removes every debuff and returns the removed IDs in order.
func (s *Set) ClearDebuffs() []string {
	var cleared []string
	for id, a := range s.effects {
		if a.Def.Polarity == Debuff {
			cleared = append(cleared, id)
			delete(s.effects, id)
		}
	}
	sort.Strings(cleared)
	return cleared
}

// EndOfTurn runs end-of-turn decay for the holder's turn number round.
// Tick effects report their damage and lose one turn; countdown effects lose
// one turn; unused wards applied before round expire.
// Event-consumed effects without ExpiresUnused are left alone.
//
// Postcondition: Every Tick with Expired set names an effect for which Has is
// now false. Ticks are ordered by effect ID.
func (s *Set) EndOfTurn(round int) []Tick {
	ids := make([]string, 0, len(s.effects))
	for id := range s.effects {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var ticks []Tick
	for _, id := range ids {
		a := s.effects[id]
		switch {
		case a.Def.Decay == DecayTick || a.Def.Decay == DecayCountdown:
			a.Remaining--
			t := Tick{ID: id, Damage: a.Def.TickDamage}
			if a.Remaining <= 0 {
				t.Expired = true
				delete(s.effects, id)
			}
			ticks = append(ticks, t)
		case a.Def.ExpiresUnused && a.Round < round:
			delete(s.effects, id)
			ticks = append(ticks, Tick{ID: id, Expired: true})
		}
	}
	return ticks
}

// All returns copies of the active effects ordered by ID.
func (s *Set) All() []Active {
	out := make([]Active, 0, len(s.effects))
	for _, a := range s.effects {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Def.ID < out[j].Def.ID })
	return out
}

// Len returns the number of active effects.
func (s *Set) Len() int {
	return len(s.effects)
}
