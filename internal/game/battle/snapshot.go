package battle

import (
	"github.com/google/uuid"
)

// EffectView is a read-only view of one active effect.
type EffectView struct {
	ID        string
	Name      string
	Remaining int
	Magnitude int
}

// SideView is a read-only view of one combatant.
type SideView struct {
	HP         int
	MaxHP      int
	SkipNext   bool
	TripleDice bool
	Effects    []EffectView
}

// Snapshot is a copy of everything a renderer needs. It shares no memory
// with the engine.
type Snapshot struct {
	BattleID       uuid.UUID
	OpponentID     string
	OpponentName   string
	Boss           bool
	Stage          Stage
	Turn           Side
	Phase          Phase
	Player         SideView
	Opponent       SideView
	ChaosAvailable bool
	EventAvailable bool
	Selected       string
	Outcome        Outcome
	// Log is the last LogTail narration lines, oldest first.
	Log []string
}

// Snapshot returns a copy of the current battle state.
func (e *Engine) Snapshot() Snapshot {
	st := e.state
	tail := st.Log
	if len(tail) > LogTail {
		tail = tail[len(tail)-LogTail:]
	}
	return Snapshot{
		BattleID:       st.ID,
		OpponentID:     st.Descriptor.ID,
		OpponentName:   st.Descriptor.Name,
		Boss:           st.Kind == Boss,
		Stage:          e.Stage(),
		Turn:           st.Turn,
		Phase:          st.Phase,
		Player:         sideView(&st.Player),
		Opponent:       sideView(&st.Opponent),
		ChaosAvailable: st.ChaosDie > 0,
		EventAvailable: st.EventDie > 0,
		Selected:       st.Selected,
		Outcome:        e.outcome,
		Log:            append([]string(nil), tail...),
	}
}

func sideView(c *Combatant) SideView {
	v := SideView{HP: c.HP, MaxHP: c.MaxHP, SkipNext: c.SkipNext, TripleDice: c.TripleDice}
	for _, a := range c.Effects.All() {
		v.Effects = append(v.Effects, EffectView{ID: a.Def.ID, Name: a.Def.Name, Remaining: a.Remaining, Magnitude: a.Magnitude})
	}
	return v
}
