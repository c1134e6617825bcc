package battle

import (
	"math"

	"github.com/cory-johannsen/ascent/internal/game/item"
	"github.com/cory-johannsen/ascent/internal/game/opponent"
)

// Affinity is the elemental relationship between an attack and a boss.
type Affinity int

const (
	AffinityNeutral Affinity = iota
	AffinityWeak
	AffinityResist
)

// Multiplier returns 2.0 for weak, 0.5 for resist and 1.0 otherwise.
func (a Affinity) Multiplier() float64 {
	switch a {
	case AffinityWeak:
		return 2.0
	case AffinityResist:
		return 0.5
	default:
		return 1.0
	}
}

// DamageInput is everything the damage calculator needs about one attack.
type DamageInput struct {
	Base    int
	Bonus   int
	Element item.Element
	// Boss is the target's boss data; nil for plain NPCs.
	Boss *opponent.Boss
	// ArmorMultiplier inflates the total when armor reduction is active on the
	// target. Zero or 1.0 means none.
	ArmorMultiplier float64
}

// DamageResult is the calculated damage and how it was reached.
type DamageResult struct {
	Total        int
	Affinity     Affinity
	ArmorApplied bool
}

// CalculateDamage computes final attack damage.
//
// Postcondition: Total = floor(floor((Base+Bonus) * affinity) * armor), where
// affinity applies only against a boss when Element is set.
func CalculateDamage(in DamageInput) DamageResult {
	res := DamageResult{Total: in.Base + in.Bonus}
	if in.Boss != nil && in.Element != "" {
		switch {
		case in.Boss.WeakTo(in.Element):
			res.Affinity = AffinityWeak
		case in.Boss.Resists(in.Element):
			res.Affinity = AffinityResist
		}
		res.Total = scale(res.Total, res.Affinity.Multiplier())
	}
	if in.ArmorMultiplier > 0 && in.ArmorMultiplier != 1.0 {
		res.Total = scale(res.Total, in.ArmorMultiplier)
		res.ArmorApplied = true
	}
	return res
}

// scale multiplies n by m and floors. The epsilon absorbs binary rounding so
// that 20 * 1.15 floors to 23, not 22.
func scale(n int, m float64) int {
	return int(math.Floor(float64(n)*m + 1e-9))
}

// Guard is the player's active defenses against one incoming hit.
type Guard struct {
	Dodge          bool
	ShieldPercent  int
	ReflectPercent int
}

// GuardResult describes how a Guard handled a hit.
type GuardResult struct {
	Raw       int
	Taken     int
	Reflected int
	Dodged    bool
	Shielded  bool
}

// Resolve applies the guard to a raw hit. Dodge takes precedence and also
// suppresses reflection. Otherwise the shield reduces the hit and reflection
// returns a share of the pre-reduction damage.
//
// Postcondition: 0 <= Taken <= raw.
func (g Guard) Resolve(raw int) GuardResult {
	if raw < 0 {
		raw = 0
	}
	res := GuardResult{Raw: raw, Taken: raw}
	if g.Dodge {
		res.Taken = 0
		res.Dodged = true
		return res
	}
	if g.ShieldPercent > 0 {
		res.Taken = raw * (100 - min(g.ShieldPercent, 100)) / 100
		res.Shielded = true
	}
	if g.ReflectPercent > 0 {
		res.Reflected = raw * g.ReflectPercent / 100
	}
	return res
}
