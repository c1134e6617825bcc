package battle

// NextPhase returns the phase a boss at hp/maxHP should be in, and whether
// that is an escalation from current. At or below 20% the boss enters
// Phase20 from either earlier phase; at or below 50% a Normal boss enters
// Phase50. Phases never go back.
func NextPhase(hp, maxHP int, current Phase) (Phase, bool) {
	if maxHP <= 0 {
		return current, false
	}
	switch {
	case hp*5 <= maxHP && current != Phase20:
		return Phase20, true
	case hp*2 <= maxHP && current == PhaseNormal:
		return Phase50, true
	}
	return current, false
}
