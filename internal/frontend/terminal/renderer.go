package terminal

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/ascent/internal/game/battle"
	"github.com/cory-johannsen/ascent/internal/game/command"
	"github.com/cory-johannsen/ascent/internal/game/item"
	"github.com/cory-johannsen/ascent/internal/game/opponent"
)

const barWidth = 20

// RenderEvent formats one battle event as a single line. opponentName labels
// the opponent's side.
//
// Postcondition: Returns "" for events with nothing to show.
func RenderEvent(ev battle.Event, opponentName string) string {
	who := func(s battle.Side) string {
		if s == battle.Player {
			return "You"
		}
		return opponentName
	}
	switch ev.Kind {
	case battle.EventLog:
		return Colorize(White, ev.Text)
	case battle.EventDiceRolling:
		label := string(ev.Roll)
		if ev.Item != "" {
			label += " with " + ev.Item
		}
		return Colorf(Dim, "%s: rolling %s...", who(ev.Actor), label)
	case battle.EventDiceRevealed:
		faces := make([]string, len(ev.Dice))
		for i, f := range ev.Dice {
			faces[i] = fmt.Sprintf("[%d]", f)
		}
		return Colorf(BrightCyan, "%s rolled %s", who(ev.Actor), strings.Join(faces, " "))
	case battle.EventPopup:
		if ev.Amount == 0 {
			return ""
		}
		if ev.Popup == battle.PopupHeal {
			return Colorf(BrightGreen, "  +%d %s", ev.Amount, who(ev.Target))
		}
		return Colorf(BrightRed, "  -%d %s", ev.Amount, who(ev.Target))
	case battle.EventTurnChanged:
		if ev.Owner == battle.Player {
			return Colorize(Bold, "--- Your turn ---")
		}
		return Colorf(Bold, "--- %s's turn ---", opponentName)
	case battle.EventBattleEnded:
		switch ev.Outcome {
		case battle.OutcomeWon:
			return Colorize(BrightYellow+Bold, "*** VICTORY ***")
		case battle.OutcomeLost:
			return Colorize(Red+Bold, "*** DEFEAT ***")
		default:
			return Colorize(Dim, "Battle abandoned.")
		}
	}
	return ""
}

// RenderSnapshot formats the battle state as a status panel.
func RenderSnapshot(s battle.Snapshot) string {
	var b strings.Builder
	title := s.OpponentName
	if s.Boss {
		title = fmt.Sprintf("%s (boss, %s)", s.OpponentName, s.Phase)
	}
	b.WriteString(Colorize(BrightYellow, title))
	b.WriteString("\n")
	writeSide(&b, s.OpponentName, s.Opponent)
	writeSide(&b, "You", s.Player)

	dice := func(ok bool) string {
		if ok {
			return Colorize(Green, "ready")
		}
		return Colorize(Dim, "used")
	}
	fmt.Fprintf(&b, "Chaos die: %s  Random event die: %s\n", dice(s.ChaosAvailable), dice(s.EventAvailable))
	if s.Selected != "" {
		fmt.Fprintf(&b, "Selected: %s\n", Colorize(Cyan, s.Selected))
	}
	if s.Outcome != battle.OutcomeNone {
		fmt.Fprintf(&b, "Outcome: %s\n", s.Outcome)
	} else if s.Turn == battle.Player && s.Stage == battle.StageAwaitingPlayerInput {
		b.WriteString(Colorize(Bold, "Your move.\n"))
	}
	for _, l := range s.Log {
		b.WriteString(Colorize(Dim, "  "+l))
		b.WriteString("\n")
	}
	return b.String()
}

func writeSide(b *strings.Builder, name string, v battle.SideView) {
	fmt.Fprintf(b, "%-16s %s %d/%d", name, HPBar(v.HP, v.MaxHP, barWidth), v.HP, v.MaxHP)
	var tags []string
	for _, fx := range v.Effects {
		tag := fmt.Sprintf("%s(%d)", fx.Name, fx.Remaining)
		if fx.Magnitude > 0 {
			tag = fmt.Sprintf("%s %d%%(%d)", fx.Name, fx.Magnitude, fx.Remaining)
		}
		tags = append(tags, tag)
	}
	if v.SkipNext {
		tags = append(tags, "stunned")
	}
	if v.TripleDice {
		tags = append(tags, "3 dice")
	}
	if len(tags) > 0 {
		b.WriteString(" " + Colorize(Magenta, strings.Join(tags, ", ")))
	}
	b.WriteString("\n")
}

// RenderOpponents lists the tower's opponents by floor, marking beaten ones.
func RenderOpponents(opps []*opponent.Descriptor, defeated *opponent.DefeatedSet) string {
	var b strings.Builder
	for _, d := range opps {
		line := fmt.Sprintf("floor %2d  %-18s %-20s %3d HP", d.Floor, d.ID, d.Name, d.MaxHP)
		switch {
		case defeated.Has(d.ID):
			b.WriteString(Colorize(Dim, line+"  (defeated)"))
		case d.IsBoss():
			b.WriteString(Colorize(BrightYellow, line+"  BOSS"))
		default:
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RenderItems lists catalogue items with their remaining counts.
func RenderItems(cat *item.Catalog, counts map[string]int) string {
	var b strings.Builder
	kind := item.Kind("")
	for _, d := range cat.All() {
		if d.Kind != kind {
			kind = d.Kind
			b.WriteString(Colorize(Cyan, strings.ToUpper(string(kind))))
			b.WriteString("\n")
		}
		line := fmt.Sprintf("  %-16s x%-2d %s", d.ID, counts[d.ID], d.Description)
		if counts[d.ID] == 0 {
			line = Colorize(Dim, line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// RenderHelp lists commands grouped by category.
func RenderHelp(reg *command.Registry) string {
	var b strings.Builder
	cats := reg.CommandsByCategory()
	for _, cat := range []string{command.CategoryTower, command.CategoryBattle, command.CategoryItems, command.CategorySystem} {
		b.WriteString(Colorize(Cyan, strings.ToUpper(cat)))
		b.WriteString("\n")
		for _, c := range cats[cat] {
			usage := c.Usage()
			if len(c.Aliases) > 0 {
				usage += " (" + strings.Join(c.Aliases, ", ") + ")"
			}
			fmt.Fprintf(&b, "  %-28s %s\n", usage, c.Help)
		}
	}
	return b.String()
}
