package battle_test

import (
	"testing"

	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/ascent/internal/game/ai"
	"github.com/cory-johannsen/ascent/internal/game/battle"
	"github.com/cory-johannsen/ascent/internal/game/dice"
	"github.com/cory-johannsen/ascent/internal/game/effect"
	"github.com/cory-johannsen/ascent/internal/game/item"
	"github.com/cory-johannsen/ascent/internal/game/opponent"
)

// TestProperty_RandomBattlesKeepInvariants plays seeded battles with random
// player choices and checks the state after every transition.
func TestProperty_RandomBattlesKeepInvariants(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Int64().Draw(rt, "seed")
		boss := rapid.Bool().Draw(rt, "boss")
		desc := plainNPC()
		var policy ai.Policy = ai.NewPlainPolicy()
		if boss {
			desc = flameTitan()
			policy = ai.NewBossPolicy()
		}

		var events []battle.Event
		inv := item.NewInventory(map[string]int{
			"fireOil": 2, "iceCharm": 2, "acidFlask": 1, "lightningShard": 1,
			"medkit": 1, "antibiotics": 1, "shieldPotion": 1, "frostBarrier": 1, "mirrorCrystal": 1, "smokeBomb": 1,
		})
		e, err := battle.New(desc, battle.Options{
			Effects:   effect.Builtins(),
			Items:     item.DefaultCatalog(),
			Inventory: inv,
			Defeated:  opponent.NewDefeatedSet(),
			Policy:    policy,
			Source:    dice.NewSeededSource(seed),
			Emit:      func(ev battle.Event) { events = append(events, ev) },
			Logger:    zap.NewNop(),
		})
		if err != nil {
			rt.Fatal(err)
		}

		lastPhase := battle.PhaseNormal
		chaosSpent, eventSpent := false, false
		check := func() {
			snap := e.Snapshot()
			for _, side := range []battle.SideView{snap.Player, snap.Opponent} {
				if side.HP < 0 || side.HP > side.MaxHP {
					rt.Fatalf("HP %d outside [0, %d]", side.HP, side.MaxHP)
				}
			}
			if snap.Phase < lastPhase {
				rt.Fatalf("phase went back from %s to %s", lastPhase, snap.Phase)
			}
			lastPhase = snap.Phase
			if chaosSpent && snap.ChaosAvailable {
				rt.Fatal("chaos die came back")
			}
			if eventSpent && snap.EventAvailable {
				rt.Fatal("random event die came back")
			}
			chaosSpent = !snap.ChaosAvailable
			eventSpent = !snap.EventAvailable
		}

		items := []string{"medkit", "antibiotics", "shieldPotion", "frostBarrier", "mirrorCrystal", "smokeBomb"}
		attacks := []string{"", "fireOil", "iceCharm", "acidFlask", "lightningShard"}
		for turn := 0; turn < 80 && !e.Ended(); turn++ {
			if sel := rapid.SampledFrom(attacks).Draw(rt, "select"); sel != "" {
				_ = e.Select(sel)
			}
			kind := rapid.SampledFrom([]battle.ActionKind{
				battle.ActionAttack, battle.ActionAttack, battle.ActionHeal,
				battle.ActionChaos, battle.ActionRandomEvent, battle.ActionUseItem,
			}).Draw(rt, "action")
			itemID := rapid.SampledFrom(items).Draw(rt, "item")
			s, err := e.Submit(kind, itemID)
			if err != nil {
				s, err = e.Submit(battle.ActionAttack, "")
				if err != nil {
					_ = e.Select("")
					s, err = e.Submit(battle.ActionAttack, "")
					if err != nil {
						rt.Fatalf("plain attack rejected: %v", err)
					}
				}
			}
			check()
			for i := 0; s.Next; i++ {
				if i > 200 {
					rt.Fatal("engine did not settle")
				}
				s = e.Advance()
				check()
			}
		}

		ended := 0
		announced := map[string]int{}
		for _, ev := range events {
			if ev.Kind == battle.EventBattleEnded {
				ended++
			}
			if ev.Kind == battle.EventLog {
				announced[ev.Text]++
			}
		}
		if e.Ended() && ended != 1 {
			rt.Fatalf("battle_ended emitted %d times", ended)
		}
		if !e.Ended() && ended != 0 {
			rt.Fatalf("battle_ended emitted %d times on a live battle", ended)
		}
		if boss {
			for _, a := range []string{desc.Boss.Phase50.Announcement, desc.Boss.Phase20.Announcement} {
				if announced[a] > 1 {
					rt.Fatalf("%q announced %d times", a, announced[a])
				}
			}
		}
	})
}
