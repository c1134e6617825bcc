package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/ascent/internal/game/ai"
	"github.com/cory-johannsen/ascent/internal/game/battle"
	"github.com/cory-johannsen/ascent/internal/game/dice"
	"github.com/cory-johannsen/ascent/internal/game/effect"
	"github.com/cory-johannsen/ascent/internal/game/item"
	"github.com/cory-johannsen/ascent/internal/game/opponent"
)

type queue struct {
	t    testing.TB
	vals []int
}

func (q *queue) Intn(n int) int {
	require.NotEmpty(q.t, q.vals, "unexpected random draw")
	v := q.vals[0]
	q.vals = q.vals[1:]
	return v % n
}

func (q *queue) faces(f ...int) {
	for _, v := range f {
		q.vals = append(q.vals, v-1)
	}
}

type attackOnly struct{}

func (attackOnly) ForDescriptor(*opponent.Descriptor) ai.Policy { return alwaysAttack{} }

type alwaysAttack struct{}

func (alwaysAttack) Decide(ai.Situation, dice.Source) ai.Action { return ai.ActionAttack }

type fakeProgress struct {
	mu        sync.Mutex
	defeated  []string
	inventory map[string]int
	saves     int

	// When set, SaveInventory signals entered and waits for release.
	entered chan struct{}
	release chan struct{}
}

func (p *fakeProgress) MarkDefeated(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.defeated = append(p.defeated, id)
	return nil
}

func (p *fakeProgress) SaveInventory(_ context.Context, counts map[string]int) error {
	if p.entered != nil {
		p.entered <- struct{}{}
		<-p.release
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inventory = counts
	p.saves++
	return nil
}

type fixture struct {
	c        *Controller
	sched    *ManualScheduler
	stream   *Stream
	src      *queue
	progress *fakeProgress
	defeated *opponent.DefeatedSet
	logs     *observer.ObservedLogs
}

func newFixture(t *testing.T, defeated ...string) *fixture {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	opponents, err := opponent.NewRegistry(
		&opponent.Descriptor{ID: "grunt", Name: "Grunt", Floor: 1, MaxHP: 100, Behavior: opponent.BehaviorPlain},
		&opponent.Descriptor{
			ID: "glass_king", Name: "Glass King", Floor: 2, MaxHP: 5, Behavior: opponent.BehaviorBoss,
			Boss: &opponent.Boss{
				Signature: opponent.Signature{Name: "Shatter", Damage: 10, Effect: opponent.SignatureSlow},
				Phase50:   opponent.Phase{Multiplier: 1.2, Announcement: "The Glass King cracks!"},
				Phase20:   opponent.Phase{Multiplier: 1.5, Announcement: "The Glass King splinters!"},
			},
		},
	)
	require.NoError(t, err)

	f := &fixture{
		sched:    &ManualScheduler{},
		stream:   NewStream(1024, logger),
		src:      &queue{t: t},
		progress: &fakeProgress{},
		defeated: opponent.NewDefeatedSet(defeated...),
		logs:     logs,
	}
	f.c, err = NewController(Config{
		Timing:    battle.DefaultTiming(),
		Effects:   effect.Builtins(),
		Items:     item.DefaultCatalog(),
		Inventory: item.NewInventory(map[string]int{"medkit": 1}),
		Defeated:  f.defeated,
		Opponents: opponents,
		Policies:  attackOnly{},
		Source:    f.src,
		Scheduler: f.sched,
		Stream:    f.stream,
		Progress:  f.progress,
		Logger:    logger,
	})
	require.NoError(t, err)
	return f
}

// events drains everything published so far.
func (f *fixture) events() []battle.Event {
	var out []battle.Event
	for {
		select {
		case ev := <-f.stream.Events():
			out = append(out, ev)
		default:
			return out
		}
	}
}

func endings(evs []battle.Event) []battle.Outcome {
	var out []battle.Outcome
	for _, ev := range evs {
		if ev.Kind == battle.EventBattleEnded {
			out = append(out, ev.Outcome)
		}
	}
	return out
}

func TestNewController_MissingCollaborators(t *testing.T) {
	_, err := NewController(Config{Logger: zap.NewNop()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Scheduler")
}

func TestController_StartRejections(t *testing.T) {
	f := newFixture(t, "glass_king")

	_, err := f.c.Start("nobody")
	assert.ErrorIs(t, err, ErrUnknownOpponent)
	_, err = f.c.Start("glass_king")
	assert.ErrorIs(t, err, ErrOpponentDefeated)
	assert.False(t, f.c.Active())
	assert.Empty(t, f.events())

	_, err = f.c.Start("grunt")
	require.NoError(t, err)
	f.events()
	_, err = f.c.Start("grunt")
	assert.ErrorIs(t, err, ErrBattleActive)
	assert.Empty(t, f.events())
}

func TestController_NoBattle(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.c.Submit(battle.ActionAttack, ""), ErrNoBattle)
	assert.ErrorIs(t, f.c.SelectItem("fireOil"), ErrNoBattle)
	assert.False(t, f.c.Forfeit())
	_, ok := f.c.Snapshot()
	assert.False(t, ok)
	assert.Empty(t, f.events())
}

func TestController_SchedulesStagedTurns(t *testing.T) {
	f := newFixture(t)
	_, err := f.c.Start("grunt")
	require.NoError(t, err)

	f.src.faces(3, 4, 2, 2)
	require.NoError(t, f.c.Submit(battle.ActionAttack, ""))
	assert.Equal(t, 1, f.sched.Pending())
	assert.ErrorIs(t, f.c.Submit(battle.ActionHeal, ""), battle.ErrActionInFlight)
	assert.Equal(t, 1, f.logs.FilterMessage("command rejected").Len())

	delays := f.sched.Drain(20)
	ms := time.Millisecond
	assert.Equal(t, []time.Duration{1000 * ms, 1500 * ms, 1500 * ms, 1000 * ms, 1500 * ms}, delays)
	assert.Equal(t, 0, f.sched.Pending())

	snap, ok := f.c.Snapshot()
	require.True(t, ok)
	assert.Equal(t, battle.StageAwaitingPlayerInput, snap.Stage)
	assert.Equal(t, 93, snap.Opponent.HP)
	assert.Equal(t, 96, snap.Player.HP)
	assert.True(t, f.c.Active())
}

func TestController_ForfeitCancelsPendingSteps(t *testing.T) {
	f := newFixture(t)
	id, err := f.c.Start("grunt")
	require.NoError(t, err)
	f.src.faces(3, 4)
	require.NoError(t, f.c.Submit(battle.ActionAttack, ""))
	staleSeq := f.c.seq

	assert.True(t, f.c.Forfeit())
	assert.False(t, f.c.Active())
	assert.Equal(t, 0, f.sched.Pending())
	assert.Equal(t, []battle.Outcome{battle.OutcomeForfeited}, endings(f.events()))

	f.c.fire(id, staleSeq)
	assert.False(t, f.c.Forfeit())
	assert.Empty(t, f.events())
	assert.ErrorIs(t, f.c.Submit(battle.ActionAttack, ""), ErrNoBattle)

	snap, ok := f.c.Snapshot()
	require.True(t, ok)
	assert.Equal(t, 100, snap.Opponent.HP)
	assert.Equal(t, battle.OutcomeForfeited, snap.Outcome)
	assert.Equal(t, 1, f.progress.saves, "inventory is saved after every battle")
	assert.Empty(t, f.progress.defeated)
}

func TestController_StaleStepFromPreviousBattle(t *testing.T) {
	f := newFixture(t)
	oldID, err := f.c.Start("grunt")
	require.NoError(t, err)
	oldSeq := f.c.seq
	require.True(t, f.c.Forfeit())

	_, err = f.c.Start("grunt")
	require.NoError(t, err)
	f.events()
	before, _ := f.c.Snapshot()

	f.c.fire(oldID, oldSeq)
	after, _ := f.c.Snapshot()
	assert.Equal(t, before, after)
	assert.Empty(t, f.events())
	assert.Equal(t, 1, f.logs.FilterMessage("ignoring stale battle step").Len())
}

func TestController_VictoryPersistsProgress(t *testing.T) {
	f := newFixture(t)
	_, err := f.c.Start("glass_king")
	require.NoError(t, err)

	f.src.faces(3, 3)
	require.NoError(t, f.c.Submit(battle.ActionAttack, ""))
	delays := f.sched.Drain(10)
	assert.Equal(t, 2000*time.Millisecond, delays[len(delays)-1], "settle delay before ending")

	assert.False(t, f.c.Active())
	assert.True(t, f.defeated.Has("glass_king"))
	assert.Equal(t, []string{"glass_king"}, f.progress.defeated)
	assert.Equal(t, map[string]int{"medkit": 1}, f.progress.inventory)
	assert.Equal(t, []battle.Outcome{battle.OutcomeWon}, endings(f.events()))
	assert.Equal(t, 1, f.logs.FilterMessage("battle ended").Len())

	_, err = f.c.Start("glass_king")
	assert.ErrorIs(t, err, ErrOpponentDefeated)
}

func TestController_PersistsWithoutHoldingLock(t *testing.T) {
	f := newFixture(t)
	f.progress.entered = make(chan struct{})
	f.progress.release = make(chan struct{})
	_, err := f.c.Start("grunt")
	require.NoError(t, err)

	forfeited := make(chan bool, 1)
	go func() { forfeited <- f.c.Forfeit() }()
	<-f.progress.entered

	queried := make(chan bool, 1)
	go func() {
		_, ok := f.c.Snapshot()
		queried <- ok && !f.c.Active()
	}()
	select {
	case ok := <-queried:
		assert.True(t, ok, "ended battle visible while progress is written")
	case <-time.After(time.Second):
		t.Fatal("Snapshot blocked behind the progress write")
	}
	_, err = f.c.Start("grunt")
	require.NoError(t, err, "a new battle starts while progress is written")

	close(f.progress.release)
	assert.True(t, <-forfeited)
	f.progress.mu.Lock()
	defer f.progress.mu.Unlock()
	assert.Equal(t, 1, f.progress.saves)
	assert.Equal(t, map[string]int{"medkit": 1}, f.progress.inventory)
}

func TestController_ForfeitDuringSettleKeepsOutcome(t *testing.T) {
	f := newFixture(t)
	_, err := f.c.Start("glass_king")
	require.NoError(t, err)
	f.src.faces(3, 3)
	require.NoError(t, f.c.Submit(battle.ActionAttack, ""))
	f.sched.Drain(2)
	require.Equal(t, 1, f.sched.Pending(), "settle step pending")

	assert.True(t, f.c.Forfeit())
	assert.Equal(t, 0, f.sched.Pending())
	assert.Equal(t, []battle.Outcome{battle.OutcomeWon}, endings(f.events()))
	assert.True(t, f.defeated.Has("glass_king"))
}

func TestController_SelectItemRejection(t *testing.T) {
	f := newFixture(t)
	_, err := f.c.Start("grunt")
	require.NoError(t, err)
	assert.ErrorIs(t, f.c.SelectItem("medkit"), battle.ErrItemKind)
	assert.ErrorIs(t, f.c.SelectItem("fireOil"), battle.ErrItemUnavailable)
	require.NoError(t, f.c.SelectItem(""))
}

func TestController_ClockScheduler(t *testing.T) {
	logger := zap.NewNop()
	opponents, err := opponent.NewRegistry(&opponent.Descriptor{ID: "grunt", Name: "Grunt", Floor: 1, MaxHP: 100, Behavior: opponent.BehaviorPlain})
	require.NoError(t, err)
	stream := NewStream(1024, logger)
	c, err := NewController(Config{
		Timing:    battle.Timing{Reveal: time.Millisecond, Commit: time.Millisecond, OpponentDelay: time.Millisecond, Settle: time.Millisecond},
		Effects:   effect.Builtins(),
		Items:     item.DefaultCatalog(),
		Inventory: item.NewInventory(nil),
		Defeated:  opponent.NewDefeatedSet(),
		Opponents: opponents,
		Policies:  ai.NewRegistry(nil, logger),
		Source:    dice.NewSeededSource(42),
		Scheduler: ClockScheduler{},
		Stream:    stream,
		Logger:    logger,
	})
	require.NoError(t, err)

	_, err = c.Start("grunt")
	require.NoError(t, err)
	require.NoError(t, c.Submit(battle.ActionAttack, ""))

	require.Eventually(t, func() bool {
		snap, _ := c.Snapshot()
		return snap.Stage == battle.StageAwaitingPlayerInput && len(snap.Log) >= 3
	}, 2*time.Second, 5*time.Millisecond)
	assert.True(t, c.Forfeit())
}
