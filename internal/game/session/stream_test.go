package session

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/ascent/internal/game/battle"
)

func TestStream_Publish(t *testing.T) {
	s := NewStream(4, zap.NewNop())
	require.True(t, s.Publish(battle.Event{Kind: battle.EventLog, Text: "hello"}))

	ev := <-s.Events()
	assert.Equal(t, "hello", ev.Text)
}

func TestStream_PublishClosed(t *testing.T) {
	s := NewStream(4, zap.NewNop())
	s.Close()
	assert.True(t, s.IsClosed())
	assert.False(t, s.Publish(battle.Event{Kind: battle.EventLog}))
}

func TestStream_PublishFullWarns(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	s := NewStream(1, zap.New(core))
	require.True(t, s.Publish(battle.Event{Kind: battle.EventLog}))
	assert.False(t, s.Publish(battle.Event{Kind: battle.EventPopup}))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "popup", logs.All()[0].ContextMap()["kind"])
}

func TestStream_BattleEndedNeverDropped(t *testing.T) {
	s := NewStream(1, zap.NewNop())
	require.True(t, s.Publish(battle.Event{Kind: battle.EventLog, Text: "filler"}))

	published := make(chan bool, 1)
	go func() {
		published <- s.Publish(battle.Event{Kind: battle.EventBattleEnded, Outcome: battle.OutcomeWon})
	}()

	assert.Equal(t, "filler", (<-s.Events()).Text)
	require.True(t, <-published)
	ev := <-s.Events()
	assert.Equal(t, battle.EventBattleEnded, ev.Kind)
	assert.Equal(t, battle.OutcomeWon, ev.Outcome)
}

func TestStream_CloseReleasesWaitingBattleEnd(t *testing.T) {
	s := NewStream(1, zap.NewNop())
	require.True(t, s.Publish(battle.Event{Kind: battle.EventLog}))

	published := make(chan bool, 1)
	go func() {
		published <- s.Publish(battle.Event{Kind: battle.EventBattleEnded})
	}()
	time.Sleep(20 * time.Millisecond)
	s.Close()

	select {
	case ok := <-published:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Publish still blocked after Close")
	}
}

func TestStream_CloseIdempotent(t *testing.T) {
	s := NewStream(4, zap.NewNop())
	s.Close()
	s.Close()
	assert.True(t, s.IsClosed())
	_, open := <-s.Events()
	assert.False(t, open)
}

func TestProperty_StreamPreservesOrder(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		texts := rapid.SliceOfN(rapid.StringMatching(`[a-z]{1,8}`), 0, 64).Draw(rt, "texts")
		s := NewStream(64, zap.NewNop())
		for _, txt := range texts {
			if !s.Publish(battle.Event{Kind: battle.EventLog, Text: txt}) {
				rt.Fatalf("publish %q failed", txt)
			}
		}
		s.Close()
		i := 0
		for ev := range s.Events() {
			if ev.Text != texts[i] {
				rt.Fatalf("event %d = %q, want %q", i, ev.Text, texts[i])
			}
			i++
		}
		if i != len(texts) {
			rt.Fatalf("read %d events, want %d", i, len(texts))
		}
	})
}

func TestStepTimer_Fires(t *testing.T) {
	var called atomic.Int32
	st := NewStepTimer(20*time.Millisecond, func() {
		called.Add(1)
	})
	_ = st
	require.Eventually(t, func() bool { return called.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestStepTimer_StopPreventsCallback(t *testing.T) {
	var called atomic.Int32
	st := NewStepTimer(50*time.Millisecond, func() {
		called.Add(1)
	})
	st.Stop()
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(0), called.Load())
}

func TestStepTimer_StopIdempotent(t *testing.T) {
	st := NewStepTimer(50*time.Millisecond, func() {})
	st.Stop()
	st.Stop()
	st.Stop()
}

func TestManualScheduler_SkipsStopped(t *testing.T) {
	m := &ManualScheduler{}
	var order []int
	m.AfterFunc(time.Second, func() { order = append(order, 1) })
	stopped := m.AfterFunc(2*time.Second, func() { order = append(order, 2) })
	m.AfterFunc(3*time.Second, func() { order = append(order, 3) })
	stopped.Stop()
	assert.Equal(t, 2, m.Pending())

	assert.Equal(t, []time.Duration{time.Second, 3 * time.Second}, m.Drain(10))
	assert.Equal(t, []int{1, 3}, order)
	_, ok := m.FireNext()
	assert.False(t, ok)
}
