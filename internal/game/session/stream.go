// Package session owns the single live battle: it starts and ends battles,
// schedules the engine's timed steps and publishes battle events to
// presentation collaborators.
package session

import (
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/ascent/internal/game/battle"
)

// DefaultStreamBuffer is the event buffer used when none is configured.
const DefaultStreamBuffer = 256

// Stream routes battle events to a buffered channel read by renderers.
type Stream struct {
	events chan battle.Event
	logger *zap.Logger

	// done is closed first by Close so a Publish waiting on a full buffer
	// lets go of mu.
	done     chan struct{}
	doneOnce sync.Once

	mu     sync.Mutex
	closed bool
}

// NewStream creates a Stream with the given buffer size.
//
// Precondition: logger must not be nil.
// Postcondition: Returns a Stream with an open events channel.
func NewStream(bufferSize int, logger *zap.Logger) *Stream {
	if bufferSize <= 0 {
		bufferSize = DefaultStreamBuffer
	}
	return &Stream{
		events: make(chan battle.Event, bufferSize),
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Publish enqueues ev. Only battle_ended waits for room in the buffer; every
// other kind is published without blocking.
//
// Postcondition: Returns true if ev was enqueued. A full buffer drops any
// kind but battle_ended and logs a warning; a closed stream drops ev
// silently.
func (s *Stream) Publish(ev battle.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	if ev.Kind == battle.EventBattleEnded {
		select {
		case s.events <- ev:
			return true
		default:
		}
		s.logger.Debug("event stream full, waiting to publish battle end",
			zap.String("battle", ev.BattleID.String()),
		)
		select {
		case s.events <- ev:
			return true
		case <-s.done:
			return false
		}
	}
	select {
	case s.events <- ev:
		return true
	default:
		s.logger.Warn("event stream full, dropping event",
			zap.String("battle", ev.BattleID.String()),
			zap.String("kind", string(ev.Kind)),
		)
		return false
	}
}

// Events returns the read-only events channel. It is closed by Close.
func (s *Stream) Events() <-chan battle.Event {
	return s.events
}

// Close closes the events channel. Safe to call multiple times.
//
// Postcondition: Further Publish calls return false.
func (s *Stream) Close() {
	s.doneOnce.Do(func() { close(s.done) })
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.events)
	}
}

// IsClosed reports whether the stream has been closed.
func (s *Stream) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
