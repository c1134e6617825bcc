package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/ascent/internal/game/ai"
	"github.com/cory-johannsen/ascent/internal/game/battle"
	"github.com/cory-johannsen/ascent/internal/game/dice"
	"github.com/cory-johannsen/ascent/internal/game/effect"
	"github.com/cory-johannsen/ascent/internal/game/item"
	"github.com/cory-johannsen/ascent/internal/game/opponent"
)

// Rejections. A rejected call changes nothing and publishes no events.
var (
	ErrBattleActive     = errors.New("session: a battle is already active")
	ErrNoBattle         = errors.New("session: no active battle")
	ErrOpponentDefeated = errors.New("session: opponent already defeated")
	ErrUnknownOpponent  = errors.New("session: unknown opponent")
)

// persistTimeout bounds each progress write after a battle ends.
const persistTimeout = 5 * time.Second

// PolicySource picks the AI policy for an opponent.
type PolicySource interface {
	ForDescriptor(d *opponent.Descriptor) ai.Policy
}

// Progress stores what outlives a battle.
type Progress interface {
	MarkDefeated(ctx context.Context, opponentID string) error
	SaveInventory(ctx context.Context, counts map[string]int) error
}

// Config holds a Controller's collaborators.
type Config struct {
	Timing      battle.Timing
	PlayerMaxHP int
	Effects     *effect.Registry
	Items       *item.Catalog
	Inventory   *item.Inventory
	Defeated    *opponent.DefeatedSet
	Opponents   *opponent.Registry
	Policies    PolicySource
	Source      dice.Source
	Scheduler   Scheduler
	Stream      *Stream
	// Progress is optional; nil keeps progress in memory only.
	Progress Progress
	Logger   *zap.Logger
}

// Controller is the entry point for everything outside the engine. It owns
// at most one live battle and schedules its timed steps.
// All methods are safe for concurrent use.
type Controller struct {
	cfg Config

	// mu serialises engine access between callers and scheduled steps.
	mu     sync.Mutex
	engine *battle.Engine
	timer  Timer
	// seq identifies the most recently scheduled step; older callbacks are
	// stale and ignored.
	seq uint64
	// ended is set by finish and written to Progress by unlock once mu is
	// released.
	ended *ending

	// persistMu keeps progress writes in battle order.
	persistMu sync.Mutex
}

// ending is what finish hands to persist.
type ending struct {
	battleID   uuid.UUID
	opponentID string
	outcome    battle.Outcome
}

// NewController validates cfg and returns an idle Controller.
//
// Precondition: every Config field except Progress, Timing and PlayerMaxHP
// must be set.
// Postcondition: Active() is false.
func NewController(cfg Config) (*Controller, error) {
	var missing []string
	for name, ok := range map[string]bool{
		"Effects":   cfg.Effects != nil,
		"Items":     cfg.Items != nil,
		"Inventory": cfg.Inventory != nil,
		"Defeated":  cfg.Defeated != nil,
		"Opponents": cfg.Opponents != nil,
		"Policies":  cfg.Policies != nil,
		"Source":    cfg.Source != nil,
		"Scheduler": cfg.Scheduler != nil,
		"Stream":    cfg.Stream != nil,
		"Logger":    cfg.Logger != nil,
	} {
		if !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("session.NewController: missing %v", missing)
	}
	return &Controller{cfg: cfg}, nil
}

// Start begins a battle against the opponent with the given id.
//
// Postcondition: On success a battle is active and its opening line has been
// published. On error nothing changed.
func (c *Controller) Start(opponentID string) (uuid.UUID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.activeLocked() {
		return uuid.Nil, ErrBattleActive
	}
	desc, ok := c.cfg.Opponents.Get(opponentID)
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrUnknownOpponent, opponentID)
	}
	if c.cfg.Defeated.Has(desc.ID) {
		return uuid.Nil, ErrOpponentDefeated
	}

	e, err := battle.New(desc, battle.Options{
		Timing:      c.cfg.Timing,
		PlayerMaxHP: c.cfg.PlayerMaxHP,
		Effects:     c.cfg.Effects,
		Items:       c.cfg.Items,
		Inventory:   c.cfg.Inventory,
		Defeated:    c.cfg.Defeated,
		Policy:      c.cfg.Policies.ForDescriptor(desc),
		Source:      c.cfg.Source,
		Emit:        func(ev battle.Event) { c.cfg.Stream.Publish(ev) },
		Logger:      c.cfg.Logger,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("starting battle against %q: %w", desc.ID, err)
	}
	c.engine = e
	c.cfg.Logger.Info("battle started",
		zap.String("battle", e.ID().String()),
		zap.String("opponent", desc.ID),
		zap.Bool("boss", desc.IsBoss()),
	)
	return e.ID(), nil
}

// Submit sends a player action to the live battle.
func (c *Controller) Submit(kind battle.ActionKind, itemID string) error {
	c.mu.Lock()
	defer c.unlock()

	if !c.activeLocked() {
		return ErrNoBattle
	}
	step, err := c.engine.Submit(kind, itemID)
	if err != nil {
		c.reject("submit", err, zap.String("action", string(kind)), zap.String("item", itemID))
		return err
	}
	c.run(step)
	return nil
}

// SelectItem chooses the attack item for the next attack; "" clears it.
func (c *Controller) SelectItem(itemID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.activeLocked() {
		return ErrNoBattle
	}
	if err := c.engine.Select(itemID); err != nil {
		c.reject("select", err, zap.String("item", itemID))
		return err
	}
	return nil
}

// Forfeit cancels the live battle and every pending step. A battle that was
// already won or lost and is only waiting to settle ends immediately with its
// real outcome.
//
// Postcondition: Returns false, with no events, when no battle is active.
func (c *Controller) Forfeit() bool {
	c.mu.Lock()
	defer c.unlock()

	if !c.activeLocked() {
		return false
	}
	c.cancelTimer()
	if !c.engine.Forfeit() {
		c.engine.Advance()
	}
	c.finish()
	return true
}

// Active reports whether a battle is live.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeLocked()
}

// Snapshot returns the state of the live or most recently ended battle.
//
// Postcondition: Returns false if no battle has been started.
func (c *Controller) Snapshot() (battle.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.engine == nil {
		return battle.Snapshot{}, false
	}
	return c.engine.Snapshot(), true
}

func (c *Controller) activeLocked() bool {
	return c.engine != nil && !c.engine.Ended()
}

// run follows the engine's steps: immediate ones inline, delayed ones on
// the scheduler.
//
// Precondition: c.mu is held.
func (c *Controller) run(step battle.Step) {
	for step.Next && step.Delay <= 0 {
		step = c.engine.Advance()
	}
	switch {
	case step.Done:
		c.finish()
	case step.Next:
		c.seq++
		id, seq := c.engine.ID(), c.seq
		c.timer = c.cfg.Scheduler.AfterFunc(step.Delay, func() { c.fire(id, seq) })
	}
}

// fire runs a scheduled step unless it no longer matches the live battle.
func (c *Controller) fire(id uuid.UUID, seq uint64) {
	c.mu.Lock()
	defer c.unlock()

	if !c.activeLocked() || c.engine.ID() != id || c.seq != seq {
		c.cfg.Logger.Debug("ignoring stale battle step",
			zap.String("battle", id.String()),
			zap.Uint64("seq", seq),
		)
		return
	}
	c.timer = nil
	c.run(c.engine.Advance())
}

func (c *Controller) cancelTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.seq++
}

// finish records the end of the battle and queues its progress write.
//
// Precondition: c.mu is held and the engine has emitted battle_ended.
func (c *Controller) finish() {
	e := c.engine
	desc := e.Descriptor()
	c.cfg.Logger.Info("battle ended",
		zap.String("battle", e.ID().String()),
		zap.String("opponent", desc.ID),
		zap.String("outcome", string(e.Outcome())),
	)
	if c.cfg.Progress != nil {
		c.ended = &ending{battleID: e.ID(), opponentID: desc.ID, outcome: e.Outcome()}
	}
}

// unlock releases c.mu, then writes any progress finish queued.
//
// Precondition: c.mu is held.
func (c *Controller) unlock() {
	end := c.ended
	c.ended = nil
	c.mu.Unlock()
	if end != nil {
		c.persist(*end)
	}
}

// persist writes the defeat and the current inventory counts. Failures are
// logged; the in-memory progress stays authoritative.
func (c *Controller) persist(end ending) {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	if end.outcome == battle.OutcomeWon {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		if err := c.cfg.Progress.MarkDefeated(ctx, end.opponentID); err != nil {
			c.cfg.Logger.Error("persisting defeated opponent",
				zap.String("battle", end.battleID.String()),
				zap.String("opponent", end.opponentID),
				zap.Error(err),
			)
		}
		cancel()
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := c.cfg.Progress.SaveInventory(ctx, c.cfg.Inventory.Snapshot()); err != nil {
		c.cfg.Logger.Error("persisting inventory",
			zap.String("battle", end.battleID.String()),
			zap.Error(err),
		)
	}
}

func (c *Controller) reject(op string, err error, fields ...zap.Field) {
	fields = append([]zap.Field{zap.String("op", op), zap.Error(err)}, fields...)
	c.cfg.Logger.Debug("command rejected", fields...)
}
