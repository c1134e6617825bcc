package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/ascent/internal/game/battle"
	"github.com/cory-johannsen/ascent/internal/game/command"
	"github.com/cory-johannsen/ascent/internal/game/item"
	"github.com/cory-johannsen/ascent/internal/game/opponent"
	"github.com/cory-johannsen/ascent/internal/game/session"
)

// Battles is the slice of the session controller the driver calls.
type Battles interface {
	Start(opponentID string) (uuid.UUID, error)
	Submit(kind battle.ActionKind, itemID string) error
	SelectItem(itemID string) error
	Forfeit() bool
	Active() bool
	Snapshot() (battle.Snapshot, bool)
}

// DriverConfig holds a Driver's collaborators.
type DriverConfig struct {
	In        io.Reader
	Out       io.Writer
	Battles   Battles
	Opponents *opponent.Registry
	Defeated  *opponent.DefeatedSet
	Items     *item.Catalog
	Inventory *item.Inventory
	Commands  *command.Registry
	Logger    *zap.Logger
}

// Driver reads commands from In, forwards them to the battle session, and
// renders session events to Out.
type Driver struct {
	cfg DriverConfig

	// mu serialises writes to Out and guards opponentName.
	mu           sync.Mutex
	opponentName string

	stopOnce sync.Once
	stop     chan struct{}
}

// NewDriver returns a Driver. A nil Commands uses command.DefaultRegistry.
//
// Precondition: every other field of cfg must be set.
func NewDriver(cfg DriverConfig) *Driver {
	if cfg.Commands == nil {
		cfg.Commands = command.DefaultRegistry()
	}
	return &Driver{cfg: cfg, stop: make(chan struct{})}
}

// rejections maps controller and engine rejections to player-facing text.
var rejections = []struct {
	err error
	msg string
}{
	{session.ErrBattleActive, "A battle is already in progress."},
	{session.ErrNoBattle, "You are not in a battle."},
	{session.ErrOpponentDefeated, "That opponent is already defeated."},
	{session.ErrUnknownOpponent, "No such opponent. Try 'opponents'."},
	{battle.ErrNotPlayerTurn, "Wait for your turn."},
	{battle.ErrActionInFlight, "Wait for your turn."},
	{battle.ErrBattleOver, "The battle is over."},
	{battle.ErrDieSpent, "You already used that die this battle."},
	{battle.ErrUnknownItem, "No such item. Try 'items'."},
	{battle.ErrItemKind, "That item cannot be used that way."},
	{battle.ErrItemUnavailable, "You have none of that item left."},
	{command.ErrUnknownCommand, "Unknown command. Try 'help'."},
}

func describe(err error) string {
	for _, r := range rejections {
		if errors.Is(err, r.err) {
			return r.msg
		}
	}
	return err.Error()
}

// Run reads and executes commands until quit, end of input, or Stop.
//
// Postcondition: Returns nil on quit or end of input; a live battle is
// forfeited before returning on quit.
func (d *Driver) Run() error {
	d.println(Colorize(BrightYellow, "Tower Ascent. Type 'help' for commands."))
	scanner := bufio.NewScanner(d.cfg.In)
	for scanner.Scan() {
		select {
		case <-d.stop:
			return nil
		default:
		}
		if quit := d.Execute(scanner.Text()); quit {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}

// Stop makes Run return before its next command. Safe to call multiple times.
func (d *Driver) Stop() {
	d.stopOnce.Do(func() { close(d.stop) })
}

// Execute runs one command line and reports whether the player quit.
func (d *Driver) Execute(line string) bool {
	inv, err := d.cfg.Commands.Interpret(line)
	if err != nil {
		if errors.Is(err, command.ErrMissingArgument) {
			d.println(Colorize(Yellow, strings.TrimPrefix(err.Error(), command.ErrMissingArgument.Error()+": ")))
		} else {
			d.println(Colorize(Yellow, describe(err)))
		}
		return false
	}
	if inv.Command == nil {
		return false
	}

	switch inv.Command.Handler {
	case command.HandlerOpponents:
		d.print(RenderOpponents(d.cfg.Opponents.All(), d.cfg.Defeated))
	case command.HandlerFight:
		d.fight(inv.Arg)
	case command.HandlerAttack:
		d.submit(battle.ActionAttack, "")
	case command.HandlerHeal:
		d.submit(battle.ActionHeal, "")
	case command.HandlerChaos:
		d.submit(battle.ActionChaos, "")
	case command.HandlerRandom:
		d.submit(battle.ActionRandomEvent, "")
	case command.HandlerUse:
		d.submit(battle.ActionUseItem, inv.Arg)
	case command.HandlerSelect:
		id := inv.Arg
		if strings.EqualFold(id, "none") {
			id = ""
		}
		if err := d.cfg.Battles.SelectItem(id); err != nil {
			d.reject("select", err)
		} else if id == "" {
			d.println("Selection cleared.")
		} else {
			d.println("Selected " + Colorize(Cyan, id) + ".")
		}
	case command.HandlerItems:
		d.print(RenderItems(d.cfg.Items, d.cfg.Inventory.Snapshot()))
	case command.HandlerStatus:
		snap, ok := d.cfg.Battles.Snapshot()
		if !ok {
			d.println(describe(session.ErrNoBattle))
			return false
		}
		d.print(RenderSnapshot(snap))
	case command.HandlerForfeit:
		if !d.cfg.Battles.Forfeit() {
			d.println(describe(session.ErrNoBattle))
		}
	case command.HandlerHelp:
		d.print(RenderHelp(d.cfg.Commands))
	case command.HandlerQuit:
		if d.cfg.Battles.Active() {
			d.cfg.Battles.Forfeit()
		}
		d.println("Goodbye.")
		return true
	}
	return false
}

func (d *Driver) fight(id string) {
	desc, ok := d.cfg.Opponents.Get(id)
	if !ok {
		d.reject("fight", fmt.Errorf("%w: %q", session.ErrUnknownOpponent, id))
		return
	}
	// Name first: the opening events are published during Start.
	d.mu.Lock()
	prev := d.opponentName
	d.opponentName = desc.Name
	d.mu.Unlock()
	if _, err := d.cfg.Battles.Start(id); err != nil {
		d.mu.Lock()
		d.opponentName = prev
		d.mu.Unlock()
		d.reject("fight", err)
	}
}

func (d *Driver) submit(kind battle.ActionKind, itemID string) {
	if err := d.cfg.Battles.Submit(kind, itemID); err != nil {
		d.reject(string(kind), err)
	}
}

func (d *Driver) reject(op string, err error) {
	d.cfg.Logger.Debug("command rejected", zap.String("command", op), zap.Error(err))
	d.println(Colorize(Yellow, describe(err)))
}

// Pump renders events until the channel is closed.
func (d *Driver) Pump(events <-chan battle.Event) {
	for ev := range events {
		d.mu.Lock()
		name := d.opponentName
		d.mu.Unlock()
		if line := RenderEvent(ev, name); line != "" {
			d.println(line)
		}
	}
}

func (d *Driver) print(s string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, _ = io.WriteString(d.cfg.Out, s)
}

func (d *Driver) println(s string) {
	d.print(s + "\n")
}
