// Package command provides the terminal command registry, parser and the
// built-in tower commands.
package command

// Categories for organizing commands in help output.
const (
	CategoryTower  = "tower"
	CategoryBattle = "battle"
	CategoryItems  = "items"
	CategorySystem = "system"
)

// Handler identifiers mapping commands to driver actions.
const (
	HandlerOpponents = "opponents"
	HandlerFight     = "fight"
	HandlerAttack    = "attack"
	HandlerHeal      = "heal"
	HandlerChaos     = "chaos"
	HandlerRandom    = "random"
	HandlerSelect    = "select"
	HandlerUse       = "use"
	HandlerItems     = "items"
	HandlerStatus    = "status"
	HandlerForfeit   = "forfeit"
	HandlerHelp      = "help"
	HandlerQuit      = "quit"
)

// Command defines a player-invocable command.
type Command struct {
	// Name is the canonical command name.
	Name string
	// Aliases are alternate names for this command.
	Aliases []string
	// Arg names the single required argument, e.g. "item"; empty when the
	// command takes none.
	Arg string
	// Help is the short help text.
	Help string
	// Category groups the command (tower, battle, items, system).
	Category string
	// Handler maps to the driver action.
	Handler string
}

// Usage returns the command's usage line, e.g. "use <item>".
func (c *Command) Usage() string {
	if c.Arg == "" {
		return c.Name
	}
	return c.Name + " <" + c.Arg + ">"
}

// BuiltinCommands returns all built-in commands.
func BuiltinCommands() []Command {
	return []Command{
		{Name: "opponents", Aliases: []string{"ls", "tower"}, Help: "List the tower's opponents and who is beaten", Category: CategoryTower, Handler: HandlerOpponents},
		{Name: "fight", Aliases: []string{"f", "start"}, Arg: "opponent", Help: "Start a battle", Category: CategoryTower, Handler: HandlerFight},

		{Name: "attack", Aliases: []string{"a", "atk"}, Help: "Roll to attack, with the selected item if any", Category: CategoryBattle, Handler: HandlerAttack},
		{Name: "heal", Aliases: []string{"h"}, Help: "Roll to heal", Category: CategoryBattle, Handler: HandlerHeal},
		{Name: "chaos", Aliases: []string{"c"}, Help: "Roll the chaos die (once per battle)", Category: CategoryBattle, Handler: HandlerChaos},
		{Name: "random", Aliases: []string{"r", "event"}, Help: "Roll the random event die (once per battle)", Category: CategoryBattle, Handler: HandlerRandom},
		{Name: "status", Aliases: []string{"st"}, Help: "Show the battle state", Category: CategoryBattle, Handler: HandlerStatus},
		{Name: "forfeit", Aliases: []string{"ff", "flee"}, Help: "Abandon the battle", Category: CategoryBattle, Handler: HandlerForfeit},

		{Name: "select", Aliases: []string{"sel"}, Arg: "item", Help: "Pick an attack item for the next attack (\"none\" clears)", Category: CategoryItems, Handler: HandlerSelect},
		{Name: "use", Aliases: []string{"u"}, Arg: "item", Help: "Use a healing or utility item", Category: CategoryItems, Handler: HandlerUse},
		{Name: "items", Aliases: []string{"i", "inv"}, Help: "List your items", Category: CategoryItems, Handler: HandlerItems},

		{Name: "help", Aliases: []string{"?"}, Help: "Show available commands", Category: CategorySystem, Handler: HandlerHelp},
		{Name: "quit", Aliases: []string{"q", "exit"}, Help: "Leave the tower", Category: CategorySystem, Handler: HandlerQuit},
	}
}
