package battle

import "errors"

// Rejections. A rejected call never changes the battle and emits no events.
var (
	ErrBattleOver      = errors.New("battle: battle is over")
	ErrNotPlayerTurn   = errors.New("battle: not the player's turn")
	ErrActionInFlight  = errors.New("battle: an action is already resolving")
	ErrDieSpent        = errors.New("battle: resource die already used")
	ErrUnknownItem     = errors.New("battle: unknown item")
	ErrItemKind        = errors.New("battle: item cannot be used that way")
	ErrItemUnavailable = errors.New("battle: item not in inventory")
	ErrUnknownAction   = errors.New("battle: unknown action")
)
