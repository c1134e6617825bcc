package ai

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/ascent/internal/game/opponent"
)

// Registry hands out the policy for an opponent descriptor.
type Registry struct {
	plain   Policy
	boss    Policy
	scripts ScriptCaller
	logger  *zap.Logger
}

// NewRegistry returns a Registry using the standard plain and boss policies.
// scripts may be nil, in which case scripted opponents use their base policy.
//
// Precondition: logger must be non-nil.
func NewRegistry(scripts ScriptCaller, logger *zap.Logger) *Registry {
	return &Registry{
		plain:   NewPlainPolicy(),
		boss:    NewBossPolicy(),
		scripts: scripts,
		logger:  logger,
	}
}

// ForDescriptor returns the policy for d's behavior class.
//
// Precondition: d must have passed Validate.
// Postcondition: Scripted opponents get a ScriptedPolicy whose base is the
// boss policy when d carries boss data and the plain policy otherwise.
func (r *Registry) ForDescriptor(d *opponent.Descriptor) Policy {
	base := r.plain
	if d.IsBoss() {
		base = r.boss
	}
	if d.Behavior != opponent.BehaviorScripted || r.scripts == nil {
		return base
	}
	return ScriptedPolicy{Scripts: r.scripts, Hook: d.ScriptHook, Base: base, Logger: r.logger}
}
