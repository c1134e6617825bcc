// Package opponent provides opponent descriptors for plain NPCs and bosses,
// the registry they are loaded into, and the set of defeated opponents.
package opponent

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/ascent/internal/game/item"
)

// Behavior names the AI class that drives an opponent.
type Behavior string

const (
	BehaviorPlain    Behavior = "plain"
	BehaviorBoss     Behavior = "boss"
	BehaviorScripted Behavior = "scripted"
)

// SignatureEffect is the status a boss signature move always inflicts.
type SignatureEffect string

const (
	SignatureBurn   SignatureEffect = "burn"
	SignaturePoison SignatureEffect = "poison"
	SignatureStun   SignatureEffect = "stun"
	SignatureSlow   SignatureEffect = "slow"
	SignatureDrain  SignatureEffect = "drain"
)

// DefaultSignatureChance is the probability a boss uses its signature move
// when the descriptor does not set one.
const DefaultSignatureChance = 0.3

// Signature is a boss-only alternative action.
type Signature struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Damage      int             `yaml:"damage"`
	Effect      SignatureEffect `yaml:"effect"`
	// Chance is in (0, 1]; zero means DefaultSignatureChance.
	Chance float64 `yaml:"chance"`
}

// TriggerChance returns Chance, or DefaultSignatureChance when unset.
func (s Signature) TriggerChance() float64 {
	if s.Chance == 0 {
		return DefaultSignatureChance
	}
	return s.Chance
}

// Phase is one HP-threshold escalation step.
type Phase struct {
	Multiplier   float64 `yaml:"multiplier"`
	Announcement string  `yaml:"announcement"`
}

// Boss holds the boss-only parts of a descriptor.
type Boss struct {
	Weaknesses  []item.Element `yaml:"weaknesses"`
	Resistances []item.Element `yaml:"resistances"`
	Signature   Signature      `yaml:"signature"`
	Phase50     Phase          `yaml:"phase50"`
	Phase20     Phase          `yaml:"phase20"`
	Dialogues   []string       `yaml:"dialogues"`
}

// WeakTo reports whether e is in the weakness set.
func (b *Boss) WeakTo(e item.Element) bool {
	return containsElement(b.Weaknesses, e)
}

// Resists reports whether e is in the resistance set.
func (b *Boss) Resists(e item.Element) bool {
	return containsElement(b.Resistances, e)
}

func containsElement(set []item.Element, e item.Element) bool {
	for _, s := range set {
		if s == e {
			return true
		}
	}
	return false
}

// Descriptor is the immutable template an opponent is built from.
type Descriptor struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Image       string   `yaml:"image"`
	Floor       int      `yaml:"floor"`
	MaxHP       int      `yaml:"max_hp"`
	Behavior    Behavior `yaml:"behavior"`
	// ScriptHook is the Lua global called by the scripted behavior.
	ScriptHook string `yaml:"script_hook"`
	Boss       *Boss  `yaml:"boss"`
}

// IsBoss reports whether the descriptor carries boss data.
func (d *Descriptor) IsBoss() bool {
	return d.Boss != nil
}

// Validate checks that the descriptor satisfies its invariants.
//
// Precondition: d must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, MaxHP >= 1,
// Floor >= 0, Behavior is consistent with the presence of boss data, and any
// boss data has disjoint affinities, a known signature effect and both phases.
func (d *Descriptor) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("opponent: id must not be empty")
	}
	if d.Name == "" {
		return fmt.Errorf("opponent %q: name must not be empty", d.ID)
	}
	if d.MaxHP < 1 {
		return fmt.Errorf("opponent %q: max_hp must be >= 1", d.ID)
	}
	if d.Floor < 0 {
		return fmt.Errorf("opponent %q: floor must be >= 0", d.ID)
	}
	switch d.Behavior {
	case BehaviorPlain:
		if d.Boss != nil {
			return fmt.Errorf("opponent %q: plain behavior must not carry boss data", d.ID)
		}
	case BehaviorBoss:
		if d.Boss == nil {
			return fmt.Errorf("opponent %q: boss behavior requires boss data", d.ID)
		}
	case BehaviorScripted:
		if d.ScriptHook == "" {
			return fmt.Errorf("opponent %q: scripted behavior requires script_hook", d.ID)
		}
	default:
		return fmt.Errorf("opponent %q: unknown behavior %q", d.ID, d.Behavior)
	}
	if d.Boss != nil {
		if err := d.Boss.validate(); err != nil {
			return fmt.Errorf("opponent %q: %w", d.ID, err)
		}
	}
	return nil
}

func (b *Boss) validate() error {
	for _, e := range b.Weaknesses {
		if !item.KnownElement(e) {
			return fmt.Errorf("unknown weakness element %q", e)
		}
		if b.Resists(e) {
			return fmt.Errorf("element %q is both a weakness and a resistance", e)
		}
	}
	for _, e := range b.Resistances {
		if !item.KnownElement(e) {
			return fmt.Errorf("unknown resistance element %q", e)
		}
	}
	if b.Signature.Name == "" {
		return fmt.Errorf("signature name must not be empty")
	}
	if b.Signature.Damage < 0 {
		return fmt.Errorf("signature damage must be >= 0")
	}
	switch b.Signature.Effect {
	case SignatureBurn, SignaturePoison, SignatureStun, SignatureSlow, SignatureDrain:
	default:
		return fmt.Errorf("unknown signature effect %q", b.Signature.Effect)
	}
	if b.Signature.Chance < 0 || b.Signature.Chance > 1 {
		return fmt.Errorf("signature chance must be in [0, 1]")
	}
	for name, p := range map[string]Phase{"phase50": b.Phase50, "phase20": b.Phase20} {
		if p.Multiplier < 1 {
			return fmt.Errorf("%s multiplier must be >= 1", name)
		}
		if p.Announcement == "" {
			return fmt.Errorf("%s announcement must not be empty", name)
		}
	}
	return nil
}

// LoadDescriptorFromBytes parses a single descriptor from raw YAML bytes.
//
// Postcondition: Returns a validated *Descriptor, or an error.
func LoadDescriptorFromBytes(data []byte) (*Descriptor, error) {
	var d Descriptor
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("parsing opponent YAML: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// LoadDescriptors reads all *.yaml files in dir and returns the parsed
// descriptors.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all descriptors or an error on the first parse or
// validate failure; on error, the partial result is discarded.
func LoadDescriptors(dir string) ([]*Descriptor, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading opponent dir %q: %w", dir, err)
	}

	var out []*Descriptor
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		d, err := LoadDescriptorFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		out = append(out, d)
	}
	return out, nil
}
