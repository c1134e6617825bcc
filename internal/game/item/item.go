// Package item defines battle items and the player's global inventory.
package item

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Kind classifies how an item is used in battle.
type Kind string

const (
	// KindAttack items are selected before an attack roll.
	KindAttack Kind = "attack"
	// KindHealing items restore HP immediately when used.
	KindHealing Kind = "healing"
	// KindUtility items arm defensive wards when used.
	KindUtility Kind = "utility"
)

// Element is an elemental tag carried by attack items and boss affinities.
type Element string

const (
	Fire      Element = "fire"
	Poison    Element = "poison"
	Acid      Element = "acid"
	Lightning Element = "lightning"
	Ice       Element = "ice"
	Physical  Element = "physical"
	Shadow    Element = "shadow"
)

var knownElements = map[Element]bool{
	Fire: true, Poison: true, Acid: true, Lightning: true, Ice: true, Physical: true, Shadow: true,
}

// KnownElement reports whether e is a recognised elemental tag.
func KnownElement(e Element) bool {
	return knownElements[e]
}

// Ward names the defensive effect a utility item arms.
type Ward string

const (
	WardDodge         Ward = "dodge"
	WardShield        Ward = "shield"
	WardShieldReflect Ward = "shield_reflect"
	WardReflect       Ward = "reflect"
)

// Def defines one item loaded from YAML.
type Def struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Kind        Kind   `yaml:"kind"`

	// Attack items.
	Element     Element `yaml:"element"`
	DamageBonus int     `yaml:"damage_bonus"`
	Duration    int     `yaml:"duration"`

	// Healing items.
	HealAmount   int  `yaml:"heal_amount"`
	CuresDebuffs bool `yaml:"cures_debuffs"`

	// Utility items. Duration doubles as the reflect charge count.
	Ward           Ward `yaml:"effect"`
	ShieldPercent  int  `yaml:"shield_percent"`
	ReflectPercent int  `yaml:"reflect_percent"`
}

// Validate checks that the Def satisfies its invariants for its kind.
//
// Precondition: d is non-nil.
// Postcondition: returns nil iff all fields are valid; otherwise every
// violation is reported in one error.
func (d *Def) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if d.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	switch d.Kind {
	case KindAttack:
		if d.Element == "" || !KnownElement(d.Element) {
			errs = append(errs, fmt.Errorf("attack item element %q is not a known element", d.Element))
		}
		if d.DamageBonus < 0 {
			errs = append(errs, errors.New("damage_bonus must be >= 0"))
		}
		if d.Duration < 1 {
			errs = append(errs, errors.New("attack item duration must be >= 1"))
		}
	case KindHealing:
		if d.HealAmount < 1 {
			errs = append(errs, errors.New("heal_amount must be >= 1"))
		}
	case KindUtility:
		switch d.Ward {
		case WardDodge:
		case WardShield:
			errs = append(errs, percentErr("shield_percent", d.ShieldPercent)...)
		case WardShieldReflect:
			errs = append(errs, percentErr("shield_percent", d.ShieldPercent)...)
			errs = append(errs, percentErr("reflect_percent", d.ReflectPercent)...)
		case WardReflect:
			errs = append(errs, percentErr("reflect_percent", d.ReflectPercent)...)
		default:
			errs = append(errs, fmt.Errorf("utility effect must be one of dodge, shield, shield_reflect, reflect; got %q", d.Ward))
		}
	default:
		errs = append(errs, fmt.Errorf("kind must be one of attack, healing, utility; got %q", d.Kind))
	}
	if len(errs) > 0 {
		return fmt.Errorf("item %q validation failed: %v", d.ID, errs)
	}
	return nil
}

func percentErr(field string, v int) []error {
	if v < 1 || v > 100 {
		return []error{fmt.Errorf("%s must be in [1, 100], got %d", field, v)}
	}
	return nil
}

// Charges returns how many hits a reflecting ward lasts.
func (d *Def) Charges() int {
	if d.Duration < 1 {
		return 1
	}
	return d.Duration
}

// Catalog holds every item definition keyed by ID.
type Catalog struct {
	defs map[string]*Def
}

// NewCatalog returns an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{defs: make(map[string]*Def)}
}

// Register adds d to the catalog.
//
// Precondition: d must not be nil.
// Postcondition: Get(d.ID) returns (d, true); returns error if d.ID is already registered.
func (c *Catalog) Register(d *Def) error {
	if _, exists := c.defs[d.ID]; exists {
		return fmt.Errorf("item: Catalog.Register: item ID %q already registered", d.ID)
	}
	c.defs[d.ID] = d
	return nil
}

// Get returns the Def for id, or (nil, false) if not found.
func (c *Catalog) Get(id string) (*Def, bool) {
	d, ok := c.defs[id]
	return d, ok
}

// All returns every Def ordered by kind then ID.
func (c *Catalog) All() []*Def {
	out := make([]*Def, 0, len(c.defs))
	for _, d := range c.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// LoadDirectory reads all *.yaml and *.yml files from dir, parses each as a
// Def, validates it, and returns a Catalog holding them.
//
// Precondition: dir is a readable directory path.
// Postcondition: returns a Catalog of valid Defs or the first encountered error.
func LoadDirectory(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("item.LoadDirectory: cannot read directory %q: %w", dir, err)
	}

	c := NewCatalog()
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("item.LoadDirectory: cannot read file %q: %w", path, err)
		}
		var d Def
		if err := yaml.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("item.LoadDirectory: cannot parse file %q: %w", path, err)
		}
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("item.LoadDirectory: invalid item in %q: %w", path, err)
		}
		if err := c.Register(&d); err != nil {
			return nil, fmt.Errorf("item.LoadDirectory: %q: %w", path, err)
		}
	}
	return c, nil
}

// DefaultCatalog returns the standard tower item set.
func DefaultCatalog() *Catalog {
	c := NewCatalog()
	for _, d := range []*Def{
		{ID: "fireOil", Name: "Fire Oil", Description: "Sets the enemy ablaze.", Kind: KindAttack, Element: Fire, DamageBonus: 8, Duration: 3},
		{ID: "poisonVial", Name: "Poison Vial", Description: "Poisons the enemy.", Kind: KindAttack, Element: Poison, DamageBonus: 5, Duration: 4},
		{ID: "acidFlask", Name: "Acid Flask", Description: "Corrodes the enemy's armor.", Kind: KindAttack, Element: Acid, DamageBonus: 12, Duration: 2},
		{ID: "lightningShard", Name: "Lightning Shard", Description: "May stun the enemy.", Kind: KindAttack, Element: Lightning, DamageBonus: 15, Duration: 1},
		{ID: "iceCharm", Name: "Ice Charm", Description: "Freezes the enemy for a turn.", Kind: KindAttack, Element: Ice, DamageBonus: 10, Duration: 1},
		{ID: "smokeBomb", Name: "Smoke Bomb", Description: "Dodge the next attack.", Kind: KindUtility, Ward: WardDodge, Duration: 1},
		{ID: "shieldPotion", Name: "Shield Potion", Description: "Halves the next hit.", Kind: KindUtility, Ward: WardShield, ShieldPercent: 50, Duration: 1},
		{ID: "frostBarrier", Name: "Frost Barrier", Description: "Blocks the next hit and reflects half of it.", Kind: KindUtility, Ward: WardShieldReflect, ShieldPercent: 100, ReflectPercent: 50, Duration: 1},
		{ID: "mirrorCrystal", Name: "Mirror Crystal", Description: "Reflects 30% of damage for two hits.", Kind: KindUtility, Ward: WardReflect, ReflectPercent: 30, Duration: 2},
		{ID: "medkit", Name: "Medkit", Description: "Restores 30 HP.", Kind: KindHealing, HealAmount: 30},
		{ID: "bandages", Name: "Bandages", Description: "Restores 20 HP.", Kind: KindHealing, HealAmount: 20},
		{ID: "antibiotics", Name: "Antibiotics", Description: "Cures debuffs and restores 10 HP.", Kind: KindHealing, HealAmount: 10, CuresDebuffs: true},
	} {
		if err := c.Register(d); err != nil {
			panic(err)
		}
	}
	return c
}
