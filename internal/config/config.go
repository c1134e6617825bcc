// Package config provides Viper-based configuration loading for the tower
// battle driver.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/ascent/internal/game/battle"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// Output is "stderr", "stdout" or a file path. The terminal driver owns
	// stdout, so the default is stderr.
	Output string `mapstructure:"output"`
}

// BattleConfig holds battle pacing and player settings.
type BattleConfig struct {
	// RevealDelay separates a dice roll from its reveal.
	RevealDelay time.Duration `mapstructure:"reveal_delay"`
	// CommitDelay separates the reveal from the committed effect.
	CommitDelay time.Duration `mapstructure:"commit_delay"`
	// OpponentDelay precedes every opponent decision.
	OpponentDelay time.Duration `mapstructure:"opponent_delay"`
	// SettleDelay separates victory or defeat from the end of the battle.
	SettleDelay time.Duration `mapstructure:"settle_delay"`
	// PlayerMaxHP is the player's HP at the start of every battle.
	PlayerMaxHP int `mapstructure:"player_max_hp"`
	// EventBuffer is the capacity of the outbound event stream.
	EventBuffer int `mapstructure:"event_buffer"`
	// DiceSeed seeds a deterministic dice source; 0 selects crypto/rand.
	DiceSeed int64 `mapstructure:"dice_seed"`
}

// Timing converts the configured delays to engine timing.
//
// Postcondition: Each field of the result equals the matching delay.
func (b BattleConfig) Timing() battle.Timing {
	return battle.Timing{
		Reveal:        b.RevealDelay,
		Commit:        b.CommitDelay,
		OpponentDelay: b.OpponentDelay,
		Settle:        b.SettleDelay,
	}
}

// ContentConfig locates the YAML and Lua content directories.
type ContentConfig struct {
	OpponentsDir string `mapstructure:"opponents_dir"`
	ItemsDir     string `mapstructure:"items_dir"`
	EffectsDir   string `mapstructure:"effects_dir"`
	// AIScriptsDir holds Lua decision hooks; empty disables scripted AI.
	AIScriptsDir string `mapstructure:"ai_scripts_dir"`
	// ScriptInstructionLimit bounds each hook call; 0 means unlimited.
	ScriptInstructionLimit int `mapstructure:"script_instruction_limit"`
}

// InventoryConfig holds the item counts used when no inventory is persisted.
type InventoryConfig struct {
	Starting map[string]int `mapstructure:"starting"`
}

// StartingCount returns the starting count for item id. Viper folds keys to
// lower case, so the lookup ignores case.
func (i InventoryConfig) StartingCount(id string) int {
	if n, ok := i.Starting[id]; ok {
		return n
	}
	return i.Starting[strings.ToLower(id)]
}

// StartingCounts resolves the starting counts for the given item ids.
//
// Postcondition: The result has one entry per id.
func (i InventoryConfig) StartingCounts(ids []string) map[string]int {
	out := make(map[string]int, len(ids))
	for _, id := range ids {
		out[id] = i.StartingCount(id)
	}
	return out
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	// Enabled turns on progress persistence.
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// Config is the top-level application configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Battle    BattleConfig    `mapstructure:"battle"`
	Content   ContentConfig   `mapstructure:"content"`
	Inventory InventoryConfig `mapstructure:"inventory"`
	Database  DatabaseConfig  `mapstructure:"database"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateBattle(c.Battle); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateContent(c.Content); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateInventory(c.Inventory); err != nil {
		errs = append(errs, err.Error())
	}
	// Connection settings only matter when persistence is on.
	if c.Database.Enabled {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	if l.Output == "" {
		return fmt.Errorf("logging.output must not be empty")
	}
	return nil
}

func validateBattle(b BattleConfig) error {
	var errs []string
	delays := []struct {
		name string
		d    time.Duration
	}{
		{"reveal_delay", b.RevealDelay},
		{"commit_delay", b.CommitDelay},
		{"opponent_delay", b.OpponentDelay},
		{"settle_delay", b.SettleDelay},
	}
	for _, d := range delays {
		if d.d < 0 {
			errs = append(errs, fmt.Sprintf("battle.%s must not be negative, got %s", d.name, d.d))
		}
	}
	if b.PlayerMaxHP < 1 {
		errs = append(errs, fmt.Sprintf("battle.player_max_hp must be >= 1, got %d", b.PlayerMaxHP))
	}
	if b.EventBuffer < 1 {
		errs = append(errs, fmt.Sprintf("battle.event_buffer must be >= 1, got %d", b.EventBuffer))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateContent(c ContentConfig) error {
	var errs []string
	if c.OpponentsDir == "" {
		errs = append(errs, "content.opponents_dir must not be empty")
	}
	if c.ScriptInstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("content.script_instruction_limit must be >= 0, got %d", c.ScriptInstructionLimit))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateInventory(i InventoryConfig) error {
	var errs []string
	for id, n := range i.Starting {
		if n < 0 {
			errs = append(errs, fmt.Sprintf("inventory.starting.%s must be >= 0, got %d", id, n))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with ASCENT_ prefix
	v.SetEnvPrefix("ASCENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a Viper instance holding only the default values.
//
// Postcondition: LoadFromViper(Defaults()) succeeds.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")

	timing := battle.DefaultTiming()
	v.SetDefault("battle.reveal_delay", timing.Reveal)
	v.SetDefault("battle.commit_delay", timing.Commit)
	v.SetDefault("battle.opponent_delay", timing.OpponentDelay)
	v.SetDefault("battle.settle_delay", timing.Settle)
	v.SetDefault("battle.player_max_hp", battle.DefaultPlayerMaxHP)
	v.SetDefault("battle.event_buffer", 256)
	v.SetDefault("battle.dice_seed", 0)

	v.SetDefault("content.opponents_dir", "content/opponents")
	v.SetDefault("content.items_dir", "content/items")
	v.SetDefault("content.effects_dir", "content/effects")
	v.SetDefault("content.ai_scripts_dir", "content/scripts/ai")
	v.SetDefault("content.script_instruction_limit", 100000)

	v.SetDefault("inventory.starting", map[string]int{
		"fireOil":        2,
		"poisonVial":     2,
		"acidFlask":      1,
		"lightningShard": 1,
		"iceCharm":       1,
		"smokeBomb":      1,
		"shieldPotion":   1,
		"frostBarrier":   1,
		"mirrorCrystal":  1,
		"medkit":         2,
		"bandages":       3,
		"antibiotics":    1,
	})

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "ascent")
	v.SetDefault("database.password", "ascent")
	v.SetDefault("database.name", "ascent")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_lifetime", "1h")
}
