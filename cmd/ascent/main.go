// Package main provides the interactive terminal driver for tower battles.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/ascent/internal/config"
	"github.com/cory-johannsen/ascent/internal/frontend/terminal"
	"github.com/cory-johannsen/ascent/internal/game/ai"
	"github.com/cory-johannsen/ascent/internal/game/dice"
	"github.com/cory-johannsen/ascent/internal/game/effect"
	"github.com/cory-johannsen/ascent/internal/game/item"
	"github.com/cory-johannsen/ascent/internal/game/opponent"
	"github.com/cory-johannsen/ascent/internal/game/session"
	"github.com/cory-johannsen/ascent/internal/observability"
	"github.com/cory-johannsen/ascent/internal/scripting"
	"github.com/cory-johannsen/ascent/internal/server"
	"github.com/cory-johannsen/ascent/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	// Content
	contentStart := time.Now()
	effects := effect.Builtins()
	if cfg.Content.EffectsDir != "" {
		effects, err = effect.LoadDirectory(cfg.Content.EffectsDir, effects)
		if err != nil {
			logger.Fatal("loading effect definitions", zap.Error(err))
		}
	}

	items := item.DefaultCatalog()
	if cfg.Content.ItemsDir != "" {
		items, err = item.LoadDirectory(cfg.Content.ItemsDir)
		if err != nil {
			logger.Fatal("loading item definitions", zap.Error(err))
		}
	}

	descs, err := opponent.LoadDescriptors(cfg.Content.OpponentsDir)
	if err != nil {
		logger.Fatal("loading opponents", zap.Error(err))
	}
	opponents, err := opponent.NewRegistry(descs...)
	if err != nil {
		logger.Fatal("building opponent registry", zap.Error(err))
	}
	logger.Info("content loaded",
		zap.Int("effects", len(effects.All())),
		zap.Int("items", len(items.All())),
		zap.Int("opponents", len(descs)),
		zap.Duration("elapsed", time.Since(contentStart)),
	)

	// Scripted AI. A nil ScriptCaller makes scripted opponents use their base policy.
	var scripts ai.ScriptCaller
	if cfg.Content.AIScriptsDir != "" {
		mgr := scripting.NewManager(logger)
		if err := mgr.Load(cfg.Content.AIScriptsDir, cfg.Content.ScriptInstructionLimit); err != nil {
			logger.Fatal("loading ai scripts", zap.Error(err))
		}
		defer mgr.Close()
		for _, d := range descs {
			if d.Behavior == opponent.BehaviorScripted && !mgr.HasHook(d.ScriptHook) {
				logger.Warn("scripted opponent hook not found; using base policy",
					zap.String("opponent", d.ID),
					zap.String("hook", d.ScriptHook),
				)
			}
		}
		scripts = mgr
	}
	policies := ai.NewRegistry(scripts, logger)

	// Progress
	defeated := opponent.NewDefeatedSet()
	var counts map[string]int
	var progress session.Progress
	if cfg.Database.Enabled {
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		defer pool.Close()
		repo := postgres.NewProgressRepository(pool.DB())

		ids, err := repo.LoadDefeated(ctx)
		if err != nil {
			logger.Fatal("loading defeated opponents", zap.Error(err))
		}
		for _, id := range ids {
			defeated.Mark(id)
		}
		counts, err = repo.LoadInventory(ctx)
		if err != nil {
			logger.Fatal("loading inventory", zap.Error(err))
		}
		progress = repo
		logger.Info("progress restored",
			zap.String("host", cfg.Database.Host),
			zap.Int("defeated", len(ids)),
			zap.Int("inventory_rows", len(counts)),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
	}
	if len(counts) == 0 {
		ids := make([]string, 0, len(items.All()))
		for _, d := range items.All() {
			ids = append(ids, d.ID)
		}
		counts = cfg.Inventory.StartingCounts(ids)
	}
	inventory := item.NewInventory(counts)

	// Dice
	var src dice.Source
	if cfg.Battle.DiceSeed != 0 {
		src = dice.NewSeededSource(cfg.Battle.DiceSeed)
		logger.Info("using seeded dice", zap.Int64("seed", cfg.Battle.DiceSeed))
	} else {
		src = dice.NewCryptoSource()
	}
	roller := dice.NewLoggedRoller(src, logger)

	stream := session.NewStream(cfg.Battle.EventBuffer, logger)
	controller, err := session.NewController(session.Config{
		Timing:      cfg.Battle.Timing(),
		PlayerMaxHP: cfg.Battle.PlayerMaxHP,
		Effects:     effects,
		Items:       items,
		Inventory:   inventory,
		Defeated:    defeated,
		Opponents:   opponents,
		Policies:    policies,
		Source:      roller,
		Scheduler:   session.ClockScheduler{},
		Stream:      stream,
		Progress:    progress,
		Logger:      logger,
	})
	if err != nil {
		logger.Fatal("creating battle controller", zap.Error(err))
	}

	driver := terminal.NewDriver(terminal.DriverConfig{
		In:        os.Stdin,
		Out:       os.Stdout,
		Battles:   controller,
		Opponents: opponents,
		Defeated:  defeated,
		Items:     items,
		Inventory: inventory,
		Logger:    logger,
	})

	// Stop order is the reverse: the terminal stops reading, the session
	// forfeits any live battle so progress is saved, then events drain.
	sessionDone := make(chan struct{})
	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("events", &server.FuncService{
		StartFn: func() error {
			driver.Pump(stream.Events())
			return nil
		},
		StopFn: stream.Close,
	})
	lifecycle.Add("session", &server.FuncService{
		StartFn: func() error {
			<-sessionDone
			return nil
		},
		StopFn: func() {
			if controller.Active() {
				controller.Forfeit()
			}
			close(sessionDone)
		},
	})
	lifecycle.Add("terminal", &server.FuncService{
		StartFn: driver.Run,
		StopFn:  driver.Stop,
	})

	logger.Info("tower ready", zap.Duration("startup", time.Since(start)))
	if err := lifecycle.Run(ctx); err != nil {
		logger.Error("exited with error", zap.Error(err))
		os.Exit(1)
	}
}
