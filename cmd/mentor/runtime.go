package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/crestline/mentor/internal/backend"
	"github.com/crestline/mentor/internal/cache"
	"github.com/crestline/mentor/internal/coach"
	"github.com/crestline/mentor/internal/config"
	"github.com/crestline/mentor/internal/enhance"
	"github.com/crestline/mentor/internal/perf"
	"github.com/crestline/mentor/internal/secrets"
	"github.com/crestline/mentor/internal/store/sqlite"
)

// runtime bundles the wired application services shared by the ask,
// serve and check commands.
type runtime struct {
	cfg        *Config
	file       *config.File
	db         *sqlite.DB
	cache      *cache.ResponseCache
	tracker    *perf.Tracker
	manager    *backend.Manager
	dispatcher *enhance.Dispatcher
	engine     *coach.Engine
}

func buildRuntime(ctx context.Context, cfg *Config) (*runtime, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	file, err := config.LoadFile(cfg.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w (run `mentor init` first?)", cfg.ConfigFile, err)
	}

	selectorCfgs, err := file.SelectorConfigs()
	if err != nil {
		return nil, err
	}
	selector, err := enhance.NewSelector(selectorCfgs)
	if err != nil {
		return nil, err
	}

	db, err := sqlite.New(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	respCache, err := cache.NewResponseCache(file.Cache.MaxBytes, file.DefaultTTL(), file.TTLs())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("build cache: %w", err)
	}

	var creds backend.CredentialSource
	if needsCredentials(file) {
		enc, err := secrets.NewEncryptor(cfg.AgeKeyPath)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("load age key: %w", err)
		}
		creds = secrets.NewManager(db, enc)
	}

	tracker := perf.NewTracker()
	manager := backend.NewManager(file.Backends, creds, logger)
	dispatcher := enhance.NewDispatcher(selector, respCache, manager, tracker, logger)
	engine := coach.NewEngine(dispatcher, db, cfg.Timeout, logger)

	return &runtime{
		cfg:        cfg,
		file:       file,
		db:         db,
		cache:      respCache,
		tracker:    tracker,
		manager:    manager,
		dispatcher: dispatcher,
		engine:     engine,
	}, nil
}

func needsCredentials(file *config.File) bool {
	for _, b := range file.Backends {
		if b.CredentialKey != "" {
			return true
		}
	}
	return false
}

func (r *runtime) close() {
	r.manager.Shutdown()
	_ = r.db.Close()
}
