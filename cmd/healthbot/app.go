package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/time/rate"

	"github.com/rookguy/healthbot/internal/api"
	"github.com/rookguy/healthbot/internal/chat"
	"github.com/rookguy/healthbot/internal/config"
	"github.com/rookguy/healthbot/internal/plan"
	"github.com/rookguy/healthbot/internal/profile"
	"github.com/rookguy/healthbot/internal/storage"
)

// app bundles the stores and services every command works against.
type app struct {
	cfg       config.Config
	profile   *profile.FileStore
	engine    *plan.Engine
	responder *chat.Responder
	journal   *storage.Store
}

// loadConfig is swapped in tests.
var loadConfig = config.Load

func openApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	journal, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	ps := profile.NewFileStore(cfg.Storage.ProfilePath)
	engine := plan.NewEngine(ps)
	return &app{
		cfg:       cfg,
		profile:   ps,
		engine:    engine,
		responder: chat.NewResponder(engine),
		journal:   journal,
	}, nil
}

func (a *app) Close() {
	if err := a.journal.Close(); err != nil {
		slog.Warn("closing storage", "error", err)
	}
}

func (a *app) routerDeps() api.Deps {
	return api.Deps{
		Engine:    a.engine,
		Responder: a.responder,
		Journal:   a.journal,
		Token:     a.cfg.Server.Token,
		RateLimit: rate.Limit(a.cfg.Server.RateLimit),
		RateBurst: a.cfg.Server.RateBurst,

		AllowedOrigins: a.cfg.Server.Origins(),
	}
}

func (a *app) mcpDeps() api.MCPDeps {
	return api.MCPDeps{
		Engine:    a.engine,
		Responder: a.responder,
		Journal:   a.journal,
	}
}

// setupLogging installs a text slog handler. Unknown levels fall back to info.
func setupLogging(w io.Writer, level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})))
}
