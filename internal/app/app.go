// Package app assembles the storefront bot: configuration, logging,
// the state store, the commerce client, and the dialog engine.
package app

import (
	"context"
	"fmt"
	"time"

	"shopbot/bot"
	coreconfig "shopbot/core/config"
	"shopbot/core/logger"
	coretelegram "shopbot/core/telegram"
	"shopbot/dialog"
	"shopbot/statestore"
	"shopbot/storefront"
)

// App holds the wired application components.
type App struct {
	cfg   *coreconfig.Config
	store *statestore.RedisStore
	api   *storefront.Client
	ctrl  *dialog.Controller
}

// New initializes logging and acquires all resources. On any failure
// already-acquired resources are released before returning.
func New(cfg *coreconfig.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config provided")
	}

	if err := logger.InitLogger(cfg); err != nil {
		return nil, fmt.Errorf("app: logger init failed: %w", err)
	}

	store, err := statestore.NewRedisStore(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("app: state store init failed: %w", err)
	}

	api := storefront.NewClient(storefront.Options{
		BaseURL: cfg.Storefront.BaseURL,
		Token:   cfg.Storefront.Token,
		Timeout: time.Duration(cfg.Storefront.TimeoutSeconds) * time.Second,
	})

	return &App{
		cfg:   cfg,
		store: store,
		api:   api,
		ctrl:  dialog.NewController(api, store),
	}, nil
}

// CoreConfig exposes the loaded configuration.
func (a *App) CoreConfig() *coreconfig.Config {
	return a.cfg
}

// Close releases held resources.
func (a *App) Close() error {
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

// TelegramRunOptions builds the bot runtime wiring: registry, default
// middleware chain, and the dialog routes.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	bot.Register(reg, a.ctrl)

	return coretelegram.RunOptions{
		Config:      a.cfg,
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg, bot.RateLimitNotice()),
		Routes:      bot.Routes(reg, a.ctrl),
		OnStop: func(context.Context, coretelegram.Runtime) error {
			return a.Close()
		},
	}, nil
}
