// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ivan Karpovich

package client

import (
	"context"
	"fmt"

	"github.com/ikarpovich/study-sync/internal/adapter"
	"github.com/ikarpovich/study-sync/internal/config"
	"github.com/ikarpovich/study-sync/internal/logger"
	"github.com/ikarpovich/study-sync/internal/service"
	"github.com/ikarpovich/study-sync/internal/store"
	"github.com/ikarpovich/study-sync/internal/workers"
	"github.com/ikarpovich/study-sync/models"
)

// App is the headless sync client: it logs in, runs one full sync, then keeps
// the local store converged through background workers until shut down.
type App struct {
	cfg      *config.ClientConfig
	services *service.ClientServices
	remote   *ModeManager
	state    *SyncState
	workers  *workers.Workers
	logger   *logger.Logger
}

// NewApp wires the client runtime from its configuration: the local SQLite
// store, one adapter per configured endpoint, the connection manager, the
// service layer, and the background workers.
func NewApp(ctx context.Context, cfg *config.ClientConfig, log *logger.Logger) (*App, error) {
	db, err := store.NewConnectSQLite(ctx, cfg.Storage.DB, log)
	if err != nil {
		return nil, fmt.Errorf("connect local database: %w", err)
	}
	localStore := store.NewLocalStorage(db, log)

	local, err := buildAdapter(cfg.Adapter.LocalAddress, cfg.Adapter, log)
	if err != nil {
		return nil, fmt.Errorf("build local endpoint adapter: %w", err)
	}
	cloud, err := buildAdapter(cfg.Adapter.CloudAddress, cfg.Adapter, log)
	if err != nil {
		return nil, fmt.Errorf("build cloud endpoint adapter: %w", err)
	}

	remote, err := NewModeManager(ctx, local, cloud, localStore, cfg.Adapter.ProbeTimeout, cfg.App.Mode, log)
	if err != nil {
		return nil, fmt.Errorf("build connection manager: %w", err)
	}

	state := NewSyncState()
	state.Subscribe(func(snapshot StateSnapshot) {
		log.Debug().
			Str("func", "App").
			Str("status", string(snapshot.Current)).
			Str("last_outcome", string(snapshot.LastOutcome)).
			Msg("sync state changed")
	})

	services := service.NewClientServices(localStore, remote, state, cfg.App, log)

	pool := workers.New(
		workers.NewSyncWorker(services.SyncJob, cfg.Workers.SyncInterval),
		workers.NewProbeWorker(remote, cfg.Workers.ProbeInterval),
		workers.NewDrainWorker(services.SyncService, cfg.Workers.DrainInterval, log),
	)

	return &App{
		cfg:      cfg,
		services: services,
		remote:   remote,
		state:    state,
		workers:  pool,
		logger:   log,
	}, nil
}

func buildAdapter(address string, cfg config.ClientAdapter, log *logger.Logger) (adapter.ServerAdapter, error) {
	if address == "" {
		return nil, nil
	}
	return adapter.NewHTTPServerAdapter(address, cfg.RequestTimeout, log)
}

// Run implements [Client]. It authenticates, performs an initial full sync,
// then lets the background workers keep the store converged until ctx is
// cancelled. The offline queue survives any failure here, so a sync error at
// startup is reported but not fatal.
func (a *App) Run(ctx context.Context) error {
	token, err := a.services.AuthService.Login(ctx, models.User{
		Email:    a.cfg.App.Email,
		Password: a.cfg.App.Password,
	})
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	a.logger.Info().
		Str("func", "App.Run").
		Int64("user_id", token.UserID).
		Msg("authenticated")

	if _, err = a.services.SyncService.FullSync(ctx); err != nil {
		a.logger.Warn().
			Str("func", "App.Run").
			Err(err).
			Msg("initial sync failed, queued work will be retried")
	}

	a.workers.Run(ctx)
	defer a.services.SyncJob.Stop()

	<-ctx.Done()
	a.logger.Info().Str("func", "App.Run").Msg("shutting down client")

	return nil
}

// Snapshot exposes the current sync state machine reading.
func (a *App) Snapshot() StateSnapshot {
	return a.state.Snapshot()
}

// Connection exposes the current endpoint reachability picture.
func (a *App) Connection() models.ConnectionState {
	return a.remote.State()
}
