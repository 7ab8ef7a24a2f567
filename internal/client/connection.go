// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ivan Karpovich

package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ikarpovich/study-sync/internal/adapter"
	"github.com/ikarpovich/study-sync/internal/logger"
	"github.com/ikarpovich/study-sync/internal/store"
	"github.com/ikarpovich/study-sync/models"
)

// ErrNoEndpointForMode is returned when the current connection mode names an
// endpoint that was never configured.
var ErrNoEndpointForMode = errors.New("no endpoint configured for connection mode")

// ModeManager implements [service.Remote]: it owns one adapter per configured
// endpoint, tracks their reachability, and routes every outgoing call
// according to the active connection mode. In dual mode a failed local call
// falls back to the cloud endpoint within the same request.
type ModeManager struct {
	local        adapter.ServerAdapter
	cloud        adapter.ServerAdapter
	localStore   store.LocalStorage
	probeTimeout time.Duration
	logger       *logger.Logger

	mu    sync.RWMutex
	state models.ConnectionState
}

// NewModeManager builds a manager over the configured endpoints. Either
// adapter may be nil when the corresponding address is not configured. The
// initial mode is read from the persisted preference, falling back to
// initialMode, then to dual. An initial probe fills the reachability state.
func NewModeManager(ctx context.Context, local, cloud adapter.ServerAdapter, localStore store.LocalStorage, probeTimeout time.Duration, initialMode string, log *logger.Logger) (*ModeManager, error) {
	if local == nil && cloud == nil {
		return nil, errors.New("at least one endpoint adapter is required")
	}
	if probeTimeout <= 0 {
		probeTimeout = 3 * time.Second
	}

	mode, err := resolveInitialMode(ctx, localStore, initialMode)
	if err != nil {
		return nil, err
	}

	m := &ModeManager{
		local:        local,
		cloud:        cloud,
		localStore:   localStore,
		probeTimeout: probeTimeout,
		logger:       log,
		state:        models.ConnectionState{Mode: mode},
	}
	m.Probe(ctx)

	return m, nil
}

func resolveInitialMode(ctx context.Context, localStore store.LocalStorage, initialMode string) (models.ConnectionMode, error) {
	stored, err := localStore.GetPref(ctx, store.PrefConnectionMode)
	if err != nil {
		return "", fmt.Errorf("read persisted connection mode: %w", err)
	}

	for _, candidate := range []string{stored, initialMode} {
		switch models.ConnectionMode(candidate) {
		case models.ModeDual, models.ModeLocalOnly, models.ModeCloudOnly:
			return models.ConnectionMode(candidate), nil
		}
	}

	return models.ModeDual, nil
}

// SetToken implements [service.Remote]. The token is propagated to every
// endpoint so dual-mode fallback stays authenticated.
func (m *ModeManager) SetToken(token string) {
	if m.local != nil {
		m.local.SetToken(token)
	}
	if m.cloud != nil {
		m.cloud.SetToken(token)
	}
}

// State implements [service.Remote].
func (m *ModeManager) State() models.ConnectionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Probe implements [service.Remote]. Each configured endpoint is pinged with
// the probe timeout; the refreshed state is stored and returned.
func (m *ModeManager) Probe(ctx context.Context) models.ConnectionState {
	localUp := m.ping(ctx, m.local)
	cloudUp := m.ping(ctx, m.cloud)

	m.mu.Lock()
	m.state.LocalServerAvailable = localUp
	m.state.CloudAvailable = cloudUp
	m.state.IsOnline = localUp || cloudUp
	state := m.state
	m.mu.Unlock()

	m.logger.Debug().
		Str("func", "ModeManager.Probe").
		Bool("local_up", localUp).
		Bool("cloud_up", cloudUp).
		Str("mode", string(state.Mode)).
		Msg("endpoint probe completed")

	return state
}

func (m *ModeManager) ping(ctx context.Context, a adapter.ServerAdapter) bool {
	if a == nil {
		return false
	}

	probeCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	defer cancel()

	return a.Ping(probeCtx) == nil
}

// SetMode implements [service.Remote]. The chosen mode is persisted so it
// survives restarts.
func (m *ModeManager) SetMode(ctx context.Context, mode models.ConnectionMode) error {
	switch mode {
	case models.ModeDual, models.ModeLocalOnly, models.ModeCloudOnly:
	default:
		return fmt.Errorf("unknown connection mode %q", mode)
	}

	if err := m.localStore.SetPref(ctx, store.PrefConnectionMode, string(mode)); err != nil {
		return fmt.Errorf("persist connection mode: %w", err)
	}

	m.mu.Lock()
	m.state.Mode = mode
	m.mu.Unlock()

	m.logger.Info().
		Str("func", "ModeManager.SetMode").
		Str("mode", string(mode)).
		Msg("connection mode changed")

	return nil
}

// Do implements [service.Remote].
func (m *ModeManager) Do(ctx context.Context, call func(adapter.ServerAdapter) error) error {
	switch m.State().Mode {
	case models.ModeLocalOnly:
		if m.local == nil {
			return fmt.Errorf("%w: %s", ErrNoEndpointForMode, models.ModeLocalOnly)
		}
		err := call(m.local)
		m.markLocal(endpointReplied(err))
		return err

	case models.ModeCloudOnly:
		if m.cloud == nil {
			return fmt.Errorf("%w: %s", ErrNoEndpointForMode, models.ModeCloudOnly)
		}
		err := call(m.cloud)
		m.markCloud(endpointReplied(err))
		return err

	default:
		return m.doDual(ctx, call)
	}
}

func (m *ModeManager) doDual(ctx context.Context, call func(adapter.ServerAdapter) error) error {
	if m.local != nil {
		err := call(m.local)
		m.markLocal(endpointReplied(err))
		if err == nil {
			return nil
		}
		m.logger.Warn().
			Str("func", "ModeManager.doDual").
			Str("endpoint", m.local.Endpoint()).
			Err(err).
			Msg("local attempt failed, falling back to cloud")

		if m.cloud == nil {
			return err
		}
	}
	if m.cloud == nil {
		return fmt.Errorf("%w: %s", ErrNoEndpointForMode, models.ModeDual)
	}

	err := call(m.cloud)
	m.markCloud(endpointReplied(err))
	return err
}

// endpointReplied reports whether the endpoint produced an HTTP response at
// all, including error statuses: any reply proves reachability, while a
// timeout, refused connection, or gateway failure marks the endpoint down.
func endpointReplied(err error) bool {
	if err == nil {
		return true
	}
	for _, replied := range []error{
		adapter.ErrBadRequest,
		adapter.ErrUnauthorized,
		adapter.ErrForbidden,
		adapter.ErrNotFound,
		adapter.ErrConflict,
		adapter.ErrInternalServerError,
	} {
		if errors.Is(err, replied) {
			return true
		}
	}
	return false
}

func (m *ModeManager) markLocal(up bool) {
	m.mu.Lock()
	m.state.LocalServerAvailable = up
	m.state.IsOnline = m.state.LocalServerAvailable || m.state.CloudAvailable
	m.mu.Unlock()
}

func (m *ModeManager) markCloud(up bool) {
	m.mu.Lock()
	m.state.CloudAvailable = up
	m.state.IsOnline = m.state.LocalServerAvailable || m.state.CloudAvailable
	m.mu.Unlock()
}
