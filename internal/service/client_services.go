// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ivan Karpovich

package service

import (
	"github.com/ikarpovich/study-sync/internal/config"
	"github.com/ikarpovich/study-sync/internal/logger"
	"github.com/ikarpovich/study-sync/internal/store"
)

// ClientServices aggregates the client-side service layer.
type ClientServices struct {
	AuthService ClientAuthService
	SyncService ClientSyncService
	SyncJob     ClientSyncJob
}

// NewClientServices wires the client services on top of the local store, the
// connection manager and the status tracker.
func NewClientServices(localStore store.LocalStorage, remote Remote, tracker StatusTracker, appCfg config.ClientApp, log *logger.Logger) *ClientServices {
	syncSvc := NewClientSyncService(localStore, remote, tracker, appCfg.DeviceID, log)

	return &ClientServices{
		AuthService: NewClientAuthService(remote, log),
		SyncService: syncSvc,
		SyncJob:     NewClientSyncJob(syncSvc),
	}
}
