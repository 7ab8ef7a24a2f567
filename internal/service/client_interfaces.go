// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ivan Karpovich

package service

import (
	"context"
	"time"

	"github.com/ikarpovich/study-sync/internal/adapter"
	"github.com/ikarpovich/study-sync/models"
)

// Remote abstracts "the server" from the client services: it selects an
// endpoint according to the current connection mode, executes the call
// against it, and in dual mode retries the cloud endpoint when the local
// one fails. Implemented by the connection manager in internal/client.
type Remote interface {
	// Do executes call against the endpoint(s) permitted by the current
	// connection mode. In dual mode a transport-level failure on the local
	// endpoint is retried once against the cloud endpoint; business errors
	// (4xx mappings) are returned as-is without fallback.
	Do(ctx context.Context, call func(adapter.ServerAdapter) error) error

	// SetToken propagates a bearer token to every managed endpoint adapter.
	SetToken(token string)

	// State returns the last observed reachability picture.
	State() models.ConnectionState

	// Probe re-checks endpoint availability and returns the refreshed state.
	Probe(ctx context.Context) models.ConnectionState

	// SetMode switches the connection mode and persists the choice.
	SetMode(ctx context.Context, mode models.ConnectionMode) error
}

// StatusTracker records the client sync state machine transitions:
//
//	Idle -> Connecting -> Syncing -> {Synced | Failed | Conflict} -> Idle
//
// Implemented by the state observer in internal/client.
type StatusTracker interface {
	// Set moves the machine into a transient state (Connecting, Syncing).
	Set(status models.SyncStatus)

	// Finish records the terminal outcome of a sync cycle together with its
	// report and returns the machine to Idle.
	Finish(outcome models.SyncStatus, report models.SyncReport)
}

// ClientAuthService handles account registration and login against the
// currently reachable server endpoint.
type ClientAuthService interface {
	// Register creates a new account and stores the issued bearer token on
	// every endpoint adapter.
	Register(ctx context.Context, user models.User) (models.Token, error)

	// Login authenticates an existing account and stores the issued bearer
	// token on every endpoint adapter.
	Login(ctx context.Context, user models.User) (models.Token, error)
}

// ClientSyncService drives the client side of the sync protocol: the durable
// offline queue, pull-and-merge with conflict detection, and explicit
// conflict resolution.
type ClientSyncService interface {
	// QueueMutation records a local edit: the entity is saved dirty in the
	// local store and a push item is appended to the offline queue. The same
	// path is used whether or not the client currently appears online.
	QueueMutation(ctx context.Context, kind models.EntityKind, entity models.SyncEntity) error

	// QueueDeletion soft-deletes the entity locally and queues the tombstone
	// push at high priority.
	QueueDeletion(ctx context.Context, kind models.EntityKind, id string) error

	// Drain sends due offline queue items in priority/FIFO order, stopping at
	// the first failure. It returns the number of items confirmed and
	// removed. Failed items stay queued with a backoff-delayed retry time;
	// they are never dropped.
	Drain(ctx context.Context) (int, error)

	// PullOnce fetches every change after the local cursor, merges clean rows
	// into the local store, surfaces conflicts for dirty rows, and advances
	// the cursor. It returns the number of rows applied and the conflicts
	// detected in this pass.
	PullOnce(ctx context.Context) (int, []models.SyncConflict, error)

	// FullSync runs one complete cycle (drain, then pull) while driving the
	// status tracker through the state machine. The returned report is also
	// recorded on the tracker.
	FullSync(ctx context.Context) (models.SyncReport, error)

	// Conflicts lists unresolved conflicts in detection order.
	Conflicts(ctx context.Context) ([]models.SyncConflict, error)

	// Resolve applies the user's explicit choice for a surfaced conflict.
	// merged is consulted only for ResolutionMerge and carries the entity the
	// caller built out of both sides.
	Resolve(ctx context.Context, kind models.EntityKind, id string, resolution models.ConflictResolution, merged *models.SyncEntity) error

	// QueueSize reports how many mutations are waiting in the offline queue.
	QueueSize(ctx context.Context) (int, error)
}

// ClientSyncJob is a background worker that periodically calls FullSync.
type ClientSyncJob interface {
	// Start launches the background sync goroutine. It syncs every interval,
	// defaulting to 5 minutes if interval is zero or negative. Any previously
	// running job is stopped before the new one begins.
	Start(ctx context.Context, interval time.Duration)

	// Stop signals the background goroutine to exit and blocks until it has
	// fully terminated.
	Stop()
}
