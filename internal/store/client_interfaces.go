// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ivan Karpovich

package store

import (
	"context"
	"time"

	"github.com/ikarpovich/study-sync/models"
)

// Preference keys persisted in the client prefs table.
const (
	// PrefSyncCursor holds the last server sync version the client has fully
	// applied, as a base-10 string.
	PrefSyncCursor = "sync_cursor"

	// PrefConnectionMode holds the user-selected connection mode so it
	// survives restarts.
	PrefConnectionMode = "connection_mode"
)

// LocalEntity is a locally stored entity together with its client-side sync
// bookkeeping. BaseVersion is the server version the local copy was last
// synchronized at; Dirty marks an un-pushed local mutation.
type LocalEntity struct {
	models.SyncEntity

	Kind        models.EntityKind
	BaseVersion int64
	Dirty       bool
	UpdatedAt   time.Time
}

// LocalStorage is the client-side durable store backing offline work: the
// entity mirror, the offline mutation queue, unresolved conflicts, and small
// key-value preferences. All methods are safe for concurrent use.
type LocalStorage interface {
	// SaveLocal records a local mutation of the entity, marking it dirty so a
	// later push or queue drain can send it to the server.
	SaveLocal(ctx context.Context, kind models.EntityKind, entity models.SyncEntity) error

	// ApplyRemote writes an entity received from the server, overwriting the
	// local copy and clearing the dirty flag. BaseVersion is set to the
	// entity's server-assigned sync version.
	ApplyRemote(ctx context.Context, kind models.EntityKind, entity models.SyncEntity) error

	// MarkSynced clears the dirty flag after a confirmed push and records the
	// server version the entity was committed at.
	MarkSynced(ctx context.Context, kind models.EntityKind, id string, version int64) error

	// GetEntity returns the locally stored entity with its sync bookkeeping.
	// Returns ErrLocalEntityNotFound when no such row exists.
	GetEntity(ctx context.Context, kind models.EntityKind, id string) (LocalEntity, error)

	// ListEntities returns all locally stored entities of the given kind,
	// including soft-deleted ones, ordered by local update time.
	ListEntities(ctx context.Context, kind models.EntityKind) ([]LocalEntity, error)

	// ListDirty returns every entity with an un-pushed local mutation, across
	// all kinds, ordered by local update time.
	ListDirty(ctx context.Context) ([]LocalEntity, error)

	// Enqueue durably appends a mutation to the offline queue.
	Enqueue(ctx context.Context, item models.OfflineQueueItem) error

	// DueQueueItems returns queue items whose retry time has passed, ordered
	// by priority then creation time.
	DueQueueItems(ctx context.Context, now time.Time) ([]models.OfflineQueueItem, error)

	// MarkQueueAttempt records a failed delivery attempt and the time before
	// which the item must not be retried.
	MarkQueueAttempt(ctx context.Context, id string, attempts int, nextRetryAt time.Time) error

	// RemoveQueueItem deletes a queue item after a confirmed success or an
	// explicit user action. This is the only way items leave the queue.
	RemoveQueueItem(ctx context.Context, id string) error

	// RemoveQueueItemsForEntity deletes every queued push of one entity. Used
	// when an explicit conflict resolution supersedes the queued content.
	RemoveQueueItemsForEntity(ctx context.Context, kind models.EntityKind, id string) error

	// QueueSize returns the number of items currently queued.
	QueueSize(ctx context.Context) (int, error)

	// SaveConflict persists an unresolved conflict so it survives restarts.
	// Saving a conflict for an already conflicted entity replaces it.
	SaveConflict(ctx context.Context, conflict models.SyncConflict) error

	// ListConflicts returns all unresolved conflicts in detection order.
	ListConflicts(ctx context.Context) ([]models.SyncConflict, error)

	// RemoveConflict deletes a conflict record after the user resolved it.
	RemoveConflict(ctx context.Context, kind models.EntityKind, id string) error

	// GetPref returns the stored preference value, or "" with a nil error when
	// the key has never been set.
	GetPref(ctx context.Context, key string) (string, error)

	// SetPref stores a preference value, replacing any previous one.
	SetPref(ctx context.Context, key, value string) error
}
