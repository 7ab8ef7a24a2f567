// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ivan Karpovich

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ikarpovich/study-sync/internal/logger"
	"github.com/ikarpovich/study-sync/models"
)

// localRepository is the SQLite-backed implementation of [LocalStorage].
type localRepository struct {
	*ClientDB
	logger *logger.Logger
}

// NewLocalStorage constructs a [LocalStorage] backed by the provided client
// database handle and logger.
func NewLocalStorage(db *ClientDB, logger *logger.Logger) LocalStorage {
	logger.Debug().Msg("creating local storage")
	return &localRepository{
		ClientDB: db,
		logger:   logger,
	}
}

// SaveLocal implements [LocalStorage]. The entity's base version is preserved
// across repeated local edits so conflict detection can compare against the
// version the entity was last synchronized at.
func (r *localRepository) SaveLocal(ctx context.Context, kind models.EntityKind, entity models.SyncEntity) error {
	payload, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("marshal entity %s/%s: %w", kind, entity.ID, err)
	}

	_, err = r.ExecContext(ctx, saveLocalEntity,
		string(kind), entity.ID, string(payload), entity.DeletedAt, time.Now().UTC())
	if err != nil {
		r.logger.Err(err).
			Str("func", "localRepository.SaveLocal").
			Str("kind", string(kind)).
			Str("entity_id", entity.ID).
			Msg("failed to save local entity")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// ApplyRemote implements [LocalStorage].
func (r *localRepository) ApplyRemote(ctx context.Context, kind models.EntityKind, entity models.SyncEntity) error {
	payload, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("marshal entity %s/%s: %w", kind, entity.ID, err)
	}

	_, err = r.ExecContext(ctx, applyRemoteEntity,
		string(kind), entity.ID, string(payload), entity.DeletedAt, entity.SyncVersion, time.Now().UTC())
	if err != nil {
		r.logger.Err(err).
			Str("func", "localRepository.ApplyRemote").
			Str("kind", string(kind)).
			Str("entity_id", entity.ID).
			Int64("sync_version", entity.SyncVersion).
			Msg("failed to apply remote entity")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// MarkSynced implements [LocalStorage].
func (r *localRepository) MarkSynced(ctx context.Context, kind models.EntityKind, id string, version int64) error {
	if _, err := r.ExecContext(ctx, clearEntityDirtyFlag, string(kind), id, version); err != nil {
		r.logger.Err(err).
			Str("func", "localRepository.MarkSynced").
			Str("kind", string(kind)).
			Str("entity_id", id).
			Msg("failed to clear dirty flag")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// GetEntity implements [LocalStorage].
func (r *localRepository) GetEntity(ctx context.Context, kind models.EntityKind, id string) (LocalEntity, error) {
	row := r.QueryRowContext(ctx, selectLocalEntity, string(kind), id)

	entity, err := scanLocalEntity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return LocalEntity{}, fmt.Errorf("%w: %s/%s", ErrLocalEntityNotFound, kind, id)
	}
	if err != nil {
		return LocalEntity{}, err
	}

	return entity, nil
}

// ListEntities implements [LocalStorage].
func (r *localRepository) ListEntities(ctx context.Context, kind models.EntityKind) ([]LocalEntity, error) {
	rows, err := r.QueryContext(ctx, selectLocalEntitiesByKind, string(kind))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	return scanLocalEntities(rows)
}

// ListDirty implements [LocalStorage].
func (r *localRepository) ListDirty(ctx context.Context) ([]LocalEntity, error) {
	rows, err := r.QueryContext(ctx, selectDirtyEntities)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	return scanLocalEntities(rows)
}

// Enqueue implements [LocalStorage].
func (r *localRepository) Enqueue(ctx context.Context, item models.OfflineQueueItem) error {
	_, err := r.ExecContext(ctx, enqueueItem,
		item.ID, string(item.Operation), string(item.Payload),
		int(item.Priority), item.CreatedAt, item.Attempts, item.NextRetryAt)
	if err != nil {
		r.logger.Err(err).
			Str("func", "localRepository.Enqueue").
			Str("item_id", item.ID).
			Str("operation", string(item.Operation)).
			Msg("failed to enqueue item")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// DueQueueItems implements [LocalStorage].
func (r *localRepository) DueQueueItems(ctx context.Context, now time.Time) ([]models.OfflineQueueItem, error) {
	rows, err := r.QueryContext(ctx, selectDueQueueItems, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var items []models.OfflineQueueItem
	for rows.Next() {
		var (
			item      models.OfflineQueueItem
			operation string
			payload   string
			priority  int
		)
		if err = rows.Scan(&item.ID, &operation, &payload, &priority,
			&item.CreatedAt, &item.Attempts, &item.NextRetryAt); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		item.Operation = models.QueueOperation(operation)
		item.Payload = json.RawMessage(payload)
		item.Priority = models.QueuePriority(priority)
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return items, nil
}

// MarkQueueAttempt implements [LocalStorage].
func (r *localRepository) MarkQueueAttempt(ctx context.Context, id string, attempts int, nextRetryAt time.Time) error {
	if _, err := r.ExecContext(ctx, updateQueueItemAttempt, id, attempts, nextRetryAt); err != nil {
		r.logger.Err(err).
			Str("func", "localRepository.MarkQueueAttempt").
			Str("item_id", id).
			Int("attempts", attempts).
			Msg("failed to record queue attempt")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// RemoveQueueItem implements [LocalStorage].
func (r *localRepository) RemoveQueueItem(ctx context.Context, id string) error {
	if _, err := r.ExecContext(ctx, deleteQueueItem, id); err != nil {
		r.logger.Err(err).
			Str("func", "localRepository.RemoveQueueItem").
			Str("item_id", id).
			Msg("failed to remove queue item")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// RemoveQueueItemsForEntity implements [LocalStorage].
func (r *localRepository) RemoveQueueItemsForEntity(ctx context.Context, kind models.EntityKind, id string) error {
	if _, err := r.ExecContext(ctx, deleteQueueItemsForEntity, string(kind), id); err != nil {
		r.logger.Err(err).
			Str("func", "localRepository.RemoveQueueItemsForEntity").
			Str("kind", string(kind)).
			Str("entity_id", id).
			Msg("failed to remove queue items for entity")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// QueueSize implements [LocalStorage].
func (r *localRepository) QueueSize(ctx context.Context) (int, error) {
	var count int
	if err := r.QueryRowContext(ctx, countQueueItems).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return count, nil
}

// SaveConflict implements [LocalStorage].
func (r *localRepository) SaveConflict(ctx context.Context, conflict models.SyncConflict) error {
	payload, err := json.Marshal(conflict)
	if err != nil {
		return fmt.Errorf("marshal conflict %s/%s: %w", conflict.Kind, conflict.EntityID, err)
	}

	_, err = r.ExecContext(ctx, upsertConflict,
		string(conflict.Kind), conflict.EntityID, string(payload), time.Now().UTC())
	if err != nil {
		r.logger.Err(err).
			Str("func", "localRepository.SaveConflict").
			Str("kind", string(conflict.Kind)).
			Str("entity_id", conflict.EntityID).
			Msg("failed to save conflict")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// ListConflicts implements [LocalStorage].
func (r *localRepository) ListConflicts(ctx context.Context) ([]models.SyncConflict, error) {
	rows, err := r.QueryContext(ctx, selectConflicts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var conflicts []models.SyncConflict
	for rows.Next() {
		var payload string
		if err = rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}

		var conflict models.SyncConflict
		if err = json.Unmarshal([]byte(payload), &conflict); err != nil {
			return nil, fmt.Errorf("decode stored conflict: %w", err)
		}
		conflicts = append(conflicts, conflict)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return conflicts, nil
}

// RemoveConflict implements [LocalStorage].
func (r *localRepository) RemoveConflict(ctx context.Context, kind models.EntityKind, id string) error {
	if _, err := r.ExecContext(ctx, deleteConflict, string(kind), id); err != nil {
		r.logger.Err(err).
			Str("func", "localRepository.RemoveConflict").
			Str("kind", string(kind)).
			Str("entity_id", id).
			Msg("failed to remove conflict")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// GetPref implements [LocalStorage].
func (r *localRepository) GetPref(ctx context.Context, key string) (string, error) {
	var value string
	err := r.QueryRowContext(ctx, selectPref, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return value, nil
}

// SetPref implements [LocalStorage].
func (r *localRepository) SetPref(ctx context.Context, key, value string) error {
	if _, err := r.ExecContext(ctx, upsertPref, key, value); err != nil {
		r.logger.Err(err).
			Str("func", "localRepository.SetPref").
			Str("key", key).
			Msg("failed to set preference")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLocalEntity(row rowScanner) (LocalEntity, error) {
	var (
		entity  LocalEntity
		kind    string
		id      string
		payload string
		dirty   int
	)
	err := row.Scan(&kind, &id, &payload, &entity.DeletedAt,
		&entity.BaseVersion, &dirty, &entity.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return LocalEntity{}, err
	}
	if err != nil {
		return LocalEntity{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	deletedAt := entity.DeletedAt
	if err = json.Unmarshal([]byte(payload), &entity.SyncEntity); err != nil {
		return LocalEntity{}, fmt.Errorf("decode stored entity %s/%s: %w", kind, id, err)
	}

	// Columns are authoritative for identity and the delete marker.
	entity.Kind = models.EntityKind(kind)
	entity.ID = id
	entity.DeletedAt = deletedAt
	entity.Dirty = dirty != 0

	return entity, nil
}

func scanLocalEntities(rows *sql.Rows) ([]LocalEntity, error) {
	var entities []LocalEntity
	for rows.Next() {
		entity, err := scanLocalEntity(rows)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return entities, nil
}
