// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ivan Karpovich

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ikarpovich/study-sync/internal/logger"
	"github.com/ikarpovich/study-sync/models"
)

// syncRepository is the PostgreSQL-backed implementation of [SyncRepository].
// It executes all push/pull operations against the per-kind entity tables
// (documents, extracts, learning_items) and the sync_cursors watermark table
// using the embedded [*DB] connection.
//
// Every public method obtains a context-scoped logger via
// [logger.FromContext] so that all database interactions are traced
// with structured fields (user_id, kind, sync_version, etc.).
type syncRepository struct {
	*DB
	logger *logger.Logger
}

// NewSyncRepository constructs a [SyncRepository] backed by the provided
// database connection and logger.
func NewSyncRepository(db *DB, logger *logger.Logger) SyncRepository {
	logger.Debug().Msg("creating sync repository")
	return &syncRepository{
		DB:     db,
		logger: logger,
	}
}

// PushBatch atomically persists a batch of pushed entities for one user.
//
// The whole batch runs in a single transaction:
//  1. A transaction-scoped advisory lock on the user id serializes
//     concurrent pushes from multiple devices of the same account.
//  2. The first version of the batch is allocated as one past the maximum
//     version across all three entity tables, so versions across batches
//     are strictly increasing per user with no gaps from aborted pushes.
//  3. Entities are upserted in request order, each stamped with the next
//     version in sequence: no two rows of one user ever share a version.
//     Last writer wins: an existing row is overwritten unconditionally.
//  4. The user's sync cursor is advanced to the last assigned version.
//
// If any upsert matches zero rows the pushed id belongs to another user;
// the transaction is rolled back and [ErrEntityOwnedByAnotherUser] is
// returned, so a batch is applied either fully or not at all.
func (r *syncRepository) PushBatch(ctx context.Context, userID int64, batch models.PushRequest) (models.PushResponse, error) {
	log := logger.FromContext(ctx)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).
			Str("func", "syncRepository.PushBatch").
			Int64("user_id", userID).
			Msg("failed to begin transaction")
		return models.PushResponse{}, fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, acquireUserSyncLock, userID); err != nil {
		log.Err(err).
			Str("func", "syncRepository.PushBatch").
			Int64("user_id", userID).
			Msg("failed to acquire per-user sync lock")
		return models.PushResponse{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	var nextVersion int64
	if err = tx.QueryRowContext(ctx, selectNextSyncVersion, userID).Scan(&nextVersion); err != nil {
		log.Err(err).
			Str("func", "syncRepository.PushBatch").
			Int64("user_id", userID).
			Msg("failed to allocate next sync version")
		return models.PushResponse{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	var counts models.PushCounts
	for _, kind := range models.Kinds {
		entities := batch.Entities(kind)
		query := upsertQueryForKind(kind)

		for _, entity := range entities {
			payload, marshalErr := marshalPayload(entity.Payload)
			if marshalErr != nil {
				log.Err(marshalErr).
					Str("func", "syncRepository.PushBatch").
					Int64("user_id", userID).
					Str("kind", string(kind)).
					Str("id", entity.ID).
					Msg("failed to marshal entity payload")
				return models.PushResponse{}, marshalErr
			}

			result, execErr := tx.ExecContext(ctx, query, entity.ID, userID, payload, entity.DeletedAt, nextVersion)
			if execErr != nil {
				log.Err(execErr).
					Str("func", "syncRepository.PushBatch").
					Int64("user_id", userID).
					Str("kind", string(kind)).
					Str("id", entity.ID).
					Msg("failed to upsert entity")
				return models.PushResponse{}, fmt.Errorf("%w: %w", ErrExecutingStatement, execErr)
			}

			affected, affectedErr := result.RowsAffected()
			if affectedErr != nil {
				log.Err(affectedErr).
					Str("func", "syncRepository.PushBatch").
					Int64("user_id", userID).
					Str("kind", string(kind)).
					Msg("failed to read affected rows")
				return models.PushResponse{}, fmt.Errorf("%w: %w", ErrExecutingStatement, affectedErr)
			}
			if affected == 0 {
				log.Warn().
					Str("func", "syncRepository.PushBatch").
					Int64("user_id", userID).
					Str("kind", string(kind)).
					Str("id", entity.ID).
					Msg("entity id belongs to another user, rolling batch back")
				return models.PushResponse{}, ErrEntityOwnedByAnotherUser
			}

			counts.Add(kind, 1)
			nextVersion++
		}
	}

	lastVersion := nextVersion - 1
	if _, err = tx.ExecContext(ctx, upsertSyncCursor, userID, lastVersion); err != nil {
		log.Err(err).
			Str("func", "syncRepository.PushBatch").
			Int64("user_id", userID).
			Int64("sync_version", lastVersion).
			Msg("failed to advance sync cursor")
		return models.PushResponse{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if commitErr := tx.Commit(); commitErr != nil {
		log.Err(commitErr).
			Str("func", "syncRepository.PushBatch").
			Int64("user_id", userID).
			Bool("retryable", r.errorClassificator.Classify(commitErr) == Retryable).
			Msg("failed to commit push transaction")
		return models.PushResponse{}, fmt.Errorf("%w: %w", ErrCommitingTransaction, commitErr)
	}

	return models.PushResponse{
		Success:     true,
		SyncVersion: lastVersion,
		Pushed:      counts,
	}, nil
}

// PullChanges returns every entity of the user with sync_version greater
// than since, together with the user's current cursor watermark.
//
// The three per-kind scans and the cursor read run inside one read-only
// REPEATABLE READ transaction, so the returned watermark is consistent with
// the returned rows: replaying pulls with the returned version never skips
// a change committed between the scans.
func (r *syncRepository) PullChanges(ctx context.Context, userID int64, since int64) (models.PullResponse, error) {
	log := logger.FromContext(ctx)

	tx, err := r.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		log.Err(err).
			Str("func", "syncRepository.PullChanges").
			Int64("user_id", userID).
			Msg("failed to begin read transaction")
		return models.PullResponse{}, fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	var response models.PullResponse
	for _, kind := range models.Kinds {
		entities, scanErr := r.scanEntities(ctx, tx, pullQueryForKind(kind), userID, since)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", "syncRepository.PullChanges").
				Int64("user_id", userID).
				Str("kind", string(kind)).
				Msg("failed to pull entities")
			return models.PullResponse{}, scanErr
		}

		switch kind {
		case models.KindDocument:
			response.Documents = entities
		case models.KindExtract:
			response.Extracts = entities
		case models.KindLearningItem:
			response.LearningItems = entities
		}
	}

	cursor, err := r.scanCursor(ctx, tx, userID)
	if err != nil {
		log.Err(err).
			Str("func", "syncRepository.PullChanges").
			Int64("user_id", userID).
			Msg("failed to read sync cursor")
		return models.PullResponse{}, err
	}
	response.SyncVersion = cursor.LastSyncVersion

	if commitErr := tx.Commit(); commitErr != nil {
		log.Err(commitErr).
			Str("func", "syncRepository.PullChanges").
			Int64("user_id", userID).
			Msg("failed to commit read transaction")
		return models.PullResponse{}, fmt.Errorf("%w: %w", ErrCommitingTransaction, commitErr)
	}

	return response, nil
}

// GetCursor returns the user's sync cursor. A user that has never pushed
// gets a zero-valued cursor rather than an error.
func (r *syncRepository) GetCursor(ctx context.Context, userID int64) (models.SyncCursor, error) {
	log := logger.FromContext(ctx)

	var cursor models.SyncCursor
	row := r.DB.QueryRowContext(ctx, getSyncCursor, userID)
	if err := row.Scan(&cursor.UserID, &cursor.LastSyncVersion, &cursor.LastSyncAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.SyncCursor{UserID: userID}, nil
		}

		log.Err(err).
			Str("func", "syncRepository.GetCursor").
			Int64("user_id", userID).
			Msg("failed to scan sync cursor")
		return models.SyncCursor{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return cursor, nil
}

func (r *syncRepository) scanEntities(ctx context.Context, tx *sql.Tx, query string, userID int64, since int64) ([]models.SyncEntity, error) {
	rows, err := tx.QueryContext(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	results := make([]models.SyncEntity, 0, 50)

	for rows.Next() {
		var entity models.SyncEntity
		var payload []byte

		if scanErr := rows.Scan(&entity.ID, &payload, &entity.DeletedAt, &entity.SyncVersion); scanErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}

		if len(payload) > 0 {
			if unmarshalErr := json.Unmarshal(payload, &entity.Payload); unmarshalErr != nil {
				return nil, fmt.Errorf("%w: %w", ErrScanningRow, unmarshalErr)
			}
		}

		entity.UserID = userID
		results = append(results, entity)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return results, nil
}

func (r *syncRepository) scanCursor(ctx context.Context, tx *sql.Tx, userID int64) (models.SyncCursor, error) {
	var cursor models.SyncCursor
	row := tx.QueryRowContext(ctx, getSyncCursor, userID)
	if err := row.Scan(&cursor.UserID, &cursor.LastSyncVersion, &cursor.LastSyncAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.SyncCursor{UserID: userID}, nil
		}
		return models.SyncCursor{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return cursor, nil
}

func upsertQueryForKind(kind models.EntityKind) string {
	switch kind {
	case models.KindExtract:
		return upsertExtract
	case models.KindLearningItem:
		return upsertLearningItem
	default:
		return upsertDocument
	}
}

func pullQueryForKind(kind models.EntityKind) string {
	switch kind {
	case models.KindExtract:
		return pullExtracts
	case models.KindLearningItem:
		return pullLearningItems
	default:
		return pullDocuments
	}
}

// marshalPayload renders the opaque entity payload for the JSONB column.
// A nil payload is stored as an empty object, not SQL NULL.
func marshalPayload(payload map[string]json.RawMessage) ([]byte, error) {
	if payload == nil {
		return []byte("{}"), nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	return data, nil
}
