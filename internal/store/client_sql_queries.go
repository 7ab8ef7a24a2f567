// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ivan Karpovich

package store

// Client-side SQLite schema. Applied on every start; all statements are
// idempotent.
const clientSchema = `
	CREATE TABLE IF NOT EXISTS entities (
		kind         TEXT      NOT NULL,
		id           TEXT      NOT NULL,
		payload      TEXT      NOT NULL,
		deleted_at   TIMESTAMP,
		base_version INTEGER   NOT NULL DEFAULT 0,
		dirty        INTEGER   NOT NULL DEFAULT 0,
		updated_at   TIMESTAMP NOT NULL,
		PRIMARY KEY (kind, id)
	);

	CREATE INDEX IF NOT EXISTS idx_entities_dirty ON entities (dirty) WHERE dirty = 1;

	CREATE TABLE IF NOT EXISTS offline_queue (
		id            TEXT      PRIMARY KEY,
		operation     TEXT      NOT NULL,
		payload       TEXT      NOT NULL,
		priority      INTEGER   NOT NULL DEFAULT 1,
		created_at    TIMESTAMP NOT NULL,
		attempts      INTEGER   NOT NULL DEFAULT 0,
		next_retry_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_offline_queue_order ON offline_queue (priority, created_at);

	CREATE TABLE IF NOT EXISTS conflicts (
		kind       TEXT      NOT NULL,
		id         TEXT      NOT NULL,
		payload    TEXT      NOT NULL,
		created_at TIMESTAMP NOT NULL,
		PRIMARY KEY (kind, id)
	);

	CREATE TABLE IF NOT EXISTS prefs (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`

const (
	saveLocalEntity = `
		INSERT INTO entities (kind, id, payload, deleted_at, base_version, dirty, updated_at)
		VALUES ($1, $2, $3, $4, 0, 1, $5)
		ON CONFLICT (kind, id) DO UPDATE SET
			payload    = EXCLUDED.payload,
			deleted_at = EXCLUDED.deleted_at,
			dirty      = 1,
			updated_at = EXCLUDED.updated_at;`

	applyRemoteEntity = `
		INSERT INTO entities (kind, id, payload, deleted_at, base_version, dirty, updated_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6)
		ON CONFLICT (kind, id) DO UPDATE SET
			payload      = EXCLUDED.payload,
			deleted_at   = EXCLUDED.deleted_at,
			base_version = EXCLUDED.base_version,
			dirty        = 0,
			updated_at   = EXCLUDED.updated_at;`

	selectLocalEntity = `
		SELECT kind, id, payload, deleted_at, base_version, dirty, updated_at
		FROM entities
		WHERE kind = $1 AND id = $2;`

	selectLocalEntitiesByKind = `
		SELECT kind, id, payload, deleted_at, base_version, dirty, updated_at
		FROM entities
		WHERE kind = $1
		ORDER BY updated_at;`

	selectDirtyEntities = `
		SELECT kind, id, payload, deleted_at, base_version, dirty, updated_at
		FROM entities
		WHERE dirty = 1
		ORDER BY updated_at;`

	clearEntityDirtyFlag = `
		UPDATE entities
		SET dirty = 0, base_version = ?3
		WHERE kind = ?1 AND id = ?2;`

	enqueueItem = `
		INSERT INTO offline_queue (id, operation, payload, priority, created_at, attempts, next_retry_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);`

	selectDueQueueItems = `
		SELECT id, operation, payload, priority, created_at, attempts, next_retry_at
		FROM offline_queue
		WHERE next_retry_at <= $1
		ORDER BY priority, created_at;`

	updateQueueItemAttempt = `
		UPDATE offline_queue
		SET attempts = ?2, next_retry_at = ?3
		WHERE id = ?1;`

	deleteQueueItem = `DELETE FROM offline_queue WHERE id = $1;`

	deleteQueueItemsForEntity = `
		DELETE FROM offline_queue
		WHERE json_extract(payload, '$.kind') = $1
		  AND json_extract(payload, '$.entity.id') = $2;`

	countQueueItems = `SELECT COUNT(*) FROM offline_queue;`

	upsertConflict = `
		INSERT INTO conflicts (kind, id, payload, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (kind, id) DO UPDATE SET
			payload    = EXCLUDED.payload,
			created_at = EXCLUDED.created_at;`

	selectConflicts = `
		SELECT payload
		FROM conflicts
		ORDER BY created_at;`

	deleteConflict = `DELETE FROM conflicts WHERE kind = $1 AND id = $2;`

	upsertPref = `
		INSERT INTO prefs (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value;`

	selectPref = `SELECT value FROM prefs WHERE key = $1;`
)
