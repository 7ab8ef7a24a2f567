package store

const (
	createUser = `INSERT INTO users (email, password_hash, subscription_tier) 
    VALUES ($1, $2, $3) 
    RETURNING user_id, email, password_hash, subscription_tier, created_at;`

	createSyncCursor = `INSERT INTO sync_cursors (user_id, last_sync_version, last_sync_at) 
    VALUES ($1, 0, NOW());`

	findUserByEmail = `SELECT user_id, email, password_hash, subscription_tier, created_at 
    FROM users 
    WHERE LOWER(email) = LOWER($1);`

	// acquireUserSyncLock serializes concurrent pushes of one user for the
	// duration of the surrounding transaction. The lock key is the user id.
	acquireUserSyncLock = `SELECT pg_advisory_xact_lock($1);`

	// selectNextSyncVersion computes the next per-user version as one past
	// the highest version known across all three entity tables.
	selectNextSyncVersion = `SELECT GREATEST(
		COALESCE((SELECT MAX(sync_version) FROM documents WHERE user_id = $1), 0),
		COALESCE((SELECT MAX(sync_version) FROM extracts WHERE user_id = $1), 0),
		COALESCE((SELECT MAX(sync_version) FROM learning_items WHERE user_id = $1), 0)
	) + 1;`

	// The WHERE clause on the conflict update guards ownership: an update of
	// an id held by another user matches zero rows and the batch is rolled
	// back by the caller.
	upsertDocument = `INSERT INTO documents (id, user_id, payload, deleted_at, sync_version)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET payload = EXCLUDED.payload,
		    deleted_at = EXCLUDED.deleted_at,
		    sync_version = EXCLUDED.sync_version
		WHERE documents.user_id = EXCLUDED.user_id;`

	upsertExtract = `INSERT INTO extracts (id, user_id, payload, deleted_at, sync_version)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET payload = EXCLUDED.payload,
		    deleted_at = EXCLUDED.deleted_at,
		    sync_version = EXCLUDED.sync_version
		WHERE extracts.user_id = EXCLUDED.user_id;`

	upsertLearningItem = `INSERT INTO learning_items (id, user_id, payload, deleted_at, sync_version)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET payload = EXCLUDED.payload,
		    deleted_at = EXCLUDED.deleted_at,
		    sync_version = EXCLUDED.sync_version
		WHERE learning_items.user_id = EXCLUDED.user_id;`

	pullDocuments = `SELECT id, payload, deleted_at, sync_version
		FROM documents
		WHERE user_id = $1 AND sync_version > $2
		ORDER BY sync_version;`

	pullExtracts = `SELECT id, payload, deleted_at, sync_version
		FROM extracts
		WHERE user_id = $1 AND sync_version > $2
		ORDER BY sync_version;`

	pullLearningItems = `SELECT id, payload, deleted_at, sync_version
		FROM learning_items
		WHERE user_id = $1 AND sync_version > $2
		ORDER BY sync_version;`

	upsertSyncCursor = `INSERT INTO sync_cursors (user_id, last_sync_version, last_sync_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET last_sync_version = EXCLUDED.last_sync_version,
		    last_sync_at = EXCLUDED.last_sync_at;`

	getSyncCursor = `SELECT user_id, last_sync_version, last_sync_at
		FROM sync_cursors
		WHERE user_id = $1;`
)
