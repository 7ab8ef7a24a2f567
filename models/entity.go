// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ivan Karpovich

package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// EntityKind identifies one of the three synchronizable entity kinds.
// The sync core treats all kinds identically; the kind only selects the
// backing table and the field of the push/pull payloads.
type EntityKind string

const (
	KindDocument     EntityKind = "document"
	KindExtract      EntityKind = "extract"
	KindLearningItem EntityKind = "learning_item"
)

// Kinds lists every entity kind in the canonical order used by push and pull
// payloads (documents, extracts, learning items).
var Kinds = []EntityKind{KindDocument, KindExtract, KindLearningItem}

// Reserved JSON keys owned by the sync core. Every other top-level key of an
// entity object belongs to the kind-specific payload and is passed through
// verbatim.
const (
	entityKeyID          = "id"
	entityKeyDeletedAt   = "deletedAt"
	entityKeySyncVersion = "syncVersion"
)

// SyncEntity is the kind-neutral representation of a synchronizable record
// (document, extract, or learning item).
//
// The sync core owns only the identity and versioning fields; everything the
// application stores in an entity (title, content, scheduling state, ...)
// lives in Payload and is carried through push, storage, and pull without
// interpretation. On the wire the payload fields appear at the top level of
// the entity object next to "id", "deletedAt", and "syncVersion" — the custom
// JSON methods below split and re-merge them.
type SyncEntity struct {
	// ID is the client-generated, globally unique identifier. It is stable
	// across devices and is the upsert key on the server.
	ID string

	// UserID is the owner. It is derived from the bearer token on the server
	// and never travels in the entity JSON.
	UserID int64

	// DeletedAt marks a soft delete. Deleted rows are synchronized like any
	// other mutation; rows are never physically removed by sync.
	DeletedAt *time.Time

	// SyncVersion is assigned only by the server and is strictly increasing
	// per user across all three kinds. Zero means "never pushed".
	SyncVersion int64

	// Payload holds the kind-specific fields verbatim, keyed by their JSON
	// names.
	Payload map[string]json.RawMessage
}

// MarshalJSON flattens the opaque payload fields back to the top level of the
// entity object alongside the sync-core fields.
func (e SyncEntity) MarshalJSON() ([]byte, error) {
	flat := make(map[string]json.RawMessage, len(e.Payload)+3)
	for k, v := range e.Payload {
		flat[k] = v
	}

	id, err := json.Marshal(e.ID)
	if err != nil {
		return nil, fmt.Errorf("marshal entity id: %w", err)
	}
	flat[entityKeyID] = id

	if e.DeletedAt != nil {
		deletedAt, marshalErr := json.Marshal(e.DeletedAt)
		if marshalErr != nil {
			return nil, fmt.Errorf("marshal entity deletedAt: %w", marshalErr)
		}
		flat[entityKeyDeletedAt] = deletedAt
	}

	if e.SyncVersion > 0 {
		version, marshalErr := json.Marshal(e.SyncVersion)
		if marshalErr != nil {
			return nil, fmt.Errorf("marshal entity syncVersion: %w", marshalErr)
		}
		flat[entityKeySyncVersion] = version
	}

	return json.Marshal(flat)
}

// UnmarshalJSON extracts the sync-core fields and captures every remaining
// top-level key as opaque payload.
func (e *SyncEntity) UnmarshalJSON(data []byte) error {
	var flat map[string]json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		return fmt.Errorf("unmarshal entity object: %w", err)
	}

	if raw, ok := flat[entityKeyID]; ok {
		if err := json.Unmarshal(raw, &e.ID); err != nil {
			return fmt.Errorf("unmarshal entity id: %w", err)
		}
		delete(flat, entityKeyID)
	}

	if raw, ok := flat[entityKeyDeletedAt]; ok {
		if err := json.Unmarshal(raw, &e.DeletedAt); err != nil {
			return fmt.Errorf("unmarshal entity deletedAt: %w", err)
		}
		delete(flat, entityKeyDeletedAt)
	}

	if raw, ok := flat[entityKeySyncVersion]; ok {
		if err := json.Unmarshal(raw, &e.SyncVersion); err != nil {
			return fmt.Errorf("unmarshal entity syncVersion: %w", err)
		}
		delete(flat, entityKeySyncVersion)
	}

	e.Payload = flat

	return nil
}

// Deleted reports whether the entity carries a soft-delete marker.
func (e SyncEntity) Deleted() bool {
	return e.DeletedAt != nil
}

// ContentHash returns a hex-encoded SHA-256 digest of the canonical payload
// encoding. encoding/json sorts map keys, so the digest is stable for equal
// payloads regardless of field order in the original JSON.
func (e SyncEntity) ContentHash() string {
	canonical, err := json.Marshal(e.Payload)
	if err != nil {
		return ""
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}
