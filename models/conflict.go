package models

import "time"

// ConflictType classifies a divergence between a pending local mutation and a
// newer remote row for the same entity id, based on the presence of the
// soft-delete marker on each side.
type ConflictType string

const (
	// ConflictModified: the local copy is soft-deleted while the remote side
	// carries a newer live modification.
	ConflictModified ConflictType = "Modified"

	// ConflictDeleted: the remote side soft-deleted the entity while the
	// local copy still carries a live un-pushed edit.
	ConflictDeleted ConflictType = "Deleted"

	// ConflictBothModified: both sides carry live edits.
	ConflictBothModified ConflictType = "BothModified"

	// ConflictBothDeleted: both sides soft-deleted the entity.
	ConflictBothDeleted ConflictType = "BothDeleted"
)

// DataVersion describes one side of a conflict: which version the data is at,
// when it was observed, which device produced it, and a digest of its payload
// so callers can tell identical content apart from a real divergence.
type DataVersion struct {
	Version     int64     `json:"version"`
	Timestamp   time.Time `json:"timestamp"`
	DeviceID    string    `json:"deviceId"`
	ContentHash string    `json:"contentHash"`
}

// SyncConflict is a first-class result, not an error: it is surfaced to the
// caller for an explicit resolution choice and is never auto-resolved. Until
// resolved, the affected entity is excluded from local merges.
type SyncConflict struct {
	EntityID      string       `json:"id"`
	Kind          EntityKind   `json:"kind"`
	LocalVersion  DataVersion  `json:"local_version"`
	RemoteVersion DataVersion  `json:"remote_version"`
	Type          ConflictType `json:"conflict_type"`
}

// ConflictResolution is the caller's explicit choice for a surfaced conflict.
type ConflictResolution string

const (
	ResolutionKeepLocal  ConflictResolution = "KeepLocal"
	ResolutionKeepRemote ConflictResolution = "KeepRemote"
	ResolutionMerge      ConflictResolution = "Merge"
)
