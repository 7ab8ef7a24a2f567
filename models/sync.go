// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ivan Karpovich

package models

import "time"

// PushRequest is the batch of client-side mutations sent to POST /sync/push.
// Each list may be empty or absent; the server assigns a fresh sync version
// to every row it writes. Entities arrive without pre-assigned versions.
type PushRequest struct {
	Documents     []SyncEntity `json:"documents,omitempty"`
	Extracts      []SyncEntity `json:"extracts,omitempty"`
	LearningItems []SyncEntity `json:"learningItems,omitempty"`
}

// IsEmpty reports whether the batch carries no entities at all.
func (p PushRequest) IsEmpty() bool {
	return len(p.Documents) == 0 && len(p.Extracts) == 0 && len(p.LearningItems) == 0
}

// Entities returns the batch contents for the given kind.
func (p PushRequest) Entities(kind EntityKind) []SyncEntity {
	switch kind {
	case KindDocument:
		return p.Documents
	case KindExtract:
		return p.Extracts
	case KindLearningItem:
		return p.LearningItems
	}
	return nil
}

// PushCounts reports how many rows of each kind a push transaction wrote.
type PushCounts struct {
	Documents     int `json:"documents"`
	Extracts      int `json:"extracts"`
	LearningItems int `json:"learningItems"`
}

// Add increments the counter of the given kind by n.
func (c *PushCounts) Add(kind EntityKind, n int) {
	switch kind {
	case KindDocument:
		c.Documents += n
	case KindExtract:
		c.Extracts += n
	case KindLearningItem:
		c.LearningItems += n
	}
}

// Total returns the number of rows written across all kinds.
func (c PushCounts) Total() int {
	return c.Documents + c.Extracts + c.LearningItems
}

// PushResponse is returned by POST /sync/push after the transaction commits.
// SyncVersion is the highest version assigned by this push — equal to the
// user's cursor immediately after the commit.
type PushResponse struct {
	Success     bool       `json:"success"`
	SyncVersion int64      `json:"syncVersion"`
	Pushed      PushCounts `json:"pushed"`
}

// PullResponse carries every row changed after the client-supplied watermark,
// ordered by sync version ascending within each kind, plus the user's current
// maximum sync version. A client that applies all rows and advances its local
// cursor to SyncVersion cannot miss an update: the watermark is read in the
// same transaction as the row scans and is therefore >= every returned row.
type PullResponse struct {
	Documents     []SyncEntity `json:"documents"`
	Extracts      []SyncEntity `json:"extracts"`
	LearningItems []SyncEntity `json:"learningItems"`
	SyncVersion   int64        `json:"syncVersion"`
}

// Entities returns the pulled rows for the given kind.
func (p PullResponse) Entities(kind EntityKind) []SyncEntity {
	switch kind {
	case KindDocument:
		return p.Documents
	case KindExtract:
		return p.Extracts
	case KindLearningItem:
		return p.LearningItems
	}
	return nil
}

// SyncCursor is the per-user high-water mark persisted by the push pipeline.
// LastSyncVersion always equals the highest sync version ever assigned to the
// user; LastSyncAt records when the last push transaction committed.
type SyncCursor struct {
	UserID          int64     `json:"-"`
	LastSyncVersion int64     `json:"lastSyncVersion"`
	LastSyncAt      time.Time `json:"lastSyncAt"`
}

// TableName returns the name of the database table
// associated with the SyncCursor model.
func (c SyncCursor) TableName() string {
	return "sync_cursors"
}

// StatusResponse is the cursor snapshot returned by GET /sync/status.
type StatusResponse struct {
	LastSyncVersion int64     `json:"lastSyncVersion"`
	LastSyncAt      time.Time `json:"lastSyncAt"`
}
