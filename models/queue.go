package models

import (
	"encoding/json"
	"time"
)

// QueuePriority orders offline queue items during a drain. Lower values drain
// first; within a priority class items drain in creation order (FIFO).
type QueuePriority int

const (
	PriorityHigh QueuePriority = iota
	PriorityNormal
	PriorityLow
)

// QueueOperation names the network operation a queue item represents.
type QueueOperation string

const (
	// OperationPush submits a batch of local mutations to POST /sync/push.
	OperationPush QueueOperation = "push"
)

// OfflineQueueItem is a client-local, durably persisted mutation that has not
// yet been confirmed by a server. Items are created for every mutation — even
// when apparently online — so the online and offline paths are identical.
// An item is removed only on confirmed success or explicit user action; on
// failure it stays queued with an incremented attempt counter and a
// backoff-delayed retry time. Items are never silently dropped.
type OfflineQueueItem struct {
	ID          string          `json:"id"`
	Operation   QueueOperation  `json:"operation"`
	Payload     json.RawMessage `json:"payload"`
	Priority    QueuePriority   `json:"priority"`
	CreatedAt   time.Time       `json:"created_at"`
	Attempts    int             `json:"attempts"`
	NextRetryAt time.Time       `json:"next_retry_at"`
}

// QueuedPush is the payload of an OperationPush queue item: one mutated
// entity together with its kind.
type QueuedPush struct {
	Kind   EntityKind `json:"kind"`
	Entity SyncEntity `json:"entity"`
}

// PushRequest wraps the queued entity into a single-entity push batch.
func (q QueuedPush) PushRequest() PushRequest {
	var req PushRequest
	switch q.Kind {
	case KindDocument:
		req.Documents = []SyncEntity{q.Entity}
	case KindExtract:
		req.Extracts = []SyncEntity{q.Entity}
	case KindLearningItem:
		req.LearningItems = []SyncEntity{q.Entity}
	}
	return req
}
