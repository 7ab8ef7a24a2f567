package models

import "time"

// ConnectionMode is the client policy selecting which endpoints a sync
// attempt may address.
type ConnectionMode string

const (
	// ModeDual tries the local-network endpoint first and falls back to the
	// cloud endpoint within the same attempt.
	ModeDual ConnectionMode = "dual"

	// ModeLocalOnly addresses only the local-network endpoint; failure there
	// does not fall back.
	ModeLocalOnly ConnectionMode = "local-only"

	// ModeCloudOnly addresses only the cloud endpoint; failure there does not
	// fall back.
	ModeCloudOnly ConnectionMode = "cloud-only"
)

// ConnectionState is the process-wide reachability picture, initialized at
// startup and recomputed by periodic liveness probes. It is read by every
// outgoing sync request and written only by the probes and by explicit user
// mode changes.
type ConnectionState struct {
	IsOnline             bool           `json:"isOnline"`
	LocalServerAvailable bool           `json:"localServerAvailable"`
	CloudAvailable       bool           `json:"cloudAvailable"`
	Mode                 ConnectionMode `json:"connectionMode"`
}

// SyncStatus is the client-side sync state machine exposed to callers:
//
//	Idle -> Connecting -> Syncing -> {Synced | Failed | Conflict} -> Idle
type SyncStatus string

const (
	StatusIdle       SyncStatus = "Idle"
	StatusConnecting SyncStatus = "Connecting"
	StatusSyncing    SyncStatus = "Syncing"
	StatusSynced     SyncStatus = "Synced"
	StatusFailed     SyncStatus = "Failed"
	StatusConflict   SyncStatus = "Conflict"
)

// SyncReport summarizes the outcome of the most recent completed sync cycle.
type SyncReport struct {
	Uploaded    int       `json:"uploaded"`
	Downloaded  int       `json:"downloaded"`
	Conflicting int       `json:"conflicting"`
	CompletedAt time.Time `json:"completed_at"`
}
