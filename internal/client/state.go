// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ivan Karpovich

package client

import (
	"sync"

	"github.com/ikarpovich/study-sync/models"
)

// SyncState is the observable client sync state machine:
//
//	Idle -> Connecting -> Syncing -> {Synced | Failed | Conflict} -> Idle
//
// Transient states are visible while a cycle runs; the terminal outcome of
// the last completed cycle stays readable after the machine returns to Idle.
// Subscribers receive a snapshot after every transition.
type SyncState struct {
	mu          sync.RWMutex
	current     models.SyncStatus
	lastOutcome models.SyncStatus
	lastReport  models.SyncReport
	subscribers []func(StateSnapshot)
}

// StateSnapshot is a point-in-time copy of the sync state machine.
type StateSnapshot struct {
	Current     models.SyncStatus `json:"current"`
	LastOutcome models.SyncStatus `json:"lastOutcome"`
	LastReport  models.SyncReport `json:"lastReport"`
}

// NewSyncState returns a state machine resting in Idle.
func NewSyncState() *SyncState {
	return &SyncState{current: models.StatusIdle, lastOutcome: models.StatusIdle}
}

// Subscribe registers a listener called with a snapshot after every
// transition. Listeners run synchronously on the transitioning goroutine and
// must not call back into SyncState.
func (s *SyncState) Subscribe(fn func(StateSnapshot)) {
	s.mu.Lock()
	s.subscribers = append(s.subscribers, fn)
	s.mu.Unlock()
}

// Set moves the machine into a transient state (Connecting, Syncing).
func (s *SyncState) Set(status models.SyncStatus) {
	s.mu.Lock()
	s.current = status
	snapshot, listeners := s.snapshotLocked()
	s.mu.Unlock()

	notify(listeners, snapshot)
}

// Finish records the terminal outcome of a sync cycle and returns the machine
// to Idle.
func (s *SyncState) Finish(outcome models.SyncStatus, report models.SyncReport) {
	s.mu.Lock()
	s.lastOutcome = outcome
	s.lastReport = report
	s.current = models.StatusIdle
	snapshot, listeners := s.snapshotLocked()
	s.mu.Unlock()

	notify(listeners, snapshot)
}

// Snapshot returns the current state together with the last completed cycle's
// outcome and report.
func (s *SyncState) Snapshot() StateSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, _ := s.snapshotLocked()
	return snapshot
}

func (s *SyncState) snapshotLocked() (StateSnapshot, []func(StateSnapshot)) {
	return StateSnapshot{
		Current:     s.current,
		LastOutcome: s.lastOutcome,
		LastReport:  s.lastReport,
	}, s.subscribers
}

func notify(listeners []func(StateSnapshot), snapshot StateSnapshot) {
	for _, fn := range listeners {
		fn(snapshot)
	}
}
