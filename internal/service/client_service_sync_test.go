// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ivan Karpovich

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/ikarpovich/study-sync/internal/adapter"
	"github.com/ikarpovich/study-sync/internal/logger"
	"github.com/ikarpovich/study-sync/internal/store"
	"github.com/ikarpovich/study-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLocalStorage is an in-memory stand-in for the SQLite store.
type fakeLocalStorage struct {
	entities  map[string]store.LocalEntity
	queue     map[string]models.OfflineQueueItem
	conflicts []models.SyncConflict
	prefs     map[string]string
}

func newFakeLocalStorage() *fakeLocalStorage {
	return &fakeLocalStorage{
		entities: make(map[string]store.LocalEntity),
		queue:    make(map[string]models.OfflineQueueItem),
		prefs:    make(map[string]string),
	}
}

func entityKey(kind models.EntityKind, id string) string {
	return string(kind) + "/" + id
}

func (f *fakeLocalStorage) SaveLocal(_ context.Context, kind models.EntityKind, entity models.SyncEntity) error {
	existing := f.entities[entityKey(kind, entity.ID)]
	f.entities[entityKey(kind, entity.ID)] = store.LocalEntity{
		SyncEntity:  entity,
		Kind:        kind,
		BaseVersion: existing.BaseVersion,
		Dirty:       true,
		UpdatedAt:   time.Now().UTC(),
	}
	return nil
}

func (f *fakeLocalStorage) ApplyRemote(_ context.Context, kind models.EntityKind, entity models.SyncEntity) error {
	f.entities[entityKey(kind, entity.ID)] = store.LocalEntity{
		SyncEntity:  entity,
		Kind:        kind,
		BaseVersion: entity.SyncVersion,
		Dirty:       false,
		UpdatedAt:   time.Now().UTC(),
	}
	return nil
}

func (f *fakeLocalStorage) MarkSynced(_ context.Context, kind models.EntityKind, id string, version int64) error {
	entity, ok := f.entities[entityKey(kind, id)]
	if !ok {
		return nil
	}
	entity.Dirty = false
	entity.BaseVersion = version
	f.entities[entityKey(kind, id)] = entity
	return nil
}

func (f *fakeLocalStorage) GetEntity(_ context.Context, kind models.EntityKind, id string) (store.LocalEntity, error) {
	entity, ok := f.entities[entityKey(kind, id)]
	if !ok {
		return store.LocalEntity{}, fmt.Errorf("%w: %s/%s", store.ErrLocalEntityNotFound, kind, id)
	}
	return entity, nil
}

func (f *fakeLocalStorage) ListEntities(_ context.Context, kind models.EntityKind) ([]store.LocalEntity, error) {
	var entities []store.LocalEntity
	for _, e := range f.entities {
		if e.Kind == kind {
			entities = append(entities, e)
		}
	}
	return entities, nil
}

func (f *fakeLocalStorage) ListDirty(_ context.Context) ([]store.LocalEntity, error) {
	var entities []store.LocalEntity
	for _, e := range f.entities {
		if e.Dirty {
			entities = append(entities, e)
		}
	}
	return entities, nil
}

func (f *fakeLocalStorage) Enqueue(_ context.Context, item models.OfflineQueueItem) error {
	f.queue[item.ID] = item
	return nil
}

func (f *fakeLocalStorage) DueQueueItems(_ context.Context, now time.Time) ([]models.OfflineQueueItem, error) {
	var due []models.OfflineQueueItem
	for _, item := range f.queue {
		if !item.NextRetryAt.After(now) {
			due = append(due, item)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].Priority != due[j].Priority {
			return due[i].Priority < due[j].Priority
		}
		return due[i].CreatedAt.Before(due[j].CreatedAt)
	})
	return due, nil
}

func (f *fakeLocalStorage) MarkQueueAttempt(_ context.Context, id string, attempts int, nextRetryAt time.Time) error {
	item, ok := f.queue[id]
	if !ok {
		return nil
	}
	item.Attempts = attempts
	item.NextRetryAt = nextRetryAt
	f.queue[id] = item
	return nil
}

func (f *fakeLocalStorage) RemoveQueueItem(_ context.Context, id string) error {
	delete(f.queue, id)
	return nil
}

func (f *fakeLocalStorage) RemoveQueueItemsForEntity(_ context.Context, kind models.EntityKind, id string) error {
	for key, item := range f.queue {
		var queued models.QueuedPush
		if err := json.Unmarshal(item.Payload, &queued); err != nil {
			continue
		}
		if queued.Kind == kind && queued.Entity.ID == id {
			delete(f.queue, key)
		}
	}
	return nil
}

func (f *fakeLocalStorage) QueueSize(_ context.Context) (int, error) {
	return len(f.queue), nil
}

func (f *fakeLocalStorage) SaveConflict(_ context.Context, conflict models.SyncConflict) error {
	for i, c := range f.conflicts {
		if c.Kind == conflict.Kind && c.EntityID == conflict.EntityID {
			f.conflicts[i] = conflict
			return nil
		}
	}
	f.conflicts = append(f.conflicts, conflict)
	return nil
}

func (f *fakeLocalStorage) ListConflicts(_ context.Context) ([]models.SyncConflict, error) {
	return append([]models.SyncConflict(nil), f.conflicts...), nil
}

func (f *fakeLocalStorage) RemoveConflict(_ context.Context, kind models.EntityKind, id string) error {
	kept := f.conflicts[:0]
	for _, c := range f.conflicts {
		if !(c.Kind == kind && c.EntityID == id) {
			kept = append(kept, c)
		}
	}
	f.conflicts = kept
	return nil
}

func (f *fakeLocalStorage) GetPref(_ context.Context, key string) (string, error) {
	return f.prefs[key], nil
}

func (f *fakeLocalStorage) SetPref(_ context.Context, key, value string) error {
	f.prefs[key] = value
	return nil
}

// fakeServerAdapter implements adapter.ServerAdapter with function fields.
type fakeServerAdapter struct {
	token string

	pushFn   func(ctx context.Context, req models.PushRequest) (models.PushResponse, error)
	pullFn   func(ctx context.Context, since int64) (models.PullResponse, error)
	statusFn func(ctx context.Context) (models.StatusResponse, error)
	pingFn   func(ctx context.Context) error
}

func (f *fakeServerAdapter) Endpoint() string      { return "fake://server" }
func (f *fakeServerAdapter) SetToken(token string) { f.token = token }
func (f *fakeServerAdapter) Token() string         { return f.token }

func (f *fakeServerAdapter) Register(_ context.Context, _ models.User) (models.Token, error) {
	return models.Token{SignedString: "registered-token", UserID: 1}, nil
}

func (f *fakeServerAdapter) Login(_ context.Context, _ models.User) (models.Token, error) {
	return models.Token{SignedString: "login-token", UserID: 1}, nil
}

func (f *fakeServerAdapter) Push(ctx context.Context, req models.PushRequest) (models.PushResponse, error) {
	if f.pushFn == nil {
		return models.PushResponse{Success: true}, nil
	}
	return f.pushFn(ctx, req)
}

func (f *fakeServerAdapter) Pull(ctx context.Context, since int64) (models.PullResponse, error) {
	if f.pullFn == nil {
		return models.PullResponse{}, nil
	}
	return f.pullFn(ctx, since)
}

func (f *fakeServerAdapter) Status(ctx context.Context) (models.StatusResponse, error) {
	if f.statusFn == nil {
		return models.StatusResponse{}, nil
	}
	return f.statusFn(ctx)
}

func (f *fakeServerAdapter) Ping(ctx context.Context) error {
	if f.pingFn == nil {
		return nil
	}
	return f.pingFn(ctx)
}

// fakeRemote routes every call to a single fake adapter.
type fakeRemote struct {
	adapter *fakeServerAdapter
	state   models.ConnectionState
	token   string
}

func newFakeRemote(a *fakeServerAdapter) *fakeRemote {
	return &fakeRemote{
		adapter: a,
		state: models.ConnectionState{
			IsOnline:             true,
			LocalServerAvailable: true,
			CloudAvailable:       true,
			Mode:                 models.ModeDual,
		},
	}
}

func (f *fakeRemote) Do(_ context.Context, call func(adapter.ServerAdapter) error) error {
	return call(f.adapter)
}

func (f *fakeRemote) SetToken(token string) { f.token = token }

func (f *fakeRemote) State() models.ConnectionState { return f.state }

func (f *fakeRemote) Probe(_ context.Context) models.ConnectionState { return f.state }

func (f *fakeRemote) SetMode(_ context.Context, mode models.ConnectionMode) error {
	f.state.Mode = mode
	return nil
}

// fakeTracker records state machine transitions.
type fakeTracker struct {
	transitions []models.SyncStatus
	outcome     models.SyncStatus
	report      models.SyncReport
}

func (f *fakeTracker) Set(status models.SyncStatus) {
	f.transitions = append(f.transitions, status)
}

func (f *fakeTracker) Finish(outcome models.SyncStatus, report models.SyncReport) {
	f.outcome = outcome
	f.report = report
}

func newTestSyncService(t *testing.T) (*clientSyncService, *fakeLocalStorage, *fakeServerAdapter, *fakeTracker) {
	t.Helper()

	localStore := newFakeLocalStorage()
	serverAdapter := &fakeServerAdapter{}
	tracker := &fakeTracker{}
	svc := NewClientSyncService(localStore, newFakeRemote(serverAdapter), tracker, "laptop", logger.Nop())

	return svc.(*clientSyncService), localStore, serverAdapter, tracker
}

func testEntity(t *testing.T, id, title string) models.SyncEntity {
	t.Helper()

	raw, err := json.Marshal(title)
	require.NoError(t, err)
	return models.SyncEntity{ID: id, Payload: map[string]json.RawMessage{"title": raw}}
}

func TestQueueMutation_SavesDirtyAndEnqueues(t *testing.T) {
	ctx := context.Background()
	svc, localStore, _, _ := newTestSyncService(t)

	err := svc.QueueMutation(ctx, models.KindDocument, testEntity(t, "doc-1", "Notes"))

	require.NoError(t, err)
	entity, err := localStore.GetEntity(ctx, models.KindDocument, "doc-1")
	require.NoError(t, err)
	assert.True(t, entity.Dirty)

	size, _ := localStore.QueueSize(ctx)
	assert.Equal(t, 1, size)
	for _, item := range localStore.queue {
		assert.Equal(t, models.PriorityNormal, item.Priority)
		assert.Equal(t, models.OperationPush, item.Operation)
	}
}

func TestQueueDeletion_TombstoneAtHighPriority(t *testing.T) {
	ctx := context.Background()
	svc, localStore, _, _ := newTestSyncService(t)

	require.NoError(t, localStore.ApplyRemote(ctx, models.KindExtract, models.SyncEntity{ID: "ext-1", SyncVersion: 3}))
	require.NoError(t, svc.QueueDeletion(ctx, models.KindExtract, "ext-1"))

	entity, err := localStore.GetEntity(ctx, models.KindExtract, "ext-1")
	require.NoError(t, err)
	assert.True(t, entity.Deleted())
	assert.True(t, entity.Dirty)

	for _, item := range localStore.queue {
		assert.Equal(t, models.PriorityHigh, item.Priority)
	}
}

func TestQueueDeletion_UnknownEntity(t *testing.T) {
	svc, _, _, _ := newTestSyncService(t)

	err := svc.QueueDeletion(context.Background(), models.KindExtract, "missing")
	assert.ErrorIs(t, err, store.ErrLocalEntityNotFound)
}

func TestDrain_SendsInOrderAndConfirms(t *testing.T) {
	ctx := context.Background()
	svc, localStore, serverAdapter, _ := newTestSyncService(t)

	require.NoError(t, svc.QueueMutation(ctx, models.KindDocument, testEntity(t, "doc-1", "first")))
	require.NoError(t, svc.QueueMutation(ctx, models.KindExtract, testEntity(t, "ext-1", "second")))
	require.NoError(t, svc.QueueDeletion(ctx, models.KindExtract, "ext-1"))

	var pushedIDs []string
	version := int64(10)
	serverAdapter.pushFn = func(_ context.Context, req models.PushRequest) (models.PushResponse, error) {
		version++
		for _, kind := range models.Kinds {
			for _, e := range req.Entities(kind) {
				pushedIDs = append(pushedIDs, e.ID)
			}
		}
		return models.PushResponse{Success: true, SyncVersion: version}, nil
	}

	drained, err := svc.Drain(ctx)

	require.NoError(t, err)
	assert.Equal(t, 2, drained)
	// The tombstone supersedes the queued edit of ext-1 and drains first.
	assert.Equal(t, []string{"ext-1", "doc-1"}, pushedIDs)

	size, _ := localStore.QueueSize(ctx)
	assert.Zero(t, size)

	// the pull cursor only moves on pull watermarks, never on push confirms
	cursor, err := svc.localCursor(ctx)
	require.NoError(t, err)
	assert.Zero(t, cursor)

	entity, err := localStore.GetEntity(ctx, models.KindDocument, "doc-1")
	require.NoError(t, err)
	assert.False(t, entity.Dirty)
	assert.Equal(t, int64(12), entity.BaseVersion)
}

func TestDrain_DoesNotSkipOtherDevicesChanges(t *testing.T) {
	ctx := context.Background()
	svc, localStore, serverAdapter, _ := newTestSyncService(t)

	require.NoError(t, localStore.SetPref(ctx, store.PrefSyncCursor, "5"))
	require.NoError(t, svc.QueueMutation(ctx, models.KindDocument, testEntity(t, "doc-local", "mine")))

	serverAdapter.pushFn = func(context.Context, models.PushRequest) (models.PushResponse, error) {
		return models.PushResponse{Success: true, SyncVersion: 8}, nil
	}
	var pulledSince []int64
	serverAdapter.pullFn = func(_ context.Context, since int64) (models.PullResponse, error) {
		pulledSince = append(pulledSince, since)
		return models.PullResponse{
			Documents: []models.SyncEntity{
				testEntityWithVersion(t, "doc-other-a", "theirs", 6),
				testEntityWithVersion(t, "doc-other-b", "theirs too", 7),
			},
			SyncVersion: 8,
		}, nil
	}

	_, err := svc.Drain(ctx)
	require.NoError(t, err)

	applied, conflicts, err := svc.PullOnce(ctx)
	require.NoError(t, err)
	assert.Empty(t, conflicts)
	assert.Equal(t, 2, applied)

	// the push-assigned version 8 must not have widened the pull window
	assert.Equal(t, []int64{5}, pulledSince)

	for _, id := range []string{"doc-other-a", "doc-other-b"} {
		_, err = localStore.GetEntity(ctx, models.KindDocument, id)
		require.NoError(t, err, "row from the other device was not downloaded")
	}

	cursor, _ := svc.localCursor(ctx)
	assert.Equal(t, int64(8), cursor)
}

func TestDrain_ParksConflictedEntityUntilResolved(t *testing.T) {
	ctx := context.Background()
	svc, localStore, serverAdapter, _ := newTestSyncService(t)

	require.NoError(t, svc.QueueMutation(ctx, models.KindDocument, testEntity(t, "doc-1", "contested")))
	require.NoError(t, svc.QueueMutation(ctx, models.KindExtract, testEntity(t, "ext-1", "clean")))
	require.NoError(t, localStore.SaveConflict(ctx, models.SyncConflict{
		EntityID: "doc-1", Kind: models.KindDocument, Type: models.ConflictBothModified,
	}))

	var pushedIDs []string
	serverAdapter.pushFn = func(_ context.Context, req models.PushRequest) (models.PushResponse, error) {
		for _, kind := range models.Kinds {
			for _, e := range req.Entities(kind) {
				pushedIDs = append(pushedIDs, e.ID)
			}
		}
		return models.PushResponse{Success: true, SyncVersion: 4}, nil
	}

	drained, err := svc.Drain(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, drained)
	assert.Equal(t, []string{"ext-1"}, pushedIDs, "conflicted entity must not be pushed before resolution")

	// the parked item stays queued for after the resolution
	size, _ := localStore.QueueSize(ctx)
	assert.Equal(t, 1, size)
}

func TestDrain_StopsAtFirstFailureAndBacksOff(t *testing.T) {
	ctx := context.Background()
	svc, localStore, serverAdapter, _ := newTestSyncService(t)

	require.NoError(t, svc.QueueMutation(ctx, models.KindDocument, testEntity(t, "doc-1", "a")))
	require.NoError(t, svc.QueueMutation(ctx, models.KindDocument, testEntity(t, "doc-2", "b")))

	calls := 0
	serverAdapter.pushFn = func(_ context.Context, _ models.PushRequest) (models.PushResponse, error) {
		calls++
		return models.PushResponse{}, fmt.Errorf("%w: connection refused", adapter.ErrBadGateway)
	}

	drained, err := svc.Drain(ctx)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServerUnreachable)
	assert.Zero(t, drained)
	assert.Equal(t, 1, calls, "drain must stop at the first failure")

	size, _ := localStore.QueueSize(ctx)
	assert.Equal(t, 2, size, "failed items must stay queued")

	attempted := 0
	for _, item := range localStore.queue {
		if item.Attempts > 0 {
			attempted++
			assert.Equal(t, 1, item.Attempts)
			assert.True(t, item.NextRetryAt.After(time.Now().UTC()))
		}
	}
	assert.Equal(t, 1, attempted)
}

func TestRetryBackoff(t *testing.T) {
	tests := []struct {
		attempts int
		want     time.Duration
	}{
		{attempts: 1, want: time.Second},
		{attempts: 2, want: 2 * time.Second},
		{attempts: 5, want: 16 * time.Second},
		{attempts: 7, want: 60 * time.Second},
		{attempts: 20, want: 60 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, retryBackoff(tt.attempts), "attempts=%d", tt.attempts)
	}
}

func TestPullOnce_AppliesCleanRowsAndAdvancesCursor(t *testing.T) {
	ctx := context.Background()
	svc, localStore, serverAdapter, _ := newTestSyncService(t)

	require.NoError(t, localStore.ApplyRemote(ctx, models.KindDocument, testEntityWithVersion(t, "doc-1", "old", 2)))

	serverAdapter.pullFn = func(_ context.Context, since int64) (models.PullResponse, error) {
		assert.Zero(t, since)
		return models.PullResponse{
			Documents:     []models.SyncEntity{testEntityWithVersion(t, "doc-1", "new", 5)},
			Extracts:      []models.SyncEntity{testEntityWithVersion(t, "ext-1", "fresh", 6)},
			LearningItems: nil,
			SyncVersion:   6,
		}, nil
	}

	applied, conflicts, err := svc.PullOnce(ctx)

	require.NoError(t, err)
	assert.Equal(t, 2, applied)
	assert.Empty(t, conflicts)

	doc, err := localStore.GetEntity(ctx, models.KindDocument, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), doc.BaseVersion)
	assert.Equal(t, `"new"`, string(doc.Payload["title"]))

	cursor, _ := svc.localCursor(ctx)
	assert.Equal(t, int64(6), cursor)
}

func TestPullOnce_DirtyDivergenceSurfacesConflict(t *testing.T) {
	ctx := context.Background()
	svc, localStore, serverAdapter, _ := newTestSyncService(t)

	require.NoError(t, localStore.ApplyRemote(ctx, models.KindDocument, testEntityWithVersion(t, "doc-1", "base", 2)))
	require.NoError(t, svc.QueueMutation(ctx, models.KindDocument, testEntity(t, "doc-1", "local edit")))

	serverAdapter.pullFn = func(_ context.Context, _ int64) (models.PullResponse, error) {
		return models.PullResponse{
			Documents:   []models.SyncEntity{testEntityWithVersion(t, "doc-1", "remote edit", 7)},
			SyncVersion: 7,
		}, nil
	}

	applied, conflicts, err := svc.PullOnce(ctx)

	require.NoError(t, err)
	assert.Zero(t, applied)
	require.Len(t, conflicts, 1)

	conflict := conflicts[0]
	assert.Equal(t, models.ConflictBothModified, conflict.Type)
	assert.Equal(t, "doc-1", conflict.EntityID)
	assert.Equal(t, "laptop", conflict.LocalVersion.DeviceID)
	assert.Equal(t, "server", conflict.RemoteVersion.DeviceID)
	assert.Equal(t, int64(2), conflict.LocalVersion.Version)
	assert.Equal(t, int64(7), conflict.RemoteVersion.Version)

	// The dirty local copy must not be overwritten.
	doc, err := localStore.GetEntity(ctx, models.KindDocument, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, `"local edit"`, string(doc.Payload["title"]))

	// The cursor still advances; the remote copy is retained for resolution.
	cursor, _ := svc.localCursor(ctx)
	assert.Equal(t, int64(7), cursor)
}

func TestPullOnce_DirtyIdenticalContentMergesClean(t *testing.T) {
	ctx := context.Background()
	svc, localStore, serverAdapter, _ := newTestSyncService(t)

	require.NoError(t, svc.QueueMutation(ctx, models.KindDocument, testEntity(t, "doc-1", "same")))

	serverAdapter.pullFn = func(_ context.Context, _ int64) (models.PullResponse, error) {
		return models.PullResponse{
			Documents:   []models.SyncEntity{testEntityWithVersion(t, "doc-1", "same", 4)},
			SyncVersion: 4,
		}, nil
	}

	applied, conflicts, err := svc.PullOnce(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, applied)
	assert.Empty(t, conflicts)

	doc, _ := localStore.GetEntity(ctx, models.KindDocument, "doc-1")
	assert.False(t, doc.Dirty)
	assert.Equal(t, int64(4), doc.BaseVersion)
}

func TestPullOnce_ConflictedEntityExcludedFromMerge(t *testing.T) {
	ctx := context.Background()
	svc, localStore, serverAdapter, _ := newTestSyncService(t)

	require.NoError(t, localStore.SaveConflict(ctx, models.SyncConflict{
		EntityID: "doc-1", Kind: models.KindDocument, Type: models.ConflictBothModified,
	}))
	require.NoError(t, svc.QueueMutation(ctx, models.KindDocument, testEntity(t, "doc-1", "local")))

	serverAdapter.pullFn = func(_ context.Context, _ int64) (models.PullResponse, error) {
		return models.PullResponse{
			Documents:   []models.SyncEntity{testEntityWithVersion(t, "doc-1", "newer remote", 9)},
			SyncVersion: 9,
		}, nil
	}

	applied, conflicts, err := svc.PullOnce(ctx)

	require.NoError(t, err)
	assert.Zero(t, applied)
	assert.Empty(t, conflicts, "existing conflicts are not re-surfaced")

	doc, _ := localStore.GetEntity(ctx, models.KindDocument, "doc-1")
	assert.Equal(t, `"local"`, string(doc.Payload["title"]))
}

func TestConflictTypeFor(t *testing.T) {
	tests := []struct {
		name          string
		localDeleted  bool
		remoteDeleted bool
		want          models.ConflictType
	}{
		{name: "both live", want: models.ConflictBothModified},
		{name: "remote deleted", remoteDeleted: true, want: models.ConflictDeleted},
		{name: "local deleted", localDeleted: true, want: models.ConflictModified},
		{name: "both deleted", localDeleted: true, remoteDeleted: true, want: models.ConflictBothDeleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, conflictTypeFor(tt.localDeleted, tt.remoteDeleted))
		})
	}
}

func TestFullSync_Unreachable(t *testing.T) {
	svc, _, _, tracker := newTestSyncService(t)

	remote := svc.remote.(*fakeRemote)
	remote.state = models.ConnectionState{Mode: models.ModeDual}

	_, err := svc.FullSync(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServerUnreachable)
	assert.Equal(t, []models.SyncStatus{models.StatusConnecting}, tracker.transitions)
	assert.Equal(t, models.StatusFailed, tracker.outcome)
}

func TestFullSync_CleanCycle(t *testing.T) {
	ctx := context.Background()
	svc, _, serverAdapter, tracker := newTestSyncService(t)

	require.NoError(t, svc.QueueMutation(ctx, models.KindDocument, testEntity(t, "doc-1", "note")))
	serverAdapter.pushFn = func(_ context.Context, _ models.PushRequest) (models.PushResponse, error) {
		return models.PushResponse{Success: true, SyncVersion: 3}, nil
	}
	serverAdapter.pullFn = func(_ context.Context, _ int64) (models.PullResponse, error) {
		return models.PullResponse{
			Extracts:    []models.SyncEntity{testEntityWithVersion(t, "ext-1", "from other device", 3)},
			SyncVersion: 3,
		}, nil
	}

	report, err := svc.FullSync(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Uploaded)
	assert.Equal(t, 1, report.Downloaded)
	assert.Zero(t, report.Conflicting)
	assert.Equal(t, []models.SyncStatus{models.StatusConnecting, models.StatusSyncing}, tracker.transitions)
	assert.Equal(t, models.StatusSynced, tracker.outcome)
	assert.Equal(t, report, tracker.report)
}

func TestFullSync_EndsInConflict(t *testing.T) {
	ctx := context.Background()
	svc, _, serverAdapter, tracker := newTestSyncService(t)

	require.NoError(t, svc.QueueMutation(ctx, models.KindDocument, testEntity(t, "doc-1", "local")))
	serverAdapter.pushFn = func(_ context.Context, _ models.PushRequest) (models.PushResponse, error) {
		return models.PushResponse{Success: true, SyncVersion: 5}, nil
	}
	serverAdapter.pullFn = func(_ context.Context, _ int64) (models.PullResponse, error) {
		return models.PullResponse{
			Documents:   []models.SyncEntity{testEntityWithVersion(t, "doc-2", "remote", 6)},
			SyncVersion: 6,
		}, nil
	}
	// A pre-existing unresolved conflict keeps the cycle in Conflict.
	localStore := svc.localStore.(*fakeLocalStorage)
	require.NoError(t, localStore.SaveConflict(ctx, models.SyncConflict{
		EntityID: "doc-9", Kind: models.KindDocument, Type: models.ConflictDeleted,
	}))

	report, err := svc.FullSync(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Conflicting)
	assert.Equal(t, models.StatusConflict, tracker.outcome)
}

func TestResolve_KeepLocalRequeues(t *testing.T) {
	ctx := context.Background()
	svc, localStore, _, _ := newTestSyncService(t)

	require.NoError(t, svc.QueueMutation(ctx, models.KindDocument, testEntity(t, "doc-1", "mine")))
	require.NoError(t, localStore.SaveConflict(ctx, models.SyncConflict{
		EntityID: "doc-1", Kind: models.KindDocument, Type: models.ConflictBothModified,
	}))

	err := svc.Resolve(ctx, models.KindDocument, "doc-1", models.ResolutionKeepLocal, nil)

	require.NoError(t, err)
	conflicts, _ := localStore.ListConflicts(ctx)
	assert.Empty(t, conflicts)

	size, _ := localStore.QueueSize(ctx)
	assert.Equal(t, 1, size, "stale item replaced with one fresh push")
	for _, item := range localStore.queue {
		assert.Equal(t, models.PriorityHigh, item.Priority)
	}
}

func TestResolve_KeepRemoteAppliesServerCopy(t *testing.T) {
	ctx := context.Background()
	svc, localStore, _, _ := newTestSyncService(t)

	require.NoError(t, svc.QueueMutation(ctx, models.KindDocument, testEntity(t, "doc-1", "mine")))
	remoteCopy := testEntityWithVersion(t, "doc-1", "theirs", 8)
	require.NoError(t, localStore.SaveConflict(ctx, models.SyncConflict{
		EntityID: "doc-1", Kind: models.KindDocument, Type: models.ConflictBothModified,
		RemoteVersion: models.DataVersion{Version: 8, DeviceID: "server"},
	}))
	svc.setPendingRemote(conflictKey(models.KindDocument, "doc-1"), remoteCopy)

	err := svc.Resolve(ctx, models.KindDocument, "doc-1", models.ResolutionKeepRemote, nil)

	require.NoError(t, err)
	doc, getErr := localStore.GetEntity(ctx, models.KindDocument, "doc-1")
	require.NoError(t, getErr)
	assert.Equal(t, `"theirs"`, string(doc.Payload["title"]))
	assert.False(t, doc.Dirty)

	size, _ := localStore.QueueSize(ctx)
	assert.Zero(t, size, "stale local push must be dropped")
}

func TestResolve_KeepRemoteRefetchesAfterRestart(t *testing.T) {
	ctx := context.Background()
	svc, localStore, serverAdapter, _ := newTestSyncService(t)

	require.NoError(t, localStore.SaveConflict(ctx, models.SyncConflict{
		EntityID: "doc-1", Kind: models.KindDocument, Type: models.ConflictModified,
		RemoteVersion: models.DataVersion{Version: 8, DeviceID: "server"},
	}))
	serverAdapter.pullFn = func(_ context.Context, since int64) (models.PullResponse, error) {
		assert.Equal(t, int64(7), since)
		return models.PullResponse{
			Documents:   []models.SyncEntity{testEntityWithVersion(t, "doc-1", "refetched", 8)},
			SyncVersion: 8,
		}, nil
	}

	err := svc.Resolve(ctx, models.KindDocument, "doc-1", models.ResolutionKeepRemote, nil)

	require.NoError(t, err)
	doc, getErr := localStore.GetEntity(ctx, models.KindDocument, "doc-1")
	require.NoError(t, getErr)
	assert.Equal(t, `"refetched"`, string(doc.Payload["title"]))
}

func TestResolve_MergeRequiresEntity(t *testing.T) {
	ctx := context.Background()
	svc, localStore, _, _ := newTestSyncService(t)

	require.NoError(t, localStore.SaveConflict(ctx, models.SyncConflict{
		EntityID: "doc-1", Kind: models.KindDocument, Type: models.ConflictBothModified,
	}))

	err := svc.Resolve(ctx, models.KindDocument, "doc-1", models.ResolutionMerge, nil)
	assert.ErrorIs(t, err, ErrMergedEntityRequired)

	merged := testEntity(t, "doc-1", "merged content")
	err = svc.Resolve(ctx, models.KindDocument, "doc-1", models.ResolutionMerge, &merged)
	require.NoError(t, err)

	doc, getErr := localStore.GetEntity(ctx, models.KindDocument, "doc-1")
	require.NoError(t, getErr)
	assert.Equal(t, `"merged content"`, string(doc.Payload["title"]))
	assert.True(t, doc.Dirty)
}

func TestResolve_NoConflict(t *testing.T) {
	svc, _, _, _ := newTestSyncService(t)

	err := svc.Resolve(context.Background(), models.KindDocument, "doc-1", models.ResolutionKeepLocal, nil)
	assert.ErrorIs(t, err, ErrNoConflictFound)
}

func testEntityWithVersion(t *testing.T, id, title string, version int64) models.SyncEntity {
	t.Helper()

	entity := testEntity(t, id, title)
	entity.SyncVersion = version
	return entity
}
