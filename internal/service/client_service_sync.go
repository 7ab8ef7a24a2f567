// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ivan Karpovich

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ikarpovich/study-sync/internal/adapter"
	"github.com/ikarpovich/study-sync/internal/logger"
	"github.com/ikarpovich/study-sync/internal/store"
	"github.com/ikarpovich/study-sync/internal/utils"
	"github.com/ikarpovich/study-sync/models"
)

const maxRetryBackoff = 60 * time.Second

type clientSyncService struct {
	localStore store.LocalStorage
	remote     Remote
	tracker    StatusTracker
	ids        *utils.UUIDGenerator
	deviceID   string
	logger     *logger.Logger

	now func() time.Time

	// drainMu serializes queue drains so two workers never send the same
	// item twice.
	drainMu sync.Mutex

	// pendingRemote holds the server-side copy of each unresolved conflict so
	// ResolutionKeepRemote can apply it without another network round trip.
	mu            sync.Mutex
	pendingRemote map[string]models.SyncEntity
}

// NewClientSyncService constructs a [ClientSyncService] on top of the local
// store, the connection manager and the status tracker. deviceID identifies
// this installation in conflict metadata.
func NewClientSyncService(localStore store.LocalStorage, remote Remote, tracker StatusTracker, deviceID string, logger *logger.Logger) ClientSyncService {
	return &clientSyncService{
		localStore:    localStore,
		remote:        remote,
		tracker:       tracker,
		ids:           utils.NewUUIDGenerator(),
		deviceID:      deviceID,
		logger:        logger,
		now:           time.Now,
		pendingRemote: make(map[string]models.SyncEntity),
	}
}

// QueueMutation implements [ClientSyncService].
func (s *clientSyncService) QueueMutation(ctx context.Context, kind models.EntityKind, entity models.SyncEntity) error {
	if err := s.localStore.SaveLocal(ctx, kind, entity); err != nil {
		return fmt.Errorf("save local mutation %s/%s: %w", kind, entity.ID, err)
	}

	return s.enqueuePush(ctx, kind, entity, models.PriorityNormal)
}

// QueueDeletion implements [ClientSyncService].
func (s *clientSyncService) QueueDeletion(ctx context.Context, kind models.EntityKind, id string) error {
	local, err := s.localStore.GetEntity(ctx, kind, id)
	if err != nil {
		return fmt.Errorf("load entity for deletion %s/%s: %w", kind, id, err)
	}

	deletedAt := s.now().UTC()
	entity := local.SyncEntity
	entity.DeletedAt = &deletedAt

	if err = s.localStore.SaveLocal(ctx, kind, entity); err != nil {
		return fmt.Errorf("save local tombstone %s/%s: %w", kind, id, err)
	}

	// The tombstone supersedes any queued edit of the same entity; dropping
	// stale items keeps per-entity delivery in order despite the priority
	// bump.
	if err = s.localStore.RemoveQueueItemsForEntity(ctx, kind, id); err != nil {
		return fmt.Errorf("drop superseded queue items %s/%s: %w", kind, id, err)
	}

	return s.enqueuePush(ctx, kind, entity, models.PriorityHigh)
}

func (s *clientSyncService) enqueuePush(ctx context.Context, kind models.EntityKind, entity models.SyncEntity, priority models.QueuePriority) error {
	payload, err := json.Marshal(models.QueuedPush{Kind: kind, Entity: entity})
	if err != nil {
		return fmt.Errorf("marshal queued push %s/%s: %w", kind, entity.ID, err)
	}

	now := s.now().UTC()
	item := models.OfflineQueueItem{
		ID:          s.ids.Generate(),
		Operation:   models.OperationPush,
		Payload:     payload,
		Priority:    priority,
		CreatedAt:   now,
		NextRetryAt: now,
	}

	if err = s.localStore.Enqueue(ctx, item); err != nil {
		return fmt.Errorf("enqueue push %s/%s: %w", kind, entity.ID, err)
	}

	s.logger.Debug().
		Str("func", "clientSyncService.enqueuePush").
		Str("kind", string(kind)).
		Str("entity_id", entity.ID).
		Int("priority", int(priority)).
		Msg("mutation queued")

	return nil
}

// Drain implements [ClientSyncService]. A concurrent drain is a no-op: the
// running one will pick up anything due.
func (s *clientSyncService) Drain(ctx context.Context) (int, error) {
	if !s.drainMu.TryLock() {
		return 0, nil
	}
	defer s.drainMu.Unlock()

	items, err := s.localStore.DueQueueItems(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("list due queue items: %w", err)
	}

	unresolved, err := s.localStore.ListConflicts(ctx)
	if err != nil {
		return 0, fmt.Errorf("list unresolved conflicts: %w", err)
	}
	conflicted := make(map[string]struct{}, len(unresolved))
	for _, c := range unresolved {
		conflicted[conflictKey(c.Kind, c.EntityID)] = struct{}{}
	}

	drained := 0
	for _, item := range items {
		var queued models.QueuedPush
		if err = json.Unmarshal(item.Payload, &queued); err != nil {
			s.backOff(ctx, item)
			return drained, fmt.Errorf("decode queue item %s: %w", item.ID, err)
		}

		// A conflicted entity stays parked until the user resolves it;
		// pushing it now would overwrite the remote side last-writer-wins.
		if _, ok := conflicted[conflictKey(queued.Kind, queued.Entity.ID)]; ok {
			s.logger.Debug().
				Str("func", "clientSyncService.Drain").
				Str("kind", string(queued.Kind)).
				Str("entity_id", queued.Entity.ID).
				Msg("entity has an unresolved conflict, keeping item queued")
			continue
		}

		var resp models.PushResponse
		err = s.remote.Do(ctx, func(a adapter.ServerAdapter) error {
			pushed, callErr := a.Push(ctx, queued.PushRequest())
			if callErr != nil {
				return callErr
			}
			resp = pushed
			return nil
		})
		if err != nil {
			s.backOff(ctx, item)
			s.logger.Warn().
				Str("func", "clientSyncService.Drain").
				Str("item_id", item.ID).
				Int("attempts", item.Attempts+1).
				Err(err).
				Msg("queue item delivery failed, will retry")
			return drained, mapAdapterError(err)
		}

		if err = s.confirmPush(ctx, item, queued, resp.SyncVersion); err != nil {
			return drained, err
		}
		drained++
	}

	return drained, nil
}

func (s *clientSyncService) backOff(ctx context.Context, item models.OfflineQueueItem) {
	attempts := item.Attempts + 1
	retryAt := s.now().UTC().Add(retryBackoff(attempts))
	if err := s.localStore.MarkQueueAttempt(ctx, item.ID, attempts, retryAt); err != nil {
		s.logger.Err(err).
			Str("func", "clientSyncService.backOff").
			Str("item_id", item.ID).
			Msg("failed to record queue attempt")
	}
}

// confirmPush removes the delivered item and clears the entity's dirty flag,
// unless the entity was edited again while the item was in flight. The
// push-assigned version feeds only the entity's base-version bookkeeping;
// the pull cursor moves exclusively on pull watermarks, otherwise changes
// committed by other devices below this version would never be downloaded.
func (s *clientSyncService) confirmPush(ctx context.Context, item models.OfflineQueueItem, queued models.QueuedPush, version int64) error {
	if err := s.localStore.RemoveQueueItem(ctx, item.ID); err != nil {
		return fmt.Errorf("remove delivered queue item %s: %w", item.ID, err)
	}

	local, err := s.localStore.GetEntity(ctx, queued.Kind, queued.Entity.ID)
	if err != nil && !errors.Is(err, store.ErrLocalEntityNotFound) {
		return fmt.Errorf("load entity after push %s/%s: %w", queued.Kind, queued.Entity.ID, err)
	}
	if err == nil && local.ContentHash() == queued.Entity.ContentHash() && local.Deleted() == queued.Entity.Deleted() {
		if err = s.localStore.MarkSynced(ctx, queued.Kind, queued.Entity.ID, version); err != nil {
			return err
		}
	}

	return nil
}

// PullOnce implements [ClientSyncService].
func (s *clientSyncService) PullOnce(ctx context.Context) (int, []models.SyncConflict, error) {
	cursor, err := s.localCursor(ctx)
	if err != nil {
		return 0, nil, err
	}

	var resp models.PullResponse
	err = s.remote.Do(ctx, func(a adapter.ServerAdapter) error {
		pulled, callErr := a.Pull(ctx, cursor)
		if callErr != nil {
			return callErr
		}
		resp = pulled
		return nil
	})
	if err != nil {
		return 0, nil, mapAdapterError(err)
	}

	unresolved, err := s.localStore.ListConflicts(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("list unresolved conflicts: %w", err)
	}
	conflicted := make(map[string]struct{}, len(unresolved))
	for _, c := range unresolved {
		conflicted[conflictKey(c.Kind, c.EntityID)] = struct{}{}
	}

	applied := 0
	var conflicts []models.SyncConflict
	for _, kind := range models.Kinds {
		for _, remoteEntity := range resp.Entities(kind) {
			key := conflictKey(kind, remoteEntity.ID)

			// Entities with an unresolved conflict are excluded from the
			// merge; remember the newest remote copy for KeepRemote.
			if _, ok := conflicted[key]; ok {
				s.setPendingRemote(key, remoteEntity)
				continue
			}

			merged, conflict, mergeErr := s.mergeRemote(ctx, kind, remoteEntity)
			if mergeErr != nil {
				return applied, conflicts, mergeErr
			}
			if conflict != nil {
				conflicts = append(conflicts, *conflict)
				continue
			}
			if merged {
				applied++
			}
		}
	}

	if err = s.advanceCursor(ctx, resp.SyncVersion); err != nil {
		return applied, conflicts, err
	}

	return applied, conflicts, nil
}

// mergeRemote applies one pulled entity. Last writer wins for clean local
// copies; a dirty local copy with diverged content surfaces a conflict
// instead of being overwritten.
func (s *clientSyncService) mergeRemote(ctx context.Context, kind models.EntityKind, remoteEntity models.SyncEntity) (bool, *models.SyncConflict, error) {
	local, err := s.localStore.GetEntity(ctx, kind, remoteEntity.ID)
	if errors.Is(err, store.ErrLocalEntityNotFound) {
		if err = s.localStore.ApplyRemote(ctx, kind, remoteEntity); err != nil {
			return false, nil, err
		}
		return true, nil, nil
	}
	if err != nil {
		return false, nil, err
	}

	identical := local.ContentHash() == remoteEntity.ContentHash() && local.Deleted() == remoteEntity.Deleted()
	if !local.Dirty || identical {
		if err = s.localStore.ApplyRemote(ctx, kind, remoteEntity); err != nil {
			return false, nil, err
		}
		return true, nil, nil
	}

	conflict := s.buildConflict(kind, local, remoteEntity)
	if err = s.localStore.SaveConflict(ctx, conflict); err != nil {
		return false, nil, fmt.Errorf("save conflict %s/%s: %w", kind, remoteEntity.ID, err)
	}
	s.setPendingRemote(conflictKey(kind, remoteEntity.ID), remoteEntity)

	s.logger.Warn().
		Str("func", "clientSyncService.mergeRemote").
		Str("kind", string(kind)).
		Str("entity_id", remoteEntity.ID).
		Str("conflict_type", string(conflict.Type)).
		Msg("conflict detected, awaiting resolution")

	return false, &conflict, nil
}

func (s *clientSyncService) buildConflict(kind models.EntityKind, local store.LocalEntity, remoteEntity models.SyncEntity) models.SyncConflict {
	return models.SyncConflict{
		EntityID: remoteEntity.ID,
		Kind:     kind,
		LocalVersion: models.DataVersion{
			Version:     local.BaseVersion,
			Timestamp:   local.UpdatedAt,
			DeviceID:    s.deviceID,
			ContentHash: local.ContentHash(),
		},
		RemoteVersion: models.DataVersion{
			Version:     remoteEntity.SyncVersion,
			Timestamp:   s.now().UTC(),
			DeviceID:    "server",
			ContentHash: remoteEntity.ContentHash(),
		},
		Type: conflictTypeFor(local.Deleted(), remoteEntity.Deleted()),
	}
}

// FullSync implements [ClientSyncService].
func (s *clientSyncService) FullSync(ctx context.Context) (models.SyncReport, error) {
	s.tracker.Set(models.StatusConnecting)

	state := s.remote.Probe(ctx)
	if !reachable(state) {
		report := models.SyncReport{CompletedAt: s.now().UTC()}
		s.tracker.Finish(models.StatusFailed, report)
		return report, fmt.Errorf("%w: mode %s", ErrServerUnreachable, state.Mode)
	}

	s.tracker.Set(models.StatusSyncing)

	var report models.SyncReport
	uploaded, err := s.Drain(ctx)
	report.Uploaded = uploaded
	if err != nil {
		report.CompletedAt = s.now().UTC()
		s.tracker.Finish(models.StatusFailed, report)
		return report, err
	}

	applied, _, err := s.PullOnce(ctx)
	report.Downloaded = applied
	if err != nil {
		report.CompletedAt = s.now().UTC()
		s.tracker.Finish(models.StatusFailed, report)
		return report, err
	}

	unresolved, err := s.localStore.ListConflicts(ctx)
	if err != nil {
		report.CompletedAt = s.now().UTC()
		s.tracker.Finish(models.StatusFailed, report)
		return report, err
	}

	report.Conflicting = len(unresolved)
	report.CompletedAt = s.now().UTC()

	if report.Conflicting > 0 {
		s.tracker.Finish(models.StatusConflict, report)
	} else {
		s.tracker.Finish(models.StatusSynced, report)
	}

	return report, nil
}

// Conflicts implements [ClientSyncService].
func (s *clientSyncService) Conflicts(ctx context.Context) ([]models.SyncConflict, error) {
	return s.localStore.ListConflicts(ctx)
}

// Resolve implements [ClientSyncService].
func (s *clientSyncService) Resolve(ctx context.Context, kind models.EntityKind, id string, resolution models.ConflictResolution, merged *models.SyncEntity) error {
	conflict, err := s.findConflict(ctx, kind, id)
	if err != nil {
		return err
	}

	key := conflictKey(kind, id)

	switch resolution {
	case models.ResolutionKeepLocal:
		local, getErr := s.localStore.GetEntity(ctx, kind, id)
		if getErr != nil {
			return fmt.Errorf("load local side of conflict %s/%s: %w", kind, id, getErr)
		}
		if err = s.requeueResolved(ctx, kind, local.SyncEntity); err != nil {
			return err
		}

	case models.ResolutionKeepRemote:
		remoteEntity, getErr := s.remoteSide(ctx, key, conflict)
		if getErr != nil {
			return getErr
		}
		if err = s.localStore.RemoveQueueItemsForEntity(ctx, kind, id); err != nil {
			return fmt.Errorf("drop stale queue items %s/%s: %w", kind, id, err)
		}
		if err = s.localStore.ApplyRemote(ctx, kind, remoteEntity); err != nil {
			return fmt.Errorf("apply remote side of conflict %s/%s: %w", kind, id, err)
		}

	case models.ResolutionMerge:
		if merged == nil {
			return ErrMergedEntityRequired
		}
		if err = s.requeueResolved(ctx, kind, *merged); err != nil {
			return err
		}

	default:
		return fmt.Errorf("%w: unknown resolution %q", ErrInvalidDataProvided, resolution)
	}

	if err = s.localStore.RemoveConflict(ctx, kind, id); err != nil {
		return fmt.Errorf("remove resolved conflict %s/%s: %w", kind, id, err)
	}
	s.dropPendingRemote(key)

	s.logger.Info().
		Str("func", "clientSyncService.Resolve").
		Str("kind", string(kind)).
		Str("entity_id", id).
		Str("resolution", string(resolution)).
		Msg("conflict resolved")

	return nil
}

// requeueResolved replaces any stale queued pushes of the entity with a fresh
// high-priority push of the chosen content.
func (s *clientSyncService) requeueResolved(ctx context.Context, kind models.EntityKind, entity models.SyncEntity) error {
	if err := s.localStore.RemoveQueueItemsForEntity(ctx, kind, entity.ID); err != nil {
		return fmt.Errorf("drop stale queue items %s/%s: %w", kind, entity.ID, err)
	}
	if err := s.localStore.SaveLocal(ctx, kind, entity); err != nil {
		return fmt.Errorf("save resolved entity %s/%s: %w", kind, entity.ID, err)
	}

	return s.enqueuePush(ctx, kind, entity, models.PriorityHigh)
}

// remoteSide returns the server copy of a conflicted entity, re-fetching it
// when the in-memory copy was lost to a restart.
func (s *clientSyncService) remoteSide(ctx context.Context, key string, conflict models.SyncConflict) (models.SyncEntity, error) {
	s.mu.Lock()
	remoteEntity, ok := s.pendingRemote[key]
	s.mu.Unlock()
	if ok {
		return remoteEntity, nil
	}

	var resp models.PullResponse
	since := conflict.RemoteVersion.Version - 1
	if since < 0 {
		since = 0
	}
	err := s.remote.Do(ctx, func(a adapter.ServerAdapter) error {
		pulled, callErr := a.Pull(ctx, since)
		if callErr != nil {
			return callErr
		}
		resp = pulled
		return nil
	})
	if err != nil {
		return models.SyncEntity{}, mapAdapterError(err)
	}

	for _, candidate := range resp.Entities(conflict.Kind) {
		if candidate.ID == conflict.EntityID {
			return candidate, nil
		}
	}

	return models.SyncEntity{}, fmt.Errorf("remote side of conflict %s/%s not found", conflict.Kind, conflict.EntityID)
}

func (s *clientSyncService) findConflict(ctx context.Context, kind models.EntityKind, id string) (models.SyncConflict, error) {
	conflicts, err := s.localStore.ListConflicts(ctx)
	if err != nil {
		return models.SyncConflict{}, err
	}

	for _, c := range conflicts {
		if c.Kind == kind && c.EntityID == id {
			return c, nil
		}
	}

	return models.SyncConflict{}, fmt.Errorf("%w: %s/%s", ErrNoConflictFound, kind, id)
}

// QueueSize implements [ClientSyncService].
func (s *clientSyncService) QueueSize(ctx context.Context) (int, error) {
	return s.localStore.QueueSize(ctx)
}

func (s *clientSyncService) localCursor(ctx context.Context) (int64, error) {
	value, err := s.localStore.GetPref(ctx, store.PrefSyncCursor)
	if err != nil {
		return 0, fmt.Errorf("read local sync cursor: %w", err)
	}
	if value == "" {
		return 0, nil
	}

	cursor, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt local sync cursor %q: %w", value, err)
	}

	return cursor, nil
}

func (s *clientSyncService) advanceCursor(ctx context.Context, version int64) error {
	current, err := s.localCursor(ctx)
	if err != nil {
		return err
	}
	if version <= current {
		return nil
	}

	if err = s.localStore.SetPref(ctx, store.PrefSyncCursor, strconv.FormatInt(version, 10)); err != nil {
		return fmt.Errorf("advance local sync cursor: %w", err)
	}

	return nil
}

func (s *clientSyncService) setPendingRemote(key string, entity models.SyncEntity) {
	s.mu.Lock()
	s.pendingRemote[key] = entity
	s.mu.Unlock()
}

func (s *clientSyncService) dropPendingRemote(key string) {
	s.mu.Lock()
	delete(s.pendingRemote, key)
	s.mu.Unlock()
}

func conflictKey(kind models.EntityKind, id string) string {
	return string(kind) + "/" + id
}

// conflictTypeFor classifies a divergence by the soft-delete marker on each
// side.
func conflictTypeFor(localDeleted, remoteDeleted bool) models.ConflictType {
	switch {
	case localDeleted && remoteDeleted:
		return models.ConflictBothDeleted
	case remoteDeleted:
		return models.ConflictDeleted
	case localDeleted:
		return models.ConflictModified
	default:
		return models.ConflictBothModified
	}
}

// retryBackoff doubles per attempt, capped at maxRetryBackoff.
func retryBackoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	if attempts > 7 {
		return maxRetryBackoff
	}

	backoff := time.Second << (attempts - 1)
	if backoff > maxRetryBackoff {
		return maxRetryBackoff
	}
	return backoff
}

func reachable(state models.ConnectionState) bool {
	switch state.Mode {
	case models.ModeLocalOnly:
		return state.LocalServerAvailable
	case models.ModeCloudOnly:
		return state.CloudAvailable
	default:
		return state.LocalServerAvailable || state.CloudAvailable
	}
}
