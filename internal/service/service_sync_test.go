// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ivan Karpovich

package service

import (
	"context"
	"testing"
	"time"

	"github.com/ikarpovich/study-sync/internal/logger"
	"github.com/ikarpovich/study-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSyncRepository is a hand-written stub of store.SyncRepository.
type fakeSyncRepository struct {
	pushFn   func(ctx context.Context, userID int64, batch models.PushRequest) (models.PushResponse, error)
	pullFn   func(ctx context.Context, userID int64, since int64) (models.PullResponse, error)
	cursorFn func(ctx context.Context, userID int64) (models.SyncCursor, error)
}

func (f *fakeSyncRepository) PushBatch(ctx context.Context, userID int64, batch models.PushRequest) (models.PushResponse, error) {
	return f.pushFn(ctx, userID, batch)
}

func (f *fakeSyncRepository) PullChanges(ctx context.Context, userID int64, since int64) (models.PullResponse, error) {
	return f.pullFn(ctx, userID, since)
}

func (f *fakeSyncRepository) GetCursor(ctx context.Context, userID int64) (models.SyncCursor, error) {
	return f.cursorFn(ctx, userID)
}

func TestSyncService_Push_DelegatesValidBatch(t *testing.T) {
	var gotUserID int64
	var gotBatch models.PushRequest
	repo := &fakeSyncRepository{
		pushFn: func(ctx context.Context, userID int64, batch models.PushRequest) (models.PushResponse, error) {
			gotUserID = userID
			gotBatch = batch
			return models.PushResponse{Success: true, SyncVersion: 7, Pushed: models.PushCounts{Documents: 1}}, nil
		},
	}
	svc := NewSyncService(repo, logger.Nop())

	batch := models.PushRequest{Documents: []models.SyncEntity{{ID: "doc-1"}}}
	response, err := svc.Push(context.Background(), 5, batch)

	require.NoError(t, err)
	assert.True(t, response.Success)
	assert.Equal(t, int64(7), response.SyncVersion)
	assert.Equal(t, int64(5), gotUserID)
	assert.Len(t, gotBatch.Documents, 1)
}

func TestSyncService_Push_RejectsEmptyBatch(t *testing.T) {
	repo := &fakeSyncRepository{
		pushFn: func(ctx context.Context, userID int64, batch models.PushRequest) (models.PushResponse, error) {
			t.Fatal("repository must not be reached for an invalid batch")
			return models.PushResponse{}, nil
		},
	}
	svc := NewSyncService(repo, logger.Nop())

	_, err := svc.Push(context.Background(), 5, models.PushRequest{})
	assert.ErrorIs(t, err, ErrInvalidDataProvided)
}

func TestSyncService_Push_RejectsEntityWithoutID(t *testing.T) {
	svc := NewSyncService(&fakeSyncRepository{}, logger.Nop())

	batch := models.PushRequest{Extracts: []models.SyncEntity{{ID: ""}}}
	_, err := svc.Push(context.Background(), 5, batch)
	assert.ErrorIs(t, err, ErrInvalidDataProvided)
}

func TestSyncService_Pull(t *testing.T) {
	repo := &fakeSyncRepository{
		pullFn: func(ctx context.Context, userID int64, since int64) (models.PullResponse, error) {
			assert.Equal(t, int64(3), since)
			return models.PullResponse{
				Documents:   []models.SyncEntity{{ID: "doc-1", SyncVersion: 4}},
				SyncVersion: 4,
			}, nil
		},
	}
	svc := NewSyncService(repo, logger.Nop())

	response, err := svc.Pull(context.Background(), 5, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(4), response.SyncVersion)
	assert.Len(t, response.Documents, 1)
}

func TestSyncService_Pull_RejectsNegativeSince(t *testing.T) {
	svc := NewSyncService(&fakeSyncRepository{}, logger.Nop())

	_, err := svc.Pull(context.Background(), 5, -1)
	assert.ErrorIs(t, err, ErrInvalidDataProvided)
}

func TestSyncService_Status(t *testing.T) {
	lastSync := time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC)
	repo := &fakeSyncRepository{
		cursorFn: func(ctx context.Context, userID int64) (models.SyncCursor, error) {
			return models.SyncCursor{UserID: userID, LastSyncVersion: 42, LastSyncAt: lastSync}, nil
		},
	}
	svc := NewSyncService(repo, logger.Nop())

	status, err := svc.Status(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(42), status.LastSyncVersion)
	assert.Equal(t, lastSync, status.LastSyncAt)
}

func TestSyncService_Status_FreshUser(t *testing.T) {
	repo := &fakeSyncRepository{
		cursorFn: func(ctx context.Context, userID int64) (models.SyncCursor, error) {
			return models.SyncCursor{UserID: userID}, nil
		},
	}
	svc := NewSyncService(repo, logger.Nop())

	status, err := svc.Status(context.Background(), 9)
	require.NoError(t, err)
	assert.Zero(t, status.LastSyncVersion)
	assert.True(t, status.LastSyncAt.IsZero())
}
