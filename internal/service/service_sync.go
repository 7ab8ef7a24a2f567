// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ivan Karpovich

package service

import (
	"context"
	"fmt"

	"github.com/ikarpovich/study-sync/internal/logger"
	"github.com/ikarpovich/study-sync/internal/store"
	"github.com/ikarpovich/study-sync/internal/validators"
	"github.com/ikarpovich/study-sync/models"
)

// syncService is the concrete implementation of SyncService. It validates
// inbound sync payloads and delegates the transactional work to the
// SyncRepository. Version allocation, ordering and atomicity live in the
// repository; this layer owns input hygiene and error shaping.
type syncService struct {
	syncRepository store.SyncRepository
	validator      validators.Validator
	logger         *logger.Logger
}

// NewSyncService constructs a SyncService backed by the given repository.
func NewSyncService(syncRepository store.SyncRepository, logger *logger.Logger) SyncService {
	return &syncService{
		syncRepository: syncRepository,
		validator:      validators.NewSyncDataValidator(),
		logger:         logger,
	}
}

// Push validates and persists a batch of client mutations.
//
// The whole batch is applied in one transaction and stamped with a single
// freshly allocated sync version; the response carries that version and
// per-kind write counts. Re-pushing an unchanged entity is not deduplicated:
// the row is rewritten and re-stamped, which is harmless and keeps the push
// path free of content comparisons.
func (s *syncService) Push(ctx context.Context, userID int64, batch models.PushRequest) (models.PushResponse, error) {
	log := logger.FromContext(ctx)

	if err := s.validator.Validate(ctx, batch); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("push batch rejected")
		return models.PushResponse{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}

	response, err := s.syncRepository.PushBatch(ctx, userID, batch)
	if err != nil {
		log.Err(err).Int64("user_id", userID).Msg("push batch failed")
		return models.PushResponse{}, fmt.Errorf("push batch failed: %w", err)
	}

	log.Info().
		Int64("user_id", userID).
		Int64("sync_version", response.SyncVersion).
		Int("entities", response.Pushed.Total()).
		Msg("push batch committed")

	return response, nil
}

// Pull returns every change of the user with a version greater than since,
// plus the current cursor watermark.
func (s *syncService) Pull(ctx context.Context, userID int64, since int64) (models.PullResponse, error) {
	log := logger.FromContext(ctx)

	if err := s.validator.Validate(ctx, since); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Int64("since", since).Msg("pull rejected")
		return models.PullResponse{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}

	response, err := s.syncRepository.PullChanges(ctx, userID, since)
	if err != nil {
		log.Err(err).Int64("user_id", userID).Int64("since", since).Msg("pull failed")
		return models.PullResponse{}, fmt.Errorf("pull failed: %w", err)
	}

	return response, nil
}

// Status reports the user's cursor: highest assigned version and the time of
// the last committed push. A user that has never pushed reports version zero.
func (s *syncService) Status(ctx context.Context, userID int64) (models.StatusResponse, error) {
	log := logger.FromContext(ctx)

	cursor, err := s.syncRepository.GetCursor(ctx, userID)
	if err != nil {
		log.Err(err).Int64("user_id", userID).Msg("status lookup failed")
		return models.StatusResponse{}, fmt.Errorf("status lookup failed: %w", err)
	}

	return models.StatusResponse{
		LastSyncVersion: cursor.LastSyncVersion,
		LastSyncAt:      cursor.LastSyncAt,
	}, nil
}
