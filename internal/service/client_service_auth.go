// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ivan Karpovich

package service

import (
	"context"
	"fmt"

	"github.com/ikarpovich/study-sync/internal/adapter"
	"github.com/ikarpovich/study-sync/internal/logger"
	"github.com/ikarpovich/study-sync/models"
)

type clientAuthService struct {
	remote Remote
	logger *logger.Logger
}

// NewClientAuthService constructs a [ClientAuthService] that authenticates
// against whichever endpoint the connection manager selects.
func NewClientAuthService(remote Remote, logger *logger.Logger) ClientAuthService {
	return &clientAuthService{remote: remote, logger: logger}
}

// Register implements [ClientAuthService].
func (s *clientAuthService) Register(ctx context.Context, user models.User) (models.Token, error) {
	var token models.Token
	err := s.remote.Do(ctx, func(a adapter.ServerAdapter) error {
		issued, callErr := a.Register(ctx, user)
		if callErr != nil {
			return callErr
		}
		token = issued
		return nil
	})
	if err != nil {
		return models.Token{}, fmt.Errorf("register: %w", mapAdapterError(err))
	}

	s.remote.SetToken(token.SignedString)
	s.logger.Info().
		Str("func", "clientAuthService.Register").
		Int64("user_id", token.UserID).
		Msg("registered on server")

	return token, nil
}

// Login implements [ClientAuthService].
func (s *clientAuthService) Login(ctx context.Context, user models.User) (models.Token, error) {
	var token models.Token
	err := s.remote.Do(ctx, func(a adapter.ServerAdapter) error {
		issued, callErr := a.Login(ctx, user)
		if callErr != nil {
			return callErr
		}
		token = issued
		return nil
	})
	if err != nil {
		return models.Token{}, fmt.Errorf("login: %w", mapAdapterError(err))
	}

	s.remote.SetToken(token.SignedString)
	s.logger.Info().
		Str("func", "clientAuthService.Login").
		Int64("user_id", token.UserID).
		Msg("logged in on server")

	return token, nil
}
