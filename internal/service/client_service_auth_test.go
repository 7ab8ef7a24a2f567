// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ivan Karpovich

package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/ikarpovich/study-sync/internal/adapter"
	"github.com/ikarpovich/study-sync/internal/app"
	"github.com/ikarpovich/study-sync/internal/logger"
	"github.com/ikarpovich/study-sync/internal/store"
	"github.com/ikarpovich/study-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientAuth_LoginPropagatesToken(t *testing.T) {
	remote := newFakeRemote(&fakeServerAdapter{})
	svc := NewClientAuthService(remote, logger.Nop())

	token, err := svc.Login(context.Background(), models.User{Email: "alice@example.com", Password: "secret"})

	require.NoError(t, err)
	assert.Equal(t, "login-token", token.SignedString)
	assert.Equal(t, int64(1), token.UserID)
	assert.Equal(t, "login-token", remote.token, "token must reach every endpoint")
}

func TestClientAuth_RegisterPropagatesToken(t *testing.T) {
	remote := newFakeRemote(&fakeServerAdapter{})
	svc := NewClientAuthService(remote, logger.Nop())

	token, err := svc.Register(context.Background(), models.User{Email: "alice@example.com", Password: "secret"})

	require.NoError(t, err)
	assert.Equal(t, "registered-token", token.SignedString)
	assert.Equal(t, "registered-token", remote.token)
}

func TestMapAdapterError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "nil",
			err:  nil,
			want: nil,
		},
		{
			name: "bad request",
			err:  fmt.Errorf("%w: %s", adapter.ErrBadRequest, app.MsgInvalidDataProvided),
			want: ErrInvalidDataProvided,
		},
		{
			name: "wrong password",
			err:  fmt.Errorf("%w: %s", adapter.ErrUnauthorized, app.MsgInvalidEmailPassword),
			want: ErrWrongPassword,
		},
		{
			name: "expired token",
			err:  fmt.Errorf("%w: %s", adapter.ErrUnauthorized, app.MsgTokenIsExpiredOrInvalid),
			want: ErrTokenIsExpiredOrInvalid,
		},
		{
			name: "email taken",
			err:  fmt.Errorf("%w: %s", adapter.ErrConflict, app.MsgEmailAlreadyExists),
			want: store.ErrEmailAlreadyExists,
		},
		{
			name: "ownership conflict",
			err:  fmt.Errorf("%w: %s", adapter.ErrConflict, app.MsgErrorPushingBatch),
			want: store.ErrEntityOwnedByAnotherUser,
		},
		{
			name: "bad gateway",
			err:  fmt.Errorf("%w: upstream down", adapter.ErrBadGateway),
			want: ErrServerUnreachable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mapAdapterError(tt.err))
		})
	}
}

func TestMapAdapterError_PassthroughUnknown(t *testing.T) {
	err := fmt.Errorf("push request: connection refused")
	assert.Equal(t, err, mapAdapterError(err))
}
