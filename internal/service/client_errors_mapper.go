// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ivan Karpovich

package service

import (
	"errors"
	"strings"

	"github.com/ikarpovich/study-sync/internal/adapter"
	"github.com/ikarpovich/study-sync/internal/app"
	"github.com/ikarpovich/study-sync/internal/store"
)

// mapAdapterError translates the adapter's transport error into a service
// business error.
func mapAdapterError(err error) error {
	if err == nil {
		return nil
	}

	msg := extractBody(err)

	switch {
	case errors.Is(err, adapter.ErrBadRequest):
		return ErrInvalidDataProvided

	case errors.Is(err, adapter.ErrUnauthorized):
		if msg == app.MsgInvalidEmailPassword {
			return ErrWrongPassword
		}
		return ErrTokenIsExpiredOrInvalid

	case errors.Is(err, adapter.ErrConflict):
		if msg == app.MsgEmailAlreadyExists {
			return store.ErrEmailAlreadyExists
		}
		return store.ErrEntityOwnedByAnotherUser

	case errors.Is(err, adapter.ErrNotFound):
		return ErrInvalidDataProvided

	case errors.Is(err, adapter.ErrBadGateway):
		return ErrServerUnreachable
	}

	return err
}

// extractBody extracts the body from a message of the form
// "bad request: <body>".
func extractBody(err error) string {
	msg := strings.TrimSpace(err.Error())
	if idx := strings.LastIndex(msg, ": "); idx != -1 {
		msg = msg[idx+2:]
	}
	return strings.TrimSpace(msg)
}
