// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ivan Karpovich

// Package adapter provides transport-layer abstractions for communicating with
// a study-sync server.
//
// The primary abstraction is [ServerAdapter], which decouples the client-side
// service layer from the underlying protocol. The package ships an HTTP/REST
// implementation ([NewHTTPServerAdapter]); the client constructs one adapter
// per configured endpoint (local network, cloud) and the connection manager
// picks between them per request.
//
// Error values defined in errors.go are mapped from HTTP status codes by
// mapHTTPError so that callers can use [errors.Is] for transport-agnostic
// error handling (e.g. [ErrConflict] for 409, [ErrUnauthorized] for 401).
package adapter

import (
	"context"

	"github.com/ikarpovich/study-sync/models"
)

// ServerAdapter defines transport-agnostic communication with a study-sync
// server. Implementations are responsible for serialisation, authentication
// header management, and mapping transport-level errors to the sentinel values
// defined in this package.
type ServerAdapter interface {
	// Endpoint returns the normalised base URL this adapter talks to. It is
	// used for logging and for connection-state reporting.
	Endpoint() string

	// SetToken stores the bearer token that will be attached to all subsequent
	// authenticated requests. It should be called immediately after a
	// successful Register or Login.
	SetToken(token string)

	// Token returns the bearer token currently stored in the adapter, or an
	// empty string if no token has been set yet.
	Token() string

	// Register sends a registration request with the provided credentials.
	// On success it stores the returned bearer token via SetToken and returns
	// the token together with the user id the server assigned. Returns an
	// error if the request fails or the server responds with a non-2xx status.
	Register(ctx context.Context, user models.User) (models.Token, error)

	// Login authenticates the user with the server. On success it stores the
	// returned bearer token via SetToken and returns the token together with
	// the user id extracted from it. Returns an error if the request fails or
	// the server responds with a non-2xx status.
	Login(ctx context.Context, user models.User) (models.Token, error)

	// Push submits a batch of local mutations to the server in a single
	// request and returns the committed sync version and per-kind write
	// counts. Returns [ErrConflict] (wrapped) if the server rejects the batch
	// because an entity id is owned by another account.
	Push(ctx context.Context, req models.PushRequest) (models.PushResponse, error)

	// Pull retrieves every row changed after the given watermark, together
	// with the server-side cursor the client should advance to after applying
	// the rows.
	Pull(ctx context.Context, since int64) (models.PullResponse, error)

	// Status fetches the user's current server-side cursor without
	// transferring any entity data.
	Status(ctx context.Context) (models.StatusResponse, error)

	// Ping probes the unauthenticated health endpoint. A nil return means the
	// endpoint is reachable and serving. Callers bound the probe with a
	// context deadline.
	Ping(ctx context.Context) error
}
