// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ivan Karpovich

// Package app contains shared application-layer constants used across the
// study-sync server handlers and middleware.
//
// All Msg* constants are human-readable message strings that are written into
// HTTP response bodies or log entries to describe the outcome of an operation.
// Keeping them in one place ensures consistent wording throughout the API and
// lets the client map response bodies back to business errors.
package app

const (
	// MsgInvalidJSON is returned when the request body cannot be decoded.
	MsgInvalidJSON = "Invalid JSON was passed"

	// MsgInvalidDataProvided is returned when a decoded request fails
	// validation (e.g. missing required fields or an oversized entity id).
	MsgInvalidDataProvided = "invalid data provided"

	// MsgInvalidEmailPassword is returned when the supplied email/password
	// combination does not match any existing user record.
	MsgInvalidEmailPassword = "invalid email/password"

	// MsgEmailAlreadyExists is returned when a registration attempt is
	// rejected because the requested email is already in use.
	MsgEmailAlreadyExists = "email already exists"

	// MsgTokenIsExpiredOrInvalid is returned when a JWT bearer token is
	// either expired or cannot be verified (e.g. wrong signature).
	MsgTokenIsExpiredOrInvalid = "token is expired or invalid"

	// MsgNoUserIDProvided is returned when a handler requires a user id
	// extracted from the JWT claim but none is present in the request
	// context.
	MsgNoUserIDProvided = "no user ID was given"

	// MsgInvalidSinceParameter is returned when the pull watermark query
	// parameter cannot be parsed as a non-negative integer.
	MsgInvalidSinceParameter = "invalid since parameter"

	// MsgErrorPushingBatch is returned when a push transaction fails; the
	// response status code carries the cause (409 for ownership conflicts).
	MsgErrorPushingBatch = "error pushing batch"

	// MsgErrorPullingChanges is returned when a pull query fails server-side.
	MsgErrorPullingChanges = "error pulling changes"

	// MsgErrorGettingSyncStatus is returned when the cursor lookup fails.
	MsgErrorGettingSyncStatus = "error getting sync status"
)
