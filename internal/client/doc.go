// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ivan Karpovich

// Package client implements the sync client runtime.
//
// It wires the local SQLite store, the endpoint connection manager, client
// services, and background synchronization workers into a single process
// lifecycle.
package client
