// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ivan Karpovich

package config

import "strings"

// validate checks that the final merged [StructuredConfig] satisfies server
// startup invariants.
//
// Client-only fields (adapter addresses, credentials, worker intervals) are
// deliberately not checked here; they are validated by [ClientConfig.validate]
// after the client view is assembled.
func (cfg *StructuredConfig) validate() error {
	if cfg.App.Mode != "" && !isKnownMode(cfg.App.Mode) {
		return ErrInvalidAppConfigs
	}

	return nil
}

func (cfg *ClientConfig) validate() error {
	if cfg.Storage.DB.DSN == "" || strings.Contains(cfg.Storage.DB.DSN, "memory") {
		return ErrInvalidStorageConfigs
	}

	if cfg.Adapter.LocalAddress == "" && cfg.Adapter.CloudAddress == "" {
		return ErrInvalidAdapterConfigs
	}
	if cfg.Adapter.RequestTimeout == 0 || cfg.Adapter.ProbeTimeout == 0 {
		return ErrInvalidAdapterConfigs
	}

	if cfg.Workers.SyncInterval == 0 || cfg.Workers.DrainInterval == 0 {
		return ErrInvalidWorkerConfigs
	}

	if cfg.App.DeviceID == "" || !isKnownMode(cfg.App.Mode) {
		return ErrInvalidAppConfigs
	}

	return nil
}

func isKnownMode(mode string) bool {
	switch mode {
	case "dual", "local-only", "cloud-only":
		return true
	}
	return false
}
