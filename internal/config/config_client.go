package config

import (
	"fmt"
	"time"
)

// ClientApp holds client-side identity settings derived from the shared
// structured config.
type ClientApp struct {
	// Email is the account email used for login.
	Email string
	// Password is the account password used for login.
	Password string
	// DeviceID identifies this installation in conflict metadata.
	DeviceID string
	// Mode is the initial connection mode.
	Mode string
}

// ClientAdapter holds network settings used by the client transport layer.
type ClientAdapter struct {
	// LocalAddress is the base URL of the local-network sync server.
	LocalAddress string
	// CloudAddress is the base URL of the cloud sync server.
	CloudAddress string
	// RequestTimeout is the default timeout for outbound sync requests.
	RequestTimeout time.Duration
	// ProbeTimeout is the timeout for endpoint health probes.
	ProbeTimeout time.Duration
}

// ClientDB contains local database connection settings for the client.
type ClientDB struct {
	// DSN is the SQLite file path used by the client store.
	DSN string
}

// ClientStorage groups client storage backend settings.
type ClientStorage struct {
	// DB holds local database settings.
	DB ClientDB
}

// ClientWorkers contains client background worker settings.
type ClientWorkers struct {
	// SyncInterval defines how often the periodic full sync runs.
	SyncInterval time.Duration
	// ProbeInterval defines how often endpoint availability is re-checked.
	ProbeInterval time.Duration
	// DrainInterval defines how often the offline queue drain is retried.
	DrainInterval time.Duration
}

// ClientConfig is the top-level client configuration assembled from
// [StructuredConfig].
type ClientConfig struct {
	// App contains client identity settings.
	App ClientApp
	// Adapter contains client transport addresses and timeouts.
	Adapter ClientAdapter
	// Storage contains client storage settings.
	Storage ClientStorage
	// Workers contains background job settings.
	Workers ClientWorkers
}

// GetClientConfig builds and validates a client-specific config view from the
// merged structured configuration.
//
// It loads the base config via [GetStructuredConfig], maps only the fields
// relevant to the client runtime, and validates the resulting [ClientConfig].
func GetClientConfig() (*ClientConfig, error) {
	cfg, err := GetStructuredConfig()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	clientCfg := &ClientConfig{
		App: ClientApp{
			Email:    cfg.App.Email,
			Password: cfg.App.Password,
			DeviceID: cfg.App.DeviceID,
			Mode:     cfg.App.Mode,
		},
		Adapter: ClientAdapter{
			LocalAddress:   cfg.Adapter.LocalAddress,
			CloudAddress:   cfg.Adapter.CloudAddress,
			RequestTimeout: cfg.Adapter.RequestTimeout,
			ProbeTimeout:   cfg.Adapter.ProbeTimeout,
		},
		Storage: ClientStorage{
			DB: ClientDB{
				DSN: cfg.Storage.DB.DSN,
			},
		},
		Workers: ClientWorkers{
			SyncInterval:  cfg.Workers.SyncInterval,
			ProbeInterval: cfg.Workers.ProbeInterval,
			DrainInterval: cfg.Workers.DrainInterval,
		},
	}

	return clientCfg, clientCfg.validate()
}
