package config

import "time"

func defaultConfig() *StructuredConfig {
	return &StructuredConfig{
		App: App{
			TokenIssuer:   "study-sync",
			TokenDuration: 24 * time.Hour,
			Mode:          "dual",
		},
		Server: Server{
			HTTPAddress:    "localhost:8080",
			RequestTimeout: 30 * time.Second,
		},
		Adapter: Adapter{
			RequestTimeout: 30 * time.Second,
			ProbeTimeout:   3 * time.Second,
		},
		Workers: Workers{
			SyncInterval:  5 * time.Minute,
			ProbeInterval: 30 * time.Second,
			DrainInterval: 15 * time.Second,
		},
	}
}
