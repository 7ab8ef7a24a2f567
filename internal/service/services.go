package service

import (
	"github.com/ikarpovich/study-sync/internal/config"
	"github.com/ikarpovich/study-sync/internal/logger"
	"github.com/ikarpovich/study-sync/internal/store"
)

type Services struct {
	AuthService AuthService
	SyncService SyncService
}

func NewServices(repositories *store.Repositories, cfg *config.StructuredConfig, logger *logger.Logger) *Services {
	return &Services{
		AuthService: NewAuthService(repositories.UserRepository, cfg.App, logger),
		SyncService: NewSyncService(repositories.SyncRepository, logger),
	}
}
