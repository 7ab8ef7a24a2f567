package store

import "github.com/ikarpovich/study-sync/internal/logger"

type Repositories struct {
	UserRepository UserRepository
	SyncRepository SyncRepository
}

func NewRepositories(db *DB, log *logger.Logger) *Repositories {
	return &Repositories{
		UserRepository: NewUserRepository(db, log),
		SyncRepository: NewSyncRepository(db, log),
	}
}
