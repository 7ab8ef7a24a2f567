package store

import (
	"context"

	"github.com/ikarpovich/study-sync/models"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
}

type SyncRepository interface {
	PushBatch(ctx context.Context, userID int64, batch models.PushRequest) (models.PushResponse, error)
	PullChanges(ctx context.Context, userID int64, since int64) (models.PullResponse, error)
	GetCursor(ctx context.Context, userID int64) (models.SyncCursor, error)
}
