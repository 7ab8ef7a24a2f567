package service

import (
	"context"

	"github.com/ikarpovich/study-sync/models"
)

type SyncService interface {
	Push(ctx context.Context, userID int64, batch models.PushRequest) (models.PushResponse, error)
	Pull(ctx context.Context, userID int64, since int64) (models.PullResponse, error)
	Status(ctx context.Context, userID int64) (models.StatusResponse, error)
}

type AuthService interface {
	RegisterUser(ctx context.Context, user models.User) (models.User, error)
	Login(ctx context.Context, user models.User) (models.User, error)
	CreateToken(ctx context.Context, user models.User) (models.Token, error)
	ParseToken(ctx context.Context, tokenString string) (models.Token, error)
}
