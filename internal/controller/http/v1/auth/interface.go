package auth

import (
	"context"

	"classroom/backend/internal/entity"
)

type User interface {
	GetByUsername(ctx context.Context, username string) (entity.User, error)
	GetById(ctx context.Context, id int) (entity.User, error)
}
