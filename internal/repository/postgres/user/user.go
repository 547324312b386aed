package user

import (
	"context"
	"database/sql"
	"net/http"

	"classroom/backend/foundation/web"
	"classroom/backend/internal/entity"
	"classroom/backend/internal/pkg/repository/postgresql"

	"github.com/pkg/errors"
)

type Repository struct {
	*postgresql.Database
}

func NewRepository(database *postgresql.Database) *Repository {
	return &Repository{Database: database}
}

func (r Repository) GetByUsername(ctx context.Context, username string) (entity.User, error) {
	var detail entity.User
	err := r.NewSelect().Model(&detail).
		Where("username = ? AND deleted_at IS NULL", username).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.User{}, web.NewRequestError(errors.New("user not found"), http.StatusNotFound)
	}
	if err != nil {
		return entity.User{}, errors.Wrap(err, "selecting user")
	}

	return detail, nil
}

func (r Repository) GetById(ctx context.Context, id int) (entity.User, error) {
	var detail entity.User
	err := r.NewSelect().Model(&detail).
		Where("id = ? AND deleted_at IS NULL", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.User{}, web.NewRequestError(errors.New("user not found"), http.StatusNotFound)
	}
	if err != nil {
		return entity.User{}, errors.Wrap(err, "selecting user")
	}

	return detail, nil
}
