package sync

import (
	"context"

	"classroom/backend/internal/service/sync"
)

type Sync interface {
	Run(ctx context.Context, request sync.RunRequest) (int, error)
}
