package contracts

import (
	"context"

	"github.com/meysamhadeli/gitai/repository/models"
)

// IRepositoryStore keeps the index of known repositories.
type IRepositoryStore interface {
	Add(ctx context.Context, localPath string, name string, remoteURL string) (*models.Repository, error)
	List(ctx context.Context) ([]models.Repository, error)
	GetByPath(ctx context.Context, localPath string) (*models.Repository, error)
	Resolve(ctx context.Context, nameOrPath string) (*models.Repository, error)
	Remove(ctx context.Context, nameOrPath string) error
	Touch(ctx context.Context, localPath string) error
	Close() error
}
