package child

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the operations for persisting and retrieving Child entries.
type Repository interface {
	Create(ctx context.Context, c *Child) error
	GetByID(ctx context.Context, id uuid.UUID) (*Child, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	ListActive(ctx context.Context) ([]*Child, error)
	ListAll(ctx context.Context) ([]*Child, error) // For admin stats
}
