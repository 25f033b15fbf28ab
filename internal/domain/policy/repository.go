package policy

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence operations for the global policy
// singleton and per-child override rows.
//
// GetOverride returns (nil, nil) when no override row exists for the
// child: absence is a normal state (the child inherits the global
// policy), not an error. Writes are last-write-wins; implementations
// refresh UpdatedAt on every successful write.
type Repository interface {
	GetGlobal(ctx context.Context) (*GlobalPolicy, error)
	PutGlobal(ctx context.Context, p *GlobalPolicy) error

	GetOverride(ctx context.Context, childID uuid.UUID) (*ChildPolicyOverride, error)
	PutOverride(ctx context.Context, o *ChildPolicyOverride) error
	// DeleteOverride reverts a child to global inheritance. Deleting a
	// nonexistent override is a no-op.
	DeleteOverride(ctx context.Context, childID uuid.UUID) error
}
