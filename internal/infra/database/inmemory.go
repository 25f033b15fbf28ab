package database

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"task_reminder_engine/internal/domain/child"
	"task_reminder_engine/internal/domain/policy"
)

// InMemoryPolicyRepository is a mutex-guarded implementation of the
// policy store used by tests and local development. It is seeded with
// the bootstrap global policy on construction.
type InMemoryPolicyRepository struct {
	mu        sync.RWMutex
	global    policy.GlobalPolicy
	overrides map[uuid.UUID]policy.ChildPolicyOverride
}

func NewInMemoryPolicyRepository() *InMemoryPolicyRepository {
	g := policy.DefaultGlobalPolicy()
	g.UpdatedAt = time.Now()
	return &InMemoryPolicyRepository{
		global:    g,
		overrides: make(map[uuid.UUID]policy.ChildPolicyOverride),
	}
}

func (r *InMemoryPolicyRepository) GetGlobal(ctx context.Context) (*policy.GlobalPolicy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g := r.global
	return &g, nil
}

func (r *InMemoryPolicyRepository) PutGlobal(ctx context.Context, p *policy.GlobalPolicy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.global = *p
	return nil
}

func (r *InMemoryPolicyRepository) GetOverride(ctx context.Context, childID uuid.UUID) (*policy.ChildPolicyOverride, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.overrides[childID]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (r *InMemoryPolicyRepository) PutOverride(ctx context.Context, o *policy.ChildPolicyOverride) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides[o.ChildID] = *o
	return nil
}

func (r *InMemoryPolicyRepository) DeleteOverride(ctx context.Context, childID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.overrides, childID)
	return nil
}

// InMemoryChildRepository mirrors the postgres child roster for tests
// and local development.
type InMemoryChildRepository struct {
	mu       sync.RWMutex
	children map[uuid.UUID]child.Child
}

func NewInMemoryChildRepository() *InMemoryChildRepository {
	return &InMemoryChildRepository{children: make(map[uuid.UUID]child.Child)}
}

func (r *InMemoryChildRepository) Create(ctx context.Context, c *child.Child) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	r.children[c.ID] = *c
	return nil
}

func (r *InMemoryChildRepository) GetByID(ctx context.Context, id uuid.UUID) (*child.Child, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.children[id]
	if !ok {
		return nil, ErrChildNotFound
	}
	return &c, nil
}

func (r *InMemoryChildRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.children[id]
	return ok, nil
}

func (r *InMemoryChildRepository) ListActive(ctx context.Context) ([]*child.Child, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*child.Child, 0, len(r.children))
	for _, c := range r.children {
		if c.IsActive {
			c := c
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *InMemoryChildRepository) ListAll(ctx context.Context) ([]*child.Child, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*child.Child, 0, len(r.children))
	for _, c := range r.children {
		c := c
		out = append(out, &c)
	}
	return out, nil
}
