package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"task_reminder_engine/internal/domain/child"
	"task_reminder_engine/internal/domain/policy"
)

// ErrUnknownChild is returned by override writes that target a child
// not present in the roster. Reads never raise it: resolution is total
// and unknown children inherit the global policy.
var ErrUnknownChild = fmt.Errorf("child not found")

// PolicyService carries the administrator-facing policy operations:
// global policy reads/writes, per-child override upsert and removal,
// and the dashboard stats projection.
type PolicyService struct {
	policyRepo policy.Repository
	childRepo  child.Repository
	resolver   *policy.Resolver
	logger     *logrus.Logger
}

func NewPolicyService(pr policy.Repository, cr child.Repository, resolver *policy.Resolver, logger *logrus.Logger) *PolicyService {
	return &PolicyService{
		policyRepo: pr,
		childRepo:  cr,
		resolver:   resolver,
		logger:     logger,
	}
}

func (s *PolicyService) GetGlobalPolicy(ctx context.Context) (*policy.GlobalPolicy, error) {
	return s.policyRepo.GetGlobal(ctx)
}

// UpdateGlobalPolicy validates and stores the global policy.
// Last-write-wins; UpdatedAt is refreshed on success.
func (s *PolicyService) UpdateGlobalPolicy(ctx context.Context, p policy.GlobalPolicy) (*policy.GlobalPolicy, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.UpdatedAt = time.Now()
	if err := s.policyRepo.PutGlobal(ctx, &p); err != nil {
		return nil, fmt.Errorf("failed to store global policy: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"level":    p.LevelDefault,
		"interval": p.RepeatIntervalMinutes,
		"retries":  p.MaxRetries,
	}).Info("Global notification policy updated")
	return &p, nil
}

// GetChildPolicy resolves the policy in effect for a child. Total:
// children without an override (or not in the roster at all) get the
// global policy with IsOverride=false.
func (s *PolicyService) GetChildPolicy(ctx context.Context, childID uuid.UUID) (policy.Effective, error) {
	return s.resolver.Resolve(ctx, childID)
}

// UpsertOverride creates or fully replaces a child's policy override.
// The target child must exist in the roster.
func (s *PolicyService) UpsertOverride(ctx context.Context, o policy.ChildPolicyOverride) (*policy.ChildPolicyOverride, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	exists, err := s.childRepo.Exists(ctx, o.ChildID)
	if err != nil {
		return nil, fmt.Errorf("failed to check child %s: %w", o.ChildID, err)
	}
	if !exists {
		return nil, ErrUnknownChild
	}

	o.UpdatedAt = time.Now()
	if err := s.policyRepo.PutOverride(ctx, &o); err != nil {
		return nil, fmt.Errorf("failed to store policy override for child %s: %w", o.ChildID, err)
	}
	s.logger.WithField("child_id", o.ChildID).Info("Child policy override saved")
	return &o, nil
}

// RemoveOverride reverts a child to global inheritance. Removing an
// override that does not exist is a no-op success.
func (s *PolicyService) RemoveOverride(ctx context.Context, childID uuid.UUID) error {
	if err := s.policyRepo.DeleteOverride(ctx, childID); err != nil {
		return fmt.Errorf("failed to delete policy override for child %s: %w", childID, err)
	}
	s.logger.WithField("child_id", childID).Info("Child policy override removed, child reverted to global policy")
	return nil
}

// PolicyStats are the admin dashboard counters: roster size, override
// adoption, and how many children land on each level after resolution.
type PolicyStats struct {
	TotalChildren      int
	WithOverrides      int
	UsingGlobalDefault int
	GlobalLevel        int
	ByLevel            map[int]int
}

// ComputeStats folds every child's effective policy into the dashboard
// counters. Recomputed in full on each call.
func (s *PolicyService) ComputeStats(ctx context.Context) (*PolicyStats, error) {
	global, err := s.policyRepo.GetGlobal(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load global policy for stats: %w", err)
	}
	children, err := s.childRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list children for stats: %w", err)
	}

	stats := &PolicyStats{
		GlobalLevel: global.LevelDefault,
		ByLevel:     make(map[int]int, policy.LevelMax),
	}
	for lvl := policy.LevelMin; lvl <= policy.LevelMax; lvl++ {
		stats.ByLevel[lvl] = 0
	}
	for _, c := range children {
		eff, err := s.resolver.Resolve(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve policy for child %s: %w", c.ID, err)
		}
		stats.TotalChildren++
		if eff.IsOverride {
			stats.WithOverrides++
		} else {
			stats.UsingGlobalDefault++
		}
		stats.ByLevel[eff.Level]++
	}
	return stats, nil
}
