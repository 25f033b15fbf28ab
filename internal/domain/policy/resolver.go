package policy

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Resolver merges the global policy and a child's optional override
// into one Effective policy. Resolution is total: a child with no
// override row (including children the system has never seen) simply
// inherits the global policy.
type Resolver struct {
	repo Repository
}

func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve returns the policy in effect for the given child. An
// existing override replaces the global policy verbatim; there is no
// field-level merge.
func (r *Resolver) Resolve(ctx context.Context, childID uuid.UUID) (Effective, error) {
	override, err := r.repo.GetOverride(ctx, childID)
	if err != nil {
		return Effective{}, fmt.Errorf("failed to look up policy override for child %s: %w", childID, err)
	}
	if override != nil {
		return Effective{
			Level:                 override.Level,
			RepeatIntervalMinutes: override.RepeatIntervalMinutes,
			MaxRetries:            override.MaxRetries,
			EscalationEnabled:     override.EscalationEnabled,
			QuietHoursStart:       override.QuietHoursStart,
			QuietHoursEnd:         override.QuietHoursEnd,
			Channels:              override.Channels,
			IsOverride:            true,
		}, nil
	}

	global, err := r.repo.GetGlobal(ctx)
	if err != nil {
		return Effective{}, fmt.Errorf("failed to load global policy: %w", err)
	}
	return Effective{
		Level:                 global.LevelDefault,
		RepeatIntervalMinutes: global.RepeatIntervalMinutes,
		MaxRetries:            global.MaxRetries,
		EscalationEnabled:     global.EscalationEnabled,
		QuietHoursStart:       global.QuietHoursStart,
		QuietHoursEnd:         global.QuietHoursEnd,
		Channels:              global.Channels,
		IsOverride:            false,
	}, nil
}
