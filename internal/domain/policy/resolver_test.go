package policy_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task_reminder_engine/internal/domain/policy"
	"task_reminder_engine/internal/infra/database"
)

func TestResolve_InheritsGlobalWithoutOverride(t *testing.T) {
	ctx := context.Background()
	repo := database.NewInMemoryPolicyRepository()
	resolver := policy.NewResolver(repo)

	global := policy.GlobalPolicy{
		LevelDefault:          3,
		RepeatIntervalMinutes: 45,
		MaxRetries:            7,
		EscalationEnabled:     true,
		QuietHoursStart:       tod(22, 0),
		QuietHoursEnd:         tod(6, 0),
		Channels:              policy.Channels{InApp: true, WebPush: true, ParentEscalation: true},
	}
	require.NoError(t, repo.PutGlobal(ctx, &global))

	// Any child ID, including ones the system has never seen, resolves
	// to the global policy field for field.
	eff, err := resolver.Resolve(ctx, uuid.New())
	require.NoError(t, err)

	assert.False(t, eff.IsOverride)
	assert.Equal(t, global.LevelDefault, eff.Level)
	assert.Equal(t, global.RepeatIntervalMinutes, eff.RepeatIntervalMinutes)
	assert.Equal(t, global.MaxRetries, eff.MaxRetries)
	assert.Equal(t, global.EscalationEnabled, eff.EscalationEnabled)
	assert.Equal(t, global.QuietHoursStart, eff.QuietHoursStart)
	assert.Equal(t, global.QuietHoursEnd, eff.QuietHoursEnd)
	assert.Equal(t, global.Channels, eff.Channels)
}

func TestResolve_OverrideReplacesGlobalVerbatim(t *testing.T) {
	ctx := context.Background()
	repo := database.NewInMemoryPolicyRepository()
	resolver := policy.NewResolver(repo)
	childID := uuid.New()

	override := policy.ChildPolicyOverride{
		ChildID:               childID,
		Level:                 4,
		RepeatIntervalMinutes: 10,
		MaxRetries:            2,
		Channels:              policy.Channels{MobilePush: true},
	}
	require.NoError(t, repo.PutOverride(ctx, &override))

	eff, err := resolver.Resolve(ctx, childID)
	require.NoError(t, err)
	assert.True(t, eff.IsOverride)
	assert.Equal(t, 4, eff.Level)
	assert.Equal(t, 10, eff.RepeatIntervalMinutes)
	assert.Equal(t, policy.Channels{MobilePush: true}, eff.Channels)

	// Concurrent edits to the global policy do not leak into the
	// override's resolution.
	g, err := repo.GetGlobal(ctx)
	require.NoError(t, err)
	g.LevelDefault = 1
	g.RepeatIntervalMinutes = 999
	require.NoError(t, repo.PutGlobal(ctx, g))

	eff, err = resolver.Resolve(ctx, childID)
	require.NoError(t, err)
	assert.Equal(t, 10, eff.RepeatIntervalMinutes)
}

func TestResolve_AfterOverrideRemoval(t *testing.T) {
	ctx := context.Background()
	repo := database.NewInMemoryPolicyRepository()
	resolver := policy.NewResolver(repo)
	childID := uuid.New()

	override := policy.ChildPolicyOverride{
		ChildID:               childID,
		Level:                 2,
		RepeatIntervalMinutes: 20,
		Channels:              policy.Channels{InApp: true},
	}
	require.NoError(t, repo.PutOverride(ctx, &override))
	require.NoError(t, repo.DeleteOverride(ctx, childID))

	eff, err := resolver.Resolve(ctx, childID)
	require.NoError(t, err)
	assert.False(t, eff.IsOverride)
}
