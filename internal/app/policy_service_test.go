package app_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task_reminder_engine/internal/app"
	"task_reminder_engine/internal/domain/child"
	"task_reminder_engine/internal/domain/policy"
	"task_reminder_engine/internal/infra/database"
)

func newPolicyService(t *testing.T) (*app.PolicyService, *database.InMemoryPolicyRepository, *database.InMemoryChildRepository) {
	t.Helper()
	policyRepo := database.NewInMemoryPolicyRepository()
	childRepo := database.NewInMemoryChildRepository()
	svc := app.NewPolicyService(policyRepo, childRepo, policy.NewResolver(policyRepo), quietLogger())
	return svc, policyRepo, childRepo
}

func addChild(t *testing.T, repo *database.InMemoryChildRepository, name string) uuid.UUID {
	t.Helper()
	c := &child.Child{DisplayName: name, IsActive: true}
	require.NoError(t, repo.Create(context.Background(), c))
	return c.ID
}

func TestUpdateGlobalPolicy_RejectsInvalidWrites(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newPolicyService(t)

	before, err := repo.GetGlobal(ctx)
	require.NoError(t, err)

	_, err = svc.UpdateGlobalPolicy(ctx, policy.GlobalPolicy{
		LevelDefault:          9,
		RepeatIntervalMinutes: 5,
		Channels:              policy.Channels{InApp: true},
	})
	var vErr *policy.ValidationError
	require.ErrorAs(t, err, &vErr)

	// Rejected synchronously: the store is unchanged.
	after, err := repo.GetGlobal(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestUpdateGlobalPolicy_RefreshesUpdatedAt(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newPolicyService(t)

	p := policy.GlobalPolicy{
		LevelDefault:          2,
		RepeatIntervalMinutes: 10,
		MaxRetries:            1,
		Channels:              policy.Channels{InApp: true, WebPush: true},
	}
	updated, err := svc.UpdateGlobalPolicy(ctx, p)
	require.NoError(t, err)
	assert.False(t, updated.UpdatedAt.IsZero())

	got, err := svc.GetGlobalPolicy(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, got.LevelDefault)
	assert.Equal(t, policy.Channels{InApp: true, WebPush: true}, got.Channels)
}

func TestUpsertOverride_UnknownChild(t *testing.T) {
	svc, _, _ := newPolicyService(t)

	_, err := svc.UpsertOverride(context.Background(), policy.ChildPolicyOverride{
		ChildID:               uuid.New(),
		Level:                 2,
		RepeatIntervalMinutes: 10,
		Channels:              policy.Channels{InApp: true},
	})
	assert.ErrorIs(t, err, app.ErrUnknownChild)
}

func TestUpsertAndRemoveOverride(t *testing.T) {
	ctx := context.Background()
	svc, _, childRepo := newPolicyService(t)
	childID := addChild(t, childRepo, "Sam")

	_, err := svc.UpsertOverride(ctx, policy.ChildPolicyOverride{
		ChildID:               childID,
		Level:                 4,
		RepeatIntervalMinutes: 10,
		MaxRetries:            3,
		Channels:              policy.Channels{MobilePush: true},
	})
	require.NoError(t, err)

	eff, err := svc.GetChildPolicy(ctx, childID)
	require.NoError(t, err)
	assert.True(t, eff.IsOverride)
	assert.Equal(t, 4, eff.Level)

	// Removal reverts the child to global inheritance; removing again
	// is a no-op.
	require.NoError(t, svc.RemoveOverride(ctx, childID))
	require.NoError(t, svc.RemoveOverride(ctx, childID))

	eff, err = svc.GetChildPolicy(ctx, childID)
	require.NoError(t, err)
	assert.False(t, eff.IsOverride)
}

func TestComputeStats(t *testing.T) {
	ctx := context.Background()
	svc, _, childRepo := newPolicyService(t)

	_, err := svc.UpdateGlobalPolicy(ctx, policy.GlobalPolicy{
		LevelDefault:          2,
		RepeatIntervalMinutes: 15,
		MaxRetries:            1,
		Channels:              policy.Channels{InApp: true},
	})
	require.NoError(t, err)

	addChild(t, childRepo, "Ana")
	addChild(t, childRepo, "Ben")
	overridden := addChild(t, childRepo, "Caz")

	_, err = svc.UpsertOverride(ctx, policy.ChildPolicyOverride{
		ChildID:               overridden,
		Level:                 4,
		RepeatIntervalMinutes: 5,
		Channels:              policy.Channels{InApp: true},
	})
	require.NoError(t, err)

	stats, err := svc.ComputeStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalChildren)
	assert.Equal(t, 1, stats.WithOverrides)
	assert.Equal(t, 2, stats.UsingGlobalDefault)
	assert.Equal(t, 2, stats.GlobalLevel)
	assert.Equal(t, map[int]int{1: 0, 2: 2, 3: 0, 4: 1}, stats.ByLevel)
}

func TestComputeStats_EmptyRoster(t *testing.T) {
	svc, _, _ := newPolicyService(t)

	stats, err := svc.ComputeStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalChildren)
	assert.Equal(t, map[int]int{1: 0, 2: 0, 3: 0, 4: 0}, stats.ByLevel)
}
