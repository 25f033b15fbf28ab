package reminder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"task_reminder_engine/internal/domain/policy"
	"task_reminder_engine/internal/domain/reminder"
)

func TestDecide_RegularAttemptUsesConfiguredDeliveryChannels(t *testing.T) {
	eff := policy.Effective{
		MaxRetries: 3,
		Channels:   policy.Channels{InApp: true, MobilePush: true, ParentEscalation: true},
	}

	d := reminder.Decide(eff, 0)
	assert.False(t, d.Terminal)
	assert.False(t, d.Escalation)
	assert.Equal(t, []policy.Channel{policy.ChannelInApp, policy.ChannelMobilePush}, d.Channels)

	// Same channel set on every non-exhausted attempt.
	d = reminder.Decide(eff, 3)
	assert.False(t, d.Terminal)
	assert.Equal(t, []policy.Channel{policy.ChannelInApp, policy.ChannelMobilePush}, d.Channels)
}

func TestDecide_LevelDoesNotGateChannels(t *testing.T) {
	low := policy.Effective{Level: 1, MaxRetries: 1, Channels: policy.Channels{WebPush: true}}
	high := policy.Effective{Level: 4, MaxRetries: 1, Channels: policy.Channels{WebPush: true}}

	assert.Equal(t, reminder.Decide(low, 0), reminder.Decide(high, 0))
}

func TestDecide_ExhaustionWithEscalation(t *testing.T) {
	eff := policy.Effective{
		MaxRetries:        2,
		EscalationEnabled: true,
		Channels:          policy.Channels{InApp: true, ParentEscalation: true},
	}

	d := reminder.Decide(eff, 3)
	assert.True(t, d.Terminal)
	assert.True(t, d.Escalation)
	assert.Equal(t, []policy.Channel{policy.ChannelParentEscalation}, d.Channels)
}

func TestDecide_SilentExhaustion(t *testing.T) {
	// Escalation flag without the channel, and vice versa, both
	// exhaust silently.
	flagOnly := policy.Effective{MaxRetries: 0, EscalationEnabled: true, Channels: policy.Channels{InApp: true}}
	channelOnly := policy.Effective{MaxRetries: 0, Channels: policy.Channels{InApp: true, ParentEscalation: true}}

	for _, eff := range []policy.Effective{flagOnly, channelOnly} {
		d := reminder.Decide(eff, 1)
		assert.True(t, d.Terminal)
		assert.False(t, d.Escalation)
		assert.Empty(t, d.Channels)
	}
}

func TestDecide_AllChannelsDisabled(t *testing.T) {
	eff := policy.Effective{MaxRetries: 2}

	d := reminder.Decide(eff, 1)
	assert.False(t, d.Terminal)
	assert.Empty(t, d.Channels)
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, reminder.StatusPending.Terminal())
	assert.True(t, reminder.StatusExhausted.Terminal())
	assert.True(t, reminder.StatusCompleted.Terminal())
	assert.True(t, reminder.StatusCancelled.Terminal())
}
