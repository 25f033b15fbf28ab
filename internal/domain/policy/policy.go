package policy

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Channel identifies one delivery route for a reminder dispatch intent.
type Channel string

const (
	ChannelInApp            Channel = "IN_APP"
	ChannelWebPush          Channel = "WEB_PUSH"
	ChannelMobilePush       Channel = "MOBILE_PUSH"
	ChannelParentEscalation Channel = "PARENT_ESCALATION"
)

// Channels is the closed set of per-channel enable flags carried by a
// policy. ParentEscalation is never used for regular attempts, only
// for the final escalation dispatch.
type Channels struct {
	InApp            bool
	WebPush          bool
	MobilePush       bool
	ParentEscalation bool
}

// Delivery returns the enabled non-escalation channels, in stable order.
func (c Channels) Delivery() []Channel {
	out := make([]Channel, 0, 3)
	if c.InApp {
		out = append(out, ChannelInApp)
	}
	if c.WebPush {
		out = append(out, ChannelWebPush)
	}
	if c.MobilePush {
		out = append(out, ChannelMobilePush)
	}
	return out
}

// Bounds enforced on every policy write, matching the admin form limits.
const (
	LevelMin          = 1
	LevelMax          = 4
	RepeatIntervalMin = 1
	RepeatIntervalMax = 1440
	MaxRetriesMin     = 0
	MaxRetriesMax     = 100
)

// ValidationError reports a malformed policy write. The store is left
// unchanged when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid policy field %s: %s", e.Field, e.Reason)
}

// GlobalPolicy is the singleton fallback policy every child inherits
// unless an override row exists for them. Created once at bootstrap,
// mutated only by administrator writes, never deleted.
type GlobalPolicy struct {
	LevelDefault          int
	RepeatIntervalMinutes int
	MaxRetries            int
	EscalationEnabled     bool
	QuietHoursStart       *TimeOfDay
	QuietHoursEnd         *TimeOfDay
	Channels              Channels
	UpdatedAt             time.Time
}

// DefaultGlobalPolicy returns the bootstrap policy: level 1, remind
// every 5 minutes, no retries, no escalation, in-app only.
func DefaultGlobalPolicy() GlobalPolicy {
	return GlobalPolicy{
		LevelDefault:          1,
		RepeatIntervalMinutes: 5,
		MaxRetries:            0,
		EscalationEnabled:     false,
		Channels:              Channels{InApp: true},
	}
}

func (p *GlobalPolicy) Validate() error {
	return validateFields(p.LevelDefault, p.RepeatIntervalMinutes, p.MaxRetries, p.QuietHoursStart, p.QuietHoursEnd)
}

// ChildPolicyOverride fully replaces the global policy for one child.
// Row presence is the override flag; there is no partial merge.
type ChildPolicyOverride struct {
	ChildID               uuid.UUID
	Level                 int
	RepeatIntervalMinutes int
	MaxRetries            int
	EscalationEnabled     bool
	QuietHoursStart       *TimeOfDay
	QuietHoursEnd         *TimeOfDay
	Channels              Channels
	UpdatedAt             time.Time
}

func (o *ChildPolicyOverride) Validate() error {
	return validateFields(o.Level, o.RepeatIntervalMinutes, o.MaxRetries, o.QuietHoursStart, o.QuietHoursEnd)
}

// Effective is the fully populated policy applied to a child after
// resolving override-vs-global inheritance. Derived, never persisted.
type Effective struct {
	Level                 int
	RepeatIntervalMinutes int
	MaxRetries            int
	EscalationEnabled     bool
	QuietHoursStart       *TimeOfDay
	QuietHoursEnd         *TimeOfDay
	Channels              Channels
	IsOverride            bool
}

// RepeatInterval returns the dispatch interval as a duration.
func (e Effective) RepeatInterval() time.Duration {
	return time.Duration(e.RepeatIntervalMinutes) * time.Minute
}

func validateFields(level, intervalMinutes, maxRetries int, quietStart, quietEnd *TimeOfDay) error {
	if level < LevelMin || level > LevelMax {
		return &ValidationError{Field: "level", Reason: fmt.Sprintf("must be between %d and %d, got %d", LevelMin, LevelMax, level)}
	}
	if intervalMinutes < RepeatIntervalMin || intervalMinutes > RepeatIntervalMax {
		return &ValidationError{Field: "repeatIntervalMinutes", Reason: fmt.Sprintf("must be between %d and %d, got %d", RepeatIntervalMin, RepeatIntervalMax, intervalMinutes)}
	}
	if maxRetries < MaxRetriesMin || maxRetries > MaxRetriesMax {
		return &ValidationError{Field: "maxRetries", Reason: fmt.Sprintf("must be between %d and %d, got %d", MaxRetriesMin, MaxRetriesMax, maxRetries)}
	}
	// Quiet hours are configured as a pair or not at all.
	if (quietStart == nil) != (quietEnd == nil) {
		return &ValidationError{Field: "quietHours", Reason: "quietHoursStart and quietHoursEnd must both be set or both be unset"}
	}
	return nil
}
