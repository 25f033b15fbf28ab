package httpapi

import (
	"fmt"
	"time"

	"task_reminder_engine/internal/app"
	"task_reminder_engine/internal/domain/policy"
)

type ChannelsPayload struct {
	InApp            bool `json:"inApp"`
	WebPush          bool `json:"webPush"`
	MobilePush       bool `json:"mobilePush"`
	ParentEscalation bool `json:"parentEscalation"`
}

func (c ChannelsPayload) toDomain() policy.Channels {
	return policy.Channels{
		InApp:            c.InApp,
		WebPush:          c.WebPush,
		MobilePush:       c.MobilePush,
		ParentEscalation: c.ParentEscalation,
	}
}

func channelsPayload(c policy.Channels) ChannelsPayload {
	return ChannelsPayload{
		InApp:            c.InApp,
		WebPush:          c.WebPush,
		MobilePush:       c.MobilePush,
		ParentEscalation: c.ParentEscalation,
	}
}

// PolicyRequest is the write payload for both the global policy and
// per-child overrides; the two surfaces share their field shape.
// Numeric ranges are validated server-side regardless of what the
// admin form enforces.
type PolicyRequest struct {
	Level                 int             `json:"level" validate:"min=1,max=4"`
	RepeatIntervalMinutes int             `json:"repeatIntervalMinutes" validate:"min=1,max=1440"`
	MaxRetries            int             `json:"maxRetries" validate:"min=0,max=100"`
	EscalationEnabled     bool            `json:"escalationEnabled"`
	QuietHoursStart       *string         `json:"quietHoursStart"`
	QuietHoursEnd         *string         `json:"quietHoursEnd"`
	Channels              ChannelsPayload `json:"channels"`
}

func (r *PolicyRequest) quietHours() (start, end *policy.TimeOfDay, err error) {
	parse := func(s *string, field string) (*policy.TimeOfDay, error) {
		if s == nil {
			return nil, nil
		}
		t, err := policy.ParseTimeOfDay(*s)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", field, err)
		}
		return &t, nil
	}
	if start, err = parse(r.QuietHoursStart, "quietHoursStart"); err != nil {
		return nil, nil, err
	}
	if end, err = parse(r.QuietHoursEnd, "quietHoursEnd"); err != nil {
		return nil, nil, err
	}
	return start, end, nil
}

type PolicyResponse struct {
	Level                 int             `json:"level"`
	RepeatIntervalMinutes int             `json:"repeatIntervalMinutes"`
	MaxRetries            int             `json:"maxRetries"`
	EscalationEnabled     bool            `json:"escalationEnabled"`
	QuietHoursStart       *string         `json:"quietHoursStart"`
	QuietHoursEnd         *string         `json:"quietHoursEnd"`
	Channels              ChannelsPayload `json:"channels"`
	IsOverride            bool            `json:"isOverride"`
	UpdatedAt             *time.Time      `json:"updatedAt,omitempty"`
}

func timeOfDayString(t *policy.TimeOfDay) *string {
	if t == nil {
		return nil
	}
	s := t.String()
	return &s
}

func globalPolicyResponse(p *policy.GlobalPolicy) PolicyResponse {
	return PolicyResponse{
		Level:                 p.LevelDefault,
		RepeatIntervalMinutes: p.RepeatIntervalMinutes,
		MaxRetries:            p.MaxRetries,
		EscalationEnabled:     p.EscalationEnabled,
		QuietHoursStart:       timeOfDayString(p.QuietHoursStart),
		QuietHoursEnd:         timeOfDayString(p.QuietHoursEnd),
		Channels:              channelsPayload(p.Channels),
		UpdatedAt:             &p.UpdatedAt,
	}
}

func effectivePolicyResponse(e policy.Effective) PolicyResponse {
	return PolicyResponse{
		Level:                 e.Level,
		RepeatIntervalMinutes: e.RepeatIntervalMinutes,
		MaxRetries:            e.MaxRetries,
		EscalationEnabled:     e.EscalationEnabled,
		QuietHoursStart:       timeOfDayString(e.QuietHoursStart),
		QuietHoursEnd:         timeOfDayString(e.QuietHoursEnd),
		Channels:              channelsPayload(e.Channels),
		IsOverride:            e.IsOverride,
	}
}

type StatsResponse struct {
	TotalChildren      int         `json:"totalChildren"`
	WithOverrides      int         `json:"withOverrides"`
	UsingGlobalDefault int         `json:"usingGlobalDefault"`
	GlobalLevel        int         `json:"globalLevel"`
	ByLevel            map[int]int `json:"byLevel"`
}

func statsResponse(s *app.PolicyStats) StatsResponse {
	return StatsResponse{
		TotalChildren:      s.TotalChildren,
		WithOverrides:      s.WithOverrides,
		UsingGlobalDefault: s.UsingGlobalDefault,
		GlobalLevel:        s.GlobalLevel,
		ByLevel:            s.ByLevel,
	}
}

// AssignmentRequest registers a pending task assignment with the engine.
type AssignmentRequest struct {
	TaskAssignmentID string `json:"taskAssignmentId" validate:"required,uuid4"`
	ChildID          string `json:"childId" validate:"required,uuid4"`
}

// CloseAssignmentRequest terminates reminders for an assignment.
type CloseAssignmentRequest struct {
	Cancelled bool `json:"cancelled"` // false = completed
}

type ReminderStateResponse struct {
	TaskAssignmentID string     `json:"taskAssignmentId"`
	ChildID          string     `json:"childId"`
	AttemptsSoFar    int        `json:"attemptsSoFar"`
	LastSentAt       *time.Time `json:"lastSentAt"`
	NextDueAt        time.Time  `json:"nextDueAt"`
	Status           string     `json:"status"`
}
