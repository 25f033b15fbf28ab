package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"task_reminder_engine/internal/domain/policy"
)

// Custom errors specific to the policy repository.
var ErrGlobalPolicyNotFound = fmt.Errorf("global notification policy not found")

// globalPolicyID pins the singleton row; the table has a CHECK (id = 1).
const globalPolicyID = 1

type PostgresPolicyRepository struct {
	db *sql.DB
}

func NewPostgresPolicyRepository(db *sql.DB) *PostgresPolicyRepository {
	return &PostgresPolicyRepository{db: db}
}

// EnsureGlobal inserts the bootstrap global policy if the singleton
// row does not exist yet. Called once at startup; a no-op afterwards.
func (r *PostgresPolicyRepository) EnsureGlobal(ctx context.Context) error {
	def := policy.DefaultGlobalPolicy()
	query := `INSERT INTO global_notification_policy
                (id, level_default, repeat_interval_minutes, max_retries, escalation_enabled,
                 quiet_hours_start, quiet_hours_end,
                 channel_in_app, channel_web_push, channel_mobile_push, channel_parent_escalation, updated_at)
               VALUES ($1, $2, $3, $4, $5, NULL, NULL, $6, $7, $8, $9, NOW())
               ON CONFLICT (id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, globalPolicyID,
		def.LevelDefault, def.RepeatIntervalMinutes, def.MaxRetries, def.EscalationEnabled,
		def.Channels.InApp, def.Channels.WebPush, def.Channels.MobilePush, def.Channels.ParentEscalation)
	if err != nil {
		return fmt.Errorf("error seeding global notification policy: %w", err)
	}
	return nil
}

func (r *PostgresPolicyRepository) GetGlobal(ctx context.Context) (*policy.GlobalPolicy, error) {
	query := `SELECT level_default, repeat_interval_minutes, max_retries, escalation_enabled,
                      quiet_hours_start, quiet_hours_end,
                      channel_in_app, channel_web_push, channel_mobile_push, channel_parent_escalation, updated_at
               FROM global_notification_policy WHERE id = $1`
	p := policy.GlobalPolicy{}
	var quietStart, quietEnd sql.NullString
	err := r.db.QueryRowContext(ctx, query, globalPolicyID).Scan(
		&p.LevelDefault, &p.RepeatIntervalMinutes, &p.MaxRetries, &p.EscalationEnabled,
		&quietStart, &quietEnd,
		&p.Channels.InApp, &p.Channels.WebPush, &p.Channels.MobilePush, &p.Channels.ParentEscalation,
		&p.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrGlobalPolicyNotFound
		}
		return nil, fmt.Errorf("error getting global notification policy: %w", err)
	}
	if p.QuietHoursStart, p.QuietHoursEnd, err = scanQuietHours(quietStart, quietEnd); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresPolicyRepository) PutGlobal(ctx context.Context, p *policy.GlobalPolicy) error {
	query := `INSERT INTO global_notification_policy
                (id, level_default, repeat_interval_minutes, max_retries, escalation_enabled,
                 quiet_hours_start, quiet_hours_end,
                 channel_in_app, channel_web_push, channel_mobile_push, channel_parent_escalation, updated_at)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
               ON CONFLICT (id) DO UPDATE SET
                 level_default = EXCLUDED.level_default,
                 repeat_interval_minutes = EXCLUDED.repeat_interval_minutes,
                 max_retries = EXCLUDED.max_retries,
                 escalation_enabled = EXCLUDED.escalation_enabled,
                 quiet_hours_start = EXCLUDED.quiet_hours_start,
                 quiet_hours_end = EXCLUDED.quiet_hours_end,
                 channel_in_app = EXCLUDED.channel_in_app,
                 channel_web_push = EXCLUDED.channel_web_push,
                 channel_mobile_push = EXCLUDED.channel_mobile_push,
                 channel_parent_escalation = EXCLUDED.channel_parent_escalation,
                 updated_at = NOW()
               RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query, globalPolicyID,
		p.LevelDefault, p.RepeatIntervalMinutes, p.MaxRetries, p.EscalationEnabled,
		quietHoursArg(p.QuietHoursStart), quietHoursArg(p.QuietHoursEnd),
		p.Channels.InApp, p.Channels.WebPush, p.Channels.MobilePush, p.Channels.ParentEscalation,
	).Scan(&p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error storing global notification policy: %w", err)
	}
	return nil
}

// GetOverride returns (nil, nil) when the child has no override row.
func (r *PostgresPolicyRepository) GetOverride(ctx context.Context, childID uuid.UUID) (*policy.ChildPolicyOverride, error) {
	query := `SELECT child_id, level, repeat_interval_minutes, max_retries, escalation_enabled,
                      quiet_hours_start, quiet_hours_end,
                      channel_in_app, channel_web_push, channel_mobile_push, channel_parent_escalation, updated_at
               FROM child_policy_overrides WHERE child_id = $1`
	o := policy.ChildPolicyOverride{}
	var quietStart, quietEnd sql.NullString
	err := r.db.QueryRowContext(ctx, query, childID).Scan(
		&o.ChildID, &o.Level, &o.RepeatIntervalMinutes, &o.MaxRetries, &o.EscalationEnabled,
		&quietStart, &quietEnd,
		&o.Channels.InApp, &o.Channels.WebPush, &o.Channels.MobilePush, &o.Channels.ParentEscalation,
		&o.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting policy override for child %s: %w", childID, err)
	}
	if o.QuietHoursStart, o.QuietHoursEnd, err = scanQuietHours(quietStart, quietEnd); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *PostgresPolicyRepository) PutOverride(ctx context.Context, o *policy.ChildPolicyOverride) error {
	query := `INSERT INTO child_policy_overrides
                (child_id, level, repeat_interval_minutes, max_retries, escalation_enabled,
                 quiet_hours_start, quiet_hours_end,
                 channel_in_app, channel_web_push, channel_mobile_push, channel_parent_escalation, updated_at)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
               ON CONFLICT (child_id) DO UPDATE SET
                 level = EXCLUDED.level,
                 repeat_interval_minutes = EXCLUDED.repeat_interval_minutes,
                 max_retries = EXCLUDED.max_retries,
                 escalation_enabled = EXCLUDED.escalation_enabled,
                 quiet_hours_start = EXCLUDED.quiet_hours_start,
                 quiet_hours_end = EXCLUDED.quiet_hours_end,
                 channel_in_app = EXCLUDED.channel_in_app,
                 channel_web_push = EXCLUDED.channel_web_push,
                 channel_mobile_push = EXCLUDED.channel_mobile_push,
                 channel_parent_escalation = EXCLUDED.channel_parent_escalation,
                 updated_at = NOW()
               RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query, o.ChildID,
		o.Level, o.RepeatIntervalMinutes, o.MaxRetries, o.EscalationEnabled,
		quietHoursArg(o.QuietHoursStart), quietHoursArg(o.QuietHoursEnd),
		o.Channels.InApp, o.Channels.WebPush, o.Channels.MobilePush, o.Channels.ParentEscalation,
	).Scan(&o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error storing policy override for child %s: %w", o.ChildID, err)
	}
	return nil
}

func (r *PostgresPolicyRepository) DeleteOverride(ctx context.Context, childID uuid.UUID) error {
	query := `DELETE FROM child_policy_overrides WHERE child_id = $1`
	if _, err := r.db.ExecContext(ctx, query, childID); err != nil {
		return fmt.Errorf("error deleting policy override for child %s: %w", childID, err)
	}
	return nil
}

// quietHoursArg converts an optional time of day to its nullable
// column value ("HH:MM" or NULL).
func quietHoursArg(t *policy.TimeOfDay) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.String(), Valid: true}
}

func scanQuietHours(start, end sql.NullString) (*policy.TimeOfDay, *policy.TimeOfDay, error) {
	parse := func(v sql.NullString) (*policy.TimeOfDay, error) {
		if !v.Valid {
			return nil, nil
		}
		t, err := policy.ParseTimeOfDay(v.String)
		if err != nil {
			return nil, fmt.Errorf("error parsing stored quiet hours value %q: %w", v.String, err)
		}
		return &t, nil
	}
	s, err := parse(start)
	if err != nil {
		return nil, nil, err
	}
	e, err := parse(end)
	if err != nil {
		return nil, nil, err
	}
	return s, e, nil
}
