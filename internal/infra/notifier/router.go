package notifier

import (
	"context"

	"github.com/google/uuid"

	"task_reminder_engine/internal/domain/notify"
	"task_reminder_engine/internal/domain/policy"
)

// Router splits the intent stream by channel: parent escalations go to
// the escalation transport, everything else to the delivery transport.
type Router struct {
	delivery   notify.Notifier
	escalation notify.Notifier
}

func NewRouter(delivery, escalation notify.Notifier) *Router {
	return &Router{delivery: delivery, escalation: escalation}
}

func (r *Router) Dispatch(ctx context.Context, childID uuid.UUID, channel policy.Channel, taskAssignmentID uuid.UUID) error {
	if channel == policy.ChannelParentEscalation {
		return r.escalation.Dispatch(ctx, childID, channel, taskAssignmentID)
	}
	return r.delivery.Dispatch(ctx, childID, channel, taskAssignmentID)
}
