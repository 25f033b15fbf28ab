package notify

import (
	"context"

	"github.com/google/uuid"

	"task_reminder_engine/internal/domain/policy"
)

// Notifier consumes dispatch intents and performs actual delivery.
// The scheduler treats dispatch as fire-and-forget: it never retries a
// failed dispatch (channel-level retry is the transport's concern) and
// advances its own state regardless of the returned error.
// Implementations must return promptly without blocking on network
// I/O; transports that need it should queue the send internally.
type Notifier interface {
	Dispatch(ctx context.Context, childID uuid.UUID, channel policy.Channel, taskAssignmentID uuid.UUID) error
}
