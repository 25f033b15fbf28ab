package notifier

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"task_reminder_engine/internal/domain/policy"
)

// LogNotifier records dispatch intents in the log. It stands in for
// the in-app/web/mobile push transports, which are operated outside
// this service and fed from the same intent stream.
type LogNotifier struct {
	logger *logrus.Logger
}

func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Dispatch(ctx context.Context, childID uuid.UUID, channel policy.Channel, taskAssignmentID uuid.UUID) error {
	n.logger.WithFields(logrus.Fields{
		"child_id":           childID,
		"channel":            channel,
		"task_assignment_id": taskAssignmentID,
	}).Info("Dispatch intent emitted")
	return nil
}
