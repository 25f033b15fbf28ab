package notifier

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"task_reminder_engine/internal/domain/child"
	"task_reminder_engine/internal/domain/policy"
)

// TelegramNotifier delivers parent-escalation intents to the child's
// parent over Telegram. The actual send runs on its own goroutine so
// Dispatch returns without blocking the scheduler tick; send failures
// are logged, not retried (transport-level retry lives with the
// provider, not here).
type TelegramNotifier struct {
	bot       *telebot.Bot
	childRepo child.Repository
	logger    *logrus.Logger
}

func NewTelegramNotifier(bot *telebot.Bot, childRepo child.Repository, logger *logrus.Logger) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, childRepo: childRepo, logger: logger}
}

func (n *TelegramNotifier) Dispatch(ctx context.Context, childID uuid.UUID, channel policy.Channel, taskAssignmentID uuid.UUID) error {
	if channel != policy.ChannelParentEscalation {
		return fmt.Errorf("telegram notifier only handles %s, got %s", policy.ChannelParentEscalation, channel)
	}

	c, err := n.childRepo.GetByID(ctx, childID)
	if err != nil {
		return fmt.Errorf("failed to load child %s for escalation: %w", childID, err)
	}
	if !c.ParentTelegramID.Valid {
		n.logger.WithField("child_id", childID).Warn("Escalation requested but parent has no Telegram chat linked")
		return nil
	}

	chatID := c.ParentTelegramID.Int64
	text := fmt.Sprintf("%s has an outstanding task that went unanswered after repeated reminders. Please check in with them.", c.DisplayName)

	go func() {
		recipient := &telebot.User{ID: chatID}
		if _, err := n.bot.Send(recipient, text, &telebot.SendOptions{}); err != nil {
			n.logger.WithError(err).WithFields(logrus.Fields{
				"child_id":           childID,
				"task_assignment_id": taskAssignmentID,
				"parent_chat_id":     chatID,
			}).Error("Failed to send Telegram escalation")
		}
	}()
	return nil
}
