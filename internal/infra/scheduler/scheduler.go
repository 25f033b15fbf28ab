package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"task_reminder_engine/internal/app"
)

// ReminderCron drives the reminder engine: a frequent sweep job that
// processes due reminder states, and a daily archive job that prunes
// terminal states and logs the exhausted-state audit count.
type ReminderCron struct {
	cronEngine       *cron.Cron
	reminders        *app.ReminderScheduler
	logger           *logrus.Logger
	cronSpecSweep    string
	cronSpecArchive  string
	archiveRetention time.Duration
}

func NewReminderCron(
	reminders *app.ReminderScheduler,
	logger *logrus.Logger,
	cronSpecSweep string, // e.g. "* * * * *" (every minute)
	cronSpecArchive string, // e.g. "0 3 * * *" (daily at 03:00)
	archiveRetention time.Duration,
) *ReminderCron {
	return &ReminderCron{
		cronEngine:       cron.New(cron.WithLocation(time.Local)),
		reminders:        reminders,
		logger:           logger,
		cronSpecSweep:    cronSpecSweep,
		cronSpecArchive:  cronSpecArchive,
		archiveRetention: archiveRetention,
	}
}

func (s *ReminderCron) Start() {
	s.logger.Info("Starting reminder cron driver...")

	_, err := s.cronEngine.AddFunc(s.cronSpecSweep, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 55*time.Second)
		defer cancel()
		s.reminders.ProcessDueReminders(ctx)
	})
	if err != nil {
		s.logger.Fatalf("FATAL: Could not add due-reminder sweep cron job: %v", err)
	}

	_, err = s.cronEngine.AddFunc(s.cronSpecArchive, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		s.reminders.ArchiveTerminalStates(ctx, s.archiveRetention)
	})
	if err != nil {
		s.logger.Fatalf("FATAL: Could not add terminal-state archive cron job: %v", err)
	}

	s.cronEngine.Start()
	s.logger.Info("Reminder cron driver started with jobs.")
}

func (s *ReminderCron) Stop() {
	s.logger.Info("Stopping reminder cron driver...")
	ctx := s.cronEngine.Stop() // Waits for running jobs.
	<-ctx.Done()
	s.logger.Info("Reminder cron driver gracefully stopped.")
}
