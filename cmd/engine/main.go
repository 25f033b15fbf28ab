package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"gopkg.in/telebot.v3"

	"task_reminder_engine/internal/app"
	"task_reminder_engine/internal/domain/notify"
	"task_reminder_engine/internal/domain/policy"
	"task_reminder_engine/internal/infra/config"
	idb "task_reminder_engine/internal/infra/database"
	"task_reminder_engine/internal/infra/httpapi"
	"task_reminder_engine/internal/infra/logger"
	"task_reminder_engine/internal/infra/notifier"
	"task_reminder_engine/internal/infra/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger is built from config, so config errors go to stderr.
		println("FATAL: could not load application configuration:", err.Error())
		os.Exit(1)
	}

	log := logger.New(cfg)
	log.WithField("environment", cfg.Environment).Info("Task reminder engine starting")

	// Database and repositories.
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to database: %v", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully.")

	policyRepo := idb.NewPostgresPolicyRepository(db)
	childRepo := idb.NewPostgresChildRepository(db)

	if err := policyRepo.EnsureGlobal(context.Background()); err != nil {
		log.Fatalf("FATAL: Could not seed global policy: %v", err)
	}
	log.Info("Global notification policy present.")

	// Services.
	resolver := policy.NewResolver(policyRepo)
	policySvc := app.NewPolicyService(policyRepo, childRepo, resolver, log)

	// Delivery: log transport for push channels; Telegram for parent
	// escalation when a token is configured.
	var dispatch notify.Notifier = notifier.NewLogNotifier(log)
	if cfg.TelegramToken != "" {
		bot, err := telebot.NewBot(telebot.Settings{
			Token:  cfg.TelegramToken,
			Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		})
		if err != nil {
			log.Fatalf("FATAL: Could not create Telegram bot: %v", err)
		}
		dispatch = notifier.NewRouter(
			notifier.NewLogNotifier(log),
			notifier.NewTelegramNotifier(bot, childRepo, log),
		)
		log.Info("Telegram escalation transport enabled.")
	} else {
		log.Warn("TELEGRAM_TOKEN not set; parent escalations will only be logged.")
	}

	reminders := app.NewReminderScheduler(resolver, dispatch, log,
		app.WithLocation(cfg.ReminderTimezone),
		app.WithWorkerCount(cfg.SchedulerWorkers),
	)

	reminderCron := scheduler.NewReminderCron(reminders, log,
		cfg.CronSpecReminderSweep, cfg.CronSpecArchive, cfg.ArchiveRetention)
	reminderCron.Start()

	// Admin API.
	api := fiber.New(fiber.Config{DisableStartupMessage: true})
	httpapi.RegisterRoutes(api, policySvc, reminders, log)
	go func() {
		log.WithField("addr", cfg.HTTPListenAddr).Info("Admin API listening")
		if err := api.Listen(cfg.HTTPListenAddr); err != nil {
			log.Fatalf("FATAL: Admin API server stopped: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down application...")
	reminderCron.Stop()
	if err := api.Shutdown(); err != nil {
		log.Errorf("Error during HTTP shutdown: %v", err)
	}
	log.Info("Application shut down gracefully.")
}
