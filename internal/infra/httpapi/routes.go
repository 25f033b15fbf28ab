package httpapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"task_reminder_engine/internal/app"
)

// RegisterRoutes wires the admin policy surface and the task lifecycle
// hooks onto the fiber app.
func RegisterRoutes(api *fiber.App, policySvc *app.PolicyService, reminders *app.ReminderScheduler, logger *logrus.Logger) {
	policyCtrl := NewPolicyController(policySvc, logger)

	admin := api.Group("/api/admin")
	admin.Get("/notification-policy", policyCtrl.GetGlobalPolicy)
	admin.Put("/notification-policy", policyCtrl.PutGlobalPolicy)
	admin.Get("/notification-policy/stats", policyCtrl.GetStats)
	admin.Get("/children/:childID/notification-policy", policyCtrl.GetChildPolicy)
	admin.Put("/children/:childID/notification-policy", policyCtrl.PutChildPolicy)
	admin.Delete("/children/:childID/notification-policy", policyCtrl.DeleteChildPolicy)

	taskCtrl := NewTaskController(reminders)
	tasks := api.Group("/api/tasks")
	tasks.Post("/assignments", taskCtrl.CreateAssignment)
	tasks.Post("/assignments/:taskAssignmentID/close", taskCtrl.CloseAssignment)
	tasks.Get("/assignments/:taskAssignmentID/reminder", taskCtrl.GetReminderState)
}
