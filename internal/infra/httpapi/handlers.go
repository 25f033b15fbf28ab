package httpapi

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"task_reminder_engine/internal/app"
	"task_reminder_engine/internal/domain/policy"
	"task_reminder_engine/internal/domain/reminder"
)

// PolicyController exposes the administrator control surface over the
// policy service.
type PolicyController struct {
	policySvc *app.PolicyService
	validate  *validator.Validate
	logger    *logrus.Logger
}

func NewPolicyController(policySvc *app.PolicyService, logger *logrus.Logger) *PolicyController {
	return &PolicyController{
		policySvc: policySvc,
		validate:  validator.New(),
		logger:    logger,
	}
}

// GET /api/admin/notification-policy
func (ctrl *PolicyController) GetGlobalPolicy(c *fiber.Ctx) error {
	p, err := ctrl.policySvc.GetGlobalPolicy(c.Context())
	if err != nil {
		ctrl.logger.WithError(err).Error("Failed to load global policy")
		return jsonError(c, fiber.StatusInternalServerError, "failed to load global policy")
	}
	return c.JSON(globalPolicyResponse(p))
}

// PUT /api/admin/notification-policy
func (ctrl *PolicyController) PutGlobalPolicy(c *fiber.Ctx) error {
	var req PolicyRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "malformed request body")
	}
	if err := ctrl.validate.Struct(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	}
	start, end, err := req.quietHours()
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	}

	updated, err := ctrl.policySvc.UpdateGlobalPolicy(c.Context(), policy.GlobalPolicy{
		LevelDefault:          req.Level,
		RepeatIntervalMinutes: req.RepeatIntervalMinutes,
		MaxRetries:            req.MaxRetries,
		EscalationEnabled:     req.EscalationEnabled,
		QuietHoursStart:       start,
		QuietHoursEnd:         end,
		Channels:              req.Channels.toDomain(),
	})
	if err != nil {
		return policyWriteError(c, ctrl.logger, err)
	}
	return c.JSON(globalPolicyResponse(updated))
}

// GET /api/admin/children/:childID/notification-policy
func (ctrl *PolicyController) GetChildPolicy(c *fiber.Ctx) error {
	childID, err := uuid.Parse(c.Params("childID"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid child id")
	}
	eff, err := ctrl.policySvc.GetChildPolicy(c.Context(), childID)
	if err != nil {
		ctrl.logger.WithError(err).Error("Failed to resolve child policy")
		return jsonError(c, fiber.StatusInternalServerError, "failed to resolve child policy")
	}
	return c.JSON(effectivePolicyResponse(eff))
}

// PUT /api/admin/children/:childID/notification-policy
func (ctrl *PolicyController) PutChildPolicy(c *fiber.Ctx) error {
	childID, err := uuid.Parse(c.Params("childID"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid child id")
	}
	var req PolicyRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "malformed request body")
	}
	if err := ctrl.validate.Struct(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	}
	start, end, err := req.quietHours()
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	}

	saved, err := ctrl.policySvc.UpsertOverride(c.Context(), policy.ChildPolicyOverride{
		ChildID:               childID,
		Level:                 req.Level,
		RepeatIntervalMinutes: req.RepeatIntervalMinutes,
		MaxRetries:            req.MaxRetries,
		EscalationEnabled:     req.EscalationEnabled,
		QuietHoursStart:       start,
		QuietHoursEnd:         end,
		Channels:              req.Channels.toDomain(),
	})
	if err != nil {
		return policyWriteError(c, ctrl.logger, err)
	}
	resp := PolicyResponse{
		Level:                 saved.Level,
		RepeatIntervalMinutes: saved.RepeatIntervalMinutes,
		MaxRetries:            saved.MaxRetries,
		EscalationEnabled:     saved.EscalationEnabled,
		QuietHoursStart:       timeOfDayString(saved.QuietHoursStart),
		QuietHoursEnd:         timeOfDayString(saved.QuietHoursEnd),
		Channels:              channelsPayload(saved.Channels),
		IsOverride:            true,
		UpdatedAt:             &saved.UpdatedAt,
	}
	return c.JSON(resp)
}

// DELETE /api/admin/children/:childID/notification-policy
func (ctrl *PolicyController) DeleteChildPolicy(c *fiber.Ctx) error {
	childID, err := uuid.Parse(c.Params("childID"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid child id")
	}
	if err := ctrl.policySvc.RemoveOverride(c.Context(), childID); err != nil {
		ctrl.logger.WithError(err).Error("Failed to remove child policy override")
		return jsonError(c, fiber.StatusInternalServerError, "failed to remove override")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GET /api/admin/notification-policy/stats
func (ctrl *PolicyController) GetStats(c *fiber.Ctx) error {
	stats, err := ctrl.policySvc.ComputeStats(c.Context())
	if err != nil {
		ctrl.logger.WithError(err).Error("Failed to compute policy stats")
		return jsonError(c, fiber.StatusInternalServerError, "failed to compute stats")
	}
	return c.JSON(statsResponse(stats))
}

// TaskController receives task lifecycle signals from the task domain
// service and exposes reminder state for inspection.
type TaskController struct {
	reminders *app.ReminderScheduler
}

func NewTaskController(reminders *app.ReminderScheduler) *TaskController {
	return &TaskController{reminders: reminders}
}

// POST /api/tasks/assignments
func (ctrl *TaskController) CreateAssignment(c *fiber.Ctx) error {
	var req AssignmentRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "malformed request body")
	}
	taskID, err := uuid.Parse(req.TaskAssignmentID)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid taskAssignmentId")
	}
	childID, err := uuid.Parse(req.ChildID)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid childId")
	}
	if err := ctrl.reminders.OnAssigned(c.Context(), taskID, childID); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to register assignment")
	}
	return c.SendStatus(fiber.StatusAccepted)
}

// POST /api/tasks/assignments/:taskAssignmentID/close
func (ctrl *TaskController) CloseAssignment(c *fiber.Ctx) error {
	taskID, err := uuid.Parse(c.Params("taskAssignmentID"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid task assignment id")
	}
	var req CloseAssignmentRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return jsonError(c, fiber.StatusBadRequest, "malformed request body")
	}
	status := reminder.StatusCompleted
	if req.Cancelled {
		status = reminder.StatusCancelled
	}
	if err := ctrl.reminders.OnCompletedOrCancelled(c.Context(), taskID, status); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to close assignment")
	}
	return c.SendStatus(fiber.StatusAccepted)
}

// GET /api/tasks/assignments/:taskAssignmentID/reminder
func (ctrl *TaskController) GetReminderState(c *fiber.Ctx) error {
	taskID, err := uuid.Parse(c.Params("taskAssignmentID"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid task assignment id")
	}
	st, ok := ctrl.reminders.StateOf(taskID)
	if !ok {
		return jsonError(c, fiber.StatusNotFound, "no reminder state for assignment")
	}
	return c.JSON(ReminderStateResponse{
		TaskAssignmentID: st.TaskAssignmentID.String(),
		ChildID:          st.ChildID.String(),
		AttemptsSoFar:    st.AttemptsSoFar,
		LastSentAt:       st.LastSentAt,
		NextDueAt:        st.NextDueAt,
		Status:           string(st.Status),
	})
}

func policyWriteError(c *fiber.Ctx, logger *logrus.Logger, err error) error {
	var vErr *policy.ValidationError
	switch {
	case errors.As(err, &vErr):
		return jsonError(c, fiber.StatusBadRequest, vErr.Error())
	case errors.Is(err, app.ErrUnknownChild):
		return jsonError(c, fiber.StatusNotFound, "child not found")
	default:
		logger.WithError(err).Error("Policy write failed")
		return jsonError(c, fiber.StatusInternalServerError, "policy write failed")
	}
}

func jsonError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}
