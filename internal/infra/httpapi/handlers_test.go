package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task_reminder_engine/internal/app"
	"task_reminder_engine/internal/domain/child"
	"task_reminder_engine/internal/domain/policy"
	"task_reminder_engine/internal/infra/database"
	"task_reminder_engine/internal/infra/httpapi"
	"task_reminder_engine/internal/infra/notifier"
)

type testEnv struct {
	api       *fiber.App
	childRepo *database.InMemoryChildRepository
}

func newTestAPI(t *testing.T) *testEnv {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	policyRepo := database.NewInMemoryPolicyRepository()
	childRepo := database.NewInMemoryChildRepository()
	resolver := policy.NewResolver(policyRepo)
	policySvc := app.NewPolicyService(policyRepo, childRepo, resolver, log)
	reminders := app.NewReminderScheduler(resolver, notifier.NewLogNotifier(log), log)

	api := fiber.New()
	httpapi.RegisterRoutes(api, policySvc, reminders, log)
	return &testEnv{api: api, childRepo: childRepo}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.api.Test(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestGetGlobalPolicy_Defaults(t *testing.T) {
	env := newTestAPI(t)

	resp := env.do(t, http.MethodGet, "/api/admin/notification-policy", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decode[httpapi.PolicyResponse](t, resp)
	assert.Equal(t, 1, got.Level)
	assert.Equal(t, 5, got.RepeatIntervalMinutes)
	assert.Equal(t, 0, got.MaxRetries)
	assert.True(t, got.Channels.InApp)
	assert.Nil(t, got.QuietHoursStart)
}

func TestPutGlobalPolicy_RoundTrip(t *testing.T) {
	env := newTestAPI(t)
	start, end := "22:00", "06:30"

	resp := env.do(t, http.MethodPut, "/api/admin/notification-policy", httpapi.PolicyRequest{
		Level:                 3,
		RepeatIntervalMinutes: 20,
		MaxRetries:            4,
		EscalationEnabled:     true,
		QuietHoursStart:       &start,
		QuietHoursEnd:         &end,
		Channels:              httpapi.ChannelsPayload{InApp: true, ParentEscalation: true},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/admin/notification-policy", nil)
	got := decode[httpapi.PolicyResponse](t, resp)
	assert.Equal(t, 3, got.Level)
	assert.Equal(t, 20, got.RepeatIntervalMinutes)
	require.NotNil(t, got.QuietHoursStart)
	assert.Equal(t, "22:00", *got.QuietHoursStart)
	require.NotNil(t, got.QuietHoursEnd)
	assert.Equal(t, "06:30", *got.QuietHoursEnd)
	assert.True(t, got.Channels.ParentEscalation)
}

func TestPutGlobalPolicy_Validation(t *testing.T) {
	env := newTestAPI(t)

	// Out-of-range level is caught regardless of client-side form limits.
	resp := env.do(t, http.MethodPut, "/api/admin/notification-policy", httpapi.PolicyRequest{
		Level:                 7,
		RepeatIntervalMinutes: 20,
		Channels:              httpapi.ChannelsPayload{InApp: true},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Partially configured quiet hours are invalid.
	start := "22:00"
	resp = env.do(t, http.MethodPut, "/api/admin/notification-policy", httpapi.PolicyRequest{
		Level:                 2,
		RepeatIntervalMinutes: 20,
		QuietHoursStart:       &start,
		Channels:              httpapi.ChannelsPayload{InApp: true},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChildPolicyLifecycle(t *testing.T) {
	env := newTestAPI(t)
	c := &child.Child{DisplayName: "Sam", IsActive: true}
	require.NoError(t, env.childRepo.Create(context.Background(), c))
	base := "/api/admin/children/" + c.ID.String() + "/notification-policy"

	// Inherits global before any override exists.
	resp := env.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[httpapi.PolicyResponse](t, resp)
	assert.False(t, got.IsOverride)

	resp = env.do(t, http.MethodPut, base, httpapi.PolicyRequest{
		Level:                 4,
		RepeatIntervalMinutes: 10,
		MaxRetries:            2,
		Channels:              httpapi.ChannelsPayload{MobilePush: true},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, base, nil)
	got = decode[httpapi.PolicyResponse](t, resp)
	assert.True(t, got.IsOverride)
	assert.Equal(t, 4, got.Level)

	// Reset to default removes the override.
	resp = env.do(t, http.MethodDelete, base, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.do(t, http.MethodGet, base, nil)
	got = decode[httpapi.PolicyResponse](t, resp)
	assert.False(t, got.IsOverride)
}

func TestPutChildPolicy_UnknownChild(t *testing.T) {
	env := newTestAPI(t)

	resp := env.do(t, http.MethodPut, "/api/admin/children/"+uuid.NewString()+"/notification-policy", httpapi.PolicyRequest{
		Level:                 2,
		RepeatIntervalMinutes: 10,
		Channels:              httpapi.ChannelsPayload{InApp: true},
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStatsEndpoint(t *testing.T) {
	env := newTestAPI(t)
	a := &child.Child{DisplayName: "Ana", IsActive: true}
	b := &child.Child{DisplayName: "Ben", IsActive: true}
	require.NoError(t, env.childRepo.Create(context.Background(), a))
	require.NoError(t, env.childRepo.Create(context.Background(), b))

	resp := env.do(t, http.MethodPut, "/api/admin/children/"+a.ID.String()+"/notification-policy", httpapi.PolicyRequest{
		Level:                 4,
		RepeatIntervalMinutes: 10,
		Channels:              httpapi.ChannelsPayload{InApp: true},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/admin/notification-policy/stats", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stats := decode[httpapi.StatsResponse](t, resp)

	assert.Equal(t, 2, stats.TotalChildren)
	assert.Equal(t, 1, stats.WithOverrides)
	assert.Equal(t, 1, stats.UsingGlobalDefault)
	assert.Equal(t, 1, stats.GlobalLevel)
}

func TestTaskLifecycleEndpoints(t *testing.T) {
	env := newTestAPI(t)
	taskID, childID := uuid.New(), uuid.New()

	resp := env.do(t, http.MethodPost, "/api/tasks/assignments", httpapi.AssignmentRequest{
		TaskAssignmentID: taskID.String(),
		ChildID:          childID.String(),
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/tasks/assignments/"+taskID.String()+"/reminder", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	st := decode[httpapi.ReminderStateResponse](t, resp)
	assert.Equal(t, "PENDING", st.Status)
	assert.Equal(t, 0, st.AttemptsSoFar)

	resp = env.do(t, http.MethodPost, "/api/tasks/assignments/"+taskID.String()+"/close", httpapi.CloseAssignmentRequest{Cancelled: true})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/tasks/assignments/"+taskID.String()+"/reminder", nil)
	st = decode[httpapi.ReminderStateResponse](t, resp)
	assert.Equal(t, "CANCELLED", st.Status)

	resp = env.do(t, http.MethodGet, "/api/tasks/assignments/"+uuid.NewString()+"/reminder", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
