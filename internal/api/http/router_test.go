package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/repository/memory"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/internal/storage"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)

type testServer struct {
	t      *testing.T
	app    *fiber.App
	tokens map[string]string
	ids    map[string]string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()
	store := memory.NewStore()
	blobs, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	metrics := observability.NewMetrics()
	revocations := auth.NewMemoryRevocationStore()

	authService := service.NewAuthService(config.AuthConfig{JWTSecret: "test", AccessTokenTTLMinutes: 5, BcryptCost: 4}, service.AuthDependencies{
		UserRepo:    store.Users(),
		Revocations: revocations,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		Store:      store,
		Blobs:      blobs,
		Dispatcher: events.NewInMemoryDispatcher(logger),
		Logger:     logger,
	})

	app := fiber.New(fiber.Config{ErrorHandler: NewErrorHandler(logger)})
	RegisterMiddlewares(app, logger, metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("helpdesk", "test", nil, nil, metrics),
		Users:          handlers.NewUsersHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Dashboard:      handlers.NewDashboardHandler(service.NewDashboardService(store)),
		Staff:          handlers.NewStaffHandler(ticketService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), store.Users(), revocations),
	})

	s := &testServer{t: t, app: app, tokens: map[string]string{}, ids: map[string]string{}}
	for name, role := range map[string]domain.Role{
		"employee": domain.RoleEmployee,
		"other":    domain.RoleEmployee,
		"john":     domain.RoleITStaff,
		"sarah":    domain.RoleITStaff,
		"manager":  domain.RoleITManager,
	} {
		user := &domain.User{Name: name, Email: name + "@servicedesk.com", Role: role}
		require.NoError(t, store.Users().Create(ctx, user))
		token, _, err := authService.TokenManager().GenerateToken(user.ID, user.Role)
		require.NoError(t, err)
		s.tokens[name] = token
		s.ids[name] = user.ID
	}
	return s
}

type response struct {
	status int
	header http.Header
	body   []byte
}

func (r response) json(t *testing.T) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(r.body, &out), string(r.body))
	return out
}

func (r response) errorMessage(t *testing.T) string {
	t.Helper()
	return r.json(t)["error"].(map[string]any)["message"].(string)
}

func (s *testServer) do(method, path, as string, body io.Reader, contentType string) response {
	s.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if as != "" {
		req.Header.Set("Authorization", "Bearer "+s.tokens[as])
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(s.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	return response{status: resp.StatusCode, header: resp.Header, body: data}
}

func (s *testServer) doJSON(method, path, as string, payload any) response {
	s.t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(s.t, err)
	return s.do(method, path, as, bytes.NewReader(data), fiber.MIMEApplicationJSON)
}

func (s *testServer) createTicket(as, title string, files map[string][]byte) response {
	s.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range map[string]string{
		"title":       title,
		"description": "Printer on floor 3 is offline",
		"priority":    "Tinggi",
		"department":  "Finance",
	} {
		require.NoError(s.t, w.WriteField(k, v))
	}
	for name, content := range files {
		part, err := w.CreateFormFile("attachments", name)
		require.NoError(s.t, err)
		_, err = part.Write(content)
		require.NoError(s.t, err)
	}
	require.NoError(s.t, w.Close())
	return s.do(http.MethodPost, "/tickets", as, &buf, w.FormDataContentType())
}

func data(t *testing.T, r response) map[string]any {
	t.Helper()
	return r.json(t)["data"].(map[string]any)
}

func TestTicketLifecycle(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(http.MethodGet, "/tickets", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.status)

	// only employees create
	resp = s.createTicket("manager", "Nope", nil)
	require.Equal(t, http.StatusForbidden, resp.status)
	assert.Equal(t, "Only employees can create tickets.", resp.errorMessage(t))
	resp = s.do(http.MethodGet, "/tickets/create", "john", nil, "")
	assert.Equal(t, http.StatusForbidden, resp.status)
	resp = s.do(http.MethodGet, "/tickets/create", "employee", nil, "")
	require.Equal(t, http.StatusOK, resp.status)
	assert.Len(t, data(t, resp)["priorities"], 3)

	resp = s.createTicket("employee", "Printer offline", map[string][]byte{"photo.png": pngBytes})
	require.Equal(t, http.StatusCreated, resp.status, string(resp.body))
	ticket := data(t, resp)
	id := ticket["id"].(string)
	assert.Equal(t, "pending", ticket["status"])
	assert.Nil(t, ticket["assigned_to"])
	assert.Equal(t, "High", ticket["priority_label"])
	attachments := ticket["attachments"].([]any)
	require.Len(t, attachments, 1)
	attachment := attachments[0].(map[string]any)
	assert.Equal(t, "image/png", attachment["mime_type"])
	assert.Equal(t, "80 B", attachment["human_size"])

	// visibility
	resp = s.do(http.MethodGet, "/tickets/"+id, "other", nil, "")
	require.Equal(t, http.StatusForbidden, resp.status)
	assert.Equal(t, "You can only view your own tickets.", resp.errorMessage(t))
	resp = s.do(http.MethodGet, "/tickets/"+id, "john", nil, "")
	require.Equal(t, http.StatusForbidden, resp.status)
	assert.Equal(t, "You can only view tickets assigned to you.", resp.errorMessage(t))
	resp = s.do(http.MethodGet, "/tickets/"+id, "manager", nil, "")
	require.Equal(t, http.StatusOK, resp.status)
	assert.Len(t, data(t, resp)["it_staff"], 2)

	// download
	resp = s.do(http.MethodGet, attachment["download_url"].(string), "employee", nil, "")
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, pngBytes, resp.body)
	assert.Equal(t, "image/png", resp.header.Get("Content-Type"))
	assert.Contains(t, resp.header.Get("Content-Disposition"), "photo.png")
	resp = s.do(http.MethodGet, attachment["download_url"].(string), "other", nil, "")
	assert.Equal(t, http.StatusForbidden, resp.status)

	// assignment
	resp = s.doJSON(http.MethodPatch, "/tickets/"+id, "employee", map[string]any{"status": "finished"})
	require.Equal(t, http.StatusForbidden, resp.status)
	assert.Equal(t, "You cannot edit tickets.", resp.errorMessage(t))
	resp = s.doJSON(http.MethodPatch, "/tickets/"+id, "manager", map[string]any{"status": "in_progress", "assigned_to": s.ids["john"]})
	require.Equal(t, http.StatusOK, resp.status, string(resp.body))
	assert.Equal(t, s.ids["john"], data(t, resp)["assigned_to"])

	resp = s.do(http.MethodGet, "/tickets", "john", nil, "")
	require.Equal(t, http.StatusOK, resp.status)
	assert.Len(t, resp.json(t)["data"], 1)
	resp = s.do(http.MethodGet, "/tickets", "sarah", nil, "")
	assert.Empty(t, resp.json(t)["data"])

	// staff cannot reassign
	resp = s.doJSON(http.MethodPatch, "/tickets/"+id, "john", map[string]any{"status": "finished", "assigned_to": s.ids["sarah"]})
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "finished", data(t, resp)["status"])
	assert.Equal(t, s.ids["john"], data(t, resp)["assigned_to"])

	resp = s.doJSON(http.MethodPatch, "/tickets/"+id, "manager", map[string]any{"status": "closed"})
	require.Equal(t, http.StatusBadRequest, resp.status)
	errBody := resp.json(t)["error"].(map[string]any)
	assert.Equal(t, "VALIDATION_FAILED", errBody["code"])
	assert.Contains(t, errBody["details"], "status")

	resp = s.doJSON(http.MethodPatch, "/tickets/"+id, "manager", map[string]any{"status": "pending", "assigned_to": s.ids["other"]})
	require.Equal(t, http.StatusBadRequest, resp.status)

	// form-encoded unassign
	resp = s.do(http.MethodPatch, "/tickets/"+id, "manager", strings.NewReader("status=pending&assigned_to="), fiber.MIMEApplicationForm)
	require.Equal(t, http.StatusOK, resp.status, string(resp.body))
	assert.Nil(t, data(t, resp)["assigned_to"])

	// delete
	resp = s.do(http.MethodDelete, "/tickets/"+id, "john", nil, "")
	require.Equal(t, http.StatusForbidden, resp.status)
	assert.Equal(t, "Only IT managers can delete tickets.", resp.errorMessage(t))
	resp = s.do(http.MethodDelete, "/tickets/"+id, "manager", nil, "")
	require.Equal(t, http.StatusNoContent, resp.status)
	resp = s.do(http.MethodGet, "/tickets/"+id, "manager", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.status)
}

func TestCreateTicketValidationErrors(t *testing.T) {
	s := newTestServer(t)

	resp := s.doJSON(http.MethodPost, "/tickets", "employee", map[string]any{"priority": "Urgent"})
	require.Equal(t, http.StatusBadRequest, resp.status)
	details := resp.json(t)["error"].(map[string]any)["details"].(map[string]any)
	assert.Equal(t, "Ticket title is required.", details["title"])
	assert.Equal(t, "Priority must be one of: Rendah, Sedang, Tinggi.", details["priority"])

	resp = s.createTicket("employee", "Virus", map[string][]byte{"tool.exe": []byte("MZ\x90\x00")})
	require.Equal(t, http.StatusBadRequest, resp.status)
	details = resp.json(t)["error"].(map[string]any)["details"].(map[string]any)
	assert.Equal(t, "Attachments must be: jpeg, png, jpg, gif, pdf, doc, docx.", details["attachments.0"])

	resp = s.do(http.MethodGet, "/tickets", "employee", nil, "")
	assert.Empty(t, resp.json(t)["data"])
}

func TestDashboardAndStaff(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.createTicket("employee", "One", nil).status)
	require.Equal(t, http.StatusCreated, s.createTicket("other", "Two", nil).status)

	resp := s.do(http.MethodGet, "/dashboard", "employee", nil, "")
	require.Equal(t, http.StatusOK, resp.status)
	dash := data(t, resp)
	assert.Equal(t, "employee", dash["user_role"])
	assert.Equal(t, float64(1), dash["statistics"].(map[string]any)["total_tickets"])
	assert.NotContains(t, dash, "additional_stats")

	resp = s.do(http.MethodGet, "/dashboard", "manager", nil, "")
	require.Equal(t, http.StatusOK, resp.status)
	dash = data(t, resp)
	assert.Equal(t, float64(2), dash["statistics"].(map[string]any)["total_tickets"])
	extra := dash["additional_stats"].(map[string]any)
	assert.Equal(t, float64(2), extra["unassigned_tickets"])
	assert.Equal(t, float64(2), extra["total_employees"])
	assert.Equal(t, float64(2), extra["total_it_staff"])
	assert.Equal(t, float64(2), extra["tickets_by_priority"].(map[string]any)["Tinggi"])

	resp = s.do(http.MethodGet, "/staff", "employee", nil, "")
	assert.Equal(t, http.StatusForbidden, resp.status)
	resp = s.do(http.MethodGet, "/staff", "manager", nil, "")
	require.Equal(t, http.StatusOK, resp.status)
	assert.Len(t, resp.json(t)["data"], 2)
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	resp := s.doJSON(http.MethodPost, "/auth/register", "", map[string]any{
		"name": "Dana", "email": "dana@example.com", "password": "password",
	})
	require.Equal(t, http.StatusCreated, resp.status, string(resp.body))
	session := data(t, resp)
	assert.Equal(t, "employee", session["user"].(map[string]any)["role"])

	resp = s.doJSON(http.MethodPost, "/auth/login", "", map[string]any{"email": "dana@example.com", "password": "bad"})
	assert.Equal(t, http.StatusUnauthorized, resp.status)

	resp = s.doJSON(http.MethodPost, "/auth/login", "", map[string]any{"email": "dana@example.com", "password": "password"})
	require.Equal(t, http.StatusOK, resp.status)
	s.tokens["dana"] = data(t, resp)["auth"].(map[string]any)["token"].(string)

	resp = s.do(http.MethodGet, "/auth/me", "dana", nil, "")
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "dana@example.com", data(t, resp)["email"])

	resp = s.do(http.MethodPost, "/auth/logout", "dana", nil, "")
	require.Equal(t, http.StatusNoContent, resp.status)
	resp = s.do(http.MethodGet, "/auth/me", "dana", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.status)
}

func TestHealthAndUnknownRoutes(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(http.MethodGet, "/health/ready", "", nil, "")
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "disabled", resp.json(t)["dependencies"].(map[string]any)["postgres"])

	resp = s.do(http.MethodGet, "/nope", "", nil, "")
	require.Equal(t, http.StatusNotFound, resp.status)
	assert.Equal(t, "NOT_FOUND", resp.json(t)["error"].(map[string]any)["code"])

	resp = s.do(http.MethodGet, "/metrics", "", nil, "")
	require.Equal(t, http.StatusOK, resp.status)
	assert.Contains(t, resp.json(t), "requests")
}
