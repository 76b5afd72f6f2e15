package server_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/devagent/orchestrator/internal/auth"
	"github.com/devagent/orchestrator/internal/config"
	"github.com/devagent/orchestrator/internal/handler"
	"github.com/devagent/orchestrator/internal/metrics"
	"github.com/devagent/orchestrator/internal/server"
	"github.com/devagent/orchestrator/internal/service"
	"github.com/devagent/orchestrator/internal/testutil"
	ws "github.com/devagent/orchestrator/internal/websocket"
)

const secret = "test-secret"

type harness struct {
	app        *fiber.App
	dispatcher *testutil.RecordingDispatcher
	token      string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	repo := testutil.NewRepository(t)
	reg := prometheus.NewRegistry()
	dispatcher := &testutil.RecordingDispatcher{}
	orchestrator := service.NewOrchestratorService(service.OrchestratorConfig{
		Repo:       repo,
		Dispatcher: dispatcher,
		Metrics:    metrics.New(reg),
	})

	cfg := &config.Config{}
	cfg.Server.Env = "test"
	cfg.JWT.Secret = secret

	app := server.New(server.Deps{
		Config:        cfg,
		Log:           zap.NewNop(),
		Projects:      service.NewProjectService(repo),
		Orchestrator:  orchestrator,
		Authenticator: &auth.Authenticator{Secret: secret},
		Hub:           ws.NewHub(nil),
		Health:        handler.NewHealthHandler(repo, nil, "mock", "local"),
		Gatherer:      reg,
	})
	return &harness{app: app, dispatcher: dispatcher, token: tokenFor(t, "user-1")}
}

func tokenFor(t *testing.T, userID string) string {
	t.Helper()
	tok, err := auth.IssueLegacyToken(secret, userID, userID+"@example.com", time.Hour)
	require.NoError(t, err)
	return tok
}

func (h *harness) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func (h *harness) createPipeline(t *testing.T) (projectID, pipelineID string, stages []any) {
	t.Helper()
	status, body := h.do(t, http.MethodPost, "/api/projects", h.token, map[string]any{"name": "Acme Portal"})
	require.Equal(t, http.StatusCreated, status)
	projectID = body["project"].(map[string]any)["id"].(string)

	status, body = h.do(t, http.MethodPost, "/api/pipelines", h.token, map[string]any{"projectId": projectID})
	require.Equal(t, http.StatusCreated, status)
	pipelineID = body["pipeline"].(map[string]any)["id"].(string)
	return projectID, pipelineID, body["stages"].([]any)
}

func TestHealth(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["store"])
	assert.Equal(t, "disabled", body["redis"])
}

func TestMetricsExposed(t *testing.T) {
	h := newHarness(t)
	h.createPipeline(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "devagent_")
}

func TestSwaggerDoc(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil)
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var doc struct {
		Paths map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	assert.Contains(t, doc.Paths["/api/pipelines/{pipelineId}/contracts"], "post")
	assert.Contains(t, doc.Paths["/api/contracts/{contractId}/status"], "patch")
	assert.Contains(t, doc.Paths["/api/pipelines/{pipelineId}/stages/{stageId}"], "patch")
}

func TestAPI_RequiresAuth(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(t, http.MethodGet, "/api/projects", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))

	status, _ = h.do(t, http.MethodGet, "/api/projects", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAuthVerify(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/verify", nil)
	req.Header.Set("Authorization", "Bearer "+h.token)
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "user-1", resp.Header.Get("X-User-Id"))

	status, _ := h.do(t, http.MethodGet, "/auth/verify", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestPipelineFlow(t *testing.T) {
	h := newHarness(t)
	projectID, pipelineID, stages := h.createPipeline(t)
	require.Len(t, stages, 6)

	status, body := h.do(t, http.MethodPost, "/api/pipelines/"+pipelineID+"/contracts", h.token, map[string]any{
		"agent":     "Backend Engineer",
		"objective": "Build the users API",
		"input":     map[string]any{"framework": "Express"},
	})
	require.Equal(t, http.StatusCreated, status)
	contract := body["contract"].(map[string]any)
	assert.Equal(t, "draft", contract["status"])
	contractID := contract["id"].(string)
	assert.Len(t, h.dispatcher.For(contractID), 1)

	status, body = h.do(t, http.MethodGet, "/api/pipelines/"+pipelineID, h.token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["contracts"], 1)
	assert.Len(t, body["stages"], 6)

	status, body = h.do(t, http.MethodGet, "/api/projects/"+projectID+"/pipelines", h.token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["pipelines"], 1)

	stageID := stages[0].(map[string]any)["id"].(string)
	status, body = h.do(t, http.MethodPatch, "/api/pipelines/"+pipelineID+"/stages/"+stageID, h.token, map[string]any{"status": "in_progress"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "in_progress", body["stage"].(map[string]any)["status"])

	status, body = h.do(t, http.MethodPost, "/api/contracts/"+contractID+"/reviews", h.token, map[string]any{
		"reviewer": "lead",
		"notes":    "looks fine",
		"status":   "approved",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "approved", body["review"].(map[string]any)["status"])
}

func TestContract_Errors(t *testing.T) {
	h := newHarness(t)
	_, pipelineID, _ := h.createPipeline(t)

	status, body := h.do(t, http.MethodPost, "/api/pipelines/"+pipelineID+"/contracts", h.token, map[string]any{
		"agent":     "Astrologer",
		"objective": "Read the stars",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "UNKNOWN_AGENT", errorCode(body))

	status, body = h.do(t, http.MethodPost, "/api/pipelines/"+pipelineID+"/contracts", h.token, map[string]any{"agent": "Backend"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(body))

	status, body = h.do(t, http.MethodPost, "/api/pipelines/00000000-0000-0000-0000-000000000000/contracts", h.token, map[string]any{
		"agent":     "Backend",
		"objective": "Build it",
	})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))

	status, body = h.do(t, http.MethodPost, "/api/pipelines/"+pipelineID+"/contracts", h.token, map[string]any{
		"agent":     "Backend",
		"objective": "Build it",
	})
	require.Equal(t, http.StatusCreated, status)
	contractID := body["contract"].(map[string]any)["id"].(string)

	status, body = h.do(t, http.MethodPatch, "/api/contracts/"+contractID+"/status", h.token, map[string]any{"status": "approved"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INVALID_TRANSITION", errorCode(body))

	status, body = h.do(t, http.MethodPatch, "/api/contracts/"+contractID+"/status", h.token, map[string]any{"status": "done"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(body))

	status, body = h.do(t, http.MethodPatch, "/api/contracts/"+contractID+"/status", h.token, map[string]any{"status": "in_progress"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "in_progress", body["contract"].(map[string]any)["status"])
}

func TestProjects_OwnerScoped(t *testing.T) {
	h := newHarness(t)
	projectID, _, _ := h.createPipeline(t)
	other := tokenFor(t, "user-2")

	status, _ := h.do(t, http.MethodGet, "/api/projects/"+projectID, other, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = h.do(t, http.MethodPost, "/api/pipelines", other, map[string]any{"projectId": projectID})
	assert.Equal(t, http.StatusNotFound, status)

	status, body := h.do(t, http.MethodGet, "/api/projects", other, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["projects"])

	status, body = h.do(t, http.MethodPatch, "/api/projects/"+projectID, h.token, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(body))

	status, _ = h.do(t, http.MethodDelete, "/api/projects/"+projectID, h.token, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = h.do(t, http.MethodGet, "/api/projects/"+projectID, h.token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestWebSocket_RequiresUpgrade(t *testing.T) {
	h := newHarness(t)
	_, pipelineID, _ := h.createPipeline(t)

	status, _ := h.do(t, http.MethodGet, "/ws/pipelines/"+pipelineID, "", nil)

	assert.Equal(t, http.StatusUpgradeRequired, status)
}
