package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/devagent/orchestrator/internal/auth"
	"github.com/devagent/orchestrator/internal/middleware"
)

func whoami(c *fiber.Ctx) error {
	return c.SendString(middleware.GetUserID(c))
}

func get(t *testing.T, app *fiber.App, header map[string]string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	buf := make([]byte, 256)
	n, _ := resp.Body.Read(buf)
	return resp.StatusCode, string(buf[:n])
}

func TestAuthenticate(t *testing.T) {
	app := fiber.New()
	app.Get("/", middleware.NewAuthMiddleware(&auth.Authenticator{Secret: "s3cret"}).Authenticate(), whoami)
	token, err := auth.IssueLegacyToken("s3cret", "user-7", "", time.Hour)
	require.NoError(t, err)

	status, body := get(t, app, map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "user-7", body)

	status, _ = get(t, app, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = get(t, app, map[string]string{"Authorization": "Token " + token})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAuthenticate_NotConfigured(t *testing.T) {
	app := fiber.New()
	app.Get("/", middleware.NewAuthMiddleware(&auth.Authenticator{}).Authenticate(), whoami)

	status, body := get(t, app, map[string]string{"Authorization": "Bearer abc"})

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, body, "not configured")
}

func TestGatewayAuth(t *testing.T) {
	app := fiber.New()
	app.Get("/", middleware.GatewayAuthMiddleware(), whoami)

	status, body := get(t, app, map[string]string{"X-User-Id": "gw-user"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "gw-user", body)

	status, _ = get(t, app, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRateLimiter_FailsOpenWithoutRedis(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	defer rdb.Close()
	rl := middleware.NewRateLimiter(rdb, zap.NewNop())

	app := fiber.New()
	app.Get("/", middleware.GatewayAuthMiddleware(), rl.APILimit(1), whoami)

	for i := 0; i < 3; i++ {
		status, _ := get(t, app, map[string]string{"X-User-Id": "u"})
		assert.Equal(t, http.StatusOK, status)
	}
}
