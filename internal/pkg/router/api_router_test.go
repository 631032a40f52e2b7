package router

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utnautiub/nuoi-buituantu/app/controllers"
	"github.com/utnautiub/nuoi-buituantu/app/repository"
	"github.com/utnautiub/nuoi-buituantu/internal/pkg/ingest"
	"github.com/utnautiub/nuoi-buituantu/internal/pkg/ledger"
	"github.com/utnautiub/nuoi-buituantu/internal/pkg/memo"
	"github.com/utnautiub/nuoi-buituantu/internal/pkg/sepay"
	"github.com/utnautiub/nuoi-buituantu/internal/pkg/subscription"
	"github.com/utnautiub/nuoi-buituantu/internal/pkg/testdb"
	"github.com/utnautiub/nuoi-buituantu/internal/pkg/usercode"
)

const (
	webhookSecret = "hook-secret"
	adminKey      = "admin-key"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	repos := repository.NewRepositories(testdb.New(t))
	parser := memo.NewParser(memo.DefaultCodePrefix, memo.DefaultKeywords)
	resolver := usercode.NewResolver(repos.UserCode, parser.CodePrefix())
	donations := ledger.New(repos.Donation)
	machine := subscription.NewMachine(repos.Subscription)

	orch := ingest.NewOrchestrator(webhookSecret, ingest.Dependencies{
		Ledger:        donations,
		Users:         resolver,
		Subscriptions: machine,
		Parser:        parser,
		Deliveries:    sepay.NewDeliveryLog(repos.WebhookDelivery),
	})

	app := fiber.New()
	InstallRouter(app, Services{
		Webhook:     controllers.NewWebhookController(orch),
		Admin:       controllers.NewAdminAPIController(resolver, parser, donations, machine, nil),
		AdminAPIKey: adminKey,
	})
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string, headers map[string]string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func webhookBody(id int, amount int, content, date string) string {
	b, _ := json.Marshal(map[string]any{
		"id":              id,
		"gateway":         "Vietcombank",
		"transactionDate": date,
		"accountNumber":   "0123499999",
		"content":         content,
		"transferType":    "in",
		"transferAmount":  amount,
		"referenceCode":   "FT1",
	})
	return string(b)
}

var hookAuth = map[string]string{"Authorization": "Apikey " + webhookSecret}
var adminAuth = map[string]string{"X-API-Key": adminKey}

func TestWebhookStatusCodes(t *testing.T) {
	app := newTestApp(t)
	body := webhookBody(1, 50000, "NGUYEN VAN A chuyen tien", "2025-12-19 23:36:00")

	status, out := do(t, app, http.MethodPost, "/api/webhook/sepay", body, hookAuth)
	assert.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, false, out["duplicate"])

	status, out = do(t, app, http.MethodPost, "/api/webhook/sepay", body, hookAuth)
	assert.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, true, out["duplicate"])

	status, _ = do(t, app, http.MethodPost, "/api/webhook/sepay", body, map[string]string{"Authorization": "Apikey wrong"})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = do(t, app, http.MethodPost, "/api/webhook/sepay", webhookBody(2, 0, "x", "2025-12-19 23:36:00"), hookAuth)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, out = do(t, app, http.MethodPost, "/api/webhook/sepay", webhookBody(3, 50000, "x", "2025/12/19"), hookAuth)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "malformed_transaction_date", out["error"])
}

func TestWebhookIsNotRateLimited(t *testing.T) {
	app := newTestApp(t)

	for i := 1; i <= apiRateLimit+10; i++ {
		body := webhookBody(1000+i, 50000, "NGUYEN VAN A chuyen tien", "2025-12-19 23:36:00")
		status, _ := do(t, app, http.MethodPost, "/api/webhook/sepay", body, hookAuth)
		require.Equal(t, fiber.StatusCreated, status, "delivery %d", i)
	}
}

func TestOtherAPIRoutesAreRateLimited(t *testing.T) {
	app := newTestApp(t)

	status := 0
	for i := 0; i <= apiRateLimit; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/health", nil), -1)
		require.NoError(t, err)
		resp.Body.Close()
		status = resp.StatusCode
	}
	assert.Equal(t, fiber.StatusTooManyRequests, status)
}

func TestWebhookProbeAndHealth(t *testing.T) {
	app := newTestApp(t)

	status, out := do(t, app, http.MethodGet, "/api/webhook/sepay", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, out["success"])

	status, out = do(t, app, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", out["status"])
}

func TestAdminRequiresKey(t *testing.T) {
	app := newTestApp(t)

	status, _ := do(t, app, http.MethodGet, "/api/v1/users/user-123/code", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestCodeLifecycleAndSubscription(t *testing.T) {
	app := newTestApp(t)

	status, out := do(t, app, http.MethodGet, "/api/v1/users/user-123/code", "", adminAuth)
	require.Equal(t, fiber.StatusOK, status)
	code, _ := out["code"].(string)
	assert.Equal(t, "BTT-4FDP00", code)

	status, out = do(t, app, http.MethodGet, "/api/v1/codes/btt4fdp00", "", adminAuth)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "user-123", out["user_id"])

	status, _ = do(t, app, http.MethodGet, "/api/v1/codes/BTT-ZZZZZZ", "", adminAuth)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = do(t, app, http.MethodGet, "/api/v1/codes/garbage", "", adminAuth)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = do(t, app, http.MethodGet, "/api/v1/users/user-123/subscription", "", adminAuth)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = do(t, app, http.MethodPost, "/api/webhook/sepay",
		webhookBody(10, 10000000, code+" ung ho", "2025-01-01 07:00:00"), hookAuth)
	require.Equal(t, fiber.StatusCreated, status)

	status, out = do(t, app, http.MethodGet, "/api/v1/users/user-123/subscription", "", adminAuth)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, out["expired"])
	assert.Nil(t, out["days_until_expiry"])
	sub, ok := out["subscription"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "lifetime", sub["tier_id"])
}

func TestClaimDonations(t *testing.T) {
	app := newTestApp(t)

	for i, id := range []int{21, 22} {
		status, _ := do(t, app, http.MethodPost, "/api/webhook/sepay",
			webhookBody(id, 50000+i, "TRAN THI B ck", "2025-01-01 07:00:00"), hookAuth)
		require.Equal(t, fiber.StatusCreated, status)
	}

	status, out := do(t, app, http.MethodPost, "/api/v1/donations/1/claim", `{"user_id":"user-a"}`, adminAuth)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, out["ok"])

	status, out = do(t, app, http.MethodPost, "/api/v1/donations/1/claim", `{"user_id":"user-b"}`, adminAuth)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "already_claimed", out["error"])

	status, _ = do(t, app, http.MethodPost, "/api/v1/donations/999/claim", `{"user_id":"user-b"}`, adminAuth)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = do(t, app, http.MethodPost, "/api/v1/donations/abc/claim", `{"user_id":"user-b"}`, adminAuth)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, out = do(t, app, http.MethodPost, "/api/v1/donations/claim", `{"user_id":"user-b","transaction_ids":["21","22"]}`, adminAuth)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(1), out["linked"])

	status, _ = do(t, app, http.MethodPost, "/api/v1/donations/claim", `{"user_id":"user-b"}`, adminAuth)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestIngestStatsWithoutCache(t *testing.T) {
	app := newTestApp(t)

	status, _ := do(t, app, http.MethodGet, "/api/v1/stats/ingest", "", adminAuth)
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
}
