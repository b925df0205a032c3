package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/carrerakart/kartapi/internal/api/domain"
	"github.com/carrerakart/kartapi/internal/api/service"
	"github.com/carrerakart/kartapi/internal/api/store/drivers/sqlite"
	"github.com/carrerakart/kartapi/pkg/httpx"
	"github.com/carrerakart/kartapi/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "kartapi-test"
	testSecret   = "test-secret"
	adminEmail   = "admin@example.com"
	adminPass    = "admin-secret"
	regularEmail = "user@example.com"
	regularPass  = "user-secret"
)

type testEnv struct {
	handler http.Handler
	users   *service.UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	signer := jwtx.NewHS256([]byte(testSecret), testIssuer)
	users := &service.UserService{Store: st, Signer: signer, Issuer: testIssuer, TokenTTL: time.Hour}

	router := NewRouter(signer, "test", "test", []string{"*"}, st,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	router.UserService = users
	router.ClassificationService = &service.ClassificationService{Store: st}
	router.OperatingHourService = &service.OperatingHourService{Store: st}
	router.ApplyRoutes()

	ctx := t.Context()
	boot := &service.BootstrapService{Store: st}
	_, err = boot.EnsureAdmin(ctx, "Admin", adminEmail, adminPass)
	require.NoError(t, err)
	_, err = users.CreateUser(ctx, "Regular User", regularEmail, regularPass, domain.RoleUser)
	require.NoError(t, err)

	return &testEnv{handler: router, users: users}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, buf)
	req.RemoteAddr = "203.0.113.10:52000"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) httpx.Response {
	t.Helper()

	var resp httpx.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// login fetches a bearer token through the real endpoint.
func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/v1/users/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeEnvelope(t, rec)
	data := resp.Data.(map[string]any)
	token, _ := data["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestWelcomeAndUnknownRoute(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.True(t, resp.Success)

	rec = env.do(t, http.MethodGet, "/nope", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthReportsDatabase(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeEnvelope(t, rec)
	require.True(t, resp.Success)
	data := resp.Data.(map[string]any)
	require.Equal(t, "ok", data["status"])
	require.NotEmpty(t, data["uptime"])
}

func TestLoginAndEnvelope(t *testing.T) {
	env := newTestEnv(t)

	token := env.login(t, adminEmail, adminPass)
	require.NotEmpty(t, token)

	rec := env.do(t, http.MethodPost, "/api/v1/users/login", "", map[string]string{
		"email":    adminEmail,
		"password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.False(t, resp.Success)
	require.Equal(t, "invalid credentials", resp.Message)
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	env := newTestEnv(t)

	// No token at all.
	rec := env.do(t, http.MethodGet, "/api/v1/users", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Garbage token.
	rec = env.do(t, http.MethodGet, "/api/v1/users", "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Valid token, wrong role.
	userToken := env.login(t, regularEmail, regularPass)
	rec = env.do(t, http.MethodGet, "/api/v1/users", userToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	adminToken := env.login(t, adminEmail, adminPass)
	rec = env.do(t, http.MethodGet, "/api/v1/users", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestUsersCRUDOverAPI(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, adminEmail, adminPass)

	rec := env.do(t, http.MethodPost, "/api/v1/users", token, map[string]string{
		"name":     "New Driver",
		"email":    "driver@example.com",
		"password": "driver-secret",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeEnvelope(t, rec).Data.(map[string]any)
	id := created["id"].(string)
	require.Equal(t, "USER", created["role"])
	_, hasHash := created["passwordHash"]
	require.False(t, hasHash)

	// Duplicate email rejected.
	rec = env.do(t, http.MethodPost, "/api/v1/users", token, map[string]string{
		"name":     "Other",
		"email":    "DRIVER@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Paginated listing carries the envelope bookkeeping.
	rec = env.do(t, http.MethodGet, "/api/v1/users?page=1&limit=2", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Pagination)
	require.Equal(t, 1, resp.Pagination.Page)
	require.Equal(t, 2, resp.Pagination.Limit)
	require.EqualValues(t, 3, resp.Pagination.Total)
	require.Equal(t, 2, resp.Pagination.Pages)

	rec = env.do(t, http.MethodPut, "/api/v1/users/"+id, token, map[string]any{
		"name": "Renamed Driver",
		"role": "ADMIN",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeEnvelope(t, rec).Data.(map[string]any)
	require.Equal(t, "Renamed Driver", updated["name"])
	require.Equal(t, "ADMIN", updated["role"])

	rec = env.do(t, http.MethodDelete, "/api/v1/users/"+id, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Soft-deleted: still visible to admin by id, flagged inactive.
	rec = env.do(t, http.MethodGet, "/api/v1/users/"+id, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeEnvelope(t, rec).Data.(map[string]any)
	require.Equal(t, false, got["isActive"])

	rec = env.do(t, http.MethodGet, "/api/v1/users/missing-id", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProfileRoutes(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, regularEmail, regularPass)

	rec := env.do(t, http.MethodGet, "/api/v1/users/profile", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeEnvelope(t, rec).Data.(map[string]any)
	require.Equal(t, regularEmail, data["email"])

	// Role changes through the profile route are ignored.
	rec = env.do(t, http.MethodPut, "/api/v1/users/profile", token, map[string]any{
		"name": "Self Renamed",
		"role": "ADMIN",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	data = decodeEnvelope(t, rec).Data.(map[string]any)
	require.Equal(t, "Self Renamed", data["name"])
	require.Equal(t, "USER", data["role"])
}

func TestClassificationLifecycleOverAPI(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, adminEmail, adminPass)

	// Public reads need no token.
	rec := env.do(t, http.MethodGet, "/api/v1/classifications/leaderboard", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	board := decodeEnvelope(t, rec).Data.(map[string]any)
	require.Len(t, board, 8)

	// Writes do.
	rec = env.do(t, http.MethodPost, "/api/v1/classifications", "", map[string]any{
		"category": "A", "driverName": "Alice", "points": 100,
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/classifications", token, map[string]any{
		"category": "A", "driverName": "Alice", "points": 100,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	alice := decodeEnvelope(t, rec).Data.(map[string]any)
	require.EqualValues(t, 1, alice["position"])

	rec = env.do(t, http.MethodPost, "/api/v1/classifications", token, map[string]any{
		"category": "A", "driverName": "Bob", "points": 150,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/classifications/category/A", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	standings := decodeEnvelope(t, rec).Data.([]any)
	require.Len(t, standings, 2)
	first := standings[0].(map[string]any)
	require.Equal(t, "Bob", first["driverName"])
	require.EqualValues(t, 1, first["position"])

	rec = env.do(t, http.MethodGet, "/api/v1/classifications/category/SILVER", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/v1/classifications/"+alice["id"].(string), token, map[string]any{
		"points": 200,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeEnvelope(t, rec).Data.(map[string]any)
	require.EqualValues(t, 1, updated["position"])

	rec = env.do(t, http.MethodDelete, "/api/v1/classifications/"+alice["id"].(string), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/classifications/"+alice["id"].(string), "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClassificationBulkOverAPI(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, adminEmail, adminPass)

	rec := env.do(t, http.MethodPost, "/api/v1/classifications", token, map[string]any{
		"category": "B", "driverName": "Victim", "points": 10,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// The stored record is absent from the payload, so it gets deleted.
	rec = env.do(t, http.MethodPut, "/api/v1/classifications/bulk", token, map[string]any{
		"classifications": []map[string]any{
			{"category": "B", "driverName": "Carol", "points": 30},
			{"category": "BOGUS", "driverName": "Broken", "points": 5},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	data := decodeEnvelope(t, rec).Data.(map[string]any)
	require.Len(t, data["created"].([]any), 1)
	require.Len(t, data["deleted"].([]any), 1)
	require.Len(t, data["errors"].([]any), 1)
}

func TestClassificationBulkAcceptsWrappedPayload(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, adminEmail, adminPass)

	rec := env.do(t, http.MethodPut, "/api/v1/classifications/bulk", token, map[string]any{
		"classifications": []map[string]any{
			{"category": "A", "driverName": "Alice", "points": 100},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	data := decodeEnvelope(t, rec).Data.(map[string]any)
	created := data["created"].([]any)
	require.Len(t, created, 1)
	require.Equal(t, "Alice", created[0].(map[string]any)["driverName"])
}

func TestClassificationListRejectsMalformedPointFilters(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/classifications?minPoints=abc", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.False(t, decodeEnvelope(t, rec).Success)

	rec = env.do(t, http.MethodGet, "/api/v1/classifications?maxPoints=10x", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Empty filter params are simply no filter.
	rec = env.do(t, http.MethodGet, "/api/v1/classifications?minPoints=&maxPoints=", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestOperatingHoursOverAPI(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, adminEmail, adminPass)

	rec := env.do(t, http.MethodGet, "/api/v1/operating-hours", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	grouped := decodeEnvelope(t, rec).Data.(map[string]any)
	header := grouped["header"].([]any)
	footer := grouped["footer"].([]any)
	require.Len(t, header, 2)
	require.Len(t, footer, 7)

	target := header[0].(map[string]any)
	id := target["id"].(string)

	rec = env.do(t, http.MethodPut, "/api/v1/operating-hours/"+id, token, map[string]any{
		"label": "Segunda - Sexta: 14:00 às 22:00",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeEnvelope(t, rec).Data.(map[string]any)
	require.Equal(t, "Segunda - Sexta: 14:00 às 22:00", updated["label"])

	rec = env.do(t, http.MethodPatch, "/api/v1/operating-hours/"+id+"/visibility", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	toggled := decodeEnvelope(t, rec).Data.(map[string]any)
	require.Equal(t, false, toggled["visible"])

	// Hidden slots drop out of the public visible read.
	rec = env.do(t, http.MethodGet, "/api/v1/operating-hours/visible", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	visible := decodeEnvelope(t, rec).Data.(map[string]any)
	require.Len(t, visible["header"].([]any), 1)

	rec = env.do(t, http.MethodPut, "/api/v1/operating-hours/bulk-update", token, []map[string]any{
		{"id": id, "visible": true},
		{"id": "missing-id", "visible": false},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	bulk := decodeEnvelope(t, rec).Data.(map[string]any)
	require.Len(t, bulk["updated"].([]any), 1)
	require.Len(t, bulk["errors"].([]any), 1)

	rec = env.do(t, http.MethodGet, "/api/v1/operating-hours/group/sidebar", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginRateLimit(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]string{"email": "nobody@example.com", "password": "whatever"}
	var last *httptest.ResponseRecorder
	for i := 0; i < 6; i++ {
		last = env.do(t, http.MethodPost, "/api/v1/users/login", "", body)
	}
	require.Equal(t, http.StatusTooManyRequests, last.Code)
	require.NotEmpty(t, last.Header().Get("Retry-After"))
}

func TestMalformedBodyRejected(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, adminEmail, adminPass)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/classifications", bytes.NewReader([]byte("{not json")))
	req.RemoteAddr = "203.0.113.10:52000"
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
