package integration_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/contactkeeper/internal/auth"
	"github.com/geocoder89/contactkeeper/internal/cache"
	"github.com/geocoder89/contactkeeper/internal/config"
	apphttp "github.com/geocoder89/contactkeeper/internal/http"
	"github.com/geocoder89/contactkeeper/internal/observability"
	"github.com/geocoder89/contactkeeper/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

const testSecret = "test-secret-key"

func testConfig() config.Config {
	return config.Config{
		Env:                "test",
		StoreDriver:        config.DriverMemory,
		JWTSecret:          testSecret,
		RegisterTokenTTL:   24 * time.Hour,
		LoginTokenTTL:      30 * 24 * time.Hour,
		AuthHeader:         "x-auth-token",
		CORSAllowedOrigins: []string{"*"},
		MaxBodyBytes:       1 << 20,
		CacheTTL:           time.Minute,
	}
}

// setupRouter builds the full router over st with a fresh metrics registry.
func setupRouter(t *testing.T, st *store.Store) (*gin.Engine, *auth.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig()
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))

	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	tokens := auth.NewManager(cfg.JWTSecret, cfg.RegisterTokenTTL, cfg.LoginTokenTTL)
	lists := cache.WithLookupObserver(cache.NewMemoryContactLists(cfg.CacheTTL), prom.ObserveCacheLookup)

	router := apphttp.NewRouter(apphttp.Deps{
		Log:      logger,
		Config:   cfg,
		Store:    st,
		Tokens:   tokens,
		Lists:    lists,
		Prom:     prom,
		Gatherer: reg,
	})

	return router, tokens
}

func doRequest(router http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))

	if method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch {
		req.Header.Set("Content-Type", "application/json")
	}

	if token != "" {
		req.Header.Set("x-auth-token", token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func mustReadJSON[T any](t *testing.T, w *httptest.ResponseRecorder, out *T) {
	t.Helper()
	err := json.Unmarshal(w.Body.Bytes(), out)
	if err != nil {
		t.Fatalf("failed to unmarshal json: %v, body=%s", err, w.Body.String())
	}
}

type tokenResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

type contactDTO struct {
	ID    string `json:"id"`
	User  string `json:"user"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Type  string `json:"type"`
}

type contactResponse struct {
	Success bool       `json:"success"`
	Data    contactDTO `json:"data"`
}

type contactListResponse struct {
	Success bool         `json:"success"`
	Count   int          `json:"count"`
	Data    []contactDTO `json:"data"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func register(t *testing.T, router http.Handler, name, email, password string) string {
	t.Helper()

	body := `{"name":"` + name + `","email":"` + email + `","password":"` + password + `"}`
	w := doRequest(router, http.MethodPost, "/api/v1/users", body, "")

	if w.Code != http.StatusOK {
		t.Fatalf("register got status %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp tokenResponse
	mustReadJSON(t, w, &resp)

	if strings.TrimSpace(resp.Token) == "" {
		t.Fatalf("register expected token, got empty")
	}

	return resp.Token
}

func createContact(t *testing.T, router http.Handler, token, body string) contactDTO {
	t.Helper()

	w := doRequest(router, http.MethodPost, "/api/v1/contacts", body, token)
	if w.Code != http.StatusOK {
		t.Fatalf("create contact got status %d, body=%s", w.Code, w.Body.String())
	}

	var resp contactResponse
	mustReadJSON(t, w, &resp)

	return resp.Data
}

func listContacts(t *testing.T, router http.Handler, token string) contactListResponse {
	t.Helper()

	w := doRequest(router, http.MethodGet, "/api/v1/contacts", "", token)
	if w.Code != http.StatusOK {
		t.Fatalf("list contacts got status %d, body=%s", w.Code, w.Body.String())
	}

	var resp contactListResponse
	mustReadJSON(t, w, &resp)

	return resp
}

func newRunID() string {
	return uuid.NewString()[:8]
}
