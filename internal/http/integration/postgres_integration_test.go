package integration_test

import (
	"context"
	"net/http"
	"os"
	"testing"

	"github.com/geocoder89/contactkeeper/internal/config"
	"github.com/geocoder89/contactkeeper/internal/store"
)

// Runs only when TEST_DB_DSN points at a disposable Postgres database.
func setupPostgresStore(t *testing.T) *store.Store {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	cfg := testConfig()
	cfg.StoreDriver = config.DriverPostgres
	cfg.DBURL = dsn
	cfg.AutoMigrate = true

	st, err := store.Open(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("open postgres store: %v", err)
	}
	t.Cleanup(st.Close)

	return st
}

func TestPostgresIntegration_ContactsLifecycle(t *testing.T) {
	st := setupPostgresStore(t)
	router, _ := setupRouter(t, st)

	// unique per run so the test does not depend on a truncated database
	email := "pg-" + newRunID() + "@example.com"

	ada := register(t, router, "Ada", email, "secret1")
	eve := register(t, router, "Eve", "pg-eve-"+newRunID()+"@example.com", "secret2")

	w := doRequest(router, http.MethodPost, "/api/v1/users", `{"name":"Ada","email":"`+email+`","password":"secret1"}`, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate register got status %d, body=%s", w.Code, w.Body.String())
	}

	bob := createContact(t, router, ada, `{"name":"Bob","email":"bob@example.com"}`)

	w = doRequest(router, http.MethodGet, "/api/v1/contacts/"+bob.ID, "", eve)
	if w.Code != http.StatusNotFound {
		t.Fatalf("non-owner get got status %d, want 404", w.Code)
	}

	w = doRequest(router, http.MethodPut, "/api/v1/contacts/"+bob.ID, `{"phone":"555-0101"}`, ada)
	if w.Code != http.StatusOK {
		t.Fatalf("update got status %d, body=%s", w.Code, w.Body.String())
	}

	var updated contactResponse
	mustReadJSON(t, w, &updated)
	if updated.Data.Email != "bob@example.com" || updated.Data.Phone != "555-0101" {
		t.Fatalf("partial update lost fields: %+v", updated.Data)
	}

	w = doRequest(router, http.MethodDelete, "/api/v1/contacts/"+bob.ID, "", ada)
	if w.Code != http.StatusOK {
		t.Fatalf("delete got status %d, body=%s", w.Code, w.Body.String())
	}

	if list := listContacts(t, router, ada); list.Count != 0 {
		t.Fatalf("expected empty list, got %+v", list)
	}
}
