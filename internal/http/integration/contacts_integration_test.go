package integration_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/geocoder89/contactkeeper/internal/store"
)

func TestContactsIntegration_RegisterCreateListDelete(t *testing.T) {
	router, tokens := setupRouter(t, store.NewMemory())

	token := register(t, router, "Ada", "ada@example.com", "secret1")

	userID, err := tokens.Verify(token)
	if err != nil {
		t.Fatalf("registration token does not verify: %v", err)
	}

	bob := createContact(t, router, token, `{"name":"Bob","email":"bob@example.com","phone":"555-0101"}`)

	if bob.User != userID {
		t.Fatalf("contact owner got %q, want %q", bob.User, userID)
	}
	if bob.Type != "personal" {
		t.Fatalf("contact type got %q, want personal", bob.Type)
	}

	list := listContacts(t, router, token)
	if list.Count != 1 || len(list.Data) != 1 || list.Data[0].Name != "Bob" {
		t.Fatalf("expected exactly Bob in list, got %+v", list)
	}

	w := doRequest(router, http.MethodDelete, "/api/v1/contacts/"+bob.ID, "", token)
	if w.Code != http.StatusOK {
		t.Fatalf("delete got status %d, body=%s", w.Code, w.Body.String())
	}

	var msg errorResponse
	mustReadJSON(t, w, &msg)
	if msg.Message != "Contact removed" {
		t.Fatalf("delete message got %q", msg.Message)
	}

	list = listContacts(t, router, token)
	if list.Count != 0 || list.Data == nil || len(list.Data) != 0 {
		t.Fatalf("expected an empty list after delete, got %+v", list)
	}
}

func TestContactsIntegration_ListNewestFirst(t *testing.T) {
	router, _ := setupRouter(t, store.NewMemory())
	token := register(t, router, "Ada", "ada@example.com", "secret1")

	createContact(t, router, token, `{"name":"First"}`)
	createContact(t, router, token, `{"name":"Second"}`)
	createContact(t, router, token, `{"name":"Third"}`)

	list := listContacts(t, router, token)
	if list.Count != 3 {
		t.Fatalf("expected 3 contacts, got %d", list.Count)
	}

	if list.Data[0].Name != "Third" || list.Data[2].Name != "First" {
		t.Fatalf("expected newest first, got %+v", list.Data)
	}
}

func TestContactsIntegration_PartialUpdate(t *testing.T) {
	router, _ := setupRouter(t, store.NewMemory())
	token := register(t, router, "Ada", "ada@example.com", "secret1")

	bob := createContact(t, router, token, `{"name":"Bob","email":"bob@example.com","type":"work"}`)

	w := doRequest(router, http.MethodPut, "/api/v1/contacts/"+bob.ID, `{"phone":"555-0199","name":""}`, token)
	if w.Code != http.StatusOK {
		t.Fatalf("update got status %d, body=%s", w.Code, w.Body.String())
	}

	var updated contactResponse
	mustReadJSON(t, w, &updated)

	if updated.Data.Name != "Bob" || updated.Data.Email != "bob@example.com" || updated.Data.Type != "work" {
		t.Fatalf("untouched fields changed: %+v", updated.Data)
	}
	if updated.Data.Phone != "555-0199" {
		t.Fatalf("phone got %q, want 555-0199", updated.Data.Phone)
	}

	list := listContacts(t, router, token)
	if list.Data[0].Phone != "555-0199" {
		t.Fatalf("list still serves the stale contact: %+v", list.Data[0])
	}
}

func TestContactsIntegration_OwnershipIsolation(t *testing.T) {
	router, _ := setupRouter(t, store.NewMemory())

	ada := register(t, router, "Ada", "ada@example.com", "secret1")
	eve := register(t, router, "Eve", "eve@example.com", "secret2")

	bob := createContact(t, router, ada, `{"name":"Bob"}`)

	if list := listContacts(t, router, eve); list.Count != 0 {
		t.Fatalf("eve sees ada's contacts: %+v", list)
	}

	tests := []struct {
		name       string
		method     string
		body       string
		wantStatus int
		wantCode   string
	}{
		{name: "get", method: http.MethodGet, wantStatus: http.StatusNotFound, wantCode: "not_found"},
		{name: "update", method: http.MethodPut, body: `{"name":"Mallory"}`, wantStatus: http.StatusUnauthorized, wantCode: "forbidden"},
		{name: "delete", method: http.MethodDelete, wantStatus: http.StatusUnauthorized, wantCode: "forbidden"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, tt.method, "/api/v1/contacts/"+bob.ID, tt.body, eve)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}

			var resp errorResponse
			mustReadJSON(t, w, &resp)
			if resp.Code != tt.wantCode {
				t.Fatalf("got code %q, want %q", resp.Code, tt.wantCode)
			}
		})
	}

	w := doRequest(router, http.MethodGet, "/api/v1/contacts/"+bob.ID, "", ada)
	if w.Code != http.StatusOK {
		t.Fatalf("owner get got status %d, body=%s", w.Code, w.Body.String())
	}

	var still contactResponse
	mustReadJSON(t, w, &still)
	if still.Data.Name != "Bob" {
		t.Fatalf("contact was modified by a non-owner: %+v", still.Data)
	}
}

func TestContactsIntegration_RequiresToken(t *testing.T) {
	router, _ := setupRouter(t, store.NewMemory())

	w := doRequest(router, http.MethodGet, "/api/v1/contacts", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusUnauthorized)
	}

	var resp errorResponse
	mustReadJSON(t, w, &resp)
	if resp.Message != "No token, authorization denied" {
		t.Fatalf("unexpected message %q", resp.Message)
	}

	w = doRequest(router, http.MethodGet, "/api/v1/contacts", "", "not-a-token")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusUnauthorized)
	}

	mustReadJSON(t, w, &resp)
	if resp.Message != "Token is not valid" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
}

func TestContactsIntegration_MetricsExposeCacheLookups(t *testing.T) {
	router, _ := setupRouter(t, store.NewMemory())
	token := register(t, router, "Ada", "ada@example.com", "secret1")

	listContacts(t, router, token)
	listContacts(t, router, token)

	w := doRequest(router, http.MethodGet, "/metrics", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("metrics got status %d", w.Code)
	}

	body := w.Body.String()
	for _, want := range []string{
		`contactkeeper_cache_lookups_total{result="hit"} 1`,
		`contactkeeper_cache_lookups_total{result="miss"} 1`,
		`contactkeeper_http_requests_total`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q", want)
		}
	}
}
