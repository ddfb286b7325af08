package remote

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nickyhof/BotDesk/sql"
	"github.com/tidwall/gjson"
)

type capturedRequest struct {
	method string
	path   string
	query  string
	body   string
	header http.Header
}

func newTestServer(t *testing.T, status int, response string) (*RESTBackend, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		captured.method = r.Method
		captured.path = r.URL.Path
		captured.query = r.URL.RawQuery
		captured.body = string(body)
		captured.header = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, response)
	}))
	t.Cleanup(server.Close)

	backend := NewRESTBackend(server.URL+"/", "anon-key")
	backend.NewID = func() string { return "generated" }
	return backend, captured
}

func TestRESTSelect(t *testing.T) {
	backend, captured := newTestServer(t, http.StatusOK,
		`[{"id":"c1","user_id":"user-1","max_chatbots":3,"settings":{"theme":"dark"},"deleted_at":null}]`)

	result, err := backend.Execute(context.Background(),
		sql.SelectStatement{Table: "chatbots", Where: &sql.Predicate{Column: "user_id", Operand: sql.Param(0)}}, "user-1")
	if err != nil {
		t.Fatalf("Failed to select: %v", err)
	}

	if captured.method != http.MethodGet || captured.path != "/rest/v1/chatbots" {
		t.Errorf("Unexpected request %s %s", captured.method, captured.path)
	}
	if captured.query != "select=%2A&user_id=eq.user-1" {
		t.Errorf("Unexpected query %s", captured.query)
	}
	if captured.header.Get("apikey") != "anon-key" || captured.header.Get("Authorization") != "Bearer anon-key" {
		t.Errorf("Expected api key headers, got %v", captured.header)
	}

	rows := result.Rows()
	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(rows))
	}
	if rows[0]["user_id"] != "user-1" {
		t.Errorf("Unexpected row %v", rows[0])
	}
	if gjson.Parse(rows[0]["settings"].(string)).Get("theme").String() != "dark" {
		t.Errorf("Expected nested JSON kept as text, got %v", rows[0]["settings"])
	}
	if v, ok := rows[0]["deleted_at"]; !ok || v != nil {
		t.Errorf("Expected null column, got %v", v)
	}
}

func TestRESTInsert(t *testing.T) {
	backend, captured := newTestServer(t, http.StatusCreated, `[{"id":"server-id"}]`)
	backend.Token = "user-jwt"

	result, err := backend.Execute(context.Background(),
		sql.InsertStatement{Table: "leads", Columns: []string{"id", "email"}}, "", "a@example.com")
	if err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}

	if captured.method != http.MethodPost || captured.header.Get("Prefer") != "return=representation" {
		t.Errorf("Unexpected request %s %v", captured.method, captured.header)
	}
	if captured.header.Get("Authorization") != "Bearer user-jwt" {
		t.Errorf("Expected user token, got %s", captured.header.Get("Authorization"))
	}
	if gjson.Get(captured.body, "id").String() != "generated" || gjson.Get(captured.body, "email").String() != "a@example.com" {
		t.Errorf("Unexpected body %s", captured.body)
	}
	if result.Rows()[0]["insertId"] != "server-id" {
		t.Errorf("Expected server id, got %v", result.Rows())
	}
}

func TestRESTUpdateAndDelete(t *testing.T) {
	backend, captured := newTestServer(t, http.StatusOK, `[{"id":"c1"},{"id":"c2"}]`)

	result, err := backend.Execute(context.Background(),
		sql.UpdateStatement{Table: "chatbots", Columns: []string{"status"}, Where: sql.Eq("user_id", "user-1")}, "inactive")
	if err != nil {
		t.Fatalf("Failed to update: %v", err)
	}
	if captured.method != http.MethodPatch || captured.query != "user_id=eq.user-1" || captured.body != `{"status":"inactive"}` {
		t.Errorf("Unexpected request %s %s %s", captured.method, captured.query, captured.body)
	}
	if result.Rows()[0]["affectedRows"] != 2 {
		t.Errorf("Expected 2 affected, got %v", result.Rows())
	}

	result, err = backend.Execute(context.Background(), sql.DeleteStatement{Table: "chatbots", Where: sql.Eq("id", "c1")})
	if err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if captured.method != http.MethodDelete || captured.query != "id=eq.c1" {
		t.Errorf("Unexpected request %s %s", captured.method, captured.query)
	}

	// Unguarded statements never reach the server.
	captured.method = ""
	backend.Execute(context.Background(), sql.DeleteStatement{Table: "chatbots"})
	if captured.method != "" {
		t.Error("Expected DELETE without WHERE not to be sent")
	}
}

func TestRESTErrorStatus(t *testing.T) {
	backend, _ := newTestServer(t, http.StatusServiceUnavailable, `{"message":"database is starting up"}`)

	_, err := backend.Execute(context.Background(), sql.SelectStatement{Table: "chatbots"})
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("Expected ErrBackendUnavailable, got %v", err)
	}

	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("Expected *BackendError, got %T", err)
	}
	if backendErr.Status != http.StatusServiceUnavailable || backendErr.Table != "chatbots" || backendErr.Op != "SELECT" {
		t.Errorf("Unexpected error fields %+v", backendErr)
	}
	if backendErr.Err.Error() != "database is starting up" {
		t.Errorf("Expected server message, got %v", backendErr.Err)
	}
}

func TestRESTUnreachable(t *testing.T) {
	backend := NewRESTBackend("http://127.0.0.1:1", "key")

	_, err := backend.Execute(context.Background(), sql.SelectStatement{Table: "users"})
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("Expected ErrBackendUnavailable, got %v", err)
	}
}
