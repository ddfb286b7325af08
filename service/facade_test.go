package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nickyhof/BotDesk/core"
	"github.com/nickyhof/BotDesk/db"
	"github.com/nickyhof/BotDesk/ps"
	"github.com/nickyhof/BotDesk/remote"
	"github.com/nickyhof/BotDesk/sql"
	"golang.org/x/crypto/bcrypt"
)

var testNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

type fakeBackend struct {
	name    string
	err     error
	records []core.Record
	calls   int
}

func (b *fakeBackend) Name() string {
	return b.name
}

func (b *fakeBackend) Execute(_ context.Context, statement sql.Statement, _ ...any) (db.Result, error) {
	b.calls++
	if b.err != nil {
		return nil, &remote.BackendError{
			Backend: b.name,
			Op:      statement.Type().String(),
			Table:   statement.TableName(),
			Err:     b.err,
		}
	}
	return db.QueryResult{Records: b.records}, nil
}

// writeOnlyBackend accepts inserts and fails every other statement.
type writeOnlyBackend struct {
	insertID string
}

func (b *writeOnlyBackend) Name() string {
	return "write-only"
}

func (b *writeOnlyBackend) Execute(_ context.Context, statement sql.Statement, _ ...any) (db.Result, error) {
	if statement.Type() == sql.InsertStatementType {
		return db.InsertResult{InsertID: b.insertID}, nil
	}
	return nil, &remote.BackendError{
		Backend: b.Name(),
		Op:      statement.Type().String(),
		Table:   statement.TableName(),
		Err:     errors.New("read replica down"),
	}
}

func newTestServices(t *testing.T, primary remote.Backend) (*Services, *db.Engine) {
	t.Helper()
	store := ps.Open(ps.NewMemoryKV())
	t.Cleanup(func() { store.Close() })

	engine := db.NewEngine(store)
	facade := NewFacade(primary, db.Local{Engine: engine})
	facade.Now = func() time.Time { return testNow }

	services := New(facade, ps.NewCache(store), AuthConfig{
		JWTSecret:  "test-secret",
		Issuer:     "botdesk",
		BcryptCost: bcrypt.MinCost,
	})
	return services, engine
}

func TestGetAllChatbotsFallsBackToMock(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"relation unavailable"}`))
	}))
	defer server.Close()

	services, engine := newTestServices(t, remote.NewRESTBackend(server.URL, "key"))

	_, err := engine.Query("INSERT INTO chatbots (id, user_id, name, status) VALUES (?, ?, ?, ?)", "c1", "user-1", "Demo Bot", "active")
	if err != nil {
		t.Fatalf("Failed to seed mock: %v", err)
	}
	engine.Query("INSERT INTO chatbots (id, user_id, name, status) VALUES (?, ?, ?, ?)", "c2", "user-2", "Other", "active")

	bots, err := services.Chatbots.GetAll(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Expected fallback to succeed, got %v", err)
	}
	if len(bots) != 1 || bots[0].ID != "c1" || bots[0].Name != "Demo Bot" || bots[0].UserID != "user-1" {
		t.Errorf("Unexpected chatbots %+v", bots)
	}
	if hits.Load() != 1 {
		t.Errorf("Expected primary to be called once, got %d", hits.Load())
	}
}

func TestFacadePrimaryAnswers(t *testing.T) {
	primary := &fakeBackend{name: "primary", records: []core.Record{{"id": "remote-1", "user_id": "user-1", "name": "Remote"}}}
	local := &fakeBackend{name: "local", err: errors.New("should not be called")}

	facade := NewFacade(primary, local)
	result, err := facade.Execute(context.Background(), sql.SelectStatement{Table: "chatbots"})
	if err != nil {
		t.Fatalf("Failed to execute: %v", err)
	}
	if len(result.Rows()) != 1 || result.Rows()[0]["id"] != "remote-1" {
		t.Errorf("Unexpected rows %v", result.Rows())
	}
	if local.calls != 0 {
		t.Errorf("Expected mock layer not to be called, got %d calls", local.calls)
	}
}

func TestFacadePolicy(t *testing.T) {
	tests := []struct {
		name         string
		cause        error
		policy       FallbackPolicy
		wantFallback bool
	}{
		{"network error falls back", errors.New("connection refused"), nil, true},
		{"cancellation does not", context.Canceled, nil, false},
		{"validation does not", ErrValidation, nil, false},
		{"custom policy", errors.New("connection refused"), func(error) bool { return false }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			primary := &fakeBackend{name: "primary", err: tt.cause}
			local := &fakeBackend{name: "local"}
			facade := NewFacade(primary, local)
			if tt.policy != nil {
				facade.Policy = tt.policy
			}

			_, err := facade.Execute(context.Background(), sql.SelectStatement{Table: "leads"})
			if tt.wantFallback {
				if err != nil || local.calls != 1 {
					t.Errorf("Expected fallback, got err=%v calls=%d", err, local.calls)
				}
				return
			}
			if !errors.Is(err, tt.cause) {
				t.Errorf("Expected primary error, got %v", err)
			}
			if local.calls != 0 {
				t.Errorf("Expected no fallback, got %d calls", local.calls)
			}
		})
	}
}

func TestFacadeBothFail(t *testing.T) {
	primaryCause := errors.New("primary down")
	localCause := errors.New("storage closed")
	facade := NewFacade(&fakeBackend{name: "primary", err: primaryCause}, &fakeBackend{name: "local", err: localCause})

	_, err := facade.Execute(context.Background(), sql.DeleteStatement{Table: "leads", Where: sql.Eq("id", "l1")})

	var backendErr *remote.BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("Expected *BackendError, got %T %v", err, err)
	}
	if backendErr.Backend != "facade" || backendErr.Op != "DELETE" || backendErr.Table != "leads" {
		t.Errorf("Unexpected error fields %+v", backendErr)
	}
	if !errors.Is(err, primaryCause) || !errors.Is(err, localCause) {
		t.Errorf("Expected both causes in %v", err)
	}
	if !errors.Is(err, remote.ErrBackendUnavailable) {
		t.Error("Expected ErrBackendUnavailable")
	}
}

func TestFacadeOffline(t *testing.T) {
	local := &fakeBackend{name: "local", records: []core.Record{{"id": "1"}}}
	facade := NewFacade(nil, local)

	result, err := facade.Execute(context.Background(), sql.SelectStatement{Table: "users"})
	if err != nil {
		t.Fatalf("Failed to execute offline: %v", err)
	}
	if len(result.Rows()) != 1 || local.calls != 1 {
		t.Errorf("Expected mock layer to answer, got %v", result.Rows())
	}
}

func TestFacadeCancelledContext(t *testing.T) {
	local := &fakeBackend{name: "local"}
	facade := NewFacade(nil, local)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := facade.Execute(ctx, sql.SelectStatement{Table: "users"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if local.calls != 0 {
		t.Error("Expected no backend call on a cancelled context")
	}
}

func TestCreateWithoutReadBack(t *testing.T) {
	services, engine := newTestServices(t, &writeOnlyBackend{insertID: "remote-1"})
	ctx := context.Background()

	bot, err := services.Chatbots.Create(ctx, core.Chatbot{UserID: "u1", Name: "Demo"})
	if err != nil {
		t.Fatalf("Failed to create chatbot: %v", err)
	}
	if bot.ID != "remote-1" {
		t.Errorf("Expected id reported by the primary, got %q", bot.ID)
	}
	if bot.UserID != "u1" || bot.Name != "Demo" || bot.Status != ChatbotActive {
		t.Errorf("Expected submitted fields kept, got %+v", bot)
	}
	if bot.CreatedAt != core.Timestamp(testNow) || bot.UpdatedAt != core.Timestamp(testNow) {
		t.Errorf("Expected stamped timestamps, got %q %q", bot.CreatedAt, bot.UpdatedAt)
	}

	result, err := engine.Query("SELECT * FROM chatbots")
	if err != nil || len(result.Rows()) != 0 {
		t.Errorf("Expected remote write not mirrored into the mock layer, got %v %v", result, err)
	}
}

func TestLoginWithoutClock(t *testing.T) {
	store := ps.Open(ps.NewMemoryKV())
	t.Cleanup(func() { store.Close() })

	facade := &Facade{Local: db.Local{Engine: db.NewEngine(store)}}
	services := New(facade, ps.NewCache(store), AuthConfig{
		JWTSecret:  "test-secret",
		BcryptCost: bcrypt.MinCost,
	})
	ctx := context.Background()

	if _, err := services.Users.Register(ctx, "ada@example.com", "correct horse", "Ada"); err != nil {
		t.Fatalf("Failed to register: %v", err)
	}
	token, _, err := services.Users.Login(ctx, "ada@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Failed to log in: %v", err)
	}
	user, err := services.Users.VerifyToken(ctx, token)
	if err != nil || user == nil || user.Email != "ada@example.com" {
		t.Errorf("Expected token to verify, got %+v %v", user, err)
	}
}
