package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/go-chi/chi/v5"

	"github.com/newit5s/tablebook/internal/domain"
	"github.com/newit5s/tablebook/internal/http/handlers"
	"github.com/newit5s/tablebook/internal/http/middleware"
)

const testSecret = "test-secret"

type mockStaffRepo struct {
	staff map[string]*domain.Staff
}

func (m *mockStaffRepo) FindByEmail(_ context.Context, email string) (*domain.Staff, error) {
	return m.staff[email], nil
}

func newAuthRouter(t *testing.T) http.Handler {
	t.Helper()
	hash, err := argon2id.CreateHash("hunter22", argon2id.DefaultParams)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	repo := &mockStaffRepo{staff: map[string]*domain.Staff{
		"manager@example.com": {ID: 1, Email: "manager@example.com", Name: "Morgan", PasswordHash: hash, Role: "manager"},
	}}

	r := chi.NewRouter()
	r.Mount("/auth", handlers.NewAuthHandler(repo, testSecret, time.Hour).Routes())
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireStaff(testSecret))
		r.Get("/staff/ping", func(w http.ResponseWriter, r *http.Request) {
			claims := middleware.Claims(r)
			w.Write([]byte(claims.Email))
		})
	})
	return r
}

func login(t *testing.T, router http.Handler, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body)))
	return rec
}

func TestLoginIssuesUsableToken(t *testing.T) {
	router := newAuthRouter(t)

	rec := login(t, router, "manager@example.com", "hunter22")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.AccessToken == "" {
		t.Fatal("expected an access token")
	}

	req := httptest.NewRequest(http.MethodGet, "/staff/ping", nil)
	req.Header.Set("Authorization", "Bearer "+out.AccessToken)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "manager@example.com" {
		t.Fatalf("expected claims roundtrip, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	router := newAuthRouter(t)

	if rec := login(t, router, "manager@example.com", "wrong"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: expected 401, got %d", rec.Code)
	}
	if rec := login(t, router, "nobody@example.com", "hunter22"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("unknown user: expected 401, got %d", rec.Code)
	}
}

func TestStaffRoutesRequireToken(t *testing.T) {
	router := newAuthRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/staff/ping", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/staff/ping", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", rec.Code)
	}
}
