package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/taskdeck/internal/model"
)

// --- モック定義 ---

type mockTokenDecoder struct {
	decodeFn func(tokenString string) (*model.Claim, error)
}

func (m *mockTokenDecoder) Decode(tokenString string) (*model.Claim, error) {
	if m.decodeFn != nil {
		return m.decodeFn(tokenString)
	}
	return nil, model.NewTokenInvalidError()
}

var _ TokenDecoder = (*mockTokenDecoder)(nil)

func okDecoder(userID string) *mockTokenDecoder {
	return &mockTokenDecoder{
		decodeFn: func(tokenString string) (*model.Claim, error) {
			return &model.Claim{UserID: userID}, nil
		},
	}
}

// --- テスト ---

func TestAuthMiddleware_MissingToken_Returns401(t *testing.T) {
	called := false
	handler := NewAuthMiddleware(okDecoder("user-1"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if called {
		t.Error("handler must not be called without a token")
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	if body["code"] != model.ErrCodeUnauthenticated {
		t.Errorf("error code = %v, want %q", body["code"], model.ErrCodeUnauthenticated)
	}
}

func TestAuthMiddleware_MalformedHeader_Returns401(t *testing.T) {
	headers := []string{
		"Basic dXNlcjpwYXNz",
		"Bearer",
		"Bearer ",
		"token-without-scheme",
	}

	for _, header := range headers {
		handler := NewAuthMiddleware(okDecoder("user-1"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Errorf("handler must not be called for header %q", header)
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status = %d, want %d", header, rec.Code, http.StatusUnauthorized)
		}
	}
}

func TestAuthMiddleware_InvalidToken_Returns401WithTokenError(t *testing.T) {
	decoder := &mockTokenDecoder{
		decodeFn: func(tokenString string) (*model.Claim, error) {
			return nil, model.NewTokenExpiredError()
		},
	}
	handler := NewAuthMiddleware(decoder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not be called with an expired token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer expired-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	if body["code"] != model.ErrCodeTokenExpired {
		t.Errorf("error code = %v, want %q", body["code"], model.ErrCodeTokenExpired)
	}
}

func TestAuthMiddleware_ValidToken_InjectsUserID(t *testing.T) {
	var gotUserID string
	handler := NewAuthMiddleware(okDecoder("user-42"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := UserIDFromContext(r.Context())
		if err != nil {
			t.Errorf("UserIDFromContext() error = %v", err)
		}
		gotUserID = userID
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotUserID != "user-42" {
		t.Errorf("userID = %q, want %q", gotUserID, "user-42")
	}
}

func TestOptionalAuthMiddleware_NoToken_PassesThroughAnonymously(t *testing.T) {
	called := false
	handler := NewOptionalAuthMiddleware(okDecoder("user-1"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if _, err := UserIDFromContext(r.Context()); err == nil {
			t.Error("anonymous request must not carry a user ID")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !called {
		t.Error("handler should be called for anonymous request")
	}
}

func TestOptionalAuthMiddleware_InvalidToken_Returns401(t *testing.T) {
	handler := NewOptionalAuthMiddleware(&mockTokenDecoder{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not be called with an invalid token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestUserIDFromContext_MissingUserID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := UserIDFromContext(req.Context()); err == nil {
		t.Error("expected error for context without user ID")
	}
}
