package web

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"coachsight-service/services"
)

func newAuthTestServer(t *testing.T) *Server {
	t.Helper()
	return &Server{auth: services.NewAuthService(nil, "test-secret", time.Hour)}
}

func TestRequireAuthRejectsMissingHeader(t *testing.T) {
	server := newAuthTestServer(t)

	handler := server.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler should not be called without a token")
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest("GET", "/api/teams", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rec.Code)
	}
}

func TestRequireAuthRejectsBadToken(t *testing.T) {
	server := newAuthTestServer(t)

	handler := server.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler should not be called with a bad token")
	})

	req := httptest.NewRequest("GET", "/api/teams", nil)
	req.Header.Set("Authorization", "Bearer garbage")

	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rec.Code)
	}
}

func TestRequireAuthInjectsUserID(t *testing.T) {
	server := newAuthTestServer(t)

	token, err := server.auth.TokenFor(42)
	if err != nil {
		t.Fatalf("TokenFor failed: %v", err)
	}

	called := false
	handler := server.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if got := currentUserID(r); got != 42 {
			t.Errorf("Expected userID 42 in context, got %d", got)
		}
	})

	req := httptest.NewRequest("GET", "/api/teams", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler(httptest.NewRecorder(), req)

	if !called {
		t.Error("Expected handler to be called")
	}
}
