package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hyperengineering/shopkeep/internal/types"
)

func TestWithPrincipal_PrincipalFromContext_RoundTrip(t *testing.T) {
	ctx := WithPrincipal(context.Background(), testPrincipal)

	got, err := PrincipalFromContext(ctx)
	if err != nil {
		t.Fatalf("PrincipalFromContext() error = %v", err)
	}
	if got != testPrincipal {
		t.Errorf("PrincipalFromContext() = %+v, want %+v", got, testPrincipal)
	}
}

func TestPrincipalFromContext_NoPrincipal(t *testing.T) {
	_, err := PrincipalFromContext(context.Background())
	if !errors.Is(err, ErrNoPrincipalInContext) {
		t.Errorf("PrincipalFromContext() error = %v, want ErrNoPrincipalInContext", err)
	}
}

func TestPrincipalFromContext_EmptyUserName(t *testing.T) {
	ctx := WithPrincipal(context.Background(), types.Principal{Role: types.RoleAdmin})
	if _, err := PrincipalFromContext(ctx); !errors.Is(err, ErrNoPrincipalInContext) {
		t.Errorf("PrincipalFromContext() error = %v, want ErrNoPrincipalInContext", err)
	}
}

func TestAuthenticated_PassesPrincipal(t *testing.T) {
	var got types.Principal
	h := authenticated(func(w http.ResponseWriter, r *http.Request, p types.Principal) {
		got = p
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithPrincipal(req.Context(), testPrincipal))
	w := httptest.NewRecorder()
	h(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if got != testPrincipal {
		t.Errorf("principal = %+v, want %+v", got, testPrincipal)
	}
}

func TestAuthenticated_RejectsMissingPrincipal(t *testing.T) {
	called := false
	h := authenticated(func(w http.ResponseWriter, r *http.Request, p types.Principal) {
		called = true
	})

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if called {
		t.Error("handler should not be called without a principal")
	}
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}
