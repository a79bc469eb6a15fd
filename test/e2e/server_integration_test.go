package e2e

import (
	"net/http"
	"slices"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/hyperengineering/shopkeep/internal/api"
	"github.com/hyperengineering/shopkeep/internal/events"
	"github.com/hyperengineering/shopkeep/internal/types"
)

// --- Store Lifecycle ---

func TestServer_StoreLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	root := env.newUser(t, "root", types.RoleSuperAdmin, "")

	// Create
	w := env.do(t, http.MethodPost, "/api/v1/private/store", root, storeBody("acme"))
	expectStatus(t, w, http.StatusOK)
	created := decode[types.ReadableStore](t, w)
	if created.Code != "acme" || created.DefaultLanguage != "en" || created.Currency != "USD" {
		t.Errorf("created = %+v, want defaults applied", created)
	}
	if created.ReadableAudit.User != "root" {
		t.Errorf("audit user = %q, want root", created.ReadableAudit.User)
	}

	// Public read
	w = env.do(t, http.MethodGet, "/api/v1/store/acme", "", nil)
	expectStatus(t, w, http.StatusOK)
	if got := decode[types.ReadableStore](t, w); got.Name != "Store acme" {
		t.Errorf("name = %q", got.Name)
	}

	// Exists
	w = env.do(t, http.MethodGet, "/api/v1/private/store/unique?code=acme", root, nil)
	expectStatus(t, w, http.StatusOK)
	if !decode[types.EntityExists](t, w).Exists {
		t.Error("exists = false, want true")
	}

	// Update
	body := storeBody("acme")
	body.Name = "Acme Corporation"
	body.SupportedLanguages = []string{"en", "fr"}
	w = env.do(t, http.MethodPut, "/api/v1/private/store/acme", root, body)
	expectStatus(t, w, http.StatusOK)

	w = env.do(t, http.MethodGet, "/api/v1/store/acme?lang=fr", "", nil)
	expectStatus(t, w, http.StatusOK)
	got := decode[types.ReadableStore](t, w)
	if got.Name != "Acme Corporation" || got.CurrentLanguage != "fr" {
		t.Errorf("after update = %+v", got)
	}

	// Delete
	w = env.do(t, http.MethodDelete, "/api/v1/private/store/acme", root, nil)
	expectStatus(t, w, http.StatusOK)

	w = env.do(t, http.MethodGet, "/api/v1/store/acme", "", nil)
	expectStatus(t, w, http.StatusNotFound)

	w = env.do(t, http.MethodGet, "/api/v1/private/store/unique?code=acme", root, nil)
	expectStatus(t, w, http.StatusOK)
	if decode[types.EntityExists](t, w).Exists {
		t.Error("exists = true after delete")
	}

	want := []events.Type{events.StoreCreated, events.StoreUpdated, events.StoreDeleted}
	if !slices.Equal(env.published.eventTypes(), want) {
		t.Errorf("events = %v, want %v", env.published.eventTypes(), want)
	}
}

func TestServer_CreateDuplicateConflict(t *testing.T) {
	env := setupTestEnv(t)
	root := env.newUser(t, "root", types.RoleSuperAdmin, "")

	expectStatus(t, env.do(t, http.MethodPost, "/api/v1/private/store", root, storeBody("acme")), http.StatusOK)
	w := env.do(t, http.MethodPost, "/api/v1/private/store", root, storeBody("acme"))
	expectStatus(t, w, http.StatusConflict)

	p := decode[api.Problem](t, w)
	if p.Type != "https://shopkeep.dev/errors/conflict" {
		t.Errorf("problem type = %q", p.Type)
	}
}

func TestServer_CreateValidationErrors(t *testing.T) {
	env := setupTestEnv(t)
	root := env.newUser(t, "root", types.RoleSuperAdmin, "")

	w := env.do(t, http.MethodPost, "/api/v1/private/store", root, types.PersistableStore{Code: "bad code!"})
	expectStatus(t, w, http.StatusUnprocessableEntity)
	if !strings.Contains(w.Body.String(), `"field":"email"`) {
		t.Errorf("body = %s, want an email field error", w.Body.String())
	}
}

// --- Authorization ---

func TestServer_AuthorizationRules(t *testing.T) {
	env := setupTestEnv(t)
	root := env.newUser(t, "root", types.RoleSuperAdmin, "")

	chain := storeBody("chain")
	chain.Retailer = true
	expectStatus(t, env.do(t, http.MethodPost, "/api/v1/private/store", root, chain), http.StatusOK)

	branch := storeBody("branch")
	branch.RetailerStore = "chain"
	expectStatus(t, env.do(t, http.MethodPost, "/api/v1/private/store", root, branch), http.StatusOK)
	expectStatus(t, env.do(t, http.MethodPost, "/api/v1/private/store", root, storeBody("other")), http.StatusOK)

	retail := env.newUser(t, "retail", types.RoleAdminRetail, "chain")
	admin := env.newUser(t, "admin", types.RoleAdmin, "branch")

	tests := []struct {
		name  string
		token string
		code  string
		want  int
	}{
		{"superadmin any store", root, "other", http.StatusOK},
		{"retail own store", retail, "chain", http.StatusOK},
		{"retail child store", retail, "branch", http.StatusOK},
		{"retail unrelated store", retail, "other", http.StatusForbidden},
		{"admin own store", admin, "branch", http.StatusOK},
		{"admin parent store", admin, "chain", http.StatusForbidden},
		{"admin unrelated store", admin, "other", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, "/api/v1/private/store/"+tt.code+"/marketing", tt.token, nil)
			expectStatus(t, w, tt.want)
		})
	}
}

func TestServer_ForbiddenLeavesStoreUnchanged(t *testing.T) {
	env := setupTestEnv(t)
	root := env.newUser(t, "root", types.RoleSuperAdmin, "")
	expectStatus(t, env.do(t, http.MethodPost, "/api/v1/private/store", root, storeBody("acme")), http.StatusOK)
	outsider := env.newUser(t, "outsider", types.RoleAdmin, types.DefaultStoreCode)

	body := storeBody("acme")
	body.Name = "Hijacked"
	expectStatus(t, env.do(t, http.MethodPut, "/api/v1/private/store/acme", outsider, body), http.StatusForbidden)
	expectStatus(t, env.do(t, http.MethodDelete, "/api/v1/private/store/acme", outsider, nil), http.StatusForbidden)

	w := env.do(t, http.MethodGet, "/api/v1/store/acme", "", nil)
	expectStatus(t, w, http.StatusOK)
	if got := decode[types.ReadableStore](t, w); got.Name != "Store acme" {
		t.Errorf("name = %q, want unchanged", got.Name)
	}
}

func TestServer_PrivateRoutesRequireToken(t *testing.T) {
	env := setupTestEnv(t)

	expectStatus(t, env.do(t, http.MethodGet, "/api/v1/private/stores", "", nil), http.StatusUnauthorized)
	expectStatus(t, env.do(t, http.MethodGet, "/api/v1/private/stores", "not-a-real-token", nil), http.StatusUnauthorized)
}

// --- Logo ---

func TestServer_LogoUploadServeAndDelete(t *testing.T) {
	env := setupTestEnv(t)
	root := env.newUser(t, "root", types.RoleSuperAdmin, "")
	expectStatus(t, env.do(t, http.MethodPost, "/api/v1/private/store", root, storeBody("store1")), http.StatusOK)

	png := []byte("\x89PNG\r\n\x1a\nlogo-bytes")
	w := env.do(t, http.MethodPost, "/api/v1/private/store/store1/marketing/logo", root, logoBody("logo.png", "image/png", png))
	expectStatus(t, w, http.StatusCreated)
	if w.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", w.Body.String())
	}

	w = env.do(t, http.MethodGet, "/api/v1/private/store/store1/marketing", root, nil)
	expectStatus(t, w, http.StatusOK)
	brand := decode[types.ReadableBrand](t, w)
	if brand.Logo == nil || brand.Logo.Name != "logo.png" {
		t.Fatalf("brand = %+v, want logo.png", brand)
	}

	// The logo path is served by the static file mount.
	w = env.do(t, http.MethodGet, brand.Logo.Path, "", nil)
	expectStatus(t, w, http.StatusOK)
	if w.Body.String() != string(png) {
		t.Errorf("served logo = %q, want original bytes", w.Body.String())
	}

	w = env.do(t, http.MethodDelete, "/api/v1/private/store/store1/marketing/logo", root, nil)
	expectStatus(t, w, http.StatusOK)

	w = env.do(t, http.MethodGet, brand.Logo.Path, "", nil)
	expectStatus(t, w, http.StatusNotFound)

	w = env.do(t, http.MethodGet, "/api/v1/store/store1", "", nil)
	if got := decode[types.ReadableStore](t, w); got.Logo != nil {
		t.Errorf("logo = %+v, want none after delete", got.Logo)
	}
}

func TestServer_LogoRejectsUnsupportedType(t *testing.T) {
	env := setupTestEnv(t)
	root := env.newUser(t, "root", types.RoleSuperAdmin, "")
	expectStatus(t, env.do(t, http.MethodPost, "/api/v1/private/store", root, storeBody("store1")), http.StatusOK)

	w := env.do(t, http.MethodPost, "/api/v1/private/store/store1/marketing/logo", root,
		logoBody("logo.pdf", "application/pdf", []byte("%PDF")))
	expectStatus(t, w, http.StatusUnsupportedMediaType)
}

// --- Listing ---

func TestServer_ListStores(t *testing.T) {
	env := setupTestEnv(t)
	root := env.newUser(t, "root", types.RoleSuperAdmin, "")
	for _, code := range []string{"alpha", "beta", "gamma"} {
		expectStatus(t, env.do(t, http.MethodPost, "/api/v1/private/store", root, storeBody(code)), http.StatusOK)
	}

	w := env.do(t, http.MethodGet, "/api/v1/private/stores?start=0&length=2&draw=7", root, nil)
	expectStatus(t, w, http.StatusOK)
	list := decode[types.ReadableStoreList](t, w)
	if len(list.Data) != 2 || list.RecordsTotal != 4 || list.TotalPages != 2 || list.Draw != "7" {
		t.Errorf("list = %+v, want 2 of 4 stores over 2 pages", list)
	}

	w = env.do(t, http.MethodGet, "/api/v1/private/stores?search=gam", root, nil)
	expectStatus(t, w, http.StatusOK)
	list = decode[types.ReadableStoreList](t, w)
	if len(list.Data) != 1 || list.Data[0].Code != "gamma" || list.RecordsFiltered != 1 {
		t.Errorf("search list = %+v, want only gamma", list)
	}

	w = env.do(t, http.MethodGet, "/api/v1/private/stores?start=abc", root, nil)
	expectStatus(t, w, http.StatusBadRequest)
}

// --- Health and Metrics ---

func TestServer_HealthAndMetrics(t *testing.T) {
	env := setupTestEnv(t)
	root := env.newUser(t, "root", types.RoleSuperAdmin, "")
	expectStatus(t, env.do(t, http.MethodPost, "/api/v1/private/store", root, storeBody("acme")), http.StatusOK)

	w := env.do(t, http.MethodGet, "/api/v1/health", "", nil)
	expectStatus(t, w, http.StatusOK)
	health := decode[types.HealthResponse](t, w)
	if health.Status != "healthy" || health.StoreCount != 2 || health.Version != "e2e" {
		t.Errorf("health = %+v", health)
	}

	if got := testutil.ToFloat64(env.metrics.StoreOperations.WithLabelValues("create")); got != 1 {
		t.Errorf("create operations = %v, want 1", got)
	}

	w = env.do(t, http.MethodGet, "/metrics", "", nil)
	expectStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), "shopkeep_store_operations_total") {
		t.Error("metrics output missing store operations counter")
	}
}
