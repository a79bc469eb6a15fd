package e2e

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/hyperengineering/shopkeep/internal/api"
	"github.com/hyperengineering/shopkeep/internal/content"
	"github.com/hyperengineering/shopkeep/internal/events"
	"github.com/hyperengineering/shopkeep/internal/metrics"
	"github.com/hyperengineering/shopkeep/internal/service"
	"github.com/hyperengineering/shopkeep/internal/store"
	"github.com/hyperengineering/shopkeep/internal/types"
)

// capturePublisher records published events in order.
type capturePublisher struct {
	events []events.Event
}

func (c *capturePublisher) Publish(ctx context.Context, e events.Event) error {
	c.events = append(c.events, e)
	return nil
}

func (c *capturePublisher) Close() error { return nil }

func (c *capturePublisher) eventTypes() []events.Type {
	out := make([]events.Type, len(c.events))
	for i, e := range c.events {
		out[i] = e.Type
	}
	return out
}

// testEnv is a fully wired server backed by a temporary database and content directory.
type testEnv struct {
	router    http.Handler
	db        *store.SQLiteStore
	users     *service.UserService
	content   *content.FileSystemStore
	metrics   *metrics.Metrics
	published *capturePublisher
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	db, err := store.NewSQLiteStore(filepath.Join(dir, "shopkeep.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cs, err := content.NewFileSystemStore(filepath.Join(dir, "content"), "/static")
	if err != nil {
		t.Fatalf("NewFileSystemStore() error = %v", err)
	}

	users, err := service.NewUserService(db, db)
	if err != nil {
		t.Fatalf("NewUserService() error = %v", err)
	}

	m := metrics.New()
	pub := &capturePublisher{}
	languages := service.NewLanguageService(db, "en")
	stores := service.NewStoreService(db, languages, cs, 1<<20,
		service.WithPublisher(pub), service.WithRecorder(m))

	handler := api.NewHandler(stores, languages, users, "e2e")
	router := api.NewRouter(handler, api.RouterConfig{
		Authenticator: users,
		Metrics:       m,
		MaxBodyBytes:  4 << 20,
		StaticPrefix:  cs.BaseURL(),
		StaticDir:     cs.Root(),
	})

	return &testEnv{router: router, db: db, users: users, content: cs, metrics: m, published: pub}
}

// newUser creates a user and returns its bearer token.
func (e *testEnv) newUser(t *testing.T, name string, role types.Role, storeCode string) string {
	t.Helper()
	_, token, err := e.users.CreateUser(context.Background(), name, role, storeCode)
	if err != nil {
		t.Fatalf("CreateUser(%s) error = %v", name, err)
	}
	return token
}

// do sends a request through the router. A non-nil body is JSON encoded.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, want, w.Body.String())
	}
}

func storeBody(code string) types.PersistableStore {
	return types.PersistableStore{
		Code:  code,
		Name:  "Store " + code,
		Email: "owner@" + code + ".example.com",
	}
}

func logoBody(name, contentType string, data []byte) map[string]string {
	return map[string]string{
		"name":        name,
		"contentType": contentType,
		"bytes":       base64.StdEncoding.EncodeToString(data),
	}
}
