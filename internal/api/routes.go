package api

import (
	"io/fs"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hyperengineering/shopkeep/internal/metrics"
)

// RouterConfig carries the collaborators the router wires around the handlers.
type RouterConfig struct {
	Authenticator Authenticator
	Metrics       *metrics.Metrics
	MaxBodyBytes  int64

	// StaticPrefix and StaticDir serve locally stored content files when both are set
	// and StaticPrefix is a path (not an absolute URL).
	StaticPrefix string
	StaticDir    string
}

// NewRouter creates a new router with all routes configured
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	if cfg.StaticDir != "" && strings.HasPrefix(cfg.StaticPrefix, "/") {
		prefix := strings.TrimRight(cfg.StaticPrefix, "/")
		files := http.StripPrefix(prefix, http.FileServer(filesOnly{http.Dir(cfg.StaticDir)}))
		r.Handle(prefix+"/*", files)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.MaxBodyBytes > 0 {
			r.Use(middleware.RequestSize(cfg.MaxBodyBytes))
		}

		// Public routes
		r.Get("/health", h.Health)
		r.Get("/store/{store}", h.GetStore)

		// Protected routes (auth required)
		r.Route("/private", func(r chi.Router) {
			r.Use(AuthMiddleware(cfg.Authenticator))
			r.Post("/store", authenticated(h.CreateStore))
			r.Get("/store/unique", authenticated(h.StoreExists))
			r.Put("/store/{code}", authenticated(h.UpdateStore))
			r.Delete("/store/{code}", authenticated(h.DeleteStore))
			r.Get("/store/{code}/marketing", authenticated(h.GetStoreMarketing))
			r.Post("/store/{code}/marketing/logo", authenticated(h.CreateLogo))
			r.Delete("/store/{code}/marketing/logo", authenticated(h.DeleteLogo))
			r.Get("/stores", authenticated(h.ListStores))
		})
	})

	return r
}

// filesOnly serves regular files and reports directories as missing, so the
// content tree cannot be listed.
type filesOnly struct {
	dir http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.dir.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, fs.ErrNotExist
	}
	return file, nil
}
