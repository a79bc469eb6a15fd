package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hyperengineering/shopkeep/internal/types"
)

// StoreService is the store facade the handlers delegate to.
type StoreService interface {
	GetByCode(ctx context.Context, code, lang string) (*types.ReadableStore, error)
	Create(ctx context.Context, in types.PersistableStore, p types.Principal) (*types.ReadableStore, error)
	Update(ctx context.Context, in types.PersistableStore, p types.Principal) (*types.ReadableStore, error)
	GetBrand(ctx context.Context, code string) (*types.ReadableBrand, error)
	AddLogo(ctx context.Context, code string, file types.InputContentFile, p types.Principal) error
	DeleteLogo(ctx context.Context, code string, p types.Principal) error
	ExistsByCode(ctx context.Context, code string) (bool, error)
	GetByCriteria(ctx context.Context, c types.StoreCriteria, draw string, lang types.Language) (*types.ReadableStoreList, error)
	Delete(ctx context.Context, code string, p types.Principal) error
	Count(ctx context.Context) (int64, error)
}

// LanguageResolver provides the default language for list rendering.
type LanguageResolver interface {
	DefaultLanguage(ctx context.Context) (*types.Language, error)
}

// UserAuthorizer decides whether a user may administer a store.
type UserAuthorizer interface {
	AuthorizedStore(ctx context.Context, userName, code string) (bool, error)
}

// Handler implements the API handlers
type Handler struct {
	stores    StoreService
	languages LanguageResolver
	users     UserAuthorizer
	version   string
}

// NewHandler creates a new Handler
func NewHandler(stores StoreService, languages LanguageResolver, users UserAuthorizer, version string) *Handler {
	return &Handler{
		stores:    stores,
		languages: languages,
		users:     users,
		version:   version,
	}
}

// Health returns the health status
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	count, err := h.stores.Count(r.Context())
	if err != nil {
		slog.Error("health check failed", "error", err)
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	writeJSON(w, http.StatusOK, types.HealthResponse{
		Status:     "healthy",
		Version:    h.version,
		StoreCount: count,
	})
}

// authorize writes a problem response and returns false unless p may act on code.
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, p types.Principal, code string) bool {
	ok, err := h.users.AuthorizedStore(r.Context(), p.UserName, code)
	if err != nil {
		MapServiceError(w, r, fmt.Errorf("authorize %s for %s: %w", p.UserName, code, err))
		return false
	}
	if !ok {
		slog.Warn("authorization denied", "user", p.UserName, "code", code, "path", r.URL.Path)
		MapServiceError(w, r, &UnauthorizedError{User: p.UserName, Code: code})
		return false
	}
	return true
}

// decodeJSON decodes the request body into v, writing a problem response on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteProblem(w, r, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
