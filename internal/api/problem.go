package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hyperengineering/shopkeep/internal/service"
	"github.com/hyperengineering/shopkeep/internal/store"
	"github.com/hyperengineering/shopkeep/internal/validation"
)

// Problem represents an RFC 7807 Problem Details response.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
}

// problemTypes maps HTTP status codes to RFC 7807 type URIs and titles.
var problemTypes = map[int]struct {
	typeURI string
	title   string
}{
	http.StatusUnauthorized: {
		typeURI: "https://shopkeep.dev/errors/unauthorized",
		title:   "Unauthorized",
	},
	http.StatusBadRequest: {
		typeURI: "https://shopkeep.dev/errors/bad-request",
		title:   "Bad Request",
	},
	http.StatusNotFound: {
		typeURI: "https://shopkeep.dev/errors/not-found",
		title:   "Not Found",
	},
	http.StatusInternalServerError: {
		typeURI: "https://shopkeep.dev/errors/internal-error",
		title:   "Internal Server Error",
	},
	http.StatusUnprocessableEntity: {
		typeURI: "https://shopkeep.dev/errors/validation-error",
		title:   "Validation Error",
	},
	http.StatusConflict: {
		typeURI: "https://shopkeep.dev/errors/conflict",
		title:   "Conflict",
	},
	http.StatusForbidden: {
		typeURI: "https://shopkeep.dev/errors/forbidden",
		title:   "Forbidden",
	},
	http.StatusRequestEntityTooLarge: {
		typeURI: "https://shopkeep.dev/errors/too-large",
		title:   "Payload Too Large",
	},
	http.StatusUnsupportedMediaType: {
		typeURI: "https://shopkeep.dev/errors/unsupported-media-type",
		title:   "Unsupported Media Type",
	},
}

// WriteProblem writes an RFC 7807 Problem Details response.
func WriteProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	pt, ok := problemTypes[status]
	if !ok {
		pt = struct {
			typeURI string
			title   string
		}{
			typeURI: "https://shopkeep.dev/errors/unknown",
			title:   http.StatusText(status),
		}
	}

	p := Problem{
		Type:     pt.typeURI,
		Title:    pt.title,
		Status:   status,
		Detail:   detail,
		Instance: r.URL.Path,
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		slog.Error("failed to encode problem response", "error", err)
	}
}

// ProblemWithErrors extends Problem with validation error details.
type ProblemWithErrors struct {
	Problem
	Errors []validation.ValidationError `json:"errors,omitempty"`
}

// WriteProblemWithErrors writes a 422 Problem Details response with field errors.
func WriteProblemWithErrors(w http.ResponseWriter, r *http.Request, detail string, errs []validation.ValidationError) {
	pt := problemTypes[http.StatusUnprocessableEntity]

	p := ProblemWithErrors{
		Problem: Problem{
			Type:     pt.typeURI,
			Title:    pt.title,
			Status:   http.StatusUnprocessableEntity,
			Detail:   detail,
			Instance: r.URL.Path,
		},
		Errors: errs,
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		slog.Error("failed to encode problem response", "error", err)
	}
}

// UnauthorizedError is raised when an authenticated user is not allowed to act on a store.
type UnauthorizedError struct {
	User string
	Code string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("user %s not authorized for store %s", e.User, e.Code)
}

// MapServiceError converts domain errors to Problem Details responses.
// Client errors carry the error text; server errors never expose internal detail.
func MapServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var unauthorized *UnauthorizedError
	switch {
	case errors.As(err, &unauthorized):
		WriteProblem(w, r, http.StatusForbidden, unauthorized.Error())
	case errors.Is(err, store.ErrStoreNotFound):
		WriteProblem(w, r, http.StatusNotFound, "Store not found")
	case errors.Is(err, store.ErrStoreExists):
		WriteProblem(w, r, http.StatusConflict, "Store code already exists")
	case errors.Is(err, service.ErrOperationNotAllowed):
		WriteProblem(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrUnknownLanguage),
		errors.Is(err, service.ErrInvalidParent),
		errors.Is(err, service.ErrInvalidInput):
		WriteProblem(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnsupportedImage):
		WriteProblem(w, r, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, service.ErrImageTooLarge):
		WriteProblem(w, r, http.StatusRequestEntityTooLarge, err.Error())
	default:
		slog.Error("request failed", "path", r.URL.Path, "method", r.Method, "error", err)
		// Never expose internal error details to client
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
	}
}
