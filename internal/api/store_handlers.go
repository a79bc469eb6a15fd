package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hyperengineering/shopkeep/internal/criteria"
	"github.com/hyperengineering/shopkeep/internal/types"
	"github.com/hyperengineering/shopkeep/internal/validation"
)

// storeFieldMapping translates list request field names to internal store fields.
var storeFieldMapping = map[string]string{
	"name":               "storename",
	"readableAudit.user": "auditSection.modifiedBy",
}

// GetStore handles GET /api/v1/store/{store}
func (h *Handler) GetStore(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "store")
	lang := r.URL.Query().Get("lang")

	rs, err := h.stores.GetByCode(r.Context(), code, lang)
	if err != nil {
		MapServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

// CreateStore handles POST /api/v1/private/store
func (h *Handler) CreateStore(w http.ResponseWriter, r *http.Request, p types.Principal) {
	var in types.PersistableStore
	if !decodeJSON(w, r, &in) {
		return
	}
	if errs := validation.ValidatePersistableStore(in); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	rs, err := h.stores.Create(r.Context(), in, p)
	if err != nil {
		MapServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

// UpdateStore handles PUT /api/v1/private/store/{code}
func (h *Handler) UpdateStore(w http.ResponseWriter, r *http.Request, p types.Principal) {
	code := chi.URLParam(r, "code")

	var in types.PersistableStore
	if !decodeJSON(w, r, &in) {
		return
	}
	if in.Code == "" {
		in.Code = code
	}
	if in.Code != code {
		WriteProblem(w, r, http.StatusBadRequest,
			fmt.Sprintf("Body code %q does not match path code %q", in.Code, code))
		return
	}
	if errs := validation.ValidatePersistableStore(in); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	if !h.authorize(w, r, p, code) {
		return
	}

	rs, err := h.stores.Update(r.Context(), in, p)
	if err != nil {
		MapServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

// GetStoreMarketing handles GET /api/v1/private/store/{code}/marketing
func (h *Handler) GetStoreMarketing(w http.ResponseWriter, r *http.Request, p types.Principal) {
	code := chi.URLParam(r, "code")
	if !h.authorize(w, r, p, code) {
		return
	}

	brand, err := h.stores.GetBrand(r.Context(), code)
	if err != nil {
		MapServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, brand)
}

// CreateLogo handles POST /api/v1/private/store/{code}/marketing/logo
func (h *Handler) CreateLogo(w http.ResponseWriter, r *http.Request, p types.Principal) {
	code := chi.URLParam(r, "code")

	var img types.PersistableImage
	if !decodeJSON(w, r, &img) {
		return
	}
	if errs := validation.ValidatePersistableImage(img); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	if !h.authorize(w, r, p, code) {
		return
	}

	file := types.InputContentFile{
		FileName:        img.Name,
		MimeType:        img.ContentType,
		FileContentType: types.FileContentLogo,
		File:            bytes.NewReader(img.Bytes),
		Size:            int64(len(img.Bytes)),
	}
	if err := h.stores.AddLogo(r.Context(), code, file, p); err != nil {
		MapServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// DeleteLogo handles DELETE /api/v1/private/store/{code}/marketing/logo
func (h *Handler) DeleteLogo(w http.ResponseWriter, r *http.Request, p types.Principal) {
	code := chi.URLParam(r, "code")
	if !h.authorize(w, r, p, code) {
		return
	}

	if err := h.stores.DeleteLogo(r.Context(), code, p); err != nil {
		MapServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// StoreExists handles GET /api/v1/private/store/unique?code=
func (h *Handler) StoreExists(w http.ResponseWriter, r *http.Request, p types.Principal) {
	exists, err := h.stores.ExistsByCode(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		MapServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.EntityExists{Exists: exists})
}

// ListStores handles GET /api/v1/private/stores
func (h *Handler) ListStores(w http.ResponseWriter, r *http.Request, p types.Principal) {
	q := r.URL.Query()

	c := criteria.Build(storeFieldMapping, q)

	// Explicit start/length must be integers and override whatever Build derived.
	if v := q.Get("start"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid start %q", v))
			return
		}
		c.StartIndex = n
	}
	if v := q.Get("length"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid length %q", v))
			return
		}
		c.MaxCount = n
	}
	criteria.Clamp(&c)

	if search := strings.TrimSpace(c.Search); search != "" {
		c.Code = search
		c.Name = search
	}

	lang, err := h.languages.DefaultLanguage(r.Context())
	if err != nil {
		MapServiceError(w, r, err)
		return
	}
	c.Language = lang.Code

	list, err := h.stores.GetByCriteria(r.Context(), c, q.Get("draw"), *lang)
	if err != nil {
		MapServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// DeleteStore handles DELETE /api/v1/private/store/{code}
func (h *Handler) DeleteStore(w http.ResponseWriter, r *http.Request, p types.Principal) {
	code := chi.URLParam(r, "code")
	if !h.authorize(w, r, p, code) {
		return
	}

	if err := h.stores.Delete(r.Context(), code, p); err != nil {
		MapServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
