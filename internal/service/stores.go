// Package service implements the merchant store operations behind the HTTP API
// and the CLI: store lifecycle, logo content, language resolution and user
// authorization.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"mime"
	"slices"
	"time"

	"github.com/hyperengineering/shopkeep/internal/content"
	"github.com/hyperengineering/shopkeep/internal/criteria"
	"github.com/hyperengineering/shopkeep/internal/events"
	"github.com/hyperengineering/shopkeep/internal/store"
	"github.com/hyperengineering/shopkeep/internal/types"
	"github.com/hyperengineering/shopkeep/internal/validation"
)

// DefaultCurrency is applied when a store is created without a currency.
const DefaultCurrency = "USD"

// SupportedLogoTypes lists the MIME types accepted for store logos.
var SupportedLogoTypes = []string{
	"image/png",
	"image/jpeg",
	"image/gif",
	"image/webp",
	"image/svg+xml",
}

// Recorder receives operation and event failure counts.
type Recorder interface {
	RecordStoreOperation(op string)
	RecordEventFailure(eventType string)
}

type noopRecorder struct{}

func (noopRecorder) RecordStoreOperation(string) {}
func (noopRecorder) RecordEventFailure(string)   {}

// StoreService implements store lifecycle and branding operations.
type StoreService struct {
	repo         store.StoreRepository
	languages    *LanguageService
	content      content.Store
	publisher    events.Publisher
	recorder     Recorder
	maxLogoBytes int64
}

// StoreServiceOption configures optional StoreService collaborators.
type StoreServiceOption func(*StoreService)

// WithPublisher sets the lifecycle event publisher.
func WithPublisher(p events.Publisher) StoreServiceOption {
	return func(s *StoreService) { s.publisher = p }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) StoreServiceOption {
	return func(s *StoreService) { s.recorder = r }
}

// NewStoreService creates a StoreService. Events are dropped and metrics are not
// recorded unless the corresponding options are given.
func NewStoreService(repo store.StoreRepository, languages *LanguageService, cs content.Store, maxLogoBytes int64, opts ...StoreServiceOption) *StoreService {
	s := &StoreService{
		repo:         repo,
		languages:    languages,
		content:      cs,
		publisher:    events.NoopPublisher{},
		recorder:     noopRecorder{},
		maxLogoBytes: maxLogoBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetByCode returns the readable store for code in the requested language.
// An empty lang, or one the store does not support, resolves to the store's default.
func (s *StoreService) GetByCode(ctx context.Context, code, lang string) (*types.ReadableStore, error) {
	ms, err := s.repo.GetStore(ctx, code)
	if err != nil {
		return nil, err
	}

	current := ms.DefaultLanguage
	if lang != "" {
		if _, err := s.languages.Get(ctx, lang); err != nil {
			return nil, err
		}
		if ms.SupportsLanguage(lang) {
			current = lang
		}
	}

	return s.readable(ctx, ms, current)
}

// Create validates and persists a new store.
func (s *StoreService) Create(ctx context.Context, in types.PersistableStore, p types.Principal) (*types.ReadableStore, error) {
	ms, err := s.toMerchantStore(ctx, in, p)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateStore(ctx, ms); err != nil {
		return nil, err
	}

	slog.Info("store created", "code", ms.Code, "user", p.UserName)
	s.recorder.RecordStoreOperation("create")
	s.publish(ctx, events.StoreCreated, ms.Code, p.UserName)

	return s.readable(ctx, ms, ms.DefaultLanguage)
}

// Update overwrites the mutable attributes of an existing store. The code is immutable.
func (s *StoreService) Update(ctx context.Context, in types.PersistableStore, p types.Principal) (*types.ReadableStore, error) {
	existing, err := s.repo.GetStore(ctx, in.Code)
	if err != nil {
		return nil, err
	}

	ms, err := s.toMerchantStore(ctx, in, p)
	if err != nil {
		return nil, err
	}

	if existing.Retailer && !ms.Retailer {
		children, err := s.repo.CountChildStores(ctx, existing.Code)
		if err != nil {
			return nil, err
		}
		if children > 0 {
			return nil, fmt.Errorf("%w: retailer %q still has %d stores", ErrOperationNotAllowed, existing.Code, children)
		}
	}

	ms.Logo = existing.Logo
	ms.CreatedAt = existing.CreatedAt
	if err := s.repo.UpdateStore(ctx, ms); err != nil {
		return nil, err
	}

	slog.Info("store updated", "code", ms.Code, "user", p.UserName)
	s.recorder.RecordStoreOperation("update")
	s.publish(ctx, events.StoreUpdated, ms.Code, p.UserName)

	return s.readable(ctx, ms, ms.DefaultLanguage)
}

// GetBrand returns the branding view of a store.
func (s *StoreService) GetBrand(ctx context.Context, code string) (*types.ReadableBrand, error) {
	ms, err := s.repo.GetStore(ctx, code)
	if err != nil {
		return nil, err
	}

	logo, err := s.logo(ctx, ms)
	if err != nil {
		return nil, err
	}
	return &types.ReadableBrand{Logo: logo}, nil
}

// AddLogo stores file as the store's logo, replacing any previous one.
func (s *StoreService) AddLogo(ctx context.Context, code string, file types.InputContentFile, p types.Principal) error {
	ms, err := s.repo.GetStore(ctx, code)
	if err != nil {
		return err
	}

	if err := checkLogoType(file.MimeType); err != nil {
		return err
	}
	if file.FileName == "" || validation.ValidateFileName("name", file.FileName) != nil {
		return fmt.Errorf("%w: file name %q", ErrInvalidInput, file.FileName)
	}
	if file.Size > s.maxLogoBytes {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrImageTooLarge, file.Size, s.maxLogoBytes)
	}

	// Size may be unknown; read one byte past the limit to detect oversize payloads.
	data, err := io.ReadAll(io.LimitReader(file.File, s.maxLogoBytes+1))
	if err != nil {
		return fmt.Errorf("read logo: %w", err)
	}
	if int64(len(data)) > s.maxLogoBytes {
		return fmt.Errorf("%w: exceeds %d bytes", ErrImageTooLarge, s.maxLogoBytes)
	}
	if len(data) == 0 {
		return fmt.Errorf("%w: empty logo", ErrInvalidInput)
	}

	key := content.ObjectKey(ms.Code, types.FileContentLogo, file.FileName)
	if err := s.content.Put(ctx, key, bytes.NewReader(data), int64(len(data)), file.MimeType); err != nil {
		return fmt.Errorf("store logo: %w", err)
	}

	if err := s.repo.SetStoreLogo(ctx, ms.Code, file.FileName, p.UserName); err != nil {
		// The previous logo keeps its name; only an object under a new name is orphaned.
		if file.FileName != ms.Logo {
			if delErr := s.content.Delete(ctx, key); delErr != nil {
				slog.Warn("failed to remove unrecorded logo", "code", ms.Code, "key", key, "error", delErr)
			}
		}
		return err
	}

	if ms.Logo != "" && ms.Logo != file.FileName {
		old := content.ObjectKey(ms.Code, types.FileContentLogo, ms.Logo)
		if err := s.content.Delete(ctx, old); err != nil {
			slog.Warn("failed to remove previous logo", "code", ms.Code, "key", old, "error", err)
		}
	}

	slog.Info("store logo added", "code", ms.Code, "file", file.FileName, "bytes", len(data))
	s.recorder.RecordStoreOperation("logo_add")
	s.publish(ctx, events.StoreLogoAdded, ms.Code, p.UserName)
	return nil
}

// DeleteLogo removes the store's logo. A store without a logo is left unchanged.
func (s *StoreService) DeleteLogo(ctx context.Context, code string, p types.Principal) error {
	ms, err := s.repo.GetStore(ctx, code)
	if err != nil {
		return err
	}
	if ms.Logo == "" {
		return nil
	}

	key := content.ObjectKey(ms.Code, types.FileContentLogo, ms.Logo)
	if err := s.content.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete logo: %w", err)
	}
	if err := s.repo.SetStoreLogo(ctx, ms.Code, "", p.UserName); err != nil {
		return err
	}

	slog.Info("store logo deleted", "code", ms.Code)
	s.recorder.RecordStoreOperation("logo_delete")
	s.publish(ctx, events.StoreLogoDeleted, ms.Code, p.UserName)
	return nil
}

// ExistsByCode reports whether a store with code exists. An empty code never exists.
func (s *StoreService) ExistsByCode(ctx context.Context, code string) (bool, error) {
	if code == "" {
		return false, nil
	}
	return s.repo.StoreExists(ctx, code)
}

// GetByCriteria returns one page of stores rendered in lang.
func (s *StoreService) GetByCriteria(ctx context.Context, c types.StoreCriteria, draw string, lang types.Language) (*types.ReadableStoreList, error) {
	criteria.Clamp(&c)

	filter := types.StoreFilter{
		Offset:     c.StartIndex,
		Limit:      c.MaxCount,
		Code:       c.Code,
		Name:       c.Name,
		Search:     c.Search,
		ModifiedBy: c.Filters["auditSection.modifiedBy"],
		OrderBy:    c.OrderBy,
		OrderDir:   c.OrderDir,
	}

	page, err := s.repo.ListStores(ctx, filter)
	if err != nil {
		return nil, err
	}

	list := &types.ReadableStoreList{
		Data:            make([]types.ReadableStore, 0, len(page.Stores)),
		Number:          c.StartIndex/c.MaxCount + 1,
		TotalPages:      int(math.Ceil(float64(page.Filtered) / float64(c.MaxCount))),
		RecordsTotal:    page.Total,
		RecordsFiltered: page.Filtered,
		Draw:            draw,
	}

	for i := range page.Stores {
		ms := &page.Stores[i]
		current := ms.DefaultLanguage
		if lang.Code != "" && ms.SupportsLanguage(lang.Code) {
			current = lang.Code
		}
		rs, err := s.readable(ctx, ms, current)
		if err != nil {
			return nil, err
		}
		list.Data = append(list.Data, *rs)
	}

	return list, nil
}

// Delete removes a store and its logo. The default store and retailers that still
// have stores attached cannot be deleted.
func (s *StoreService) Delete(ctx context.Context, code string, p types.Principal) error {
	ms, err := s.repo.GetStore(ctx, code)
	if err != nil {
		return err
	}
	if ms.Code == types.DefaultStoreCode {
		return fmt.Errorf("%w: the %s store cannot be deleted", ErrOperationNotAllowed, types.DefaultStoreCode)
	}

	children, err := s.repo.CountChildStores(ctx, ms.Code)
	if err != nil {
		return err
	}
	if children > 0 {
		return fmt.Errorf("%w: retailer %q still has %d stores", ErrOperationNotAllowed, ms.Code, children)
	}

	if err := s.repo.DeleteStore(ctx, ms.Code); err != nil {
		return err
	}

	if ms.Logo != "" {
		key := content.ObjectKey(ms.Code, types.FileContentLogo, ms.Logo)
		if err := s.content.Delete(ctx, key); err != nil {
			slog.Warn("failed to remove logo of deleted store", "code", ms.Code, "key", key, "error", err)
		}
	}

	slog.Info("store deleted", "code", ms.Code, "user", p.UserName)
	s.recorder.RecordStoreOperation("delete")
	s.publish(ctx, events.StoreDeleted, ms.Code, p.UserName)
	return nil
}

// Count returns the number of stores.
func (s *StoreService) Count(ctx context.Context) (int64, error) {
	return s.repo.CountStores(ctx)
}

// toMerchantStore validates references in in and fills defaults.
func (s *StoreService) toMerchantStore(ctx context.Context, in types.PersistableStore, p types.Principal) (*types.MerchantStore, error) {
	ms := &types.MerchantStore{
		Code:            in.Code,
		Name:            in.Name,
		Email:           in.Email,
		Phone:           in.Phone,
		Address:         in.Address,
		DefaultLanguage: in.DefaultLanguage,
		Currency:        in.Currency,
		Retailer:        in.Retailer,
		Parent:          in.RetailerStore,
		ModifiedBy:      p.UserName,
	}

	if ms.DefaultLanguage == "" {
		def, err := s.languages.DefaultLanguage(ctx)
		if err != nil {
			return nil, err
		}
		ms.DefaultLanguage = def.Code
	}
	if ms.Currency == "" {
		ms.Currency = DefaultCurrency
	}

	langs := []string{ms.DefaultLanguage}
	for _, l := range in.SupportedLanguages {
		if !slices.Contains(langs, l) {
			langs = append(langs, l)
		}
	}
	for _, l := range langs {
		if _, err := s.languages.Get(ctx, l); err != nil {
			return nil, err
		}
	}
	ms.SupportedLanguages = langs

	if in.InBusinessSince != "" {
		t, err := time.Parse(time.DateOnly, in.InBusinessSince)
		if err != nil {
			return nil, fmt.Errorf("%w: inBusinessSince %q", ErrInvalidInput, in.InBusinessSince)
		}
		ms.InBusinessSince = &t
	}

	if ms.Parent != "" {
		if ms.Parent == ms.Code {
			return nil, fmt.Errorf("%w: a store cannot be its own retailer", ErrInvalidParent)
		}
		parent, err := s.repo.GetStore(ctx, ms.Parent)
		if errors.Is(err, store.ErrStoreNotFound) {
			return nil, fmt.Errorf("%w: %q does not exist", ErrInvalidParent, ms.Parent)
		}
		if err != nil {
			return nil, err
		}
		if !parent.Retailer {
			return nil, fmt.Errorf("%w: %q is not a retailer", ErrInvalidParent, ms.Parent)
		}
	}

	return ms, nil
}

// readable renders ms with current as the effective language.
func (s *StoreService) readable(ctx context.Context, ms *types.MerchantStore, current string) (*types.ReadableStore, error) {
	catalogue, err := s.languages.byCode(ctx)
	if err != nil {
		return nil, err
	}

	rs := &types.ReadableStore{
		ID:                 ms.ID,
		Code:               ms.Code,
		Name:               ms.Name,
		Email:              ms.Email,
		Phone:              ms.Phone,
		Address:            ms.Address,
		DefaultLanguage:    ms.DefaultLanguage,
		SupportedLanguages: make([]types.Language, 0, len(ms.SupportedLanguages)),
		CurrentLanguage:    current,
		Currency:           ms.Currency,
		Retailer:           ms.Retailer,
		Parent:             ms.Parent,
		ReadableAudit: types.ReadableAudit{
			Created:  ms.CreatedAt.Format(time.RFC3339),
			Modified: ms.UpdatedAt.Format(time.RFC3339),
			User:     ms.ModifiedBy,
		},
	}
	for _, code := range ms.SupportedLanguages {
		if l, ok := catalogue[code]; ok {
			rs.SupportedLanguages = append(rs.SupportedLanguages, l)
		}
	}
	if ms.InBusinessSince != nil {
		rs.InBusinessSince = ms.InBusinessSince.Format(time.DateOnly)
	}

	rs.Logo, err = s.logo(ctx, ms)
	if err != nil {
		return nil, err
	}
	return rs, nil
}

func (s *StoreService) logo(ctx context.Context, ms *types.MerchantStore) (*types.ReadableImage, error) {
	if ms.Logo == "" {
		return nil, nil
	}
	path, err := s.content.URL(ctx, content.ObjectKey(ms.Code, types.FileContentLogo, ms.Logo))
	if err != nil {
		return nil, fmt.Errorf("resolve logo url: %w", err)
	}
	return &types.ReadableImage{Name: ms.Logo, Path: path}, nil
}

// publish sends a lifecycle event. Failures are logged and counted, never returned.
func (s *StoreService) publish(ctx context.Context, t events.Type, code, actor string) {
	if err := s.publisher.Publish(ctx, events.New(t, code, actor)); err != nil {
		slog.Warn("failed to publish store event", "type", t, "code", code, "error", err)
		s.recorder.RecordEventFailure(string(t))
	}
}

func checkLogoType(mimeType string) error {
	mt, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnsupportedImage, mimeType)
	}
	if !slices.Contains(SupportedLogoTypes, mt) {
		return fmt.Errorf("%w: %q", ErrUnsupportedImage, mt)
	}
	return nil
}
