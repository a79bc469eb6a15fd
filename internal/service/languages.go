package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperengineering/shopkeep/internal/store"
	"github.com/hyperengineering/shopkeep/internal/types"
)

// LanguageService resolves language codes against the seeded catalogue.
type LanguageService struct {
	repo        store.LanguageRepository
	defaultCode string
}

// NewLanguageService creates a LanguageService whose default is defaultCode.
func NewLanguageService(repo store.LanguageRepository, defaultCode string) *LanguageService {
	return &LanguageService{repo: repo, defaultCode: defaultCode}
}

// DefaultLanguage returns the configured default language.
func (s *LanguageService) DefaultLanguage(ctx context.Context) (*types.Language, error) {
	return s.Get(ctx, s.defaultCode)
}

// Get returns the language for code, or ErrUnknownLanguage.
func (s *LanguageService) Get(ctx context.Context, code string) (*types.Language, error) {
	l, err := s.repo.GetLanguage(ctx, code)
	if errors.Is(err, store.ErrLanguageNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLanguage, code)
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

// List returns every known language.
func (s *LanguageService) List(ctx context.Context) ([]types.Language, error) {
	return s.repo.ListLanguages(ctx)
}

// byCode indexes the catalogue by language code.
func (s *LanguageService) byCode(ctx context.Context) (map[string]types.Language, error) {
	langs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]types.Language, len(langs))
	for _, l := range langs {
		out[l.Code] = l
	}
	return out, nil
}
