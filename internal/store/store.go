package store

import (
	"context"

	"github.com/hyperengineering/shopkeep/internal/types"
)

// StoreRepository persists merchant stores keyed by their unique code.
type StoreRepository interface {
	GetStore(ctx context.Context, code string) (*types.MerchantStore, error)
	CreateStore(ctx context.Context, s *types.MerchantStore) error
	UpdateStore(ctx context.Context, s *types.MerchantStore) error
	DeleteStore(ctx context.Context, code string) error
	StoreExists(ctx context.Context, code string) (bool, error)
	ListStores(ctx context.Context, filter types.StoreFilter) (*types.StorePage, error)
	CountChildStores(ctx context.Context, code string) (int64, error)
	SetStoreLogo(ctx context.Context, code, logo, modifiedBy string) error
	CountStores(ctx context.Context) (int64, error)
}

// LanguageRepository reads the seeded language catalogue.
type LanguageRepository interface {
	GetLanguage(ctx context.Context, code string) (*types.Language, error)
	ListLanguages(ctx context.Context) ([]types.Language, error)
}

// UserRepository persists administrative users and their token hashes.
type UserRepository interface {
	CreateUser(ctx context.Context, u *types.User, tokenHash string) error
	GetUserByName(ctx context.Context, name string) (*types.User, error)
	GetUserByTokenHash(ctx context.Context, hash string) (*types.User, error)
	ListUsers(ctx context.Context) ([]types.User, error)
}

// Store defines the interface contract for all persistence operations.
type Store interface {
	StoreRepository
	LanguageRepository
	UserRepository
	Close() error
}
