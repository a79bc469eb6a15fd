package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"

	"github.com/jaevor/go-nanoid"

	"github.com/hyperengineering/shopkeep/internal/store"
	"github.com/hyperengineering/shopkeep/internal/types"
)

// TokenLength is the length of generated API tokens.
const TokenLength = 32

// UserService authenticates API callers and decides which stores they may administer.
type UserService struct {
	users    store.UserRepository
	stores   store.StoreRepository
	newToken func() string
}

// NewUserService creates a UserService.
func NewUserService(users store.UserRepository, stores store.StoreRepository) (*UserService, error) {
	gen, err := nanoid.Standard(TokenLength)
	if err != nil {
		return nil, fmt.Errorf("create token generator: %w", err)
	}
	return &UserService{users: users, stores: stores, newToken: gen}, nil
}

// HashToken returns the stored form of an API token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Authenticate resolves a bearer token to the principal that owns it.
func (s *UserService) Authenticate(ctx context.Context, token string) (*types.Principal, error) {
	if token == "" {
		return nil, ErrInvalidCredentials
	}
	u, err := s.users.GetUserByTokenHash(ctx, HashToken(token))
	if errors.Is(err, store.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	return &types.Principal{UserName: u.UserName, Role: u.Role, StoreCode: u.StoreCode}, nil
}

// AuthorizedStore reports whether userName may administer the store identified by code.
// SUPERADMIN may administer every store, any user may administer its own store, and
// ADMIN_RETAIL may also administer the stores whose retailer is its own store.
func (s *UserService) AuthorizedStore(ctx context.Context, userName, code string) (bool, error) {
	u, err := s.users.GetUserByName(ctx, userName)
	if errors.Is(err, store.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("authorize: %w", err)
	}

	if u.Role == types.RoleSuperAdmin {
		return true, nil
	}
	if u.StoreCode == "" {
		return false, nil
	}
	if u.StoreCode == code {
		return true, nil
	}
	if u.Role != types.RoleAdminRetail {
		return false, nil
	}

	target, err := s.stores.GetStore(ctx, code)
	if errors.Is(err, store.ErrStoreNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("authorize: %w", err)
	}
	return target.Parent == u.StoreCode, nil
}

// CreateUser stores a new user and returns it with its API token.
// The token is only available here; the store keeps its hash.
func (s *UserService) CreateUser(ctx context.Context, name string, role types.Role, storeCode string) (*types.User, string, error) {
	if name == "" {
		return nil, "", fmt.Errorf("%w: user name is required", ErrInvalidInput)
	}
	if !slices.Contains(types.ValidRoles, string(role)) {
		return nil, "", fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	if role != types.RoleSuperAdmin && storeCode == "" {
		return nil, "", fmt.Errorf("%w: role %s requires a store", ErrInvalidInput, role)
	}
	if storeCode != "" {
		exists, err := s.stores.StoreExists(ctx, storeCode)
		if err != nil {
			return nil, "", err
		}
		if !exists {
			return nil, "", store.ErrStoreNotFound
		}
	}

	token := s.newToken()
	u := &types.User{UserName: name, Role: role, StoreCode: storeCode}
	if err := s.users.CreateUser(ctx, u, HashToken(token)); err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// ListUsers returns all users.
func (s *UserService) ListUsers(ctx context.Context) ([]types.User, error) {
	return s.users.ListUsers(ctx)
}
