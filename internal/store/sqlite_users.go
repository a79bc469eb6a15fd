package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hyperengineering/shopkeep/internal/types"
	"github.com/oklog/ulid/v2"
)

// GetLanguage returns the language with the given code.
func (s *SQLiteStore) GetLanguage(ctx context.Context, code string) (*types.Language, error) {
	var l types.Language
	err := s.db.QueryRowContext(ctx,
		`SELECT code, name FROM languages WHERE code = ?`, code).Scan(&l.Code, &l.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLanguageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get language: %w", err)
	}
	return &l, nil
}

// ListLanguages returns all languages ordered by code.
func (s *SQLiteStore) ListLanguages(ctx context.Context) ([]types.Language, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT code, name FROM languages ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list languages: %w", err)
	}
	defer rows.Close()

	var langs []types.Language
	for rows.Next() {
		var l types.Language
		if err := rows.Scan(&l.Code, &l.Name); err != nil {
			return nil, fmt.Errorf("scan language: %w", err)
		}
		langs = append(langs, l)
	}
	return langs, rows.Err()
}

const userColumns = `id, user_name, role, store_code, created_at`

func scanUser(scanner interface{ Scan(...any) error }) (*types.User, error) {
	var u types.User
	var storeCode sql.NullString
	var createdAt string

	if err := scanner.Scan(&u.ID, &u.UserName, &u.Role, &storeCode, &createdAt); err != nil {
		return nil, err
	}
	u.StoreCode = storeCode.String
	u.CreatedAt = parseTime(createdAt)
	return &u, nil
}

// CreateUser inserts a user with the hash of its API token.
func (s *SQLiteStore) CreateUser(ctx context.Context, u *types.User, tokenHash string) error {
	u.ID = ulid.Make().String()
	u.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, user_name, token_hash, role, store_code, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, u.ID, u.UserName, tokenHash, string(u.Role), nullString(u.StoreCode), formatTime(u.CreatedAt))
	if isUniqueViolation(err) {
		return ErrUserExists
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUserByName returns the user with the given name.
func (s *SQLiteStore) GetUserByName(ctx context.Context, name string) (*types.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE user_name = ?`, name)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetUserByTokenHash returns the user owning the token hash.
func (s *SQLiteStore) GetUserByTokenHash(ctx context.Context, hash string) (*types.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE token_hash = ?`, hash)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by token: %w", err)
	}
	return u, nil
}

// ListUsers returns all users ordered by name.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]types.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY user_name`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []types.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}
