package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hyperengineering/shopkeep/internal/types"
	"github.com/oklog/ulid/v2"
)

const storeColumns = `id, code, name, email, phone, address, city, postal_code, country, state_province,
	default_language, currency, in_business_since, retailer, parent_code, logo,
	created_at, updated_at, modified_by`

// orderColumns whitelists sortable internal field names.
var orderColumns = map[string]string{
	"code":                     "code",
	"storename":                "name",
	"auditSection.modifiedBy":  "modified_by",
	"auditSection.dateCreated": "created_at",
}

// scanStore scans a row selected with storeColumns.
func scanStore(scanner interface{ Scan(...any) error }) (*types.MerchantStore, error) {
	var s types.MerchantStore
	var inBusinessSince, parent, logo sql.NullString
	var createdAt, updatedAt string

	err := scanner.Scan(
		&s.ID,
		&s.Code,
		&s.Name,
		&s.Email,
		&s.Phone,
		&s.Address.Address,
		&s.Address.City,
		&s.Address.PostalCode,
		&s.Address.Country,
		&s.Address.StateProvince,
		&s.DefaultLanguage,
		&s.Currency,
		&inBusinessSince,
		&s.Retailer,
		&parent,
		&logo,
		&createdAt,
		&updatedAt,
		&s.ModifiedBy,
	)
	if err != nil {
		return nil, err
	}

	if inBusinessSince.Valid {
		if t, err := time.Parse(time.DateOnly, inBusinessSince.String); err == nil {
			s.InBusinessSince = &t
		}
	}
	s.Parent = parent.String
	s.Logo = logo.String
	s.CreatedAt = parseTime(createdAt)
	s.UpdatedAt = parseTime(updatedAt)

	return &s, nil
}

// GetStore returns the store with the given code.
func (s *SQLiteStore) GetStore(ctx context.Context, code string) (*types.MerchantStore, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+storeColumns+` FROM stores WHERE code = ?`, code)
	ms, err := scanStore(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStoreNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get store: %w", err)
	}

	langs, err := loadStoreLanguages(ctx, s.db, []string{ms.ID})
	if err != nil {
		return nil, err
	}
	ms.SupportedLanguages = langs[ms.ID]

	return ms, nil
}

// StoreExists reports whether a store with the given code exists.
func (s *SQLiteStore) StoreExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM stores WHERE code = ?)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check store exists: %w", err)
	}
	return exists, nil
}

// CreateStore inserts a store and its supported languages. ID and timestamps are assigned here.
func (s *SQLiteStore) CreateStore(ctx context.Context, ms *types.MerchantStore) error {
	now := time.Now().UTC()
	ms.ID = ulid.Make().String()
	ms.CreatedAt = now
	ms.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO stores (`+storeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		ms.ID, ms.Code, ms.Name, ms.Email, ms.Phone,
		ms.Address.Address, ms.Address.City, ms.Address.PostalCode, ms.Address.Country, ms.Address.StateProvince,
		ms.DefaultLanguage, ms.Currency, formatDate(ms.InBusinessSince), ms.Retailer,
		nullString(ms.Parent), nullString(ms.Logo),
		formatTime(ms.CreatedAt), formatTime(ms.UpdatedAt), ms.ModifiedBy,
	)
	if isUniqueViolation(err) {
		return ErrStoreExists
	}
	if err != nil {
		return fmt.Errorf("insert store: %w", err)
	}

	if err := replaceStoreLanguages(ctx, tx, ms.ID, ms.SupportedLanguages); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// UpdateStore overwrites the mutable attributes of the store identified by ms.Code.
func (s *SQLiteStore) UpdateStore(ctx context.Context, ms *types.MerchantStore) error {
	ms.UpdatedAt = time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id string
	err = tx.QueryRowContext(ctx, `SELECT id FROM stores WHERE code = ?`, ms.Code).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrStoreNotFound
	}
	if err != nil {
		return fmt.Errorf("lookup store: %w", err)
	}
	ms.ID = id

	_, err = tx.ExecContext(ctx, `
		UPDATE stores SET
			name = ?, email = ?, phone = ?,
			address = ?, city = ?, postal_code = ?, country = ?, state_province = ?,
			default_language = ?, currency = ?, in_business_since = ?, retailer = ?, parent_code = ?,
			updated_at = ?, modified_by = ?
		WHERE id = ?
	`,
		ms.Name, ms.Email, ms.Phone,
		ms.Address.Address, ms.Address.City, ms.Address.PostalCode, ms.Address.Country, ms.Address.StateProvince,
		ms.DefaultLanguage, ms.Currency, formatDate(ms.InBusinessSince), ms.Retailer, nullString(ms.Parent),
		formatTime(ms.UpdatedAt), ms.ModifiedBy,
		id,
	)
	if err != nil {
		return fmt.Errorf("update store: %w", err)
	}

	if err := replaceStoreLanguages(ctx, tx, id, ms.SupportedLanguages); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// DeleteStore removes a store; its language rows cascade and users are detached.
func (s *SQLiteStore) DeleteStore(ctx context.Context, code string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM stores WHERE code = ?`, code)
	if err != nil {
		return fmt.Errorf("delete store: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrStoreNotFound
	}
	return nil
}

// SetStoreLogo records the logo file name; an empty logo clears it.
func (s *SQLiteStore) SetStoreLogo(ctx context.Context, code, logo, modifiedBy string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE stores SET logo = ?, updated_at = ?, modified_by = ? WHERE code = ?`,
		nullString(logo), formatTime(time.Now()), modifiedBy, code)
	if err != nil {
		return fmt.Errorf("set store logo: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrStoreNotFound
	}
	return nil
}

// CountChildStores counts stores whose parent is code.
func (s *SQLiteStore) CountChildStores(ctx context.Context, code string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM stores WHERE parent_code = ?`, code).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count child stores: %w", err)
	}
	return count, nil
}

// ListStores returns one page of stores matching filter.
// A non-empty Search matches code OR name; otherwise Code and Name are AND-ed.
func (s *SQLiteStore) ListStores(ctx context.Context, filter types.StoreFilter) (*types.StorePage, error) {
	var where []string
	var args []any

	if filter.Search != "" {
		where = append(where, `(code LIKE ? ESCAPE '\' OR name LIKE ? ESCAPE '\')`)
		pattern := likePattern(filter.Search)
		args = append(args, pattern, pattern)
	} else {
		if filter.Code != "" {
			where = append(where, `code LIKE ? ESCAPE '\'`)
			args = append(args, likePattern(filter.Code))
		}
		if filter.Name != "" {
			where = append(where, `name LIKE ? ESCAPE '\'`)
			args = append(args, likePattern(filter.Name))
		}
	}
	if filter.ModifiedBy != "" {
		where = append(where, `modified_by = ?`)
		args = append(args, filter.ModifiedBy)
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	page := &types.StorePage{Stores: []types.MerchantStore{}}

	// Counts and page are read in one transaction so they describe the same snapshot.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM stores`).Scan(&page.Total); err != nil {
		return nil, fmt.Errorf("count stores: %w", err)
	}
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM stores`+clause, args...).Scan(&page.Filtered); err != nil {
		return nil, fmt.Errorf("count filtered stores: %w", err)
	}

	column, ok := orderColumns[filter.OrderBy]
	if !ok {
		column = "code"
	}
	dir := "ASC"
	if filter.OrderDir == types.SortDesc {
		dir = "DESC"
	}

	query := `SELECT ` + storeColumns + ` FROM stores` + clause +
		fmt.Sprintf(` ORDER BY %s %s, id ASC LIMIT ? OFFSET ?`, column, dir)
	rows, err := tx.QueryContext(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		ms, err := scanStore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan store: %w", err)
		}
		page.Stores = append(page.Stores, *ms)
		ids = append(ids, ms.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stores: %w", err)
	}
	rows.Close()

	langs, err := loadStoreLanguages(ctx, tx, ids)
	if err != nil {
		return nil, err
	}
	for i := range page.Stores {
		page.Stores[i].SupportedLanguages = langs[page.Stores[i].ID]
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return page, nil
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// loadStoreLanguages returns supported language codes keyed by store ID.
func loadStoreLanguages(ctx context.Context, q queryer, ids []string) (map[string][]string, error) {
	result := make(map[string][]string, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := q.QueryContext(ctx, `
		SELECT store_id, language_code FROM store_languages
		WHERE store_id IN (`+placeholders(len(ids))+`)
		ORDER BY store_id, language_code
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("load store languages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var storeID, code string
		if err := rows.Scan(&storeID, &code); err != nil {
			return nil, fmt.Errorf("scan store language: %w", err)
		}
		result[storeID] = append(result[storeID], code)
	}
	return result, rows.Err()
}

func replaceStoreLanguages(ctx context.Context, tx *sql.Tx, storeID string, codes []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM store_languages WHERE store_id = ?`, storeID); err != nil {
		return fmt.Errorf("clear store languages: %w", err)
	}
	for _, code := range codes {
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO store_languages (store_id, language_code) VALUES (?, ?)`, storeID, code)
		if err != nil {
			return fmt.Errorf("insert store language %q: %w", code, err)
		}
	}
	return nil
}

func formatDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.DateOnly), Valid: true}
}

// likePattern wraps v in wildcards, escaping LIKE metacharacters.
func likePattern(v string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(v) + "%"
}
