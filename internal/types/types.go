package types

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// DefaultStoreCode is the store created by the initial migration.
// It can be updated but never deleted.
const DefaultStoreCode = "DEFAULT"

// Role is the administrative group a user belongs to.
type Role string

const (
	RoleSuperAdmin  Role = "SUPERADMIN"
	RoleAdminRetail Role = "ADMIN_RETAIL"
	RoleAdmin       Role = "ADMIN"
)

// ValidRoles lists every Role accepted by the user service.
var ValidRoles = []string{string(RoleSuperAdmin), string(RoleAdminRetail), string(RoleAdmin)}

// Principal is the authenticated identity attached to a request.
type Principal struct {
	UserName  string `json:"userName"`
	Role      Role   `json:"role"`
	StoreCode string `json:"storeCode,omitempty"`
}

// User is a stored administrative account.
type User struct {
	ID        string    `json:"id"`
	UserName  string    `json:"userName"`
	Role      Role      `json:"role"`
	StoreCode string    `json:"storeCode,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Language is a supported content language.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Address is the postal address of a store.
type Address struct {
	Address       string `json:"address,omitempty"`
	City          string `json:"city,omitempty"`
	PostalCode    string `json:"postalCode,omitempty"`
	Country       string `json:"country,omitempty"`
	StateProvince string `json:"stateProvince,omitempty"`
}

// PersistableStore is the create/update body for a store.
type PersistableStore struct {
	Code               string   `json:"code"`
	Name               string   `json:"name"`
	Email              string   `json:"email"`
	Phone              string   `json:"phone,omitempty"`
	Address            Address  `json:"address"`
	DefaultLanguage    string   `json:"defaultLanguage,omitempty"`
	SupportedLanguages []string `json:"supportedLanguages,omitempty"`
	Currency           string   `json:"currency,omitempty"`
	InBusinessSince    string   `json:"inBusinessSince,omitempty"`
	Retailer           bool     `json:"retailer"`
	RetailerStore      string   `json:"retailerStore,omitempty"`
}

// MerchantStore is the persisted store record.
type MerchantStore struct {
	ID                 string
	Code               string
	Name               string
	Email              string
	Phone              string
	Address            Address
	DefaultLanguage    string
	SupportedLanguages []string
	Currency           string
	InBusinessSince    *time.Time
	Retailer           bool
	Parent             string
	Logo               string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	ModifiedBy         string
}

// SupportsLanguage reports whether code is one of the store's languages.
func (s *MerchantStore) SupportsLanguage(code string) bool {
	if s.DefaultLanguage == code {
		return true
	}
	for _, l := range s.SupportedLanguages {
		if l == code {
			return true
		}
	}
	return false
}

// ReadableAudit carries audit fields in readable representations.
type ReadableAudit struct {
	Created  string `json:"created"`
	Modified string `json:"modified"`
	User     string `json:"user,omitempty"`
}

// ReadableImage references a stored image.
type ReadableImage struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// ReadableStore is the public representation of a store.
type ReadableStore struct {
	ID                 string         `json:"id"`
	Code               string         `json:"code"`
	Name               string         `json:"name"`
	Email              string         `json:"email"`
	Phone              string         `json:"phone,omitempty"`
	Address            Address        `json:"address"`
	DefaultLanguage    string         `json:"defaultLanguage"`
	SupportedLanguages []Language     `json:"supportedLanguages"`
	CurrentLanguage    string         `json:"currentLanguage"`
	Currency           string         `json:"currency"`
	InBusinessSince    string         `json:"inBusinessSince,omitempty"`
	Retailer           bool           `json:"retailer"`
	Parent             string         `json:"parent,omitempty"`
	Logo               *ReadableImage `json:"logo,omitempty"`
	ReadableAudit      ReadableAudit  `json:"readableAudit"`
}

// ReadableStoreList is one page of stores.
type ReadableStoreList struct {
	Data            []ReadableStore `json:"data"`
	Number          int             `json:"number"`
	TotalPages      int             `json:"totalPages"`
	RecordsTotal    int64           `json:"recordsTotal"`
	RecordsFiltered int64           `json:"recordsFiltered"`
	Draw            string          `json:"draw,omitempty"`
}

// ReadableBrand is the branding and marketing view of a store.
type ReadableBrand struct {
	Logo *ReadableImage `json:"logo,omitempty"`
}

// PersistableImage is an uploaded image; Bytes is base64 in JSON.
type PersistableImage struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Bytes       []byte `json:"bytes"`
}

// EntityExists answers a uniqueness check.
type EntityExists struct {
	Exists bool `json:"exists"`
}

// FileContentType classifies stored content files.
type FileContentType string

const (
	FileContentLogo       FileContentType = "LOGO"
	FileContentImage      FileContentType = "IMAGE"
	FileContentStaticFile FileContentType = "STATIC_FILE"
)

// ParseFileContentType returns the FileContentType for s (case-insensitive).
func ParseFileContentType(s string) (FileContentType, error) {
	switch FileContentType(strings.ToUpper(s)) {
	case FileContentLogo:
		return FileContentLogo, nil
	case FileContentImage:
		return FileContentImage, nil
	case FileContentStaticFile:
		return FileContentStaticFile, nil
	}
	return "", fmt.Errorf("unknown file content type %q", s)
}

// UnmarshalJSON rejects unknown content types.
func (t *FileContentType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseFileContentType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// InputContentFile is a binary payload handed to content storage.
type InputContentFile struct {
	FileName        string
	MimeType        string
	FileContentType FileContentType
	File            io.Reader
	Size            int64
}

// SortDirection orders list results.
type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// StoreCriteria selects a page of stores.
type StoreCriteria struct {
	StartIndex int
	MaxCount   int
	Code       string
	Name       string
	Search     string
	Filters    map[string]string
	OrderBy    string
	OrderDir   SortDirection
	Language   string
}

// StoreFilter is the repository-level query derived from StoreCriteria.
type StoreFilter struct {
	Offset     int
	Limit      int
	Code       string
	Name       string
	Search     string
	ModifiedBy string
	OrderBy    string
	OrderDir   SortDirection
}

// StorePage is one page of persisted stores plus counts.
type StorePage struct {
	Stores   []MerchantStore
	Total    int64
	Filtered int64
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	StoreCount int64  `json:"store_count"`
}
