// Package criteria turns list request query parameters into store criteria.
//
// It understands both plain parameters (start, length, search, orderBy) and the
// DataTables wire format (search[value], order[0][column], columns[N][data]).
// External field names are translated through a caller-supplied mapping; names
// without a mapping pass through unchanged.
package criteria

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/hyperengineering/shopkeep/internal/types"
)

const (
	DefaultMaxCount = 10
	MaxPageSize     = 100
)

// Internal field name that also drives StoreCriteria.Name.
const nameField = "storename"

var reserved = map[string]bool{
	"start":         true,
	"length":        true,
	"count":         true,
	"draw":          true,
	"search":        true,
	"search[value]": true,
	"search[regex]": true,
	"code":          true,
	"lang":          true,
	"orderBy":       true,
	"sort":          true,
}

// Build creates criteria from query parameters. Unparseable numeric values fall back
// to defaults; callers that need strict parsing check start/length themselves.
func Build(mapping map[string]string, q url.Values) types.StoreCriteria {
	c := types.StoreCriteria{
		MaxCount: DefaultMaxCount,
		OrderDir: types.SortAsc,
		Filters:  map[string]string{},
	}

	if n, err := strconv.Atoi(q.Get("start")); err == nil {
		c.StartIndex = n
	}
	if n, err := strconv.Atoi(firstNonEmpty(q.Get("length"), q.Get("count"))); err == nil {
		c.MaxCount = n
	}
	Clamp(&c)

	c.Search = strings.TrimSpace(firstNonEmpty(q.Get("search"), q.Get("search[value]")))
	c.Code = q.Get("code")

	if col := q.Get("order[0][column]"); col != "" {
		if field := q.Get("columns[" + col + "][data]"); field != "" {
			c.OrderBy = MapField(mapping, field)
		}
		c.OrderDir = parseDirection(q.Get("order[0][dir]"))
	} else if field := firstNonEmpty(q.Get("orderBy"), q.Get("sort")); field != "" {
		name, dir, _ := strings.Cut(field, ":")
		c.OrderBy = MapField(mapping, name)
		c.OrderDir = parseDirection(dir)
	}

	for key, values := range q {
		if isReserved(key) || len(values) == 0 || values[0] == "" {
			continue
		}
		c.Filters[MapField(mapping, key)] = values[0]
	}

	if name, ok := c.Filters[nameField]; ok {
		c.Name = name
	}

	return c
}

// MapField translates an external field name to its internal name.
func MapField(mapping map[string]string, field string) string {
	if internal, ok := mapping[field]; ok {
		return internal
	}
	return field
}

// Clamp keeps the pagination window within bounds.
func Clamp(c *types.StoreCriteria) {
	if c.StartIndex < 0 {
		c.StartIndex = 0
	}
	if c.MaxCount <= 0 {
		c.MaxCount = DefaultMaxCount
	}
	if c.MaxCount > MaxPageSize {
		c.MaxCount = MaxPageSize
	}
}

func isReserved(key string) bool {
	if reserved[key] {
		return true
	}
	return strings.HasPrefix(key, "order[") || strings.HasPrefix(key, "columns[")
}

func parseDirection(s string) types.SortDirection {
	if strings.EqualFold(s, "desc") {
		return types.SortDesc
	}
	return types.SortAsc
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
