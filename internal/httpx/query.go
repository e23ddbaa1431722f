package httpx

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
	maxSearchLen = 100
)

// SortFields maps the sort keys a list endpoint accepts to database columns.
type SortFields map[string]string

// ListQuery is the validated form of ?page=&limit=&sort=&q=.
type ListQuery struct {
	Page   int
	Limit  int
	Sort   string
	Desc   bool
	Search string
}

func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Apply adds ordering and the page window to tx.
func (q ListQuery) Apply(tx *gorm.DB) *gorm.DB {
	if q.Sort != "" {
		dir := "ASC"
		if q.Desc {
			dir = "DESC"
		}
		tx = tx.Order(fmt.Sprintf("%s %s", q.Sort, dir))
	}
	return tx.Offset(q.Offset()).Limit(q.Limit)
}

// SearchPattern returns a lower-cased LIKE pattern for q.Search with the
// wildcard characters escaped.
func (q ListQuery) SearchPattern() string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(q.Search)) + "%"
}

// ParseListQuery validates pagination, sort and search parameters. Sort keys
// are checked against allowed so they can be interpolated into ORDER BY.
func ParseListQuery(c *gin.Context, allowed SortFields, defaultSort string) (ListQuery, error) {
	verr := &ValidationError{}
	q := ListQuery{Page: 1, Limit: DefaultLimit}

	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			verr.Add("page", "must be a positive integer")
		} else {
			q.Page = page
		}
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > MaxLimit {
			verr.Add("limit", fmt.Sprintf("must be between 1 and %d", MaxLimit))
		} else {
			q.Limit = limit
		}
	}

	sort := c.DefaultQuery("sort", defaultSort)
	if sort != "" {
		key := strings.TrimPrefix(sort, "-")
		column, ok := allowed[key]
		if !ok {
			verr.Add("sort", fmt.Sprintf("unsupported sort field %q", key))
		} else {
			q.Sort = column
			q.Desc = strings.HasPrefix(sort, "-")
		}
	}

	q.Search = strings.TrimSpace(c.Query("q"))
	if len(q.Search) > maxSearchLen {
		verr.Add("q", fmt.Sprintf("must be at most %d characters", maxSearchLen))
	}

	if err := verr.Err(); err != nil {
		return ListQuery{}, err
	}
	return q, nil
}

// ParseBool reads an optional boolean query parameter.
func ParseBool(c *gin.Context, name string) (*bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, NewValidationError(name, "must be true or false")
	}
	return &v, nil
}

// Page is the pagination block returned alongside list results.
type Page struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	Count      int   `json:"-"`
}

func NewPage(q ListQuery, total int64, count int) Page {
	pages := 0
	if q.Limit > 0 {
		pages = int(math.Ceil(float64(total) / float64(q.Limit)))
	}
	return Page{
		Page:       q.Page,
		Limit:      q.Limit,
		Total:      total,
		TotalPages: pages,
		Count:      count,
	}
}
