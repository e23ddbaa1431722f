package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSorts = SortFields{"name": "name", "createdAt": "created_at"}

func newQueryContext(rawQuery string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/items?"+rawQuery, nil)
	return c
}

func TestParseListQuery(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		want       ListQuery
		wantFields []string
	}{
		{
			name:  "defaults",
			query: "",
			want:  ListQuery{Page: 1, Limit: DefaultLimit, Sort: "created_at", Desc: true},
		},
		{
			name:  "explicit",
			query: "page=3&limit=25&sort=name&q=%20layer%20zero%20",
			want:  ListQuery{Page: 3, Limit: 25, Sort: "name", Search: "layer zero"},
		},
		{
			name:       "bad page and limit",
			query:      "page=0&limit=500",
			wantFields: []string{"page", "limit"},
		},
		{
			name:       "unknown sort",
			query:      "sort=password_hash",
			wantFields: []string{"sort"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ParseListQuery(newQueryContext(tt.query), testSorts, "-createdAt")
			if len(tt.wantFields) > 0 {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.ErrorIs(t, err, ErrValidation)
				var got []string
				for _, f := range verr.Fields {
					got = append(got, f.Field)
				}
				assert.Equal(t, tt.wantFields, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, q)
		})
	}
}

func TestListQuery_OffsetAndSearchPattern(t *testing.T) {
	q := ListQuery{Page: 3, Limit: 20, Search: "50%_Off"}
	assert.Equal(t, 40, q.Offset())
	assert.Equal(t, `%50\%\_off%`, q.SearchPattern())
}

func TestNewPage(t *testing.T) {
	p := NewPage(ListQuery{Page: 2, Limit: 10}, 21, 10)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, int64(21), p.Total)

	empty := NewPage(ListQuery{Page: 1, Limit: 10}, 0, 0)
	assert.Equal(t, 0, empty.TotalPages)
}

func TestParseBool(t *testing.T) {
	v, err := ParseBool(newQueryContext("favorite=true"), "favorite")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.True(t, *v)

	v, err = ParseBool(newQueryContext(""), "favorite")
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = ParseBool(newQueryContext("favorite=maybe"), "favorite")
	assert.ErrorIs(t, err, ErrValidation)
}
