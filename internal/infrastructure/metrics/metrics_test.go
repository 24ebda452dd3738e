package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartfilter/internal/domain/filter"
)

func newEngine(m *Metrics) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/v1/:entity", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(m.Handler()))
	return r
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	m := New()
	r := newEngine(m)

	for _, path := range []string{"/api/v1/posts", "/api/v1/users", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, http.NoBody))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/api/v1/:entity", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.httpRequestDuration))
}

func TestObserver(t *testing.T) {
	m := New()

	m.FiltersApplied("posts", 2)
	m.FiltersApplied("posts", 0)
	m.FilterDropped("posts", filter.ReasonUnknownField)
	m.FilterDropped("posts", filter.ReasonUnknownField)
	m.FilterDropped("users", filter.ReasonDepthExhausted)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.filtersApplied.WithLabelValues("posts")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.filtersDropped.WithLabelValues("posts", filter.ReasonUnknownField)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.filtersDropped.WithLabelValues("users", filter.ReasonDepthExhausted)))
}

func TestSchemaInvalidated(t *testing.T) {
	m := New()
	m.SchemaInvalidated("posts")
	m.SchemaInvalidated("")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.schemaInvalidations.WithLabelValues("posts")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.schemaInvalidations.WithLabelValues("*")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.FilterDropped("posts", filter.ReasonUnknownField)
	r := newEngine(m)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `smartfilter_filters_dropped_total{model="posts",reason="unknown_field"} 1`))
	assert.True(t, strings.Contains(string(body), "go_goroutines"))
}
