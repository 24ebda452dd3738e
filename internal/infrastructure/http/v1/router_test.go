package v1_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartfilter/internal/core/apperror"
	"smartfilter/internal/domain"
	"smartfilter/internal/domain/filter"
	"smartfilter/internal/domain/models"
	v1 "smartfilter/internal/infrastructure/http/v1"
	"smartfilter/internal/infrastructure/http/v1/dto"
	"smartfilter/internal/infrastructure/metrics"
	"smartfilter/internal/infrastructure/storage/memory"
	"smartfilter/internal/metadata"
	"smartfilter/pkg/logger"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return newTestRouterWithMetrics(t, nil)
}

func newTestRouterWithMetrics(t *testing.T, m *metrics.Metrics) http.Handler {
	t.Helper()

	registry := metadata.NewRegistry()
	for _, m := range models.All() {
		registry.Register(m)
	}
	compiler := filter.NewCompiler(filter.DefaultSettings(), metadata.NewStructIntrospector(registry), logger.Nop())
	if m != nil {
		compiler = compiler.WithObserver(m)
	}

	store := memory.NewStore()
	data := models.DemoData()
	for _, u := range data.Users {
		store.InsertStruct(u)
	}
	for _, c := range data.Categories {
		store.InsertStruct(c)
	}
	for _, p := range data.Posts {
		store.InsertStruct(p)
	}
	for _, c := range data.Comments {
		store.InsertStruct(c)
	}

	listers := map[string]domain.Lister{}
	for _, m := range models.All() {
		svc := domain.NewListService(domain.ListServiceConfig[memory.Record]{
			Repo: memory.NewRepo(store, compiler, m),
		})
		listers[svc.EntityName()] = svc
	}

	return v1.NewRouter(v1.RouterConfig{
		Logger:           logger.Nop(),
		Compiler:         compiler,
		Listers:          listers,
		MetadataRegistry: registry,
		Storage:          "memory",
		Metrics:          m,
	})
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type listBody struct {
	Items      []map[string]any `json:"items"`
	TotalCount int64            `json:"totalCount"`
	Limit      int              `json:"limit"`
	Offset     int              `json:"offset"`
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) listBody {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body listBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func titles(items []map[string]any) []any {
	out := make([]any, len(items))
	for i, it := range items {
		out[i] = it["title"]
	}
	return out
}

func directFilter(raw string) string {
	return url.Values{"filter": {raw}}.Encode()
}

func TestList(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name   string
		query  string
		titles []any
		total  int64
	}{
		{
			name:   "request mode",
			query:  "status=published&orderBy=title",
			titles: []any{"First Post", "Third Post"},
			total:  2,
		},
		{
			name:   "request mode default operator",
			query:  "title=second",
			titles: []any{"Second Post"},
			total:  1,
		},
		{
			name:   "direct mode with relation",
			query:  directFilter(`{"user.name":{"operator":"like","value":"jane"}}`),
			titles: []any{"Third Post"},
			total:  1,
		},
		{
			name:   "direct mode has many relation",
			query:  directFilter(`{"comments.rating":{"operator":">=","type":"integer","value":4}}`),
			titles: []any{"First Post"},
			total:  1,
		},
		{
			name:   "direct mode list value on comparison dropped",
			query:  directFilter(`{"views":{"operator":">","type":"integer","value":[20,40]}}`),
			titles: []any{"First Post", "Second Post", "Third Post"},
			total:  3,
		},
		{
			name:   "direct mode between",
			query:  directFilter(`{"views":{"operator":"between","type":"integer","value":[60,150]}}`),
			titles: []any{"First Post"},
			total:  1,
		},
		{
			name:   "unknown field dropped",
			query:  directFilter(`{"secret":{"value":"x"}}`) + "&orderBy=views&limit=2",
			titles: []any{"Second Post", "First Post"},
			total:  3,
		},
		{
			name:   "pagination",
			query:  "orderBy=-views&limit=1&offset=1",
			titles: []any{"First Post"},
			total:  3,
		},
		{
			name:   "relations disabled by option",
			query:  directFilter(`{"user.name":{"operator":"like","value":"jane"}}`) + "&deep=false",
			titles: []any{"First Post", "Second Post", "Third Post"},
			total:  3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := decodeList(t, get(t, router, "/api/v1/posts?"+tt.query))
			assert.ElementsMatch(t, tt.titles, titles(body.Items))
			assert.Equal(t, tt.total, body.TotalCount)
		})
	}
}

func TestList_Errors(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name   string
		target string
		status int
		code   string
	}{
		{
			name:   "unknown entity",
			target: "/api/v1/widgets",
			status: http.StatusNotFound,
			code:   apperror.CodeNotFound,
		},
		{
			name:   "malformed filter json",
			target: "/api/v1/posts?filter=%7Bnope",
			status: http.StatusBadRequest,
			code:   apperror.CodeValidation,
		},
		{
			name:   "malformed limit",
			target: "/api/v1/posts?limit=ten",
			status: http.StatusBadRequest,
			code:   apperror.CodeValidation,
		},
		{
			name:   "strict model unknown operator",
			target: "/api/v1/users?" + directFilter(`{"name":{"operator":"~","value":"x"}}`),
			status: http.StatusBadRequest,
			code:   apperror.CodeUnknownOperator,
		},
		{
			name:   "model without filter contract",
			target: "/api/v1/categories",
			status: http.StatusInternalServerError,
			code:   apperror.CodeInvalidModel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, router, tt.target)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())

			var body dto.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

func TestFilters(t *testing.T) {
	router := newTestRouter(t)

	rec := get(t, router, "/api/v1/posts/filters")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body dto.FiltersResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "posts", body.Entity)
	assert.True(t, body.Config.Deep)
	assert.Equal(t, 2, body.Config.MaxRelationDepth)

	names := make([]string, len(body.Fields))
	for i, f := range body.Fields {
		names[i] = f.Name
	}
	assert.Contains(t, names, "title")
	assert.Contains(t, names, "published_at")
	assert.NotContains(t, names, "id")

	rec = get(t, router, "/api/v1/users/filters")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Config.StrictMode)
}

func TestCheckRelation(t *testing.T) {
	router := newTestRouter(t)

	rec := get(t, router, "/api/v1/posts/relations/check?path=user.name")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var ok dto.RelationCheckResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ok))
	assert.True(t, ok.Valid)

	for _, path := range []string{"author.name", "category.description"} {
		rec = get(t, router, "/api/v1/posts/relations/check?path="+path)
		require.Equal(t, http.StatusBadRequest, rec.Code, path)

		var body dto.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, apperror.CodeRelationError, body.Code, path)
	}

	rec = get(t, router, "/api/v1/posts/relations/check")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMeta(t *testing.T) {
	router := newTestRouter(t)

	rec := get(t, router, "/api/v1/meta")
	require.Equal(t, http.StatusOK, rec.Code)
	var defs []metadata.EntityDef
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &defs))
	assert.Len(t, defs, 4)

	rec = get(t, router, "/api/v1/meta/posts")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, router, "/api/v1/meta/widgets")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/health", "/health/live", "/health/ready", "/health/info"} {
		rec := get(t, router, path)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec := get(t, router, "/health/live")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouterWithMetrics(t, metrics.New())

	decodeList(t, get(t, router, "/api/v1/posts?status=published"))

	rec := get(t, router, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `smartfilter_http_requests_total{method="GET",path="/api/v1/:entity",status="200"} 1`), body)
	assert.True(t, strings.Contains(body, `smartfilter_filters_applied_total{model="posts"} 1`), body)

	rec = get(t, newTestRouter(t), "/metrics")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
