package handlers

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"smartfilter/internal/core/apperror"
	"smartfilter/internal/domain"
	"smartfilter/internal/domain/filter"
	"smartfilter/internal/infrastructure/http/v1/dto"
	"smartfilter/pkg/logger"
)

// Query parameters read by EntityHandler.List besides the request-mode fields.
const (
	ParamFilter  = "filter"
	ParamOrderBy = "orderBy"
	ParamLimit   = "limit"
	ParamOffset  = "offset"
	ParamPath    = "path"
)

var optionParams = []string{
	filter.OptDeep,
	filter.OptMaxRelationDepth,
	filter.OptCaseSensitive,
	filter.OptStrictMode,
}

// EntityHandler serves filtered listings for every registered entity.
type EntityHandler struct {
	*BaseHandler
	compiler *filter.Compiler
	listers  map[string]domain.Lister
}

// NewEntityHandler creates a new entity handler.
func NewEntityHandler(base *BaseHandler, compiler *filter.Compiler, listers map[string]domain.Lister) *EntityHandler {
	return &EntityHandler{
		BaseHandler: base,
		compiler:    compiler,
		listers:     listers,
	}
}

// Entities returns the registered entity names in sorted order.
func (h *EntityHandler) Entities() []string {
	names := make([]string, 0, len(h.listers))
	for name := range h.listers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (h *EntityHandler) lister(c *gin.Context) (domain.Lister, bool) {
	name := c.Param("entity")
	l, ok := h.listers[name]
	if !ok {
		h.Error(c, apperror.NewNotFound("entity", name))
		return nil, false
	}
	return l, true
}

// List handles filtered listing.
// GET /api/v1/:entity?filter={"status":{"value":"published"}}&orderBy=-views&limit=10
// GET /api/v1/:entity?status=published&title=go
//
// A JSON "filter" parameter selects direct mode; otherwise the query string is
// read as a request source against the entity's declared local fields.
func (h *EntityHandler) List(c *gin.Context) {
	l, ok := h.lister(c)
	if !ok {
		return
	}

	req, ok := h.parseListRequest(c)
	if !ok {
		return
	}

	result, err := l.ListItems(c.Request.Context(), req)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromListResult(result))
}

func (h *EntityHandler) parseListRequest(c *gin.Context) (domain.ListRequest, bool) {
	req := domain.DefaultListRequest()

	if raw := c.Query(ParamFilter); raw != "" {
		var filters filter.Filters
		if err := json.Unmarshal([]byte(raw), &filters); err != nil {
			h.Error(c, apperror.NewValidation("filter must be a JSON object").WithCause(err))
			return req, false
		}
		req.Filters = filters
	} else {
		req.Source = filter.ValuesSource(c.Request.URL.Query())
	}

	opts := filter.Options{}
	for _, key := range optionParams {
		if v, ok := c.GetQuery(key); ok {
			opts[key] = v
		}
	}
	if len(opts) > 0 {
		req.Options = opts
	}

	req.OrderBy = strings.TrimSpace(c.Query(ParamOrderBy))

	var valid bool
	if req.Limit, valid = h.ParseIntQuery(c, ParamLimit, domain.DefaultLimit); !valid {
		return req, false
	}
	if req.Offset, valid = h.ParseIntQuery(c, ParamOffset, 0); !valid {
		return req, false
	}

	logger.FromContext(c.Request.Context()).Debugw("list request parsed",
		"entity", c.Param("entity"),
		"direct", len(req.Filters) > 0,
		"options", req.Options,
	)
	return req, true
}

// Filters describes the fields and relations an entity can be filtered by.
// GET /api/v1/:entity/filters
func (h *EntityHandler) Filters(c *gin.Context) {
	l, ok := h.lister(c)
	if !ok {
		return
	}

	m := l.Model()
	desc, err := h.compiler.Describe(c.Request.Context(), m)
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := dto.FiltersResponse{
		Entity:    c.Param("entity"),
		Source:    desc.Source,
		Fields:    desc.Fields,
		Relations: desc.Relations,
	}
	if f, ok := m.(filter.Filterable); ok {
		resp.Config = h.compiler.ConfigFor(f, nil)
	}
	h.OK(c, resp)
}

// CheckRelation validates a dotted filter path against the relation allow-lists.
// GET /api/v1/:entity/relations/check?path=user.name
func (h *EntityHandler) CheckRelation(c *gin.Context) {
	l, ok := h.lister(c)
	if !ok {
		return
	}

	path := strings.TrimSpace(c.Query(ParamPath))
	if path == "" {
		h.Error(c, apperror.NewValidation("path is required").WithDetail("param", ParamPath))
		return
	}

	if err := h.compiler.CheckRelation(c.Request.Context(), l.Model(), path); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.RelationCheckResponse{Path: path, Valid: true})
}
