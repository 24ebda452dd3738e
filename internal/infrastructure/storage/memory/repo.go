package memory

import (
	"context"
	"sort"

	"smartfilter/internal/domain"
	"smartfilter/internal/domain/filter"
	"smartfilter/internal/metadata"
)

// Repo lists records of one model through the filter compiler.
type Repo struct {
	store    *Store
	compiler *filter.Compiler
	model    filter.Model
	columns  []string
}

var _ domain.ListRepository[Record] = (*Repo)(nil)

// NewRepo creates a repository for model. Sortable columns come from its db tags.
func NewRepo(store *Store, compiler *filter.Compiler, model filter.Model) *Repo {
	return &Repo{
		store:    store,
		compiler: compiler,
		model:    model,
		columns:  metadata.Inspect(model).Columns(),
	}
}

// Model implements domain.ListRepository.
func (r *Repo) Model() filter.Model {
	return r.model
}

// List implements domain.ListRepository.
func (r *Repo) List(ctx context.Context, req domain.ListRequest) (domain.ListResult[Record], error) {
	result := domain.ListResult[Record]{
		Items:  make([]Record, 0),
		Limit:  req.Limit,
		Offset: req.Offset,
	}

	orderBy, desc, err := domain.ParseOrderBy(req.OrderBy, r.columns, "")
	if err != nil {
		return result, err
	}

	q := r.store.Query(r.model)
	if err := domain.CompileRequest(ctx, r.compiler, q, req); err != nil {
		return result, err
	}

	rows := q.Get()
	result.TotalCount = int64(len(rows))

	if orderBy != "" {
		sortRecords(rows, orderBy, desc)
	}

	start := min(req.Offset, len(rows))
	end := len(rows)
	if req.Limit > 0 {
		end = min(start+req.Limit, len(rows))
	}
	result.Items = append(result.Items, rows[start:end]...)
	return result, nil
}

// sortRecords orders rows by column; NULLs sort last in both directions.
func sortRecords(rows []Record, column string, desc bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i][column], rows[j][column]
		if isNull(a) || isNull(b) {
			return !isNull(a) && isNull(b)
		}
		c, ok := compareValues(a, b)
		if !ok {
			return false
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}
