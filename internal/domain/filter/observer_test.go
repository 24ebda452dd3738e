package filter

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingObserver struct {
	mu      sync.Mutex
	applied map[string]int
	dropped map[string]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{applied: map[string]int{}, dropped: map[string]int{}}
}

func (o *countingObserver) FiltersApplied(model string, n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.applied[model] += n
}

func (o *countingObserver) FilterDropped(model, reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dropped[model+"/"+reason]++
}

func TestObserver(t *testing.T) {
	obs := newCountingObserver()
	c := newTestCompiler().WithObserver(obs)

	filters := Filters{
		"name":             {Value: "x"},
		"secret":           {Value: "x"},
		"age":              {Value: 1, Operator: "~"},
		"ghost.name":       {Value: "x"},
		"books.pages":      {Value: 1},
		"publisher.name":   {Value: "x"},
		"agency.city.name": {Value: "x"},
	}
	got := apply(t, c, author{}, filters, nil)
	require.Equal(t, []string{"authors.name = x"}, got)

	assert.Equal(t, map[string]int{"authors": 1}, obs.applied)
	assert.Equal(t, map[string]int{
		"authors/" + ReasonUnknownField:      1,
		"authors/" + ReasonUnknownOperator:   1,
		"authors/" + ReasonUndefinedRelation: 1,
		"authors/" + ReasonRelationField:     1,
		"authors/" + ReasonUnknownRelation:   1,
		"agencies/" + ReasonNestedFallback:   1,
	}, obs.dropped)
}

func TestObserver_MaxFilters(t *testing.T) {
	obs := newCountingObserver()
	c := newTestCompiler(func(s *Settings) { s.MaxFilters = 1 }).WithObserver(obs)

	_, err := c.Apply(context.Background(), newRecorder(author{}), Filters{
		"age":  {Value: 1, Type: TypeInteger},
		"name": {Value: "x"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, obs.dropped["authors/"+ReasonMaxFilters])
	assert.Equal(t, 1, obs.applied["authors"])
}

func TestWithObserver_DoesNotMutateOriginal(t *testing.T) {
	base := newTestCompiler()
	obs := newCountingObserver()
	_ = base.WithObserver(obs)

	apply(t, base, author{}, Filters{"secret": {Value: "x"}}, nil)
	assert.Empty(t, obs.dropped)

	assert.NotNil(t, base.WithObserver(nil).observer)
}
