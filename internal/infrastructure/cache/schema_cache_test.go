package cache

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartfilter/internal/domain/filter"
)

type countingIntrospector struct {
	mu      sync.Mutex
	calls   map[string]int
	columns map[string][]string
	types   map[string]filter.Type
}

func newCounting() *countingIntrospector {
	return &countingIntrospector{
		calls: make(map[string]int),
		columns: map[string][]string{
			"posts": {"id", "title", "views"},
			"users": {"id", "name"},
		},
		types: map[string]filter.Type{
			"posts.title": filter.TypeString,
			"posts.views": filter.TypeInteger,
		},
	}
}

func (f *countingIntrospector) ListColumns(_ context.Context, table string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["list:"+table]++
	cols, ok := f.columns[table]
	if !ok {
		return nil, errors.New("no such table")
	}
	return cols, nil
}

func (f *countingIntrospector) ColumnType(_ context.Context, table, column string) (filter.Type, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["type:"+table+"."+column]++
	t, ok := f.types[table+"."+column]
	if !ok {
		return "", errors.New("no such column")
	}
	return t, nil
}

func (f *countingIntrospector) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func TestSchemaCache_CachesLookups(t *testing.T) {
	inner := newCounting()
	c := NewSchemaCache(inner, nil)
	ctx := context.Background()

	for range 3 {
		cols, err := c.ListColumns(ctx, "posts")
		require.NoError(t, err)
		assert.Equal(t, []string{"id", "title", "views"}, cols)

		typ, err := c.ColumnType(ctx, "posts", "views")
		require.NoError(t, err)
		assert.Equal(t, filter.TypeInteger, typ)
	}

	assert.Equal(t, 1, inner.count("list:posts"))
	assert.Equal(t, 1, inner.count("type:posts.views"))
}

func TestSchemaCache_ErrorsAreNotCached(t *testing.T) {
	inner := newCounting()
	c := NewSchemaCache(inner, nil)
	ctx := context.Background()

	_, err := c.ListColumns(ctx, "missing")
	require.Error(t, err)
	_, err = c.ListColumns(ctx, "missing")
	require.Error(t, err)
	assert.Equal(t, 2, inner.count("list:missing"))

	_, err = c.ColumnType(ctx, "posts", "nope")
	require.Error(t, err)
	assert.Empty(t, c.GetStats().TablesCached)
}

func TestSchemaCache_ReturnsCopies(t *testing.T) {
	c := NewSchemaCache(newCounting(), nil)
	ctx := context.Background()

	cols, err := c.ListColumns(ctx, "users")
	require.NoError(t, err)
	cols[0] = "mutated"

	again, err := c.ListColumns(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, "id", again[0])
}

func TestSchemaCache_Notifications(t *testing.T) {
	inner := newCounting()
	c := NewSchemaCache(inner, nil)
	ctx := context.Background()

	var received []string
	c.OnInvalidation(func(channel, payload string) {
		received = append(received, channel+":"+payload)
	})
	c.OnInvalidation(func(string, string) { panic("boom") })

	_, _ = c.ListColumns(ctx, "posts")
	_, _ = c.ListColumns(ctx, "users")
	assert.Equal(t, []string{"posts", "users"}, c.GetStats().TablesCached)

	c.handleNotification("other_channel", "posts")
	assert.Len(t, c.GetStats().TablesCached, 2)

	c.handleNotification(ChannelSchemaChanged, " posts ")
	assert.Equal(t, []string{"users"}, c.GetStats().TablesCached)

	_, _ = c.ListColumns(ctx, "posts")
	assert.Equal(t, 2, inner.count("list:posts"))

	c.handleNotification(ChannelSchemaChanged, "")
	assert.Empty(t, c.GetStats().TablesCached)

	assert.Equal(t, []string{"schema_changed: posts ", "schema_changed:"}, received)
}

func TestSchemaCache_StartWithoutPool(t *testing.T) {
	c := NewSchemaCache(newCounting(), nil)
	require.NoError(t, c.Start(context.Background()))
	c.Stop()
}
