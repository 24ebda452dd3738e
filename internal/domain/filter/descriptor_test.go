package filter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartfilter/internal/core/apperror"
)

func TestMapColumnType(t *testing.T) {
	tests := []struct {
		dbType string
		want   Type
	}{
		{"integer", TypeInteger},
		{"BIGINT", TypeInteger},
		{"int4", TypeInteger},
		{"boolean", TypeBoolean},
		{"date", TypeDate},
		{"timestamp with time zone", TypeDate},
		{"datetime", TypeDate},
		{"numeric(12,2)", TypeFloat},
		{"double precision", TypeFloat},
		{"real", TypeFloat},
		{"text[]", TypeArray},
		{"ARRAY", TypeArray},
		{"character varying", TypeString},
		{"point", TypeString},
		{"interval", TypeString},
		{"uuid", TypeString},
	}

	for _, tt := range tests {
		t.Run(tt.dbType, func(t *testing.T) {
			assert.Equal(t, tt.want, MapColumnType(tt.dbType))
		})
	}
}

func TestCamel(t *testing.T) {
	assert.Equal(t, "user", camel("user"))
	assert.Equal(t, "parentCategory", camel("parent_category"))
	assert.Equal(t, "aB", camel("a__b"))
}

func TestDescribe_Declared(t *testing.T) {
	c := newTestCompiler()

	desc, err := c.Describe(context.Background(), book{})
	require.NoError(t, err)

	assert.Equal(t, "books", desc.Model)
	assert.Equal(t, "declared", desc.Source)
	assert.Equal(t, []FieldDescriptor{
		{Name: "pages", Type: TypeInteger, DefaultOperator: Equal},
		{Name: "title", Type: TypeString, DefaultOperator: Equal},
	}, desc.Fields)
	assert.Empty(t, desc.Relations)
}

func TestDescribe_Derived(t *testing.T) {
	c := newTestCompiler()

	desc, err := c.Describe(context.Background(), derivedModel{})
	require.NoError(t, err)

	assert.Equal(t, "derived", desc.Source)

	names := make([]string, 0, len(desc.Fields))
	for _, f := range desc.Fields {
		names = append(names, f.Name)
	}
	// id and created_at are excluded, api_token and owner_secret are sensitive
	assert.Equal(t, []string{"coupon_id", "customer_id", "paid", "status", "tags", "total"}, names)

	byName := make(map[string]FieldDescriptor)
	for _, f := range desc.Fields {
		byName[f.Name] = f
	}
	assert.Equal(t, Like, byName["status"].DefaultOperator)
	assert.Equal(t, InList, byName["tags"].DefaultOperator)
	assert.Equal(t, Equal, byName["total"].DefaultOperator)

	// coupon_id has no resolvable relation
	require.Len(t, desc.Relations, 1)
	assert.Equal(t, RelationDescriptor{
		Name:          "customer",
		AllowedFields: []string{"active", "age", "born", "name"},
		MaxDepth:      1,
	}, desc.Relations[0])
}

func TestDescribe_DiscoveryDisabled(t *testing.T) {
	c := newTestCompiler(func(s *Settings) { s.AutoDiscoverRelations = false })

	desc, err := c.Describe(context.Background(), derivedModel{})
	require.NoError(t, err)
	assert.Empty(t, desc.Relations)
}

func TestDescribe_ExcludedRelation(t *testing.T) {
	c := newTestCompiler(func(s *Settings) { s.ExcludedRelations = []string{"customer"} })

	desc, err := c.Describe(context.Background(), derivedModel{})
	require.NoError(t, err)
	assert.Empty(t, desc.Relations)
}

func TestDescribe_NoSchema(t *testing.T) {
	c := NewCompiler(DefaultSettings(), nil, nil)

	desc, err := c.Describe(context.Background(), derivedModel{})
	require.NoError(t, err)
	assert.Empty(t, desc.Fields)
	assert.Empty(t, desc.Relations)
}

func TestDescribe_InvalidModel(t *testing.T) {
	c := newTestCompiler()

	_, err := c.Describe(context.Background(), agency{})
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidModel(err))
}

func TestFields_DoesNotMutateDeclared(t *testing.T) {
	declared := author{}.FilterableFields()
	c := newTestCompiler()

	set := c.fields(context.Background(), author{})
	f, ok := set.get("name")
	require.True(t, ok)
	assert.Equal(t, Equal, f.DefaultOperator)
	assert.Empty(t, declared[0].DefaultOperator)
}
