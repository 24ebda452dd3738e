// Package models contains the demo entities served by the filter API.
package models

import (
	"time"

	"github.com/shopspring/decimal"

	"smartfilter/internal/core/id"
	"smartfilter/internal/domain/filter"
)

// User declares its fields and relations explicitly and runs in strict mode.
type User struct {
	ID        id.ID           `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	Email     string          `db:"email" json:"email"`
	Age       int             `db:"age" json:"age"`
	IsActive  bool            `db:"is_active" json:"isActive"`
	Salary    decimal.Decimal `db:"salary" json:"salary"`
	ManagerID *id.ID          `db:"manager_id" json:"managerId,omitempty"`
	Password  string          `db:"password" json:"-"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
}

func (User) TableName() string { return "users" }

func (User) FilterableFields() []filter.FieldDescriptor {
	return []filter.FieldDescriptor{
		{Name: "name", Type: filter.TypeString, DefaultOperator: filter.Like},
		{Name: "email", Type: filter.TypeString, DefaultOperator: filter.Equal},
		{Name: "age", Type: filter.TypeInteger, DefaultOperator: filter.Equal},
		{Name: "is_active", Type: filter.TypeBoolean, DefaultOperator: filter.Equal},
		{Name: "salary", Type: filter.TypeFloat, DefaultOperator: filter.GreaterOrEqual},
	}
}

func (User) FilterableRelations() []filter.RelationDescriptor {
	return []filter.RelationDescriptor{
		{Name: "posts", AllowedFields: []string{"title", "status", "views"}, MaxDepth: 1},
		{Name: "manager"},
	}
}

func (User) FilterConfig() filter.Options {
	return filter.Options{filter.OptStrictMode: true}
}

func (User) Relation(name string) (filter.Relation, bool) {
	switch name {
	case "posts":
		return filter.Relation{Name: name, Kind: filter.HasMany, Related: Post{}, ForeignKey: "user_id"}, true
	case "manager":
		return filter.Relation{Name: name, Kind: filter.BelongsTo, Related: User{}, ForeignKey: "manager_id"}, true
	}
	return filter.Relation{}, false
}

// Post declares its fields; its relations point at a filterable User and a plain Category.
type Post struct {
	ID          id.ID      `db:"id" json:"id"`
	UserID      id.ID      `db:"user_id" json:"userId"`
	CategoryID  *id.ID     `db:"category_id" json:"categoryId,omitempty"`
	Title       string     `db:"title" json:"title"`
	Content     string     `db:"content" json:"content"`
	Status      string     `db:"status" json:"status"`
	Views       int        `db:"views" json:"views"`
	PublishedAt *time.Time `db:"published_at" json:"publishedAt,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
}

func (Post) TableName() string { return "posts" }

func (Post) FilterableFields() []filter.FieldDescriptor {
	return []filter.FieldDescriptor{
		{Name: "title", Type: filter.TypeString, DefaultOperator: filter.Like},
		{Name: "content", Type: filter.TypeString, DefaultOperator: filter.Like},
		{Name: "status", Type: filter.TypeString, DefaultOperator: filter.Equal},
		{Name: "views", Type: filter.TypeInteger, DefaultOperator: filter.GreaterOrEqual},
		{Name: "published_at", Type: filter.TypeDate, DefaultOperator: filter.DateEqual},
	}
}

func (Post) FilterableRelations() []filter.RelationDescriptor {
	return []filter.RelationDescriptor{
		{Name: "user"},
		{Name: "category", AllowedFields: []string{"name", "slug"}},
		{Name: "comments"},
	}
}

func (Post) FilterConfig() filter.Options { return nil }

func (Post) Relation(name string) (filter.Relation, bool) {
	switch name {
	case "user":
		return filter.Relation{Name: name, Kind: filter.BelongsTo, Related: User{}, ForeignKey: "user_id"}, true
	case "category":
		return filter.Relation{Name: name, Kind: filter.BelongsTo, Related: Category{}, ForeignKey: "category_id"}, true
	case "comments":
		return filter.Relation{Name: name, Kind: filter.HasMany, Related: Comment{}, ForeignKey: "post_id"}, true
	}
	return filter.Relation{}, false
}

// Category does not implement filter.Filterable.
type Category struct {
	ID   id.ID  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	Slug string `db:"slug" json:"slug"`
}

func (Category) TableName() string { return "categories" }

// Comment derives its fields from the schema and discovers relations from *_id columns.
type Comment struct {
	filter.SchemaDerived

	ID          id.ID     `db:"id" json:"id"`
	PostID      id.ID     `db:"post_id" json:"postId"`
	Body        string    `db:"body" json:"body"`
	Rating      int       `db:"rating" json:"rating"`
	AuthorToken string    `db:"author_token" json:"-"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

func (Comment) TableName() string { return "comments" }

func (Comment) Relation(name string) (filter.Relation, bool) {
	if name == "post" {
		return filter.Relation{Name: name, Kind: filter.BelongsTo, Related: Post{}, ForeignKey: "post_id"}, true
	}
	return filter.Relation{}, false
}

// All returns one value of every demo model.
func All() []filter.Model {
	return []filter.Model{User{}, Post{}, Category{}, Comment{}}
}
