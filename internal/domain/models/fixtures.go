package models

import (
	"time"

	"github.com/shopspring/decimal"

	"smartfilter/internal/core/id"
)

// Fixed IDs so seeded data is stable across runs.
var (
	JohnID = id.MustParse("01890a5d-ac96-774b-bcce-b302099a8057")
	JaneID = id.MustParse("01890a5d-ac96-774b-bcce-b302099a8058")
	BobID  = id.MustParse("01890a5d-ac96-774b-bcce-b302099a8059")

	TechID = id.MustParse("01890a5d-ac96-774b-bcce-b302099a8101")
	LifeID = id.MustParse("01890a5d-ac96-774b-bcce-b302099a8102")

	FirstPostID  = id.MustParse("01890a5d-ac96-774b-bcce-b302099a8201")
	SecondPostID = id.MustParse("01890a5d-ac96-774b-bcce-b302099a8202")
	ThirdPostID  = id.MustParse("01890a5d-ac96-774b-bcce-b302099a8203")
)

// Fixtures is the demo data set.
type Fixtures struct {
	Users      []User
	Categories []Category
	Posts      []Post
	Comments   []Comment
}

// DemoData returns the demo data set. Bob reports to Jane, Jane reports to John.
func DemoData() Fixtures {
	created := time.Date(2022, 12, 1, 9, 0, 0, 0, time.UTC)
	day := func(month time.Month) *time.Time {
		t := time.Date(2023, month, 1, 10, 0, 0, 0, time.UTC)
		return &t
	}
	ref := func(v id.ID) *id.ID { return &v }

	return Fixtures{
		Users: []User{
			{ID: JohnID, Name: "John Doe", Email: "john@example.com", Age: 30, IsActive: true,
				Salary: decimal.NewFromInt(50000), Password: "secret", CreatedAt: created},
			{ID: JaneID, Name: "Jane Smith", Email: "jane@example.com", Age: 25, IsActive: false,
				Salary: decimal.NewFromInt(60000), ManagerID: ref(JohnID), Password: "secret", CreatedAt: created},
			{ID: BobID, Name: "Bob Johnson", Email: "bob@example.com", Age: 35, IsActive: true,
				Salary: decimal.NewFromInt(70000), ManagerID: ref(JaneID), Password: "secret", CreatedAt: created},
		},
		Categories: []Category{
			{ID: TechID, Name: "Tech", Slug: "tech"},
			{ID: LifeID, Name: "Life", Slug: "life"},
		},
		Posts: []Post{
			{ID: FirstPostID, UserID: JohnID, CategoryID: ref(TechID), Title: "First Post",
				Content: "Content 1", Status: "published", Views: 100, PublishedAt: day(time.January), CreatedAt: created},
			{ID: SecondPostID, UserID: JohnID, CategoryID: ref(LifeID), Title: "Second Post",
				Content: "Content 2", Status: "draft", Views: 50, PublishedAt: day(time.February), CreatedAt: created},
			{ID: ThirdPostID, UserID: JaneID, Title: "Third Post",
				Content: "Content 3", Status: "published", Views: 200, PublishedAt: day(time.March), CreatedAt: created},
		},
		Comments: []Comment{
			{ID: id.MustParse("01890a5d-ac96-774b-bcce-b302099a8301"), PostID: FirstPostID,
				Body: "Great read", Rating: 5, AuthorToken: "t1", CreatedAt: created},
			{ID: id.MustParse("01890a5d-ac96-774b-bcce-b302099a8302"), PostID: ThirdPostID,
				Body: "Not bad", Rating: 3, AuthorToken: "t2", CreatedAt: created},
		},
	}
}
