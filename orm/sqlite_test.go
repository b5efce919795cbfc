package orm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coderi421/recordkit/internal/catalog"
	"github.com/coderi421/recordkit/orm/model"
)

// memoryDB 内存数据库，表在第一次用到的时候自动创建
func memoryDB(t *testing.T, driver string, opts ...DBOption) *DB {
	t.Helper()
	opts = append([]DBOption{DBWithAutoCreateTables(), DBWithClock(testClock), DBWithLogFunc(t.Logf)}, opts...)
	db, err := Open(driver, ":memory:", opts...)
	require.NoError(t, err)
	// 每个连接都是一个新的内存数据库
	db.db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = db.Close()
	})
	require.NoError(t, db.Register(catalog.All()...))
	return db
}

func TestSQLite_Handle(t *testing.T) {
	testCases := []struct {
		name   string
		driver string
	}{
		{name: "mattn", driver: "sqlite3"},
		{name: "modernc", driver: "sqlite"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			db := memoryDB(t, tc.driver)
			ctx := context.Background()
			f := db.MustFinder("Tag")

			first, err := f.Create(ctx, map[string]any{"Tag": "Hello, Wörld!"}, true)
			require.NoError(t, err)
			assert.Equal(t, "hello-world", first.MustGet("Slug"))

			second, err := f.Create(ctx, map[string]any{"Tag": "hello world"}, true)
			require.NoError(t, err)
			assert.Equal(t, "hello-world-2", second.MustGet("Slug"))

			// 空的来源字段用类名
			third, err := f.Create(ctx, map[string]any{"Tag": "!!!"}, true)
			require.NoError(t, err)
			assert.Equal(t, "tag", third.MustGet("Slug"))

			got, err := f.GetByHandle(ctx, "hello-world-2")
			require.NoError(t, err)
			assert.Equal(t, second.ID(), got.ID())
			assert.Equal(t, "hello world", got.MustGet("Tag"))
			assert.Equal(t, int64(1709643845), got.MustGet("Created"))

			_, err = f.GetByHandle(ctx, "missing")
			assert.True(t, errors.Is(err, ErrNoRows))

			// 唯一索引冲突
			_, err = f.Create(ctx, map[string]any{"Tag": "dup", "Slug": "tag"}, true)
			assert.True(t, errors.Is(err, ErrConstraint))
		})
	}
}

func TestSQLite_ParentAndChildren(t *testing.T) {
	db := memoryDB(t, "sqlite3")
	ctx := context.Background()

	author, err := db.MustFinder("Person").Create(ctx, map[string]any{
		"FirstName": "Ada",
		"LastName":  "Lovelace",
	}, false)
	require.NoError(t, err)

	article, err := db.MustFinder("Article").Create(ctx, map[string]any{"Title": "Notes"}, false)
	require.NoError(t, err)
	require.NoError(t, article.SetRelated("Author", author))

	comments := make([]*Record, 0, 2)
	for _, msg := range []string{"first", "second"} {
		c, err := db.MustFinder("Comment").Create(ctx, map[string]any{"Message": msg}, false)
		require.NoError(t, err)
		comments = append(comments, c)
	}
	require.NoError(t, article.SetRelated("Comments", comments))

	// 父记录先保存，子记录后保存
	require.NoError(t, article.Save(ctx))
	assert.False(t, author.IsPhantom())
	assert.Equal(t, "ada", author.MustGet("Username"))
	assert.Equal(t, author.ID(), article.MustGet("AuthorID"))
	for _, c := range comments {
		assert.False(t, c.IsPhantom())
		assert.Equal(t, "Article", c.MustGet("ContextClass"))
		assert.Equal(t, article.ID(), c.MustGet("ContextID"))
	}

	loaded, err := db.MustFinder("Article").GetByID(ctx, article.ID())
	require.NoError(t, err)
	got, err := loaded.One(ctx, "Author")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Lovelace", got.MustGet("LastName"))

	children, err := loaded.Many(ctx, "Comments")
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "first", children[0].MustGet("Message"))

	parent, err := children[1].One(ctx, "Context")
	require.NoError(t, err)
	require.NotNil(t, parent)
	assert.Equal(t, "Article", parent.Model().Name)
	assert.Equal(t, article.ID(), parent.ID())

	// 修改外键之后重新解析
	other, err := db.MustFinder("Person").Create(ctx, map[string]any{
		"FirstName": "Grace",
		"LastName":  "Hopper",
	}, true)
	require.NoError(t, err)
	require.NoError(t, loaded.Set("AuthorID", other.ID()))
	got, err = loaded.One(ctx, "Author")
	require.NoError(t, err)
	assert.Equal(t, "Hopper", got.MustGet("LastName"))

	require.NoError(t, loaded.SetRelated("Author", nil))
	assert.Nil(t, loaded.MustGet("AuthorID"))
	got, err = loaded.One(ctx, "Author")
	require.NoError(t, err)
	assert.Nil(t, got)

	// 不允许的类
	tag, err := db.MustFinder("Tag").Create(ctx, map[string]any{"Tag": "x"}, true)
	require.NoError(t, err)
	err = children[0].SetRelated("Context", tag)
	assert.True(t, errors.Is(err, ErrConfiguration))
	err = loaded.SetRelated("Author", tag)
	assert.True(t, errors.Is(err, ErrConfiguration))
	_, err = loaded.Related(ctx, "Invalid")
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestSQLite_Phantom(t *testing.T) {
	db := memoryDB(t, "sqlite3")
	ctx := context.Background()
	group := db.MustFinder("Group").New()

	members, err := group.Many(ctx, "Members")
	require.NoError(t, err)
	assert.Empty(t, members)

	article := db.MustFinder("Article").New()
	author, err := article.One(ctx, "Author")
	require.NoError(t, err)
	assert.Nil(t, author)

	revisions, err := article.Many(ctx, "History")
	require.NoError(t, err)
	assert.Empty(t, revisions)
}

func TestSQLite_ManyMany(t *testing.T) {
	db := memoryDB(t, "sqlite3")
	ctx := context.Background()

	group, err := db.MustFinder("Group").Create(ctx, map[string]any{"Name": "Compilers"}, true)
	require.NoError(t, err)
	assert.Equal(t, "compilers", group.MustGet("Handle"))
	assert.Equal(t, "active", group.MustGet("Status"))

	people := map[string]*Record{}
	for _, name := range [][2]string{{"Grace", "Hopper"}, {"Frances", "Allen"}, {"Niklaus", "Wirth"}} {
		p, err := db.MustFinder("Person").Create(ctx, map[string]any{"FirstName": name[0], "LastName": name[1]}, true)
		require.NoError(t, err)
		people[name[1]] = p
	}
	for _, last := range []string{"Hopper", "Allen"} {
		_, err = db.MustFinder("GroupMember").Create(ctx, map[string]any{
			"GroupID":  group.ID(),
			"PersonID": people[last].ID(),
			"Role":     "founder",
		}, true)
		require.NoError(t, err)
	}

	members, err := group.Many(ctx, "Members")
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "Allen", members[0].MustGet("LastName"))
	assert.Equal(t, "Hopper", members[1].MustGet("LastName"))

	byPerson, err := group.Indexed(ctx, "Memberships")
	require.NoError(t, err)
	assert.Len(t, byPerson, 2)
	m, ok := byPerson[fmt.Sprint(people["Hopper"].ID())]
	require.True(t, ok)
	assert.Equal(t, "founder", m.MustGet("Role"))

	_, err = group.Indexed(ctx, "Members")
	assert.True(t, errors.Is(err, ErrConfiguration))

	groups, err := people["Allen"].Many(ctx, "Groups")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, group.ID(), groups[0].ID())

	groups, err = people["Wirth"].Many(ctx, "Groups")
	require.NoError(t, err)
	assert.Empty(t, groups)

	// 同一个人不能重复加入
	_, err = db.MustFinder("GroupMember").Create(ctx, map[string]any{
		"GroupID":  group.ID(),
		"PersonID": people["Allen"].ID(),
	}, true)
	assert.True(t, errors.Is(err, ErrConstraint))
}

func TestSQLite_Versioning(t *testing.T) {
	db := memoryDB(t, "sqlite3")
	ctx := context.Background()
	f := db.MustFinder("Article")

	article, err := f.Create(ctx, map[string]any{"Title": "Draft", "Tags": []string{"go", "orm"}}, true)
	require.NoError(t, err)
	require.NoError(t, article.Set("Status", catalog.ArticlePublished))
	require.NoError(t, article.Save(ctx))
	assert.NotNil(t, article.MustGet("Published"))

	revisions, err := f.GetRevisions(ctx, article.ID())
	require.NoError(t, err)
	require.Len(t, revisions, 2)
	assert.Equal(t, catalog.ArticlePublished, revisions[0].MustGet("Status"))
	assert.Equal(t, catalog.ArticleDraft, revisions[1].MustGet("Status"))
	assert.Equal(t, []string{"go", "orm"}, revisions[1].MustGet("Tags"))
	assert.True(t, revisions[0].IsHistory())
	assert.Contains(t, revisions[0].Data(), "RevisionID")

	// 历史记录只读
	assert.True(t, errors.Is(revisions[0].Set("Title", "x"), ErrConfiguration))
	assert.True(t, errors.Is(revisions[0].Save(ctx), ErrConfiguration))
	_, err = revisions[0].Destroy(ctx)
	assert.True(t, errors.Is(err, ErrConfiguration))

	history, err := article.Many(ctx, "History")
	require.NoError(t, err)
	assert.Len(t, history, 2)

	ok, err := article.Destroy(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	revisions, err = f.GetRevisions(ctx, article.ID())
	require.NoError(t, err)
	assert.Len(t, revisions, 3)

	_, err = f.GetByID(ctx, article.ID())
	assert.True(t, errors.Is(err, ErrNoRows))

	_, err = db.MustFinder("Tag").GetRevisions(ctx, 1)
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestSQLite_Finder(t *testing.T) {
	db := memoryDB(t, "sqlite3")
	ctx := context.Background()

	for i, name := range []string{"Ada", "Bo", "Cy", "Di"} {
		values := map[string]any{"FirstName": name, "LastName": "Test"}
		class := "Person"
		if i%2 == 1 {
			class = "Student"
			values["Grade"] = i
		}
		_, err := db.MustFinder(class).Create(ctx, values, true)
		require.NoError(t, err)
	}

	var found int64
	people, err := db.MustFinder("Person").GetAll(ctx,
		Order(model.Desc("FirstName")), Limit(2), Offset(1), FoundRows(&found))
	require.NoError(t, err)
	require.Len(t, people, 2)
	assert.Equal(t, int64(4), found)
	assert.Equal(t, "Cy", people[0].MustGet("FirstName"))
	assert.Equal(t, "Student", people[1].Model().Name)
	assert.Equal(t, int64(1), people[1].MustGet("Grade"))

	students, err := db.MustFinder("Student").GetAll(ctx, Order(model.Asc("FirstName")))
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "Di", students[1].MustGet("FirstName"))

	n, err := db.MustFinder("Student").Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = db.MustFinder("Person").Count(ctx, model.Match(map[string]any{"LastName": "Test"}))
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	// Student 的 finder 不会找到 Person
	_, err = db.MustFinder("Student").GetByHandle(ctx, "ada")
	assert.True(t, errors.Is(err, ErrNoRows))
	ada, err := db.MustFinder("Person").GetByHandle(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, "Person", ada.Model().Name)

	none, err := db.MustFinder("Person").GetAllByField(ctx, "LastName", "Nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}
