package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coderi421/recordkit/orm"
)

// cli 每次调用都像一次独立的进程，共用同一个 sqlite 文件
type cli struct {
	t    *testing.T
	base []string
}

func newCLI(t *testing.T, driver string) *cli {
	color.NoColor = true
	dir := t.TempDir()
	cfg := filepath.Join(dir, "recordkit.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("cache: none\nauto_create: true\n"), 0o644))
	return &cli{t: t, base: []string{
		"--config", cfg,
		"--driver", driver,
		"--dsn", filepath.Join(dir, "recordkit.db"),
	}}
}

func (c *cli) run(args ...string) (string, string, error) {
	c.t.Helper()
	var out, status bytes.Buffer
	a := &app{}
	root := newRootCmd(a)
	root.SetArgs(append(args, c.base...))
	root.SetOut(&out)
	root.SetErr(&status)
	err := execute(root, a)
	return out.String(), status.String(), err
}

// must 执行成功并返回标准输出
func (c *cli) must(args ...string) string {
	c.t.Helper()
	out, status, err := c.run(args...)
	require.NoError(c.t, err, status)
	return out
}

func (c *cli) record(args ...string) map[string]any {
	c.t.Helper()
	var res map[string]any
	require.NoError(c.t, json.Unmarshal([]byte(c.must(args...)), &res))
	return res
}

func (c *cli) records(args ...string) []map[string]any {
	c.t.Helper()
	var res []map[string]any
	require.NoError(c.t, json.Unmarshal([]byte(c.must(args...)), &res))
	return res
}

func TestCLI_Records(t *testing.T) {
	for _, driver := range []string{"sqlite3", "sqlite"} {
		t.Run(driver, func(t *testing.T) {
			c := newCLI(t, driver)

			out, status, err := c.run("create", "Tag", "Tag=Hello World")
			require.NoError(t, err, status)
			assert.Contains(t, status, "✓ created Tag 1")
			var tag map[string]any
			require.NoError(t, json.Unmarshal([]byte(out), &tag))
			assert.Equal(t, float64(1), tag["ID"])
			assert.Equal(t, "hello-world", tag["Slug"])
			assert.Equal(t, "Tag", tag["Class"])

			tag = c.record("get", "Tag", "hello-world")
			assert.Equal(t, "Hello World", tag["Tag"])
			tag = c.record("get", "Tag", "1")
			assert.Equal(t, "hello-world", tag["Slug"])

			out, status, err = c.run("set", "Tag", "1", "Tag=Changed")
			require.NoError(t, err, status)
			assert.Contains(t, status, "✓ updated Tag 1")
			assert.Contains(t, out, `"Tag": "Changed"`)
			// handle 只在为空的时候生成
			assert.Contains(t, out, `"Slug": "hello-world"`)

			_, status, err = c.run("set", "Tag", "hello-world", "Tag=Changed")
			require.NoError(t, err)
			assert.Contains(t, status, "! Tag 1 unchanged")

			tag = c.record("create", "Tag", "Tag=Second")
			assert.Equal(t, float64(2), tag["ID"])

			tags := c.records("find", "Tag", "--order", "-ID")
			require.Len(t, tags, 2)
			assert.Equal(t, "second", tags[0]["Slug"])
			assert.Len(t, c.records("find", "Tag", "Tag=Second"), 1)
			assert.Empty(t, c.records("find", "Tag", "Tag=Nope"))

			out, status, err = c.run("find", "Tag", "--limit", "1", "--order", "ID")
			require.NoError(t, err, status)
			assert.Contains(t, status, "1 of 2 Tag records")
			assert.Contains(t, out, `"Slug": "hello-world"`)

			_, status, err = c.run("destroy", "Tag", "hello-world")
			require.NoError(t, err, status)
			assert.Contains(t, status, "✓ destroyed Tag 1")

			_, _, err = c.run("get", "Tag", "1")
			assert.ErrorIs(t, err, orm.ErrNoRows)
			assert.Equal(t, exitUserError, exitCode(err))
		})
	}
}

func TestCLI_Errors(t *testing.T) {
	c := newCLI(t, "sqlite3")
	c.must("create", "Tag", "Tag=Go")

	testCases := []struct {
		name    string
		args    []string
		wantIs  error
		wantErr string
	}{
		{
			name:    "unknown class",
			args:    []string{"create", "Artcle", "Title=Hi"},
			wantIs:  orm.ErrConfiguration,
			wantErr: `did you mean "Article"?`,
		},
		{
			name:    "bad assignment",
			args:    []string{"create", "Tag", "Tag"},
			wantErr: `invalid assignment "Tag"`,
		},
		{
			name:   "validation",
			args:   []string{"create", "Person", "FirstName=Ada"},
			wantIs: orm.ErrValidation,
		},
		{
			name:   "unique handle",
			args:   []string{"create", "Tag", "Tag=Other", "Slug=go"},
			wantIs: orm.ErrConstraint,
		},
		{
			name:   "not versioned",
			args:   []string{"history", "Tag", "1"},
			wantIs: orm.ErrConfiguration,
		},
		{
			name:   "unknown relationship",
			args:   []string{"related", "Tag", "go", "Parent"},
			wantIs: orm.ErrConfiguration,
		},
		{
			name:    "no handle",
			args:    []string{"get", "GroupMember", "founder"},
			wantErr: "GroupMember has no handle, look it up by ID",
		},
		{
			name:    "bad config",
			args:    []string{"get", "Tag", "1", "--cache", "disk"},
			wantErr: `config: unknown cache "disk"`,
		},
		{
			name:    "missing args",
			args:    []string{"get", "Tag"},
			wantErr: "accepts 2 arg(s), received 1",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := c.run(tc.args...)
			require.Error(t, err)
			if tc.wantIs != nil {
				assert.ErrorIs(t, err, tc.wantIs)
			}
			if tc.wantErr != "" {
				assert.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}

func TestCLI_History(t *testing.T) {
	c := newCLI(t, "sqlite3")

	article := c.record("create", "Article", "Title=Hi", "Tags=go,orm")
	assert.Equal(t, "hi", article["Handle"])
	assert.Equal(t, "draft", article["Status"])
	c.must("set", "Article", "hi", "Title=Again")

	lines := strings.Split(strings.TrimSpace(c.must("history", "Article", "hi")), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "rev 2"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "rev 1"), lines[1])

	c.must("destroy", "Article", "hi")
	revs := c.records("history", "Article", "1", "--json")
	require.Len(t, revs, 3)
	assert.Equal(t, float64(3), revs[0]["RevisionID"])
	assert.Equal(t, "Again", revs[0]["Title"])
	assert.Equal(t, "Hi", revs[2]["Title"])
}

func TestCLI_Related(t *testing.T) {
	c := newCLI(t, "sqlite3")

	person := c.record("create", "Person", "FirstName=Ada", "LastName=Lovelace", "Email=ada@example.com")
	assert.Equal(t, "ada", person["Username"])
	c.must("create", "Article", "Title=Bio", "AuthorID=1")
	c.must("create", "Group", "Name=Admins")
	c.must("create", "GroupMember", "GroupID=1", "PersonID=1", "Role=founder")

	author := c.record("related", "Article", "bio", "Author")
	assert.Equal(t, "Lovelace", author["LastName"])

	members := c.records("related", "Group", "admins", "Members")
	require.Len(t, members, 1)
	assert.Equal(t, "ada", members[0]["Username"])

	groups := c.records("related", "Person", "ada", "Groups")
	require.Len(t, groups, 1)
	assert.Equal(t, "Admins", groups[0]["Name"])

	assert.Empty(t, c.records("related", "Person", "ada", "Comments"))
}

func TestCLI_Schema(t *testing.T) {
	c := newCLI(t, "sqlite3")

	out := c.must("schema", "Tag")
	assert.True(t, strings.HasPrefix(out, "CREATE TABLE IF NOT EXISTS `tag` (\n"), out)

	out = c.must("schema", "Student")
	assert.Contains(t, out, "CREATE TABLE IF NOT EXISTS `person` (")
	assert.Contains(t, out, "`School` TEXT NULL DEFAULT NULL")

	out = c.must("schema", "Article")
	assert.Contains(t, out, "CREATE TABLE IF NOT EXISTS `history_article` (")
	assert.Contains(t, out, "CREATE INDEX IF NOT EXISTS `history_article_ID`")

	out = c.must("schema")
	for _, table := range []string{"tag", "person", "comment", "groups", "group_member", "article", "history_article"} {
		assert.Contains(t, out, "CREATE TABLE IF NOT EXISTS `"+table+"` (")
	}
	assert.Equal(t, 1, strings.Count(out, "CREATE TABLE IF NOT EXISTS `person` ("))

	_, status, err := c.run("schema", "create", "Group", "Student")
	require.NoError(t, err, status)
	assert.Contains(t, status, "✓ created tables of Group")
	assert.Contains(t, status, "✓ created tables of Person")
	assert.Empty(t, c.records("find", "Group"))
}
