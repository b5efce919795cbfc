package orm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coderi421/recordkit/orm/internal/errs"
)

func TestSelector_Build(t *testing.T) {
	r := testRegistry(t)
	tag := mustModel(t, r, "Tag")
	group := mustModel(t, r, "Group")
	member := mustModel(t, r, "GroupMember")

	type testCase struct {
		name    string
		q       QueryBuilder
		want    *Query
		wantErr error
	}
	tests := []testCase{
		{
			name: "no where",
			q:    NewSelector(tag),
			want: &Query{
				SQL: "SELECT * FROM `tag`;",
			},
		},
		{
			name: "with table",
			q:    NewSelector(tag).Table("history_tag"),
			want: &Query{
				SQL: "SELECT * FROM `history_tag`;",
			},
		},
		{
			name:    "no table",
			q:       NewSelector(nil),
			wantErr: errs.ErrEmptyTable,
		},
		{
			name: "single and simple predicate",
			q:    NewSelector(tag).Where(C("Slug").EQ("linux")),
			want: &Query{
				SQL:  "SELECT * FROM `tag` WHERE `Slug` = ?;",
				Args: []any{"linux"},
			},
		},
		{
			name: "multiple predicates",
			q:    NewSelector(tag).Where(C("ID").GT(11), C("ID").LT(13)),
			want: &Query{
				SQL:  "SELECT * FROM `tag` WHERE (`ID` > ?) AND (`ID` < ?);",
				Args: []any{11, 13},
			},
		},
		{
			name: "where called twice",
			q:    NewSelector(tag).Where(C("ID").GTE(11)).Where(C("ID").LTE(13)),
			want: &Query{
				SQL:  "SELECT * FROM `tag` WHERE (`ID` >= ?) AND (`ID` <= ?);",
				Args: []any{11, 13},
			},
		},
		{
			// 使用 AND
			name: "and",
			q:    NewSelector(tag).Where(C("ID").GT(18).And(C("ID").LT(35))),
			want: &Query{
				SQL:  "SELECT * FROM `tag` WHERE (`ID` > ?) AND (`ID` < ?);",
				Args: []any{18, 35},
			},
		},
		{
			// 使用 OR
			name: "or",
			q:    NewSelector(tag).Where(C("Tag").EQ("go").Or(C("Tag").EQ("rust"))),
			want: &Query{
				SQL:  "SELECT * FROM `tag` WHERE (`Tag` = ?) OR (`Tag` = ?);",
				Args: []any{"go", "rust"},
			},
		},
		{
			// 使用 NOT
			name: "not",
			q:    NewSelector(tag).Where(Not(C("Tag").EQ("go"))),
			want: &Query{
				SQL:  "SELECT * FROM `tag` WHERE NOT (`Tag` = ?);",
				Args: []any{"go"},
			},
		},
		{
			name: "is null",
			q:    NewSelector(tag).Where(C("CreatorID").IsNull(), C("Tag").IsNotNull()),
			want: &Query{
				SQL: "SELECT * FROM `tag` WHERE (`CreatorID` IS NULL) AND (`Tag` IS NOT NULL);",
			},
		},
		{
			name: "raw predicate",
			q:    NewSelector(tag).Where(Raw("`ID` IN (?,?)", 1, 2).AsPredicate()),
			want: &Query{
				SQL:  "SELECT * FROM `tag` WHERE `ID` IN (?,?);",
				Args: []any{1, 2},
			},
		},
		{
			name:    "unknown field",
			q:       NewSelector(tag).Where(C("Invalid").EQ(1)),
			wantErr: errs.NewErrUnknownField("Invalid"),
		},
		{
			name: "column name differs",
			q:    NewSelector(mustModel(t, r, "Legacy")).Select(C("Title")).Where(C("Title").EQ("x")),
			want: &Query{
				SQL:  "SELECT `title_text` FROM `legacy_items` WHERE `title_text` = ?;",
				Args: []any{"x"},
			},
		},
		{
			name: "columns",
			q:    NewSelector(tag).Select(C("ID"), C("Tag").As("name")),
			want: &Query{
				SQL: "SELECT `ID`,`Tag` AS `name` FROM `tag`;",
			},
		},
		{
			name: "aggregate",
			q:    NewSelector(tag).Select(Count(""), Max("ID").As("top")),
			want: &Query{
				SQL: "SELECT COUNT(*),MAX(`ID`) AS `top` FROM `tag`;",
			},
		},
		{
			name: "min sum",
			q:    NewSelector(tag).Select(Min("ID"), Sum("ID").As("total")).Where(C("Slug").NEQ("go")),
			want: &Query{
				SQL:  "SELECT MIN(`ID`),SUM(`ID`) AS `total` FROM `tag` WHERE `Slug` != ?;",
				Args: []any{"go"},
			},
		},
		{
			name: "raw expression",
			q:    NewSelector(tag).Select(Raw("COUNT(DISTINCT `Slug`)")),
			want: &Query{
				SQL: "SELECT COUNT(DISTINCT `Slug`) FROM `tag`;",
			},
		},
		{
			name: "group by having",
			q: NewSelector(tag).Select(C("Class"), Count("")).
				GroupBy(C("Class")).
				Having(Count("").GT(1)),
			want: &Query{
				SQL:  "SELECT `Class`,COUNT(*) FROM `tag` GROUP BY `Class` HAVING COUNT(*) > ?;",
				Args: []any{1},
			},
		},
		{
			name: "order limit offset",
			q:    NewSelector(tag).OrderBy(Desc("ID"), ASC("Tag")).Limit(10).Offset(20),
			want: &Query{
				SQL:  "SELECT * FROM `tag` ORDER BY `ID` DESC,`Tag` ASC LIMIT ? OFFSET ?;",
				Args: []any{10, 20},
			},
		},
		{
			name: "raw order",
			q:    NewSelector(tag).OrderBy(RawOrderBy("RAND()")),
			want: &Query{
				SQL: "SELECT * FROM `tag` ORDER BY RAND();",
			},
		},
		{
			name: "offset only mysql",
			q:    NewSelector(tag).Offset(5),
			want: &Query{
				SQL:  "SELECT * FROM `tag` LIMIT 18446744073709551615 OFFSET ?;",
				Args: []any{5},
			},
		},
		{
			name: "offset only sqlite",
			q:    NewSelector(tag).Dialect(SQLite3).Offset(5),
			want: &Query{
				SQL:  "SELECT * FROM `tag` LIMIT -1 OFFSET ?;",
				Args: []any{5},
			},
		},
		{
			name: "calc found rows",
			q:    NewSelector(tag).CalcFoundRows().Limit(2),
			want: &Query{
				SQL:  "SELECT SQL_CALC_FOUND_ROWS * FROM `tag` LIMIT ?;",
				Args: []any{2},
			},
		},
		{
			name: "calc found rows sqlite",
			q:    NewSelector(tag).Dialect(SQLite3).CalcFoundRows().Limit(2),
			want: &Query{
				SQL:  "SELECT * FROM `tag` LIMIT ?;",
				Args: []any{2},
			},
		},
		{
			name: "join",
			q: NewSelector(group).Alias("Related").
				Select(AllOf("Related")).
				Join(member, "Link", C("GroupID").Of("Link").EQ(C("ID").Of("Related"))).
				Where(C("PersonID").Of("Link").EQ(int64(3))).
				OrderBy(ASC("Name").Of("Related")),
			want: &Query{
				SQL: "SELECT `Related`.* FROM `groups` AS `Related` JOIN `group_member` AS `Link` " +
					"ON `Link`.`GroupID` = `Related`.`ID` WHERE `Link`.`PersonID` = ? ORDER BY `Related`.`Name` ASC;",
				Args: []any{int64(3)},
			},
		},
		{
			name:    "join unknown field",
			q:       NewSelector(group).Alias("Related").Join(member, "Link", C("Name").Of("Link").EQ(1)),
			wantErr: errs.NewErrUnknownField("Name"),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q, err := tc.q.Build()
			assert.Equal(t, tc.wantErr, err)
			if err != nil {
				return
			}
			assert.Equal(t, tc.want, q)
		})
	}
}

func TestSelector_Immutable(t *testing.T) {
	r := testRegistry(t)
	base := NewSelector(mustModel(t, r, "Tag")).Where(C("ID").GT(1))
	a := base.Where(C("Tag").EQ("a"))
	b := base.Where(C("Tag").EQ("b"))

	qa, err := a.Build()
	assert.NoError(t, err)
	qb, err := b.Build()
	assert.NoError(t, err)
	qbase, err := base.Build()
	assert.NoError(t, err)

	assert.Equal(t, []any{1, "a"}, qa.Args)
	assert.Equal(t, []any{1, "b"}, qb.Args)
	assert.Equal(t, "SELECT * FROM `tag` WHERE `ID` > ?;", qbase.SQL)
}

func TestSelector_BuildCount(t *testing.T) {
	r := testRegistry(t)
	s := NewSelector(mustModel(t, r, "Tag")).
		Where(C("Tag").Like("L%")).
		OrderBy(ASC("Tag")).
		Limit(10).
		Offset(10).
		CalcFoundRows()
	q, err := s.BuildCount()
	assert.NoError(t, err)
	assert.Equal(t, &Query{
		SQL:  "SELECT COUNT(*) FROM (SELECT * FROM `tag` WHERE `Tag` LIKE ?) AS `found`;",
		Args: []any{"L%"},
	}, q)
}

func TestQuery_String(t *testing.T) {
	q := &Query{
		SQL:  "SELECT * FROM `tag` WHERE (`Tag` = ?) AND (`Note` = '?') AND (`ID` > ?) AND (`CreatorID` = ?);",
		Args: []any{`say "hi"`, 3, nil},
	}
	assert.Equal(t,
		"SELECT * FROM `tag` WHERE (`Tag` = \"say \\\"hi\\\"\") AND (`Note` = '?') AND (`ID` > 3) AND (`CreatorID` = NULL);",
		q.String())
}
