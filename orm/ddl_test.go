package orm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coderi421/recordkit/orm/internal/errs"
)

func TestCreateTableStatements(t *testing.T) {
	r := testRegistry(t)

	testCases := []struct {
		name    string
		dialect Dialect
		class   string
		history bool
		want    []string
		wantErr error
	}{
		{
			name:    "mysql",
			dialect: MySQL,
			class:   "Tag",
			want: []string{"CREATE TABLE IF NOT EXISTS `tag` (\n" +
				"\t`ID` int unsigned NOT NULL auto_increment,\n" +
				"\t`Class` enum('Tag') NOT NULL,\n" +
				"\t`Created` timestamp NOT NULL DEFAULT CURRENT_TIMESTAMP,\n" +
				"\t`CreatorID` int unsigned NULL DEFAULT NULL,\n" +
				"\t`Tag` varchar(255) NOT NULL,\n" +
				"\t`Slug` varchar(255) NOT NULL,\n" +
				"\tPRIMARY KEY (`ID`),\n" +
				"\tUNIQUE KEY `Slug` (`Slug`)\n" +
				") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;"},
		},
		{
			name:    "sqlite",
			dialect: SQLite3,
			class:   "Tag",
			want: []string{"CREATE TABLE IF NOT EXISTS `tag` (\n" +
				"\t`ID` INTEGER PRIMARY KEY AUTOINCREMENT,\n" +
				"\t`Class` TEXT NOT NULL,\n" +
				"\t`Created` TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,\n" +
				"\t`CreatorID` INTEGER NULL DEFAULT NULL,\n" +
				"\t`Tag` TEXT NOT NULL,\n" +
				"\t`Slug` TEXT NOT NULL,\n" +
				"\tUNIQUE (`Slug`)\n" +
				");"},
		},
		{
			name:    "mysql history",
			dialect: MySQL,
			class:   "Article",
			history: true,
			want: []string{"CREATE TABLE IF NOT EXISTS `history_article` (\n" +
				"\t`RevisionID` int unsigned NOT NULL auto_increment,\n" +
				"\t`ID` int unsigned NULL DEFAULT NULL,\n" +
				"\t`Class` enum('Article') NULL DEFAULT NULL,\n" +
				"\t`Created` timestamp NULL DEFAULT CURRENT_TIMESTAMP,\n" +
				"\t`CreatorID` int unsigned NULL DEFAULT NULL,\n" +
				"\t`Title` varchar(255) NULL DEFAULT NULL,\n" +
				"\t`Handle` varchar(255) NULL DEFAULT NULL,\n" +
				"\t`Body` mediumtext NULL DEFAULT NULL,\n" +
				"\t`Status` enum('draft','published') NULL DEFAULT 'draft',\n" +
				"\t`Tags` mediumtext NULL DEFAULT NULL,\n" +
				"\t`Published` date NULL DEFAULT NULL,\n" +
				"\t`AuthorID` int unsigned NULL DEFAULT NULL,\n" +
				"\tPRIMARY KEY (`RevisionID`),\n" +
				"\tKEY `ID` (`ID`)\n" +
				") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;"},
		},
		{
			name:    "sqlite history",
			dialect: SQLite3,
			class:   "Article",
			history: true,
			want: []string{
				"CREATE TABLE IF NOT EXISTS `history_article` (\n" +
					"\t`RevisionID` INTEGER PRIMARY KEY AUTOINCREMENT,\n" +
					"\t`ID` INTEGER NULL DEFAULT NULL,\n" +
					"\t`Class` TEXT NULL DEFAULT NULL,\n" +
					"\t`Created` TEXT NULL DEFAULT CURRENT_TIMESTAMP,\n" +
					"\t`CreatorID` INTEGER NULL DEFAULT NULL,\n" +
					"\t`Title` TEXT NULL DEFAULT NULL,\n" +
					"\t`Handle` TEXT NULL DEFAULT NULL,\n" +
					"\t`Body` TEXT NULL DEFAULT NULL,\n" +
					"\t`Status` TEXT NULL DEFAULT 'draft',\n" +
					"\t`Tags` TEXT NULL DEFAULT NULL,\n" +
					"\t`Published` TEXT NULL DEFAULT NULL,\n" +
					"\t`AuthorID` INTEGER NULL DEFAULT NULL\n" +
					");",
				"CREATE INDEX IF NOT EXISTS `history_article_ID` ON `history_article` (`ID`);",
			},
		},
		{
			name:    "sqlite indexes",
			dialect: SQLite3,
			class:   "Article",
			want: []string{
				"CREATE TABLE IF NOT EXISTS `article` (\n" +
					"\t`ID` INTEGER PRIMARY KEY AUTOINCREMENT,\n" +
					"\t`Class` TEXT NOT NULL,\n" +
					"\t`Created` TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,\n" +
					"\t`CreatorID` INTEGER NULL DEFAULT NULL,\n" +
					"\t`Title` TEXT NOT NULL,\n" +
					"\t`Handle` TEXT NOT NULL,\n" +
					"\t`Body` TEXT NULL DEFAULT NULL,\n" +
					"\t`Status` TEXT NOT NULL DEFAULT 'draft',\n" +
					"\t`Tags` TEXT NULL DEFAULT NULL,\n" +
					"\t`Published` TEXT NULL DEFAULT NULL,\n" +
					"\t`AuthorID` INTEGER NULL DEFAULT NULL,\n" +
					"\tUNIQUE (`Handle`)\n" +
					");",
				"CREATE INDEX IF NOT EXISTS `article_Body` ON `article` (`Body`);",
				"CREATE INDEX IF NOT EXISTS `article_AuthorID` ON `article` (`AuthorID`);",
			},
		},
		{
			name:    "not versioned",
			dialect: MySQL,
			class:   "Tag",
			history: true,
			wantErr: errs.NewErrNotVersioned("Tag"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			stmts, err := CreateTableStatements(tc.dialect, r, mustModel(t, r, tc.class), tc.history)
			assert.Equal(t, tc.wantErr, err)
			if err != nil {
				return
			}
			assert.Equal(t, tc.want, stmts)
		})
	}
}

func TestCreateTableStatements_Indexes(t *testing.T) {
	r := testRegistry(t)

	testCases := []struct {
		name  string
		class string
		want  []string
	}{
		{
			// 子类的字段也建在同一张表里
			name:  "subclass fields",
			class: "Person",
			want: []string{
				"\t`Grade` int unsigned NULL DEFAULT NULL",
				"\t`School` varchar(128) NULL DEFAULT NULL",
				"\tUNIQUE KEY `Username` (`Username`)",
				"\tUNIQUE KEY `Email` (`Email`)",
				"`Class` enum('Person','Student') NOT NULL",
			},
		},
		{
			name:  "context index",
			class: "Comment",
			want:  []string{"\tKEY `Context` (`ContextClass`,`ContextID`)"},
		},
		{
			name:  "declared index",
			class: "GroupMember",
			want: []string{
				"\tUNIQUE KEY `GroupPerson` (`GroupID`,`PersonID`)",
				"`Role` enum('member','founder','admin') NOT NULL DEFAULT 'member'",
			},
		},
		{
			name:  "fulltext",
			class: "Article",
			want: []string{
				"\tFULLTEXT KEY `Body` (`Body`)",
				"\tKEY `AuthorID` (`AuthorID`)",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			stmts, err := CreateTableStatements(MySQL, r, mustModel(t, r, tc.class), false)
			assert.NoError(t, err)
			assert.Len(t, stmts, 1)
			for _, w := range tc.want {
				assert.Contains(t, stmts[0], w)
			}
		})
	}
}
