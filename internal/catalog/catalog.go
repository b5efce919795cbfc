// Package catalog declares the model classes the recordkit command works
// with. Tests of the orm package use them as fixtures too.
package catalog

import (
	"context"
	"regexp"
	"time"

	"github.com/coderi421/recordkit/orm/model"
)

const (
	ArticleDraft     = "draft"
	ArticlePublished = "published"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Tag 最简单的模型，Slug 是 handle
func Tag() *model.Declaration {
	return model.Declare("Tag").Extends(model.Base()).
		Field("Tag", model.Type(model.KindVarchar), model.Length(255)).
		Field("Slug", model.Type(model.KindVarchar), model.Length(255)).
		Handle("Slug", "Tag")
}

// Person 和 Student 共用 person 表，Class 列区分
func Person() *model.Declaration {
	return model.Declare("Person").Extends(model.Base()).
		SubClasses("Person", "Student").
		Field("FirstName", model.Type(model.KindVarchar), model.Length(64)).
		Field("LastName", model.Type(model.KindVarchar), model.Length(64)).
		Field("Username", model.Type(model.KindVarchar), model.Length(64)).
		Field("Email", model.Type(model.KindVarchar), model.Length(128), model.Nullable(), model.Unique()).
		Field("About", model.Type(model.KindClob), model.Nullable()).
		Handle("Username", "FirstName").
		Relationship("Comments", model.ContextChildren,
			model.Class("Comment"),
			model.OrderBy(model.Asc(model.FieldID))).
		Relationship("Groups", model.ManyMany,
			model.Class("Group"),
			model.LinkClass("GroupMember"),
			model.OrderBy(model.Asc("Name"))).
		Validate(model.Pattern("Email", emailPattern, "is not a valid email address"))
}

func Student(person *model.Declaration) *model.Declaration {
	return model.Declare("Student").Extends(person).
		Field("Grade", model.Type(model.KindUint), model.Nullable()).
		Field("School", model.Type(model.KindVarchar), model.Length(128), model.Nullable())
}

// Comment 可以挂在 Person 或者 Article 下面
func Comment() *model.Declaration {
	return model.Declare("Comment").Extends(model.Base()).
		ContextClasses("Person", "Article").
		Field(model.FieldContextClass, model.Type(model.KindVarchar), model.Length(64)).
		Field(model.FieldContextID, model.Type(model.KindUint)).
		Field("Message", model.Type(model.KindClob)).
		Relationship("Context", model.ContextParent).
		Relationship("Creator", model.OneOne, model.Class("Person"))
}

func Group() *model.Declaration {
	return model.Declare("Group").Extends(model.Base()).
		Table("groups").
		Field("Name", model.Type(model.KindVarchar), model.Length(128)).
		Field("Handle", model.Type(model.KindVarchar), model.Length(128)).
		Field("Status", model.Type(model.KindEnum), model.Values("active", "archived"), model.Default("active")).
		Handle("Handle", "Name").
		Relationship("Members", model.ManyMany,
			model.Class("Person"),
			model.LinkClass("GroupMember"),
			model.OrderBy(model.Asc("LastName"), model.Asc("FirstName"))).
		Relationship("Memberships", model.OneMany,
			model.Class("GroupMember"),
			model.IndexField("PersonID"))
}

// GroupMember 是 Group 和 Person 之间的中间表
func GroupMember() *model.Declaration {
	return model.Declare("GroupMember").Extends(model.Base()).
		Field("GroupID", model.Type(model.KindUint)).
		Field("PersonID", model.Type(model.KindUint)).
		Field("Role", model.Type(model.KindEnum), model.Values("member", "founder", "admin"), model.Default("member")).
		Index("GroupPerson", []string{"GroupID", "PersonID"}, model.UniqueIndex()).
		Relationship("Group", model.OneOne, model.Class("Group")).
		Relationship("Person", model.OneOne, model.Class("Person"))
}

// Article keeps a history row for every change.
func Article() *model.Declaration {
	return model.Declare("Article").Extends(model.VersionedBase()).
		Field("Title", model.Type(model.KindVarchar), model.Length(255)).
		Field("Handle", model.Type(model.KindVarchar), model.Length(255)).
		Field("Body", model.Type(model.KindClob), model.Nullable(), model.Fulltext()).
		Field("Status", model.Type(model.KindEnum), model.Values(ArticleDraft, ArticlePublished), model.Default(ArticleDraft)).
		Field("Tags", model.Type(model.KindList), model.Nullable()).
		Field("Published", model.Type(model.KindDate), model.Nullable()).
		Field("AuthorID", model.Type(model.KindUint), model.Nullable(), model.Indexed()).
		Handle("Handle", "Title").
		Relationship("Author", model.OneOne, model.Class("Person")).
		Relationship("Comments", model.ContextChildren, model.Class("Comment")).
		BeforeSave("publish", stampPublished)
}

// stampPublished 第一次发布的时候记下日期
func stampPublished(_ context.Context, r model.Record) error {
	status, err := r.Get("Status")
	if err != nil || status != ArticlePublished {
		return err
	}
	published, err := r.Get("Published")
	if err != nil || published != nil {
		return err
	}
	return r.Set("Published", time.Now())
}

// All returns fresh declarations of every class, parents first.
func All() []*model.Declaration {
	person := Person()
	return []*model.Declaration{
		Tag(),
		person,
		Student(person),
		Comment(),
		Group(),
		GroupMember(),
		Article(),
	}
}

// Register registers every class with r.
func Register(r *model.Registry) error {
	for _, d := range All() {
		if _, err := r.Register(d); err != nil {
			return err
		}
	}
	return nil
}
