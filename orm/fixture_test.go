package orm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coderi421/recordkit/internal/catalog"
	"github.com/coderi421/recordkit/orm/model"
)

// legacy 字段名和列名不一样
func legacy() *model.Declaration {
	return model.Declare("Legacy").Extends(model.Base()).
		Table("legacy_items").
		Field("Title", model.Type(model.KindVarchar), model.Length(64), model.Column("title_text"))
}

func testRegistry(t *testing.T) *model.Registry {
	t.Helper()
	r := model.NewRegistry()
	require.NoError(t, catalog.Register(r))
	_, err := r.Register(legacy())
	require.NoError(t, err)
	return r
}

func mustModel(t *testing.T, r *model.Registry, name string) *model.Model {
	t.Helper()
	m, err := r.Get(name)
	require.NoError(t, err)
	return m
}
