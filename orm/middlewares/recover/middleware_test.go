package recover

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coderi421/recordkit/orm"
)

func TestMiddlewareBuilder(t *testing.T) {
	var logged any
	mdl := MiddlewareBuilder{
		LogFunc: func(ctx context.Context, qc *orm.QueryContext, err any) {
			logged = err
		},
	}.Build()

	testCases := []struct {
		name    string
		next    orm.Handler
		wantErr bool
		wantLog any
	}{
		{
			name: "panic",
			next: func(ctx context.Context, qc *orm.QueryContext) *orm.QueryResult {
				panic("driver exploded")
			},
			wantErr: true,
			wantLog: "driver exploded",
		},
		{
			name: "no panic",
			next: func(ctx context.Context, qc *orm.QueryContext) *orm.QueryResult {
				return &orm.QueryResult{}
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			logged = nil
			res := mdl(tc.next)(context.Background(), &orm.QueryContext{Type: orm.TypeSelect, Table: "tag"})
			assert.Equal(t, tc.wantLog, logged)
			if !tc.wantErr {
				assert.NoError(t, res.Err)
				return
			}
			assert.True(t, errors.Is(res.Err, orm.ErrDriver))
			assert.Equal(t, orm.KindDriver, orm.KindOf(res.Err))
		})
	}
}
