package orm

import "context"

type creatorKey struct{}

// WithCreator returns a context whose saves fill CreatorID of new records
// with id.
func WithCreator(ctx context.Context, id any) context.Context {
	return context.WithValue(ctx, creatorKey{}, id)
}

func CreatorFrom(ctx context.Context) (any, bool) {
	id := ctx.Value(creatorKey{})
	return id, id != nil
}
