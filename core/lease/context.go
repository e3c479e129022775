package lease

import "context"

type storeKey struct{}

// WithStore returns a new context with the lease store s attached
func WithStore(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, storeKey{}, s)
}

// GetStore returns the lease store attached to ctx or nil
func GetStore(ctx context.Context) *Store {
	s, _ := ctx.Value(storeKey{}).(*Store)
	return s
}
