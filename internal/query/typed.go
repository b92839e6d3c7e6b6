package query

import (
	"context"
	"fmt"
)

// Get is Read for a value of a known type.
func Get[T any](ctx context.Context, c *Cache, key Key, fetch func(ctx context.Context) (T, error), opts Options) (T, error) {
	var zero T
	v, err := c.Read(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	}, opts)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cache entry %s holds %T, want %T", key, v, zero)
	}
	return t, nil
}

// Patch is Update restricted to values of type T. Entries under prefix
// holding other types are skipped.
func Patch[T any](c *Cache, prefix Key, fn func(v T) (T, bool)) int {
	return c.Update(prefix, func(_ Key, v any) (any, bool) {
		t, ok := v.(T)
		if !ok {
			return v, false
		}
		return fn(t)
	})
}
