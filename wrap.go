package memocache

import "context"

// Wrap memoizes a one-argument function. The name must be a stable
// identity for the function (e.g. "user.ByID"); two processes pointed at
// the same store share results when they agree on it.
func Wrap[A, R any](c *Cache, name string, fn func(context.Context, A) (R, error)) *Func1[A, R] {
	return &Func1[A, R]{cache: c, name: name, fn: fn}
}

// Wrap2 memoizes a two-argument function.
func Wrap2[A, B, R any](c *Cache, name string, fn func(context.Context, A, B) (R, error)) *Func2[A, B, R] {
	return &Func2[A, B, R]{cache: c, name: name, fn: fn}
}

// Wrap3 memoizes a three-argument function.
func Wrap3[A, B, D, R any](c *Cache, name string, fn func(context.Context, A, B, D) (R, error)) *Func3[A, B, D, R] {
	return &Func3[A, B, D, R]{cache: c, name: name, fn: fn}
}

// Func1 is a memoized one-argument function.
type Func1[A, R any] struct {
	cache *Cache
	name  string
	fn    func(context.Context, A) (R, error)
}

// Call invokes the wrapped function through the cache. The calling
// convention matches the wrapped function's.
func (f *Func1[A, R]) Call(ctx context.Context, a A) (R, error) {
	return lookupOrFill(ctx, f.cache, Call{Function: f.name, Args: []any{a}},
		func(ctx context.Context) (R, error) { return f.fn(ctx, a) })
}

// Info reports cache statistics. Hit/miss counters are shared across every
// function wrapped by the same Cache.
func (f *Func1[A, R]) Info(ctx context.Context) (Info, error) {
	return f.cache.Info(ctx)
}

// Clear empties this function's entries in the store and resets the
// cache's statistics to zero.
func (f *Func1[A, R]) Clear(ctx context.Context) error {
	return f.cache.clearPrefix(ctx, f.cache.funcPrefix(f.name))
}

// Func2 is a memoized two-argument function.
type Func2[A, B, R any] struct {
	cache *Cache
	name  string
	fn    func(context.Context, A, B) (R, error)
}

// Call invokes the wrapped function through the cache.
func (f *Func2[A, B, R]) Call(ctx context.Context, a A, b B) (R, error) {
	return lookupOrFill(ctx, f.cache, Call{Function: f.name, Args: []any{a, b}},
		func(ctx context.Context) (R, error) { return f.fn(ctx, a, b) })
}

// Info reports cache statistics.
func (f *Func2[A, B, R]) Info(ctx context.Context) (Info, error) {
	return f.cache.Info(ctx)
}

// Clear empties this function's entries and resets statistics.
func (f *Func2[A, B, R]) Clear(ctx context.Context) error {
	return f.cache.clearPrefix(ctx, f.cache.funcPrefix(f.name))
}

// Func3 is a memoized three-argument function.
type Func3[A, B, D, R any] struct {
	cache *Cache
	name  string
	fn    func(context.Context, A, B, D) (R, error)
}

// Call invokes the wrapped function through the cache.
func (f *Func3[A, B, D, R]) Call(ctx context.Context, a A, b B, d D) (R, error) {
	return lookupOrFill(ctx, f.cache, Call{Function: f.name, Args: []any{a, b, d}},
		func(ctx context.Context) (R, error) { return f.fn(ctx, a, b, d) })
}

// Info reports cache statistics.
func (f *Func3[A, B, D, R]) Info(ctx context.Context) (Info, error) {
	return f.cache.Info(ctx)
}

// Clear empties this function's entries and resets statistics.
func (f *Func3[A, B, D, R]) Clear(ctx context.Context) error {
	return f.cache.clearPrefix(ctx, f.cache.funcPrefix(f.name))
}
