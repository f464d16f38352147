package network

import "context"

// GetResult is delivered to the callback of a GetResource call. Value is only
// meaningful when Err is nil.
type GetResult[K comparable, V any] struct {
	Key   K
	Value V
	Err   error
}

// SetResult is delivered to the callback of a SetResource call. Value is the
// value that was (or failed to be) written.
type SetResult[K comparable, V any] struct {
	Key   K
	Value V
	Err   error
}

// ResourceNetwork is an asynchronous key/value network. A set replaces the
// whole value stored under a key; there is no merge and no versioning.
type ResourceNetwork[K comparable, V any] interface {
	GetResource(ctx context.Context, key K, done func(GetResult[K, V]))
	SetResource(ctx context.Context, key K, value V, done func(SetResult[K, V]))
}
