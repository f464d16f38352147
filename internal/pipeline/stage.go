// Package pipeline runs items through ordered stages of concurrent steps.
package pipeline

import (
	"context"
)

// Step handles one item. Steps in the same stage run concurrently on the same
// item and must coordinate on any field they both write.
type Step[T any] func(ctx context.Context, item *T) error

// Stage groups steps that may run in parallel for a single item.
type Stage[T any] struct {
	name  string
	steps []Step[T]
}

func NewStage[T any](name string, steps ...Step[T]) Stage[T] {
	return Stage[T]{name: name, steps: steps}
}
