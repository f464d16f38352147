package pipeline

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"
)

// Pipeline applies its stages, in order, to every item received. Step errors
// are logged and do not stop the item or the pipeline.
type Pipeline[T any] struct {
	stages []Stage[T]
	onDone func(item *T, failed int)
}

func New[T any](stages ...Stage[T]) *Pipeline[T] {
	return &Pipeline[T]{stages: stages}
}

// OnDone registers a callback run after the last stage of each item, with the
// number of steps that failed for it.
func (p *Pipeline[T]) OnDone(fn func(item *T, failed int)) *Pipeline[T] {
	p.onDone = fn
	return p
}

// Process consumes in until it is closed or ctx is done.
func (p *Pipeline[T]) Process(ctx context.Context, in <-chan *T) {
	for {
		select {
		case <-ctx.Done():
			return
		case item, ok := <-in:
			if !ok {
				return
			}
			failed := p.run(ctx, item)
			if p.onDone != nil {
				p.onDone(item, failed)
			}
		}
	}
}

func (p *Pipeline[T]) run(ctx context.Context, item *T) int {
	failed := 0
	for _, stage := range p.stages {
		// A plain Group: one failing step must not cancel its siblings.
		var g errgroup.Group
		errs := make([]error, len(stage.steps))
		for i, step := range stage.steps {
			g.Go(func() error {
				errs[i] = step(ctx, item)
				return nil
			})
		}
		_ = g.Wait()
		for _, err := range errs {
			if err != nil {
				failed++
				log.Printf("Step failed in stage %q: %v", stage.name, err)
			}
		}
	}
	return failed
}
