package shared

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Result carries the outcome of one collaborator fetch.
type Result[T any] struct {
	Source string
	Value  T
	Err    error
}

// OK reports whether the fetch succeeded.
func (r Result[T]) OK() bool { return r.Err == nil }

// ValueOrZero returns the payload, or the zero value when the fetch failed.
func (r Result[T]) ValueOrZero() T {
	if r.Err != nil {
		var zero T
		return zero
	}
	return r.Value
}

func (r Result[T]) source() string { return r.Source }
func (r Result[T]) failure() error { return r.Err }

// Settled is satisfied by every Result regardless of payload type.
type Settled interface {
	source() string
	failure() error
}

// LoadWarning reports a collaborator that failed while the others succeeded.
type LoadWarning struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}

// Settle runs fn on g and stores its outcome in dst. The goroutine never
// returns an error, so one failing fetch does not cancel its siblings.
func Settle[T any](ctx context.Context, g *errgroup.Group, source string, dst *Result[T], fn func(context.Context) (T, error)) {
	g.Go(func() error {
		value, err := fn(ctx)
		*dst = Result[T]{Source: source, Value: value, Err: err}
		return nil
	})
}

// Warnings collects per-source failures. When ctx was canceled it returns the
// context error instead, and no warning should be surfaced.
func Warnings(ctx context.Context, results ...Settled) ([]LoadWarning, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var warnings []LoadWarning
	for _, r := range results {
		err := r.failure()
		if err == nil {
			continue
		}
		warnings = append(warnings, LoadWarning{Source: r.source(), Message: err.Error()})
	}
	return warnings, nil
}
