package utils

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// Concurrent runs f over every element with at most limit goroutines in flight
func Concurrent[T any](ctx context.Context, elems []T, limit int, f func(ctx context.Context, elem T) error) error {
	group, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		group.SetLimit(limit)
	}

	for _, elem := range elems {
		group.Go(func() error {
			return f(gctx, elem)
		})
	}

	return group.Wait()
}

// ErrExecSequential executes a list of functions sequentially, accumulating errors if any occur
func ErrExecSequential(functions ...func() error) error {
	var multErr error

	for _, one := range functions {
		if err := one(); err != nil {
			multErr = multierror.Append(multErr, err)
		}
	}

	return multErr
}

// ErrExecFormat formats the error returned from a function according to the provided format string.
func ErrExecFormat(format string, function func() error) func() error {
	return func() error {
		if err := function(); err != nil {
			return fmt.Errorf(format, err)
		}
		return nil
	}
}
