package set

import (
	"context"

	"golang.org/x/exp/constraints"
)

// A RangeFunc is a function used to range over the members of a [Set].
//
// If err is non-nil, ranging stops and err is propagated up the stack.
// Otherwise, if ok is false, ranging stops without any error being propagated.
type RangeFunc[T constraints.Integer] func(ctx context.Context, v T) (ok bool, err error)

// Set is an ordered set of integers of type T.
type Set[T constraints.Integer] interface {
	// Name returns the name of the set.
	Name() string

	// Has returns true if v is a member of the set.
	Has(ctx context.Context, v T) (bool, error)

	// Add ensures v is a member of the set.
	Add(ctx context.Context, v T) error

	// Remove ensures v is not a member of the set. It is not an error to
	// remove a value that is not a member.
	Remove(ctx context.Context, v T) error

	// Range invokes fn for each member of the set in ascending order.
	//
	// The members are those of the set at some point between the call to
	// Range and the first call to fn. fn may modify the set.
	Range(ctx context.Context, fn RangeFunc[T]) error

	// Compact requests that storage occupied by removed values is reclaimed.
	//
	// It does not wait for the compaction to complete. Operations performed
	// while the compaction is in progress are delayed until it completes, but
	// otherwise behave exactly as they would have without the compaction.
	Compact(ctx context.Context) error

	// Close closes the set.
	Close() error
}
