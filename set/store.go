package set

import (
	"context"

	"golang.org/x/exp/constraints"
)

// Store is a collection of sets of integers of type T.
type Store[T constraints.Integer] interface {
	// Open returns the set with the given name.
	Open(ctx context.Context, name string) (Set[T], error)
}
