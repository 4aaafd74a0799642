package set

import (
	"context"

	"golang.org/x/exp/constraints"
)

// WithNamePrefix returns a [Store] that adds the given prefix to all set
// names.
func WithNamePrefix[T constraints.Integer](store Store[T], prefix string) Store[T] {
	return prefixedStore[T]{store, prefix}
}

// prefixedStore is a [Store] that adds a prefix to all set names.
type prefixedStore[T constraints.Integer] struct {
	Store[T]
	prefix string
}

func (s prefixedStore[T]) Open(ctx context.Context, name string) (Set[T], error) {
	set, err := s.Store.Open(ctx, s.prefix+name)
	if err != nil {
		return nil, err
	}

	return prefixedSet[T]{set, name}, nil
}

// prefixedSet is a [Set] opened by a [prefixedStore].
type prefixedSet[T constraints.Integer] struct {
	Set[T]
	name string
}

func (s prefixedSet[T]) Name() string {
	return s.name
}
