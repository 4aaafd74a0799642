package set

import (
	"context"

	"golang.org/x/exp/constraints"
)

// WithNameTransform returns a [Store] that uses x to transform the name of each
// set within s.
//
// [Set.Name] returns the untransformed name.
func WithNameTransform[T constraints.Integer](
	s Store[T],
	x func(string) string,
) Store[T] {
	return &nameTransformStore[T]{s, x}
}

type nameTransformStore[T constraints.Integer] struct {
	Store[T]
	transform func(string) string
}

func (s *nameTransformStore[T]) Open(ctx context.Context, name string) (Set[T], error) {
	set, err := s.Store.Open(ctx, s.transform(name))
	if err != nil {
		return nil, err
	}

	return &nameTransformSet[T]{set, name}, nil
}

type nameTransformSet[T constraints.Integer] struct {
	Set[T]
	name string
}

func (s *nameTransformSet[T]) Name() string {
	return s.name
}
