package set

import (
	"context"
	"sync/atomic"

	"golang.org/x/exp/constraints"
)

// Interceptor defines functions that are invoked around set operations.
type Interceptor[T constraints.Integer] struct {
	beforeOpen    atomic.Pointer[func(string) error]
	beforeAdd     atomic.Pointer[func(string, T) error]
	afterAdd      atomic.Pointer[func(string, T) error]
	beforeRemove  atomic.Pointer[func(string, T) error]
	afterRemove   atomic.Pointer[func(string, T) error]
	beforeCompact atomic.Pointer[func(string) error]
}

// BeforeOpen sets the function that is invoked before a [Set] is opened.
func (i *Interceptor[T]) BeforeOpen(fn func(name string) error) {
	storeSetFn(&i.beforeOpen, fn)
}

// BeforeAdd sets the function that is invoked before a member is added to the
// [Set].
func (i *Interceptor[T]) BeforeAdd(fn func(set string, v T) error) {
	storeMemberFn(&i.beforeAdd, fn)
}

// AfterAdd sets the function that is invoked after a member is added to the
// [Set].
func (i *Interceptor[T]) AfterAdd(fn func(set string, v T) error) {
	storeMemberFn(&i.afterAdd, fn)
}

// BeforeRemove sets the function that is invoked before a member is removed
// from the [Set].
func (i *Interceptor[T]) BeforeRemove(fn func(set string, v T) error) {
	storeMemberFn(&i.beforeRemove, fn)
}

// AfterRemove sets the function that is invoked after a member is removed from
// the [Set].
func (i *Interceptor[T]) AfterRemove(fn func(set string, v T) error) {
	storeMemberFn(&i.afterRemove, fn)
}

// BeforeCompact sets the function that is invoked before compaction of a
// [Set] is requested.
func (i *Interceptor[T]) BeforeCompact(fn func(set string) error) {
	storeSetFn(&i.beforeCompact, fn)
}

// WithInterceptor returns a [Store] that invokes the functions defined
// by the given [Interceptor] when performing operations on s.
func WithInterceptor[T constraints.Integer](s Store[T], in *Interceptor[T]) Store[T] {
	if in == nil {
		return s
	}

	return &interceptedStore[T]{
		Next:        s,
		Interceptor: in,
	}
}

func storeSetFn(dst *atomic.Pointer[func(string) error], fn func(string) error) {
	if fn == nil {
		dst.Store(nil)
		return
	}

	dst.Store(&fn)
}

func storeMemberFn[T any](dst *atomic.Pointer[func(string, T) error], fn func(string, T) error) {
	if fn == nil {
		dst.Store(nil)
		return
	}

	dst.Store(&fn)
}

// load returns the function stored in p, or nil if there is none. The zero
// value of F is returned if i is nil.
func load[T constraints.Integer, F any](i *Interceptor[T], p func(*Interceptor[T]) *atomic.Pointer[F]) (fn F, ok bool) {
	if i == nil {
		return fn, false
	}

	if ptr := p(i).Load(); ptr != nil {
		return *ptr, true
	}

	return fn, false
}

type interceptedStore[T constraints.Integer] struct {
	Next        Store[T]
	Interceptor *Interceptor[T]
}

func (s *interceptedStore[T]) Open(ctx context.Context, name string) (Set[T], error) {
	if fn, ok := load(s.Interceptor, beforeOpen[T]); ok {
		if err := fn(name); err != nil {
			return nil, err
		}
	}

	next, err := s.Next.Open(ctx, name)
	if err != nil {
		return nil, err
	}

	return &interceptedSet[T]{
		Next:        next,
		set:         next.Name(),
		Interceptor: s.Interceptor,
	}, nil
}

type interceptedSet[T constraints.Integer] struct {
	Next        Set[T]
	set         string
	Interceptor *Interceptor[T]
}

func (s *interceptedSet[T]) Name() string {
	return s.Next.Name()
}

func (s *interceptedSet[T]) Has(ctx context.Context, v T) (bool, error) {
	return s.Next.Has(ctx, v)
}

func (s *interceptedSet[T]) Add(ctx context.Context, v T) error {
	return s.mutate(ctx, v, beforeAdd[T], s.Next.Add, afterAdd[T])
}

func (s *interceptedSet[T]) Remove(ctx context.Context, v T) error {
	return s.mutate(ctx, v, beforeRemove[T], s.Next.Remove, afterRemove[T])
}

// mutate calls op, surrounded by the interceptor functions selected by before
// and after.
func (s *interceptedSet[T]) mutate(
	ctx context.Context,
	v T,
	before func(*Interceptor[T]) *atomic.Pointer[func(string, T) error],
	op func(context.Context, T) error,
	after func(*Interceptor[T]) *atomic.Pointer[func(string, T) error],
) error {
	if fn, ok := load(s.Interceptor, before); ok {
		if err := fn(s.set, v); err != nil {
			return err
		}
	}

	if err := op(ctx, v); err != nil {
		return err
	}

	if fn, ok := load(s.Interceptor, after); ok {
		if err := fn(s.set, v); err != nil {
			return err
		}
	}

	return nil
}

func (s *interceptedSet[T]) Range(ctx context.Context, fn RangeFunc[T]) error {
	return s.Next.Range(ctx, fn)
}

func (s *interceptedSet[T]) Compact(ctx context.Context) error {
	if fn, ok := load(s.Interceptor, beforeCompact[T]); ok {
		if err := fn(s.set); err != nil {
			return err
		}
	}

	return s.Next.Compact(ctx)
}

func (s *interceptedSet[T]) Close() error {
	return s.Next.Close()
}

func beforeOpen[T constraints.Integer](i *Interceptor[T]) *atomic.Pointer[func(string) error] {
	return &i.beforeOpen
}

func beforeCompact[T constraints.Integer](i *Interceptor[T]) *atomic.Pointer[func(string) error] {
	return &i.beforeCompact
}

func beforeAdd[T constraints.Integer](i *Interceptor[T]) *atomic.Pointer[func(string, T) error] {
	return &i.beforeAdd
}

func afterAdd[T constraints.Integer](i *Interceptor[T]) *atomic.Pointer[func(string, T) error] {
	return &i.afterAdd
}

func beforeRemove[T constraints.Integer](i *Interceptor[T]) *atomic.Pointer[func(string, T) error] {
	return &i.beforeRemove
}

func afterRemove[T constraints.Integer](i *Interceptor[T]) *atomic.Pointer[func(string, T) error] {
	return &i.afterRemove
}
