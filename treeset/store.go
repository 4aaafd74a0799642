package treeset

import (
	"context"
	"errors"
	"sync"

	"github.com/dogmatiq/treeset/actor"
	"github.com/dogmatiq/treeset/internal/errorx"
	"github.com/dogmatiq/treeset/internal/telemetry"
	"github.com/dogmatiq/treeset/set"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/exp/constraints"
)

// Store is an implementation of [set.Store] that represents each set as a
// tree of actors, with one actor per element.
//
// The zero value is ready to use. Sets with the same name share the same tree
// for the lifetime of the store.
type Store[E constraints.Integer] struct {
	// TracerProvider, MeterProvider and LoggerProvider are used to instrument
	// the trees. Any that are nil are replaced with no-op implementations.
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	LoggerProvider log.LoggerProvider

	system actor.System

	m      sync.Mutex
	closed bool
	done   chan struct{}
	trees  map[string]actor.Ref
}

// errStoreClosed is returned by operations on a set whose store has been
// closed.
var errStoreClosed = errors.New("store is closed")

// Open returns the set with the given name.
func (s *Store[E]) Open(ctx context.Context, name string) (set.Set[E], error) {
	coord, done, err := s.coordinator(name)
	if err != nil {
		return nil, err
	}

	return newSet[E](&s.system, name, coord, done), ctx.Err()
}

// Inspect returns a snapshot of the tree that represents the set with the
// given name.
//
// The snapshot is taken between operations; if a compaction is in progress it
// reflects the compacted tree.
func (s *Store[E]) Inspect(ctx context.Context, name string) (_ *Node[E], err error) {
	defer errorx.Wrap(&err, "unable to inspect the %q set", name)

	coord, done, err := s.coordinator(name)
	if err != nil {
		return nil, err
	}

	in := newInspection[E]()
	coord.Tell(in, actor.Nobody)

	return in.wait(ctx, done)
}

// Close stops every tree in the store.
//
// Any operations that are in progress on sets opened from the store fail with
// an error, as do any subsequent operations.
func (s *Store[E]) Close() error {
	s.m.Lock()
	if s.closed {
		s.m.Unlock()
		return errors.New("store is already closed")
	}
	s.closed = true
	s.trees = nil
	if s.done == nil {
		s.done = make(chan struct{})
	}
	close(s.done)
	s.m.Unlock()

	s.system.Shutdown()

	return nil
}

// coordinator returns the address of the coordinator for the named set,
// starting it if necessary, along with a channel that is closed when the store
// is closed.
func (s *Store[E]) coordinator(name string) (actor.Ref, <-chan struct{}, error) {
	s.m.Lock()
	defer s.m.Unlock()

	if s.closed {
		return actor.Nobody, nil, errStoreClosed
	}

	if s.done == nil {
		s.done = make(chan struct{})
	}

	if coord, ok := s.trees[name]; ok {
		return coord, s.done, nil
	}

	p := telemetry.Provider{
		TracerProvider: s.TracerProvider,
		MeterProvider:  s.MeterProvider,
		LoggerProvider: s.LoggerProvider,
	}

	r := p.Recorder(
		"github.com/dogmatiq/treeset/treeset",
		telemetry.String("set.name", name),
	)

	coord := s.system.Spawn(newCoordinator[E](newInstruments(r)))

	if s.trees == nil {
		s.trees = map[string]actor.Ref{}
	}
	s.trees[name] = coord

	return coord, s.done, nil
}
