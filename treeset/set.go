package treeset

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/dogmatiq/treeset/actor"
	"github.com/dogmatiq/treeset/internal/errorx"
	"github.com/dogmatiq/treeset/set"
	"golang.org/x/exp/constraints"
)

// errSetClosed is returned by operations that are still waiting for a reply
// when their set is closed.
var errSetClosed = errors.New("set is closed")

// setimpl is an implementation of [set.Set] that submits operations to a
// tree's coordinator.
type setimpl[E constraints.Integer] struct {
	name  string
	sys   *actor.System
	coord actor.Ref

	// inbox is the actor that receives the replies to this handle's
	// operations.
	inbox actor.Ref

	// stopped is closed when the store that opened the set is closed.
	stopped <-chan struct{}

	// closed is closed when the set itself is closed.
	closed   chan struct{}
	isClosed atomic.Bool

	// ids is the source of operation IDs. The first ID allocated is 1, as 0
	// is reserved for the copy protocol.
	ids atomic.Int64

	// calls maps the ID of each in-flight operation to the channel that
	// receives its reply.
	calls sync.Map // map[int64]chan any
}

func newSet[E constraints.Integer](
	sys *actor.System,
	name string,
	coord actor.Ref,
	stopped <-chan struct{},
) *setimpl[E] {
	s := &setimpl[E]{
		name:    name,
		sys:     sys,
		coord:   coord,
		stopped: stopped,
		closed:  make(chan struct{}),
	}

	s.inbox = sys.Spawn(actor.HandlerFunc(s.receiveReply))

	return s
}

func (s *setimpl[E]) Name() string {
	return s.name
}

func (s *setimpl[E]) Has(ctx context.Context, v E) (ok bool, err error) {
	defer errorx.Wrap(&err, "unable to query membership of %d in the %q set", v, s.name)

	res, err := s.call(ctx, Contains, v)
	if err != nil {
		return false, err
	}

	return res.(ContainsResult).Found, nil
}

func (s *setimpl[E]) Add(ctx context.Context, v E) (err error) {
	defer errorx.Wrap(&err, "unable to add %d to the %q set", v, s.name)

	_, err = s.call(ctx, Insert, v)
	return err
}

func (s *setimpl[E]) Remove(ctx context.Context, v E) (err error) {
	defer errorx.Wrap(&err, "unable to remove %d from the %q set", v, s.name)

	_, err = s.call(ctx, Remove, v)
	return err
}

func (s *setimpl[E]) Range(ctx context.Context, fn set.RangeFunc[E]) (err error) {
	defer errorx.Wrap(&err, "unable to range over the %q set", s.name)

	if s.isClosed.Load() {
		panic("set is closed")
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	in := newInspection[E]()
	s.coord.Tell(in, s.inbox)

	root, err := in.wait(ctx, s.stopped)
	if err != nil {
		return err
	}

	for _, v := range root.Members() {
		ok, err := fn(ctx, v)
		if !ok || err != nil {
			return err
		}
	}

	return nil
}

func (s *setimpl[E]) Compact(ctx context.Context) (err error) {
	defer errorx.Wrap(&err, "unable to compact the %q set", s.name)

	if s.isClosed.Load() {
		panic("set is closed")
	}

	select {
	case <-s.stopped:
		return errStoreClosed
	default:
	}

	s.coord.Tell(GC{}, s.inbox)

	return ctx.Err()
}

func (s *setimpl[E]) Close() error {
	if !s.isClosed.CompareAndSwap(false, true) {
		return errors.New("set is already closed")
	}

	s.sys.Stop(s.inbox)
	close(s.closed)

	return nil
}

// call submits an operation to the coordinator and blocks until its reply is
// received.
func (s *setimpl[E]) call(ctx context.Context, k Kind, v E) (any, error) {
	if s.isClosed.Load() {
		panic("set is closed")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := s.ids.Add(1)
	res := make(chan any, 1)
	s.calls.Store(id, res)
	defer s.calls.Delete(id)

	s.coord.Tell(
		Operation[E]{
			Kind:      k,
			Requester: s.inbox,
			ID:        id,
			Elem:      v,
		},
		s.inbox,
	)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.stopped:
		return nil, errStoreClosed
	case <-s.closed:
		return nil, errSetClosed
	case r := <-res:
		return r, nil
	}
}

// receiveReply is the handler for the inbox actor.
func (s *setimpl[E]) receiveReply(_ *actor.Context, msg any) {
	var id int64

	switch m := msg.(type) {
	case ContainsResult:
		id = m.ID
	case OperationFinished:
		id = m.ID
	default:
		return
	}

	if res, ok := s.calls.LoadAndDelete(id); ok {
		res.(chan any) <- msg
	}
}
