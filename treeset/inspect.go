package treeset

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dogmatiq/treeset/actor"
	"golang.org/x/exp/constraints"
)

// Node is a point-in-time snapshot of a worker and its subtree.
type Node[E constraints.Integer] struct {
	// Elem is the element owned by the worker. It is meaningless when
	// Sentinel is true.
	Elem       E
	Tombstoned bool
	Sentinel   bool

	Left, Right *Node[E]
}

// Len returns the number of workers in the subtree rooted at n.
func (n *Node[E]) Len() int {
	if n == nil {
		return 0
	}
	return 1 + n.Left.Len() + n.Right.Len()
}

// Members returns the live elements in the subtree rooted at n, in ascending
// order.
func (n *Node[E]) Members() []E {
	var members []E
	n.walk(func(n *Node[E]) {
		if !n.Tombstoned {
			members = append(members, n.Elem)
		}
	})
	return members
}

// walk calls fn for each node in the subtree, in order.
func (n *Node[E]) walk(fn func(*Node[E])) {
	if n == nil {
		return
	}
	n.Left.walk(fn)
	fn(n)
	n.Right.walk(fn)
}

// inspection collects snapshots from every worker in a tree.
//
// It is the only value shared between workers. It is safe for concurrent use.
// If the tree is stopped before every worker has recorded its state, the
// inspection never completes and is garbage collected along with the
// discarded messages.
type inspection[E constraints.Integer] struct {
	pending atomic.Int64
	done    chan struct{}

	m       sync.Mutex
	root    actor.Ref
	records map[actor.Ref]record[E]
}

// record is a single worker's contribution to an [inspection].
type record[E constraints.Integer] struct {
	Elem        E
	Tombstoned  bool
	Sentinel    bool
	Left, Right actor.Ref
}

func newInspection[E constraints.Integer]() *inspection[E] {
	in := &inspection[E]{
		done:    make(chan struct{}),
		records: map[actor.Ref]record[E]{},
	}
	in.pending.Store(1)
	return in
}

// release marks one worker's contribution as recorded.
func (in *inspection[E]) release() {
	if in.pending.Add(-1) == 0 {
		close(in.done)
	}
}

// inspect records the worker's state and forwards the inspection to its
// children.
func (w *worker[E]) inspect(ctx *actor.Context, in *inspection[E]) {
	for _, c := range w.children {
		if !c.IsNobody() {
			in.pending.Add(1)
			c.Tell(in, ctx.Self())
		}
	}

	in.m.Lock()
	if w.sentinel {
		in.root = ctx.Self()
	}
	in.records[ctx.Self()] = record[E]{
		Elem:       w.elem,
		Tombstoned: w.tombstoned,
		Sentinel:   w.sentinel,
		Left:       w.children[left],
		Right:      w.children[right],
	}
	in.m.Unlock()

	in.release()
}

// wait blocks until every worker has recorded its state, then returns the
// snapshot of the tree.
//
// It returns [errStoreClosed] if stopped is closed first. A nil stopped channel
// is never closed.
func (in *inspection[E]) wait(ctx context.Context, stopped <-chan struct{}) (*Node[E], error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-stopped:
		return nil, errStoreClosed
	case <-in.done:
	}

	in.m.Lock()
	defer in.m.Unlock()

	return in.build(in.root), nil
}

func (in *inspection[E]) build(r actor.Ref) *Node[E] {
	if r.IsNobody() {
		return nil
	}

	rec := in.records[r]

	return &Node[E]{
		Elem:       rec.Elem,
		Tombstoned: rec.Tombstoned,
		Sentinel:   rec.Sentinel,
		Left:       in.build(rec.Left),
		Right:      in.build(rec.Right),
	}
}
