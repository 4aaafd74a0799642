package treeset

import (
	"context"

	"github.com/dogmatiq/treeset/actor"
	"golang.org/x/exp/constraints"
)

// side identifies one of a worker's children.
type side int

const (
	left side = iota
	right
)

// worker is an actor that owns a single element of the tree, along with up to
// two child workers.
//
// Every element in the left subtree is less than elem, and every element in
// the right subtree is greater than elem.
type worker[E constraints.Integer] struct {
	tree *instruments

	// elem is the element owned by the worker. It is never compared when
	// sentinel is true.
	elem E

	// sentinel is true if this worker is the permanent root of a tree. A
	// sentinel is always tombstoned and routes every element to its right
	// child.
	sentinel bool

	tombstoned bool
	children   [2]actor.Ref

	// copying is non-nil while the worker is copying its subtree into another
	// tree.
	copying *copyState

	// stash holds messages received while copying, to be handled once the
	// copy is complete.
	stash []actor.Envelope
}

// newWorker returns a worker that owns e.
func newWorker[E constraints.Integer](tree *instruments, e E) *worker[E] {
	return &worker[E]{
		tree: tree,
		elem: e,
	}
}

// newSentinel returns the root worker of an empty tree.
func newSentinel[E constraints.Integer](tree *instruments) *worker[E] {
	return &worker[E]{
		tree:       tree,
		sentinel:   true,
		tombstoned: true,
	}
}

func (w *worker[E]) Receive(ctx *actor.Context, msg any) {
	if w.copying != nil {
		w.receiveWhileCopying(ctx, msg)
		return
	}

	switch m := msg.(type) {
	case Operation[E]:
		w.handleOperation(ctx, m)
	case CopyTo:
		w.beginCopy(ctx, m)
	case *inspection[E]:
		w.inspect(ctx, m)
	}
}

func (w *worker[E]) handleOperation(ctx *actor.Context, op Operation[E]) {
	if !w.sentinel && op.Elem == w.elem {
		switch op.Kind {
		case Insert:
			w.tombstoned = false
			finish(ctx, op)
		case Contains:
			reply(ctx, op, !w.tombstoned)
		case Remove:
			w.tombstoned = true
			finish(ctx, op)
		}
		return
	}

	s := w.sideOf(op.Elem)

	if child := w.children[s]; !child.IsNobody() {
		ctx.Forward(child, op)
		return
	}

	switch op.Kind {
	case Insert:
		w.children[s] = ctx.Spawn(newWorker(w.tree, op.Elem))
		w.tree.Workers(context.Background(), 1)
		finish(ctx, op)
	case Contains:
		reply(ctx, op, false)
	case Remove:
		finish(ctx, op)
	}
}

// sideOf returns the side of the worker on which e belongs.
func (w *worker[E]) sideOf(e E) side {
	if w.sentinel || e > w.elem {
		return right
	}
	return left
}

// hasChildren returns true if the worker has at least one child.
func (w *worker[E]) hasChildren() bool {
	for _, c := range w.children {
		if !c.IsNobody() {
			return true
		}
	}
	return false
}

// finish sends an [OperationFinished] reply for op.
func finish[E constraints.Integer](ctx *actor.Context, op Operation[E]) {
	op.Requester.Tell(
		OperationFinished{ID: op.ID},
		ctx.Self(),
	)
}

// reply sends a [ContainsResult] reply for op.
func reply[E constraints.Integer](ctx *actor.Context, op Operation[E], found bool) {
	op.Requester.Tell(
		ContainsResult{ID: op.ID, Found: found},
		ctx.Self(),
	)
}
