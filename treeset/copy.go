package treeset

import (
	"github.com/dogmatiq/treeset/actor"
)

// copyState tracks the obligations a worker must discharge before it can
// report that its subtree has been copied.
type copyState struct {
	// requester is the sender of the [CopyTo] message, which receives the
	// [CopyFinished] reply.
	requester actor.Ref

	// expected is the set of children that have not yet sent [CopyFinished].
	expected map[actor.Ref]struct{}

	// insertConfirmed is true once the target tree has acknowledged the
	// re-insertion of the worker's own element. It starts true for tombstoned
	// workers, which do not re-insert anything.
	insertConfirmed bool
}

func (s *copyState) done() bool {
	return s.insertConfirmed && len(s.expected) == 0
}

// beginCopy starts copying the worker's subtree into m.Target.
func (w *worker[E]) beginCopy(ctx *actor.Context, m CopyTo) {
	if w.tombstoned && !w.hasChildren() {
		ctx.Sender().Tell(CopyFinished{}, ctx.Self())
		return
	}

	if !w.tombstoned {
		m.Target.Tell(
			Operation[E]{
				Kind:      Insert,
				Requester: ctx.Self(),
				ID:        copyInsertID,
				Elem:      w.elem,
			},
			ctx.Self(),
		)
	}

	state := &copyState{
		requester:       ctx.Sender(),
		expected:        map[actor.Ref]struct{}{},
		insertConfirmed: w.tombstoned,
	}

	for _, c := range w.children {
		if !c.IsNobody() {
			c.Tell(m, ctx.Self())
			state.expected[c] = struct{}{}
		}
	}

	w.copying = state
}

func (w *worker[E]) receiveWhileCopying(ctx *actor.Context, msg any) {
	switch msg.(type) {
	case OperationFinished:
		w.copying.insertConfirmed = true
	case CopyFinished:
		delete(w.copying.expected, ctx.Sender())
	default:
		w.stash = append(w.stash, actor.Envelope{Sender: ctx.Sender(), Message: msg})
		return
	}

	if !w.copying.done() {
		return
	}

	w.copying.requester.Tell(CopyFinished{}, ctx.Self())
	w.copying = nil

	ctx.Unstash(w.stash)
	w.stash = nil
}
