package treeset

import (
	"context"
	"time"

	"github.com/dogmatiq/treeset/actor"
	"github.com/dogmatiq/treeset/internal/telemetry"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/exp/constraints"
)

// coordinator is the actor that fronts a tree of workers.
//
// Operations are forwarded to the root worker, except while the tree is being
// compacted, in which case they are queued until the compaction completes.
type coordinator[E constraints.Integer] struct {
	tree *instruments
	root actor.Ref

	// next is the root of the tree being built by the current compaction. It
	// is [actor.Nobody] when no compaction is in progress.
	next actor.Ref

	// pending is the queue of messages received during a compaction, in
	// arrival order.
	pending []any

	compaction struct {
		ctx   context.Context
		span  trace.Span
		began time.Time
	}
}

// newCoordinator returns a handler for a coordinator actor. The root worker
// is spawned when the coordinator handles its first message.
func newCoordinator[E constraints.Integer](tree *instruments) *coordinator[E] {
	return &coordinator[E]{tree: tree}
}

func (c *coordinator[E]) Receive(ctx *actor.Context, msg any) {
	if c.root.IsNobody() {
		c.root = c.spawnRoot(ctx)
	}

	switch m := msg.(type) {
	case Operation[E]:
		c.tree.Operations(
			context.Background(),
			1,
			telemetry.Stringer("operation.kind", m.Kind),
		)
		c.submit(ctx, m)
	case *inspection[E]:
		c.submit(ctx, m)
	case GC:
		c.beginCompaction(ctx)
	case CopyFinished:
		if !c.next.IsNobody() && ctx.Sender() == c.root {
			c.endCompaction(ctx)
		}
	}
}

func (c *coordinator[E]) spawnRoot(ctx *actor.Context) actor.Ref {
	r := ctx.Spawn(newSentinel[E](c.tree))
	c.tree.Workers(context.Background(), 1)
	return r
}

func (c *coordinator[E]) submit(ctx *actor.Context, msg any) {
	if c.next.IsNobody() {
		c.root.Tell(msg, ctx.Self())
		return
	}

	c.pending = append(c.pending, msg)
	c.tree.QueuedOperations(context.Background(), 1)
}

func (c *coordinator[E]) beginCompaction(ctx *actor.Context) {
	if !c.next.IsNobody() {
		c.tree.Telemetry.Info(
			c.compaction.ctx,
			"treeset.compaction.ignored",
			"compaction already in progress",
		)
		return
	}

	c.compaction.ctx, c.compaction.span = c.tree.Telemetry.StartSpan(
		context.Background(),
		"treeset.compact",
	)
	c.compaction.began = time.Now()

	c.next = c.spawnRoot(ctx)
	c.root.Tell(CopyTo{Target: c.next}, ctx.Self())

	c.tree.Telemetry.Info(
		c.compaction.ctx,
		"treeset.compaction.begin",
		"began copying live elements into a new tree",
	)
}

func (c *coordinator[E]) endCompaction(ctx *actor.Context) {
	stopped := ctx.Stop(c.root)
	c.tree.Workers(c.compaction.ctx, -int64(stopped))

	c.root = c.next
	c.next = actor.Nobody

	pending := c.pending
	c.pending = nil

	for _, msg := range pending {
		c.submit(ctx, msg)
	}

	elapsed := time.Since(c.compaction.began)
	c.tree.Compactions(c.compaction.ctx, 1)
	c.tree.CompactionDuration(c.compaction.ctx, elapsed.Seconds())
	c.tree.Telemetry.Info(
		c.compaction.ctx,
		"treeset.compaction.end",
		"replaced the tree with its compacted copy",
		telemetry.Int("workers_discarded", stopped),
		telemetry.Int("operations_replayed", len(pending)),
	)

	c.compaction.span.End()
	c.compaction.ctx, c.compaction.span = nil, nil
}
