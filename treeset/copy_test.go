package treeset

import (
	"slices"
	"testing"
	"time"

	"github.com/dogmatiq/treeset/actor"
	"github.com/google/go-cmp/cmp"
)

func TestCopyProtocol(t *testing.T) {
	t.Parallel()

	// setup returns a tree containing elems, with removed tombstoned.
	setup := func(t *testing.T, elems, removed []int64) (actor.Ref, *probe) {
		sys := &actor.System{}
		t.Cleanup(sys.Shutdown)

		root := sys.Spawn(newSentinel[int64](testInstruments()))
		p := newProbe(t, sys)

		for i, e := range elems {
			p.do(root, Insert, int64(i+1), e)
		}
		for i, e := range removed {
			p.do(root, Remove, int64(i+1), e)
		}

		return root, p
	}

	// collect receives messages on target until the coordinator probe
	// receives CopyFinished, acknowledging each insert along the way. It
	// returns the inserted elements in the order they were received.
	collect := func(t *testing.T, target, coord *probe, root actor.Ref) []int64 {
		t.Helper()

		var inserted []int64

		for {
			select {
			case env := <-coord.ch:
				if env.Message != (CopyFinished{}) {
					t.Fatalf("unexpected message: %#v", env.Message)
				}
				if env.Sender != root {
					t.Fatalf("unexpected sender: got %s, want %s", env.Sender, root)
				}
				coord.expectNothing()
				return inserted

			case env := <-target.ch:
				op := env.Message.(Operation[int64])
				if op.Kind != Insert || op.ID != copyInsertID {
					t.Fatalf("unexpected operation: %#v", op)
				}

				inserted = append(inserted, op.Elem)
				op.Requester.Tell(OperationFinished{ID: op.ID}, target.ref)

			case <-time.After(5 * time.Second):
				t.Fatal("timed out waiting for the copy to finish")
			}
		}
	}

	t.Run("it copies only live elements", func(t *testing.T) {
		t.Parallel()

		root, p := setup(
			t,
			[]int64{50, 25, 75, 10, 30, 60, 90},
			[]int64{25, 90, 10},
		)

		sys := &actor.System{}
		t.Cleanup(sys.Shutdown)
		target := newProbe(t, sys)
		coord := newProbe(t, sys)

		root.Tell(CopyTo{Target: target.ref}, coord.ref)

		got := collect(t, target, coord, root)
		slices.Sort(got)

		if diff := cmp.Diff([]int64{30, 50, 60, 75}, got); diff != "" {
			t.Fatal(diff)
		}

		p.expectNothing()
	})

	t.Run("it completes immediately if the subtree is empty", func(t *testing.T) {
		t.Parallel()

		root, _ := setup(t, nil, nil)

		sys := &actor.System{}
		t.Cleanup(sys.Shutdown)
		target := newProbe(t, sys)
		coord := newProbe(t, sys)

		root.Tell(CopyTo{Target: target.ref}, coord.ref)

		if env := coord.receive(); env.Message != (CopyFinished{}) {
			t.Fatalf("unexpected message: %#v", env.Message)
		}

		target.expectNothing()
	})

	t.Run("it completes when every element has been removed", func(t *testing.T) {
		t.Parallel()

		root, _ := setup(t, []int64{2, 1, 3}, []int64{1, 2, 3})

		sys := &actor.System{}
		t.Cleanup(sys.Shutdown)
		target := newProbe(t, sys)
		coord := newProbe(t, sys)

		root.Tell(CopyTo{Target: target.ref}, coord.ref)

		if got := collect(t, target, coord, root); len(got) != 0 {
			t.Fatalf("unexpected inserts: %v", got)
		}
	})

	t.Run("it waits for its own insert to be acknowledged", func(t *testing.T) {
		t.Parallel()

		root, _ := setup(t, []int64{5}, nil)

		sys := &actor.System{}
		t.Cleanup(sys.Shutdown)
		target := newProbe(t, sys)
		coord := newProbe(t, sys)

		root.Tell(CopyTo{Target: target.ref}, coord.ref)

		op := target.receive().Message.(Operation[int64])
		coord.expectNothing()

		op.Requester.Tell(OperationFinished{ID: op.ID}, target.ref)

		if env := coord.receive(); env.Message != (CopyFinished{}) {
			t.Fatalf("unexpected message: %#v", env.Message)
		}
	})

	t.Run("it defers operations received while copying", func(t *testing.T) {
		t.Parallel()

		root, p := setup(t, []int64{5}, nil)

		sys := &actor.System{}
		t.Cleanup(sys.Shutdown)
		target := newProbe(t, sys)
		coord := newProbe(t, sys)

		root.Tell(CopyTo{Target: target.ref}, coord.ref)
		op := target.receive().Message.(Operation[int64])

		// The sentinel is waiting on its child, which is waiting on the
		// acknowledgement that is being withheld.
		root.Tell(
			Operation[int64]{Kind: Contains, Requester: p.ref, ID: 99, Elem: 5},
			p.ref,
		)
		p.expectNothing()

		op.Requester.Tell(OperationFinished{ID: op.ID}, target.ref)

		if env := coord.receive(); env.Message != (CopyFinished{}) {
			t.Fatalf("unexpected message: %#v", env.Message)
		}

		if env := p.receive(); env.Message != (ContainsResult{ID: 99, Found: true}) {
			t.Fatalf("unexpected message: %#v", env.Message)
		}
	})

	t.Run("it produces a tree with the same members", func(t *testing.T) {
		t.Parallel()

		elems := []int64{8, 4, 12, 2, 6, 10, 14, 1, 3, 5, 7, 9, 11, 13, 15}
		removed := []int64{4, 12, 1, 15, 8}

		root, p := setup(t, elems, removed)

		sys := &actor.System{}
		t.Cleanup(sys.Shutdown)
		target := sys.Spawn(newSentinel[int64](testInstruments()))
		coord := newProbe(t, sys)

		root.Tell(CopyTo{Target: target}, coord.ref)

		if env := coord.receive(); env.Message != (CopyFinished{}) {
			t.Fatalf("unexpected message: %#v", env.Message)
		}

		in := newInspection[int64]()
		target.Tell(in, actor.Nobody)

		snapshot, err := in.wait(t.Context(), nil)
		if err != nil {
			t.Fatal(err)
		}

		want := []int64{2, 3, 5, 6, 7, 9, 10, 11, 13, 14}
		if diff := cmp.Diff(want, snapshot.Members()); diff != "" {
			t.Fatal(diff)
		}

		if n := snapshot.Len(); n != len(want)+1 {
			t.Fatalf("unexpected number of workers: got %d, want %d", n, len(want)+1)
		}

		expectOrdered(t, snapshot.Right)
		p.expectNothing()
	})
}
