package treeset

import (
	"testing"

	"github.com/dogmatiq/treeset/actor"
	"github.com/google/go-cmp/cmp"
)

func TestCoordinator(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) (*actor.System, actor.Ref, *probe) {
		sys := &actor.System{}
		t.Cleanup(sys.Shutdown)

		coord := sys.Spawn(newCoordinator[int64](testInstruments()))
		return sys, coord, newProbe(t, sys)
	}

	inspect := func(t *testing.T, coord actor.Ref) *Node[int64] {
		t.Helper()

		in := newInspection[int64]()
		coord.Tell(in, actor.Nobody)

		n, err := in.wait(t.Context(), nil)
		if err != nil {
			t.Fatal(err)
		}

		return n
	}

	t.Run("it drops removed elements when compacting", func(t *testing.T) {
		t.Parallel()

		_, coord, p := setup(t)

		steps := []struct {
			Kind Kind
			Want any
		}{
			{Insert, OperationFinished{ID: 1}},
			{Contains, ContainsResult{ID: 2, Found: true}},
			{Remove, OperationFinished{ID: 3}},
			{Contains, ContainsResult{ID: 4, Found: false}},
		}

		for i, s := range steps {
			if diff := cmp.Diff(s.Want, p.do(coord, s.Kind, int64(i+1), 5)); diff != "" {
				t.Fatal(diff)
			}
		}

		if n := inspect(t, coord).Len(); n != 2 {
			t.Fatalf("unexpected number of workers before compaction: got %d, want 2", n)
		}

		coord.Tell(GC{}, actor.Nobody)

		if got := p.do(coord, Contains, 5, 5); got != (ContainsResult{ID: 5, Found: false}) {
			t.Fatalf("unexpected reply: %#v", got)
		}

		if n := inspect(t, coord).Len(); n != 1 {
			t.Fatalf("unexpected number of workers after compaction: got %d, want 1", n)
		}
	})

	t.Run("it stops the workers of the old tree", func(t *testing.T) {
		t.Parallel()

		sys, coord, p := setup(t)

		for i := range int64(20) {
			p.do(coord, Insert, i+1, i)
		}
		for i := int64(0); i < 20; i += 2 {
			p.do(coord, Remove, i+1, i)
		}

		// coordinator + sentinel + 20 elements + probe
		if n := sys.Len(); n != 23 {
			t.Fatalf("unexpected number of actors: got %d, want 23", n)
		}

		coord.Tell(GC{}, actor.Nobody)
		p.do(coord, Contains, 100, 0)

		// coordinator + sentinel + 10 elements + probe
		if n := sys.Len(); n != 13 {
			t.Fatalf("unexpected number of actors: got %d, want 13", n)
		}
	})

	t.Run("it replays queued operations in order", func(t *testing.T) {
		t.Parallel()

		_, coord, p := setup(t)

		for i := range int64(50) {
			p.do(coord, Insert, i+1, i)
		}

		coord.Tell(GC{}, actor.Nobody)

		ops := []Operation[int64]{
			{Kind: Remove, ID: 101, Elem: 7},
			{Kind: Contains, ID: 102, Elem: 7},
			{Kind: Insert, ID: 103, Elem: 7},
			{Kind: Contains, ID: 104, Elem: 7},
			{Kind: Contains, ID: 105, Elem: 1000},
		}

		for _, op := range ops {
			op.Requester = p.ref
			coord.Tell(op, actor.Nobody)
		}

		got := map[int64]any{}
		for range ops {
			env := p.receive()
			switch m := env.Message.(type) {
			case ContainsResult:
				got[m.ID] = m
			case OperationFinished:
				got[m.ID] = m
			}
		}

		want := map[int64]any{
			101: OperationFinished{ID: 101},
			102: ContainsResult{ID: 102, Found: false},
			103: OperationFinished{ID: 103},
			104: ContainsResult{ID: 104, Found: true},
			105: ContainsResult{ID: 105, Found: false},
		}

		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("it ignores compaction requests while compacting", func(t *testing.T) {
		t.Parallel()

		_, coord, p := setup(t)

		for i := range int64(30) {
			p.do(coord, Insert, i+1, i)
		}

		coord.Tell(GC{}, actor.Nobody)
		coord.Tell(GC{}, actor.Nobody)
		coord.Tell(GC{}, actor.Nobody)

		snapshot := inspect(t, coord)

		want := make([]int64, 30)
		for i := range want {
			want[i] = int64(i)
		}

		if diff := cmp.Diff(want, snapshot.Members()); diff != "" {
			t.Fatal(diff)
		}

		if n := snapshot.Len(); n != 31 {
			t.Fatalf("unexpected number of workers: got %d, want 31", n)
		}
	})

	t.Run("it ignores CopyFinished from actors other than the root", func(t *testing.T) {
		t.Parallel()

		_, coord, p := setup(t)

		p.do(coord, Insert, 1, 5)
		coord.Tell(CopyFinished{}, p.ref)

		if got := p.do(coord, Contains, 2, 5); got != (ContainsResult{ID: 2, Found: true}) {
			t.Fatalf("unexpected reply: %#v", got)
		}

		coord.Tell(GC{}, actor.Nobody)
		coord.Tell(CopyFinished{}, p.ref)

		if got := p.do(coord, Contains, 3, 5); got != (ContainsResult{ID: 3, Found: true}) {
			t.Fatalf("unexpected reply: %#v", got)
		}
	})
}
