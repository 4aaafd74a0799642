package treeset

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dogmatiq/treeset/actor"
)

func TestSet(t *testing.T) {
	t.Parallel()

	// setup returns a set whose coordinator never replies, such that every
	// operation remains in flight until it is abandoned.
	setup := func(t *testing.T) (*setimpl[int64], *probe, chan struct{}) {
		sys := &actor.System{}
		t.Cleanup(sys.Shutdown)

		coord := newProbe(t, sys)
		stopped := make(chan struct{})

		return newSet[int64](sys, "<set>", coord.ref, stopped), coord, stopped
	}

	// inFlight starts fn in a goroutine and waits for its operation to reach
	// the coordinator.
	inFlight := func(coord *probe, fn func() error) <-chan error {
		result := make(chan error, 1)
		go func() {
			result <- fn()
		}()

		coord.receive()

		return result
	}

	expectError := func(t *testing.T, result <-chan error, want error) {
		t.Helper()

		select {
		case err := <-result:
			if !errors.Is(err, want) {
				t.Fatalf("unexpected error: got %v, want %v", err, want)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for the operation to return")
		}
	}

	t.Run("it fails in-flight operations when the set is closed", func(t *testing.T) {
		t.Parallel()

		s, coord, _ := setup(t)

		result := inFlight(coord, func() error {
			_, err := s.Has(context.Background(), 1)
			return err
		})

		if err := s.Close(); err != nil {
			t.Fatal(err)
		}

		expectError(t, result, errSetClosed)
	})

	t.Run("it fails in-flight operations when the store is closed", func(t *testing.T) {
		t.Parallel()

		s, coord, stopped := setup(t)
		defer s.Close()

		result := inFlight(coord, func() error {
			return s.Add(context.Background(), 1)
		})

		close(stopped)

		expectError(t, result, errStoreClosed)
	})

	t.Run("it fails subsequent operations when the store is closed", func(t *testing.T) {
		t.Parallel()

		s, _, stopped := setup(t)
		defer s.Close()

		close(stopped)

		if _, err := s.Has(context.Background(), 1); !errors.Is(err, errStoreClosed) {
			t.Fatalf("unexpected error: got %v, want %v", err, errStoreClosed)
		}

		if err := s.Remove(context.Background(), 1); !errors.Is(err, errStoreClosed) {
			t.Fatalf("unexpected error: got %v, want %v", err, errStoreClosed)
		}

		if err := s.Compact(context.Background()); !errors.Is(err, errStoreClosed) {
			t.Fatalf("unexpected error: got %v, want %v", err, errStoreClosed)
		}

		if err := s.Range(
			context.Background(),
			func(context.Context, int64) (bool, error) { return true, nil },
		); !errors.Is(err, errStoreClosed) {
			t.Fatalf("unexpected error: got %v, want %v", err, errStoreClosed)
		}
	})
}
