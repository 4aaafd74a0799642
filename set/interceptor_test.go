package set_test

import (
	"errors"
	"testing"

	. "github.com/dogmatiq/treeset/set"
	"github.com/dogmatiq/treeset/treeset"
)

func TestWithInterceptor(t *testing.T) {
	t.Parallel()

	newStore := func(t *testing.T) *treeset.Store[int64] {
		s := &treeset.Store[int64]{}
		t.Cleanup(func() { s.Close() })
		return s
	}

	setup := func(t *testing.T) (Set[int64], *Interceptor[int64]) {
		var in Interceptor[int64]

		set, err := WithInterceptor(newStore(t), &in).Open(t.Context(), "<set>")
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { set.Close() })

		return set, &in
	}

	RunTests(
		t,
		WithInterceptor(
			newStore(t),
			&Interceptor[int64]{},
		),
	)

	t.Run("it returns the given store if no interceptor is provided", func(t *testing.T) {
		t.Parallel()

		underlying := newStore(t)
		store := WithInterceptor[int64](underlying, nil)

		if store != Store[int64](underlying) {
			t.Fatalf("unexpected store: got %T, want %T", store, underlying)
		}
	})

	t.Run("it invokes the BeforeOpen function", func(t *testing.T) {
		t.Parallel()

		var in Interceptor[int64]
		store := WithInterceptor(newStore(t), &in)

		want := errors.New("<error>")
		in.BeforeOpen(func(name string) error {
			if name != "<set>" {
				t.Errorf("unexpected set name: got %q, want %q", name, "<set>")
			}
			return want
		})

		_, got := store.Open(t.Context(), "<set>")
		if got != want {
			t.Fatalf("unexpected error: got %v, want %v", got, want)
		}
	})

	t.Run("it invokes the BeforeAdd function", func(t *testing.T) {
		t.Parallel()

		set, in := setup(t)

		want := errors.New("<error>")
		in.BeforeAdd(func(name string, v int64) error {
			return want
		})

		if err := set.Add(t.Context(), 5); err != want {
			t.Fatalf("unexpected error: got %v, want %v", err, want)
		}

		ok, err := set.Has(t.Context(), 5)
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Fatal("did not expect member to be added")
		}
	})

	t.Run("it invokes the AfterAdd function", func(t *testing.T) {
		t.Parallel()

		set, in := setup(t)

		want := errors.New("<error>")
		in.AfterAdd(func(name string, v int64) error {
			if v != 5 {
				t.Errorf("unexpected value: got %d, want 5", v)
			}
			return want
		})

		if err := set.Add(t.Context(), 5); err != want {
			t.Fatalf("unexpected error: got %v, want %v", err, want)
		}

		ok, err := set.Has(t.Context(), 5)
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Fatal("expected member to be added")
		}
	})

	t.Run("it invokes the BeforeRemove function", func(t *testing.T) {
		t.Parallel()

		set, in := setup(t)

		if err := set.Add(t.Context(), 5); err != nil {
			t.Fatal(err)
		}

		want := errors.New("<error>")
		in.BeforeRemove(func(name string, v int64) error {
			return want
		})

		if err := set.Remove(t.Context(), 5); err != want {
			t.Fatalf("unexpected error: got %v, want %v", err, want)
		}

		ok, err := set.Has(t.Context(), 5)
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Fatal("did not expect member to be removed")
		}
	})

	t.Run("it invokes the AfterRemove function", func(t *testing.T) {
		t.Parallel()

		set, in := setup(t)

		if err := set.Add(t.Context(), 5); err != nil {
			t.Fatal(err)
		}

		want := errors.New("<error>")
		in.AfterRemove(func(name string, v int64) error {
			return want
		})

		if err := set.Remove(t.Context(), 5); err != want {
			t.Fatalf("unexpected error: got %v, want %v", err, want)
		}

		ok, err := set.Has(t.Context(), 5)
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Fatal("expected member to be removed")
		}
	})

	t.Run("it invokes the BeforeCompact function", func(t *testing.T) {
		t.Parallel()

		set, in := setup(t)

		want := errors.New("<error>")
		in.BeforeCompact(func(name string) error {
			return want
		})

		if err := set.Compact(t.Context()); err != want {
			t.Fatalf("unexpected error: got %v, want %v", err, want)
		}
	})

	t.Run("it stops invoking a function once it is cleared", func(t *testing.T) {
		t.Parallel()

		set, in := setup(t)

		in.BeforeAdd(func(string, int64) error {
			return errors.New("<error>")
		})
		in.BeforeAdd(nil)

		if err := set.Add(t.Context(), 5); err != nil {
			t.Fatal(err)
		}
	})
}
