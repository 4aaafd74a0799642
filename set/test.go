package set

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"testing"

	"github.com/dogmatiq/treeset/internal/x/xtesting"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"pgregory.net/rapid"
)

// RunTests runs tests that confirm a [Store] implementation behaves correctly.
func RunTests(
	t *testing.T,
	store Store[int64],
) {
	setup := func(t *testing.T) Set[int64] {
		name := xtesting.SequentialName("set")

		set, err := store.Open(t.Context(), name)
		if err != nil {
			t.Fatal(err)
		}

		t.Cleanup(func() {
			if err := set.Close(); err != nil {
				t.Error(err)
			}
		})

		if set.Name() != name {
			t.Fatalf("unexpected set name: got %q, want %q", set.Name(), name)
		}

		return set
	}

	t.Run("Store", func(t *testing.T) {
		t.Parallel()

		t.Run("Open", func(t *testing.T) {
			t.Parallel()

			t.Run("allows sets to be opened multiple times", func(t *testing.T) {
				t.Parallel()

				name := xtesting.SequentialName("set")

				s1, err := store.Open(t.Context(), name)
				if err != nil {
					t.Fatal(err)
				}
				defer s1.Close()

				s2, err := store.Open(t.Context(), name)
				if err != nil {
					t.Fatal(err)
				}
				defer s2.Close()

				if err := s1.Add(t.Context(), 123); err != nil {
					t.Fatal(err)
				}

				expectMembership(t, s2, map[int64]bool{123: true})
			})

			t.Run("does not share membership between sets with different names", func(t *testing.T) {
				t.Parallel()

				s1 := setup(t)
				s2 := setup(t)

				if err := s1.Add(t.Context(), 123); err != nil {
					t.Fatal(err)
				}

				expectMembership(t, s2, map[int64]bool{123: false})
			})
		})
	})

	t.Run("Set", func(t *testing.T) {
		t.Parallel()

		t.Run("Has", func(t *testing.T) {
			t.Parallel()

			t.Run("it returns false if the set is empty", func(t *testing.T) {
				t.Parallel()

				set := setup(t)
				expectMembership(t, set, map[int64]bool{0: false, 1: false, -1: false})
			})

			t.Run("it returns true if the value is present", func(t *testing.T) {
				t.Parallel()

				set := setup(t)
				add(t, set, 5)
				expectMembership(t, set, map[int64]bool{5: true})
			})

			t.Run("it returns false if the value has been removed", func(t *testing.T) {
				t.Parallel()

				set := setup(t)
				add(t, set, 5)
				remove(t, set, 5)
				expectMembership(t, set, map[int64]bool{5: false})
			})

			t.Run("it returns false if the value is not present, but others are", func(t *testing.T) {
				t.Parallel()

				set := setup(t)
				add(t, set, 3, 1, 4, 1, 5)
				expectMembership(t, set, map[int64]bool{2: false, 0: false, 6: false})
			})

			t.Run("it supports zero and negative values", func(t *testing.T) {
				t.Parallel()

				set := setup(t)
				add(t, set, 0, -10, 10, -5)
				expectMembership(t, set, map[int64]bool{0: true, -10: true, 10: true, -5: true, -1: false})
			})
		})

		t.Run("Add", func(t *testing.T) {
			t.Parallel()

			t.Run("it does nothing if the value is already present", func(t *testing.T) {
				t.Parallel()

				set := setup(t)
				add(t, set, 3, 1, 4, 1, 5)
				expectMembership(t, set, map[int64]bool{1: true, 4: true, 2: false})
			})

			t.Run("it restores a value that has been removed", func(t *testing.T) {
				t.Parallel()

				set := setup(t)
				add(t, set, 5)
				remove(t, set, 5)
				add(t, set, 5)
				expectMembership(t, set, map[int64]bool{5: true})
			})

			t.Run("it can be called concurrently", func(t *testing.T) {
				t.Parallel()

				set := setup(t)

				var (
					g    sync.WaitGroup
					want = map[int64]bool{}
				)

				for i := range int64(50) {
					want[i] = true

					g.Add(1)
					go func() {
						defer g.Done()
						if err := set.Add(t.Context(), i); err != nil {
							t.Error(err)
						}
					}()
				}

				g.Wait()
				expectMembership(t, set, want)
			})
		})

		t.Run("Remove", func(t *testing.T) {
			t.Parallel()

			t.Run("it does nothing if the set is empty", func(t *testing.T) {
				t.Parallel()

				set := setup(t)
				remove(t, set, 5)
				expectMembership(t, set, map[int64]bool{5: false})
			})

			t.Run("it does nothing if the value is not present", func(t *testing.T) {
				t.Parallel()

				set := setup(t)
				add(t, set, 3, 7)
				remove(t, set, 5)
				expectMembership(t, set, map[int64]bool{3: true, 5: false, 7: true})
			})

			t.Run("it does nothing if the value has already been removed", func(t *testing.T) {
				t.Parallel()

				set := setup(t)
				add(t, set, 5)
				remove(t, set, 5)
				remove(t, set, 5)
				expectMembership(t, set, map[int64]bool{5: false})
			})

			t.Run("it does not affect the value's neighbours", func(t *testing.T) {
				t.Parallel()

				set := setup(t)
				add(t, set, 50, 25, 75, 10, 30, 60, 90)
				remove(t, set, 25)
				expectMembership(t, set, map[int64]bool{
					50: true, 25: false, 75: true,
					10: true, 30: true, 60: true, 90: true,
				})
			})
		})

		t.Run("Range", func(t *testing.T) {
			t.Parallel()

			t.Run("it does not invoke the function if the set is empty", func(t *testing.T) {
				t.Parallel()

				set := setup(t)
				expectMembers(t, set, nil)
			})

			t.Run("it visits members in ascending order", func(t *testing.T) {
				t.Parallel()

				set := setup(t)
				add(t, set, 50, 25, 75, 0, -10, 30, 60, 90)
				expectMembers(t, set, []int64{-10, 0, 25, 30, 50, 60, 75, 90})
			})

			t.Run("it does not visit removed values", func(t *testing.T) {
				t.Parallel()

				set := setup(t)
				add(t, set, 3, 1, 4, 5, 9, 2, 6)
				remove(t, set, 1, 9, 7)
				expectMembers(t, set, []int64{2, 3, 4, 5, 6})

				compact(t, set)
				expectMembers(t, set, []int64{2, 3, 4, 5, 6})
			})

			t.Run("it stops ranging if the function returns false", func(t *testing.T) {
				t.Parallel()

				set := setup(t)
				add(t, set, 1, 2, 3)

				var visited []int64
				if err := set.Range(
					t.Context(),
					func(_ context.Context, v int64) (bool, error) {
						visited = append(visited, v)
						return false, nil
					},
				); err != nil {
					t.Fatal(err)
				}

				if diff := cmp.Diff([]int64{1}, visited); diff != "" {
					t.Fatalf("unexpected values (-want +got):\n%s", diff)
				}
			})

			t.Run("it propagates errors returned by the function", func(t *testing.T) {
				t.Parallel()

				set := setup(t)
				add(t, set, 1, 2, 3)

				want := errors.New("<error>")
				err := set.Range(
					t.Context(),
					func(context.Context, int64) (bool, error) {
						return true, want
					},
				)
				if !errors.Is(err, want) {
					t.Fatalf("unexpected error: got %v, want %v", err, want)
				}
			})

			t.Run("it allows the set to be modified during ranging", func(t *testing.T) {
				t.Parallel()

				set := setup(t)
				add(t, set, 1, 2, 3)

				if err := set.Range(
					t.Context(),
					func(ctx context.Context, v int64) (bool, error) {
						if err := set.Remove(ctx, v); err != nil {
							return false, err
						}
						return true, set.Add(ctx, v+10)
					},
				); err != nil {
					t.Fatal(err)
				}

				expectMembers(t, set, []int64{11, 12, 13})
			})
		})

		t.Run("Compact", func(t *testing.T) {
			t.Parallel()

			t.Run("it preserves membership", func(t *testing.T) {
				t.Parallel()

				set := setup(t)
				add(t, set, 50, 25, 75, 10, 30, 60, 90, 55)
				remove(t, set, 25, 90, 50, 11)

				want := map[int64]bool{
					50: false, 25: false, 75: true, 10: true,
					30: true, 60: true, 90: false, 55: true, 11: false,
				}

				compact(t, set)
				expectMembership(t, set, want)
			})

			t.Run("it drops removed values", func(t *testing.T) {
				t.Parallel()

				set := setup(t)

				add(t, set, 5)
				expectMembership(t, set, map[int64]bool{5: true})
				remove(t, set, 5)
				expectMembership(t, set, map[int64]bool{5: false})
				compact(t, set)
				expectMembership(t, set, map[int64]bool{5: false})
			})

			t.Run("it can compact an empty set", func(t *testing.T) {
				t.Parallel()

				set := setup(t)
				compact(t, set)
				expectMembership(t, set, map[int64]bool{5: false})

				add(t, set, 5)
				expectMembership(t, set, map[int64]bool{5: true})
			})

			t.Run("it tolerates repeated requests", func(t *testing.T) {
				t.Parallel()

				set := setup(t)
				add(t, set, 1, 2, 3)
				remove(t, set, 2)

				compact(t, set)
				compact(t, set)
				compact(t, set)

				expectMembership(t, set, map[int64]bool{1: true, 2: false, 3: true})

				compact(t, set)
				add(t, set, 2)
				compact(t, set)
				expectMembership(t, set, map[int64]bool{1: true, 2: true, 3: true})
			})

			t.Run("it applies operations performed during compaction", func(t *testing.T) {
				t.Parallel()

				set := setup(t)

				for i := range int64(100) {
					add(t, set, i)
				}
				for i := int64(0); i < 100; i += 2 {
					remove(t, set, i)
				}

				compact(t, set)

				// These operations are submitted while the copy is (most
				// likely) still underway.
				add(t, set, 200, 0)
				remove(t, set, 1, 300)

				want := map[int64]bool{200: true, 0: true, 1: false, 300: false}
				for i := int64(2); i < 100; i++ {
					want[i] = i%2 == 1
				}

				expectMembership(t, set, want)
			})

			t.Run("it applies concurrent operations performed during compaction", func(t *testing.T) {
				t.Parallel()

				set := setup(t)

				for i := range int64(50) {
					add(t, set, i)
				}

				compact(t, set)

				var g sync.WaitGroup
				for i := int64(50); i < 100; i++ {
					g.Add(1)
					go func() {
						defer g.Done()
						if err := set.Add(t.Context(), i); err != nil {
							t.Error(err)
						}
					}()
				}
				g.Wait()

				want := map[int64]bool{}
				for i := range int64(100) {
					want[i] = true
				}

				expectMembership(t, set, want)
			})
		})

		t.Run("it returns an error if the context is canceled", func(t *testing.T) {
			t.Parallel()

			set := setup(t)

			ctx, cancel := context.WithCancel(t.Context())
			cancel()

			if _, err := set.Has(ctx, 1); err != context.Canceled {
				t.Fatalf("unexpected error: got %v, want %v", err, context.Canceled)
			}

			if err := set.Add(ctx, 1); err != context.Canceled {
				t.Fatalf("unexpected error: got %v, want %v", err, context.Canceled)
			}

			if err := set.Remove(ctx, 1); err != context.Canceled {
				t.Fatalf("unexpected error: got %v, want %v", err, context.Canceled)
			}

			if err := set.Range(
				ctx,
				func(context.Context, int64) (bool, error) { return true, nil },
			); err != context.Canceled {
				t.Fatalf("unexpected error: got %v, want %v", err, context.Canceled)
			}
		})

		t.Run("property-based", func(t *testing.T) {
			t.Parallel()

			rapid.Check(t, func(t *rapid.T) {
				set, err := store.Open(t.Context(), xtesting.SequentialName("set"))
				if err != nil {
					t.Fatal(err)
				}
				defer set.Close()

				value := rapid.Int64Range(-20, 20)

				membership := map[int64]bool{}
				var values []int64

				t.Repeat(
					map[string]func(*rapid.T){
						"Has": func(t *rapid.T) {
							v := value.Draw(t, "value")

							ok, err := set.Has(t.Context(), v)
							if err != nil {
								t.Fatal(err)
							}

							if ok != membership[v] {
								t.Fatalf(
									"unexpected membership of %d: got %t, want %t",
									v,
									ok,
									membership[v],
								)
							}
						},
						"Add": func(t *rapid.T) {
							v := value.Draw(t, "value")

							if err := set.Add(t.Context(), v); err != nil {
								t.Fatal(err)
							}

							if !membership[v] {
								membership[v] = true
								values = append(values, v)
							}
						},
						"Remove": func(t *rapid.T) {
							v := value.Draw(t, "value")

							if err := set.Remove(t.Context(), v); err != nil {
								t.Fatal(err)
							}

							delete(membership, v)
							values = slices.DeleteFunc(
								values,
								func(x int64) bool { return x == v },
							)
						},
						"Remove (value is present)": func(t *rapid.T) {
							if len(values) == 0 {
								t.Skip("skip: set is empty")
							}

							v := rapid.SampledFrom(values).Draw(t, "value")

							if err := set.Remove(t.Context(), v); err != nil {
								t.Fatal(err)
							}

							delete(membership, v)
							values = slices.DeleteFunc(
								values,
								func(x int64) bool { return x == v },
							)
						},
						"Range": func(t *rapid.T) {
							var got []int64

							if err := set.Range(
								t.Context(),
								func(_ context.Context, v int64) (bool, error) {
									got = append(got, v)
									return true, nil
								},
							); err != nil {
								t.Fatal(err)
							}

							want := slices.Sorted(maps.Keys(membership))
							if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
								t.Fatalf("unexpected values (-want +got):\n%s", diff)
							}
						},
						"Compact": func(t *rapid.T) {
							if err := set.Compact(t.Context()); err != nil {
								t.Fatal(err)
							}
						},
						"": func(t *rapid.T) {
							for _, v := range values {
								ok, err := set.Has(t.Context(), v)
								if err != nil {
									t.Fatal(err)
								}
								if !ok {
									t.Fatalf("expected %d to be a member", v)
								}
							}
						},
					},
				)
			})
		})
	})
}

// add adds values to set, in order.
func add(t *testing.T, set Set[int64], values ...int64) {
	t.Helper()

	for _, v := range values {
		if err := set.Add(t.Context(), v); err != nil {
			t.Fatal(err)
		}
	}
}

// remove removes values from set, in order.
func remove(t *testing.T, set Set[int64], values ...int64) {
	t.Helper()

	for _, v := range values {
		if err := set.Remove(t.Context(), v); err != nil {
			t.Fatal(err)
		}
	}
}

func compact(t *testing.T, set Set[int64]) {
	t.Helper()

	if err := set.Compact(t.Context()); err != nil {
		t.Fatal(err)
	}
}

// expectMembership asserts that the membership of each key in want matches
// its value.
func expectMembership(t *testing.T, set Set[int64], want map[int64]bool) {
	t.Helper()

	got := map[int64]bool{}
	for v := range want {
		ok, err := set.Has(t.Context(), v)
		if err != nil {
			t.Fatal(err)
		}
		got[v] = ok
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected membership (-want +got):\n%s", diff)
	}
}

// expectMembers asserts that ranging over set visits exactly the values in
// want, in order.
func expectMembers(t *testing.T, set Set[int64], want []int64) {
	t.Helper()

	var got []int64
	if err := set.Range(
		t.Context(),
		func(_ context.Context, v int64) (bool, error) {
			got = append(got, v)
			return true, nil
		},
	); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("unexpected values (-want +got):\n%s", diff)
	}
}
