package set

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/dogmatiq/treeset/internal/x/xtesting"
)

// RunBenchmarks runs benchmarks against a [Store] implementation.
func RunBenchmarks(
	b *testing.B,
	store Store[int64],
) {
	// populate opens a new set containing n random values, and returns the
	// set along with the values.
	populate := func(ctx context.Context, n int) (Set[int64], []int64, error) {
		set, err := store.Open(ctx, xtesting.SequentialName("set"))
		if err != nil {
			return nil, nil, err
		}

		values := make([]int64, n)
		for i := range values {
			values[i] = rand.Int64()
			if err := set.Add(ctx, values[i]); err != nil {
				return nil, nil, err
			}
		}

		return set, values, nil
	}

	b.Run("Store", func(b *testing.B) {
		b.Run("Open", func(b *testing.B) {
			var set Set[int64]

			xtesting.Benchmark(
				b,
				// SETUP
				nil,
				// BEFORE EACH
				nil,
				// BENCHMARKED CODE
				func(ctx context.Context) (err error) {
					set, err = store.Open(ctx, xtesting.SequentialName("set"))
					return err
				},
				// AFTER EACH
				func(context.Context) error {
					return set.Close()
				},
			)
		})
	})

	b.Run("Set", func(b *testing.B) {
		b.Run("Has", func(b *testing.B) {
			var (
				set    Set[int64]
				values []int64
				v      int64
			)

			xtesting.Benchmark(
				b,
				// SETUP
				func(ctx context.Context) (err error) {
					set, values, err = populate(ctx, 1000)
					return err
				},
				// BEFORE EACH
				func(context.Context) error {
					v = values[rand.IntN(len(values))]
					return nil
				},
				// BENCHMARKED CODE
				func(ctx context.Context) error {
					_, err := set.Has(ctx, v)
					return err
				},
				// AFTER EACH
				nil,
			)

			if err := set.Close(); err != nil {
				b.Fatal(err)
			}
		})

		b.Run("Add", func(b *testing.B) {
			var set Set[int64]

			xtesting.Benchmark(
				b,
				// SETUP
				func(ctx context.Context) (err error) {
					set, _, err = populate(ctx, 1000)
					return err
				},
				// BEFORE EACH
				nil,
				// BENCHMARKED CODE
				func(ctx context.Context) error {
					return set.Add(ctx, rand.Int64())
				},
				// AFTER EACH
				nil,
			)

			if err := set.Close(); err != nil {
				b.Fatal(err)
			}
		})

		b.Run("Remove", func(b *testing.B) {
			var (
				set    Set[int64]
				values []int64
				v      int64
			)

			xtesting.Benchmark(
				b,
				// SETUP
				func(ctx context.Context) (err error) {
					set, values, err = populate(ctx, 1000)
					return err
				},
				// BEFORE EACH
				func(ctx context.Context) error {
					v = values[rand.IntN(len(values))]
					return set.Add(ctx, v)
				},
				// BENCHMARKED CODE
				func(ctx context.Context) error {
					return set.Remove(ctx, v)
				},
				// AFTER EACH
				nil,
			)

			if err := set.Close(); err != nil {
				b.Fatal(err)
			}
		})

		b.Run("Compact", func(b *testing.B) {
			var set Set[int64]

			xtesting.Benchmark(
				b,
				// SETUP
				nil,
				// BEFORE EACH
				func(ctx context.Context) (err error) {
					set, _, err = populate(ctx, 100)
					return err
				},
				// BENCHMARKED CODE
				func(ctx context.Context) error {
					if err := set.Compact(ctx); err != nil {
						return err
					}

					// Has is queued behind the compaction, so its reply
					// marks the compaction's completion.
					_, err := set.Has(ctx, 0)
					return err
				},
				// AFTER EACH
				func(context.Context) error {
					return set.Close()
				},
			)
		})
	})
}
