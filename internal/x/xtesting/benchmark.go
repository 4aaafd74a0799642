package xtesting

import (
	"context"
	"testing"
	"time"
)

// Benchmark benchmarks fn.
//
// setup is called once, before the first iteration. pre and post are called
// before and after each iteration, respectively. Any of them may be nil.
//
// Only the time spent in fn is measured.
func Benchmark(
	b *testing.B,
	setup func(context.Context) error,
	pre func(context.Context) error,
	fn func(context.Context) error,
	post func(context.Context) error,
) {
	ctx := b.Context()

	call := func(f func(context.Context) error) {
		if f == nil {
			return
		}

		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		if err := f(ctx); err != nil {
			b.Fatal(err)
		}
	}

	call(setup)

	for b.Loop() {
		b.StopTimer()
		call(pre)
		b.StartTimer()

		err := fn(ctx)

		b.StopTimer()
		call(post)

		if err != nil {
			b.Fatal(err)
		}
	}
}
