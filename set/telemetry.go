package set

import (
	"context"

	"github.com/dogmatiq/treeset/internal/telemetry"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/exp/constraints"
)

// WithTelemetry returns a [Store] that adds telemetry to s.
func WithTelemetry[T constraints.Integer](
	s Store[T],
	p trace.TracerProvider,
	m metric.MeterProvider,
	l log.LoggerProvider,
) Store[T] {
	return &instrumentedStore[T]{
		Next: s,
		Telemetry: telemetry.Provider{
			TracerProvider: p,
			MeterProvider:  m,
			LoggerProvider: l,
		},
	}
}

// instrumentedStore is a decorator that adds instrumentation to a [Store].
type instrumentedStore[T constraints.Integer] struct {
	Next      Store[T]
	Telemetry telemetry.Provider
}

// Open returns the set with the given name.
func (s *instrumentedStore[T]) Open(ctx context.Context, name string) (Set[T], error) {
	telem := s.Telemetry.Recorder(
		"github.com/dogmatiq/treeset/set",
		telemetry.Type("set.store", s.Next),
		telemetry.String("set.name", name),
		telemetry.String("set.handle", telemetry.HandleID()),
	)

	set := &instrumentedSet[T]{
		Telemetry:   telem,
		OpenSets:    telem.UpDownCounter("open_sets", "{set}", "The number of sets that are currently open."),
		Values:      telem.Counter("values", "{value}", "The number of values that have been operated upon."),
		Compactions: telem.Counter("compactions.requested", "{compaction}", "The number of compactions that have been requested."),
	}

	ctx, span := telem.StartSpan(ctx, "set.open")
	defer span.End()

	next, err := s.Next.Open(ctx, name)
	if err != nil {
		telem.Error(ctx, "set.open.error", err)
		return nil, err
	}

	set.Next = next

	set.OpenSets(ctx, 1)
	set.Telemetry.Info(ctx, "set.open.ok", "opened set")

	return set, nil
}

type instrumentedSet[T constraints.Integer] struct {
	Next      Set[T]
	Telemetry *telemetry.Recorder

	OpenSets    telemetry.Instrument[int64]
	Values      telemetry.Instrument[int64]
	Compactions telemetry.Instrument[int64]
}

func (s *instrumentedSet[T]) Name() string {
	return s.Next.Name()
}

func (s *instrumentedSet[T]) Has(ctx context.Context, v T) (bool, error) {
	ctx, span := s.Telemetry.StartSpan(
		ctx,
		"set.has",
		telemetry.Elem(v),
	)
	defer span.End()

	s.Values(ctx, 1, telemetry.ReadDirection)

	ok, err := s.Next.Has(ctx, v)
	if err != nil {
		s.Telemetry.Error(ctx, "set.has.error", err)
		return false, err
	}

	telemetry.SetAttributes(
		span,
		telemetry.Bool("value_present", ok),
	)

	if ok {
		s.Telemetry.Info(ctx, "set.has.ok", "value is present in set")
	} else {
		s.Telemetry.Info(ctx, "set.has.ok", "value is not present in set")
	}

	return ok, nil
}

func (s *instrumentedSet[T]) Add(ctx context.Context, v T) error {
	ctx, span := s.Telemetry.StartSpan(
		ctx,
		"set.add",
		telemetry.Elem(v),
	)
	defer span.End()

	s.Values(ctx, 1, telemetry.WriteDirection)

	if err := s.Next.Add(ctx, v); err != nil {
		s.Telemetry.Error(ctx, "set.add.error", err)
		return err
	}

	s.Telemetry.Info(ctx, "set.add.ok", "added value to set")

	return nil
}

func (s *instrumentedSet[T]) Remove(ctx context.Context, v T) error {
	ctx, span := s.Telemetry.StartSpan(
		ctx,
		"set.remove",
		telemetry.Elem(v),
	)
	defer span.End()

	s.Values(ctx, 1, telemetry.WriteDirection)

	if err := s.Next.Remove(ctx, v); err != nil {
		s.Telemetry.Error(ctx, "set.remove.error", err)
		return err
	}

	s.Telemetry.Info(ctx, "set.remove.ok", "removed value from set")

	return nil
}

func (s *instrumentedSet[T]) Range(ctx context.Context, fn RangeFunc[T]) error {
	ctx, span := s.Telemetry.StartSpan(ctx, "set.range")
	defer span.End()

	var (
		count     int
		brokeLoop bool
	)

	s.Telemetry.Info(ctx, "set.range.start", "reading values")

	err := s.Next.Range(
		ctx,
		func(ctx context.Context, v T) (bool, error) {
			count++
			s.Values(ctx, 1, telemetry.ReadDirection)

			ok, err := fn(ctx, v)
			if ok || err != nil {
				return ok, err
			}

			brokeLoop = true
			return false, nil
		},
	)

	telemetry.SetAttributes(
		span,
		telemetry.Int("values_read", count),
		telemetry.Bool("reached_end", !brokeLoop && err == nil),
	)

	if err != nil {
		s.Telemetry.Error(ctx, "set.range.error", err)
		return err
	}

	if brokeLoop {
		s.Telemetry.Info(ctx, "set.range.break", "range loop terminated early")
	} else {
		s.Telemetry.Info(ctx, "set.range.ok", "completed range loop")
	}

	return nil
}

func (s *instrumentedSet[T]) Compact(ctx context.Context) error {
	ctx, span := s.Telemetry.StartSpan(ctx, "set.compact")
	defer span.End()

	if err := s.Next.Compact(ctx); err != nil {
		s.Telemetry.Error(ctx, "set.compact.error", err)
		return err
	}

	s.Compactions(ctx, 1)
	s.Telemetry.Info(ctx, "set.compact.ok", "requested compaction of set")

	return nil
}

func (s *instrumentedSet[T]) Close() error {
	if s.Next == nil {
		// If the resource has already been closed don't do anything at all,
		// even log a warning, because we want to allow the caller to defer
		// closing for safety _and_ close explicitly elsewhere for error
		// checking.
		return nil
	}

	ctx, span := s.Telemetry.StartSpan(context.Background(), "set.close")
	defer span.End()

	defer func() {
		s.Next = nil
		s.OpenSets(ctx, -1)
	}()

	if err := s.Next.Close(); err != nil {
		s.Telemetry.Error(ctx, "set.close.error", err)
		return err
	}

	s.Telemetry.Info(ctx, "set.close.ok", "closed set")

	return nil
}
