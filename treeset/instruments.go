package treeset

import (
	"github.com/dogmatiq/treeset/internal/telemetry"
)

// instruments is the telemetry shared by the coordinator and workers of a
// single tree.
type instruments struct {
	Telemetry *telemetry.Recorder

	Operations         telemetry.Instrument[int64]
	QueuedOperations   telemetry.Instrument[int64]
	Compactions        telemetry.Instrument[int64]
	CompactionDuration telemetry.Instrument[float64]
	Workers            telemetry.Instrument[int64]
}

func newInstruments(r *telemetry.Recorder) *instruments {
	return &instruments{
		Telemetry:          r,
		Operations:         r.Counter("operations", "{operation}", "The number of operations submitted to the set."),
		QueuedOperations:   r.Counter("operations.queued", "{operation}", "The number of operations deferred until a compaction completed."),
		Compactions:        r.Counter("compactions", "{compaction}", "The number of compactions that have completed."),
		CompactionDuration: r.FloatHistogram("compaction.duration", "s", "The time taken to compact the tree."),
		Workers:            r.UpDownCounter("workers", "{worker}", "The number of element workers that are running."),
	}
}
