package treeset

import (
	"time"

	"github.com/dogmatiq/treeset/actor"
	"github.com/dogmatiq/treeset/internal/telemetry"
	"pgregory.net/rapid"
)

// testInstruments returns instruments that discard all telemetry.
func testInstruments() *instruments {
	var p telemetry.Provider
	return newInstruments(p.Recorder("github.com/dogmatiq/treeset/treeset"))
}

// probe is an actor that captures the messages it receives.
//
// Failures are reported to t, which may be a [*rapid.T] so that they fail the
// current rapid case.
type probe struct {
	t   rapid.TB
	ref actor.Ref
	ch  chan actor.Envelope
}

func newProbe(t rapid.TB, sys *actor.System) *probe {
	p := &probe{
		t:  t,
		ch: make(chan actor.Envelope, 1000),
	}

	p.ref = sys.Spawn(actor.HandlerFunc(func(ctx *actor.Context, msg any) {
		p.ch <- actor.Envelope{Sender: ctx.Sender(), Message: msg}
	}))

	return p
}

// receive returns the next message received by the probe.
func (p *probe) receive() actor.Envelope {
	p.t.Helper()

	select {
	case env := <-p.ch:
		return env
	case <-time.After(5 * time.Second):
		p.t.Fatal("timed out waiting for a message")
		return actor.Envelope{}
	}
}

// expectNothing fails the test if the probe receives a message within a short
// period.
func (p *probe) expectNothing() {
	p.t.Helper()

	select {
	case env := <-p.ch:
		p.t.Fatalf("unexpected message: %#v", env.Message)
	case <-time.After(50 * time.Millisecond):
	}
}

// do sends an operation to r and waits for its reply.
func (p *probe) do(r actor.Ref, k Kind, id int64, e int64) any {
	p.t.Helper()

	r.Tell(
		Operation[int64]{
			Kind:      k,
			Requester: p.ref,
			ID:        id,
			Elem:      e,
		},
		p.ref,
	)

	return p.receive().Message
}
