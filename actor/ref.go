package actor

import "fmt"

// Ref is the address of an actor.
//
// Refs are comparable and are never reused, even after the actor they refer
// to has stopped.
type Ref struct {
	c *cell
}

// Nobody is the zero [Ref]. Messages sent to Nobody are discarded.
var Nobody Ref

// IsNobody returns true if r does not refer to an actor.
func (r Ref) IsNobody() bool {
	return r.c == nil
}

// Tell sends msg to the actor, attributing it to sender.
//
// It never blocks. If the actor has stopped the message is discarded.
func (r Ref) Tell(msg any, sender Ref) {
	if r.c != nil {
		r.c.enqueue(Envelope{sender, msg})
	}
}

func (r Ref) String() string {
	if r.c == nil {
		return "actor:nobody"
	}
	return fmt.Sprintf("actor:%d", r.c.id)
}

// Envelope is a message along with the address of its sender.
type Envelope struct {
	Sender  Ref
	Message any
}
