// Package actor is a minimal in-process actor runtime.
//
// Each actor owns a goroutine and an unbounded mailbox. Messages are delivered
// in the order they were sent to a given actor, sends never block, and an
// actor handles exactly one message at a time, so state owned by an actor's
// [Handler] needs no locking.
package actor
