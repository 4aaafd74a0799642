package treeset

import (
	"fmt"

	"github.com/dogmatiq/treeset/actor"
	"golang.org/x/exp/constraints"
)

// Kind is the type of an [Operation].
type Kind int

const (
	// Insert ensures an element is a member of the set.
	Insert Kind = iota

	// Contains queries whether an element is a member of the set.
	Contains

	// Remove ensures an element is not a member of the set.
	Remove
)

func (k Kind) String() string {
	switch k {
	case Insert:
		return "insert"
	case Contains:
		return "contains"
	case Remove:
		return "remove"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Operation is a request to insert, query or remove an element.
//
// Exactly one reply is sent to Requester for each operation: a
// [ContainsResult] for [Contains], and an [OperationFinished] otherwise. The
// reply carries the operation's ID, which is chosen by the requester and is
// not checked for uniqueness.
type Operation[E constraints.Integer] struct {
	Kind      Kind
	Requester actor.Ref
	ID        int64
	Elem      E
}

// ContainsResult is the reply to a [Contains] operation.
type ContainsResult struct {
	ID    int64
	Found bool
}

// OperationFinished is the reply to an [Insert] or [Remove] operation.
type OperationFinished struct {
	ID int64
}

// GC is sent to a coordinator to request that its tree be compacted.
type GC struct{}

// CopyTo instructs a worker to copy the live elements of its subtree into the
// tree rooted at Target.
type CopyTo struct {
	Target actor.Ref
}

// CopyFinished is sent in reply to [CopyTo] once every live element of the
// recipient's subtree has been inserted into the target tree.
type CopyFinished struct{}

// copyInsertID is the operation ID a worker uses when re-inserting its own
// element during a copy.
const copyInsertID = 0
