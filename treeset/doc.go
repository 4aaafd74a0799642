// Package treeset is a [set.Store] implementation in which each set is an
// unbalanced binary search tree of actors, one actor per element.
//
// Removed elements are tombstoned in place. [set.Set.Compact] rebuilds the
// tree from its live elements; operations submitted during the rebuild are
// queued by the tree's coordinator and replayed, in order, once it completes.
package treeset

import "github.com/dogmatiq/treeset/set"

var _ set.Store[int64] = (*Store[int64])(nil)
