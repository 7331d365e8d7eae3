// Package partition implements PartitionResolver (spec.md §4.D): the
// routing-object contract a region engine consults to map a ColumnKey to
// its owning partition.
//
// Grounded on the routing-object idea in the teacher's storage/partition.go
// (shard lookup keyed by a partitioning column), rewritten without that
// file's scm.Scmer/shard-rebalancing machinery, which has no analog here —
// this package only answers "which partition does this key belong to",
// not "how should the table be sharded".
package partition

import "github.com/gridcol/gridcol/columnkey"

// Column is the single partitioning column PartitionResolver declares,
// per spec.md §4.D.
const Column = "PARTITIONID"

// Resolver maps a ColumnKey to its routing object and, optionally, to a
// colocated master region. The zero Resolver has no colocated master.
type Resolver struct {
	colocatedMasterPath string
	hasColocatedMaster  bool
}

// New returns a Resolver with no colocated master configured.
func New() *Resolver {
	return &Resolver{}
}

// WithColocatedMaster returns a Resolver that reports path as the
// colocated master region for every key.
func WithColocatedMaster(path string) *Resolver {
	return &Resolver{colocatedMasterPath: path, hasColocatedMaster: true}
}

// Columns returns the partitioning columns this resolver declares.
// PartitionResolver always declares exactly one (spec.md §4.D).
func (r *Resolver) Columns() []string { return []string{Column} }

// RoutingObjectForKey returns the partitionId as the routing object, per
// spec.md §4.D and columnkey.Key.RoutingObject.
func (r *Resolver) RoutingObjectForKey(key columnkey.Key) int32 {
	return key.RoutingObject()
}

// ColocatedMasterPath reports the colocated master region's path, if one
// is configured. Absent any configuration, it reports ("", false).
func (r *Resolver) ColocatedMasterPath(key columnkey.Key) (string, bool) {
	if !r.hasColocatedMaster {
		return "", false
	}
	return r.colocatedMasterPath, true
}

// Close is a no-op; PartitionResolver holds no resources of its own.
func (r *Resolver) Close() error { return nil }
