package partition

import (
	"testing"

	"github.com/gridcol/gridcol/columnkey"
)

func TestColumnsDeclaresSinglePartitioningColumn(t *testing.T) {
	r := New()
	cols := r.Columns()
	if len(cols) != 1 || cols[0] != "PARTITIONID" {
		t.Fatalf("expected [\"PARTITIONID\"], got %v", cols)
	}
}

func TestRoutingObjectForKeyIsPartitionID(t *testing.T) {
	r := New()
	k := columnkey.New(1, 42, 0)
	if got := r.RoutingObjectForKey(k); got != 42 {
		t.Fatalf("expected routing object 42, got %d", got)
	}
}

func TestColocatedMasterPathDefaultsToAbsent(t *testing.T) {
	r := New()
	k := columnkey.New(1, 1, 0)
	if path, ok := r.ColocatedMasterPath(k); ok || path != "" {
		t.Fatalf("expected no colocated master by default, got (%q, %v)", path, ok)
	}
}

func TestWithColocatedMasterReportsConfiguredPath(t *testing.T) {
	r := WithColocatedMaster("/regions/orders")
	k := columnkey.New(1, 1, 0)
	path, ok := r.ColocatedMasterPath(k)
	if !ok || path != "/regions/orders" {
		t.Fatalf("expected (\"/regions/orders\", true), got (%q, %v)", path, ok)
	}
}

func TestCloseIsNoOp(t *testing.T) {
	r := New()
	if err := r.Close(); err != nil {
		t.Fatalf("expected Close to be a no-op, got %v", err)
	}
}
