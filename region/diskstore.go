package region

import (
	"fmt"

	"github.com/gridcol/gridcol/columnkey"
	"golang.org/x/sync/singleflight"
)

// DiskStore is the disk-read/write primitive spec.md's RegionStore
// collaborator exposes. It stores and retrieves the raw serialized
// payload bytes for one DiskID.
type DiskStore interface {
	ReadBlob(id columnkey.DiskID) ([]byte, error)
	WriteBlob(id columnkey.DiskID, data []byte) error
	DeleteBlob(id columnkey.DiskID) error
}

// ErrBlobNotFound is returned by a DiskStore.ReadBlob when no blob exists
// for the given id; Recaller maps it to ErrTombstone.
var ErrBlobNotFound = fmt.Errorf("region: blob not found")

// Recaller wraps a DiskStore with per-DiskID request collapsing, so that
// concurrent recalls of the same DiskID that arrive while a read is in
// flight share that one disk read; a recall arriving after it finished
// reads again. This implements the "diskId-specific
// lock" spec.md §4.C/§5 calls for, without a global lock table.
type Recaller struct {
	store DiskStore
	group singleflight.Group
}

// NewRecaller wraps store with recall deduplication.
func NewRecaller(store DiskStore) *Recaller {
	return &Recaller{store: store}
}

// Recall reads the blob for id, collapsing concurrent callers for the
// same id into a single DiskStore.ReadBlob call. ErrBlobNotFound is
// translated to ErrTombstone per spec.md's "null / tombstone" case.
func (r *Recaller) Recall(id columnkey.DiskID) ([]byte, error) {
	v, err, _ := r.group.Do(id.String(), func() (any, error) {
		data, err := r.store.ReadBlob(id)
		if err == ErrBlobNotFound {
			return nil, ErrTombstone
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDiskAccess, err)
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}
