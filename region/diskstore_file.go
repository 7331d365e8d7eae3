package region

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gridcol/gridcol/columnkey"
)

// FileDiskStore persists blobs as individual files named by DiskID under a
// base directory. Grounded on storage/persistence-files.go's FileStorage,
// which lays out one file per (shard, column) and treats a missing file as
// "no data available" rather than an error.
type FileDiskStore struct {
	dir string
}

// NewFileDiskStore creates a FileDiskStore rooted at dir, creating it if
// necessary.
func NewFileDiskStore(dir string) (*FileDiskStore, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("region: create disk store dir: %w", err)
	}
	return &FileDiskStore{dir: dir}, nil
}

func (f *FileDiskStore) path(id columnkey.DiskID) string {
	return filepath.Join(f.dir, id.String())
}

func (f *FileDiskStore) ReadBlob(id columnkey.DiskID) ([]byte, error) {
	data, err := os.ReadFile(f.path(id))
	if os.IsNotExist(err) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (f *FileDiskStore) WriteBlob(id columnkey.DiskID, data []byte) error {
	tmp := f.path(id) + ".tmp"
	if err := os.WriteFile(tmp, data, 0640); err != nil {
		return err
	}
	return os.Rename(tmp, f.path(id))
}

func (f *FileDiskStore) DeleteBlob(id columnkey.DiskID) error {
	err := os.Remove(f.path(id))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
