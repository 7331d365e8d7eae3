//go:build ceph

package region

import (
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/ceph/go-ceph/rados"
	"github.com/gridcol/gridcol/columnkey"
)

// CephConfig configures a CephDiskStore. Grounded on
// storage/persistence-ceph.go's CephFactory.
type CephConfig struct {
	UserName    string
	ClusterName string
	ConfFile    string
	Pool        string
	Prefix      string
}

// CephDiskStore stores blobs as individual RADOS objects in cfg.Pool.
// Only built with `-tags=ceph`; see diskstore_ceph_stub.go for the
// default build.
type CephDiskStore struct {
	cfg CephConfig

	mu     sync.Mutex
	conn   *rados.Conn
	ioctx  *rados.IOContext
	opened bool
}

func NewCephDiskStore(cfg CephConfig) *CephDiskStore {
	return &CephDiskStore{cfg: cfg}
}

func (c *CephDiskStore) ensureOpen() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.opened {
		return nil
	}
	conn, err := rados.NewConnWithUser(c.cfg.UserName)
	if err != nil {
		return fmt.Errorf("region: ceph conn: %w", err)
	}
	if c.cfg.ConfFile != "" {
		if err := conn.ReadConfigFile(c.cfg.ConfFile); err != nil {
			return fmt.Errorf("region: ceph read config: %w", err)
		}
	}
	if err := conn.Connect(); err != nil {
		return fmt.Errorf("region: ceph connect: %w", err)
	}
	ioctx, err := conn.OpenIOContext(c.cfg.Pool)
	if err != nil {
		return fmt.Errorf("region: ceph open pool %s: %w", c.cfg.Pool, err)
	}
	c.conn = conn
	c.ioctx = ioctx
	c.opened = true
	return nil
}

func (c *CephDiskStore) oid(id columnkey.DiskID) string {
	prefix := strings.TrimSuffix(c.cfg.Prefix, "/")
	if prefix == "" {
		return id.String()
	}
	return path.Join(prefix, id.String())
}

func (c *CephDiskStore) ReadBlob(id columnkey.DiskID) ([]byte, error) {
	if err := c.ensureOpen(); err != nil {
		return nil, err
	}
	stat, err := c.ioctx.Stat(c.oid(id))
	if err == rados.ErrNotFound {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, err
	}
	buf := make([]byte, stat.Size)
	n, err := c.ioctx.Read(c.oid(id), buf, 0)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

func (c *CephDiskStore) WriteBlob(id columnkey.DiskID, data []byte) error {
	if err := c.ensureOpen(); err != nil {
		return err
	}
	return c.ioctx.WriteFull(c.oid(id), data)
}

func (c *CephDiskStore) DeleteBlob(id columnkey.DiskID) error {
	if err := c.ensureOpen(); err != nil {
		return err
	}
	err := c.ioctx.Delete(c.oid(id))
	if err == rados.ErrNotFound {
		return nil
	}
	return err
}
