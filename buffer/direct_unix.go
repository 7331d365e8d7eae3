//go:build !windows

package buffer

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// DirectAllocator hands out anonymous-mmap-backed buffers. Each allocation
// is rounded up to a page and munmap'd exactly once when its Ref's
// refcount reaches zero, matching spec.md's "off-heap memory ... returns
// memory to the allocator exactly once" requirement.
//
// Grounded on sneller's vm/malloc.go, which reserves one large mmap region
// and carves it into fixed pages via a bitmap. gridcol buffers are
// arbitrary-sized column batches rather than fixed VM pages, so this
// allocator mmaps each region individually instead of sub-allocating a
// reserved arena; the page-rounding and madvise-on-free behavior are kept.
type DirectAllocator struct{}

const pageSize = 4096

func roundUpPage(n int) int {
	if n <= 0 {
		n = 1
	}
	return (n + pageSize - 1) &^ (pageSize - 1)
}

func (DirectAllocator) Allocate(capacity int, owner Owner) *Ref {
	size := roundUpPage(capacity)
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		panic(fmt.Errorf("buffer: mmap %d bytes: %w", size, err))
	}
	return newRef(data[:capacity], true, owner, releaseDirect)
}

func (DirectAllocator) IsDirect() bool { return true }

func releaseDirect(data []byte) {
	size := roundUpPage(cap(data))
	full := data[:size:size]
	_ = unix.Madvise(full, unix.MADV_DONTNEED)
	if err := unix.Munmap(full); err != nil {
		panic(fmt.Errorf("buffer: munmap: %w", err))
	}
}
