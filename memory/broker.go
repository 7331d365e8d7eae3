// Package memory implements the MemoryBroker collaborator: a budgeted
// grant/release accounting service for logical storage memory that may
// deny a grant with an out-of-memory condition, or evict tracked items to
// make room first.
//
// Grounded on storage/cache.go's CacheManager: a single goroutine drains
// an operation channel so add/delete/evict never race each other, items
// are scored by last-used time, and eviction walks oldest-first until a
// target (75% of budget) is reached.
package memory

import (
	"sort"
	"sync/atomic"
	"time"
)

// Item is a unit of memory the Broker can evict to make room. A caller
// registers a buffer it can give up under pressure as an Item so a later
// Acquire elsewhere in the store can reclaim it. ColumnValue does not
// register its buffers.
type Item struct {
	Owner       any
	Size        int64
	Cleanup     func(owner any)         // called under no locks the caller holds
	GetLastUsed func(owner any) time.Time
}

type trackedItem struct {
	item          Item
	effectiveTime time.Time
}

type opKind int

const (
	opAdd opKind = iota
	opRemove
	opAcquire
	opRelease
	opSetBudget
)

type op struct {
	kind   opKind
	item   *Item
	owner  any
	amount int64
	result chan bool
}

// Broker grants and releases a logical memory budget, evicting tracked
// Items (oldest-last-used first) when a grant would exceed the budget, and
// denying the grant if eviction cannot free enough room.
type Broker struct {
	budget  atomic.Int64
	used    atomic.Int64
	items   []trackedItem
	index   map[any]int
	opChan  chan op
	closeCh chan struct{}
}

// NewBroker creates a Broker with the given byte budget and starts its
// serialization goroutine.
func NewBroker(budget int64) *Broker {
	b := &Broker{
		items:   make([]trackedItem, 0),
		index:   make(map[any]int),
		opChan:  make(chan op, 1024),
		closeCh: make(chan struct{}),
	}
	b.budget.Store(budget)
	go b.run()
	return b
}

// Close stops the broker's background goroutine. Not required for
// correctness (the broker can simply be dropped), but lets tests avoid
// leaking goroutines.
func (b *Broker) Close() {
	close(b.closeCh)
}

// Budget returns the configured byte budget.
func (b *Broker) Budget() int64 { return b.budget.Load() }

// SetBudget adjusts the budget at runtime (used by config hot-reload).
func (b *Broker) SetBudget(budget int64) {
	select {
	case b.opChan <- op{kind: opSetBudget, amount: budget}:
	case <-b.closeCh:
	}
}

// Acquire grants n bytes against the budget, evicting tracked items if
// necessary. It returns false (out-of-memory) if eviction could not make
// enough room.
func (b *Broker) Acquire(n int64) bool {
	result := make(chan bool, 1)
	select {
	case b.opChan <- op{kind: opAcquire, amount: n, result: result}:
		return <-result
	case <-b.closeCh:
		return false
	}
}

// Release returns n bytes to the budget. Every successful Acquire must be
// matched by exactly one Release on every code path, including failure
// paths that partially acquired and then back out.
func (b *Broker) Release(n int64) {
	select {
	case b.opChan <- op{kind: opRelease, amount: n}:
	case <-b.closeCh:
	}
}

// Track registers an evictable item and counts its Size toward the in-use
// bytes; evicting the item subtracts that Size again.
func (b *Broker) Track(item Item) {
	select {
	case b.opChan <- op{kind: opAdd, item: &item, owner: item.Owner}:
	case <-b.closeCh:
	}
}

// Untrack removes an item from eviction tracking without invoking its
// cleanup (the caller already released it through its normal path).
func (b *Broker) Untrack(owner any) {
	select {
	case b.opChan <- op{kind: opRemove, owner: owner}:
	case <-b.closeCh:
	}
}

// Used reports the current in-use byte count. Approximate under
// concurrent load: reads racing with the accounting goroutine may observe
// a slightly stale value, which is acceptable for a diagnostics-only call.
func (b *Broker) Used() int64 { return b.used.Load() }

func (b *Broker) run() {
	for {
		select {
		case o := <-b.opChan:
			switch o.kind {
			case opAdd:
				b.add(*o.item)
			case opRemove:
				b.remove(o.owner)
			case opAcquire:
				ok := b.acquire(o.amount)
				if o.result != nil {
					o.result <- ok
				}
			case opRelease:
				if b.used.Add(-o.amount) < 0 {
					b.used.Store(0)
				}
			case opSetBudget:
				b.budget.Store(o.amount)
			}
		case <-b.closeCh:
			return
		}
	}
}

func (b *Broker) acquire(n int64) bool {
	used := b.used.Add(n)
	budget := b.budget.Load()
	if used > budget {
		b.evictTo(budget * 75 / 100)
		used = b.used.Load()
	}
	if used > budget {
		b.used.Add(-n)
		return false
	}
	return true
}

func (b *Broker) add(item Item) {
	idx := len(b.items)
	b.items = append(b.items, trackedItem{item: item, effectiveTime: time.Now()})
	b.index[item.Owner] = idx
	b.used.Add(item.Size)
}

func (b *Broker) remove(owner any) {
	idx, ok := b.index[owner]
	if !ok {
		return
	}
	b.removeAt(idx)
}

func (b *Broker) removeAt(idx int) {
	last := len(b.items) - 1
	owner := b.items[idx].item.Owner
	if idx != last {
		b.items[idx] = b.items[last]
		b.index[b.items[idx].item.Owner] = idx
	}
	b.items = b.items[:last]
	delete(b.index, owner)
}

// evictTo evicts oldest-last-used items until used <= target or no more
// tracked items remain.
func (b *Broker) evictTo(target int64) {
	for i := range b.items {
		b.items[i].effectiveTime = b.items[i].item.GetLastUsed(b.items[i].item.Owner)
	}
	sort.Slice(b.items, func(i, j int) bool {
		return b.items[i].effectiveTime.Before(b.items[j].effectiveTime)
	})
	for len(b.items) > 0 && b.used.Load() > target {
		it := b.items[0]
		it.item.Cleanup(it.item.Owner)
		if b.used.Add(-it.item.Size) < 0 {
			b.used.Store(0)
		}
		delete(b.index, it.item.Owner)
		b.items = b.items[1:]
	}
	for idx, it := range b.items {
		b.index[it.item.Owner] = idx
	}
}
