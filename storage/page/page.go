// Package page defines the in-memory page frame, the scoped guards built on
// top of it, and the two B+ tree page layouts (internal and leaf) that are
// read and written through those guards.
package page

import (
	"sync"

	"github.com/ryogrid/bptreestore/types"
)

// Page is one frame's worth of state in the buffer pool: the page's raw
// bytes, which on-disk page currently occupies the frame, how many guards
// are pinning it, and whether it has been written to since it was last
// flushed. Grounded on BusTub's Page (buffer_pool_manager.cpp's NewPage/
// FetchPage read and mutate exactly these fields under the pool's latch).
//
// Latch is a separate lock from the buffer pool manager's own bookkeeping
// mutex: it protects the page's contents for the crabbing protocol page
// guards implement, and is held across an operation the way the teacher's
// SpinLatch is held across a bufmgr critical section, just RWMutex instead
// of a spinlock since Go's runtime already parks goroutines on contention.
type Page struct {
	Latch sync.RWMutex

	id       types.PageID
	data     [types.PageSize]byte
	pinCount int32
	isDirty  bool
}

// GetPageId returns the page id currently assigned to this frame.
func (p *Page) GetPageId() types.PageID {
	return p.id
}

// Data returns the frame's backing array as a slice, for a page layout to
// reinterpret as its own struct.
func (p *Page) Data() []byte {
	return p.data[:]
}

// PinCount returns the number of guards currently holding this page.
func (p *Page) PinCount() int32 {
	return p.pinCount
}

// IsDirty reports whether the page has been written to since its last
// flush to disk.
func (p *Page) IsDirty() bool {
	return p.isDirty
}

// IncPinCount pins the page once more. Called by the buffer pool manager
// while holding its own bookkeeping mutex.
func (p *Page) IncPinCount() {
	p.pinCount++
}

// DecPinCount unpins the page once, to a floor of zero. Called by the
// buffer pool manager while holding its own bookkeeping mutex.
func (p *Page) DecPinCount() {
	if p.pinCount > 0 {
		p.pinCount--
	}
}

// SetDirty marks or clears the page's dirty flag.
func (p *Page) SetDirty(dirty bool) {
	p.isDirty = dirty
}

// ResetMemory zeroes the page's contents and resets its bookkeeping, for
// reuse by a newly allocated page id. Grounded on BusTub's
// Page::ResetMemory, called from NewPage/NewFrameUnlocked before a frame
// is handed back out.
func (p *Page) ResetMemory(id types.PageID) {
	p.data = [types.PageSize]byte{}
	p.id = id
	p.pinCount = 0
	p.isDirty = false
}
