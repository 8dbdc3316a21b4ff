package buffer

import (
	"fmt"
	"sync"

	"github.com/ryogrid/bptreestore/storage/disk"
	"github.com/ryogrid/bptreestore/storage/page"
	"github.com/ryogrid/bptreestore/types"
)

// BufferPoolManager is the fixed-size pool of page frames fronting a
// disk.Manager, replacing evictable frames by LRU-K when it runs out of
// free ones. Grounded on BusTub's BufferPoolManager
// (buffer_pool_manager.cpp); page allocation/deallocation is delegated to
// the disk.Manager rather than kept as the buffer pool's own counter,
// since this module's disk.Manager already owns page-id bookkeeping for
// both its file-backed and in-memory implementations.
type BufferPoolManager struct {
	mu sync.Mutex

	disk     disk.Manager
	replacer *LRUKReplacer

	frames    []page.Page
	freeList  []types.FrameID
	pageTable map[types.PageID]types.FrameID
}

// NewBufferPoolManager creates a pool of poolSize frames backed by d,
// evicting by LRU-K with history depth k.
func NewBufferPoolManager(poolSize int, d disk.Manager, k int) *BufferPoolManager {
	bpm := &BufferPoolManager{
		disk:      d,
		replacer:  NewLRUKReplacer(poolSize, k),
		frames:    make([]page.Page, poolSize),
		pageTable: make(map[types.PageID]types.FrameID, poolSize),
	}
	for i := 0; i < poolSize; i++ {
		bpm.freeList = append(bpm.freeList, types.FrameID(i))
	}
	return bpm
}

// newFrameUnlocked finds a frame to hold a page that isn't resident yet,
// from the free list first and by evicting otherwise, writing back a
// dirty victim before reuse. Caller must hold mu. Grounded on
// BufferPoolManager::NewFrameUnlocked.
func (b *BufferPoolManager) newFrameUnlocked() (types.FrameID, bool) {
	if n := len(b.freeList); n > 0 {
		fid := b.freeList[n-1]
		b.freeList = b.freeList[:n-1]
		return fid, true
	}

	fid, ok := b.replacer.Evict()
	if !ok {
		return 0, false
	}
	victim := &b.frames[fid]
	if victim.PinCount() != 0 {
		panic(fmt.Sprintf("buffer: evicted frame %d still pinned", fid))
	}
	if victim.IsDirty() {
		if err := b.disk.WritePage(victim.GetPageId(), victim.Data()); err != nil {
			panic(fmt.Sprintf("buffer: flushing evicted page %d: %v", victim.GetPageId(), err))
		}
	}
	delete(b.pageTable, victim.GetPageId())
	return fid, true
}

// NewPage allocates a fresh page id, pins it into a frame, and returns
// the frame. Returns nil, types.InvalidPageID if the pool is exhausted.
func (b *BufferPoolManager) NewPage() (*page.Page, types.PageID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	fid, ok := b.newFrameUnlocked()
	if !ok {
		return nil, types.InvalidPageID
	}

	b.replacer.RecordAccess(fid)
	b.replacer.SetEvictable(fid, false)

	id := b.disk.AllocatePage()
	frame := &b.frames[fid]
	frame.ResetMemory(id)
	frame.IncPinCount()

	b.pageTable[id] = fid
	return frame, id
}

// FetchPage pins id into a frame, reading it from disk if it is not
// already resident, and returns it. Returns nil if the pool is exhausted
// and id is not already resident.
func (b *BufferPoolManager) FetchPage(id types.PageID) *page.Page {
	b.mu.Lock()
	defer b.mu.Unlock()

	if fid, ok := b.pageTable[id]; ok {
		frame := &b.frames[fid]
		if frame.GetPageId() != id {
			panic(fmt.Sprintf("buffer: page table frame %d maps to %d, found %d", fid, id, frame.GetPageId()))
		}
		b.replacer.RecordAccess(fid)
		b.replacer.SetEvictable(fid, false)
		frame.IncPinCount()
		return frame
	}

	fid, ok := b.newFrameUnlocked()
	if !ok {
		return nil
	}
	b.replacer.RecordAccess(fid)
	b.replacer.SetEvictable(fid, false)

	frame := &b.frames[fid]
	frame.ResetMemory(id)
	if err := b.disk.ReadPage(id, frame.Data()); err != nil {
		panic(fmt.Sprintf("buffer: reading page %d: %v", id, err))
	}
	frame.IncPinCount()

	b.pageTable[id] = fid
	return frame
}

// UnpinPage releases one pin on id, making its frame evictable once the
// pin count reaches zero, and ORs isDirty into the page's dirty flag.
// Reports false if id is not resident or is already unpinned.
func (b *BufferPoolManager) UnpinPage(id types.PageID, isDirty bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	fid, ok := b.pageTable[id]
	if !ok || b.frames[fid].PinCount() == 0 {
		return false
	}
	frame := &b.frames[fid]
	frame.DecPinCount()
	if frame.PinCount() == 0 {
		b.replacer.SetEvictable(fid, true)
	}
	if isDirty {
		frame.SetDirty(true)
	}
	return true
}

// FlushPage writes id's frame back to disk unconditionally, whether or
// not it is dirty, and clears the dirty flag. Reports false if id is not
// resident.
func (b *BufferPoolManager) FlushPage(id types.PageID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	fid, ok := b.pageTable[id]
	if !ok {
		return false
	}
	frame := &b.frames[fid]
	if err := b.disk.WritePage(id, frame.Data()); err != nil {
		panic(fmt.Sprintf("buffer: flushing page %d: %v", id, err))
	}
	frame.SetDirty(false)
	return true
}

// FlushAllPages flushes every resident page, dirty or not.
func (b *BufferPoolManager) FlushAllPages() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, fid := range b.pageTable {
		frame := &b.frames[fid]
		if err := b.disk.WritePage(id, frame.Data()); err != nil {
			panic(fmt.Sprintf("buffer: flushing page %d: %v", id, err))
		}
		frame.SetDirty(false)
	}
}

// DeletePage evicts id from the pool and frees its disk page. Reports
// true if id was already absent. Reports false, changing nothing, if id
// is still pinned.
func (b *BufferPoolManager) DeletePage(id types.PageID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	fid, ok := b.pageTable[id]
	if !ok {
		return true
	}
	frame := &b.frames[fid]
	if frame.PinCount() > 0 {
		return false
	}

	if frame.IsDirty() {
		if err := b.disk.WritePage(id, frame.Data()); err != nil {
			panic(fmt.Sprintf("buffer: flushing deleted page %d: %v", id, err))
		}
	}
	frame.ResetMemory(types.InvalidPageID)
	b.replacer.Remove(fid)
	delete(b.pageTable, id)
	b.disk.DeallocatePage(id)

	b.freeList = append(b.freeList, fid)
	return true
}

// FetchPageBasic fetches id and wraps it in a BasicPageGuard.
func (b *BufferPoolManager) FetchPageBasic(id types.PageID) page.BasicPageGuard {
	return page.NewBasicPageGuard(b, b.FetchPage(id))
}

// FetchPageRead fetches id, takes its read latch, and wraps it in a
// ReadPageGuard.
func (b *BufferPoolManager) FetchPageRead(id types.PageID) page.ReadPageGuard {
	return page.NewReadPageGuard(b, b.FetchPage(id))
}

// FetchPageWrite fetches id, takes its write latch, and wraps it in a
// WritePageGuard.
func (b *BufferPoolManager) FetchPageWrite(id types.PageID) page.WritePageGuard {
	return page.NewWritePageGuard(b, b.FetchPage(id))
}

// NewPageGuarded allocates a fresh page and wraps it in a BasicPageGuard,
// reporting its id alongside.
func (b *BufferPoolManager) NewPageGuarded() (page.BasicPageGuard, types.PageID) {
	frame, id := b.NewPage()
	return page.NewBasicPageGuard(b, frame), id
}

// NewPageGuardedWrite allocates a fresh page and wraps it in a
// WritePageGuard, reporting its id alongside. Not part of the original's
// surface, added since every B+ tree node this module creates is
// immediately written to (Init'd) before anything else can see it.
func (b *BufferPoolManager) NewPageGuardedWrite() (page.WritePageGuard, types.PageID) {
	frame, id := b.NewPage()
	return page.NewWritePageGuard(b, frame), id
}
