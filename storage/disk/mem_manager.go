package disk

import (
	"fmt"
	"sync"

	"github.com/dsnet/golib/memfile"
	"github.com/ryogrid/bptreestore/types"
)

// MemManager is a disk.Manager over an in-memory file, grounded on the
// teacher's own ParentBufMgrDummy (parent_buf_mgr_dummy.go): a store-only
// stand-in that lets buffer pool and B+ tree tests run without touching a
// real filesystem. Unlike the teacher's dummy, which keeps whole ParentPage
// values in a map, this one behaves like a real disk manager backed by
// memfile.File so the same ReadAt/WriteAt codepath used by FileManager is
// exercised in tests.
type MemManager struct {
	mu       sync.Mutex
	f        *memfile.File
	pageSize int
	nextID   int32
	freeIDs  []types.PageID
}

// NewMemManager creates an empty in-memory disk manager for pageSize-byte
// pages.
func NewMemManager(pageSize int) *MemManager {
	return &MemManager{
		f:        memfile.New(nil),
		pageSize: pageSize,
	}
}

func (m *MemManager) PageSize() int { return m.pageSize }

func (m *MemManager) offset(id types.PageID) int64 {
	return int64(id) * int64(m.pageSize)
}

func (m *MemManager) ReadPage(id types.PageID, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	buf := make([]byte, m.pageSize)
	n, err := m.f.ReadAt(buf, m.offset(id))
	if err != nil && n == 0 {
		// a never-written page reads back as zeroes, same as a freshly
		// extended file on a real disk.
		copy(data, buf)
		return nil
	}
	copy(data, buf)
	return nil
}

func (m *MemManager) WritePage(id types.PageID, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	buf := make([]byte, m.pageSize)
	copy(buf, data)
	if _, err := m.f.WriteAt(buf, m.offset(id)); err != nil {
		return fmt.Errorf("disk: write page %d: %w", id, err)
	}
	return nil
}

func (m *MemManager) AllocatePage() types.PageID {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n := len(m.freeIDs); n > 0 {
		id := m.freeIDs[n-1]
		m.freeIDs = m.freeIDs[:n-1]
		return id
	}
	id := types.PageID(m.nextID)
	m.nextID++
	return id
}

func (m *MemManager) DeallocatePage(id types.PageID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.freeIDs = append(m.freeIDs, id)
}

func (m *MemManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.f.Close()
}
