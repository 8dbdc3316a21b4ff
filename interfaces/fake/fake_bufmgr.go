package fake

import (
	"sync"
	"sync/atomic"

	"github.com/ryogrid/bptreestore/interfaces"
)

var nextPageID int32

// BufMgr is a sample ParentBufMgr: pages live only in a map, with no
// capacity limit and no disk behind it. Adapted from the teacher's
// parent_buf_mgr_dummy.go.
type BufMgr struct {
	pageMap *sync.Map // key: pageID (int32), value: interfaces.ParentPage
}

// New creates a fake buffer manager, reusing baseMap if non-nil so a test
// can inspect or reconstruct state across multiple BufMgr values.
func New(baseMap *sync.Map) interfaces.ParentBufMgr {
	if baseMap != nil {
		return &BufMgr{pageMap: baseMap}
	}
	return &BufMgr{pageMap: &sync.Map{}}
}

func (b *BufMgr) FetchPPage(pageID int32) interfaces.ParentPage {
	val, ok := b.pageMap.Load(pageID)
	if !ok {
		panic("fake: unknown page id")
	}
	pg := val.(*Page)
	atomic.AddInt32(&pg.pinCount, 1)
	return pg
}

func (b *BufMgr) UnpinPPage(pageID int32, isDirty bool) error {
	val, ok := b.pageMap.Load(pageID)
	if !ok {
		panic("fake: unknown page id")
	}
	val.(interfaces.ParentPage).DecPPinCount()
	return nil
}

func (b *BufMgr) NewPPage() interfaces.ParentPage {
	id := atomic.AddInt32(&nextPageID, 1)
	pg := NewPage(id, 1, [4096]byte{}).(*Page)
	b.pageMap.Store(id, pg)
	return pg
}

func (b *BufMgr) DeallocatePPage(pageID int32, isNoWait bool) error {
	if _, ok := b.pageMap.Load(pageID); !ok {
		panic("fake: unknown page id")
	}
	b.pageMap.Delete(pageID)
	return nil
}
