// ParentBufMgrImpl adapts this module's own BufferPoolManager to the
// interfaces.ParentBufMgr contract, letting a host process embed this
// storage core's B+ tree the way it would embed any ParentBufMgr-shaped
// buffer pool. Grounded on the teacher's parent_bufmgr_impl.go, which
// wrote this same adapter against an externally-supplied BufferPoolManager
// type; here that type is the one this module itself defines in
// buffer_pool_manager.go.
package buffer

import (
	"fmt"

	"github.com/ryogrid/bptreestore/interfaces"
	"github.com/ryogrid/bptreestore/storage/page"
	"github.com/ryogrid/bptreestore/types"
)

type ParentBufMgrImpl struct {
	*BufferPoolManager
}

func NewParentBufMgrImpl(bpm *BufferPoolManager) interfaces.ParentBufMgr {
	return &ParentBufMgrImpl{bpm}
}

func (p *ParentBufMgrImpl) FetchPPage(pageID int32) interfaces.ParentPage {
	pg := p.FetchPage(types.PageID(pageID))
	if pg == nil {
		return nil
	}
	return &page.ParentPageImpl{Page: pg}
}

func (p *ParentBufMgrImpl) UnpinPPage(pageID int32, isDirty bool) error {
	if !p.UnpinPage(types.PageID(pageID), isDirty) {
		return fmt.Errorf("buffer: unpin page %d: not resident or already unpinned", pageID)
	}
	return nil
}

func (p *ParentBufMgrImpl) NewPPage() interfaces.ParentPage {
	pg, _ := p.NewPage()
	if pg == nil {
		return nil
	}
	return &page.ParentPageImpl{Page: pg}
}

// DeallocatePPage frees pageID's page. isNoWait is accepted for
// interface-compatibility with the teacher's embedding contract but
// ignored: this buffer pool's DeletePage call never blocks, it either
// succeeds immediately or reports the page still pinned.
func (p *ParentBufMgrImpl) DeallocatePPage(pageID int32, isNoWait bool) error {
	if !p.DeletePage(types.PageID(pageID)) {
		return fmt.Errorf("buffer: deallocate page %d: still pinned", pageID)
	}
	return nil
}
