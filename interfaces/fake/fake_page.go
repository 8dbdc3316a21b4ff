// Package fake is a minimal, in-memory implementation of the
// interfaces.ParentBufMgr/ParentPage embedding contract, independent of
// this module's own buffer pool, for tests that want to exercise the
// embedding contract itself rather than the storage engine behind it.
// Adapted from the teacher's parent_page_dummy.go.
package fake

import (
	"sync/atomic"

	"github.com/ryogrid/bptreestore/interfaces"
)

// Page is a sample ParentPage: a fixed 4KB buffer with an atomic pin
// count, nothing more.
type Page struct {
	pageID   int32
	pinCount int32
	data     [4096]byte
}

// NewPage wraps data as a ParentPage with the given id and initial pin
// count.
func NewPage(pageID int32, initialPinCount int32, data [4096]byte) interfaces.ParentPage {
	return &Page{pageID: pageID, pinCount: initialPinCount, data: data}
}

func (p *Page) DecPPinCount() {
	atomic.AddInt32(&p.pinCount, -1)
}

func (p *Page) PPinCount() int32 {
	return atomic.LoadInt32(&p.pinCount)
}

func (p *Page) GetPPageId() int32 {
	return p.pageID
}

func (p *Page) DataAsSlice() []byte {
	return p.data[:]
}
