package buffer

import (
	"testing"

	"github.com/ryogrid/bptreestore/storage/disk"
	"github.com/ryogrid/bptreestore/types"
)

func TestParentBufMgrImpl_NewFetchUnpinDeallocate(t *testing.T) {
	d := disk.NewMemManager(types.PageSize)
	defer d.Close()
	bpm := NewBufferPoolManager(4, d, 2)
	parent := NewParentBufMgrImpl(bpm)

	pg := parent.NewPPage()
	if pg == nil {
		t.Fatalf("NewPPage() = nil, want a page")
	}
	id := pg.GetPPageId()

	fetched := parent.FetchPPage(id)
	if fetched == nil || fetched.GetPPageId() != id {
		t.Fatalf("FetchPPage(%d) = %v, want a page with matching id", id, fetched)
	}

	if err := parent.UnpinPPage(id, false); err != nil {
		t.Fatalf("UnpinPPage() error = %v", err)
	}
	if err := parent.UnpinPPage(id, false); err != nil {
		t.Fatalf("second UnpinPPage() error = %v", err)
	}

	if err := parent.DeallocatePPage(id, false); err != nil {
		t.Fatalf("DeallocatePPage() error = %v", err)
	}
}

func TestParentBufMgrImpl_DeallocatePinnedPageErrors(t *testing.T) {
	d := disk.NewMemManager(types.PageSize)
	defer d.Close()
	bpm := NewBufferPoolManager(4, d, 2)
	parent := NewParentBufMgrImpl(bpm)

	pg := parent.NewPPage()
	if err := parent.DeallocatePPage(pg.GetPPageId(), false); err == nil {
		t.Fatalf("DeallocatePPage() on a still-pinned page = nil error, want non-nil")
	}
}
