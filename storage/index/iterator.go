package index

import (
	"github.com/ryogrid/bptreestore/storage/page"
	"github.com/ryogrid/bptreestore/types"
)

// Iterator walks a B+ tree's leaves in key order, holding a read latch on
// whichever leaf it currently points into and releasing it the moment it
// crosses into the next leaf. Grounded on BusTub's IndexIterator
// (index_iterator.cpp): Go has no destructor to release the final guard
// automatically, so callers that stop iterating before IsEnd must call
// Close.
type Iterator[K any, V any] struct {
	tree   *BPlusTree[K, V]
	leafID types.PageID
	offset int
	guard  *page.ReadPageGuard
}

func newIterator[K any, V any](t *BPlusTree[K, V], leafID types.PageID, offset int) *Iterator[K, V] {
	it := &Iterator[K, V]{tree: t, leafID: leafID, offset: offset}
	if leafID != types.InvalidPageID {
		g := t.bpm.FetchPageRead(leafID)
		it.guard = &g
	}
	it.normalize()
	return it
}

// Begin returns an iterator over the whole tree, positioned at its
// smallest key.
func (t *BPlusTree[K, V]) Begin() *Iterator[K, V] {
	rootID := t.GetRootPageId()
	if rootID == types.InvalidPageID {
		return newIterator[K, V](t, types.InvalidPageID, 0)
	}

	currentID := rootID
	for {
		guard := t.bpm.FetchPageRead(currentID)
		if page.PageTypeOf(guard.Data()) == page.LeafPageType {
			leafID := guard.PageId()
			guard.Drop()
			return newIterator[K, V](t, leafID, 0)
		}
		internal := page.NewInternalPage[K](guard.Data(), t.keyCodec)
		currentID = internal.ValueAt(0)
		guard.Drop()
	}
}

// BeginAt returns an iterator positioned at the first key >= key.
func (t *BPlusTree[K, V]) BeginAt(key K) *Iterator[K, V] {
	var ctx context
	defer ctx.release()

	t.findPath(key, &ctx, false)
	if ctx.rootPageID == types.InvalidPageID {
		return newIterator[K, V](t, types.InvalidPageID, 0)
	}

	leafGuard := ctx.peekRead()
	leaf := page.NewLeafPage[K, V](leafGuard.Data(), t.keyCodec, t.valCodec)
	offset := leaf.KeyIndex(key)
	leafID := leafGuard.PageId()
	return newIterator[K, V](t, leafID, offset)
}

// End returns the sentinel past-the-end iterator.
func (t *BPlusTree[K, V]) End() *Iterator[K, V] {
	return newIterator[K, V](t, types.InvalidPageID, 0)
}

// IsEnd reports whether the iterator has advanced past the tree's last
// entry.
func (it *Iterator[K, V]) IsEnd() bool {
	return it.leafID == types.InvalidPageID
}

func (it *Iterator[K, V]) leaf() *page.LeafPage[K, V] {
	return page.NewLeafPage[K, V](it.guard.Data(), it.tree.keyCodec, it.tree.valCodec)
}

// normalize crosses into however many following leaves are needed until
// offset indexes a real entry of the current leaf, or the iterator runs
// off the right edge of the tree and becomes End. Grounded on
// IndexIterator::operator*, which re-fetches GetNextPageId() whenever
// offset_ >= GetSize() before reading: BeginAt can land offset exactly on
// a leaf's Size() (key greater than everything in that leaf), and Next
// can walk an entry past a leaf's last slot, so both call through here
// rather than assuming one cross is always enough.
func (it *Iterator[K, V]) normalize() {
	for !it.IsEnd() {
		if it.offset < it.leaf().Size() {
			return
		}
		nextID := it.leaf().GetNextPageId()
		it.guard.Drop()
		it.guard = nil
		it.offset = 0
		it.leafID = nextID
		if nextID != types.InvalidPageID {
			g := it.tree.bpm.FetchPageRead(nextID)
			it.guard = &g
		}
	}
}

// Entry returns the (key, value) pair the iterator currently points to.
// Must not be called once IsEnd is true.
func (it *Iterator[K, V]) Entry() (K, V) {
	if it.IsEnd() {
		panic("index: Entry called on an exhausted iterator")
	}
	return it.leaf().EntryAt(it.offset)
}

// Next advances the iterator by one entry, crossing into however many
// following leaves are needed to land on a real entry or become End.
func (it *Iterator[K, V]) Next() {
	if it.IsEnd() {
		panic("index: Next called on an exhausted iterator")
	}
	it.offset++
	it.normalize()
}

// Close releases the iterator's held latch, if any, without advancing.
// Safe to call on an already-exhausted or already-closed iterator.
func (it *Iterator[K, V]) Close() {
	if it.guard != nil {
		it.guard.Drop()
		it.guard = nil
	}
	it.leafID = types.InvalidPageID
}
