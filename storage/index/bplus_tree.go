// Package index implements a concurrent B+ tree index on top of the
// buffer pool: search, path descent with latch crabbing, insertion with
// propagating splits, deletion with borrow/merge rebalancing, and a
// forward range iterator. Grounded throughout on BusTub's BPlusTree
// (storage/index/b_plus_tree.cpp), translated from the C++ original's
// template parameters into Go generics plus explicit codec values, since
// Go generics cannot parameterize a type on an integer key width the way
// the original's GenericKey<N> does.
package index

import (
	"fmt"

	"github.com/ryogrid/bptreestore/storage/buffer"
	"github.com/ryogrid/bptreestore/storage/page"
	"github.com/ryogrid/bptreestore/types"
)

// BPlusTree is a disk-backed B+ tree index mapping keys of type K to
// values of type V, built on a BufferPoolManager. A tree instance owns
// one header page, fetched through every operation to find the current
// root.
type BPlusTree[K any, V any] struct {
	bpm             *buffer.BufferPoolManager
	headerPageID    types.PageID
	keyCodec        page.KeyCodec[K]
	valCodec        page.ValueCodec[V]
	leafMaxSize     int
	internalMaxSize int
}

// New creates an empty B+ tree backed by bpm, allocating its header page.
// leafMaxSize and internalMaxSize bound how many entries a leaf or
// internal page may hold before it splits.
func New[K any, V any](bpm *buffer.BufferPoolManager, keyCodec page.KeyCodec[K], valCodec page.ValueCodec[V], leafMaxSize, internalMaxSize int) (*BPlusTree[K, V], error) {
	guard, id := bpm.NewPageGuardedWrite()
	if id == types.InvalidPageID {
		return nil, fmt.Errorf("index: allocating header page: buffer pool exhausted")
	}
	header := page.NewTreeHeaderPage(guard.Data())
	header.SetRootPageId(types.InvalidPageID)
	guard.Drop()

	return &BPlusTree[K, V]{
		bpm:             bpm,
		headerPageID:    id,
		keyCodec:        keyCodec,
		valCodec:        valCodec,
		leafMaxSize:     leafMaxSize,
		internalMaxSize: internalMaxSize,
	}, nil
}

// IsEmpty reports whether the tree currently has no root.
func (t *BPlusTree[K, V]) IsEmpty() bool {
	return t.GetRootPageId() == types.InvalidPageID
}

// GetRootPageId returns the tree's current root page id, or
// types.InvalidPageID if the tree is empty.
func (t *BPlusTree[K, V]) GetRootPageId() types.PageID {
	guard := t.bpm.FetchPageRead(t.headerPageID)
	defer guard.Drop()
	return page.NewTreeHeaderPage(guard.Data()).RootPageId()
}

func (t *BPlusTree[K, V]) internalView(g *page.WritePageGuard) *page.InternalPage[K] {
	return page.NewInternalPage[K](g.Data(), t.keyCodec)
}

func (t *BPlusTree[K, V]) leafView(g *page.WritePageGuard) *page.LeafPage[K, V] {
	return page.NewLeafPage[K, V](g.Data(), t.keyCodec, t.valCodec)
}

// findPath descends from the root toward key, latching every page it
// visits and pushing the guard onto ctx's write or read stack depending
// on write, and records the root page id it observed. Grounded on
// BPlusTree::FindPath: write mode fetches the header page for write and
// keeps that guard and every descended guard alive in ctx for the whole
// operation (the pessimistic, whole-path-locked protocol); read mode only
// holds the header guard long enough to read the root id, and drops each
// parent's read guard once its child's is held, so the read stack ends
// holding just the leaf.
func (t *BPlusTree[K, V]) findPath(key K, ctx *context, write bool) {
	var rootPageID types.PageID

	if write {
		guard := t.bpm.FetchPageWrite(t.headerPageID)
		ctx.headerGuard = &guard
		rootPageID = page.NewTreeHeaderPage(guard.Data()).RootPageId()
	} else {
		guard := t.bpm.FetchPageRead(t.headerPageID)
		rootPageID = page.NewTreeHeaderPage(guard.Data()).RootPageId()
		guard.Drop()
	}

	ctx.writeSet = ctx.writeSet[:0]
	ctx.readSet = ctx.readSet[:0]
	ctx.rootPageID = rootPageID

	if rootPageID == types.InvalidPageID {
		return
	}

	currentID := rootPageID
	for {
		var data []byte
		if write {
			guard := t.bpm.FetchPageWrite(currentID)
			ctx.writeSet = append(ctx.writeSet, guard)
			data = ctx.peekWrite().Data()
		} else {
			guard := t.bpm.FetchPageRead(currentID)
			if n := len(ctx.readSet); n > 0 {
				ctx.readSet[n-1].Drop()
				ctx.readSet = ctx.readSet[:n-1]
			}
			ctx.readSet = append(ctx.readSet, guard)
			data = ctx.peekRead().Data()
		}

		if page.PageTypeOf(data) == page.LeafPageType {
			return
		}

		internal := page.NewInternalPage[K](data, t.keyCodec)
		currentID = internal.Lookup(key)
		if currentID == types.InvalidPageID {
			panic("index: descended to an invalid child page id")
		}
	}
}

// GetValue looks up key, reporting its value and whether it was found.
func (t *BPlusTree[K, V]) GetValue(key K) (V, bool) {
	var ctx context
	defer ctx.release()

	t.findPath(key, &ctx, false)

	var zero V
	if ctx.rootPageID == types.InvalidPageID {
		return zero, false
	}
	leafGuard := ctx.peekRead()
	leaf := page.NewLeafPage[K, V](leafGuard.Data(), t.keyCodec, t.valCodec)
	return leaf.Lookup(key)
}

// Insert adds key/value to the tree, splitting leaves and internal pages
// as needed on the way back up. Reports false, changing nothing, if key
// is already present: this tree does not support duplicate keys.
// Grounded on BPlusTree::Insert/InsertInParent/ChangeRoot.
func (t *BPlusTree[K, V]) Insert(key K, value V) bool {
	var ctx context
	defer ctx.release()

	t.findPath(key, &ctx, true)

	if ctx.rootPageID == types.InvalidPageID {
		guard, id := t.bpm.NewPageGuardedWrite()
		if id == types.InvalidPageID {
			panic("index: out of memory allocating root leaf page")
		}
		leaf := page.NewLeafPage[K, V](guard.Data(), t.keyCodec, t.valCodec)
		leaf.Init(t.leafMaxSize)
		leaf.Insert(key, value)
		guard.Drop()

		page.NewTreeHeaderPage(ctx.headerGuard.Data()).SetRootPageId(id)
		return true
	}

	leafGuard := ctx.peekWrite()
	leaf := t.leafView(leafGuard)

	if _, exists := leaf.Lookup(key); exists {
		return false
	}

	leaf.Insert(key, value)
	if leaf.Size() >= leaf.MaxSize() {
		newGuard, newID := t.bpm.NewPageGuardedWrite()
		if newID == types.InvalidPageID {
			panic("index: out of memory splitting leaf page")
		}
		newLeaf := page.NewLeafPage[K, V](newGuard.Data(), t.keyCodec, t.valCodec)
		newLeaf.Init(t.leafMaxSize)

		leaf.Split(newLeaf)
		newLeaf.SetNextPageId(leaf.GetNextPageId())
		leaf.SetNextPageId(newID)

		leftID := leafGuard.PageId()
		upKey := newLeaf.KeyAt(0)
		newGuard.Drop()

		t.insertInParent(leftID, upKey, newID, &ctx)
	}
	return true
}

// insertInParent links rightChild into leftChild's parent under key,
// splitting that parent (and its ancestors, recursively) if it overflows,
// and grows the tree by one level if leftChild had no parent. Grounded on
// BPlusTree::InsertInParent.
func (t *BPlusTree[K, V]) insertInParent(leftChild types.PageID, key K, rightChild types.PageID, ctx *context) {
	child := ctx.popWrite()
	child.Drop()

	if len(ctx.writeSet) == 0 {
		t.changeRoot(leftChild, key, rightChild, ctx)
		return
	}

	for len(ctx.writeSet) > 0 {
		parentGuard := ctx.popWrite()
		parent := t.internalView(&parentGuard)
		parent.Insert(leftChild, key, rightChild)

		if parent.Size() <= parent.MaxSize() {
			parentGuard.Drop()
			return
		}

		newGuard, newID := t.bpm.NewPageGuardedWrite()
		if newID == types.InvalidPageID {
			panic("index: out of memory splitting internal page")
		}
		newInternal := page.NewInternalPage[K](newGuard.Data(), t.keyCodec)
		newInternal.Init(t.internalMaxSize)

		midKey := parent.Split(newInternal)

		leftChild = parentGuard.PageId()
		key = midKey
		rightChild = newID

		parentGuard.Drop()
		newGuard.Drop()
	}

	t.changeRoot(leftChild, key, rightChild, ctx)
}

// changeRoot builds a brand new internal root with exactly leftChild and
// rightChild as its two children, growing the tree by one level.
func (t *BPlusTree[K, V]) changeRoot(leftChild types.PageID, key K, rightChild types.PageID, ctx *context) {
	guard, id := t.bpm.NewPageGuardedWrite()
	if id == types.InvalidPageID {
		panic("index: out of memory allocating new root page")
	}
	root := page.NewInternalPage[K](guard.Data(), t.keyCodec)
	root.Init(t.internalMaxSize)
	root.PopulateNewRoot(leftChild, key, rightChild)
	guard.Drop()

	page.NewTreeHeaderPage(ctx.headerGuard.Data()).SetRootPageId(id)
}

// Remove deletes key from the tree, if present, borrowing from or merging
// with a sibling leaf whenever the deletion leaves it under-full.
// Grounded on BPlusTree::Remove/RemoveInParent.
func (t *BPlusTree[K, V]) Remove(key K) {
	var ctx context
	defer ctx.release()

	t.findPath(key, &ctx, true)
	if ctx.rootPageID == types.InvalidPageID {
		return
	}

	leafGuard := ctx.popWrite()
	leaf := t.leafView(&leafGuard)

	if !leaf.Remove(key) {
		leafGuard.Drop()
		return
	}

	if ctx.isRootPage(leafGuard.PageId()) {
		if leaf.Size() == 0 {
			id := leafGuard.PageId()
			leafGuard.Drop()
			t.bpm.DeletePage(id)
			page.NewTreeHeaderPage(ctx.headerGuard.Data()).SetRootPageId(types.InvalidPageID)
			return
		}
		leafGuard.Drop()
		return
	}

	if leaf.Size() >= page.LeafMinSize(leaf.MaxSize()) {
		leafGuard.Drop()
		return
	}

	if len(ctx.writeSet) == 0 {
		panic("index: non-root leaf has no parent on write path")
	}
	parentGuard := ctx.peekWrite()
	parent := t.internalView(parentGuard)

	index := parent.KeyIndex(key)
	if index < parent.Size() && parent.KeyEqual(key, index) {
		index++
	}
	if index-1 < 0 || parent.ValueAt(index-1) != leafGuard.PageId() {
		panic("index: parent separator does not match deleted leaf")
	}

	switch {
	case index-2 >= 0:
		leftGuard := t.bpm.FetchPageWrite(parent.ValueAt(index - 2))
		leftSibling := t.leafView(&leftGuard)

		if leftSibling.Size() > page.LeafMinSize(leftSibling.MaxSize()) {
			borrowed := leftSibling.MoveLastToFrontOf(leaf)
			parent.SetKeyAt(index-1, borrowed)
			leftGuard.Drop()
			leafGuard.Drop()
			return
		}

		leaf.MoveAllTo(leftSibling)
		t.removeInParent(index-1, ctx)

		id := leafGuard.PageId()
		leafGuard.Drop()
		leftGuard.Drop()
		t.bpm.DeletePage(id)

	case index < parent.Size():
		rightGuard := t.bpm.FetchPageWrite(parent.ValueAt(index))
		rightSibling := t.leafView(&rightGuard)

		if rightSibling.Size() > page.LeafMinSize(rightSibling.MaxSize()) {
			borrowed := rightSibling.MoveFirstToEndOf(leaf)
			parent.SetKeyAt(index, borrowed)
			rightGuard.Drop()
			leafGuard.Drop()
			return
		}

		rightSibling.MoveAllTo(leaf)
		t.removeInParent(index, ctx)

		id := rightGuard.PageId()
		rightGuard.Drop()
		leafGuard.Drop()
		t.bpm.DeletePage(id)

	default:
		leafGuard.Drop()
	}
}

// removeInParent removes the separator at idx from the current top of
// ctx.writeSet (an internal page whose child just merged away), and keeps
// walking up, borrowing from or merging with a sibling internal page at
// each level that falls under-full, exactly as Remove does for leaves.
// Grounded on BPlusTree::RemoveInParent.
func (t *BPlusTree[K, V]) removeInParent(idx int, ctx *context) {
	childGuard := ctx.popWrite()
	child := t.internalView(&childGuard)

	for len(ctx.writeSet) > 0 {
		parentGuard := ctx.peekWrite()
		parent := t.internalView(parentGuard)
		idxKey := child.KeyAt(idx)

		child.Remove(idx)

		if child.Size() >= page.InternalMinSize(child.MaxSize()) {
			childGuard.Drop()
			return
		}

		index := parent.KeyIndex(idxKey)
		if index < parent.Size() && parent.KeyEqual(idxKey, index) {
			index++
		}
		if index-1 < 0 || parent.ValueAt(index-1) != childGuard.PageId() {
			panic("index: parent separator does not match merged child")
		}

		switch {
		case index-2 >= 0:
			leftGuard := t.bpm.FetchPageWrite(parent.ValueAt(index - 2))
			leftSibling := t.internalView(&leftGuard)

			if leftSibling.Size() > page.InternalMinSize(leftSibling.MaxSize()) {
				borrowed := leftSibling.MoveLastToFrontOf(child, parent.KeyAt(index-1))
				parent.SetKeyAt(index-1, borrowed)
				leftGuard.Drop()
				childGuard.Drop()
				return
			}

			child.MoveAllTo(leftSibling, parent.KeyAt(index-1))
			idx = index - 1

			id := childGuard.PageId()
			childGuard.Drop()
			leftGuard.Drop()
			t.bpm.DeletePage(id)

		case index < parent.Size():
			rightGuard := t.bpm.FetchPageWrite(parent.ValueAt(index))
			rightSibling := t.internalView(&rightGuard)

			if rightSibling.Size() > page.InternalMinSize(rightSibling.MaxSize()) {
				borrowed := rightSibling.MoveFirstToEndOf(child, parent.KeyAt(index))
				parent.SetKeyAt(index, borrowed)
				rightGuard.Drop()
				childGuard.Drop()
				return
			}

			rightSibling.MoveAllTo(child, parent.KeyAt(index))
			idx = index

			id := rightGuard.PageId()
			rightGuard.Drop()
			childGuard.Drop()
			t.bpm.DeletePage(id)

		default:
			panic("index: internal page underflow with no sibling")
		}

		childGuard = ctx.popWrite()
		child = t.internalView(&childGuard)
	}

	child.Remove(idx)
	if child.Size() == 1 {
		newRootID := child.ValueAt(0)
		id := childGuard.PageId()
		childGuard.Drop()
		t.bpm.DeletePage(id)
		page.NewTreeHeaderPage(ctx.headerGuard.Data()).SetRootPageId(newRootID)
		return
	}
	childGuard.Drop()
}
