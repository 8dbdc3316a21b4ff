package page

import (
	"encoding/binary"

	"github.com/ryogrid/bptreestore/types"
)

// InternalPage is a B+ tree internal node: max_size children separated by
// max_size-1 keys, laid out as max_size (key, child_page_id) slots where
// slot 0's key is never read or written — only its value, the leftmost
// child, matters. Grounded on BusTub's BPlusTreeInternalPage
// (b_plus_tree_internal_page.cpp).
type InternalPage[K any] struct {
	pageHeader
	keyCodec KeyCodec[K]
}

// NewInternalPage wraps data as an internal-page view using codec for key
// encoding and comparison.
func NewInternalPage[K any](data []byte, codec KeyCodec[K]) *InternalPage[K] {
	return &InternalPage[K]{pageHeader: pageHeader{data: data}, keyCodec: codec}
}

func (p *InternalPage[K]) slotSize() int {
	return p.keyCodec.Size() + 4
}

func (p *InternalPage[K]) slotOffset(i int) int {
	return commonHeaderSize + i*p.slotSize()
}

// Init resets the page to an empty internal node with the given capacity.
func (p *InternalPage[K]) Init(maxSize int) {
	p.setPageType(InternalPageType)
	p.setSize(0)
	p.setMaxSize(maxSize)
}

// KeyAt returns the key stored at slot i. Slot 0's key is never
// meaningful and callers must not rely on it.
func (p *InternalPage[K]) KeyAt(i int) K {
	off := p.slotOffset(i)
	return p.keyCodec.Decode(p.data[off : off+p.keyCodec.Size()])
}

func (p *InternalPage[K]) SetKeyAt(i int, k K) {
	off := p.slotOffset(i)
	p.keyCodec.Encode(p.data[off:off+p.keyCodec.Size()], k)
}

// ValueAt returns the child page id stored at slot i.
func (p *InternalPage[K]) ValueAt(i int) types.PageID {
	off := p.slotOffset(i) + p.keyCodec.Size()
	return types.PageID(int32(binary.LittleEndian.Uint32(p.data[off : off+4])))
}

func (p *InternalPage[K]) setValueAt(i int, v types.PageID) {
	off := p.slotOffset(i) + p.keyCodec.Size()
	binary.LittleEndian.PutUint32(p.data[off:off+4], uint32(int32(v)))
}

// KeyIndex returns the index of the first key >= key among slots
// [1, Size()), via binary search, the same search BusTub's KeyIndex does
// to find where a search key's child pointer lives. Returns Size() if
// every key is smaller.
func (p *InternalPage[K]) KeyIndex(key K) int {
	lo, hi := 1, p.Size()
	for lo < hi {
		mid := (lo + hi) / 2
		if p.keyCodec.Compare(p.KeyAt(mid), key) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// KeyEqual reports whether the key stored at slot i equals key.
func (p *InternalPage[K]) KeyEqual(key K, i int) bool {
	return p.keyCodec.Compare(p.KeyAt(i), key) == 0
}

// Lookup returns the child page id to descend into for key: the value at
// the last slot whose key is <= key, or slot 0's value if key is smaller
// than every separator.
func (p *InternalPage[K]) Lookup(key K) types.PageID {
	idx := p.KeyIndex(key)
	if idx < p.Size() && p.keyCodec.Compare(p.KeyAt(idx), key) == 0 {
		return p.ValueAt(idx)
	}
	return p.ValueAt(idx - 1)
}

// ValueIndex returns the slot holding child page id v, or -1.
func (p *InternalPage[K]) ValueIndex(v types.PageID) int {
	for i := 0; i < p.Size(); i++ {
		if p.ValueAt(i) == v {
			return i
		}
	}
	return -1
}

// PopulateNewRoot sets this (freshly Init'd) page up as a new root with
// exactly two children, grounded on BusTub's InsertInParent constructing
// the tree's new root after the old root splits.
func (p *InternalPage[K]) PopulateNewRoot(left types.PageID, key K, right types.PageID) {
	p.setValueAt(0, left)
	p.SetKeyAt(1, key)
	p.setValueAt(1, right)
	p.setSize(2)
}

// Insert places (key, value) immediately after the child pointer to
// left, shifting every later slot right by one. Grounded on
// BPlusTreeInternalPage::Insert.
func (p *InternalPage[K]) Insert(left types.PageID, key K, value types.PageID) {
	idx := p.ValueIndex(left) + 1
	for i := p.Size(); i > idx; i-- {
		p.copySlot(i, i-1)
	}
	p.SetKeyAt(idx, key)
	p.setValueAt(idx, value)
	p.setSize(p.Size() + 1)
}

func (p *InternalPage[K]) copySlot(dst, src int) {
	copy(p.data[p.slotOffset(dst):p.slotOffset(dst)+p.slotSize()],
		p.data[p.slotOffset(src):p.slotOffset(src)+p.slotSize()])
}

// Remove deletes the slot at index i, shifting later slots left.
// Grounded on BPlusTreeInternalPage::Remove (used during merge/borrow).
func (p *InternalPage[K]) Remove(i int) {
	for j := i; j < p.Size()-1; j++ {
		p.copySlot(j, j+1)
	}
	p.setSize(p.Size() - 1)
}

// Split moves the upper half of p's slots onto the end of (empty) dst,
// for when p has grown past its max size, and returns the key that must
// be promoted to p's parent. dst's slot 0 value is p's slot-mid value,
// the same way slot 0 never carries a meaningful key. Grounded on the
// internal-page split in InsertInParent (b_plus_tree.cpp).
func (p *InternalPage[K]) Split(dst *InternalPage[K]) (midKey K) {
	mid := p.Size() / 2
	midKey = p.KeyAt(mid)
	dst.setValueAt(0, p.ValueAt(mid))
	dst.setSize(1)
	for i := mid + 1; i < p.Size(); i++ {
		dst.SetKeyAt(dst.Size(), p.KeyAt(i))
		dst.setValueAt(dst.Size(), p.ValueAt(i))
		dst.setSize(dst.Size() + 1)
	}
	p.setSize(mid)
	return midKey
}

// MoveAllTo appends every slot of p onto the end of dst, used when p
// merges into its left sibling. middleKey becomes dst's separator for
// p's slot 0 value, since slot 0's key was never meaningful in p itself.
func (p *InternalPage[K]) MoveAllTo(dst *InternalPage[K], middleKey K) {
	dst.SetKeyAt(dst.Size(), middleKey)
	dst.setValueAt(dst.Size(), p.ValueAt(0))
	dst.setSize(dst.Size() + 1)
	for i := 1; i < p.Size(); i++ {
		dst.SetKeyAt(dst.Size(), p.KeyAt(i))
		dst.setValueAt(dst.Size(), p.ValueAt(i))
		dst.setSize(dst.Size() + 1)
	}
	p.setSize(0)
}

// MoveFirstToEndOf moves p's slot-0 child onto the end of dst under
// middleKey (the parent separator), since p's own slot-0 key is never
// meaningful, and returns p's old slot-1 key, which must become the new
// parent separator.
// Grounded on BPlusTreeInternalPage redistribution during Remove/borrow.
func (p *InternalPage[K]) MoveFirstToEndOf(dst *InternalPage[K], middleKey K) (newSeparator K) {
	newSeparator = p.KeyAt(1)
	dst.SetKeyAt(dst.Size(), middleKey)
	dst.setValueAt(dst.Size(), p.ValueAt(0))
	dst.setSize(dst.Size() + 1)
	p.Remove(0)
	return newSeparator
}

// MoveLastToFrontOf moves p's last child into dst's slot 0, shifting dst's
// slots right by one and storing middleKey (the parent separator) as the
// key in front of dst's old first child, and returns p's last key, which
// must become the new parent separator.
func (p *InternalPage[K]) MoveLastToFrontOf(dst *InternalPage[K], middleKey K) (newSeparator K) {
	lastIdx := p.Size() - 1
	lastKeyHolder := p.ValueAt(lastIdx)
	newSeparator = p.KeyAt(lastIdx)

	for i := dst.Size(); i > 0; i-- {
		dst.copySlot(i, i-1)
	}
	dst.SetKeyAt(1, middleKey)
	dst.setValueAt(0, lastKeyHolder)
	dst.setSize(dst.Size() + 1)

	p.setSize(p.Size() - 1)
	return newSeparator
}
