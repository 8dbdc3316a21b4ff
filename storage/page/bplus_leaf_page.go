package page

import (
	"encoding/binary"

	"github.com/ryogrid/bptreestore/types"
)

// leafHeaderSize is commonHeaderSize plus the 4-byte next-page-id field
// every leaf carries for range scans.
const leafHeaderSize = commonHeaderSize + 4

// LeafPage is a B+ tree leaf node: max_size (key, value) slots plus a
// pointer to the next leaf in key order, for Iterator range scans.
// Grounded on BusTub's BPlusTreeLeafPage (b_plus_tree_leaf_page.cpp).
type LeafPage[K any, V any] struct {
	pageHeader
	keyCodec KeyCodec[K]
	valCodec ValueCodec[V]
}

// NewLeafPage wraps data as a leaf-page view.
func NewLeafPage[K any, V any](data []byte, keyCodec KeyCodec[K], valCodec ValueCodec[V]) *LeafPage[K, V] {
	return &LeafPage[K, V]{pageHeader: pageHeader{data: data}, keyCodec: keyCodec, valCodec: valCodec}
}

func (p *LeafPage[K, V]) slotSize() int {
	return p.keyCodec.Size() + p.valCodec.Size()
}

func (p *LeafPage[K, V]) slotOffset(i int) int {
	return leafHeaderSize + i*p.slotSize()
}

// Init resets the page to an empty leaf with the given capacity and no
// right sibling.
func (p *LeafPage[K, V]) Init(maxSize int) {
	p.setPageType(LeafPageType)
	p.setSize(0)
	p.setMaxSize(maxSize)
	p.SetNextPageId(types.InvalidPageID)
}

// GetNextPageId returns this leaf's right sibling, or
// types.InvalidPageID if it is the rightmost leaf.
func (p *LeafPage[K, V]) GetNextPageId() types.PageID {
	return types.PageID(int32(binary.LittleEndian.Uint32(p.data[commonHeaderSize : commonHeaderSize+4])))
}

// SetNextPageId updates this leaf's right sibling pointer.
func (p *LeafPage[K, V]) SetNextPageId(id types.PageID) {
	binary.LittleEndian.PutUint32(p.data[commonHeaderSize:commonHeaderSize+4], uint32(int32(id)))
}

// KeyAt returns the key stored at slot i.
func (p *LeafPage[K, V]) KeyAt(i int) K {
	off := p.slotOffset(i)
	return p.keyCodec.Decode(p.data[off : off+p.keyCodec.Size()])
}

func (p *LeafPage[K, V]) setKeyAt(i int, k K) {
	off := p.slotOffset(i)
	p.keyCodec.Encode(p.data[off:off+p.keyCodec.Size()], k)
}

// ValueAt returns the value stored at slot i.
func (p *LeafPage[K, V]) ValueAt(i int) V {
	off := p.slotOffset(i) + p.keyCodec.Size()
	return p.valCodec.Decode(p.data[off : off+p.valCodec.Size()])
}

func (p *LeafPage[K, V]) setValueAt(i int, v V) {
	off := p.slotOffset(i) + p.keyCodec.Size()
	p.valCodec.Encode(p.data[off:off+p.valCodec.Size()], v)
}

// EntryAt returns the (key, value) pair at slot i, what Iterator
// dereferences.
func (p *LeafPage[K, V]) EntryAt(i int) (K, V) {
	return p.KeyAt(i), p.ValueAt(i)
}

func (p *LeafPage[K, V]) copySlot(dst, src int) {
	copy(p.data[p.slotOffset(dst):p.slotOffset(dst)+p.slotSize()],
		p.data[p.slotOffset(src):p.slotOffset(src)+p.slotSize()])
}

// KeyIndex returns the index of the first slot whose key is >= key, via
// binary search. Returns Size() if every key is smaller.
func (p *LeafPage[K, V]) KeyIndex(key K) int {
	lo, hi := 0, p.Size()
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

// Lookup returns the value for key and true if key is present.
func (p *LeafPage[K, V]) Lookup(key K) (V, bool) {
	idx := p.KeyIndex(key)
	if idx < p.Size() && p.keyCodec.Compare(p.KeyAt(idx), key) == 0 {
		return p.ValueAt(idx), true
	}
	var zero V
	return zero, false
}

// Insert places (key, value) in sorted position, shifting later slots
// right. Reports false without modifying the page if key is already
// present, same contract as BPlusTreeLeafPage::Insert.
func (p *LeafPage[K, V]) Insert(key K, value V) bool {
	idx := p.KeyIndex(key)
	if idx < p.Size() && p.keyCodec.Compare(p.KeyAt(idx), key) == 0 {
		return false
	}
	for i := p.Size(); i > idx; i-- {
		p.copySlot(i, i-1)
	}
	p.setKeyAt(idx, key)
	p.setValueAt(idx, value)
	p.setSize(p.Size() + 1)
	return true
}

// Remove deletes key if present, shifting later slots left, and reports
// whether it was found.
func (p *LeafPage[K, V]) Remove(key K) bool {
	idx := p.KeyIndex(key)
	if idx >= p.Size() || p.keyCodec.Compare(p.KeyAt(idx), key) != 0 {
		return false
	}
	for i := idx; i < p.Size()-1; i++ {
		p.copySlot(i, i+1)
	}
	p.setSize(p.Size() - 1)
	return true
}

// Split moves the upper half of p's entries onto the end of (empty) dst,
// for when p has reached its max size. Grounded on the Insert-time
// leaf split in b_plus_tree.cpp, which moves
// [GetSize()/2, GetSize()) to the new sibling.
func (p *LeafPage[K, V]) Split(dst *LeafPage[K, V]) {
	mid := p.Size() / 2
	for i := mid; i < p.Size(); i++ {
		dst.setKeyAt(dst.Size(), p.KeyAt(i))
		dst.setValueAt(dst.Size(), p.ValueAt(i))
		dst.setSize(dst.Size() + 1)
	}
	p.setSize(mid)
}

// MoveAllTo appends every entry of p onto the end of dst and relinks
// dst's next pointer past p, used when p merges into its left sibling.
func (p *LeafPage[K, V]) MoveAllTo(dst *LeafPage[K, V]) {
	for i := 0; i < p.Size(); i++ {
		dst.setKeyAt(dst.Size(), p.KeyAt(i))
		dst.setValueAt(dst.Size(), p.ValueAt(i))
		dst.setSize(dst.Size() + 1)
	}
	dst.SetNextPageId(p.GetNextPageId())
	p.setSize(0)
}

// MoveFirstToEndOf moves p's first entry onto the end of dst, returning
// the key that must replace the parent separator between them.
func (p *LeafPage[K, V]) MoveFirstToEndOf(dst *LeafPage[K, V]) (newSeparator K) {
	dst.setKeyAt(dst.Size(), p.KeyAt(0))
	dst.setValueAt(dst.Size(), p.ValueAt(0))
	dst.setSize(dst.Size() + 1)
	for i := 0; i < p.Size()-1; i++ {
		p.copySlot(i, i+1)
	}
	p.setSize(p.Size() - 1)
	return p.KeyAt(0)
}

// MoveLastToFrontOf moves p's last entry onto the front of dst, returning
// the key that must replace the parent separator between them.
func (p *LeafPage[K, V]) MoveLastToFrontOf(dst *LeafPage[K, V]) (newSeparator K) {
	lastIdx := p.Size() - 1
	lastKey, lastVal := p.KeyAt(lastIdx), p.ValueAt(lastIdx)
	for i := dst.Size(); i > 0; i-- {
		dst.copySlot(i, i-1)
	}
	dst.setKeyAt(0, lastKey)
	dst.setValueAt(0, lastVal)
	dst.setSize(dst.Size() + 1)
	p.setSize(p.Size() - 1)
	return lastKey
}
