package page

import "encoding/binary"

// PageType distinguishes a B+ tree page's role, stored as the first byte
// of every internal and leaf page. Grounded on BusTub's IndexPageType.
type PageType uint8

const (
	InvalidPageType PageType = iota
	LeafPageType
	InternalPageType
)

// PageTypeOf reads the page type out of a raw page byte slice, for
// callers descending a tree who don't yet know whether a fetched page is
// an internal or leaf node.
func PageTypeOf(data []byte) PageType {
	return PageType(data[0])
}

// commonHeaderSize is the width, in bytes, of the page_type/size/max_size
// triple every B+ tree page layout starts with, grounded on BusTub's
// BPlusTreePage base class.
const commonHeaderSize = 5

// pageHeader is the byte-level view of that shared prefix, embedded by
// InternalPage and LeafPage so both get PageType/Size/MaxSize for free
// without Go interface-based inheritance.
type pageHeader struct {
	data []byte
}

func (h pageHeader) PageType() PageType {
	return PageType(h.data[0])
}

func (h pageHeader) setPageType(t PageType) {
	h.data[0] = byte(t)
}

// Size is the number of entries currently stored in the page.
func (h pageHeader) Size() int {
	return int(binary.LittleEndian.Uint16(h.data[1:3]))
}

func (h pageHeader) setSize(n int) {
	binary.LittleEndian.PutUint16(h.data[1:3], uint16(n))
}

// MaxSize is the capacity this page was configured with.
func (h pageHeader) MaxSize() int {
	return int(binary.LittleEndian.Uint16(h.data[3:5]))
}

func (h pageHeader) setMaxSize(n int) {
	binary.LittleEndian.PutUint16(h.data[3:5], uint16(n))
}

// IsFull reports whether the page has reached its configured capacity,
// the condition Insert checks to decide whether a split is needed.
func (h pageHeader) IsFull() bool {
	return h.Size() >= h.MaxSize()
}

// MinSize is the fewest entries this page may hold before a delete must
// borrow from or merge with a sibling. Grounded on the BusTub B+ tree's
// occupancy invariant: internal pages keep at least ceil(max/2) entries,
// leaf pages at least ceil((max-1)/2), except for the root.
func InternalMinSize(maxSize int) int {
	return (maxSize + 1) / 2
}

func LeafMinSize(maxSize int) int {
	return maxSize / 2
}
