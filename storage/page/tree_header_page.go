package page

import (
	"encoding/binary"

	"github.com/ryogrid/bptreestore/types"
)

// TreeHeaderPage is the one fixed page every B+ tree keeps pinned for its
// whole lifetime, holding nothing but the current root page id. Grounded
// on BusTub's BPlusTreeHeaderPage, introduced so that looking up the root
// never races with a concurrent root change: a guard on this page is
// acquired before any descent, the same way the tree's Context holds a
// header guard across FindPath.
type TreeHeaderPage struct {
	data []byte
}

// NewTreeHeaderPage wraps data (a page's full byte slice) as a tree header
// view.
func NewTreeHeaderPage(data []byte) *TreeHeaderPage {
	return &TreeHeaderPage{data: data}
}

// RootPageId returns the tree's current root, or types.InvalidPageID for
// an empty tree.
func (h *TreeHeaderPage) RootPageId() types.PageID {
	return types.PageID(int32(binary.LittleEndian.Uint32(h.data[0:4])))
}

// SetRootPageId updates the tree's root.
func (h *TreeHeaderPage) SetRootPageId(id types.PageID) {
	binary.LittleEndian.PutUint32(h.data[0:4], uint32(int32(id)))
}
