package index

import (
	"github.com/ryogrid/bptreestore/storage/page"
	"github.com/ryogrid/bptreestore/types"
)

// context bundles the guards a single tree operation has collected on its
// way down, so a later step (split propagation, merge propagation) can
// walk back up through exactly the ancestors that operation itself
// latched. Grounded on BusTub's Context (b_plus_tree.h): a header guard
// held only in write mode, plus parallel read_set_/write_set_ stacks.
type context struct {
	headerGuard *page.WritePageGuard
	readSet     []page.ReadPageGuard
	writeSet    []page.WritePageGuard
	rootPageID  types.PageID
}

func (c *context) isRootPage(id types.PageID) bool {
	return id == c.rootPageID
}

// popWrite removes and returns the most recently pushed write guard,
// transferring ownership to the caller the way ctx.write_set_.pop_back()
// does in the original.
func (c *context) popWrite() page.WritePageGuard {
	idx := len(c.writeSet) - 1
	g := c.writeSet[idx]
	c.writeSet = c.writeSet[:idx]
	return g
}

// peekWrite returns a pointer to the top write guard without removing
// it.
func (c *context) peekWrite() *page.WritePageGuard {
	return &c.writeSet[len(c.writeSet)-1]
}

// peekRead returns a pointer to the top read guard without removing it.
func (c *context) peekRead() *page.ReadPageGuard {
	return &c.readSet[len(c.readSet)-1]
}

// release drops every guard still held, in the order BusTub's Context
// destructor would via vector/optional teardown: child-to-parent for the
// remaining stack, then the header.
func (c *context) release() {
	for i := len(c.writeSet) - 1; i >= 0; i-- {
		c.writeSet[i].Drop()
	}
	c.writeSet = nil
	for i := len(c.readSet) - 1; i >= 0; i-- {
		c.readSet[i].Drop()
	}
	c.readSet = nil
	if c.headerGuard != nil {
		c.headerGuard.Drop()
		c.headerGuard = nil
	}
}
