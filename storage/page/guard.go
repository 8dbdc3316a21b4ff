package page

import (
	"github.com/ryogrid/bptreestore/types"
)

// Pinner is the slice of the buffer pool manager a page guard needs to
// give up its pin on Drop. Declared here, rather than depending on
// storage/buffer directly, to avoid an import cycle: storage/buffer
// depends on storage/page for the Page type, so storage/page cannot
// depend back on storage/buffer.
type Pinner interface {
	UnpinPage(id types.PageID, isDirty bool) bool
}

// BasicPageGuard is a move-only RAII handle on a pinned page, grounded on
// BusTub's BasicPageGuard (page_guard.cpp). Go has no destructors, so
// "move-only" is enforced by convention rather than the compiler: callers
// must not use a guard after passing it by value to something that calls
// Drop, and must call Drop themselves exactly once when done. A guard's
// zero value is already a valid, empty, already-dropped guard.
type BasicPageGuard struct {
	bpm     Pinner
	pg      *Page
	isDirty bool
}

// NewBasicPageGuard wraps pg, freshly fetched or created from bpm, in a
// guard that will unpin it on Drop.
func NewBasicPageGuard(bpm Pinner, pg *Page) BasicPageGuard {
	return BasicPageGuard{bpm: bpm, pg: pg}
}

// PageId returns the id of the guarded page.
func (g *BasicPageGuard) PageId() types.PageID {
	if g.pg == nil {
		return types.InvalidPageID
	}
	return g.pg.GetPageId()
}

// Data returns the guarded page's bytes.
func (g *BasicPageGuard) Data() []byte {
	if g.pg == nil {
		panic("page: Data called on a dropped or zero-value guard")
	}
	return g.pg.Data()
}

// SetDirty marks the guarded page dirty, so Drop flushes it back through
// the buffer pool's write-back path instead of discarding it silently.
func (g *BasicPageGuard) SetDirty() {
	g.isDirty = true
}

// Drop releases the pin this guard holds, idempotently. Grounded on
// BasicPageGuard::Drop, which the destructor and move-assignment both
// funnel through.
func (g *BasicPageGuard) Drop() {
	if g.pg != nil && g.bpm != nil {
		g.bpm.UnpinPage(g.pg.GetPageId(), g.isDirty)
	}
	g.bpm = nil
	g.pg = nil
	g.isDirty = false
}

// UpgradeRead takes the page's read latch and returns a ReadPageGuard that
// now owns this guard's pin. g must not be used again.
func (g *BasicPageGuard) UpgradeRead() ReadPageGuard {
	pg := g.pg
	guard := *g
	g.bpm, g.pg, g.isDirty = nil, nil, false
	if pg != nil {
		pg.Latch.RLock()
	}
	return ReadPageGuard{inner: guard, locked: pg != nil}
}

// UpgradeWrite takes the page's write latch and returns a WritePageGuard
// that now owns this guard's pin. g must not be used again.
func (g *BasicPageGuard) UpgradeWrite() WritePageGuard {
	pg := g.pg
	guard := *g
	g.bpm, g.pg, g.isDirty = nil, nil, false
	if pg != nil {
		pg.Latch.Lock()
	}
	return WritePageGuard{inner: guard, locked: pg != nil}
}

// ReadPageGuard additionally holds the page's read latch, grounded on
// BusTub's ReadPageGuard: the latch is released before the pin is
// dropped, mirroring member-destruction order in the original.
type ReadPageGuard struct {
	inner  BasicPageGuard
	locked bool
}

// NewReadPageGuard fetches pg's read latch and wraps it as a guard that
// unpins and unlatches on Drop. pg is nil when the buffer pool was
// exhausted fetching it (spec: a non-exceptional condition a caller may
// retry), in which case NewReadPageGuard returns an already-empty guard
// rather than dereferencing it.
func NewReadPageGuard(bpm Pinner, pg *Page) ReadPageGuard {
	if pg == nil {
		return ReadPageGuard{}
	}
	pg.Latch.RLock()
	return ReadPageGuard{inner: NewBasicPageGuard(bpm, pg), locked: true}
}

func (g *ReadPageGuard) PageId() types.PageID { return g.inner.PageId() }

func (g *ReadPageGuard) Data() []byte { return g.inner.Data() }

// Drop releases the read latch before unpinning, idempotently.
func (g *ReadPageGuard) Drop() {
	if g.locked {
		g.locked = false
		if g.inner.pg != nil {
			g.inner.pg.Latch.RUnlock()
		}
	}
	g.inner.Drop()
}

// WritePageGuard additionally holds the page's write latch and always
// marks the page dirty on Drop, since a write guard having been handed out
// is the buffer pool's only signal that the page may have changed.
type WritePageGuard struct {
	inner  BasicPageGuard
	locked bool
}

// NewWritePageGuard fetches pg's write latch and wraps it as a guard that
// marks the page dirty, unpins, and unlatches on Drop. pg is nil when the
// buffer pool was exhausted fetching it, in which case NewWritePageGuard
// returns an already-empty guard rather than dereferencing it.
func NewWritePageGuard(bpm Pinner, pg *Page) WritePageGuard {
	if pg == nil {
		return WritePageGuard{}
	}
	pg.Latch.Lock()
	return WritePageGuard{inner: NewBasicPageGuard(bpm, pg), locked: true}
}

func (g *WritePageGuard) PageId() types.PageID { return g.inner.PageId() }

// Data returns the guarded page's bytes, writable through the returned
// slice since the guard holds the exclusive latch.
func (g *WritePageGuard) Data() []byte { return g.inner.Data() }

// Drop marks the page dirty, releases the write latch, then unpins,
// idempotently.
func (g *WritePageGuard) Drop() {
	if g.locked {
		g.locked = false
		g.inner.SetDirty()
		if g.inner.pg != nil {
			g.inner.pg.Latch.Unlock()
		}
	}
	g.inner.Drop()
}
