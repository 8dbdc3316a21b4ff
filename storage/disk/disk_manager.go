// Package disk is the storage core's external collaborator (spec §6): it
// owns page bytes once they leave the buffer pool. The buffer pool manager
// treats every error from this package as fatal, per spec §7 "Out of
// space" / "Invariant violation" — production callers may layer retries,
// this module does not.
package disk

import "github.com/ryogrid/bptreestore/types"

// Manager is the disk-side half of the buffer pool's frame-acquisition
// subroutine (spec §4.2): ReadPage/WritePage move page bytes to and from a
// frame, AllocatePage/DeallocatePage hand out and reclaim page identity.
type Manager interface {
	ReadPage(id types.PageID, data []byte) error
	WritePage(id types.PageID, data []byte) error
	AllocatePage() types.PageID
	DeallocatePage(id types.PageID)
	// PageSize reports the fixed page size this manager reads and writes.
	PageSize() int
	// Close releases any underlying file handle.
	Close() error
}
