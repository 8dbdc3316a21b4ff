// Package buffer implements the fixed-size buffer pool: LRU-K eviction
// and the buffer pool manager that fronts it.
package buffer

import (
	"fmt"
	"math"
	"sync"

	"github.com/ryogrid/bptreestore/types"
)

// lruKNode tracks one frame's access history: the timestamps of its last
// up-to-k accesses, newest first, and whether the replacer is currently
// allowed to evict it.
type lruKNode struct {
	history     []uint64
	k           int
	isEvictable bool
}

// LRUKReplacer chooses which pinned... no, which *unpinned* frame to evict
// when the buffer pool needs a free one, using the LRU-K policy: evict the
// evictable frame with the largest backward k-distance (gap between now
// and its k-th most recent access), treating a frame with fewer than k
// accesses as having infinite backward distance, and breaking ties among
// several infinite-distance candidates by earliest first access. Grounded
// on BusTub's LRUKReplacer (lru_k_replacer.cpp).
type LRUKReplacer struct {
	mu      sync.Mutex
	nodes   map[types.FrameID]*lruKNode
	size    int
	maxSize int
	k       int
	clock   uint64
}

// NewLRUKReplacer creates a replacer for up to numFrames frames, each
// needing k accesses before it stops counting as "fewer than k".
func NewLRUKReplacer(numFrames int, k int) *LRUKReplacer {
	return &LRUKReplacer{
		nodes:   make(map[types.FrameID]*lruKNode),
		maxSize: numFrames,
		k:       k,
	}
}

// Evict picks an evictable frame to discard and reports it, removing its
// access history in the process. Returns false if no frame is evictable.
func (r *LRUKReplacer) Evict() (types.FrameID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var target types.FrameID
	found := false
	var targetDist uint64
	var targetOldest uint64

	for fid, node := range r.nodes {
		if !node.isEvictable {
			continue
		}
		dist := uint64(math.MaxUint64)
		if len(node.history) == node.k {
			dist = r.clock - node.history[len(node.history)-1]
		}
		oldest := node.history[len(node.history)-1]

		switch {
		case !found:
			target, targetDist, targetOldest, found = fid, dist, oldest, true
		case dist > targetDist:
			target, targetDist, targetOldest = fid, dist, oldest
		case dist == targetDist && oldest < targetOldest:
			target, targetDist, targetOldest = fid, dist, oldest
		}
	}

	if !found {
		return 0, false
	}
	delete(r.nodes, target)
	r.size--
	return target, true
}

// RecordAccess notes that frameID was just touched, pushing a fresh
// timestamp onto its history and dropping the oldest once it holds k of
// them. A frame seen for the first time starts non-evictable, matching
// the buffer pool's convention of pinning a page before touching it.
func (r *LRUKReplacer) RecordAccess(frameID types.FrameID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if int(frameID) < 0 || int(frameID) >= r.maxSize {
		panic(fmt.Sprintf("buffer: RecordAccess: frame id %d out of range", frameID))
	}

	node, ok := r.nodes[frameID]
	if !ok {
		node = &lruKNode{k: r.k}
		r.nodes[frameID] = node
	}

	r.clock++
	node.history = append([]uint64{r.clock}, node.history...)
	if len(node.history) > node.k {
		node.history = node.history[:node.k]
	}
}

// SetEvictable marks frameID as eligible or ineligible for Evict. A frame
// id the replacer has never seen is a silent no-op, matching BusTub's
// SetEvictable: only an out-of-range id is a hard error.
func (r *LRUKReplacer) SetEvictable(frameID types.FrameID, evictable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if int(frameID) < 0 || int(frameID) >= r.maxSize {
		panic(fmt.Sprintf("buffer: SetEvictable: frame id %d out of range", frameID))
	}

	node, ok := r.nodes[frameID]
	if !ok {
		return
	}
	switch {
	case node.isEvictable && !evictable:
		node.isEvictable = false
		r.size--
	case !node.isEvictable && evictable:
		node.isEvictable = true
		r.size++
	}
}

// Remove discards frameID's access history outright, without evicting it
// through Evict. Called when a page is deallocated. frameID must already
// be evictable; removing a pinned frame's history is an invariant
// violation.
func (r *LRUKReplacer) Remove(frameID types.FrameID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	node, ok := r.nodes[frameID]
	if !ok {
		return
	}
	if !node.isEvictable {
		panic(fmt.Sprintf("buffer: Remove: frame id %d is pinned", frameID))
	}
	delete(r.nodes, frameID)
	r.size--
}

// Size reports how many frames are currently evictable.
func (r *LRUKReplacer) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}
