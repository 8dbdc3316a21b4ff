package page

import (
	"encoding/binary"
	"testing"

	"github.com/ryogrid/bptreestore/types"
)

// int32Codec is the fixed-width KeyCodec used across this package's tests,
// standing in for a real record key the way BusTub's tests use a
// GenericKey<8> wrapping an int64.
type int32Codec struct{}

func (int32Codec) Size() int { return 4 }
func (int32Codec) Encode(dst []byte, k int32) {
	binary.LittleEndian.PutUint32(dst, uint32(k))
}
func (int32Codec) Decode(src []byte) int32 {
	return int32(binary.LittleEndian.Uint32(src))
}
func (int32Codec) Compare(a, b int32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func newTestInternalPage(maxSize int) *InternalPage[int32] {
	data := make([]byte, types.PageSize)
	p := NewInternalPage[int32](data, int32Codec{})
	p.Init(maxSize)
	return p
}

func TestInternalPage_PopulateNewRootAndLookup(t *testing.T) {
	p := newTestInternalPage(8)
	p.PopulateNewRoot(types.PageID(1), 10, types.PageID(2))

	tests := []struct {
		key  int32
		want types.PageID
	}{
		{key: 0, want: types.PageID(1)},
		{key: 9, want: types.PageID(1)},
		{key: 10, want: types.PageID(2)},
		{key: 100, want: types.PageID(2)},
	}
	for _, tt := range tests {
		if got := p.Lookup(tt.key); got != tt.want {
			t.Errorf("Lookup(%d) = %d, want %d", tt.key, got, tt.want)
		}
	}
}

func TestInternalPage_InsertKeepsSortedOrder(t *testing.T) {
	p := newTestInternalPage(8)
	p.PopulateNewRoot(types.PageID(1), 20, types.PageID(2))
	p.Insert(types.PageID(2), 30, types.PageID(3))
	p.Insert(types.PageID(1), 10, types.PageID(4))

	wantKeys := []int32{0, 10, 20, 30}
	wantValues := []types.PageID{1, 4, 2, 3}
	if p.Size() != 4 {
		t.Fatalf("Size() = %d, want 4", p.Size())
	}
	for i := 1; i < p.Size(); i++ {
		if p.KeyAt(i) != wantKeys[i] {
			t.Errorf("KeyAt(%d) = %d, want %d", i, p.KeyAt(i), wantKeys[i])
		}
	}
	for i := 0; i < p.Size(); i++ {
		if p.ValueAt(i) != wantValues[i] {
			t.Errorf("ValueAt(%d) = %d, want %d", i, p.ValueAt(i), wantValues[i])
		}
	}
}

func TestInternalPage_SplitDividesSlotsAndPromotesMidKey(t *testing.T) {
	p := newTestInternalPage(4)
	p.PopulateNewRoot(types.PageID(1), 20, types.PageID(2))
	p.Insert(types.PageID(2), 30, types.PageID(3))
	p.Insert(types.PageID(3), 40, types.PageID(4))

	dst := newTestInternalPage(4)
	midKey := p.Split(dst)

	if midKey != 30 {
		t.Fatalf("Split() midKey = %d, want 30", midKey)
	}
	if p.Size() != 2 {
		t.Fatalf("left Size() after Split = %d, want 2", p.Size())
	}
	if dst.Size() != 2 {
		t.Fatalf("right Size() after Split = %d, want 2", dst.Size())
	}
	if dst.ValueAt(0) != types.PageID(3) {
		t.Errorf("dst.ValueAt(0) = %d, want 3 (the split-point's child)", dst.ValueAt(0))
	}
	if dst.KeyAt(1) != 40 {
		t.Errorf("dst.KeyAt(1) = %d, want 40", dst.KeyAt(1))
	}
}

func TestInternalPage_MoveFirstToEndOfAndMoveLastToFrontOf(t *testing.T) {
	left := newTestInternalPage(8)
	left.PopulateNewRoot(types.PageID(1), 10, types.PageID(2))
	left.Insert(types.PageID(2), 20, types.PageID(3))

	right := newTestInternalPage(8)
	right.PopulateNewRoot(types.PageID(4), 50, types.PageID(5))

	// Right donates its first child onto the end of left, the shape of a
	// right-sibling borrow during Remove: the old parent separator (30)
	// becomes left's new trailing key, and right's own surviving first
	// key becomes the new parent separator.
	newSep := right.MoveFirstToEndOf(left, 30)
	if newSep != 50 {
		t.Fatalf("MoveFirstToEndOf() newSeparator = %d, want 50 (right's surviving first key)", newSep)
	}
	if left.Size() != 4 {
		t.Fatalf("left.Size() after MoveFirstToEndOf = %d, want 4", left.Size())
	}
	if left.ValueAt(3) != types.PageID(4) {
		t.Errorf("left.ValueAt(3) = %d, want 4 (the borrowed child)", left.ValueAt(3))
	}
	if left.KeyAt(3) != 30 {
		t.Errorf("left.KeyAt(3) = %d, want 30 (the old parent separator)", left.KeyAt(3))
	}
	if right.Size() != 1 {
		t.Fatalf("right.Size() after donating its first slot = %d, want 1", right.Size())
	}

	// Now borrow back: left donates its last child onto the front of
	// right, using the separator (50) produced just above.
	newSep2 := left.MoveLastToFrontOf(right, newSep)
	if newSep2 != 30 {
		t.Fatalf("MoveLastToFrontOf() newSeparator = %d, want 30", newSep2)
	}
	if right.Size() != 2 {
		t.Fatalf("right.Size() after MoveLastToFrontOf = %d, want 2", right.Size())
	}
	if right.ValueAt(0) != types.PageID(4) {
		t.Errorf("right.ValueAt(0) = %d, want 4 (the returned child)", right.ValueAt(0))
	}
}

func TestInternalPage_MoveAllToMergesAndSetsSeparator(t *testing.T) {
	left := newTestInternalPage(8)
	left.PopulateNewRoot(types.PageID(1), 10, types.PageID(2))

	right := newTestInternalPage(8)
	right.PopulateNewRoot(types.PageID(3), 40, types.PageID(4))

	right.MoveAllTo(left, 20 /* parent separator between left and right */)

	if left.Size() != 4 {
		t.Fatalf("left.Size() after merge = %d, want 4", left.Size())
	}
	wantKeys := []int32{0, 10, 20, 40}
	wantValues := []types.PageID{1, 2, 3, 4}
	for i := 0; i < left.Size(); i++ {
		if left.ValueAt(i) != wantValues[i] {
			t.Errorf("left.ValueAt(%d) = %d, want %d", i, left.ValueAt(i), wantValues[i])
		}
		if i > 0 && left.KeyAt(i) != wantKeys[i] {
			t.Errorf("left.KeyAt(%d) = %d, want %d", i, left.KeyAt(i), wantKeys[i])
		}
	}
}
