package page

import (
	"testing"

	"github.com/ryogrid/bptreestore/types"
)

func newTestLeafPage(maxSize int) *LeafPage[int32, int32] {
	data := make([]byte, types.PageSize)
	p := NewLeafPage[int32, int32](data, int32Codec{}, int32Codec{})
	p.Init(maxSize)
	return p
}

func TestLeafPage_InitHasNoRightSibling(t *testing.T) {
	p := newTestLeafPage(8)
	if got := p.GetNextPageId(); got != types.InvalidPageID {
		t.Fatalf("GetNextPageId() after Init = %d, want InvalidPageID", got)
	}
	if p.Size() != 0 {
		t.Fatalf("Size() after Init = %d, want 0", p.Size())
	}
}

func TestLeafPage_InsertLookupRemove(t *testing.T) {
	p := newTestLeafPage(8)

	for _, k := range []int32{30, 10, 20} {
		if !p.Insert(k, k*100) {
			t.Fatalf("Insert(%d) = false, want true", k)
		}
	}
	if p.Insert(10, 999) {
		t.Fatalf("Insert(10) duplicate = true, want false")
	}

	wantKeys := []int32{10, 20, 30}
	for i, k := range wantKeys {
		if got := p.KeyAt(i); got != k {
			t.Errorf("KeyAt(%d) = %d, want %d (Insert must keep sorted order)", i, got, k)
		}
	}

	if v, ok := p.Lookup(20); !ok || v != 2000 {
		t.Errorf("Lookup(20) = (%d, %v), want (2000, true)", v, ok)
	}
	if _, ok := p.Lookup(99); ok {
		t.Errorf("Lookup(99) = found, want not found")
	}

	if !p.Remove(20) {
		t.Fatalf("Remove(20) = false, want true")
	}
	if p.Remove(20) {
		t.Fatalf("Remove(20) twice = true, want false")
	}
	if p.Size() != 2 {
		t.Fatalf("Size() after Remove = %d, want 2", p.Size())
	}
	if _, ok := p.Lookup(20); ok {
		t.Errorf("Lookup(20) after Remove = found, want not found")
	}
}

func TestLeafPage_SplitMovesUpperHalf(t *testing.T) {
	p := newTestLeafPage(4)
	for _, k := range []int32{10, 20, 30, 40} {
		p.Insert(k, k)
	}

	dst := newTestLeafPage(4)
	p.Split(dst)

	if p.Size() != 2 || dst.Size() != 2 {
		t.Fatalf("Split() sizes = (%d, %d), want (2, 2)", p.Size(), dst.Size())
	}
	if p.KeyAt(0) != 10 || p.KeyAt(1) != 20 {
		t.Errorf("left page keys = [%d, %d], want [10, 20]", p.KeyAt(0), p.KeyAt(1))
	}
	if dst.KeyAt(0) != 30 || dst.KeyAt(1) != 40 {
		t.Errorf("right page keys = [%d, %d], want [30, 40]", dst.KeyAt(0), dst.KeyAt(1))
	}
}

func TestLeafPage_MoveAllToRelinksNextPointer(t *testing.T) {
	left := newTestLeafPage(8)
	left.Insert(10, 10)
	right := newTestLeafPage(8)
	right.Insert(20, 20)
	right.SetNextPageId(types.PageID(99))

	right.MoveAllTo(left)

	if left.Size() != 2 {
		t.Fatalf("left.Size() after merge = %d, want 2", left.Size())
	}
	if left.KeyAt(1) != 20 {
		t.Errorf("left.KeyAt(1) = %d, want 20", left.KeyAt(1))
	}
	if got := left.GetNextPageId(); got != types.PageID(99) {
		t.Errorf("left.GetNextPageId() after merge = %d, want 99 (right's old next)", got)
	}
	if right.Size() != 0 {
		t.Errorf("right.Size() after MoveAllTo = %d, want 0", right.Size())
	}
}

func TestLeafPage_MoveFirstToEndOfAndMoveLastToFrontOf(t *testing.T) {
	left := newTestLeafPage(8)
	left.Insert(10, 10)
	left.Insert(20, 20)

	right := newTestLeafPage(8)
	right.Insert(30, 30)
	right.Insert(40, 40)

	newSep := right.MoveFirstToEndOf(left)
	if newSep != 40 {
		t.Fatalf("MoveFirstToEndOf() newSeparator = %d, want 40 (right's new first key)", newSep)
	}
	if left.Size() != 3 || left.KeyAt(2) != 30 {
		t.Fatalf("left after borrow = size %d last key %d, want size 3 last key 30", left.Size(), left.KeyAt(2))
	}
	if right.Size() != 1 || right.KeyAt(0) != 40 {
		t.Fatalf("right after donating = size %d first key %d, want size 1 first key 40", right.Size(), right.KeyAt(0))
	}

	newSep2 := left.MoveLastToFrontOf(right)
	if newSep2 != 30 {
		t.Fatalf("MoveLastToFrontOf() newSeparator = %d, want 30", newSep2)
	}
	if right.Size() != 2 || right.KeyAt(0) != 30 {
		t.Fatalf("right after borrow back = size %d first key %d, want size 2 first key 30", right.Size(), right.KeyAt(0))
	}
}
