package index

import (
	"encoding/binary"
	"math/rand"
	"sync"
	"testing"

	"github.com/ryogrid/bptreestore/storage/buffer"
	"github.com/ryogrid/bptreestore/storage/disk"
	"github.com/ryogrid/bptreestore/types"
)

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

func newTestTree(t *testing.T, poolSize, leafMax, internalMax int) *BPlusTree[int32, int32] {
	t.Helper()
	d := disk.NewMemManager(types.PageSize)
	t.Cleanup(func() { d.Close() })
	bpm := buffer.NewBufferPoolManager(poolSize, d, 2)

	tree, err := New[int32, int32](bpm, int32Codec{}, int32Codec{}, leafMax, internalMax)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return tree
}

func TestBPlusTree_EmptyTreeHasNoValues(t *testing.T) {
	tree := newTestTree(t, 32, 4, 4)
	if !tree.IsEmpty() {
		t.Fatalf("IsEmpty() on a fresh tree = false, want true")
	}
	if _, ok := tree.GetValue(1); ok {
		t.Fatalf("GetValue() on an empty tree = found, want not found")
	}
}

func TestBPlusTree_InsertAndLookupThroughManySplits(t *testing.T) {
	tree := newTestTree(t, 64, 4, 4)

	const n = 300
	keys := rand.New(rand.NewSource(1)).Perm(n)
	for _, k := range keys {
		if !tree.Insert(int32(k), int32(k*10)) {
			t.Fatalf("Insert(%d) = false, want true", k)
		}
	}
	if tree.IsEmpty() {
		t.Fatalf("IsEmpty() after inserting = true, want false")
	}

	for i := 0; i < n; i++ {
		v, ok := tree.GetValue(int32(i))
		if !ok || v != int32(i*10) {
			t.Fatalf("GetValue(%d) = (%d, %v), want (%d, true)", i, v, ok, i*10)
		}
	}
	if _, ok := tree.GetValue(int32(n + 1000)); ok {
		t.Fatalf("GetValue() of an absent key = found, want not found")
	}
}

func TestBPlusTree_InsertRejectsDuplicateKey(t *testing.T) {
	tree := newTestTree(t, 32, 4, 4)
	if !tree.Insert(5, 50) {
		t.Fatalf("first Insert(5) = false, want true")
	}
	if tree.Insert(5, 500) {
		t.Fatalf("duplicate Insert(5) = true, want false")
	}
	v, _ := tree.GetValue(5)
	if v != 50 {
		t.Fatalf("GetValue(5) after rejected duplicate insert = %d, want unchanged 50", v)
	}
}

func TestBPlusTree_RemoveDownToEmptyThroughMerges(t *testing.T) {
	tree := newTestTree(t, 64, 4, 4)

	const n = 200
	for i := 0; i < n; i++ {
		tree.Insert(int32(i), int32(i))
	}

	// Remove every other key first, forcing leaf/internal underflow and
	// borrow/merge rebalancing, then remove the rest.
	for i := 0; i < n; i += 2 {
		tree.Remove(int32(i))
	}
	for i := 0; i < n; i++ {
		_, ok := tree.GetValue(int32(i))
		want := i%2 != 0
		if ok != want {
			t.Fatalf("GetValue(%d) found = %v, want %v after removing evens", i, ok, want)
		}
	}

	for i := 1; i < n; i += 2 {
		tree.Remove(int32(i))
	}
	if !tree.IsEmpty() {
		t.Fatalf("IsEmpty() after removing every key = false, want true")
	}
	for i := 0; i < n; i++ {
		if _, ok := tree.GetValue(int32(i)); ok {
			t.Fatalf("GetValue(%d) after removing every key = found, want not found", i)
		}
	}
}

func TestBPlusTree_RemoveAbsentKeyIsNoOp(t *testing.T) {
	tree := newTestTree(t, 32, 4, 4)
	tree.Insert(1, 1)
	tree.Remove(999) // must not panic or corrupt state
	if v, ok := tree.GetValue(1); !ok || v != 1 {
		t.Fatalf("GetValue(1) after removing an absent key = (%d, %v), want (1, true)", v, ok)
	}
}

func TestBPlusTree_IteratorScansInKeyOrder(t *testing.T) {
	tree := newTestTree(t, 64, 4, 4)

	const n = 120
	for _, k := range rand.New(rand.NewSource(2)).Perm(n) {
		tree.Insert(int32(k), int32(k))
	}

	it := tree.Begin()
	defer it.Close()

	var got []int32
	for !it.IsEnd() {
		k, v := it.Entry()
		if k != v {
			t.Fatalf("Entry() = (%d, %d), want matching key/value", k, v)
		}
		got = append(got, k)
		it.Next()
	}

	if len(got) != n {
		t.Fatalf("iterator produced %d entries, want %d", len(got), n)
	}
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Fatalf("iterator not sorted at index %d: %d then %d", i, got[i-1], got[i])
		}
	}
}

func TestBPlusTree_BeginAtStartsAtOrAfterKey(t *testing.T) {
	tree := newTestTree(t, 64, 4, 4)
	for _, k := range []int32{10, 20, 30, 40, 50} {
		tree.Insert(k, k)
	}

	it := tree.BeginAt(25)
	defer it.Close()

	if it.IsEnd() {
		t.Fatalf("BeginAt(25) = end, want positioned at 30")
	}
	k, _ := it.Entry()
	if k != 30 {
		t.Fatalf("BeginAt(25).Entry() key = %d, want 30", k)
	}
}

func TestBPlusTree_BeginAtKeyGreaterThanAllKeysIsEnd(t *testing.T) {
	tree := newTestTree(t, 64, 4, 4)
	for _, k := range []int32{10, 20, 30, 40, 50} {
		tree.Insert(k, k)
	}

	it := tree.BeginAt(999)
	defer it.Close()

	if !it.IsEnd() {
		k, _ := it.Entry()
		t.Fatalf("BeginAt(999) = positioned at %d, want end", k)
	}
}

func TestBPlusTree_EndIsImmediatelyExhausted(t *testing.T) {
	tree := newTestTree(t, 32, 4, 4)
	tree.Insert(1, 1)
	it := tree.End()
	if !it.IsEnd() {
		t.Fatalf("End().IsEnd() = false, want true")
	}
}

func TestBPlusTree_ConcurrentReadersSeeConsistentValues(t *testing.T) {
	tree := newTestTree(t, 64, 4, 4)
	const n = 100
	for i := 0; i < n; i++ {
		tree.Insert(int32(i), int32(i*2))
	}

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < n; i++ {
				v, ok := tree.GetValue(int32(i))
				if !ok || v != int32(i*2) {
					errs <- errFromGetValue(i, v, ok)
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}

func errFromGetValue(key int, got int32, ok bool) error {
	return &getValueMismatch{key: key, got: got, ok: ok}
}

type getValueMismatch struct {
	key int
	got int32
	ok  bool
}

func (e *getValueMismatch) Error() string {
	return "concurrent GetValue mismatch"
}
