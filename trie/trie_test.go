package trie

import (
	"testing"

	"github.com/ethlayer/coreeth/types"
)

func TestEmptyTrieHash(t *testing.T) {
	tr := New()
	got := tr.Hash()
	want := types.HexToHash("56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421")
	if got != want {
		t.Fatalf("empty trie hash = %s, want %s", got.Hex(), want.Hex())
	}
	if !tr.Empty() {
		t.Fatalf("new trie should be Empty()")
	}
}

func TestPutGetDelete(t *testing.T) {
	tr := New()
	entries := []struct{ k, v string }{
		{"do", "verb"},
		{"dog", "puppy"},
		{"doge", "coin"},
		{"horse", "stallion"},
	}
	for _, e := range entries {
		if err := tr.Put([]byte(e.k), []byte(e.v)); err != nil {
			t.Fatalf("Put(%q): %v", e.k, err)
		}
	}
	for _, e := range entries {
		got, err := tr.Get([]byte(e.k))
		if err != nil {
			t.Fatalf("Get(%q): %v", e.k, err)
		}
		if string(got) != e.v {
			t.Fatalf("Get(%q) = %q, want %q", e.k, got, e.v)
		}
	}

	if err := tr.Delete([]byte("dog")); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := tr.Get([]byte("dog")); err != ErrNotFound {
		t.Fatalf("Get after Delete: err = %v, want ErrNotFound", err)
	}
	// Untouched keys survive the delete.
	got, err := tr.Get([]byte("doge"))
	if err != nil || string(got) != "coin" {
		t.Fatalf("Get(doge) after unrelated delete = %q, %v", got, err)
	}
}

func TestPutEmptyValueDeletes(t *testing.T) {
	tr := New()
	tr.Put([]byte("k"), []byte("v"))
	if err := tr.Put([]byte("k"), nil); err != nil {
		t.Fatalf("Put with empty value: %v", err)
	}
	if _, err := tr.Get([]byte("k")); err != ErrNotFound {
		t.Fatalf("Get after empty-value Put: err = %v, want ErrNotFound", err)
	}
}

func TestHashDeterministicAndOrderIndependent(t *testing.T) {
	a := New()
	a.Put([]byte("alpha"), []byte("1"))
	a.Put([]byte("beta"), []byte("2"))
	a.Put([]byte("gamma"), []byte("3"))

	b := New()
	b.Put([]byte("gamma"), []byte("3"))
	b.Put([]byte("alpha"), []byte("1"))
	b.Put([]byte("beta"), []byte("2"))

	if a.Hash() != b.Hash() {
		t.Fatalf("trie root depends on insertion order: %s != %s", a.Hash().Hex(), b.Hash().Hex())
	}
}

func TestCommitAndReopen(t *testing.T) {
	store := newMemKVStore()
	db := NewNodeDatabase(store)

	tr, err := NewWithRoot(types.Hash{}, db)
	if err != nil {
		t.Fatalf("NewWithRoot: %v", err)
	}
	tr.Put([]byte("do"), []byte("verb"))
	tr.Put([]byte("dog"), []byte("puppy"))
	tr.Put([]byte("doge"), []byte("coin"))

	root, err := tr.Commit()
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := db.Commit(); err != nil {
		t.Fatalf("db.Commit: %v", err)
	}

	reopened, err := NewWithRoot(root, NewNodeDatabase(store))
	if err != nil {
		t.Fatalf("NewWithRoot(reopen): %v", err)
	}
	got, err := reopened.Get([]byte("dog"))
	if err != nil || string(got) != "puppy" {
		t.Fatalf("Get(dog) after reopen = %q, %v", got, err)
	}
	if reopened.Hash() != root {
		t.Fatalf("reopened hash = %s, want %s", reopened.Hash().Hex(), root.Hex())
	}
}

func TestResetReusesScratchTrie(t *testing.T) {
	tr := New()
	tr.Put([]byte("x"), []byte("1"))
	first := tr.Hash()
	tr.Reset()
	if !tr.Empty() {
		t.Fatalf("Reset did not clear the trie")
	}
	if tr.Hash() != EmptyRootHash {
		t.Fatalf("hash after Reset = %s, want empty root", tr.Hash().Hex())
	}
	tr.Update([]byte("x"), []byte("1"))
	if tr.Hash() != first {
		t.Fatalf("rebuilt trie hash mismatch after Reset")
	}
}

type memKVStore struct{ m map[string][]byte }

func newMemKVStore() *memKVStore { return &memKVStore{m: make(map[string][]byte)} }

func (s *memKVStore) Get(key []byte) ([]byte, error) {
	v, ok := s.m[string(key)]
	if !ok {
		return nil, nil
	}
	return v, nil
}

func (s *memKVStore) Put(key, value []byte) error {
	s.m[string(key)] = append([]byte(nil), value...)
	return nil
}
