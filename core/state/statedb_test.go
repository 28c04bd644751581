package state

import (
	"math/big"
	"testing"

	"github.com/ethlayer/coreeth/trie"
	"github.com/ethlayer/coreeth/types"
)

func newTestStateDB(t *testing.T) *StateDB {
	t.Helper()
	s, err := New(types.Hash{}, trie.NewNodeDatabase(nil))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestBalanceOperations(t *testing.T) {
	s := newTestStateDB(t)
	addr := types.HexToAddress("0x01")

	s.CreateAccount(addr)
	if s.GetBalance(addr).Sign() != 0 {
		t.Fatal("new account should have zero balance")
	}

	s.AddBalance(addr, big.NewInt(100))
	if s.GetBalance(addr).Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected balance 100, got %s", s.GetBalance(addr))
	}

	s.SubBalance(addr, big.NewInt(30))
	if s.GetBalance(addr).Cmp(big.NewInt(70)) != 0 {
		t.Fatalf("expected balance 70, got %s", s.GetBalance(addr))
	}
}

func TestNonceOperations(t *testing.T) {
	s := newTestStateDB(t)
	addr := types.HexToAddress("0x02")

	s.CreateAccount(addr)
	s.SetNonce(addr, 42)
	if s.GetNonce(addr) != 42 {
		t.Fatalf("expected nonce 42, got %d", s.GetNonce(addr))
	}
}

func TestCodeOperations(t *testing.T) {
	s := newTestStateDB(t)
	addr := types.HexToAddress("0x03")
	s.CreateAccount(addr)

	code := []byte{0x60, 0x00, 0x60, 0x00, 0xfd}
	s.SetCode(addr, code)

	if got := s.GetCode(addr); string(got) != string(code) {
		t.Fatalf("expected code %x, got %x", code, got)
	}
	if s.GetCodeSize(addr) != len(code) {
		t.Fatalf("expected code size %d, got %d", len(code), s.GetCodeSize(addr))
	}
	if s.GetCodeHash(addr) == types.EmptyCodeHash {
		t.Fatal("code hash should not be empty after SetCode")
	}
}

func TestStorageOperations(t *testing.T) {
	s := newTestStateDB(t)
	addr := types.HexToAddress("0x04")
	key := types.HexToHash("0x01")
	value := types.HexToHash("0x2a")

	s.CreateAccount(addr)
	if got := s.GetState(addr, key); got != (types.Hash{}) {
		t.Fatalf("expected zero slot, got %x", got)
	}

	s.SetState(addr, key, value)
	if got := s.GetState(addr, key); got != value {
		t.Fatalf("expected %x, got %x", value, got)
	}
	if got := s.GetCommittedState(addr, key); got != (types.Hash{}) {
		t.Fatalf("committed state should be unaffected by a dirty write, got %x", got)
	}
}

func TestSnapshotRevert(t *testing.T) {
	s := newTestStateDB(t)
	addr := types.HexToAddress("0x05")
	s.CreateAccount(addr)
	s.AddBalance(addr, big.NewInt(50))

	snap := s.Snapshot()
	s.AddBalance(addr, big.NewInt(100))
	s.SetNonce(addr, 7)

	if s.GetBalance(addr).Cmp(big.NewInt(150)) != 0 {
		t.Fatalf("expected 150 before revert, got %s", s.GetBalance(addr))
	}

	s.RevertToSnapshot(snap)

	if s.GetBalance(addr).Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("expected balance 50 after revert, got %s", s.GetBalance(addr))
	}
	if s.GetNonce(addr) != 0 {
		t.Fatalf("expected nonce 0 after revert, got %d", s.GetNonce(addr))
	}
}

func TestSelfDestruct(t *testing.T) {
	s := newTestStateDB(t)
	addr := types.HexToAddress("0x06")
	s.CreateAccount(addr)
	s.AddBalance(addr, big.NewInt(10))

	s.SelfDestruct(addr)
	if !s.HasSelfDestructed(addr) {
		t.Fatal("expected account marked self-destructed")
	}
	if s.GetBalance(addr).Sign() != 0 {
		t.Fatal("expected balance zeroed by self-destruct")
	}
}

func TestDeleteEmptyAccountsEIP6780GatesOnCreatedThisState(t *testing.T) {
	preexisting := types.HexToAddress("0x0c")
	createdNow := types.HexToAddress("0x0d")

	db := trie.NewNodeDatabase(newMemKV())
	s, err := New(types.Hash{}, db)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// A contract deployed in an earlier block: nonce 1, has code, so it
	// isn't EIP-161-empty and deletion hinges entirely on created/selfDestructed.
	s.CreateAccount(preexisting)
	s.SetNonce(preexisting, 1)
	s.SetCode(preexisting, []byte{0x00})
	s.AddBalance(preexisting, big.NewInt(5))
	root, err := s.Commit(false, false)
	if err != nil {
		t.Fatalf("seed commit: %v", err)
	}

	// Reopen to clear the in-memory created flag, as a fresh block's StateDB would.
	s2, err := New(root, db)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}

	s2.CreateAccount(createdNow)
	s2.SetNonce(createdNow, 1)
	s2.SetCode(createdNow, []byte{0x00})
	s2.AddBalance(createdNow, big.NewInt(1))

	s2.SelfDestruct(preexisting)
	s2.SelfDestruct(createdNow)

	s2.deleteEmptyAccounts(true)

	if s2.objects[preexisting] == nil {
		t.Fatal("EIP-6780: self-destructed pre-existing account must survive, not created this state")
	}
	if s2.objects[createdNow] != nil {
		t.Fatal("EIP-6780: self-destructed account created this state must be deleted")
	}
}

func TestDeleteEmptyAccountsPreCancunDeletesUnconditionally(t *testing.T) {
	addr := types.HexToAddress("0x0e")
	db := trie.NewNodeDatabase(newMemKV())
	s, err := New(types.Hash{}, db)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.CreateAccount(addr)
	s.SetNonce(addr, 1)
	s.SetCode(addr, []byte{0x00})
	s.AddBalance(addr, big.NewInt(5))
	root, err := s.Commit(false, false)
	if err != nil {
		t.Fatalf("seed commit: %v", err)
	}

	s2, err := New(root, db)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	s2.SelfDestruct(addr)
	s2.deleteEmptyAccounts(false)

	if s2.objects[addr] != nil {
		t.Fatal("pre-Cancun: self-destructed account must always be deleted regardless of when it was created")
	}
}

func TestAccessList(t *testing.T) {
	s := newTestStateDB(t)
	addr := types.HexToAddress("0x07")
	slot := types.HexToHash("0x01")

	if s.AddressInAccessList(addr) {
		t.Fatal("address should start cold")
	}
	s.AddAddressToAccessList(addr)
	if !s.AddressInAccessList(addr) {
		t.Fatal("address should be warm after AddAddressToAccessList")
	}

	addrOK, slotOK := s.SlotInAccessList(addr, slot)
	if !addrOK || slotOK {
		t.Fatalf("expected address warm, slot cold; got addr=%v slot=%v", addrOK, slotOK)
	}
	s.AddSlotToAccessList(addr, slot)
	_, slotOK = s.SlotInAccessList(addr, slot)
	if !slotOK {
		t.Fatal("slot should be warm after AddSlotToAccessList")
	}
}

func TestTransientStorage(t *testing.T) {
	s := newTestStateDB(t)
	addr := types.HexToAddress("0x08")
	key := types.HexToHash("0x01")
	value := types.HexToHash("0x99")

	if got := s.GetTransientState(addr, key); got != (types.Hash{}) {
		t.Fatalf("expected zero transient slot, got %x", got)
	}
	s.SetTransientState(addr, key, value)
	if got := s.GetTransientState(addr, key); got != value {
		t.Fatalf("expected %x, got %x", value, got)
	}
	s.ClearTransientStorage()
	if got := s.GetTransientState(addr, key); got != (types.Hash{}) {
		t.Fatalf("expected transient storage cleared, got %x", got)
	}
}

func TestRefundCounter(t *testing.T) {
	s := newTestStateDB(t)
	s.AddRefund(100)
	s.AddRefund(50)
	if s.GetRefund() != 150 {
		t.Fatalf("expected refund 150, got %d", s.GetRefund())
	}
	s.SubRefund(60)
	if s.GetRefund() != 90 {
		t.Fatalf("expected refund 90, got %d", s.GetRefund())
	}
}

func TestCommitAndReload(t *testing.T) {
	db := trie.NewNodeDatabase(newMemKV())
	s, err := New(types.Hash{}, db)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	addr := types.HexToAddress("0x09")
	key := types.HexToHash("0x01")
	value := types.HexToHash("0x2a")

	s.CreateAccount(addr)
	s.AddBalance(addr, big.NewInt(500))
	s.SetNonce(addr, 3)
	s.SetCode(addr, []byte{0x60, 0x01})
	s.SetState(addr, key, value)

	root, err := s.Commit(false, false)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if root == types.EmptyRootHash {
		t.Fatal("expected a non-empty root after committing a populated account")
	}

	s2, err := New(root, db)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if !s2.Exist(addr) {
		t.Fatal("expected account to exist after reload")
	}
	if s2.GetBalance(addr).Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("expected balance 500 after reload, got %s", s2.GetBalance(addr))
	}
	if s2.GetNonce(addr) != 3 {
		t.Fatalf("expected nonce 3 after reload, got %d", s2.GetNonce(addr))
	}
	if got := s2.GetState(addr, key); got != value {
		t.Fatalf("expected storage slot %x after reload, got %x", value, got)
	}
}

func TestEmptyAccountEIP161(t *testing.T) {
	s := newTestStateDB(t)
	addr := types.HexToAddress("0x0a")
	s.CreateAccount(addr)

	if !s.Empty(addr) {
		t.Fatal("fresh account should be empty per EIP-161")
	}
	s.AddBalance(addr, big.NewInt(1))
	if s.Empty(addr) {
		t.Fatal("funded account should not be empty")
	}
}

// memKV is a minimal in-memory trie.KVStore for testing Commit/reload.
type memKV struct{ m map[string][]byte }

func newMemKV() *memKV { return &memKV{m: make(map[string][]byte)} }

func (k *memKV) Get(key []byte) ([]byte, error) { return k.m[string(key)], nil }

func (k *memKV) Put(key, value []byte) error {
	k.m[string(key)] = append([]byte(nil), value...)
	return nil
}
