// Package state implements the Ethereum world state: per-account balance,
// nonce, code and storage, backed by a Merkle Patricia Trie, with the
// journaled snapshot/revert, warm-access tracking and transient storage a
// transaction executor needs to undo any prefix of its side effects.
package state

import (
	"math/big"
	"sort"

	"github.com/ethlayer/coreeth/crypto"
	"github.com/ethlayer/coreeth/rlp"
	"github.com/ethlayer/coreeth/trie"
	"github.com/ethlayer/coreeth/types"
)

// Reader is the read side of StateDB, the interface core/vm's EVM actually
// depends on so that tracers and gas estimation can run against a state
// snapshot without pulling in the full read-write surface.
type Reader interface {
	GetBalance(addr types.Address) *big.Int
	GetNonce(addr types.Address) uint64
	GetCode(addr types.Address) []byte
	GetCodeHash(addr types.Address) types.Hash
	GetCodeSize(addr types.Address) int
	GetState(addr types.Address, key types.Hash) types.Hash
	GetCommittedState(addr types.Address, key types.Hash) types.Hash
	Exist(addr types.Address) bool
	Empty(addr types.Address) bool
}

// StateDB is the trie-backed world state shared by every transaction in a
// block. Reads fall through committed storage loaded from the trie; writes
// land in a dirty layer that Commit flushes and re-hashes.
type StateDB struct {
	db   *trie.NodeDatabase
	trie *trie.Trie

	objects map[types.Address]*stateObject
	// storageTries caches the opened per-account storage trie across
	// repeated Get/SetState calls within the same block.
	storageTries map[types.Address]*trie.Trie

	journal          *journal
	logs             map[types.Hash][]*types.Log
	refund           uint64
	accessList       *accessList
	transientStorage map[types.Address]map[types.Hash]types.Hash

	txHash  types.Hash
	txIndex int
}

// New opens the state rooted at root, resolving trie nodes from db. A nil
// db or the empty root yields a state with no accounts, the genesis
// starting point.
func New(root types.Hash, db *trie.NodeDatabase) (*StateDB, error) {
	if db == nil {
		db = trie.NewNodeDatabase(nil)
	}
	t, err := trie.NewWithRoot(root, db)
	if err != nil {
		return nil, err
	}
	return &StateDB{
		db:               db,
		trie:             t,
		objects:          make(map[types.Address]*stateObject),
		storageTries:     make(map[types.Address]*trie.Trie),
		journal:          newJournal(),
		logs:             make(map[types.Hash][]*types.Log),
		accessList:       newAccessList(),
		transientStorage: make(map[types.Address]map[types.Hash]types.Hash),
	}, nil
}

// rlpAccount is the consensus encoding of an account in the state trie.
type rlpAccount struct {
	Nonce    uint64
	Balance  *big.Int
	Root     []byte
	CodeHash []byte
}

func hashKey(addr types.Address) []byte {
	return crypto.Keccak256(addr[:])
}

// getStateObject returns the account, loading it from the trie on first
// access and caching it for the rest of the block.
func (s *StateDB) getStateObject(addr types.Address) *stateObject {
	if obj, ok := s.objects[addr]; ok {
		return obj
	}
	enc, err := s.trie.Get(hashKey(addr))
	if err != nil || len(enc) == 0 {
		return nil
	}
	var acc rlpAccount
	if err := rlp.DecodeBytes(enc, &acc); err != nil {
		return nil
	}
	obj := newStateObject()
	obj.account = types.Account{Nonce: acc.Nonce, Balance: acc.Balance, CodeHash: acc.CodeHash}
	if len(acc.Root) > 0 {
		obj.account.Root = types.BytesToHash(acc.Root)
	}
	if len(acc.CodeHash) > 0 && types.BytesToHash(acc.CodeHash) != types.EmptyCodeHash {
		code, err := s.db.Node(types.BytesToHash(acc.CodeHash))
		if err == nil {
			obj.code = code
		}
	}
	s.objects[addr] = obj
	return obj
}

func (s *StateDB) getOrNewStateObject(addr types.Address) *stateObject {
	if obj := s.getStateObject(addr); obj != nil {
		return obj
	}
	obj := newStateObject()
	s.objects[addr] = obj
	return obj
}

// --- Account operations ---

// CreateAccount resets addr to an empty account, preserving nothing of a
// prior incarnation (used by CREATE/CREATE2 and by the state transition
// when a transaction's recipient does not yet exist).
func (s *StateDB) CreateAccount(addr types.Address) {
	prev := s.objects[addr]
	s.journal.append(createAccountChange{addr: addr, prev: prev})
	obj := newStateObject()
	obj.created = true
	s.objects[addr] = obj
}

// CreatedThisState reports whether addr was created by CreateAccount since
// the last Commit, the test EIP-6780 uses to decide whether SELFDESTRUCT
// still destroys the account.
func (s *StateDB) CreatedThisState(addr types.Address) bool {
	obj := s.objects[addr]
	return obj != nil && obj.created
}

func (s *StateDB) SubBalance(addr types.Address, amount *big.Int) {
	if amount.Sign() == 0 {
		return
	}
	obj := s.getOrNewStateObject(addr)
	s.journal.append(balanceChange{addr: addr, prev: new(big.Int).Set(obj.account.Balance)})
	obj.account.Balance = new(big.Int).Sub(obj.account.Balance, amount)
}

func (s *StateDB) AddBalance(addr types.Address, amount *big.Int) {
	if amount.Sign() == 0 {
		return
	}
	obj := s.getOrNewStateObject(addr)
	s.journal.append(balanceChange{addr: addr, prev: new(big.Int).Set(obj.account.Balance)})
	obj.account.Balance = new(big.Int).Add(obj.account.Balance, amount)
}

func (s *StateDB) GetBalance(addr types.Address) *big.Int {
	if obj := s.getStateObject(addr); obj != nil {
		return new(big.Int).Set(obj.account.Balance)
	}
	return new(big.Int)
}

func (s *StateDB) GetNonce(addr types.Address) uint64 {
	if obj := s.getStateObject(addr); obj != nil {
		return obj.account.Nonce
	}
	return 0
}

func (s *StateDB) SetNonce(addr types.Address, nonce uint64) {
	obj := s.getOrNewStateObject(addr)
	s.journal.append(nonceChange{addr: addr, prev: obj.account.Nonce})
	obj.account.Nonce = nonce
}

func (s *StateDB) GetCode(addr types.Address) []byte {
	if obj := s.getStateObject(addr); obj != nil {
		return obj.code
	}
	return nil
}

func (s *StateDB) SetCode(addr types.Address, code []byte) {
	obj := s.getOrNewStateObject(addr)
	prevCode := obj.code
	prevHash := append([]byte(nil), obj.account.CodeHash...)
	s.journal.append(codeChange{addr: addr, prevCode: prevCode, prevHash: prevHash})
	obj.code = code
	if len(code) == 0 {
		obj.account.CodeHash = types.EmptyCodeHash.Bytes()
	} else {
		obj.account.CodeHash = crypto.Keccak256(code)
	}
}

func (s *StateDB) GetCodeHash(addr types.Address) types.Hash {
	if obj := s.getStateObject(addr); obj != nil {
		if len(obj.account.CodeHash) == 0 {
			return types.EmptyCodeHash
		}
		return types.BytesToHash(obj.account.CodeHash)
	}
	return types.Hash{}
}

func (s *StateDB) GetCodeSize(addr types.Address) int {
	if obj := s.getStateObject(addr); obj != nil {
		return len(obj.code)
	}
	return 0
}

// --- Self-destruct ---

func (s *StateDB) SelfDestruct(addr types.Address) {
	obj := s.getStateObject(addr)
	if obj == nil {
		return
	}
	s.journal.append(selfDestructChange{
		addr:           addr,
		prevDestructed: obj.selfDestructed,
		prevBalance:    new(big.Int).Set(obj.account.Balance),
	})
	obj.selfDestructed = true
	obj.account.Balance = new(big.Int)
}

func (s *StateDB) HasSelfDestructed(addr types.Address) bool {
	if obj := s.objects[addr]; obj != nil {
		return obj.selfDestructed
	}
	return false
}

// --- Storage operations ---

func (s *StateDB) openStorageTrie(addr types.Address, obj *stateObject) *trie.Trie {
	if t, ok := s.storageTries[addr]; ok {
		return t
	}
	t, err := trie.NewWithRoot(obj.account.Root, s.db)
	if err != nil {
		t = trie.New()
	}
	s.storageTries[addr] = t
	return t
}

func (s *StateDB) GetState(addr types.Address, key types.Hash) types.Hash {
	obj := s.getStateObject(addr)
	if obj == nil {
		return types.Hash{}
	}
	if val, ok := obj.dirtyStorage[key]; ok {
		return val
	}
	return s.loadCommittedState(addr, obj, key)
}

func (s *StateDB) loadCommittedState(addr types.Address, obj *stateObject, key types.Hash) types.Hash {
	if val, ok := obj.committedStorage[key]; ok {
		return val
	}
	st := s.openStorageTrie(addr, obj)
	enc, err := st.Get(crypto.Keccak256(key[:]))
	var val types.Hash
	if err == nil && len(enc) > 0 {
		var raw []byte
		if err := rlp.DecodeBytes(enc, &raw); err == nil {
			val = types.BytesToHash(raw)
		}
	}
	obj.committedStorage[key] = val
	return val
}

func (s *StateDB) SetState(addr types.Address, key, value types.Hash) {
	obj := s.getOrNewStateObject(addr)
	prevDirty, prevExists := obj.dirtyStorage[key]
	var prev types.Hash
	if prevExists {
		prev = prevDirty
	} else {
		prev = s.loadCommittedState(addr, obj, key)
	}
	s.journal.append(storageChange{addr: addr, key: key, prev: prev, prevExists: prevExists})
	obj.dirtyStorage[key] = value
}

func (s *StateDB) GetCommittedState(addr types.Address, key types.Hash) types.Hash {
	obj := s.getStateObject(addr)
	if obj == nil {
		return types.Hash{}
	}
	return s.loadCommittedState(addr, obj, key)
}

// --- Account existence ---

func (s *StateDB) Exist(addr types.Address) bool {
	return s.getStateObject(addr) != nil
}

// Empty reports whether addr satisfies EIP-161: zero nonce, zero balance,
// no code.
func (s *StateDB) Empty(addr types.Address) bool {
	obj := s.getStateObject(addr)
	if obj == nil {
		return true
	}
	return obj.account.Nonce == 0 &&
		obj.account.Balance.Sign() == 0 &&
		(len(obj.account.CodeHash) == 0 || types.BytesToHash(obj.account.CodeHash) == types.EmptyCodeHash)
}

// --- Snapshot and revert ---

func (s *StateDB) Snapshot() int { return s.journal.snapshot() }

func (s *StateDB) RevertToSnapshot(id int) { s.journal.revertToSnapshot(id, s) }

// --- Logs ---

// SetTxContext records which transaction subsequent AddLog calls belong to.
func (s *StateDB) SetTxContext(txHash types.Hash, txIndex int) {
	s.txHash = txHash
	s.txIndex = txIndex
}

func (s *StateDB) AddLog(log *types.Log) {
	log.TxHash = s.txHash
	log.TxIndex = uint(s.txIndex)
	s.journal.append(logChange{txHash: s.txHash, prevLen: len(s.logs[s.txHash])})
	s.logs[s.txHash] = append(s.logs[s.txHash], log)
}

func (s *StateDB) GetLogs(txHash types.Hash) []*types.Log { return s.logs[txHash] }

// --- Refund counter ---

func (s *StateDB) AddRefund(gas uint64) {
	s.journal.append(refundChange{prev: s.refund})
	s.refund += gas
}

func (s *StateDB) SubRefund(gas uint64) {
	s.journal.append(refundChange{prev: s.refund})
	if gas > s.refund {
		// The gas schedule never asks for more refund than accrued; clamp
		// defensively rather than underflow the counter.
		s.refund = 0
		return
	}
	s.refund -= gas
}

func (s *StateDB) GetRefund() uint64 { return s.refund }

// --- Access list (EIP-2929) ---

func (s *StateDB) AddAddressToAccessList(addr types.Address) {
	if !s.accessList.AddAddress(addr) {
		s.journal.append(accessListAddAccountChange{addr: addr})
	}
}

func (s *StateDB) AddSlotToAccessList(addr types.Address, slot types.Hash) {
	addrPresent, slotPresent := s.accessList.AddSlot(addr, slot)
	if !addrPresent {
		s.journal.append(accessListAddAccountChange{addr: addr})
	}
	if !slotPresent {
		s.journal.append(accessListAddSlotChange{addr: addr, slot: slot})
	}
}

func (s *StateDB) AddressInAccessList(addr types.Address) bool {
	return s.accessList.ContainsAddress(addr)
}

func (s *StateDB) SlotInAccessList(addr types.Address, slot types.Hash) (addressOk, slotOk bool) {
	return s.accessList.ContainsSlot(addr, slot)
}

// --- Transient storage (EIP-1153) ---

func (s *StateDB) GetTransientState(addr types.Address, key types.Hash) types.Hash {
	return s.transientStorage[addr][key]
}

func (s *StateDB) SetTransientState(addr types.Address, key, value types.Hash) {
	prev := s.transientStorage[addr][key]
	s.journal.append(transientStorageChange{addr: addr, key: key, prev: prev})
	if s.transientStorage[addr] == nil {
		s.transientStorage[addr] = make(map[types.Hash]types.Hash)
	}
	s.transientStorage[addr][key] = value
}

// ClearTransientStorage drops all transient storage. Per EIP-1153 this
// happens at the end of every transaction, never mid-transaction.
func (s *StateDB) ClearTransientStorage() {
	s.transientStorage = make(map[types.Address]map[types.Hash]types.Hash)
}

// --- Commit ---

// IntermediateRoot computes the state root without persisting anything,
// the value a block header's stateRoot (or a receipt's post-state, for
// pre-Byzantium chains) needs mid-block. deleteEmpty applies EIP-161
// touched-empty-account pruning before hashing; eip6780 narrows
// self-destruct deletion to accounts created since the last Commit, per
// EIP-6780.
func (s *StateDB) IntermediateRoot(deleteEmpty, eip6780 bool) types.Hash {
	if deleteEmpty {
		s.deleteEmptyAccounts(eip6780)
	}
	s.writeDirtyObjects()
	return s.trie.Hash()
}

// Commit flushes every dirty account and storage slot into their tries,
// persists all touched trie nodes and code to the backing store, and
// returns the new state root. deleteEmpty applies EIP-161 pruning first;
// eip6780 narrows self-destruct deletion per EIP-6780.
func (s *StateDB) Commit(deleteEmpty, eip6780 bool) (types.Hash, error) {
	if deleteEmpty {
		s.deleteEmptyAccounts(eip6780)
	}
	s.writeDirtyObjects()

	root, err := s.trie.Commit()
	if err != nil {
		return types.Hash{}, err
	}
	if err := s.db.Commit(); err != nil {
		return types.Hash{}, err
	}

	for addr, obj := range s.objects {
		for k, v := range obj.dirtyStorage {
			if v == (types.Hash{}) {
				delete(obj.committedStorage, k)
			} else {
				obj.committedStorage[k] = v
			}
		}
		obj.dirtyStorage = make(map[types.Hash]types.Hash)
		obj.created = false
		_ = addr
	}
	return root, nil
}

// deleteEmptyAccounts removes every EIP-161 empty account and every
// self-destructed account from state. Once eip6780 is set (Cancun+), a
// self-destructed account is only actually deleted if it was also created
// since the last Commit (EIP-6780); otherwise SelfDestruct already zeroed
// its balance and it is left in state as an ordinary (non-empty or empty)
// account, which this same pass still prunes if it happens to be empty.
func (s *StateDB) deleteEmptyAccounts(eip6780 bool) {
	addrs := make([]types.Address, 0, len(s.objects))
	for addr := range s.objects {
		addrs = append(addrs, addr)
	}
	for _, addr := range addrs {
		obj := s.objects[addr]
		destroy := obj.selfDestructed
		if destroy && eip6780 && !obj.created {
			destroy = false
			obj.selfDestructed = false
		}
		if destroy || isEmptyObject(obj) {
			s.trie.Delete(hashKey(addr))
			delete(s.objects, addr)
			delete(s.storageTries, addr)
		}
	}
}

func isEmptyObject(obj *stateObject) bool {
	return obj.account.Nonce == 0 &&
		obj.account.Balance.Sign() == 0 &&
		(len(obj.account.CodeHash) == 0 || types.BytesToHash(obj.account.CodeHash) == types.EmptyCodeHash)
}

// writeDirtyObjects pushes every cached account's current storage and
// account record (self-destructed accounts excepted) into the account trie (and, for accounts with dirty
// storage, its per-account storage trie), in address order for determinism.
func (s *StateDB) writeDirtyObjects() {
	addrs := make([]types.Address, 0, len(s.objects))
	for addr := range s.objects {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i].Hex() < addrs[j].Hex() })

	for _, addr := range addrs {
		obj := s.objects[addr]
		if obj.selfDestructed {
			continue
		}

		if len(obj.dirtyStorage) > 0 {
			st := s.openStorageTrie(addr, obj)
			keys := make([]types.Hash, 0, len(obj.dirtyStorage))
			for k := range obj.dirtyStorage {
				keys = append(keys, k)
			}
			sort.Slice(keys, func(i, j int) bool { return keys[i].Hex() < keys[j].Hex() })
			for _, k := range keys {
				v := obj.dirtyStorage[k]
				hk := crypto.Keccak256(k[:])
				if v == (types.Hash{}) {
					st.Delete(hk)
					continue
				}
				enc, err := rlp.EncodeToBytes(trimLeadingZeros(v[:]))
				if err != nil {
					continue
				}
				st.Put(hk, enc)
			}
			root, err := st.Commit()
			if err == nil {
				obj.account.Root = root
			} else {
				obj.account.Root = st.Hash()
			}
		} else if obj.account.Root == (types.Hash{}) {
			obj.account.Root = trie.EmptyRootHash
		}

		if len(obj.code) > 0 {
			s.db.InsertNode(types.BytesToHash(obj.account.CodeHash), obj.code)
		}

		codeHash := obj.account.CodeHash
		if len(codeHash) == 0 {
			codeHash = types.EmptyCodeHash.Bytes()
		}
		enc, err := rlp.EncodeToBytes(rlpAccount{
			Nonce:    obj.account.Nonce,
			Balance:  obj.account.Balance,
			Root:     obj.account.Root[:],
			CodeHash: codeHash,
		})
		if err != nil {
			continue
		}
		s.trie.Put(hashKey(addr), enc)
	}
}

func trimLeadingZeros(b []byte) []byte {
	for i, v := range b {
		if v != 0 {
			return b[i:]
		}
	}
	return []byte{}
}
