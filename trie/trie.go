package trie

import (
	"errors"

	"github.com/ethlayer/coreeth/crypto"
	"github.com/ethlayer/coreeth/types"
)

// ErrNotFound is returned when a key does not exist in the trie.
var ErrNotFound = errors.New("trie: key not found")

// EmptyRootHash is the root hash of a trie with no entries:
// Keccak256(RLP("")).
var EmptyRootHash = crypto.Keccak256Hash([]byte{0x80})

// Trie is a Merkle Patricia Trie. A nil db makes it purely in-memory — Get
// returns ErrNodeNotFound instead of resolving hashNode references, which is
// enough for one-shot root computations (transactions/receipts/withdrawals
// tries via types.DeriveSha). Passing a db lets the trie load a
// previously-committed root and resolve nodes from it lazily, the mode
// account and storage tries use.
type Trie struct {
	root node
	db   *NodeDatabase
}

// New creates an empty, memory-only trie.
func New() *Trie { return &Trie{} }

// NewWithRoot opens the trie rooted at root, resolving nodes from db as
// needed. An empty or zero root yields an empty trie.
func NewWithRoot(root types.Hash, db *NodeDatabase) (*Trie, error) {
	t := &Trie{db: db}
	if root == EmptyRootHash || root == (types.Hash{}) {
		return t, nil
	}
	n, err := t.resolveHash(hashNode(root[:]))
	if err != nil {
		return nil, err
	}
	t.root = n
	return t, nil
}

func (t *Trie) resolveHash(hash hashNode) (node, error) {
	if t.db == nil {
		return nil, ErrNodeNotFound
	}
	data, err := t.db.Node(types.BytesToHash(hash))
	if err != nil {
		return nil, err
	}
	return decodeNode(hash, data)
}

func (t *Trie) resolve(n node) (node, error) {
	if hn, ok := n.(hashNode); ok {
		return t.resolveHash(hn)
	}
	return n, nil
}

// Reset clears the trie back to empty, letting a single scratch instance
// be reused across repeated types.DeriveSha calls (transactions root, then
// receipts root, then withdrawals root) without reallocating.
func (t *Trie) Reset() {
	t.root = nil
}

// Update implements types.TrieHasher, an alias for Put used when the trie
// is driven generically as a DerivableList root accumulator.
func (t *Trie) Update(key, value []byte) error {
	return t.Put(key, value)
}

// Get retrieves the value stored at key.
func (t *Trie) Get(key []byte) ([]byte, error) {
	value, found, err := t.get(t.root, keybytesToHex(key), 0)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return value, nil
}

func (t *Trie) get(n node, key []byte, pos int) ([]byte, bool, error) {
	switch n := n.(type) {
	case nil:
		return nil, false, nil
	case valueNode:
		return []byte(n), true, nil
	case *shortNode:
		if len(key)-pos < len(n.Key) || !keysEqual(n.Key, key[pos:pos+len(n.Key)]) {
			return nil, false, nil
		}
		return t.get(n.Val, key, pos+len(n.Key))
	case *fullNode:
		if pos >= len(key) {
			return t.get(n.Children[16], key, pos)
		}
		return t.get(n.Children[key[pos]], key, pos+1)
	case hashNode:
		resolved, err := t.resolveHash(n)
		if err != nil {
			return nil, false, err
		}
		return t.get(resolved, key, pos)
	default:
		return nil, false, nil
	}
}

// Put inserts or updates key with value. An empty value deletes the key.
func (t *Trie) Put(key, value []byte) error {
	if len(value) == 0 {
		return t.Delete(key)
	}
	n, err := t.insert(t.root, keybytesToHex(key), valueNode(value))
	if err != nil {
		return err
	}
	t.root = n
	return nil
}

func (t *Trie) insert(n node, key []byte, value node) (node, error) {
	if hn, ok := n.(hashNode); ok {
		resolved, err := t.resolveHash(hn)
		if err != nil {
			return nil, err
		}
		n = resolved
	}

	if len(key) == 0 {
		if v, ok := n.(valueNode); ok && keysEqual(v, value.(valueNode)) {
			return v, nil
		}
		return value, nil
	}

	switch n := n.(type) {
	case nil:
		return &shortNode{Key: key, Val: value, flags: nodeFlag{dirty: true}}, nil

	case *shortNode:
		matchLen := prefixLen(key, n.Key)
		if matchLen == len(n.Key) {
			nn, err := t.insert(n.Val, key[matchLen:], value)
			if err != nil {
				return nil, err
			}
			return &shortNode{Key: n.Key, Val: nn, flags: nodeFlag{dirty: true}}, nil
		}
		branch := &fullNode{flags: nodeFlag{dirty: true}}
		existingChild, err := t.insert(nil, n.Key[matchLen+1:], n.Val)
		if err != nil {
			return nil, err
		}
		branch.Children[n.Key[matchLen]] = existingChild
		newChild, err := t.insert(nil, key[matchLen+1:], value)
		if err != nil {
			return nil, err
		}
		branch.Children[key[matchLen]] = newChild
		if matchLen > 0 {
			return &shortNode{Key: key[:matchLen], Val: branch, flags: nodeFlag{dirty: true}}, nil
		}
		return branch, nil

	case *fullNode:
		nn := n.copy()
		nn.flags = nodeFlag{dirty: true}
		child, err := t.insert(n.Children[key[0]], key[1:], value)
		if err != nil {
			return nil, err
		}
		nn.Children[key[0]] = child
		return nn, nil

	default:
		return nil, errors.New("trie: unknown node type during insert")
	}
}

// Delete removes key from the trie. Deleting an absent key is a no-op.
func (t *Trie) Delete(key []byte) error {
	n, err := t.delete(t.root, keybytesToHex(key))
	if err != nil {
		return err
	}
	t.root = n
	return nil
}

func (t *Trie) delete(n node, key []byte) (node, error) {
	if hn, ok := n.(hashNode); ok {
		resolved, err := t.resolveHash(hn)
		if err != nil {
			return nil, err
		}
		n = resolved
	}

	switch n := n.(type) {
	case nil:
		return nil, nil

	case *shortNode:
		matchLen := prefixLen(key, n.Key)
		if matchLen < len(n.Key) {
			return n, nil
		}
		if matchLen == len(key) {
			return nil, nil
		}
		child, err := t.delete(n.Val, key[len(n.Key):])
		if err != nil {
			return nil, err
		}
		switch child := child.(type) {
		case nil:
			return nil, nil
		case *shortNode:
			return &shortNode{Key: concat(n.Key, child.Key), Val: child.Val, flags: nodeFlag{dirty: true}}, nil
		default:
			return &shortNode{Key: n.Key, Val: child, flags: nodeFlag{dirty: true}}, nil
		}

	case *fullNode:
		nn := n.copy()
		nn.flags = nodeFlag{dirty: true}
		child, err := t.delete(n.Children[key[0]], key[1:])
		if err != nil {
			return nil, err
		}
		nn.Children[key[0]] = child

		remaining := -1
		for i := 0; i < 17; i++ {
			if nn.Children[i] != nil {
				if remaining >= 0 {
					return nn, nil
				}
				remaining = i
			}
		}
		if remaining < 0 {
			return nil, nil
		}
		if remaining == 16 {
			return &shortNode{Key: []byte{terminatorByte}, Val: nn.Children[16], flags: nodeFlag{dirty: true}}, nil
		}
		child = nn.Children[remaining]
		if hn, ok := child.(hashNode); ok {
			resolved, err := t.resolveHash(hn)
			if err != nil {
				return nil, err
			}
			child = resolved
		}
		if cnode, ok := child.(*shortNode); ok {
			return &shortNode{Key: concat([]byte{byte(remaining)}, cnode.Key), Val: cnode.Val, flags: nodeFlag{dirty: true}}, nil
		}
		return &shortNode{Key: []byte{byte(remaining)}, Val: child, flags: nodeFlag{dirty: true}}, nil

	case valueNode:
		return nil, nil

	default:
		return nil, errors.New("trie: unknown node type during delete")
	}
}

// Hash computes the root hash without committing anything to a database.
func (t *Trie) Hash() types.Hash {
	if t.root == nil {
		return EmptyRootHash
	}
	h := newHasher()
	hashed, cached := h.hash(t.root, true)
	t.root = cached
	if hn, ok := hashed.(hashNode); ok {
		return types.BytesToHash(hn)
	}
	enc, _ := encodeNode(hashed)
	return crypto.Keccak256Hash(enc)
}

// Commit hashes the trie and stores every dirty node into its NodeDatabase,
// returning the new root. The trie must have been constructed with a
// non-nil db (NewWithRoot).
func (t *Trie) Commit() (types.Hash, error) {
	if t.db == nil {
		return types.Hash{}, errors.New("trie: Commit called on a memory-only trie")
	}
	if t.root == nil {
		return EmptyRootHash, nil
	}
	h := newHasher()
	root, cached := t.commitNode(h, t.root)
	t.root = cached
	if hn, ok := root.(hashNode); ok {
		return types.BytesToHash(hn), nil
	}
	enc, err := encodeNode(root)
	if err != nil {
		return types.Hash{}, err
	}
	hash := crypto.Keccak256Hash(enc)
	t.db.InsertNode(hash, enc)
	return hash, nil
}

func (t *Trie) commitNode(h *hasher, n node) (node, node) {
	switch n := n.(type) {
	case nil:
		return nil, nil
	case valueNode, hashNode:
		return n, n

	case *shortNode:
		collapsed := n.copy()
		collapsed.Key = hexToCompact(n.Key)
		cached := n.copy()
		if _, ok := n.Val.(valueNode); !ok {
			childH, childC := t.commitNode(h, n.Val)
			collapsed.Val = childH
			cached.Val = childC
		}
		return t.storeCommitted(collapsed, cached)

	case *fullNode:
		collapsed := n.copy()
		cached := n.copy()
		for i := 0; i < 16; i++ {
			if n.Children[i] != nil {
				childH, childC := t.commitNode(h, n.Children[i])
				collapsed.Children[i] = childH
				cached.Children[i] = childC
			}
		}
		return t.storeCommitted(collapsed, cached)
	}
	return n, n
}

func (t *Trie) storeCommitted(collapsed, cached node) (node, node) {
	enc, err := encodeNode(collapsed)
	if err != nil || len(enc) < 32 {
		return collapsed, cached
	}
	hash := crypto.Keccak256(enc)
	t.db.InsertNode(types.BytesToHash(hash), enc)
	hn := hashNode(hash)
	switch cn := cached.(type) {
	case *shortNode:
		cn.flags.hash = hn
		cn.flags.dirty = false
	case *fullNode:
		cn.flags.hash = hn
		cn.flags.dirty = false
	}
	return hn, cached
}

// Len returns the number of key-value pairs reachable from the root
// without resolving any hash node; callers after a fresh build (pre-
// Commit) get an exact count, afterwards it only counts unresolved nodes
// as zero.
func (t *Trie) Len() int { return countValues(t.root) }

// Empty reports whether the trie has no entries.
func (t *Trie) Empty() bool { return t.root == nil }

func countValues(n node) int {
	switch n := n.(type) {
	case nil:
		return 0
	case valueNode:
		return 1
	case *shortNode:
		return countValues(n.Val)
	case *fullNode:
		count := 0
		for i := 0; i < 17; i++ {
			count += countValues(n.Children[i])
		}
		return count
	default:
		return 0
	}
}

func keysEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func concat(a, b []byte) []byte {
	r := make([]byte, len(a)+len(b))
	copy(r, a)
	copy(r[len(a):], b)
	return r
}
