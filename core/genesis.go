package core

import (
	"math/big"

	"github.com/ethlayer/coreeth/core/state"
	"github.com/ethlayer/coreeth/trie"
	"github.com/ethlayer/coreeth/types"
)

// GenesisAccount is a single pre-funded account in the genesis allocation.
type GenesisAccount struct {
	Balance *big.Int
	Code    []byte
	Nonce   uint64
	Storage map[types.Hash]types.Hash
}

// GenesisAlloc maps addresses to their genesis account state.
type GenesisAlloc map[types.Address]GenesisAccount

// Genesis specifies the header fields and pre-funded accounts of a chain's
// first block.
type Genesis struct {
	Config     *ChainConfig
	Nonce      uint64
	Timestamp  uint64
	ExtraData  []byte
	GasLimit   uint64
	Difficulty *big.Int
	MixHash    types.Hash
	Coinbase   types.Address
	Alloc      GenesisAlloc

	// Overrides for building alternate/test genesis blocks.
	ParentHash    types.Hash
	BaseFee       *big.Int
	ExcessBlobGas *uint64
	BlobGasUsed   *uint64
}

// ToBlock builds the genesis header (with the empty-trie root as its state
// root; Commit replaces it with the allocation's root) and wraps it in a
// block with no transactions.
func (g *Genesis) ToBlock() *types.Block {
	head := &types.Header{
		ParentHash:  g.ParentHash,
		UncleHash:   types.EmptyUncleHash,
		Coinbase:    g.Coinbase,
		Root:        types.EmptyRootHash,
		TxHash:      types.EmptyRootHash,
		ReceiptHash: types.EmptyRootHash,
		Difficulty:  g.Difficulty,
		Number:      new(big.Int),
		GasLimit:    g.GasLimit,
		Time:        g.Timestamp,
		MixDigest:   g.MixHash,
		Nonce:       types.EncodeNonce(g.Nonce),
	}

	if g.Difficulty == nil {
		head.Difficulty = new(big.Int)
	}
	if len(g.ExtraData) > 0 {
		head.Extra = append([]byte(nil), g.ExtraData...)
	}

	if g.BaseFee != nil {
		head.BaseFee = new(big.Int).Set(g.BaseFee)
	} else if g.Config != nil && g.Config.IsLondon(head.Number) {
		head.BaseFee = big.NewInt(InitialBaseFee)
	}

	if g.Config != nil && g.Config.IsShanghai(g.Timestamp) {
		emptyWithdrawals := types.EmptyRootHash
		head.WithdrawalsHash = &emptyWithdrawals
	}

	if g.Config != nil && g.Config.IsCancun(g.Timestamp) {
		excess := uint64(0)
		if g.ExcessBlobGas != nil {
			excess = *g.ExcessBlobGas
		}
		head.ExcessBlobGas = &excess

		used := uint64(0)
		if g.BlobGasUsed != nil {
			used = *g.BlobGasUsed
		}
		head.BlobGasUsed = &used

		emptyBeaconRoot := types.Hash{}
		head.ParentBeaconBlockRoot = &emptyBeaconRoot
	}

	return types.NewBlockWithHeader(head)
}

// Commit applies the genesis allocation to a fresh state rooted in trieDB,
// commits it, and returns the genesis block with its computed state root.
func (g *Genesis) Commit(trieDB *trie.NodeDatabase) (*types.Block, error) {
	statedb, err := state.New(types.Hash{}, trieDB)
	if err != nil {
		return nil, err
	}

	for addr, account := range g.Alloc {
		statedb.CreateAccount(addr)
		if account.Balance != nil {
			statedb.AddBalance(addr, account.Balance)
		}
		if account.Nonce > 0 {
			statedb.SetNonce(addr, account.Nonce)
		}
		if len(account.Code) > 0 {
			statedb.SetCode(addr, account.Code)
		}
		for key, val := range account.Storage {
			statedb.SetState(addr, key, val)
		}
	}

	root, err := statedb.Commit(false, false)
	if err != nil {
		return nil, err
	}
	if err := trieDB.Commit(); err != nil {
		return nil, err
	}

	block := g.ToBlock()
	header := block.Header()
	header.Root = root
	return types.NewBlockWithHeader(header), nil
}

// SetupGenesisBlockChain commits g's allocation to trieDB and returns a
// BlockChain rooted at the resulting genesis block.
func SetupGenesisBlockChain(g *Genesis, trieDB *trie.NodeDatabase) (*BlockChain, error) {
	config := g.Config
	if config == nil {
		config = TestConfig
	}
	block, err := g.Commit(trieDB)
	if err != nil {
		return nil, err
	}
	logger.Info("wrote genesis block", "hash", block.Hash().Hex(), "root", block.Root().Hex(), "chainID", config.ChainID)
	return NewBlockChain(config, block, trieDB)
}

// DefaultGenesisBlock returns the mainnet genesis header parameters (nonce,
// gas limit, difficulty); its allocation and extra data are left empty.
func DefaultGenesisBlock() *Genesis {
	return &Genesis{
		Config:     MainnetConfig,
		Nonce:      66,
		GasLimit:   5000,
		Difficulty: big.NewInt(17_179_869_184),
		Alloc:      GenesisAlloc{},
	}
}

// DefaultTestGenesisBlock returns a genesis with every fork active from
// block/time zero, for use in tests that want to exercise Cancun behavior
// without simulating chain history.
func DefaultTestGenesisBlock(alloc GenesisAlloc) *Genesis {
	return &Genesis{
		Config:     TestConfig,
		GasLimit:   30_000_000,
		Difficulty: big.NewInt(1),
		Alloc:      alloc,
	}
}
