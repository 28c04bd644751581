package core

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethlayer/coreeth/core/state"
	"github.com/ethlayer/coreeth/log"
	"github.com/ethlayer/coreeth/trie"
	"github.com/ethlayer/coreeth/types"
)

var logger = log.Default().Module("core")

var (
	ErrNoGenesis     = errors.New("genesis block not provided")
	ErrBlockNotFound = errors.New("block not found")
	ErrStateNotFound = errors.New("state not found for block")
)

// BlockChain holds the canonical chain of blocks, maintains the trie-backed
// world state reachable at each block's root, and serializes inserts behind
// a single mutex. There is no separate "open tip" handle: a chain re-org
// happens entirely within InsertChain by comparing block number against the
// current head before swapping it.
type BlockChain struct {
	mu        sync.Mutex
	config    *ChainConfig
	trieDB    *trie.NodeDatabase
	processor *StateProcessor
	validator *BlockValidator

	blocks    map[types.Hash]*types.Block
	canonical map[uint64]types.Hash

	genesis      *types.Block
	currentBlock *types.Block
}

// NewBlockChain creates a chain rooted at genesis. genesisState must already
// be committed to trieDB at genesis.Root().
func NewBlockChain(config *ChainConfig, genesis *types.Block, trieDB *trie.NodeDatabase) (*BlockChain, error) {
	if genesis == nil {
		return nil, ErrNoGenesis
	}

	bc := &BlockChain{
		config:       config,
		trieDB:       trieDB,
		validator:    NewBlockValidator(config),
		blocks:       make(map[types.Hash]*types.Block),
		canonical:    make(map[uint64]types.Hash),
		genesis:      genesis,
		currentBlock: genesis,
	}
	bc.processor = NewStateProcessor(config, bc.getHash)

	hash := genesis.Hash()
	bc.blocks[hash] = genesis
	bc.canonical[genesis.NumberU64()] = hash
	return bc, nil
}

// InsertChain validates, executes, and appends a run of blocks to the
// chain. Blocks must each connect to an already-known parent (the
// previous block in the slice, or an existing chain block for the first
// one). It returns the number of blocks successfully inserted.
func (bc *BlockChain) InsertChain(blocks []*types.Block) (int, error) {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	for i, block := range blocks {
		if err := bc.insertBlock(block); err != nil {
			return i, fmt.Errorf("block %d (%s): %w", block.NumberU64(), block.Hash().Hex(), err)
		}
	}
	return len(blocks), nil
}

func (bc *BlockChain) insertBlock(block *types.Block) error {
	hash := block.Hash()
	if _, ok := bc.blocks[hash]; ok {
		return nil
	}

	header := block.Header()
	parent, ok := bc.blocks[header.ParentHash]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAncestor, header.ParentHash.Hex())
	}
	parentHeader := parent.Header()

	if err := bc.validator.ValidateHeader(header, parentHeader); err != nil {
		return err
	}
	if err := bc.validator.ValidateBody(block); err != nil {
		return err
	}

	statedb, err := state.New(parent.Root(), bc.trieDB)
	if err != nil {
		return fmt.Errorf("state at parent %d: %w", parent.NumberU64(), err)
	}

	receipts, err := bc.processor.Process(block, statedb)
	if err != nil {
		return fmt.Errorf("process: %w", err)
	}

	deleteEmpty := bc.config != nil && bc.config.IsEIP158(header.Number)
	eip6780 := bc.config != nil && bc.config.IsCancun(header.Time)
	root, err := statedb.Commit(deleteEmpty, eip6780)
	if err != nil {
		return fmt.Errorf("commit state: %w", err)
	}
	if err := bc.trieDB.Commit(); err != nil {
		return fmt.Errorf("commit trie db: %w", err)
	}

	var gasUsed uint64
	for _, r := range receipts {
		gasUsed = r.CumulativeGasUsed
	}
	if err := bc.validator.ValidatePostBlock(header, gasUsed, root, receipts); err != nil {
		return err
	}

	bc.blocks[hash] = block
	if num := block.NumberU64(); num > bc.currentBlock.NumberU64() {
		// Re-point the canonical index from the new head back to the first
		// ancestor that is already canonical at its height.
		for b := block; b != nil; b = bc.blocks[b.Header().ParentHash] {
			n, h := b.NumberU64(), b.Hash()
			if bc.canonical[n] == h {
				break
			}
			bc.canonical[n] = h
		}
		bc.currentBlock = block
		logger.Info("imported new chain segment",
			"number", num, "hash", hash.Hex(), "txs", len(block.Transactions()), "gasUsed", gasUsed)
	} else {
		logger.Debug("inserted side block", "number", block.NumberU64(), "hash", hash.Hex())
	}
	return nil
}

// GetBlock retrieves a block by hash, or nil if unknown.
func (bc *BlockChain) GetBlock(hash types.Hash) *types.Block {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return bc.blocks[hash]
}

// GetBlockByNumber retrieves the canonical block at number, or nil.
func (bc *BlockChain) GetBlockByNumber(number uint64) *types.Block {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	hash, ok := bc.canonical[number]
	if !ok {
		return nil
	}
	return bc.blocks[hash]
}

// CurrentBlock returns the canonical chain head.
func (bc *BlockChain) CurrentBlock() *types.Block {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return bc.currentBlock
}

// Config returns the chain configuration.
func (bc *BlockChain) Config() *ChainConfig { return bc.config }

// Genesis returns the genesis block.
func (bc *BlockChain) Genesis() *types.Block { return bc.genesis }

// StateAt returns the world state committed at block's root.
func (bc *BlockChain) StateAt(block *types.Block) (*state.StateDB, error) {
	statedb, err := state.New(block.Root(), bc.trieDB)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrStateNotFound, err)
	}
	return statedb, nil
}

// getHash resolves a block number to its canonical hash for the BLOCKHASH
// opcode, returning the zero hash for numbers above the current head or 256
// or more blocks behind it, so the head and the 255 blocks before it resolve.
func (bc *BlockChain) getHash(number uint64) types.Hash {
	current := bc.currentBlock.NumberU64()
	if number > current || current-number >= 256 {
		return types.Hash{}
	}
	if hash, ok := bc.canonical[number]; ok {
		return hash
	}
	return types.Hash{}
}
