package core

import (
	"math/big"
	"testing"

	"github.com/ethlayer/coreeth/trie"
	"github.com/ethlayer/coreeth/types"
)

// londonMergeConfig activates every fork through London and the merge at
// block zero but leaves Shanghai/Cancun inactive, keeping test blocks free
// of withdrawals and the beacon-root system call.
func londonMergeConfig() *ChainConfig {
	return &ChainConfig{
		ChainID:             big.NewInt(1337),
		HomesteadBlock:      big.NewInt(0),
		EIP150Block:         big.NewInt(0),
		EIP155Block:         big.NewInt(0),
		EIP158Block:         big.NewInt(0),
		ByzantiumBlock:      big.NewInt(0),
		ConstantinopleBlock: big.NewInt(0),
		PetersburgBlock:     big.NewInt(0),
		IstanbulBlock:       big.NewInt(0),
		BerlinBlock:         big.NewInt(0),
		LondonBlock:         big.NewInt(0),
		MergeNetsplitBlock:  big.NewInt(0),
	}
}

func newTestChain(t *testing.T) (*BlockChain, *trie.NodeDatabase) {
	t.Helper()
	trieDB := trie.NewNodeDatabase(trie.NewMemoryKVStore())
	genesis := &Genesis{
		Config:     londonMergeConfig(),
		GasLimit:   10_000_000,
		Difficulty: big.NewInt(0),
		Timestamp:  1000,
		Alloc:      GenesisAlloc{},
	}
	bc, err := SetupGenesisBlockChain(genesis, trieDB)
	if err != nil {
		t.Fatalf("SetupGenesisBlockChain: %v", err)
	}
	return bc, trieDB
}

func nextEmptyBlock(t *testing.T, parent *types.Block) *types.Block {
	t.Helper()
	ph := parent.Header()
	header := &types.Header{
		ParentHash: parent.Hash(),
		Number:     new(big.Int).Add(ph.Number, big.NewInt(1)),
		Difficulty: big.NewInt(0),
		GasLimit:   ph.GasLimit,
		Time:       ph.Time + 1,
		BaseFee:    CalcBaseFee(ph),
		Root:       ph.Root, // no state change: no txs, no withdrawals, no system calls
	}
	return types.NewBlockWithHeader(header).WithBody(nil, nil, nil)
}

func TestNewBlockChainSeedsGenesis(t *testing.T) {
	bc, _ := newTestChain(t)
	if bc.CurrentBlock().NumberU64() != 0 {
		t.Fatalf("expected chain head at genesis, got block %d", bc.CurrentBlock().NumberU64())
	}
	if bc.GetBlockByNumber(0) == nil {
		t.Fatal("genesis block should be retrievable by number")
	}
}

func TestInsertChainExtendsHead(t *testing.T) {
	bc, _ := newTestChain(t)
	block1 := nextEmptyBlock(t, bc.Genesis())

	n, err := bc.InsertChain([]*types.Block{block1})
	if err != nil {
		t.Fatalf("InsertChain: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 block inserted, got %d", n)
	}
	if bc.CurrentBlock().NumberU64() != 1 {
		t.Fatalf("expected head at block 1, got %d", bc.CurrentBlock().NumberU64())
	}
	if bc.GetBlock(block1.Hash()) == nil {
		t.Fatal("inserted block should be retrievable by hash")
	}
}

func TestInsertChainRejectsUnknownParent(t *testing.T) {
	bc, _ := newTestChain(t)
	orphan := nextEmptyBlock(t, bc.Genesis())
	orphan2 := nextEmptyBlock(t, orphan) // skips straight to block 2, parent never inserted

	if _, err := bc.InsertChain([]*types.Block{orphan2}); err == nil {
		t.Fatal("expected unknown ancestor error")
	}
}

func TestStateAtReturnsGenesisState(t *testing.T) {
	bc, _ := newTestChain(t)
	sdb, err := bc.StateAt(bc.Genesis())
	if err != nil {
		t.Fatalf("StateAt: %v", err)
	}
	if sdb == nil {
		t.Fatal("expected a non-nil state")
	}
}
