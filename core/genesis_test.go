package core

import (
	"math/big"
	"testing"

	"github.com/ethlayer/coreeth/core/state"
	"github.com/ethlayer/coreeth/trie"
	"github.com/ethlayer/coreeth/types"
)

func TestGenesisToBlockShanghaiCancunFields(t *testing.T) {
	g := DefaultTestGenesisBlock(nil)
	block := g.ToBlock()
	header := block.Header()

	if header.WithdrawalsHash == nil {
		t.Fatal("expected WithdrawalsHash to be set under TestConfig (Shanghai active at genesis)")
	}
	if header.ExcessBlobGas == nil || header.BlobGasUsed == nil {
		t.Fatal("expected blob gas fields to be set under TestConfig (Cancun active at genesis)")
	}
	if header.BaseFee == nil {
		t.Fatal("expected BaseFee to be set under TestConfig (London active at genesis)")
	}
	if header.BaseFee.Cmp(big.NewInt(InitialBaseFee)) != 0 {
		t.Fatalf("expected initial base fee, got %s", header.BaseFee)
	}
}

func TestGenesisCommitAppliesAlloc(t *testing.T) {
	addr := types.Address{4}
	alloc := GenesisAlloc{
		addr: {Balance: big.NewInt(1_000_000), Nonce: 3},
	}
	g := DefaultTestGenesisBlock(alloc)
	trieDB := trie.NewNodeDatabase(trie.NewMemoryKVStore())

	block, err := g.Commit(trieDB)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if block.Root() == (types.Hash{}) {
		t.Fatal("expected a non-zero state root after committing a funded account")
	}

	sdb, err := state.New(block.Root(), trieDB)
	if err != nil {
		t.Fatalf("state.New: %v", err)
	}
	if got := sdb.GetBalance(addr); got.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Fatalf("balance not applied: got %s", got)
	}
	if got := sdb.GetNonce(addr); got != 3 {
		t.Fatalf("nonce not applied: got %d", got)
	}
}

func TestSetupGenesisBlockChainDefaultsConfig(t *testing.T) {
	trieDB := trie.NewNodeDatabase(trie.NewMemoryKVStore())
	g := &Genesis{GasLimit: 10_000_000, Alloc: GenesisAlloc{}}

	bc, err := SetupGenesisBlockChain(g, trieDB)
	if err != nil {
		t.Fatalf("SetupGenesisBlockChain: %v", err)
	}
	if bc.Config() != TestConfig {
		t.Fatal("expected nil Genesis.Config to default to TestConfig")
	}
}
