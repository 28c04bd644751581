package vm

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"

	"github.com/ethlayer/coreeth/core/state"
	"github.com/ethlayer/coreeth/trie"
	"github.com/ethlayer/coreeth/types"
)

func newTestEVMAndState(t *testing.T, rules ForkRules) (*EVM, *state.StateDB) {
	t.Helper()
	db := trie.NewNodeDatabase(trie.NewMemoryKVStore())
	sdb, err := state.New(types.Hash{}, db)
	if err != nil {
		t.Fatalf("state.New: %v", err)
	}
	evm := NewEVM(BlockContext{}, TxContext{}, sdb, 1, rules, Config{})
	return evm, sdb
}

func addressToWord(addr types.Address) *uint256.Int {
	var b [32]byte
	copy(b[12:], addr[:])
	return new(uint256.Int).SetBytes(b[:])
}

// gasOf sums an operation's constant and dynamic gas, given a stack already
// set up as the interpreter would leave it just before execute runs.
func gasOf(evm *EVM, op *operation, contract *Contract, stack *Stack) uint64 {
	total := op.constantGas
	if op.dynamicGas != nil {
		total += op.dynamicGas(evm, contract, stack, NewMemory(), 0)
	}
	return total
}

func TestSloadGasPerFork(t *testing.T) {
	addr := types.HexToAddress("0xaa")
	slot := types.HexToHash("0x01")

	tests := []struct {
		name  string
		rules ForkRules
		want  uint64
	}{
		{"frontier", ForkRules{}, GasSloadFrontier},
		{"tangerine whistle", ForkRules{IsEIP150: true}, GasSloadEIP150},
		{"istanbul (still pre-Berlin)", ForkRules{IsEIP150: true, IsIstanbul: true}, GasSloadEIP150},
		{"berlin cold access", ForkRules{IsEIP150: true, IsBerlin: true}, ColdSloadCost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evm, _ := newTestEVMAndState(t, tt.rules)
			tbl := newJumpTable(tt.rules)
			op := tbl[SLOAD]
			if op == nil {
				t.Fatal("SLOAD undefined")
			}
			contract := NewContract(addr, addr, new(uint256.Int), 1_000_000)
			stack := NewStack()
			stack.Push(new(uint256.Int).SetBytes(slot[:]))
			if got := gasOf(evm, op, contract, stack); got != tt.want {
				t.Errorf("SLOAD gas: got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCallConstantGasPerFork(t *testing.T) {
	caller := types.HexToAddress("0x01")
	callee := types.HexToAddress("0x02")

	// Stack order for CALL (bottom to top): retLength, retOffset, argsLength,
	// argsOffset, value, addr, gas -- Back(0) is gas, matching opCall's pops.
	pushCallStack := func(s *Stack) {
		s.Push(new(uint256.Int))               // retLength
		s.Push(new(uint256.Int))               // retOffset
		s.Push(new(uint256.Int))               // argsLength
		s.Push(new(uint256.Int))               // argsOffset
		s.Push(new(uint256.Int))               // value (no transfer, isolate base cost)
		s.Push(addressToWord(callee))          // addr
		s.Push(uint256.NewInt(100_000))        // gas requested
	}

	tests := []struct {
		name  string
		rules ForkRules
		want  uint64
	}{
		{"frontier", ForkRules{}, GasCallFrontier},
		{"tangerine whistle", ForkRules{IsEIP150: true}, GasCallEIP150},
		{"berlin cold access", ForkRules{IsEIP150: true, IsBerlin: true}, ColdAccountAccessCost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evm, _ := newTestEVMAndState(t, tt.rules)
			tbl := newJumpTable(tt.rules)
			op := tbl[CALL]
			if op == nil {
				t.Fatal("CALL undefined")
			}
			contract := NewContract(caller, caller, new(uint256.Int), 1_000_000)
			stack := NewStack()
			pushCallStack(stack)
			if got := gasOf(evm, op, contract, stack); got != tt.want {
				t.Errorf("CALL gas: got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestExpGasViaJumpTable(t *testing.T) {
	addr := types.HexToAddress("0xaa")
	rules := ForkRules{}
	evm, _ := newTestEVMAndState(t, rules)
	tbl := newJumpTable(rules)
	op := tbl[EXP]
	if op == nil {
		t.Fatal("EXP undefined")
	}

	tests := []struct {
		exponent uint64
		want     uint64
	}{
		{0, GasHigh},
		{1, GasHigh + 50},
		{256, GasHigh + 100},
	}
	for _, tt := range tests {
		contract := NewContract(addr, addr, new(uint256.Int), 1_000_000)
		stack := NewStack()
		stack.Push(uint256.NewInt(tt.exponent)) // exponent (pushed first, so Back(1))
		stack.Push(new(uint256.Int))             // base (top, Back(0))
		if got := gasOf(evm, op, contract, stack); got != tt.want {
			t.Errorf("EXP gas with exponent %d: got %d, want %d", tt.exponent, got, tt.want)
		}
	}
}

func TestSSTOREColdSurchargeOnlyAppliesFromBerlin(t *testing.T) {
	addr := types.HexToAddress("0xaa")
	slot := types.HexToHash("0x01")

	newStack := func() *Stack {
		s := NewStack()
		s.Push(new(uint256.Int).SetUint64(1)) // val (Back(1))
		s.Push(new(uint256.Int).SetBytes(slot[:])) // loc (Back(0), top)
		return s
	}

	legacyRules := ForkRules{IsEIP150: true}
	evm, _ := newTestEVMAndState(t, legacyRules)
	legacyOp := newJumpTable(legacyRules)[SSTORE]
	if legacyOp == nil || legacyOp.constantGas != 0 {
		t.Fatal("SSTORE's constant gas is always zero; all its cost is dynamic")
	}
	contract := NewContract(addr, addr, new(uint256.Int), 1_000_000)
	legacyGas := gasOf(evm, legacyOp, contract, newStack())
	if legacyGas != GasSstoreSet {
		t.Errorf("pre-Berlin SSTORE of a fresh slot: got %d, want %d (no cold surcharge exists yet)", legacyGas, GasSstoreSet)
	}

	berlinRules := ForkRules{IsEIP150: true, IsBerlin: true}
	evmBerlin, _ := newTestEVMAndState(t, berlinRules)
	berlinOp := newJumpTable(berlinRules)[SSTORE]
	berlinGas := gasOf(evmBerlin, berlinOp, contract, newStack())
	if want := GasSstoreSet + ColdSloadCost; berlinGas != want {
		t.Errorf("Berlin SSTORE of a cold fresh slot: got %d, want %d", berlinGas, want)
	}
}

func TestSelfdestructRefundGrantedOnlyPreLondon(t *testing.T) {
	contractAddr := types.HexToAddress("0xcc")
	beneficiary := types.HexToAddress("0xdd")

	for _, tt := range []struct {
		name       string
		london     bool
		wantRefund uint64
	}{
		{"pre-London grants the 24000 gas refund", false, SelfdestructRefundGas},
		{"post-London grants no refund (EIP-3529)", true, 0},
	} {
		t.Run(tt.name, func(t *testing.T) {
			rules := ForkRules{IsLondon: tt.london}
			evm, sdb := newTestEVMAndState(t, rules)
			sdb.CreateAccount(contractAddr)
			sdb.AddBalance(contractAddr, big.NewInt(10))

			contract := NewContract(contractAddr, contractAddr, new(uint256.Int), 1_000_000)
			stack := NewStack()
			stack.Push(addressToWord(beneficiary))
			var pc uint64
			if _, err := opSelfdestruct(&pc, evm, contract, NewMemory(), stack); err != nil {
				t.Fatalf("opSelfdestruct: %v", err)
			}
			if got := sdb.GetRefund(); got != tt.wantRefund {
				t.Errorf("refund: got %d, want %d", got, tt.wantRefund)
			}
			if !sdb.HasSelfDestructed(contractAddr) {
				t.Error("expected account marked self-destructed")
			}
		})
	}
}

func TestCreateRejectsEIP3541CodePrefixPostLondon(t *testing.T) {
	caller := types.HexToAddress("0x01")

	for _, tt := range []struct {
		name    string
		london  bool
		wantErr error
	}{
		{"pre-London allows 0xEF-prefixed code", false, nil},
		{"post-London rejects 0xEF-prefixed code", true, ErrInvalidCodePrefix},
	} {
		t.Run(tt.name, func(t *testing.T) {
			rules := ForkRules{IsLondon: tt.london}
			evm, sdb := newTestEVMAndState(t, rules)
			sdb.CreateAccount(caller)
			sdb.AddBalance(caller, big.NewInt(1_000_000))

			// PUSH1 0xEF, PUSH1 31, MSTORE8, PUSH1 1, PUSH1 31, RETURN:
			// writes 0xEF to memory offset 31, then returns that single byte.
			initCode := []byte{
				0x60, 0xEF, // PUSH1 0xEF
				0x60, 0x1F, // PUSH1 31
				0x53,       // MSTORE8
				0x60, 0x01, // PUSH1 1
				0x60, 0x1F, // PUSH1 31
				0xF3, // RETURN
			}

			_, _, _, err := evm.Create(caller, initCode, 1_000_000, big.NewInt(0))
			if tt.wantErr == nil && err != nil {
				t.Fatalf("expected success pre-London, got %v", err)
			}
			if tt.wantErr != nil && err != tt.wantErr {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
