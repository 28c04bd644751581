package vm

import (
	"github.com/holiman/uint256"

	"github.com/ethlayer/coreeth/types"
)

// Contract is the running execution context for one call frame: the code
// being run, its remaining gas, and the inputs the CALL family passed it.
type Contract struct {
	CallerAddress types.Address
	Address       types.Address

	Code     []byte
	CodeHash types.Hash
	Input    []byte

	Gas   uint64
	Value *uint256.Int

	jumpdests map[uint64]bool
}

// NewContract builds the frame for a call into addr, as caller, carrying
// value and an initial gas allowance.
func NewContract(caller, addr types.Address, value *uint256.Int, gas uint64) *Contract {
	if value == nil {
		value = new(uint256.Int)
	}
	return &Contract{
		CallerAddress: caller,
		Address:       addr,
		Value:         value,
		Gas:           gas,
	}
}

// GetOp returns the opcode at n, or STOP past the end of the code (the
// implicit trailing STOP every contract runs off the end into).
func (c *Contract) GetOp(n uint64) OpCode {
	if n < uint64(len(c.Code)) {
		return OpCode(c.Code[n])
	}
	return STOP
}

// UseGas deducts gas from the contract's remaining allowance, reporting
// whether enough was available.
func (c *Contract) UseGas(gas uint64) bool {
	if c.Gas < gas {
		return false
	}
	c.Gas -= gas
	return true
}

// SetCallCode installs the code this frame executes, distinct from
// Address when the call is CALLCODE/DELEGATECALL.
func (c *Contract) SetCallCode(addr types.Address, hash types.Hash, code []byte) {
	c.Code = code
	c.CodeHash = hash
	_ = addr
}

// validJumpdest reports whether dest is a JUMPDEST that isn't inside PUSH
// data.
func (c *Contract) validJumpdest(dest *uint256.Int) bool {
	if !dest.IsUint64() {
		return false
	}
	udest := dest.Uint64()
	if udest >= uint64(len(c.Code)) {
		return false
	}
	if OpCode(c.Code[udest]) != JUMPDEST {
		return false
	}
	return c.isCode(udest)
}

func (c *Contract) isCode(pos uint64) bool {
	if c.jumpdests == nil {
		c.jumpdests = analyzeJumpdests(c.Code)
	}
	return c.jumpdests[pos]
}

// analyzeJumpdests scans code once, recording which JUMPDEST positions are
// real instructions rather than bytes embedded in a preceding PUSH's
// immediate data.
func analyzeJumpdests(code []byte) map[uint64]bool {
	dests := make(map[uint64]bool)
	for pc := uint64(0); pc < uint64(len(code)); pc++ {
		op := OpCode(code[pc])
		if op == JUMPDEST {
			dests[pc] = true
			continue
		}
		if op >= PUSH1 && op <= PUSH32 {
			pc += uint64(op-PUSH1) + 1
		}
	}
	return dests
}
