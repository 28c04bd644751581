package core

import "github.com/ethlayer/coreeth/types"

// ExecutionResult holds the outcome of executing a single transaction
// message against the EVM: gas actually consumed (after refunds), the
// return/revert data, and the address of any contract it created.
type ExecutionResult struct {
	UsedGas         uint64
	Err             error
	ReturnData      []byte
	ContractAddress types.Address // set only for a successful contract creation
}

// Unwrap returns the execution error, if any.
func (r *ExecutionResult) Unwrap() error { return r.Err }

// Failed reports whether execution ended in an EVM error (revert, out of
// gas, invalid opcode, ...). A failed transaction is still valid and pays
// gas; it simply leaves no state changes from its call/create frame.
func (r *ExecutionResult) Failed() bool { return r.Err != nil }

// Return returns the returned data from a successful execution.
func (r *ExecutionResult) Return() []byte {
	if r.Failed() {
		return nil
	}
	return r.ReturnData
}

// Revert returns the revert reason data from a failed execution.
func (r *ExecutionResult) Revert() []byte {
	if r.Failed() {
		return r.ReturnData
	}
	return nil
}
