package core

import (
	"errors"
	"fmt"
)

// ErrGasPoolExhausted is returned when the block gas pool has insufficient gas.
var ErrGasPoolExhausted = errors.New("gas pool exhausted")

// GasPool tracks the gas available for executing transactions in a single
// block. It starts at the block's gas limit and is drained as each
// transaction is applied.
type GasPool uint64

// AddGas makes gas available for execution.
func (gp *GasPool) AddGas(amount uint64) *GasPool {
	*gp += GasPool(amount)
	return gp
}

// SubGas deducts the given amount, failing if the pool holds less.
func (gp *GasPool) SubGas(amount uint64) error {
	if uint64(*gp) < amount {
		return ErrGasPoolExhausted
	}
	*gp -= GasPool(amount)
	return nil
}

// Gas returns the amount of gas remaining in the pool.
func (gp *GasPool) Gas() uint64 {
	return uint64(*gp)
}

func (gp *GasPool) String() string {
	return fmt.Sprintf("%d", uint64(*gp))
}
