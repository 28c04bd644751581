package core

import (
	"github.com/ethlayer/coreeth/core/vm"
	"github.com/ethlayer/coreeth/types"
)

// Intrinsic gas constants (pre-execution cost of a transaction, charged
// before any EVM instruction runs).
const (
	TxGas             uint64 = 21000
	TxGasContractCreation uint64 = TxGas + TxCreateGas
	TxDataZeroGas     uint64 = 4
	TxDataNonZeroGas  uint64 = 16
	TxCreateGas       uint64 = 32000

	// EIP-2930 access list surcharges.
	TxAccessListAddressGas    uint64 = 2400
	TxAccessListStorageKeyGas uint64 = 1900
)

// IntrinsicGas computes the gas a transaction must pay before execution
// begins: the flat base cost, the per-byte calldata cost, the contract
// creation surcharge, EIP-3860 init-code word cost (Shanghai+), and the
// EIP-2930 access list surcharge.
func IntrinsicGas(data []byte, accessList types.AccessList, isCreate, isShanghai bool) uint64 {
	gas := TxGas
	if isCreate {
		gas += TxCreateGas
	}
	for _, b := range data {
		if b == 0 {
			gas += TxDataZeroGas
		} else {
			gas += TxDataNonZeroGas
		}
	}
	if isCreate && isShanghai {
		words := (uint64(len(data)) + 31) / 32
		gas += words * vm.InitCodeWordGas
	}
	for _, tuple := range accessList {
		gas += TxAccessListAddressGas
		gas += uint64(len(tuple.StorageKeys)) * TxAccessListStorageKeyGas
	}
	return gas
}
