package types

// AccessTuple names an address and the storage slots within it that a
// transaction pre-declares it will touch (EIP-2930). Declared slots are
// charged the warm SLOAD/SSTORE price from the first access rather than
// paying the cold surcharge once.
type AccessTuple struct {
	Address     Address
	StorageKeys []Hash
}

// AccessList is the ordered set of access tuples carried by an
// AccessListTx, DynamicFeeTx, or BlobTx.
type AccessList []AccessTuple

// StorageKeys returns the total number of storage keys named across the
// whole list, used for the EIP-2930 gas surcharge.
func (al AccessList) StorageKeys() int {
	n := 0
	for _, tuple := range al {
		n += len(tuple.StorageKeys)
	}
	return n
}

func copyAccessList(al AccessList) AccessList {
	if al == nil {
		return nil
	}
	cpy := make(AccessList, len(al))
	for i, tuple := range al {
		cpy[i] = AccessTuple{
			Address:     tuple.Address,
			StorageKeys: append([]Hash(nil), tuple.StorageKeys...),
		}
	}
	return cpy
}
