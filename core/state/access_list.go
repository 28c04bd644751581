package state

import "github.com/ethlayer/coreeth/types"

// accessList tracks the warm addresses and storage slots of the current
// transaction per EIP-2929. Addresses with no warm slots map to -1.
type accessList struct {
	addresses map[types.Address]int
	slots     []map[types.Hash]struct{}
}

func newAccessList() *accessList {
	return &accessList{addresses: make(map[types.Address]int)}
}

// AddAddress warms addr, returning whether it was already warm.
func (al *accessList) AddAddress(addr types.Address) bool {
	if _, ok := al.addresses[addr]; ok {
		return true
	}
	al.addresses[addr] = -1
	return false
}

// AddSlot warms (addr, slot), returning whether the address and the slot
// were already warm.
func (al *accessList) AddSlot(addr types.Address, slot types.Hash) (addrPresent, slotPresent bool) {
	idx, addrPresent := al.addresses[addr]
	if addrPresent && idx != -1 {
		if _, ok := al.slots[idx][slot]; ok {
			return true, true
		}
		al.slots[idx][slot] = struct{}{}
		return true, false
	}
	al.addresses[addr] = len(al.slots)
	al.slots = append(al.slots, map[types.Hash]struct{}{slot: {}})
	return addrPresent, false
}

func (al *accessList) ContainsAddress(addr types.Address) bool {
	_, ok := al.addresses[addr]
	return ok
}

func (al *accessList) ContainsSlot(addr types.Address, slot types.Hash) (addressOk, slotOk bool) {
	idx, ok := al.addresses[addr]
	if !ok {
		return false, false
	}
	if idx == -1 {
		return true, false
	}
	_, slotOk = al.slots[idx][slot]
	return true, slotOk
}

func (al *accessList) DeleteAddress(addr types.Address) {
	delete(al.addresses, addr)
}

func (al *accessList) DeleteSlot(addr types.Address, slot types.Hash) {
	idx, ok := al.addresses[addr]
	if !ok || idx == -1 {
		return
	}
	delete(al.slots[idx], slot)
}

func (al *accessList) Copy() *accessList {
	cp := &accessList{
		addresses: make(map[types.Address]int, len(al.addresses)),
		slots:     make([]map[types.Hash]struct{}, len(al.slots)),
	}
	for k, v := range al.addresses {
		cp.addresses[k] = v
	}
	for i, m := range al.slots {
		cp.slots[i] = make(map[types.Hash]struct{}, len(m))
		for k := range m {
			cp.slots[i][k] = struct{}{}
		}
	}
	return cp
}
