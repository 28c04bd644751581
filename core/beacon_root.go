package core

import (
	"encoding/binary"

	"github.com/ethlayer/coreeth/core/state"
	"github.com/ethlayer/coreeth/types"
)

// historyBufferLength is the EIP-4788 ring buffer size: the beacon root
// contract remembers the last 8191 parent beacon block roots.
const historyBufferLength = 8191

// BeaconRootAddress is the EIP-4788 system contract that stores parent
// beacon block roots so the EVM can read them via historical lookups.
var BeaconRootAddress = types.HexToAddress("0x000F3df6D732807Ef1319fB7B8bB8522d0Beac02")

// ProcessBeaconBlockRoot writes header's parent beacon block root into the
// beacon root contract's ring buffer before any transaction in the block
// runs. This implements EIP-4788 and is a no-op before Cancun (header.
// ParentBeaconBlockRoot is nil).
func ProcessBeaconBlockRoot(statedb *state.StateDB, header *types.Header) {
	if header.ParentBeaconBlockRoot == nil {
		return
	}

	timestampIdx := header.Time % historyBufferLength
	rootIdx := timestampIdx + historyBufferLength

	statedb.SetState(BeaconRootAddress, uint64ToHash(timestampIdx), uint64ToHash(header.Time))
	statedb.SetState(BeaconRootAddress, uint64ToHash(rootIdx), *header.ParentBeaconBlockRoot)
}

func uint64ToHash(v uint64) types.Hash {
	var h types.Hash
	binary.BigEndian.PutUint64(h[24:], v)
	return h
}
