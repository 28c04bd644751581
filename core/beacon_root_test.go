package core

import (
	"testing"

	"github.com/ethlayer/coreeth/types"
)

func TestProcessBeaconBlockRootWritesRingBuffer(t *testing.T) {
	sdb := newTestStateDB(t)
	root := types.Hash{0xaa}
	header := &types.Header{Time: 12345, ParentBeaconBlockRoot: &root}

	ProcessBeaconBlockRoot(sdb, header)

	timestampIdx := header.Time % historyBufferLength
	rootIdx := timestampIdx + historyBufferLength

	if got := sdb.GetState(BeaconRootAddress, uint64ToHash(timestampIdx)); got != uint64ToHash(header.Time) {
		t.Fatalf("timestamp slot wrong: got %x", got)
	}
	if got := sdb.GetState(BeaconRootAddress, uint64ToHash(rootIdx)); got != root {
		t.Fatalf("root slot wrong: got %x, want %x", got, root)
	}
}

func TestProcessBeaconBlockRootNoopPreCancun(t *testing.T) {
	sdb := newTestStateDB(t)
	header := &types.Header{Time: 1}

	ProcessBeaconBlockRoot(sdb, header)

	if got := sdb.GetState(BeaconRootAddress, uint64ToHash(1)); got != (types.Hash{}) {
		t.Fatalf("expected no write without a parent beacon root, got %x", got)
	}
}
