// Package core implements the chain-level execution pipeline: fork
// scheduling, transaction application, block validation, and the
// in-memory block chain built on top of core/state and core/vm.
package core

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethlayer/coreeth/core/vm"
)

// ChainConfig holds the fork schedule for a network. Pre-merge forks are
// gated by block number, post-merge forks by timestamp, matching mainnet's
// own transition from block-based to time-based fork activation.
type ChainConfig struct {
	ChainID *big.Int

	HomesteadBlock      *big.Int
	EIP150Block         *big.Int
	EIP155Block         *big.Int
	EIP158Block         *big.Int
	ByzantiumBlock      *big.Int
	ConstantinopleBlock *big.Int
	PetersburgBlock     *big.Int
	IstanbulBlock       *big.Int
	MuirGlacierBlock    *big.Int
	BerlinBlock         *big.Int
	LondonBlock         *big.Int

	// MergeNetsplitBlock is the block at which the chain is known to have
	// transitioned to proof-of-stake. Unlike mainnet's TerminalTotalDifficulty,
	// this module has no difficulty oracle, so the merge is tracked as a plain
	// block-number fork like every other one.
	MergeNetsplitBlock *big.Int

	ShanghaiTime *uint64
	CancunTime   *uint64
}

func newUint64(v uint64) *uint64 { return &v }

func isBlockForked(forkBlock, num *big.Int) bool {
	if forkBlock == nil {
		return false
	}
	return num != nil && forkBlock.Cmp(num) <= 0
}

func isTimestampForked(forkTime *uint64, time uint64) bool {
	if forkTime == nil {
		return false
	}
	return *forkTime <= time
}

func (c *ChainConfig) IsHomestead(num *big.Int) bool      { return isBlockForked(c.HomesteadBlock, num) }
func (c *ChainConfig) IsEIP150(num *big.Int) bool         { return isBlockForked(c.EIP150Block, num) }
func (c *ChainConfig) IsEIP155(num *big.Int) bool         { return isBlockForked(c.EIP155Block, num) }
func (c *ChainConfig) IsEIP158(num *big.Int) bool         { return isBlockForked(c.EIP158Block, num) }
func (c *ChainConfig) IsByzantium(num *big.Int) bool      { return isBlockForked(c.ByzantiumBlock, num) }
func (c *ChainConfig) IsConstantinople(num *big.Int) bool {
	return isBlockForked(c.ConstantinopleBlock, num)
}
func (c *ChainConfig) IsPetersburg(num *big.Int) bool  { return isBlockForked(c.PetersburgBlock, num) }
func (c *ChainConfig) IsIstanbul(num *big.Int) bool    { return isBlockForked(c.IstanbulBlock, num) }
func (c *ChainConfig) IsMuirGlacier(num *big.Int) bool { return isBlockForked(c.MuirGlacierBlock, num) }
func (c *ChainConfig) IsBerlin(num *big.Int) bool      { return isBlockForked(c.BerlinBlock, num) }
func (c *ChainConfig) IsLondon(num *big.Int) bool      { return isBlockForked(c.LondonBlock, num) }
func (c *ChainConfig) IsMerge(num *big.Int) bool       { return isBlockForked(c.MergeNetsplitBlock, num) }

// IsShanghai returns whether the given block time is at or past the Shanghai fork.
func (c *ChainConfig) IsShanghai(time uint64) bool { return isTimestampForked(c.ShanghaiTime, time) }

// IsCancun returns whether the given block time is at or past the Cancun fork.
func (c *ChainConfig) IsCancun(time uint64) bool { return isTimestampForked(c.CancunTime, time) }

// Rules computes the fork-activation flags consumed by core/vm's jump
// table and gas schedule for the given block number and timestamp.
func (c *ChainConfig) Rules(num *big.Int, time uint64) vm.ForkRules {
	return vm.ForkRules{
		IsHomestead:      c.IsHomestead(num),
		IsEIP150:         c.IsEIP150(num),
		IsByzantium:      c.IsByzantium(num),
		IsConstantinople: c.IsConstantinople(num),
		IsIstanbul:       c.IsIstanbul(num),
		IsBerlin:         c.IsBerlin(num),
		IsLondon:         c.IsLondon(num),
		IsMerge:          c.IsMerge(num),
		IsShanghai:       c.IsShanghai(time),
		IsCancun:         c.IsCancun(time),
		IsEIP158:         c.IsEIP158(num),
	}
}

// ForkID identifies a single fork by name and activation point.
type ForkID struct {
	Name      string
	Block     *big.Int // non-nil for block-number forks
	Timestamp *uint64  // non-nil for timestamp forks
}

func (f ForkID) String() string {
	if f.Block != nil {
		return fmt.Sprintf("%s@block:%s", f.Name, f.Block.String())
	}
	if f.Timestamp != nil {
		return fmt.Sprintf("%s@time:%d", f.Name, *f.Timestamp)
	}
	return fmt.Sprintf("%s@pending", f.Name)
}

// IsActive reports whether the fork is active at the given block number and timestamp.
func (f ForkID) IsActive(num *big.Int, time uint64) bool {
	if f.Block != nil {
		return isBlockForked(f.Block, num)
	}
	if f.Timestamp != nil {
		return isTimestampForked(f.Timestamp, time)
	}
	return false
}

// ForkSchedule returns the complete ordered list of forks in this configuration.
func (c *ChainConfig) ForkSchedule() []ForkID {
	return []ForkID{
		{Name: "Homestead", Block: c.HomesteadBlock},
		{Name: "EIP150", Block: c.EIP150Block},
		{Name: "EIP155", Block: c.EIP155Block},
		{Name: "EIP158", Block: c.EIP158Block},
		{Name: "Byzantium", Block: c.ByzantiumBlock},
		{Name: "Constantinople", Block: c.ConstantinopleBlock},
		{Name: "Petersburg", Block: c.PetersburgBlock},
		{Name: "Istanbul", Block: c.IstanbulBlock},
		{Name: "MuirGlacier", Block: c.MuirGlacierBlock},
		{Name: "Berlin", Block: c.BerlinBlock},
		{Name: "London", Block: c.LondonBlock},
		{Name: "Merge", Block: c.MergeNetsplitBlock},
		{Name: "Shanghai", Timestamp: c.ShanghaiTime},
		{Name: "Cancun", Timestamp: c.CancunTime},
	}
}

// ActiveForks returns the forks active at the given block number and timestamp.
func (c *ChainConfig) ActiveForks(num *big.Int, time uint64) []ForkID {
	var active []ForkID
	for _, f := range c.ForkSchedule() {
		if f.IsActive(num, time) {
			active = append(active, f)
		}
	}
	return active
}

// ForkConfigDiff describes a single fork whose activation point differs
// between two chain configurations.
type ForkConfigDiff struct {
	ForkName string
	Local    string
	Remote   string
}

func forkPointString(f ForkID) string {
	if f.Block != nil {
		return fmt.Sprintf("block:%s", f.Block.String())
	}
	if f.Timestamp != nil {
		return fmt.Sprintf("time:%d", *f.Timestamp)
	}
	return "nil"
}

// ConfigDiff compares two chain configurations and returns every fork whose
// activation point differs, in fork order. Used to detect incompatible
// configs when handshaking with a peer.
func ConfigDiff(local, remote *ChainConfig) []ForkConfigDiff {
	if local == nil || remote == nil {
		return nil
	}
	localForks, remoteForks := local.ForkSchedule(), remote.ForkSchedule()
	var diffs []ForkConfigDiff
	for i := 0; i < len(localForks) && i < len(remoteForks); i++ {
		lf, rf := localForks[i], remoteForks[i]
		if lStr, rStr := forkPointString(lf), forkPointString(rf); lStr != rStr {
			diffs = append(diffs, ForkConfigDiff{ForkName: lf.Name, Local: lStr, Remote: rStr})
		}
	}
	return diffs
}

// ConfigCompatError reports an incompatibility between two chain configs at
// a fork that has already activated on the local chain.
type ConfigCompatError struct {
	ForkName  string
	LocalVal  string
	RemoteVal string
	HeadBlock uint64
	HeadTime  uint64
}

func (e *ConfigCompatError) Error() string {
	return fmt.Sprintf("incompatible fork %q: local=%s remote=%s (head block=%d time=%d)",
		e.ForkName, e.LocalVal, e.RemoteVal, e.HeadBlock, e.HeadTime)
}

// CheckConfigCompatible returns the first fork at which local and remote
// configs disagree and that fork is already active on the local chain, or
// nil if the two configs agree on everything seen so far.
func CheckConfigCompatible(local, remote *ChainConfig, headNum, headTime uint64) *ConfigCompatError {
	if local == nil || remote == nil {
		return nil
	}
	num := new(big.Int).SetUint64(headNum)
	for _, d := range ConfigDiff(local, remote) {
		for _, f := range local.ForkSchedule() {
			if f.Name != d.ForkName {
				continue
			}
			if f.IsActive(num, headTime) {
				return &ConfigCompatError{d.ForkName, d.Local, d.Remote, headNum, headTime}
			}
			break
		}
	}
	return nil
}

// Validate checks internal consistency: a positive chain ID, monotonic
// block-number fork ordering, monotonic timestamp fork ordering, and that
// Shanghai (the first post-merge fork) is only scheduled once the merge
// block is set.
func (c *ChainConfig) Validate() error {
	if c.ChainID == nil || c.ChainID.Sign() <= 0 {
		return errors.New("invalid chain ID: must be positive")
	}

	blockForks := []struct {
		name  string
		block *big.Int
	}{
		{"Homestead", c.HomesteadBlock},
		{"EIP150", c.EIP150Block},
		{"EIP155", c.EIP155Block},
		{"EIP158", c.EIP158Block},
		{"Byzantium", c.ByzantiumBlock},
		{"Constantinople", c.ConstantinopleBlock},
		{"Petersburg", c.PetersburgBlock},
		{"Istanbul", c.IstanbulBlock},
		{"MuirGlacier", c.MuirGlacierBlock},
		{"Berlin", c.BerlinBlock},
		{"London", c.LondonBlock},
	}
	var lastBlock *big.Int
	var lastName string
	for _, f := range blockForks {
		if f.block == nil {
			continue
		}
		if f.block.Sign() < 0 {
			return fmt.Errorf("invalid %s fork block: must be >= 0", f.name)
		}
		if lastBlock != nil && f.block.Cmp(lastBlock) < 0 {
			return fmt.Errorf("fork ordering: %s (block %s) must be >= %s (block %s)",
				f.name, f.block, lastName, lastBlock)
		}
		lastBlock, lastName = f.block, f.name
	}

	if c.CancunTime != nil && c.ShanghaiTime != nil && *c.CancunTime < *c.ShanghaiTime {
		return errors.New("fork ordering: Cancun must be >= Shanghai")
	}
	if c.ShanghaiTime != nil && c.MergeNetsplitBlock == nil {
		return errors.New("Shanghai requires MergeNetsplitBlock to be set")
	}

	return nil
}

// MainnetConfig is the chain configuration for Ethereum mainnet, pinned to
// its real Homestead-through-Cancun fork schedule.
var MainnetConfig = &ChainConfig{
	ChainID:             big.NewInt(1),
	HomesteadBlock:      big.NewInt(1150000),
	EIP150Block:         big.NewInt(2463000),
	EIP155Block:         big.NewInt(2675000),
	EIP158Block:         big.NewInt(2675000),
	ByzantiumBlock:      big.NewInt(4370000),
	ConstantinopleBlock: big.NewInt(7280000),
	PetersburgBlock:     big.NewInt(7280000),
	IstanbulBlock:       big.NewInt(9069000),
	MuirGlacierBlock:    big.NewInt(9200000),
	BerlinBlock:         big.NewInt(12244000),
	LondonBlock:         big.NewInt(12965000),
	MergeNetsplitBlock:  big.NewInt(15537394),
	ShanghaiTime:        newUint64(1681338455),
	CancunTime:          newUint64(1710338135),
}

// TestConfig activates every fork at genesis (block 0, time 0). Used by
// unit tests and local tooling that wants the full instruction set
// available immediately.
var TestConfig = &ChainConfig{
	ChainID:             big.NewInt(1337),
	HomesteadBlock:      big.NewInt(0),
	EIP150Block:         big.NewInt(0),
	EIP155Block:         big.NewInt(0),
	EIP158Block:         big.NewInt(0),
	ByzantiumBlock:      big.NewInt(0),
	ConstantinopleBlock: big.NewInt(0),
	PetersburgBlock:     big.NewInt(0),
	IstanbulBlock:       big.NewInt(0),
	MuirGlacierBlock:    big.NewInt(0),
	BerlinBlock:         big.NewInt(0),
	LondonBlock:         big.NewInt(0),
	MergeNetsplitBlock:  big.NewInt(0),
	ShanghaiTime:        newUint64(0),
	CancunTime:          newUint64(0),
}
