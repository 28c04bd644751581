package core

import (
	"math/big"
	"testing"
)

func TestMainnetConfigForkOrdering(t *testing.T) {
	if err := MainnetConfig.Validate(); err != nil {
		t.Fatalf("MainnetConfig should validate: %v", err)
	}
	if err := TestConfig.Validate(); err != nil {
		t.Fatalf("TestConfig should validate: %v", err)
	}

	if !MainnetConfig.IsLondon(big.NewInt(12965000)) {
		t.Fatal("London should be active at its own fork block")
	}
	if MainnetConfig.IsLondon(big.NewInt(12964999)) {
		t.Fatal("London should not be active one block early")
	}
	if !MainnetConfig.IsShanghai(1681338455) {
		t.Fatal("Shanghai should be active at its own fork time")
	}
	if MainnetConfig.IsShanghai(1681338454) {
		t.Fatal("Shanghai should not be active one second early")
	}
}

func TestTestConfigEverythingActive(t *testing.T) {
	forks := TestConfig.ActiveForks(big.NewInt(0), 0)
	if len(forks) != len(TestConfig.ForkSchedule()) {
		t.Fatalf("expected every fork active at genesis, got %d/%d", len(forks), len(TestConfig.ForkSchedule()))
	}
}

func TestRulesReflectsActiveForks(t *testing.T) {
	rules := MainnetConfig.Rules(big.NewInt(15537394), 1681338455)
	if !rules.IsMerge || !rules.IsShanghai {
		t.Fatalf("expected merge and Shanghai active, got %+v", rules)
	}
	if rules.IsCancun {
		t.Fatalf("Cancun should not be active yet at Shanghai's fork time, got %+v", rules)
	}
}

func TestValidateRejectsBadChainID(t *testing.T) {
	cfg := &ChainConfig{ChainID: big.NewInt(0)}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero chain ID")
	}
}

func TestValidateRejectsOutOfOrderForks(t *testing.T) {
	cfg := &ChainConfig{
		ChainID:        big.NewInt(1),
		HomesteadBlock: big.NewInt(100),
		EIP150Block:    big.NewInt(50),
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected fork ordering error")
	}
}

func TestValidateRejectsShanghaiWithoutMerge(t *testing.T) {
	cfg := &ChainConfig{
		ChainID:      big.NewInt(1),
		ShanghaiTime: newUint64(100),
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error: Shanghai requires MergeNetsplitBlock")
	}
}

func TestConfigDiffAndCompat(t *testing.T) {
	local := &ChainConfig{ChainID: big.NewInt(1), LondonBlock: big.NewInt(100)}
	remote := &ChainConfig{ChainID: big.NewInt(1), LondonBlock: big.NewInt(200)}

	diffs := ConfigDiff(local, remote)
	if len(diffs) != 1 || diffs[0].ForkName != "London" {
		t.Fatalf("expected a single London diff, got %+v", diffs)
	}

	if err := CheckConfigCompatible(local, remote, 150, 0); err == nil {
		t.Fatal("expected incompatibility: local has activated London, remote has not")
	}
	if err := CheckConfigCompatible(local, remote, 50, 0); err != nil {
		t.Fatalf("should be compatible before London activates locally: %v", err)
	}
}
