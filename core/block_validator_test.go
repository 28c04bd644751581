package core

import (
	"math/big"
	"testing"

	"github.com/ethlayer/coreeth/types"
)

func TestBlockRewardPreAndPostMerge(t *testing.T) {
	config := &ChainConfig{ChainID: big.NewInt(1), MergeNetsplitBlock: big.NewInt(100)}
	pre := BlockReward(config, &types.Header{Number: big.NewInt(50)})
	if pre.Cmp(new(big.Int).Mul(big.NewInt(2), big.NewInt(1e18))) != 0 {
		t.Fatalf("pre-merge reward should be 2 ETH, got %s", pre)
	}
	post := BlockReward(config, &types.Header{Number: big.NewInt(150)})
	if post.Sign() != 0 {
		t.Fatalf("post-merge reward should be zero, got %s", post)
	}
}

func TestValidateBodyRejectsUnclesPostMerge(t *testing.T) {
	config := &ChainConfig{ChainID: big.NewInt(1), MergeNetsplitBlock: big.NewInt(0)}
	v := NewBlockValidator(config)
	header := &types.Header{Number: big.NewInt(1), Difficulty: big.NewInt(0)}
	block := types.NewBlockWithHeader(header).WithBody(nil, []*types.Header{{Number: big.NewInt(0)}}, nil)
	if err := v.ValidateBody(block); err == nil {
		t.Fatal("expected post-merge uncle rejection")
	}
}

func TestValidateBodyRequiresWithdrawalsPostShanghai(t *testing.T) {
	config := &ChainConfig{
		ChainID:            big.NewInt(1),
		MergeNetsplitBlock: big.NewInt(0),
		ShanghaiTime:       newUint64(0),
	}
	v := NewBlockValidator(config)
	header := &types.Header{Number: big.NewInt(1), Difficulty: big.NewInt(0), Time: 0}
	block := types.NewBlockWithHeader(header).WithBody(nil, nil, nil)
	if err := v.ValidateBody(block); err == nil {
		t.Fatal("expected missing withdrawals rejection")
	}

	withBlock := types.NewBlockWithHeader(header).WithBody(nil, nil, []*types.Withdrawal{})
	if err := v.ValidateBody(withBlock); err != nil {
		t.Fatalf("empty (non-nil) withdrawals list should validate: %v", err)
	}
}

func TestValidatePostBlockChecksGasStateAndBloom(t *testing.T) {
	config := &ChainConfig{ChainID: big.NewInt(1)}
	v := NewBlockValidator(config)
	root := types.Hash{7}
	header := &types.Header{GasUsed: 21000, Root: root}

	if err := v.ValidatePostBlock(header, 21000, root, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := v.ValidatePostBlock(header, 21001, root, nil); err == nil {
		t.Fatal("expected gas used mismatch error")
	}
	if err := v.ValidatePostBlock(header, 21000, types.Hash{8}, nil); err == nil {
		t.Fatal("expected state root mismatch error")
	}
}
