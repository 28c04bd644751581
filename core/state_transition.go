package core

import (
	"fmt"
	"math/big"

	"github.com/ethlayer/coreeth/core/state"
	"github.com/ethlayer/coreeth/core/vm"
	"github.com/ethlayer/coreeth/crypto"
	"github.com/ethlayer/coreeth/types"
)

// StateProcessor applies the transactions of a block to a StateDB,
// sequentially, in order, producing one receipt per transaction.
type StateProcessor struct {
	config  *ChainConfig
	getHash vm.GetHashFunc
}

// NewStateProcessor creates a processor bound to config. getHash resolves
// BLOCKHASH lookups against the canonical chain and may be nil in contexts
// (like gas estimation) where BLOCKHASH is never reached.
func NewStateProcessor(config *ChainConfig, getHash vm.GetHashFunc) *StateProcessor {
	return &StateProcessor{config: config, getHash: getHash}
}

// Process executes every transaction in block against statedb and returns
// their receipts in order. It performs the EIP-4788 beacon root system
// call, validates each transaction immediately before applying it, and
// processes EIP-4895 withdrawals once all transactions have run.
func (p *StateProcessor) Process(block *types.Block, statedb *state.StateDB) ([]*types.Receipt, error) {
	header := block.Header()

	if p.config != nil && p.config.IsCancun(header.Time) {
		ProcessBeaconBlockRoot(statedb, header)
	}

	gasPool := new(GasPool).AddGas(header.GasLimit)

	var (
		receipts          []*types.Receipt
		cumulativeGasUsed uint64
	)

	signer := crypto.LatestSigner(p.chainID())

	for i, tx := range block.Transactions() {
		statedb.SetTxContext(tx.Hash(), i)

		msg, err := TransactionToMessage(tx, signer)
		if err != nil {
			return nil, fmt.Errorf("tx %d: recovering sender: %w", i, err)
		}

		receipt, usedGas, err := p.applyTransaction(statedb, header, tx, msg, gasPool)
		if err != nil {
			return nil, fmt.Errorf("tx %d [%s]: %w", i, tx.Hash().Hex(), err)
		}

		cumulativeGasUsed += usedGas
		receipt.CumulativeGasUsed = cumulativeGasUsed
		receipt.TransactionIndex = uint(i)
		receipt.BlockHash = block.Hash()
		receipt.BlockNumber = new(big.Int).Set(header.Number)
		for _, log := range receipt.Logs {
			log.BlockNumber = header.Number.Uint64()
			log.BlockHash = block.Hash()
		}

		receipts = append(receipts, receipt)
	}

	var logIndex uint
	for _, r := range receipts {
		for _, l := range r.Logs {
			l.Index = logIndex
			logIndex++
		}
	}

	if p.config != nil && p.config.IsShanghai(header.Time) {
		ProcessWithdrawals(statedb, block.Withdrawals())
	}

	return receipts, nil
}

func (p *StateProcessor) chainID() uint64 {
	if p.config == nil || p.config.ChainID == nil {
		return 0
	}
	return p.config.ChainID.Uint64()
}

// ApplyTransaction validates and applies a single transaction, returning
// its receipt. Used directly by callers (e.g. block builders, gas
// estimators) that need to run one transaction outside of Process's loop.
func ApplyTransaction(config *ChainConfig, getHash vm.GetHashFunc, statedb *state.StateDB, header *types.Header, tx *types.Transaction, gp *GasPool) (*types.Receipt, uint64, error) {
	p := &StateProcessor{config: config, getHash: getHash}
	signer := crypto.LatestSigner(p.chainID())
	msg, err := TransactionToMessage(tx, signer)
	if err != nil {
		return nil, 0, err
	}
	return p.applyTransaction(statedb, header, tx, msg, gp)
}

func (p *StateProcessor) applyTransaction(statedb *state.StateDB, header *types.Header, tx *types.Transaction, msg *Message, gp *GasPool) (*types.Receipt, uint64, error) {
	snapshot := statedb.Snapshot()

	result, err := p.applyMessage(statedb, header, msg, gp)
	if err != nil {
		statedb.RevertToSnapshot(snapshot)
		return nil, 0, err
	}

	status := types.ReceiptStatusSuccessful
	if result.Failed() {
		status = types.ReceiptStatusFailed
	}

	receipt := types.NewReceipt(status, result.UsedGas)
	receipt.TxHash = tx.Hash()
	receipt.GasUsed = result.UsedGas
	receipt.EffectiveGasPrice = msg.EffectiveGasPrice(header.BaseFee)
	receipt.Type = tx.Type()

	if msg.To == nil {
		receipt.ContractAddress = result.ContractAddress
	}

	if blobGas := tx.BlobGas(); blobGas > 0 {
		receipt.BlobGasUsed = blobGas
		if header.ExcessBlobGas != nil {
			receipt.BlobGasPrice = CalcBlobBaseFee(*header.ExcessBlobGas)
		}
	}

	receipt.Logs = statedb.GetLogs(tx.Hash())
	receipt.Bloom = types.CreateBloom(receipt.Logs)

	return receipt, result.UsedGas, nil
}

// applyMessage is the heart of the state transition function: it validates
// the message against the current state (nonce, sender kind, fee caps,
// balance), charges intrinsic gas, runs the EVM, applies the gas refund,
// and settles payment between the sender, the block's gas pool, and the
// coinbase.
func (p *StateProcessor) applyMessage(statedb *state.StateDB, header *types.Header, msg *Message, gp *GasPool) (*ExecutionResult, error) {
	if err := gp.SubGas(msg.GasLimit); err != nil {
		return nil, err
	}

	stateNonce := statedb.GetNonce(msg.From)
	if msg.Nonce < stateNonce {
		gp.AddGas(msg.GasLimit)
		return nil, fmt.Errorf("%w: address %v, tx %d, state %d", ErrNonceTooLow, msg.From, msg.Nonce, stateNonce)
	}
	if msg.Nonce > stateNonce {
		gp.AddGas(msg.GasLimit)
		return nil, fmt.Errorf("%w: address %v, tx %d, state %d", ErrNonceTooHigh, msg.From, msg.Nonce, stateNonce)
	}

	if codeHash := statedb.GetCodeHash(msg.From); codeHash != (types.Hash{}) && codeHash != types.EmptyCodeHash {
		gp.AddGas(msg.GasLimit)
		return nil, fmt.Errorf("%w: address %v, codehash %v", ErrSenderNotEOA, msg.From, codeHash)
	}

	isDynamicFeeTx := msg.TxType >= types.DynamicFeeTxType
	if isDynamicFeeTx && header.BaseFee != nil && header.BaseFee.Sign() > 0 && msg.GasFeeCap != nil && msg.GasTipCap != nil {
		if msg.GasFeeCap.Cmp(msg.GasTipCap) < 0 {
			gp.AddGas(msg.GasLimit)
			return nil, fmt.Errorf("%w: tip %s, cap %s", ErrTipAboveFeeCap, msg.GasTipCap, msg.GasFeeCap)
		}
		if msg.GasFeeCap.Cmp(header.BaseFee) < 0 {
			gp.AddGas(msg.GasLimit)
			return nil, fmt.Errorf("%w: fee %s, baseFee %s", ErrFeeCapTooLow, msg.GasFeeCap, header.BaseFee)
		}
	}

	gasPrice := msg.EffectiveGasPrice(header.BaseFee)
	gasCost := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(msg.GasLimit))

	balanceGasCost := gasCost
	if isDynamicFeeTx && msg.GasFeeCap != nil {
		balanceGasCost = new(big.Int).Mul(msg.GasFeeCap, new(big.Int).SetUint64(msg.GasLimit))
	}
	totalCost := new(big.Int).Add(msg.Value, balanceGasCost)
	if balance := statedb.GetBalance(msg.From); balance.Cmp(totalCost) < 0 {
		gp.AddGas(msg.GasLimit)
		return nil, fmt.Errorf("%w: address %v have %v want %v", ErrInsufficientBalance, msg.From, balance, totalCost)
	}

	statedb.SubBalance(msg.From, gasCost)

	isCreate := msg.To == nil
	if !isCreate {
		statedb.SetNonce(msg.From, msg.Nonce+1)
	}

	isShanghai := p.config != nil && p.config.IsShanghai(header.Time)
	igas := IntrinsicGas(msg.Data, msg.AccessList, isCreate, isShanghai)
	if igas > msg.GasLimit {
		gp.AddGas(msg.GasLimit)
		return nil, fmt.Errorf("%w: have %d, want %d", ErrIntrinsicGasTooLow, msg.GasLimit, igas)
	}
	gasLeft := msg.GasLimit - igas

	var rules vm.ForkRules
	if p.config != nil {
		rules = p.config.Rules(header.Number, header.Time)
	}

	blockCtx := vm.BlockContext{
		GetHash:     p.getHash,
		BlockNumber: header.Number,
		Time:        header.Time,
		Coinbase:    header.Coinbase,
		GasLimit:    header.GasLimit,
		BaseFee:     header.BaseFee,
		PrevRandao:  header.MixDigest,
	}
	if header.ExcessBlobGas != nil {
		blockCtx.BlobBaseFee = CalcBlobBaseFee(*header.ExcessBlobGas)
	}
	txCtx := vm.TxContext{
		Origin:     msg.From,
		GasPrice:   gasPrice,
		BlobHashes: msg.BlobHashes,
	}

	evm := vm.NewEVM(blockCtx, txCtx, statedb, p.chainID(), rules, vm.Config{})

	evm.PreWarmAccessList(msg.From, msg.To)
	if isShanghai {
		// EIP-3651: the coinbase address is pre-warmed from Shanghai on.
		statedb.AddAddressToAccessList(header.Coinbase)
	}
	for _, tuple := range msg.AccessList {
		statedb.AddAddressToAccessList(tuple.Address)
		for _, key := range tuple.StorageKeys {
			statedb.AddSlotToAccessList(tuple.Address, key)
		}
	}

	var (
		execErr      error
		returnData   []byte
		gasRemaining uint64
		contractAddr types.Address
	)
	if isCreate {
		returnData, contractAddr, gasRemaining, execErr = evm.Create(msg.From, msg.Data, gasLeft, msg.Value)
	} else {
		returnData, gasRemaining, execErr = evm.Call(msg.From, *msg.To, msg.Data, gasLeft, msg.Value)
	}

	gasUsed := igas + (gasLeft - gasRemaining)

	refund := statedb.GetRefund()
	quotient := vm.MaxRefundQuotient
	if !rules.IsLondon {
		quotient = 2
	}
	if maxRefund := gasUsed / quotient; refund > maxRefund {
		refund = maxRefund
	}
	gasUsed -= refund

	remainingGas := msg.GasLimit - gasUsed
	if remainingGas > 0 {
		statedb.AddBalance(msg.From, new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(remainingGas)))
	}
	gp.AddGas(remainingGas)

	if header.BaseFee != nil && header.BaseFee.Sign() > 0 {
		tip := new(big.Int).Sub(gasPrice, header.BaseFee)
		if tip.Sign() > 0 {
			statedb.AddBalance(header.Coinbase, new(big.Int).Mul(tip, new(big.Int).SetUint64(gasUsed)))
		}
	} else {
		statedb.AddBalance(header.Coinbase, new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(gasUsed)))
	}

	return &ExecutionResult{
		UsedGas:         gasUsed,
		Err:             execErr,
		ReturnData:      returnData,
		ContractAddress: contractAddr,
	}, nil
}

// ValidateTransaction checks a transaction against the current state and
// block header without executing it: nonce, block gas limit, intrinsic
// gas, EIP-1559 fee caps, sender balance, and (for blob transactions)
// EIP-4844 blob constraints. Block builders use this to filter candidate
// transactions before calling ApplyTransaction.
func ValidateTransaction(tx *types.Transaction, statedb *state.StateDB, header *types.Header, config *ChainConfig, signer crypto.Signer) error {
	msg, err := TransactionToMessage(tx, signer)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSender, err)
	}

	stateNonce := statedb.GetNonce(msg.From)
	if msg.Nonce < stateNonce {
		return fmt.Errorf("%w: tx %d, state %d", ErrNonceTooLow, msg.Nonce, stateNonce)
	}
	if msg.Nonce > stateNonce {
		return fmt.Errorf("%w: tx %d, state %d", ErrNonceTooHigh, msg.Nonce, stateNonce)
	}

	if tx.Gas() > header.GasLimit {
		return fmt.Errorf("%w: tx gas %d > block limit %d", ErrGasLimitExceeded, tx.Gas(), header.GasLimit)
	}

	isShanghai := config != nil && config.IsShanghai(header.Time)
	igas := IntrinsicGas(msg.Data, msg.AccessList, msg.To == nil, isShanghai)
	if tx.Gas() < igas {
		return fmt.Errorf("%w: have %d, want %d", ErrIntrinsicGasTooLow, tx.Gas(), igas)
	}

	if header.BaseFee != nil && header.BaseFee.Sign() > 0 && msg.GasFeeCap != nil {
		if msg.GasFeeCap.Cmp(header.BaseFee) < 0 {
			return fmt.Errorf("%w: fee %s, baseFee %s", ErrFeeCapTooLow, msg.GasFeeCap, header.BaseFee)
		}
	}

	cost := TxCost(tx, header.BaseFee)
	if balance := statedb.GetBalance(msg.From); balance.Cmp(cost) < 0 {
		return fmt.Errorf("%w: have %s, want %s", ErrInsufficientBalance, balance, cost)
	}

	if tx.Type() == types.BlobTxType {
		if err := validateBlobTx(tx, header); err != nil {
			return err
		}
	}

	return nil
}

func validateBlobTx(tx *types.Transaction, header *types.Header) error {
	hashes := tx.BlobHashes()
	if len(hashes) == 0 {
		return ErrBlobTxNoHashes
	}
	if len(hashes) > MaxBlobsPerBlock {
		return fmt.Errorf("%w: have %d, max %d", ErrBlobTxTooManyBlobs, len(hashes), MaxBlobsPerBlock)
	}
	for i, h := range hashes {
		if h[0] != BlobTxHashVersion {
			return fmt.Errorf("%w: hash %d has version 0x%02x", ErrBlobHashVersion, i, h[0])
		}
	}
	if header.ExcessBlobGas != nil {
		blobBaseFee := CalcBlobBaseFee(*header.ExcessBlobGas)
		if feeCap := tx.BlobGasFeeCap(); feeCap == nil || feeCap.Cmp(blobBaseFee) < 0 {
			return fmt.Errorf("%w: have %v, want at least %v", ErrBlobFeeCapTooLow, feeCap, blobBaseFee)
		}
	}
	if tx.To() == nil {
		return ErrBlobTxNoRecipient
	}
	return nil
}

// TxCost computes the maximum wei a transaction can cost: value plus gas
// at its fee cap (or its legacy gas price) plus its maximum blob gas cost.
func TxCost(tx *types.Transaction, baseFee *big.Int) *big.Int {
	cost := new(big.Int)
	if v := tx.Value(); v != nil {
		cost.Set(v)
	}

	price := tx.GasFeeCap()
	if price == nil {
		price = tx.GasPrice()
	}
	if price == nil {
		price = new(big.Int)
	}
	cost.Add(cost, new(big.Int).Mul(price, new(big.Int).SetUint64(tx.Gas())))

	if blobFeeCap := tx.BlobGasFeeCap(); blobFeeCap != nil {
		cost.Add(cost, new(big.Int).Mul(blobFeeCap, new(big.Int).SetUint64(tx.BlobGas())))
	}

	return cost
}

// ProcessWithdrawals credits each EIP-4895 withdrawal's amount (denominated
// in Gwei) to its address. Withdrawals consume no gas and run after every
// transaction in the block has been applied.
func ProcessWithdrawals(statedb *state.StateDB, withdrawals []*types.Withdrawal) {
	gwei := big.NewInt(1_000_000_000)
	for _, w := range withdrawals {
		if w == nil {
			continue
		}
		amount := new(big.Int).SetUint64(w.Amount)
		amount.Mul(amount, gwei)
		statedb.AddBalance(w.Address, amount)
	}
}
