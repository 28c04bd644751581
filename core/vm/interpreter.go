package vm

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/ethlayer/coreeth/crypto"
	"github.com/ethlayer/coreeth/types"
)

var (
	ErrOutOfGas                = errors.New("out of gas")
	ErrStackOverflow           = errors.New("stack overflow")
	ErrStackUnderflow          = errors.New("stack underflow")
	ErrInvalidJump             = errors.New("invalid jump destination")
	ErrWriteProtection         = errors.New("write protection")
	ErrExecutionReverted       = errors.New("execution reverted")
	ErrMaxCallDepthExceeded    = errors.New("max call depth exceeded")
	ErrInvalidOpCode           = errors.New("invalid opcode")
	ErrReturnDataOutOfBounds   = errors.New("return data out of bounds")
	ErrMaxInitCodeSizeExceeded = errors.New("max initcode size exceeded")
	ErrInsufficientBalance     = errors.New("insufficient balance for transfer")
	ErrContractAddressCollision = errors.New("contract address collision")
	ErrMaxCodeSizeExceeded     = errors.New("max code size exceeded")
	ErrInvalidCodePrefix       = errors.New("invalid code: must not begin with 0xef")
	ErrNoStateDB               = errors.New("no state database")
)

// GetHashFunc returns the hash of the block with the given number.
type GetHashFunc func(uint64) types.Hash

// BlockContext provides the EVM with block-level information.
type BlockContext struct {
	GetHash     GetHashFunc
	BlockNumber *big.Int
	Time        uint64
	Coinbase    types.Address
	GasLimit    uint64
	BaseFee     *big.Int
	PrevRandao  types.Hash
	BlobBaseFee *big.Int
}

// TxContext provides the EVM with transaction-level information.
type TxContext struct {
	Origin     types.Address
	GasPrice   *big.Int
	BlobHashes []types.Hash
}

// StateDB provides the EVM with access to Ethereum world state. This
// interface is defined in the vm package to avoid circular imports with
// core/state; core/state.StateDB satisfies it.
type StateDB interface {
	CreateAccount(addr types.Address)
	GetBalance(addr types.Address) *big.Int
	AddBalance(addr types.Address, amount *big.Int)
	SubBalance(addr types.Address, amount *big.Int)
	GetNonce(addr types.Address) uint64
	SetNonce(addr types.Address, nonce uint64)
	GetCode(addr types.Address) []byte
	SetCode(addr types.Address, code []byte)
	GetCodeHash(addr types.Address) types.Hash
	GetCodeSize(addr types.Address) int

	GetState(addr types.Address, key types.Hash) types.Hash
	SetState(addr types.Address, key types.Hash, value types.Hash)
	GetCommittedState(addr types.Address, key types.Hash) types.Hash

	GetTransientState(addr types.Address, key types.Hash) types.Hash
	SetTransientState(addr types.Address, key types.Hash, value types.Hash)
	ClearTransientStorage()

	SelfDestruct(addr types.Address)
	HasSelfDestructed(addr types.Address) bool

	Exist(addr types.Address) bool
	Empty(addr types.Address) bool

	Snapshot() int
	RevertToSnapshot(id int)

	AddLog(log *types.Log)

	AddRefund(gas uint64)
	SubRefund(gas uint64)
	GetRefund() uint64

	AddAddressToAccessList(addr types.Address)
	AddSlotToAccessList(addr types.Address, slot types.Hash)
	AddressInAccessList(addr types.Address) bool
	SlotInAccessList(addr types.Address, slot types.Hash) (addressOk bool, slotOk bool)
}

// Config holds EVM configuration options.
type Config struct {
	Debug        bool
	Tracer       EVMLogger
	MaxCallDepth int
}

// EVM is the Ethereum Virtual Machine execution environment. One EVM value
// is reused across every call frame of a single transaction; depth and
// readOnly track frame-local state across the call stack.
type EVM struct {
	Context   BlockContext
	TxContext TxContext
	Config    Config
	StateDB   StateDB

	chainID     uint64
	depth       int
	readOnly    bool
	jumpTable   JumpTable
	precompiles map[types.Address]PrecompiledContract
	returnData  []byte
	forkRules   ForkRules
}

// NewEVM creates a new EVM instance for the given chain ID, wired with the
// jump table and precompile set matching rules.
func NewEVM(blockCtx BlockContext, txCtx TxContext, stateDB StateDB, chainID uint64, rules ForkRules, config Config) *EVM {
	if config.MaxCallDepth == 0 {
		config.MaxCallDepth = MaxCallDepth
	}
	return &EVM{
		Context:     blockCtx,
		TxContext:   txCtx,
		Config:      config,
		StateDB:     stateDB,
		chainID:     chainID,
		jumpTable:   newJumpTable(rules),
		precompiles: selectPrecompiles(rules),
		forkRules:   rules,
	}
}

// SetJumpTable replaces the EVM's jump table.
func (evm *EVM) SetJumpTable(jt JumpTable) {
	evm.jumpTable = jt
}

// SetPrecompiles replaces the EVM's precompile map.
func (evm *EVM) SetPrecompiles(p map[types.Address]PrecompiledContract) {
	evm.precompiles = p
}

// SetForkRules sets the active fork rules for this EVM instance.
func (evm *EVM) SetForkRules(rules ForkRules) {
	evm.forkRules = rules
}

// GetForkRules returns the active fork rules.
func (evm *EVM) GetForkRules() ForkRules {
	return evm.forkRules
}

// ChainID returns the chain ID this EVM instance was constructed with.
func (evm *EVM) ChainID() uint64 {
	return evm.chainID
}

// Depth returns the current call depth.
func (evm *EVM) Depth() int {
	return evm.depth
}

// ReturnData returns the return data from the most recently completed
// CALL/CREATE in the current frame, as read by RETURNDATACOPY/RETURNDATASIZE.
func (evm *EVM) ReturnData() []byte {
	return evm.returnData
}

// precompile returns the precompiled contract at addr, falling back to the
// default precompile set if no custom map has been installed.
func (evm *EVM) precompile(addr types.Address) (PrecompiledContract, bool) {
	m := evm.precompiles
	if m == nil {
		m = PrecompiledContractsCancun
	}
	p, ok := m[addr]
	return p, ok
}

// uint256FromBig converts a possibly-nil *big.Int into a *uint256.Int,
// treating nil as zero.
func uint256FromBig(v *big.Int) *uint256.Int {
	u := new(uint256.Int)
	if v != nil {
		u.SetFromBig(v)
	}
	return u
}

// runPrecompile executes a precompiled contract and returns the output,
// remaining gas, and any error.
func runPrecompile(p PrecompiledContract, input []byte, gas uint64) ([]byte, uint64, error) {
	gasCost := p.RequiredGas(input)
	if gas < gasCost {
		return nil, 0, ErrOutOfGas
	}
	output, err := p.Run(input)
	return output, gas - gasCost, err
}

// Run executes the contract bytecode using the interpreter loop. Gas
// charging order is constant gas, then dynamic gas (which folds in memory
// expansion), then memory is resized, then the opcode executes.
func (evm *EVM) Run(contract *Contract, input []byte) ([]byte, error) {
	contract.Input = input

	var (
		pc    uint64
		stack = NewStack()
		mem   = NewMemory()
		debug = evm.Config.Debug && evm.Config.Tracer != nil
	)

	for {
		op := contract.GetOp(pc)
		op2 := evm.jumpTable[op]
		if op2 == nil || op2.execute == nil {
			return nil, ErrInvalidOpCode
		}

		sLen := stack.Len()
		if sLen < op2.minStack {
			return nil, ErrStackUnderflow
		}
		if sLen > op2.maxStack {
			return nil, ErrStackOverflow
		}

		gasBefore := contract.Gas

		if op2.constantGas > 0 {
			if !contract.UseGas(op2.constantGas) {
				return nil, ErrOutOfGas
			}
		}

		var memorySize uint64
		if op2.memorySize != nil {
			memSize := op2.memorySize(stack)
			if memSize > 0 {
				memorySize = (memSize + 31) / 32 * 32
			}
		}

		if op2.dynamicGas != nil {
			cost := op2.dynamicGas(evm, contract, stack, mem, memorySize)
			if !contract.UseGas(cost) {
				return nil, ErrOutOfGas
			}
		}

		if memorySize > 0 && uint64(mem.Len()) < memorySize {
			mem.Resize(memorySize)
		}

		stepCost := gasBefore - contract.Gas

		if debug {
			evm.Config.Tracer.CaptureState(pc, op, gasBefore, stepCost, stack, mem, evm.depth, nil)
		}

		ret, err := op2.execute(&pc, evm, contract, mem, stack)
		if err != nil {
			if errors.Is(err, ErrExecutionReverted) {
				return ret, err
			}
			return nil, err
		}

		if op2.halts {
			return ret, nil
		}
		if op2.jumps {
			continue
		}
		pc++
	}
}

// Call executes a message call to addr with the given input, gas, and value.
func (evm *EVM) Call(caller types.Address, addr types.Address, input []byte, gas uint64, value *big.Int) ([]byte, uint64, error) {
	if evm.depth > evm.Config.MaxCallDepth {
		return nil, gas, ErrMaxCallDepthExceeded
	}

	debug := evm.Config.Debug && evm.Config.Tracer != nil
	if debug && evm.depth == 0 {
		evm.Config.Tracer.CaptureStart(caller, addr, false, input, gas, value)
	}

	if evm.StateDB == nil {
		return nil, gas, ErrNoStateDB
	}

	transfersValue := value != nil && value.Sign() > 0
	if transfersValue {
		if evm.StateDB.GetBalance(caller).Cmp(value) < 0 {
			if debug && evm.depth == 0 {
				evm.Config.Tracer.CaptureEnd(nil, 0, ErrInsufficientBalance)
			}
			return nil, gas, ErrInsufficientBalance
		}
	}

	snapshot := evm.StateDB.Snapshot()

	p, isPrecompile := evm.precompile(addr)

	if !evm.StateDB.Exist(addr) {
		if !isPrecompile && evm.forkRules.IsEIP158 && !transfersValue {
			if debug && evm.depth == 0 {
				evm.Config.Tracer.CaptureEnd(nil, 0, nil)
			}
			return nil, gas, nil
		}
		evm.StateDB.CreateAccount(addr)
	}

	if transfersValue {
		if evm.readOnly {
			return nil, gas, ErrWriteProtection
		}
		evm.StateDB.SubBalance(caller, value)
		evm.StateDB.AddBalance(addr, value)
	}

	if isPrecompile {
		ret, gasLeft, err := runPrecompile(p, input, gas)
		if err != nil {
			evm.StateDB.RevertToSnapshot(snapshot)
		}
		if debug && evm.depth == 0 {
			evm.Config.Tracer.CaptureEnd(ret, gas-gasLeft, err)
		}
		return ret, gasLeft, err
	}

	code := evm.StateDB.GetCode(addr)
	if len(code) == 0 {
		if debug && evm.depth == 0 {
			evm.Config.Tracer.CaptureEnd(nil, 0, nil)
		}
		return nil, gas, nil
	}

	contract := NewContract(caller, addr, uint256FromBig(value), gas)
	contract.Code = code
	contract.CodeHash = evm.StateDB.GetCodeHash(addr)

	evm.depth++
	ret, err := evm.Run(contract, input)
	evm.depth--

	gasLeft := contract.Gas
	if err != nil && !errors.Is(err, ErrExecutionReverted) {
		evm.StateDB.RevertToSnapshot(snapshot)
		gasLeft = 0
	} else if errors.Is(err, ErrExecutionReverted) {
		evm.StateDB.RevertToSnapshot(snapshot)
	}

	if debug && evm.depth == 0 {
		evm.Config.Tracer.CaptureEnd(ret, gas-gasLeft, err)
	}
	return ret, gasLeft, err
}

// CallCode executes a CALLCODE: the callee's code runs with the caller's
// storage and address, but the callee's code is loaded from addr.
func (evm *EVM) CallCode(caller types.Address, addr types.Address, input []byte, gas uint64, value *big.Int) ([]byte, uint64, error) {
	if evm.depth > evm.Config.MaxCallDepth {
		return nil, gas, ErrMaxCallDepthExceeded
	}
	if p, ok := evm.precompile(addr); ok {
		return runPrecompile(p, input, gas)
	}
	if evm.StateDB == nil {
		return nil, gas, ErrNoStateDB
	}

	snapshot := evm.StateDB.Snapshot()

	code := evm.StateDB.GetCode(addr)
	if len(code) == 0 {
		return nil, gas, nil
	}

	contract := NewContract(caller, caller, uint256FromBig(value), gas)
	contract.Code = code
	contract.CodeHash = evm.StateDB.GetCodeHash(addr)

	evm.depth++
	ret, err := evm.Run(contract, input)
	evm.depth--

	gasLeft := contract.Gas
	if err != nil && !errors.Is(err, ErrExecutionReverted) {
		evm.StateDB.RevertToSnapshot(snapshot)
		gasLeft = 0
	} else if errors.Is(err, ErrExecutionReverted) {
		evm.StateDB.RevertToSnapshot(snapshot)
	}
	return ret, gasLeft, err
}

// DelegateCall executes a DELEGATECALL: like CALLCODE, but it also preserves
// the original caller and value of the enclosing frame rather than the
// immediate caller passed in.
func (evm *EVM) DelegateCall(caller types.Address, addr types.Address, input []byte, gas uint64, value *uint256.Int) ([]byte, uint64, error) {
	if evm.depth > evm.Config.MaxCallDepth {
		return nil, gas, ErrMaxCallDepthExceeded
	}
	if p, ok := evm.precompile(addr); ok {
		return runPrecompile(p, input, gas)
	}
	if evm.StateDB == nil {
		return nil, gas, ErrNoStateDB
	}

	snapshot := evm.StateDB.Snapshot()

	code := evm.StateDB.GetCode(addr)
	if len(code) == 0 {
		return nil, gas, nil
	}

	if value == nil {
		value = new(uint256.Int)
	}
	contract := NewContract(caller, caller, value, gas)
	contract.Code = code
	contract.CodeHash = evm.StateDB.GetCodeHash(addr)

	evm.depth++
	ret, err := evm.Run(contract, input)
	evm.depth--

	gasLeft := contract.Gas
	if err != nil && !errors.Is(err, ErrExecutionReverted) {
		evm.StateDB.RevertToSnapshot(snapshot)
		gasLeft = 0
	} else if errors.Is(err, ErrExecutionReverted) {
		evm.StateDB.RevertToSnapshot(snapshot)
	}
	return ret, gasLeft, err
}

// StaticCall executes a read-only message call. Any attempted state
// mutation during it fails with ErrWriteProtection.
func (evm *EVM) StaticCall(caller types.Address, addr types.Address, input []byte, gas uint64) ([]byte, uint64, error) {
	if evm.depth > evm.Config.MaxCallDepth {
		return nil, gas, ErrMaxCallDepthExceeded
	}
	if evm.StateDB == nil {
		return nil, gas, ErrNoStateDB
	}

	prevReadOnly := evm.readOnly
	evm.readOnly = true
	defer func() { evm.readOnly = prevReadOnly }()

	snapshot := evm.StateDB.Snapshot()

	if p, ok := evm.precompile(addr); ok {
		ret, gasLeft, err := runPrecompile(p, input, gas)
		if err != nil {
			evm.StateDB.RevertToSnapshot(snapshot)
		}
		return ret, gasLeft, err
	}

	code := evm.StateDB.GetCode(addr)
	if len(code) == 0 {
		return nil, gas, nil
	}

	contract := NewContract(caller, addr, new(uint256.Int), gas)
	contract.Code = code
	contract.CodeHash = evm.StateDB.GetCodeHash(addr)

	evm.depth++
	ret, err := evm.Run(contract, input)
	evm.depth--

	gasLeft := contract.Gas
	if err != nil && !errors.Is(err, ErrExecutionReverted) {
		evm.StateDB.RevertToSnapshot(snapshot)
		gasLeft = 0
	} else if errors.Is(err, ErrExecutionReverted) {
		evm.StateDB.RevertToSnapshot(snapshot)
	}
	return ret, gasLeft, err
}

// create2Address computes the CREATE2 contract address:
// keccak256(0xff ++ caller ++ salt ++ keccak256(initCode))[12:].
func create2Address(caller types.Address, salt *uint256.Int, initCodeHash []byte) types.Address {
	saltBytes := salt.Bytes32()
	data := make([]byte, 0, 85)
	data = append(data, 0xff)
	data = append(data, caller[:]...)
	data = append(data, saltBytes[:]...)
	data = append(data, initCodeHash...)
	hash := crypto.Keccak256(data)
	return types.BytesToAddress(hash[12:])
}

// Create creates a new contract with the given init code, using the
// caller's current nonce to derive the contract address.
func (evm *EVM) Create(caller types.Address, code []byte, gas uint64, value *big.Int) ([]byte, types.Address, uint64, error) {
	if evm.depth > evm.Config.MaxCallDepth {
		return nil, types.Address{}, gas, ErrMaxCallDepthExceeded
	}
	if evm.readOnly {
		return nil, types.Address{}, gas, ErrWriteProtection
	}
	if evm.StateDB == nil {
		return nil, types.Address{}, gas, ErrNoStateDB
	}

	nonce := evm.StateDB.GetNonce(caller)
	evm.StateDB.SetNonce(caller, nonce+1)
	contractAddr := types.CreateAddress(caller, nonce)

	return evm.create(caller, code, gas, value, contractAddr)
}

// Create2 creates a new contract at a salt-derived, pre-computable address.
func (evm *EVM) Create2(caller types.Address, code []byte, gas uint64, endowment *big.Int, salt *uint256.Int) ([]byte, types.Address, uint64, error) {
	if evm.depth > evm.Config.MaxCallDepth {
		return nil, types.Address{}, gas, ErrMaxCallDepthExceeded
	}
	if evm.readOnly {
		return nil, types.Address{}, gas, ErrWriteProtection
	}
	if evm.StateDB == nil {
		return nil, types.Address{}, gas, ErrNoStateDB
	}

	initCodeHash := crypto.Keccak256(code)
	contractAddr := create2Address(caller, salt, initCodeHash)

	return evm.create(caller, code, gas, endowment, contractAddr)
}

// PreWarmAccessList pre-warms the access list with the sender, recipient,
// and every precompile address per EIP-2929.
func (evm *EVM) PreWarmAccessList(sender types.Address, to *types.Address) {
	if evm.StateDB == nil {
		return
	}
	evm.StateDB.AddAddressToAccessList(sender)
	if to != nil {
		evm.StateDB.AddAddressToAccessList(*to)
	}
	for i := 1; i <= 0x0a; i++ {
		evm.StateDB.AddAddressToAccessList(types.BytesToAddress([]byte{byte(i)}))
	}
}

// create is the shared implementation behind Create and Create2.
func (evm *EVM) create(caller types.Address, code []byte, gas uint64, value *big.Int, contractAddr types.Address) ([]byte, types.Address, uint64, error) {
	if len(code) > MaxInitCodeSize {
		return nil, types.Address{}, gas, ErrMaxInitCodeSizeExceeded
	}

	contractHash := evm.StateDB.GetCodeHash(contractAddr)
	if evm.StateDB.GetNonce(contractAddr) != 0 ||
		(contractHash != (types.Hash{}) && contractHash != types.EmptyCodeHash) {
		return nil, types.Address{}, 0, ErrContractAddressCollision
	}

	// Warm the created address before the snapshot: access-list changes
	// are not rolled back even if creation itself fails.
	evm.StateDB.AddAddressToAccessList(contractAddr)

	snapshot := evm.StateDB.Snapshot()

	if !evm.StateDB.Exist(contractAddr) {
		evm.StateDB.CreateAccount(contractAddr)
	}
	evm.StateDB.SetNonce(contractAddr, 1)

	if value != nil && value.Sign() > 0 {
		if evm.StateDB.GetBalance(caller).Cmp(value) < 0 {
			return nil, types.Address{}, gas, ErrInsufficientBalance
		}
		evm.StateDB.SubBalance(caller, value)
		evm.StateDB.AddBalance(contractAddr, value)
	}

	// EIP-150: from Tangerine Whistle onward the creating frame retains
	// 1/64 of its gas; before that the init code gets everything.
	callGas := gas
	if evm.forkRules.IsEIP150 {
		callGas = gas - gas/CallGasFraction
	}
	gas -= callGas

	contract := NewContract(caller, contractAddr, uint256FromBig(value), callGas)
	contract.Code = code

	evm.depth++
	ret, err := evm.Run(contract, nil)
	evm.depth--

	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
		if !errors.Is(err, ErrExecutionReverted) {
			return ret, types.Address{}, gas, err
		}
		gas += contract.Gas
		return ret, types.Address{}, gas, err
	}

	gas += contract.Gas

	if len(ret) > 0 {
		if len(ret) > MaxCodeSize {
			evm.StateDB.RevertToSnapshot(snapshot)
			return nil, types.Address{}, 0, ErrMaxCodeSizeExceeded
		}
		// EIP-3541: reject new contract code starting with the 0xEF byte.
		if evm.forkRules.IsLondon && ret[0] == 0xEF {
			evm.StateDB.RevertToSnapshot(snapshot)
			return nil, types.Address{}, 0, ErrInvalidCodePrefix
		}
		depositCost := uint64(len(ret)) * CreateDataGas
		if gas < depositCost {
			evm.StateDB.RevertToSnapshot(snapshot)
			return nil, types.Address{}, 0, ErrOutOfGas
		}
		gas -= depositCost
		evm.StateDB.SetCode(contractAddr, ret)
	}

	return ret, contractAddr, gas, nil
}
