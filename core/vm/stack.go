package vm

import "github.com/holiman/uint256"

// stackLimit is the maximum number of elements the EVM stack may hold.
const stackLimit = 1024

// Stack is the EVM's 256-bit-word operand stack. Individual Push/Pop/Swap/
// Dup calls trust the interpreter's Run loop to have already validated
// min/max stack depth for the current opcode, matching the dynamic-gas
// charge-then-execute ordering the rest of the interpreter uses.
type Stack struct {
	data []*uint256.Int
}

// NewStack returns an empty stack with its backing array pre-sized to avoid
// reallocation for typical programs.
func NewStack() *Stack {
	return &Stack{data: make([]*uint256.Int, 0, 16)}
}

func (st *Stack) Push(v *uint256.Int) {
	st.data = append(st.data, v)
}

func (st *Stack) Pop() *uint256.Int {
	n := len(st.data) - 1
	v := st.data[n]
	st.data = st.data[:n]
	return v
}

// Peek returns the top element without removing it.
func (st *Stack) Peek() *uint256.Int {
	return st.data[len(st.data)-1]
}

// Back returns the n-th element from the top without removing it (0 is the
// top element).
func (st *Stack) Back(n int) *uint256.Int {
	return st.data[len(st.data)-n-1]
}

// Swap exchanges the top element with the element n positions below it.
func (st *Stack) Swap(n int) {
	top := len(st.data) - 1
	st.data[top], st.data[top-n] = st.data[top-n], st.data[top]
}

// Dup pushes a copy of the n-th element from the top (1 is the top).
func (st *Stack) Dup(n int) {
	st.data = append(st.data, new(uint256.Int).Set(st.data[len(st.data)-n]))
}

func (st *Stack) Len() int { return len(st.data) }

// Data returns the backing slice, bottom of stack first.
func (st *Stack) Data() []*uint256.Int { return st.data }
