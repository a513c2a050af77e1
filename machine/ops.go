package machine

// effect is what the engine does with the pointer after an operation.
type effect int

const (
	effectNext    = effect(iota) // Advance past the instruction.
	effectJump                   // Jump to the returned target.
	effectSuspend                // Suspend; see Machine.pending.
)

// operation is an entry in the operation table.
type operation struct {
	Mnemonic string
	Name     string
	Params   int
	exec     func(m *Machine, in Instruction, args []int64) (eff effect, target int64, err error)
}

var operations = [...]operation{
	OP_ADD:         {"add", "add", 3, opAdd},
	OP_MULTIPLY:    {"mul", "multiply", 3, opMultiply},
	OP_INPUT:       {"in", "input", 1, opInput},
	OP_OUTPUT:      {"out", "output", 1, opOutput},
	OP_JUMP_TRUE:   {"jt", "jump-if-true", 2, opJumpTrue},
	OP_JUMP_FALSE:  {"jf", "jump-if-false", 2, opJumpFalse},
	OP_LESS_THAN:   {"lt", "less-than", 3, opLessThan},
	OP_EQUALS:      {"eq", "equals", 3, opEquals},
	OP_ADJUST_BASE: {"arb", "adjust-relative-base", 1, opAdjustBase},
}

// lookup an opcode in the operation table.
func lookup(op Opcode) (oper operation, ok bool) {
	if op <= 0 || int(op) >= len(operations) {
		return
	}

	oper = operations[op]
	ok = oper.exec != nil
	return
}

// binary reads both source operands of a three parameter instruction.
func binary(m *Machine, in Instruction, args []int64) (a, b int64, err error) {
	a, err = m.read(args[0], in.Modes[0])
	if err != nil {
		return
	}

	b, err = m.read(args[1], in.Modes[1])
	return
}

func boolValue(cond bool) int64 {
	if cond {
		return 1
	}
	return 0
}

func opAdd(m *Machine, in Instruction, args []int64) (eff effect, target int64, err error) {
	a, b, err := binary(m, in, args)
	if err != nil {
		return
	}

	err = m.write(args[2], in.Modes[2], a+b)
	return
}

func opMultiply(m *Machine, in Instruction, args []int64) (eff effect, target int64, err error) {
	a, b, err := binary(m, in, args)
	if err != nil {
		return
	}

	err = m.write(args[2], in.Modes[2], a*b)
	return
}

func opLessThan(m *Machine, in Instruction, args []int64) (eff effect, target int64, err error) {
	a, b, err := binary(m, in, args)
	if err != nil {
		return
	}

	err = m.write(args[2], in.Modes[2], boolValue(a < b))
	return
}

func opEquals(m *Machine, in Instruction, args []int64) (eff effect, target int64, err error) {
	a, b, err := binary(m, in, args)
	if err != nil {
		return
	}

	err = m.write(args[2], in.Modes[2], boolValue(a == b))
	return
}

func opJumpTrue(m *Machine, in Instruction, args []int64) (eff effect, target int64, err error) {
	cond, err := m.read(args[0], in.Modes[0])
	if err != nil || cond == 0 {
		return
	}

	target, err = m.read(args[1], in.Modes[1])
	eff = effectJump
	return
}

func opJumpFalse(m *Machine, in Instruction, args []int64) (eff effect, target int64, err error) {
	cond, err := m.read(args[0], in.Modes[0])
	if err != nil || cond != 0 {
		return
	}

	target, err = m.read(args[1], in.Modes[1])
	eff = effectJump
	return
}

func opAdjustBase(m *Machine, in Instruction, args []int64) (eff effect, target int64, err error) {
	delta, err := m.read(args[0], in.Modes[0])
	if err != nil {
		return
	}

	m.relativeBase += delta
	return
}

// opInput takes the next queued input, the default input, or suspends
// with the destination address recorded for completion.
func opInput(m *Machine, in Instruction, args []int64) (eff effect, target int64, err error) {
	addr, err := m.address(args[0], in.Modes[0])
	if err != nil {
		return
	}

	switch {
	case len(m.inputs) > 0:
		value := m.dequeue()
		err = m.mem.Write(addr, value)
	case m.useDefault:
		m.setIdle(true)
		err = m.mem.Write(addr, m.defaultInput)
	default:
		m.pending = &Suspension{
			Reason:  SUSPEND_INPUT,
			Address: addr,
			Next:    m.pointer + in.Width(),
		}
		eff = effectSuspend
	}

	return
}

// opOutput logs the value, and suspends when pausing on output.
func opOutput(m *Machine, in Instruction, args []int64) (eff effect, target int64, err error) {
	value, err := m.read(args[0], in.Modes[0])
	if err != nil {
		return
	}

	m.outputs = append(m.outputs, value)
	m.setLastValue(value)

	if m.Verbose {
		m.logf("output %v", value)
	}

	m.events.output.emit(value)

	if m.pauseOnOutput {
		m.pending = &Suspension{
			Reason: SUSPEND_OUTPUT,
			Next:   m.pointer + in.Width(),
		}
		eff = effectSuspend
	}

	return
}
