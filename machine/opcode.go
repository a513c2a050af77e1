package machine

import (
	"fmt"
	"strings"
)

// Mode is a parameter addressing mode.
type Mode int

const (
	MODE_POSITION  = Mode(0) // Value at memory[operand].
	MODE_IMMEDIATE = Mode(1) // The operand itself.
	MODE_RELATIVE  = Mode(2) // Value at memory[relative base + operand].
)

var _mode_names = [...]string{"pos", "imm", "rel"}

func (mode Mode) String() string {
	if mode < 0 || int(mode) >= len(_mode_names) {
		return fmt.Sprintf("Mode(%d)", int(mode))
	}
	return _mode_names[mode]
}

// Writable returns true if the mode can address a destination.
func (mode Mode) Writable() bool {
	return mode != MODE_IMMEDIATE
}

// Opcode is the low two decimal digits of an instruction word.
type Opcode int

const (
	OP_ADD         = Opcode(1)  // add
	OP_MULTIPLY    = Opcode(2)  // mul
	OP_INPUT       = Opcode(3)  // in
	OP_OUTPUT      = Opcode(4)  // out
	OP_JUMP_TRUE   = Opcode(5)  // jt
	OP_JUMP_FALSE  = Opcode(6)  // jf
	OP_LESS_THAN   = Opcode(7)  // lt
	OP_EQUALS      = Opcode(8)  // eq
	OP_ADJUST_BASE = Opcode(9)  // arb
	OP_EXIT        = Opcode(99) // hlt
)

func (op Opcode) String() string {
	if op == OP_EXIT {
		return "hlt"
	}
	if oper, ok := lookup(op); ok {
		return oper.Mnemonic
	}
	return fmt.Sprintf("Opcode(%d)", int(op))
}

// Instruction is a decoded instruction word.
type Instruction struct {
	Word   int64  // Raw instruction word.
	Opcode Opcode // Operation selector.
	Modes  []Mode // Addressing mode of each parameter.
}

// Params returns the number of parameters of the instruction.
func (in Instruction) Params() int {
	return len(in.Modes)
}

// Width returns the number of memory cells the instruction occupies.
func (in Instruction) Width() int64 {
	return int64(1 + len(in.Modes))
}

// String returns the mnemonic representation of the instruction.
func (in Instruction) String() string {
	modes := make([]string, len(in.Modes))
	for n, mode := range in.Modes {
		modes[n] = mode.String()
	}
	return fmt.Sprintf("%v.%v", in.Opcode, strings.Join(modes, "."))
}

// Encode builds an instruction word from an opcode and parameter modes.
func Encode(op Opcode, modes ...Mode) (word int64) {
	scale := int64(100)
	word = int64(op)
	for _, mode := range modes {
		word += int64(mode) * scale
		scale *= 10
	}

	return
}

// Decode an instruction word.
//
// The opcode 99 decodes to ErrExit, all other opcodes missing from the
// operation table decode to ErrOpcode. Mode digits beyond the parameter
// count of the opcode are ignored.
func Decode(word int64) (in Instruction, err error) {
	if word < 0 {
		err = ErrOpcode(word)
		return
	}

	op := Opcode(word % 100)
	if op == OP_EXIT {
		err = ErrExit
		return
	}

	oper, ok := lookup(op)
	if !ok {
		err = ErrOpcode(word)
		return
	}

	in = Instruction{
		Word:   word,
		Opcode: op,
		Modes:  make([]Mode, oper.Params),
	}

	digits := word / 100
	for n := range in.Modes {
		mode := Mode(digits % 10)
		switch mode {
		case MODE_POSITION, MODE_IMMEDIATE, MODE_RELATIVE:
			in.Modes[n] = mode
		default:
			err = fmt.Errorf("%w %v", ErrModeDecode, int(mode))
			return
		}
		digits /= 10
	}

	return
}
