package machine

import (
	"errors"

	"github.com/ezrec/intcode/translate"
)

var f = translate.From

var (
	// Machine errors
	ErrRunning       = errors.New(f("machine already running"))
	ErrHalted        = errors.New(f("machine halted"))
	ErrSuspended     = errors.New(f("machine suspended"))
	ErrHaltRequested = errors.New(f("manual halt requested"))
	ErrAddress       = errors.New(f("address out of range"))
	ErrMemoryLimit   = errors.New(f("memory limit exceeded"))
	ErrWriteTarget   = errors.New(f("immediate mode write target"))

	// Instruction decode errors
	ErrExit       = errors.New(f("exit"))
	ErrModeDecode = errors.New(f("parameter mode"))

	// Program text errors
	ErrProgramEmpty = errors.New(f("program empty"))

	// Assembler errors
	ErrEquateSyntax    = errors.New(f(".equ syntax"))
	ErrEquateDuplicate = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate  = errors.New(f("label duplicated"))
	ErrLabelInvalid    = errors.New(f("label invalid"))
	ErrOpcodeInvalid   = errors.New(f("opcode invalid"))
	ErrOperandCount    = errors.New(f("operand count"))
	ErrOperandInvalid  = errors.New(f("operand invalid"))
)

// ErrOpcode is an instruction word that does not decode to a known opcode.
type ErrOpcode int64

func (eo ErrOpcode) Error() string {
	return f("bad opcode %v (word %v)", int64(eo)%100, int64(eo))
}

func (eo ErrOpcode) Is(err error) (ok bool) {
	_, ok = err.(ErrOpcode)
	return
}

// ErrStep locates a fault at an instruction pointer.
type ErrStep struct {
	Pointer int64
	Err     error
}

func (err *ErrStep) Error() string {
	return f("pointer %v %v", err.Pointer, err.Err)
}

func (err *ErrStep) Unwrap() error {
	return err.Err
}

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}
