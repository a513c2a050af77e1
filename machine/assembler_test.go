package machine

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assemble(t *testing.T, asm *Assembler, program []string) (prog *Program) {
	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	require.NoError(t, err)

	return
}

func TestAssembler(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	prog, err := asm.Parse(strings.NewReader(""))
	assert.NoError(err)
	assert.Empty(prog.Statements)
	assert.Empty(prog.Tape())

	assert.Equal("0", asm.Equate["LINENO"])
	assert.Equal("1", asm.Equate["MODE_IMMEDIATE"])
	assert.Equal("2", asm.Equate["MODE_RELATIVE"])
}

func TestAssemblerEcho(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	program := []string{
		"; echo until zero",
		"loop:  in value",
		"       jf value #done",
		"       out value",
		"       jt #1 #loop     ; always",
		"done:  hlt",
		"value: .data 0",
	}

	prog := assemble(t, asm, program)

	tape := prog.Tape()
	assert.Equal([]int64{3, 11, 1006, 11, 10, 4, 11, 1105, 1, 0, 99, 0}, tape)
	assert.Equal(int64(0), asm.Label["loop"])
	assert.Equal(int64(10), asm.Label["done"])
	assert.Equal(int64(11), asm.Label["value"])

	dbg := prog.Debug(8)
	assert.Equal(5, dbg.LineNo)
	assert.Equal(1, dbg.Index)
	assert.Equal([]string{"jt", "#1", "#loop"}, dbg.Words)

	m := NewMachine(tape, []int64{3, 2, 0}, Options{})
	outputs, err := m.Run()
	assert.NoError(err)
	assert.Equal([]int64{3, 2}, outputs)
	assert.True(m.Result().Completed())
}

func TestAssemblerValues(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name    string
		program []string
		tape    []int64
	}){
		{"equate", []string{".equ N 3", "out #N"}, []int64{104, 3}},
		{"expression", []string{".equ N 3", "out #$(N*2+1)"}, []int64{104, 7}},
		{"character", []string{"out #'A'", "out #' '", "out #';' ; semi"}, []int64{104, 65, 104, 32, 104, 59}},
		{"escape", []string{"out #'\\n'"}, []int64{104, 10}},
		{"hex", []string{"out #0x10"}, []int64{104, 16}},
		{"leading_zero", []string{".data 010 -007 0o10 0b11"}, []int64{10, -7, 8, 3}},
		{"floor_divide", []string{"out #$(7//2)"}, []int64{104, 3}},
		{"relative", []string{"arb #5", "out @-1"}, []int64{109, 5, 204, -1}},
		{"label_expr", []string{"hlt", "start: out #$(start+10)"}, []int64{99, 104, 11}},
		{"label_negate", []string{"a: hlt", "b: arb #-b"}, []int64{99, 109, -1}},
		{"lineno", []string{"", "out #LINENO"}, []int64{104, 2}},
		{"multiply", []string{"mul @1 #3 @2"}, []int64{21202, 1, 3, 2}},
		{"data", []string{"x: .data 1 -2 'a' x end", "end:"}, []int64{1, -2, 97, 0, 5}},
		{"labels", []string{"a: b: hlt"}, []int64{99}},
	}

	for _, entry := range table {
		asm := &Assembler{}
		prog, err := asm.Parse(strings.NewReader(strings.Join(entry.program, "\n")))
		assert.NoError(err, entry.name)
		if err != nil {
			continue
		}
		assert.Equal(entry.tape, prog.Tape(), entry.name)
	}
}

func TestAssemblerPredefine(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.Predefine("SIZE", "10")
	asm.Predefine("SIZE", "12")

	prog := assemble(t, asm, []string{"out #SIZE", "out #$(SIZE//2)"})
	assert.Equal([]int64{104, 12, 104, 6}, prog.Tape())
}

func TestAssemblerErrors(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name    string
		program []string
		lineno  int
		err     error
	}){
		{"write_immediate", []string{"add #1 #2 #3"}, 1, ErrWriteTarget},
		{"input_immediate", []string{"hlt", "in #3"}, 2, ErrWriteTarget},
		{"opcode", []string{"jmp 1"}, 1, ErrOpcodeInvalid},
		{"count_short", []string{"out"}, 1, ErrOperandCount},
		{"count_long", []string{"out 1 2"}, 1, ErrOperandCount},
		{"hlt_args", []string{"hlt 1"}, 1, ErrOperandCount},
		{"data_empty", []string{".data"}, 1, ErrOperandCount},
		{"label_missing", []string{"out missing", "hlt"}, 1, ErrLabelMissing("missing")},
		{"label_duplicate", []string{"a: hlt", "a: hlt"}, 2, ErrLabelDuplicate},
		{"label_invalid", []string{"1a: hlt"}, 1, ErrLabelInvalid},
		{"equate_duplicate", []string{".equ N 1", ".equ N 2"}, 2, ErrEquateDuplicate},
		{"equate_syntax", []string{".equ N"}, 1, ErrEquateSyntax},
		{"number", []string{"out #1x"}, 1, ErrParseNumber("1x")},
		{"expression", []string{"out #$(\"a\")"}, 1, ErrParseExpression(`"a"`)},
		{"expression_float", []string{"hlt", "out #$(6/2)"}, 2, ErrParseExpression("6/2")},
	}

	for _, entry := range table {
		asm := &Assembler{}
		_, err := asm.Parse(strings.NewReader(strings.Join(entry.program, "\n")))
		assert.ErrorIs(err, entry.err, entry.name)

		var syntax *ErrSyntax
		if assert.True(errors.As(err, &syntax), entry.name) {
			assert.Equal(entry.lineno, syntax.LineNo, entry.name)
		}
	}
}
