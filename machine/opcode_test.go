package machine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	assert := assert.New(t)

	P, I, R := MODE_POSITION, MODE_IMMEDIATE, MODE_RELATIVE

	table := [](struct {
		word  int64
		op    Opcode
		modes []Mode
	}){
		{1, OP_ADD, []Mode{P, P, P}},
		{1002, OP_MULTIPLY, []Mode{P, I, P}},
		{21101, OP_ADD, []Mode{I, I, R}},
		{3, OP_INPUT, []Mode{P}},
		{203, OP_INPUT, []Mode{R}},
		{104, OP_OUTPUT, []Mode{I}},
		{1105, OP_JUMP_TRUE, []Mode{I, I}},
		{6, OP_JUMP_FALSE, []Mode{P, P}},
		{1207, OP_LESS_THAN, []Mode{R, I, P}},
		{8, OP_EQUALS, []Mode{P, P, P}},
		{209, OP_ADJUST_BASE, []Mode{R}},
		// Digits beyond the parameter count are ignored.
		{11104, OP_OUTPUT, []Mode{I}},
	}

	for _, entry := range table {
		in, err := Decode(entry.word)
		assert.NoError(err, entry.word)
		assert.Equal(entry.op, in.Opcode, entry.word)
		assert.Equal(entry.modes, in.Modes, entry.word)
		assert.Equal(len(entry.modes), in.Params(), entry.word)
		assert.Equal(int64(1+len(entry.modes)), in.Width(), entry.word)
		assert.Equal(entry.word, in.Word)
	}
}

func TestDecodeErrors(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		word int64
		err  error
	}){
		{99, ErrExit},
		{1099, ErrExit},
		{0, ErrOpcode(0)},
		{10, ErrOpcode(10)},
		{98, ErrOpcode(98)},
		{-1, ErrOpcode(-1)},
		{301, ErrModeDecode},
		{1901, ErrModeDecode},
		{303, ErrModeDecode},
	}

	for _, entry := range table {
		_, err := Decode(entry.word)
		assert.ErrorIs(err, entry.err, entry.word)
	}
}

func TestEncode(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(int64(1002), Encode(OP_MULTIPLY, MODE_POSITION, MODE_IMMEDIATE, MODE_POSITION))
	assert.Equal(int64(21101), Encode(OP_ADD, MODE_IMMEDIATE, MODE_IMMEDIATE, MODE_RELATIVE))
	assert.Equal(int64(3), Encode(OP_INPUT))
	assert.Equal(int64(99), Encode(OP_EXIT))
}

func TestOpcodeString(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("add", OP_ADD.String())
	assert.Equal("arb", OP_ADJUST_BASE.String())
	assert.Equal("hlt", OP_EXIT.String())
	assert.Equal("Opcode(42)", Opcode(42).String())
	assert.Equal("rel", MODE_RELATIVE.String())
	assert.Equal("Mode(7)", Mode(7).String())
	assert.False(MODE_IMMEDIATE.Writable())
	assert.True(MODE_RELATIVE.Writable())

	in, err := Decode(1002)
	assert.NoError(err)
	assert.Equal("mul.pos.imm.pos", in.String())
}
