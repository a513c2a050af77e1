package io

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/intcode/machine"
)

// echo copies every input value to the output, forever.
var echo = []int64{3, 7, 4, 7, 1105, 1, 0, 0}

func TestTape(t *testing.T) {
	assert := assert.New(t)

	output := &bytes.Buffer{}
	tape := &Tape{
		Input:  strings.NewReader("1\n2, -3\n\n4"),
		Output: output,
	}

	m := machine.NewMachine(echo, nil, machine.Options{})
	tape.Attach(m)

	outputs, err := m.Run()
	assert.NoError(err)
	assert.Equal([]int64{1, 2, -3, 4}, outputs)
	assert.Equal("1\n2\n-3\n4\n", output.String())

	assert.True(m.Halted())
	assert.ErrorIs(m.Result().Err, machine.ErrHaltRequested)
	assert.NoError(tape.Err())
}

func TestTapeASCII(t *testing.T) {
	assert := assert.New(t)

	output := &bytes.Buffer{}
	tape := &Tape{
		Input:  strings.NewReader("hi\r\nyo"),
		Output: output,
		ASCII:  true,
	}

	m := machine.NewMachine(echo, nil, machine.Options{})
	tape.Attach(m)

	_, err := m.Run()
	assert.NoError(err)
	assert.Equal("hi\nyo\n", output.String())
	assert.NoError(tape.Err())

	// Large values are written as numbers.
	output.Reset()
	m = machine.NewMachine([]int64{104, 65, 104, 1000, 104, 10, 99}, nil, machine.Options{})
	tape.Attach(m)
	_, err = m.Run()
	assert.NoError(err)
	assert.True(m.Result().Completed())
	assert.Equal("A1000\n\n", output.String())
}

func TestTapeASCIIBytes(t *testing.T) {
	assert := assert.New(t)

	tape := &Tape{
		Input: strings.NewReader("é\xff\n"),
		ASCII: true,
	}

	values, err := tape.Receive()
	assert.NoError(err)
	assert.Equal([]int64{0xc3, 0xa9, 0xff, '\n'}, values)

	_, err = tape.Receive()
	assert.ErrorIs(err, io.EOF)
	assert.NoError(tape.Err())
}

func TestTapeBadNumber(t *testing.T) {
	assert := assert.New(t)

	output := &bytes.Buffer{}
	tape := &Tape{
		Input:  strings.NewReader("5\nfive\n6\n"),
		Output: output,
	}

	m := machine.NewMachine(echo, nil, machine.Options{})
	tape.Attach(m)

	outputs, err := m.Run()
	assert.NoError(err)
	assert.Equal([]int64{5}, outputs)
	assert.True(m.Halted())
	assert.ErrorIs(tape.Err(), ErrTapeNumber)
}

type failWriter struct{}

var errWrite = errors.New("write failed")

func (failWriter) Write(data []byte) (int, error) {
	return 0, errWrite
}

func TestTapeOutputError(t *testing.T) {
	assert := assert.New(t)

	tape := &Tape{Output: failWriter{}}

	m := machine.NewMachine([]int64{104, 1, 104, 2, 99}, nil, machine.Options{})
	tape.Attach(m)

	outputs, err := m.Run()
	assert.NoError(err)
	assert.Equal([]int64{1}, outputs)
	assert.ErrorIs(m.Result().Err, machine.ErrHaltRequested)
	assert.ErrorIs(tape.Err(), errWrite)
}

func TestTapeDetach(t *testing.T) {
	assert := assert.New(t)

	output := &bytes.Buffer{}
	tape := &Tape{Output: output}

	m := machine.NewMachine([]int64{3, 0, 4, 0, 99}, nil, machine.Options{})
	detach := tape.Attach(m)
	detach()

	outputs, err := m.Run()
	assert.NoError(err)
	assert.Empty(outputs)
	assert.True(m.WaitingForInput())

	m.Input(7)
	assert.Equal([]int64{7}, m.Outputs())
	assert.Empty(output.String())
}
