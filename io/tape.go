package io

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ezrec/intcode/machine"
)

// Tape connects a machine's input queue and output log to byte streams.
//
// In integer mode each input line holds one or more comma or space
// separated values, and each output value is written as a decimal line.
// In ASCII mode each input line is fed byte by byte, including its
// newline, and output values below 128 are written as bytes.
type Tape struct {
	Input  io.Reader // Source of input lines. Nil disables input.
	Output io.Writer // Destination of output values. Nil disables output.
	ASCII  bool      // If set, exchange characters instead of numbers.

	reader *bufio.Reader
	err    error
}

// Attach registers the tape's observers on a machine. End of input halts
// the machine.
func (tape *Tape) Attach(m *machine.Machine) (detach func()) {
	var cancels []func()

	if tape.Output != nil {
		cancels = append(cancels, m.OnOutput(func(value int64) {
			err := tape.Send(value)
			if err != nil {
				m.Halt()
			}
		}))
	}

	if tape.Input != nil {
		cancels = append(cancels, m.OnInputAwaited(func(pending machine.Suspension) {
			values, err := tape.Receive()
			if err != nil {
				m.Halt()
				return
			}
			m.Input(values...)
		}))
	}

	detach = func() {
		for _, cancel := range cancels {
			cancel()
		}
	}

	return
}

// Err returns the first error, other than end of input, seen by the tape.
func (tape *Tape) Err() error {
	return tape.err
}

// fail records the first error.
func (tape *Tape) fail(err error) error {
	if tape.err == nil && !errors.Is(err, io.EOF) {
		tape.err = err
	}
	return err
}

// Send writes a single value to the output.
func (tape *Tape) Send(value int64) (err error) {
	if tape.ASCII && value >= 0 && value < 128 {
		_, err = tape.Output.Write([]byte{byte(value)})
	} else {
		_, err = fmt.Fprintf(tape.Output, "%d\n", value)
	}

	if err != nil {
		return tape.fail(err)
	}

	return
}

// Receive reads the values of the next input line. Blank lines are
// skipped in integer mode. Returns io.EOF at the end of input.
func (tape *Tape) Receive() (values []int64, err error) {
	if tape.reader == nil {
		tape.reader = bufio.NewReader(tape.Input)
	}

	for len(values) == 0 {
		var line string
		line, err = tape.reader.ReadString('\n')
		if len(line) == 0 && err != nil {
			err = tape.fail(err)
			return
		}
		err = nil

		line = strings.TrimRight(line, "\r\n")

		if tape.ASCII {
			for _, b := range []byte(line + "\n") {
				values = append(values, int64(b))
			}
			break
		}

		words := strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})
		for _, word := range words {
			var value int64
			value, err = strconv.ParseInt(word, 10, 64)
			if err != nil {
				err = tape.fail(fmt.Errorf("%w: %q", ErrTapeNumber, word))
				values = nil
				return
			}
			values = append(values, value)
		}
	}

	return
}
