package machine

import (
	"bufio"
	"io"
	"iter"
	"strconv"
	"strings"
)

// ParseProgram reads a comma separated list of integers.
// Whitespace around values, and a trailing comma, are ignored.
func ParseProgram(r io.Reader) (program []int64, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 64*1024*1024)
	scanner.Split(scanComma)

	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if len(word) == 0 {
			continue
		}

		var value int64
		value, err = strconv.ParseInt(word, 10, 64)
		if err != nil {
			err = ErrParseNumber(word)
			return
		}
		program = append(program, value)
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if len(program) == 0 {
		err = ErrProgramEmpty
	}

	return
}

// scanComma is a bufio.SplitFunc for comma separated fields.
func scanComma(data []byte, atEOF bool) (advance int, token []byte, err error) {
	for n, c := range data {
		if c == ',' {
			return n + 1, data[:n], nil
		}
	}

	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}

	return
}

// FormatProgram writes a program as a comma separated list of integers.
func FormatProgram(program []int64) string {
	words := make([]string, len(program))
	for n, value := range program {
		words[n] = strconv.FormatInt(value, 10)
	}

	return strings.Join(words, ",")
}

// Link is a cell of a statement waiting on a label address.
type Link struct {
	Index int
	Label string
}

// Statement is a line of assembled code with its source location and
// generated cells.
type Statement struct {
	LineNo int
	Ip     int64
	Words  []string
	Cells  []int64
	Links  []Link
}

// Program is an assembled program.
type Program struct {
	Statements []Statement
}

// Debug is the statement covering an address.
type Debug struct {
	*Statement
	Index int
}

// Debug returns the statement that assembled the cell at ip.
func (prog *Program) Debug(ip int64) (dbg Debug) {
	for n, stmt := range prog.Statements {
		if ip >= stmt.Ip && ip < stmt.Ip+int64(len(stmt.Cells)) {
			dbg = Debug{
				Statement: &prog.Statements[n],
				Index:     int(ip - stmt.Ip),
			}
			break
		}
	}

	return
}

// Tape returns the assembled program cells.
func (prog *Program) Tape() (tape []int64) {
	for _, cell := range prog.Cells() {
		tape = append(tape, cell)
	}

	return
}

// Cells iterates over the address and value of every assembled cell.
func (prog *Program) Cells() iter.Seq2[int64, int64] {
	return func(yield func(ip int64, cell int64) bool) {
		for _, stmt := range prog.Statements {
			for n, cell := range stmt.Cells {
				if !yield(stmt.Ip+int64(n), cell) {
					return
				}
			}
		}
	}
}
