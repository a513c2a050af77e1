// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package machine

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO":         "0",
	"MODE_POSITION":  fmt.Sprint(int(MODE_POSITION)),
	"MODE_IMMEDIATE": fmt.Sprint(int(MODE_IMMEDIATE)),
	"MODE_RELATIVE":  fmt.Sprint(int(MODE_RELATIVE)),
}

var (
	reCharacter   = regexp.MustCompile(`'\\?[^']'`)
	reExpression  = regexp.MustCompile(`\$\([^\$]*\)`)
	reLabel       = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)
	reLabelDefine = regexp.MustCompile(`^\s*([^\s':]+):(\s|$)`)
	reDecimal     = regexp.MustCompile(`^[-+]?[0-9]+$`)
)

// Assembler is a two pass assembler for Intcode.
//
// Each line holds an optional 'label:', then an instruction mnemonic and its
// operands, or a directive. Operands are position mode by default, '#'
// prefixed for immediate mode, and '@' prefixed for relative mode. An
// operand is a number, a 'c' character, an equate, a label, or a $(...)
// Starlark expression over the equates and labels defined so far.
// Expressions must give an integer, so use '//' to divide.
//
// Numbers are decimal, a leading zero included, unless prefixed with
// '0x' (hex), '0o' (octal) or '0b' (binary).
//
//	.equ NAME VALUE    ; Define an equate.
//	.data VALUE...     ; Emit raw cells.
//	hlt                ; Emit the exit opcode.
type Assembler struct {
	Verbose   bool        // If set, verbosely logs the assembler actions.
	Statement []Statement // List of generated statements.

	predefine map[string]string // Predefines
	Label     map[string]int64  // Map of labels to addresses.
	Equate    map[string]string // Map of equates.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// mnemonicMap maps instruction mnemonics to opcodes.
var mnemonicMap = func() map[string]Opcode {
	mnemonics := map[string]Opcode{}
	for op, oper := range operations {
		if oper.exec != nil {
			mnemonics[oper.Mnemonic] = Opcode(op)
		}
	}
	return mnemonics
}()

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value int64, err error) {
	if len(word) == 0 {
		err = ErrOperandInvalid
		return
	}

	negate := false
	if word[0] == '-' && reLabel.MatchString(word[1:]) {
		negate = true
		word = word[1:]
	}

	if addr, ok := asm.Label[word]; ok {
		value = addr
	} else {
		base := 0
		if reDecimal.MatchString(word) {
			base = 10
		}
		value, err = strconv.ParseInt(word, base, 64)
		if err != nil {
			err = ErrParseNumber(word)
			return
		}
	}

	if negate {
		value = -value
	}

	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var v int64
		v, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt64(v)
	}
	for key, addr := range asm.Label {
		if reLabel.MatchString(key) && !strings.Contains(key, ".") {
			pred[key] = starlark.MakeInt64(addr)
		}
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

// parseLine expands characters, expressions, and equates in a line.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Labels are defined before expressions see them.
	for {
		match := reLabelDefine.FindStringSubmatch(line)
		if match == nil {
			break
		}
		label := match[1]
		if !reLabel.MatchString(label) {
			err = ErrLabelInvalid
			return
		}
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}
		asm.Label[label] = asm.currentIp()
		line = line[len(match[0]):]
	}

	// Do 'x' evaluations
	line = reCharacter.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "t":
				str = "\t"
			case "e":
				str = "\033"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	line = reExpression.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%v", value)
	})
	if err != nil {
		return
	}

	words = strings.Fields(line)

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		prefix := ""
		if len(word) > 0 && (word[0] == '#' || word[0] == '@') {
			prefix = word[:1]
			word = word[1:]
		}

		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = prefix + equate
		}
	}

	return
}

// currentIp gets the current address.
func (asm *Assembler) currentIp() int64 {
	if len(asm.Statement) == 0 {
		return 0
	}

	last := asm.Statement[len(asm.Statement)-1]

	return last.Ip + int64(len(last.Cells))
}

// operand splits an operand into its mode and value word.
func operand(word string) (mode Mode, value string) {
	switch {
	case strings.HasPrefix(word, "#"):
		mode, value = MODE_IMMEDIATE, word[1:]
	case strings.HasPrefix(word, "@"):
		mode, value = MODE_RELATIVE, word[1:]
	default:
		mode, value = MODE_POSITION, word
	}

	return
}

// parseWords turns a line of words into a statement.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	if len(words) == 0 {
		return
	}

	stmt := Statement{
		LineNo: lineno,
		Ip:     asm.currentIp(),
		Words:  slices.Clone(words),
	}

	// cell emits a value word, leaving a link for an unresolved label.
	cell := func(word string) (err error) {
		value, err := asm.valueOf(word)
		if err != nil {
			if !reLabel.MatchString(word) {
				return
			}
			err = nil
			stmt.Links = append(stmt.Links, Link{Index: len(stmt.Cells), Label: word})
		}
		stmt.Cells = append(stmt.Cells, value)
		return
	}

	switch words[0] {
	case ".data":
		if len(words) < 2 {
			err = ErrOperandCount
			return
		}
		for _, word := range words[1:] {
			err = cell(word)
			if err != nil {
				return
			}
		}
	case "hlt":
		if len(words) != 1 {
			err = ErrOperandCount
			return
		}
		stmt.Cells = append(stmt.Cells, int64(OP_EXIT))
	default:
		op, ok := mnemonicMap[words[0]]
		if !ok {
			err = ErrOpcodeInvalid
			return
		}
		oper, _ := lookup(op)
		args := words[1:]
		if len(args) != oper.Params {
			err = ErrOperandCount
			return
		}

		modes := make([]Mode, len(args))
		values := make([]string, len(args))
		for n, arg := range args {
			modes[n], values[n] = operand(arg)
		}

		// The last operand of these is a destination.
		switch op {
		case OP_ADD, OP_MULTIPLY, OP_LESS_THAN, OP_EQUALS, OP_INPUT:
			if !modes[len(modes)-1].Writable() {
				err = ErrWriteTarget
				return
			}
		}

		stmt.Cells = append(stmt.Cells, Encode(op, modes...))
		for _, value := range values {
			err = cell(value)
			if err != nil {
				return
			}
		}
	}

	if asm.Verbose {
		log.Printf("%04d: %v => %v", stmt.Ip, strings.Join(words, " "), stmt.Cells)
	}

	asm.Statement = append(asm.Statement, stmt)

	return
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	asm.Statement = asm.Statement[:0]
	asm.Label = map[string]int64{}
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		line = strings.TrimSpace(stripComment(text))

		var words []string
		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	// Final linking of labels.
	for n := range asm.Statement {
		stmt := &asm.Statement[n]
		for _, link := range stmt.Links {
			addr, ok := asm.Label[link.Label]
			if !ok {
				line = strings.Join(stmt.Words, " ")
				lineno = stmt.LineNo
				err = ErrLabelMissing(link.Label)
				return
			}
			stmt.Cells[link.Index] = addr
		}
	}

	prog = &Program{
		Statements: slices.Clone(asm.Statement),
	}

	return
}

// stripComment removes a ';' comment, ignoring ';' in character quotes.
func stripComment(text string) string {
	quoted := false
	for n := 0; n < len(text); n++ {
		switch text[n] {
		case '\\':
			if quoted {
				n++
			}
		case '\'':
			quoted = !quoted
		case ';':
			if !quoted {
				return text[:n]
			}
		}
	}
	return text
}
