// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/term"

	"github.com/ezrec/intcode/io"
	"github.com/ezrec/intcode/machine"
)

func main() {
	var program string
	var compile string
	var save bool
	var input string
	var output string
	var ascii bool
	var defaultInput string
	var verbose bool
	var dump string

	flag.StringVar(&program, "p", "", "Intcode program file to run")
	flag.StringVar(&compile, "c", "", ".asm file to compile")
	flag.BoolVar(&save, "s", false, "Write the compiled program, do not execute")
	flag.StringVar(&input, "i", "-", "Tape input")
	flag.StringVar(&output, "o", "-", "Tape output")
	flag.BoolVar(&ascii, "a", false, "ASCII tape mode")
	flag.StringVar(&defaultInput, "d", "", "Default input when the tape is empty")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.StringVar(&dump, "m", "", "Write the final non-zero memory cells to a file")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	if (len(program) == 0) == (len(compile) == 0) {
		log.Fatalf("%v: Exactly one of -p or -c is required", os.Args[0])
	}

	var tape []int64
	var label string

	// Load a program.
	if len(program) != 0 {
		inf, err := os.Open(program)
		if err != nil {
			log.Fatalf("%v: %v", program, err)
		}
		defer inf.Close()

		tape, err = machine.ParseProgram(inf)
		if err != nil {
			log.Fatalf("%v: %v", program, err)
		}
		label = filepath.Base(program)
	}

	// Compile a new program.
	if len(compile) != 0 {
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		asm := &machine.Assembler{Verbose: verbose}
		prog, err := asm.Parse(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		tape = prog.Tape()
		label = filepath.Base(compile)
	}

	ouf := os.Stdout
	if output != "-" {
		var err error
		ouf, err = os.Create(output)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
		defer ouf.Close()
	}

	if save {
		_, err := fmt.Fprintln(ouf, machine.FormatProgram(tape))
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
		return
	}

	opts := machine.Options{
		Label:   label,
		Verbose: verbose,
	}

	if len(defaultInput) != 0 {
		value, err := strconv.ParseInt(defaultInput, 10, 64)
		if err != nil {
			log.Fatalf("-d %v: %v", defaultInput, err)
		}
		opts.UseDefaultInput = true
		opts.DefaultInput = value
	}

	m := machine.NewMachine(tape, nil, opts)

	inf := os.Stdin
	if input != "-" {
		var err error
		inf, err = os.Open(input)
		if err != nil {
			log.Fatalf("%v: %v", input, err)
		}
		defer inf.Close()
	}

	// Prompt only when a person is typing the input.
	if term.IsTerminal(int(inf.Fd())) {
		m.OnInputAwaited(func(pending machine.Suspension) {
			fmt.Fprint(os.Stderr, "? ")
		})
	}

	tp := &io.Tape{
		Input:  inf,
		Output: ouf,
		ASCII:  ascii,
	}
	tp.Attach(m)

	_, err := m.Run()
	if err != nil {
		log.Fatalf("%v: %v", label, err)
	}

	err = tp.Err()
	if err != nil {
		log.Fatalf("%v: %v", label, err)
	}

	if len(dump) != 0 {
		err = dumpMemory(dump, m.Memory())
		if err != nil {
			log.Fatalf("%v: %v", dump, err)
		}
	}

	result := m.Result()
	switch {
	case result.Completed():
		if verbose {
			log.Printf("%v: completed after %d ticks", label, m.Ticks())
		}
	case errors.Is(result.Err, machine.ErrHaltRequested):
		if verbose {
			log.Printf("%v: input ended", label)
		}
	default:
		log.Fatalf("%v: %v", label, result.Err)
	}
}

// dumpMemory writes each non-zero cell as an 'address: value' line.
func dumpMemory(path string, mem *machine.Memory) (err error) {
	ouf, err := os.Create(path)
	if err != nil {
		return
	}
	defer ouf.Close()

	for addr, value := range mem.Cells() {
		_, err = fmt.Fprintf(ouf, "%d: %d\n", addr, value)
		if err != nil {
			return
		}
	}

	return
}
