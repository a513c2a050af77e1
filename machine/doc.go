// Package machine implements the Intcode stored-program machine and its assembler.
//
// A Machine interprets a tape of integers as both code and data. Each
// instruction word carries a two digit opcode and one addressing mode digit
// per parameter (position, immediate or relative). Input is queued by the
// caller; when the queue runs dry the machine suspends until more input
// arrives. Outputs are logged and announced to observers, optionally pausing
// after each one until the caller resumes the machine.
//
// The assembler provides a small assembly language for the Intcode
// instruction set, supporting labels, equates, data and compile-time
// expression evaluation.
package machine
