package network

import (
	"errors"

	"github.com/ezrec/intcode/translate"
)

var f = translate.From

var (
	ErrDeadlock = errors.New(f("every node is waiting for input"))
	ErrEmpty    = errors.New(f("network has no nodes"))
	ErrNoOutput = errors.New(f("final node produced no output"))
)

// ErrNode indicates which node of a network failed.
type ErrNode struct {
	Label string
	Index int
	Err   error
}

func (err *ErrNode) Error() string {
	return f("node %d (%v) %v", err.Index, err.Label, err.Err)
}

func (err *ErrNode) Unwrap() error {
	return err.Err
}
