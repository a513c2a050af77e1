package io

import (
	"errors"

	"github.com/ezrec/intcode/translate"
)

var f = translate.From

var (
	// Tape errors
	ErrTapeNumber = errors.New(f("tape input is not a number"))
)
