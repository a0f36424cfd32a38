package emulator

import (
	"github.com/ocho8/ocho/translate"
)

var f = translate.From

// ErrRuntime indicates the program location of a runtime error.
type ErrRuntime struct {
	Pc  uint16
	Err error
}

func (err *ErrRuntime) Error() string {
	return f("pc 0x%03x %v", err.Pc, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
