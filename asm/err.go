package asm

import (
	"errors"

	"github.com/ocho8/ocho/translate"
)

var f = translate.From

var (
	ErrEquateSyntax    = errors.New(f(".equ syntax"))
	ErrEquateDuplicate = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate  = errors.New(f("label duplicated"))
	ErrOpcodeInvalid   = errors.New(f("opcode invalid"))
	ErrOpcodeArgs      = errors.New(f("wrong argument count"))
	ErrRegisterInvalid = errors.New(f("register invalid"))
	ErrTargetInvalid   = errors.New(f("target invalid"))
)

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

type ErrValueRange string

func (err ErrValueRange) Error() string {
	return f("'%v' does not fit the operand", string(err))
}
