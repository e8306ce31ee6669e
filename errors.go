// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package pickleasm

import (
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedProtocol represents an error which is returned by
	// NewAssembler when the requested protocol version is out of the
	// supported range [0, HighestProtocol].
	ErrUnsupportedProtocol = &Error{
		Name:    "UnsupportedProtocolError",
		Message: "pickle protocol must be in range [0, 5]",
	}

	// ErrProtocolMismatch represents an error where an opcode requires a
	// higher protocol version than the assembler's declared protocol.
	ErrProtocolMismatch = &Error{Name: "ProtocolMismatchError"}

	// ErrMarkUnderflow represents an error where a mark consuming opcode is
	// emitted without a matching MARK on the stack.
	ErrMarkUnderflow = &Error{Name: "MarkUnderflowError"}

	// ErrOutOfRange represents an error where a value or length exceeds the
	// representable range of an opcode's operand encoding.
	ErrOutOfRange = &Error{Name: "OutOfRangeError"}

	// ErrInvalidValue represents an error for operand values that cannot be
	// encoded, such as names containing newline characters.
	ErrInvalidValue = &Error{Name: "InvalidValueError"}

	// ErrType represents a type error.
	ErrType = &Error{Name: "TypeError"}
)

// Error represents an assembler error and implements error interface.
type Error struct {
	Name    string
	Message string
	Cause   error
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Error implements error interface.
func (e *Error) Error() string {
	name := e.Name
	if name == "" {
		name = "error"
	}
	return fmt.Sprintf("%s: %s", name, e.Message)
}

// NewError creates a new Error and sets original Error as its cause which
// can be unwrapped.
func (e *Error) NewError(messages ...string) *Error {
	cp := *e
	cp.Message = strings.Join(messages, " ")
	cp.Cause = e
	return &cp
}

// NewProtocolMismatchError creates a new Error from ErrProtocolMismatch.
func NewProtocolMismatchError(op Opcode, declared int) *Error {
	return ErrProtocolMismatch.NewError(
		fmt.Sprintf("opcode %s requires protocol version >= %d, but current protocol is %d",
			OpcodeName(op), OpcodeProto(op), declared))
}

// NewMarkUnderflowError creates a new Error from ErrMarkUnderflow.
func NewMarkUnderflowError(op Opcode) *Error {
	return ErrMarkUnderflow.NewError(
		fmt.Sprintf("opcode %s requires an open MARK on the stack", OpcodeName(op)))
}

// NewOutOfRangeError creates a new Error from ErrOutOfRange.
func NewOutOfRangeError(what string, op Opcode) *Error {
	return ErrOutOfRange.NewError(
		fmt.Sprintf("%s out of range for opcode %s", what, OpcodeName(op)))
}
