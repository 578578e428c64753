package dirseek

import (
	"errors"
	"fmt"
)

// Error is a dirseek error carrying a store-compatible code.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error // wrapped store error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dirseek: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("dirseek: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorCode mirrors the MDBX error numbers so the native adapter can pass
// them through unchanged.
type ErrorCode int

const (
	// Success indicates the operation completed successfully
	Success ErrorCode = 0

	// ErrKeyExist indicates the key/data pair already exists
	ErrKeyExist ErrorCode = -30799

	// ErrNotFound indicates no entry satisfies the requested relation
	ErrNotFound ErrorCode = -30798

	// ErrCorrupted indicates the store is corrupted
	ErrCorrupted ErrorCode = -30796

	// ErrInvalid indicates the file is not a valid store
	ErrInvalid ErrorCode = -30793

	// ErrIncompatible indicates an operation the collection or adapter does not support
	ErrIncompatible ErrorCode = -30784

	// ErrBadTxn indicates the transaction is invalid (finished or not reset)
	ErrBadTxn ErrorCode = -30782

	// ErrBadValSize indicates invalid key or value size
	ErrBadValSize ErrorCode = -30781

	// ErrBadDBI indicates the DBI handle is invalid
	ErrBadDBI ErrorCode = -30780

	// ErrProblem indicates an unexpected store error
	ErrProblem ErrorCode = -30779

	// ErrBusy indicates another write transaction is running
	ErrBusy ErrorCode = -30778

	// ErrKeyMismatch indicates an append out of order
	ErrKeyMismatch ErrorCode = -30418
)

var errorMessages = map[ErrorCode]string{
	Success:         "success",
	ErrKeyExist:     "key/data pair already exists",
	ErrNotFound:     "key/data pair not found",
	ErrCorrupted:    "store is corrupted",
	ErrInvalid:      "not a valid store",
	ErrIncompatible: "incompatible operation or flags",
	ErrBadTxn:       "transaction is invalid",
	ErrBadValSize:   "invalid key or value size",
	ErrBadDBI:       "invalid DBI handle",
	ErrProblem:      "unexpected store error",
	ErrBusy:         "another write transaction is running",
	ErrKeyMismatch:  "key out of order for append",
}

// NewError creates a new Error with the given code
func NewError(code ErrorCode) *Error {
	msg, ok := errorMessages[code]
	if !ok {
		msg = fmt.Sprintf("unknown error code %d", code)
	}
	return &Error{Code: code, Message: msg}
}

// WrapError creates a new Error wrapping another error
func WrapError(code ErrorCode, err error) *Error {
	e := NewError(code)
	e.Err = err
	return e
}

// Common error variables for convenience
var (
	ErrKeyExistError     = NewError(ErrKeyExist)
	ErrNotFoundError     = NewError(ErrNotFound)
	ErrCorruptedError    = NewError(ErrCorrupted)
	ErrIncompatibleError = NewError(ErrIncompatible)
	ErrBadTxnError       = NewError(ErrBadTxn)
	ErrBadValSizeError   = NewError(ErrBadValSize)
	ErrBadDBIError       = NewError(ErrBadDBI)
	ErrKeyMismatchError  = NewError(ErrKeyMismatch)
)

// IsNotFound returns true if the error is ErrNotFound
func IsNotFound(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == ErrNotFound
	}
	return false
}

// IsKeyExist returns true if the error is ErrKeyExist
func IsKeyExist(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == ErrKeyExist
	}
	return false
}

// Code returns the error code from an error, or ErrProblem if it is not a
// dirseek error.
func Code(err error) ErrorCode {
	if err == nil {
		return Success
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrProblem
}
