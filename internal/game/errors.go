package game

import "fmt"

// Category classifies an error for transport and retry handling.
type Category int

const (
	CategoryValidation Category = iota
	CategoryAuthorization
	CategoryStateConsistency
	CategoryTransient
	CategoryInternal
)

// Stable error codes exposed to clients. These never change across
// releases; clients key retry and UI behavior off them.
const (
	CodeInvalidAction    = "INVALID_ACTION"
	CodeGameNotFound     = "GAME_NOT_FOUND"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeWrongTurn        = "WRONG_TURN"
	CodeIllegalMove      = "ILLEGAL_MOVE"
	CodeNotInDuel        = "NOT_IN_DUEL"
	CodeAlreadyAllocated = "ALREADY_ALLOCATED"
	CodeInsufficientBP   = "INSUFFICIENT_BP"
	CodeInvalidRetreat   = "INVALID_RETREAT"
	CodeServerError      = "SERVER_ERROR"
)

// Error is a typed game error with a stable code.
type Error struct {
	Code     string
	Category Category
	Message  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code string, cat Category, format string, args ...any) *Error {
	return &Error{Code: code, Category: cat, Message: fmt.Sprintf(format, args...)}
}

func errInvalidAction(format string, args ...any) *Error {
	return newError(CodeInvalidAction, CategoryValidation, format, args...)
}

func errUnauthorized(format string, args ...any) *Error {
	return newError(CodeUnauthorized, CategoryAuthorization, format, args...)
}

func errWrongTurn(format string, args ...any) *Error {
	return newError(CodeWrongTurn, CategoryValidation, format, args...)
}

func errIllegalMove(format string, args ...any) *Error {
	return newError(CodeIllegalMove, CategoryValidation, format, args...)
}

func errNotInDuel(format string, args ...any) *Error {
	return newError(CodeNotInDuel, CategoryValidation, format, args...)
}

func errAlreadyAllocated(format string, args ...any) *Error {
	return newError(CodeAlreadyAllocated, CategoryValidation, format, args...)
}

func errInsufficientBP(format string, args ...any) *Error {
	return newError(CodeInsufficientBP, CategoryValidation, format, args...)
}

func errInvalidRetreat(format string, args ...any) *Error {
	return newError(CodeInvalidRetreat, CategoryValidation, format, args...)
}

func errServer(format string, args ...any) *Error {
	return newError(CodeServerError, CategoryInternal, format, args...)
}

// ErrGameNotFound reports a missing or expired game.
func ErrGameNotFound(id string) *Error {
	return newError(CodeGameNotFound, CategoryValidation, "game %s not found", id)
}

// ErrTransient wraps a store failure that may succeed on retry.
func ErrTransient(err error) *Error {
	return newError(CodeServerError, CategoryTransient, "storage failure: %v", err)
}
