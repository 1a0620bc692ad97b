package availrpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Error represents JSON-RPC 2.0 error type.
type Error struct {
	Code    int64           `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Standard JSON-RPC 2.0 error codes.
const (
	ParseErrorCode     = -32700
	InvalidRequestCode = -32600
	MethodNotFoundCode = -32601
	InvalidParamsCode  = -32602
	InternalErrorCode  = -32603
)

// Substrate transaction pool (author_*) error codes.
const (
	InvalidTransactionCode = 1010
	UnknownTransactionCode = 1011
	TemporarilyBannedCode  = 1012
	AlreadyImportedCode    = 1013
	TooLowPriorityCode     = 1014
	CycleDetectedCode      = 1015
	ImmediatelyDroppedCode = 1016
	UnactionableCode       = 1017
	NoTagsProvidedCode     = 1018
	CustomPoolErrorCode    = 1019
	PoolLimitReachedCode   = 1020
)

// NewError creates a new Error with the given code, message and data.
func NewError(code int64, message string, data string) *Error {
	e := &Error{Code: code, Message: message}
	if data != "" {
		e.Data, _ = json.Marshal(data)
	}
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Data) == 0 {
		return fmt.Sprintf("%s (%d)", e.Message, e.Code)
	}
	return fmt.Sprintf("%s (%d) - %s", e.Message, e.Code, e.DataString())
}

// DataString returns error data, string values are unquoted.
func (e *Error) DataString() string {
	var s string
	if json.Unmarshal(e.Data, &s) == nil {
		return s
	}
	return string(e.Data)
}

// Is denotes whether the error matches the target one.
func (e *Error) Is(target error) bool {
	var clTarget *Error
	if errors.As(target, &clTarget) {
		return e.Code == clTarget.Code
	}
	return false
}

func rpcError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

func matches(err error, code int64, substr string) bool {
	if err == nil {
		return false
	}
	if e, ok := rpcError(err); ok && e.Code == code {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), substr)
}

// IsAlreadyImported checks whether the submission error means that the
// transaction is already in the pool (or was already included).
func IsAlreadyImported(err error) bool {
	return matches(err, AlreadyImportedCode, "already imported") ||
		matches(err, TemporarilyBannedCode, "temporarily banned")
}

// IsStale checks whether the submission error means that the transaction
// nonce is already used (transaction is outdated).
func IsStale(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "outdated") || strings.Contains(msg, "stale")
}

// IsPriorityTooLow checks whether the submission error means that the pool
// already has a transaction with the same nonce and higher or equal
// priority.
func IsPriorityTooLow(err error) bool {
	return matches(err, TooLowPriorityCode, "priority is too low")
}
