package account

import "errors"

// Envelope status codes. Every HTTP response is 200 with one of these
// embedded; transport-level status codes are not used for domain failures.
const (
	CodeOK           = 0
	CodeServerError  = -1
	CodeUserNotFound = 101
	CodeUserExists   = 102
	CodeAuthFailed   = 103
	CodeNoData       = 104
)

// Result is the uniform response envelope: either Data (success) or
// Code/Message (failure), never both.
type Result struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// OK wraps a success payload
func OK(data any) Result {
	return Result{Code: CodeOK, Data: data}
}

// Fail maps an operation error to its envelope code and message. Errors
// that are not AccountErrors (store or mail transport failures) fall
// through to the generic server error code.
func Fail(err error) Result {
	var ae *AccountError
	if !errors.As(err, &ae) {
		return Result{Code: CodeServerError, Message: "operation failed"}
	}

	switch ae.Kind {
	case ErrKindNotFound:
		return Result{Code: CodeUserNotFound, Message: ae.Message}
	case ErrKindAlreadyExists:
		return Result{Code: CodeUserExists, Message: ae.Message}
	case ErrKindAuthFailed:
		return Result{Code: CodeAuthFailed, Message: ae.Message}
	case ErrKindNoData:
		return Result{Code: CodeNoData, Message: ae.Message}
	default:
		return Result{Code: CodeServerError, Message: ae.Message}
	}
}
