package account

import (
	"errors"
	"fmt"
)

// AccountError represents errors raised by user account operations
type AccountError struct {
	Kind    string
	Email   string
	Message string
	Cause   error
}

func (e *AccountError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("account error [%s]: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("account error [%s]: %s", e.Kind, e.Message)
}

func (e *AccountError) Unwrap() error {
	return e.Cause
}

// Account error kinds
const (
	ErrKindNotFound      = "user_not_found"
	ErrKindAlreadyExists = "user_already_exists"
	ErrKindAuthFailed    = "authentication_failed"
	ErrKindNoData        = "no_data"
)

// NewUserNotFoundError creates an error for when no user matches the lookup key
func NewUserNotFoundError(email string) *AccountError {
	return &AccountError{
		Kind:    ErrKindNotFound,
		Email:   email,
		Message: "user not found",
	}
}

// NewUserAlreadyExistsError creates an error for when the email is already taken
func NewUserAlreadyExistsError(email string) *AccountError {
	return &AccountError{
		Kind:    ErrKindAlreadyExists,
		Email:   email,
		Message: "a user with this email already exists",
	}
}

// NewAuthFailedError creates an error for a password mismatch on login
func NewAuthFailedError(email string) *AccountError {
	return &AccountError{
		Kind:    ErrKindAuthFailed,
		Email:   email,
		Message: "email and password do not match",
	}
}

// NewNoDataError creates an error for when the store holds no users at all
func NewNoDataError() *AccountError {
	return &AccountError{
		Kind:    ErrKindNoData,
		Message: "no user data",
	}
}

// ErrKind extracts the account error kind, or "" for foreign errors
func ErrKind(err error) string {
	var ae *AccountError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}
