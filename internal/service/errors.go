package service

import (
	"errors"
)

// Kind classifies an error returned by AuthService.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindAuthentication
	KindNotFound
)

// Error is a client-facing auth failure. Its message is safe to return to the caller.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrMissingFields          = &Error{Kind: KindValidation, Message: "missing fields"}
	ErrInvalidPhone           = &Error{Kind: KindValidation, Message: "invalid phone format"}
	ErrPasswordTooLong        = &Error{Kind: KindValidation, Message: "password too long"}
	ErrPhoneAlreadyRegistered = &Error{Kind: KindConflict, Message: "phone already registered"}
	// Returned for both unknown phone and wrong password; callers must not be able to tell them apart.
	ErrInvalidCredentials = &Error{Kind: KindAuthentication, Message: "invalid credentials"}
	ErrUserNotFound       = &Error{Kind: KindNotFound, Message: "user not found"}
)

// KindOf reports which class err belongs to. Anything that is not an *Error is internal.
func KindOf(err error) Kind {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr.Kind
	}
	return KindInternal
}
