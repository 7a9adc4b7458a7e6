package session

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/libraryclient/pkg/apiclient"
)

var (
	ErrLoginFailed          = errors.New("session.login_failed")
	ErrRegistrationFailed   = errors.New("session.registration_failed")
	ErrUpdateFailed         = errors.New("session.update_failed")
	ErrPasswordChangeFailed = errors.New("session.password_change_failed")
	ErrRefreshFailed        = errors.New("session.refresh_failed")

	// ErrNoSession is returned by operations that need a credential when there is none.
	ErrNoSession = errors.New("session.no_session")

	// ErrSuperseded marks a response discarded because a newer operation replaced the state it was issued for.
	ErrSuperseded = errors.New("session.superseded")

	// ErrMalformedResponse marks a 2xx response missing required fields.
	ErrMalformedResponse = errors.New("session.malformed_response")

	// ErrCredentialExpired marks a stored JWT credential whose exp claim has passed.
	ErrCredentialExpired = errors.New("session.credential_expired")
)

// Fallback messages used when the server supplies none.
const (
	MsgLoginFailed          = "Login failed"
	MsgRegistrationFailed   = "Registration failed"
	MsgUpdateFailed         = "Update failed"
	MsgPasswordChangeFailed = "Password change failed"
	MsgRefreshFailed        = "Session expired"
)

// Operation names carried by Error.
const (
	OpLogin          = "login"
	OpRegister       = "register"
	OpUpdateProfile  = "update_profile"
	OpChangePassword = "change_password"
	OpRefresh        = "refresh"
)

// Error is the failure result of a session operation.
type Error struct {
	Op      string
	Message string // user facing
	Err     error  // operation sentinel
	Cause   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// Detail renders the error with its cause, for logs.
func (e *Error) Detail() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Cause)
}

func newError(op string, sentinel error, fallback string, cause error) *Error {
	msg := apiclient.Message(cause)
	if msg == "" {
		msg = fallback
	}
	return &Error{Op: op, Message: msg, Err: sentinel, Cause: cause}
}

// ErrNoTransition reports an event that is not valid in the current phase.
type ErrNoTransition struct {
	From  Phase
	Event Event
}

func (e *ErrNoTransition) Error() string {
	return fmt.Sprintf("no transition from phase '%s' for event '%s'", e.From, e.Event)
}
