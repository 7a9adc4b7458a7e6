package guard

import "errors"

var (
	// ErrLoginRequired means the route needs an authenticated session.
	ErrLoginRequired = errors.New("guard.login_required")
	// ErrForbidden means the route needs the admin role.
	ErrForbidden = errors.New("guard.forbidden")
	// ErrUnknownCapability is returned by ParseCapability.
	ErrUnknownCapability = errors.New("guard.unknown_capability")
)
