// Package session owns the client-side authentication state of the library
// application: the persisted bearer credential and the identity of the user it
// belongs to.
//
// One Manager is created at startup and shared by every consumer. It loads the
// stored credential and, when one exists, resolves the identity from the
// server in the background. Consumers read the derived flags
//
//	mgr.IsAuthenticated() // identity present
//	mgr.IsAdmin()         // identity present with role ADMIN
//
// and drive state changes only through Login, Register, Logout, UpdateProfile,
// ChangePassword and Refresh.
//
// # Phases
//
// The Manager moves between three phases:
//
//	no_session     no credential, no identity (resolution absent)
//	resolving      credential present, identity being fetched (resolution pending)
//	authenticated  credential and identity present (resolution resolved)
//
// Every transition is checked against a fixed table and applied under one
// lock, so credential and identity are never observed half updated. Responses
// that arrive after the state they were issued for has been replaced (a logout
// during a pending resolution, an older of two overlapping logins) are
// discarded.
//
// # Errors
//
// Operations return *Error. Its Error method yields the message meant for the
// user: the server's "message" field when present, otherwise a fixed fallback
// such as "Login failed". It unwraps to an operation sentinel (ErrLoginFailed,
// ErrUpdateFailed, ...) and to the underlying apiclient error, so callers can
// still test for apiclient.ErrUnauthorized and friends.
//
// Startup resolution never surfaces errors; any failure ends in no_session.
// Wait blocks until the current resolution settles.
package session
