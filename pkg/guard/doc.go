// Package guard decides whether the current session may reach a route.
//
// Every route declares a Capability: None (public), Authenticated or Admin.
// Decide compares it with a Viewer, normally the *session.Manager:
//
//	d := guard.Decide(guard.Admin, mgr)
//	if !d.Allow {
//	    http.Redirect(w, r, d.Redirect, http.StatusFound)
//	}
//
// An anonymous viewer is sent to LoginPath; an authenticated viewer lacking
// the admin role is sent to HomePath. Routes lists the application's pages
// with their capabilities; Middleware enforces it for an http.Handler and
// Check returns ErrLoginRequired or ErrForbidden for command-line use.
package guard
