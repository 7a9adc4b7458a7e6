// Package apiclient is the JSON-over-HTTP client shared by every component
// that talks to the library REST API.
//
// A Client owns the base URL, the underlying *http.Client, a per-request
// timeout and an ordered list of request decorators. Decorators are explicit:
// authorization is attached by a BearerToken decorator whose token source is
// read on every request, so clearing the source removes the header from all
// subsequent calls.
//
//	base, err := apiclient.New("http://localhost:8080",
//	    apiclient.WithTimeout(15*time.Second),
//	    apiclient.WithLogger(log),
//	)
//	authed := base.With(apiclient.BearerToken(func() string { return mgr.Credential() }))
//
//	var books []library.Book
//	err = authed.Get(ctx, "/api/books", &books)
//
// Every request carries an X-Request-ID header, taken from the context
// (WithRequestID) or generated as a UUIDv4.
//
// # Errors
//
// Non-2xx responses and transport failures are returned as *Error, which
// unwraps to one of the sentinel errors ErrTransport, ErrUnauthorized,
// ErrForbidden, ErrNotFound, ErrValidation or ErrServer. Message extracts the
// server supplied "message" field when there is one.
package apiclient
