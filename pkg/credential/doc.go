// Package credential persists the session's bearer credential between process
// runs.
//
// A Store holds exactly one opaque token. Load returns ErrNotFound when nothing
// is stored; presence of a token says nothing about its validity, which only
// the server can decide.
//
// Three stores are provided:
//
//   - MemoryStore keeps the token in process memory (tests, one-shot runs).
//   - FileStore writes a small JSON document with mode 0600, optionally sealed
//     with pkg/secrets. It can Watch the file so that a logout or login in
//     another process is noticed.
//   - RedisStore keeps the token under a single key in Redis, expiring it
//     together with the token when the token is a JWT.
//
// Expiry and Expired read the "exp" claim of JWT credentials without
// verifying the signature. They are a local hint only.
package credential
