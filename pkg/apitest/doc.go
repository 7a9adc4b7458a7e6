// Package apitest runs an in-memory library API for tests.
//
// The server implements the auth, profile, book, loan, fine, payment, report
// and admin endpoints with JSON shapes matching the real backend: numeric
// ids, zone-less date-times, decimal amounts and {"message": ...} error
// bodies. Tokens are HS256 JWTs carrying the user's email as subject.
//
//	srv := apitest.New(t)
//	srv.AddUser("Ada", "ada@example.com", "secret", apitest.RoleAdmin)
//	client, _ := apiclient.New(srv.URL)
//
// Hooks let tests shape timing and failures: Hold blocks matching requests
// until released, Fail forces a status and message, Calls counts requests.
package apitest
