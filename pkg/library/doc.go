// Package library is the typed client for the library API beyond
// authentication: the catalogue, loans, fines and payments, PDF reports and
// user administration.
//
// It is built on the session's authorized client, so every call carries the
// current credential:
//
//	lib := library.New(mgr.Client())
//	books, err := lib.Books(ctx)
//	loan, err := lib.IssueBook(ctx, books[0].ID)
//
// UserDashboard and AdminDashboard fetch their inputs concurrently and derive
// the counters shown on the dashboards. Filter and Categories mirror the
// catalogue's search box and category list.
//
// Errors come straight from pkg/apiclient; use apiclient.Message to show the
// server's explanation.
package library
