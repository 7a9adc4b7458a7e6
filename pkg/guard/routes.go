package guard

import (
	"net/http"
	"strings"
)

// Route is a navigable page and the capability it requires.
type Route struct {
	Path       string
	Capability Capability
}

// Routes is the application's page table.
var Routes = []Route{
	{Path: "/", Capability: None},
	{Path: "/login", Capability: None},
	{Path: "/register", Capability: None},
	{Path: "/books", Capability: None},
	{Path: "/dashboard", Capability: Authenticated},
	{Path: "/profile", Capability: Authenticated},
	{Path: "/my-books", Capability: Authenticated},
	{Path: "/payments", Capability: Authenticated},
	{Path: "/admin", Capability: Admin},
	{Path: "/admin/users", Capability: Admin},
	{Path: "/admin/books", Capability: Admin},
	{Path: "/reports", Capability: Admin},
}

// Table maps paths to capabilities.
type Table map[string]Capability

// DefaultTable builds a Table from Routes.
func DefaultTable() Table {
	t := make(Table, len(Routes))
	for _, r := range Routes {
		t[r.Path] = r.Capability
	}
	return t
}

// Lookup returns the capability for path. Unknown paths under /admin require
// Admin; other unknown paths are public.
func (t Table) Lookup(path string) Capability {
	if path != "/" {
		path = strings.TrimRight(path, "/")
	}
	if c, ok := t[path]; ok {
		return c
	}
	if strings.HasPrefix(path, "/admin/") {
		return Admin
	}
	return None
}

// Middleware guards next with the table. The viewer func returns the session
// for the request.
func (t Table) Middleware(viewer func(*http.Request) Viewer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := Decide(t.Lookup(r.URL.Path), viewer(r))
			if !d.Allow {
				http.Redirect(w, r, d.Redirect, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Require guards a single handler with capability c.
func Require(c Capability, v Viewer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := Decide(c, v)
			if !d.Allow {
				http.Redirect(w, r, d.Redirect, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
