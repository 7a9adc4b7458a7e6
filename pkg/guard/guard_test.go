package guard_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/libraryclient/pkg/guard"
)

type viewer struct{ auth, admin bool }

func (v viewer) IsAuthenticated() bool { return v.auth }
func (v viewer) IsAdmin() bool         { return v.auth && v.admin }

// pointerViewer dereferences its receiver, like a *session.Manager.
type pointerViewer struct{ auth bool }

func (v *pointerViewer) IsAuthenticated() bool { return v.auth }
func (v *pointerViewer) IsAdmin() bool         { return false }

var (
	anonymous = viewer{}
	member    = viewer{auth: true}
	admin     = viewer{auth: true, admin: true}
)

func TestDecide(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cap      guard.Capability
		viewer   guard.Viewer
		allow    bool
		redirect string
		err      error
	}{
		{"public anonymous", guard.None, anonymous, true, "", nil},
		{"public nil viewer", guard.None, nil, true, "", nil},
		{"auth anonymous", guard.Authenticated, anonymous, false, guard.LoginPath, guard.ErrLoginRequired},
		{"auth nil viewer", guard.Authenticated, nil, false, guard.LoginPath, guard.ErrLoginRequired},
		{"auth member", guard.Authenticated, member, true, "", nil},
		{"auth admin", guard.Authenticated, admin, true, "", nil},
		{"admin anonymous", guard.Admin, anonymous, false, guard.LoginPath, guard.ErrLoginRequired},
		{"admin member", guard.Admin, member, false, guard.HomePath, guard.ErrForbidden},
		{"admin admin", guard.Admin, admin, true, "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := guard.Decide(tt.cap, tt.viewer)
			assert.Equal(t, tt.allow, d.Allow)
			assert.Equal(t, tt.redirect, d.Redirect)
			if tt.err == nil {
				assert.NoError(t, guard.Check(tt.cap, tt.viewer))
				return
			}
			assert.ErrorIs(t, guard.Check(tt.cap, tt.viewer), tt.err)
		})
	}
}

func TestDecide_NilPointerViewer(t *testing.T) {
	t.Parallel()

	var v *pointerViewer
	for _, c := range []guard.Capability{guard.None, guard.Authenticated, guard.Admin} {
		require.NotPanics(t, func() { guard.Decide(c, v) }, c.String())
	}
	assert.True(t, guard.Decide(guard.None, v).Allow)
	assert.ErrorIs(t, guard.Check(guard.Authenticated, v), guard.ErrLoginRequired)
	assert.ErrorIs(t, guard.Check(guard.Admin, v), guard.ErrLoginRequired)
	assert.NoError(t, guard.Check(guard.Authenticated, &pointerViewer{auth: true}))
}

func TestParseCapability(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]guard.Capability{
		"":              guard.None,
		"public":        guard.None,
		"Authenticated": guard.Authenticated,
		"admin":         guard.Admin,
	} {
		got, err := guard.ParseCapability(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.NotEmpty(t, got.String())
	}

	_, err := guard.ParseCapability("root")
	assert.ErrorIs(t, err, guard.ErrUnknownCapability)
}

func TestTable_Lookup(t *testing.T) {
	t.Parallel()
	table := guard.DefaultTable()

	assert.Equal(t, guard.None, table.Lookup("/"))
	assert.Equal(t, guard.None, table.Lookup("/books"))
	assert.Equal(t, guard.Authenticated, table.Lookup("/my-books"))
	assert.Equal(t, guard.Authenticated, table.Lookup("/payments/"))
	assert.Equal(t, guard.Admin, table.Lookup("/reports"))
	assert.Equal(t, guard.Admin, table.Lookup("/admin/settings"))
	assert.Equal(t, guard.None, table.Lookup("/about"))
	assert.Len(t, guard.Routes, 12)
}

func TestTable_Middleware(t *testing.T) {
	t.Parallel()

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	tests := []struct {
		path     string
		viewer   guard.Viewer
		status   int
		location string
	}{
		{"/books", anonymous, http.StatusNoContent, ""},
		{"/dashboard", anonymous, http.StatusFound, guard.LoginPath},
		{"/dashboard", member, http.StatusNoContent, ""},
		{"/admin/users", member, http.StatusFound, guard.HomePath},
		{"/admin/users", anonymous, http.StatusFound, guard.LoginPath},
		{"/reports", admin, http.StatusNoContent, ""},
	}
	for _, tt := range tests {
		h := guard.DefaultTable().Middleware(func(*http.Request) guard.Viewer { return tt.viewer })(ok)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		assert.Equal(t, tt.status, rec.Code, tt.path)
		assert.Equal(t, tt.location, rec.Header().Get("Location"), tt.path)
	}

	rec := httptest.NewRecorder()
	guard.Require(guard.Admin, member)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, guard.HomePath, rec.Header().Get("Location"))
}
