package apitest_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/libraryclient/pkg/apitest"
)

func do(t *testing.T, srv *apitest.Server, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestServer_Auth(t *testing.T) {
	t.Parallel()
	srv := apitest.New(t)
	srv.AddUser("Ada", "ada@example.com", "secret1", apitest.RoleUser)

	resp := do(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ada@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ada@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login struct {
		Token string         `json:"token"`
		User  map[string]any `json:"user"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, "USER", login.User["role"])
	assert.NotContains(t, login.User, "password")

	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/api/users/profile", login.Token, nil).StatusCode)
	assert.Equal(t, http.StatusForbidden, do(t, srv, http.MethodGet, "/api/admin/users", login.Token, nil).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, do(t, srv, http.MethodGet, "/api/users/profile", "", nil).StatusCode)

	expired := srv.IssueToken("ada@example.com", -time.Minute)
	assert.Equal(t, http.StatusUnauthorized, do(t, srv, http.MethodGet, "/api/users/profile", expired, nil).StatusCode)

	srv.Revoke(login.Token)
	assert.Equal(t, http.StatusUnauthorized, do(t, srv, http.MethodGet, "/api/users/profile", login.Token, nil).StatusCode)
}

func TestServer_Hooks(t *testing.T) {
	t.Parallel()
	srv := apitest.New(t)

	srv.FailOnce(http.MethodGet, "/api/books", http.StatusServiceUnavailable, "maintenance")
	resp := do(t, srv, http.MethodGet, "/api/books", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	var msg map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&msg))
	assert.Equal(t, "maintenance", msg["message"])

	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/api/books", "", nil).StatusCode)
	assert.Equal(t, 2, srv.Calls(http.MethodGet, "/api/books"))

	release := srv.Hold(http.MethodGet, "/api/books")
	arrived := srv.Arrived(http.MethodGet, "/api/books")
	done := make(chan int, 1)
	go func() {
		req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/books", nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			done <- 0
			return
		}
		_ = resp.Body.Close()
		done <- resp.StatusCode
	}()

	select {
	case <-arrived:
	case <-time.After(2 * time.Second):
		t.Fatal("request never arrived")
	}
	select {
	case <-done:
		t.Fatal("held request completed early")
	case <-time.After(50 * time.Millisecond):
	}
	release()
	select {
	case code := <-done:
		assert.Equal(t, http.StatusOK, code)
	case <-time.After(2 * time.Second):
		t.Fatal("request not released")
	}
}
