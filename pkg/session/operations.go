package session

import (
	"context"

	"github.com/dmitrymomot/libraryclient/pkg/apiclient"
	"github.com/dmitrymomot/libraryclient/pkg/credential"
	"github.com/dmitrymomot/libraryclient/pkg/logger"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string    `json:"token"`
	User  *Identity `json:"user"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type profileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Login authenticates with email and password. On success the credential is
// persisted and the session becomes authenticated. On failure the state is
// left untouched. When logins overlap, the one started last wins; an earlier
// one that completes later returns an error wrapping ErrSuperseded.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	m.mu.Lock()
	m.opSeq++
	seq := m.opSeq
	m.mu.Unlock()

	var resp loginResponse
	if err := m.base.Post(ctx, PathLogin, loginRequest{Email: email, Password: password}, &resp); err != nil {
		m.logger.InfoContext(ctx, "login failed", logger.Email(email), logger.Error(err))
		return newError(OpLogin, ErrLoginFailed, MsgLoginFailed, err)
	}
	if resp.Token == "" || resp.User == nil || !resp.User.valid() {
		m.logger.InfoContext(ctx, "login response incomplete", logger.Email(email))
		return newError(OpLogin, ErrLoginFailed, MsgLoginFailed, ErrMalformedResponse)
	}

	m.mu.Lock()
	if seq <= m.appliedSeq {
		m.mu.Unlock()
		m.logger.DebugContext(ctx, "discarding superseded login", logger.Email(email))
		return newError(OpLogin, ErrLoginFailed, MsgLoginFailed, ErrSuperseded)
	}
	m.appliedSeq = seq
	m.gen++
	m.credential = resp.Token
	id := *resp.User
	m.identity = &id
	m.transitionLocked(ctx, EventLoginSucceeded)
	m.commitUnlock(ctx, m.saveCredential(resp.Token))

	m.logger.InfoContext(ctx, "logged in", logger.UserID(id.ID), logger.Role(id.Role))
	return nil
}

// Register creates an account. It never changes the session.
func (m *Manager) Register(ctx context.Context, name, email, password string) error {
	req := registerRequest{Name: name, Email: email, Password: password}
	if err := m.base.Post(ctx, PathRegister, req, nil); err != nil {
		m.logger.InfoContext(ctx, "registration failed", logger.Email(email), logger.Error(err))
		return newError(OpRegister, ErrRegistrationFailed, MsgRegistrationFailed, err)
	}
	m.logger.InfoContext(ctx, "registered", logger.Email(email))
	return nil
}

// Logout clears the credential, the identity and the persisted credential.
// It never contacts the server and never fails; store errors are logged.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	m.opSeq++
	m.appliedSeq = m.opSeq
	m.clearLocked(ctx, EventLoggedOut)
	m.commitUnlock(ctx, m.clearCredential)
	m.logger.InfoContext(ctx, "logged out")
}

// UpdateProfile sends new name and email. On success the identity is replaced
// with the server's response. Without a session the request is still sent and
// the server's rejection is returned.
func (m *Manager) UpdateProfile(ctx context.Context, name, email string) error {
	m.mu.RLock()
	gen := m.gen
	m.mu.RUnlock()

	var updated Identity
	if err := m.client.Put(ctx, PathProfile, profileRequest{Name: name, Email: email}, &updated); err != nil {
		m.logger.InfoContext(ctx, "profile update failed", logger.Error(err))
		return newError(OpUpdateProfile, ErrUpdateFailed, MsgUpdateFailed, err)
	}
	if !updated.valid() {
		return newError(OpUpdateProfile, ErrUpdateFailed, MsgUpdateFailed, ErrMalformedResponse)
	}

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		m.logger.DebugContext(ctx, "discarding stale profile update")
		return newError(OpUpdateProfile, ErrUpdateFailed, MsgUpdateFailed, ErrSuperseded)
	}
	if m.credential == "" {
		// identity never exists without a credential
		m.mu.Unlock()
		return newError(OpUpdateProfile, ErrUpdateFailed, MsgUpdateFailed, ErrNoSession)
	}
	m.identity = &updated
	m.transitionLocked(ctx, EventProfileUpdated)
	m.commitUnlock(ctx, nil)

	m.logger.InfoContext(ctx, "profile updated", logger.UserID(updated.ID))
	return nil
}

// ChangePassword rotates the password. It never changes the session; without
// one the server rejects the request.
func (m *Manager) ChangePassword(ctx context.Context, current, next string) error {
	req := passwordRequest{CurrentPassword: current, NewPassword: next}
	if err := m.client.Put(ctx, PathPassword, req, nil); err != nil {
		m.logger.InfoContext(ctx, "password change failed", logger.Error(err))
		return newError(OpChangePassword, ErrPasswordChangeFailed, MsgPasswordChangeFailed, err)
	}
	m.logger.InfoContext(ctx, "password changed")
	return nil
}

// Refresh re-resolves the identity with the current credential. A failure
// ends the session.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.RLock()
	gen, token := m.gen, m.credential
	m.mu.RUnlock()
	if token == "" {
		return newError(OpRefresh, ErrRefreshFailed, MsgRefreshFailed, ErrNoSession)
	}

	if _, err := m.resolve(ctx, gen, token); err != nil {
		return newError(OpRefresh, ErrRefreshFailed, MsgRefreshFailed, err)
	}
	return nil
}

func (m *Manager) runResolution(ctx context.Context, r *Resolution, gen uint64, token string) {
	snap, err := m.resolve(ctx, gen, token)
	if err != nil {
		m.logger.DebugContext(ctx, "session resolution failed", logger.Error(err))
	}
	r.complete(snap)
}

// resolve fetches the profile for token and applies the result if the
// credential generation is still gen. Failure clears the session.
func (m *Manager) resolve(ctx context.Context, gen uint64, token string) (Snapshot, error) {
	var (
		id  Identity
		err error
	)
	if credential.Expired(token, m.now()) {
		err = ErrCredentialExpired
	} else {
		err = m.base.With(apiclient.StaticBearer(token)).Get(ctx, PathProfile, &id)
		if err == nil && !id.valid() {
			err = ErrMalformedResponse
		}
	}

	m.mu.Lock()
	if m.gen != gen {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		m.logger.DebugContext(ctx, "discarding stale profile resolution")
		return snap, ErrSuperseded
	}

	if err != nil {
		m.clearLocked(ctx, EventProfileFailed)
		return m.commitUnlock(ctx, m.clearCredential), err
	}

	m.identity = &id
	m.transitionLocked(ctx, EventProfileResolved)
	snap := m.commitUnlock(ctx, nil)
	m.logger.DebugContext(ctx, "session resolved", logger.UserID(id.ID), logger.Role(id.Role))
	return snap, nil
}
