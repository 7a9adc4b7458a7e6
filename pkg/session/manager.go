package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/libraryclient/pkg/apiclient"
	"github.com/dmitrymomot/libraryclient/pkg/credential"
	"github.com/dmitrymomot/libraryclient/pkg/logger"
)

// API paths used by the Manager.
const (
	PathLogin    = "/api/auth/login"
	PathRegister = "/api/auth/register"
	PathProfile  = "/api/users/profile"
	PathPassword = "/api/users/password"
)

// Manager holds the session state. It is safe for concurrent use.
type Manager struct {
	mu         sync.RWMutex
	credential string
	identity   *Identity
	phase      Phase
	resolution *Resolution

	// gen changes whenever the credential changes; in-flight resolutions and
	// profile updates apply only if it still matches the value they started with.
	gen uint64
	// opSeq numbers user intents (login, logout, external replacement);
	// appliedSeq is the latest one applied. A login applies only if no later
	// intent has been applied.
	opSeq      uint64
	appliedSeq uint64

	// persistMu orders store writes after the state lock is released.
	persistMu sync.Mutex

	base      *apiclient.Client
	client    *apiclient.Client
	store     credential.Store
	logger    *slog.Logger
	observers []func(Snapshot)
	now       func() time.Time
}

// New creates the Manager, loads the persisted credential from store and, if
// one is found, starts resolving the identity in the background. api must not
// carry an authorization decorator; the Manager adds its own.
func New(ctx context.Context, api *apiclient.Client, store credential.Store, opts ...Option) *Manager {
	if store == nil {
		store = credential.NewMemoryStore()
	}
	m := &Manager{
		phase:  PhaseNoSession,
		base:   api,
		store:  store,
		logger: logger.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(logger.Component("session"))
	m.client = api.With(apiclient.BearerToken(m.Credential))

	token, err := store.Load(ctx)
	if err != nil && !errors.Is(err, credential.ErrNotFound) {
		m.logger.WarnContext(ctx, "stored credential unreadable, starting without session", logger.Error(err))
	}

	if token == "" {
		m.resolution = settledResolution(m.Snapshot())
		return m
	}

	m.mu.Lock()
	m.credential = token
	m.gen++
	m.transitionLocked(ctx, EventCredentialFound)
	gen := m.gen
	m.resolution = newResolution()
	r := m.resolution
	m.mu.Unlock()

	go m.runResolution(context.WithoutCancel(ctx), r, gen, token)
	return m
}

// Client returns the API client that carries the current credential.
func (m *Manager) Client() *apiclient.Client { return m.client }

// IsAuthenticated reports whether an identity is present.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.identity != nil
}

// IsAdmin reports whether the identity has the ADMIN role.
func (m *Manager) IsAdmin() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.identity != nil && m.identity.IsAdmin()
}

// User returns a copy of the current identity.
func (m *Manager) User() (Identity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.identity == nil {
		return Identity{}, false
	}
	return *m.identity, true
}

// Credential returns the current bearer token, or "".
func (m *Manager) Credential() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.credential
}

// Phase returns the current session phase.
func (m *Manager) Phase() Phase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.phase
}

// ResolutionState returns the resolution state derived from the phase.
func (m *Manager) ResolutionState() ResolutionState {
	return m.Phase().Resolution()
}

// Snapshot returns phase, identity and credential presence read together.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

// Resolution returns the most recently started resolution.
func (m *Manager) Resolution() *Resolution {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.resolution
}

// Wait blocks until the current resolution settles and returns the state.
func (m *Manager) Wait(ctx context.Context) (Snapshot, error) {
	if _, err := m.Resolution().Await(ctx); err != nil {
		return Snapshot{}, err
	}
	return m.Snapshot(), nil
}

func (m *Manager) snapshotLocked() Snapshot {
	s := Snapshot{Phase: m.phase, HasCredential: m.credential != ""}
	if m.identity != nil {
		id := *m.identity
		s.Identity = &id
	}
	return s
}

// transitionLocked applies ev to the phase. Caller holds m.mu.
func (m *Manager) transitionLocked(ctx context.Context, ev Event) bool {
	to, err := Next(m.phase, ev)
	if err != nil {
		m.logger.DebugContext(ctx, "session transition rejected", logger.Event(string(ev)), logger.Phase(m.phase), logger.Error(err))
		return false
	}
	m.logger.DebugContext(ctx, "session transition", logger.Event(string(ev)), logger.Transition(m.phase, to))
	m.phase = to
	return true
}

// clearLocked drops credential and identity. Caller holds m.mu.
func (m *Manager) clearLocked(ctx context.Context, ev Event) {
	m.credential = ""
	m.identity = nil
	m.gen++
	m.transitionLocked(ctx, ev)
}

// commitUnlock releases m.mu and then runs persist and the observers. Store
// writes happen in the order their transitions were applied.
func (m *Manager) commitUnlock(ctx context.Context, persist func(context.Context) error) Snapshot {
	snap := m.snapshotLocked()
	m.persistMu.Lock()
	m.mu.Unlock()

	if persist != nil {
		if err := persist(context.WithoutCancel(ctx)); err != nil {
			m.logger.WarnContext(ctx, "credential store update failed", logger.Error(err))
		}
	}
	m.persistMu.Unlock()

	for _, fn := range m.observers {
		fn(snap)
	}
	return snap
}

func (m *Manager) saveCredential(token string) func(context.Context) error {
	return func(ctx context.Context) error { return m.store.Save(ctx, token) }
}

func (m *Manager) clearCredential(ctx context.Context) error {
	return m.store.Clear(ctx)
}
