package session

import (
	"context"

	"github.com/dmitrymomot/libraryclient/pkg/credential"
)

// Follow keeps the Manager in step with credential changes made outside this
// process (another CLI invocation logging in or out). A removed credential
// logs out; a different one is adopted and resolved.
func (m *Manager) Follow(ctx context.Context, w credential.Watcher) error {
	return w.Watch(ctx, func(token string) { m.adopt(ctx, token) })
}

func (m *Manager) adopt(ctx context.Context, token string) {
	m.mu.Lock()
	if token == m.credential {
		m.mu.Unlock()
		return
	}
	m.opSeq++
	m.appliedSeq = m.opSeq

	if token == "" {
		m.clearLocked(ctx, EventLoggedOut)
		m.commitUnlock(ctx, nil)
		m.logger.InfoContext(ctx, "credential removed externally, logged out")
		return
	}

	m.credential = token
	m.identity = nil
	m.gen++
	m.transitionLocked(ctx, EventCredentialFound)
	gen := m.gen
	r := newResolution()
	m.resolution = r
	m.commitUnlock(ctx, nil)

	m.logger.InfoContext(ctx, "credential replaced externally, resolving")
	go m.runResolution(context.WithoutCancel(ctx), r, gen, token)
}
