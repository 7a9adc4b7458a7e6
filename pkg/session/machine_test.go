package session_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/libraryclient/pkg/session"
)

func TestNext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from    session.Phase
		event   session.Event
		want    session.Phase
		wantErr bool
	}{
		{session.PhaseNoSession, session.EventLoginSucceeded, session.PhaseAuthenticated, false},
		{session.PhaseNoSession, session.EventCredentialFound, session.PhaseResolving, false},
		{session.PhaseNoSession, session.EventLoggedOut, session.PhaseNoSession, false},
		{session.PhaseNoSession, session.EventProfileResolved, session.PhaseNoSession, true},
		{session.PhaseNoSession, session.EventProfileUpdated, session.PhaseNoSession, true},
		{session.PhaseResolving, session.EventProfileResolved, session.PhaseAuthenticated, false},
		{session.PhaseResolving, session.EventProfileFailed, session.PhaseNoSession, false},
		{session.PhaseResolving, session.EventLoginSucceeded, session.PhaseAuthenticated, false},
		{session.PhaseResolving, session.EventLoggedOut, session.PhaseNoSession, false},
		{session.PhaseAuthenticated, session.EventLoggedOut, session.PhaseNoSession, false},
		{session.PhaseAuthenticated, session.EventProfileFailed, session.PhaseNoSession, false},
		{session.PhaseAuthenticated, session.EventProfileUpdated, session.PhaseAuthenticated, false},
		{session.PhaseAuthenticated, session.EventLoginSucceeded, session.PhaseAuthenticated, false},
		{session.PhaseAuthenticated, session.EventCredentialFound, session.PhaseResolving, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.event), func(t *testing.T) {
			t.Parallel()
			got, err := session.Next(tt.from, tt.event)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, !tt.wantErr, session.CanFire(tt.from, tt.event))
			if tt.wantErr {
				var noTransition *session.ErrNoTransition
				require.True(t, errors.As(err, &noTransition))
				assert.Equal(t, tt.from, noTransition.From)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestPhase_Resolution(t *testing.T) {
	t.Parallel()
	assert.Equal(t, session.ResolutionAbsent, session.PhaseNoSession.Resolution())
	assert.Equal(t, session.ResolutionPending, session.PhaseResolving.Resolution())
	assert.Equal(t, session.ResolutionResolved, session.PhaseAuthenticated.Resolution())
}

func TestIdentity_JSON(t *testing.T) {
	t.Parallel()

	var id session.Identity
	require.NoError(t, json.Unmarshal([]byte(`{"id":7,"name":"Ada","email":"ada@example.com","role":"admin","createdAt":"2025-01-02T03:04:05"}`), &id))
	assert.Equal(t, "7", id.ID.String())
	assert.Equal(t, session.RoleAdmin, id.Role)
	assert.True(t, id.IsAdmin())
	assert.Equal(t, 2025, id.CreatedAt.Year())

	require.NoError(t, json.Unmarshal([]byte(`{"id":"1","role":"ROLE_USER"}`), &id))
	assert.Equal(t, session.RoleUser, id.Role)
	assert.False(t, id.IsAdmin())
	assert.True(t, id.Role.Valid())
	assert.False(t, session.ParseRole("librarian").Valid())
}

func TestSnapshot(t *testing.T) {
	t.Parallel()

	empty := session.Snapshot{Phase: session.PhaseNoSession}
	assert.False(t, empty.IsAuthenticated())
	assert.False(t, empty.IsAdmin())
	assert.Equal(t, session.ResolutionAbsent, empty.ResolutionState())

	admin := session.Snapshot{
		Phase:         session.PhaseAuthenticated,
		Identity:      &session.Identity{ID: "1", Role: session.RoleAdmin},
		HasCredential: true,
	}
	assert.True(t, admin.IsAuthenticated())
	assert.True(t, admin.IsAdmin())
	assert.Equal(t, session.ResolutionResolved, admin.ResolutionState())
}
