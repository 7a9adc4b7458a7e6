package library_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/libraryclient/pkg/apiclient"
	"github.com/dmitrymomot/libraryclient/pkg/apitest"
	"github.com/dmitrymomot/libraryclient/pkg/library"
)

func TestUserDashboard(t *testing.T) {
	t.Parallel()
	f := setup(t, memberEmail)
	ctx := context.Background()
	now := time.Now()

	b1 := f.srv.AddBook("A", "a", "x")
	b2 := f.srv.AddBook("B", "b", "x")
	b3 := f.srv.AddBook("C", "c", "y")
	f.srv.AddIssue(memberEmail, b1.ID, now.Add(-20*24*time.Hour), now.Add(-6*24*time.Hour), false)
	f.srv.AddIssue(memberEmail, b2.ID, now.Add(-time.Hour), now.Add(13*24*time.Hour), false)
	f.srv.AddIssue(memberEmail, b3.ID, now.Add(-30*24*time.Hour), now.Add(-16*24*time.Hour), true)
	f.srv.AddFine(memberEmail, "3.00", apitest.FinePending)

	stats, err := f.lib.UserDashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.IssuedBooks)
	assert.Equal(t, 1, stats.OverdueBooks)
	assert.Equal(t, 1, stats.PendingFines)
	assert.Len(t, stats.Recent, 3)
}

func TestUserDashboard_RecentIsCapped(t *testing.T) {
	t.Parallel()
	f := setup(t, memberEmail)
	now := time.Now()
	for range 7 {
		b := f.srv.AddBook("T", "A", "C")
		f.srv.AddIssue(memberEmail, b.ID, now, now.Add(time.Hour), true)
	}
	stats, err := f.lib.UserDashboard(context.Background())
	require.NoError(t, err)
	assert.Len(t, stats.Recent, library.RecentLoans)
	assert.Zero(t, stats.IssuedBooks)
}

func TestUserDashboard_PartialFailure(t *testing.T) {
	t.Parallel()
	f := setup(t, memberEmail)
	f.srv.Fail(http.MethodGet, "/api/payments/fines", http.StatusInternalServerError, "fines unavailable")

	_, err := f.lib.UserDashboard(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apiclient.ErrServer)
	assert.Equal(t, "fines unavailable", apiclient.Message(err))
}

func TestAdminDashboard(t *testing.T) {
	t.Parallel()
	f := setup(t, adminEmail)
	ctx := context.Background()

	b := f.srv.AddBook("A", "a", "x")
	f.srv.AddBook("B", "b", "x")
	f.srv.AddIssue(memberEmail, b.ID, time.Now(), time.Now().Add(time.Hour), false)

	stats, err := f.lib.AdminDashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalUsers)
	assert.Equal(t, 2, stats.TotalBooks)
	assert.Equal(t, 1, stats.IssuedBooks)

	member := setup(t, memberEmail)
	_, err = member.lib.AdminDashboard(ctx)
	assert.ErrorIs(t, err, apiclient.ErrForbidden)
}
