package library_test

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/libraryclient/pkg/apiclient"
	"github.com/dmitrymomot/libraryclient/pkg/apitest"
	"github.com/dmitrymomot/libraryclient/pkg/credential"
	"github.com/dmitrymomot/libraryclient/pkg/library"
	"github.com/dmitrymomot/libraryclient/pkg/session"
)

const (
	memberEmail = "member@example.com"
	adminEmail  = "admin@example.com"
	password    = "secret1"
)

type fixture struct {
	srv *apitest.Server
	mgr *session.Manager
	lib *library.Client
}

func setup(t *testing.T, email string, opts ...library.Option) fixture {
	t.Helper()
	srv := apitest.New(t)
	srv.AddUser("Member", memberEmail, password, apitest.RoleUser)
	srv.AddUser("Admin", adminEmail, password, apitest.RoleAdmin)

	api, err := apiclient.New(srv.URL, apiclient.WithTimeout(2*time.Second))
	require.NoError(t, err)
	mgr := session.New(context.Background(), api, credential.NewMemoryStore())
	if email != "" {
		require.NoError(t, mgr.Login(context.Background(), email, password))
	}
	return fixture{srv: srv, mgr: mgr, lib: library.New(mgr.Client(), opts...)}
}

func id(n int64) apiclient.ID { return apiclient.ID(strconv.FormatInt(n, 10)) }

func TestBooks(t *testing.T) {
	t.Parallel()
	f := setup(t, "")
	ctx := context.Background()

	b := f.srv.AddBook("Dune", "Frank Herbert", "Science Fiction")

	books, err := f.lib.Books(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)
	assert.True(t, books[0].Availability)
	assert.False(t, books[0].CreatedAt.IsZero())

	got, err := f.lib.Book(ctx, id(b.ID))
	require.NoError(t, err)
	assert.Equal(t, "Frank Herbert", got.Author)

	_, err = f.lib.Book(ctx, "999")
	assert.ErrorIs(t, err, apiclient.ErrNotFound)
	assert.Equal(t, "Book not found", apiclient.Message(err))

	_, err = f.lib.Book(ctx, "")
	assert.ErrorIs(t, err, library.ErrInvalidInput)
}

func TestBookAdministration(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("admin", func(t *testing.T) {
		t.Parallel()
		f := setup(t, adminEmail)

		created, err := f.lib.AddBook(ctx, library.BookInput{Title: "Emma", Author: "Jane Austen", Category: "Classic"})
		require.NoError(t, err)
		assert.True(t, created.Availability)

		unavailable := false
		updated, err := f.lib.UpdateBook(ctx, created.ID, library.BookInput{Category: "Romance", Availability: &unavailable})
		require.NoError(t, err)
		assert.Equal(t, "Emma", updated.Title)
		assert.Equal(t, "Romance", updated.Category)
		assert.False(t, updated.Availability)

		require.NoError(t, f.lib.DeleteBook(ctx, created.ID))
		_, err = f.lib.Book(ctx, created.ID)
		assert.ErrorIs(t, err, apiclient.ErrNotFound)

		_, err = f.lib.AddBook(ctx, library.BookInput{Title: "No author"})
		assert.ErrorIs(t, err, library.ErrInvalidInput)
	})

	t.Run("member is forbidden", func(t *testing.T) {
		t.Parallel()
		f := setup(t, memberEmail)
		_, err := f.lib.AddBook(ctx, library.BookInput{Title: "Emma", Author: "Jane Austen"})
		assert.ErrorIs(t, err, apiclient.ErrForbidden)
	})

	t.Run("anonymous is unauthorized", func(t *testing.T) {
		t.Parallel()
		f := setup(t, "")
		err := f.lib.DeleteBook(ctx, "1")
		assert.ErrorIs(t, err, apiclient.ErrUnauthorized)
	})
}

func TestLoans(t *testing.T) {
	t.Parallel()
	f := setup(t, memberEmail)
	ctx := context.Background()
	b := f.srv.AddBook("Dune", "Frank Herbert", "Science Fiction")

	loan, err := f.lib.IssueBook(ctx, id(b.ID))
	require.NoError(t, err)
	assert.False(t, loan.Returned())
	assert.Equal(t, "Dune", loan.Title())
	assert.WithinDuration(t, loan.IssueDate.Add(apitest.LoanPeriod), loan.DueDate.Time, time.Second)

	_, err = f.lib.IssueBook(ctx, id(b.ID))
	require.Error(t, err)
	assert.Equal(t, "Book is not available", apiclient.Message(err))
	assert.ErrorIs(t, err, apiclient.ErrValidation)

	loans, err := f.lib.MyLoans(ctx)
	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.Equal(t, loan.ID, loans[0].ID)

	returned, err := f.lib.ReturnBook(ctx, id(b.ID))
	require.NoError(t, err)
	assert.True(t, returned.Returned())

	book, err := f.lib.Book(ctx, id(b.ID))
	require.NoError(t, err)
	assert.True(t, book.Availability)
}

func TestLoan_Overdue(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	open := library.Loan{DueDate: apiclient.Time{Time: now.Add(-time.Hour)}}
	assert.True(t, open.Overdue(now))

	notYet := library.Loan{DueDate: apiclient.Time{Time: now.Add(time.Hour)}}
	assert.False(t, notYet.Overdue(now))

	returned := library.Loan{DueDate: open.DueDate, ReturnDate: apiclient.Time{Time: now}}
	assert.False(t, returned.Overdue(now))
}

func TestFinesAndPayments(t *testing.T) {
	t.Parallel()
	f := setup(t, memberEmail)
	ctx := context.Background()

	f.srv.AddFine(memberEmail, "2.50", apitest.FinePending)
	f.srv.AddFine(memberEmail, "1.00", apitest.FinePaid)

	fines, err := f.lib.MyFines(ctx)
	require.NoError(t, err)
	require.Len(t, fines, 1)
	assert.True(t, fines[0].Pending())

	total, err := library.TotalPending(fines)
	require.NoError(t, err)
	assert.Equal(t, "2.50", total.FloatString(2))

	paid, err := f.lib.PayFine(ctx, fines[0], "credit-card")
	require.NoError(t, err)
	assert.Equal(t, library.FinePaid, paid.Status)

	_, err = f.lib.PayFine(ctx, *paid, library.MethodCash)
	assert.ErrorIs(t, err, library.ErrFineAlreadyPaid)

	_, err = f.lib.Pay(ctx, library.PaymentRequest{FineID: fines[0].ID, Amount: "2.50", PaymentMethod: library.MethodCash})
	require.Error(t, err)
	assert.Equal(t, "Fine is already paid", apiclient.Message(err))

	remaining, err := f.lib.MyFines(ctx)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	_, err = f.lib.PayFine(ctx, library.Fine{ID: "1", Amount: "1", Status: library.FinePending}, "bitcoin")
	assert.ErrorIs(t, err, library.ErrUnsupportedMethod)
}

func TestParsePaymentMethod(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]string{
		"":              library.MethodCreditCard,
		"Credit Card":   library.MethodCreditCard,
		"debit_card":    library.MethodDebitCard,
		"CASH":          library.MethodCash,
		"bank-transfer": library.MethodBankTransfer,
	} {
		got, err := library.ParsePaymentMethod(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
}

func TestReports(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("admin downloads", func(t *testing.T) {
		t.Parallel()
		f := setup(t, adminEmail)
		for _, kind := range library.ReportKinds {
			r, err := f.lib.Report(ctx, kind)
			require.NoError(t, err)
			assert.Equal(t, kind.DefaultFilename(), r.Filename)
			assert.Equal(t, "application/pdf", r.ContentType)
			assert.True(t, len(r.Data) > 4 && string(r.Data[:4]) == "%PDF")
		}
	})

	t.Run("member forbidden", func(t *testing.T) {
		t.Parallel()
		f := setup(t, memberEmail)
		_, err := f.lib.Report(ctx, library.ReportOverdue)
		assert.ErrorIs(t, err, apiclient.ErrForbidden)
	})

	t.Run("unknown kind", func(t *testing.T) {
		t.Parallel()
		f := setup(t, adminEmail)
		_, err := f.lib.Report(ctx, "inventory")
		assert.ErrorIs(t, err, library.ErrUnknownReport)
		assert.Equal(t, 0, f.srv.Calls(http.MethodGet, "/api/reports/inventory"))
	})
}

func TestUserAdministration(t *testing.T) {
	t.Parallel()
	f := setup(t, adminEmail)
	ctx := context.Background()

	users, err := f.lib.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)

	member, _ := f.srv.User(memberEmail)
	u, err := f.lib.User(ctx, id(member.ID))
	require.NoError(t, err)
	assert.Equal(t, session.RoleUser, u.Role)

	require.NoError(t, f.lib.UpdateUserRole(ctx, u.ID, "admin"))
	u, err = f.lib.User(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, session.RoleAdmin, u.Role)

	assert.ErrorIs(t, f.lib.UpdateUserRole(ctx, u.ID, "owner"), library.ErrInvalidInput)

	require.NoError(t, f.lib.DeleteUser(ctx, u.ID))
	_, err = f.lib.User(ctx, u.ID)
	assert.ErrorIs(t, err, apiclient.ErrNotFound)
}
