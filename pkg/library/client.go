package library

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrymomot/libraryclient/pkg/apiclient"
)

// Client calls the library endpoints.
type Client struct {
	api *apiclient.Client
	now func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithClock overrides the clock used to classify overdue loans.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// New wraps an authorized API client.
func New(api *apiclient.Client, opts ...Option) *Client {
	c := &Client{api: api, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func idPath(prefix string, id apiclient.ID, suffix ...string) string {
	p := prefix + "/" + url.PathEscape(id.String())
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}

// Books lists the catalogue.
func (c *Client) Books(ctx context.Context) ([]Book, error) {
	var out []Book
	if err := c.api.Get(ctx, "/api/books", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Book fetches one book by id.
func (c *Client) Book(ctx context.Context, id apiclient.ID) (*Book, error) {
	if id.IsZero() {
		return nil, errors.Join(ErrInvalidInput, errors.New("book id is required"))
	}
	var out Book
	if err := c.api.Get(ctx, idPath("/api/books", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddBook creates a book. Title and author are required.
func (c *Client) AddBook(ctx context.Context, in BookInput) (*Book, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Author) == "" {
		return nil, errors.Join(ErrInvalidInput, errors.New("title and author are required"))
	}
	var out Book
	if err := c.api.Post(ctx, "/api/books", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateBook changes the non-empty fields of in.
func (c *Client) UpdateBook(ctx context.Context, id apiclient.ID, in BookInput) (*Book, error) {
	if id.IsZero() {
		return nil, errors.Join(ErrInvalidInput, errors.New("book id is required"))
	}
	var out Book
	if err := c.api.Put(ctx, idPath("/api/books", id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteBook removes a book. Requires an admin session.
func (c *Client) DeleteBook(ctx context.Context, id apiclient.ID) error {
	if id.IsZero() {
		return errors.Join(ErrInvalidInput, errors.New("book id is required"))
	}
	return c.api.Delete(ctx, idPath("/api/books", id), nil)
}

// IssueBook borrows a book for the current user.
func (c *Client) IssueBook(ctx context.Context, id apiclient.ID) (*Loan, error) {
	if id.IsZero() {
		return nil, errors.Join(ErrInvalidInput, errors.New("book id is required"))
	}
	var out Loan
	if err := c.api.Post(ctx, idPath("/api/books", id, "issue"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReturnBook returns a borrowed book.
func (c *Client) ReturnBook(ctx context.Context, id apiclient.ID) (*Loan, error) {
	if id.IsZero() {
		return nil, errors.Join(ErrInvalidInput, errors.New("book id is required"))
	}
	var out Loan
	if err := c.api.Post(ctx, idPath("/api/books", id, "return"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MyLoans lists the current user's issue records.
func (c *Client) MyLoans(ctx context.Context) ([]Loan, error) {
	var out []Loan
	if err := c.api.Get(ctx, "/api/users/issues", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MyFines lists the current user's fines.
func (c *Client) MyFines(ctx context.Context) ([]Fine, error) {
	var out []Fine
	if err := c.api.Get(ctx, "/api/payments/fines", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PayFine pays a fine in full with method.
func (c *Client) PayFine(ctx context.Context, fine Fine, method string) (*Fine, error) {
	if fine.Status == FinePaid {
		return nil, ErrFineAlreadyPaid
	}
	if _, err := fine.AmountRat(); err != nil {
		return nil, err
	}
	m, err := ParsePaymentMethod(method)
	if err != nil {
		return nil, err
	}
	return c.Pay(ctx, PaymentRequest{FineID: fine.ID, Amount: fine.Amount, PaymentMethod: m})
}

// Pay submits a payment request as given.
func (c *Client) Pay(ctx context.Context, req PaymentRequest) (*Fine, error) {
	if req.FineID.IsZero() {
		return nil, errors.Join(ErrInvalidInput, errors.New("fine id is required"))
	}
	var out Fine
	if err := c.api.Post(ctx, "/api/payments/pay", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Report downloads a PDF report.
func (c *Client) Report(ctx context.Context, kind ReportKind) (*Report, error) {
	if _, err := ParseReportKind(string(kind)); err != nil {
		return nil, err
	}
	p, err := c.api.Download(ctx, "/api/reports/"+string(kind))
	if err != nil {
		return nil, err
	}
	name := p.Filename
	if name == "" {
		name = kind.DefaultFilename()
	}
	return &Report{Kind: kind, Filename: name, ContentType: p.ContentType, Data: p.Data}, nil
}

// Users lists all accounts.
func (c *Client) Users(ctx context.Context) ([]User, error) {
	var out []User
	if err := c.api.Get(ctx, "/api/admin/users", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// User fetches one account by id. Requires an admin session.
func (c *Client) User(ctx context.Context, id apiclient.ID) (*User, error) {
	if id.IsZero() {
		return nil, errors.Join(ErrInvalidInput, errors.New("user id is required"))
	}
	var out User
	if err := c.api.Get(ctx, idPath("/api/admin/users", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateUserRole sets the role of a user.
func (c *Client) UpdateUserRole(ctx context.Context, id apiclient.ID, role string) error {
	if id.IsZero() {
		return errors.Join(ErrInvalidInput, errors.New("user id is required"))
	}
	r := strings.ToUpper(strings.TrimSpace(role))
	if r != "USER" && r != "ADMIN" {
		return errors.Join(ErrInvalidInput, errors.New("role must be USER or ADMIN"))
	}
	return c.api.Put(ctx, idPath("/api/admin/users", id, "role"), map[string]string{"role": r}, nil)
}

// DeleteUser removes an account. Requires an admin session.
func (c *Client) DeleteUser(ctx context.Context, id apiclient.ID) error {
	if id.IsZero() {
		return errors.Join(ErrInvalidInput, errors.New("user id is required"))
	}
	return c.api.Delete(ctx, idPath("/api/admin/users", id), nil)
}
