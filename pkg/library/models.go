package library

import (
	"encoding/json"
	"math/big"
	"strings"
	"time"

	"github.com/dmitrymomot/libraryclient/pkg/apiclient"
	"github.com/dmitrymomot/libraryclient/pkg/session"
)

// User is an account as listed by the admin endpoints.
type User = session.Identity

type Book struct {
	ID           apiclient.ID   `json:"id"`
	Title        string         `json:"title"`
	Author       string         `json:"author"`
	Category     string         `json:"category"`
	Availability bool           `json:"availability"`
	CreatedAt    apiclient.Time `json:"createdAt"`
}

// BookInput is the body for creating or updating a book.
type BookInput struct {
	Title        string `json:"title,omitempty"`
	Author       string `json:"author,omitempty"`
	Category     string `json:"category,omitempty"`
	Availability *bool  `json:"availability,omitempty"`
}

// Loan is an issue record: one book lent to one user.
type Loan struct {
	ID         apiclient.ID   `json:"id"`
	BookID     apiclient.ID   `json:"bookId"`
	IssueDate  apiclient.Time `json:"issueDate"`
	DueDate    apiclient.Time `json:"dueDate"`
	ReturnDate apiclient.Time `json:"returnDate"`
	Book       *Book          `json:"book,omitempty"`
}

// Returned reports whether the book came back.
func (l Loan) Returned() bool { return !l.ReturnDate.IsZero() }

// Overdue reports whether the loan is open past its due date at now.
func (l Loan) Overdue(now time.Time) bool {
	return !l.Returned() && !l.DueDate.IsZero() && l.DueDate.Before(now)
}

// Title returns the book title when the server embedded the book.
func (l Loan) Title() string {
	if l.Book == nil {
		return ""
	}
	return l.Book.Title
}

type FineStatus string

const (
	FinePending FineStatus = "PENDING"
	FinePaid    FineStatus = "PAID"
)

type Fine struct {
	ID            apiclient.ID   `json:"id"`
	IssueRecordID apiclient.ID   `json:"issueRecordId"`
	Amount        json.Number    `json:"amount"`
	Status        FineStatus     `json:"status"`
	CreatedAt     apiclient.Time `json:"createdAt"`
}

// Pending reports whether the fine is unpaid.
func (f Fine) Pending() bool { return f.Status == FinePending }

// AmountRat parses the decimal amount exactly.
func (f Fine) AmountRat() (*big.Rat, error) {
	v, ok := new(big.Rat).SetString(f.Amount.String())
	if !ok {
		return nil, ErrInvalidAmount
	}
	return v, nil
}

// Payment methods offered by the payments page.
const (
	MethodCreditCard   = "Credit Card"
	MethodDebitCard    = "Debit Card"
	MethodCash         = "Cash"
	MethodBankTransfer = "Bank Transfer"
)

// PaymentMethods lists the accepted payment methods.
var PaymentMethods = []string{MethodCreditCard, MethodDebitCard, MethodCash, MethodBankTransfer}

// ParsePaymentMethod matches s case-insensitively against PaymentMethods,
// ignoring spaces, dashes and underscores ("credit-card" → "Credit Card").
func ParsePaymentMethod(s string) (string, error) {
	norm := func(v string) string {
		return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(v))
	}
	want := norm(s)
	if want == "" {
		return MethodCreditCard, nil
	}
	for _, m := range PaymentMethods {
		if norm(m) == want {
			return m, nil
		}
	}
	return "", ErrUnsupportedMethod
}

// PaymentRequest is the body of a fine payment.
type PaymentRequest struct {
	FineID        apiclient.ID `json:"fineId"`
	Amount        json.Number  `json:"amount"`
	PaymentMethod string       `json:"paymentMethod"`
}

// ReportKind names a server generated report.
type ReportKind string

const (
	ReportIssuance ReportKind = "issuance"
	ReportOverdue  ReportKind = "overdue"
)

// ReportKinds lists the available reports.
var ReportKinds = []ReportKind{ReportIssuance, ReportOverdue}

// ParseReportKind validates a report name.
func ParseReportKind(s string) (ReportKind, error) {
	k := ReportKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range ReportKinds {
		if k == known {
			return k, nil
		}
	}
	return "", ErrUnknownReport
}

// DefaultFilename is used when the server sends no file name.
func (k ReportKind) DefaultFilename() string { return string(k) + "-report.pdf" }

// Report is a downloaded PDF.
type Report struct {
	Kind        ReportKind
	Filename    string
	ContentType string
	Data        []byte
}
