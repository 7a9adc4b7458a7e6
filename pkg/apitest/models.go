package apitest

import (
	"encoding/json"
	"time"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"

	FinePending = "PENDING"
	FinePaid    = "PAID"
)

// DateTimeLayout is the zone-less format the backend uses for timestamps.
const DateTimeLayout = "2006-01-02T15:04:05"

// LoanPeriod is how long an issued book may be kept.
const LoanPeriod = 14 * 24 * time.Hour

// User is a stored account.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt localTime `json:"createdAt"`
	Password  string    `json:"-"`
}

type Book struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Author       string    `json:"author"`
	Category     string    `json:"category"`
	Availability bool      `json:"availability"`
	CreatedAt    localTime `json:"createdAt"`
}

type Issue struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"userId"`
	BookID     int64      `json:"bookId"`
	IssueDate  localTime  `json:"issueDate"`
	DueDate    localTime  `json:"dueDate"`
	ReturnDate *localTime `json:"returnDate"`
	Book       *Book      `json:"book,omitempty"`
}

type Fine struct {
	ID            int64       `json:"id"`
	UserID        int64       `json:"-"`
	IssueRecordID int64       `json:"issueRecordId"`
	Amount        json.Number `json:"amount"`
	Status        string      `json:"status"`
	CreatedAt     localTime   `json:"createdAt"`
}

type localTime struct{ time.Time }

func (t localTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(DateTimeLayout))
}

func at(t time.Time) localTime { return localTime{t.UTC().Truncate(time.Second)} }

type message struct {
	Message string `json:"message"`
}
