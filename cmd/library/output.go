package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/libraryclient/pkg/apiclient"
	"github.com/dmitrymomot/libraryclient/pkg/file"
	"github.com/dmitrymomot/libraryclient/pkg/library"
	"github.com/dmitrymomot/libraryclient/pkg/session"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

const dateLayout = "2006-01-02 15:04"

type printer struct {
	w      io.Writer
	format string
	money  *message.Printer
	title  cases.Caser
	now    func() time.Time
}

func newPrinter(w io.Writer, format string) (*printer, error) {
	switch format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		return nil, fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
	}
	return &printer{
		w:      w,
		format: format,
		money:  message.NewPrinter(language.AmericanEnglish),
		title:  cases.Title(language.English),
		now:    time.Now,
	}, nil
}

// print writes v as JSON or YAML, or calls text for the text format.
func (p *printer) print(v any, text func(w io.Writer)) error {
	switch p.format {
	case FormatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
		text(tw)
		return tw.Flush()
	}
}

// notice prints a one-line confirmation; structured formats get {"message": ...}.
func (p *printer) notice(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return p.print(map[string]string{"message": msg}, func(w io.Writer) {
		fmt.Fprintln(w, msg)
	})
}

func (p *printer) role(r session.Role) string {
	return p.title.String(strings.ToLower(string(r)))
}

func (p *printer) amount(r *big.Rat) string {
	f, _ := r.Float64()
	return p.money.Sprintf("$%.2f", f)
}

func (p *printer) fineAmount(f library.Fine) string {
	r, err := f.AmountRat()
	if err != nil {
		return f.Amount.String()
	}
	return p.amount(r)
}

func stamp(t apiclient.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

type userView struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Email     string `json:"email" yaml:"email"`
	Role      string `json:"role" yaml:"role"`
	CreatedAt string `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

func (p *printer) userView(u session.Identity) userView {
	return userView{ID: u.ID.String(), Name: u.Name, Email: u.Email, Role: p.role(u.Role), CreatedAt: stamp(u.CreatedAt)}
}

func (p *printer) user(u session.Identity) error {
	v := p.userView(u)
	return p.print(v, func(w io.Writer) {
		fmt.Fprintf(w, "ID:\t%s\n", v.ID)
		fmt.Fprintf(w, "Name:\t%s\n", v.Name)
		fmt.Fprintf(w, "Email:\t%s\n", v.Email)
		fmt.Fprintf(w, "Role:\t%s\n", v.Role)
		if v.CreatedAt != "" {
			fmt.Fprintf(w, "Member since:\t%s\n", v.CreatedAt)
		}
	})
}

func (p *printer) users(users []library.User) error {
	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, p.userView(u))
	}
	return p.print(views, func(w io.Writer) {
		fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE")
		for _, v := range views {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", v.ID, v.Name, v.Email, v.Role)
		}
	})
}

type bookView struct {
	ID        string `json:"id" yaml:"id"`
	Title     string `json:"title" yaml:"title"`
	Author    string `json:"author" yaml:"author"`
	Category  string `json:"category" yaml:"category"`
	Available bool   `json:"available" yaml:"available"`
	Added     string `json:"added,omitempty" yaml:"added,omitempty"`
}

func newBookView(b library.Book) bookView {
	return bookView{
		ID:        b.ID.String(),
		Title:     b.Title,
		Author:    b.Author,
		Category:  b.Category,
		Available: b.Availability,
		Added:     stamp(b.CreatedAt),
	}
}

func availability(ok bool) string {
	if ok {
		return "available"
	}
	return "issued"
}

func (p *printer) book(b library.Book) error {
	v := newBookView(b)
	return p.print(v, func(w io.Writer) {
		fmt.Fprintf(w, "ID:\t%s\n", v.ID)
		fmt.Fprintf(w, "Title:\t%s\n", v.Title)
		fmt.Fprintf(w, "Author:\t%s\n", v.Author)
		fmt.Fprintf(w, "Category:\t%s\n", v.Category)
		fmt.Fprintf(w, "Status:\t%s\n", availability(v.Available))
	})
}

func (p *printer) books(books []library.Book) error {
	views := make([]bookView, 0, len(books))
	for _, b := range books {
		views = append(views, newBookView(b))
	}
	return p.print(views, func(w io.Writer) {
		fmt.Fprintln(w, "ID\tTITLE\tAUTHOR\tCATEGORY\tSTATUS")
		for _, v := range views {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", v.ID, v.Title, v.Author, v.Category, availability(v.Available))
		}
	})
}

type loanView struct {
	ID       string `json:"id" yaml:"id"`
	BookID   string `json:"book_id" yaml:"book_id"`
	Title    string `json:"title,omitempty" yaml:"title,omitempty"`
	Issued   string `json:"issued" yaml:"issued"`
	Due      string `json:"due" yaml:"due"`
	Returned string `json:"returned,omitempty" yaml:"returned,omitempty"`
	Overdue  bool   `json:"overdue" yaml:"overdue"`
}

func (p *printer) loanView(l library.Loan) loanView {
	return loanView{
		ID:       l.ID.String(),
		BookID:   l.BookID.String(),
		Title:    l.Title(),
		Issued:   stamp(l.IssueDate),
		Due:      stamp(l.DueDate),
		Returned: stamp(l.ReturnDate),
		Overdue:  l.Overdue(p.now()),
	}
}

func loanStatus(v loanView) string {
	switch {
	case v.Returned != "":
		return "returned " + v.Returned
	case v.Overdue:
		return "OVERDUE"
	default:
		return "issued"
	}
}

func (p *printer) loan(l library.Loan) error {
	v := p.loanView(l)
	return p.print(v, func(w io.Writer) {
		if v.Title != "" {
			fmt.Fprintf(w, "Book:\t%s\n", v.Title)
		}
		fmt.Fprintf(w, "Issued:\t%s\n", v.Issued)
		fmt.Fprintf(w, "Due:\t%s\n", v.Due)
		fmt.Fprintf(w, "Status:\t%s\n", loanStatus(v))
	})
}

func (p *printer) loans(loans []library.Loan) error {
	views := make([]loanView, 0, len(loans))
	for _, l := range loans {
		views = append(views, p.loanView(l))
	}
	return p.print(views, func(w io.Writer) {
		fmt.Fprintln(w, "ID\tBOOK\tTITLE\tDUE\tSTATUS")
		for _, v := range views {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", v.ID, v.BookID, v.Title, v.Due, loanStatus(v))
		}
	})
}

type fineView struct {
	ID      string `json:"id" yaml:"id"`
	IssueID string `json:"issue_id,omitempty" yaml:"issue_id,omitempty"`
	Amount  string `json:"amount" yaml:"amount"`
	Status  string `json:"status" yaml:"status"`
	Created string `json:"created,omitempty" yaml:"created,omitempty"`
}

type finesView struct {
	Fines []fineView `json:"fines" yaml:"fines"`
	Total string     `json:"total_pending" yaml:"total_pending"`
}

func (p *printer) fineView(f library.Fine) fineView {
	return fineView{
		ID:      f.ID.String(),
		IssueID: f.IssueRecordID.String(),
		Amount:  p.fineAmount(f),
		Status:  string(f.Status),
		Created: stamp(f.CreatedAt),
	}
}

func (p *printer) fine(f library.Fine) error {
	v := p.fineView(f)
	return p.print(v, func(w io.Writer) {
		fmt.Fprintf(w, "Fine %s:\t%s\t%s\n", v.ID, v.Amount, v.Status)
	})
}

func (p *printer) fines(fines []library.Fine) error {
	total, err := library.TotalPending(fines)
	if err != nil {
		return err
	}
	out := finesView{Fines: make([]fineView, 0, len(fines)), Total: p.amount(total)}
	for _, f := range fines {
		out.Fines = append(out.Fines, p.fineView(f))
	}
	return p.print(out, func(w io.Writer) {
		if len(out.Fines) == 0 {
			fmt.Fprintln(w, "No pending fines.")
			return
		}
		fmt.Fprintln(w, "ID\tISSUE\tAMOUNT\tSTATUS")
		for _, v := range out.Fines {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", v.ID, v.IssueID, v.Amount, v.Status)
		}
		fmt.Fprintf(w, "Total pending:\t\t%s\n", out.Total)
	})
}

type dashboardView struct {
	User  *userStatsView  `json:"user,omitempty" yaml:"user,omitempty"`
	Admin *adminStatsView `json:"admin,omitempty" yaml:"admin,omitempty"`
}

type userStatsView struct {
	IssuedBooks  int        `json:"issued_books" yaml:"issued_books"`
	OverdueBooks int        `json:"overdue_books" yaml:"overdue_books"`
	PendingFines int        `json:"pending_fines" yaml:"pending_fines"`
	Recent       []loanView `json:"recent" yaml:"recent"`
}

type adminStatsView struct {
	TotalUsers  int `json:"total_users" yaml:"total_users"`
	TotalBooks  int `json:"total_books" yaml:"total_books"`
	IssuedBooks int `json:"issued_books" yaml:"issued_books"`
}

func (p *printer) dashboard(us *library.UserStats, as *library.AdminStats) error {
	var out dashboardView
	if us != nil {
		out.User = &userStatsView{
			IssuedBooks:  us.IssuedBooks,
			OverdueBooks: us.OverdueBooks,
			PendingFines: us.PendingFines,
			Recent:       make([]loanView, 0, len(us.Recent)),
		}
		for _, l := range us.Recent {
			out.User.Recent = append(out.User.Recent, p.loanView(l))
		}
	}
	if as != nil {
		out.Admin = &adminStatsView{TotalUsers: as.TotalUsers, TotalBooks: as.TotalBooks, IssuedBooks: as.IssuedBooks}
	}
	return p.print(out, func(w io.Writer) {
		if u := out.User; u != nil {
			fmt.Fprintf(w, "Issued books:\t%d\n", u.IssuedBooks)
			fmt.Fprintf(w, "Overdue books:\t%d\n", u.OverdueBooks)
			fmt.Fprintf(w, "Pending fines:\t%d\n", u.PendingFines)
			for _, v := range u.Recent {
				fmt.Fprintf(w, "  %s\t%s\t%s\n", v.Title, v.Issued, loanStatus(v))
			}
		}
		if a := out.Admin; a != nil {
			fmt.Fprintf(w, "Total users:\t%d\n", a.TotalUsers)
			fmt.Fprintf(w, "Total books:\t%d\n", a.TotalBooks)
			fmt.Fprintf(w, "Issued books:\t%d\n", a.IssuedBooks)
		}
	})
}

type reportView struct {
	Kind     string `json:"kind" yaml:"kind"`
	Filename string `json:"filename" yaml:"filename"`
	Size     int    `json:"size" yaml:"size"`
	Location string `json:"location" yaml:"location"`
}

func (p *printer) report(r *library.Report, location string) error {
	v := reportView{Kind: string(r.Kind), Filename: r.Filename, Size: len(r.Data), Location: location}
	return p.print(v, func(w io.Writer) {
		fmt.Fprintf(w, "Saved %s (%d bytes) to %s\n", v.Filename, v.Size, v.Location)
	})
}

type statusView struct {
	Phase string    `json:"phase" yaml:"phase"`
	User  *userView `json:"user,omitempty" yaml:"user,omitempty"`
}

func (p *printer) status(s session.Snapshot) error {
	v := statusView{Phase: s.Phase.String()}
	if s.Identity != nil {
		u := p.userView(*s.Identity)
		v.User = &u
	}
	return p.print(v, func(w io.Writer) {
		switch {
		case v.User != nil:
			fmt.Fprintf(w, "Signed in as %s (%s)\n", v.User.Name, v.User.Role)
		case s.Phase == session.PhaseResolving:
			fmt.Fprintln(w, "Checking stored credential")
		default:
			fmt.Fprintln(w, "Signed out")
		}
	})
}

type archivedView struct {
	Key      string `json:"key" yaml:"key"`
	Size     int64  `json:"size" yaml:"size"`
	Location string `json:"location" yaml:"location"`
}

func (p *printer) archived(entries []file.Entry, url func(key string) string) error {
	views := make([]archivedView, 0, len(entries))
	for _, e := range entries {
		if e.IsDir {
			continue
		}
		views = append(views, archivedView{Key: e.Path, Size: e.Size, Location: url(e.Path)})
	}
	return p.print(views, func(w io.Writer) {
		if len(views) == 0 {
			fmt.Fprintln(w, "No archived reports")
			return
		}
		fmt.Fprintln(w, "KEY\tSIZE\tLOCATION")
		for _, v := range views {
			fmt.Fprintf(w, "%s\t%d\t%s\n", v.Key, v.Size, v.Location)
		}
	})
}
