package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/dmitrymomot/libraryclient/pkg/apiclient"
	"github.com/dmitrymomot/libraryclient/pkg/credential"
	"github.com/dmitrymomot/libraryclient/pkg/file"
	"github.com/dmitrymomot/libraryclient/pkg/guard"
	"github.com/dmitrymomot/libraryclient/pkg/library"
)

// errUsage marks command line mistakes.
var errUsage = errors.New("usage")

type command struct {
	name       string
	usage      string
	summary    string
	capability guard.Capability
	run        func(ctx context.Context, a *app, args []string) error
}

var commands = []command{
	{name: "login", usage: "[-email E] [-password P]", summary: "sign in and store the credential", capability: guard.None, run: runLogin},
	{name: "register", usage: "-name N -email E [-password P]", summary: "create an account", capability: guard.None, run: runRegister},
	{name: "logout", summary: "forget the stored credential", capability: guard.None, run: runLogout},
	{name: "watch", summary: "follow sign-ins and sign-outs from other processes until interrupted", capability: guard.None, run: runWatch},
	{name: "whoami", summary: "show the signed in user", capability: guard.Authenticated, run: runWhoami},
	{name: "profile", usage: "[-name N] [-email E]", summary: "show or update your profile", capability: guard.Authenticated, run: runProfile},
	{name: "password", usage: "[-current P] [-new P]", summary: "change your password", capability: guard.Authenticated, run: runPassword},
	{name: "dashboard", summary: "show your counters (and library totals for admins)", capability: guard.Authenticated, run: runDashboard},
	{name: "books", usage: "[-search S] [-category C] [-availability all|available|unavailable] [-categories]", summary: "list the catalogue", capability: guard.None, run: runBooks},
	{name: "book", usage: "ID", summary: "show a book", capability: guard.None, run: runBook},
	{name: "borrow", usage: "BOOK_ID", summary: "issue a book to yourself", capability: guard.Authenticated, run: runBorrow},
	{name: "return", usage: "BOOK_ID", summary: "return a borrowed book", capability: guard.Authenticated, run: runReturn},
	{name: "loans", summary: "list your loans", capability: guard.Authenticated, run: runLoans},
	{name: "fines", summary: "list your pending fines", capability: guard.Authenticated, run: runFines},
	{name: "pay", usage: "[-method M] FINE_ID", summary: "pay a fine in full", capability: guard.Authenticated, run: runPay},
	{name: "report", usage: "[-stdout] issuance|overdue", summary: "download and archive a report", capability: guard.Admin, run: runReport},
	{name: "archive", usage: "[-day YYYY-MM-DD] | -rm KEY", summary: "list or delete archived reports", capability: guard.Admin, run: runArchive},
	{name: "users", summary: "list accounts", capability: guard.Admin, run: runUsers},
	{name: "role", usage: "USER_ID USER|ADMIN", summary: "change a user's role", capability: guard.Admin, run: runRole},
	{name: "deluser", usage: "USER_ID", summary: "delete an account", capability: guard.Admin, run: runDeleteUser},
	{name: "addbook", usage: "-title T -author A [-category C]", summary: "add a book", capability: guard.Admin, run: runAddBook},
	{name: "editbook", usage: "[-title T] [-author A] [-category C] [-available true|false] ID", summary: "update a book", capability: guard.Admin, run: runEditBook},
	{name: "rmbook", usage: "ID", summary: "delete a book", capability: guard.Admin, run: runRemoveBook},
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errw)
	return fs
}

func parse(fs *flag.FlagSet, args []string, positional int) error {
	if err := fs.Parse(args); err != nil {
		return errors.Join(errUsage, err)
	}
	if fs.NArg() != positional {
		return fmt.Errorf("%w: %s expects %d argument(s), got %d", errUsage, fs.Name(), positional, fs.NArg())
	}
	return nil
}

// orPrompt returns v, or asks for it when empty.
func (a *app) orPrompt(v *string, label string) error {
	if *v != "" {
		return nil
	}
	s, err := a.prompt(label + ": ")
	if err != nil {
		return err
	}
	*v = s
	return nil
}

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := a.flags("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "password (prompted when empty)")
	if err := parse(fs, args, 0); err != nil {
		return err
	}
	if err := a.orPrompt(email, "Email"); err != nil {
		return err
	}
	if err := a.orPrompt(password, "Password"); err != nil {
		return err
	}
	if err := a.session.Login(ctx, *email, *password); err != nil {
		return err
	}
	u, _ := a.session.User()
	return a.out.notice("Welcome, %s (%s)", u.Name, a.out.role(u.Role))
}

func runRegister(ctx context.Context, a *app, args []string) error {
	fs := a.flags("register")
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "password (prompted when empty)")
	if err := parse(fs, args, 0); err != nil {
		return err
	}
	if strings.TrimSpace(*name) == "" || strings.TrimSpace(*email) == "" {
		return fmt.Errorf("%w: -name and -email are required", errUsage)
	}
	if err := a.orPrompt(password, "Password"); err != nil {
		return err
	}
	if err := a.session.Register(ctx, *name, *email, *password); err != nil {
		return err
	}
	return a.out.notice("Registration successful. Sign in with: library login -email %s", *email)
}

func runLogout(ctx context.Context, a *app, args []string) error {
	if err := parse(a.flags("logout"), args, 0); err != nil {
		return err
	}
	a.session.Logout(ctx)
	return a.out.notice("Signed out")
}

func runWatch(ctx context.Context, a *app, args []string) error {
	if err := parse(a.flags("watch"), args, 0); err != nil {
		return err
	}
	w, ok := a.store.(credential.Watcher)
	if !ok {
		return fmt.Errorf("%w: the %s credential store cannot be watched", errUsage, a.cfg.CredentialStore)
	}

	// transitions from startup were already settled by Wait
	for len(a.changes) > 0 {
		<-a.changes
	}
	if err := a.session.Follow(ctx, w); err != nil {
		return fmt.Errorf("watch credential: %w", err)
	}
	if err := a.out.status(a.session.Snapshot()); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap := <-a.changes:
			if err := a.out.status(snap); err != nil {
				return err
			}
		}
	}
}

func runWhoami(_ context.Context, a *app, args []string) error {
	if err := parse(a.flags("whoami"), args, 0); err != nil {
		return err
	}
	u, _ := a.session.User()
	return a.out.user(u)
}

func runProfile(ctx context.Context, a *app, args []string) error {
	fs := a.flags("profile")
	name := fs.String("name", "", "new name")
	email := fs.String("email", "", "new email")
	if err := parse(fs, args, 0); err != nil {
		return err
	}
	if *name != "" || *email != "" {
		cur, _ := a.session.User()
		if *name == "" {
			*name = cur.Name
		}
		if *email == "" {
			*email = cur.Email
		}
		if err := a.session.UpdateProfile(ctx, *name, *email); err != nil {
			return err
		}
	}
	u, ok := a.session.User()
	if !ok {
		return guard.ErrLoginRequired
	}
	return a.out.user(u)
}

func runPassword(ctx context.Context, a *app, args []string) error {
	fs := a.flags("password")
	current := fs.String("current", "", "current password (prompted when empty)")
	next := fs.String("new", "", "new password (prompted when empty)")
	if err := parse(fs, args, 0); err != nil {
		return err
	}
	if err := a.orPrompt(current, "Current password"); err != nil {
		return err
	}
	if err := a.orPrompt(next, "New password"); err != nil {
		return err
	}
	if err := a.session.ChangePassword(ctx, *current, *next); err != nil {
		return err
	}
	return a.out.notice("Password changed")
}

func runDashboard(ctx context.Context, a *app, args []string) error {
	if err := parse(a.flags("dashboard"), args, 0); err != nil {
		return err
	}
	us, err := a.lib.UserDashboard(ctx)
	if err != nil {
		return err
	}
	var as *library.AdminStats
	if a.session.IsAdmin() {
		if as, err = a.lib.AdminDashboard(ctx); err != nil {
			return err
		}
	}
	return a.out.dashboard(us, as)
}

func runBooks(ctx context.Context, a *app, args []string) error {
	fs := a.flags("books")
	var f library.BookFilter
	fs.StringVar(&f.Search, "search", "", "match title or author")
	fs.StringVar(&f.Category, "category", "", "exact category")
	avail := fs.String("availability", string(library.AvailabilityAll), "all, available or unavailable")
	categories := fs.Bool("categories", false, "list categories instead of books")
	if err := parse(fs, args, 0); err != nil {
		return err
	}
	switch library.Availability(*avail) {
	case library.AvailabilityAll, library.AvailabilityAvailable, library.AvailabilityUnavailable:
		f.Availability = library.Availability(*avail)
	default:
		return fmt.Errorf("%w: unknown availability %q", errUsage, *avail)
	}

	books, err := a.lib.Books(ctx)
	if err != nil {
		return err
	}
	if *categories {
		cats := library.Categories(books)
		return a.out.print(cats, func(w io.Writer) {
			for _, c := range cats {
				fmt.Fprintln(w, c)
			}
		})
	}
	return a.out.books(library.Filter(books, f))
}

func idArg(fs *flag.FlagSet, i int) apiclient.ID {
	return apiclient.ID(strings.TrimSpace(fs.Arg(i)))
}

func runBook(ctx context.Context, a *app, args []string) error {
	fs := a.flags("book")
	if err := parse(fs, args, 1); err != nil {
		return err
	}
	b, err := a.lib.Book(ctx, idArg(fs, 0))
	if err != nil {
		return err
	}
	return a.out.book(*b)
}

func runBorrow(ctx context.Context, a *app, args []string) error {
	fs := a.flags("borrow")
	if err := parse(fs, args, 1); err != nil {
		return err
	}
	l, err := a.lib.IssueBook(ctx, idArg(fs, 0))
	if err != nil {
		return err
	}
	return a.out.loan(*l)
}

func runReturn(ctx context.Context, a *app, args []string) error {
	fs := a.flags("return")
	if err := parse(fs, args, 1); err != nil {
		return err
	}
	l, err := a.lib.ReturnBook(ctx, idArg(fs, 0))
	if err != nil {
		return err
	}
	return a.out.loan(*l)
}

func runLoans(ctx context.Context, a *app, args []string) error {
	if err := parse(a.flags("loans"), args, 0); err != nil {
		return err
	}
	loans, err := a.lib.MyLoans(ctx)
	if err != nil {
		return err
	}
	return a.out.loans(loans)
}

func runFines(ctx context.Context, a *app, args []string) error {
	if err := parse(a.flags("fines"), args, 0); err != nil {
		return err
	}
	fines, err := a.lib.MyFines(ctx)
	if err != nil {
		return err
	}
	return a.out.fines(fines)
}

func runPay(ctx context.Context, a *app, args []string) error {
	fs := a.flags("pay")
	method := fs.String("method", library.MethodCreditCard, strings.Join(library.PaymentMethods, ", "))
	if err := parse(fs, args, 1); err != nil {
		return err
	}
	id := idArg(fs, 0)

	fines, err := a.lib.MyFines(ctx)
	if err != nil {
		return err
	}
	for _, f := range fines {
		if f.ID == id {
			paid, err := a.lib.PayFine(ctx, f, *method)
			if err != nil {
				return err
			}
			return a.out.fine(*paid)
		}
	}
	return fmt.Errorf("no pending fine with id %s", id)
}

func runReport(ctx context.Context, a *app, args []string) error {
	fs := a.flags("report")
	toStdout := fs.Bool("stdout", false, "write the PDF to stdout instead of archiving it")
	if err := parse(fs, args, 1); err != nil {
		return err
	}
	kind, err := library.ParseReportKind(fs.Arg(0))
	if err != nil {
		return errors.Join(errUsage, err)
	}

	r, err := a.lib.Report(ctx, kind)
	if err != nil {
		return err
	}
	if *toStdout {
		_, err := a.out.w.Write(r.Data)
		return err
	}
	if a.archive == nil {
		return fmt.Errorf("%w: report storage is disabled, use -stdout", errUsage)
	}

	key := file.ArchiveKey(r.Filename, a.out.now())
	if _, err := a.archive.Save(ctx, key, bytes.NewReader(r.Data), r.ContentType); err != nil {
		return fmt.Errorf("archive report: %w", err)
	}
	a.log.InfoContext(ctx, "report archived", slog.String("kind", string(kind)), slog.String("key", key))
	return a.out.report(r, a.archive.URL(key))
}

func runArchive(ctx context.Context, a *app, args []string) error {
	fs := a.flags("archive")
	day := fs.String("day", "", "list reports archived on this UTC day (default today)")
	rm := fs.String("rm", "", "delete the report stored under this key")
	if err := parse(fs, args, 0); err != nil {
		return err
	}
	if a.archive == nil {
		return fmt.Errorf("%w: report storage is disabled", errUsage)
	}

	if *rm != "" {
		if !a.archive.Exists(ctx, *rm) {
			return fmt.Errorf("no archived report %s", *rm)
		}
		if err := a.archive.Delete(ctx, *rm); err != nil {
			return fmt.Errorf("delete report: %w", err)
		}
		a.log.InfoContext(ctx, "archived report deleted", slog.String("key", *rm))
		return a.out.notice("Deleted %s", *rm)
	}

	t := a.out.now().UTC()
	if *day != "" {
		parsed, err := time.Parse(time.DateOnly, *day)
		if err != nil {
			return fmt.Errorf("%w: -day: %v", errUsage, err)
		}
		t = parsed
	}
	entries, err := a.archive.List(ctx, t.Format(file.ArchiveDirLayout))
	if err != nil && !errors.Is(err, file.ErrDirectoryNotFound) {
		return fmt.Errorf("list reports: %w", err)
	}
	return a.out.archived(entries, a.archive.URL)
}

func runUsers(ctx context.Context, a *app, args []string) error {
	if err := parse(a.flags("users"), args, 0); err != nil {
		return err
	}
	users, err := a.lib.Users(ctx)
	if err != nil {
		return err
	}
	return a.out.users(users)
}

func runRole(ctx context.Context, a *app, args []string) error {
	fs := a.flags("role")
	if err := parse(fs, args, 2); err != nil {
		return err
	}
	id := idArg(fs, 0)
	if err := a.lib.UpdateUserRole(ctx, id, fs.Arg(1)); err != nil {
		return err
	}
	return a.out.notice("User %s is now %s", id, a.out.title.String(strings.ToLower(fs.Arg(1))))
}

func runDeleteUser(ctx context.Context, a *app, args []string) error {
	fs := a.flags("deluser")
	if err := parse(fs, args, 1); err != nil {
		return err
	}
	id := idArg(fs, 0)
	if err := a.lib.DeleteUser(ctx, id); err != nil {
		return err
	}
	return a.out.notice("User %s deleted", id)
}

func runAddBook(ctx context.Context, a *app, args []string) error {
	fs := a.flags("addbook")
	var in library.BookInput
	fs.StringVar(&in.Title, "title", "", "title")
	fs.StringVar(&in.Author, "author", "", "author")
	fs.StringVar(&in.Category, "category", "", "category")
	if err := parse(fs, args, 0); err != nil {
		return err
	}
	b, err := a.lib.AddBook(ctx, in)
	if err != nil {
		return err
	}
	return a.out.book(*b)
}

func runEditBook(ctx context.Context, a *app, args []string) error {
	fs := a.flags("editbook")
	var in library.BookInput
	fs.StringVar(&in.Title, "title", "", "new title")
	fs.StringVar(&in.Author, "author", "", "new author")
	fs.StringVar(&in.Category, "category", "", "new category")
	fs.Func("available", "set availability (true or false)", func(s string) error {
		switch strings.ToLower(s) {
		case "true", "yes", "1":
			v := true
			in.Availability = &v
		case "false", "no", "0":
			v := false
			in.Availability = &v
		default:
			return fmt.Errorf("not a boolean: %q", s)
		}
		return nil
	})
	if err := parse(fs, args, 1); err != nil {
		return err
	}
	b, err := a.lib.UpdateBook(ctx, idArg(fs, 0), in)
	if err != nil {
		return err
	}
	return a.out.book(*b)
}

func runRemoveBook(ctx context.Context, a *app, args []string) error {
	fs := a.flags("rmbook")
	if err := parse(fs, args, 1); err != nil {
		return err
	}
	id := idArg(fs, 0)
	if err := a.lib.DeleteBook(ctx, id); err != nil {
		return err
	}
	return a.out.notice("Book %s deleted", id)
}
