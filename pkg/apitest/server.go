package apitest

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Server is a fake library API. All methods are safe for concurrent use.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	nextID   int64
	users    map[int64]*User
	books    map[int64]*Book
	issues   map[int64]*Issue
	fines    map[int64]*Fine
	revoked  map[string]bool
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
	fineRate *big.Rat

	hooks hooks
}

// Option configures a Server.
type Option func(*Server)

// WithTokenTTL sets the lifetime of issued tokens.
func WithTokenTTL(d time.Duration) Option {
	return func(s *Server) { s.tokenTTL = d }
}

// WithClock overrides the server clock.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New starts a server and closes it when the test ends.
func New(t testing.TB, opts ...Option) *Server {
	t.Helper()
	s := NewServer(opts...)
	t.Cleanup(s.Close)
	return s
}

// NewServer starts a server; the caller closes it.
func NewServer(opts ...Option) *Server {
	s := &Server{
		users:    make(map[int64]*User),
		books:    make(map[int64]*Book),
		issues:   make(map[int64]*Issue),
		fines:    make(map[int64]*Fine),
		revoked:  make(map[string]bool),
		secret:   []byte(uuid.NewString()),
		tokenTTL: time.Hour,
		now:      time.Now,
		fineRate: big.NewRat(1, 2),
		hooks:    newHooks(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

// Close releases held requests and shuts the server down.
func (s *Server) Close() {
	s.hooks.releaseAll()
	s.Server.Close()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.hooks.middleware)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Get("/books", s.handleListBooks)
		r.Get("/books/{id}", s.handleGetBook)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Get("/users/profile", s.handleGetProfile)
			r.Put("/users/profile", s.handleUpdateProfile)
			r.Put("/users/password", s.handleChangePassword)
			r.Get("/users/issues", s.handleMyIssues)

			r.Post("/books/{id}/issue", s.handleIssueBook)
			r.Post("/books/{id}/return", s.handleReturnBook)

			r.Get("/payments/fines", s.handleMyFines)
			r.Post("/payments/pay", s.handlePay)

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)

				r.Post("/books", s.handleAddBook)
				r.Put("/books/{id}", s.handleUpdateBook)
				r.Delete("/books/{id}", s.handleDeleteBook)

				r.Get("/reports/{kind}", s.handleReport)

				r.Get("/admin/users", s.handleListUsers)
				r.Get("/admin/users/{id}", s.handleGetUser)
				r.Put("/admin/users/{id}/role", s.handleUpdateRole)
				r.Delete("/admin/users/{id}", s.handleDeleteUser)
			})
		})
	})
	return r
}

// AddUser stores an account and returns a copy of it.
func (s *Server) AddUser(name, email, password, role string) User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	u := &User{
		ID:        s.nextID,
		Name:      name,
		Email:     strings.ToLower(email),
		Role:      role,
		Password:  password,
		CreatedAt: at(s.now()),
	}
	s.users[u.ID] = u
	return *u
}

// AddBook stores an available book.
func (s *Server) AddBook(title, author, category string) Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.addBookLocked(title, author, category, true)
}

func (s *Server) addBookLocked(title, author, category string, available bool) *Book {
	s.nextID++
	b := &Book{ID: s.nextID, Title: title, Author: author, Category: category, Availability: available, CreatedAt: at(s.now())}
	s.books[b.ID] = b
	return b
}

// AddIssue records a loan of bookID to the user with email. returned marks it
// as already returned on due.
func (s *Server) AddIssue(email string, bookID int64, issued, due time.Time, returned bool) Issue {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.userByEmailLocked(email)
	if u == nil {
		panic("apitest: unknown user " + email)
	}
	s.nextID++
	is := &Issue{ID: s.nextID, UserID: u.ID, BookID: bookID, IssueDate: at(issued), DueDate: at(due)}
	if returned {
		rd := at(due)
		is.ReturnDate = &rd
	} else if b, ok := s.books[bookID]; ok {
		b.Availability = false
	}
	s.issues[is.ID] = is
	return *is
}

// AddFine records a fine for the user with email.
func (s *Server) AddFine(email, amount, status string) Fine {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.userByEmailLocked(email)
	if u == nil {
		panic("apitest: unknown user " + email)
	}
	s.nextID++
	f := &Fine{ID: s.nextID, UserID: u.ID, Amount: json.Number(amount), Status: status, CreatedAt: at(s.now())}
	s.fines[f.ID] = f
	return *f
}

// User returns the stored account with email.
func (s *Server) User(email string) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.userByEmailLocked(email)
	if u == nil {
		return User{}, false
	}
	return *u, true
}

// Book returns the stored book.
func (s *Server) Book(id int64) (Book, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		return Book{}, false
	}
	return *b, true
}

// Fines returns all fines of the user with email, ordered by id.
func (s *Server) Fines(email string) []Fine {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.userByEmailLocked(email)
	var out []Fine
	for _, f := range s.fines {
		if u != nil && f.UserID == u.ID {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IssueToken mints a token for email valid for ttl (negative for an expired one).
func (s *Server) IssueToken(email string, ttl time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueTokenLocked(strings.ToLower(email), ttl)
}

// Revoke makes token unusable.
func (s *Server) Revoke(token string) {
	claims, err := s.parse(token)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.revoked[claims.ID] = true
	s.mu.Unlock()
}

func (s *Server) issueTokenLocked(email string, ttl time.Duration) string {
	now := s.now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		panic(err)
	}
	return token
}

func (s *Server) parse(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *Server) userByEmailLocked(email string) *User {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

type userKey struct{}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeMessage(w, http.StatusUnauthorized, "Full authentication is required to access this resource")
			return
		}
		claims, err := s.parse(raw)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		s.mu.Lock()
		revoked := s.revoked[claims.ID]
		u := s.userByEmailLocked(claims.Subject)
		var user User
		if u != nil {
			user = *u
		}
		s.mu.Unlock()

		if revoked || u == nil {
			writeMessage(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, user)))
	})
}

func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if currentUser(r).Role != RoleAdmin {
			writeMessage(w, http.StatusForbidden, "Access Denied")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func currentUser(r *http.Request) User {
	u, _ := r.Context().Value(userKey{}).(User)
	return u
}

var errBadAmount = errors.New("bad amount")

func parseAmount(n json.Number) (*big.Rat, error) {
	v, ok := new(big.Rat).SetString(n.String())
	if !ok {
		return nil, errBadAmount
	}
	return v, nil
}
