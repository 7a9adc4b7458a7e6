package apitest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/mail"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, message{Message: msg})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed request body")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeMessage(w, http.StatusBadRequest, "Name is required")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeMessage(w, http.StatusBadRequest, "Email should be valid")
		return
	}
	if len(req.Password) < 6 {
		writeMessage(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	s.mu.Lock()
	exists := s.userByEmailLocked(req.Email) != nil
	s.mu.Unlock()
	if exists {
		writeMessage(w, http.StatusBadRequest, "Email already exists")
		return
	}
	s.AddUser(strings.TrimSpace(req.Name), strings.TrimSpace(req.Email), req.Password, RoleUser)
	writeMessage(w, http.StatusOK, "User registered successfully!")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	u := s.userByEmailLocked(req.Email)
	if u == nil || u.Password != req.Password {
		s.mu.Unlock()
		writeMessage(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	user := *u
	token := s.issueTokenLocked(user.Email, s.tokenTTL)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	}{Token: token, User: user})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if !decode(w, r, &req) {
		return
	}
	name := strings.Join(strings.Fields(req.Name), " ")
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" {
		writeMessage(w, http.StatusBadRequest, "Name is required")
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		writeMessage(w, http.StatusBadRequest, "Email should be valid")
		return
	}

	me := currentUser(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if other := s.userByEmailLocked(email); other != nil && other.ID != me.ID {
		writeMessage(w, http.StatusBadRequest, "Email already exists")
		return
	}
	u, ok := s.users[me.ID]
	if !ok {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	u.Name = name
	u.Email = email
	writeJSON(w, http.StatusOK, *u)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if !decode(w, r, &req) {
		return
	}
	me := currentUser(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[me.ID]
	if !ok {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	if u.Password != req.CurrentPassword {
		writeMessage(w, http.StatusBadRequest, "Current password is incorrect")
		return
	}
	if len(req.NewPassword) < 6 {
		writeMessage(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}
	u.Password = req.NewPassword
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleMyIssues(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	s.mu.Lock()
	out := make([]Issue, 0)
	for _, is := range s.issues {
		if is.UserID != me.ID {
			continue
		}
		cp := *is
		if b, ok := s.books[is.BookID]; ok {
			book := *b
			cp.Book = &book
		}
		out = append(out, cp)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]Book, 0, len(s.books))
	for _, b := range s.books {
		out = append(out, *b)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b, found := s.Book(id)
	if !found {
		writeMessage(w, http.StatusNotFound, "Book not found")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

type bookRequest struct {
	Title        string `json:"title"`
	Author       string `json:"author"`
	Category     string `json:"category"`
	Availability *bool  `json:"availability"`
}

func (s *Server) handleAddBook(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Author) == "" {
		writeMessage(w, http.StatusBadRequest, "Title and author are required")
		return
	}
	available := req.Availability == nil || *req.Availability

	s.mu.Lock()
	b := *s.addBookLocked(req.Title, req.Author, req.Category, available)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req bookRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	b, found := s.books[id]
	if !found {
		writeMessage(w, http.StatusNotFound, "Book not found")
		return
	}
	if req.Title != "" {
		b.Title = req.Title
	}
	if req.Author != "" {
		b.Author = req.Author
	}
	if req.Category != "" {
		b.Category = req.Category
	}
	if req.Availability != nil {
		b.Availability = *req.Availability
	}
	writeJSON(w, http.StatusOK, *b)
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.books[id]; !found {
		writeMessage(w, http.StatusNotFound, "Book not found")
		return
	}
	delete(s.books, id)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleIssueBook(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	me := currentUser(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	b, found := s.books[id]
	if !found {
		writeMessage(w, http.StatusNotFound, "Book not found")
		return
	}
	if !b.Availability {
		writeMessage(w, http.StatusBadRequest, "Book is not available")
		return
	}
	now := s.now()
	s.nextID++
	is := &Issue{ID: s.nextID, UserID: me.ID, BookID: b.ID, IssueDate: at(now), DueDate: at(now.Add(LoanPeriod))}
	s.issues[is.ID] = is
	b.Availability = false

	cp := *is
	book := *b
	cp.Book = &book
	writeJSON(w, http.StatusOK, cp)
}

func (s *Server) handleReturnBook(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	me := currentUser(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	var open *Issue
	for _, is := range s.issues {
		if is.BookID == id && is.UserID == me.ID && is.ReturnDate == nil {
			open = is
			break
		}
	}
	if open == nil {
		writeMessage(w, http.StatusBadRequest, "No active issue found for this book")
		return
	}

	now := s.now()
	rd := at(now)
	open.ReturnDate = &rd
	if b, found := s.books[id]; found {
		b.Availability = true
	}
	if late := now.Sub(open.DueDate.Time); late > 0 {
		days := int64(late/(24*time.Hour)) + 1
		amount := new(big.Rat).Mul(big.NewRat(days, 1), s.fineRate)
		s.nextID++
		s.fines[s.nextID] = &Fine{
			ID:            s.nextID,
			UserID:        me.ID,
			IssueRecordID: open.ID,
			Amount:        json.Number(amount.FloatString(2)),
			Status:        FinePending,
			CreatedAt:     at(now),
		}
	}
	writeJSON(w, http.StatusOK, *open)
}

func (s *Server) handleMyFines(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	s.mu.Lock()
	out := make([]Fine, 0)
	for _, f := range s.fines {
		if f.UserID == me.ID && f.Status == FinePending {
			out = append(out, *f)
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePay(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FineID        int64       `json:"fineId"`
		Amount        json.Number `json:"amount"`
		PaymentMethod string      `json:"paymentMethod"`
	}
	if !decode(w, r, &req) {
		return
	}
	paid, err := parseAmount(req.Amount)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid amount")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	f, found := s.fines[req.FineID]
	if !found {
		writeMessage(w, http.StatusInternalServerError, "Fine not found")
		return
	}
	if f.Status == FinePaid {
		writeMessage(w, http.StatusInternalServerError, "Fine is already paid")
		return
	}
	due, err := parseAmount(f.Amount)
	if err != nil || due.Cmp(paid) != 0 {
		writeMessage(w, http.StatusInternalServerError, "Payment amount does not match fine amount")
		return
	}
	f.Status = FinePaid
	writeJSON(w, http.StatusOK, *f)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	if kind != "issuance" && kind != "overdue" {
		writeMessage(w, http.StatusNotFound, "Unknown report")
		return
	}

	now := s.now()
	var body bytes.Buffer
	body.WriteString("%PDF-1.4\n")
	fmt.Fprintf(&body, "%% %s report generated %s\n", kind, now.UTC().Format(DateTimeLayout))

	s.mu.Lock()
	ids := make([]int64, 0, len(s.issues))
	for id := range s.issues {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		is := s.issues[id]
		if kind == "overdue" && (is.ReturnDate != nil || !is.DueDate.Before(now)) {
			continue
		}
		fmt.Fprintf(&body, "%% issue %d book %d user %d due %s\n", is.ID, is.BookID, is.UserID, is.DueDate.Format(DateTimeLayout))
	}
	s.mu.Unlock()
	body.WriteString("%%EOF\n")

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`form-data; name="filename"; filename="%s-report.pdf"`, kind))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body.Bytes())
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	u, found := s.users[id]
	var out User
	if found {
		out = *u
	}
	s.mu.Unlock()
	if !found {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Role string `json:"role"`
	}
	if !decode(w, r, &req) {
		return
	}
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	if role != RoleUser && role != RoleAdmin {
		writeMessage(w, http.StatusBadRequest, "Invalid role")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, found := s.users[id]
	if !found {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	u.Role = role
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.users[id]; !found {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	delete(s.users, id)
	w.WriteHeader(http.StatusOK)
}
