package library

import (
	"context"
	"math/big"

	"golang.org/x/sync/errgroup"
)

// RecentLoans is how many loans UserDashboard keeps in Recent.
const RecentLoans = 5

// UserStats are the counters on the member dashboard.
type UserStats struct {
	IssuedBooks  int
	OverdueBooks int
	PendingFines int
	Recent       []Loan
}

// AdminStats are the counters on the admin dashboard.
type AdminStats struct {
	TotalUsers  int
	TotalBooks  int
	IssuedBooks int
}

// UserDashboard loads loans and fines concurrently and summarizes them.
func (c *Client) UserDashboard(ctx context.Context) (*UserStats, error) {
	var (
		loans []Loan
		fines []Fine
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		loans, err = c.MyLoans(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		fines, err = c.MyFines(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := c.now()
	stats := &UserStats{}
	for _, l := range loans {
		if !l.Returned() {
			stats.IssuedBooks++
		}
		if l.Overdue(now) {
			stats.OverdueBooks++
		}
	}
	for _, f := range fines {
		if f.Pending() {
			stats.PendingFines++
		}
	}
	stats.Recent = loans[:min(len(loans), RecentLoans)]
	return stats, nil
}

// AdminDashboard loads users and books concurrently and counts them.
func (c *Client) AdminDashboard(ctx context.Context) (*AdminStats, error) {
	var (
		users []User
		books []Book
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = c.Users(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		books, err = c.Books(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := &AdminStats{TotalUsers: len(users), TotalBooks: len(books)}
	for _, b := range books {
		if !b.Availability {
			stats.IssuedBooks++
		}
	}
	return stats, nil
}

// TotalPending sums the pending fines exactly.
func TotalPending(fines []Fine) (*big.Rat, error) {
	total := new(big.Rat)
	for _, f := range fines {
		if !f.Pending() {
			continue
		}
		v, err := f.AmountRat()
		if err != nil {
			return nil, err
		}
		total.Add(total, v)
	}
	return total, nil
}
