package stats

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Store is the read side of the record store the statistics are computed from.
type Store interface {
	ListEventTickets(ctx context.Context, eventID int64) ([]TicketRecord, error)
	ListOrderValidity(ctx context.Context, eventID int64) ([]OrderValidity, error)
	CountFollowers(ctx context.Context, eventID int64) (int64, error)
	ListTicketRefs(ctx context.Context, eventID int64) ([]TicketRef, error)
	ListTicketsByIDs(ctx context.Context, eventID int64, ids []int64) ([]TicketRecord, error)
	ListUserNames(ctx context.Context, userIDs []string) (map[string]string, error)
	ListUserEmails(ctx context.Context, userIDs []string) (map[string]string, error)
	ListFormSubmits(ctx context.Context, ids []int64) (map[int64][]string, error)
}

// Service computes ticket statistics for a single event per call. It keeps
// no state between calls.
type Service struct {
	store       Store
	now         func() time.Time
	loc         *time.Location
	maxPageSize int
}

type Option func(*Service)

// WithClock overrides the wall clock used as the end of the series.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the time zone chart labels are rendered in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithMaxPageSize caps the ledger page size. Zero disables the cap.
func WithMaxPageSize(n int) Option {
	return func(s *Service) { s.maxPageSize = n }
}

// NewService creates a statistics service reading from store
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		now:   time.Now,
		loc:   time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func validateEventID(op string, eventID int64) error {
	if eventID <= 0 {
		return Invalid(op, "eventId is required")
	}
	return nil
}

// GetSoldTicketsStat returns the sold/used/following counters and the
// cumulative chart series of an event.
func (s *Service) GetSoldTicketsStat(ctx context.Context, eventID int64) (SoldTicketsStat, error) {
	const op = "get sold tickets stat"
	if err := validateEventID(op, eventID); err != nil {
		return SoldTicketsStat{}, err
	}

	var (
		tickets   []TicketRecord
		orders    []OrderValidity
		followers int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tickets, err = s.store.ListEventTickets(gctx, eventID)
		return Upstream(op+": tickets", err)
	})
	g.Go(func() error {
		var err error
		orders, err = s.store.ListOrderValidity(gctx, eventID)
		return Upstream(op+": orders", err)
	})
	g.Go(func() error {
		var err error
		followers, err = s.store.CountFollowers(gctx, eventID)
		return Upstream(op+": followers", err)
	})
	if err := g.Wait(); err != nil {
		return SoldTicketsStat{}, err
	}

	valid := FilterValid(tickets, NewValidOrders(orders))
	sold := make([]time.Time, 0, len(valid))
	used := make([]time.Time, 0)
	for _, t := range valid {
		sold = append(sold, t.CreatedAt)
		if t.UsedAt != nil {
			used = append(used, *t.UsedAt)
		}
	}

	return SoldTicketsStat{
		Counts: []StatsCount{
			{Key: CountKeySold, Subtitle: "ticketsSold", Data: int64(len(sold))},
			{Key: CountKeyUsed, Subtitle: "ticketsUsed", Data: int64(len(used))},
			{Key: CountKeyFollowing, Subtitle: "usersFollowingEvent", Data: followers},
		},
		Series: Series(sold, used, s.now(), s.loc),
	}, nil
}

// GetTicketsSummary returns revenue and sold/used quantities per ticket type.
func (s *Service) GetTicketsSummary(ctx context.Context, eventID int64) ([]SummaryRow, error) {
	const op = "get tickets summary"
	if err := validateEventID(op, eventID); err != nil {
		return nil, err
	}

	valid, err := s.validTickets(ctx, op, eventID)
	if err != nil {
		return nil, err
	}
	return Summarize(valid), nil
}

func (s *Service) validTickets(ctx context.Context, op string, eventID int64) ([]TicketRecord, error) {
	var (
		tickets []TicketRecord
		orders  []OrderValidity
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tickets, err = s.store.ListEventTickets(gctx, eventID)
		return Upstream(op+": tickets", err)
	})
	g.Go(func() error {
		var err error
		orders, err = s.store.ListOrderValidity(gctx, eventID)
		return Upstream(op+": orders", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return FilterValid(tickets, NewValidOrders(orders)), nil
}

// GetTicketsTable returns one page of the ticket ledger grouped by user.
// Pages are cut on sold ticket ids, newest first, so the tickets of one
// user may span two pages.
func (s *Service) GetTicketsTable(ctx context.Context, eventID int64, page, pageSize int) (*LedgerPage, error) {
	const op = "get tickets table"
	if err := validateEventID(op, eventID); err != nil {
		return nil, err
	}
	page, pageSize, err := NormalizePage(page, pageSize, s.maxPageSize)
	if err != nil {
		return nil, err
	}

	var (
		refs   []TicketRef
		orders []OrderValidity
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		refs, err = s.store.ListTicketRefs(gctx, eventID)
		return Upstream(op+": ticket ids", err)
	})
	g.Go(func() error {
		var err error
		orders, err = s.store.ListOrderValidity(gctx, eventID)
		return Upstream(op+": orders", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	validIDs, invalidCount := PartitionIDs(refs, NewValidOrders(orders))
	validCount := len(refs) - invalidCount

	window := PageWindow(validIDs, page, pageSize)
	rows := []TicketRecord{}
	if len(window) > 0 {
		rows, err = s.store.ListTicketsByIDs(ctx, eventID, window)
		if err != nil {
			return nil, Upstream(op+": ticket rows", err)
		}
	}

	dir, err := s.resolveDirectory(ctx, op, rows)
	if err != nil {
		return nil, err
	}

	return &LedgerPage{
		Rows:            GroupLedger(rows, dir),
		TotalValidCount: validCount,
		CurrentPage:     page,
		TotalPages:      TotalPages(validCount, pageSize),
	}, nil
}

// resolveDirectory looks up names, emails and form submissions for the
// distinct ids present on a page.
func (s *Service) resolveDirectory(ctx context.Context, op string, rows []TicketRecord) (UserDirectory, error) {
	var userIDs []string
	var formIDs []int64
	seenUsers := make(map[string]struct{})
	seenForms := make(map[int64]struct{})
	for _, r := range rows {
		if _, ok := seenUsers[r.UserID]; !ok && r.UserID != "" {
			seenUsers[r.UserID] = struct{}{}
			userIDs = append(userIDs, r.UserID)
		}
		if r.FormSubmissionID != nil {
			if _, ok := seenForms[*r.FormSubmissionID]; !ok {
				seenForms[*r.FormSubmissionID] = struct{}{}
				formIDs = append(formIDs, *r.FormSubmissionID)
			}
		}
	}

	dir := UserDirectory{
		Names:       map[string]string{},
		Emails:      map[string]string{},
		FormEntries: map[int64][]string{},
	}
	g, gctx := errgroup.WithContext(ctx)
	if len(userIDs) > 0 {
		g.Go(func() error {
			names, err := s.store.ListUserNames(gctx, userIDs)
			if err != nil {
				return Upstream(op+": user names", err)
			}
			dir.Names = names
			return nil
		})
		g.Go(func() error {
			emails, err := s.store.ListUserEmails(gctx, userIDs)
			if err != nil {
				return Upstream(op+": user emails", err)
			}
			dir.Emails = emails
			return nil
		})
	}
	if len(formIDs) > 0 {
		g.Go(func() error {
			forms, err := s.store.ListFormSubmits(gctx, formIDs)
			if err != nil {
				return Upstream(op+": form submissions", err)
			}
			dir.FormEntries = forms
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return UserDirectory{}, err
	}
	return dir, nil
}
