package db

import (
	"context"

	"github.com/uptrace/bun"

	"ms-ticket-stats/internal/models"
	"ms-ticket-stats/internal/stats"
)

// DB reads ticket statistics inputs from the record store.
type DB struct {
	Bun *bun.DB
}

var _ stats.Store = (*DB)(nil)

// ListEventTickets returns every wallet ticket issued for an event, oldest id first.
func (d *DB) ListEventTickets(ctx context.Context, eventID int64) ([]stats.TicketRecord, error) {
	var rows []models.WalletTicket
	err := d.Bun.NewSelect().
		Model(&rows).
		Where("event_id = ?", eventID).
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return toRecords(rows), nil
}

// ListOrderValidity returns the payment status of every order of an event.
func (d *DB) ListOrderValidity(ctx context.Context, eventID int64) ([]stats.OrderValidity, error) {
	var orders []models.PaymentOrder
	err := d.Bun.NewSelect().
		Model(&orders).
		Column("order_id", "order_status").
		Where("event_id = ?", eventID).
		Where("order_id IS NOT NULL").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]stats.OrderValidity, 0, len(orders))
	for _, o := range orders {
		status := ""
		if o.OrderStatus != nil {
			status = *o.OrderStatus
		}
		out = append(out, stats.OrderValidity{
			OrderID: *o.OrderID,
			Status:  stats.ParseOrderStatus(status),
		})
	}
	return out, nil
}

// CountFollowers counts the users following an event. Postgres only.
func (d *DB) CountFollowers(ctx context.Context, eventID int64) (int64, error) {
	count, err := d.Bun.NewSelect().
		Model((*models.User)(nil)).
		Where("? = ANY(event_ids_following)", eventID).
		Count(ctx)
	return int64(count), err
}

// ListTicketRefs returns the id and order of every ticket of an event, newest id first.
func (d *DB) ListTicketRefs(ctx context.Context, eventID int64) ([]stats.TicketRef, error) {
	var rows []models.WalletTicket
	err := d.Bun.NewSelect().
		Model(&rows).
		Column("id", "order_id").
		Where("event_id = ?", eventID).
		OrderExpr("id DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	refs := make([]stats.TicketRef, 0, len(rows))
	for _, r := range rows {
		refs = append(refs, stats.TicketRef{ID: r.ID, OrderID: r.OrderID})
	}
	return refs, nil
}

// ListTicketsByIDs loads the full rows of the given tickets, newest id first.
func (d *DB) ListTicketsByIDs(ctx context.Context, eventID int64, ids []int64) ([]stats.TicketRecord, error) {
	if len(ids) == 0 {
		return []stats.TicketRecord{}, nil
	}
	var rows []models.WalletTicket
	err := d.Bun.NewSelect().
		Model(&rows).
		Where("event_id = ?", eventID).
		Where("id IN (?)", bun.In(ids)).
		OrderExpr("id DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return toRecords(rows), nil
}

// ListUserNames maps user ids to their full names. Users without a name are left out.
func (d *DB) ListUserNames(ctx context.Context, userIDs []string) (map[string]string, error) {
	names := make(map[string]string, len(userIDs))
	if len(userIDs) == 0 {
		return names, nil
	}
	var users []models.User
	err := d.Bun.NewSelect().
		Model(&users).
		Column("id", "fullname").
		Where("id IN (?)", bun.In(userIDs)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.FullName != nil {
			names[u.ID] = *u.FullName
		}
	}
	return names, nil
}

// ListUserEmails maps user ids to their sign-in emails.
func (d *DB) ListUserEmails(ctx context.Context, userIDs []string) (map[string]string, error) {
	emails := make(map[string]string, len(userIDs))
	if len(userIDs) == 0 {
		return emails, nil
	}
	var rows []models.UserEmail
	err := d.Bun.NewSelect().
		Model(&rows).
		Where("id IN (?)", bun.In(userIDs)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		emails[r.ID] = r.Email
	}
	return emails, nil
}

// ListFormSubmits maps form submission ids to their entries.
func (d *DB) ListFormSubmits(ctx context.Context, ids []int64) (map[int64][]string, error) {
	entries := make(map[int64][]string, len(ids))
	if len(ids) == 0 {
		return entries, nil
	}
	var rows []models.TicketFormSubmit
	err := d.Bun.NewSelect().
		Model(&rows).
		Column("id", "entries").
		Where("id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		if r.Entries == nil {
			entries[r.ID] = []string{}
			continue
		}
		entries[r.ID] = r.Entries
	}
	return entries, nil
}

func toRecords(rows []models.WalletTicket) []stats.TicketRecord {
	out := make([]stats.TicketRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ToRecord())
	}
	return out
}
