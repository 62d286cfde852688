package db_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ms-ticket-stats/internal/models"
	"ms-ticket-stats/internal/stats"
	"ms-ticket-stats/internal/stats/db"
)

func setupTestDB(t *testing.T) (*db.DB, *bun.DB) {
	// Every test gets its own named in-memory database
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err, "Failed to connect to in-memory database")

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })

	ctx := context.Background()
	for _, model := range []interface{}{
		(*models.WalletTicket)(nil),
		(*models.PaymentOrder)(nil),
		(*models.User)(nil),
		(*models.UserEmail)(nil),
		(*models.TicketFormSubmit)(nil),
	} {
		require.NoError(t, bunDB.ResetModel(ctx, model))
	}

	return &db.DB{Bun: bunDB}, bunDB
}

func ptr[T any](v T) *T { return &v }

func seedTickets(t *testing.T, bunDB *bun.DB, tickets ...models.WalletTicket) {
	_, err := bunDB.NewInsert().Model(&tickets).Exec(context.Background())
	require.NoError(t, err)
}

func TestListEventTickets(t *testing.T) {
	store, bunDB := setupTestDB(t)
	ctx := context.Background()

	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	used := created.Add(2 * time.Hour)
	userID := uuid.NewString()

	seedTickets(t, bunDB,
		models.WalletTicket{ID: 1, EventID: ptr(int64(7)), EventTicketsName: ptr("General"), Price: ptr(int64(1500)),
			OrderID: "A", CreatedAt: created, UsedAt: &used, UserID: &userID},
		models.WalletTicket{ID: 2, EventID: ptr(int64(7)), OrderID: stats.FreeOrderID, CreatedAt: created},
		models.WalletTicket{ID: 3, EventID: ptr(int64(8)), OrderID: "B", CreatedAt: created},
	)

	records, err := store.ListEventTickets(ctx, 7)
	require.NoError(t, err)
	require.Len(t, records, 2)

	byID := map[int64]stats.TicketRecord{}
	for _, r := range records {
		byID[r.ID] = r
	}

	first := byID[1]
	assert.Equal(t, int64(7), first.EventID)
	assert.Equal(t, "General", *first.TicketTypeName)
	assert.Equal(t, int64(1500), *first.PriceMinorUnits)
	assert.True(t, created.Equal(first.CreatedAt))
	require.NotNil(t, first.UsedAt)
	assert.True(t, used.Equal(*first.UsedAt))
	assert.Equal(t, userID, first.UserID)

	second := byID[2]
	assert.Nil(t, second.TicketTypeName)
	assert.Nil(t, second.PriceMinorUnits)
	assert.Nil(t, second.UsedAt)
	assert.Empty(t, second.UserID)
}

func TestListOrderValidity(t *testing.T) {
	store, bunDB := setupTestDB(t)
	ctx := context.Background()

	orders := []models.PaymentOrder{
		{EventID: ptr(int64(7)), OrderID: ptr("A"), OrderStatus: ptr(models.PaymentSucceeded), CreatedAt: time.Now()},
		{EventID: ptr(int64(7)), OrderID: ptr("B"), OrderStatus: ptr(models.PaymentPending), CreatedAt: time.Now()},
		{EventID: ptr(int64(7)), OrderID: ptr("C"), CreatedAt: time.Now()},
		{EventID: ptr(int64(7)), OrderStatus: ptr(models.PaymentSucceeded), CreatedAt: time.Now()},
		{EventID: ptr(int64(9)), OrderID: ptr("D"), OrderStatus: ptr(models.PaymentSucceeded), CreatedAt: time.Now()},
	}
	_, err := bunDB.NewInsert().Model(&orders).Exec(ctx)
	require.NoError(t, err)

	validity, err := store.ListOrderValidity(ctx, 7)
	require.NoError(t, err)

	statuses := map[string]stats.OrderStatus{}
	for _, v := range validity {
		statuses[v.OrderID] = v.Status
	}
	assert.Equal(t, map[string]stats.OrderStatus{
		"A": stats.OrderSucceeded,
		"B": stats.OrderPending,
		"C": stats.OrderPending,
	}, statuses)
}

func TestListTicketRefsNewestFirst(t *testing.T) {
	store, bunDB := setupTestDB(t)
	now := time.Now().UTC()

	seedTickets(t, bunDB,
		models.WalletTicket{ID: 4, EventID: ptr(int64(1)), OrderID: "A", CreatedAt: now},
		models.WalletTicket{ID: 9, EventID: ptr(int64(1)), OrderID: "B", CreatedAt: now},
		models.WalletTicket{ID: 6, EventID: ptr(int64(1)), OrderID: stats.FreeOrderID, CreatedAt: now},
		models.WalletTicket{ID: 5, EventID: ptr(int64(2)), OrderID: "A", CreatedAt: now},
	)

	refs, err := store.ListTicketRefs(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []stats.TicketRef{
		{ID: 9, OrderID: "B"},
		{ID: 6, OrderID: stats.FreeOrderID},
		{ID: 4, OrderID: "A"},
	}, refs)
}

func TestListTicketsByIDs(t *testing.T) {
	store, bunDB := setupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seedTickets(t, bunDB,
		models.WalletTicket{ID: 1, EventID: ptr(int64(1)), OrderID: "A", CreatedAt: now},
		models.WalletTicket{ID: 2, EventID: ptr(int64(1)), OrderID: "A", CreatedAt: now},
		models.WalletTicket{ID: 3, EventID: ptr(int64(1)), OrderID: "A", CreatedAt: now},
		models.WalletTicket{ID: 4, EventID: ptr(int64(2)), OrderID: "A", CreatedAt: now},
	)

	rows, err := store.ListTicketsByIDs(ctx, 1, []int64{1, 3, 4})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(3), rows[0].ID)
	assert.Equal(t, int64(1), rows[1].ID)

	rows, err = store.ListTicketsByIDs(ctx, 1, nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestListUserNamesAndEmails(t *testing.T) {
	store, bunDB := setupTestDB(t)
	ctx := context.Background()

	alice, bob, carol := uuid.NewString(), uuid.NewString(), uuid.NewString()
	users := []models.User{
		{ID: alice, FullName: ptr("Alice Martí"), CreatedAt: time.Now()},
		{ID: bob, CreatedAt: time.Now()},
		{ID: carol, FullName: ptr("Carol Puig"), CreatedAt: time.Now()},
	}
	_, err := bunDB.NewInsert().Model(&users).Exec(ctx)
	require.NoError(t, err)

	emails := []models.UserEmail{
		{ID: alice, Email: "alice@example.com"},
		{ID: bob, Email: "bob@example.com"},
	}
	_, err = bunDB.NewInsert().Model(&emails).Exec(ctx)
	require.NoError(t, err)

	names, err := store.ListUserNames(ctx, []string{alice, bob})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{alice: "Alice Martí"}, names)

	mails, err := store.ListUserEmails(ctx, []string{alice, bob, carol})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{alice: "alice@example.com", bob: "bob@example.com"}, mails)

	names, err = store.ListUserNames(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestListFormSubmits(t *testing.T) {
	store, bunDB := setupTestDB(t)
	ctx := context.Background()

	submits := []models.TicketFormSubmit{
		{ID: 10, EventID: 1, UserID: "u1", Entries: []string{"Vegetarian", "Size M"}, CreatedAt: time.Now()},
		{ID: 11, EventID: 1, UserID: "u2", CreatedAt: time.Now()},
	}
	_, err := bunDB.NewInsert().Model(&submits).Exec(ctx)
	require.NoError(t, err)

	entries, err := store.ListFormSubmits(ctx, []int64{10, 11, 12})
	require.NoError(t, err)
	assert.Equal(t, []string{"Vegetarian", "Size M"}, entries[10])
	assert.Equal(t, []string{}, entries[11])
	_, ok := entries[12]
	assert.False(t, ok)
}
