package stats_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ms-ticket-stats/internal/stats"
)

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func TestSummarizeFreeAndPaidTickets(t *testing.T) {
	t1 := time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC)
	tickets := []stats.TicketRecord{
		{ID: 1, OrderID: stats.FreeOrderID, TicketTypeName: strPtr("General"), PriceMinorUnits: int64Ptr(1000)},
		{ID: 2, OrderID: "A", TicketTypeName: strPtr("General"), PriceMinorUnits: int64Ptr(500), UsedAt: timePtr(t1)},
	}
	valid := stats.FilterValid(tickets, stats.NewValidOrders([]stats.OrderValidity{
		{OrderID: "A", Status: stats.OrderSucceeded},
	}))

	rows := stats.Summarize(valid)
	assert.Equal(t, []stats.SummaryRow{
		{TicketTypeName: "General", RevenueMinorUnits: 1500, QuantitySold: 2, QuantityUsed: 1},
	}, rows)
	assert.Equal(t, int64(1500), stats.TotalRevenue(rows))
}

func TestSummarizeKeepsFirstAppearanceOrder(t *testing.T) {
	now := time.Now()
	tickets := []stats.TicketRecord{
		{ID: 1, TicketTypeName: strPtr("VIP"), PriceMinorUnits: int64Ptr(5000)},
		{ID: 2, PriceMinorUnits: int64Ptr(200)},
		{ID: 3, TicketTypeName: strPtr("Early bird"), UsedAt: &now},
		{ID: 4, TicketTypeName: strPtr("VIP"), PriceMinorUnits: int64Ptr(5000), UsedAt: &now},
		{ID: 5},
	}

	rows := stats.Summarize(tickets)
	assert.Equal(t, []stats.SummaryRow{
		{TicketTypeName: "VIP", RevenueMinorUnits: 10000, QuantitySold: 2, QuantityUsed: 1},
		{TicketTypeName: stats.UnknownTicketType, RevenueMinorUnits: 200, QuantitySold: 2, QuantityUsed: 0},
		{TicketTypeName: "Early bird", RevenueMinorUnits: 0, QuantitySold: 1, QuantityUsed: 1},
	}, rows)
	assert.Equal(t, int64(10200), stats.TotalRevenue(rows))

	for _, r := range rows {
		assert.LessOrEqual(t, r.QuantityUsed, r.QuantitySold)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	rows := stats.Summarize(nil)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
	assert.Equal(t, int64(0), stats.TotalRevenue(rows))
}
