package stats

import (
	"encoding/json"
	"time"
)

// TicketRecord is a snapshot of one issued ticket as read from the record store.
type TicketRecord struct {
	ID               int64
	EventID          int64
	TicketTypeName   *string
	PriceMinorUnits  *int64
	OrderID          string
	CreatedAt        time.Time
	UsedAt           *time.Time
	UserID           string
	FormSubmissionID *int64
}

// TicketRef is the id-level projection of a ticket used for pagination.
type TicketRef struct {
	ID      int64
	OrderID string
}

// OrderValidity pairs a payment order with its current status.
type OrderValidity struct {
	OrderID string
	Status  OrderStatus
}

// StatsCount is one headline counter of the statistics panel.
type StatsCount struct {
	Key      string `json:"key"`
	Subtitle string `json:"subtitle"`
	Data     int64  `json:"data"`
}

const (
	CountKeySold      = "sold"
	CountKeyUsed      = "used"
	CountKeyFollowing = "following"
)

// StatPoint is one point of the cumulative sold/used series.
type StatPoint struct {
	BucketKey      time.Time
	Label          string
	SoldCumulative int
	UsedCumulative int
}

// isoMillis matches the timestamp layout the dashboard sorts on.
const isoMillis = "2006-01-02T15:04:05.000Z"

func (p StatPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name          string `json:"name"`
		FormattedName string `json:"formattedName"`
		Sold          int    `json:"sold"`
		Used          int    `json:"used"`
	}{
		Name:          p.BucketKey.UTC().Format(isoMillis),
		FormattedName: p.Label,
		Sold:          p.SoldCumulative,
		Used:          p.UsedCumulative,
	})
}

// SoldTicketsStat is the payload of the sold tickets panel. It encodes as a
// two element array: the counters followed by the series.
type SoldTicketsStat struct {
	Counts []StatsCount
	Series []StatPoint
}

func (s SoldTicketsStat) MarshalJSON() ([]byte, error) {
	counts := s.Counts
	if counts == nil {
		counts = []StatsCount{}
	}
	series := s.Series
	if series == nil {
		series = []StatPoint{}
	}
	return json.Marshal([]interface{}{counts, series})
}

// SummaryRow holds per ticket type totals.
type SummaryRow struct {
	TicketTypeName    string `json:"event_tickets_name"`
	RevenueMinorUnits int64  `json:"revenue"`
	QuantitySold      int    `json:"quantitySold"`
	QuantityUsed      int    `json:"quantityUsed"`
}

// LedgerEntry is one ticket line of the ledger.
type LedgerEntry struct {
	ID                int64      `json:"id"`
	TicketTypeName    string     `json:"event_tickets_name"`
	PriceMinorUnits   int64      `json:"price"`
	UsedAt            *time.Time `json:"used_at"`
	FormSubmitEntries []string   `json:"ticket_form_submit"`
}

// LedgerGroup collects the tickets of one user on a page.
type LedgerGroup struct {
	UserID       string        `json:"-"`
	UserFullName string        `json:"user_fullname"`
	UserEmail    string        `json:"user_email"`
	Tickets      []LedgerEntry `json:"tickets"`
}

// LedgerPage is one page of the per user ticket ledger.
type LedgerPage struct {
	Rows            []LedgerGroup `json:"tickets"`
	TotalValidCount int           `json:"totalCount"`
	CurrentPage     int           `json:"currentPage"`
	TotalPages      int           `json:"totalPages"`
}
