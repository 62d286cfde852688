package stats

import "strings"

// FreeOrderID marks tickets issued without payment. It is never a real order id.
const FreeOrderID = "free"

// OrderStatus is the payment state of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderSucceeded OrderStatus = "succeeded"
	OrderFailed    OrderStatus = "failed"
)

// ParseOrderStatus accepts both the short form and the PAYMENT_* spelling
// used by the payment gateway table. Anything unknown counts as pending.
func ParseOrderStatus(s string) OrderStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "succeeded", "payment_succeeded":
		return OrderSucceeded
	case "failed", "payment_failed":
		return OrderFailed
	default:
		return OrderPending
	}
}

// ValidOrders is the set of order ids whose tickets count as sold.
type ValidOrders map[string]struct{}

// NewValidOrders keeps the succeeded orders out of the given statuses.
func NewValidOrders(orders []OrderValidity) ValidOrders {
	valid := make(ValidOrders, len(orders))
	for _, o := range orders {
		if o.Status == OrderSucceeded {
			valid[o.OrderID] = struct{}{}
		}
	}
	return valid
}

// Contains reports whether a ticket bought under orderID is sold.
func (v ValidOrders) Contains(orderID string) bool {
	if orderID == FreeOrderID {
		return true
	}
	_, ok := v[orderID]
	return ok
}

// FilterValid returns the sold tickets, preserving input order.
func FilterValid(tickets []TicketRecord, valid ValidOrders) []TicketRecord {
	out := make([]TicketRecord, 0, len(tickets))
	for _, t := range tickets {
		if valid.Contains(t.OrderID) {
			out = append(out, t)
		}
	}
	return out
}

// PartitionIDs splits refs into the ids of sold tickets (input order kept)
// and the number of unpaid ones.
func PartitionIDs(refs []TicketRef, valid ValidOrders) ([]int64, int) {
	ids := make([]int64, 0, len(refs))
	invalid := 0
	for _, r := range refs {
		if valid.Contains(r.OrderID) {
			ids = append(ids, r.ID)
			continue
		}
		invalid++
	}
	return ids, invalid
}
