package stats

// UnknownTicketType groups tickets whose type name is missing.
const UnknownTicketType = "Unknown"

// Summarize groups sold tickets by type name, keeping the order in which
// each type first appears.
func Summarize(valid []TicketRecord) []SummaryRow {
	rows := make([]SummaryRow, 0)
	index := make(map[string]int)

	for _, t := range valid {
		name := UnknownTicketType
		if t.TicketTypeName != nil {
			name = *t.TicketTypeName
		}
		i, ok := index[name]
		if !ok {
			i = len(rows)
			index[name] = i
			rows = append(rows, SummaryRow{TicketTypeName: name})
		}
		if t.PriceMinorUnits != nil {
			rows[i].RevenueMinorUnits += *t.PriceMinorUnits
		}
		rows[i].QuantitySold++
		if t.UsedAt != nil {
			rows[i].QuantityUsed++
		}
	}
	return rows
}

// TotalRevenue sums the revenue of all rows.
func TotalRevenue(rows []SummaryRow) int64 {
	var total int64
	for _, r := range rows {
		total += r.RevenueMinorUnits
	}
	return total
}
