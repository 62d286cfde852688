package stats

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	UnknownUser     = "Unknown"
)

// UserDirectory resolves the display identity of ticket holders on a page.
type UserDirectory struct {
	Names       map[string]string
	Emails      map[string]string
	FormEntries map[int64][]string
}

// NormalizePage fills in defaults for zero values and rejects negative or
// oversized values. maxPageSize <= 0 disables the upper bound.
func NormalizePage(page, pageSize, maxPageSize int) (int, int, error) {
	if page == 0 {
		page = DefaultPage
	}
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	if page < 0 {
		return 0, 0, Invalid("normalize page", "page must be a positive number")
	}
	if pageSize < 0 {
		return 0, 0, Invalid("normalize page", "pageSize must be a positive number")
	}
	if maxPageSize > 0 && pageSize > maxPageSize {
		return 0, 0, Invalid("normalize page", "pageSize is too large")
	}
	return page, pageSize, nil
}

// PageWindow returns the slice of ids that falls on the given 1-based page.
func PageWindow(ids []int64, page, pageSize int) []int64 {
	offset := (page - 1) * pageSize
	if offset >= len(ids) || offset < 0 {
		return []int64{}
	}
	end := offset + pageSize
	if end > len(ids) {
		end = len(ids)
	}
	return ids[offset:end]
}

// TotalPages is ceil(validCount / pageSize).
func TotalPages(validCount, pageSize int) int {
	if pageSize <= 0 || validCount <= 0 {
		return 0
	}
	return (validCount + pageSize - 1) / pageSize
}

// GroupLedger groups page rows by user, in the order each user first appears.
func GroupLedger(rows []TicketRecord, dir UserDirectory) []LedgerGroup {
	groups := make([]LedgerGroup, 0)
	index := make(map[string]int)

	for _, t := range rows {
		i, ok := index[t.UserID]
		if !ok {
			i = len(groups)
			index[t.UserID] = i
			groups = append(groups, LedgerGroup{
				UserID:       t.UserID,
				UserFullName: lookupOr(dir.Names, t.UserID, UnknownUser),
				UserEmail:    lookupOr(dir.Emails, t.UserID, UnknownUser),
				Tickets:      []LedgerEntry{},
			})
		}
		groups[i].Tickets = append(groups[i].Tickets, ledgerEntry(t, dir.FormEntries))
	}
	return groups
}

func ledgerEntry(t TicketRecord, forms map[int64][]string) LedgerEntry {
	entry := LedgerEntry{
		ID:                t.ID,
		UsedAt:            t.UsedAt,
		FormSubmitEntries: []string{},
	}
	if t.TicketTypeName != nil {
		entry.TicketTypeName = *t.TicketTypeName
	}
	if t.PriceMinorUnits != nil {
		entry.PriceMinorUnits = *t.PriceMinorUnits
	}
	if t.FormSubmissionID != nil {
		if entries, ok := forms[*t.FormSubmissionID]; ok && entries != nil {
			entry.FormSubmitEntries = entries
		}
	}
	return entry
}

func lookupOr(m map[string]string, key, fallback string) string {
	if v, ok := m[key]; ok && v != "" {
		return v
	}
	return fallback
}
