package keai

// ApplyPinning reorders a listing so pinned ids come first, in pin-list order,
// followed by the remaining records in their native order.
//
// Pinned ids absent from the listing are silently skipped, and a record whose
// id appears in the pin list never re-appears in the remainder. The input
// slice is not mutated.
func ApplyPinning(records []Post, pinnedIDs []string) []Post {
	if len(records) == 0 {
		return []Post{}
	}
	if len(pinnedIDs) == 0 {
		ordered := make([]Post, len(records))
		copy(ordered, records)
		return ordered
	}

	byID := make(map[string]Post, len(records))
	for _, record := range records {
		byID[record.ID] = record
	}

	pinned := make(map[string]bool, len(pinnedIDs))
	ordered := make([]Post, 0, len(records))
	for _, id := range pinnedIDs {
		if pinned[id] {
			continue
		}
		pinned[id] = true
		record, exists := byID[id]
		if !exists {
			continue
		}
		record.Pinned = true
		ordered = append(ordered, record)
	}

	for _, record := range records {
		if pinned[record.ID] {
			continue
		}
		ordered = append(ordered, record)
	}

	return ordered
}
